package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/tidwall/gjson"
)

// StreamFileID picks the highest bitrate file of the track manifest.
func (c *Client) StreamFileID(ctx context.Context, trackID string) (string, error) {
	reqURL := fmt.Sprintf(c.conf.ManifestURLFormat, trackID)
	respBytes, err := c.get(ctx, reqURL, time.Duration(c.conf.Timeouts.Manifest)*time.Second)
	if nil != err {
		return "", fmt.Errorf("failed to get track %s manifest: %w", trackID, err)
	}

	if !gjson.ValidBytes(respBytes) {
		return "", fmt.Errorf("%w: track %s manifest is not json", ErrMalformedResponse, trackID)
	}

	return SelectFileID(manifestCandidates(respBytes))
}

func manifestCandidates(b []byte) []StreamCandidate {
	var out []StreamCandidate
	gjson.GetBytes(b, "media").ForEach(func(_, entry gjson.Result) bool {
		entry.Get("item.manifest").ForEach(func(_, files gjson.Result) bool {
			if !files.IsArray() {
				return true
			}

			for _, f := range files.Array() {
				bitrate, fileID := f.Get("bitrate"), f.Get("file_id")
				if !f.IsObject() || bitrate.Int() == 0 || !fileID.Exists() {
					continue
				}
				out = append(out, StreamCandidate{Bitrate: bitrate.Int(), FileID: fileID.Str})
			}

			return true
		})

		return true
	})

	return out
}

// SelectFileID returns the file id with the highest bitrate. Equal bitrates
// are broken by the larger file id.
func SelectFileID(candidates []StreamCandidate) (string, error) {
	if len(candidates) == 0 {
		return "", ErrNoAudioAvailable
	}

	best := lo.MaxBy(candidates, func(a, b StreamCandidate) bool {
		if a.Bitrate != b.Bitrate {
			return a.Bitrate > b.Bitrate
		}

		return a.FileID > b.FileID
	})

	return best.FileID, nil
}

// StreamURL resolves the first CDN URL serving fileID.
func (c *Client) StreamURL(ctx context.Context, fileID string) (string, error) {
	reqURL := fmt.Sprintf(c.conf.StorageURLFormat, fileID)
	respBytes, err := c.get(ctx, reqURL, time.Duration(c.conf.Timeouts.StreamURL)*time.Second)
	if nil != err {
		return "", fmt.Errorf("failed to resolve file %s storage: %w", fileID, err)
	}

	cdnURL := gjson.GetBytes(respBytes, "cdnurl.0")
	if cdnURL.Str == "" {
		return "", fmt.Errorf("%w: file %s storage response has no cdn url", ErrMalformedResponse, fileID)
	}

	return cdnURL.Str, nil
}
