package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/neura-neura/sp0t-dl-tg/catalog"
	"github.com/neura-neura/sp0t-dl-tg/media"
)

type recordingSink struct {
	mu       sync.Mutex
	statuses []string
}

func (s *recordingSink) SetStatus(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses = append(s.statuses, text)

	return nil
}

func (s *recordingSink) all() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.statuses...)
}

type fakeCatalog struct {
	noAudio map[string]bool
	failing map[string]error
}

func (c fakeCatalog) StreamFileID(_ context.Context, id string) (string, error) {
	if c.noAudio[id] {
		return "", catalog.ErrNoAudioAvailable
	}

	return "file-" + id, nil
}

func (c fakeCatalog) TrackTags(_ context.Context, id string) (*catalog.TagSet, error) {
	if err := c.failing[id]; nil != err {
		return nil, err
	}

	return &catalog.TagSet{ID: id, Artist: "Artist", Title: "Song " + id}, nil //nolint:exhaustruct
}

type fakeKeys struct{}

func (fakeKeys) ResolveContentKey(_ context.Context, _ zerolog.Logger, fileID string) (string, error) {
	return "1:" + fileID, nil
}

type fakeProcessor struct {
	onProcess func(ctx context.Context, id string) error
}

func (p fakeProcessor) Process(
	ctx context.Context,
	_ zerolog.Logger,
	files media.AssetFiles,
	_ string,
	_ string,
	tags *catalog.TagSet,
	progress func(media.Stage),
) (string, error) {
	if nil != p.onProcess {
		if err := p.onProcess(ctx, tags.ID); nil != err {
			return "", err
		}
	}

	final := filepath.Join(files.Dir, media.FinalName(tags))
	if err := os.WriteFile(final, []byte("mp3"), 0o0600); nil != err {
		return "", err
	}
	for _, s := range []media.Stage{media.StageDownloaded, media.StageUnprotected, media.StageTranscoded, media.StageTagged} {
		progress(s)
	}

	return final, nil
}

type fakeDeliverer struct {
	mu        sync.Mutex
	delivered []string
	errs      []error
	calls     int
}

func (d *fakeDeliverer) Deliver(_ context.Context, path string, tags *catalog.TagSet) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.calls++
	if len(d.errs) > 0 {
		err := d.errs[0]
		d.errs = d.errs[1:]
		if nil != err {
			return err
		}
	}

	if _, err := os.Stat(path); nil != err {
		return errors.New("delivered file is missing")
	}
	d.delivered = append(d.delivered, tags.ID)

	return nil
}

// recordBackoff wraps b and appends every wait it hands out to waits.
func recordBackoff(b retry.Backoff, mu *sync.Mutex, waits *[]time.Duration) retry.Backoff {
	return retry.BackoffFunc(func() (time.Duration, bool) {
		d, stop := b.Next()
		if !stop {
			mu.Lock()
			*waits = append(*waits, d)
			mu.Unlock()
		}

		return d, stop
	})
}

func newTestOrchestrator(t *testing.T, cat fakeCatalog, processor fakeProcessor, backoff func() retry.Backoff) (*Orchestrator, string) {
	t.Helper()

	root := t.TempDir()
	if nil == backoff {
		backoff = func() retry.Backoff { return DeliveryBackoff(time.Millisecond, 5) }
	}

	return &Orchestrator{
		tags:       cat,
		streams:    cat,
		keys:       fakeKeys{},
		processor:  processor,
		scratchDir: root,
		backoff:    backoff,
		pause:      0,
	}, root
}
