package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/neura-neura/sp0t-dl-tg/catalog"
)

type StreamURLResolver interface {
	StreamURL(ctx context.Context, fileID string) (string, error)
}

type Fetcher interface {
	Download(ctx context.Context, url, path string) error
}

// Stage is a completed pipeline step, reported through the progress callback.
type Stage int

const (
	StageDownloaded Stage = iota + 1
	StageUnprotected
	StageTranscoded
	StageTagged
)

type Pipeline struct {
	resolver    StreamURLResolver
	fetcher     Fetcher
	unprotector Unprotector
	transcoder  Transcoder
}

func NewPipeline(resolver StreamURLResolver, fetcher Fetcher, unprotector Unprotector, transcoder Transcoder) *Pipeline {
	return &Pipeline{
		resolver:    resolver,
		fetcher:     fetcher,
		unprotector: unprotector,
		transcoder:  transcoder,
	}
}

// Process turns the protected stream of fileID into a tagged file inside the
// asset's scratch directory and returns its path. Intermediates are removed
// whatever the outcome, and so is the final file when a step fails.
func (p *Pipeline) Process(
	ctx context.Context,
	logger zerolog.Logger,
	files AssetFiles,
	fileID string,
	key string,
	tags *catalog.TagSet,
	progress func(Stage),
) (finalPath string, err error) {
	files.Final = filepath.Join(files.Dir, FinalName(tags))
	defer func() {
		if removeErr := files.RemoveIntermediates(); nil != removeErr {
			logger.Error().Err(removeErr).Msg("Failed to remove intermediate files")
		}

		if nil != err {
			if removeErr := removeFiles(files.Final); nil != removeErr {
				logger.Error().Err(removeErr).Msg("Failed to remove incomplete final file")
			}
		}
	}()

	url, err := p.resolver.StreamURL(ctx, fileID)
	if nil != err {
		return "", fmt.Errorf("failed to resolve stream url: %w", err)
	}

	if err := p.fetcher.Download(ctx, url, files.Protected); nil != err {
		return "", fmt.Errorf("failed to download protected stream: %w", err)
	}
	progress(StageDownloaded)

	if err := p.unprotector.Unprotect(ctx, logger, files.Protected, key, files.Unprotected); nil != err {
		return "", fmt.Errorf("failed to unprotect stream: %w", err)
	}
	progress(StageUnprotected)

	if err := p.transcoder.Transcode(ctx, logger, files.Unprotected, files.Transcoded); nil != err {
		return "", fmt.Errorf("failed to transcode stream: %w", err)
	}
	progress(StageTranscoded)

	if err := copyFile(files.Transcoded, files.Final); nil != err {
		return "", err
	}

	if err := WriteTags(files.Final, tags); nil != err {
		return "", fmt.Errorf("failed to tag %s: %w", filepath.Base(files.Final), err)
	}
	progress(StageTagged)

	logger.Debug().Str("path", files.Final).Msg("Asset processed")

	return files.Final, nil
}

func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if nil != err {
		return fmt.Errorf("failed to open transcoded file: %v", err)
	}
	defer func() {
		if closeErr := in.Close(); nil != closeErr {
			err = errors.Join(err, fmt.Errorf("failed to close transcoded file: %v", closeErr))
		}
	}()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o0600)
	if nil != err {
		return fmt.Errorf("failed to create final file: %v", err)
	}
	defer func() {
		if closeErr := out.Close(); nil != closeErr {
			err = errors.Join(err, fmt.Errorf("failed to close final file: %v", closeErr))
		}
	}()

	if _, err := io.Copy(out, in); nil != err {
		return fmt.Errorf("failed to copy transcoded file: %v", err)
	}

	return nil
}
