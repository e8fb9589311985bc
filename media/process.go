package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/neura-neura/sp0t-dl-tg/config"
)

// Unprotector removes the protection layer of a downloaded asset.
type Unprotector interface {
	Unprotect(ctx context.Context, logger zerolog.Logger, in, key, out string) error
}

// Transcoder re-encodes an unprotected asset into the delivered format.
type Transcoder interface {
	Transcode(ctx context.Context, logger zerolog.Logger, in, out string) error
}

type ExecUnprotector struct {
	Path    string
	Timeout time.Duration
}

func (u ExecUnprotector) Unprotect(ctx context.Context, logger zerolog.Logger, in, key, out string) error {
	return run(ctx, logger, u.Timeout, u.Path, in, "--key", key, out)
}

type ExecTranscoder struct {
	Path    string
	Timeout time.Duration
}

func (t ExecTranscoder) Transcode(ctx context.Context, logger zerolog.Logger, in, out string) error {
	return run(ctx, logger, t.Timeout, t.Path, "-loglevel", "error", "-y", "-i", in, "-c:a", "libmp3lame", "-b:a", "320k", out)
}

func ToolsFromConfig(c config.Tools) (ExecUnprotector, ExecTranscoder) {
	return ExecUnprotector{
			Path:    c.UnprotectPath,
			Timeout: time.Duration(c.UnprotectTimeout) * time.Second,
		}, ExecTranscoder{
			Path:    c.TranscodePath,
			Timeout: time.Duration(c.TranscodeTimeout) * time.Second,
		}
}

func run(ctx context.Context, logger zerolog.Logger, timeout time.Duration, bin string, args ...string) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stderr = &stderr
	cmd.WaitDelay = 5 * time.Second
	logger.Debug().Str("bin", bin).Msg("Starting external process")

	if err := cmd.Run(); nil != err {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s did not finish within %s", ErrProcess, bin, timeout)
		}

		if errors.Is(ctx.Err(), context.Canceled) {
			return context.Canceled
		}

		return fmt.Errorf("%w: %s: %v: %s", ErrProcess, bin, err, strings.TrimSpace(stderr.String()))
	}

	return nil
}
