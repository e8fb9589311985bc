package media_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neura-neura/sp0t-dl-tg/config"
	"github.com/neura-neura/sp0t-dl-tg/media"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "tool.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o0700)) //nolint:gosec

	return path
}

func TestExecUnprotector(t *testing.T) {
	t.Parallel()

	// Arguments arrive as: <in> --key <key> <out>.
	script := writeScript(t, `[ "$2" = "--key" ] || exit 9
printf '%s' "$3" > "$4"`)
	dir := t.TempDir()
	out := filepath.Join(dir, "out.mp4")

	u := media.ExecUnprotector{Path: script, Timeout: 5 * time.Second}
	require.NoError(t, u.Unprotect(context.Background(), zerolog.Nop(), filepath.Join(dir, "in.mp4"), "1:abcd", out))

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "1:abcd", string(b))
}

func TestExecTranscoderArguments(t *testing.T) {
	t.Parallel()

	script := writeScript(t, `printf '%s ' "$@" > "${10}"`)
	out := filepath.Join(t.TempDir(), "out.mp3")

	tr := media.ExecTranscoder{Path: script, Timeout: 5 * time.Second}
	require.NoError(t, tr.Transcode(context.Background(), zerolog.Nop(), "in.mp4", out))

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "-loglevel error -y -i in.mp4 -c:a libmp3lame -b:a 320k "+out+" ", string(b))
}

func TestExecFailures(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		path    func(t *testing.T) string
		timeout time.Duration
	}{
		{
			name:    "non-zero exit",
			path:    func(t *testing.T) string { t.Helper(); return writeScript(t, "echo broken >&2; exit 3") },
			timeout: 5 * time.Second,
		},
		{
			name:    "exceeds timeout",
			path:    func(t *testing.T) string { t.Helper(); return writeScript(t, "exec sleep 10") },
			timeout: 100 * time.Millisecond,
		},
		{
			name:    "missing binary",
			path:    func(t *testing.T) string { t.Helper(); return filepath.Join(t.TempDir(), "absent") },
			timeout: 5 * time.Second,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			tr := media.ExecTranscoder{Path: tc.path(t), Timeout: tc.timeout}
			err := tr.Transcode(context.Background(), zerolog.Nop(), "in", "out")
			require.ErrorIs(t, err, media.ErrProcess)
		})
	}
}

func TestToolsFromConfig(t *testing.T) {
	t.Parallel()

	u, tr := media.ToolsFromConfig(config.Tools{
		UnprotectPath:    "mp4decrypt",
		TranscodePath:    "ffmpeg",
		UnprotectTimeout: 120,
		TranscodeTimeout: 300,
	})
	assert.Equal(t, media.ExecUnprotector{Path: "mp4decrypt", Timeout: 2 * time.Minute}, u)
	assert.Equal(t, media.ExecTranscoder{Path: "ffmpeg", Timeout: 5 * time.Minute}, tr)
}
