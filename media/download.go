package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/neura-neura/sp0t-dl-tg/httputil"
)

// Downloader streams a protected asset to disk. The stored container is not
// inspected, so framing that players reject is kept byte for byte.
type Downloader struct {
	http    *http.Client
	timeout time.Duration
}

func NewDownloader(httpClient *http.Client, timeout time.Duration) *Downloader {
	return &Downloader{http: httpClient, timeout: timeout}
}

// Download refuses to overwrite an existing target and removes the partial
// file on failure.
func (d *Downloader) Download(ctx context.Context, url, path string) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o0600)
	if nil != err {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", ErrTargetExists, path)
		}

		return fmt.Errorf("failed to create download file: %v", err)
	}
	defer func() {
		if closeErr := f.Close(); nil != closeErr {
			err = errors.Join(err, fmt.Errorf("failed to close download file: %v", closeErr))
		}

		if nil != err {
			if removeErr := os.Remove(path); nil != removeErr && !errors.Is(removeErr, os.ErrNotExist) {
				err = errors.Join(err, fmt.Errorf("failed to remove incomplete download file: %v", removeErr))
			}
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if nil != err {
		return fmt.Errorf("failed to create download request: %v", err)
	}

	resp, err := d.http.Do(req)
	if nil != err {
		if errors.Is(err, context.DeadlineExceeded) {
			return context.DeadlineExceeded
		}

		if errors.Is(err, context.Canceled) {
			return context.Canceled
		}

		return fmt.Errorf("failed to send download request: %v", err)
	}
	defer httputil.CloseBody(resp, &err)

	if resp.StatusCode != http.StatusOK {
		return httputil.UnexpectedStatus(resp)
	}

	if _, err := io.Copy(f, resp.Body); nil != err {
		if errors.Is(err, context.DeadlineExceeded) {
			return context.DeadlineExceeded
		}

		return fmt.Errorf("failed to write download file: %v", err)
	}

	if err := f.Sync(); nil != err {
		return fmt.Errorf("failed to sync download file: %v", err)
	}

	return nil
}
