package httputil

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// StatusError is returned for responses the caller did not expect.
type StatusError struct {
	Code int
	Body []byte
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(string(e.Body))
	if len(body) > 256 {
		body = body[:256] + "..."
	}

	return fmt.Sprintf("unexpected status code %d with body: %s", e.Code, body)
}

func ReadResponseBody(resp *http.Response) ([]byte, error) {
	respBody, err := io.ReadAll(resp.Body)
	if nil != err {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if len(respBody) == 0 {
		return nil, errors.New("unexpected empty response body")
	}

	return respBody, nil
}

// UnexpectedStatus reads the body of resp (best effort) into a StatusError.
func UnexpectedStatus(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &StatusError{Code: resp.StatusCode, Body: b}
}

func IsTooManyRequests(resp *http.Response) bool {
	return resp.StatusCode == http.StatusTooManyRequests
}

func CloseBody(resp *http.Response, err *error) {
	if closeErr := resp.Body.Close(); nil != closeErr {
		*err = errors.Join(*err, fmt.Errorf("failed to close response body: %v", closeErr))
	}
}
