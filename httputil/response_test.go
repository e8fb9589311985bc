package httputil_test

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neura-neura/sp0t-dl-tg/httputil"
)

func response(code int, body string) *http.Response {
	return &http.Response{ //nolint:exhaustruct
		StatusCode: code,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestReadResponseBody(t *testing.T) {
	t.Parallel()

	b, err := httputil.ReadResponseBody(response(http.StatusOK, `{"a":1}`))
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(b))

	_, err = httputil.ReadResponseBody(response(http.StatusOK, ""))
	require.Error(t, err)
}

func TestUnexpectedStatus(t *testing.T) {
	t.Parallel()

	err := httputil.UnexpectedStatus(response(http.StatusBadGateway, "upstream down"))

	var statusErr *httputil.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.Code)
	assert.Contains(t, err.Error(), "upstream down")
	assert.True(t, httputil.IsTooManyRequests(response(http.StatusTooManyRequests, "")))
}
