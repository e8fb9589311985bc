package session_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neura-neura/sp0t-dl-tg/session"
)

type tokenServer struct {
	tokenCalls       atomic.Int32
	clientTokenCalls atomic.Int32
	failToken        bool
}

func (ts *tokenServer) handler(t *testing.T) http.Handler {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		n := ts.tokenCalls.Add(1)
		assert.Regexp(t, `^[0-9]{6}$`, r.URL.Query().Get("totp"))
		assert.Equal(t, r.URL.Query().Get("totp"), r.URL.Query().Get("totpServer"))
		assert.Equal(t, "7", r.URL.Query().Get("totpVer"))

		if ts.failToken {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		if _, err := r.Cookie("device"); nil == err && n == 1 {
			_, _ = io.WriteString(w, `{"clientId":"client-42"}`)
			return
		}
		_, _ = io.WriteString(w, `{"accessToken":"bearer-1"}`)
	})
	mux.HandleFunc("/clienttoken", func(w http.ResponseWriter, r *http.Request) {
		ts.clientTokenCalls.Add(1)

		var body struct {
			ClientData struct {
				ClientVersion string `json:"client_version"`
				ClientID      string `json:"client_id"`
				SDK           struct {
					DeviceID string `json:"device_id"`
				} `json:"js_sdk_data"`
			} `json:"client_data"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "client-42", body.ClientData.ClientID)
		assert.Equal(t, "abc", body.ClientData.SDK.DeviceID)
		assert.Equal(t, "1.0.0", body.ClientData.ClientVersion)

		_, _ = io.WriteString(w, `{"granted_token":{"token":"client-token-9"}}`)
	})

	return mux
}

func options(srvURL string) session.Options {
	return session.Options{
		TokenURL:       srvURL + "/token",
		ClientTokenURL: srvURL + "/clienttoken",
		ClientVersion:  "1.0.0",
		IdentityCookie: "device",
		TOTP:           session.NewTOTP([]byte("secret")),
		TOTPVersion:    7,
		Timeout:        5 * time.Second,
		Now:            func() time.Time { return time.Unix(1_700_000_000, 0) },
	}
}

func TestInitializeWithIdentityCookie(t *testing.T) {
	t.Parallel()

	ts := &tokenServer{}
	srv := httptest.NewServer(ts.handler(t))
	t.Cleanup(srv.Close)

	cookies := []*http.Cookie{{Name: "device", Value: "abc", Domain: ".example.com", Path: "/"}}
	s, err := session.Initialize(context.Background(), zerolog.Nop(), options(srv.URL), cookies)
	require.NoError(t, err)

	assert.Equal(t, session.Credentials{BearerToken: "bearer-1", ClientToken: "client-token-9"}, s.Credentials())
	assert.Equal(t, int32(2), ts.tokenCalls.Load())
	assert.Equal(t, int32(1), ts.clientTokenCalls.Load())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	s.Authorize(req)
	assert.Equal(t, "Bearer bearer-1", req.Header.Get("Authorization"))
	assert.Equal(t, "client-token-9", req.Header.Get("Client-Token"))
}

func TestInitializeWithoutCookies(t *testing.T) {
	t.Parallel()

	ts := &tokenServer{}
	srv := httptest.NewServer(ts.handler(t))
	t.Cleanup(srv.Close)

	s, err := session.Initialize(context.Background(), zerolog.Nop(), options(srv.URL), nil)
	require.NoError(t, err)

	assert.Equal(t, "bearer-1", s.Credentials().BearerToken)
	assert.Empty(t, s.Credentials().ClientToken)
	assert.Equal(t, int32(1), ts.tokenCalls.Load())
	assert.Equal(t, int32(0), ts.clientTokenCalls.Load())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	s.Authorize(req)
	assert.Empty(t, req.Header.Get("Client-Token"))
}

func TestInitializeFailureIsAuthError(t *testing.T) {
	t.Parallel()

	ts := &tokenServer{failToken: true}
	srv := httptest.NewServer(ts.handler(t))
	t.Cleanup(srv.Close)

	_, err := session.Initialize(context.Background(), zerolog.Nop(), options(srv.URL), nil)
	require.ErrorIs(t, err, session.ErrAuth)
	assert.Equal(t, int32(1), ts.tokenCalls.Load())
}

func TestRenewReplacesBearer(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := calls.Add(1)
		_, _ = io.WriteString(w, `{"accessToken":"bearer-`+string(rune('0'+n))+`"}`)
	}))
	t.Cleanup(srv.Close)

	s, err := session.Initialize(context.Background(), zerolog.Nop(), options(srv.URL), nil)
	require.NoError(t, err)
	assert.Equal(t, "bearer-1", s.Credentials().BearerToken)

	require.NoError(t, s.Renew(context.Background()))
	assert.Equal(t, "bearer-2", s.Credentials().BearerToken)
}

func TestKeepFreshRenewsUntilCanceled(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = io.WriteString(w, `{"accessToken":"bearer"}`)
	}))
	t.Cleanup(srv.Close)

	s, err := session.Initialize(context.Background(), zerolog.Nop(), options(srv.URL), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.KeepFresh(ctx, zerolog.Nop(), 5*time.Millisecond)
	}()

	require.Eventually(t, func() bool { return calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("KeepFresh did not return after cancellation")
	}
}
