package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/neura-neura/sp0t-dl-tg/config"
	"github.com/neura-neura/sp0t-dl-tg/httputil"
)

var ErrAuth = errors.New("session renewal failed")

type Options struct {
	TokenURL       string
	ClientTokenURL string
	ClientVersion  string
	IdentityCookie string
	TOTP           TOTP
	TOTPVersion    int
	Timeout        time.Duration
	Now            func() time.Time
}

func OptionsFromConfig(conf config.Session) Options {
	return Options{
		TokenURL:       conf.TokenURL,
		ClientTokenURL: conf.ClientTokenURL,
		ClientVersion:  conf.ClientVersion,
		IdentityCookie: conf.IdentityCookie,
		TOTP:           NewTOTP([]byte(conf.TOTPSecret)),
		TOTPVersion:    conf.TOTPVersion,
		Timeout:        conf.RequestTimeout(),
		Now:            time.Now,
	}
}

type Credentials struct {
	BearerToken string
	ClientToken string
}

// Session carries the cookie jar and tokens every catalog and license call
// is authorized with. It is created by Initialize and only mutated by Renew.
type Session struct {
	opts        Options
	client      *http.Client
	credentials atomic.Pointer[Credentials]
}

func (s *Session) HTTPClient() *http.Client {
	return s.client
}

func (s *Session) Credentials() Credentials {
	return *s.credentials.Load()
}

// Authorize decorates req with the bearer and client-scoped tokens.
func (s *Session) Authorize(req *http.Request) {
	creds := s.credentials.Load()
	req.Header.Set("Authorization", "Bearer "+creds.BearerToken)
	if creds.ClientToken != "" {
		req.Header.Set("Client-Token", creds.ClientToken)
	}
}

// Initialize loads the identity cookie (when present) to obtain a client-scoped
// token, then fetches the bearer token. Any failure is wrapped in ErrAuth.
func Initialize(ctx context.Context, logger zerolog.Logger, opts Options, cookies []*http.Cookie) (*Session, error) {
	if nil == opts.Now {
		opts.Now = time.Now
	}

	jar, err := cookiejar.New(nil)
	if nil != err {
		return nil, fmt.Errorf("%w: create cookie jar: %v", ErrAuth, err)
	}

	tokenURL, err := url.Parse(opts.TokenURL)
	if nil != err {
		return nil, fmt.Errorf("%w: parse token url: %v", ErrAuth, err)
	}

	hostCookies := make([]*http.Cookie, len(cookies))
	for i, c := range cookies {
		hc := *c
		hc.Domain = ""
		hostCookies[i] = &hc
	}
	jar.SetCookies(tokenURL, hostCookies)

	s := &Session{
		opts:        opts,
		client:      &http.Client{Jar: jar, Timeout: opts.Timeout}, //nolint:exhaustruct
		credentials: atomic.Pointer[Credentials]{},
	}
	s.credentials.Store(&Credentials{BearerToken: "", ClientToken: ""})

	var clientToken string
	if identity, ok := findCookie(cookies, opts.IdentityCookie); ok {
		logger.Debug().Msg("Identity cookie found, requesting client token")

		clientToken, err = s.clientToken(ctx, identity)
		if nil != err {
			return nil, fmt.Errorf("%w: %w", ErrAuth, err)
		}
	} else {
		logger.Debug().Msg("No identity cookie found, continuing without client token")
	}

	bearer, err := s.fetchToken(ctx, nil)
	if nil != err {
		return nil, fmt.Errorf("%w: fetch bearer token: %w", ErrAuth, err)
	}

	s.credentials.Store(&Credentials{BearerToken: bearer.AccessToken, ClientToken: clientToken})
	logger.Info().Bool("has_client_token", clientToken != "").Msg("Session initialized")

	return s, nil
}

// Renew replaces the bearer token, keeping the client-scoped token.
func (s *Session) Renew(ctx context.Context) error {
	bearer, err := s.fetchToken(ctx, nil)
	if nil != err {
		return fmt.Errorf("%w: renew bearer token: %w", ErrAuth, err)
	}

	prev := s.credentials.Load()
	s.credentials.Store(&Credentials{BearerToken: bearer.AccessToken, ClientToken: prev.ClientToken})

	return nil
}

// KeepFresh renews the bearer token every interval until ctx is done.
// Failed renewals are logged and retried on the next tick.
func (s *Session) KeepFresh(ctx context.Context, logger zerolog.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Renew(ctx); nil != err {
				if errors.Is(err, context.Canceled) {
					return
				}
				logger.Error().Err(err).Msg("Failed to renew session")
				continue
			}
			logger.Debug().Msg("Session renewed")
		}
	}
}

type tokenResponse struct {
	AccessToken string `json:"accessToken"` //nolint:gosec
	ClientID    string `json:"clientId"`
}

func (s *Session) clientToken(ctx context.Context, identity *http.Cookie) (string, error) {
	descriptor, err := s.fetchToken(ctx, identity)
	if nil != err {
		return "", fmt.Errorf("fetch session descriptor: %w", err)
	}

	reqBody, err := json.Marshal(map[string]any{
		"client_data": map[string]any{
			"client_version": s.opts.ClientVersion,
			"client_id":      descriptor.ClientID,
			"js_sdk_data": map[string]string{
				"device_id":   identity.Value,
				"device_type": "computer",
			},
		},
	})
	if nil != err {
		return "", fmt.Errorf("encode client token request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.opts.ClientTokenURL, bytes.NewReader(reqBody))
	if nil != err {
		return "", fmt.Errorf("create client token request: %v", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	respBytes, err := s.do(req)
	if nil != err {
		return "", fmt.Errorf("client token request: %w", err)
	}

	var respBody struct {
		GrantedToken struct {
			Token string `json:"token"`
		} `json:"granted_token"`
	}
	if err := json.Unmarshal(respBytes, &respBody); nil != err {
		return "", fmt.Errorf("decode client token response: %v", err)
	}

	if respBody.GrantedToken.Token == "" {
		return "", errors.New("client token response carries no token")
	}

	return respBody.GrantedToken.Token, nil
}

func (s *Session) fetchToken(ctx context.Context, identity *http.Cookie) (*tokenResponse, error) {
	reqURL, err := url.Parse(s.opts.TokenURL)
	if nil != err {
		return nil, fmt.Errorf("parse token url: %v", err)
	}

	code := s.opts.TOTP.Generate(s.opts.Now())
	params := reqURL.Query()
	params.Set("reason", "init")
	params.Set("totp", code)
	params.Set("totpServer", code)
	params.Set("totpVer", strconv.Itoa(s.opts.TOTPVersion))
	reqURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if nil != err {
		return nil, fmt.Errorf("create token request: %v", err)
	}
	req.Header.Set("Accept", "application/json")
	if nil != identity {
		req.AddCookie(&http.Cookie{Name: identity.Name, Value: identity.Value}) //nolint:exhaustruct
	}

	respBytes, err := s.do(req)
	if nil != err {
		return nil, fmt.Errorf("token request: %w", err)
	}

	var respBody tokenResponse
	if err := json.Unmarshal(respBytes, &respBody); nil != err {
		return nil, fmt.Errorf("decode token response: %v", err)
	}

	if nil == identity && respBody.AccessToken == "" {
		return nil, errors.New("token response carries no access token")
	}

	return &respBody, nil
}

func (s *Session) do(req *http.Request) (b []byte, err error) {
	resp, err := s.client.Do(req)
	if nil != err {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, context.DeadlineExceeded
		}

		if errors.Is(err, context.Canceled) {
			return nil, context.Canceled
		}

		return nil, fmt.Errorf("send request: %v", err)
	}
	defer httputil.CloseBody(resp, &err)

	if resp.StatusCode != http.StatusOK {
		return nil, httputil.UnexpectedStatus(resp)
	}

	return httputil.ReadResponseBody(resp)
}
