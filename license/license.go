package license

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/neura-neura/sp0t-dl-tg/config"
	"github.com/neura-neura/sp0t-dl-tg/httputil"
)

var (
	ErrLicense               = errors.New("license exchange failed")
	ErrNoContentKey          = errors.New("license carries no content key")
	ErrProtectionUnavailable = errors.New("no protection client configured")
)

const KeyTypeContent = "CONTENT"

type Key struct {
	KID  []byte
	Type string
	Key  []byte
}

// ProtectionClient is a protection-system session factory bound to a device
// profile. Implementations are supplied by the deployment.
type ProtectionClient interface {
	Open() (string, error)
	Challenge(sessionID string, header []byte) ([]byte, error)
	ParseLicense(sessionID string, license []byte) error
	Keys(sessionID string) ([]Key, error)
	Close(sessionID string) error
}

type Authorizer interface {
	Authorize(req *http.Request)
}

type Exchanger struct {
	auth Authorizer
	http *http.Client
	conf config.License
	pc   ProtectionClient
}

func NewExchanger(auth Authorizer, httpClient *http.Client, conf config.License, pc ProtectionClient) *Exchanger {
	return &Exchanger{
		auth: auth,
		http: httpClient,
		conf: conf,
		pc:   pc,
	}
}

// ResolveContentKey returns the content key of fileID formatted for the
// unprotect tool ("1:<hex>"). Every step is single-shot.
func (e *Exchanger) ResolveContentKey(ctx context.Context, logger zerolog.Logger, fileID string) (key string, err error) {
	header, err := e.Header(ctx, fileID)
	if nil != err {
		return "", err
	}

	sessionID, err := e.pc.Open()
	if nil != err {
		return "", fmt.Errorf("%w: failed to open protection session: %w", ErrLicense, err)
	}
	defer func() {
		if closeErr := e.pc.Close(sessionID); nil != closeErr {
			logger.Error().Err(closeErr).Str("session_id", sessionID).Msg("Failed to close protection session")
		}
	}()

	challenge, err := e.pc.Challenge(sessionID, header)
	if nil != err {
		return "", fmt.Errorf("%w: failed to build challenge: %w", ErrLicense, err)
	}

	lic, err := e.exchange(ctx, challenge)
	if nil != err {
		return "", err
	}

	if err := e.pc.ParseLicense(sessionID, lic); nil != err {
		return "", fmt.Errorf("%w: failed to parse license: %w", ErrLicense, err)
	}

	keys, err := e.pc.Keys(sessionID)
	if nil != err {
		return "", fmt.Errorf("%w: failed to list session keys: %w", ErrLicense, err)
	}

	content, err := SelectContentKey(keys)
	if nil != err {
		return "", err
	}
	logger.Debug().Str("kid", hex.EncodeToString(content.KID)).Msg("Resolved content key")

	return "1:" + hex.EncodeToString(content.Key), nil
}

// SelectContentKey returns the first key whose role is content.
func SelectContentKey(keys []Key) (*Key, error) {
	for i := range keys {
		if strings.EqualFold(keys[i].Type, KeyTypeContent) {
			return &keys[i], nil
		}
	}

	return nil, ErrNoContentKey
}

type seekTable struct {
	PSSH string `json:"pssh"`
}

// Header fetches the protection header of fileID from the seek table.
func (e *Exchanger) Header(ctx context.Context, fileID string) ([]byte, error) {
	reqURL := fmt.Sprintf(e.conf.SeekTableURLFormat, fileID)
	respBytes, err := e.send(ctx, http.MethodGet, reqURL, nil)
	if nil != err {
		return nil, fmt.Errorf("failed to get seek table for %s: %w", fileID, err)
	}

	var table seekTable
	if err := json.Unmarshal(respBytes, &table); nil != err {
		return nil, fmt.Errorf("%w: invalid seek table for %s: %v", ErrLicense, fileID, err)
	}

	if table.PSSH == "" {
		return nil, fmt.Errorf("%w: seek table for %s has no protection header", ErrLicense, fileID)
	}

	header, err := base64.StdEncoding.DecodeString(table.PSSH)
	if nil != err {
		return nil, fmt.Errorf("%w: protection header for %s is not base64: %v", ErrLicense, fileID, err)
	}

	return header, nil
}

func (e *Exchanger) exchange(ctx context.Context, challenge []byte) ([]byte, error) {
	lic, err := e.send(ctx, http.MethodPost, e.conf.LicenseURL, challenge)
	if nil != err {
		return nil, fmt.Errorf("failed to post license challenge: %w", err)
	}

	return lic, nil
}

func (e *Exchanger) send(ctx context.Context, method, reqURL string, body []byte) (b []byte, err error) {
	ctx, cancel := context.WithTimeout(ctx, e.conf.RequestTimeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bytes.NewReader(body))
	if nil != err {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrLicense, err)
	}
	if nil != body {
		req.Header.Set("Content-Type", "application/octet-stream")
	}
	e.auth.Authorize(req)

	resp, err := e.http.Do(req)
	if nil != err {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, context.DeadlineExceeded
		}

		if errors.Is(err, context.Canceled) {
			return nil, context.Canceled
		}

		return nil, fmt.Errorf("%w: failed to send request: %v", ErrLicense, err)
	}
	defer httputil.CloseBody(resp, &err)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %w", ErrLicense, httputil.UnexpectedStatus(resp))
	}

	b, err = httputil.ReadResponseBody(resp)
	if nil != err {
		return nil, fmt.Errorf("%w: %w", ErrLicense, err)
	}

	return b, nil
}
