package catalog

import (
	"errors"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrTooManyRequests   = errors.New("rate limit exceeded, try again later")
	ErrMalformedResponse = errors.New("malformed catalog response")
	ErrNoAudioAvailable  = errors.New("no audio files available")
	ErrNoProgress        = errors.New("playlist pagination made no progress")
)
