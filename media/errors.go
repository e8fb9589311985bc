package media

import "errors"

var (
	ErrTargetExists = errors.New("target file already exists")
	ErrProcess      = errors.New("external process failed")
)
