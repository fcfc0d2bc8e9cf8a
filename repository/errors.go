package repository

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidFolder     = errors.New("invalid folder")
	ErrUnsupportedFormat = errors.New("only MP3 and WAV files are supported")
	ErrInvalidRequest    = errors.New("invalid request")
)
