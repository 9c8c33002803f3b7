package workout

import "errors"

var (
	ErrNotFound         = errors.New("record not found")
	ErrInvalidData      = errors.New("invalid workout data")
	ErrDuplicateName    = errors.New("name already exists")
	ErrUnknownTombstone = errors.New("unknown tombstone kind")
)
