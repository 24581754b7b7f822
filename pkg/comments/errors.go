package comments

import "errors"

var (
	ErrEmptyComment  = errors.New("comment text is empty")
	ErrNoTarget      = errors.New("no comment target loaded")
	ErrMissingAuthor = errors.New("comment author is missing")
)
