package feed

import "errors"

var (
	ErrUnknownItem = errors.New("item not in feed")
)
