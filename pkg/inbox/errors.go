package inbox

import "errors"

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrMessageNotFound      = errors.New("message not found")
	ErrMessageNotFailed     = errors.New("message has not failed")
	ErrEmptyMessage         = errors.New("message is empty")
	ErrMissingPartner       = errors.New("partner email is required")
	ErrClosed               = errors.New("inbox closed")
)
