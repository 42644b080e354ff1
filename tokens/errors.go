package tokens

import "errors"

var (
	// ErrTokenNotFound marks a lookup miss. It is an expected caller-visible
	// condition, distinct from store failures.
	ErrTokenNotFound = errors.New("token not found")

	// ErrChatIDRequired rejects issuance without a chat identity.
	ErrChatIDRequired = errors.New("chat id required")
)
