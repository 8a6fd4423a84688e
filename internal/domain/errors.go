package domain

import (
	"errors"
	"fmt"
)

// DenyReason names why a connection was refused.
type DenyReason string

const (
	DenyInvalidRoomFormat      DenyReason = "InvalidRoomFormat"
	DenyInvalidProtocol        DenyReason = "InvalidProtocol"
	DenyAuthenticationRequired DenyReason = "AuthenticationRequired"
	DenyChannelNotFound        DenyReason = "ChannelNotFound"
	DenyNotAMember             DenyReason = "NotAMember"
	DenyConnectionFailed       DenyReason = "ConnectionFailed"
)

// DenyError refuses a connection before it is accepted.
type DenyError struct {
	Reason DenyReason
	Detail string
}

func NewDenyError(reason DenyReason, detail string) *DenyError {
	return &DenyError{Reason: reason, Detail: detail}
}

func (e *DenyError) Error() string {
	if e.Detail == "" {
		return string(e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Detail)
}

// AsDenyError returns the DenyError in err's chain, if any.
func AsDenyError(err error) (*DenyError, bool) {
	var de *DenyError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// ValidationError rejects a frame whose decoded content is unusable.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// PersistenceError wraps a Message Store failure. The message is not
// broadcast.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
