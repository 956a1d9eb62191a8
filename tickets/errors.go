package tickets

import (
	"errors"
	"fmt"
)

// ErrNotAuthorized is returned when the acting member lacks the role or
// ownership required for a close/delete operation. No state is changed.
var ErrNotAuthorized = errors.New("not authorized for this ticket operation")

// DuplicateTicketError is returned when a user who already owns an open
// ticket asks for another one. ChannelID references the existing channel.
type DuplicateTicketError struct {
	ChannelID string
}

func (e *DuplicateTicketError) Error() string {
	return fmt.Sprintf("user already has an open ticket in channel %s", e.ChannelID)
}

// PlatformError wraps a Discord API failure that survived the retry policy.
type PlatformError struct {
	Op  string
	Err error
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("platform operation %q failed: %v", e.Op, e.Err)
}

func (e *PlatformError) Unwrap() error { return e.Err }
