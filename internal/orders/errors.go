package orders

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrForbidden      = errors.New("forbidden")
	ErrEmptySelection = errors.New("no cart items selected")
	ErrMissingAddress = errors.New("no shipping address resolves")
)

// TransitionError carries enough context to render a user-facing message.
type TransitionError struct {
	OrderID   string
	Role      Role
	Current   Status
	Requested Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition for order %s: %s -> %s (role %s)",
		e.OrderID, e.Current, e.Requested, e.Role)
}
