package console

import "errors"

var (
	// ErrActionPending is returned when the same action is already in flight.
	ErrActionPending = errors.New("console: action already pending")
	// ErrEmptyCatalog means no permission definitions are available to edit.
	ErrEmptyCatalog = errors.New("console: no permission definitions available")
	// ErrBuiltInRole is returned for delete attempts on built-in roles.
	ErrBuiltInRole = errors.New("console: built-in roles cannot be deleted")
)

// ValidationError is a client-side rejection; no request was sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Confirm asks the admin to confirm a destructive action.
type Confirm func() bool

// deps bundles what every console component needs.
type deps struct {
	client  *Client
	cache   *QueryCache
	toaster Toaster
	pending *Pending
}

// report toasts err as destructive and returns it unchanged.
func (d deps) report(title string, err error) error {
	var reqErr *RequestError
	var valErr *ValidationError
	switch {
	case errors.As(err, &reqErr):
		d.toaster.Toast(Toast{Title: title, Description: reqErr.Message, Destructive: true})
	case errors.As(err, &valErr):
		d.toaster.Toast(Toast{Title: title, Description: valErr.Message, Destructive: true})
	case errors.Is(err, ErrActionPending):
	default:
		d.toaster.Toast(Toast{Title: title, Description: err.Error(), Destructive: true})
	}
	return err
}
