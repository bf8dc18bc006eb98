package shared

import (
	"errors"
	"fmt"

	"github.com/rfpdesk/rfpdesk/internal/platform/httpx"
)

var (
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", httpx.ErrUnauthorized)
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = fmt.Errorf("%w: csrf token missing", httpx.ErrForbidden)
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = fmt.Errorf("%w: csrf token mismatch", httpx.ErrForbidden)
	// ErrAuditInvalid is returned for audit entries missing required fields.
	ErrAuditInvalid = errors.New("audit log requires action/entity/entity_id")
)
