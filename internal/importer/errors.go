package importer

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrImport matches every *ImportError via errors.Is.
var ErrImport = errors.New("import failed")

// ImportError reports a failed natural-language import. Status is the
// upstream HTTP status when one was received, zero otherwise.
type ImportError struct {
	Status int
	Detail string
	Err    error
}

func (e *ImportError) Error() string {
	msg := "import failed"
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *ImportError) Unwrap() error { return e.Err }

func (e *ImportError) Is(target error) bool { return target == ErrImport }

// HTTPStatus maps the error onto a response status: upstream 4xx/5xx are
// passed through, everything else is a bad gateway.
func (e *ImportError) HTTPStatus() int {
	if e.Status >= 400 && e.Status <= 599 {
		return e.Status
	}
	return http.StatusBadGateway
}

func importErr(status int, detail string, err error) *ImportError {
	return &ImportError{Status: status, Detail: detail, Err: err}
}
