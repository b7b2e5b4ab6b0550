package protocol

import (
	"github.com/vango-dev/vmorph/internal/errors"
)

// Error is the JSON form of a failure, sent in HTTP error bodies and stream
// error messages.
type Error struct {
	Code       string `json:"code,omitempty"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// NewError describes err. Errors that carry a registry code keep it;
// anything else is reported under fallback.
func NewError(err error, fallback string) *Error {
	me := errors.FromError(err, fallback)
	detail := me.Detail
	if me.Wrapped != nil {
		if detail != "" {
			detail += " "
		}
		detail += me.Wrapped.Error()
	}
	return &Error{
		Code:       me.Code,
		Message:    me.Message,
		Detail:     detail,
		Suggestion: me.Suggestion,
	}
}

func (e *Error) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return e.Code + ": " + e.Message
}
