package xerror

import (
	"errors"
	"fmt"
)

// PassError records which transform pass produced err.
type PassError struct {
	Pass string
	Err  error
}

func (e *PassError) Error() string {
	return fmt.Sprintf("pass=%s: %v", e.Pass, e.Err)
}

func (e *PassError) Unwrap() error {
	return e.Err
}

func WrapPassError(pass string, err error) error {
	if err == nil {
		return nil
	}
	return &PassError{
		Pass: pass,
		Err:  err,
	}
}

func GetPass(err error) string {
	var pe *PassError
	if errors.As(err, &pe) {
		return pe.Pass
	}
	return ""
}
