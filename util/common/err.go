package common

import (
	"errors"

	"github.com/yamdb/api-yamdb/logger"
)

// Combine joins the non-nil errors, returning nil when there are none.
func Combine(errs ...error) error {
	return errors.Join(errs...)
}

// Recover must be deferred directly. It logs msg with the panic value and
// returns that value, or nil when nothing panicked.
func Recover(msg string) any {
	panicErr := recover()
	if panicErr != nil && msg != "" {
		logger.Error(msg, " panic: ", panicErr)
	}
	return panicErr
}
