package cmd

import "errors"

// Process exit codes.
const (
	ExitOK           = 0
	ExitFailure      = 1
	ExitConfigError  = 2
	ExitArchiveError = 3
	ExitUploadError  = 4
)

type exitCodeError struct {
	code int
	err  error
}

func newExitCodeError(code int, err error) *exitCodeError {
	return &exitCodeError{code: code, err: err}
}

func (e *exitCodeError) Error() string {
	return e.err.Error()
}

func (e *exitCodeError) Unwrap() error {
	return e.err
}

// ExitCode maps a command error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var codeErr *exitCodeError
	if errors.As(err, &codeErr) {
		return codeErr.code
	}
	return ExitFailure
}
