// Package exitcode lists the process exit statuses of booktrack.
package exitcode

const (
	// Success: the command did what was asked.
	Success = 0

	// UserError: bad arguments, an unknown book reference, input the API
	// rejected with a 4xx other than 401.
	UserError = 1

	// AuthError: no session, an expired session or failed sign-in.
	AuthError = 2

	// BackendError: the books API failed, timed out or was unreachable.
	BackendError = 3
)
