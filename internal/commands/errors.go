package commands

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"booktrack/internal/collection"
	"booktrack/internal/exitcode"
	"booktrack/internal/service"
)

// reportError prints err and returns the matching exit code.
func reportError(errOut io.Writer, err error) int {
	var refErr *refError
	switch {
	case service.IsSessionInvalid(err):
		fmt.Fprintln(errOut, "error: not logged in or session expired (run: booktrack login)")
		return exitcode.AuthError
	case errors.As(err, &refErr), errors.Is(err, service.ErrInvalidBook):
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	case errors.Is(err, collection.ErrStaleLoad):
		fmt.Fprintln(errOut, "error: listing changed during refresh, try again")
		return exitcode.UserError
	case service.IsNotFound(err):
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	case service.IsNetwork(err):
		fmt.Fprintf(errOut, "error: cannot reach server: %v\n", err)
		return exitcode.BackendError
	}

	if status := service.StatusCode(err); status >= http.StatusBadRequest && status < http.StatusInternalServerError {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	fmt.Fprintf(errOut, "error: backend error: %v\n", err)
	return exitcode.BackendError
}

// reportRefError prints a reference parsing error.
func reportRefError(errOut io.Writer, err error) int {
	fmt.Fprintf(errOut, "error: %v\n", err)
	return exitcode.UserError
}
