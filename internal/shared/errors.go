package shared

import "fmt"

var (
	// Configuration errors
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Session errors
	ErrUnauthenticated = fmt.Errorf("unauthenticated")
	ErrTransport       = fmt.Errorf("transport error")
	ErrLoginFailed     = fmt.Errorf("login failed")

	// Generation and polling errors
	ErrGenerationFailed = fmt.Errorf("generation request failed")
	ErrPollExhausted    = fmt.Errorf("artifact polling retries exhausted")

	// API and service errors
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrNotebookNotFound   = fmt.Errorf("notebook not found")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
