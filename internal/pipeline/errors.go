package pipeline

import (
	"fmt"
	"strings"
)

// ValidationError reports a query that cannot be sent to the gateway.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// GatewayError carries a non-success response from the language-model
// gateway. Body is the upstream payload, verbatim.
type GatewayError struct {
	StatusCode  int
	Body        string
	ContentType string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway returned status %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}
