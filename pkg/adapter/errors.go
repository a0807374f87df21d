package adapter

import "fmt"

// ConfigurationError marks a request that cannot be attempted at all,
// e.g. no endpoint is configured and the request carries no URL. It is
// never retried.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s", e.Reason)
}
