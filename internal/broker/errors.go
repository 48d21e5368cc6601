package broker

import "errors"

var (
	// ErrQuoteNotFound is returned when a quote id is unknown or already consumed.
	ErrQuoteNotFound = errors.New("quote not found or already consumed")

	// ErrQuoteExpired is returned when a quote id is known but past its
	// expiry. Distinct from ErrQuoteNotFound so callers can offer a re-quote.
	ErrQuoteExpired = errors.New("quote expired")

	// ErrJobNotFound is returned when a job id is unknown to the gateway.
	ErrJobNotFound = errors.New("job not found")

	// ErrProviderNotFound is returned when a quote or job references a
	// provider that is not registered.
	ErrProviderNotFound = errors.New("provider not available")

	// ErrInvalidServiceType is returned when a request names an unknown service type.
	ErrInvalidServiceType = errors.New("invalid service type")

	// ErrInvalidPriority is returned when a request names an unknown priority.
	ErrInvalidPriority = errors.New("invalid priority")
)
