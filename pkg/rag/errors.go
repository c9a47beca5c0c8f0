package rag

import "errors"

// ErrUpstreamUnavailable is returned when the vector store cannot be reached
// after the allowed retries.
var ErrUpstreamUnavailable = errors.New("upstream unavailable")
