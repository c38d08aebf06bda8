package tunnel

import (
	"context"
	"errors"
	"fmt"
)

// ErrAlreadyOpen is returned when Open is called on a provider with a live tunnel.
var ErrAlreadyOpen = errors.New("tunnel already open")

// Provider exposes a local port under a public URL for the life of the process.
type Provider interface {
	Open(ctx context.Context, port int) (string, error)
	Close(ctx context.Context) error
}

// LocalURL is the loopback address of the HTTP server on port.
func LocalURL(port int) string {
	return fmt.Sprintf("http://127.0.0.1:%d", port)
}

// NoopProvider is used when tunneling is disabled; the "public" URL is the local one.
type NoopProvider struct{}

// Open returns the local URL.
func (NoopProvider) Open(ctx context.Context, port int) (string, error) {
	_ = ctx
	return LocalURL(port), nil
}

// Close does nothing.
func (NoopProvider) Close(ctx context.Context) error {
	_ = ctx
	return nil
}
