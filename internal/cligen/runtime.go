package cligen

import (
	"context"
	"io"

	"github.com/clify-dev/clify/internal/httpclient"
	"github.com/clify-dev/clify/internal/output"
	"github.com/clify-dev/clify/internal/spec"
)

// Runtime carries the per-invocation state shared by every generated
// command: the resolved base URL, the loaded model, credentials, and
// the I/O helpers.
type Runtime struct {
	Server  string
	Model   *spec.Model
	Auth    *httpclient.Auth
	Client  *httpclient.Client
	Printer *output.Printer
	Stdin   io.Reader
	Stderr  io.Writer
}

type runtimeKey struct{}

// WithRuntime returns a context carrying rt.
func WithRuntime(ctx context.Context, rt *Runtime) context.Context {
	return context.WithValue(ctx, runtimeKey{}, rt)
}

// RuntimeFrom extracts the Runtime installed by WithRuntime.
func RuntimeFrom(ctx context.Context) (*Runtime, bool) {
	rt, ok := ctx.Value(runtimeKey{}).(*Runtime)
	return rt, ok
}
