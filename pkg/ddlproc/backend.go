package ddlproc

import (
	"context"
	"fmt"
	"io"

	"github.com/venusdb/sdl/pkg/vendor"
)

// DirectBackend executes the buffered statement against a live vendor
// connection.
type DirectBackend struct {
	Adapter vendor.Adapter
}

func (b DirectBackend) Process(ctx context.Context, buffer string) error {
	return b.Adapter.Exec(ctx, buffer)
}

// StreamBackend writes the buffered statement, followed by the
// terminator and a newline, to an output stream — used to mirror a
// plan to a file instead of (or alongside) running it.
type StreamBackend struct {
	Writer     io.Writer
	Terminator string
}

func (b StreamBackend) Process(ctx context.Context, buffer string) error {
	term := b.Terminator
	if term == "" {
		term = DefaultTerminator
	}
	_, err := fmt.Fprintf(b.Writer, "%s%s\n", buffer, term)
	return err
}
