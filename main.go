package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/tebeka/atexit"
)

func main() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)

	ctx, cancel := cancelOnInterrupt(context.Background(), sigs,
		func() { signal.Reset(os.Interrupt) }, os.Stderr)

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		atexit.Exit(1)
	}

	cancel()
	atexit.Exit(0)
}

// cancelOnInterrupt returns a context that is cancelled by the first value
// received on sigs. Before cancelling it calls release, which must restore
// default signal handling so a second interrupt kills the process even in
// the middle of a kernel call.
func cancelOnInterrupt(parent context.Context, sigs <-chan os.Signal,
	release func(), w io.Writer) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	go func() {
		select {
		case <-sigs:
			release()
			fmt.Fprintln(w, "interrupt: stopping after the current layer, press Ctrl-C again to abort")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
