package main

import (
	"bytes"
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// syncBuffer is a bytes.Buffer safe for one writer goroutine and a reader.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestCancelOnInterrupt(t *testing.T) {
	sigs := make(chan os.Signal, 1)
	var released atomic.Bool
	var out syncBuffer

	ctx, cancel := cancelOnInterrupt(context.Background(), sigs,
		func() { released.Store(true) }, &out)
	defer cancel()

	require.NoError(t, ctx.Err())
	sigs <- os.Interrupt

	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("context not cancelled after interrupt")
	}
	require.ErrorIs(t, ctx.Err(), context.Canceled)
	require.True(t, released.Load(), "default signal handling must be restored")
	require.Contains(t, out.String(), "press Ctrl-C again")
}

func TestCancelOnInterruptNormalExit(t *testing.T) {
	sigs := make(chan os.Signal, 1)
	var released atomic.Bool
	var out syncBuffer

	ctx, cancel := cancelOnInterrupt(context.Background(), sigs,
		func() { released.Store(true) }, &out)
	cancel()
	<-ctx.Done()

	// Give the watcher a chance to run; it must exit quietly.
	time.Sleep(10 * time.Millisecond)
	require.False(t, released.Load())
	require.Empty(t, out.String())
}
