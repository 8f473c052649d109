// Package utils holds small helpers shared by commands.
package utils

import (
	"bytes"
	"io"
	"sync"
)

// DeferredWriter buffers writes in memory until Release is called; after
// that, writes go straight to the released writer. Safe for concurrent use.
type DeferredWriter struct {
	mu   sync.Mutex
	buf  bytes.Buffer
	live io.Writer
}

// Write buffers p, or writes it through once released.
func (d *DeferredWriter) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.live != nil {
		return d.live.Write(p)
	}
	return d.buf.Write(p)
}

// Flush writes all buffered data to w and clears the buffer.
func (d *DeferredWriter) Flush(w io.Writer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.flushLocked(w)
}

// Release flushes buffered data to w and routes every later write to w.
func (d *DeferredWriter) Release(w io.Writer) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.live = w
	return d.flushLocked(w)
}

func (d *DeferredWriter) flushLocked(w io.Writer) error {
	if d.buf.Len() == 0 {
		return nil
	}
	_, err := d.buf.WriteTo(w)
	return err
}
