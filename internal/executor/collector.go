package executor

import (
	"bytes"
	"io"
)

const (
	// binarySampleSize is how much of a stream is scanned for NUL bytes.
	binarySampleSize = 8000
	// binaryPlaceholder replaces binary output in the recorded transcript.
	binaryPlaceholder = "[Binary Content]"
)

// collector records one output stream of a shell command for the transcript.
// It keeps at most maxBytes and counts the rest, so the pipe is always drained
// and the child never blocks on a full pipe. A NUL byte within the first
// sampleSize bytes marks the stream as binary.
type collector struct {
	kept     bytes.Buffer
	maxBytes int

	sampleSize int
	sampled    int
	binary     bool

	dropped int64
}

func newCollector(maxBytes int, sampleSize int) *collector {
	return &collector{maxBytes: maxBytes, sampleSize: sampleSize}
}

// Write never fails short: the caller is io.Copy draining a pipe.
func (c *collector) Write(p []byte) (int, error) {
	if c.binary {
		c.dropped += int64(len(p))
		return len(p), nil
	}

	if c.sampled < c.sampleSize {
		window := p[:min(len(p), c.sampleSize-c.sampled)]
		c.sampled += len(window)
		if bytes.IndexByte(window, 0) >= 0 {
			c.binary = true
			c.dropped += int64(c.kept.Len() + len(p))
			c.kept.Reset()
			return len(p), nil
		}
	}

	room := max(c.maxBytes-c.kept.Len(), 0)
	keep := p[:min(len(p), room)]
	c.kept.Write(keep)
	c.dropped += int64(len(p) - len(keep))
	return len(p), nil
}

// String returns the recorded output, or the binary placeholder.
func (c *collector) String() string {
	if c.binary {
		return binaryPlaceholder
	}
	return c.kept.String()
}

// Truncated reports whether any output was left out of String.
func (c *collector) Truncated() bool {
	return c.dropped > 0
}

// Dropped returns the number of bytes left out of String.
func (c *collector) Dropped() int64 {
	return c.dropped
}

// liveWriter echoes a command's output to the terminal while it is recorded.
// Terminal write errors are ignored; the recording must see every byte.
type liveWriter struct {
	capture io.Writer
	mirror  io.Writer
}

func (w liveWriter) Write(p []byte) (int, error) {
	if w.mirror != nil {
		_, _ = w.mirror.Write(p)
	}
	return w.capture.Write(p)
}
