package util

import (
	"bytes"
	"strings"
	"sync"
)

// Stderr retention for capture processes.
const (
	StderrLines   = 32
	maxLineLength = 1024
)

// TailWriter keeps the last lines written to it. It is safe for concurrent
// use and never grows beyond maxLines lines of maxLineLength bytes.
type TailWriter struct {
	mu       sync.Mutex
	lines    []string
	partial  []byte
	maxLines int
}

// NewTailWriter returns a TailWriter that retains maxLines lines.
func NewTailWriter(maxLines int) *TailWriter {
	return &TailWriter{maxLines: max(1, maxLines)}
}

// NewStderrBuffer returns a TailWriter sized for capture-process stderr.
func NewStderrBuffer() *TailWriter {
	return NewTailWriter(StderrLines)
}

// Write implements io.Writer.
func (t *TailWriter) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rest := append(t.partial, p...)
	for {
		i := bytes.IndexByte(rest, '\n')
		if i < 0 {
			break
		}
		t.push(string(bytes.TrimRight(rest[:i], "\r")))
		rest = rest[i+1:]
	}
	if len(rest) > maxLineLength {
		rest = rest[len(rest)-maxLineLength:]
	}
	t.partial = append(t.partial[:0:0], rest...)
	return len(p), nil
}

func (t *TailWriter) push(line string) {
	if len(line) > maxLineLength {
		line = line[len(line)-maxLineLength:]
	}
	if len(t.lines) == t.maxLines {
		copy(t.lines, t.lines[1:])
		t.lines = t.lines[:len(t.lines)-1]
	}
	t.lines = append(t.lines, line)
}

// String returns the retained lines, including an unterminated last line.
func (t *TailWriter) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := strings.Join(t.lines, "\n")
	if len(t.partial) > 0 {
		if out != "" {
			out += "\n"
		}
		out += string(t.partial)
	}
	return out
}
