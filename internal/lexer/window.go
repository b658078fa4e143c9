package lexer

import (
	"errors"
	"io"
)

// readChunk is the refill size for streamed input.
const readChunk = 64 * 1024

/*
 * window gives the scanner random access to a forward-only byte stream.
 *
 * For in-memory input the whole script sits in buf and base stays 0. For
 * streamed input buf holds the bytes from base onwards; release() drops the
 * prefix that the caller no longer needs so memory stays bounded by the
 * longest statement plus one refill.
 *
 * All offsets taken and returned by window methods are absolute byte offsets
 * into the original input.
 */
type window struct {
	buf  []byte
	base int
	r    io.Reader
	eof  bool
	err  error
}

func newStringWindow(src string) *window {
	return &window{buf: []byte(src), eof: true}
}

func newReaderWindow(r io.Reader) *window {
	return &window{r: r}
}

// fill reads until abs is buffered or the input is exhausted.
func (w *window) fill(abs int) bool {
	for abs >= w.base+len(w.buf) {
		if w.eof {
			return false
		}
		chunk := make([]byte, readChunk)
		n, err := w.r.Read(chunk)
		w.buf = append(w.buf, chunk[:n]...)
		if err != nil {
			w.eof = true
			if !errors.Is(err, io.EOF) {
				w.err = err
			}
		}
	}
	return true
}

// at returns the byte at abs, or 0 past the end of the input.
func (w *window) at(abs int) byte {
	if abs < w.base || !w.fill(abs) {
		return 0
	}
	return w.buf[abs-w.base]
}

// atEOF reports whether abs is at or beyond the end of the input.
func (w *window) atEOF(abs int) bool {
	return !w.fill(abs)
}

// text returns the input between two absolute offsets. The range must still
// be buffered.
func (w *window) text(from, to int) string {
	if from < w.base {
		from = w.base
	}
	if to > w.base+len(w.buf) {
		to = w.base + len(w.buf)
	}
	if to <= from {
		return ""
	}
	return string(w.buf[from-w.base : to-w.base])
}

// indexFrom returns the absolute offset of the first occurrence of needle
// at or after abs, or -1.
func (w *window) indexFrom(abs int, needle string) int {
	for i := abs; ; i++ {
		if !w.fill(i + len(needle) - 1) {
			return -1
		}
		match := true
		for j := 0; j < len(needle); j++ {
			if w.buf[i-w.base+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
}

// release forgets everything before abs. It is a no-op for in-memory input.
func (w *window) release(abs int) {
	if w.r == nil || abs <= w.base {
		return
	}
	drop := abs - w.base
	if drop > len(w.buf) {
		drop = len(w.buf)
	}
	// Compact only once the dead prefix is worth a copy.
	if drop < readChunk && drop < len(w.buf)/2 {
		return
	}
	w.buf = append(w.buf[:0:0], w.buf[drop:]...)
	w.base += drop
}
