package securemem

import "github.com/awnumar/memguard"

// Buffer is an io.Writer for assembling secret bytes. Superseded backing
// arrays are wiped when it grows, so no stale copy is left for the GC.
type Buffer struct {
	b []byte
}

// NewBuffer returns a Buffer with room for size bytes.
func NewBuffer(size int) *Buffer {
	return &Buffer{b: make([]byte, 0, size)}
}

func (w *Buffer) Write(p []byte) (int, error) {
	if len(w.b)+len(p) > cap(w.b) {
		grown := make([]byte, len(w.b), 2*cap(w.b)+len(p))
		copy(grown, w.b)
		memguard.WipeBytes(w.b[:cap(w.b)])
		w.b = grown
	}
	w.b = append(w.b, p...)
	return len(p), nil
}

// Len returns the number of buffered bytes.
func (w *Buffer) Len() int {
	return len(w.b)
}

// Seal moves the contents into a Secret and leaves the buffer empty.
func (w *Buffer) Seal() *Secret {
	s := New(w.b)
	w.Reset()
	return s
}

// Reset wipes the buffer.
func (w *Buffer) Reset() {
	memguard.WipeBytes(w.b[:cap(w.b)])
	w.b = w.b[:0]
}
