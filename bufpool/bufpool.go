// Package bufpool provides the pooled byte buffer the engine uses for its
// per-connection scratch body buffer, so that body delivery does not
// allocate fresh memory on every message. The outbound write buffer is
// not pooled. Backed by valyala/bytebufferpool: the scratch buffer is a
// single dynamically-growing buffer per connection, which is exactly the
// shape bytebufferpool targets.
package bufpool

import "github.com/valyala/bytebufferpool"

// Buffer is a reusable, growable byte buffer.
type Buffer = bytebufferpool.ByteBuffer

// Get retrieves a buffer from the shared pool. The returned buffer is
// empty (Len() == 0) but may have spare capacity from a previous use.
func Get() *Buffer {
	return bytebufferpool.Get()
}

// Put returns buf to the shared pool. The caller must not use buf again
// afterward.
func Put(buf *Buffer) {
	bytebufferpool.Put(buf)
}
