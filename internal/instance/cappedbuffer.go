// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package instance

import "bytes"

// cappedBuffer keeps the first max bytes written and silently discards the
// rest. Writes never fail: erroring here would kill the child process's
// pipe, and a truncated capture is still useful diagnostics.
type cappedBuffer struct {
	buf       bytes.Buffer
	max       int
	truncated bool
}

func newCappedBuffer(max int) *cappedBuffer {
	return &cappedBuffer{max: max}
}

// Write implements io.Writer.
func (b *cappedBuffer) Write(p []byte) (int, error) {
	room := b.max - b.buf.Len()
	if room <= 0 {
		b.truncated = true
		return len(p), nil
	}

	if len(p) > room {
		b.truncated = true
		b.buf.Write(p[:room])

		return len(p), nil
	}

	b.buf.Write(p)

	return len(p), nil
}

// Bytes returns the captured prefix.
func (b *cappedBuffer) Bytes() []byte {
	return b.buf.Bytes()
}

// Truncated reports whether any writes were discarded.
func (b *cappedBuffer) Truncated() bool {
	return b.truncated
}
