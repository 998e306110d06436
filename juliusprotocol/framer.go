package juliusprotocol

import "strings"

// Framer reassembles the engine's line stream into records.
//
// Lines are accumulated until one consisting solely of RecordTerminator
// arrives. The buffered text is then returned as a completed record and the
// buffer starts over. Lines are joined without a separator; the engine's
// lines concatenate into valid markup on their own.
//
// The zero value is an empty framer ready for use. A Framer is not safe for
// concurrent use; the client drives it from its single reader goroutine.
type Framer struct {
	buf strings.Builder
}

// Push feeds one line (without its line break) to the framer.
// When line is the terminator, Push returns the accumulated record and true,
// even if the record is empty. Otherwise it buffers the line and returns
// "" and false.
func (f *Framer) Push(line string) (string, bool) {
	if line == RecordTerminator {
		record := f.buf.String()
		f.buf.Reset()
		return record, true
	}
	f.buf.WriteString(line)
	return "", false
}

// Pending returns the number of bytes buffered for the record in progress.
func (f *Framer) Pending() int {
	return f.buf.Len()
}

// Reset discards any partially received record.
func (f *Framer) Reset() {
	f.buf.Reset()
}
