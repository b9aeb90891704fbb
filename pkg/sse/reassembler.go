package sse

import "strings"

// DefaultDelimiter separates records: a blank line.
const DefaultDelimiter = "\n\n"

// Reassembler turns arbitrarily sized text chunks into complete records.
//
// It keeps the text that has not yet been followed by a delimiter in a carry
// buffer. After every Feed the carry buffer holds no delimiter occurrence, so
// every complete record has already been returned.
type Reassembler struct {
	delimiter string
	carry     strings.Builder
}

// NewReassembler returns a Reassembler splitting on delimiter, which must not
// be empty.
func NewReassembler(delimiter string) *Reassembler {
	return &Reassembler{delimiter: delimiter}
}

// Feed appends chunk to the carry buffer and returns every record completed
// by it, in stream order. The returned slice is empty when chunk completes no
// record.
func (r *Reassembler) Feed(chunk string) []string {
	// The carry holds no delimiter, so a new match must end inside chunk.
	from := max(r.carry.Len()-len(r.delimiter)+1, 0)

	r.carry.WriteString(chunk)
	buf := r.carry.String()

	var records []string
	begin := 0
	for {
		i := strings.Index(buf[from:], r.delimiter)
		if i < 0 {
			break
		}

		end := from + i
		records = append(records, buf[begin:end])
		begin = end + len(r.delimiter)
		from = begin
	}

	if begin > 0 {
		rest := buf[begin:]
		r.carry.Reset()
		r.carry.WriteString(rest)
	}

	return records
}

// Residual returns the unterminated text buffered so far. It is never emitted
// as a record.
func (r *Reassembler) Residual() string {
	return r.carry.String()
}

// Reset discards the carry buffer.
func (r *Reassembler) Reset() {
	r.carry.Reset()
}
