package sender

import (
	"io"
	"strconv"
	"strings"
)

const escapes = ", ="

var keyEscaper = strings.NewReplacer(
	`,`, `\,`,
	` `, `\ `,
	`=`, `\=`,
)

// appendEscaped appends s with commas, spaces and equals signs preceded by a
// backslash. Measurements, tag keys, tag values and field keys share the rule.
func appendEscaped(dst []byte, s string) []byte {
	if strings.ContainsAny(s, escapes) {
		return append(dst, keyEscaper.Replace(s)...)
	}
	return append(dst, s...)
}

// AppendPoint appends the newline terminated line protocol encoding of p to
// dst. Invalid points return an ErrEncoding error and dst unchanged.
func AppendPoint(dst []byte, p Point) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return dst, err
	}

	dst = appendEscaped(dst, p.Measurement)

	for _, t := range p.Tags {
		dst = append(dst, ',')
		dst = appendEscaped(dst, t.Key)
		dst = append(dst, '=')
		dst = appendEscaped(dst, t.Value)
	}

	for i, f := range p.Fields {
		if i == 0 {
			dst = append(dst, ' ')
		} else {
			dst = append(dst, ',')
		}
		dst = appendEscaped(dst, f.Key)
		dst = append(dst, '=')
		dst = f.Value.AppendTo(dst)
	}

	if p.HasTimestamp() {
		dst = append(dst, ' ')
		dst = strconv.AppendInt(dst, p.Timestamp.UnixNano(), 10)
	}

	return append(dst, '\n'), nil
}

// MarshalPoint returns the newline terminated line protocol encoding of p.
func MarshalPoint(p Point) ([]byte, error) {
	return AppendPoint(nil, p)
}

// Encoder writes points to an io.Writer, one Write call per complete line.
// It is not safe for concurrent use.
type Encoder struct {
	w   io.Writer
	buf []byte
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{
		w:   w,
		buf: make([]byte, 0, 128),
	}
}

// Encode renders p and writes the line to the underlying writer. Points that
// fail validation are not written. Errors from the writer are returned as is.
func (e *Encoder) Encode(p Point) (int, error) {
	buf, err := AppendPoint(e.buf[:0], p)
	if err != nil {
		return 0, err
	}
	e.buf = buf

	return e.w.Write(buf)
}
