package sheet

// text.go prepares CSV bytes for encoding/csv without buffering the file:
//
//   - a UTF-8 byte order mark is dropped
//   - input that is not UTF-8 is decoded as Big5, the usual encoding of
//     CSV files saved by Excel on Traditional Chinese Windows
//   - any remaining invalid UTF-8 byte becomes '?'

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// sniffLen is how much of the file decides between UTF-8 and Big5.
const sniffLen = 8 << 10

// newTextReader wraps r with BOM removal, encoding detection and UTF-8
// sanitizing.
func newTextReader(r io.Reader) io.Reader {
	br := bufio.NewReaderSize(r, sniffLen)

	if head, _ := br.Peek(len(utf8BOM)); bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
		return newUTF8Sanitizer(br)
	}

	head, _ := br.Peek(sniffLen)
	if !utf8.Valid(head[:len(head)-incompleteTail(head)]) {
		return transform.NewReader(br, traditionalchinese.Big5.NewDecoder())
	}
	return newUTF8Sanitizer(br)
}

// utf8Sanitizer replaces invalid UTF-8 bytes with '?'. It reads into its
// own buffer so a multi-byte sequence is never split by a short p; an
// incomplete tail is carried over to the next fill.
type utf8Sanitizer struct {
	r       io.Reader
	buf     []byte
	out     []byte
	pending []byte
	err     error
}

func newUTF8Sanitizer(r io.Reader) *utf8Sanitizer {
	return &utf8Sanitizer{
		r:       r,
		buf:     make([]byte, 4096),
		pending: make([]byte, 0, utf8.UTFMax),
	}
}

func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for len(s.out) == 0 {
		if s.err != nil {
			return 0, s.err
		}
		s.fill()
	}
	n := copy(p, s.out)
	s.out = s.out[n:]
	return n, nil
}

// fill reads the next chunk into out, holding back an incomplete trailing
// sequence unless the source is exhausted.
func (s *utf8Sanitizer) fill() {
	n := copy(s.buf, s.pending)
	s.pending = s.pending[:0]

	m, err := s.r.Read(s.buf[n:])
	n += m
	s.err = err

	if err == nil {
		if tail := incompleteTail(s.buf[:n]); tail > 0 {
			s.pending = append(s.pending, s.buf[n-tail:n]...)
			n -= tail
		}
	}

	data := s.buf[:n]
	if !utf8.Valid(data) {
		data = data[:sanitize(data)]
	}
	s.out = data
}

// sanitize rewrites data in place and returns the new length.
func sanitize(data []byte) int {
	w := 0
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			data[w] = '?'
			w++
			i++
			continue
		}
		w += copy(data[w:], data[i:i+size])
		i += size
	}
	return w
}

// incompleteTail returns how many trailing bytes start a multi-byte
// sequence that is not yet complete.
func incompleteTail(data []byte) int {
	for i := 1; i <= utf8.UTFMax-1 && i <= len(data); i++ {
		b := data[len(data)-i]
		if b&0xC0 == 0x80 {
			continue // continuation byte
		}
		if b >= 0xC0 && i < seqLen(b) {
			return i
		}
		return 0
	}
	return 0
}

func seqLen(b byte) int {
	switch {
	case b < 0xC0:
		return 1
	case b < 0xE0:
		return 2
	case b < 0xF0:
		return 3
	default:
		return 4
	}
}
