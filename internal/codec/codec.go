// Package codec implements the tag-length-value primitives used by the
// persisted-state stream: single-byte tags, little-endian int16 counters and
// strings prefixed with a 7-bit encoded length.
package codec

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

// MaxStringLen bounds the length prefix accepted by Reader.String.
const MaxStringLen = 1 << 16

var (
	// ErrTruncated is returned when the stream ends inside a record.
	ErrTruncated = errors.New("codec: truncated stream")
	// ErrStringTooLong is returned for length prefixes above MaxStringLen.
	ErrStringTooLong = errors.New("codec: string too long")
	// ErrInvalidString is returned when string bytes are not valid UTF-8.
	ErrInvalidString = errors.New("codec: invalid utf-8 string")
)

// TagError reports an unexpected tag byte.
type TagError struct {
	Offset int64
	Want   byte
	Got    byte
}

func (e *TagError) Error() string {
	return fmt.Sprintf("codec: unexpected tag 0x%02x at offset %d, want 0x%02x", e.Got, e.Offset, e.Want)
}

// Writer encodes primitives. The first write error is sticky and returned
// by Flush.
type Writer struct {
	w   *bufio.Writer
	err error
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Byte writes a single byte.
func (w *Writer) Byte(b byte) {
	if w.err != nil {
		return
	}
	w.err = w.w.WriteByte(b)
}

// Int16 writes v little-endian.
func (w *Writer) Int16(v int16) {
	if w.err != nil {
		return
	}
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], uint16(v))
	_, w.err = w.w.Write(buf[:])
}

// String writes a 7-bit encoded byte length followed by the UTF-8 bytes of s.
func (w *Writer) String(s string) {
	if w.err != nil {
		return
	}
	if len(s) > MaxStringLen {
		w.err = ErrStringTooLong
		return
	}
	var buf [binary.MaxVarintLen32]byte
	n := binary.PutUvarint(buf[:], uint64(len(s)))
	if _, w.err = w.w.Write(buf[:n]); w.err != nil {
		return
	}
	_, w.err = w.w.WriteString(s)
}

// Flush writes buffered data and returns the first error encountered.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	return w.w.Flush()
}

// Reader decodes primitives written by Writer.
type Reader struct {
	r      *bufio.Reader
	offset int64
}

// NewReader wraps r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int64 {
	return r.offset
}

// Byte reads a single byte.
func (r *Reader) Byte() (byte, error) {
	b, err := r.r.ReadByte()
	if err != nil {
		return 0, truncated(err)
	}
	r.offset++
	return b, nil
}

// Tag reads a byte and checks it against want.
func (r *Reader) Tag(want byte) error {
	at := r.offset
	got, err := r.Byte()
	if err != nil {
		return err
	}
	if got != want {
		return &TagError{Offset: at, Want: want, Got: got}
	}
	return nil
}

// Int16 reads a little-endian int16.
func (r *Reader) Int16() (int16, error) {
	var buf [2]byte
	n, err := io.ReadFull(r.r, buf[:])
	r.offset += int64(n)
	if err != nil {
		return 0, truncated(err)
	}
	return int16(binary.LittleEndian.Uint16(buf[:])), nil
}

// String reads a length-prefixed string.
func (r *Reader) String() (string, error) {
	length, err := binary.ReadUvarint(byteCounter{r})
	if err != nil {
		return "", truncated(err)
	}
	if length > MaxStringLen {
		return "", ErrStringTooLong
	}
	buf := make([]byte, length)
	n, err := io.ReadFull(r.r, buf)
	r.offset += int64(n)
	if err != nil {
		return "", truncated(err)
	}
	if !utf8.Valid(buf) {
		return "", ErrInvalidString
	}
	return string(buf), nil
}

// byteCounter keeps Reader.offset in step while binary.ReadUvarint consumes bytes.
type byteCounter struct{ r *Reader }

func (c byteCounter) ReadByte() (byte, error) {
	b, err := c.r.r.ReadByte()
	if err == nil {
		c.r.offset++
	}
	return b, err
}

func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrTruncated
	}
	return err
}
