// Package wire implements the typed stream reader for the Arq on-disk
// primitives. Every decoder in this module is built on it.
//
// All integer reads are big-endian (network byte order). Strings and dates
// carry a one-byte presence flag; raw data is always length-prefixed.
package wire

import (
	"encoding/binary"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/arqvault/arqvault/arqerr"
)

// Reader decodes Arq wire primitives from an underlying byte stream.
type Reader struct {
	r io.Reader
}

// NewReader returns a Reader decoding from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// ReadBytes reads exactly n bytes. A short read surfaces the underlying I/O
// error (io.ErrUnexpectedEOF on premature end of stream).
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		if err == io.EOF && n > 0 {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("read %d bytes: %w", n, err)
	}
	return buf, nil
}

// ReadBool reads one byte; 0x01 is true, any other value is false.
func (r *Reader) ReadBool() (bool, error) {
	b, err := r.ReadBytes(1)
	if err != nil {
		return false, err
	}
	return b[0] == 0x01, nil
}

// ReadU32 reads a big-endian uint32.
func (r *Reader) ReadU32() (uint32, error) {
	b, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// ReadI32 reads a big-endian int32.
func (r *Reader) ReadI32() (int32, error) {
	u, err := r.ReadU32()
	if err != nil {
		return 0, err
	}
	return int32(u), nil
}

// ReadU64 reads a big-endian uint64.
func (r *Reader) ReadU64() (uint64, error) {
	b, err := r.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// ReadI64 reads a big-endian int64.
func (r *Reader) ReadI64() (int64, error) {
	u, err := r.ReadU64()
	if err != nil {
		return 0, err
	}
	return int64(u), nil
}

// ReadString reads a one-byte presence flag; when set, a u64 length and that
// many UTF-8 bytes follow. An unset flag yields the empty string. Callers
// interpret emptiness as "absent" only where the format says so.
func (r *Reader) ReadString() (string, error) {
	present, err := r.ReadBool()
	if err != nil {
		return "", err
	}
	if !present {
		return "", nil
	}
	n, err := r.ReadU64()
	if err != nil {
		return "", err
	}
	b, err := r.ReadBytes(int(n))
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("%w: string is not valid UTF-8", arqerr.ErrConversion)
	}
	return string(b), nil
}

// ReadData reads an unconditional u64 length followed by that many bytes.
func (r *Reader) ReadData() ([]byte, error) {
	n, err := r.ReadU64()
	if err != nil {
		return nil, err
	}
	return r.ReadBytes(int(n))
}

// ReadDate reads a one-byte presence flag; when set, a u64 of milliseconds
// since the epoch follows. An absent date decodes to 0 ms.
func (r *Reader) ReadDate() (Date, error) {
	present, err := r.ReadBool()
	if err != nil {
		return Date{}, err
	}
	if !present {
		return Date{}, nil
	}
	ms, err := r.ReadU64()
	if err != nil {
		return Date{}, err
	}
	return Date{MillisecondsSinceEpoch: ms}, nil
}

// ReadCompressionType reads an int32 compression tag: 0 none, 1 gzip, 2 LZ4.
// Any other value is a format error.
func (r *Reader) ReadCompressionType() (CompressionType, error) {
	c, err := r.ReadI32()
	if err != nil {
		return CompressionNone, err
	}
	switch c {
	case 0:
		return CompressionNone, nil
	case 1:
		return CompressionGzip, nil
	case 2:
		return CompressionLZ4, nil
	default:
		return CompressionNone, fmt.Errorf("%w: unknown compression type %d", arqerr.ErrParse, c)
	}
}
