// Package compression handles the compressed payloads found inside Arq
// records. Only LZ4 is implemented; the format also declares Gzip, whose
// semantics are a known gap and are reported rather than guessed at.
//
// An LZ4 payload is a 4-byte big-endian uncompressed length followed by one
// LZ4-block-compressed body.
package compression

import (
	"encoding/binary"
	"fmt"

	"github.com/pierrec/lz4/v4"

	"github.com/arqvault/arqvault/arqerr"
	"github.com/arqvault/arqvault/wire"
)

// Decompress returns the plain bytes of data according to the compression tag.
func Decompress(data []byte, ct wire.CompressionType) ([]byte, error) {
	switch ct {
	case wire.CompressionNone:
		out := make([]byte, len(data))
		copy(out, data)
		return out, nil
	case wire.CompressionLZ4:
		return DecompressLZ4(data)
	case wire.CompressionGzip:
		return nil, arqerr.ErrGzipUnimplemented
	default:
		return nil, fmt.Errorf("%w: unknown compression type %d", arqerr.ErrParse, ct)
	}
}

// DecompressLZ4 decodes a length-prefixed LZ4 block payload.
func DecompressLZ4(src []byte) ([]byte, error) {
	if len(src) < 4 {
		return nil, fmt.Errorf("%w: lz4 payload of %d bytes has no length prefix", arqerr.ErrDecompression, len(src))
	}
	declared := int32(binary.BigEndian.Uint32(src[:4]))
	if declared < 0 {
		return nil, arqerr.ErrDecompressionDataLengthOutOfBounds
	}
	dst := make([]byte, declared)
	n, err := lz4.UncompressBlock(src[4:], dst)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", arqerr.ErrDecompression, err)
	}
	return dst[:n], nil
}

// CompressLZ4 encodes src as a length-prefixed LZ4 block payload.
func CompressLZ4(src []byte) ([]byte, error) {
	out := make([]byte, 4, 4+lz4.CompressBlockBound(len(src)))
	binary.BigEndian.PutUint32(out, uint32(len(src)))

	var c lz4.Compressor
	body := make([]byte, lz4.CompressBlockBound(len(src)))
	n, err := c.CompressBlock(src, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", arqerr.ErrDecompression, err)
	}
	if n == 0 {
		// Incompressible input: emit a single literal-only sequence, which
		// is still a valid block and keeps the payload self-describing.
		body = literalBlock(src)
		n = len(body)
	}
	return append(out, body[:n]...), nil
}

// literalBlock encodes src as one LZ4 sequence of literals with no match.
func literalBlock(src []byte) []byte {
	out := make([]byte, 0, len(src)+len(src)/255+2)
	if n := len(src); n < 15 {
		out = append(out, byte(n)<<4)
	} else {
		out = append(out, 0xf0)
		for n -= 15; n >= 255; n -= 255 {
			out = append(out, 0xff)
		}
		out = append(out, byte(n))
	}
	return append(out, src...)
}
