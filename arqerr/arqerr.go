// Package arqerr defines the closed set of failure kinds surfaced by the
// arqvault decoders. Callers discriminate with errors.Is; every decoder wraps
// one of these sentinels (or the underlying I/O error) and never recovers on
// its own.
package arqerr

import "errors"

var (
	// ErrWrongPassword is returned when the encryptionv3.dat HMAC check over
	// (iv + encrypted master keys) fails, meaning the supplied password does
	// not unlock this computer.
	ErrWrongPassword = errors.New("wrong password")

	// ErrCrypto is returned on an HMAC mismatch over an encrypted object, or
	// when key material has the wrong length.
	ErrCrypto = errors.New("crypto error")

	// ErrCipher is returned when AES unpadding or block decryption fails,
	// which means corrupt ciphertext or the wrong key.
	ErrCipher = errors.New("cipher error")

	// ErrParse is returned on a format violation: bad magic, unknown
	// compression tag, malformed integer strings, or a property list that
	// does not decode.
	ErrParse = errors.New("parse error")

	// ErrConversion is returned when bytes that must be UTF-8 are not.
	ErrConversion = errors.New("conversion error")

	// ErrDecompression is returned when LZ4 block decoding fails.
	ErrDecompression = errors.New("decompression error")

	// ErrDecompressionDataLengthOutOfBounds is returned when a compressed
	// payload declares an impossible uncompressed length.
	ErrDecompressionDataLengthOutOfBounds = errors.New("decompression data length out of bounds")

	// ErrGzipUnimplemented is returned when a record demands the Gzip
	// branch. The on-disk format declares it but its semantics are a known
	// gap, so it is reported rather than guessed at.
	ErrGzipUnimplemented = errors.New("gzip compression not implemented")
)
