// Package objenc implements the cryptographic envelope of the Arq format:
// the password-unlocked key vault (encryptionv3.dat) and the authenticated
// per-object container ("ARQO").
//
// Authentication ordering is strict throughout: no ciphertext is decrypted
// until its HMAC-SHA256 has verified with the correct key.
package objenc

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"fmt"

	"github.com/arqvault/arqvault/arqerr"
)

// CalculateHMACSHA256 returns the HMAC-SHA256 of message under secret.
func CalculateHMACSHA256(secret, message []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write(message)
	return mac.Sum(nil)
}

// SHA1Sum returns the SHA-1 digest of message.
func SHA1Sum(message []byte) []byte {
	sum := sha1.Sum(message)
	return sum[:]
}

// decryptCBC runs AES-256-CBC over ciphertext and strips PKCS#7 padding.
func decryptCBC(key, iv, ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", arqerr.ErrCrypto, err)
	}
	if len(iv) != block.BlockSize() {
		return nil, fmt.Errorf("%w: iv is %d bytes", arqerr.ErrCrypto, len(iv))
	}
	if len(ciphertext) == 0 || len(ciphertext)%block.BlockSize() != 0 {
		return nil, fmt.Errorf("%w: ciphertext length %d is not a whole number of blocks", arqerr.ErrCipher, len(ciphertext))
	}
	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)
	return pkcs7Unpad(plaintext, block.BlockSize())
}

// encryptCBC runs AES-256-CBC over plaintext with PKCS#7 padding applied.
func encryptCBC(key, iv, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", arqerr.ErrCrypto, err)
	}
	padded := pkcs7Pad(plaintext, block.BlockSize())
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)
	return ciphertext, nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	pad := blockSize - len(data)%blockSize
	out := make([]byte, len(data)+pad)
	copy(out, data)
	for i := len(data); i < len(out); i++ {
		out[i] = byte(pad)
	}
	return out
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty plaintext", arqerr.ErrCipher)
	}
	pad := int(data[len(data)-1])
	if pad == 0 || pad > blockSize || pad > len(data) {
		return nil, fmt.Errorf("%w: bad padding", arqerr.ErrCipher)
	}
	for _, b := range data[len(data)-pad:] {
		if int(b) != pad {
			return nil, fmt.Errorf("%w: bad padding", arqerr.ErrCipher)
		}
	}
	return data[:len(data)-pad], nil
}
