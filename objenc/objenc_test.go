package objenc

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/arqvault/arqvault/arqerr"
)

func TestCalculateHMACSHA256(t *testing.T) {
	want := []byte{
		139, 95, 72, 112, 41, 149, 193, 89, 140, 87, 61, 177, 226, 24, 102, 169,
		184, 37, 212, 167, 148, 209, 105, 215, 6, 10, 3, 96, 87, 150, 54, 11,
	}
	got := CalculateHMACSHA256([]byte("secret"), []byte("message"))
	if !bytes.Equal(got, want) {
		t.Errorf("hmac = %x", got)
	}
}

func TestSHA1Sum(t *testing.T) {
	got := hex.EncodeToString(SHA1Sum([]byte("message")))
	if got != "6f9b9af3cd6e8b8a73c2cdced37fe9f59226e27d" {
		t.Errorf("sha1 = %s", got)
	}
}

func TestPKCS7Unpad(t *testing.T) {
	data := pkcs7Pad([]byte("abc"), 16)
	if len(data) != 16 {
		t.Fatalf("padded length = %d", len(data))
	}
	out, err := pkcs7Unpad(data, 16)
	if err != nil {
		t.Fatalf("unpad: %v", err)
	}
	if string(out) != "abc" {
		t.Errorf("unpad = %q", out)
	}

	// Whole-block padding for block-aligned input.
	data = pkcs7Pad(make([]byte, 16), 16)
	if len(data) != 32 {
		t.Errorf("aligned padded length = %d", len(data))
	}

	for _, bad := range [][]byte{
		{},
		{1, 2, 0},
		{1, 2, 17},
		{3, 3, 2, 3},
	} {
		if _, err := pkcs7Unpad(bad, 16); !errors.Is(err, arqerr.ErrCipher) {
			t.Errorf("unpad(%v) error = %v, want ErrCipher", bad, err)
		}
	}
}

func TestDecryptCBCBadKey(t *testing.T) {
	if _, err := decryptCBC(make([]byte, 7), make([]byte, 16), make([]byte, 16)); !errors.Is(err, arqerr.ErrCrypto) {
		t.Errorf("bad key error = %v, want ErrCrypto", err)
	}
}

func TestDecryptCBCBadCiphertextLength(t *testing.T) {
	if _, err := decryptCBC(make([]byte, 32), make([]byte, 16), make([]byte, 15)); !errors.Is(err, arqerr.ErrCipher) {
		t.Errorf("ragged ciphertext error = %v, want ErrCipher", err)
	}
}
