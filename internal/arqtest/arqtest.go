// Package arqtest builds on-disk format fixtures for tests: encrypted
// objects, pack files and their indices, assembled byte-for-byte the way a
// writer would so the decoders can be exercised end to end without bundled
// binary fixtures.
package arqtest

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func mustRead(t *testing.T, buf []byte) {
	t.Helper()
	if _, err := rand.Read(buf); err != nil {
		t.Fatalf("rand: %v", err)
	}
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

func encryptCBC(t *testing.T, key, iv, plaintext []byte) []byte {
	t.Helper()
	block, err := aes.NewCipher(key)
	if err != nil {
		t.Fatalf("aes: %v", err)
	}
	padded := pkcs7Pad(plaintext, block.BlockSize())
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)
	return out
}

func hmacSHA256(secret, message []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write(message)
	return mac.Sum(nil)
}

// EncryptObject wraps plaintext into a complete ARQO container under the
// encryption master key k1 and authentication master key k2.
func EncryptObject(t *testing.T, k1, k2, plaintext []byte) []byte {
	t.Helper()

	sessionKey := make([]byte, 32)
	dataIV := make([]byte, 16)
	masterIV := make([]byte, 16)
	mustRead(t, sessionKey)
	mustRead(t, dataIV)
	mustRead(t, masterIV)

	ciphertext := encryptCBC(t, sessionKey, dataIV, plaintext)
	wrapped := encryptCBC(t, k1, masterIV, append(append([]byte{}, dataIV...), sessionKey...))

	message := append(append(append([]byte{}, masterIV...), wrapped...), ciphertext...)
	mac := hmacSHA256(k2, message)

	out := append([]byte("ARQO"), mac...)
	out = append(out, masterIV...)
	out = append(out, wrapped...)
	return append(out, ciphertext...)
}

// PackEntry is one object to place into a fixture packset.
type PackEntry struct {
	SHA1      string // content address, lowercase hex
	Plaintext []byte // encrypted into the pack under the master keys
}

// BuildPack assembles a pack file from entries and returns the file bytes
// plus the offset of each entry's object record, keyed by SHA-1.
func BuildPack(t *testing.T, k1, k2 []byte, entries []PackEntry) ([]byte, map[string]uint64) {
	t.Helper()

	body := []byte("PACK")
	body = binary.BigEndian.AppendUint32(body, 2)
	body = binary.BigEndian.AppendUint64(body, uint64(len(entries)))

	offsets := make(map[string]uint64, len(entries))
	for _, entry := range entries {
		offsets[entry.SHA1] = uint64(len(body))
		body = append(body, 0x00, 0x00) // no mimetype, no name
		obj := EncryptObject(t, k1, k2, entry.Plaintext)
		body = binary.BigEndian.AppendUint64(body, uint64(len(obj)))
		body = append(body, obj...)
	}

	sum := sha1.Sum(body)
	return append(body, sum[:]...), offsets
}

// BuildIndex assembles the .index file for a pack built by BuildPack.
func BuildIndex(t *testing.T, entries []PackEntry, offsets map[string]uint64) []byte {
	t.Helper()

	sorted := make([]PackEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].SHA1 < sorted[j].SHA1 })

	var fanout [256]uint32
	for _, entry := range sorted {
		first, err := hex.DecodeString(entry.SHA1[:2])
		if err != nil {
			t.Fatalf("bad fixture sha1 %q: %v", entry.SHA1, err)
		}
		for b := int(first[0]); b < 256; b++ {
			fanout[b]++
		}
	}

	body := []byte{0xff, 0x74, 0x4f, 0x63}
	body = binary.BigEndian.AppendUint32(body, 2)
	for _, n := range fanout {
		body = binary.BigEndian.AppendUint32(body, n)
	}
	for _, entry := range sorted {
		body = binary.BigEndian.AppendUint64(body, offsets[entry.SHA1])
		body = binary.BigEndian.AppendUint64(body, 0)
		raw, err := hex.DecodeString(entry.SHA1)
		if err != nil {
			t.Fatalf("bad fixture sha1 %q: %v", entry.SHA1, err)
		}
		body = append(body, raw...)
		body = append(body, 0, 0, 0, 0)
	}

	sum := sha1.Sum(body)
	return append(body, sum[:]...)
}

// WritePackset writes a paired name.pack/name.index into dir.
func WritePackset(t *testing.T, dir, name string, k1, k2 []byte, entries []PackEntry) {
	t.Helper()

	pack, offsets := BuildPack(t, k1, k2, entries)
	index := BuildIndex(t, entries, offsets)

	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	if err := os.WriteFile(filepath.Join(dir, name+".pack"), pack, 0644); err != nil {
		t.Fatalf("write pack: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name+".index"), index, 0644); err != nil {
		t.Fatalf("write index: %v", err)
	}
}

// ContentSHA1 returns the lowercase-hex SHA-1 of data, the address a blob
// would have in an unsalted packset fixture.
func ContentSHA1(data []byte) string {
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:])
}
