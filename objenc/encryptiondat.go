package objenc

import (
	"bytes"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"

	"github.com/arqvault/arqvault/arqerr"
	"github.com/arqvault/arqvault/wire"
)

// encryptionDatMagic opens every encryptionv3.dat file. The "V2" is
// historical; the v3 format kept the header of its predecessor.
var encryptionDatMagic = []byte("ENCRYPTIONV2")

const (
	pbkdf2Iterations = 200_000
	masterKeyLen     = 32
	masterKeyCount   = 3
)

// EncryptionDat is the password-unlocked key vault for a computer. It is
// derived once per session; the master keys it exposes are read-only and
// shared by all subsequent decryption.
//
// MasterKeys holds three 32-byte keys: [0] encrypts content, [1]
// authenticates objects, [2] salts content SHA-1 hashes.
type EncryptionDat struct {
	Salt       []byte
	HMACSHA256 []byte
	IV         []byte
	MasterKeys [][]byte
}

// deriveEncryptionKey stretches the password into a 64-byte key with
// PBKDF2-HMAC-SHA1. SHA-1 as the PRF is mandated by the format for
// interoperability with historical Windows builds.
func deriveEncryptionKey(password, salt []byte) []byte {
	return pbkdf2.Key(password, salt, pbkdf2Iterations, 64, sha1.New)
}

// ReadEncryptionDat parses an encryptionv3.dat stream and unlocks the master
// keys with password. A failed HMAC check means the password is wrong.
func ReadEncryptionDat(r io.Reader, password string) (*EncryptionDat, error) {
	wr := wire.NewReader(r)

	header, err := wr.ReadBytes(len(encryptionDatMagic))
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(header, encryptionDatMagic) {
		return nil, fmt.Errorf("%w: bad encryption dat header %q", arqerr.ErrParse, header)
	}
	salt, err := wr.ReadBytes(8)
	if err != nil {
		return nil, err
	}
	fileHMAC, err := wr.ReadBytes(32)
	if err != nil {
		return nil, err
	}
	iv, err := wr.ReadBytes(16)
	if err != nil {
		return nil, err
	}
	encryptedMasterKeys, err := wr.ReadBytes(112)
	if err != nil {
		return nil, err
	}

	encryptionKey := deriveEncryptionKey([]byte(password), salt)

	ivAndKeys := append(append([]byte{}, iv...), encryptedMasterKeys...)
	calculated := CalculateHMACSHA256(encryptionKey[32:64], ivAndKeys)
	if !hmac.Equal(calculated, fileHMAC) {
		return nil, arqerr.ErrWrongPassword
	}

	masterKeys, err := decryptCBC(encryptionKey[0:32], iv, encryptedMasterKeys)
	if err != nil {
		return nil, err
	}
	if len(masterKeys) != masterKeyLen*masterKeyCount {
		return nil, fmt.Errorf("%w: master key material is %d bytes", arqerr.ErrCipher, len(masterKeys))
	}

	return &EncryptionDat{
		Salt:       salt,
		HMACSHA256: fileHMAC,
		IV:         iv,
		MasterKeys: splitMasterKeys(masterKeys),
	}, nil
}

func splitMasterKeys(material []byte) [][]byte {
	keys := make([][]byte, 0, masterKeyCount)
	for i := 0; i < masterKeyCount; i++ {
		keys = append(keys, material[i*masterKeyLen:(i+1)*masterKeyLen])
	}
	return keys
}

// GenerateEncryptionDat creates a fresh encryptionv3.dat file body: random
// salt, IV and three random 32-byte master keys, wrapped under the password.
func GenerateEncryptionDat(password string) ([]byte, error) {
	salt := make([]byte, 8)
	iv := make([]byte, 16)
	masterKeys := make([]byte, masterKeyLen*masterKeyCount)
	for _, buf := range [][]byte{salt, iv, masterKeys} {
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("%w: %v", arqerr.ErrCrypto, err)
		}
	}

	encryptionKey := deriveEncryptionKey([]byte(password), salt)
	encryptedMasterKeys, err := encryptCBC(encryptionKey[0:32], iv, masterKeys)
	if err != nil {
		return nil, err
	}

	ivAndKeys := append(append([]byte{}, iv...), encryptedMasterKeys...)
	mac := CalculateHMACSHA256(encryptionKey[32:64], ivAndKeys)

	out := make([]byte, 0, len(encryptionDatMagic)+8+32+16+len(encryptedMasterKeys))
	out = append(out, encryptionDatMagic...)
	out = append(out, salt...)
	out = append(out, mac...)
	out = append(out, iv...)
	out = append(out, encryptedMasterKeys...)
	return out, nil
}
