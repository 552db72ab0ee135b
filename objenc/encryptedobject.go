package objenc

import (
	"bytes"
	"crypto/hmac"
	"fmt"
	"io"

	"github.com/arqvault/arqvault/arqerr"
	"github.com/arqvault/arqvault/wire"
)

// arqoMagic opens every EncryptedObject.
var arqoMagic = []byte("ARQO")

// EncryptedObject is the generic authenticated-encrypted container used for
// everything the backup target stores: folder descriptors, packed trees and
// blobs. It is transient: read it, validate it, decrypt it, discard it.
type EncryptedObject struct {
	HMACSHA256                   []byte
	MasterIV                     []byte
	EncryptedDataIVAndSessionKey []byte
	Ciphertext                   []byte

	validated bool
}

// ReadEncryptedObject parses an ARQO stream. The ciphertext runs to the end
// of the reader.
func ReadEncryptedObject(r io.Reader) (*EncryptedObject, error) {
	wr := wire.NewReader(r)

	header, err := wr.ReadBytes(len(arqoMagic))
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(header, arqoMagic) {
		return nil, fmt.Errorf("%w: bad encrypted object header %q", arqerr.ErrParse, header)
	}
	mac, err := wr.ReadBytes(32)
	if err != nil {
		return nil, err
	}
	masterIV, err := wr.ReadBytes(16)
	if err != nil {
		return nil, err
	}
	wrappedKey, err := wr.ReadBytes(64)
	if err != nil {
		return nil, err
	}
	ciphertext, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read ciphertext: %w", err)
	}

	return &EncryptedObject{
		HMACSHA256:                   mac,
		MasterIV:                     masterIV,
		EncryptedDataIVAndSessionKey: wrappedKey,
		Ciphertext:                   ciphertext,
	}, nil
}

// Validate checks the object's HMAC-SHA256 under the authentication master
// key (the second master key). It must succeed before Decrypt will run.
func (o *EncryptedObject) Validate(masterKey []byte) error {
	message := make([]byte, 0, len(o.MasterIV)+len(o.EncryptedDataIVAndSessionKey)+len(o.Ciphertext))
	message = append(message, o.MasterIV...)
	message = append(message, o.EncryptedDataIVAndSessionKey...)
	message = append(message, o.Ciphertext...)

	if !hmac.Equal(CalculateHMACSHA256(masterKey, message), o.HMACSHA256) {
		return fmt.Errorf("%w: object HMAC mismatch", arqerr.ErrCrypto)
	}
	o.validated = true
	return nil
}

// Decrypt unwraps the session key with the encryption master key (the first
// master key) and returns the object plaintext. Validate must have succeeded
// first; decrypting an unauthenticated object is refused.
func (o *EncryptedObject) Decrypt(masterKey []byte) ([]byte, error) {
	if !o.validated {
		return nil, fmt.Errorf("%w: decrypt before successful validation", arqerr.ErrCrypto)
	}

	dataIVAndSessionKey, err := decryptCBC(masterKey, o.MasterIV, o.EncryptedDataIVAndSessionKey)
	if err != nil {
		return nil, err
	}
	if len(dataIVAndSessionKey) != 48 {
		return nil, fmt.Errorf("%w: unwrapped session material is %d bytes", arqerr.ErrCipher, len(dataIVAndSessionKey))
	}
	dataIV := dataIVAndSessionKey[0:16]
	sessionKey := dataIVAndSessionKey[16:48]

	return decryptCBC(sessionKey, dataIV, o.Ciphertext)
}

// Open validates the object under keys[1] and decrypts it with keys[0],
// enforcing the authenticate-then-decrypt ordering in one call.
func (o *EncryptedObject) Open(masterKeys [][]byte) ([]byte, error) {
	if len(masterKeys) < 2 {
		return nil, fmt.Errorf("%w: need encryption and authentication master keys", arqerr.ErrCrypto)
	}
	if err := o.Validate(masterKeys[1]); err != nil {
		return nil, err
	}
	return o.Decrypt(masterKeys[0])
}
