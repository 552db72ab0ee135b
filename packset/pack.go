// Package packset reads Arq packsets: paired .pack/.index files holding a
// folder's small objects, addressed by content SHA-1.
//
// Every pack and index file carries a trailing 20-byte SHA-1 over all
// preceding bytes; a file is unusable until that checksum has verified.
package packset

import (
	"bytes"
	"crypto/sha1"
	"fmt"
	"io"

	"github.com/arqvault/arqvault/arqerr"
	"github.com/arqvault/arqvault/compression"
	"github.com/arqvault/arqvault/objenc"
	"github.com/arqvault/arqvault/wire"
)

var packMagic = []byte("PACK")

// Pack is one packfile: a version and a sequence of encrypted objects.
type Pack struct {
	Version uint32
	Objects []PackObject
}

// PackObject is a single entry in a packfile. Mimetype and name are optional
// and usually empty; Data is the object's encrypted payload.
type PackObject struct {
	Mimetype string
	Name     string
	Data     *objenc.EncryptedObject
}

// verifyTrailingSHA1 checks the 20-byte SHA-1 trailer of a pack or index
// file and returns the content it covers. A mismatch means the file is
// corrupt and must not be used.
func verifyTrailingSHA1(data []byte) ([]byte, error) {
	if len(data) < sha1.Size {
		return nil, fmt.Errorf("%w: file of %d bytes has no sha1 trailer", arqerr.ErrParse, len(data))
	}
	content := data[:len(data)-sha1.Size]
	trailer := data[len(data)-sha1.Size:]
	sum := sha1.Sum(content)
	if !bytes.Equal(sum[:], trailer) {
		return nil, fmt.Errorf("%w: sha1 trailer mismatch", arqerr.ErrParse)
	}
	return content, nil
}

// ReadPack parses a whole packfile, verifying its trailing SHA-1 first.
func ReadPack(r io.Reader) (*Pack, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read pack: %w", err)
	}
	return parsePack(data)
}

func parsePack(data []byte) (*Pack, error) {
	content, err := verifyTrailingSHA1(data)
	if err != nil {
		return nil, err
	}

	wr := wire.NewReader(bytes.NewReader(content))
	signature, err := wr.ReadBytes(len(packMagic))
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(signature, packMagic) {
		return nil, fmt.Errorf("%w: bad pack signature %q", arqerr.ErrParse, signature)
	}
	version, err := wr.ReadU32()
	if err != nil {
		return nil, err
	}
	count, err := wr.ReadU64()
	if err != nil {
		return nil, err
	}

	objects := make([]PackObject, 0, count)
	for i := uint64(0); i < count; i++ {
		obj, err := readPackObject(wr)
		if err != nil {
			return nil, err
		}
		objects = append(objects, obj)
	}

	return &Pack{Version: version, Objects: objects}, nil
}

func readPackObject(wr *wire.Reader) (PackObject, error) {
	var obj PackObject

	present, err := wr.ReadBool()
	if err != nil {
		return obj, err
	}
	if present {
		if obj.Mimetype, err = wr.ReadString(); err != nil {
			return obj, err
		}
	}

	present, err = wr.ReadBool()
	if err != nil {
		return obj, err
	}
	if present {
		if obj.Name, err = wr.ReadString(); err != nil {
			return obj, err
		}
	}

	data, err := wr.ReadData()
	if err != nil {
		return obj, err
	}
	obj.Data, err = objenc.ReadEncryptedObject(bytes.NewReader(data))
	if err != nil {
		return obj, err
	}
	return obj, nil
}

// Plaintext authenticates and decrypts the object under the master keys,
// then undoes the given compression. Validation always precedes decryption.
func (o *PackObject) Plaintext(ct wire.CompressionType, masterKeys [][]byte) ([]byte, error) {
	decrypted, err := o.Data.Open(masterKeys)
	if err != nil {
		return nil, err
	}
	return compression.Decompress(decrypted, ct)
}
