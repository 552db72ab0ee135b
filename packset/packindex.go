package packset

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"sort"

	"github.com/arqvault/arqvault/arqerr"
	"github.com/arqvault/arqvault/wire"
)

var packIndexMagic = []byte{0xff, 0x74, 0x4f, 0x63}

// PackIndexObject locates one packed object within its pack file.
type PackIndexObject struct {
	Offset  uint64
	DataLen uint64
	SHA1    string
}

// PackIndex is the fan-out-indexed locator table over one pack file.
// Records are sorted by SHA-1; Fanout[b] counts the records whose first
// SHA-1 byte is <= b, so Fanout[255] is the total record count.
type PackIndex struct {
	Version uint32
	Fanout  [256]uint32
	Objects []PackIndexObject

	GlacierArchiveIDPresent bool
	GlacierArchiveID        string
	GlacierPackSize         uint64
}

// ReadPackIndex parses a .index stream, verifying its trailing SHA-1 first.
func ReadPackIndex(r io.Reader) (*PackIndex, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read pack index: %w", err)
	}
	return parsePackIndex(data)
}

func parsePackIndex(data []byte) (*PackIndex, error) {
	content, err := verifyTrailingSHA1(data)
	if err != nil {
		return nil, err
	}

	br := bytes.NewReader(content)
	wr := wire.NewReader(br)

	magic, err := wr.ReadBytes(4)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(magic, packIndexMagic) {
		return nil, fmt.Errorf("%w: bad pack index magic % x", arqerr.ErrParse, magic)
	}

	ix := &PackIndex{}
	if ix.Version, err = wr.ReadU32(); err != nil {
		return nil, err
	}
	for i := range ix.Fanout {
		if ix.Fanout[i], err = wr.ReadU32(); err != nil {
			return nil, err
		}
		if i > 0 && ix.Fanout[i] < ix.Fanout[i-1] {
			return nil, fmt.Errorf("%w: fanout[%d]=%d decreases below %d", arqerr.ErrParse, i, ix.Fanout[i], ix.Fanout[i-1])
		}
	}

	count := ix.Fanout[255]
	ix.Objects = make([]PackIndexObject, 0, count)
	for i := uint32(0); i < count; i++ {
		obj, err := readPackIndexObject(wr)
		if err != nil {
			return nil, err
		}
		ix.Objects = append(ix.Objects, obj)
	}

	// Whatever sits between the last record and the trailing SHA-1 is the
	// Glacier tail; a zero-byte gap means there is none.
	if br.Len() > 0 {
		flag, err := wr.ReadBytes(1)
		if err != nil {
			return nil, err
		}
		if flag[0] == 0x01 {
			ix.GlacierArchiveIDPresent = true
			strlen, err := wr.ReadU64()
			if err != nil {
				return nil, err
			}
			id, err := wr.ReadBytes(int(strlen))
			if err != nil {
				return nil, err
			}
			ix.GlacierArchiveID = string(id)
			if ix.GlacierPackSize, err = wr.ReadU64(); err != nil {
				return nil, err
			}
		}
		if br.Len() > 0 {
			return nil, fmt.Errorf("%w: %d trailing bytes after pack index", arqerr.ErrParse, br.Len())
		}
	}

	return ix, nil
}

func readPackIndexObject(wr *wire.Reader) (PackIndexObject, error) {
	var obj PackIndexObject
	var err error

	if obj.Offset, err = wr.ReadU64(); err != nil {
		return obj, err
	}
	if obj.DataLen, err = wr.ReadU64(); err != nil {
		return obj, err
	}
	sha, err := wr.ReadBytes(20)
	if err != nil {
		return obj, err
	}
	obj.SHA1 = hex.EncodeToString(sha)

	// 4 bytes of alignment padding close each record.
	if _, err = wr.ReadBytes(4); err != nil {
		return obj, err
	}
	return obj, nil
}

// Lookup finds the record for the given content SHA-1 (lowercase hex).
// A miss returns ok=false; it is not an error of the index.
func (ix *PackIndex) Lookup(sha1Hex string) (*PackIndexObject, bool) {
	if len(sha1Hex) != 40 {
		return nil, false
	}
	first, err := hex.DecodeString(sha1Hex[:2])
	if err != nil {
		return nil, false
	}

	b := int(first[0])
	lo := uint32(0)
	if b > 0 {
		lo = ix.Fanout[b-1]
	}
	hi := ix.Fanout[b]
	if hi > uint32(len(ix.Objects)) {
		return nil, false
	}

	bucket := ix.Objects[lo:hi]
	i := sort.Search(len(bucket), func(i int) bool { return bucket[i].SHA1 >= sha1Hex })
	if i < len(bucket) && bucket[i].SHA1 == sha1Hex {
		return &bucket[i], true
	}
	return nil, false
}
