package tree

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/arqvault/arqvault/arqerr"
	"github.com/arqvault/arqvault/blob"
	"github.com/arqvault/arqvault/compression"
	"github.com/arqvault/arqvault/wire"
)

// treeMagic opens a tree blob; the three digits after it (e.g. "022") are
// the version.
var treeMagic = []byte("TreeV")

// Tree is a directory snapshot: its own stat attributes plus a name -> Node
// mapping. The parser targets version 19 and later, where each field group
// carries an int32 compression tag.
type Tree struct {
	Version               uint32
	XattrsCompressionType wire.CompressionType
	ACLCompressionType    wire.CompressionType
	XattrsBlobKey         *blob.BlobKey
	XattrsSize            uint64
	ACLBlobKey            *blob.BlobKey
	UID                   int32
	GID                   int32
	Mode                  int32
	MtimeSec              int64
	MtimeNsec             int64
	Flags                 int64
	FinderFlags           int32
	ExtendedFinderFlags   int32
	StDev                 int32
	StIno                 int32
	StNlink               uint32
	StRdev                int32
	CtimeSec              int64
	CtimeNsec             int64
	CreateTimeSec         int64
	CreateTimeNsec        int64
	StBlocks              int64
	StBlksize             uint32
	MissingNodes          []string
	Nodes                 map[string]*Node
}

// ReadTree decompresses a stored tree blob and decodes it.
func ReadTree(compressed []byte, ct wire.CompressionType) (*Tree, error) {
	content, err := compression.Decompress(compressed, ct)
	if err != nil {
		return nil, err
	}

	r := wire.NewReader(bytes.NewReader(content))
	header, err := r.ReadBytes(8)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(header[:5], treeMagic) {
		return nil, fmt.Errorf("%w: bad tree header %q", arqerr.ErrParse, header)
	}
	version, err := strconv.ParseUint(string(header[5:]), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: tree version %q: %v", arqerr.ErrParse, header[5:], err)
	}

	t := &Tree{Version: uint32(version), Nodes: make(map[string]*Node)}

	if t.XattrsCompressionType, err = r.ReadCompressionType(); err != nil {
		return nil, err
	}
	if t.ACLCompressionType, err = r.ReadCompressionType(); err != nil {
		return nil, err
	}
	if t.XattrsBlobKey, err = blob.Read(r); err != nil {
		return nil, err
	}
	if t.XattrsSize, err = r.ReadU64(); err != nil {
		return nil, err
	}
	if t.ACLBlobKey, err = blob.Read(r); err != nil {
		return nil, err
	}
	if t.UID, err = r.ReadI32(); err != nil {
		return nil, err
	}
	if t.GID, err = r.ReadI32(); err != nil {
		return nil, err
	}
	if t.Mode, err = r.ReadI32(); err != nil {
		return nil, err
	}
	if t.MtimeSec, err = r.ReadI64(); err != nil {
		return nil, err
	}
	if t.MtimeNsec, err = r.ReadI64(); err != nil {
		return nil, err
	}
	if t.Flags, err = r.ReadI64(); err != nil {
		return nil, err
	}
	if t.FinderFlags, err = r.ReadI32(); err != nil {
		return nil, err
	}
	if t.ExtendedFinderFlags, err = r.ReadI32(); err != nil {
		return nil, err
	}
	if t.StDev, err = r.ReadI32(); err != nil {
		return nil, err
	}
	if t.StIno, err = r.ReadI32(); err != nil {
		return nil, err
	}
	if t.StNlink, err = r.ReadU32(); err != nil {
		return nil, err
	}
	if t.StRdev, err = r.ReadI32(); err != nil {
		return nil, err
	}
	if t.CtimeSec, err = r.ReadI64(); err != nil {
		return nil, err
	}
	if t.CtimeNsec, err = r.ReadI64(); err != nil {
		return nil, err
	}
	if t.StBlocks, err = r.ReadI64(); err != nil {
		return nil, err
	}
	if t.StBlksize, err = r.ReadU32(); err != nil {
		return nil, err
	}
	if t.CreateTimeSec, err = r.ReadI64(); err != nil {
		return nil, err
	}
	if t.CreateTimeNsec, err = r.ReadI64(); err != nil {
		return nil, err
	}

	missing, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < missing; i++ {
		name, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		t.MissingNodes = append(t.MissingNodes, name)
	}

	count, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < count; i++ {
		name, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		if name == "" {
			return nil, fmt.Errorf("%w: tree node with empty name", arqerr.ErrParse)
		}
		if _, dup := t.Nodes[name]; dup {
			return nil, fmt.Errorf("%w: duplicate tree node %q", arqerr.ErrParse, name)
		}
		node, err := ReadNode(r)
		if err != nil {
			return nil, err
		}
		t.Nodes[name] = node
	}

	return t, nil
}
