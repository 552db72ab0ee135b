// Package tree decodes the user-visible logical objects of the format:
// commits, directory trees and their nodes. All three are parsed from blob
// bodies that have already been authenticated, decrypted and decompressed.
package tree

import (
	"github.com/arqvault/arqvault/blob"
	"github.com/arqvault/arqvault/wire"
)

// Node is a directory entry: a file or subdirectory with POSIX stat
// attributes and references to its data, xattrs and ACL blobs. A large file
// carries several data blob keys, one per rolling-checksum chunk, in order.
type Node struct {
	IsTree                   bool
	TreeContainsMissingItems bool
	DataCompressionType      wire.CompressionType
	XattrsCompressionType    wire.CompressionType
	ACLCompressionType       wire.CompressionType
	DataBlobKeys             []blob.BlobKey
	DataSize                 uint64
	XattrsBlobKey            *blob.BlobKey
	XattrsSize               uint64
	ACLBlobKey               *blob.BlobKey
	UID                      int32
	GID                      int32
	Mode                     int32
	MtimeSec                 int64
	MtimeNsec                int64
	Flags                    int64
	FinderFlags              int32
	ExtendedFinderFlags      int32
	FinderFileType           string
	FinderFileCreator        string
	IsFileExtensionHidden    bool
	StDev                    int32
	StIno                    int32
	StNlink                  uint32
	StRdev                   int32
	CtimeSec                 int64
	CtimeNsec                int64
	CreateTimeSec            int64
	CreateTimeNsec           int64
	StBlocks                 int64
	StBlksize                uint32
}

// ReadNode decodes one node record. The data blob key counter only counts
// present keys; absent sentinels between them are skipped.
func ReadNode(r *wire.Reader) (*Node, error) {
	n := &Node{}
	var err error

	if n.IsTree, err = r.ReadBool(); err != nil {
		return nil, err
	}
	if n.TreeContainsMissingItems, err = r.ReadBool(); err != nil {
		return nil, err
	}
	if n.DataCompressionType, err = r.ReadCompressionType(); err != nil {
		return nil, err
	}
	if n.XattrsCompressionType, err = r.ReadCompressionType(); err != nil {
		return nil, err
	}
	if n.ACLCompressionType, err = r.ReadCompressionType(); err != nil {
		return nil, err
	}

	count, err := r.ReadI32()
	if err != nil {
		return nil, err
	}
	for count > 0 {
		key, err := blob.Read(r)
		if err != nil {
			return nil, err
		}
		if key != nil {
			n.DataBlobKeys = append(n.DataBlobKeys, *key)
			count--
		}
	}

	if n.DataSize, err = r.ReadU64(); err != nil {
		return nil, err
	}
	if n.XattrsBlobKey, err = blob.Read(r); err != nil {
		return nil, err
	}
	if n.XattrsSize, err = r.ReadU64(); err != nil {
		return nil, err
	}
	if n.ACLBlobKey, err = blob.Read(r); err != nil {
		return nil, err
	}
	if n.UID, err = r.ReadI32(); err != nil {
		return nil, err
	}
	if n.GID, err = r.ReadI32(); err != nil {
		return nil, err
	}
	if n.Mode, err = r.ReadI32(); err != nil {
		return nil, err
	}
	if n.MtimeSec, err = r.ReadI64(); err != nil {
		return nil, err
	}
	if n.MtimeNsec, err = r.ReadI64(); err != nil {
		return nil, err
	}
	if n.Flags, err = r.ReadI64(); err != nil {
		return nil, err
	}
	if n.FinderFlags, err = r.ReadI32(); err != nil {
		return nil, err
	}
	if n.ExtendedFinderFlags, err = r.ReadI32(); err != nil {
		return nil, err
	}
	if n.FinderFileType, err = r.ReadString(); err != nil {
		return nil, err
	}
	if n.FinderFileCreator, err = r.ReadString(); err != nil {
		return nil, err
	}
	if n.IsFileExtensionHidden, err = r.ReadBool(); err != nil {
		return nil, err
	}
	if n.StDev, err = r.ReadI32(); err != nil {
		return nil, err
	}
	if n.StIno, err = r.ReadI32(); err != nil {
		return nil, err
	}
	if n.StNlink, err = r.ReadU32(); err != nil {
		return nil, err
	}
	if n.StRdev, err = r.ReadI32(); err != nil {
		return nil, err
	}
	if n.CtimeSec, err = r.ReadI64(); err != nil {
		return nil, err
	}
	if n.CtimeNsec, err = r.ReadI64(); err != nil {
		return nil, err
	}
	if n.CreateTimeSec, err = r.ReadI64(); err != nil {
		return nil, err
	}
	if n.CreateTimeNsec, err = r.ReadI64(); err != nil {
		return nil, err
	}
	if n.StBlocks, err = r.ReadI64(); err != nil {
		return nil, err
	}
	if n.StBlksize, err = r.ReadU32(); err != nil {
		return nil, err
	}

	return n, nil
}
