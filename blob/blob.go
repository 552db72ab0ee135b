// Package blob defines BlobKey, the content-SHA-1 reference used throughout
// trees and commits to point at deduplicated object data.
package blob

import "github.com/arqvault/arqvault/wire"

// Storage types recorded in a BlobKey.
const (
	StorageS3      = 1
	StorageGlacier = 2
)

// BlobKey references a blob by content hash plus archival metadata.
type BlobKey struct {
	SHA1 string

	// Only present for tree version 14 or later, commit version 4 or later.
	IsEncryptionKeyStretched bool

	// Only present for tree version 17 or later.
	StorageType       uint32
	ArchiveID         string
	ArchiveSize       uint64
	ArchiveUploadDate wire.Date
}

// Read decodes a BlobKey. A key whose SHA-1 is the empty string is the
// format's "absent reference" sentinel and decodes to nil.
func Read(r *wire.Reader) (*BlobKey, error) {
	sha1, err := r.ReadString()
	if err != nil {
		return nil, err
	}
	stretched, err := r.ReadBool()
	if err != nil {
		return nil, err
	}
	storageType, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	archiveID, err := r.ReadString()
	if err != nil {
		return nil, err
	}
	archiveSize, err := r.ReadU64()
	if err != nil {
		return nil, err
	}
	uploadDate, err := r.ReadDate()
	if err != nil {
		return nil, err
	}

	if sha1 == "" {
		return nil, nil
	}
	return &BlobKey{
		SHA1:                     sha1,
		IsEncryptionKeyStretched: stretched,
		StorageType:              storageType,
		ArchiveID:                archiveID,
		ArchiveSize:              archiveSize,
		ArchiveUploadDate:        uploadDate,
	}, nil
}
