package arqtest

import "encoding/binary"

// Append helpers mirror the writer side of the wire primitives so tests can
// assemble records byte-for-byte.

func AppendBool(b []byte, v bool) []byte {
	if v {
		return append(b, 0x01)
	}
	return append(b, 0x00)
}

func AppendU32(b []byte, v uint32) []byte {
	return binary.BigEndian.AppendUint32(b, v)
}

func AppendI32(b []byte, v int32) []byte {
	return binary.BigEndian.AppendUint32(b, uint32(v))
}

func AppendU64(b []byte, v uint64) []byte {
	return binary.BigEndian.AppendUint64(b, v)
}

func AppendI64(b []byte, v int64) []byte {
	return binary.BigEndian.AppendUint64(b, uint64(v))
}

// AppendString writes a presence flag, then length and bytes. The empty
// string is written as an absent flag, matching how the format encodes it.
func AppendString(b []byte, s string) []byte {
	if s == "" {
		return append(b, 0x00)
	}
	b = append(b, 0x01)
	b = AppendU64(b, uint64(len(s)))
	return append(b, s...)
}

func AppendData(b, data []byte) []byte {
	b = AppendU64(b, uint64(len(data)))
	return append(b, data...)
}

// AppendDate writes an absent flag for 0 ms, else the presence flag and the
// millisecond count.
func AppendDate(b []byte, ms uint64) []byte {
	if ms == 0 {
		return append(b, 0x00)
	}
	b = append(b, 0x01)
	return AppendU64(b, ms)
}

// AppendBlobKey writes a full blob key record. An empty sha1 produces the
// absent-reference sentinel.
func AppendBlobKey(b []byte, sha1 string) []byte {
	b = AppendString(b, sha1)
	b = AppendBool(b, false) // key not stretched
	b = AppendU32(b, 1)      // S3 storage
	b = AppendString(b, "") // no archive id
	b = AppendU64(b, 0)     // archive size
	return AppendDate(b, 0)
}

// EncodeNode builds a file node whose content is the given chunk SHA-1s,
// with the data compression tag ct, uid 501, gid 20, mode 0644, one link,
// a 4096-byte block size and all other stat fields zeroed.
func EncodeNode(dataSHA1s []string, dataSize uint64, ct int32) []byte {
	var b []byte
	b = AppendBool(b, false) // not a tree
	b = AppendBool(b, false) // no missing items
	b = AppendI32(b, ct)     // data compression
	b = AppendI32(b, 0)      // xattrs compression
	b = AppendI32(b, 0)      // acl compression
	b = AppendI32(b, int32(len(dataSHA1s)))
	for _, sha1 := range dataSHA1s {
		b = AppendBlobKey(b, sha1)
	}
	b = AppendU64(b, dataSize)
	b = AppendBlobKey(b, "") // no xattrs
	b = AppendU64(b, 0)
	b = AppendBlobKey(b, "") // no acl
	b = AppendI32(b, 501)    // uid
	b = AppendI32(b, 20)     // gid
	b = AppendI32(b, 0644)   // mode
	b = AppendI64(b, 0)      // mtime sec
	b = AppendI64(b, 0)      // mtime nsec
	b = AppendI64(b, 0)      // flags
	b = AppendI32(b, 0)      // finder flags
	b = AppendI32(b, 0)      // extended finder flags
	b = AppendString(b, "")  // finder file type
	b = AppendString(b, "")  // finder file creator
	b = AppendBool(b, false) // extension not hidden
	b = AppendI32(b, 0)      // st_dev
	b = AppendI32(b, 0)      // st_ino
	b = AppendU32(b, 1)      // st_nlink
	b = AppendI32(b, 0)      // st_rdev
	b = AppendI64(b, 0)      // ctime sec
	b = AppendI64(b, 0)      // ctime nsec
	b = AppendI64(b, 0)      // create time sec
	b = AppendI64(b, 0)      // create time nsec
	b = AppendI64(b, 0)      // st_blocks
	return AppendU32(b, 4096) // st_blksize
}

// EncodeTree builds a tree blob body (uncompressed) with the given header
// version digits (e.g. "022") and name -> node record pairs in order.
func EncodeTree(version string, names []string, nodes [][]byte) []byte {
	b := []byte("TreeV" + version)
	b = AppendI32(b, 0)      // xattrs compression
	b = AppendI32(b, 0)      // acl compression
	b = AppendBlobKey(b, "") // no xattrs
	b = AppendU64(b, 0)
	b = AppendBlobKey(b, "") // no acl
	b = AppendI32(b, 501)    // uid
	b = AppendI32(b, 20)     // gid
	b = AppendI32(b, 0755)   // mode
	b = AppendI64(b, 0)      // mtime sec
	b = AppendI64(b, 0)      // mtime nsec
	b = AppendI64(b, 0)      // flags
	b = AppendI32(b, 0)      // finder flags
	b = AppendI32(b, 0)      // extended finder flags
	b = AppendI32(b, 0)      // st_dev
	b = AppendI32(b, 0)      // st_ino
	b = AppendU32(b, 1)      // st_nlink
	b = AppendI32(b, 0)      // st_rdev
	b = AppendI64(b, 0)      // ctime sec
	b = AppendI64(b, 0)      // ctime nsec
	b = AppendI64(b, 0)      // st_blocks
	b = AppendU32(b, 4096)   // st_blksize
	b = AppendI64(b, 0)      // create time sec
	b = AppendI64(b, 0)      // create time nsec
	b = AppendU32(b, 0)      // no missing nodes
	b = AppendU32(b, uint32(len(names)))
	for i, name := range names {
		b = AppendString(b, name)
		b = append(b, nodes[i]...)
	}
	return b
}

// EncodeCommit builds a CommitV012 record pointing at treeSHA1, optionally
// with one parent.
func EncodeCommit(author, parentSHA1, treeSHA1, folderPath string, ms uint64) []byte {
	b := []byte("CommitV012")
	b = AppendString(b, author)
	b = AppendString(b, "") // no comment
	if parentSHA1 == "" {
		b = AppendU64(b, 0)
	} else {
		b = AppendU64(b, 1)
		b = AppendString(b, parentSHA1)
		b = AppendBool(b, false)
	}
	b = AppendString(b, treeSHA1)
	b = AppendBool(b, false) // tree key not stretched
	b = AppendI32(b, 2)      // tree is lz4 compressed
	b = AppendString(b, folderPath)
	b = AppendDate(b, ms)
	b = AppendU64(b, 0)      // no failed files
	b = AppendBool(b, false) // no missing nodes
	b = AppendBool(b, true)  // complete
	b = AppendData(b, nil)   // no config plist
	return AppendString(b, "5.9.7")
}
