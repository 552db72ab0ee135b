package tree

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/arqvault/arqvault/arqerr"
	"github.com/arqvault/arqvault/wire"
)

var (
	commitMagic = []byte("CommitV")

	// commitV012 is the full header of the commit version this parser
	// targets.
	commitV012 = []byte("CommitV012")
)

// FailedFile records one file the backup could not read.
type FailedFile struct {
	RelativePath string
	ErrorMessage string
}

// ParentCommits maps a parent commit SHA-1 to whether its encryption key was
// stretched. A commit has at most one parent.
type ParentCommits map[string]bool

// Commit is a backup root record: it points at the root tree, at most one
// parent commit, and carries the backup session's metadata.
type Commit struct {
	Version                    uint32
	Author                     string
	Comment                    string
	ParentCommits              ParentCommits
	TreeSHA1                   string
	TreeEncryptionKeyStretched bool
	TreeCompressionType        wire.CompressionType
	FolderPath                 string
	CreationDate               wire.Date
	FailedFiles                []FailedFile
	HasMissingNodes            bool
	IsComplete                 bool
	ConfigPlistXML             []byte
	ArqVersion                 string
}

// IsCommit reports whether buf begins with the CommitV012 header.
func IsCommit(buf []byte) bool {
	return bytes.HasPrefix(buf, commitV012)
}

// ReadCommit decodes a commit record from its decrypted blob body.
func ReadCommit(r *wire.Reader) (*Commit, error) {
	header, err := r.ReadBytes(10)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(header[:7], commitMagic) {
		return nil, fmt.Errorf("%w: bad commit header %q", arqerr.ErrParse, header)
	}
	version, err := strconv.ParseUint(string(header[7:]), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: commit version %q: %v", arqerr.ErrParse, header[7:], err)
	}

	c := &Commit{Version: uint32(version), ParentCommits: make(ParentCommits)}

	if c.Author, err = r.ReadString(); err != nil {
		return nil, err
	}
	if c.Comment, err = r.ReadString(); err != nil {
		return nil, err
	}

	numParents, err := r.ReadU64()
	if err != nil {
		return nil, err
	}
	if numParents > 1 {
		return nil, fmt.Errorf("%w: commit with %d parents", arqerr.ErrParse, numParents)
	}
	for i := uint64(0); i < numParents; i++ {
		sha1, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		stretched, err := r.ReadBool()
		if err != nil {
			return nil, err
		}
		c.ParentCommits[sha1] = stretched
	}

	if c.TreeSHA1, err = r.ReadString(); err != nil {
		return nil, err
	}
	if c.TreeEncryptionKeyStretched, err = r.ReadBool(); err != nil {
		return nil, err
	}
	if c.TreeCompressionType, err = r.ReadCompressionType(); err != nil {
		return nil, err
	}
	if c.FolderPath, err = r.ReadString(); err != nil {
		return nil, err
	}
	if c.CreationDate, err = r.ReadDate(); err != nil {
		return nil, err
	}

	numFailed, err := r.ReadU64()
	if err != nil {
		return nil, err
	}
	for i := uint64(0); i < numFailed; i++ {
		var ff FailedFile
		if ff.RelativePath, err = r.ReadString(); err != nil {
			return nil, err
		}
		if ff.ErrorMessage, err = r.ReadString(); err != nil {
			return nil, err
		}
		c.FailedFiles = append(c.FailedFiles, ff)
	}

	if c.HasMissingNodes, err = r.ReadBool(); err != nil {
		return nil, err
	}
	if c.IsComplete, err = r.ReadBool(); err != nil {
		return nil, err
	}
	if c.ConfigPlistXML, err = r.ReadData(); err != nil {
		return nil, err
	}
	if c.ArqVersion, err = r.ReadString(); err != nil {
		return nil, err
	}

	return c, nil
}
