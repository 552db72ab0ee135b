package folder

import (
	"fmt"
	"io"
	"unicode/utf8"

	"howett.net/plist"

	"github.com/arqvault/arqvault/arqerr"
)

// FolderData is the head-log entry written each time a new commit lands:
// the previous and current commit SHA-1s, the SHA-1 of the pack holding the
// new commit, and whether the new head rewrites history.
type FolderData struct {
	OldHeadSHA1       string `plist:"oldHeadSHA1"`
	OldHeadStretchKey bool   `plist:"oldHeadStretchKey"`
	NewHeadSHA1       string `plist:"newHeadSHA1"`
	NewHeadStretchKey bool   `plist:"newHeadStretchKey"`
	IsRewrite         bool   `plist:"isRewrite"`
	PackSHA1          string `plist:"packSHA1"`
}

// ReadFolderData decodes a refs/logs/master entry. sha1sum is the entry's
// identifier as raw bytes; when it exceeds 40 bytes it must be the new head
// SHA-1 followed by a literal 'Y', and the two must agree.
func ReadFolderData(r io.Reader, sha1sum []byte) (*FolderData, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read folder data: %w", err)
	}
	var fd FolderData
	if _, err := plist.Unmarshal(data, &fd); err != nil {
		return nil, fmt.Errorf("%w: folder data plist: %v", arqerr.ErrParse, err)
	}

	if len(sha1sum) > 40 {
		if sha1sum[len(sha1sum)-1] != 'Y' {
			return nil, fmt.Errorf("%w: folder data identifier lacks trailing Y", arqerr.ErrParse)
		}
		head := sha1sum[:len(sha1sum)-1]
		if !utf8.Valid(head) {
			return nil, fmt.Errorf("%w: folder data identifier is not valid UTF-8", arqerr.ErrConversion)
		}
		if string(head) != fd.NewHeadSHA1 {
			return nil, fmt.Errorf("%w: folder data identifier %q does not match new head %q", arqerr.ErrParse, head, fd.NewHeadSHA1)
		}
	}
	return &fd, nil
}
