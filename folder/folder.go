// Package folder decodes a backup folder's metadata: the encrypted
// buckets/<folder_uuid> descriptor and the FolderData head-log entries
// written alongside each new commit.
//
// The folder's UUID and name appear as "BucketUUID" and "BucketName" in the
// property list; this is a holdover from earlier iterations of the format
// and unrelated to S3 buckets.
package folder

import (
	"bytes"
	"fmt"
	"io"

	"howett.net/plist"

	"github.com/arqvault/arqvault/arqerr"
	"github.com/arqvault/arqvault/objenc"
	"github.com/arqvault/arqvault/wire"
)

// folderHeader is the literal prefix of every buckets/<folder_uuid> file.
var folderHeader = []byte("encrypted")

// Excludes is the folder's exclusion rule set.
type Excludes struct {
	Enabled    bool     `plist:"Enabled"`
	MatchAny   bool     `plist:"MatchAny"`
	Conditions []string `plist:"Conditions"`
}

// Folder is the decrypted buckets/<folder_uuid> descriptor.
type Folder struct {
	BucketName   string `plist:"BucketName"`
	BucketUUID   string `plist:"BucketUUID"`
	ComputerUUID string `plist:"ComputerUUID"`
	Endpoint     string `plist:"Endpoint"`

	ExcludeItemsWithTimeMachineExcludeMetadataFlag bool `plist:"ExcludeItemsWithTimeMachineExcludeMetadataFlag"`

	Excludes             Excludes `plist:"Excludes"`
	IgnoredRelativePaths []string `plist:"IgnoredRelativePaths"`
	LocalMountPoint      string   `plist:"LocalMountPoint"`
	LocalPath            string   `plist:"LocalPath"`
	SkipDuringBackup     bool     `plist:"SkipDuringBackup"`
	SkipIfNotMounted     bool     `plist:"SkipIfNotMounted"`
	StorageType          uint8    `plist:"StorageType"`
}

// ReadFolder decrypts and decodes a buckets/<folder_uuid> stream with the
// computer's master keys: HMAC check under the authentication key, AES-CBC
// decrypt under the encryption key, then property-list decode.
func ReadFolder(r io.Reader, masterKeys [][]byte) (*Folder, error) {
	wr := wire.NewReader(r)
	header, err := wr.ReadBytes(len(folderHeader))
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(header, folderHeader) {
		return nil, fmt.Errorf("%w: bad folder header %q", arqerr.ErrParse, header)
	}

	obj, err := objenc.ReadEncryptedObject(r)
	if err != nil {
		return nil, err
	}
	content, err := obj.Open(masterKeys)
	if err != nil {
		return nil, err
	}
	return folderFromContent(content)
}

func folderFromContent(content []byte) (*Folder, error) {
	var f Folder
	if _, err := plist.Unmarshal(content, &f); err != nil {
		return nil, fmt.Errorf("%w: folder plist: %v", arqerr.ErrParse, err)
	}
	return &f, nil
}
