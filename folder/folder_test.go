package folder

import (
	"bytes"
	"errors"
	"testing"

	"github.com/arqvault/arqvault/arqerr"
	"github.com/arqvault/arqvault/internal/arqtest"
	"github.com/arqvault/arqvault/objenc"
)

const folderPlist = `<?xml version="1.0" encoding="UTF-8"?>
<plist version="1.0">
	<dict>
		<key>BucketName</key>
		<string>company</string>
		<key>BucketUUID</key>
		<string>7C19E8AF-FFE9-4952-B1E1-8D5181012BB1</string>
		<key>ComputerUUID</key>
		<string>AA16A39F-AEDC-42A5-A15B-DAA09EA22E1D</string>
		<key>Endpoint</key>
		<string>file:///arq</string>
		<key>ExcludeItemsWithTimeMachineExcludeMetadataFlag</key>
		<false/>
		<key>Excludes</key>
		<dict>
			<key>Enabled</key>
			<false/>
			<key>MatchAny</key>
			<true/>
			<key>Conditions</key>
			<array></array>
		</dict>
		<key>IgnoredRelativePaths</key>
		<array>
			<string>.git</string>
		</array>
		<key>LocalMountPoint</key>
		<string>/</string>
		<key>LocalPath</key>
		<string>/Users/someuser/src/company</string>
		<key>SkipDuringBackup</key>
		<false/>
		<key>SkipIfNotMounted</key>
		<false/>
		<key>StorageType</key>
		<integer>1</integer>
	</dict>
</plist>`

func unlockedKeys(t *testing.T) [][]byte {
	t.Helper()
	data, err := objenc.GenerateEncryptionDat("evu")
	if err != nil {
		t.Fatalf("generate encryption dat: %v", err)
	}
	dat, err := objenc.ReadEncryptionDat(bytes.NewReader(data), "evu")
	if err != nil {
		t.Fatalf("read encryption dat: %v", err)
	}
	return dat.MasterKeys
}

func encryptedFolder(t *testing.T, keys [][]byte) []byte {
	t.Helper()
	return append([]byte("encrypted"), arqtest.EncryptObject(t, keys[0], keys[1], []byte(folderPlist))...)
}

func TestReadFolder(t *testing.T) {
	keys := unlockedKeys(t)

	f, err := ReadFolder(bytes.NewReader(encryptedFolder(t, keys)), keys)
	if err != nil {
		t.Fatalf("read folder: %v", err)
	}
	if f.BucketName != "company" {
		t.Errorf("bucket name = %q", f.BucketName)
	}
	if f.BucketUUID != "7C19E8AF-FFE9-4952-B1E1-8D5181012BB1" {
		t.Errorf("bucket uuid = %q", f.BucketUUID)
	}
	if f.ComputerUUID != "AA16A39F-AEDC-42A5-A15B-DAA09EA22E1D" {
		t.Errorf("computer uuid = %q", f.ComputerUUID)
	}
	if f.LocalPath != "/Users/someuser/src/company" {
		t.Errorf("local path = %q", f.LocalPath)
	}
	if f.Excludes.Enabled || !f.Excludes.MatchAny {
		t.Errorf("excludes = %+v", f.Excludes)
	}
	if len(f.IgnoredRelativePaths) != 1 || f.IgnoredRelativePaths[0] != ".git" {
		t.Errorf("ignored paths = %v", f.IgnoredRelativePaths)
	}
	if f.StorageType != 1 {
		t.Errorf("storage type = %d", f.StorageType)
	}
}

func TestReadFolderBadHeader(t *testing.T) {
	keys := unlockedKeys(t)
	raw := encryptedFolder(t, keys)
	raw[0] = 'E'

	if _, err := ReadFolder(bytes.NewReader(raw), keys); !errors.Is(err, arqerr.ErrParse) {
		t.Errorf("bad header error = %v, want ErrParse", err)
	}
}

func TestReadFolderTampered(t *testing.T) {
	keys := unlockedKeys(t)
	raw := encryptedFolder(t, keys)
	raw[len(raw)-1] ^= 0x01

	if _, err := ReadFolder(bytes.NewReader(raw), keys); !errors.Is(err, arqerr.ErrCrypto) {
		t.Errorf("tampered folder error = %v, want ErrCrypto", err)
	}
}

func TestReadFolderWrongKeys(t *testing.T) {
	keys := unlockedKeys(t)
	raw := encryptedFolder(t, keys)

	other := unlockedKeys(t)
	if _, err := ReadFolder(bytes.NewReader(raw), other); !errors.Is(err, arqerr.ErrCrypto) {
		t.Errorf("wrong keys error = %v, want ErrCrypto", err)
	}
}
