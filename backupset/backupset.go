// Package backupset walks a backup target directory tree: it enumerates
// computers and their folders, unlocks master keys with a password, resolves
// folder heads and head logs, and traverses commit -> tree -> node -> blob
// down to original file bytes.
//
// Layout consumed, relative to the target root:
//
//	<computer_uuid>/computerinfo
//	<computer_uuid>/encryptionv3.dat
//	<computer_uuid>/buckets/<folder_uuid>
//	<computer_uuid>/bucketdata/<folder_uuid>/refs/heads/master
//	<computer_uuid>/bucketdata/<folder_uuid>/refs/logs/master/<timestamp>
//	<computer_uuid>/packsets/<folder_uuid>-(blobs|trees)/<sha1>.(pack|index)
package backupset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/arqvault/arqvault/computer"
	"github.com/arqvault/arqvault/folder"
	"github.com/arqvault/arqvault/objenc"
)

// Target is a backup target root directory.
type Target struct {
	Root string
}

// Open returns a Target rooted at dir.
func Open(dir string) *Target {
	return &Target{Root: dir}
}

// Computers enumerates every computer in the target: each top-level
// directory holding a computerinfo file.
func (t *Target) Computers() ([]*computer.ComputerInfo, error) {
	entries, err := os.ReadDir(t.Root)
	if err != nil {
		return nil, fmt.Errorf("read target %s: %w", t.Root, err)
	}

	var infos []*computer.ComputerInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(t.Root, entry.Name(), "computerinfo")
		f, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		info, err := computer.ReadComputerInfo(f, entry.Name())
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].UUID < infos[j].UUID })
	return infos, nil
}

// Computer returns a handle on one computer's backup set. The handle is
// locked until Unlock derives its master keys.
func (t *Target) Computer(uuid string) *Computer {
	return &Computer{target: t, UUID: uuid}
}

// Computer is one computer's backup set within a target.
type Computer struct {
	target *Target
	UUID   string

	keys *objenc.EncryptionDat
}

func (c *Computer) dir() string {
	return filepath.Join(c.target.Root, c.UUID)
}

// Info reads the computer's computerinfo descriptor.
func (c *Computer) Info() (*computer.ComputerInfo, error) {
	f, err := os.Open(filepath.Join(c.dir(), "computerinfo"))
	if err != nil {
		return nil, fmt.Errorf("open computer info: %w", err)
	}
	defer f.Close()
	return computer.ReadComputerInfo(f, c.UUID)
}

// Unlock derives the computer's master keys from encryptionv3.dat with the
// given password. All later decryption shares the unlocked keys read-only.
func (c *Computer) Unlock(password string) error {
	path := filepath.Join(c.dir(), "encryptionv3.dat")
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	keys, err := objenc.ReadEncryptionDat(f, password)
	if err != nil {
		return err
	}
	c.keys = keys
	return nil
}

// MasterKeys exposes the unlocked master keys, or nil before Unlock.
func (c *Computer) MasterKeys() [][]byte {
	if c.keys == nil {
		return nil
	}
	return c.keys.MasterKeys
}

// FolderUUIDs lists the folder UUIDs present under buckets/, sorted.
func (c *Computer) FolderUUIDs() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(c.dir(), "buckets"))
	if err != nil {
		return nil, fmt.Errorf("read buckets: %w", err)
	}
	var uuids []string
	for _, entry := range entries {
		if !entry.IsDir() {
			uuids = append(uuids, entry.Name())
		}
	}
	sort.Strings(uuids)
	return uuids, nil
}

// Folder decrypts the buckets/<uuid> descriptor. The computer must be
// unlocked.
func (c *Computer) Folder(folderUUID string) (*folder.Folder, error) {
	if c.keys == nil {
		return nil, fmt.Errorf("computer %s is locked", c.UUID)
	}
	path := filepath.Join(c.dir(), "buckets", folderUUID)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return folder.ReadFolder(f, c.keys.MasterKeys)
}

// Folders decrypts every folder descriptor of the computer.
func (c *Computer) Folders() ([]*folder.Folder, error) {
	uuids, err := c.FolderUUIDs()
	if err != nil {
		return nil, err
	}
	folders := make([]*folder.Folder, 0, len(uuids))
	for _, uuid := range uuids {
		fo, err := c.Folder(uuid)
		if err != nil {
			return nil, fmt.Errorf("folder %s: %w", uuid, err)
		}
		folders = append(folders, fo)
	}
	return folders, nil
}

// headSHA1 reads refs/heads/master for a folder and strips the trailing Y.
func (c *Computer) headSHA1(folderUUID string) (string, error) {
	path := filepath.Join(c.dir(), "bucketdata", folderUUID, "refs", "heads", "master")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read head: %w", err)
	}
	head := strings.TrimSuffix(strings.TrimSpace(string(data)), "Y")
	return head, nil
}
