package backupset

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/arqvault/arqvault/folder"
	"github.com/arqvault/arqvault/packset"
	"github.com/arqvault/arqvault/tree"
	"github.com/arqvault/arqvault/wire"
)

// FolderView browses one folder's history: its -trees packset for commits
// and directory snapshots, its -blobs packset for file content chunks.
type FolderView struct {
	computer *Computer
	UUID     string

	trees *packset.Store
	blobs *packset.Store
}

// Browse opens a folder's packsets for traversal. The computer must be
// unlocked.
func (c *Computer) Browse(folderUUID string) (*FolderView, error) {
	return c.BrowseWithCache(folderUUID, "")
}

// BrowseWithCache is Browse with persistent pack-location caches kept under
// cacheDir. An empty cacheDir disables caching.
func (c *Computer) BrowseWithCache(folderUUID, cacheDir string) (*FolderView, error) {
	if c.keys == nil {
		return nil, fmt.Errorf("computer %s is locked", c.UUID)
	}

	packsets := filepath.Join(c.dir(), "packsets")
	treesCache, blobsCache := "", ""
	if cacheDir != "" {
		treesCache = filepath.Join(cacheDir, folderUUID+"-trees.db")
		blobsCache = filepath.Join(cacheDir, folderUUID+"-blobs.db")
	}

	trees, err := packset.OpenStoreWithCache(filepath.Join(packsets, folderUUID+"-trees"), treesCache)
	if err != nil {
		return nil, fmt.Errorf("open trees packset: %w", err)
	}
	blobs, err := packset.OpenStoreWithCache(filepath.Join(packsets, folderUUID+"-blobs"), blobsCache)
	if err != nil {
		trees.Close()
		return nil, fmt.Errorf("open blobs packset: %w", err)
	}

	return &FolderView{computer: c, UUID: folderUUID, trees: trees, blobs: blobs}, nil
}

// Close releases the packset stores.
func (fv *FolderView) Close() error {
	err := fv.trees.Close()
	if e := fv.blobs.Close(); err == nil {
		err = e
	}
	return err
}

// HeadSHA1 returns the SHA-1 of the folder's latest commit.
func (fv *FolderView) HeadSHA1() (string, error) {
	return fv.computer.headSHA1(fv.UUID)
}

// History returns the folder's head-log entries, oldest first. Entry file
// names are timestamps, so lexical order is chronological order.
func (fv *FolderView) History() ([]*folder.FolderData, error) {
	dir := filepath.Join(fv.computer.dir(), "bucketdata", fv.UUID, "refs", "logs", "master")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read head log: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	log := make([]*folder.FolderData, 0, len(names))
	for _, name := range names {
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("open head log entry: %w", err)
		}
		fd, err := folder.ReadFolderData(f, nil)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("head log entry %s: %w", name, err)
		}
		log = append(log, fd)
	}
	return log, nil
}

// Commit loads a commit object by SHA-1 from the trees packset.
func (fv *FolderView) Commit(sha1Hex string) (*tree.Commit, error) {
	content, err := fv.trees.Plaintext(sha1Hex, wire.CompressionNone, fv.computer.keys.MasterKeys)
	if err != nil {
		return nil, err
	}
	if !tree.IsCommit(content) {
		return nil, fmt.Errorf("object %s is not a commit", sha1Hex)
	}
	return tree.ReadCommit(wire.NewReader(bytes.NewReader(content)))
}

// HeadCommit loads the folder's latest commit.
func (fv *FolderView) HeadCommit() (*tree.Commit, error) {
	head, err := fv.HeadSHA1()
	if err != nil {
		return nil, err
	}
	return fv.Commit(head)
}

// Tree loads a directory snapshot by SHA-1, undoing the compression the
// referencing commit or node recorded for it.
func (fv *FolderView) Tree(sha1Hex string, ct wire.CompressionType) (*tree.Tree, error) {
	content, err := fv.trees.Plaintext(sha1Hex, wire.CompressionNone, fv.computer.keys.MasterKeys)
	if err != nil {
		return nil, err
	}
	return tree.ReadTree(content, ct)
}

// FileContents materialises a file node by concatenating its data chunks in
// order from the blobs packset.
func (fv *FolderView) FileContents(n *tree.Node) ([]byte, error) {
	out := make([]byte, 0, n.DataSize)
	for _, key := range n.DataBlobKeys {
		chunk, err := fv.blobs.Plaintext(key.SHA1, n.DataCompressionType, fv.computer.keys.MasterKeys)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", key.SHA1, err)
		}
		out = append(out, chunk...)
	}
	return out, nil
}
