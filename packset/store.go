package packset

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/arqvault/arqvault/wire"
)

// ErrNotFound reports that no pack in the packset holds the requested
// object. A miss is a routine outcome, not a format failure.
var ErrNotFound = errors.New("object not found in packset")

// Store resolves content SHA-1s across every pack of one packset directory
// (a <folder_uuid>-trees or <folder_uuid>-blobs directory).
//
// Indexes are parsed once and kept; verified pack bytes are kept after first
// use so repeated lookups into the same pack stay cheap. An optional bbolt
// location cache persists sha1 -> (pack, offset, length) across runs.
type Store struct {
	dir string

	mu      sync.Mutex
	indexes map[string]*PackIndex // pack base name -> parsed index
	packs   map[string][]byte     // pack base name -> verified file content
	cache   *LocationCache
}

// OpenStore scans dir for .index files and parses each one.
func OpenStore(dir string) (*Store, error) {
	return OpenStoreWithCache(dir, "")
}

// OpenStoreWithCache is OpenStore with a persistent location cache kept at
// cachePath. An empty path disables the cache.
func OpenStoreWithCache(dir, cachePath string) (*Store, error) {
	entries, err := filepath.Glob(filepath.Join(dir, "*.index"))
	if err != nil {
		return nil, fmt.Errorf("scan packset %s: %w", dir, err)
	}
	sort.Strings(entries)

	s := &Store{
		dir:     dir,
		indexes: make(map[string]*PackIndex, len(entries)),
		packs:   make(map[string][]byte),
	}
	for _, path := range entries {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		ix, err := ReadPackIndex(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		name := strings.TrimSuffix(filepath.Base(path), ".index")
		s.indexes[name] = ix
	}

	if cachePath != "" {
		cache, err := OpenLocationCache(cachePath)
		if err != nil {
			return nil, err
		}
		s.cache = cache
	}
	return s, nil
}

// Close releases the location cache, if any.
func (s *Store) Close() error {
	if s.cache != nil {
		return s.cache.Close()
	}
	return nil
}

// Packs returns the base names of the packs in this packset, sorted.
func (s *Store) Packs() []string {
	names := make([]string, 0, len(s.indexes))
	for name := range s.indexes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Find locates an object by content SHA-1, returning the pack base name and
// its index record. The location cache is consulted first and updated on a
// scan hit.
func (s *Store) Find(sha1Hex string) (string, *PackIndexObject, error) {
	if s.cache != nil {
		pack, offset, dataLen, ok, err := s.cache.Lookup(sha1Hex)
		if err != nil {
			return "", nil, err
		}
		if ok {
			return pack, &PackIndexObject{Offset: offset, DataLen: dataLen, SHA1: sha1Hex}, nil
		}
	}

	for _, name := range s.Packs() {
		if obj, ok := s.indexes[name].Lookup(sha1Hex); ok {
			if s.cache != nil {
				if err := s.cache.Put(sha1Hex, name, obj.Offset, obj.DataLen); err != nil {
					return "", nil, err
				}
			}
			return name, obj, nil
		}
	}
	return "", nil, fmt.Errorf("%w: %s", ErrNotFound, sha1Hex)
}

// Object loads the pack object addressed by the given content SHA-1. The
// containing pack file's trailing SHA-1 is verified before the object is
// surfaced.
func (s *Store) Object(sha1Hex string) (*PackObject, error) {
	pack, loc, err := s.Find(sha1Hex)
	if err != nil {
		return nil, err
	}
	content, err := s.packContent(pack)
	if err != nil {
		return nil, err
	}
	return objectAt(content, loc)
}

// Plaintext resolves an object and returns its authenticated, decrypted,
// decompressed bytes.
func (s *Store) Plaintext(sha1Hex string, ct wire.CompressionType, masterKeys [][]byte) ([]byte, error) {
	obj, err := s.Object(sha1Hex)
	if err != nil {
		return nil, err
	}
	return obj.Plaintext(ct, masterKeys)
}

// packContent returns the verified content of a pack file (trailer already
// checked and stripped), reading it on first use.
func (s *Store) packContent(name string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if content, ok := s.packs[name]; ok {
		return content, nil
	}
	path := filepath.Join(s.dir, name+".pack")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	content, err := verifyTrailingSHA1(data)
	if err != nil {
		return nil, fmt.Errorf("verify %s: %w", path, err)
	}
	s.packs[name] = content
	return content, nil
}

// objectAt parses the single pack object record starting at the index
// record's offset within verified pack content.
func objectAt(content []byte, loc *PackIndexObject) (*PackObject, error) {
	if loc.Offset > uint64(len(content)) {
		return nil, fmt.Errorf("%w: object offset %d beyond pack of %d bytes", ErrNotFound, loc.Offset, len(content))
	}
	wr := wire.NewReader(bytes.NewReader(content[loc.Offset:]))
	obj, err := readPackObject(wr)
	if err != nil {
		return nil, err
	}
	return &obj, nil
}
