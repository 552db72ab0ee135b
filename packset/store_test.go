package packset

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/arqvault/arqvault/compression"
	"github.com/arqvault/arqvault/internal/arqtest"
	"github.com/arqvault/arqvault/wire"
)

func TestStoreObject(t *testing.T) {
	keys := testMasterKeys(t)
	entries := testEntries(t)
	dir := t.TempDir()
	arqtest.WritePackset(t, dir, "aaaa", keys[0], keys[1], entries[:2])
	arqtest.WritePackset(t, dir, "bbbb", keys[0], keys[1], entries[2:])

	s, err := OpenStore(dir)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer s.Close()

	if got := s.Packs(); len(got) != 2 {
		t.Fatalf("packs = %v", got)
	}

	// Objects resolve across packs.
	for _, entry := range entries {
		got, err := s.Plaintext(entry.SHA1, wire.CompressionNone, keys)
		if err != nil {
			t.Fatalf("plaintext %s: %v", entry.SHA1, err)
		}
		if !bytes.Equal(got, entry.Plaintext) {
			t.Errorf("object %s = %q", entry.SHA1, got)
		}
	}

	if _, err := s.Object("6f9b9af3cd6e8b8a73c2cdced37fe9f59226e27d"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing object error = %v, want ErrNotFound", err)
	}
}

func TestStoreCompressedObject(t *testing.T) {
	keys := testMasterKeys(t)
	original := bytes.Repeat([]byte("squeeze me thoroughly "), 64)
	compressed, err := compression.CompressLZ4(original)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	entry := arqtest.PackEntry{SHA1: arqtest.ContentSHA1(original), Plaintext: compressed}

	dir := t.TempDir()
	arqtest.WritePackset(t, dir, "cccc", keys[0], keys[1], []arqtest.PackEntry{entry})

	s, err := OpenStore(dir)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer s.Close()

	got, err := s.Plaintext(entry.SHA1, wire.CompressionLZ4, keys)
	if err != nil {
		t.Fatalf("plaintext: %v", err)
	}
	if !bytes.Equal(got, original) {
		t.Error("lz4 object did not round trip through the store")
	}
}

func TestStoreLocationCache(t *testing.T) {
	keys := testMasterKeys(t)
	entries := testEntries(t)
	dir := t.TempDir()
	arqtest.WritePackset(t, dir, "dddd", keys[0], keys[1], entries)
	cachePath := filepath.Join(t.TempDir(), "locations.db")

	s, err := OpenStoreWithCache(dir, cachePath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	pack, obj, err := s.Find(entries[0].SHA1)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if pack != "dddd" {
		t.Errorf("pack = %q", pack)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// A fresh store with the same cache answers from it.
	s, err = OpenStoreWithCache(dir, cachePath)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer s.Close()

	pack2, obj2, err := s.Find(entries[0].SHA1)
	if err != nil {
		t.Fatalf("cached find: %v", err)
	}
	if pack2 != pack || obj2.Offset != obj.Offset || obj2.DataLen != obj.DataLen {
		t.Errorf("cached location = %s %d %d, want %s %d %d",
			pack2, obj2.Offset, obj2.DataLen, pack, obj.Offset, obj.DataLen)
	}

	got, err := s.Plaintext(entries[0].SHA1, wire.CompressionNone, keys)
	if err != nil {
		t.Fatalf("plaintext via cache: %v", err)
	}
	if !bytes.Equal(got, entries[0].Plaintext) {
		t.Error("cached lookup returned wrong object")
	}
}

func TestLocationCache(t *testing.T) {
	cache, err := OpenLocationCache(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	defer cache.Close()

	sha1 := "0c220b384e5c0c220b384e5c0c220b384e5c0c22"
	if _, _, _, ok, err := cache.Lookup(sha1); err != nil || ok {
		t.Fatalf("empty cache lookup = %v, %v", ok, err)
	}

	if err := cache.Put(sha1, "eeee", 42, 99); err != nil {
		t.Fatalf("put: %v", err)
	}
	pack, offset, dataLen, ok, err := cache.Lookup(sha1)
	if err != nil || !ok {
		t.Fatalf("lookup = %v, %v", ok, err)
	}
	if pack != "eeee" || offset != 42 || dataLen != 99 {
		t.Errorf("location = %s %d %d", pack, offset, dataLen)
	}
}
