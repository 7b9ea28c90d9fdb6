package storage

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func setupFileStore(t *testing.T) *FileStore {
	t.Helper()
	s := NewFileStore(filepath.Join(t.TempDir(), "data"))
	if err := s.Init(); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	if err := s.Load(); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	return s
}

func TestFileStoreLoadUninitialized(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "missing"))
	if err := s.Load(); err == nil {
		t.Error("Load() on a missing directory should fail")
	}
}

func TestFileStoreSetGet(t *testing.T) {
	s := setupFileStore(t)

	if _, err := s.Get("fitBuddyAIDailyData"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() on empty store error = %v, want ErrNotFound", err)
	}

	if err := s.Set("fitBuddyAIDailyData", []byte(`{"2024-03-01":{}}`)); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	got, err := s.Get("fitBuddyAIDailyData")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if string(got) != `{"2024-03-01":{}}` {
		t.Errorf("Get() = %q", got)
	}

	// Overwrite replaces the whole value
	if err := s.Set("fitBuddyAIDailyData", []byte(`{}`)); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	got, _ = s.Get("fitBuddyAIDailyData")
	if string(got) != `{}` {
		t.Errorf("Get() after overwrite = %q, want {}", got)
	}

	info, err := os.Stat(filepath.Join(s.GetConfigPath(), "fitBuddyAIDailyData.json"))
	if err != nil {
		t.Fatalf("blob file missing: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("blob permissions = %v, want 0600", info.Mode().Perm())
	}
}

func TestFileStoreNoTempFilesLeft(t *testing.T) {
	s := setupFileStore(t)
	for i := 0; i < 3; i++ {
		if err := s.Set("k", []byte("v")); err != nil {
			t.Fatal(err)
		}
	}
	entries, _ := os.ReadDir(s.GetConfigPath())
	if len(entries) != 1 {
		t.Errorf("expected exactly one file in data dir, found %d", len(entries))
	}
}

func TestFileStoreKeysAndDelete(t *testing.T) {
	s := setupFileStore(t)
	for _, k := range []string{"b", "a"} {
		if err := s.Set(k, []byte("1")); err != nil {
			t.Fatal(err)
		}
	}

	keys, err := s.Keys()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(keys, []string{"a", "b"}) {
		t.Errorf("Keys() = %v, want [a b]", keys)
	}

	if err := s.Delete("a"); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete("a"); err != nil {
		t.Errorf("deleting a missing key should succeed, got %v", err)
	}
	if _, err := s.Get("a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after Delete() error = %v, want ErrNotFound", err)
	}
}

func TestFileStoreRejectsBadKeys(t *testing.T) {
	s := setupFileStore(t)
	for _, k := range []string{"", "../escape", "a/b"} {
		if err := s.Set(k, []byte("x")); err == nil {
			t.Errorf("Set(%q) should fail", k)
		}
	}
}
