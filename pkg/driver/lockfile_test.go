package driver

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLockfileWriteAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), LockfileName)
	lock := NewLockfile(" dotfiles ", "vimscript-cli test")
	lock.Upsert(&LockedPlugin{Name: "surround", Commit: "bbb", Source: "git+x@v1", Checksum: "c1", Dir: "/cache/s"})
	lock.Upsert(&LockedPlugin{Name: "commentary", Commit: "aaa", Source: "git+y@HEAD", Checksum: "c2", Dir: "/cache/c"})
	if err := WriteLockfile(lock, path); err != nil {
		t.Fatalf("WriteLockfile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read lockfile: %v", err)
	}
	if !strings.Contains(string(data), "root: dotfiles\n") || !strings.Contains(string(data), "  - name: commentary\n") {
		t.Fatalf("unexpected lockfile contents:\n%s", data)
	}

	loaded, err := LoadLockfile(path)
	if err != nil {
		t.Fatalf("LoadLockfile: %v", err)
	}
	if loaded.Root != "dotfiles" || loaded.Tool != "vimscript-cli test" || loaded.Path != path {
		t.Fatalf("unexpected metadata %#v", loaded)
	}
	if len(loaded.Plugins) != 2 || loaded.Plugins[0].Name != "commentary" {
		t.Fatalf("expected plugins sorted by name, got %#v", loaded.Plugins)
	}
	if got := loaded.Find("surround"); got == nil || got.Commit != "bbb" || got.Dir != "/cache/s" {
		t.Fatalf("unexpected surround entry %#v", got)
	}
}

func TestLockfileUpsertAndPrune(t *testing.T) {
	lock := NewLockfile("root", "tool")
	entry := &LockedPlugin{Name: "a", Commit: "1"}
	if !lock.Upsert(entry) {
		t.Fatalf("expected insert to change the lockfile")
	}
	if lock.Upsert(&LockedPlugin{Name: "a", Commit: "1"}) {
		t.Fatalf("expected identical entry to be a no-op")
	}
	if !lock.Upsert(&LockedPlugin{Name: "a", Commit: "2"}) || lock.Find("a").Commit != "2" {
		t.Fatalf("expected replacement")
	}
	lock.Upsert(&LockedPlugin{Name: "b"})
	if !lock.Prune([]string{"b"}) || lock.Find("a") != nil || lock.Find("b") == nil {
		t.Fatalf("unexpected prune result %#v", lock.Plugins)
	}
	if lock.Prune([]string{"b"}) {
		t.Fatalf("expected second prune to be a no-op")
	}
}

func TestLoadLockfileErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadLockfile(filepath.Join(dir, "missing.lock")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
	path := filepath.Join(dir, LockfileName)
	writeFile(t, path, "root: x\npackages: []")
	if _, err := LoadLockfile(path); err == nil || !strings.Contains(err.Error(), "lockfile: parse") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
	if err := WriteLockfile(&Lockfile{}, ""); err == nil {
		t.Fatalf("expected missing path error")
	}
}
