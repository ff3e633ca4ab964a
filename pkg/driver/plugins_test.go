package driver

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

const pluginScript = `
units:
  - type: LetStatement
    target: {type: Variable, name: "g:loaded_surround"}
    value: {type: NumberLiteral, value: 1}
`

func initGitRepo(t *testing.T, dir string) (*git.Repository, string) {
	t.Helper()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit: %v", err)
	}
	return repo, commitAll(t, repo, dir, "init")
}

func commitAll(t *testing.T, repo *git.Repository, dir, message string) string {
	t.Helper()
	worktree, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree: %v", err)
	}
	if err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path == filepath.Join(dir, ".git") {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		_, err = worktree.Add(filepath.ToSlash(rel))
		return err
	}); err != nil {
		t.Fatalf("stage files: %v", err)
	}
	hash, err := worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Plugin Author",
			Email: "plugins@example.com",
			When:  time.Now(),
		},
	})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	return hash.String()
}

func TestPluginFetcherClonesAtTag(t *testing.T) {
	root := t.TempDir()
	repoDir := filepath.Join(root, "surround")
	writeFile(t, filepath.Join(repoDir, "plugin", "surround.yml"), pluginScript)
	repo, first := initGitRepo(t, repoDir)
	if _, err := repo.CreateTag("v1.0", plumbing.NewHash(first), nil); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}
	writeFile(t, filepath.Join(repoDir, "README"), "later change")
	second := commitAll(t, repo, repoDir, "second")

	fetcher := NewPluginFetcher(filepath.Join(root, "cache"))
	entry, err := fetcher.Fetch(&PluginSpec{Name: "surround", Git: repoDir, Tag: "v1.0"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if entry.Commit != first {
		t.Fatalf("expected tag to resolve to %s, got %s", first, entry.Commit)
	}
	if entry.Source != "git+"+repoDir+"@v1.0" {
		t.Fatalf("unexpected source %q", entry.Source)
	}
	if _, err := os.Stat(filepath.Join(entry.Dir, "README")); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected checkout at the tagged commit, README stat: %v", err)
	}
	scripts, err := PluginScripts(entry.Dir)
	if err != nil || len(scripts) != 1 || filepath.Base(scripts[0]) != "surround.yml" {
		t.Fatalf("unexpected plugin scripts %q (%v)", scripts, err)
	}

	head, err := fetcher.Fetch(&PluginSpec{Name: "surround", Git: repoDir})
	if err != nil {
		t.Fatalf("Fetch HEAD: %v", err)
	}
	if head.Commit != second || head.Checksum == entry.Checksum {
		t.Fatalf("expected HEAD checkout %s with a new checksum, got %#v", second, head)
	}
}

func TestPluginFetcherReusesPinnedRev(t *testing.T) {
	root := t.TempDir()
	repoDir := filepath.Join(root, "repo")
	writeFile(t, filepath.Join(repoDir, "plugin", "a.yml"), pluginScript)
	_, commit := initGitRepo(t, repoDir)

	fetcher := NewPluginFetcher(filepath.Join(root, "cache"))
	spec := &PluginSpec{Name: "a", Git: repoDir, Rev: commit}
	first, err := fetcher.Fetch(spec)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if err := os.RemoveAll(repoDir); err != nil {
		t.Fatalf("remove repo: %v", err)
	}
	again, err := fetcher.Fetch(spec)
	if err != nil {
		t.Fatalf("expected cached checkout to satisfy pinned rev: %v", err)
	}
	if *again != *first {
		t.Fatalf("expected identical entries, got %#v vs %#v", first, again)
	}
}

func TestPluginFetcherErrors(t *testing.T) {
	var missing *PluginFetcher
	if _, err := missing.Fetch(&PluginSpec{Name: "x", Git: "repo"}); err == nil {
		t.Fatalf("expected error from nil fetcher")
	}
	fetcher := NewPluginFetcher(t.TempDir())
	if _, err := fetcher.Fetch(&PluginSpec{Name: "x"}); err == nil || !strings.Contains(err.Error(), "git URL required") {
		t.Fatalf("expected missing URL error, got %v", err)
	}
	_, err := fetcher.Fetch(&PluginSpec{Name: "x", Git: filepath.Join(t.TempDir(), "nowhere")})
	if err == nil || !strings.Contains(err.Error(), "git clone") {
		t.Fatalf("expected clone error, got %v", err)
	}
}

func TestPluginInstallerUpdatesLockfile(t *testing.T) {
	root := t.TempDir()
	repoDir := filepath.Join(root, "surround")
	writeFile(t, filepath.Join(repoDir, "plugin", "surround.yml"), pluginScript)
	_, commit := initGitRepo(t, repoDir)

	project := filepath.Join(root, "project")
	writeFile(t, filepath.Join(project, ManifestFileName), `
name: project
plugins:
  surround:
    git: `+repoDir+`
    branch: master
`)
	manifest, err := LoadManifest(filepath.Join(project, ManifestFileName))
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}

	lock := NewLockfile(manifest.Name, "test")
	lock.Plugins = append(lock.Plugins, &LockedPlugin{Name: "stale", Commit: "abc"})
	installer := NewPluginInstaller(manifest, filepath.Join(root, "cache"))
	changed, logs, err := installer.Install(lock)
	if err != nil {
		t.Fatalf("Install: %v", err)
	}
	if !changed || len(logs) != 1 || logs[0] != "plugin surround -> "+commit {
		t.Fatalf("unexpected install result changed=%v logs=%q", changed, logs)
	}
	if lock.Find("stale") != nil || lock.Find("surround") == nil {
		t.Fatalf("unexpected lock contents %#v", lock.Plugins)
	}

	changed, _, err = installer.Install(lock)
	if err != nil {
		t.Fatalf("second Install: %v", err)
	}
	if changed {
		t.Fatalf("expected second install to leave the lockfile unchanged")
	}
}
