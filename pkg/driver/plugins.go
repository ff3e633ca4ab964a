package driver

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// PluginFetcher clones plugin repositories into a cache directory, one
// checkout per resolved commit.
type PluginFetcher struct {
	cacheDir string
}

func NewPluginFetcher(cacheDir string) *PluginFetcher {
	if cacheDir == "" {
		return nil
	}
	return &PluginFetcher{cacheDir: cacheDir}
}

// Fetch resolves spec to a commit, checks it out under the cache and returns
// the lockfile entry describing it.
func (f *PluginFetcher) Fetch(spec *PluginSpec) (*LockedPlugin, error) {
	if f == nil {
		return nil, errors.New("plugin fetcher unavailable")
	}
	url := strings.TrimSpace(spec.Git)
	if url == "" {
		return nil, fmt.Errorf("plugin %q: git URL required", spec.Name)
	}

	baseDir := filepath.Join(f.cacheDir, "plugins", sanitizePathSegment(spec.Name))
	commit, err := ensureGitCheckout(baseDir, url, spec)
	if err != nil {
		return nil, fmt.Errorf("plugin %q: %w", spec.Name, err)
	}

	checkoutDir := filepath.Join(baseDir, commit)
	checksum, err := dirChecksum(checkoutDir)
	if err != nil {
		return nil, fmt.Errorf("plugin %q: checksum: %w", spec.Name, err)
	}
	return &LockedPlugin{
		Name:     spec.Name,
		Commit:   commit,
		Source:   fmt.Sprintf("git+%s@%s", url, gitDescriptor(spec)),
		Checksum: checksum,
		Dir:      checkoutDir,
	}, nil
}

func ensureGitCheckout(baseDir, url string, spec *PluginSpec) (string, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return "", err
	}

	revision := gitRevisionFromSpec(spec)
	if rev := strings.TrimSpace(spec.Rev); plumbing.IsHash(rev) {
		if _, err := os.Stat(filepath.Join(baseDir, rev)); err == nil {
			return rev, nil
		}
	}

	tmpDir, err := os.MkdirTemp(baseDir, "git-fetch-*")
	if err != nil {
		return "", err
	}
	if err := os.RemoveAll(tmpDir); err != nil {
		return "", err
	}

	repo, err := git.PlainClone(tmpDir, false, &git.CloneOptions{
		URL:               url,
		Depth:             0,
		RecurseSubmodules: git.DefaultSubmoduleRecursionDepth,
	})
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", fmt.Errorf("git clone %s: %w", url, err)
	}

	hash, err := repo.ResolveRevision(revision)
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", fmt.Errorf("resolve revision %s: %w", revision, err)
	}

	commit := hash.String()
	targetDir := filepath.Join(baseDir, commit)
	if _, err := os.Stat(targetDir); err == nil {
		_ = os.RemoveAll(tmpDir)
		return commit, nil
	}

	worktree, err := repo.Worktree()
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", err
	}
	if err := worktree.Checkout(&git.CheckoutOptions{
		Hash:  *hash,
		Force: true,
	}); err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", fmt.Errorf("git checkout %s: %w", revision, err)
	}

	if err := os.Rename(tmpDir, targetDir); err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", err
	}
	return commit, nil
}

// gitRevisionFromSpec maps the pin to a revision. Branches resolve through
// the remote-tracking refs a fresh clone creates.
func gitRevisionFromSpec(spec *PluginSpec) plumbing.Revision {
	if rev := strings.TrimSpace(spec.Rev); rev != "" {
		return plumbing.Revision(rev)
	}
	if tag := strings.TrimSpace(spec.Tag); tag != "" {
		return plumbing.Revision("refs/tags/" + tag)
	}
	if branch := strings.TrimSpace(spec.Branch); branch != "" {
		return plumbing.Revision("refs/remotes/origin/" + branch)
	}
	return plumbing.Revision(plumbing.HEAD)
}

func gitDescriptor(spec *PluginSpec) string {
	switch {
	case spec.Rev != "":
		return spec.Rev
	case spec.Tag != "":
		return spec.Tag
	case spec.Branch != "":
		return spec.Branch
	}
	return "HEAD"
}

func dirChecksum(path string) (string, error) {
	h := sha256.New()
	err := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(path, p)
		if err != nil {
			return err
		}
		h.Write([]byte(filepath.ToSlash(rel)))
		h.Write(data)
		return nil
	})
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func sanitizePathSegment(segment string) string {
	segment = strings.TrimSpace(segment)
	if segment == "" {
		return "plugin"
	}
	var b strings.Builder
	for _, r := range segment {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// PluginScripts lists the AST documents under dir/plugin in name order.
func PluginScripts(dir string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(dir, "plugin"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var scripts []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch filepath.Ext(entry.Name()) {
		case ".yml", ".yaml", ".json":
			scripts = append(scripts, filepath.Join(dir, "plugin", entry.Name()))
		}
	}
	sort.Strings(scripts)
	return scripts, nil
}

// PluginInstaller brings a lockfile in line with a manifest's plugins.
type PluginInstaller struct {
	manifest *Manifest
	fetcher  *PluginFetcher
}

func NewPluginInstaller(manifest *Manifest, cacheDir string) *PluginInstaller {
	return &PluginInstaller{manifest: manifest, fetcher: NewPluginFetcher(cacheDir)}
}

// Install fetches every manifest plugin, records it in lock and drops
// entries for plugins no longer listed. It returns whether lock changed and
// one log line per plugin.
func (p *PluginInstaller) Install(lock *Lockfile) (bool, []string, error) {
	if p == nil || p.manifest == nil {
		return false, nil, errors.New("plugin installer missing manifest")
	}
	changed := false
	var logs []string
	for _, name := range p.manifest.PluginOrder {
		spec := p.manifest.Plugins[name]
		entry, err := p.fetcher.Fetch(spec)
		if err != nil {
			return changed, logs, err
		}
		if lock.Upsert(entry) {
			changed = true
		}
		logs = append(logs, fmt.Sprintf("plugin %s -> %s", name, entry.Commit))
	}
	if lock.Prune(p.manifest.PluginOrder) {
		changed = true
	}
	return changed, logs, nil
}
