package driver

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LockfileName sits next to vimscript.yml.
const LockfileName = "vimscript.lock"

// Lockfile models the vimscript.lock contents.
type Lockfile struct {
	Path      string
	Root      string
	Generated string
	Tool      string
	Plugins   []*LockedPlugin
}

// LockedPlugin captures one resolved plugin checkout.
type LockedPlugin struct {
	Name string
	// Commit is the full hash the plugin was checked out at.
	Commit   string
	Source   string
	Checksum string
	// Dir is the checkout inside the plugin cache.
	Dir string
}

// NewLockfile constructs a lockfile with metadata seeded for the provided root.
func NewLockfile(root, tool string) *Lockfile {
	return &Lockfile{
		Root:      strings.TrimSpace(root),
		Generated: time.Now().UTC().Format(time.RFC3339),
		Tool:      strings.TrimSpace(tool),
		Plugins:   []*LockedPlugin{},
	}
}

// LoadLockfile parses vimscript.lock from disk.
func LoadLockfile(path string) (*Lockfile, error) {
	if path == "" {
		return nil, fmt.Errorf("lockfile: empty path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("lockfile: resolve %s: %w", path, err)
	}
	file, err := os.Open(abs)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var raw lockfileDisk
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("lockfile: parse %s: %w", abs, err)
	}

	lock := raw.toLockfile()
	lock.Path = abs
	return lock, nil
}

// WriteLockfile serialises the lockfile back to disk, refreshing metadata.
func WriteLockfile(lock *Lockfile, path string) error {
	if lock == nil {
		return fmt.Errorf("lockfile: nil lockfile")
	}
	if path == "" {
		if lock.Path == "" {
			return fmt.Errorf("lockfile: missing path")
		}
		path = lock.Path
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("lockfile: resolve %s: %w", path, err)
	}

	if lock.Generated == "" {
		lock.Generated = time.Now().UTC().Format(time.RFC3339)
	}
	lock.Path = abs
	lock.normalize()

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(lock.toDisk()); err != nil {
		return fmt.Errorf("lockfile: marshal %s: %w", abs, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("lockfile: encoder close: %w", err)
	}
	if err := os.WriteFile(abs, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("lockfile: write %s: %w", abs, err)
	}
	return nil
}

// Find returns the entry for name, or nil.
func (l *Lockfile) Find(name string) *LockedPlugin {
	if l == nil {
		return nil
	}
	for _, plugin := range l.Plugins {
		if plugin != nil && plugin.Name == name {
			return plugin
		}
	}
	return nil
}

// Upsert records entry, replacing any entry with the same name. It reports
// whether the lockfile changed.
func (l *Lockfile) Upsert(entry *LockedPlugin) bool {
	for idx, plugin := range l.Plugins {
		if plugin == nil || plugin.Name != entry.Name {
			continue
		}
		if *plugin == *entry {
			return false
		}
		l.Plugins[idx] = entry
		return true
	}
	l.Plugins = append(l.Plugins, entry)
	return true
}

// Prune drops entries whose names are not in keep and reports whether any
// were removed.
func (l *Lockfile) Prune(keep []string) bool {
	wanted := make(map[string]struct{}, len(keep))
	for _, name := range keep {
		wanted[name] = struct{}{}
	}
	out := l.Plugins[:0]
	for _, plugin := range l.Plugins {
		if plugin == nil {
			continue
		}
		if _, ok := wanted[plugin.Name]; ok {
			out = append(out, plugin)
		}
	}
	changed := len(out) != len(l.Plugins)
	l.Plugins = out
	return changed
}

func (l *Lockfile) normalize() {
	if l == nil {
		return
	}
	l.Root = strings.TrimSpace(l.Root)
	l.Tool = strings.TrimSpace(l.Tool)
	sort.SliceStable(l.Plugins, func(i, j int) bool {
		return l.Plugins[i].Name < l.Plugins[j].Name
	})
	for _, plugin := range l.Plugins {
		if plugin == nil {
			continue
		}
		plugin.Name = strings.TrimSpace(plugin.Name)
		plugin.Commit = strings.TrimSpace(plugin.Commit)
		plugin.Source = strings.TrimSpace(plugin.Source)
		plugin.Checksum = strings.TrimSpace(plugin.Checksum)
	}
}

func (l *Lockfile) toDisk() lockfileDisk {
	plugins := make([]lockfilePlugin, 0, len(l.Plugins))
	for _, plugin := range l.Plugins {
		if plugin == nil {
			continue
		}
		plugins = append(plugins, lockfilePlugin{
			Name:     plugin.Name,
			Commit:   plugin.Commit,
			Source:   plugin.Source,
			Checksum: plugin.Checksum,
			Dir:      plugin.Dir,
		})
	}
	return lockfileDisk{
		Root:      l.Root,
		Generated: l.Generated,
		Tool:      l.Tool,
		Plugins:   plugins,
	}
}

type lockfileDisk struct {
	Root      string           `yaml:"root"`
	Generated string           `yaml:"generated"`
	Tool      string           `yaml:"tool"`
	Plugins   []lockfilePlugin `yaml:"plugins"`
}

type lockfilePlugin struct {
	Name     string `yaml:"name"`
	Commit   string `yaml:"commit"`
	Source   string `yaml:"source"`
	Checksum string `yaml:"checksum"`
	Dir      string `yaml:"dir"`
}

func (d lockfileDisk) toLockfile() *Lockfile {
	lock := &Lockfile{
		Root:      strings.TrimSpace(d.Root),
		Generated: strings.TrimSpace(d.Generated),
		Tool:      strings.TrimSpace(d.Tool),
		Plugins:   make([]*LockedPlugin, 0, len(d.Plugins)),
	}
	for _, plugin := range d.Plugins {
		lock.Plugins = append(lock.Plugins, &LockedPlugin{
			Name:     plugin.Name,
			Commit:   plugin.Commit,
			Source:   plugin.Source,
			Checksum: plugin.Checksum,
			Dir:      plugin.Dir,
		})
	}
	lock.normalize()
	return lock
}
