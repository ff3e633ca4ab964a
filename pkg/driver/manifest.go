package driver

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/JetBrains/ideavim-sub001/pkg/interpreter"
)

// ManifestFileName is the project file `vimscript run` looks for.
const ManifestFileName = "vimscript.yml"

// Manifest represents the parsed contents of vimscript.yml.
type Manifest struct {
	Path          string
	Name          string
	Silent        bool
	SkipHistory   bool
	FinallyPolicy interpreter.FinallyPolicy
	MaxCallDepth  int
	// Scripts are absolute paths, in run order.
	Scripts     []string
	Plugins     map[string]*PluginSpec
	PluginOrder []string

	rawPolicy string
}

// PluginSpec describes a git-hosted plugin. Exactly one of Rev, Tag or Branch
// may pin it; none means the remote HEAD.
type PluginSpec struct {
	Name   string `yaml:"-"`
	Git    string `yaml:"git"`
	Rev    string `yaml:"rev"`
	Tag    string `yaml:"tag"`
	Branch string `yaml:"branch"`
}

// ValidationError aggregates manifest validation failures.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "manifest: invalid configuration"
	}
	var b strings.Builder
	b.WriteString("manifest validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// LoadManifest parses vimscript.yml from disk, returning a validated manifest.
func LoadManifest(path string) (*Manifest, error) {
	if path == "" {
		return nil, fmt.Errorf("manifest: empty path")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: resolve %s: %w", path, err)
	}
	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("manifest: open %s: %w", absPath, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	var raw manifestFile
	if err := decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("manifest: %s is empty", absPath)
		}
		return nil, fmt.Errorf("manifest: parse %s: %w", absPath, err)
	}

	manifest := raw.toManifest(absPath)
	if err := manifest.validate(); err != nil {
		return nil, err
	}
	return manifest, nil
}

// EngineOptions converts the manifest settings into interpreter options.
// Collaborators are left nil for the caller to fill in.
func (m *Manifest) EngineOptions() interpreter.Options {
	if m == nil {
		return interpreter.Options{}
	}
	return interpreter.Options{
		FinallyPolicy: m.FinallyPolicy,
		Silent:        m.Silent,
		SkipHistory:   m.SkipHistory,
		MaxCallDepth:  m.MaxCallDepth,
	}
}

// Dir is the directory holding the manifest.
func (m *Manifest) Dir() string {
	return filepath.Dir(m.Path)
}

// LockfilePath is where `plugins install` records resolved plugins.
func (m *Manifest) LockfilePath() string {
	return filepath.Join(m.Dir(), LockfileName)
}

func (m *Manifest) validate() error {
	var errs ValidationError
	if m.Name == "" {
		errs.Issues = append(errs.Issues, "name must be provided")
	}
	if _, ok := interpreter.ParseFinallyPolicy(m.rawPolicy); !ok {
		errs.Issues = append(errs.Issues, fmt.Sprintf("finally_policy %q must be inherited or always", m.rawPolicy))
	}
	if m.MaxCallDepth < 0 {
		errs.Issues = append(errs.Issues, "max_call_depth must not be negative")
	}
	for i, script := range m.Scripts {
		if script == "" {
			errs.Issues = append(errs.Issues, fmt.Sprintf("scripts[%d] must be a non-empty path", i))
		}
	}
	for _, name := range m.PluginOrder {
		for _, issue := range m.Plugins[name].validate() {
			errs.Issues = append(errs.Issues, fmt.Sprintf("plugins.%s: %s", name, issue))
		}
	}
	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}

func (p *PluginSpec) validate() []string {
	var errs []string
	if p.Git == "" {
		errs = append(errs, "git must be provided")
	}
	pins := 0
	for _, ref := range []string{p.Rev, p.Tag, p.Branch} {
		if ref != "" {
			pins++
		}
	}
	if pins > 1 {
		errs = append(errs, "only one of rev, tag or branch may be set")
	}
	return errs
}

type manifestFile struct {
	Name          string    `yaml:"name"`
	Silent        bool      `yaml:"silent"`
	SkipHistory   bool      `yaml:"skip_history"`
	FinallyPolicy string    `yaml:"finally_policy"`
	MaxCallDepth  int       `yaml:"max_call_depth"`
	Scripts       []string  `yaml:"scripts"`
	Plugins       pluginMap `yaml:"plugins"`
}

// pluginMap keeps the plugins in file order.
type pluginMap struct {
	items []*PluginSpec
}

func (pm *pluginMap) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == 0 || (value.Kind == yaml.ScalarNode && value.Tag == "!!null") {
		pm.items = nil
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("manifest: plugins must be a mapping")
	}
	items := make([]*PluginSpec, 0, len(value.Content)/2)
	for i := 0; i < len(value.Content); i += 2 {
		var key string
		if err := value.Content[i].Decode(&key); err != nil {
			return err
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return fmt.Errorf("manifest: plugins must not use empty keys")
		}
		spec := new(PluginSpec)
		if err := value.Content[i+1].Decode(spec); err != nil {
			return fmt.Errorf("manifest: plugin %q: %w", key, err)
		}
		spec.Name = key
		items = append(items, spec)
	}
	pm.items = items
	return nil
}

func (mf manifestFile) toManifest(path string) *Manifest {
	policy, _ := interpreter.ParseFinallyPolicy(strings.TrimSpace(mf.FinallyPolicy))
	result := &Manifest{
		Path:          path,
		Name:          strings.TrimSpace(mf.Name),
		Silent:        mf.Silent,
		SkipHistory:   mf.SkipHistory,
		FinallyPolicy: policy,
		MaxCallDepth:  mf.MaxCallDepth,
		Scripts:       make([]string, 0, len(mf.Scripts)),
		Plugins:       make(map[string]*PluginSpec, len(mf.Plugins.items)),
		PluginOrder:   make([]string, 0, len(mf.Plugins.items)),
		rawPolicy:     strings.TrimSpace(mf.FinallyPolicy),
	}
	base := filepath.Dir(path)
	for _, script := range mf.Scripts {
		script = strings.TrimSpace(script)
		if script != "" && !filepath.IsAbs(script) {
			script = filepath.Join(base, filepath.FromSlash(script))
		}
		result.Scripts = append(result.Scripts, script)
	}
	for _, spec := range mf.Plugins.items {
		spec.Git = strings.TrimSpace(spec.Git)
		spec.Rev = strings.TrimSpace(spec.Rev)
		spec.Tag = strings.TrimSpace(spec.Tag)
		spec.Branch = strings.TrimSpace(spec.Branch)
		if _, exists := result.Plugins[spec.Name]; !exists {
			result.PluginOrder = append(result.PluginOrder, spec.Name)
		}
		result.Plugins[spec.Name] = spec
	}
	return result
}
