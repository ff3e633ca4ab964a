package main

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/JetBrains/ideavim-sub001/pkg/driver"
)

const echoScript = `
units:
  - type: FunctionDeclaration
    name: Greet
    params: [who]
    flags: [abort]
    body:
      - type: ReturnStatement
        argument:
          type: BinaryExpression
          operator: ".."
          left: {type: StringLiteral, value: "hello "}
          right: {type: Variable, name: "a:who"}
  - type: EchoStatement
    arguments:
      - type: FunctionCall
        name: Greet
        arguments: [{type: StringLiteral, value: world}]
`

const throwScript = `
units:
  - type: ThrowStatement
    expression: {type: StringLiteral, value: boom}
  - type: EchoStatement
    arguments: [{type: StringLiteral, value: after}]
`

func TestVersion(t *testing.T) {
	code, stdout, _ := captureCLI(t, []string{"version"})
	if code != 0 || strings.TrimSpace(stdout) != cliToolVersion {
		t.Fatalf("unexpected version output %d %q", code, stdout)
	}
}

func TestRunScriptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "greet.yml")
	writeFile(t, path, echoScript)

	code, stdout, stderr := captureCLI(t, []string{"run", path})
	if code != 0 {
		t.Fatalf("expected success, exit %d (stderr: %q)", code, stderr)
	}
	if strings.TrimSpace(stdout) != "hello world" {
		t.Fatalf("unexpected output %q", stdout)
	}
}

func TestRunReportsUncaughtThrow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "throw.yml")
	writeFile(t, path, throwScript)

	code, stdout, stderr := captureCLI(t, []string{path})
	if code != 1 {
		t.Fatalf("expected failure exit, got %d", code)
	}
	if !strings.Contains(stderr, "E605: Exception not caught: boom") {
		t.Fatalf("expected uncaught exception message, got %q", stderr)
	}
	if strings.TrimSpace(stdout) != "after" {
		t.Fatalf("expected later units to run, got %q", stdout)
	}
}

func TestRunSilentLogsErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "throw.yml")
	writeFile(t, path, throwScript)

	code, _, stderr := captureCLI(t, []string{"run", "--silent", path})
	if code != 1 {
		t.Fatalf("expected failure exit, got %d", code)
	}
	if !strings.Contains(stderr, "level=WARN") || !strings.Contains(stderr, "script error") {
		t.Fatalf("expected logged warning, got %q", stderr)
	}
}

func TestRunRejectsUnknownFlag(t *testing.T) {
	code, _, stderr := captureCLI(t, []string{"run", "--fast", "x.yml"})
	if code != 1 || !strings.Contains(stderr, "unknown flag --fast") {
		t.Fatalf("unexpected result %d %q", code, stderr)
	}
}

func TestRunManifestScriptsInOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "first.yml"), `
units:
  - type: LetStatement
    target: {type: Variable, name: "g:order"}
    value: {type: ListLiteral, elements: [{type: StringLiteral, value: first}]}
`)
	writeFile(t, filepath.Join(dir, "second.yml"), `
units:
  - type: CallStatement
    call:
      type: FunctionCall
      name: add
      arguments:
        - {type: Variable, name: "g:order"}
        - {type: StringLiteral, value: second}
  - type: EchoStatement
    arguments: [{type: Variable, name: "g:order"}]
`)
	manifestPath := filepath.Join(dir, driver.ManifestFileName)
	writeFile(t, manifestPath, `
name: ordered
skip_history: true
scripts:
  - first.yml
  - second.yml
`)

	code, stdout, stderr := captureCLI(t, []string{"run", manifestPath})
	if code != 0 {
		t.Fatalf("expected success, exit %d (stderr: %q)", code, stderr)
	}
	if strings.TrimSpace(stdout) != "['first', 'second']" {
		t.Fatalf("unexpected output %q", stdout)
	}
}

func TestRunFindsManifestInWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "greet.yml"), echoScript)
	writeFile(t, filepath.Join(dir, driver.ManifestFileName), "name: cwd\nscripts: [greet.yml]")
	nested := filepath.Join(dir, "nested")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	t.Chdir(nested)

	code, stdout, stderr := captureCLI(t, []string{"run"})
	if code != 0 || strings.TrimSpace(stdout) != "hello world" {
		t.Fatalf("unexpected result %d %q (stderr: %q)", code, stdout, stderr)
	}
}

func TestCheck(t *testing.T) {
	path := filepath.Join(t.TempDir(), "greet.yml")
	writeFile(t, path, echoScript)
	code, stdout, _ := captureCLI(t, []string{"check", path})
	if code != 0 || !strings.HasSuffix(strings.TrimSpace(stdout), "greet.yml: 2 units") {
		t.Fatalf("unexpected check result %d %q", code, stdout)
	}

	bad := filepath.Join(t.TempDir(), "bad.yml")
	writeFile(t, bad, "units: [{type: Nope}]")
	code, _, stderr := captureCLI(t, []string{"check", bad})
	if code != 1 || !strings.Contains(stderr, `unsupported node type "Nope"`) {
		t.Fatalf("unexpected check failure %d %q", code, stderr)
	}
}

func TestPluginsInstallAndRun(t *testing.T) {
	root := t.TempDir()
	pluginRepo := filepath.Join(root, "surround")
	writeFile(t, filepath.Join(pluginRepo, "plugin", "surround.yml"), `
units:
  - type: LetStatement
    target: {type: Variable, name: "g:loaded_surround"}
    value: {type: StringLiteral, value: "yes"}
`)
	commit := initGitRepo(t, pluginRepo)

	project := filepath.Join(root, "project")
	writeFile(t, filepath.Join(project, "init.yml"), `
units:
  - type: EchoStatement
    arguments: [{type: Variable, name: "g:loaded_surround"}]
`)
	writeFile(t, filepath.Join(project, driver.ManifestFileName), `
name: project
scripts: [init.yml]
plugins:
  surround:
    git: `+pluginRepo+`
`)
	t.Setenv("VIMSCRIPT_HOME", filepath.Join(root, "home"))
	t.Chdir(project)

	code, _, stderr := captureCLI(t, []string{"run"})
	if code != 1 || !strings.Contains(stderr, "vimscript.lock missing") {
		t.Fatalf("expected missing lockfile warning and undefined variable, got %d %q", code, stderr)
	}

	code, stdout, stderr := captureCLI(t, []string{"plugins", "install"})
	if code != 0 {
		t.Fatalf("plugins install failed %d (stderr: %q)", code, stderr)
	}
	if !strings.Contains(stdout, "plugin surround -> "+commit) || !strings.Contains(stdout, "Wrote ") {
		t.Fatalf("unexpected install output %q", stdout)
	}
	lock, err := driver.LoadLockfile(filepath.Join(project, driver.LockfileName))
	if err != nil {
		t.Fatalf("LoadLockfile: %v", err)
	}
	if entry := lock.Find("surround"); entry == nil || entry.Commit != commit {
		t.Fatalf("unexpected lock entry %#v", lock.Plugins)
	}

	code, stdout, _ = captureCLI(t, []string{"plugins", "install"})
	if code != 0 || !strings.Contains(stdout, "vimscript.lock is up to date") {
		t.Fatalf("expected up to date lockfile, got %d %q", code, stdout)
	}

	code, stdout, stderr = captureCLI(t, []string{"run"})
	if code != 0 || strings.TrimSpace(stdout) != "yes" {
		t.Fatalf("expected plugin to load before init.yml, got %d %q (stderr: %q)", code, stdout, stderr)
	}
}

func TestPluginsRequiresSubcommand(t *testing.T) {
	code, _, stderr := captureCLI(t, []string{"plugins"})
	if code != 1 || !strings.Contains(stderr, "requires a subcommand") {
		t.Fatalf("unexpected result %d %q", code, stderr)
	}
	code, _, stderr = captureCLI(t, []string{"plugins", "update"})
	if code != 1 || !strings.Contains(stderr, `unknown plugins subcommand "update"`) {
		t.Fatalf("unexpected result %d %q", code, stderr)
	}
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(strings.TrimSpace(contents)+"\n"), 0o644); err != nil {
		t.Fatalf("write file %s: %v", path, err)
	}
}

func initGitRepo(t *testing.T, dir string) string {
	t.Helper()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit: %v", err)
	}
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
	hash, err := worktree.Commit("init", &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Vimscript CLI",
			Email: "vimscript@example.com",
			When:  time.Now(),
		},
	})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	return hash.String()
}

func captureCLI(t *testing.T, args []string) (int, string, string) {
	t.Helper()

	stdout := os.Stdout
	stderr := os.Stderr

	rOut, wOut, err := os.Pipe()
	if err != nil {
		t.Fatalf("stdout pipe: %v", err)
	}
	rErr, wErr, err := os.Pipe()
	if err != nil {
		t.Fatalf("stderr pipe: %v", err)
	}

	os.Stdout = wOut
	os.Stderr = wErr

	code := run(args)

	if err := wOut.Close(); err != nil {
		t.Fatalf("stdout close: %v", err)
	}
	if err := wErr.Close(); err != nil {
		t.Fatalf("stderr close: %v", err)
	}

	os.Stdout = stdout
	os.Stderr = stderr

	outBytes, err := io.ReadAll(rOut)
	if err != nil {
		t.Fatalf("stdout read: %v", err)
	}
	errBytes, err := io.ReadAll(rErr)
	if err != nil {
		t.Fatalf("stderr read: %v", err)
	}
	_ = rOut.Close()
	_ = rErr.Close()

	return code, string(outBytes), string(errBytes)
}
