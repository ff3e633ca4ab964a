package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/JetBrains/ideavim-sub001/pkg/driver"
	"github.com/JetBrains/ideavim-sub001/pkg/interpreter"
)

const cliToolVersion = "vimscript-cli 0.1.0-dev"

var errManifestNotFound = errors.New(driver.ManifestFileName + " not found")

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 1
	}

	switch args[0] {
	case "--help", "-h", "help":
		printUsage()
		return 0
	case "--version", "-V", "version":
		fmt.Fprintln(os.Stdout, cliToolVersion)
		return 0
	case "run":
		return runScripts(args[1:])
	case "check":
		return runCheck(args[1:])
	case "plugins":
		return runPlugins(args[1:])
	default:
		return runScripts(args)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `usage:
  vimscript run [--silent] [--verbose] [script.yml|vimscript.yml]
  vimscript check <script.yml>
  vimscript plugins install
  vimscript version`)
}

type runFlags struct {
	silent  bool
	verbose bool
	target  string
}

func parseRunFlags(args []string) (runFlags, error) {
	var flags runFlags
	for _, arg := range args {
		switch arg {
		case "--silent":
			flags.silent = true
		case "--verbose", "-v":
			flags.verbose = true
		default:
			if strings.HasPrefix(arg, "-") {
				return flags, fmt.Errorf("unknown flag %s", arg)
			}
			if flags.target != "" {
				return flags, fmt.Errorf("unexpected arguments: %s", arg)
			}
			flags.target = arg
		}
	}
	return flags, nil
}

func runScripts(args []string) int {
	flags, err := parseRunFlags(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	var manifest *driver.Manifest
	var scripts []string
	switch {
	case flags.target == "":
		manifest, err = loadManifestFrom("")
		if err != nil {
			if errors.Is(err, errManifestNotFound) {
				fmt.Fprintln(os.Stderr, "vimscript run requires a script or "+driver.ManifestFileName+" (none found)")
			} else {
				fmt.Fprintf(os.Stderr, "failed to load manifest: %v\n", err)
			}
			return 1
		}
	case filepath.Base(flags.target) == driver.ManifestFileName:
		manifest, err = driver.LoadManifest(flags.target)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load manifest: %v\n", err)
			return 1
		}
	default:
		scripts = []string{flags.target}
	}

	if manifest != nil {
		pluginScripts, err := lockedPluginScripts(manifest)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return 1
		}
		scripts = append(pluginScripts, manifest.Scripts...)
	}
	if len(scripts) == 0 {
		fmt.Fprintln(os.Stderr, "nothing to run")
		return 1
	}

	opts := manifest.EngineOptions()
	if flags.silent {
		opts.Silent = true
	}
	opts.Logger = newLogger(flags.verbose)
	opts.Messages = newTerminalMessages(os.Stdout, os.Stderr)
	interp := interpreter.NewWithOptions(opts)

	exit := 0
	for _, path := range scripts {
		script, err := driver.LoadScript(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load script: %v\n", err)
			return 1
		}
		opts.Logger.Debug("running script", slog.String("path", path), slog.Int("units", len(script.Units)))
		result := interp.ExecuteScript(script, nil, nil)
		if result.Failed {
			exit = 1
		}
	}
	return exit
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// lockedPluginScripts lists the plugin scripts recorded by the lockfile, in
// manifest order. A missing lockfile only warns.
func lockedPluginScripts(manifest *driver.Manifest) ([]string, error) {
	if len(manifest.PluginOrder) == 0 {
		return nil, nil
	}
	lock, err := driver.LoadLockfile(manifest.LockfilePath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "warning: %s missing; run `vimscript plugins install` to load plugins\n", driver.LockfileName)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read lockfile: %w", err)
	}
	var scripts []string
	for _, name := range manifest.PluginOrder {
		entry := lock.Find(name)
		if entry == nil {
			fmt.Fprintf(os.Stderr, "warning: plugin %s is not installed\n", name)
			continue
		}
		found, err := driver.PluginScripts(entry.Dir)
		if err != nil {
			return nil, fmt.Errorf("plugin %s: %w", name, err)
		}
		scripts = append(scripts, found...)
	}
	return scripts, nil
}

func runCheck(args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "vimscript check requires exactly one script")
		return 1
	}
	script, err := driver.LoadScript(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	fmt.Fprintf(os.Stdout, "%s: %d units\n", script.Name(), len(script.Units))
	return 0
}

func runPlugins(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "vimscript plugins requires a subcommand (install)")
		return 1
	}
	switch args[0] {
	case "install":
		if len(args) > 1 {
			fmt.Fprintf(os.Stderr, "vimscript plugins install does not take arguments (received %s)\n", strings.Join(args[1:], " "))
			return 1
		}
		return runPluginsInstall()
	default:
		fmt.Fprintf(os.Stderr, "unknown plugins subcommand %q\n", args[0])
		return 1
	}
}

func runPluginsInstall() int {
	manifest, err := loadManifestFrom("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "unable to locate %s: %v\n", driver.ManifestFileName, err)
		return 1
	}
	cacheDir, err := resolveVimscriptHome()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to resolve VIMSCRIPT_HOME: %v\n", err)
		return 1
	}

	fmt.Fprintf(os.Stdout, "Manifest: %s\n", manifest.Path)
	fmt.Fprintf(os.Stdout, "Plugins: %d\n", len(manifest.PluginOrder))
	fmt.Fprintf(os.Stdout, "Cache directory: %s\n", cacheDir)

	lockPath := manifest.LockfilePath()
	lock, err := driver.LoadLockfile(lockPath)
	lockCreated := false
	switch {
	case err == nil:
		if lock.Root != manifest.Name {
			fmt.Fprintf(os.Stderr, "lockfile root %q does not match manifest name %q\n", lock.Root, manifest.Name)
			return 1
		}
	case errors.Is(err, os.ErrNotExist):
		lock = driver.NewLockfile(manifest.Name, cliToolVersion)
		lockCreated = true
	default:
		fmt.Fprintf(os.Stderr, "failed to read lockfile: %v\n", err)
		return 1
	}
	lock.Path = lockPath
	lock.Tool = cliToolVersion

	installer := driver.NewPluginInstaller(manifest, cacheDir)
	changed, logs, err := installer.Install(lock)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to install plugins: %v\n", err)
		return 1
	}
	for _, line := range logs {
		fmt.Fprintln(os.Stdout, line)
	}

	if changed || lockCreated {
		if err := driver.WriteLockfile(lock, lockPath); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write lockfile: %v\n", err)
			return 1
		}
		fmt.Fprintf(os.Stdout, "Wrote %s\n", lockPath)
	} else {
		fmt.Fprintf(os.Stdout, "%s is up to date\n", driver.LockfileName)
	}
	return 0
}

func resolveVimscriptHome() (string, error) {
	if home := strings.TrimSpace(os.Getenv("VIMSCRIPT_HOME")); home != "" {
		return filepath.Abs(home)
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(userHome, ".vimscript"), nil
}

func loadManifestFrom(start string) (*driver.Manifest, error) {
	if start == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve working directory: %w", err)
		}
		start = cwd
	}
	absStart, err := filepath.Abs(start)
	if err != nil {
		return nil, fmt.Errorf("resolve manifest search path %q: %w", start, err)
	}
	manifestPath, err := findManifest(absStart)
	if err != nil {
		return nil, err
	}
	return driver.LoadManifest(manifestPath)
}

// findManifest walks up from dir looking for vimscript.yml.
func findManifest(dir string) (string, error) {
	for {
		candidate := filepath.Join(dir, driver.ManifestFileName)
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate, nil
		}
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errManifestNotFound
		}
		dir = parent
	}
}
