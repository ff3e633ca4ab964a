package interpreter

import (
	"context"
	"log/slog"
	"reflect"
	"sort"
	"sync"

	"github.com/JetBrains/ideavim-sub001/pkg/ast"
	"github.com/JetBrains/ideavim-sub001/pkg/runtime"
)

// The engine treats the editor handle and execution context as opaque values.
// They are threaded through every call and never retained.

// LineProvider is implemented by editor handles that know the cursor line;
// it supplies the default range of a `:call`.
type LineProvider interface {
	CurrentLine() int
}

// LineMover is implemented by editor handles whose cursor the engine may move.
// A ranged `:call` of a function without the range flag places the cursor on
// each line before calling.
type LineMover interface {
	SetCurrentLine(line int)
}

// ScopeOwner lets an editor handle name the b:/w:/t: variables it owns. Handles
// that are not comparable, or that are recreated per call, implement it so
// MemoryScopedVariables can key them.
type ScopeOwner interface {
	ScopeID() string
}

// Messages shows text to the user.
type Messages interface {
	ShowMessage(editor any, text string)
	ShowErrorMessage(editor any, text string)
}

// History records executed top-level text.
type History interface {
	AddEntry(text string)
}

// ScopedVariables stores b:, w: and t: variables on behalf of the host. An
// error is raised as a script error.
type ScopedVariables interface {
	Get(editor any, scope ast.Scope, name string) (runtime.Value, bool, error)
	Set(editor any, scope ast.Scope, name string, value runtime.Value) error
	Delete(editor any, scope ast.Scope, name string) (bool, error)
	Snapshot(editor any, scope ast.Scope) (*runtime.DictValue, error)
}

// PatternMatcher tests a catch pattern or `=~` operand against text.
type PatternMatcher interface {
	Matches(pattern, text string, ignoreCase bool) (bool, error)
}

// OptionStore reads and writes editor options (`&name`).
type OptionStore interface {
	GetOption(editor any, scope ast.Scope, name string) (runtime.Value, error)
	SetOption(editor any, scope ast.Scope, name string, value runtime.Value) error
}

// BuiltinProvider supplies host functions. They take precedence over the
// engine's own built-ins.
type BuiltinProvider interface {
	LookupBuiltin(name string) (*runtime.NativeFunction, bool)
}

// LogMessages sends messages to a logger, or to slog.Default when Logger is
// nil. It is the default when the host supplies no Messages.
type LogMessages struct {
	Logger *slog.Logger
}

func (m LogMessages) logger() *slog.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return slog.Default()
}

func (m LogMessages) ShowMessage(_ any, text string) {
	m.logger().Info(text)
}

func (m LogMessages) ShowErrorMessage(_ any, text string) {
	m.logger().Error(text)
}

// NoHistory discards history entries.
type NoHistory struct{}

func (NoHistory) AddEntry(string) {}

// MemoryHistory keeps entries in memory, newest last.
type MemoryHistory struct {
	mu      sync.Mutex
	entries []string
}

func (h *MemoryHistory) AddEntry(text string) {
	h.mu.Lock()
	h.entries = append(h.entries, text)
	h.mu.Unlock()
}

func (h *MemoryHistory) Entries() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.entries...)
}

type scopedKey struct {
	editor any
	scope  ast.Scope
}

// ownerID keeps ScopeOwner ids apart from string editor handles.
type ownerID string

// MemoryScopedVariables keeps b:/w:/t: variables in memory, keyed by editor
// handle. A handle is keyed by its ScopeID when it is a ScopeOwner and by its
// value otherwise; a handle that is neither is rejected.
type MemoryScopedVariables struct {
	mu     sync.RWMutex
	stores map[scopedKey]*runtime.DictValue
}

func NewMemoryScopedVariables() *MemoryScopedVariables {
	return &MemoryScopedVariables{stores: make(map[scopedKey]*runtime.DictValue)}
}

func keyFor(editor any, scope ast.Scope) (scopedKey, error) {
	if owner, ok := editor.(ScopeOwner); ok {
		return scopedKey{ownerID(owner.ScopeID()), scope}, nil
	}
	if editor != nil && !reflect.ValueOf(editor).Comparable() {
		return scopedKey{}, errEditorNotComparable(editor)
	}
	return scopedKey{editor, scope}, nil
}

func (m *MemoryScopedVariables) Get(editor any, scope ast.Scope, name string) (runtime.Value, bool, error) {
	key, err := keyFor(editor, scope)
	if err != nil {
		return nil, false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	dict, ok := m.stores[key]
	if !ok {
		return nil, false, nil
	}
	v, ok := dict.Get(name)
	return v, ok, nil
}

func (m *MemoryScopedVariables) Set(editor any, scope ast.Scope, name string, value runtime.Value) error {
	key, err := keyFor(editor, scope)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	dict, ok := m.stores[key]
	if !ok {
		dict = runtime.NewDict()
		m.stores[key] = dict
	}
	dict.Set(name, value)
	return nil
}

func (m *MemoryScopedVariables) Delete(editor any, scope ast.Scope, name string) (bool, error) {
	key, err := keyFor(editor, scope)
	if err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	dict, ok := m.stores[key]
	if !ok {
		return false, nil
	}
	return dict.Delete(name), nil
}

func (m *MemoryScopedVariables) Snapshot(editor any, scope ast.Scope) (*runtime.DictValue, error) {
	key, err := keyFor(editor, scope)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := runtime.NewDict()
	if dict, ok := m.stores[key]; ok {
		for _, k := range dict.Keys() {
			v, _ := dict.Get(k)
			out.Set(k, v)
		}
	}
	return out, nil
}

// MemoryOptions is a flat option table. Only options present in the table
// exist; reading or writing anything else fails with E113.
type MemoryOptions struct {
	mu     sync.RWMutex
	values map[string]runtime.Value
}

// NewMemoryOptions seeds the options the engine itself consults.
func NewMemoryOptions() *MemoryOptions {
	return newMemoryOptions(defaultMaxCallDepth)
}

func newMemoryOptions(maxFuncDepth int) *MemoryOptions {
	return &MemoryOptions{values: map[string]runtime.Value{
		"ignorecase":   runtime.NumberValue{Val: 0},
		"smartcase":    runtime.NumberValue{Val: 0},
		"maxfuncdepth": runtime.NumberValue{Val: int64(maxFuncDepth)},
		"hlsearch":     runtime.NumberValue{Val: 0},
		"incsearch":    runtime.NumberValue{Val: 0},
		"scrolloff":    runtime.NumberValue{Val: 0},
		"shiftwidth":   runtime.NumberValue{Val: 8},
		"tabstop":      runtime.NumberValue{Val: 8},
		"clipboard":    runtime.StringValue{Val: ""},
	}}
}

func (o *MemoryOptions) GetOption(_ any, _ ast.Scope, name string) (runtime.Value, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	v, ok := o.values[name]
	if !ok {
		return nil, errUnknownOption(name)
	}
	return v, nil
}

func (o *MemoryOptions) SetOption(_ any, _ ast.Scope, name string, value runtime.Value) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	current, ok := o.values[name]
	if !ok {
		return errUnknownOption(name)
	}
	if current.Kind() == runtime.KindNumber {
		n, err := toNumber(value)
		if err != nil {
			return err
		}
		o.values[name] = runtime.NumberValue{Val: n}
		return nil
	}
	s, err := toString(value)
	if err != nil {
		return err
	}
	o.values[name] = runtime.StringValue{Val: s}
	return nil
}

// Names lists the known options in sorted order.
func (o *MemoryOptions) Names() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	names := make([]string, 0, len(o.values))
	for name := range o.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// discardLogger is the default Options.Logger.
func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// debugEnabled avoids building log attributes on hot paths.
func debugEnabled(logger *slog.Logger) bool {
	return logger.Enabled(context.Background(), slog.LevelDebug)
}
