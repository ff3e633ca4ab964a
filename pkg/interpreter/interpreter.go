package interpreter

import (
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"weak"

	"github.com/google/uuid"

	"github.com/JetBrains/ideavim-sub001/pkg/ast"
	"github.com/JetBrains/ideavim-sub001/pkg/runtime"
)

const defaultMaxCallDepth = 100

// FinallyPolicy selects when a finally clause runs.
type FinallyPolicy int

const (
	// FinallyInherited skips the finally clause when the try or catch body ends
	// with a non-success result (return, break, continue) without raising, and
	// lets an error raised inside a catch body escape without it.
	FinallyInherited FinallyPolicy = iota
	// FinallyAlways runs the finally clause on every exit path; a non-success
	// result from the finally clause discards a pending error.
	FinallyAlways
)

func (p FinallyPolicy) String() string {
	if p == FinallyAlways {
		return "always"
	}
	return "inherited"
}

// ParseFinallyPolicy accepts "inherited", "always" or "".
func ParseFinallyPolicy(s string) (FinallyPolicy, bool) {
	switch s {
	case "", "inherited":
		return FinallyInherited, true
	case "always":
		return FinallyAlways, true
	}
	return FinallyInherited, false
}

// Options configures an Interpreter. Nil collaborators get in-memory or
// logging defaults.
type Options struct {
	FinallyPolicy FinallyPolicy
	// Silent logs script errors instead of showing them.
	Silent      bool
	SkipHistory bool
	// MaxCallDepth seeds the default &maxfuncdepth. A host OptionStore that
	// knows maxfuncdepth overrides it.
	MaxCallDepth int
	// Logger receives engine diagnostics. Messages default to it, or to
	// slog.Default when it is nil.
	Logger *slog.Logger

	Messages  Messages
	History   History
	Variables ScopedVariables
	Patterns  PatternMatcher
	Options   OptionStore
	Builtins  BuiltinProvider
}

func (o Options) withDefaults() Options {
	if o.Messages == nil {
		// Without a host logger, messages go to slog.Default so :echo and
		// error output stay visible.
		o.Messages = LogMessages{Logger: o.Logger}
	}
	if o.Logger == nil {
		o.Logger = discardLogger()
	}
	if o.MaxCallDepth <= 0 {
		o.MaxCallDepth = defaultMaxCallDepth
	}
	if o.History == nil {
		o.History = NoHistory{}
	}
	if o.Variables == nil {
		o.Variables = NewMemoryScopedVariables()
	}
	if o.Patterns == nil {
		o.Patterns = NewRegexpMatcher()
	}
	if o.Options == nil {
		o.Options = newMemoryOptions(o.MaxCallDepth)
	}
	return o
}

// Interpreter executes parsed scripts. Global state (variables, the function
// registry, script-local tables) lives here and is safe for concurrent use;
// each execution carries its own Frame chain.
type Interpreter struct {
	opts    Options
	logger  *slog.Logger
	globals *runtime.Store
	vim     *runtime.Store
	natives *runtime.NativeRegistry

	mu          sync.RWMutex
	globalFuncs map[string]*runtime.UserFunction
	scriptFuncs map[uuid.UUID]map[string]*runtime.UserFunction
	scriptVars  map[uuid.UUID]*runtime.Store

	// lambdas are reachable by name only while a funcref holds them.
	lambdas       map[string]weak.Pointer[runtime.UserFunction]
	lambdaPruneAt int

	anonymousCounter atomic.Int64
}

// New returns an interpreter with default collaborators.
func New() *Interpreter {
	return NewWithOptions(Options{})
}

func NewWithOptions(opts Options) *Interpreter {
	opts = opts.withDefaults()
	i := &Interpreter{
		opts:        opts,
		logger:      opts.Logger,
		globals:     runtime.NewStore(nil),
		vim:         runtime.NewStore(nil),
		natives:     runtime.NewNativeRegistry(),
		globalFuncs: make(map[string]*runtime.UserFunction),
		scriptFuncs: make(map[uuid.UUID]map[string]*runtime.UserFunction),
		scriptVars:  make(map[uuid.UUID]*runtime.Store),
		lambdas:     make(map[string]weak.Pointer[runtime.UserFunction]),
	}
	i.initVimVariables()
	i.registerBuiltins()
	return i
}

// Options returns the effective configuration.
func (i *Interpreter) Options() Options {
	return i.opts
}

// Globals exposes the g: store.
func (i *Interpreter) Globals() *runtime.Store {
	return i.globals
}

// VimVariables exposes the v: store.
func (i *Interpreter) VimVariables() *runtime.Store {
	return i.vim
}

// ScriptVariables returns the s: store of script, creating it on first use.
func (i *Interpreter) ScriptVariables(script *ast.Script) *runtime.Store {
	i.mu.RLock()
	store, ok := i.scriptVars[script.ID]
	i.mu.RUnlock()
	if ok {
		return store
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	if store, ok = i.scriptVars[script.ID]; ok {
		return store
	}
	store = runtime.NewStore(nil)
	i.scriptVars[script.ID] = store
	return store
}

// RegisterNative adds or replaces an engine built-in.
func (i *Interpreter) RegisterNative(fn *runtime.NativeFunction) {
	i.natives.Register(fn)
}

func (i *Interpreter) nextAnonymousName() string {
	return strconv.FormatInt(i.anonymousCounter.Add(1), 10)
}

func (i *Interpreter) initVimVariables() {
	v := i.vim
	v.Define("exception", runtime.StringValue{})
	v.Define("throwpoint", runtime.StringValue{})
	v.Define("true", runtime.BoolValue{Val: true})
	v.Define("false", runtime.BoolValue{Val: false})
	v.Define("null", runtime.Null)
	v.Define("none", runtime.None)
	v.Define("count", runtime.NumberValue{})
	v.Define("count1", runtime.NumberValue{Val: 1})
	v.Define("version", runtime.NumberValue{Val: 900})
	v.Define("t_number", runtime.NumberValue{Val: int64(runtime.KindNumber)})
	v.Define("t_string", runtime.NumberValue{Val: int64(runtime.KindString)})
	v.Define("t_func", runtime.NumberValue{Val: int64(runtime.KindFuncref)})
	v.Define("t_list", runtime.NumberValue{Val: int64(runtime.KindList)})
	v.Define("t_dict", runtime.NumberValue{Val: int64(runtime.KindDict)})
	v.Define("t_float", runtime.NumberValue{Val: int64(runtime.KindFloat)})
	v.Define("t_bool", runtime.NumberValue{Val: int64(runtime.KindBool)})
	v.Define("t_none", runtime.NumberValue{Val: int64(runtime.KindSpecial)})
}
