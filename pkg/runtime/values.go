package runtime

import (
	"sync"
	"sync/atomic"

	"github.com/JetBrains/ideavim-sub001/pkg/ast"
)

// Kind identifies the runtime value category. The numbering matches the
// v:t_* constants reported by type().
type Kind int

const (
	KindVoid    Kind = -1
	KindNumber  Kind = 0
	KindString  Kind = 1
	KindFuncref Kind = 2
	KindList    Kind = 3
	KindDict    Kind = 4
	KindFloat   Kind = 5
	KindBool    Kind = 6
	KindSpecial Kind = 7
)

func (k Kind) String() string {
	switch k {
	case KindVoid:
		return "void"
	case KindNumber:
		return "Number"
	case KindString:
		return "String"
	case KindFuncref:
		return "Funcref"
	case KindList:
		return "List"
	case KindDict:
		return "Dictionary"
	case KindFloat:
		return "Float"
	case KindBool:
		return "Boolean"
	case KindSpecial:
		return "Special"
	default:
		return "unknown"
	}
}

type Value interface {
	Kind() Kind
}

type NumberValue struct {
	Val int64
}

func (v NumberValue) Kind() Kind { return KindNumber }

type FloatValue struct {
	Val float64
}

func (v FloatValue) Kind() Kind { return KindFloat }

type StringValue struct {
	Val string
}

func (v StringValue) Kind() Kind { return KindString }

type BoolValue struct {
	Val bool
}

func (v BoolValue) Kind() Kind { return KindBool }

// SpecialValue is v:null or v:none.
type SpecialValue struct {
	Name string
}

func (v SpecialValue) Kind() Kind { return KindSpecial }

var (
	Null = SpecialValue{Name: "null"}
	None = SpecialValue{Name: "none"}
)

// VoidValue is what a function produces when its body finishes without
// `return`. Expression contexts see it as the Number 0.
type VoidValue struct{}

func (VoidValue) Kind() Kind { return KindVoid }

// Lists and dictionaries have reference semantics.

type ListValue struct {
	Elements []Value
}

func NewList(elements []Value) *ListValue {
	if elements == nil {
		elements = []Value{}
	}
	return &ListValue{Elements: elements}
}

func (v *ListValue) Kind() Kind { return KindList }

// DictValue keeps insertion order so keys() and string() are deterministic.
type DictValue struct {
	keys    []string
	entries map[string]Value
}

func NewDict() *DictValue {
	return &DictValue{entries: make(map[string]Value)}
}

func (d *DictValue) Kind() Kind { return KindDict }

func (d *DictValue) Len() int { return len(d.keys) }

func (d *DictValue) Get(key string) (Value, bool) {
	v, ok := d.entries[key]
	return v, ok
}

func (d *DictValue) Has(key string) bool {
	_, ok := d.entries[key]
	return ok
}

func (d *DictValue) Set(key string, value Value) {
	if _, ok := d.entries[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.entries[key] = value
}

// Delete removes key and reports whether it was present.
func (d *DictValue) Delete(key string) bool {
	if _, ok := d.entries[key]; !ok {
		return false
	}
	delete(d.entries, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
	return true
}

// Keys returns the keys in insertion order.
func (d *DictValue) Keys() []string {
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

// Functions

// Handler is the callable behind a funcref: a *NativeFunction or a
// *UserFunction.
type Handler interface {
	HandlerName() string
}

// CallHost is the slice of the interpreter a native function may call back
// into.
type CallHost interface {
	CallFuncref(fn *FuncrefValue, args []Value) (Value, error)
	ResolveFunction(name string) (Handler, error)
	Exists(expr string) bool
}

type NativeCallContext struct {
	Editor  any
	Context any
	Self    *DictValue
	Host    CallHost
}

type NativeFunc func(*NativeCallContext, []Value) (Value, error)

// NativeFunction is a built-in. MaxArgs < 0 means unbounded.
type NativeFunction struct {
	Name    string
	MinArgs int
	MaxArgs int
	Impl    NativeFunc
}

func (f *NativeFunction) HandlerName() string { return f.Name }

// UserFunction is an installed script-language function: the declaration it
// came from plus everything bound at declaration time. Closure and
// ClosureArgs are the creating invocation's locals and arguments, shared by
// reference.
type UserFunction struct {
	Name        string
	Scope       ast.Scope
	Signature   *ast.FunctionSignature
	Flags       ast.FunctionFlags
	Closure     *Store
	ClosureArgs *Store
	Script      *ast.Script
	Lambda      bool

	deleted atomic.Bool
}

func (f *UserFunction) HandlerName() string {
	if f.Scope == ast.ScopeScript {
		return "s:" + f.Name
	}
	return f.Name
}

func (f *UserFunction) MarkDeleted()  { f.deleted.Store(true) }
func (f *UserFunction) Deleted() bool { return f.deleted.Load() }

type FuncrefType int

const (
	FuncrefNamed FuncrefType = iota
	FuncrefAnonymous
	FuncrefPartial
)

// FuncrefValue is a first-class reference to a Handler, optionally bound to a
// dictionary and carrying pre-applied arguments.
type FuncrefValue struct {
	Handler   Handler
	Self      *DictValue
	Arguments []Value
	Type      FuncrefType
}

func (v *FuncrefValue) Kind() Kind { return KindFuncref }

// Name is the function name as function() would report it.
func (v *FuncrefValue) Name() string {
	if v == nil || v.Handler == nil {
		return ""
	}
	return v.Handler.HandlerName()
}

// Bind returns a copy of v bound to self, keeping any existing arguments.
func (v *FuncrefValue) Bind(self *DictValue) *FuncrefValue {
	out := *v
	out.Self = self
	if out.Type == FuncrefNamed {
		out.Type = FuncrefPartial
	}
	return &out
}

// NativeRegistry is a name-keyed set of built-ins.
type NativeRegistry struct {
	mu    sync.RWMutex
	funcs map[string]*NativeFunction
}

func NewNativeRegistry() *NativeRegistry {
	return &NativeRegistry{funcs: make(map[string]*NativeFunction)}
}

func (r *NativeRegistry) Register(fn *NativeFunction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[fn.Name] = fn
}

func (r *NativeRegistry) Lookup(name string) (*NativeFunction, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[name]
	return fn, ok
}
