package interpreter

import (
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"
	"weak"

	"github.com/JetBrains/ideavim-sub001/pkg/ast"
	"github.com/JetBrains/ideavim-sub001/pkg/runtime"
)

// startsUpper reports whether name may be a global user function name:
// capitalised, or an autoload name containing '#'.
func startsUpper(name string) bool {
	if strings.Contains(name, "#") {
		return true
	}
	first, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(first)
}

// functionTable returns the table for scope. Callers hold i.mu.
func (i *Interpreter) functionTable(scope ast.Scope, script *ast.Script, create bool) map[string]*runtime.UserFunction {
	if scope != ast.ScopeScript {
		return i.globalFuncs
	}
	table, ok := i.scriptFuncs[script.ID]
	if !ok && create {
		table = make(map[string]*runtime.UserFunction)
		i.scriptFuncs[script.ID] = table
	}
	return table
}

// DeclareFunction installs decl into the registry from the context of frame.
func (i *Interpreter) DeclareFunction(decl *ast.FunctionDeclaration, frame *Frame) (*runtime.UserFunction, error) {
	if frame == nil {
		frame = CommandLineFrame()
	}
	scope := decl.Scope
	switch scope {
	case ast.ScopeNone, ast.ScopeGlobal:
		if !startsUpper(decl.Name) {
			return nil, errFunctionNameCapital(displayName(scope, decl.Name))
		}
		scope = ast.ScopeGlobal
	case ast.ScopeScript:
		if frame.script == nil {
			return nil, errNoScriptContext()
		}
	default:
		return nil, errFunctionNameColon(displayName(scope, decl.Name))
	}
	sig := decl.FunctionSignature
	fn := &runtime.UserFunction{
		Name:      decl.Name,
		Scope:     scope,
		Signature: &sig,
		Flags:     decl.Flags,
		Script:    frame.script,
	}
	if decl.Flags.Has(ast.FlagClosure) {
		if !frame.InFunction() {
			return nil, errClosureAtTopLevel(displayName(decl.Scope, decl.Name))
		}
		fn.Closure = frame.locals
		fn.ClosureArgs = frame.args
	}
	if err := i.installFunction(fn, decl.Replace); err != nil {
		return nil, err
	}
	i.logger.Debug("declared function", slog.String("name", fn.HandlerName()), slog.String("flags", fn.Flags.String()))
	return fn, nil
}

// installFunction stores fn, replacing an existing entry only when replace is
// set. The replaced function is marked deleted.
func (i *Interpreter) installFunction(fn *runtime.UserFunction, replace bool) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	table := i.functionTable(fn.Scope, fn.Script, true)
	if existing, ok := table[fn.Name]; ok {
		if !replace {
			return errFunctionExists(existing.HandlerName())
		}
		existing.MarkDeleted()
	}
	table[fn.Name] = fn
	return nil
}

// DeleteFunction removes a user function. Lowercase names must be script
// local: either written with s: or deleted from inside a script.
func (i *Interpreter) DeleteFunction(name string, scope ast.Scope, frame *Frame) error {
	if frame == nil {
		frame = CommandLineFrame()
	}
	target := scope
	switch scope {
	case ast.ScopeNone:
		target = ast.ScopeGlobal
		if !startsUpper(name) {
			if frame.script == nil {
				return errFunctionNameCapital(name)
			}
			target = ast.ScopeScript
		}
	case ast.ScopeGlobal:
		if !startsUpper(name) {
			return errFunctionNameCapital(displayName(scope, name))
		}
	case ast.ScopeScript:
		if frame.script == nil {
			return errNoScriptContext()
		}
	default:
		return errFunctionNameColon(displayName(scope, name))
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	table := i.functionTable(target, frame.script, false)
	fn, ok := table[name]
	if !ok && scope == ast.ScopeNone && target == ast.ScopeGlobal && frame.script != nil {
		table = i.functionTable(ast.ScopeScript, frame.script, false)
		fn, ok = table[name]
	}
	if !ok {
		return errNoSuchFunction(displayName(scope, name))
	}
	fn.MarkDeleted()
	delete(table, name)
	i.logger.Debug("deleted function", slog.String("name", fn.HandlerName()))
	return nil
}

// LookupFunction resolves a function name from the context of frame.
// Unscoped names try host built-ins, engine built-ins, global user
// functions, live lambdas and finally the functions of the frame's script. Command-line
// frames have no script and so see globals only.
func (i *Interpreter) LookupFunction(scope ast.Scope, name string, frame *Frame) (runtime.Handler, error) {
	if frame == nil {
		frame = CommandLineFrame()
	}
	switch scope {
	case ast.ScopeNone:
		if i.opts.Builtins != nil {
			if fn, ok := i.opts.Builtins.LookupBuiltin(name); ok {
				return fn, nil
			}
		}
		if fn, ok := i.natives.Lookup(name); ok {
			return fn, nil
		}
		if fn, ok := i.userFunction(ast.ScopeGlobal, name, frame.script); ok {
			return fn, nil
		}
		if fn, ok := i.lambda(name); ok {
			return fn, nil
		}
		if frame.script != nil {
			if fn, ok := i.userFunction(ast.ScopeScript, name, frame.script); ok {
				return fn, nil
			}
		}
	case ast.ScopeGlobal:
		if fn, ok := i.userFunction(ast.ScopeGlobal, name, nil); ok {
			return fn, nil
		}
	case ast.ScopeScript:
		if frame.script == nil {
			return nil, errNoScriptContext()
		}
		if fn, ok := i.userFunction(ast.ScopeScript, name, frame.script); ok {
			return fn, nil
		}
	}
	return nil, errUnknownFunction(displayName(scope, name))
}

func (i *Interpreter) userFunction(scope ast.Scope, name string, script *ast.Script) (*runtime.UserFunction, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	table := i.functionTable(scope, script, false)
	fn, ok := table[name]
	return fn, ok
}

// resolveFunctionName accepts a name as function() receives it: "Name",
// "g:Name", "s:name" or "<SNR>"-free internal names such as "<lambda>3".
func (i *Interpreter) resolveFunctionName(name string, frame *Frame) (runtime.Handler, error) {
	scope, bare := ast.SplitScoped(name)
	if scope == ast.ScopeNone {
		if fn, ok := i.lambda(bare); ok {
			return fn, nil
		}
		if fn, ok := i.userFunction(ast.ScopeGlobal, bare, nil); ok && !startsUpper(bare) {
			return fn, nil
		}
	}
	return i.LookupFunction(scope, bare, frame)
}

// UserFunctions lists the installed global functions; script-local functions
// of script are included when script is non-nil.
func (i *Interpreter) UserFunctions(script *ast.Script) []*runtime.UserFunction {
	i.mu.RLock()
	defer i.mu.RUnlock()
	out := make([]*runtime.UserFunction, 0, len(i.globalFuncs))
	for _, fn := range i.globalFuncs {
		out = append(out, fn)
	}
	if script != nil {
		for _, fn := range i.scriptFuncs[script.ID] {
			out = append(out, fn)
		}
	}
	return out
}

const minLambdaPrune = 64

func (i *Interpreter) registerLambda(fn *runtime.UserFunction) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if len(i.lambdas) >= i.lambdaPruneAt {
		i.pruneLambdasLocked()
		i.lambdaPruneAt = max(minLambdaPrune, 2*len(i.lambdas))
	}
	i.lambdas[fn.Name] = weak.Make(fn)
}

func (i *Interpreter) pruneLambdasLocked() {
	for name, ptr := range i.lambdas {
		if ptr.Value() == nil {
			delete(i.lambdas, name)
		}
	}
}

// lambda resolves a "<lambda>N" name while some funcref still holds it.
func (i *Interpreter) lambda(name string) (*runtime.UserFunction, bool) {
	if !strings.HasPrefix(name, "<lambda>") {
		return nil, false
	}
	i.mu.RLock()
	ptr, ok := i.lambdas[name]
	i.mu.RUnlock()
	if !ok {
		return nil, false
	}
	fn := ptr.Value()
	return fn, fn != nil
}
