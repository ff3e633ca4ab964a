package interpreter

import (
	"unicode"
	"unicode/utf8"

	"github.com/JetBrains/ideavim-sub001/pkg/ast"
	"github.com/JetBrains/ideavim-sub001/pkg/runtime"
)

// Unscoped names resolve to l: inside a function and to g: everywhere else.
func (i *Interpreter) effectiveScope(scope ast.Scope, frame *Frame) ast.Scope {
	if scope != ast.ScopeNone {
		return scope
	}
	if frame.InFunction() {
		return ast.ScopeLocal
	}
	return ast.ScopeGlobal
}

// scopeStore returns the store behind an engine-owned scope. ok is false for
// host scopes (b:, w:, t:) and for scopes unavailable in frame.
func (i *Interpreter) scopeStore(scope ast.Scope, frame *Frame) (*runtime.Store, bool) {
	switch scope {
	case ast.ScopeGlobal:
		return i.globals, true
	case ast.ScopeVim:
		return i.vim, true
	case ast.ScopeScript:
		if frame.script == nil {
			return nil, false
		}
		return i.ScriptVariables(frame.script), true
	case ast.ScopeLocal:
		if !frame.InFunction() {
			return nil, false
		}
		return frame.locals, true
	case ast.ScopeArgs:
		if !frame.InFunction() {
			return nil, false
		}
		return frame.args, true
	}
	return nil, false
}

func isHostScope(scope ast.Scope) bool {
	return scope == ast.ScopeBuffer || scope == ast.ScopeWindow || scope == ast.ScopeTabPage
}

func displayName(scope ast.Scope, name string) string {
	return scope.Prefix() + name
}

// lookupVariable resolves a variable reference. A bare scope (`g:`) reads as
// a dictionary of that scope's variables.
func (i *Interpreter) lookupVariable(scope ast.Scope, name string, editor any, frame *Frame) (runtime.Value, error) {
	effective := i.effectiveScope(scope, frame)
	if isHostScope(effective) {
		if name == "" {
			dict, err := i.opts.Variables.Snapshot(editor, effective)
			if err != nil {
				return nil, err
			}
			return dict, nil
		}
		v, ok, err := i.opts.Variables.Get(editor, effective, name)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errUndefinedVariable(displayName(scope, name))
		}
		return v, nil
	}
	if effective == ast.ScopeVim {
		if v, ok := caughtVariable(name, frame); ok {
			return v, nil
		}
	}
	store, ok := i.scopeStore(effective, frame)
	if !ok {
		return nil, errUndefinedVariable(displayName(scope, name))
	}
	if name == "" {
		snapshot := store.Snapshot()
		if effective == ast.ScopeVim {
			for _, key := range []string{"exception", "throwpoint"} {
				v, _ := caughtVariable(key, frame)
				snapshot.Set(key, v)
			}
		}
		return snapshot, nil
	}
	if v, ok := store.Get(name); ok {
		return v, nil
	}
	return nil, errUndefinedVariable(displayName(scope, name))
}

// assignVariable binds name in its scope. Assignments inside a closure reach
// the captured locals when the name already exists there.
func (i *Interpreter) assignVariable(scope ast.Scope, name string, value runtime.Value, editor any, frame *Frame) error {
	effective := i.effectiveScope(scope, frame)
	full := displayName(scope, name)
	switch effective {
	case ast.ScopeArgs, ast.ScopeVim:
		return errReadOnlyVariable(full)
	}
	if name == "" {
		return errIllegalVariableName(full)
	}
	if _, ok := value.(*runtime.FuncrefValue); ok {
		if err := i.checkFuncrefName(scope, name, effective, editor, frame); err != nil {
			return err
		}
	}
	if isHostScope(effective) {
		return i.opts.Variables.Set(editor, effective, name, value)
	}
	store, ok := i.scopeStore(effective, frame)
	if !ok {
		return errIllegalVariableName(full)
	}
	store.Set(name, value)
	return nil
}

// checkFuncrefName rejects new l: and unscoped funcref variables whose name
// starts with a lowercase letter; they would shadow built-in functions.
func (i *Interpreter) checkFuncrefName(scope ast.Scope, name string, effective ast.Scope, editor any, frame *Frame) error {
	if scope != ast.ScopeNone && scope != ast.ScopeLocal {
		return nil
	}
	first, _ := utf8.DecodeRuneInString(name)
	if unicode.IsUpper(first) {
		return nil
	}
	if _, err := i.lookupVariable(effective, name, editor, frame); err == nil {
		return nil
	}
	return errFuncrefVariableName(displayName(scope, name))
}

func (i *Interpreter) deleteVariable(scope ast.Scope, name string, bang bool, editor any, frame *Frame) error {
	effective := i.effectiveScope(scope, frame)
	full := displayName(scope, name)
	switch effective {
	case ast.ScopeArgs, ast.ScopeVim:
		return errCannotDeleteVariable(full)
	}
	var deleted bool
	if isHostScope(effective) {
		var err error
		if deleted, err = i.opts.Variables.Delete(editor, effective, name); err != nil {
			return err
		}
	} else if store, ok := i.scopeStore(effective, frame); ok {
		deleted = store.Delete(name)
	}
	if !deleted && !bang {
		return errNoSuchVariable(full)
	}
	return nil
}

// variableExists backs exists() for variable names.
func (i *Interpreter) variableExists(scope ast.Scope, name string, editor any, frame *Frame) bool {
	_, err := i.lookupVariable(scope, name, editor, frame)
	return err == nil
}
