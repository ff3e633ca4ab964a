package interpreter

import (
	"errors"
	"fmt"
)

// ScriptError is a catchable script-language error. Message is the full text
// a catch pattern is matched against, including any leading "E123: " code.
type ScriptError struct {
	Code       string
	Message    string
	Throwpoint string

	// reported marks errors whose message has already been shown, so the
	// script executor does not show them twice.
	reported bool
}

func (e *ScriptError) Error() string {
	return e.Message
}

// Reported reports whether the error was already shown to the user.
func (e *ScriptError) Reported() bool {
	return e.reported
}

func newScriptError(code, format string, args ...any) *ScriptError {
	return &ScriptError{Code: code, Message: code + ": " + fmt.Sprintf(format, args...)}
}

// newThrownError is the error raised by `:throw`; it carries no code.
func newThrownError(message string) *ScriptError {
	return &ScriptError{Message: message}
}

// NotSupportedError marks a feature the engine does not implement. It is shown
// to the user but is never catchable by `:try`.
type NotSupportedError struct {
	Text string
}

func (e *NotSupportedError) Error() string {
	return "E492: Not an editor command: " + e.Text
}

func asScriptError(err error) (*ScriptError, bool) {
	var scriptErr *ScriptError
	if errors.As(err, &scriptErr) {
		return scriptErr, true
	}
	return nil, false
}

func isNotSupported(err error) bool {
	var notSupported *NotSupportedError
	return errors.As(err, &notSupported)
}

// Error constructors, one per Vim code.

func errUndefinedVariable(name string) error {
	return newScriptError("E121", "Undefined variable: %s", name)
}

func errUnknownFunction(name string) error {
	return newScriptError("E117", "Unknown function: %s", name)
}

func errFunctionExists(name string) error {
	return newScriptError("E122", "Function %s already exists, add ! to replace it", name)
}

func errFunctionNameCapital(name string) error {
	return newScriptError("E128", "Function name must start with a capital or \"s:\": %s", name)
}

func errNoSuchFunction(name string) error {
	return newScriptError("E130", "Unknown function: %s", name)
}

func errEntryExists() error {
	return newScriptError("E717", "Dictionary entry already exists")
}

func errFuncrefRequired() error {
	return newScriptError("E718", "Funcref required")
}

func errDotRequiresDict(expr string) error {
	return newScriptError("E1203", "Dot can only be used on a dictionary: %s", expr)
}

func errNotEnoughArguments(name string) error {
	return newScriptError("E119", "Not enough arguments for function: %s", name)
}

func errTooManyArguments(name string) error {
	return newScriptError("E118", "Too many arguments for function: %s", name)
}

func errDictWithoutSelf(name string) error {
	return newScriptError("E725", "Calling dict function without Dictionary: %s", name)
}

func errCallDepth() error {
	return newScriptError("E132", "Function call depth is higher than 'maxfuncdepth'")
}

func errNoScriptContext() error {
	return newScriptError("E81", "Using <SID> not in a script context")
}

func errFunctionNameColon(name string) error {
	return newScriptError("E884", "Function name cannot contain a colon: %s", name)
}

func errThrowVimPrefix() error {
	return newScriptError("E608", "Cannot :throw exceptions with 'Vim' prefix")
}

func errReturnOutsideFunction() error {
	return newScriptError("E133", ":return not inside a function")
}

func errBreakOutsideLoop() error {
	return newScriptError("E587", ":break without :while or :for")
}

func errContinueOutsideLoop() error {
	return newScriptError("E586", ":continue without :while or :for")
}

func errFinishOutsideSource() error {
	return newScriptError("E168", ":finish used outside of a sourced file")
}

func errClosureAtTopLevel(name string) error {
	return newScriptError("E932", "Closure function should not be at top level: %s", name)
}

func errFunctionDeleted(name string) error {
	return newScriptError("E933", "Function was deleted: %s", name)
}

func errReadOnlyVariable(name string) error {
	return newScriptError("E46", "Cannot change read-only variable \"%s\"", name)
}

func errNoSuchVariable(name string) error {
	return newScriptError("E108", "No such variable: \"%s\"", name)
}

func errCannotDeleteVariable(name string) error {
	return newScriptError("E795", "Cannot delete variable %s", name)
}

func errIllegalVariableName(name string) error {
	return newScriptError("E461", "Illegal variable name: %s", name)
}

func errFuncrefVariableName(name string) error {
	return newScriptError("E704", "Funcref variable name must start with a capital: %s", name)
}

func errListIndexOutOfRange(index int64) error {
	return newScriptError("E684", "List index out of range: %d", index)
}

func errKeyNotPresent(key string) error {
	return newScriptError("E716", "Key not present in Dictionary: \"%s\"", key)
}

func errInvalidArgument(text string) error {
	return newScriptError("E475", "Invalid argument: %s", text)
}

func errInvalidExpression(text string) error {
	return newScriptError("E15", "Invalid expression: \"%s\"", text)
}

func errEditorNotComparable(editor any) error {
	return newScriptError("E461", "Illegal variable name: editor handle %T cannot hold buffer, window or tab variables", editor)
}

func errUnknownOption(name string) error {
	return newScriptError("E113", "Unknown option: %s", name)
}

func errListRequired() error {
	return newScriptError("E714", "List required")
}

func errFewerTargets() error {
	return newScriptError("E687", "Less targets than List items")
}

func errMoreTargets() error {
	return newScriptError("E688", "More targets than List items")
}

func errSliceRequiresList() error {
	return newScriptError("E709", "[:] requires a List value")
}

func errSliceTooMany() error {
	return newScriptError("E710", "List value has too many items")
}

func errSliceTooFew() error {
	return newScriptError("E711", "List value does not have enough items")
}

func errCannotSliceDict() error {
	return newScriptError("E719", "Cannot slice a Dictionary")
}

func errCannotIndexFuncref() error {
	return newScriptError("E695", "Cannot index a Funcref")
}

func errCannotIndexSpecial() error {
	return newScriptError("E909", "Cannot index a special variable")
}

func errIndexRequiresContainer() error {
	return newScriptError("E689", "Can only index a List, Dictionary or Blob")
}

func errFloatModulo() error {
	return newScriptError("E804", "Cannot use '%%' with Float")
}

func errUnknownFunctionName(name string) error {
	return newScriptError("E700", "Unknown function: %s", name)
}

func errInvalidLenType() error {
	return newScriptError("E701", "Invalid type for len()")
}

func errSortCompare() error {
	return newScriptError("E702", "Sort compare function failed")
}

func errDictRequired() error {
	return newScriptError("E715", "Dictionary required")
}

func errListOrBlobRequired() error {
	return newScriptError("E897", "List or Blob required")
}

func errArgumentNotList(fn string) error {
	return newScriptError("E686", "Argument of %s must be a List", fn)
}

func errArgumentNotContainer(fn string) error {
	return newScriptError("E712", "Argument of %s must be a List or Dictionary", fn)
}

func errStrideZero() error {
	return newScriptError("E726", "Stride is zero")
}

func errStartPastEnd() error {
	return newScriptError("E727", "Start past end")
}

func errPrintfTooFew() error {
	return newScriptError("E766", "Insufficient arguments for printf()")
}

func errPrintfTooMany() error {
	return newScriptError("E767", "Too many arguments to printf()")
}

func errBackwardsRange() error {
	return newScriptError("E493", "Backwards range given")
}

func errNotCallable(text string) error {
	return newScriptError("E1085", "Not a callable type: %s", text)
}

func errNotEditorCommand(text string) error {
	return newScriptError("E492", "Not an editor command: %s", text)
}

// Coercion failures.

func errListAsNumber() error    { return newScriptError("E745", "Using a List as a Number") }
func errDictAsNumber() error    { return newScriptError("E728", "Using a Dictionary as a Number") }
func errFuncrefAsNumber() error { return newScriptError("E703", "Using a Funcref as a Number") }
func errFloatAsNumber() error   { return newScriptError("E805", "Using a Float as a Number") }
func errListAsString() error    { return newScriptError("E730", "Using List as a String") }
func errDictAsString() error    { return newScriptError("E731", "Using Dictionary as a String") }
func errFuncrefAsString() error { return newScriptError("E729", "Using Funcref as a String") }
func errFloatAsString() error   { return newScriptError("E806", "Using Float as a String") }
func errListAsFloat() error     { return newScriptError("E893", "Using a List as a Float") }
func errDictAsFloat() error     { return newScriptError("E894", "Using a Dictionary as a Float") }
func errFuncrefAsFloat() error  { return newScriptError("E891", "Using a Funcref as a Float") }

// Comparison failures.

func errCompareList() error      { return newScriptError("E691", "Can only compare List with List") }
func errListOperation() error    { return newScriptError("E692", "Invalid operation for List") }
func errFuncrefOperation() error { return newScriptError("E694", "Invalid operation for Funcrefs") }
func errCompareDict() error      { return newScriptError("E735", "Can only compare Dictionary with Dictionary") }
func errDictOperation() error    { return newScriptError("E736", "Invalid operation for Dictionary") }
