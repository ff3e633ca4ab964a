package interpreter

import (
	"github.com/JetBrains/ideavim-sub001/pkg/ast"
	"github.com/JetBrains/ideavim-sub001/pkg/runtime"
)

type FrameKind int

const (
	FrameCommandLine FrameKind = iota
	FrameScript
	FrameFunction
)

// Frame is the execution context for one statement. Frames are values passed
// down the call chain and never stored on AST nodes; the with* helpers return
// modified copies, so a frame shared by two concurrent executions is never
// mutated.
type Frame struct {
	kind      FrameKind
	parent    *Frame
	script    *ast.Script
	fn        *runtime.UserFunction
	args      *runtime.Store
	locals    *runtime.Store
	depth     int
	tryDepth  int
	loopDepth int
	firstLine int
	lastLine  int

	// caught is the exception being handled, read as v:exception and
	// v:throwpoint.
	caught *ScriptError
}

// CommandLineFrame is the context of a command typed by the user: no script,
// no function.
func CommandLineFrame() *Frame {
	return &Frame{kind: FrameCommandLine}
}

// ScriptFrame is the top-level context of a unit in script.
func ScriptFrame(script *ast.Script) *Frame {
	return &Frame{kind: FrameScript, script: script}
}

func (f *Frame) Kind() FrameKind                 { return f.kind }
func (f *Frame) Parent() *Frame                  { return f.parent }
func (f *Frame) Script() *ast.Script             { return f.script }
func (f *Frame) Function() *runtime.UserFunction { return f.fn }
func (f *Frame) Depth() int                      { return f.depth }

// InFunction reports whether the frame is a function body.
func (f *Frame) InFunction() bool {
	return f.kind == FrameFunction
}

func (f *Frame) withTry() *Frame {
	out := *f
	out.tryDepth++
	return &out
}

func (f *Frame) withLoop() *Frame {
	out := *f
	out.loopDepth++
	return &out
}

func (f *Frame) withCaught(err *ScriptError) *Frame {
	out := *f
	out.caught = err
	return &out
}

// functionFrame builds the frame a call to fn runs in. Try depth carries over
// so `:echoerr` in a callee still raises inside the caller's try, and a callee
// of a catch body sees the caught exception.
func (f *Frame) functionFrame(fn *runtime.UserFunction, args, locals *runtime.Store, firstLine, lastLine int) *Frame {
	return &Frame{
		kind:      FrameFunction,
		parent:    f,
		script:    fn.Script,
		fn:        fn,
		args:      args,
		locals:    locals,
		depth:     f.depth + 1,
		tryDepth:  f.tryDepth,
		firstLine: firstLine,
		lastLine:  lastLine,
		caught:    f.caught,
	}
}
