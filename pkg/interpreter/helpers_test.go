package interpreter

import (
	"strings"
	"sync"
	"testing"

	"github.com/JetBrains/ideavim-sub001/pkg/ast"
	"github.com/JetBrains/ideavim-sub001/pkg/runtime"
)

type recordingMessages struct {
	mu       sync.Mutex
	messages []string
	errors   []string
}

func (r *recordingMessages) ShowMessage(_ any, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, text)
}

func (r *recordingMessages) ShowErrorMessage(_ any, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, text)
}

func (r *recordingMessages) Errors() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.errors...)
}

func (r *recordingMessages) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages...)
}

func newTestInterpreter(t *testing.T) (*Interpreter, *recordingMessages) {
	t.Helper()
	messages := &recordingMessages{}
	return NewWithOptions(Options{Messages: messages}), messages
}

func runScript(t *testing.T, interp *Interpreter, stmts ...ast.Executable) ScriptResult {
	t.Helper()
	return interp.ExecuteScript(ast.Source(stmts...), nil, nil)
}

// mustRun executes stmts as one script and fails the test on any unit error.
func mustRun(t *testing.T, interp *Interpreter, stmts ...ast.Executable) {
	t.Helper()
	res := runScript(t, interp, stmts...)
	if res.Failed {
		t.Fatalf("script failed: %v", res.Err())
	}
}

// mustRunWith is mustRun with an editor handle.
func mustRunWith(t *testing.T, interp *Interpreter, editor any, stmts ...ast.Executable) {
	t.Helper()
	res := interp.ExecuteScript(ast.Source(stmts...), editor, nil)
	if res.Failed {
		t.Fatalf("script failed: %v", res.Err())
	}
}

func mustEval(t *testing.T, interp *Interpreter, expr ast.Expression) runtime.Value {
	t.Helper()
	v, err := interp.Evaluate(expr, nil, nil, CommandLineFrame())
	if err != nil {
		t.Fatalf("evaluate %s failed: %v", ast.FormatExpression(expr), err)
	}
	return v
}

func evalErr(t *testing.T, interp *Interpreter, expr ast.Expression) error {
	t.Helper()
	_, err := interp.Evaluate(expr, nil, nil, CommandLineFrame())
	if err == nil {
		t.Fatalf("expected %s to fail", ast.FormatExpression(expr))
	}
	return err
}

func global(t *testing.T, interp *Interpreter, name string) runtime.Value {
	t.Helper()
	v, ok := interp.Globals().Get(name)
	if !ok {
		t.Fatalf("expected global %q to be bound", name)
	}
	return v
}

func expectCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	if !strings.HasPrefix(err.Error(), code+":") {
		t.Fatalf("expected %s error, got %q", code, err.Error())
	}
}

func expectNumber(t *testing.T, v runtime.Value, want int64) {
	t.Helper()
	n, ok := v.(runtime.NumberValue)
	if !ok || n.Val != want {
		t.Fatalf("expected number %d, got %#v", want, v)
	}
}

func expectString(t *testing.T, v runtime.Value, want string) {
	t.Helper()
	s, ok := v.(runtime.StringValue)
	if !ok || s.Val != want {
		t.Fatalf("expected string %q, got %#v", want, v)
	}
}

func expectList(t *testing.T, v runtime.Value, want string) {
	t.Helper()
	if _, ok := v.(*runtime.ListValue); !ok {
		t.Fatalf("expected list %s, got %#v", want, v)
	}
	if got := stringify(v); got != want {
		t.Fatalf("expected list %s, got %s", want, got)
	}
}
