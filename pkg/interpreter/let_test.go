package interpreter

import (
	"os"
	"testing"

	"github.com/JetBrains/ideavim-sub001/pkg/ast"
)

func TestCompoundAssignment(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	mustRun(t, interp,
		ast.Let(ast.Var("g:n"), ast.Num(10)),
		ast.LetOp(ast.Var("g:n"), "+=", ast.Num(5)),
		ast.LetOp(ast.Var("g:n"), "-=", ast.Num(3)),
		ast.LetOp(ast.Var("g:n"), "*=", ast.Num(2)),
		ast.LetOp(ast.Var("g:n"), "/=", ast.Num(5)),
		ast.LetOp(ast.Var("g:n"), "%=", ast.Num(3)),
		ast.Let(ast.Var("g:s"), ast.Str("a")),
		ast.LetOp(ast.Var("g:s"), ".=", ast.Str("b")),
		ast.LetOp(ast.Var("g:s"), "..=", ast.Num(1)),
	)
	expectNumber(t, global(t, interp, "n"), 1)
	expectString(t, global(t, interp, "s"), "ab1")
}

func TestInvalidLetOperator(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	res := runScript(t, interp, ast.LetOp(ast.Var("g:n"), "^=", ast.Num(1)))
	if len(res.Errors) != 1 {
		t.Fatalf("expected one error, got %v", res.Errors)
	}
	expectCode(t, res.Errors[0], "E475")
}

func TestCompoundAssignmentNeedsExistingVariable(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	res := runScript(t, interp, ast.LetOp(ast.Var("g:missing"), "+=", ast.Num(1)))
	if len(res.Errors) != 1 {
		t.Fatalf("expected one error, got %v", res.Errors)
	}
	expectCode(t, res.Errors[0], "E121")
}

func TestListPlusEqualsExtendsInPlace(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	mustRun(t, interp,
		ast.Let(ast.Var("g:a"), ast.List(ast.Num(1))),
		ast.Let(ast.Var("g:alias"), ast.Var("g:a")),
		ast.LetOp(ast.Var("g:a"), "+=", ast.List(ast.Num(2), ast.Num(3))),
	)
	expectList(t, global(t, interp, "alias"), "[1, 2, 3]")

	res := runScript(t, interp, ast.LetOp(ast.Var("g:a"), "+=", ast.Num(4)))
	if len(res.Errors) != 1 {
		t.Fatalf("expected one error, got %v", res.Errors)
	}
	expectCode(t, res.Errors[0], "E745")
}

func TestAssignIndex(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	mustRun(t, interp,
		ast.Let(ast.Var("g:l"), ast.List(ast.Num(1), ast.Num(2), ast.Num(3))),
		ast.Let(ast.Index(ast.Var("g:l"), ast.Num(-1)), ast.Num(30)),
		ast.LetOp(ast.Index(ast.Var("g:l"), ast.Num(0)), "+=", ast.Num(10)),
		ast.Let(ast.Var("g:d"), ast.Dict()),
		ast.Let(ast.Dot(ast.Var("g:d"), "name"), ast.Str("x")),
		ast.Let(ast.Index(ast.Var("g:d"), ast.Num(1)), ast.Str("one")),
		ast.LetOp(ast.Dot(ast.Var("g:d"), "name"), ".=", ast.Str("y")),
	)
	expectList(t, global(t, interp, "l"), "[11, 2, 30]")
	if got := stringify(global(t, interp, "d")); got != "{'name': 'xy', '1': 'one'}" {
		t.Fatalf("unexpected dict %s", got)
	}
}

func TestAssignIndexErrors(t *testing.T) {
	cases := []struct {
		name string
		stmt ast.Executable
		code string
	}{
		{"list out of range", ast.Let(ast.Index(ast.Var("g:l"), ast.Num(5)), ast.Num(0)), "E684"},
		{"compound on missing key", ast.LetOp(ast.Dot(ast.Var("g:d"), "nope"), "+=", ast.Num(1)), "E716"},
		{"dot on list", ast.Let(ast.Dot(ast.Var("g:l"), "k"), ast.Num(1)), "E1203"},
		{"index a number", ast.Let(ast.Index(ast.Var("g:n"), ast.Num(0)), ast.Num(1)), "E689"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			interp, _ := newTestInterpreter(t)
			mustRun(t, interp,
				ast.Let(ast.Var("g:l"), ast.List(ast.Num(1))),
				ast.Let(ast.Var("g:d"), ast.Dict()),
				ast.Let(ast.Var("g:n"), ast.Num(1)),
			)
			res := runScript(t, interp, tc.stmt)
			if len(res.Errors) != 1 {
				t.Fatalf("expected one error, got %v", res.Errors)
			}
			expectCode(t, res.Errors[0], tc.code)
		})
	}
}

func TestAssignSlice(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	mustRun(t, interp,
		ast.Let(ast.Var("g:l"), ast.List(ast.Num(1), ast.Num(2), ast.Num(3))),
		ast.Let(ast.Slice(ast.Var("g:l"), ast.Num(0), ast.Num(1)), ast.List(ast.Str("a"), ast.Str("b"))),
		ast.Let(ast.Var("g:grow"), ast.List(ast.Num(1))),
		ast.Let(ast.Slice(ast.Var("g:grow"), ast.Num(0), nil), ast.List(ast.Num(7), ast.Num(8), ast.Num(9))),
	)
	expectList(t, global(t, interp, "l"), "['a', 'b', 3]")
	expectList(t, global(t, interp, "grow"), "[7, 8, 9]")

	res := runScript(t, interp, ast.Let(ast.Slice(ast.Var("g:l"), ast.Num(0), ast.Num(1)), ast.List(ast.Num(1))))
	expectCode(t, res.Errors[0], "E711")
	res = runScript(t, interp, ast.Let(ast.Slice(ast.Var("g:l"), ast.Num(0), ast.Num(0)), ast.List(ast.Num(1), ast.Num(2))))
	expectCode(t, res.Errors[0], "E710")
	res = runScript(t, interp, ast.Let(ast.Slice(ast.Str("abc"), ast.Num(0), nil), ast.List()))
	expectCode(t, res.Errors[0], "E709")
}

func TestUnpackAssignment(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	mustRun(t, interp,
		ast.Let(ast.List(ast.Var("g:x"), ast.Var("g:y")), ast.List(ast.Num(1), ast.Str("two"))),
	)
	expectNumber(t, global(t, interp, "x"), 1)
	expectString(t, global(t, interp, "y"), "two")

	cases := []struct {
		value ast.Expression
		code  string
	}{
		{ast.Num(1), "E714"},
		{ast.List(ast.Num(1), ast.Num(2), ast.Num(3)), "E687"},
		{ast.List(ast.Num(1)), "E688"},
	}
	for _, tc := range cases {
		res := runScript(t, interp, ast.Let(ast.List(ast.Var("g:x"), ast.Var("g:y")), tc.value))
		if len(res.Errors) != 1 {
			t.Fatalf("expected one error, got %v", res.Errors)
		}
		expectCode(t, res.Errors[0], tc.code)
	}
}

func TestReadOnlyScopes(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	res := runScript(t, interp, ast.Let(ast.Var("v:count"), ast.Num(3)))
	if len(res.Errors) != 1 || res.Errors[0].Error() != `E46: Cannot change read-only variable "v:count"` {
		t.Fatalf("expected E46, got %v", res.Errors)
	}
	mustRun(t, interp,
		ast.Fn("Poke", []string{"x"}, ast.Let(ast.Var("a:x"), ast.Num(1))),
	)
	res = runScript(t, interp, ast.CallStmt(ast.Call("Poke", ast.Num(0))))
	if len(res.Errors) != 1 {
		t.Fatalf("expected one error, got %v", res.Errors)
	}
	expectCode(t, res.Errors[0], "E46")
}

func TestLocalScopeOutsideFunction(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	res := runScript(t, interp, ast.Let(ast.Var("l:x"), ast.Num(1)))
	if len(res.Errors) != 1 {
		t.Fatalf("expected one error, got %v", res.Errors)
	}
	expectCode(t, res.Errors[0], "E461")
}

func TestScriptVariablesAreScriptLocal(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	mustRun(t, interp,
		ast.Let(ast.Var("s:hidden"), ast.Num(1)),
		ast.Let(ast.Var("g:seen"), ast.Var("s:hidden")),
	)
	expectNumber(t, global(t, interp, "seen"), 1)
	res := runScript(t, interp, ast.Let(ast.Var("g:other"), ast.Var("s:hidden")))
	if len(res.Errors) != 1 {
		t.Fatalf("expected one error, got %v", res.Errors)
	}
	expectCode(t, res.Errors[0], "E121")
}

func TestUnlet(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	mustRun(t, interp,
		ast.Let(ast.Var("g:x"), ast.Num(1)),
		ast.Let(ast.Var("g:l"), ast.List(ast.Num(1), ast.Num(2), ast.Num(3), ast.Num(4))),
		ast.Let(ast.Var("g:d"), ast.Dict(ast.Entry("a", ast.Num(1)), ast.Entry("b", ast.Num(2)))),
		ast.Unlet(false, ast.Var("g:x")),
		ast.Unlet(false, ast.Index(ast.Var("g:l"), ast.Num(0))),
		ast.Unlet(false, ast.Slice(ast.Var("g:l"), ast.Num(1), nil)),
		ast.Unlet(false, ast.Dot(ast.Var("g:d"), "a")),
		ast.Unlet(true, ast.Var("g:never"), ast.Dot(ast.Var("g:d"), "zzz"), ast.Index(ast.Var("g:l"), ast.Num(9))),
	)
	if _, ok := interp.Globals().Get("x"); ok {
		t.Fatalf("expected g:x to be removed")
	}
	expectList(t, global(t, interp, "l"), "[2]")
	if got := stringify(global(t, interp, "d")); got != "{'b': 2}" {
		t.Fatalf("unexpected dict %s", got)
	}
}

func TestUnletErrors(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	mustRun(t, interp,
		ast.Let(ast.Var("g:l"), ast.List()),
		ast.Let(ast.Var("g:d"), ast.Dict()),
	)
	cases := []struct {
		target ast.Expression
		want   string
	}{
		{ast.Var("g:nope"), `E108: No such variable: "g:nope"`},
		{ast.Var("v:count"), "E795: Cannot delete variable v:count"},
		{ast.Dot(ast.Var("g:d"), "k"), `E716: Key not present in Dictionary: "k"`},
		{ast.Index(ast.Var("g:l"), ast.Num(0)), "E684: List index out of range: 0"},
	}
	for _, tc := range cases {
		res := runScript(t, interp, ast.Unlet(false, tc.target))
		if len(res.Errors) != 1 || res.Errors[0].Error() != tc.want {
			t.Fatalf("unlet %s: expected %q, got %v", ast.FormatExpression(tc.target), tc.want, res.Errors)
		}
	}
}

func TestOptionAssignment(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	mustRun(t, interp,
		ast.Let(ast.Opt("shiftwidth"), ast.Num(4)),
		ast.LetOp(ast.Opt("shiftwidth"), "*=", ast.Num(2)),
		ast.Let(ast.Opt("clipboard"), ast.Str("unnamed")),
	)
	expectNumber(t, mustEval(t, interp, ast.Opt("shiftwidth")), 8)
	expectString(t, mustEval(t, interp, ast.Opt("clipboard")), "unnamed")

	res := runScript(t, interp, ast.Let(ast.Opt("nosuchoption"), ast.Num(1)))
	if len(res.Errors) != 1 || res.Errors[0].Error() != "E113: Unknown option: nosuchoption" {
		t.Fatalf("expected E113, got %v", res.Errors)
	}
}

func TestEnvironmentAssignment(t *testing.T) {
	t.Setenv("VIMSCRIPT_TEST_LET", "")
	interp, _ := newTestInterpreter(t)
	mustRun(t, interp,
		ast.Let(ast.Env("VIMSCRIPT_TEST_LET"), ast.Str("a")),
		ast.LetOp(ast.Env("VIMSCRIPT_TEST_LET"), ".=", ast.Num(1)),
	)
	if got := os.Getenv("VIMSCRIPT_TEST_LET"); got != "a1" {
		t.Fatalf("expected a1, got %q", got)
	}
	mustRun(t, interp, ast.Unlet(false, ast.Env("VIMSCRIPT_TEST_LET")))
	if _, ok := os.LookupEnv("VIMSCRIPT_TEST_LET"); ok {
		t.Fatalf("expected the variable to be unset")
	}
}

func TestAssignmentEvaluatesValueFirst(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	res := runScript(t, interp, ast.Let(ast.Index(ast.Var("g:missing"), ast.Num(0)), ast.Var("g:alsomissing")))
	if len(res.Errors) != 1 || res.Errors[0].Error() != "E121: Undefined variable: g:alsomissing" {
		t.Fatalf("expected the value error first, got %v", res.Errors)
	}
}
