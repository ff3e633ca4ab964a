package interpreter

import (
	"testing"

	"github.com/JetBrains/ideavim-sub001/pkg/ast"
	"github.com/JetBrains/ideavim-sub001/pkg/runtime"
)

func TestScalarBuiltins(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	cases := []struct {
		name string
		expr ast.Expression
		want string
	}{
		{"len string", ast.Call("len", ast.Str("hello")), "5"},
		{"len number", ast.Call("len", ast.Num(1234)), "4"},
		{"len list", ast.Call("len", ast.List(ast.Num(1), ast.Num(2))), "2"},
		{"empty dict", ast.Call("empty", ast.Dict()), "1"},
		{"empty string", ast.Call("empty", ast.Str("x")), "0"},
		{"type list", ast.Call("type", ast.List()), "3"},
		{"type dict", ast.Call("type", ast.Dict()), "4"},
		{"string", ast.Call("string", ast.List(ast.Str("a"))), "['a']"},
		{"toupper", ast.Call("toupper", ast.Str("abc")), "ABC"},
		{"tolower", ast.Call("tolower", ast.Str("ABC")), "abc"},
		{"abs", ast.Call("abs", ast.Num(-3)), "3"},
		{"max", ast.Call("max", ast.List(ast.Num(3), ast.Num(9), ast.Num(1))), "9"},
		{"min", ast.Call("min", ast.Dict(ast.Entry("a", ast.Num(4)), ast.Entry("b", ast.Num(2)))), "2"},
		{"min empty", ast.Call("min", ast.List()), "0"},
		{"join", ast.Call("join", ast.List(ast.Str("a"), ast.Num(1)), ast.Str(", ")), "a, 1"},
		{"join default", ast.Call("join", ast.List(ast.Str("a"), ast.Str("b"))), "a b"},
		{"printf", ast.Call("printf", ast.Str("%s=%03d %x %%"), ast.Str("n"), ast.Num(7), ast.Num(255)), "n=007 ff %"},
		{"printf width", ast.Call("printf", ast.Str("[%*d]"), ast.Num(4), ast.Num(2)), "[   2]"},
		{"printf float", ast.Call("printf", ast.Str("%.2f"), ast.Flt(1.005)), "1.00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := displayString(mustEval(t, interp, tc.expr)); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestBuiltinErrors(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	cases := []struct {
		name string
		expr ast.Expression
		code string
	}{
		{"len funcref", ast.Call("len", ast.Call("function", ast.Str("len"))), "E701"},
		{"too few args", ast.Call("len"), "E119"},
		{"too many args", ast.Call("len", ast.Num(1), ast.Num(2)), "E118"},
		{"unknown function()", ast.Call("function", ast.Str("Nope")), "E700"},
		{"printf too few", ast.Call("printf", ast.Str("%d %d"), ast.Num(1)), "E766"},
		{"printf too many", ast.Call("printf", ast.Str("%d"), ast.Num(1), ast.Num(2)), "E767"},
		{"range stride", ast.Call("range", ast.Num(1), ast.Num(5), ast.Num(0)), "E726"},
		{"range backwards", ast.Call("range", ast.Num(5), ast.Num(1)), "E727"},
		{"keys of list", ast.Call("keys", ast.List()), "E715"},
		{"add to dict", ast.Call("add", ast.Dict(), ast.Num(1)), "E897"},
		{"sort dict", ast.Call("sort", ast.Dict()), "E686"},
		{"max of number", ast.Call("max", ast.Num(1)), "E712"},
		{"map with string", ast.Call("map", ast.List(), ast.Str("v:val")), "E1085"},
		{"extend error mode", ast.Call("extend", ast.Dict(ast.Entry("a", ast.Num(1))), ast.Dict(ast.Entry("a", ast.Num(2))), ast.Str("error")), "E737"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			expectCode(t, evalErr(t, interp, tc.expr), tc.code)
		})
	}
}

func TestRange(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	expectList(t, mustEval(t, interp, ast.Call("range", ast.Num(3))), "[0, 1, 2]")
	expectList(t, mustEval(t, interp, ast.Call("range", ast.Num(2), ast.Num(4))), "[2, 3, 4]")
	expectList(t, mustEval(t, interp, ast.Call("range", ast.Num(5), ast.Num(0), ast.Num(-2))), "[5, 3, 1]")
	expectList(t, mustEval(t, interp, ast.Call("range", ast.Num(0))), "[]")
}

func TestDictionaryBuiltins(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	mustRun(t, interp,
		ast.Let(ast.Var("g:d"), ast.Dict(ast.Entry("x", ast.Num(1)), ast.Entry("y", ast.Num(2)))),
	)
	expectList(t, mustEval(t, interp, ast.Call("keys", ast.Var("g:d"))), "['x', 'y']")
	expectList(t, mustEval(t, interp, ast.Call("values", ast.Var("g:d"))), "[1, 2]")
	expectList(t, mustEval(t, interp, ast.Call("items", ast.Var("g:d"))), "[['x', 1], ['y', 2]]")
	expectNumber(t, mustEval(t, interp, ast.Call("has_key", ast.Var("g:d"), ast.Str("x"))), 1)
	expectNumber(t, mustEval(t, interp, ast.Call("get", ast.Var("g:d"), ast.Str("z"), ast.Num(-1))), -1)
	expectNumber(t, mustEval(t, interp, ast.Call("remove", ast.Var("g:d"), ast.Str("x"))), 1)

	mustRun(t, interp,
		ast.CallStmt(ast.Call("extend", ast.Var("g:d"), ast.Dict(ast.Entry("y", ast.Num(20)), ast.Entry("z", ast.Num(3))), ast.Str("keep"))),
	)
	if got := stringify(global(t, interp, "d")); got != "{'y': 2, 'z': 3}" {
		t.Fatalf("unexpected dict %s", got)
	}
	mustRun(t, interp, ast.CallStmt(ast.Call("extend", ast.Var("g:d"), ast.Dict(ast.Entry("y", ast.Num(20))))))
	if got := stringify(global(t, interp, "d")); got != "{'y': 20, 'z': 3}" {
		t.Fatalf("unexpected dict %s", got)
	}
}

func TestListBuiltins(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	mustRun(t, interp,
		ast.Let(ast.Var("g:l"), ast.List(ast.Num(1), ast.Num(2))),
		ast.CallStmt(ast.Call("add", ast.Var("g:l"), ast.Num(3))),
		ast.CallStmt(ast.Call("insert", ast.Var("g:l"), ast.Num(0))),
		ast.CallStmt(ast.Call("insert", ast.Var("g:l"), ast.Num(4), ast.Num(4))),
		ast.CallStmt(ast.Call("extend", ast.Var("g:l"), ast.List(ast.Num(9)), ast.Num(1))),
	)
	expectList(t, global(t, interp, "l"), "[0, 9, 1, 2, 3, 4]")

	expectNumber(t, mustEval(t, interp, ast.Call("remove", ast.Var("g:l"), ast.Num(1))), 9)
	expectList(t, mustEval(t, interp, ast.Call("remove", ast.Var("g:l"), ast.Num(0), ast.Num(1))), "[0, 1]")
	expectList(t, global(t, interp, "l"), "[2, 3, 4]")

	expectNumber(t, mustEval(t, interp, ast.Call("index", ast.Var("g:l"), ast.Num(3))), 1)
	expectNumber(t, mustEval(t, interp, ast.Call("index", ast.Var("g:l"), ast.Str("3"))), -1)
	expectNumber(t, mustEval(t, interp, ast.Call("get", ast.Var("g:l"), ast.Num(-1))), 4)
	expectNumber(t, mustEval(t, interp, ast.Call("get", ast.Var("g:l"), ast.Num(10))), 0)
	expectList(t, mustEval(t, interp, ast.Call("reverse", ast.Var("g:l"))), "[4, 3, 2]")
	expectNumber(t, mustEval(t, interp, ast.Call("count", ast.List(ast.Str("a"), ast.Str("A")), ast.Str("a"), ast.Num(1))), 2)
	expectNumber(t, mustEval(t, interp, ast.Call("count", ast.Str("banana"), ast.Str("an"))), 2)
}

func TestCopySemantics(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	mustRun(t, interp,
		ast.Let(ast.Var("g:orig"), ast.List(ast.List(ast.Num(1)))),
		ast.Let(ast.Var("g:shallow"), ast.Call("copy", ast.Var("g:orig"))),
		ast.Let(ast.Var("g:deep"), ast.Call("deepcopy", ast.Var("g:orig"))),
		ast.CallStmt(ast.Call("add", ast.Index(ast.Var("g:orig"), ast.Num(0)), ast.Num(2))),
	)
	expectList(t, global(t, interp, "shallow"), "[[1, 2]]")
	expectList(t, global(t, interp, "deep"), "[[1]]")
}

func TestSort(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	mustRun(t, interp,
		ast.Fn("ByLength", []string{"a", "b"},
			ast.Ret(ast.Bin(ast.Call("len", ast.Var("a:a")), "-", ast.Call("len", ast.Var("a:b")))),
		),
	)
	expectList(t, mustEval(t, interp, ast.Call("sort", ast.List(ast.Str("b"), ast.Str("a"), ast.Str("C")))), "['C', 'a', 'b']")
	expectList(t, mustEval(t, interp, ast.Call("sort", ast.List(ast.Str("b"), ast.Str("a"), ast.Str("C")), ast.Str("i"))), "['a', 'b', 'C']")
	expectList(t, mustEval(t, interp, ast.Call("sort", ast.List(ast.Num(10), ast.Num(9), ast.Num(100)), ast.Str("n"))), "[9, 10, 100]")
	expectList(t, mustEval(t, interp, ast.Call("sort", ast.List(ast.Num(10), ast.Num(9), ast.Num(100)))), "[10, 100, 9]")
	expectList(t, mustEval(t, interp, ast.Call("sort", ast.List(ast.Str("ccc"), ast.Str("a"), ast.Str("bb")), ast.Str("ByLength"))), "['a', 'bb', 'ccc']")
	expectList(t, mustEval(t, interp, ast.Call("sort",
		ast.List(ast.Num(3), ast.Num(1), ast.Num(2)),
		ast.Lambda([]string{"x", "y"}, ast.Bin(ast.Var("y"), "-", ast.Var("x"))),
	)), "[3, 2, 1]")
}

func TestSortComparatorFailure(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	mustRun(t, interp, ast.Fn("Broken", []string{"a", "b"}, ast.Ret(ast.List())))
	err := evalErr(t, interp, ast.Call("sort", ast.List(ast.Num(2), ast.Num(1)), ast.Str("Broken")))
	expectCode(t, err, "E702")
}

func TestMapAndFilter(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	mustRun(t, interp,
		ast.Let(ast.Var("g:l"), ast.List(ast.Num(1), ast.Num(2), ast.Num(3), ast.Num(4))),
		ast.CallStmt(ast.Call("filter", ast.Var("g:l"), ast.Lambda([]string{"k", "v"}, ast.Bin(ast.Bin(ast.Var("v"), "%", ast.Num(2)), "==", ast.Num(0))))),
		ast.Let(ast.Var("g:d"), ast.Dict(ast.Entry("a", ast.Num(1)), ast.Entry("b", ast.Num(2)))),
		ast.CallStmt(ast.Call("map", ast.Var("g:d"), ast.Lambda([]string{"k", "v"}, ast.Bin(ast.Var("k"), ".", ast.Var("v"))))),
	)
	expectList(t, global(t, interp, "l"), "[2, 4]")
	if got := stringify(global(t, interp, "d")); got != "{'a': 'a1', 'b': 'b2'}" {
		t.Fatalf("unexpected dict %s", got)
	}
}

func TestSplit(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	expectList(t, mustEval(t, interp, ast.Call("split", ast.Str("  a b\tc "))), "['a', 'b', 'c']")
	expectList(t, mustEval(t, interp, ast.Call("split", ast.Str("a,b,,c"), ast.Str(","))), "['a', 'b', '', 'c']")
	expectList(t, mustEval(t, interp, ast.Call("split", ast.Str(",a,"), ast.Str(","), ast.Num(1))), "['', 'a', '']")
}

func TestExists(t *testing.T) {
	t.Setenv("VIMSCRIPT_TEST_EXISTS", "1")
	interp, _ := newTestInterpreter(t)
	mustRun(t, interp,
		ast.Let(ast.Var("g:d"), ast.Dict(ast.Entry("k", ast.Dict(ast.Entry("inner", ast.Num(1)))))),
		ast.Fn("Defined", nil),
	)
	cases := map[string]int64{
		"g:d":                    1,
		"g:d.k.inner":            1,
		"g:d.k.missing":          0,
		"g:nope":                 0,
		"d":                      1,
		"*Defined":               1,
		"*len":                   1,
		"*Undefined":             0,
		"&ignorecase":            1,
		"&nosuchoption":          0,
		"$VIMSCRIPT_TEST_EXISTS": 1,
		":echo":                  0,
		"":                       0,
	}
	for name, want := range cases {
		expectNumber(t, mustEval(t, interp, ast.Call("exists", ast.Str(name))), want)
	}
}

func TestFunctionIntrospection(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	mustRun(t, interp,
		addFunction(),
		ast.Let(ast.Var("g:d"), ast.Dict()),
		ast.Let(ast.Var("g:P"), ast.Call("function", ast.Str("Add"), ast.List(ast.Num(1)), ast.Var("g:d"))),
	)
	expectString(t, mustEval(t, interp, ast.Call("get", ast.Var("g:P"), ast.Str("name"))), "Add")
	expectList(t, mustEval(t, interp, ast.Call("get", ast.Var("g:P"), ast.Str("args"))), "[1]")
	if mustEval(t, interp, ast.Call("get", ast.Var("g:P"), ast.Str("dict"))) != global(t, interp, "d") {
		t.Fatalf("expected get(P, 'dict') to return the bound dictionary")
	}
	ref, ok := mustEval(t, interp, ast.Call("get", ast.Var("g:P"), ast.Str("func"))).(*runtime.FuncrefValue)
	if !ok || len(ref.Arguments) != 0 || ref.Self != nil {
		t.Fatalf("expected get(P, 'func') to drop the partial bindings")
	}
	expectNumber(t, mustEval(t, interp, ast.Call("call", ast.Str("Add"), ast.List(ast.Num(2), ast.Num(3)))), 5)
}

type shadowBuiltins struct{}

func (shadowBuiltins) LookupBuiltin(name string) (*runtime.NativeFunction, bool) {
	if name != "len" {
		return nil, false
	}
	return &runtime.NativeFunction{Name: "len", MinArgs: 1, MaxArgs: 1, Impl: func(_ *runtime.NativeCallContext, _ []runtime.Value) (runtime.Value, error) {
		return runtime.NumberValue{Val: -1}, nil
	}}, true
}

func TestHostBuiltinsTakePrecedence(t *testing.T) {
	interp := NewWithOptions(Options{Builtins: shadowBuiltins{}, Messages: &recordingMessages{}})
	expectNumber(t, mustEval(t, interp, ast.Call("len", ast.Str("abc"))), -1)
}
