package interpreter

import (
	"math"
	"strings"

	"github.com/JetBrains/ideavim-sub001/pkg/ast"
	"github.com/JetBrains/ideavim-sub001/pkg/runtime"
)

func (i *Interpreter) evaluateBinary(n *ast.BinaryExpression, editor, ctx any, frame *Frame) (runtime.Value, error) {
	switch n.Operator {
	case "&&", "||":
		return i.evaluateLogical(n, editor, ctx, frame)
	}
	left, err := i.Evaluate(n.Left, editor, ctx, frame)
	if err != nil {
		return nil, err
	}
	right, err := i.Evaluate(n.Right, editor, ctx, frame)
	if err != nil {
		return nil, err
	}
	return i.applyBinary(n.Operator, left, right, editor)
}

// evaluateLogical short-circuits: the right operand is only evaluated when the
// left one does not decide the result.
func (i *Interpreter) evaluateLogical(n *ast.BinaryExpression, editor, ctx any, frame *Frame) (runtime.Value, error) {
	left, err := i.Evaluate(n.Left, editor, ctx, frame)
	if err != nil {
		return nil, err
	}
	lt, err := isTruthy(left)
	if err != nil {
		return nil, err
	}
	if n.Operator == "&&" && !lt {
		return boolNumber(false), nil
	}
	if n.Operator == "||" && lt {
		return boolNumber(true), nil
	}
	right, err := i.Evaluate(n.Right, editor, ctx, frame)
	if err != nil {
		return nil, err
	}
	rt, err := isTruthy(right)
	if err != nil {
		return nil, err
	}
	return boolNumber(rt), nil
}

// applyBinary evaluates a non-short-circuit operator on two values. It is
// shared with compound assignment (`let x += 1`).
func (i *Interpreter) applyBinary(op string, left, right runtime.Value, editor any) (runtime.Value, error) {
	switch op {
	case "+", "-", "*", "/", "%":
		return arithmetic(op, left, right)
	case ".", "..":
		ls, err := toString(left)
		if err != nil {
			return nil, err
		}
		rs, err := toString(right)
		if err != nil {
			return nil, err
		}
		return stringValue(ls + rs), nil
	}
	base, ic, ok := splitComparison(op)
	if !ok {
		return nil, errInvalidExpression(op)
	}
	if ic == caseDefault {
		ic = i.defaultCase(editor)
	}
	result, err := i.compare(base, ic == caseIgnore, left, right)
	if err != nil {
		return nil, err
	}
	return boolNumber(result), nil
}

func arithmetic(op string, left, right runtime.Value) (runtime.Value, error) {
	if ll, ok := left.(*runtime.ListValue); ok && op == "+" {
		rl, ok := right.(*runtime.ListValue)
		if !ok {
			return nil, errListAsNumber()
		}
		out := make([]runtime.Value, 0, len(ll.Elements)+len(rl.Elements))
		out = append(out, ll.Elements...)
		out = append(out, rl.Elements...)
		return runtime.NewList(out), nil
	}
	_, lf := left.(runtime.FloatValue)
	_, rf := right.(runtime.FloatValue)
	if lf || rf {
		if op == "%" {
			return nil, errFloatModulo()
		}
		a, err := toFloat(left)
		if err != nil {
			return nil, err
		}
		b, err := toFloat(right)
		if err != nil {
			return nil, err
		}
		switch op {
		case "+":
			return runtime.FloatValue{Val: a + b}, nil
		case "-":
			return runtime.FloatValue{Val: a - b}, nil
		case "*":
			return runtime.FloatValue{Val: a * b}, nil
		default:
			return runtime.FloatValue{Val: a / b}, nil
		}
	}
	a, err := toNumber(left)
	if err != nil {
		return nil, err
	}
	b, err := toNumber(right)
	if err != nil {
		return nil, err
	}
	switch op {
	case "+":
		return numberValue(a + b), nil
	case "-":
		return numberValue(a - b), nil
	case "*":
		return numberValue(a * b), nil
	case "/":
		return numberValue(divide(a, b)), nil
	default:
		return numberValue(modulo(a, b)), nil
	}
}

// divide follows Vim: dividing by zero yields the largest number with the
// dividend's sign, and 0/0 the smallest number.
func divide(a, b int64) int64 {
	if b == 0 {
		switch {
		case a == 0:
			return math.MinInt64
		case a < 0:
			return -math.MaxInt64
		default:
			return math.MaxInt64
		}
	}
	if a == math.MinInt64 && b == -1 {
		return math.MaxInt64
	}
	return a / b
}

func modulo(a, b int64) int64 {
	if b == 0 || b == -1 {
		return 0
	}
	return a % b
}

func applyUnary(op string, operand runtime.Value) (runtime.Value, error) {
	switch op {
	case "!":
		if f, ok := operand.(runtime.FloatValue); ok {
			return boolNumber(f.Val == 0), nil
		}
		n, err := toNumber(operand)
		if err != nil {
			return nil, err
		}
		return boolNumber(n == 0), nil
	case "-":
		if f, ok := operand.(runtime.FloatValue); ok {
			return runtime.FloatValue{Val: -f.Val}, nil
		}
		n, err := toNumber(operand)
		if err != nil {
			return nil, err
		}
		return numberValue(-n), nil
	case "+":
		if f, ok := operand.(runtime.FloatValue); ok {
			return f, nil
		}
		n, err := toNumber(operand)
		if err != nil {
			return nil, err
		}
		return numberValue(n), nil
	}
	return nil, errInvalidExpression(op)
}

type caseMode int

const (
	caseDefault caseMode = iota
	caseMatch
	caseIgnore
)

// splitComparison separates "==?" into ("==", caseIgnore).
func splitComparison(op string) (string, caseMode, bool) {
	mode := caseDefault
	base := op
	switch {
	case strings.HasSuffix(op, "#"):
		mode, base = caseMatch, strings.TrimSuffix(op, "#")
	case strings.HasSuffix(op, "?"):
		mode, base = caseIgnore, strings.TrimSuffix(op, "?")
	}
	switch base {
	case "==", "!=", ">", ">=", "<", "<=", "=~", "!~", "is", "isnot":
		return base, mode, true
	}
	return "", mode, false
}

// defaultCase consults 'ignorecase' for comparisons without # or ?.
func (i *Interpreter) defaultCase(editor any) caseMode {
	v, err := i.opts.Options.GetOption(editor, ast.ScopeNone, "ignorecase")
	if err != nil {
		return caseMatch
	}
	if on, err := isTruthy(v); err == nil && on {
		return caseIgnore
	}
	return caseMatch
}

func (i *Interpreter) compare(op string, ignoreCase bool, left, right runtime.Value) (bool, error) {
	if op == "is" || op == "isnot" {
		same := identical(left, right, ignoreCase)
		if op == "is" {
			return same, nil
		}
		return !same, nil
	}

	ll, lIsList := left.(*runtime.ListValue)
	rl, rIsList := right.(*runtime.ListValue)
	if lIsList || rIsList {
		if !lIsList || !rIsList {
			return false, errCompareList()
		}
		switch op {
		case "==":
			return valuesEqual(ll, rl, ignoreCase), nil
		case "!=":
			return !valuesEqual(ll, rl, ignoreCase), nil
		}
		return false, errListOperation()
	}

	ld, lIsDict := left.(*runtime.DictValue)
	rd, rIsDict := right.(*runtime.DictValue)
	if lIsDict || rIsDict {
		if !lIsDict || !rIsDict {
			return false, errCompareDict()
		}
		switch op {
		case "==":
			return valuesEqual(ld, rd, ignoreCase), nil
		case "!=":
			return !valuesEqual(ld, rd, ignoreCase), nil
		}
		return false, errDictOperation()
	}

	lf, lIsFn := left.(*runtime.FuncrefValue)
	rf, rIsFn := right.(*runtime.FuncrefValue)
	if lIsFn || rIsFn {
		if op != "==" && op != "!=" {
			return false, errFuncrefOperation()
		}
		eq := lIsFn && rIsFn && funcrefsEqual(lf, rf, ignoreCase)
		return eq == (op == "=="), nil
	}

	if op == "=~" || op == "!~" {
		text, err := toString(left)
		if err != nil {
			return false, err
		}
		pattern, err := toString(right)
		if err != nil {
			return false, err
		}
		matched, err := i.opts.Patterns.Matches(pattern, text, ignoreCase)
		if err != nil {
			return false, err
		}
		return matched == (op == "=~"), nil
	}

	_, lFloat := left.(runtime.FloatValue)
	_, rFloat := right.(runtime.FloatValue)
	if lFloat || rFloat {
		a, err := toFloat(left)
		if err != nil {
			return false, err
		}
		b, err := toFloat(right)
		if err != nil {
			return false, err
		}
		return orderedResult(op, compareFloats(a, b)), nil
	}

	ls, lIsStr := left.(runtime.StringValue)
	rs, rIsStr := right.(runtime.StringValue)
	if lIsStr && rIsStr {
		return orderedResult(op, compareStrings(ls.Val, rs.Val, ignoreCase)), nil
	}

	a, err := toNumber(left)
	if err != nil {
		return false, err
	}
	b, err := toNumber(right)
	if err != nil {
		return false, err
	}
	return orderedResult(op, compareNumbers(a, b)), nil
}

func orderedResult(op string, cmp int) bool {
	switch op {
	case "==":
		return cmp == 0
	case "!=":
		return cmp != 0
	case ">":
		return cmp > 0
	case ">=":
		return cmp >= 0
	case "<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	}
	return false
}

func compareNumbers(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareStrings(a, b string, ignoreCase bool) int {
	if ignoreCase {
		a, b = strings.ToLower(a), strings.ToLower(b)
	}
	return strings.Compare(a, b)
}

// identical implements `is`: containers and funcrefs compare by reference,
// scalars by kind and value.
func identical(left, right runtime.Value, ignoreCase bool) bool {
	switch l := left.(type) {
	case *runtime.ListValue:
		r, ok := right.(*runtime.ListValue)
		return ok && l == r
	case *runtime.DictValue:
		r, ok := right.(*runtime.DictValue)
		return ok && l == r
	case *runtime.FuncrefValue:
		r, ok := right.(*runtime.FuncrefValue)
		return ok && funcrefsEqual(l, r, ignoreCase)
	}
	if left.Kind() != right.Kind() {
		return false
	}
	return valuesEqual(left, right, ignoreCase)
}

// valuesEqual is deep equality as `==` sees it for same-shaped values.
func valuesEqual(left, right runtime.Value, ignoreCase bool) bool {
	return valuesEqualSeen(left, right, ignoreCase, 0)
}

const maxEqualityDepth = 100

func valuesEqualSeen(left, right runtime.Value, ignoreCase bool, depth int) bool {
	if depth > maxEqualityDepth {
		return true
	}
	switch l := left.(type) {
	case *runtime.ListValue:
		r, ok := right.(*runtime.ListValue)
		if !ok || len(l.Elements) != len(r.Elements) {
			return false
		}
		if l == r {
			return true
		}
		for idx := range l.Elements {
			if !valuesEqualSeen(l.Elements[idx], r.Elements[idx], ignoreCase, depth+1) {
				return false
			}
		}
		return true
	case *runtime.DictValue:
		r, ok := right.(*runtime.DictValue)
		if !ok || l.Len() != r.Len() {
			return false
		}
		if l == r {
			return true
		}
		for _, key := range l.Keys() {
			lv, _ := l.Get(key)
			rv, ok := r.Get(key)
			if !ok || !valuesEqualSeen(lv, rv, ignoreCase, depth+1) {
				return false
			}
		}
		return true
	case *runtime.FuncrefValue:
		r, ok := right.(*runtime.FuncrefValue)
		return ok && funcrefsEqual(l, r, ignoreCase)
	case runtime.StringValue:
		if r, ok := right.(runtime.StringValue); ok {
			return compareStrings(l.Val, r.Val, ignoreCase) == 0
		}
	case runtime.FloatValue:
		if r, err := toFloat(right); err == nil {
			return l.Val == r
		}
		return false
	}
	if _, ok := right.(runtime.FloatValue); ok {
		return valuesEqualSeen(right, left, ignoreCase, depth)
	}
	switch right.(type) {
	case *runtime.ListValue, *runtime.DictValue, *runtime.FuncrefValue:
		return false
	}
	a, errA := toNumber(left)
	b, errB := toNumber(right)
	return errA == nil && errB == nil && a == b
}

func funcrefsEqual(a, b *runtime.FuncrefValue, ignoreCase bool) bool {
	if a == b {
		return true
	}
	if a.Handler != b.Handler || a.Self != b.Self || len(a.Arguments) != len(b.Arguments) {
		return false
	}
	for idx := range a.Arguments {
		if !valuesEqual(a.Arguments[idx], b.Arguments[idx], ignoreCase) {
			return false
		}
	}
	return true
}
