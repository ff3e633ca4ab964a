package ast

// SplitScoped splits "g:Name" into (ScopeGlobal, "Name"). Names without a
// recognised single-letter prefix come back with ScopeNone.
func SplitScoped(name string) (Scope, string) {
	if len(name) >= 2 && name[1] == ':' {
		scope := Scope(name[:1])
		if scope != ScopeNone && scope.IsValid() {
			return scope, name[2:]
		}
	}
	return ScopeNone, name
}

// Literal helpers.

func Num(value int64) *NumberLiteral {
	return NewNumberLiteral(value)
}

func Flt(value float64) *FloatLiteral {
	return NewFloatLiteral(value)
}

func Str(value string) *StringLiteral {
	return NewStringLiteral(value)
}

func List(elements ...Expression) *ListLiteral {
	return NewListLiteral(elements)
}

func Entry(key string, value Expression) *DictEntry {
	return &DictEntry{Key: Str(key), Value: value}
}

func Dict(entries ...*DictEntry) *DictLiteral {
	return NewDictLiteral(entries)
}

// Name helpers.

// Var accepts a scoped spelling: Var("g:x"), Var("a:000"), Var("count").
func Var(name string) *Variable {
	scope, bare := SplitScoped(name)
	return NewVariable(scope, bare)
}

func Opt(name string) *OptionExpression {
	scope, bare := SplitScoped(name)
	return NewOptionExpression(scope, bare)
}

func Env(name string) *EnvVariable {
	return NewEnvVariable(name)
}

func Index(target, index Expression) *IndexExpression {
	return NewIndexExpression(target, index, false)
}

// Dot builds `target.key`.
func Dot(target Expression, key string) *IndexExpression {
	return NewIndexExpression(target, Str(key), true)
}

func Slice(target, from, to Expression) *SliceExpression {
	return NewSliceExpression(target, from, to)
}

// Call helpers.

func Call(name string, args ...Expression) *FunctionCall {
	scope, bare := SplitScoped(name)
	return NewFunctionCall(scope, bare, args)
}

func CallRef(callee Expression, args ...Expression) *FuncrefCall {
	return NewFuncrefCall(callee, args)
}

// Operator helpers.

func Bin(left Expression, operator string, right Expression) *BinaryExpression {
	return NewBinaryExpression(operator, left, right)
}

func Un(operator string, operand Expression) *UnaryExpression {
	return NewUnaryExpression(operator, operand)
}

func Not(operand Expression) *UnaryExpression {
	return NewUnaryExpression("!", operand)
}

func Neg(operand Expression) *UnaryExpression {
	return NewUnaryExpression("-", operand)
}

func Cond(condition, then, els Expression) *TernaryExpression {
	return NewTernaryExpression(condition, then, els)
}

func Lambda(params []string, body Expression) *LambdaExpression {
	return NewLambdaExpression(params, body)
}

// Statement helpers.

func Seq(body ...Executable) *Sequence {
	return NewSequence(body)
}

func Branch(condition Expression, body ...Executable) *IfBranch {
	return &IfBranch{Condition: condition, Body: body}
}

func If(condition Expression, body ...Executable) *IfStatement {
	return NewIfStatement([]*IfBranch{Branch(condition, body...)}, nil)
}

// IfElse builds an if/elseif chain; pass a nil els for no else clause.
func IfElse(branches []*IfBranch, els []Executable) *IfStatement {
	return NewIfStatement(branches, els)
}

func Body(stmts ...Executable) []Executable {
	return stmts
}

func Try(body []Executable, catches []*CatchClause, finally *FinallyClause) *TryStatement {
	return NewTryStatement(body, catches, finally)
}

func Catch(pattern string, body ...Executable) *CatchClause {
	return &CatchClause{Pattern: pattern, Body: body}
}

func Catches(clauses ...*CatchClause) []*CatchClause {
	return clauses
}

func Finally(body ...Executable) *FinallyClause {
	return &FinallyClause{Body: body}
}

func Throw(expr Expression) *ThrowStatement {
	return NewThrowStatement(expr)
}

func Ret(argument Expression) *ReturnStatement {
	return NewReturnStatement(argument)
}

// Fn declares a function from a scoped name: Fn("s:helper", ...).
func Fn(name string, params []string, body ...Executable) *FunctionDeclaration {
	scope, bare := SplitScoped(name)
	return NewFunctionDeclaration(scope, bare, FunctionSignature{Params: params, Body: body})
}

// FnBang is Fn with the replace flag set (`function!`).
func FnBang(name string, params []string, body ...Executable) *FunctionDeclaration {
	decl := Fn(name, params, body...)
	decl.Replace = true
	return decl
}

// WithFlags sets the behavior flags on a declaration and returns it.
func (d *FunctionDeclaration) WithFlags(flags FunctionFlags) *FunctionDeclaration {
	d.Flags |= flags
	return d
}

func (d *FunctionDeclaration) WithDefaults(defaults ...*DefaultParameter) *FunctionDeclaration {
	d.Defaults = append(d.Defaults, defaults...)
	return d
}

func (d *FunctionDeclaration) WithVariadic() *FunctionDeclaration {
	d.Variadic = true
	return d
}

func Default(name string, value Expression) *DefaultParameter {
	return &DefaultParameter{Name: name, Value: value}
}

// AnonFn declares `function target.key(params)`.
func AnonFn(target Expression, key string, params []string, body ...Executable) *AnonymousFunctionDeclaration {
	return NewAnonymousFunctionDeclaration(Dot(target, key), FunctionSignature{Params: params, Body: body})
}

func (d *AnonymousFunctionDeclaration) WithFlags(flags FunctionFlags) *AnonymousFunctionDeclaration {
	d.Flags |= flags
	return d
}

func (d *AnonymousFunctionDeclaration) WithReplace() *AnonymousFunctionDeclaration {
	d.Replace = true
	return d
}

func DelFn(name string, bang bool) *DelFunctionStatement {
	scope, bare := SplitScoped(name)
	return NewDelFunctionStatement(scope, bare, bang)
}

func Let(target Expression, value Expression) *LetStatement {
	return NewLetStatement(target, "=", value)
}

func LetOp(target Expression, operator string, value Expression) *LetStatement {
	return NewLetStatement(target, operator, value)
}

func Unlet(bang bool, targets ...Expression) *UnletStatement {
	return NewUnletStatement(targets, bang)
}

func CallStmt(call Expression) *CallStatement {
	return NewCallStatement(call, nil)
}

func CallRange(call Expression, first, last Expression) *CallStatement {
	return NewCallStatement(call, &LineRange{First: first, Last: last})
}

func Echo(args ...Expression) *EchoStatement {
	return NewEchoStatement(EchoKindPlain, args)
}

func EchoMsg(args ...Expression) *EchoStatement {
	return NewEchoStatement(EchoKindMsg, args)
}

func EchoErr(args ...Expression) *EchoStatement {
	return NewEchoStatement(EchoKindErr, args)
}

func While(condition Expression, body ...Executable) *WhileStatement {
	return NewWhileStatement(condition, body)
}

func For(target string, iterable Expression, body ...Executable) *ForStatement {
	return NewForStatement([]*Variable{Var(target)}, iterable, body)
}

func ForUnpack(targets []string, iterable Expression, body ...Executable) *ForStatement {
	vars := make([]*Variable, len(targets))
	for i, name := range targets {
		vars[i] = Var(name)
	}
	return NewForStatement(vars, iterable, body)
}

func Brk() *BreakStatement {
	return NewBreakStatement()
}

func Cont() *ContinueStatement {
	return NewContinueStatement()
}

func Finish() *FinishStatement {
	return NewFinishStatement()
}

func Unsupported(text string) *UnsupportedStatement {
	return NewUnsupportedStatement(text)
}

// Units wraps each executable in a Unit with rendered source text.
func Units(stmts ...Executable) []*Unit {
	units := make([]*Unit, len(stmts))
	for i, stmt := range stmts {
		units[i] = NewUnit(stmt, "")
	}
	return units
}

// Source builds an anonymous script from executables.
func Source(stmts ...Executable) *Script {
	return NewScript("", Units(stmts...))
}
