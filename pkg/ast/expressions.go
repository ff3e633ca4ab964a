package ast

// Literals

type NumberLiteral struct {
	nodeImpl
	expressionMarker

	Value int64 `json:"value"`
}

func NewNumberLiteral(value int64) *NumberLiteral {
	return &NumberLiteral{nodeImpl: newNodeImpl(NodeNumberLiteral), Value: value}
}

type FloatLiteral struct {
	nodeImpl
	expressionMarker

	Value float64 `json:"value"`
}

func NewFloatLiteral(value float64) *FloatLiteral {
	return &FloatLiteral{nodeImpl: newNodeImpl(NodeFloatLiteral), Value: value}
}

type StringLiteral struct {
	nodeImpl
	expressionMarker

	Value string `json:"value"`
}

func NewStringLiteral(value string) *StringLiteral {
	return &StringLiteral{nodeImpl: newNodeImpl(NodeStringLiteral), Value: value}
}

type ListLiteral struct {
	nodeImpl
	expressionMarker

	Elements []Expression `json:"elements"`
}

func NewListLiteral(elements []Expression) *ListLiteral {
	return &ListLiteral{nodeImpl: newNodeImpl(NodeListLiteral), Elements: elements}
}

type DictEntry struct {
	Key   Expression `json:"key"`
	Value Expression `json:"value"`
}

type DictLiteral struct {
	nodeImpl
	expressionMarker

	Entries []*DictEntry `json:"entries"`
}

func NewDictLiteral(entries []*DictEntry) *DictLiteral {
	return &DictLiteral{nodeImpl: newNodeImpl(NodeDictLiteral), Entries: entries}
}

// Names

// Variable references a name in a scope; ScopeNone resolves by frame kind.
type Variable struct {
	nodeImpl
	expressionMarker

	Scope Scope  `json:"scope,omitempty"`
	Name  string `json:"name"`
}

func NewVariable(scope Scope, name string) *Variable {
	return &Variable{nodeImpl: newNodeImpl(NodeVariable), Scope: scope, Name: name}
}

// OptionExpression is `&name`, `&l:name` or `&g:name`.
type OptionExpression struct {
	nodeImpl
	expressionMarker

	Scope Scope  `json:"scope,omitempty"`
	Name  string `json:"name"`
}

func NewOptionExpression(scope Scope, name string) *OptionExpression {
	return &OptionExpression{nodeImpl: newNodeImpl(NodeOptionExpression), Scope: scope, Name: name}
}

type EnvVariable struct {
	nodeImpl
	expressionMarker

	Name string `json:"name"`
}

func NewEnvVariable(name string) *EnvVariable {
	return &EnvVariable{nodeImpl: newNodeImpl(NodeEnvVariable), Name: name}
}

// Access

// IndexExpression is `target[index]`, or `target.key` when Dot is set (Index
// is then a StringLiteral holding the key).
type IndexExpression struct {
	nodeImpl
	expressionMarker

	Target Expression `json:"target"`
	Index  Expression `json:"index"`
	Dot    bool       `json:"dot,omitempty"`
}

func NewIndexExpression(target, index Expression, dot bool) *IndexExpression {
	return &IndexExpression{nodeImpl: newNodeImpl(NodeIndexExpression), Target: target, Index: index, Dot: dot}
}

// SliceExpression is `target[from : to]`; either bound may be nil.
type SliceExpression struct {
	nodeImpl
	expressionMarker

	Target Expression `json:"target"`
	From   Expression `json:"from,omitempty"`
	To     Expression `json:"to,omitempty"`
}

func NewSliceExpression(target, from, to Expression) *SliceExpression {
	return &SliceExpression{nodeImpl: newNodeImpl(NodeSliceExpression), Target: target, From: from, To: to}
}

// Calls

type FunctionCall struct {
	nodeImpl
	expressionMarker

	Scope     Scope        `json:"scope,omitempty"`
	Name      string       `json:"name"`
	Arguments []Expression `json:"arguments"`
}

func NewFunctionCall(scope Scope, name string, args []Expression) *FunctionCall {
	return &FunctionCall{nodeImpl: newNodeImpl(NodeFunctionCall), Scope: scope, Name: name, Arguments: args}
}

// FuncrefCall invokes whatever Callee evaluates to, e.g. `d.f()` or `F()`.
type FuncrefCall struct {
	nodeImpl
	expressionMarker

	Callee    Expression   `json:"callee"`
	Arguments []Expression `json:"arguments"`
}

func NewFuncrefCall(callee Expression, args []Expression) *FuncrefCall {
	return &FuncrefCall{nodeImpl: newNodeImpl(NodeFuncrefCall), Callee: callee, Arguments: args}
}

// Operators

type BinaryExpression struct {
	nodeImpl
	expressionMarker

	Operator string     `json:"operator"`
	Left     Expression `json:"left"`
	Right    Expression `json:"right"`
}

func NewBinaryExpression(operator string, left, right Expression) *BinaryExpression {
	return &BinaryExpression{nodeImpl: newNodeImpl(NodeBinaryExpression), Operator: operator, Left: left, Right: right}
}

type UnaryExpression struct {
	nodeImpl
	expressionMarker

	Operator string     `json:"operator"`
	Operand  Expression `json:"operand"`
}

func NewUnaryExpression(operator string, operand Expression) *UnaryExpression {
	return &UnaryExpression{nodeImpl: newNodeImpl(NodeUnaryExpression), Operator: operator, Operand: operand}
}

type TernaryExpression struct {
	nodeImpl
	expressionMarker

	Condition Expression `json:"condition"`
	Then      Expression `json:"then"`
	Else      Expression `json:"else"`
}

func NewTernaryExpression(condition, then, els Expression) *TernaryExpression {
	return &TernaryExpression{nodeImpl: newNodeImpl(NodeTernaryExpression), Condition: condition, Then: then, Else: els}
}

// LambdaExpression is `{params -> body}`. Lambdas always close over the frame
// that creates them.
type LambdaExpression struct {
	nodeImpl
	expressionMarker

	Params []string   `json:"params"`
	Body   Expression `json:"body"`
}

func NewLambdaExpression(params []string, body Expression) *LambdaExpression {
	return &LambdaExpression{nodeImpl: newNodeImpl(NodeLambdaExpression), Params: params, Body: body}
}
