package interpreter

import (
	"os"
	"strings"

	"github.com/JetBrains/ideavim-sub001/pkg/ast"
	"github.com/JetBrains/ideavim-sub001/pkg/runtime"
)

func (i *Interpreter) executeLet(n *ast.LetStatement, editor, ctx any, frame *Frame) error {
	value, err := i.Evaluate(n.Value, editor, ctx, frame)
	if err != nil {
		return err
	}
	op := n.Operator
	if op == "" {
		op = "="
	}
	if op != "=" && !isCompoundOperator(op) {
		return errInvalidArgument(op)
	}
	return i.assignTarget(n.Target, op, value, editor, ctx, frame)
}

func isCompoundOperator(op string) bool {
	switch op {
	case "+=", "-=", "*=", "/=", "%=", ".=", "..=":
		return true
	}
	return false
}

// combine applies a compound operator. `+=` on a List extends it in place.
func (i *Interpreter) combine(op string, current, value runtime.Value, editor any) (runtime.Value, error) {
	if op == "=" {
		return value, nil
	}
	if list, ok := current.(*runtime.ListValue); ok && op == "+=" {
		extra, ok := value.(*runtime.ListValue)
		if !ok {
			return nil, errListAsNumber()
		}
		list.Elements = append(list.Elements, extra.Elements...)
		return list, nil
	}
	return i.applyBinary(strings.TrimSuffix(op, "="), current, value, editor)
}

func (i *Interpreter) assignTarget(target ast.Expression, op string, value runtime.Value, editor, ctx any, frame *Frame) error {
	switch t := target.(type) {
	case *ast.Variable:
		if op != "=" {
			current, err := i.lookupVariable(t.Scope, t.Name, editor, frame)
			if err != nil {
				return err
			}
			if value, err = i.combine(op, current, value, editor); err != nil {
				return err
			}
		}
		return i.assignVariable(t.Scope, t.Name, value, editor, frame)
	case *ast.IndexExpression:
		return i.assignIndex(t, op, value, editor, ctx, frame)
	case *ast.SliceExpression:
		return i.assignSlice(t, op, value, editor, ctx, frame)
	case *ast.OptionExpression:
		if op != "=" {
			current, err := i.opts.Options.GetOption(editor, t.Scope, t.Name)
			if err != nil {
				return err
			}
			if value, err = i.combine(op, current, value, editor); err != nil {
				return err
			}
		}
		return i.opts.Options.SetOption(editor, t.Scope, t.Name, value)
	case *ast.EnvVariable:
		if op != "=" {
			current := stringValue(os.Getenv(t.Name))
			var err error
			if value, err = i.combine(op, current, value, editor); err != nil {
				return err
			}
		}
		s, err := toString(value)
		if err != nil {
			return err
		}
		return os.Setenv(t.Name, s)
	case *ast.ListLiteral:
		return i.assignUnpack(t, op, value, editor, ctx, frame)
	}
	return errInvalidArgument(ast.FormatExpression(target))
}

// assignUnpack implements `let [a, b] = list`.
func (i *Interpreter) assignUnpack(t *ast.ListLiteral, op string, value runtime.Value, editor, ctx any, frame *Frame) error {
	list, ok := value.(*runtime.ListValue)
	if !ok {
		return errListRequired()
	}
	if len(list.Elements) > len(t.Elements) {
		return errFewerTargets()
	}
	if len(list.Elements) < len(t.Elements) {
		return errMoreTargets()
	}
	for idx, elem := range t.Elements {
		if err := i.assignTarget(elem, op, list.Elements[idx], editor, ctx, frame); err != nil {
			return err
		}
	}
	return nil
}

func (i *Interpreter) assignIndex(t *ast.IndexExpression, op string, value runtime.Value, editor, ctx any, frame *Frame) error {
	container, err := i.Evaluate(t.Target, editor, ctx, frame)
	if err != nil {
		return err
	}
	if t.Dot {
		if _, ok := container.(*runtime.DictValue); !ok {
			return errDotRequiresDict(ast.FormatExpression(t))
		}
	}
	indexVal, err := i.Evaluate(t.Index, editor, ctx, frame)
	if err != nil {
		return err
	}
	switch c := container.(type) {
	case *runtime.DictValue:
		key, err := toKey(indexVal)
		if err != nil {
			return err
		}
		if op != "=" {
			current, ok := c.Get(key)
			if !ok {
				return errKeyNotPresent(key)
			}
			if value, err = i.combine(op, current, value, editor); err != nil {
				return err
			}
		}
		c.Set(key, value)
		return nil
	case *runtime.ListValue:
		idx, err := toNumber(indexVal)
		if err != nil {
			return err
		}
		pos, ok := normalizeIndex(idx, len(c.Elements))
		if !ok {
			return errListIndexOutOfRange(idx)
		}
		if op != "=" {
			if value, err = i.combine(op, c.Elements[pos], value, editor); err != nil {
				return err
			}
		}
		c.Elements[pos] = value
		return nil
	case *runtime.FuncrefValue:
		return errCannotIndexFuncref()
	}
	return errIndexRequiresContainer()
}

// assignSlice implements `let l[a:b] = list`. Without an upper bound the list
// grows to take every item of the value.
func (i *Interpreter) assignSlice(t *ast.SliceExpression, op string, value runtime.Value, editor, ctx any, frame *Frame) error {
	container, err := i.Evaluate(t.Target, editor, ctx, frame)
	if err != nil {
		return err
	}
	list, ok := container.(*runtime.ListValue)
	if !ok {
		return errSliceRequiresList()
	}
	items, ok := value.(*runtime.ListValue)
	if !ok {
		return errSliceRequiresList()
	}
	from, to, err := i.sliceBounds(t, editor, ctx, frame)
	if err != nil {
		return err
	}
	start, ok := normalizeIndex(from, len(list.Elements))
	if !ok {
		return errListIndexOutOfRange(from)
	}
	if t.To == nil {
		for idx, item := range items.Elements {
			pos := start + idx
			if pos < len(list.Elements) {
				if item, err = i.combine(op, list.Elements[pos], item, editor); err != nil {
					return err
				}
				list.Elements[pos] = item
				continue
			}
			list.Elements = append(list.Elements, item)
		}
		return nil
	}
	end, ok := normalizeIndex(to, len(list.Elements))
	if !ok {
		return errListIndexOutOfRange(to)
	}
	count := end - start + 1
	if count < 0 {
		count = 0
	}
	if len(items.Elements) > count {
		return errSliceTooMany()
	}
	if len(items.Elements) < count {
		return errSliceTooFew()
	}
	for idx, item := range items.Elements {
		if item, err = i.combine(op, list.Elements[start+idx], item, editor); err != nil {
			return err
		}
		list.Elements[start+idx] = item
	}
	return nil
}

func (i *Interpreter) executeUnlet(n *ast.UnletStatement, editor, ctx any, frame *Frame) error {
	for _, target := range n.Targets {
		if err := i.unletTarget(target, n.Bang, editor, ctx, frame); err != nil {
			return err
		}
	}
	return nil
}

func (i *Interpreter) unletTarget(target ast.Expression, bang bool, editor, ctx any, frame *Frame) error {
	switch t := target.(type) {
	case *ast.Variable:
		return i.deleteVariable(t.Scope, t.Name, bang, editor, frame)
	case *ast.EnvVariable:
		return os.Unsetenv(t.Name)
	case *ast.IndexExpression:
		container, err := i.Evaluate(t.Target, editor, ctx, frame)
		if err != nil {
			return err
		}
		indexVal, err := i.Evaluate(t.Index, editor, ctx, frame)
		if err != nil {
			return err
		}
		switch c := container.(type) {
		case *runtime.DictValue:
			key, err := toKey(indexVal)
			if err != nil {
				return err
			}
			if !c.Delete(key) && !bang {
				return errKeyNotPresent(key)
			}
			return nil
		case *runtime.ListValue:
			idx, err := toNumber(indexVal)
			if err != nil {
				return err
			}
			pos, ok := normalizeIndex(idx, len(c.Elements))
			if !ok {
				if bang {
					return nil
				}
				return errListIndexOutOfRange(idx)
			}
			c.Elements = append(c.Elements[:pos], c.Elements[pos+1:]...)
			return nil
		}
		if t.Dot {
			return errDotRequiresDict(ast.FormatExpression(t))
		}
		return errIndexRequiresContainer()
	case *ast.SliceExpression:
		container, err := i.Evaluate(t.Target, editor, ctx, frame)
		if err != nil {
			return err
		}
		list, ok := container.(*runtime.ListValue)
		if !ok {
			return errSliceRequiresList()
		}
		from, to, err := i.sliceBounds(t, editor, ctx, frame)
		if err != nil {
			return err
		}
		start, end := sliceRange(from, to, len(list.Elements))
		list.Elements = append(list.Elements[:start], list.Elements[end:]...)
		return nil
	}
	return errInvalidArgument(ast.FormatExpression(target))
}
