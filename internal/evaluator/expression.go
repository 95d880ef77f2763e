package evaluator

import "strings"

// Expression is the recursive tagged variant mirroring the style DSL: a
// literal scalar, or an operator node with an operator tag and an
// ordered list of child expressions. Built once from a decoded JSON
// array (first element = operator string, remainder = operands).
type Expression struct {
	isOp    bool
	op      string
	args    []Expression
	literal Value
}

// Literal wraps a concrete Value as a leaf expression.
func Literal(v Value) Expression {
	return Expression{literal: v}
}

// Parse builds an Expression tree from a value decoded by encoding/json
// (so nil, bool, float64, string, or []any). A JSON array whose first
// element is a string is an operator node; anything else, including an
// array whose first element is not a string, is treated as a literal.
func Parse(raw any) Expression {
	arr, ok := raw.([]any)
	if !ok || len(arr) == 0 {
		return Literal(FromInterface(raw))
	}
	op, ok := arr[0].(string)
	if !ok {
		return Literal(FromInterface(raw))
	}
	args := make([]Expression, len(arr)-1)
	for i, a := range arr[1:] {
		args[i] = Parse(a)
	}
	return Expression{isOp: true, op: op, args: args}
}

// Op reports the operator tag of an operator node, or "" for a literal.
func (e Expression) Op() string { return e.op }

// IsOperator reports whether e is an operator node rather than a leaf.
func (e Expression) IsOperator() bool { return e.isOp }

// Resolve interprets expr against feature and the current zoom levels.
// Unknown operator tags and arity/type errors yield Null and evaluation
// continues, matching the source's robustness posture: a style layer
// with one unsupported expression still renders its other properties.
func Resolve(expr Expression, feature Feature, mapZoom int, viewportZoom float64) Value {
	if !expr.isOp {
		return expr.literal
	}

	op := expr.op
	base := op
	if op != "!=" && strings.HasPrefix(op, "!") {
		base = op[1:]
	}

	switch base {
	case "get":
		return evalGet(expr, feature)
	case "has":
		return evalHas(expr, feature)
	case "in":
		return evalIn(expr, feature, op)
	case "==", "!=":
		return evalCompare(expr, feature, mapZoom, viewportZoom, base == "==")
	case ">":
		return evalOrdered(expr, feature, mapZoom, viewportZoom, func(a, b Value) bool { return a.Greater(b) })
	case "<":
		return evalOrdered(expr, feature, mapZoom, viewportZoom, func(a, b Value) bool { return b.Greater(a) })
	case ">=":
		return evalOrdered(expr, feature, mapZoom, viewportZoom, func(a, b Value) bool { return !b.Greater(a) })
	case "<=":
		return evalOrdered(expr, feature, mapZoom, viewportZoom, func(a, b Value) bool { return !a.Greater(b) })
	case "all":
		return evalAll(expr, feature, mapZoom, viewportZoom)
	case "any":
		return evalAny(expr, feature, mapZoom, viewportZoom)
	case "case":
		return evalCase(expr, feature, mapZoom, viewportZoom)
	case "match":
		return evalMatch(expr, feature, mapZoom, viewportZoom)
	case "coalesce":
		return evalCoalesce(expr, feature, mapZoom, viewportZoom)
	case "interpolate":
		return evalInterpolate(expr, feature, mapZoom, viewportZoom)
	default:
		return Null
	}
}

func metadataLookup(feature Feature, key string) Value {
	if feature == nil {
		return Null
	}
	v, ok := feature.Metadata(key)
	if !ok {
		return Null
	}
	return v
}

func evalGet(expr Expression, feature Feature) Value {
	if len(expr.args) < 1 {
		return Null
	}
	key, ok := expr.args[0].literal.AsString()
	if !ok {
		return Null
	}
	return metadataLookup(feature, key)
}

func evalHas(expr Expression, feature Feature) Value {
	if len(expr.args) < 1 || feature == nil {
		return Bool(false)
	}
	key, ok := expr.args[0].literal.AsString()
	if !ok {
		return Bool(false)
	}
	_, exists := feature.Metadata(key)
	return Bool(exists)
}

// evalIn implements "in" (needle, haystack...), boolean: first operand
// equals any later operand. A leading "!" on the operator (["!in",...])
// negates the result, mirroring the source's array.first() check.
func evalIn(expr Expression, feature Feature, op string) Value {
	if len(expr.args) < 1 {
		return Bool(false)
	}
	needle := Resolve(expr.args[0], feature, 0, 0)
	found := false
	for _, a := range expr.args[1:] {
		if needle.Equal(a.literal) {
			found = true
			break
		}
	}
	if strings.HasPrefix(op, "!") {
		found = !found
	}
	return Bool(found)
}

// resolveTypeAware resolves the first operand of == / != with the
// "$type" special case: a bare "$type" (or an expression resolving to
// the string "$type") yields the feature's geometry kind instead of a
// metadata lookup, since geometry type is not part of the feature's
// metadata table. Any other bare string is looked up as a metadata key;
// any other operator expression yields its resolved value.
func resolveTypeAware(expr Expression, feature Feature, mapZoom int, viewportZoom float64) Value {
	var key string
	if expr.isOp {
		resolved := Resolve(expr, feature, mapZoom, viewportZoom)
		s, ok := resolved.AsString()
		if !ok || s != "$type" {
			return resolved
		}
		key = s
	} else {
		s, ok := expr.literal.AsString()
		if !ok {
			return expr.literal
		}
		key = s
	}
	if key == "$type" {
		if feature == nil {
			return Null
		}
		return String(feature.GeometryKind().String())
	}
	return metadataLookup(feature, key)
}

func evalCompare(expr Expression, feature Feature, mapZoom int, viewportZoom float64, wantEqual bool) Value {
	if len(expr.args) < 2 {
		return Null
	}
	operand1 := resolveTypeAware(expr.args[0], feature, mapZoom, viewportZoom)
	operand2 := Resolve(expr.args[1], feature, mapZoom, viewportZoom)
	eq := operand1.Equal(operand2)
	if wantEqual {
		return Bool(eq)
	}
	return Bool(!eq)
}

func evalOrdered(expr Expression, feature Feature, mapZoom int, viewportZoom float64, cmp func(a, b Value) bool) Value {
	if len(expr.args) < 2 {
		return Null
	}
	a := Resolve(expr.args[0], feature, mapZoom, viewportZoom)
	b := Resolve(expr.args[1], feature, mapZoom, viewportZoom)
	return Bool(cmp(a, b))
}

func evalAll(expr Expression, feature Feature, mapZoom int, viewportZoom float64) Value {
	for _, a := range expr.args {
		if !Resolve(a, feature, mapZoom, viewportZoom).Truthy() {
			return Bool(false)
		}
	}
	return Bool(true)
}

func evalAny(expr Expression, feature Feature, mapZoom int, viewportZoom float64) Value {
	for _, a := range expr.args {
		if Resolve(a, feature, mapZoom, viewportZoom).Truthy() {
			return Bool(true)
		}
	}
	return Bool(false)
}

// evalCase walks (cond, value) pairs and returns the value of the
// first truthy cond, falling through to the trailing default.
func evalCase(expr Expression, feature Feature, mapZoom int, viewportZoom float64) Value {
	n := len(expr.args)
	if n == 0 {
		return Null
	}
	i := 0
	for i+1 < n-1 {
		cond := expr.args[i]
		if Resolve(cond, feature, mapZoom, viewportZoom).Truthy() {
			return Resolve(expr.args[i+1], feature, mapZoom, viewportZoom)
		}
		i += 2
	}
	return Resolve(expr.args[n-1], feature, mapZoom, viewportZoom)
}

// evalMatch resolves the input expression, then walks (label, value)
// pairs; a label may be a literal or an array of literals, any element
// match counts. Falls through to the trailing default.
func evalMatch(expr Expression, feature Feature, mapZoom int, viewportZoom float64) Value {
	n := len(expr.args)
	if n < 2 {
		return Null
	}
	input := Resolve(expr.args[0], feature, mapZoom, viewportZoom)

	i := 1
	for i+1 < n-1 {
		label := expr.args[i]
		for _, candidate := range matchLabelValues(label) {
			if input.Equal(candidate) {
				return Resolve(expr.args[i+1], feature, mapZoom, viewportZoom)
			}
		}
		i += 2
	}
	return Resolve(expr.args[n-1], feature, mapZoom, viewportZoom)
}

// isKnownOperator reports whether op names one of Resolve's dispatched
// operators (ignoring a leading "!" negation, except on "!=").
func isKnownOperator(op string) bool {
	base := op
	if op != "!=" && strings.HasPrefix(op, "!") {
		base = op[1:]
	}
	switch base {
	case "get", "has", "in", "==", "!=", ">", "<", ">=", "<=", "all", "any", "case", "match", "coalesce", "interpolate":
		return true
	}
	return false
}

// matchLabelValues returns the set of Values a match label stands for.
// Parse has no label-position context, so a label written as a JSON
// array of strings (the common form, e.g. ["grass","wood","forest"])
// was already turned into an operator node with op="grass" and the
// remaining strings as args, indistinguishable at parse time from a
// real operator call. Label positions resolve that ambiguity instead:
// an operator node whose tag is not one Resolve dispatches on is a
// literal value list, not a call, matching the source's
// array.toVariantList().contains(input) treatment of match labels.
func matchLabelValues(label Expression) []Value {
	if !label.isOp {
		if label.literal.kind == KindArray {
			return label.literal.arr
		}
		return []Value{label.literal}
	}
	if isKnownOperator(label.op) {
		return []Value{Resolve(label, nil, 0, 0)}
	}
	values := make([]Value, 0, len(label.args)+1)
	values = append(values, String(label.op))
	for _, a := range label.args {
		if a.isOp {
			values = append(values, String(a.op))
		} else {
			values = append(values, a.literal)
		}
	}
	return values
}

// evalCoalesce returns the first operand that resolves to a non-null
// value, else Null.
func evalCoalesce(expr Expression, feature Feature, mapZoom int, viewportZoom float64) Value {
	for _, a := range expr.args {
		v := Resolve(a, feature, mapZoom, viewportZoom)
		if v.Valid() {
			return v
		}
	}
	return Null
}

// evalInterpolate implements piecewise-linear interpolation over a
// strictly increasing stop sequence: args[0] is the interpolation type
// (["linear"], only kind supported), args[1] is the input selector
// (["zoom"], only kind supported — the loop's mapZoom is always the
// input), and args[2:] alternate stop, value, stop, value...
func evalInterpolate(expr Expression, feature Feature, mapZoom int, viewportZoom float64) Value {
	const stopsStart = 2
	n := len(expr.args)
	if n < stopsStart+2 {
		return Null
	}

	zoom := float64(mapZoom)

	stopAt := func(i int) float64 {
		f, _ := expr.args[i].literal.AsDouble()
		return f
	}
	valueAt := func(i int) Value {
		return Resolve(expr.args[i], feature, mapZoom, viewportZoom)
	}

	if zoom <= stopAt(stopsStart) {
		return valueAt(stopsStart + 1)
	}
	last := n - 2
	if zoom >= stopAt(last) {
		return valueAt(last + 1)
	}

	index := stopsStart
	for index < n && zoom > stopAt(index) {
		index += 2
	}

	stopInput1 := stopAt(index - 2)
	stopInput2 := stopAt(index)
	out1, _ := valueAt(index - 1).AsDouble()
	out2, _ := valueAt(index + 1).AsDouble()

	lerped := out1 + (zoom-stopInput1)*(out2-out1)/(stopInput2-stopInput1)
	return Double(lerped)
}
