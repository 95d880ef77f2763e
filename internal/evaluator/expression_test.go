package evaluator

import "testing"

func grassFeature() Feature {
	return &StaticFeature{Meta: map[string]Value{"class": String("grass")}}
}

// TestGet_Positive covers S3's positive case: a present key resolves
// to its metadata value.
func TestGet_Positive(t *testing.T) {
	expr := Parse([]any{"get", "class"})
	got := Resolve(expr, grassFeature(), 0, 0)
	s, ok := got.AsString()
	if !ok || s != "grass" {
		t.Fatalf("get class = %v, want grass", got.Interface())
	}
}

// TestGet_Negative covers S3's negative case: a missing key resolves
// to Null, not an error.
func TestGet_Negative(t *testing.T) {
	expr := Parse([]any{"get", "nope"})
	got := Resolve(expr, grassFeature(), 0, 0)
	if !got.IsNull() {
		t.Fatalf("get nope = %v, want Null", got.Interface())
	}
}

func caseExpr() Expression {
	return Parse([]any{
		"case",
		[]any{"==", []any{"get", "class"}, "neighbourhood"},
		float64(15),
		float64(20),
	})
}

// TestCase_PredicateTrue covers S4's true branch.
func TestCase_PredicateTrue(t *testing.T) {
	feature := &StaticFeature{Meta: map[string]Value{"class": String("neighbourhood")}}
	got := Resolve(caseExpr(), feature, 0, 0)
	f, ok := got.AsDouble()
	if !ok || f != 15 {
		t.Fatalf("case(true) = %v, want 15", got.Interface())
	}
}

// TestCase_PredicateFalse covers S4's fallthrough-to-default branch.
func TestCase_PredicateFalse(t *testing.T) {
	feature := &StaticFeature{Meta: map[string]Value{"class": String("residential")}}
	got := Resolve(caseExpr(), feature, 0, 0)
	f, ok := got.AsDouble()
	if !ok || !approxEqual(f, 20, 1e-4) {
		t.Fatalf("case(false) = %v, want 20", got.Interface())
	}
}

func interpolateExpr() Expression {
	return Parse([]any{
		"interpolate", []any{"linear"}, []any{"zoom"},
		float64(3), float64(11),
		float64(8), float64(13),
		float64(11), float64(16),
		float64(13), float64(18),
		float64(18), float64(21),
	})
}

// TestInterpolate_MidRange covers S5: zoom 5 falls strictly between
// the first two stops and must lerp.
func TestInterpolate_MidRange(t *testing.T) {
	got := Resolve(interpolateExpr(), nil, 5, 5)
	f, ok := got.AsDouble()
	if !ok || !approxEqual(f, 11.8, 1e-4) {
		t.Fatalf("interpolate(5) = %v, want 11.8", got.Interface())
	}
}

// TestInterpolate_BelowLowestStop covers S5: zoom at or below the
// first stop clamps to its output.
func TestInterpolate_BelowLowestStop(t *testing.T) {
	got := Resolve(interpolateExpr(), nil, 2, 2)
	f, ok := got.AsDouble()
	if !ok || !approxEqual(f, 11, 1e-4) {
		t.Fatalf("interpolate(2) = %v, want 11", got.Interface())
	}
}

// TestInterpolate_AboveHighestStop covers S5: zoom at or above the
// last stop clamps to its output.
func TestInterpolate_AboveHighestStop(t *testing.T) {
	got := Resolve(interpolateExpr(), nil, 18, 18)
	f, ok := got.AsDouble()
	if !ok || !approxEqual(f, 21, 1e-4) {
		t.Fatalf("interpolate(18) = %v, want 21", got.Interface())
	}
}

// TestInterpolate_ExactStop covers the boundary where zoom lands
// exactly on an interior stop.
func TestInterpolate_ExactStop(t *testing.T) {
	got := Resolve(interpolateExpr(), nil, 11, 11)
	f, ok := got.AsDouble()
	if !ok || !approxEqual(f, 16, 1e-4) {
		t.Fatalf("interpolate(11) = %v, want 16", got.Interface())
	}
}

// TestResolve_Deterministic covers invariant 4 (purity): resolving the
// same expression against the same feature and zoom twice must yield
// identical results, with no observable side effect on the feature.
func TestResolve_Deterministic(t *testing.T) {
	feature := &StaticFeature{Meta: map[string]Value{"class": String("neighbourhood")}}
	expr := caseExpr()
	first := Resolve(expr, feature, 3, 3.5)
	second := Resolve(expr, feature, 3, 3.5)
	if !first.Equal(second) {
		t.Fatalf("Resolve not deterministic: %v != %v", first.Interface(), second.Interface())
	}
}

// TestTypeSpecialCase covers the "$type" special case: comparing
// against "$type" resolves the feature's geometry kind rather than a
// metadata lookup.
func TestTypeSpecialCase(t *testing.T) {
	feature := &StaticFeature{Kind: GeometryPolygon}
	expr := Parse([]any{"==", "$type", "Polygon"})
	got := Resolve(expr, feature, 0, 0)
	if !got.Truthy() {
		t.Fatalf("$type compare = %v, want true", got.Interface())
	}
}

// TestUnknownOperator_YieldsNull covers the "robustness" contract: an
// unrecognized operator tag never errors, it resolves to Null.
func TestUnknownOperator_YieldsNull(t *testing.T) {
	expr := Parse([]any{"not-a-real-operator", "x"})
	got := Resolve(expr, grassFeature(), 0, 0)
	if !got.IsNull() {
		t.Fatalf("unknown operator = %v, want Null", got.Interface())
	}
}

// TestIn_Negation covers "!in": negated membership test.
func TestIn_Negation(t *testing.T) {
	expr := Parse([]any{"!in", "grass", "water", "sand"})
	got := Resolve(expr, grassFeature(), 0, 0)
	if !got.Truthy() {
		t.Fatalf("!in(grass, [water, sand]) = %v, want true", got.Interface())
	}

	memberExpr := Parse([]any{"in", "grass", "water", "grass"})
	member := Resolve(memberExpr, grassFeature(), 0, 0)
	if !member.Truthy() {
		t.Fatalf("in(grass, [water, grass]) = %v, want true", member.Interface())
	}
}

// TestMatch_ArrayLabel covers match against a numeric array-valued
// label, any element matching counts as a hit.
func TestMatch_ArrayLabel(t *testing.T) {
	feature := &StaticFeature{Meta: map[string]Value{"classCode": Int(2)}}
	expr := Parse([]any{
		"match", []any{"get", "classCode"},
		[]any{float64(1), float64(2)}, "green",
		"blue",
	})
	got := Resolve(expr, feature, 0, 0)
	s, ok := got.AsString()
	if !ok || s != "green" {
		t.Fatalf("match(array label) = %v, want green", got.Interface())
	}
}

// TestMatch_StringArrayLabel covers the dominant real-world match
// form, a label written as a JSON array of strings (e.g.
// ["grass","wood","forest"]). Parse has no label-position context, so
// this decodes into an operator node with op="grass" and the
// remaining strings as args; matchLabelValues resolves that ambiguity
// by treating an operator node whose tag isn't a known operator as
// the literal value list it actually is.
func TestMatch_StringArrayLabel(t *testing.T) {
	feature := &StaticFeature{Meta: map[string]Value{"class": String("wood")}}
	expr := Parse([]any{
		"match", []any{"get", "class"},
		[]any{"grass", "wood", "forest"}, "green",
		[]any{"water"}, "blue",
		"gray",
	})
	got := Resolve(expr, feature, 0, 0)
	s, ok := got.AsString()
	if !ok || s != "green" {
		t.Fatalf("match(string array label) = %v, want green", got.Interface())
	}
}

// TestMatch_StringArrayLabel_NoMatchFallsThroughToDefault covers the
// same string-array-label form missing its input, falling through to
// the trailing default rather than matching "water" against the
// single-element array label.
func TestMatch_StringArrayLabel_NoMatchFallsThroughToDefault(t *testing.T) {
	feature := &StaticFeature{Meta: map[string]Value{"class": String("road")}}
	expr := Parse([]any{
		"match", []any{"get", "class"},
		[]any{"grass", "wood", "forest"}, "green",
		[]any{"water"}, "blue",
		"gray",
	})
	got := Resolve(expr, feature, 0, 0)
	s, ok := got.AsString()
	if !ok || s != "gray" {
		t.Fatalf("match(string array label) = %v, want gray", got.Interface())
	}
}

// TestCoalesce_SkipsNull covers coalesce falling through a Null
// operand to the first valid one.
func TestCoalesce_SkipsNull(t *testing.T) {
	expr := Parse([]any{"coalesce", []any{"get", "missing"}, []any{"get", "class"}})
	got := Resolve(expr, grassFeature(), 0, 0)
	s, ok := got.AsString()
	if !ok || s != "grass" {
		t.Fatalf("coalesce = %v, want grass", got.Interface())
	}
}

// TestNumericEquality_CoercesIntAndDouble covers the Int/Double
// coercion rule for "==".
func TestNumericEquality_CoercesIntAndDouble(t *testing.T) {
	feature := &StaticFeature{Meta: map[string]Value{"count": Int(4)}}
	expr := Parse([]any{"==", []any{"get", "count"}, float64(4)})
	got := Resolve(expr, feature, 0, 0)
	if !got.Truthy() {
		t.Fatalf("int/double equality = %v, want true", got.Interface())
	}
}
