package stdlib

import (
	"sort"

	"github.com/ThomasRohde/agent0/value"
)

func length(args value.Value) (value.Value, error) {
	v, err := reqField("len", args, "value")
	if err != nil {
		return value.Value{}, err
	}
	switch v.Kind() {
	case value.String:
		return value.NewNumber(float64(len([]rune(v.String())))), nil
	case value.List:
		return value.NewNumber(float64(len(v.Elements()))), nil
	case value.Record:
		return value.NewNumber(float64(len(v.Fields()))), nil
	default:
		return value.Value{}, argErr("len", "value must be a string, list, or record")
	}
}

func appendFn(args value.Value) (value.Value, error) {
	in, err := reqList("append", args, "in")
	if err != nil {
		return value.Value{}, err
	}
	item, err := reqField("append", args, "value")
	if err != nil {
		return value.Value{}, err
	}
	out := make([]value.Value, len(in)+1)
	copy(out, in)
	out[len(in)] = item
	return value.NewList(out), nil
}

func concat(args value.Value) (value.Value, error) {
	a, err := reqList("concat", args, "a")
	if err != nil {
		return value.Value{}, err
	}
	b, err := reqList("concat", args, "b")
	if err != nil {
		return value.Value{}, err
	}
	out := make([]value.Value, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	return value.NewList(out), nil
}

// sort_ sorts a list ascending. Numbers compare numerically, strings
// lexically; an optional "by" string field picks a record key to sort on,
// in which case every element must be a record.
func sort_(args value.Value) (value.Value, error) {
	in, err := reqList("sort", args, "in")
	if err != nil {
		return value.Value{}, err
	}
	by := ""
	if byV, ok := args.Get("by"); ok {
		if !byV.IsString() {
			return value.Value{}, argErr("sort", "by must be a string")
		}
		by = byV.String()
	}
	out := make([]value.Value, len(in))
	copy(out, in)
	keyOf := func(v value.Value) (value.Value, error) {
		if by == "" {
			return v, nil
		}
		if !v.IsRecord() {
			return value.Value{}, argErr("sort", "element is not a record but by was given")
		}
		k, _ := v.Get(by)
		return k, nil
	}
	var sortErr error
	sort.SliceStable(out, func(i, j int) bool {
		if sortErr != nil {
			return false
		}
		ki, err := keyOf(out[i])
		if err != nil {
			sortErr = err
			return false
		}
		kj, err := keyOf(out[j])
		if err != nil {
			sortErr = err
			return false
		}
		switch {
		case ki.IsNumber() && kj.IsNumber():
			return ki.Number() < kj.Number()
		case ki.IsString() && kj.IsString():
			return ki.String() < kj.String()
		default:
			sortErr = argErr("sort", "elements must compare as two numbers or two strings")
			return false
		}
	})
	if sortErr != nil {
		return value.Value{}, sortErr
	}
	return value.NewList(out), nil
}

// filterFallback is the stdlib "keep where element[by] is truthy" form
// (spec.md §4.7 "filter with by: instead of fn:"). The evaluator's
// higher-order dispatch calls this directly when by: is present instead of
// fn:; a bare fn: call never reaches the registry at all.
func filterFallback(args value.Value) (value.Value, error) {
	in, err := reqList("filter", args, "in")
	if err != nil {
		return value.Value{}, err
	}
	by, err := reqString("filter", args, "by")
	if err != nil {
		return value.Value{}, err
	}
	out := make([]value.Value, 0, len(in))
	for _, e := range in {
		if !e.IsRecord() {
			return value.Value{}, argErr("filter", "element is not a record but by was given")
		}
		field, _ := e.Get(by)
		if field.Truthy() {
			out = append(out, e)
		}
	}
	return value.NewList(out), nil
}

// find returns the first element deep-equal to value, optionally restricted
// to the field named by the "by" key, else null if none match.
func find(args value.Value) (value.Value, error) {
	in, err := reqList("find", args, "in")
	if err != nil {
		return value.Value{}, err
	}
	needle, err := reqField("find", args, "value")
	if err != nil {
		return value.Value{}, err
	}
	by := ""
	if byV, ok := args.Get("by"); ok {
		if !byV.IsString() {
			return value.Value{}, argErr("find", "by must be a string")
		}
		by = byV.String()
	}
	for _, e := range in {
		candidate := e
		if by != "" {
			if !e.IsRecord() {
				return value.Value{}, argErr("find", "element is not a record but by was given")
			}
			candidate, _ = e.Get(by)
		}
		if value.DeepEqual(candidate, needle) {
			return e, nil
		}
	}
	return value.NewNull(), nil
}

// rangeFn builds [from, to) stepping by step (default 1).
func rangeFn(args value.Value) (value.Value, error) {
	fromV, err := reqField("range", args, "from")
	if err != nil {
		return value.Value{}, err
	}
	toV, err := reqField("range", args, "to")
	if err != nil {
		return value.Value{}, err
	}
	if !fromV.IsNumber() || !toV.IsNumber() {
		return value.Value{}, argErr("range", "from and to must be numbers")
	}
	step := 1.0
	if stepV, ok := args.Get("step"); ok {
		if !stepV.IsNumber() || stepV.Number() == 0 {
			return value.Value{}, argErr("range", "step must be a nonzero number")
		}
		step = stepV.Number()
	}
	from, to := fromV.Number(), toV.Number()
	var out []value.Value
	if step > 0 {
		for n := from; n < to; n += step {
			out = append(out, value.NewNumber(n))
		}
	} else {
		for n := from; n > to; n += step {
			out = append(out, value.NewNumber(n))
		}
	}
	return value.NewList(out), nil
}

func join(args value.Value) (value.Value, error) {
	in, err := reqList("join", args, "in")
	if err != nil {
		return value.Value{}, err
	}
	sep, err := reqString("join", args, "sep")
	if err != nil {
		return value.Value{}, err
	}
	parts := make([]string, len(in))
	for i, e := range in {
		if !e.IsString() {
			return value.Value{}, argErr("join", "every element must be a string")
		}
		parts[i] = e.String()
	}
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += sep
		}
		out += p
	}
	return value.NewString(out), nil
}

func unique(args value.Value) (value.Value, error) {
	in, err := reqList("unique", args, "in")
	if err != nil {
		return value.Value{}, err
	}
	var out []value.Value
	for _, e := range in {
		dup := false
		for _, seen := range out {
			if value.DeepEqual(seen, e) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, e)
		}
	}
	return value.NewList(out), nil
}

func pluck(args value.Value) (value.Value, error) {
	in, err := reqList("pluck", args, "in")
	if err != nil {
		return value.Value{}, err
	}
	key, err := reqString("pluck", args, "key")
	if err != nil {
		return value.Value{}, err
	}
	out := make([]value.Value, len(in))
	for i, e := range in {
		if !e.IsRecord() {
			return value.Value{}, argErr("pluck", "every element must be a record")
		}
		v, _ := e.Get(key)
		out[i] = v
	}
	return value.NewList(out), nil
}

// flat flattens one level of list nesting; non-list elements pass through.
func flat(args value.Value) (value.Value, error) {
	in, err := reqList("flat", args, "in")
	if err != nil {
		return value.Value{}, err
	}
	var out []value.Value
	for _, e := range in {
		if e.IsList() {
			out = append(out, e.Elements()...)
		} else {
			out = append(out, e)
		}
	}
	return value.NewList(out), nil
}

func keys(args value.Value) (value.Value, error) {
	in, err := reqField("keys", args, "in")
	if err != nil {
		return value.Value{}, err
	}
	if !in.IsRecord() {
		return value.Value{}, argErr("keys", "in must be a record")
	}
	fields := in.Fields()
	out := make([]value.Value, len(fields))
	for i, f := range fields {
		out[i] = value.NewString(f.Key)
	}
	return value.NewList(out), nil
}

func values(args value.Value) (value.Value, error) {
	in, err := reqField("values", args, "in")
	if err != nil {
		return value.Value{}, err
	}
	if !in.IsRecord() {
		return value.Value{}, argErr("values", "in must be a record")
	}
	fields := in.Fields()
	out := make([]value.Value, len(fields))
	for i, f := range fields {
		out[i] = f.Value
	}
	return value.NewList(out), nil
}

// merge shallow-merges two records; b's keys override a's, a's ordering
// preserved with b's new keys appended (same rule as record-literal spread).
func merge(args value.Value) (value.Value, error) {
	a, err := reqField("merge", args, "a")
	if err != nil {
		return value.Value{}, err
	}
	b, err := reqField("merge", args, "b")
	if err != nil {
		return value.Value{}, err
	}
	if !a.IsRecord() || !b.IsRecord() {
		return value.Value{}, argErr("merge", "a and b must be records")
	}
	fields := append([]value.Field(nil), a.Fields()...)
	fields = append(fields, b.Fields()...)
	return value.NewRecord(fields), nil
}

func entries(args value.Value) (value.Value, error) {
	in, err := reqField("entries", args, "in")
	if err != nil {
		return value.Value{}, err
	}
	if !in.IsRecord() {
		return value.Value{}, argErr("entries", "in must be a record")
	}
	fields := in.Fields()
	out := make([]value.Value, len(fields))
	for i, f := range fields {
		out[i] = value.NewRecord([]value.Field{
			{Key: "key", Value: value.NewString(f.Key)},
			{Key: "value", Value: f.Value},
		})
	}
	return value.NewList(out), nil
}

func mathMax(args value.Value) (value.Value, error) {
	a, err := reqField("math.max", args, "a")
	if err != nil {
		return value.Value{}, err
	}
	b, err := reqField("math.max", args, "b")
	if err != nil {
		return value.Value{}, err
	}
	if !a.IsNumber() || !b.IsNumber() {
		return value.Value{}, argErr("math.max", "a and b must be numbers")
	}
	if a.Number() >= b.Number() {
		return a, nil
	}
	return b, nil
}

func mathMin(args value.Value) (value.Value, error) {
	a, err := reqField("math.min", args, "a")
	if err != nil {
		return value.Value{}, err
	}
	b, err := reqField("math.min", args, "b")
	if err != nil {
		return value.Value{}, err
	}
	if !a.IsNumber() || !b.IsNumber() {
		return value.Value{}, argErr("math.min", "a and b must be numbers")
	}
	if a.Number() <= b.Number() {
		return a, nil
	}
	return b, nil
}
