package stdlib

import (
	"strconv"
	"strings"

	"github.com/ThomasRohde/agent0/value"
)

// pathSegment is one step of a dotted/bracketed path: either a record key
// or a list index.
type pathSegment struct {
	key      string
	index    int
	isIndex  bool
}

// parsePath splits "a.b[0].c" into [{a} {b} {0,true} {c}].
func parsePath(path string) ([]pathSegment, error) {
	var segs []pathSegment
	for _, dotPart := range strings.Split(path, ".") {
		if dotPart == "" {
			return nil, argErr("path", "empty path segment in "+strconv.Quote(path))
		}
		rest := dotPart
		for len(rest) > 0 {
			br := strings.IndexByte(rest, '[')
			if br < 0 {
				segs = append(segs, pathSegment{key: rest})
				rest = ""
				break
			}
			if br > 0 {
				segs = append(segs, pathSegment{key: rest[:br]})
			}
			close := strings.IndexByte(rest[br:], ']')
			if close < 0 {
				return nil, argErr("path", "unmatched '[' in "+strconv.Quote(path))
			}
			idxText := rest[br+1 : br+close]
			idx, err := strconv.Atoi(idxText)
			if err != nil {
				return nil, argErr("path", "bad list index in "+strconv.Quote(path))
			}
			segs = append(segs, pathSegment{index: idx, isIndex: true})
			rest = rest[br+close+1:]
		}
	}
	return segs, nil
}

// pathGet projects v through segs, returning null on a missing key, an
// out-of-range index, or a segment that projects through a value that is
// not a record or list. It never returns an error.
func pathGet(v value.Value, segs []pathSegment) (value.Value, error) {
	cur := v
	for _, s := range segs {
		if s.isIndex {
			if !cur.IsList() {
				return value.NewNull(), nil
			}
			elems := cur.Elements()
			if s.index < 0 || s.index >= len(elems) {
				return value.NewNull(), nil
			}
			cur = elems[s.index]
			continue
		}
		if !cur.IsRecord() {
			return value.NewNull(), nil
		}
		next, ok := cur.Get(s.key)
		if !ok {
			return value.NewNull(), nil
		}
		cur = next
	}
	return cur, nil
}

// pathPut returns a new tree equal to v but with newVal set at segs,
// creating intermediate records/lists as needed.
func pathPut(v value.Value, segs []pathSegment, newVal value.Value) (value.Value, error) {
	if len(segs) == 0 {
		return newVal, nil
	}
	head, tail := segs[0], segs[1:]
	if head.isIndex {
		var elems []value.Value
		if v.IsList() {
			elems = append([]value.Value(nil), v.Elements()...)
		}
		for len(elems) <= head.index {
			elems = append(elems, value.NewNull())
		}
		child, err := pathPut(elems[head.index], tail, newVal)
		if err != nil {
			return value.Value{}, err
		}
		elems[head.index] = child
		return value.NewList(elems), nil
	}
	var fields []value.Field
	if v.IsRecord() {
		fields = append([]value.Field(nil), v.Fields()...)
	}
	existing := value.NewNull()
	for _, f := range fields {
		if f.Key == head.key {
			existing = f.Value
			break
		}
	}
	child, err := pathPut(existing, tail, newVal)
	if err != nil {
		return value.Value{}, err
	}
	return value.NewRecord(append(fields, value.Field{Key: head.key, Value: child})), nil
}

func get(args value.Value) (value.Value, error) {
	in, err := reqField("get", args, "in")
	if err != nil {
		return value.Value{}, err
	}
	path, err := reqString("get", args, "path")
	if err != nil {
		return value.Value{}, err
	}
	segs, err := parsePath(path)
	if err != nil {
		return value.Value{}, err
	}
	return pathGet(in, segs)
}

func put(args value.Value) (value.Value, error) {
	in, err := reqField("put", args, "in")
	if err != nil {
		return value.Value{}, err
	}
	path, err := reqString("put", args, "path")
	if err != nil {
		return value.Value{}, err
	}
	newVal, err := reqField("put", args, "value")
	if err != nil {
		return value.Value{}, err
	}
	segs, err := parsePath(path)
	if err != nil {
		return value.Value{}, err
	}
	return pathPut(in, segs, newVal)
}

// patch applies a list of RFC-6902-style operations {op, path, value?} in
// order: add/replace set a path, remove deletes a key or truncates by
// rebuilding without that index.
func patch(args value.Value) (value.Value, error) {
	in, err := reqField("patch", args, "in")
	if err != nil {
		return value.Value{}, err
	}
	ops, err := reqList("patch", args, "ops")
	if err != nil {
		return value.Value{}, err
	}
	cur := in
	for _, opV := range ops {
		if !opV.IsRecord() {
			return value.Value{}, argErr("patch", "each op must be a record")
		}
		opName, err := reqString("patch", opV, "op")
		if err != nil {
			return value.Value{}, err
		}
		path, err := reqString("patch", opV, "path")
		if err != nil {
			return value.Value{}, err
		}
		segs, err := parsePath(path)
		if err != nil {
			return value.Value{}, err
		}
		switch opName {
		case "add", "replace":
			val, err := reqField("patch", opV, "value")
			if err != nil {
				return value.Value{}, err
			}
			cur, err = pathPut(cur, segs, val)
			if err != nil {
				return value.Value{}, err
			}
		case "remove":
			cur, err = pathRemove(cur, segs)
			if err != nil {
				return value.Value{}, err
			}
		default:
			return value.Value{}, argErr("patch", "unsupported op "+strconv.Quote(opName))
		}
	}
	return cur, nil
}

func pathRemove(v value.Value, segs []pathSegment) (value.Value, error) {
	if len(segs) == 0 {
		return value.NewNull(), nil
	}
	head, tail := segs[0], segs[1:]
	if len(tail) > 0 {
		if head.isIndex {
			if !v.IsList() {
				return v, nil
			}
			elems := append([]value.Value(nil), v.Elements()...)
			if head.index < 0 || head.index >= len(elems) {
				return v, nil
			}
			child, err := pathRemove(elems[head.index], tail)
			if err != nil {
				return value.Value{}, err
			}
			elems[head.index] = child
			return value.NewList(elems), nil
		}
		if !v.IsRecord() {
			return v, nil
		}
		existing, ok := v.Get(head.key)
		if !ok {
			return v, nil
		}
		child, err := pathRemove(existing, tail)
		if err != nil {
			return value.Value{}, err
		}
		return v.WithField(head.key, child), nil
	}
	if head.isIndex {
		if !v.IsList() {
			return v, nil
		}
		elems := v.Elements()
		if head.index < 0 || head.index >= len(elems) {
			return v, nil
		}
		out := make([]value.Value, 0, len(elems)-1)
		out = append(out, elems[:head.index]...)
		out = append(out, elems[head.index+1:]...)
		return value.NewList(out), nil
	}
	if !v.IsRecord() {
		return v, nil
	}
	out := make([]value.Field, 0, len(v.Fields()))
	for _, f := range v.Fields() {
		if f.Key != head.key {
			out = append(out, f)
		}
	}
	return value.NewRecord(out), nil
}

func parseJSON(args value.Value) (value.Value, error) {
	text, err := reqString("parse.json", args, "text")
	if err != nil {
		return value.Value{}, err
	}
	return value.FromJSON([]byte(text))
}
