package stdlib

import (
	"strings"

	"github.com/ThomasRohde/agent0/value"
)

func strConcat(args value.Value) (value.Value, error) {
	a, err := reqString("str.concat", args, "a")
	if err != nil {
		return value.Value{}, err
	}
	b, err := reqString("str.concat", args, "b")
	if err != nil {
		return value.Value{}, err
	}
	return value.NewString(a + b), nil
}

func strSplit(args value.Value) (value.Value, error) {
	in, err := reqString("str.split", args, "in")
	if err != nil {
		return value.Value{}, err
	}
	sep, err := reqString("str.split", args, "sep")
	if err != nil {
		return value.Value{}, err
	}
	parts := strings.Split(in, sep)
	out := make([]value.Value, len(parts))
	for i, p := range parts {
		out[i] = value.NewString(p)
	}
	return value.NewList(out), nil
}

func strStarts(args value.Value) (value.Value, error) {
	in, err := reqString("str.starts", args, "in")
	if err != nil {
		return value.Value{}, err
	}
	prefix, err := reqString("str.starts", args, "prefix")
	if err != nil {
		return value.Value{}, err
	}
	return value.NewBool(strings.HasPrefix(in, prefix)), nil
}

func strEnds(args value.Value) (value.Value, error) {
	in, err := reqString("str.ends", args, "in")
	if err != nil {
		return value.Value{}, err
	}
	suffix, err := reqString("str.ends", args, "suffix")
	if err != nil {
		return value.Value{}, err
	}
	return value.NewBool(strings.HasSuffix(in, suffix)), nil
}

func strReplace(args value.Value) (value.Value, error) {
	in, err := reqString("str.replace", args, "in")
	if err != nil {
		return value.Value{}, err
	}
	old, err := reqString("str.replace", args, "old")
	if err != nil {
		return value.Value{}, err
	}
	newS, err := reqString("str.replace", args, "new")
	if err != nil {
		return value.Value{}, err
	}
	return value.NewString(strings.ReplaceAll(in, old, newS)), nil
}

// strTemplate substitutes {key} placeholders from the vars record; a
// placeholder with no matching key passes through unchanged.
func strTemplate(args value.Value) (value.Value, error) {
	tmpl, err := reqString("str.template", args, "template")
	if err != nil {
		return value.Value{}, err
	}
	varsV, err := reqField("str.template", args, "vars")
	if err != nil {
		return value.Value{}, err
	}
	if !varsV.IsRecord() {
		return value.Value{}, argErr("str.template", "vars must be a record")
	}

	var b strings.Builder
	i := 0
	for i < len(tmpl) {
		if tmpl[i] == '{' {
			end := strings.IndexByte(tmpl[i:], '}')
			if end < 0 {
				b.WriteString(tmpl[i:])
				break
			}
			key := tmpl[i+1 : i+end]
			if v, ok := varsV.Get(key); ok {
				b.WriteString(v.String())
			} else {
				b.WriteString(tmpl[i : i+end+1])
			}
			i += end + 1
			continue
		}
		b.WriteByte(tmpl[i])
		i++
	}
	return value.NewString(b.String()), nil
}
