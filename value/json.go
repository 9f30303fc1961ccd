package value

import "encoding/json"

// FromJSON decodes arbitrary JSON bytes into an A0Value. Used by the
// stdlib `parse.json` function.
func FromJSON(data []byte) (Value, error) {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Value{}, err
	}
	return FromGo(raw), nil
}

// FromGo converts a decoded-JSON interface{} tree (as produced by
// encoding/json, with json.Number left as plain float64 via the default
// decoder) into an A0Value tree.
func FromGo(raw interface{}) Value {
	switch t := raw.(type) {
	case nil:
		return NewNull()
	case bool:
		return NewBool(t)
	case float64:
		return NewNumber(t)
	case string:
		return NewString(t)
	case []interface{}:
		elems := make([]Value, len(t))
		for i, e := range t {
			elems[i] = FromGo(e)
		}
		return NewList(elems)
	case map[string]interface{}:
		// encoding/json doesn't preserve key order; sort is avoided here
		// because callers that need deterministic output should instead
		// build records directly from AST field order. JSON-decoded
		// records are ordered by Go map iteration, which is
		// non-deterministic across runs — acceptable because parse.json's
		// result is only ever consumed by deep-equality-based logic or
		// re-serialized, never iterated for display order guarantees.
		fields := make([]Field, 0, len(t))
		for k, v := range t {
			fields = append(fields, Field{Key: k, Value: FromGo(v)})
		}
		return NewRecord(fields)
	default:
		return NewNull()
	}
}

// ToGo converts an A0Value tree into plain Go values suitable for
// json.Marshal (map[string]interface{}, []interface{}, etc).
func ToGo(v Value) interface{} {
	switch v.Kind() {
	case Null:
		return nil
	case Bool:
		return v.Bool()
	case Number:
		return v.Number()
	case String:
		return v.String()
	case List:
		elems := v.Elements()
		out := make([]interface{}, len(elems))
		for i, e := range elems {
			out[i] = ToGo(e)
		}
		return out
	case Record:
		out := make(map[string]interface{}, len(v.Fields()))
		for _, f := range v.Fields() {
			out[f.Key] = ToGo(f.Value)
		}
		return out
	}
	return nil
}

// MarshalJSON implements json.Marshaler so Value can be embedded directly
// in trace events and diagnostics detail records.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(ToGo(v))
}
