package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
)

var errNotObject = errors.New("command is not a JSON object")

// document is a decoded command with tolerant typed accessors. A missing
// or wrong-typed field reads as absent.
type document struct {
	fields map[string]any
}

func parseDocument(raw []byte) (document, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return document{}, err
	}
	if dec.More() {
		return document{}, errors.New("trailing data after command")
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return document{}, errNotObject
	}
	return document{fields: obj}, nil
}

func (d document) has(key string) bool {
	_, ok := d.fields[key]
	return ok
}

func (d document) str(key string) (string, bool) {
	s, ok := d.fields[key].(string)
	return s, ok
}

// integer accepts JSON numbers with an integral value.
func (d document) integer(key string) (int, bool) {
	n, ok := d.fields[key].(json.Number)
	if !ok {
		return 0, false
	}
	if i, err := n.Int64(); err == nil {
		return int(i), true
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

// boolean accepts true/false and the integers 0 and 1.
func (d document) boolean(key string) (bool, bool) {
	switch v := d.fields[key].(type) {
	case bool:
		return v, true
	case json.Number:
		i, err := v.Int64()
		if err != nil || (i != 0 && i != 1) {
			return false, false
		}
		return i == 1, true
	default:
		return false, false
	}
}
