package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Kind is the type tag of a JSON value
type Kind int

const (
	Null Kind = iota
	Bool
	Number
	String
	Array
	Object
)

var kindNames = [...]string{
	Null:   "null",
	Bool:   "boolean",
	Number: "number",
	String: "string",
	Array:  "array",
	Object: "object",
}

func (k Kind) String() string {
	if k < Null || k > Object {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// MarshalText renders the kind by name in JSON output
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Member is one key of an object, kept in document order
type Member struct {
	Key   string
	Value Value
}

/* Value is a parsed JSON value
 * Only the field matching Kind is meaningful
 */
type Value struct {
	Kind    Kind
	Bool    bool
	Number  json.Number
	String  string
	Items   []Value
	Members []Member
}

// MaxDepth bounds array and object nesting; every level adds a field path
const MaxDepth = 512

var (
	errTrailingData = errors.New("trailing data after JSON value")

	// ErrTooDeep is returned for documents nested deeper than MaxDepth
	ErrTooDeep = errors.New("JSON nested too deeply")
)

// Parse decodes exactly one JSON document
func Parse(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := parseValue(dec, 0)
	if err != nil {
		return Value{}, err
	}

	if _, err := dec.Token(); err != io.EOF {
		return Value{}, errTrailingData
	}

	return v, nil
}

func parseValue(dec *json.Decoder, depth int) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}

	switch t := tok.(type) {
	case nil:
		return Value{Kind: Null}, nil
	case bool:
		return Value{Kind: Bool, Bool: t}, nil
	case json.Number:
		return Value{Kind: Number, Number: t}, nil
	case string:
		return Value{Kind: String, String: t}, nil
	case json.Delim:
		if depth >= MaxDepth {
			return Value{}, ErrTooDeep
		}
		switch t {
		case '{':
			return parseObject(dec, depth+1)
		case '[':
			return parseArray(dec, depth+1)
		}
	}

	return Value{}, fmt.Errorf("unexpected token %v", tok)
}

func parseObject(dec *json.Decoder, depth int) (Value, error) {
	v := Value{Kind: Object, Members: []Member{}}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Value{}, err
		}
		key, ok := tok.(string)
		if !ok {
			return Value{}, fmt.Errorf("unexpected object key %v", tok)
		}

		member, err := parseValue(dec, depth)
		if err != nil {
			return Value{}, err
		}
		v.Members = append(v.Members, Member{Key: key, Value: member})
	}

	// closing brace
	if _, err := dec.Token(); err != nil {
		return Value{}, err
	}
	return v, nil
}

func parseArray(dec *json.Decoder, depth int) (Value, error) {
	v := Value{Kind: Array, Items: []Value{}}
	for dec.More() {
		item, err := parseValue(dec, depth)
		if err != nil {
			return Value{}, err
		}
		v.Items = append(v.Items, item)
	}

	if _, err := dec.Token(); err != nil {
		return Value{}, err
	}
	return v, nil
}
