package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindNumber
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	}
	return "null"
}

// Value is a single result cell: Null, Number or String.
// Numbers keep the literal text they arrived with so exports reproduce it.
type Value struct {
	kind Kind
	num  float64
	text string
}

func Null() Value { return Value{} }

func String(s string) Value { return Value{kind: KindString, text: s} }

func Number(f float64) Value {
	return Value{kind: KindNumber, num: f, text: strconv.FormatFloat(f, 'f', -1, 64)}
}

// NumberLiteral builds a Number from its decimal text, e.g. a json.Number.
func NumberLiteral(lit string) (Value, error) {
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return Value{}, fmt.Errorf("parse number %q: %w", lit, err)
	}
	return Value{kind: KindNumber, num: f, text: lit}, nil
}

func (v Value) Kind() Kind     { return v.kind }
func (v Value) IsNull() bool   { return v.kind == KindNull }
func (v Value) Float() float64 { return v.num }

// IsInteger reports whether v is a Number with no fractional part.
func (v Value) IsInteger() bool {
	return v.kind == KindNumber && !math.IsInf(v.num, 0) && v.num == math.Trunc(v.num)
}

// Raw returns the unformatted text of the cell. Null is the empty string.
func (v Value) Raw() string {
	if v.kind == KindNull {
		return ""
	}
	return v.text
}

func (v Value) String() string {
	if v.kind == KindNull {
		return "null"
	}
	return v.text
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumber:
		return []byte(v.text), nil
	case KindString:
		return json.Marshal(v.text)
	}
	return []byte("null"), nil
}

func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decode value: %w", err)
	}
	switch t := tok.(type) {
	case nil:
		*v = Null()
		return nil
	case json.Number:
		n, err := NumberLiteral(t.String())
		if err != nil {
			return err
		}
		*v = n
		return nil
	case string:
		*v = String(t)
		return nil
	case bool:
		*v = String(strconv.FormatBool(t))
		return nil
	}
	// Nested objects and arrays are kept as their JSON text.
	*v = String(string(bytes.TrimSpace(data)))
	return nil
}
