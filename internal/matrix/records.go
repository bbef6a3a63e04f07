package matrix

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
)

// ShapeError reports JSON that is valid but not an array of flat objects.
type ShapeError struct {
	Path string
	Msg  string
}

func (e *ShapeError) Error() string {
	if e.Path == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Msg)
}

// MarshalRecords encodes t as a row-oriented JSON array ("records"). Keys follow column order;
// null cells are written as null.
func (t Table) MarshalRecords() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, r := range t.Rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('{')
		for j, c := range t.Columns {
			if j > 0 {
				buf.WriteByte(',')
			}
			k, err := json.Marshal(c)
			if err != nil {
				return nil, err
			}
			buf.Write(k)
			buf.WriteByte(':')
			v, ok := r[c]
			if !ok {
				buf.WriteString("null")
				continue
			}
			enc, err := json.Marshal(v)
			if err != nil {
				return nil, err
			}
			buf.Write(enc)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// ParseRecords decodes a JSON array of objects into a Table. Columns are the union of keys
// in first-seen order. Scalars become cells: strings as-is, numbers with their literal text,
// booleans as "true"/"false"; null leaves the cell absent. Nested values are a *ShapeError.
func ParseRecords(data []byte) (Table, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return Table{}, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return Table{}, &ShapeError{Msg: fmt.Sprintf("expected a JSON array, got %s", describe(tok))}
	}

	t := NewTable()
	for idx := 0; dec.More(); idx++ {
		keys, row, err := decodeObject(dec, idx)
		if err != nil {
			return Table{}, err
		}
		t.Append(keys, row)
	}
	if _, err := dec.Token(); err != nil { // closing ]
		return Table{}, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err != nil {
			return Table{}, err
		}
		return Table{}, errors.New("unexpected data after the JSON array")
	}
	return t, nil
}

func decodeObject(dec *json.Decoder, idx int) ([]string, Row, error) {
	path := fmt.Sprintf("[%d]", idx)
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, &ShapeError{Path: path, Msg: fmt.Sprintf("expected an object, got %s", describe(tok))}
	}
	var keys []string
	row := Row{}
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := kt.(string)
		if !ok {
			return nil, nil, fmt.Errorf("%s: object key is not a string", path)
		}
		vt, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		if !slices.Contains(keys, key) {
			keys = append(keys, key)
		}
		switch v := vt.(type) {
		case nil:
			// null: absent cell; a later duplicate key still wins
			delete(row, key)
		case string:
			row[key] = v
		case json.Number:
			row[key] = v.String()
		case bool:
			if v {
				row[key] = "true"
			} else {
				row[key] = "false"
			}
		case json.Delim:
			return nil, nil, &ShapeError{Path: path + "." + key, Msg: "nested values are not allowed"}
		default:
			return nil, nil, &ShapeError{Path: path + "." + key, Msg: fmt.Sprintf("unexpected value %v", v)}
		}
	}
	if _, err := dec.Token(); err != nil { // closing }
		return nil, nil, err
	}
	return keys, row, nil
}

func describe(tok json.Token) string {
	switch v := tok.(type) {
	case json.Delim:
		if v == '{' {
			return "an object"
		}
		return "an array"
	case string:
		return "a string"
	case json.Number:
		return "a number"
	case bool:
		return "a boolean"
	case nil:
		return "null"
	}
	return strings.TrimSpace(fmt.Sprintf("%T", tok))
}
