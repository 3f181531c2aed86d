// Package lookup resolves a scanned code against a header+rows table.
//
// A Service fetches one fresh Snapshot per request from a Source, finds the
// code column by its header, and returns the first row whose code cell equals
// the requested code, keyed by the header.
//
// Example usage:
//
//	svc := lookup.NewService(source, lookup.WithRange("ACCESODEUSUARIOS"))
//	res, err := svc.Lookup(ctx, "A2")
//	if err != nil {
//	    // ErrEmptyCode, ErrEmptyTable, *ColumnError or *SourceError
//	}
//	if res.Found {
//	    name, _ := res.Record.Get("NOMBRE")
//	}
package lookup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

// Source returns an immutable snapshot of a named range.
// Implementations report failures as *SourceError.
type Source interface {
	Snapshot(ctx context.Context, rangeName string) (*Snapshot, error)
}

// Snapshot is a header row plus data rows. Rows may be shorter than Headers.
type Snapshot struct {
	Headers []string
	Rows    [][]string
}

// NewSnapshot splits raw values into a header row and data rows.
// An empty table yields a snapshot with no headers and no rows.
func NewSnapshot(values [][]string) *Snapshot {
	if len(values) == 0 {
		return &Snapshot{}
	}
	return &Snapshot{Headers: values[0], Rows: values[1:]}
}

// Empty reports whether the snapshot has no data rows.
func (s *Snapshot) Empty() bool {
	return s == nil || len(s.Rows) == 0
}

// Field is one header/value pair of a Record.
type Field struct {
	Key   string
	Value string
}

// Record maps header cells to the values of one row, in header order.
type Record struct {
	fields []Field
}

// NewRecord pairs each header with the cell at the same position. Cells
// past the end of row are empty. A repeated header keeps its first position
// and takes the later value.
func NewRecord(headers, row []string) Record {
	r := Record{fields: make([]Field, 0, len(headers))}
	for i, h := range headers {
		v := ""
		if i < len(row) {
			v = row[i]
		}
		r.set(h, v)
	}
	return r
}

func (r *Record) set(key, value string) {
	for i := range r.fields {
		if r.fields[i].Key == key {
			r.fields[i].Value = value
			return
		}
	}
	r.fields = append(r.fields, Field{Key: key, Value: value})
}

// Get returns the value stored under key.
func (r Record) Get(key string) (string, bool) {
	for _, f := range r.fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// Keys returns the keys in header order.
func (r Record) Keys() []string {
	keys := make([]string, len(r.fields))
	for i, f := range r.fields {
		keys[i] = f.Key
	}
	return keys
}

// Fields returns a copy of the fields in header order.
func (r Record) Fields() []Field {
	out := make([]Field, len(r.fields))
	copy(out, r.fields)
	return out
}

// Len returns the number of fields.
func (r Record) Len() int {
	return len(r.fields)
}

// MarshalJSON encodes the record as a JSON object in header order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object keeping key order. Non-string values
// are stored in their JSON text form.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("lookup: record must be a JSON object")
	}

	out := Record{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("lookup: unexpected record key %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			s = string(raw)
		}
		out.set(key, s)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*r = out
	return nil
}

// Result is the outcome of a lookup that reached the table. Found is false
// when no row carries Code.
type Result struct {
	Found  bool
	Code   string
	Record Record
}
