// Package sheet turns spreadsheet-shaped grids into typed records and
// computes filters, sums, percentages and day buckets over them.
//
// Every function in the package is pure and total: malformed cells become
// field defaults and empty input produces empty results. The only error the
// package returns is an invalid Schema.
package sheet

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
)

// Grid is a header row followed by data rows of loosely typed cells.
type Grid [][]any

// Canonical field names shared by every report.
const (
	FieldDate = "date"
	FieldZone = "zone"
	FieldGM   = "gm"
	FieldHour = "hour"
)

type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	}
	return "unknown"
}

// Field maps one canonical name to the headers it may appear under.
type Field struct {
	Name    string
	Aliases []string
	Kind    Kind
}

// Schema is the declarative description of one report table.
type Schema struct {
	Name   string
	Fields []Field
}

var ErrInvalidSchema = eris.New("invalid schema")

// Validate reports programmer errors in a schema.
func (s Schema) Validate() error {
	seen := make(map[string]struct{}, len(s.Fields))
	hasDate := false
	for _, f := range s.Fields {
		if strings.TrimSpace(f.Name) == "" {
			return eris.Wrapf(ErrInvalidSchema, "%s: empty field name", s.Name)
		}
		if _, dup := seen[f.Name]; dup {
			return eris.Wrapf(ErrInvalidSchema, "%s: duplicate field %q", s.Name, f.Name)
		}
		seen[f.Name] = struct{}{}
		switch f.Kind {
		case KindString, KindNumber, KindDate:
		default:
			return eris.Wrapf(ErrInvalidSchema, "%s: field %q has unknown kind %d", s.Name, f.Name, int(f.Kind))
		}
		if f.Name == FieldDate {
			if f.Kind != KindDate {
				return eris.Wrapf(ErrInvalidSchema, "%s: field %q must be a date", s.Name, FieldDate)
			}
			hasDate = true
		}
	}
	if !hasDate {
		return eris.Wrapf(ErrInvalidSchema, "%s: no %q field", s.Name, FieldDate)
	}
	return nil
}

// Field looks a field up by canonical name.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// NumberFields lists the numeric fields in declaration order.
func (s Schema) NumberFields() []string {
	var out []string
	for _, f := range s.Fields {
		if f.Kind == KindNumber {
			out = append(out, f.Name)
		}
	}
	return out
}

// WithAliases returns a copy of s whose field uses the given aliases instead
// of its built-in ones.
func (s Schema) WithAliases(field string, aliases ...string) (Schema, error) {
	out := Schema{Name: s.Name, Fields: make([]Field, len(s.Fields))}
	copy(out.Fields, s.Fields)
	for i, f := range out.Fields {
		if f.Name == field {
			out.Fields[i].Aliases = append([]string(nil), aliases...)
			return out, nil
		}
	}
	return s, eris.Wrapf(ErrInvalidSchema, "%s: no field %q", s.Name, field)
}

/* ──────────── records ──────────── */

// Record is one normalised row. Date is always a canonical date; text and
// numeric fields fall back to "" and 0.
type Record struct {
	Date string
	text map[string]string
	nums map[string]float64
}

// NewRecord builds a record directly, mostly for callers assembling fixtures.
func NewRecord(date string, text map[string]string, nums map[string]float64) Record {
	r := Record{Date: date, text: map[string]string{}, nums: map[string]float64{}}
	for k, v := range text {
		r.text[k] = v
	}
	for k, v := range nums {
		r.nums[k] = finite(v)
	}
	return r
}

func (r Record) Zone() string { return r.text[FieldZone] }
func (r Record) GM() string   { return r.text[FieldGM] }
func (r Record) Hour() string { return r.text[FieldHour] }

// Text returns a string or secondary date field.
func (r Record) Text(field string) string { return r.text[field] }

// Number returns a numeric field, 0 when absent.
func (r Record) Number(field string) float64 { return r.nums[field] }

func (r Record) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(r.text)+len(r.nums)+1)
	for k, v := range r.text {
		m[k] = v
	}
	for k, v := range r.nums {
		m[k] = v
	}
	m[FieldDate] = r.Date
	return json.Marshal(m)
}

/* ──────────── parser ──────────── */

// ParseRows normalises every data row of grid through schema. Rows whose
// date cannot be parsed are dropped. A grid without data rows yields an
// empty slice.
func ParseRows(grid Grid, schema Schema) ([]Record, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	if len(grid) < 2 {
		return []Record{}, nil
	}

	keys := headerKeys(grid[0])
	cols := make([]int, len(schema.Fields))
	for i, f := range schema.Fields {
		cols[i] = resolve(keys, f.Name, f.Aliases)
	}

	out := make([]Record, 0, len(grid)-1)
	for _, row := range grid[1:] {
		rec := Record{text: map[string]string{}, nums: map[string]float64{}}
		keep := true
		for i, f := range schema.Fields {
			raw := cell(row, cols[i])
			switch f.Kind {
			case KindNumber:
				rec.nums[f.Name] = ToNumber(raw)
			case KindDate:
				d, ok := ParseDate(raw)
				if f.Name == FieldDate {
					rec.Date = d
					keep = ok
				} else {
					rec.text[f.Name] = d
				}
			default:
				rec.text[f.Name] = strings.TrimSpace(CellString(raw))
			}
		}
		if keep {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Parse is ParseRows under its query-API name.
func Parse(grid Grid, schema Schema) ([]Record, error) {
	return ParseRows(grid, schema)
}
