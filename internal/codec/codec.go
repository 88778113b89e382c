// Package codec converts entity records to and from the flat string-keyed
// rows stored in the backing sheets.
//
// Decoding never fails: blank or unparseable numbers become nil, blank or
// unrecognized enumerations fall back to the defaults in types.DefaultValue,
// and any other missing cell becomes "". Columns outside the codec's list
// are ignored. For every valid record r, Decode(Encode(r)) equals r.
package codec

import (
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/cvtracker/pkg/types"
)

// Codec maps records of type T to rows of one sheet.
type Codec[T any] struct {
	sheet   string
	columns []string
	decode  func(r reader) T
	encode  func(rec T, w writer)
}

func newCodec[T any](sheet string, columns []string, decode func(reader) T, encode func(T, writer)) Codec[T] {
	return Codec[T]{sheet: sheet, columns: columns, decode: decode, encode: encode}
}

// Sheet returns the sheet the codec reads and writes.
func (c Codec[T]) Sheet() string { return c.sheet }

// Columns returns the header row, in sheet order.
func (c Codec[T]) Columns() []string { return slices.Clone(c.columns) }

// Decode builds a record from a row. Position is left zero.
func (c Codec[T]) Decode(values map[string]string) T {
	return c.decode(reader{sheet: c.sheet, values: values})
}

// Encode flattens a record into a row holding exactly the codec's columns.
func (c Codec[T]) Encode(rec T) map[string]string {
	w := make(writer, len(c.columns))
	for _, col := range c.columns {
		w[col] = ""
	}
	c.encode(rec, w)
	return w
}

type reader struct {
	sheet  string
	values map[string]string
}

func (r reader) str(col string) string { return r.values[col] }

func (r reader) num(col string) *float64 {
	v := strings.TrimSpace(r.values[col])
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// positiveInt reads a whole number, substituting the column default when
// the cell is blank, unparseable or not positive.
func (r reader) positiveInt(col string) int {
	if f := r.num(col); f != nil && *f > 0 {
		return int(math.Round(*f))
	}
	d, _ := strconv.Atoi(types.DefaultValue(r.sheet, col))
	return d
}

// profile keeps unrecognized profile ids as-is so that they never match a
// real profile during filtering. Only a blank cell takes the default.
func (r reader) profile() types.ProfileID {
	v := strings.TrimSpace(r.values["profile_id"])
	if v == "" {
		return types.ProfileID(types.DefaultValue(r.sheet, "profile_id"))
	}
	return types.ProfileID(v)
}

type enumValue interface {
	~string
	Valid() bool
}

func enum[E enumValue](r reader, col string) E {
	v := E(strings.TrimSpace(r.values[col]))
	if v.Valid() {
		return v
	}
	return E(types.DefaultValue(r.sheet, col))
}

type writer map[string]string

func (w writer) num(col string, v *float64) {
	if v == nil {
		w[col] = ""
		return
	}
	w[col] = strconv.FormatFloat(*v, 'f', -1, 64)
}
