package fbsql

import (
	"fmt"
	"strings"
)

// SQLType is the wire type code of a column, without the nullable bit.
type SQLType int16

const (
	SQLVarying   SQLType = 448
	SQLText      SQLType = 452
	SQLDouble    SQLType = 480
	SQLFloat     SQLType = 482
	SQLLong      SQLType = 496
	SQLShort     SQLType = 500
	SQLTimestamp SQLType = 510
	SQLBlob      SQLType = 520
	SQLDFloat    SQLType = 530
	SQLArray     SQLType = 540
	SQLQuad      SQLType = 550
	SQLTypeTime  SQLType = 560
	SQLTypeDate  SQLType = 570
	SQLInt64     SQLType = 580
	SQLBoolean   SQLType = 32764
)

// Numeric subtypes of the integer types.
const (
	SubTypeNone    int16 = 0
	SubTypeNumeric int16 = 1
	SubTypeDecimal int16 = 2
)

func (t SQLType) String() string {
	switch t {
	case SQLText:
		return "CHAR"
	case SQLVarying:
		return "VARCHAR"
	case SQLShort:
		return "SMALLINT"
	case SQLLong:
		return "INTEGER"
	case SQLInt64:
		return "BIGINT"
	case SQLFloat:
		return "FLOAT"
	case SQLDouble, SQLDFloat:
		return "DOUBLE PRECISION"
	case SQLTimestamp:
		return "TIMESTAMP"
	case SQLTypeTime:
		return "TIME"
	case SQLTypeDate:
		return "DATE"
	case SQLBoolean:
		return "BOOLEAN"
	case SQLBlob:
		return "BLOB"
	case SQLArray:
		return "ARRAY"
	case SQLQuad:
		return "DECIMAL"
	default:
		return "UNKNOWN"
	}
}

// known reports whether the decoder has a rule for the type.
func (t SQLType) known() bool {
	switch t {
	case SQLText, SQLVarying, SQLShort, SQLLong, SQLInt64, SQLFloat, SQLDouble,
		SQLTimestamp, SQLTypeTime, SQLTypeDate, SQLBoolean:
		return true
	}
	return false
}

func (t SQLType) isInteger() bool {
	return t == SQLShort || t == SQLLong || t == SQLInt64
}

// ColumnDescriptor describes one input parameter or output column of a
// prepared statement.
type ColumnDescriptor struct {
	Type     SQLType
	SubType  int16
	Length   int16
	Scale    int16
	Nullable bool

	Name     string
	Alias    string
	Relation string
}

func (d ColumnDescriptor) String() string {
	name := d.Alias
	if name == "" {
		name = d.Name
	}
	return fmt.Sprintf("%s %s(%d, %d)", name, d.Type, d.Length, d.Scale)
}

// DescriptorArea holds the descriptor set of one side of a statement. Vars
// has one slot per allocated column; Count is the number of columns the
// engine described, which may exceed the slots.
type DescriptorArea struct {
	Vars  []ColumnDescriptor
	Count int
}

const initialSlots = 50

func newDescriptorArea(slots int) *DescriptorArea {
	return &DescriptorArea{Vars: make([]ColumnDescriptor, slots)}
}

// Columns returns the described descriptors in column order.
func (a *DescriptorArea) Columns() []ColumnDescriptor {
	if a == nil {
		return nil
	}
	n := a.Count
	if n > len(a.Vars) {
		n = len(a.Vars)
	}
	return a.Vars[:n]
}

// Fits reports whether every described column has a slot.
func (a *DescriptorArea) Fits() bool {
	return a.Count <= len(a.Vars)
}

// Field is the caller-facing metadata of one result column.
type Field struct {
	Name         string
	SQLType      string
	SQLSubType   int16
	DisplaySize  int
	InternalSize int
	Precision    int // zero when not applicable
	Scale        int
	Nullable     bool
	TypeCode     SQLType
}

func sqlTypeName(d ColumnDescriptor) string {
	if d.Type.isInteger() || d.Type == SQLDouble {
		switch d.SubType {
		case SubTypeNumeric:
			return "NUMERIC"
		case SubTypeDecimal:
			return "DECIMAL"
		}
	}
	return d.Type.String()
}

func precision(d ColumnDescriptor) int {
	if d.SubType != SubTypeNumeric && d.SubType != SubTypeDecimal {
		return 0
	}
	switch d.Type {
	case SQLShort:
		return 4
	case SQLLong:
		return 9
	case SQLDouble:
		return 15
	case SQLInt64:
		return 18
	}
	return 0
}

func fieldsFromDescriptors(descs []ColumnDescriptor, downcase bool) []Field {
	fields := make([]Field, 0, len(descs))
	for _, d := range descs {
		name := d.Alias
		if name == "" {
			name = d.Name
		}
		if downcase && !hasLower(name) {
			name = strings.ToLower(name)
		}

		internal := int(d.Length)
		if d.Type == SQLVarying {
			internal += 2
		}

		fields = append(fields, Field{
			Name:         name,
			SQLType:      sqlTypeName(d),
			SQLSubType:   d.SubType,
			DisplaySize:  int(d.Length),
			InternalSize: internal,
			Precision:    precision(d),
			Scale:        int(d.Scale),
			Nullable:     d.Nullable,
			TypeCode:     d.Type,
		})
	}
	return fields
}

func hasLower(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 'a' && s[i] <= 'z' {
			return true
		}
	}
	return false
}

