package fbsql

import (
	"encoding/binary"
	"log/slog"
	"math"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// DecodeOptions carries the connection settings a column decode depends on.
type DecodeOptions struct {
	Charset  Charset
	Location *time.Location
	Strict   bool
	Logger   *slog.Logger
}

// Decode converts the wire bytes of one column into a Go value:
//
//	CHAR, VARCHAR                 string
//	SMALLINT, INTEGER, BIGINT     int64, or decimal.Decimal when scale < 0
//	FLOAT, DOUBLE PRECISION       float64
//	TIMESTAMP                     time.Time in opts.Location
//	TIME                          time.Time on 2000-01-01 UTC
//	DATE                          civil.Date
//	BOOLEAN                       bool
//
// A null column decodes to nil without looking at raw.
func Decode(raw []byte, d ColumnDescriptor, null bool, opts DecodeOptions) (interface{}, error) {
	if null {
		return nil, nil
	}

	switch d.Type {
	case SQLText:
		return opts.Charset.decode(raw[:d.Length])

	case SQLVarying:
		n := int(binary.LittleEndian.Uint16(raw))
		if n > int(d.Length) {
			n = int(d.Length)
		}
		return opts.Charset.decode(raw[2 : 2+n])

	case SQLShort:
		return scaled(int64(int16(binary.LittleEndian.Uint16(raw))), d.Scale), nil

	case SQLLong:
		return scaled(int64(int32(binary.LittleEndian.Uint32(raw))), d.Scale), nil

	case SQLInt64:
		return scaled(int64(binary.LittleEndian.Uint64(raw)), d.Scale), nil

	case SQLFloat:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(raw))), nil

	case SQLDouble:
		return math.Float64frombits(binary.LittleEndian.Uint64(raw)), nil

	case SQLTimestamp:
		loc := opts.Location
		if loc == nil {
			loc = time.Local
		}
		dt := getTimestamp(raw)
		return civilToTime(dt.Date, dt.Time, loc), nil

	case SQLTypeTime:
		t := decodeTime(binary.LittleEndian.Uint32(raw))
		return civilToTime(timeOfDayAnchor, t, time.UTC), nil

	case SQLTypeDate:
		return decodeDate(int32(binary.LittleEndian.Uint32(raw))), nil

	case SQLBoolean:
		return raw[0] != 0, nil
	}

	if opts.Strict {
		return nil, errors.Wrapf(ErrUnsupportedType, "%s (%d)", d.Type, int(d.Type))
	}
	if opts.Logger != nil {
		opts.Logger.Warn("decoding unsupported column type as NULL", "type", int(d.Type), "column", d.Name)
	}
	return nil, nil
}

// scaled returns raw as an exact decimal with -scale fractional digits, or
// as a plain integer when scale is not negative.
func scaled(raw int64, scale int16) interface{} {
	if scale < 0 {
		return decimal.New(raw, int32(scale))
	}
	return raw
}

// DecodeRow decodes every column of m in descriptor order.
func DecodeRow(m *Message, opts DecodeOptions) ([]interface{}, error) {
	cols := m.Columns()
	row := make([]interface{}, len(cols))
	for i, d := range cols {
		null := d.Nullable && m.IsNull(i)
		var raw []byte
		if !null {
			raw = m.Value(i)
		}

		v, err := Decode(raw, d, null, opts)
		if err != nil {
			return nil, errors.Wrapf(err, "column %d", i+1)
		}
		row[i] = v
	}
	return row, nil
}
