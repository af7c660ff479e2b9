package fbsql

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/golang-sql/civil"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/inf.v0"
)

// EncodeOptions carries the connection settings a parameter encode depends
// on.
type EncodeOptions struct {
	Charset  Charset
	Location *time.Location
}

const (
	minFloat32 = 1.17549435e-38
	maxFloat32 = math.MaxFloat32
)

// Bind writes params into the input message at the offsets of its layout.
// Every failure is reported before anything is sent to the engine.
func Bind(m *Message, params []interface{}, opts EncodeOptions) error {
	cols := m.Columns()
	if len(cols) != len(params) {
		return errors.Wrapf(ErrParameterCount, "statement requires %d items; %d given", len(cols), len(params))
	}

	m.Clear()
	for i, d := range cols {
		v := params[i]
		if v == nil {
			if !d.Nullable {
				return errors.Wrapf(ErrNullNotAllowed, "parameter %d", i+1)
			}
			m.SetNull(i, true)
			continue
		}

		if err := encodeValue(m.Value(i), i, v, d, opts); err != nil {
			return err
		}
		m.SetNull(i, false)
	}

	return nil
}

// Encode writes the wire form of v for a column described by d into dst,
// which must be at least the column's storage size.
func Encode(dst []byte, v interface{}, d ColumnDescriptor, opts EncodeOptions) error {
	return encodeValue(dst, 0, v, d, opts)
}

func encodeValue(dst []byte, index int, v interface{}, d ColumnDescriptor, opts EncodeOptions) error {
	conversion := &TypeConversionError{Index: index, Value: v, Type: d.Type}

	switch d.Type {
	case SQLText, SQLVarying:
		s, ok := asString(v)
		if !ok {
			return conversion
		}
		b, err := opts.Charset.encode(s)
		if err != nil {
			return conversion
		}
		if len(b) > int(d.Length) {
			return &RangeError{Index: index, Message: fmt.Sprintf("%s overflow: %d bytes exceeds %d byte(s) allowed.", d.Type, len(b), d.Length)}
		}

		if d.Type == SQLText {
			n := copy(dst, b)
			for ; n < int(d.Length); n++ {
				dst[n] = ' '
			}
			return nil
		}
		binary.LittleEndian.PutUint16(dst, uint16(len(b)))
		copy(dst[2:], b)
		return nil

	case SQLShort, SQLLong, SQLInt64:
		dec, ok := asDecimal(v)
		if !ok {
			return conversion
		}
		if d.Scale < 0 {
			dec = dec.Shift(int32(-d.Scale))
		}
		dec = dec.Round(0)
		if !dec.BigInt().IsInt64() {
			return &RangeError{Index: index, Message: "integer overflow"}
		}
		n := dec.IntPart()

		switch d.Type {
		case SQLShort:
			if n < math.MinInt16 || n > math.MaxInt16 {
				return &RangeError{Index: index, Message: "short integer overflow"}
			}
			binary.LittleEndian.PutUint16(dst, uint16(int16(n)))
		case SQLLong:
			if n < math.MinInt32 || n > math.MaxInt32 {
				return &RangeError{Index: index, Message: "integer overflow"}
			}
			binary.LittleEndian.PutUint32(dst, uint32(int32(n)))
		default:
			binary.LittleEndian.PutUint64(dst, uint64(n))
		}
		return nil

	case SQLFloat, SQLDouble:
		f, ok := asFloat(v)
		if !ok {
			return conversion
		}
		if d.Type == SQLDouble {
			binary.LittleEndian.PutUint64(dst, math.Float64bits(f))
			return nil
		}
		check := math.Abs(f)
		if check != 0 && (check < minFloat32 || check > maxFloat32) {
			return &RangeError{Index: index, Message: "float overflow"}
		}
		binary.LittleEndian.PutUint32(dst, math.Float32bits(float32(f)))
		return nil

	case SQLTimestamp:
		dt, ok := asDateTime(v, opts.Location)
		if !ok {
			return conversion
		}
		putTimestamp(dst, dt)
		return nil

	case SQLTypeTime:
		dt, ok := asDateTime(v, nil)
		if !ok {
			return conversion
		}
		binary.LittleEndian.PutUint32(dst, encodeTime(dt.Time))
		return nil

	case SQLTypeDate:
		dt, ok := asDateTime(v, nil)
		if !ok {
			return conversion
		}
		binary.LittleEndian.PutUint32(dst, uint32(encodeDate(dt.Date)))
		return nil

	case SQLBoolean:
		var b bool
		switch x := v.(type) {
		case bool:
			b = x
		case string:
			parsed, err := strconv.ParseBool(x)
			if err != nil {
				return conversion
			}
			b = parsed
		default:
			return conversion
		}
		dst[0] = 0
		if b {
			dst[0] = 1
		}
		return nil
	}

	return errors.Wrapf(ErrUnsupportedType, "parameter %d: %s (%d)", index+1, d.Type, int(d.Type))
}

func asString(v interface{}) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case []byte:
		return string(x), true
	case bool:
		return strconv.FormatBool(x), true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(x), true
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32), true
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), true
	case time.Time:
		return x.Format("2006-01-02 15:04:05.9999"), true
	case fmt.Stringer:
		return x.String(), true
	}
	return "", false
}

func asDecimal(v interface{}) (decimal.Decimal, bool) {
	switch x := v.(type) {
	case int:
		return decimal.NewFromInt(int64(x)), true
	case int8:
		return decimal.NewFromInt(int64(x)), true
	case int16:
		return decimal.NewFromInt(int64(x)), true
	case int32:
		return decimal.NewFromInt(int64(x)), true
	case int64:
		return decimal.NewFromInt(x), true
	case uint:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(x)), 0), true
	case uint8:
		return decimal.NewFromInt(int64(x)), true
	case uint16:
		return decimal.NewFromInt(int64(x)), true
	case uint32:
		return decimal.NewFromInt(int64(x)), true
	case uint64:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(x), 0), true
	case float32:
		return decimal.NewFromFloat32(x), true
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat(x), true
	case decimal.Decimal:
		return x, true
	case *decimal.Decimal:
		if x == nil {
			return decimal.Decimal{}, false
		}
		return *x, true
	case *inf.Dec:
		if x == nil {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromBigInt(x.UnscaledBig(), -int32(x.Scale())), true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(x))
		if err != nil {
			return decimal.Decimal{}, false
		}
		return d, true
	}
	return decimal.Decimal{}, false
}

func asFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float32:
		return float64(x), true
	case float64:
		return x, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	if d, ok := asDecimal(v); ok {
		f, _ := d.Float64()
		return f, true
	}
	return 0, false
}

var dateTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02 15:04",
	"2006-01-02",
}

var timeLayouts = []string{
	"15:04:05.999999999",
	"15:04",
}

// asDateTime converts v into a wall clock date and time. Instants are
// observed in loc when it is set, otherwise in their own zone.
func asDateTime(v interface{}, loc *time.Location) (civil.DateTime, bool) {
	switch x := v.(type) {
	case time.Time:
		if loc != nil {
			x = x.In(loc)
		}
		return civil.DateTimeOf(x), true
	case civil.DateTime:
		return x, true
	case civil.Date:
		return civil.DateTime{Date: x}, true
	case civil.Time:
		return civil.DateTime{Date: timeOfDayAnchor, Time: x}, true
	case string:
		s := strings.TrimSpace(x)
		for _, layout := range dateTimeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return civil.DateTimeOf(t), true
			}
		}
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return civil.DateTime{Date: timeOfDayAnchor, Time: civil.TimeOf(t)}, true
			}
		}
	}
	return civil.DateTime{}, false
}
