package fbsql

import (
	"testing"
	"time"

	"github.com/golang-sql/civil"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/inf.v0"
)

func roundTrip(t *testing.T, v interface{}, d ColumnDescriptor) interface{} {
	t.Helper()
	length, _ := storage(d)
	buf := make([]byte, length)
	require.Nil(t, Encode(buf, v, d, EncodeOptions{Location: time.UTC}))

	got, err := Decode(buf, d, false, DecodeOptions{Location: time.UTC})
	require.Nil(t, err)
	return got
}

func TestEncode_roundTrip(t *testing.T) {
	tests := []struct {
		name string
		v    interface{}
		d    ColumnDescriptor
		want interface{}
	}{
		{"char pads", "ab", ColumnDescriptor{Type: SQLText, Length: 4}, "ab  "},
		{"varchar", "abc", ColumnDescriptor{Type: SQLVarying, Length: 10}, "abc"},
		{"smallint from int", 12, ColumnDescriptor{Type: SQLShort, Length: 2}, int64(12)},
		{"integer from string", "-7", ColumnDescriptor{Type: SQLLong, Length: 4}, int64(-7)},
		{"bigint from uint32", uint32(4000000000), ColumnDescriptor{Type: SQLInt64, Length: 8}, int64(4000000000)},
		{"double", 2.5, ColumnDescriptor{Type: SQLDouble, Length: 8}, 2.5},
		{"float", float32(0.5), ColumnDescriptor{Type: SQLFloat, Length: 4}, 0.5},
		{"boolean from string", "true", ColumnDescriptor{Type: SQLBoolean, Length: 1}, true},
		{"date from civil", civil.Date{Year: 1999, Month: time.December, Day: 31}, ColumnDescriptor{Type: SQLTypeDate, Length: 4}, civil.Date{Year: 1999, Month: time.December, Day: 31}},
		{"date from string", "2024-02-29", ColumnDescriptor{Type: SQLTypeDate, Length: 4}, civil.Date{Year: 2024, Month: time.February, Day: 29}},
		{"time from string", "10:11:12", ColumnDescriptor{Type: SQLTypeTime, Length: 4}, time.Date(2000, time.January, 1, 10, 11, 12, 0, time.UTC)},
		{"timestamp", time.Date(2024, time.March, 1, 12, 30, 0, 0, time.UTC), ColumnDescriptor{Type: SQLTimestamp, Length: 8}, time.Date(2024, time.March, 1, 12, 30, 0, 0, time.UTC)},
		{"timestamp from string", "2024-03-01 12:30:00", ColumnDescriptor{Type: SQLTimestamp, Length: 8}, time.Date(2024, time.March, 1, 12, 30, 0, 0, time.UTC)},
	}

	for _, test := range tests {
		assert.Equal(t, test.want, roundTrip(t, test.v, test.d), test.name)
	}
}

func TestEncode_decimalRoundTrip(t *testing.T) {
	numeric := ColumnDescriptor{Type: SQLLong, SubType: SubTypeNumeric, Length: 4, Scale: -2}

	tests := []struct {
		v    interface{}
		want string
	}{
		{decimal.RequireFromString("12.34"), "12.34"},
		{"0.125", "0.13"},
		{1.5, "1.5"},
		{7, "7"},
		{inf.NewDec(12345, 2), "123.45"},
	}

	for _, test := range tests {
		got := roundTrip(t, test.v, numeric)
		d, ok := got.(decimal.Decimal)
		require.True(t, ok, "%T", got)
		assert.Equal(t, test.want, d.String())
	}
}

func TestEncode_errors(t *testing.T) {
	tests := []struct {
		name       string
		v          interface{}
		d          ColumnDescriptor
		conversion bool
	}{
		{"char overflow", "abcd", ColumnDescriptor{Type: SQLText, Length: 3}, false},
		{"varchar overflow", "abc", ColumnDescriptor{Type: SQLVarying, Length: 2}, false},
		{"multibyte overflow", "é", ColumnDescriptor{Type: SQLText, Length: 1}, false},
		{"smallint overflow", 40000, ColumnDescriptor{Type: SQLShort, Length: 2}, false},
		{"integer overflow", int64(1) << 32, ColumnDescriptor{Type: SQLLong, Length: 4}, false},
		{"scale overflow", "21474836.48", ColumnDescriptor{Type: SQLLong, Length: 4, Scale: -2}, false},
		{"float overflow", 1e40, ColumnDescriptor{Type: SQLFloat, Length: 4}, false},
		{"integer from text", "ten", ColumnDescriptor{Type: SQLLong, Length: 4}, true},
		{"boolean from int", 1, ColumnDescriptor{Type: SQLBoolean, Length: 1}, true},
		{"date from bool", true, ColumnDescriptor{Type: SQLTypeDate, Length: 4}, true},
		{"varchar from slice", []int{1}, ColumnDescriptor{Type: SQLVarying, Length: 5}, true},
	}

	for _, test := range tests {
		length, _ := storage(test.d)
		err := Encode(make([]byte, length), test.v, test.d, EncodeOptions{})
		require.NotNil(t, err, test.name)

		if test.conversion {
			var conversion *TypeConversionError
			assert.True(t, errors.As(err, &conversion), test.name)
		} else {
			var rangeErr *RangeError
			assert.True(t, errors.As(err, &rangeErr), test.name)
		}
	}
}

func TestEncode_charset(t *testing.T) {
	cs, err := LookupCharset("ISO8859_1")
	require.Nil(t, err)

	buf := make([]byte, 1)
	d := ColumnDescriptor{Type: SQLText, Length: 1}
	require.Nil(t, Encode(buf, "é", d, EncodeOptions{Charset: cs}))
	assert.Equal(t, []byte{0xe9}, buf)

	err = Encode(buf, "ж", d, EncodeOptions{Charset: cs})
	var conversion *TypeConversionError
	assert.True(t, errors.As(err, &conversion))
}

func TestBind(t *testing.T) {
	m := &Message{Area: newDescriptorArea(2)}
	fillArea(m.Area, []ColumnDescriptor{
		{Type: SQLLong, Length: 4},
		{Type: SQLVarying, Length: 5, Nullable: true},
	})
	m.relayout()

	require.Nil(t, Bind(m, []interface{}{3, nil}, EncodeOptions{}))
	assert.True(t, m.IsNull(1))
	row, err := DecodeRow(m, DecodeOptions{})
	require.Nil(t, err)
	assert.Equal(t, []interface{}{int64(3), nil}, row)

	require.Nil(t, Bind(m, []interface{}{4, "abc"}, EncodeOptions{}))
	assert.False(t, m.IsNull(1))

	err = Bind(m, []interface{}{1}, EncodeOptions{})
	assert.True(t, errors.Is(err, ErrParameterCount))
	assert.Contains(t, err.Error(), "statement requires 2 items; 1 given")

	err = Bind(m, []interface{}{nil, "x"}, EncodeOptions{})
	assert.True(t, errors.Is(err, ErrNullNotAllowed))

	err = Bind(m, []interface{}{1, "toolong"}, EncodeOptions{})
	var rangeErr *RangeError
	require.True(t, errors.As(err, &rangeErr))
	assert.Equal(t, 1, rangeErr.Index)
}
