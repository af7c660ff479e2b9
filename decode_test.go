package fbsql

import (
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/golang-sql/civil"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func le16(n int16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, uint16(n))
	return b
}

func le32(n uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, n)
	return b
}

func le64(n uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, n)
	return b
}

func TestDecode(t *testing.T) {
	berlin := time.FixedZone("CET", 3600)
	opts := DecodeOptions{Location: berlin}

	minus := int64(-42)
	timestamp := append(le32(uint32(encodeDate(civil.Date{Year: 2024, Month: time.March, Day: 1}))), le32(encodeTime(civil.Time{Hour: 8, Minute: 5}))...)

	tests := []struct {
		name string
		raw  []byte
		d    ColumnDescriptor
		want interface{}
	}{
		{"char keeps padding", []byte("ab  "), ColumnDescriptor{Type: SQLText, Length: 4}, "ab  "},
		{"varchar", []byte{3, 0, 'a', 'b', 'c', 0, 0}, ColumnDescriptor{Type: SQLVarying, Length: 5}, "abc"},
		{"smallint", le16(-5), ColumnDescriptor{Type: SQLShort, Length: 2}, int64(-5)},
		{"integer", le32(123456), ColumnDescriptor{Type: SQLLong, Length: 4}, int64(123456)},
		{"bigint", le64(uint64(minus)), ColumnDescriptor{Type: SQLInt64, Length: 8}, int64(-42)},
		{"float", le32(math.Float32bits(1.5)), ColumnDescriptor{Type: SQLFloat, Length: 4}, 1.5},
		{"double", le64(math.Float64bits(-0.125)), ColumnDescriptor{Type: SQLDouble, Length: 8}, -0.125},
		{"boolean", []byte{1}, ColumnDescriptor{Type: SQLBoolean, Length: 1}, true},
		{"date", le32(uint32(encodeDate(civil.Date{Year: 2024, Month: time.January, Day: 15}))), ColumnDescriptor{Type: SQLTypeDate, Length: 4}, civil.Date{Year: 2024, Month: time.January, Day: 15}},
		{"time", le32(450155000), ColumnDescriptor{Type: SQLTypeTime, Length: 4}, time.Date(2000, time.January, 1, 12, 30, 15, 500000000, time.UTC)},
		{"timestamp", timestamp, ColumnDescriptor{Type: SQLTimestamp, Length: 8}, time.Date(2024, time.March, 1, 8, 5, 0, 0, berlin)},
		{"null", nil, ColumnDescriptor{Type: SQLLong, Length: 4, Nullable: true}, nil},
	}

	for _, test := range tests {
		got, err := Decode(test.raw, test.d, test.raw == nil, opts)
		require.Nil(t, err, test.name)
		assert.Equal(t, test.want, got, test.name)
	}
}

func TestDecode_scaled(t *testing.T) {
	tests := []struct {
		raw  []byte
		d    ColumnDescriptor
		want string
	}{
		{le32(123456), ColumnDescriptor{Type: SQLLong, Length: 4, Scale: -2}, "1234.56"},
		{le16(-5), ColumnDescriptor{Type: SQLShort, Length: 2, Scale: -1}, "-0.5"},
		{le64(1), ColumnDescriptor{Type: SQLInt64, Length: 8, Scale: -4}, "0.0001"},
	}

	for _, test := range tests {
		got, err := Decode(test.raw, test.d, false, DecodeOptions{})
		require.Nil(t, err)
		d, ok := got.(decimal.Decimal)
		require.True(t, ok, "%T", got)
		assert.Equal(t, test.want, d.String())
	}
}

func TestDecode_unknownType(t *testing.T) {
	d := ColumnDescriptor{Type: SQLBlob, Length: 8, Name: "DATA"}

	got, err := Decode(make([]byte, 8), d, false, DecodeOptions{Logger: discardLogger})
	assert.Nil(t, err)
	assert.Nil(t, got)

	_, err = Decode(make([]byte, 8), d, false, DecodeOptions{Strict: true})
	assert.True(t, errors.Is(err, ErrUnsupportedType))
}

func TestDecode_charset(t *testing.T) {
	cs, err := LookupCharset("iso8859_1")
	require.Nil(t, err)

	got, err := Decode([]byte{2, 0, 'o', 0xe9}, ColumnDescriptor{Type: SQLVarying, Length: 4}, false, DecodeOptions{Charset: cs})
	require.Nil(t, err)
	assert.Equal(t, "oé", got)

	_, err = LookupCharset("klingon")
	assert.NotNil(t, err)
}

func TestDateEncoding(t *testing.T) {
	assert.Equal(t, civil.Date{Year: 1858, Month: time.November, Day: 17}, decodeDate(0))
	assert.Equal(t, int32(51544), encodeDate(civil.Date{Year: 2000, Month: time.January, Day: 1}))
	assert.Equal(t, int32(-1), encodeDate(civil.Date{Year: 1858, Month: time.November, Day: 16}))

	tm := civil.Time{Hour: 23, Minute: 59, Second: 59, Nanosecond: 999900000}
	assert.Equal(t, uint32(863999999), encodeTime(tm))
	assert.Equal(t, tm, decodeTime(encodeTime(tm)))
}

func TestDecodeRow(t *testing.T) {
	m := &Message{Area: newDescriptorArea(2)}
	fillArea(m.Area, []ColumnDescriptor{
		{Type: SQLLong, Length: 4},
		{Type: SQLVarying, Length: 3, Nullable: true},
	})
	m.relayout()

	copy(m.Value(0), le32(7))
	m.SetNull(1, true)

	row, err := DecodeRow(m, DecodeOptions{})
	require.Nil(t, err)
	assert.Equal(t, []interface{}{int64(7), nil}, row)
}
