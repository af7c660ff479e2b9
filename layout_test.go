package fbsql

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeLayout(t *testing.T) {
	tests := []struct {
		name  string
		descs []ColumnDescriptor
		want  Layout
	}{
		{
			"empty",
			nil,
			Layout{Size: 0, Columns: []ColumnOffsets{}},
		},
		{
			"char then smallint",
			[]ColumnDescriptor{
				{Type: SQLText, Length: 3},
				{Type: SQLShort, Length: 2},
			},
			Layout{Size: 10, Columns: []ColumnOffsets{{Value: 0, Null: 4}, {Value: 6, Null: 8}}},
		},
		{
			"varchar then bigint",
			[]ColumnDescriptor{
				{Type: SQLVarying, Length: 5},
				{Type: SQLInt64, Length: 8},
			},
			Layout{Size: 26, Columns: []ColumnOffsets{{Value: 0, Null: 8}, {Value: 16, Null: 24}}},
		},
		{
			"mixed widths",
			[]ColumnDescriptor{
				{Type: SQLBoolean, Length: 1},
				{Type: SQLDouble, Length: 8},
				{Type: SQLText, Length: 1},
				{Type: SQLLong, Length: 4},
			},
			Layout{Size: 30, Columns: []ColumnOffsets{
				{Value: 0, Null: 2},
				{Value: 8, Null: 16},
				{Value: 18, Null: 20},
				{Value: 24, Null: 28},
			}},
		},
		{
			"timestamp date time",
			[]ColumnDescriptor{
				{Type: SQLTypeDate, Length: 4},
				{Type: SQLTimestamp, Length: 8},
				{Type: SQLTypeTime, Length: 4},
			},
			Layout{Size: 26, Columns: []ColumnOffsets{
				{Value: 0, Null: 4},
				{Value: 8, Null: 16},
				{Value: 20, Null: 24},
			}},
		},
	}

	for _, test := range tests {
		assert.Equal(t, test.want, ComputeLayout(test.descs), test.name)
	}
}

func TestComputeLayout_deterministic(t *testing.T) {
	descs := []ColumnDescriptor{
		{Type: SQLShort, Length: 2},
		{Type: SQLVarying, Length: 11, Nullable: true},
		{Type: SQLDouble, Length: 8},
		{Type: SQLText, Length: 3},
		{Type: SQLTimestamp, Length: 8, Nullable: true},
	}

	first := ComputeLayout(descs)
	second := ComputeLayout(descs)
	assert.Equal(t, first, second)
	assert.Len(t, first.Columns, len(descs))
}

func TestMessage_bufferNeverShrinks(t *testing.T) {
	m := &Message{Area: newDescriptorArea(2)}
	fillArea(m.Area, []ColumnDescriptor{{Type: SQLInt64, Length: 8, Nullable: true}})
	m.relayout()
	assert.Len(t, m.Buf, 10)

	fillArea(m.Area, []ColumnDescriptor{{Type: SQLShort, Length: 2, Nullable: true}})
	m.relayout()
	assert.Equal(t, 4, m.Layout.Size)
	assert.Len(t, m.Buf, 10)

	m.SetNull(0, true)
	assert.True(t, m.IsNull(0))
	m.SetNull(0, false)
	assert.False(t, m.IsNull(0))

	assert.Len(t, m.Value(0), 2)
}
