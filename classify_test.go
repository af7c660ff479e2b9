package fbsql

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		kind      StatementKind
		outputs   int
		returning bool
		query     bool
	}{
		{KindInsert, 0, false, false},
		{KindInsert, 1, true, false},
		{KindUpdate, 2, true, false},
		{KindDelete, 1, true, false},
		{KindSelect, 3, false, true},
		{KindSelectForUpdate, 1, false, true},
		{KindExecProcedure, 1, false, true},
		{KindExecProcedure, 0, false, false},
		{KindDDL, 0, false, false},
		{KindSetGenerator, 0, false, false},
		{KindSavepoint, 0, false, false},
		{KindOther, 0, false, false},
	}

	for _, test := range tests {
		f := &fakeEngine{kind: test.kind}
		area := newDescriptorArea(4)
		area.Count = test.outputs

		c, err := Classify(f, 1, area)
		require.Nil(t, err, test.kind.String())
		assert.Equal(t, test.kind, c.Kind)
		assert.Equal(t, test.outputs > 0, c.HasOutput)
		assert.Equal(t, test.returning, c.Returning(), test.kind.String())
		assert.Equal(t, test.query, c.Query(), test.kind.String())
	}
}

func TestClassify_transactionControl(t *testing.T) {
	tests := []struct {
		kind StatementKind
		hint string
	}{
		{KindStartTransaction, "Connection.Begin"},
		{KindCommit, "Connection.Commit"},
		{KindRollback, "Connection.Rollback"},
	}

	for _, test := range tests {
		_, err := Classify(&fakeEngine{kind: test.kind}, 1, newDescriptorArea(1))
		assert.True(t, errors.Is(err, ErrUnsupportedStatement), test.kind.String())
		assert.Contains(t, err.Error(), test.hint)
	}
}

func TestClassify_nilArea(t *testing.T) {
	c, err := Classify(&fakeEngine{kind: KindInsert}, 1, nil)
	require.Nil(t, err)
	assert.False(t, c.Returning())
}

func TestStatementKind_String(t *testing.T) {
	assert.Equal(t, "select", KindSelect.String())
	assert.Equal(t, "execute procedure", KindExecProcedure.String())
	assert.Equal(t, "other(42)", StatementKind(42).String())
	assert.Equal(t, "other(0)", KindOther.String())
}

func TestRecordCounts_Affected(t *testing.T) {
	counts := RecordCounts{Selected: 5, Inserted: 1, Updated: 2, Deleted: 3}

	tests := []struct {
		kind StatementKind
		want int64
	}{
		{KindSelect, 5},
		{KindSelectForUpdate, 5},
		{KindInsert, 1},
		{KindUpdate, 2},
		{KindDelete, 3},
		{KindExecProcedure, 3},
	}

	for _, test := range tests {
		assert.Equal(t, test.want, counts.Affected(test.kind), test.kind.String())
	}

	assert.Equal(t, int64(4), RecordCounts{Inserted: 4, Selected: 9}.Affected(KindDDL))
	assert.Equal(t, int64(0), RecordCounts{}.Affected(KindOther))
}
