package fbsql

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnection_automaticTransaction(t *testing.T) {
	c := testConnection(t, "connauto")

	mustExecute(t, c, "CREATE TABLE t (n INTEGER)")
	assert.False(t, c.InTransaction())

	mustExecute(t, c, "INSERT INTO t (n) VALUES (1)")
	assert.False(t, c.InTransaction())

	r := mustExecute(t, c, "SELECT n FROM t")
	require.Equal(t, ResultRows, r.Kind)
	assert.True(t, c.InTransaction(), "a query keeps its transaction until the rows are closed")

	rows, err := r.Rows.All()
	require.Nil(t, err)
	assert.Equal(t, [][]interface{}{{int64(1)}}, rows)
	require.Nil(t, r.Rows.Close())
	assert.False(t, c.InTransaction())

	_, err = c.Execute("INSERT INTO t (n) VALUES (?)", "one")
	assert.NotNil(t, err)
	assert.False(t, c.InTransaction())
}

func TestConnection_sharedDatabase(t *testing.T) {
	c := testConnection(t, "connshared")
	mustExecute(t, c, "CREATE TABLE t (n INTEGER)")

	other, err := Connect("mem://connshared")
	require.Nil(t, err)
	defer other.Close()

	mustExecute(t, c, "INSERT INTO t (n) VALUES (5)")
	rows, err := other.Query("SELECT n FROM t")
	require.Nil(t, err)
	assert.Equal(t, [][]interface{}{{int64(5)}}, rows)

	require.Nil(t, other.Begin())
	mustExecute(t, other, "INSERT INTO t (n) VALUES (6)")
	require.Nil(t, other.Close())
	assert.False(t, other.InTransaction())

	rows, err = c.Query("SELECT n FROM t")
	require.Nil(t, err)
	assert.Equal(t, [][]interface{}{{int64(5)}}, rows, "closing rolls back the open transaction")
}

func TestConnection_closed(t *testing.T) {
	c := testConnection(t, "connclosed")
	require.Nil(t, c.Close())
	require.Nil(t, c.Close())

	_, err := c.Execute("SELECT 1")
	assert.Equal(t, ErrConnectionClosed, err)
	_, err = c.Prepare("SELECT 1")
	assert.Equal(t, ErrConnectionClosed, err)
}

func TestConnection_downcaseNames(t *testing.T) {
	DropMemoryDatabase("conndowncase")
	defer DropMemoryDatabase("conndowncase")

	c, err := Connect("mem://conndowncase?downcase=true")
	require.Nil(t, err)
	defer c.Close()

	mustExecute(t, c, `CREATE TABLE t (id INTEGER, "Mixed" INTEGER)`)
	r := mustExecute(t, c, `SELECT id, "Mixed" FROM t`)
	defer r.Rows.Close()
	assert.Equal(t, []string{"id", "Mixed"}, r.Rows.Columns())
}

func TestConnection_charset(t *testing.T) {
	DropMemoryDatabase("conncharset")
	defer DropMemoryDatabase("conncharset")

	c, err := Connect("mem://conncharset?charset=ISO8859_1")
	require.Nil(t, err)
	defer c.Close()

	mustExecute(t, c, "CREATE TABLE t (s VARCHAR(10))")
	mustExecute(t, c, "INSERT INTO t (s) VALUES (?)", "café")

	rows, err := c.Query("SELECT s FROM t WHERE s = ?", "café")
	require.Nil(t, err)
	assert.Equal(t, [][]interface{}{{"café"}}, rows)
}

func TestConnection_query(t *testing.T) {
	c := testConnection(t, "connquery")
	mustExecute(t, c, "CREATE TABLE t (id INTEGER GENERATED BY DEFAULT AS IDENTITY, s VARCHAR(5))")

	rows, err := c.Query("INSERT INTO t (s) VALUES ('a') RETURNING id, s")
	require.Nil(t, err)
	assert.Equal(t, [][]interface{}{{int64(1), "a"}}, rows)

	rows, err = c.Query("UPDATE t SET s = 'b' WHERE id = 2 RETURNING id")
	require.Nil(t, err)
	assert.Nil(t, rows)

	rows, err = c.Query("DELETE FROM t WHERE s = 'z'")
	require.Nil(t, err)
	assert.Nil(t, rows)
}

func TestConnection_transactionErrors(t *testing.T) {
	c := testConnection(t, "conntx")

	assert.Equal(t, ErrNoTransaction, c.Rollback())
	require.Nil(t, c.Begin())

	err := c.Transaction(func() error { return nil })
	assert.True(t, errors.Is(err, ErrTransactionActive))
	require.Nil(t, c.Commit())
}
