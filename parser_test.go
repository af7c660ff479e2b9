package fbsql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		source     string
		code       []string
		parameters []uint
	}{
		{
			source: "INSERT INTO users VALUES (105, 233)",
			code:   []string{`INSERT INTO "USERS" VALUES (105, 233);`},
		},
		{
			source: "CREATE TABLE users (id INT, name TEXT)",
			code: []string{`CREATE TABLE "USERS" (
	"ID" INT,
	"NAME" TEXT
);`},
		},
		{
			source: "SELECT *, exclusive",
			code: []string{`SELECT
	*,
	"EXCLUSIVE";`},
		},
		{
			source: `SELECT id, name AS fullname FROM "users"`,
			code: []string{`SELECT
	"ID",
	"NAME" AS "FULLNAME"
FROM
	"users";`},
		},
		{
			source: "select a from t where a = 1 and b = 2 or c",
			code: []string{`SELECT
	"A"
FROM
	"T"
WHERE
	((("A" = 1) AND ("B" = 2)) OR "C");`},
		},
		{
			source: "select 1 - 2 - 3, -a + b, (1 + 2) || 'x'",
			code: []string{`SELECT
	((1 - 2) - 3),
	((-"A") + "B"),
	((1 + 2) || 'x');`},
		},
		{
			source:     "SELECT a FROM t WHERE a = ? AND NOT b IS NULL",
			parameters: []uint{1},
			code: []string{`SELECT
	"A"
FROM
	"T"
WHERE
	(("A" = ?) AND (NOT ("B" IS NULL)));`},
		},
		{
			source:     "insert into t (a, b) values (?, 'it''s') returning id as key_id",
			parameters: []uint{1},
			code:       []string{`INSERT INTO "T" ("A", "B") VALUES (?, 'it''s') RETURNING "ID" AS "KEY_ID";`},
		},
		{
			source:     "UPDATE t SET a = a + ?, b = ? WHERE id = ? RETURNING a",
			parameters: []uint{3},
			code: []string{`UPDATE "T" SET
	"A" = ("A" + ?),
	"B" = ?
WHERE
	("ID" = ?) RETURNING "A";`},
		},
		{
			source: "delete from t",
			code:   []string{`DELETE FROM "T";`},
		},
		{
			source: "CREATE TABLE t (id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY, amount DECIMAL(18, 4) NOT NULL, f DOUBLE PRECISION, c CHAR(3) DEFAULT 'abc', created TIMESTAMP DEFAULT CURRENT_TIMESTAMP)",
			code: []string{`CREATE TABLE "T" (
	"ID" BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
	"AMOUNT" DECIMAL(18, 4) NOT NULL,
	"F" DOUBLE PRECISION,
	"C" CHAR(3) DEFAULT 'abc',
	"CREATED" TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);`},
		},
		{
			source: "create unique index t_a on t (a); drop table t; commit work; rollback; set transaction",
			code: []string{
				`CREATE UNIQUE INDEX "T_A" ON "T" ("A");`,
				`DROP TABLE "T";`,
				`COMMIT;`,
				`ROLLBACK;`,
				`SET TRANSACTION;`,
			},
		},
	}

	for _, test := range tests {
		ast, err := Parser{HelpMessagesDisabled: true}.Parse(test.source)
		require.Nil(t, err, test.source)
		require.Equal(t, len(test.code), len(ast.Statements), test.source)

		for i, stmt := range ast.Statements {
			assert.Equal(t, test.code[i], stmt.GenerateCode(), test.source)
			if i < len(test.parameters) {
				assert.Equal(t, test.parameters[i], stmt.Parameters, test.source)
			}
		}
	}
}

func TestParse_parameterCount(t *testing.T) {
	ast, err := Parser{HelpMessagesDisabled: true}.Parse("select a from t where a = ?; insert into t values (?, ?)")
	require.Nil(t, err)
	require.Len(t, ast.Statements, 2)

	assert.Equal(t, uint(1), ast.Statements[0].Parameters)
	assert.Equal(t, uint(2), ast.Statements[1].Parameters)

	values := *ast.Statements[1].InsertStatement.values
	assert.Equal(t, uint(0), values[0].param)
	assert.Equal(t, uint(1), values[1].param)
}

func TestParse_errors(t *testing.T) {
	tests := []struct {
		source string
		err    string
	}{
		{"select a from", "Expected FROM item"},
		{"select a b", "Missing semi-colon"},
		{"insert into t values (1", "Expected"},
		{"update t a = 1", "Expected SET"},
		{"create table t (a varchar(10) b int)", "Expected"},
		{"flubberty", "expected statement"},
	}

	for _, test := range tests {
		_, err := Parser{HelpMessagesDisabled: true}.Parse(test.source)
		require.NotNil(t, err, test.source)
		assert.Contains(t, err.Error(), test.err, test.source)
	}
}
