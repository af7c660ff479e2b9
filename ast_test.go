package fbsql

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ident(value string) expression {
	return expression{literal: &token{value: value, kind: identifierKind}, kind: literalKind}
}

func TestStatement_GenerateCode(t *testing.T) {
	tests := []struct {
		result string
		stmt   ParsedStatement
	}{
		{
			`DROP TABLE "FOO";`,
			ParsedStatement{
				DropTableStatement: &DropTableStatement{
					name: token{value: "FOO"},
				},
				Kind: DropTableKind,
			},
		},
		{
			`CREATE TABLE "USERS" (
	"ID" INT PRIMARY KEY,
	"NAME" TEXT,
	"BALANCE" NUMERIC(9, 2) DEFAULT 0 NOT NULL
);`,
			ParsedStatement{
				CreateTableStatement: &CreateTableStatement{
					name: token{value: "USERS"},
					cols: &[]*columnDefinition{
						{
							name:       token{value: "ID"},
							datatype:   token{value: "int"},
							primaryKey: true,
						},
						{
							name:     token{value: "NAME"},
							datatype: token{value: "text"},
						},
						{
							name:     token{value: "BALANCE"},
							datatype: token{value: "numeric"},
							length:   9,
							scale:    2,
							notNull:  true,
							def:      &expression{literal: &token{value: "0", kind: numericKind}, kind: literalKind},
						},
					},
				},
				Kind: CreateTableKind,
			},
		},
		{
			`CREATE UNIQUE INDEX "AGE_IDX" ON "USERS" ("AGE");`,
			ParsedStatement{
				CreateIndexStatement: &CreateIndexStatement{
					name:   token{value: "AGE_IDX"},
					unique: true,
					table:  token{value: "USERS"},
					exp:    ident("AGE"),
				},
				Kind: CreateIndexKind,
			},
		},
		{
			`INSERT INTO "FOO" VALUES (1, 'flubberty', TRUE);`,
			ParsedStatement{
				InsertStatement: &InsertStatement{
					table: token{value: "FOO"},
					values: &[]*expression{
						{literal: &token{value: "1", kind: numericKind}, kind: literalKind},
						{literal: &token{value: "flubberty", kind: stringKind}, kind: literalKind},
						{literal: &token{value: "true", kind: boolKind}, kind: literalKind},
					},
				},
				Kind: InsertKind,
			},
		},
		{
			`INSERT INTO "T" ("A", "B") VALUES (?, ?) RETURNING "ID";`,
			ParsedStatement{
				InsertStatement: &InsertStatement{
					table: token{value: "T"},
					cols:  &[]*token{{value: "A"}, {value: "B"}},
					values: &[]*expression{
						{param: 0, kind: parameterKind},
						{param: 1, kind: parameterKind},
					},
					returning: &[]*selectItem{{exp: &expression{literal: &token{value: "ID", kind: identifierKind}, kind: literalKind}}},
				},
				Kind: InsertKind,
			},
		},
		{
			`SELECT
	"ID",
	"NAME"
FROM
	"USERS"
WHERE
	("ID" = 2);`,
			ParsedStatement{
				SelectStatement: &SelectStatement{
					item: &[]*selectItem{
						{exp: &expression{literal: &token{value: "ID", kind: identifierKind}, kind: literalKind}},
						{exp: &expression{literal: &token{value: "NAME", kind: identifierKind}, kind: literalKind}},
					},
					from: &fromItem{&token{value: "USERS"}},
					where: &expression{
						binary: &binaryExpression{
							a:  ident("ID"),
							b:  expression{literal: &token{value: "2", kind: numericKind}, kind: literalKind},
							op: token{value: "=", kind: symbolKind},
						},
						kind: binaryKind,
					},
				},
				Kind: SelectKind,
			},
		},
		{
			`UPDATE "T" SET
	"A" = ?
WHERE
	("B" IS NOT NULL) RETURNING "A";`,
			ParsedStatement{
				UpdateStatement: &UpdateStatement{
					table: token{value: "T"},
					set:   []*setClause{{column: token{value: "A"}, value: expression{kind: parameterKind}}},
					where: &expression{
						unary: &unaryExpression{operand: ident("B"), op: token{value: isNotNullOperator, kind: keywordKind}},
						kind:  unaryKind,
					},
					returning: &[]*selectItem{{exp: &expression{literal: &token{value: "A", kind: identifierKind}, kind: literalKind}}},
				},
				Kind: UpdateKind,
			},
		},
		{
			`DELETE FROM "T"
WHERE
	(NOT "A");`,
			ParsedStatement{
				DeleteStatement: &DeleteStatement{
					table: token{value: "T"},
					where: &expression{
						unary: &unaryExpression{operand: ident("A"), op: token{value: "not", kind: keywordKind}},
						kind:  unaryKind,
					},
				},
				Kind: DeleteKind,
			},
		},
		{
			`COMMIT;`,
			ParsedStatement{Kind: CommitKind},
		},
	}

	for _, test := range tests {
		assert.Equal(t, test.result, test.stmt.GenerateCode())
	}
}
