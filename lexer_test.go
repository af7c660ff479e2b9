package fbsql

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToken_lexNumeric(t *testing.T) {
	tests := []struct {
		input string
		value string
		ok    bool
	}{
		{"105", "105", true},
		{"105 ", "105", true},
		{"123.145", "123.145", true},
		{"4.", "4.", true},
		{".1", ".1", true},
		{"1.1e-2", "1.1e-2", true},
		{"1e+5", "1e+5", true},
		{"9,", "9", true},
		{"2)", "2", true},
		{"e4", "", false},
		{"1..", "", false},
		{"1ee4", "", false},
		{" 1", "", false},
	}

	for _, test := range tests {
		tok, _, ok := lexNumeric(test.input, cursor{})
		assert.Equal(t, test.ok, ok, test.input)
		if ok {
			assert.Equal(t, test.value, tok.value, test.input)
		}
	}
}

func TestToken_lexString(t *testing.T) {
	tests := []struct {
		input string
		value string
		ok    bool
	}{
		{"'abc'", "abc", true},
		{"'a b' ", "a b", true},
		{"''", "", true},
		{"'it''s'", "it's", true},
		{"''''", "'", true},
		{"'a''''b'", "a''b", true},
		{"'café'", "café", true},
		{"a", "", false},
		{"'", "", false},
		{"'open", "", false},
		{"'it''", "", false},
		{" 'foo'", "", false},
	}

	for _, test := range tests {
		tok, _, ok := lexString(test.input, cursor{})
		assert.Equal(t, test.ok, ok, test.input)
		if ok {
			assert.Equal(t, test.value, tok.value, test.input)
			assert.Equal(t, stringKind, tok.kind, test.input)
		}
	}
}

func TestToken_lexSymbol(t *testing.T) {
	tests := []struct {
		input string
		value string
		ok    bool
	}{
		{"||", "||", true},
		{"|| 'x'", "||", true},
		{"?", "?", true},
		{"<=", "<=", true},
		{"<>", "<>", true},
		{"!=", "<>", true},
		{"(9", "(", true},
		{"#", "", false},
		{"|", "", false},
	}

	for _, test := range tests {
		tok, _, ok := lexSymbol(test.input, cursor{})
		assert.Equal(t, test.ok, ok, test.input)
		if ok {
			assert.Equal(t, test.value, tok.value, test.input)
		}
	}
}

func TestToken_lexIdentifier(t *testing.T) {
	tests := []struct {
		input string
		value string
		ok    bool
	}{
		{"rdb$relations", "RDB$RELATIONS", true},
		{"userName", "USERNAME", true},
		{"a9_b ", "A9_B", true},
		{`"userName"`, "userName", true},
		{`"Order Lines"`, "Order Lines", true},
		{`"select"`, "select", true},
		{`"a""b"`, `a"b`, true},
		{`"`, "", false},
		{`"open`, "", false},
		{"_x", "", false},
		{"9x", "", false},
		{" abc", "", false},
	}

	for _, test := range tests {
		tok, _, ok := lexIdentifier(test.input, cursor{})
		assert.Equal(t, test.ok, ok, test.input)
		if ok {
			assert.Equal(t, test.value, tok.value, test.input)
			assert.Equal(t, identifierKind, tok.kind, test.input)
		}
	}
}

func TestToken_lexKeyword(t *testing.T) {
	tests := []struct {
		input string
		value string
		kind  tokenKind
		ok    bool
	}{
		{"SELECT", "select", keywordKind, true},
		{"Returning ", "returning", keywordKind, true},
		{"numeric(9, 2)", "numeric", keywordKind, true},
		{"double precision", "double", keywordKind, true},
		{"primary key", "primary key", keywordKind, true},
		{"current_timestamp", "current_timestamp", keywordKind, true},
		{"current_time", "current_time", keywordKind, true},
		{"NULL", "null", nullKind, true},
		{"False", "false", boolKind, true},
		{" into", "", 0, false},
		{"updated_at", "", 0, false},
		{"into_x", "", 0, false},
		{"rdb$db_key", "", 0, false},
	}

	for _, test := range tests {
		tok, _, ok := lexKeyword(test.input, cursor{})
		assert.Equal(t, test.ok, ok, test.input)
		if ok {
			assert.Equal(t, test.value, tok.value, test.input)
			assert.Equal(t, test.kind, tok.kind, test.input)
		}
	}
}

type lexed struct {
	value string
	kind  tokenKind
}

func TestLex(t *testing.T) {
	tests := []struct {
		input  string
		tokens []lexed
	}{
		{
			`SELECT "Mixed Case", name FROM "Order"`,
			[]lexed{
				{"select", keywordKind},
				{"Mixed Case", identifierKind},
				{",", symbolKind},
				{"NAME", identifierKind},
				{"from", keywordKind},
				{"Order", identifierKind},
			},
		},
		{
			"INSERT INTO t (s) VALUES ('it''s')",
			[]lexed{
				{"insert", keywordKind},
				{"into", keywordKind},
				{"T", identifierKind},
				{"(", symbolKind},
				{"S", identifierKind},
				{")", symbolKind},
				{"values", keywordKind},
				{"(", symbolKind},
				{"it's", stringKind},
				{")", symbolKind},
			},
		},
		{
			"select first_name || ' ' || last_name from people;",
			[]lexed{
				{"select", keywordKind},
				{"FIRST_NAME", identifierKind},
				{"||", symbolKind},
				{" ", stringKind},
				{"||", symbolKind},
				{"LAST_NAME", identifierKind},
				{"from", keywordKind},
				{"PEOPLE", identifierKind},
				{";", symbolKind},
			},
		},
		{
			"CREATE TABLE p (amount NUMERIC(9, 2) DEFAULT 0)",
			[]lexed{
				{"create", keywordKind},
				{"table", keywordKind},
				{"P", identifierKind},
				{"(", symbolKind},
				{"AMOUNT", identifierKind},
				{"numeric", keywordKind},
				{"(", symbolKind},
				{"9", numericKind},
				{",", symbolKind},
				{"2", numericKind},
				{")", symbolKind},
				{"default", keywordKind},
				{"0", numericKind},
				{")", symbolKind},
			},
		},
		{
			"update t set n = ? where id <> ? returning n",
			[]lexed{
				{"update", keywordKind},
				{"T", identifierKind},
				{"set", keywordKind},
				{"N", identifierKind},
				{"=", symbolKind},
				{"?", symbolKind},
				{"where", keywordKind},
				{"ID", identifierKind},
				{"<>", symbolKind},
				{"?", symbolKind},
				{"returning", keywordKind},
				{"N", identifierKind},
			},
		},
		{
			"SET TRANSACTION; ROLLBACK WORK",
			[]lexed{
				{"set", keywordKind},
				{"transaction", keywordKind},
				{";", symbolKind},
				{"rollback", keywordKind},
				{"work", keywordKind},
			},
		},
	}

	for _, test := range tests {
		tokens, err := lex(test.input)
		assert.Nil(t, err, test.input)

		var got []lexed
		for _, tok := range tokens {
			got = append(got, lexed{tok.value, tok.kind})
		}
		assert.Equal(t, test.tokens, got, test.input)
	}
}

func TestLex_locations(t *testing.T) {
	tokens, err := lex("SELECT a\nFROM \"T\"")
	assert.Nil(t, err)
	assert.Equal(t, []*token{
		{value: "select", kind: keywordKind, loc: location{line: 0, col: 0}},
		{value: "A", kind: identifierKind, loc: location{line: 0, col: 7}},
		{value: "from", kind: keywordKind, loc: location{line: 1, col: 0}},
		{value: "T", kind: identifierKind, loc: location{line: 1, col: 5}},
	}, tokens)
}

func TestLex_errors(t *testing.T) {
	tests := []struct {
		input string
		err   string
	}{
		{"SELECT #", "Unable to lex token after select, at 0:7"},
		{`SELECT "open`, "Unable to lex token after select, at 0:7"},
		{"'open", "Unable to lex token, at 0:0"},
	}

	for _, test := range tests {
		_, err := lex(test.input)
		assert.EqualError(t, err, test.err, test.input)
	}
}
