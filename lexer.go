package fbsql

import (
	"fmt"
	"strings"
)

// location of the token in source code
type location struct {
	line uint
	col  uint
}

// for storing SQL reserved keywords
type keyword string

const (
	selectKeyword           keyword = "select"
	fromKeyword             keyword = "from"
	asKeyword               keyword = "as"
	tableKeyword            keyword = "table"
	createKeyword           keyword = "create"
	dropKeyword             keyword = "drop"
	insertKeyword           keyword = "insert"
	intoKeyword             keyword = "into"
	valuesKeyword           keyword = "values"
	updateKeyword           keyword = "update"
	setKeyword              keyword = "set"
	deleteKeyword           keyword = "delete"
	returningKeyword        keyword = "returning"
	intKeyword              keyword = "int"
	integerKeyword          keyword = "integer"
	smallintKeyword         keyword = "smallint"
	bigintKeyword           keyword = "bigint"
	numericKeyword          keyword = "numeric"
	decimalKeyword          keyword = "decimal"
	floatKeyword            keyword = "float"
	doubleKeyword           keyword = "double"
	precisionKeyword        keyword = "precision"
	charKeyword             keyword = "char"
	characterKeyword        keyword = "character"
	varcharKeyword          keyword = "varchar"
	textKeyword             keyword = "text"
	boolKeyword             keyword = "boolean"
	timestampKeyword        keyword = "timestamp"
	timeKeyword             keyword = "time"
	dateKeyword             keyword = "date"
	whereKeyword            keyword = "where"
	andKeyword              keyword = "and"
	orKeyword               keyword = "or"
	notKeyword              keyword = "not"
	isKeyword               keyword = "is"
	trueKeyword             keyword = "true"
	falseKeyword            keyword = "false"
	uniqueKeyword           keyword = "unique"
	indexKeyword            keyword = "index"
	onKeyword               keyword = "on"
	primarykeyKeyword       keyword = "primary key"
	nullKeyword             keyword = "null"
	defaultKeyword          keyword = "default"
	generatedKeyword        keyword = "generated"
	byKeyword               keyword = "by"
	identityKeyword         keyword = "identity"
	commitKeyword           keyword = "commit"
	rollbackKeyword         keyword = "rollback"
	transactionKeyword      keyword = "transaction"
	workKeyword             keyword = "work"
	currentTimestampKeyword keyword = "current_timestamp"
	currentDateKeyword      keyword = "current_date"
	currentTimeKeyword      keyword = "current_time"
)

// for storing SQL syntax
type symbol string

const (
	semicolonSymbol  symbol = ";"
	asteriskSymbol   symbol = "*"
	commaSymbol      symbol = ","
	leftParenSymbol  symbol = "("
	rightParenSymbol symbol = ")"
	eqSymbol         symbol = "="
	neqSymbol        symbol = "<>"
	neqSymbol2       symbol = "!="
	concatSymbol     symbol = "||"
	plusSymbol       symbol = "+"
	minusSymbol      symbol = "-"
	paramSymbol      symbol = "?"
	ltSymbol         symbol = "<"
	lteSymbol        symbol = "<="
	gtSymbol         symbol = ">"
	gteSymbol        symbol = ">="
)

type tokenKind uint

const (
	keywordKind tokenKind = iota
	symbolKind
	identifierKind
	stringKind
	numericKind
	boolKind
	nullKind
)

type token struct {
	value string
	kind  tokenKind
	loc   location
}

func (t token) bindingPower() uint {
	switch t.kind {
	case keywordKind:
		switch keyword(t.value) {
		case orKeyword:
			return 1
		case andKeyword:
			return 2
		case isKeyword:
			return 4
		}
	case symbolKind:
		switch symbol(t.value) {
		case eqSymbol, neqSymbol:
			return 3

		case ltSymbol, gtSymbol, lteSymbol, gteSymbol:
			return 4

		case concatSymbol, plusSymbol, minusSymbol:
			return 5
		}
	}

	return 0
}

func (t *token) equals(other *token) bool {
	return t.value == other.value && t.kind == other.kind
}

// cursor indicates the current position of the lexer
type cursor struct {
	pointer uint
	loc     location
}

// longestMatch iterates through a source string starting at the given
// cursor to find the longest matching substring among the provided
// options
func longestMatch(source string, ic cursor, options []string) string {
	var value []byte
	var skipList []int
	var match string

	cur := ic

	for cur.pointer < uint(len(source)) {

		value = append(value, strings.ToLower(string(source[cur.pointer]))...)
		cur.pointer++

	match:
		for i, option := range options {
			for _, skip := range skipList {
				if i == skip {
					continue match
				}
			}

			// Deal with cases like INT vs INTO
			if option == string(value) {
				skipList = append(skipList, i)
				if len(option) > len(match) {
					match = option
				}

				continue
			}

			sharesPrefix := string(value) == option[:cur.pointer-ic.pointer]
			tooLong := len(value) > len(option)
			if tooLong || !sharesPrefix {
				skipList = append(skipList, i)
			}
		}

		if len(skipList) == len(options) {
			break
		}
	}

	return match
}

func lexSymbol(source string, ic cursor) (*token, cursor, bool) {
	c := source[ic.pointer]
	cur := ic
	// Will get overwritten later if not an ignored syntax
	cur.pointer++
	cur.loc.col++

	switch c {
	// Syntax that should be thrown away
	case '\n':
		cur.loc.line++
		cur.loc.col = 0
		fallthrough
	case '\t', '\r':
		fallthrough
	case ' ':
		return nil, cur, true
	}

	// Syntax that should be kept
	symbols := []symbol{
		eqSymbol,
		neqSymbol,
		neqSymbol2,
		ltSymbol,
		lteSymbol,
		gtSymbol,
		gteSymbol,
		concatSymbol,
		plusSymbol,
		minusSymbol,
		paramSymbol,
		commaSymbol,
		leftParenSymbol,
		rightParenSymbol,
		semicolonSymbol,
		asteriskSymbol,
	}

	var options []string
	for _, s := range symbols {
		options = append(options, string(s))
	}

	// Use `ic`, not `cur`
	match := longestMatch(source, ic, options)
	// Unknown character
	if match == "" {
		return nil, ic, false
	}

	cur.pointer = ic.pointer + uint(len(match))
	cur.loc.col = ic.loc.col + uint(len(match))

	// != is rewritten as <>: https://www.postgresql.org/docs/9.5/functions-comparison.html
	if match == string(neqSymbol2) {
		match = string(neqSymbol)
	}

	return &token{
		value: match,
		loc:   ic.loc,
		kind:  symbolKind,
	}, cur, true
}

func lexKeyword(source string, ic cursor) (*token, cursor, bool) {
	cur := ic
	keywords := []keyword{
		selectKeyword,
		insertKeyword,
		valuesKeyword,
		updateKeyword,
		setKeyword,
		deleteKeyword,
		returningKeyword,
		tableKeyword,
		createKeyword,
		dropKeyword,
		whereKeyword,
		fromKeyword,
		intoKeyword,
		intKeyword,
		integerKeyword,
		smallintKeyword,
		bigintKeyword,
		numericKeyword,
		decimalKeyword,
		floatKeyword,
		doubleKeyword,
		precisionKeyword,
		charKeyword,
		characterKeyword,
		varcharKeyword,
		textKeyword,
		boolKeyword,
		timestampKeyword,
		timeKeyword,
		dateKeyword,
		andKeyword,
		orKeyword,
		notKeyword,
		isKeyword,
		asKeyword,
		trueKeyword,
		falseKeyword,
		uniqueKeyword,
		indexKeyword,
		onKeyword,
		primarykeyKeyword,
		nullKeyword,
		defaultKeyword,
		generatedKeyword,
		byKeyword,
		identityKeyword,
		commitKeyword,
		rollbackKeyword,
		transactionKeyword,
		workKeyword,
		currentTimestampKeyword,
		currentDateKeyword,
		currentTimeKeyword,
	}

	var options []string
	for _, k := range keywords {
		options = append(options, string(k))
	}

	match := longestMatch(source, ic, options)
	if match == "" {
		return nil, ic, false
	}

	// A keyword followed by more identifier characters is an identifier,
	// e.g. UPDATED_AT or INTO_X.
	end := ic.pointer + uint(len(match))
	if end < uint(len(source)) && isIdentifierChar(source[end]) {
		return nil, ic, false
	}

	cur.pointer = end
	cur.loc.col = ic.loc.col + uint(len(match))

	kind := keywordKind
	if match == string(trueKeyword) || match == string(falseKeyword) {
		kind = boolKind
	}

	if match == string(nullKeyword) {
		kind = nullKind
	}

	return &token{
		value: match,
		kind:  kind,
		loc:   ic.loc,
	}, cur, true
}

func lexNumeric(source string, ic cursor) (*token, cursor, bool) {
	cur := ic

	periodFound := false
	expMarkerFound := false

	for ; cur.pointer < uint(len(source)); cur.pointer++ {
		c := source[cur.pointer]
		cur.loc.col++

		isDigit := c >= '0' && c <= '9'
		isPeriod := c == '.'
		isExpMarker := c == 'e'

		// Must start with a digit or period
		if cur.pointer == ic.pointer {
			if !isDigit && !isPeriod {
				return nil, ic, false
			}

			periodFound = isPeriod
			continue
		}

		if isPeriod {
			if periodFound {
				return nil, ic, false
			}

			periodFound = true
			continue
		}

		if isExpMarker {
			if expMarkerFound {
				return nil, ic, false
			}

			// No periods allowed after expMarker
			periodFound = true
			expMarkerFound = true

			// expMarker must be followed by digits
			if cur.pointer == uint(len(source)-1) {
				return nil, ic, false
			}

			cNext := source[cur.pointer+1]
			if cNext == '-' || cNext == '+' {
				cur.pointer++
				cur.loc.col++
			}
			continue
		}

		if !isDigit {
			break
		}
	}

	// No characters accumulated
	if cur.pointer == ic.pointer {
		return nil, ic, false
	}

	return &token{
		value: source[ic.pointer:cur.pointer],
		loc:   ic.loc,
		kind:  numericKind,
	}, cur, true
}

// lexCharacterDelimited looks through a source string starting at the
// given cursor to find a start- and end- delimiter. The delimiter can
// be escaped be preceeding the delimiter with itself.
func lexCharacterDelimited(source string, ic cursor, delimiter byte) (*token, cursor, bool) {
	cur := ic

	if len(source[cur.pointer:]) == 0 {
		return nil, ic, false
	}

	if source[cur.pointer] != delimiter {
		return nil, ic, false
	}

	cur.loc.col++
	cur.pointer++

	var value []byte
	for ; cur.pointer < uint(len(source)); cur.pointer++ {
		c := source[cur.pointer]

		if c == delimiter {
			// SQL escapes are via double characters, not backslash.
			if cur.pointer+1 >= uint(len(source)) || source[cur.pointer+1] != delimiter {
				cur.pointer++
				cur.loc.col++
				return &token{
					value: string(value),
					loc:   ic.loc,
					kind:  stringKind,
				}, cur, true
			}
			cur.pointer++
			cur.loc.col++
		}

		value = append(value, c)
		cur.loc.col++
	}

	return nil, ic, false
}

func isIdentifierChar(c byte) bool {
	// Other characters count too, big ignoring non-ascii for now
	isAlphabetical := (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
	isNumeric := c >= '0' && c <= '9'
	return isAlphabetical || isNumeric || c == '$' || c == '_'
}

func lexIdentifier(source string, ic cursor) (*token, cursor, bool) {
	// Handle separately if is a double-quoted identifier
	if token, newCursor, ok := lexCharacterDelimited(source, ic, '"'); ok {
		token.kind = identifierKind
		return token, newCursor, true
	}

	cur := ic

	c := source[cur.pointer]
	isAlphabetical := (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
	if !isAlphabetical {
		return nil, ic, false
	}
	cur.pointer++
	cur.loc.col++

	value := []byte{c}
	for ; cur.pointer < uint(len(source)); cur.pointer++ {
		c = source[cur.pointer]
		if !isIdentifierChar(c) {
			break
		}

		value = append(value, c)
		cur.loc.col++
	}

	return &token{
		// Unquoted identifiers are case-insensitive and stored uppercase
		value: strings.ToUpper(string(value)),
		loc:   ic.loc,
		kind:  identifierKind,
	}, cur, true
}

func lexString(source string, ic cursor) (*token, cursor, bool) {
	return lexCharacterDelimited(source, ic, '\'')
}

type lexer func(string, cursor) (*token, cursor, bool)

// lex splits an input string into a list of tokens. This process
// can be divided into following tasks:
//
// 1. Instantiating a cursor with pointing to the start of the string
//
// 2. Execute all the lexers in series.
//
// 3. If any of the lexer generate a token then add the token to the
// token slice, update the cursor and restart the process from the new
// cursor location.
func lex(source string) ([]*token, error) {
	var tokens []*token
	cur := cursor{}

lex:
	for cur.pointer < uint(len(source)) {
		lexers := []lexer{lexKeyword, lexSymbol, lexString, lexNumeric, lexIdentifier}
		for _, l := range lexers {
			if token, newCursor, ok := l(source, cur); ok {
				cur = newCursor

				// Omit nil tokens for valid, but empty syntax like newlines
				if token != nil {
					tokens = append(tokens, token)
				}

				continue lex
			}
		}

		hint := ""
		if len(tokens) > 0 {
			hint = " after " + tokens[len(tokens)-1].value
		}
		return nil, fmt.Errorf("Unable to lex token%s, at %d:%d", hint, cur.loc.line, cur.loc.col)
	}

	return tokens, nil
}
