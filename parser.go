package fbsql

import (
	"errors"
	"fmt"
	"strconv"
)

func tokenFromKeyword(k keyword) token {
	return token{
		kind:  keywordKind,
		value: string(k),
	}
}

func tokenFromSymbol(s symbol) token {
	return token{
		kind:  symbolKind,
		value: string(s),
	}
}

// Parser turns SQL text into an Ast. With HelpMessagesDisabled the hints
// about what was expected are only returned in the error, not printed.
type Parser struct {
	HelpMessagesDisabled bool

	params   uint
	lastHelp string
}

func (p *Parser) helpMessage(tokens []*token, cursor uint, msg string) {
	var c *token
	if cursor < uint(len(tokens)) {
		c = tokens[cursor]
	} else if len(tokens) > 0 {
		c = tokens[cursor-1]
	} else {
		c = &token{}
	}

	p.lastHelp = fmt.Sprintf("[%d,%d]: %s, got: %s", c.loc.line, c.loc.col, msg, c.value)
	if !p.HelpMessagesDisabled {
		fmt.Println(p.lastHelp)
	}
}

func expectToken(tokens []*token, cursor uint, t token) bool {
	if cursor >= uint(len(tokens)) {
		return false
	}

	return t.equals(tokens[cursor])
}

func parseToken(tokens []*token, initialCursor uint, kind tokenKind) (*token, uint, bool) {
	cursor := initialCursor

	if cursor >= uint(len(tokens)) {
		return nil, initialCursor, false
	}

	current := tokens[cursor]
	if current.kind == kind {
		return current, cursor + 1, true
	}

	return nil, initialCursor, false
}

var binaryOperators = []token{
	tokenFromKeyword(andKeyword),
	tokenFromKeyword(orKeyword),
	tokenFromKeyword(isKeyword),
	tokenFromSymbol(eqSymbol),
	tokenFromSymbol(neqSymbol),
	tokenFromSymbol(ltSymbol),
	tokenFromSymbol(lteSymbol),
	tokenFromSymbol(gtSymbol),
	tokenFromSymbol(gteSymbol),
	tokenFromSymbol(concatSymbol),
	tokenFromSymbol(plusSymbol),
	tokenFromSymbol(minusSymbol),
}

// Prefix operators bind tighter than any binary operator, except NOT which
// takes a whole comparison.
const (
	negateBindingPower = 6
	notBindingPower    = 3
)

func (p *Parser) parseLiteralExpression(tokens []*token, initialCursor uint) (*expression, uint, bool) {
	cursor := initialCursor
	if cursor >= uint(len(tokens)) {
		return nil, initialCursor, false
	}

	current := tokens[cursor]
	switch current.kind {
	case identifierKind, numericKind, stringKind, boolKind, nullKind:
		return &expression{
			literal: current,
			kind:    literalKind,
		}, cursor + 1, true

	case keywordKind:
		switch keyword(current.value) {
		case currentTimestampKeyword, currentDateKeyword, currentTimeKeyword:
			return &expression{
				literal: current,
				kind:    literalKind,
			}, cursor + 1, true

		case notKeyword:
			operand, newCursor, ok := p.parseExpression(tokens, cursor+1, notBindingPower)
			if !ok {
				p.helpMessage(tokens, cursor+1, "Expected expression after NOT")
				return nil, initialCursor, false
			}
			return &expression{
				unary: &unaryExpression{operand: *operand, op: *current},
				kind:  unaryKind,
			}, newCursor, true
		}

	case symbolKind:
		switch symbol(current.value) {
		case paramSymbol:
			exp := &expression{param: p.params, kind: parameterKind}
			p.params++
			return exp, cursor + 1, true

		case minusSymbol:
			operand, newCursor, ok := p.parseExpression(tokens, cursor+1, negateBindingPower)
			if !ok {
				p.helpMessage(tokens, cursor+1, "Expected expression after -")
				return nil, initialCursor, false
			}
			return &expression{
				unary: &unaryExpression{operand: *operand, op: *current},
				kind:  unaryKind,
			}, newCursor, true
		}
	}

	return nil, initialCursor, false
}

// parseExpression is a Pratt parser over binaryOperators. It stops at the
// first token that is not an operator binding at least as tight as minBp.
func (p *Parser) parseExpression(tokens []*token, initialCursor uint, minBp uint) (*expression, uint, bool) {
	cursor := initialCursor

	var exp *expression
	if expectToken(tokens, cursor, tokenFromSymbol(leftParenSymbol)) {
		cursor++

		inner, newCursor, ok := p.parseExpression(tokens, cursor, 0)
		if !ok {
			p.helpMessage(tokens, cursor, "Expected expression after opening paren")
			return nil, initialCursor, false
		}
		cursor = newCursor

		if !expectToken(tokens, cursor, tokenFromSymbol(rightParenSymbol)) {
			p.helpMessage(tokens, cursor, "Expected closing paren")
			return nil, initialCursor, false
		}
		cursor++
		exp = inner
	} else {
		literal, newCursor, ok := p.parseLiteralExpression(tokens, cursor)
		if !ok {
			return nil, initialCursor, false
		}
		cursor = newCursor
		exp = literal
	}

	for cursor < uint(len(tokens)) {
		var op *token
		for _, bo := range binaryOperators {
			if expectToken(tokens, cursor, bo) {
				op = tokens[cursor]
				break
			}
		}
		if op == nil {
			break
		}

		bp := op.bindingPower()
		if bp < minBp {
			break
		}
		cursor++

		if op.value == string(isKeyword) {
			value := isNullOperator
			if expectToken(tokens, cursor, tokenFromKeyword(notKeyword)) {
				value = isNotNullOperator
				cursor++
			}
			if _, newCursor, ok := parseToken(tokens, cursor, nullKind); ok {
				cursor = newCursor
			} else {
				p.helpMessage(tokens, cursor, "Expected NULL after IS")
				return nil, initialCursor, false
			}

			exp = &expression{
				unary: &unaryExpression{
					operand: *exp,
					op:      token{value: value, kind: keywordKind, loc: op.loc},
				},
				kind: unaryKind,
			}
			continue
		}

		b, newCursor, ok := p.parseExpression(tokens, cursor, bp+1)
		if !ok {
			p.helpMessage(tokens, cursor, "Expected right operand")
			return nil, initialCursor, false
		}
		cursor = newCursor

		exp = &expression{
			binary: &binaryExpression{
				a:  *exp,
				b:  *b,
				op: *op,
			},
			kind: binaryKind,
		}
	}

	return exp, cursor, true
}

// expression [AS ident] [, ...]
func (p *Parser) parseSelectItem(tokens []*token, initialCursor uint) (*[]*selectItem, uint, bool) {
	cursor := initialCursor

	s := []*selectItem{}
	for {
		if cursor >= uint(len(tokens)) {
			break
		}

		if len(s) > 0 {
			if !expectToken(tokens, cursor, tokenFromSymbol(commaSymbol)) {
				break
			}

			cursor++
		}

		var si selectItem
		if expectToken(tokens, cursor, tokenFromSymbol(asteriskSymbol)) {
			si = selectItem{asterisk: true}
			cursor++
		} else {
			exp, newCursor, ok := p.parseExpression(tokens, cursor, 0)
			if !ok {
				p.helpMessage(tokens, cursor, "Expected expression")
				return nil, initialCursor, false
			}

			cursor = newCursor
			si.exp = exp

			if expectToken(tokens, cursor, tokenFromKeyword(asKeyword)) {
				cursor++

				id, newCursor, ok := parseToken(tokens, cursor, identifierKind)
				if !ok {
					p.helpMessage(tokens, cursor, "Expected identifier after AS")
					return nil, initialCursor, false
				}

				cursor = newCursor
				si.as = id
			}
		}

		s = append(s, &si)
	}

	if len(s) == 0 {
		p.helpMessage(tokens, cursor, "Expected select item")
		return nil, initialCursor, false
	}

	return &s, cursor, true
}

func (p *Parser) parseWhere(tokens []*token, initialCursor uint) (*expression, uint, bool) {
	cursor := initialCursor
	if !expectToken(tokens, cursor, tokenFromKeyword(whereKeyword)) {
		return nil, initialCursor, true
	}
	cursor++

	where, newCursor, ok := p.parseExpression(tokens, cursor, 0)
	if !ok {
		p.helpMessage(tokens, cursor, "Expected WHERE conditionals")
		return nil, initialCursor, false
	}

	return where, newCursor, true
}

func (p *Parser) parseReturning(tokens []*token, initialCursor uint) (*[]*selectItem, uint, bool) {
	cursor := initialCursor
	if !expectToken(tokens, cursor, tokenFromKeyword(returningKeyword)) {
		return nil, initialCursor, true
	}
	cursor++

	items, newCursor, ok := p.parseSelectItem(tokens, cursor)
	if !ok {
		return nil, initialCursor, false
	}

	return items, newCursor, true
}

// SELECT [ident [, ...]] [FROM ident] [WHERE expression]
func (p *Parser) parseSelectStatement(tokens []*token, initialCursor uint) (*SelectStatement, uint, bool) {
	cursor := initialCursor
	if !expectToken(tokens, cursor, tokenFromKeyword(selectKeyword)) {
		return nil, initialCursor, false
	}
	cursor++

	slct := SelectStatement{}

	item, newCursor, ok := p.parseSelectItem(tokens, cursor)
	if !ok {
		return nil, initialCursor, false
	}

	slct.item = item
	cursor = newCursor

	if expectToken(tokens, cursor, tokenFromKeyword(fromKeyword)) {
		cursor++

		table, newCursor, ok := parseToken(tokens, cursor, identifierKind)
		if !ok {
			p.helpMessage(tokens, cursor, "Expected FROM item")
			return nil, initialCursor, false
		}

		slct.from = &fromItem{table: table}
		cursor = newCursor
	}

	where, newCursor, ok := p.parseWhere(tokens, cursor)
	if !ok {
		return nil, initialCursor, false
	}
	slct.where = where
	cursor = newCursor

	return &slct, cursor, true
}

func (p *Parser) parseExpressions(tokens []*token, initialCursor uint, delimiter token) (*[]*expression, uint, bool) {
	cursor := initialCursor

	exps := []*expression{}
	for {
		if cursor >= uint(len(tokens)) {
			return nil, initialCursor, false
		}

		current := tokens[cursor]
		if delimiter.equals(current) {
			break
		}

		if len(exps) > 0 {
			if !expectToken(tokens, cursor, tokenFromSymbol(commaSymbol)) {
				p.helpMessage(tokens, cursor, "Expected comma")
				return nil, initialCursor, false
			}

			cursor++
		}

		exp, newCursor, ok := p.parseExpression(tokens, cursor, 0)
		if !ok {
			p.helpMessage(tokens, cursor, "Expected expression")
			return nil, initialCursor, false
		}
		cursor = newCursor

		exps = append(exps, exp)
	}

	return &exps, cursor, true
}

func (p *Parser) parseIdentifiers(tokens []*token, initialCursor uint, delimiter token) (*[]*token, uint, bool) {
	cursor := initialCursor

	ids := []*token{}
	for {
		if cursor >= uint(len(tokens)) {
			return nil, initialCursor, false
		}

		if delimiter.equals(tokens[cursor]) {
			break
		}

		if len(ids) > 0 {
			if !expectToken(tokens, cursor, tokenFromSymbol(commaSymbol)) {
				p.helpMessage(tokens, cursor, "Expected comma")
				return nil, initialCursor, false
			}

			cursor++
		}

		id, newCursor, ok := parseToken(tokens, cursor, identifierKind)
		if !ok {
			p.helpMessage(tokens, cursor, "Expected column name")
			return nil, initialCursor, false
		}
		cursor = newCursor

		ids = append(ids, id)
	}

	return &ids, cursor, true
}

// INSERT INTO ident [(ident [, ...])] VALUES (expression [, ...]) [RETURNING ...]
func (p *Parser) parseInsertStatement(tokens []*token, initialCursor uint) (*InsertStatement, uint, bool) {
	cursor := initialCursor

	if !expectToken(tokens, cursor, tokenFromKeyword(insertKeyword)) {
		return nil, initialCursor, false
	}
	cursor++

	if !expectToken(tokens, cursor, tokenFromKeyword(intoKeyword)) {
		p.helpMessage(tokens, cursor, "Expected into")
		return nil, initialCursor, false
	}
	cursor++

	table, newCursor, ok := parseToken(tokens, cursor, identifierKind)
	if !ok {
		p.helpMessage(tokens, cursor, "Expected table name")
		return nil, initialCursor, false
	}
	cursor = newCursor

	var cols *[]*token
	if expectToken(tokens, cursor, tokenFromSymbol(leftParenSymbol)) {
		cursor++

		cols, newCursor, ok = p.parseIdentifiers(tokens, cursor, tokenFromSymbol(rightParenSymbol))
		if !ok {
			return nil, initialCursor, false
		}
		cursor = newCursor + 1
	}

	if !expectToken(tokens, cursor, tokenFromKeyword(valuesKeyword)) {
		p.helpMessage(tokens, cursor, "Expected VALUES")
		return nil, initialCursor, false
	}
	cursor++

	if !expectToken(tokens, cursor, tokenFromSymbol(leftParenSymbol)) {
		p.helpMessage(tokens, cursor, "Expected left paren")
		return nil, initialCursor, false
	}
	cursor++

	values, newCursor, ok := p.parseExpressions(tokens, cursor, tokenFromSymbol(rightParenSymbol))
	if !ok {
		return nil, initialCursor, false
	}
	cursor = newCursor

	if !expectToken(tokens, cursor, tokenFromSymbol(rightParenSymbol)) {
		p.helpMessage(tokens, cursor, "Expected right paren")
		return nil, initialCursor, false
	}
	cursor++

	returning, newCursor, ok := p.parseReturning(tokens, cursor)
	if !ok {
		return nil, initialCursor, false
	}
	cursor = newCursor

	return &InsertStatement{
		table:     *table,
		cols:      cols,
		values:    values,
		returning: returning,
	}, cursor, true
}

// UPDATE ident SET ident = expression [, ...] [WHERE expression] [RETURNING ...]
func (p *Parser) parseUpdateStatement(tokens []*token, initialCursor uint) (*UpdateStatement, uint, bool) {
	cursor := initialCursor

	if !expectToken(tokens, cursor, tokenFromKeyword(updateKeyword)) {
		return nil, initialCursor, false
	}
	cursor++

	table, newCursor, ok := parseToken(tokens, cursor, identifierKind)
	if !ok {
		p.helpMessage(tokens, cursor, "Expected table name")
		return nil, initialCursor, false
	}
	cursor = newCursor

	if !expectToken(tokens, cursor, tokenFromKeyword(setKeyword)) {
		p.helpMessage(tokens, cursor, "Expected SET")
		return nil, initialCursor, false
	}
	cursor++

	upd := UpdateStatement{table: *table}
	for {
		if len(upd.set) > 0 {
			if !expectToken(tokens, cursor, tokenFromSymbol(commaSymbol)) {
				break
			}
			cursor++
		}

		col, newCursor, ok := parseToken(tokens, cursor, identifierKind)
		if !ok {
			p.helpMessage(tokens, cursor, "Expected column name")
			return nil, initialCursor, false
		}
		cursor = newCursor

		if !expectToken(tokens, cursor, tokenFromSymbol(eqSymbol)) {
			p.helpMessage(tokens, cursor, "Expected =")
			return nil, initialCursor, false
		}
		cursor++

		value, newCursor, ok := p.parseExpression(tokens, cursor, 0)
		if !ok {
			p.helpMessage(tokens, cursor, "Expected expression")
			return nil, initialCursor, false
		}
		cursor = newCursor

		upd.set = append(upd.set, &setClause{column: *col, value: *value})
	}

	where, newCursor, ok := p.parseWhere(tokens, cursor)
	if !ok {
		return nil, initialCursor, false
	}
	upd.where = where
	cursor = newCursor

	returning, newCursor, ok := p.parseReturning(tokens, cursor)
	if !ok {
		return nil, initialCursor, false
	}
	upd.returning = returning
	cursor = newCursor

	return &upd, cursor, true
}

// DELETE FROM ident [WHERE expression] [RETURNING ...]
func (p *Parser) parseDeleteStatement(tokens []*token, initialCursor uint) (*DeleteStatement, uint, bool) {
	cursor := initialCursor

	if !expectToken(tokens, cursor, tokenFromKeyword(deleteKeyword)) {
		return nil, initialCursor, false
	}
	cursor++

	if !expectToken(tokens, cursor, tokenFromKeyword(fromKeyword)) {
		p.helpMessage(tokens, cursor, "Expected FROM")
		return nil, initialCursor, false
	}
	cursor++

	table, newCursor, ok := parseToken(tokens, cursor, identifierKind)
	if !ok {
		p.helpMessage(tokens, cursor, "Expected table name")
		return nil, initialCursor, false
	}
	cursor = newCursor

	del := DeleteStatement{table: *table}

	where, newCursor, ok := p.parseWhere(tokens, cursor)
	if !ok {
		return nil, initialCursor, false
	}
	del.where = where
	cursor = newCursor

	returning, newCursor, ok := p.parseReturning(tokens, cursor)
	if !ok {
		return nil, initialCursor, false
	}
	del.returning = returning
	cursor = newCursor

	return &del, cursor, true
}

var columnTypes = []keyword{
	intKeyword,
	integerKeyword,
	smallintKeyword,
	bigintKeyword,
	numericKeyword,
	decimalKeyword,
	floatKeyword,
	doubleKeyword,
	charKeyword,
	characterKeyword,
	varcharKeyword,
	textKeyword,
	boolKeyword,
	timestampKeyword,
	timeKeyword,
	dateKeyword,
}

func (p *Parser) parseColumnType(tokens []*token, initialCursor uint, cd *columnDefinition) (uint, bool) {
	cursor := initialCursor

	ty, newCursor, ok := parseToken(tokens, cursor, keywordKind)
	if ok {
		ok = false
		for _, k := range columnTypes {
			if ty.value == string(k) {
				ok = true
				break
			}
		}
	}
	if !ok {
		p.helpMessage(tokens, cursor, "Expected column type")
		return initialCursor, false
	}
	cursor = newCursor
	cd.datatype = *ty

	if ty.value == string(doubleKeyword) && expectToken(tokens, cursor, tokenFromKeyword(precisionKeyword)) {
		cursor++
	}

	if !expectToken(tokens, cursor, tokenFromSymbol(leftParenSymbol)) {
		return cursor, true
	}
	cursor++

	size, newCursor, ok := parseToken(tokens, cursor, numericKind)
	if !ok {
		p.helpMessage(tokens, cursor, "Expected type size")
		return initialCursor, false
	}
	cursor = newCursor

	n, err := strconv.ParseUint(size.value, 10, 16)
	if err != nil {
		p.helpMessage(tokens, cursor-1, "Expected integer type size")
		return initialCursor, false
	}
	cd.length = uint(n)

	if expectToken(tokens, cursor, tokenFromSymbol(commaSymbol)) {
		cursor++

		scale, newCursor, ok := parseToken(tokens, cursor, numericKind)
		if !ok {
			p.helpMessage(tokens, cursor, "Expected scale")
			return initialCursor, false
		}
		cursor = newCursor

		s, err := strconv.ParseUint(scale.value, 10, 16)
		if err != nil {
			p.helpMessage(tokens, cursor-1, "Expected integer scale")
			return initialCursor, false
		}
		cd.scale = uint(s)
	}

	if !expectToken(tokens, cursor, tokenFromSymbol(rightParenSymbol)) {
		p.helpMessage(tokens, cursor, "Expected right paren")
		return initialCursor, false
	}
	cursor++

	return cursor, true
}

func (p *Parser) parseColumnDefinitions(tokens []*token, initialCursor uint, delimiter token) (*[]*columnDefinition, uint, bool) {
	cursor := initialCursor

	cds := []*columnDefinition{}
	for {
		if cursor >= uint(len(tokens)) {
			return nil, initialCursor, false
		}

		current := tokens[cursor]
		if delimiter.equals(current) {
			break
		}

		if len(cds) > 0 {
			if !expectToken(tokens, cursor, tokenFromSymbol(commaSymbol)) {
				p.helpMessage(tokens, cursor, "Expected comma")
				return nil, initialCursor, false
			}

			cursor++
		}

		id, newCursor, ok := parseToken(tokens, cursor, identifierKind)
		if !ok {
			p.helpMessage(tokens, cursor, "Expected column name")
			return nil, initialCursor, false
		}
		cursor = newCursor

		cd := columnDefinition{name: *id}
		cursor, ok = p.parseColumnType(tokens, cursor, &cd)
		if !ok {
			return nil, initialCursor, false
		}

		cursor, ok = p.parseColumnModifiers(tokens, cursor, &cd)
		if !ok {
			return nil, initialCursor, false
		}

		cds = append(cds, &cd)
	}

	return &cds, cursor, true
}

func (p *Parser) parseColumnModifiers(tokens []*token, initialCursor uint, cd *columnDefinition) (uint, bool) {
	cursor := initialCursor

	for cursor < uint(len(tokens)) {
		switch {
		case expectToken(tokens, cursor, tokenFromKeyword(primarykeyKeyword)):
			cd.primaryKey = true
			cursor++

		case expectToken(tokens, cursor, tokenFromKeyword(uniqueKeyword)):
			cd.unique = true
			cursor++

		case expectToken(tokens, cursor, tokenFromKeyword(notKeyword)):
			cursor++
			if _, newCursor, ok := parseToken(tokens, cursor, nullKind); ok {
				cursor = newCursor
			} else {
				p.helpMessage(tokens, cursor, "Expected NULL after NOT")
				return initialCursor, false
			}
			cd.notNull = true

		case expectToken(tokens, cursor, tokenFromKeyword(defaultKeyword)):
			cursor++
			def, newCursor, ok := p.parseLiteralExpression(tokens, cursor)
			if !ok || def.kind == parameterKind {
				p.helpMessage(tokens, cursor, "Expected default value")
				return initialCursor, false
			}
			cursor = newCursor
			cd.def = def

		case expectToken(tokens, cursor, tokenFromKeyword(generatedKeyword)):
			cursor++
			for _, k := range []keyword{byKeyword, defaultKeyword, asKeyword, identityKeyword} {
				if !expectToken(tokens, cursor, tokenFromKeyword(k)) {
					p.helpMessage(tokens, cursor, "Expected GENERATED BY DEFAULT AS IDENTITY")
					return initialCursor, false
				}
				cursor++
			}
			cd.identity = true

		default:
			return cursor, true
		}
	}

	return cursor, true
}

func (p *Parser) parseCreateTableStatement(tokens []*token, initialCursor uint) (*CreateTableStatement, uint, bool) {
	cursor := initialCursor

	if !expectToken(tokens, cursor, tokenFromKeyword(createKeyword)) {
		return nil, initialCursor, false
	}
	cursor++

	if !expectToken(tokens, cursor, tokenFromKeyword(tableKeyword)) {
		return nil, initialCursor, false
	}
	cursor++

	name, newCursor, ok := parseToken(tokens, cursor, identifierKind)
	if !ok {
		p.helpMessage(tokens, cursor, "Expected table name")
		return nil, initialCursor, false
	}
	cursor = newCursor

	if !expectToken(tokens, cursor, tokenFromSymbol(leftParenSymbol)) {
		p.helpMessage(tokens, cursor, "Expected left parenthesis")
		return nil, initialCursor, false
	}
	cursor++

	cols, newCursor, ok := p.parseColumnDefinitions(tokens, cursor, tokenFromSymbol(rightParenSymbol))
	if !ok {
		return nil, initialCursor, false
	}
	cursor = newCursor

	if !expectToken(tokens, cursor, tokenFromSymbol(rightParenSymbol)) {
		p.helpMessage(tokens, cursor, "Expected right parenthesis")
		return nil, initialCursor, false
	}
	cursor++

	return &CreateTableStatement{
		name: *name,
		cols: cols,
	}, cursor, true
}

// CREATE [UNIQUE] INDEX ident ON ident (expression)
func (p *Parser) parseCreateIndexStatement(tokens []*token, initialCursor uint) (*CreateIndexStatement, uint, bool) {
	cursor := initialCursor

	if !expectToken(tokens, cursor, tokenFromKeyword(createKeyword)) {
		return nil, initialCursor, false
	}
	cursor++

	unique := false
	if expectToken(tokens, cursor, tokenFromKeyword(uniqueKeyword)) {
		unique = true
		cursor++
	}

	if !expectToken(tokens, cursor, tokenFromKeyword(indexKeyword)) {
		return nil, initialCursor, false
	}
	cursor++

	name, newCursor, ok := parseToken(tokens, cursor, identifierKind)
	if !ok {
		p.helpMessage(tokens, cursor, "Expected index name")
		return nil, initialCursor, false
	}
	cursor = newCursor

	if !expectToken(tokens, cursor, tokenFromKeyword(onKeyword)) {
		p.helpMessage(tokens, cursor, "Expected ON Keyword")
		return nil, initialCursor, false
	}
	cursor++

	table, newCursor, ok := parseToken(tokens, cursor, identifierKind)
	if !ok {
		p.helpMessage(tokens, cursor, "Expected table name")
		return nil, initialCursor, false
	}
	cursor = newCursor

	if !expectToken(tokens, cursor, tokenFromSymbol(leftParenSymbol)) {
		p.helpMessage(tokens, cursor, "Expected left paren")
		return nil, initialCursor, false
	}
	cursor++

	exp, newCursor, ok := p.parseExpression(tokens, cursor, 0)
	if !ok {
		p.helpMessage(tokens, cursor, "Expected index expression")
		return nil, initialCursor, false
	}
	cursor = newCursor

	if !expectToken(tokens, cursor, tokenFromSymbol(rightParenSymbol)) {
		p.helpMessage(tokens, cursor, "Expected right paren")
		return nil, initialCursor, false
	}
	cursor++

	return &CreateIndexStatement{
		name:   *name,
		unique: unique,
		table:  *table,
		exp:    *exp,
	}, cursor, true
}

func (p *Parser) parseDropTableStatement(tokens []*token, initialCursor uint) (*DropTableStatement, uint, bool) {
	cursor := initialCursor

	if !expectToken(tokens, cursor, tokenFromKeyword(dropKeyword)) {
		return nil, initialCursor, false
	}
	cursor++

	if !expectToken(tokens, cursor, tokenFromKeyword(tableKeyword)) {
		return nil, initialCursor, false
	}
	cursor++

	name, newCursor, ok := parseToken(tokens, cursor, identifierKind)
	if !ok {
		p.helpMessage(tokens, cursor, "Expected table name")
		return nil, initialCursor, false
	}
	cursor = newCursor

	return &DropTableStatement{
		name: *name,
	}, cursor, true
}

// COMMIT [WORK] | ROLLBACK [WORK] | SET TRANSACTION [options]
func (p *Parser) parseTransactionStatement(tokens []*token, initialCursor uint) (AstKind, uint, bool) {
	cursor := initialCursor

	switch {
	case expectToken(tokens, cursor, tokenFromKeyword(commitKeyword)):
		cursor++
		if expectToken(tokens, cursor, tokenFromKeyword(workKeyword)) {
			cursor++
		}
		return CommitKind, cursor, true

	case expectToken(tokens, cursor, tokenFromKeyword(rollbackKeyword)):
		cursor++
		if expectToken(tokens, cursor, tokenFromKeyword(workKeyword)) {
			cursor++
		}
		return RollbackKind, cursor, true

	case expectToken(tokens, cursor, tokenFromKeyword(setKeyword)):
		cursor++
		if !expectToken(tokens, cursor, tokenFromKeyword(transactionKeyword)) {
			return 0, initialCursor, false
		}
		cursor++

		// Isolation and wait options are accepted and ignored.
		for cursor < uint(len(tokens)) && !expectToken(tokens, cursor, tokenFromSymbol(semicolonSymbol)) {
			cursor++
		}
		return SetTransactionKind, cursor, true
	}

	return 0, initialCursor, false
}

func (p *Parser) parseStatement(tokens []*token, initialCursor uint) (*ParsedStatement, uint, bool) {
	cursor := initialCursor

	slct, newCursor, ok := p.parseSelectStatement(tokens, cursor)
	if ok {
		return &ParsedStatement{
			Kind:            SelectKind,
			SelectStatement: slct,
		}, newCursor, true
	}

	inst, newCursor, ok := p.parseInsertStatement(tokens, cursor)
	if ok {
		return &ParsedStatement{
			Kind:            InsertKind,
			InsertStatement: inst,
		}, newCursor, true
	}

	upd, newCursor, ok := p.parseUpdateStatement(tokens, cursor)
	if ok {
		return &ParsedStatement{
			Kind:            UpdateKind,
			UpdateStatement: upd,
		}, newCursor, true
	}

	del, newCursor, ok := p.parseDeleteStatement(tokens, cursor)
	if ok {
		return &ParsedStatement{
			Kind:            DeleteKind,
			DeleteStatement: del,
		}, newCursor, true
	}

	crtTbl, newCursor, ok := p.parseCreateTableStatement(tokens, cursor)
	if ok {
		return &ParsedStatement{
			Kind:                 CreateTableKind,
			CreateTableStatement: crtTbl,
		}, newCursor, true
	}

	crtIdx, newCursor, ok := p.parseCreateIndexStatement(tokens, cursor)
	if ok {
		return &ParsedStatement{
			Kind:                 CreateIndexKind,
			CreateIndexStatement: crtIdx,
		}, newCursor, true
	}

	dpTbl, newCursor, ok := p.parseDropTableStatement(tokens, cursor)
	if ok {
		return &ParsedStatement{
			Kind:               DropTableKind,
			DropTableStatement: dpTbl,
		}, newCursor, true
	}

	kind, newCursor, ok := p.parseTransactionStatement(tokens, cursor)
	if ok {
		return &ParsedStatement{Kind: kind}, newCursor, true
	}

	return nil, initialCursor, false
}

// Parse splits source into semicolon delimited statements.
func (p Parser) Parse(source string) (*Ast, error) {
	tokens, err := lex(source)
	if err != nil {
		return nil, err
	}

	a := Ast{}
	cursor := uint(0)
	for cursor < uint(len(tokens)) {
		p.params = 0
		p.lastHelp = ""

		stmt, newCursor, ok := p.parseStatement(tokens, cursor)
		if !ok {
			if p.lastHelp == "" {
				p.helpMessage(tokens, cursor, "Expected statement")
			}
			return nil, errors.New("Failed to parse, expected statement: " + p.lastHelp)
		}
		cursor = newCursor
		stmt.Parameters = p.params

		a.Statements = append(a.Statements, stmt)

		atLeastOneSemicolon := false
		for expectToken(tokens, cursor, tokenFromSymbol(semicolonSymbol)) {
			cursor++
			atLeastOneSemicolon = true
		}

		if !(atLeastOneSemicolon || cursor == uint(len(tokens))) {
			p.helpMessage(tokens, cursor, "Expected semi-colon delimiter between statements")
			return nil, errors.New("Missing semi-colon between statements: " + p.lastHelp)
		}
	}

	return &a, nil
}
