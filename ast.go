package fbsql

import (
	"fmt"
	"strings"
)

type expressionKind uint

const (
	literalKind expressionKind = iota
	binaryKind
	unaryKind
	parameterKind
)

type binaryExpression struct {
	a  expression
	b  expression
	op token
}

func (be binaryExpression) generateCode() string {
	return fmt.Sprintf("(%s %s %s)", be.a.generateCode(), strings.ToUpper(be.op.value), be.b.generateCode())
}

type unaryExpression struct {
	operand expression
	op      token
}

func (ue unaryExpression) generateCode() string {
	switch ue.op.value {
	case string(notKeyword):
		return fmt.Sprintf("(NOT %s)", ue.operand.generateCode())
	case isNullOperator, isNotNullOperator:
		return fmt.Sprintf("(%s %s)", ue.operand.generateCode(), strings.ToUpper(ue.op.value))
	}
	return fmt.Sprintf("(%s%s)", ue.op.value, ue.operand.generateCode())
}

// Postfix operators are kept as unary expressions with these values.
const (
	isNullOperator    = "is null"
	isNotNullOperator = "is not null"
)

type expression struct {
	literal *token
	binary  *binaryExpression
	unary   *unaryExpression
	// param is the zero-based position of a ? placeholder in its statement
	param uint
	kind  expressionKind
}

func (e expression) generateCode() string {
	switch e.kind {
	case literalKind:
		switch e.literal.kind {
		case identifierKind:
			return fmt.Sprintf("\"%s\"", e.literal.value)
		case stringKind:
			return fmt.Sprintf("'%s'", strings.ReplaceAll(e.literal.value, "'", "''"))
		case keywordKind, boolKind, nullKind:
			return strings.ToUpper(e.literal.value)
		default:
			return e.literal.value
		}

	case binaryKind:
		return e.binary.generateCode()

	case unaryKind:
		return e.unary.generateCode()

	case parameterKind:
		return "?"
	}

	return ""
}

type selectItem struct {
	exp      *expression
	asterisk bool
	as       *token
}

func generateItems(items []*selectItem) []string {
	item := []string{}
	for _, i := range items {
		s := "*"
		if !i.asterisk {
			s = i.exp.generateCode()

			if i.as != nil {
				s = fmt.Sprintf("%s AS \"%s\"", s, i.as.value)
			}
		}
		item = append(item, s)
	}
	return item
}

type fromItem struct {
	table *token
}

type SelectStatement struct {
	item  *[]*selectItem
	from  *fromItem
	where *expression
}

func (ss SelectStatement) GenerateCode() string {
	item := generateItems(*ss.item)
	for i := range item {
		item[i] = "\t" + item[i]
	}

	from := ""
	if ss.from != nil {
		from = fmt.Sprintf("\nFROM\n\t\"%s\"", ss.from.table.value)
	}

	where := ""
	if ss.where != nil {
		where = fmt.Sprintf("\nWHERE\n\t%s", ss.where.generateCode())
	}

	return fmt.Sprintf("SELECT\n%s%s%s;", strings.Join(item, ",\n"), from, where)
}

type columnDefinition struct {
	name     token
	datatype token
	// length is the declared width of CHAR and VARCHAR or the precision of
	// NUMERIC and DECIMAL; zero when not given.
	length     uint
	scale      uint
	notNull    bool
	primaryKey bool
	unique     bool
	identity   bool
	def        *expression
}

func (cd columnDefinition) typeCode() string {
	name := strings.ToUpper(cd.datatype.value)
	switch keyword(cd.datatype.value) {
	case doubleKeyword:
		return "DOUBLE PRECISION"
	case characterKeyword:
		name = "CHAR"
	}

	switch keyword(cd.datatype.value) {
	case charKeyword, characterKeyword, varcharKeyword:
		if cd.length > 0 {
			return fmt.Sprintf("%s(%d)", name, cd.length)
		}
	case numericKeyword, decimalKeyword:
		if cd.length > 0 {
			return fmt.Sprintf("%s(%d, %d)", name, cd.length, cd.scale)
		}
	}
	return name
}

type CreateTableStatement struct {
	name token
	cols *[]*columnDefinition
}

func (cts CreateTableStatement) GenerateCode() string {
	cols := []string{}
	for _, col := range *cts.cols {
		modifiers := ""
		if col.identity {
			modifiers += " GENERATED BY DEFAULT AS IDENTITY"
		}
		if col.def != nil {
			modifiers += " DEFAULT " + col.def.generateCode()
		}
		if col.notNull {
			modifiers += " NOT NULL"
		}
		if col.primaryKey {
			modifiers += " PRIMARY KEY"
		}
		if col.unique {
			modifiers += " UNIQUE"
		}
		spec := fmt.Sprintf("\t\"%s\" %s%s", col.name.value, col.typeCode(), modifiers)
		cols = append(cols, spec)
	}
	return fmt.Sprintf("CREATE TABLE \"%s\" (\n%s\n);", cts.name.value, strings.Join(cols, ",\n"))
}

type CreateIndexStatement struct {
	name       token
	unique     bool
	primaryKey bool
	table      token
	exp        expression
}

func (cis CreateIndexStatement) GenerateCode() string {
	unique := ""
	if cis.unique {
		unique = " UNIQUE"
	}
	return fmt.Sprintf("CREATE%s INDEX \"%s\" ON \"%s\" (%s);", unique, cis.name.value, cis.table.value, cis.exp.generateCode())
}

type DropTableStatement struct {
	name token
}

func (dts DropTableStatement) GenerateCode() string {
	return fmt.Sprintf("DROP TABLE \"%s\";", dts.name.value)
}

func generateReturning(returning *[]*selectItem) string {
	if returning == nil {
		return ""
	}
	return " RETURNING " + strings.Join(generateItems(*returning), ", ")
}

type InsertStatement struct {
	table     token
	cols      *[]*token
	values    *[]*expression
	returning *[]*selectItem
}

func (is InsertStatement) GenerateCode() string {
	cols := ""
	if is.cols != nil {
		names := []string{}
		for _, c := range *is.cols {
			names = append(names, fmt.Sprintf("\"%s\"", c.value))
		}
		cols = " (" + strings.Join(names, ", ") + ")"
	}

	values := []string{}
	for _, exp := range *is.values {
		values = append(values, exp.generateCode())
	}
	return fmt.Sprintf("INSERT INTO \"%s\"%s VALUES (%s)%s;", is.table.value, cols, strings.Join(values, ", "), generateReturning(is.returning))
}

type setClause struct {
	column token
	value  expression
}

type UpdateStatement struct {
	table     token
	set       []*setClause
	where     *expression
	returning *[]*selectItem
}

func (us UpdateStatement) GenerateCode() string {
	set := []string{}
	for _, s := range us.set {
		set = append(set, fmt.Sprintf("\t\"%s\" = %s", s.column.value, s.value.generateCode()))
	}

	where := ""
	if us.where != nil {
		where = fmt.Sprintf("\nWHERE\n\t%s", us.where.generateCode())
	}

	return fmt.Sprintf("UPDATE \"%s\" SET\n%s%s%s;", us.table.value, strings.Join(set, ",\n"), where, generateReturning(us.returning))
}

type DeleteStatement struct {
	table     token
	where     *expression
	returning *[]*selectItem
}

func (ds DeleteStatement) GenerateCode() string {
	where := ""
	if ds.where != nil {
		where = fmt.Sprintf("\nWHERE\n\t%s", ds.where.generateCode())
	}
	return fmt.Sprintf("DELETE FROM \"%s\"%s%s;", ds.table.value, where, generateReturning(ds.returning))
}

type AstKind uint

const (
	SelectKind AstKind = iota
	CreateTableKind
	CreateIndexKind
	DropTableKind
	InsertKind
	UpdateKind
	DeleteKind
	CommitKind
	RollbackKind
	SetTransactionKind
)

type ParsedStatement struct {
	SelectStatement      *SelectStatement
	CreateTableStatement *CreateTableStatement
	CreateIndexStatement *CreateIndexStatement
	DropTableStatement   *DropTableStatement
	InsertStatement      *InsertStatement
	UpdateStatement      *UpdateStatement
	DeleteStatement      *DeleteStatement
	Kind                 AstKind
	// Parameters is the number of ? placeholders in the statement.
	Parameters uint
}

func (s ParsedStatement) GenerateCode() string {
	switch s.Kind {
	case SelectKind:
		return s.SelectStatement.GenerateCode()
	case CreateTableKind:
		return s.CreateTableStatement.GenerateCode()
	case CreateIndexKind:
		return s.CreateIndexStatement.GenerateCode()
	case DropTableKind:
		return s.DropTableStatement.GenerateCode()
	case InsertKind:
		return s.InsertStatement.GenerateCode()
	case UpdateKind:
		return s.UpdateStatement.GenerateCode()
	case DeleteKind:
		return s.DeleteStatement.GenerateCode()
	case CommitKind:
		return "COMMIT;"
	case RollbackKind:
		return "ROLLBACK;"
	case SetTransactionKind:
		return "SET TRANSACTION;"
	}

	return "?unknown?"
}

type Ast struct {
	Statements []*ParsedStatement
}
