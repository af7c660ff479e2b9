package fbsql

import (
	"math"
	"strconv"
	"strings"
)

// describer types the parameters and output columns of a statement.
type describer struct {
	db     *MemoryDatabase
	table  *memTable
	params []ColumnDescriptor
	known  []bool
}

func (d *describer) useTable(name string) error {
	t, ok := d.db.tables[name]
	if !ok {
		return engineError(sqlcodeTableUnknown, "Table unknown\n%s", name)
	}
	d.table = t
	return nil
}

func (d *describer) statement(s *ParsedStatement) (StatementKind, []ColumnDescriptor, error) {
	switch s.Kind {
	case SelectKind:
		sel := s.SelectStatement
		if sel.from != nil {
			if err := d.useTable(sel.from.table.value); err != nil {
				return KindOther, nil, err
			}
		}
		outputs, err := d.items(*sel.item)
		if err != nil {
			return KindOther, nil, err
		}
		if err := d.condition(sel.where); err != nil {
			return KindOther, nil, err
		}
		return KindSelect, outputs, nil

	case InsertKind:
		ins := s.InsertStatement
		if err := d.useTable(ins.table.value); err != nil {
			return KindOther, nil, err
		}
		targets, err := insertTargets(d.table, ins)
		if err != nil {
			return KindOther, nil, err
		}
		for i, exp := range *ins.values {
			col := d.table.columns[targets[i]]
			if _, err := d.expr(*exp, &col); err != nil {
				return KindOther, nil, err
			}
		}
		outputs, err := d.returning(ins.returning)
		return KindInsert, outputs, err

	case UpdateKind:
		upd := s.UpdateStatement
		if err := d.useTable(upd.table.value); err != nil {
			return KindOther, nil, err
		}
		for _, set := range upd.set {
			i := d.table.columnIndex(set.column.value)
			if i < 0 {
				return KindOther, nil, engineError(sqlcodeColumnUnknown, "Column unknown\n%s", set.column.value)
			}
			col := d.table.columns[i]
			if _, err := d.expr(set.value, &col); err != nil {
				return KindOther, nil, err
			}
		}
		if err := d.condition(upd.where); err != nil {
			return KindOther, nil, err
		}
		outputs, err := d.returning(upd.returning)
		return KindUpdate, outputs, err

	case DeleteKind:
		del := s.DeleteStatement
		if err := d.useTable(del.table.value); err != nil {
			return KindOther, nil, err
		}
		if err := d.condition(del.where); err != nil {
			return KindOther, nil, err
		}
		outputs, err := d.returning(del.returning)
		return KindDelete, outputs, err

	case CreateTableKind, CreateIndexKind, DropTableKind:
		return KindDDL, nil, nil
	case CommitKind:
		return KindCommit, nil, nil
	case RollbackKind:
		return KindRollback, nil, nil
	case SetTransactionKind:
		return KindStartTransaction, nil, nil
	}

	return KindOther, nil, engineError(sqlcodeSyntax, "Dynamic SQL Error\nunsupported statement")
}

// insertTargets maps each VALUES position to a column of t.
func insertTargets(t *memTable, ins *InsertStatement) ([]int, error) {
	var targets []int
	if ins.cols == nil {
		for i := range t.columns {
			targets = append(targets, i)
		}
	} else {
		for _, c := range *ins.cols {
			i := t.columnIndex(c.value)
			if i < 0 {
				return nil, engineError(sqlcodeColumnUnknown, "Column unknown\n%s", c.value)
			}
			targets = append(targets, i)
		}
	}

	if len(targets) != len(*ins.values) {
		return nil, engineError(sqlcodeDataType, "Count of column list and variable list do not match")
	}
	return targets, nil
}

func (d *describer) returning(items *[]*selectItem) ([]ColumnDescriptor, error) {
	if items == nil {
		return nil, nil
	}
	return d.items(*items)
}

func (d *describer) condition(where *expression) error {
	if where == nil {
		return nil
	}
	_, err := d.expr(*where, &ColumnDescriptor{Type: SQLBoolean, Length: 1})
	return err
}

func (d *describer) items(items []*selectItem) ([]ColumnDescriptor, error) {
	var outputs []ColumnDescriptor
	for _, item := range items {
		if item.asterisk {
			if d.table == nil {
				return nil, engineError(sqlcodeSyntax, "Dynamic SQL Error\nInvalid use of *")
			}
			outputs = append(outputs, d.table.columns...)
			continue
		}

		desc, err := d.expr(*item.exp, nil)
		if err != nil {
			return nil, err
		}
		if item.as != nil {
			desc.Alias = item.as.value
		}
		outputs = append(outputs, desc)
	}
	return outputs, nil
}

var (
	booleanDesc   = ColumnDescriptor{Type: SQLBoolean, Length: 1}
	concatParam   = ColumnDescriptor{Type: SQLVarying, Length: 255}
	maxTextLength = int16(32765)
)

// expr describes e. hint is the type a parameter in the position of e
// takes; a parameter with no hint cannot be typed.
func (d *describer) expr(e expression, hint *ColumnDescriptor) (ColumnDescriptor, error) {
	switch e.kind {
	case parameterKind:
		if hint == nil {
			return ColumnDescriptor{}, engineError(sqlcodeDataType, "Dynamic SQL Error\nData type unknown")
		}
		p := ColumnDescriptor{Type: hint.Type, SubType: hint.SubType, Length: hint.Length, Scale: hint.Scale, Nullable: true}
		d.params[e.param] = p
		d.known[e.param] = true
		return p, nil

	case literalKind:
		return d.literal(e.literal)

	case unaryKind:
		switch e.unary.op.value {
		case isNullOperator, isNotNullOperator:
			if _, err := d.expr(e.unary.operand, nil); err != nil {
				return ColumnDescriptor{}, err
			}
			return booleanDesc, nil
		case string(notKeyword):
			operand, err := d.expr(e.unary.operand, &booleanDesc)
			if err != nil {
				return ColumnDescriptor{}, err
			}
			b := booleanDesc
			b.Nullable = operand.Nullable
			return b, nil
		}
		operand, err := d.expr(e.unary.operand, hint)
		if err != nil {
			return ColumnDescriptor{}, err
		}
		operand.Name, operand.Alias, operand.Relation = "SUBTRACT", "", ""
		return operand, nil

	case binaryKind:
		return d.binary(e.binary)
	}

	return ColumnDescriptor{}, engineError(sqlcodeSyntax, "Dynamic SQL Error\nunsupported expression")
}

// pair describes both operands, typing a parameter on one side from the
// other side. fallback types a parameter facing another parameter.
func (d *describer) pair(a, b expression, fallback *ColumnDescriptor) (ColumnDescriptor, ColumnDescriptor, error) {
	if a.kind == parameterKind {
		var hint *ColumnDescriptor
		if b.kind != parameterKind {
			bd, err := d.expr(b, nil)
			if err != nil {
				return ColumnDescriptor{}, ColumnDescriptor{}, err
			}
			hint = &bd
		} else {
			hint = fallback
		}
		ad, err := d.expr(a, hint)
		if err != nil {
			return ColumnDescriptor{}, ColumnDescriptor{}, err
		}
		if b.kind == parameterKind {
			bd, err := d.expr(b, fallback)
			return ad, bd, err
		}
		return ad, *hint, nil
	}

	ad, err := d.expr(a, nil)
	if err != nil {
		return ColumnDescriptor{}, ColumnDescriptor{}, err
	}
	bd, err := d.expr(b, &ad)
	return ad, bd, err
}

func (d *describer) binary(b *binaryExpression) (ColumnDescriptor, error) {
	if b.op.kind == keywordKind {
		left, err := d.expr(b.a, &booleanDesc)
		if err != nil {
			return ColumnDescriptor{}, err
		}
		right, err := d.expr(b.b, &booleanDesc)
		if err != nil {
			return ColumnDescriptor{}, err
		}
		r := booleanDesc
		r.Nullable = left.Nullable || right.Nullable
		return r, nil
	}

	switch symbol(b.op.value) {
	case concatSymbol:
		left, right, err := d.pair(b.a, b.b, &concatParam)
		if err != nil {
			return ColumnDescriptor{}, err
		}
		if left.Type != SQLText && left.Type != SQLVarying && b.a.kind == parameterKind {
			d.params[b.a.param] = ColumnDescriptor{Type: SQLVarying, Length: 255, Nullable: true}
			left = concatParam
		}
		if right.Type != SQLText && right.Type != SQLVarying && b.b.kind == parameterKind {
			d.params[b.b.param] = ColumnDescriptor{Type: SQLVarying, Length: 255, Nullable: true}
			right = concatParam
		}
		length := displayWidth(left) + displayWidth(right)
		if length > int(maxTextLength) {
			length = int(maxTextLength)
		}
		return ColumnDescriptor{
			Type:     SQLVarying,
			Length:   int16(length),
			Nullable: left.Nullable || right.Nullable,
			Name:     "CONCATENATION",
		}, nil

	case plusSymbol, minusSymbol:
		left, right, err := d.pair(b.a, b.b, &ColumnDescriptor{Type: SQLInt64, Length: 8})
		if err != nil {
			return ColumnDescriptor{}, err
		}
		r, err := arithmeticType(left, right)
		if err != nil {
			return ColumnDescriptor{}, err
		}
		r.Name = "ADD"
		if symbol(b.op.value) == minusSymbol {
			r.Name = "SUBTRACT"
		}
		return r, nil

	default:
		left, right, err := d.pair(b.a, b.b, nil)
		if err != nil {
			return ColumnDescriptor{}, err
		}
		r := booleanDesc
		r.Nullable = left.Nullable || right.Nullable
		return r, nil
	}
}

func isNumericType(t SQLType) bool {
	return t.isInteger() || t == SQLFloat || t == SQLDouble
}

func arithmeticType(a, b ColumnDescriptor) (ColumnDescriptor, error) {
	if !isNumericType(a.Type) || !isNumericType(b.Type) {
		return ColumnDescriptor{}, engineError(sqlcodeDataType, "Dynamic SQL Error\nInvalid data type for arithmetic")
	}
	nullable := a.Nullable || b.Nullable
	if a.Type == SQLFloat || a.Type == SQLDouble || b.Type == SQLFloat || b.Type == SQLDouble {
		return ColumnDescriptor{Type: SQLDouble, Length: 8, Nullable: nullable}, nil
	}

	scale := a.Scale
	if b.Scale < scale {
		scale = b.Scale
	}
	r := ColumnDescriptor{Type: SQLInt64, Length: 8, Scale: scale, Nullable: nullable}
	if scale < 0 {
		r.SubType = SubTypeNumeric
	}
	return r, nil
}

// displayWidth is the number of characters a value of d needs as text.
func displayWidth(d ColumnDescriptor) int {
	switch d.Type {
	case SQLText, SQLVarying:
		return int(d.Length)
	case SQLShort:
		return 6
	case SQLLong:
		return 11
	case SQLInt64:
		return 20
	case SQLFloat, SQLDouble:
		return 24
	case SQLTimestamp:
		return 24
	case SQLTypeTime:
		return 13
	case SQLTypeDate:
		return 10
	case SQLBoolean:
		return 5
	}
	return 0
}

func (d *describer) literal(t *token) (ColumnDescriptor, error) {
	switch t.kind {
	case identifierKind:
		if d.table == nil {
			return ColumnDescriptor{}, engineError(sqlcodeColumnUnknown, "Column unknown\n%s", t.value)
		}
		i := d.table.columnIndex(t.value)
		if i < 0 {
			return ColumnDescriptor{}, engineError(sqlcodeColumnUnknown, "Column unknown\n%s", t.value)
		}
		return d.table.columns[i], nil

	case numericKind:
		return numericLiteralType(t.value)

	case stringKind:
		n := len(t.value)
		if n == 0 {
			n = 1
		}
		return ColumnDescriptor{Type: SQLText, Length: int16(n), Name: "CONSTANT"}, nil

	case boolKind:
		return ColumnDescriptor{Type: SQLBoolean, Length: 1, Name: "CONSTANT"}, nil

	case nullKind:
		return ColumnDescriptor{Type: SQLText, Length: 1, Nullable: true, Name: "CONSTANT"}, nil

	case keywordKind:
		switch keyword(t.value) {
		case currentTimestampKeyword:
			return ColumnDescriptor{Type: SQLTimestamp, Length: 8, Name: "CURRENT_TIMESTAMP"}, nil
		case currentDateKeyword:
			return ColumnDescriptor{Type: SQLTypeDate, Length: 4, Name: "CURRENT_DATE"}, nil
		case currentTimeKeyword:
			return ColumnDescriptor{Type: SQLTypeTime, Length: 4, Name: "CURRENT_TIME"}, nil
		}
	}

	return ColumnDescriptor{}, engineError(sqlcodeSyntax, "Dynamic SQL Error\nToken unknown %s", t.value)
}

func numericLiteralType(s string) (ColumnDescriptor, error) {
	if strings.ContainsAny(s, "eE") {
		return ColumnDescriptor{Type: SQLDouble, Length: 8, Name: "CONSTANT"}, nil
	}
	if i := strings.Index(s, "."); i >= 0 {
		return ColumnDescriptor{
			Type:    SQLInt64,
			SubType: SubTypeNumeric,
			Length:  8,
			Scale:   -int16(len(s) - i - 1),
			Name:    "CONSTANT",
		}, nil
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return ColumnDescriptor{}, engineError(sqlcodeArithmetic, "arithmetic exception, numeric overflow, or string truncation")
	}
	if n >= math.MinInt32 && n <= math.MaxInt32 {
		return ColumnDescriptor{Type: SQLLong, Length: 4, Name: "CONSTANT"}, nil
	}
	return ColumnDescriptor{Type: SQLInt64, Length: 8, Name: "CONSTANT"}, nil
}

// columnDescriptor maps a column definition to its storage type.
func columnDescriptor(cd *columnDefinition, table string) (ColumnDescriptor, error) {
	d := ColumnDescriptor{
		Name:     cd.name.value,
		Relation: table,
		Nullable: !(cd.notNull || cd.primaryKey || cd.identity),
	}

	switch keyword(cd.datatype.value) {
	case smallintKeyword:
		d.Type, d.Length = SQLShort, 2
	case intKeyword, integerKeyword:
		d.Type, d.Length = SQLLong, 4
	case bigintKeyword:
		d.Type, d.Length = SQLInt64, 8

	case numericKeyword, decimalKeyword:
		p, s := cd.length, cd.scale
		if p == 0 {
			p = 9
		}
		if p > 18 {
			return d, engineError(sqlcodePrecision, "Precision must be from 1 to 18")
		}
		if s > p {
			return d, engineError(sqlcodePrecision, "Scale must be between zero and precision")
		}

		d.SubType = SubTypeNumeric
		if keyword(cd.datatype.value) == decimalKeyword {
			d.SubType = SubTypeDecimal
		}
		switch {
		case p <= 4 && d.SubType == SubTypeNumeric:
			d.Type, d.Length = SQLShort, 2
		case p <= 9:
			d.Type, d.Length = SQLLong, 4
		default:
			d.Type, d.Length = SQLInt64, 8
		}
		d.Scale = -int16(s)

	case floatKeyword:
		d.Type, d.Length = SQLFloat, 4
	case doubleKeyword:
		d.Type, d.Length = SQLDouble, 8

	case charKeyword, characterKeyword, varcharKeyword, textKeyword:
		n := cd.length
		switch keyword(cd.datatype.value) {
		case varcharKeyword:
			if n == 0 {
				return d, engineError(sqlcodeSyntax, "Dynamic SQL Error\nVARCHAR requires a length")
			}
			d.Type = SQLVarying
		case textKeyword:
			n = uint(maxTextLength)
			d.Type = SQLVarying
		default:
			if n == 0 {
				n = 1
			}
			d.Type = SQLText
		}
		if n > uint(maxTextLength) {
			return d, engineError(sqlcodePrecision, "Dynamic SQL Error\nlength %d exceeds the maximum of %d", n, maxTextLength)
		}
		d.Length = int16(n)

	case boolKeyword:
		d.Type, d.Length = SQLBoolean, 1
	case timestampKeyword:
		d.Type, d.Length = SQLTimestamp, 8
	case timeKeyword:
		d.Type, d.Length = SQLTypeTime, 4
	case dateKeyword:
		d.Type, d.Length = SQLTypeDate, 4

	default:
		return d, engineError(sqlcodeSyntax, "Dynamic SQL Error\nData type unknown %s", cd.datatype.value)
	}

	if cd.identity && (!d.Type.isInteger() || d.Scale != 0) {
		return d, engineError(sqlcodeMetadata, "unsuccessful metadata update\nIdentity column %s must be of exact numeric type", d.Name)
	}
	return d, nil
}
