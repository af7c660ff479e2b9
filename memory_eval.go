package fbsql

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/golang-sql/civil"
	"github.com/shopspring/decimal"
)

// The memory engine holds every value as one of nil (NULL), int64,
// decimal.Decimal, float64, string, bool, civil.Date, civil.Time or
// civil.DateTime. Column values are always coerced to their declared type.

type evalEnv struct {
	table  *memTable
	row    []interface{}
	params []interface{}
	now    time.Time
}

func (env *evalEnv) column(name string) (interface{}, error) {
	if env.table == nil {
		return nil, engineError(sqlcodeColumnUnknown, "Column unknown %s", name)
	}
	i := env.table.columnIndex(name)
	if i < 0 {
		return nil, engineError(sqlcodeColumnUnknown, "Column unknown %s", name)
	}
	return env.row[i], nil
}

func (env *evalEnv) eval(e expression) (interface{}, error) {
	switch e.kind {
	case literalKind:
		return env.literal(e.literal)
	case parameterKind:
		if int(e.param) >= len(env.params) {
			return nil, engineError(sqlcodeDataType, "Incorrect values within SQLDA structure")
		}
		return env.params[e.param], nil
	case unaryKind:
		return env.unary(e.unary)
	case binaryKind:
		return env.binary(e.binary)
	}
	return nil, engineError(sqlcodeSyntax, "unsupported expression")
}

func (env *evalEnv) literal(t *token) (interface{}, error) {
	switch t.kind {
	case identifierKind:
		return env.column(t.value)
	case numericKind:
		return parseNumber(t.value)
	case stringKind:
		return t.value, nil
	case boolKind:
		return t.value == string(trueKeyword), nil
	case nullKind:
		return nil, nil
	case keywordKind:
		now := civil.DateTimeOf(env.now)
		switch keyword(t.value) {
		case currentTimestampKeyword:
			return now, nil
		case currentDateKeyword:
			return now.Date, nil
		case currentTimeKeyword:
			return now.Time, nil
		}
	}
	return nil, engineError(sqlcodeSyntax, "Token unknown %s", t.value)
}

// parseNumber reads a numeric literal as int64, exact decimal or float64
// depending on whether it has a fraction or an exponent.
func parseNumber(s string) (interface{}, error) {
	if strings.ContainsAny(s, "eE") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, engineError(sqlcodeConversion, "conversion error from string %q", s)
		}
		return f, nil
	}
	if strings.Contains(s, ".") {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return nil, engineError(sqlcodeConversion, "conversion error from string %q", s)
		}
		return d, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, engineError(sqlcodeArithmetic, "arithmetic exception, numeric overflow, or string truncation")
	}
	return n, nil
}

func (env *evalEnv) unary(u *unaryExpression) (interface{}, error) {
	v, err := env.eval(u.operand)
	if err != nil {
		return nil, err
	}

	switch u.op.value {
	case isNullOperator:
		return v == nil, nil
	case isNotNullOperator:
		return v != nil, nil
	case string(notKeyword):
		if v == nil {
			return nil, nil
		}
		b, ok := v.(bool)
		if !ok {
			return nil, engineError(sqlcodeConversion, "conversion error from %s to BOOLEAN", stringify(v))
		}
		return !b, nil
	case string(minusSymbol):
		return arithmetic(minusSymbol, int64(0), v)
	}
	return nil, engineError(sqlcodeSyntax, "Token unknown %s", u.op.value)
}

func (env *evalEnv) binary(b *binaryExpression) (interface{}, error) {
	left, err := env.eval(b.a)
	if err != nil {
		return nil, err
	}
	right, err := env.eval(b.b)
	if err != nil {
		return nil, err
	}

	switch b.op.kind {
	case keywordKind:
		switch keyword(b.op.value) {
		case andKeyword:
			return logical(left, right, false)
		case orKeyword:
			return logical(left, right, true)
		}

	case symbolKind:
		switch symbol(b.op.value) {
		case plusSymbol, minusSymbol:
			return arithmetic(symbol(b.op.value), left, right)

		case concatSymbol:
			if left == nil || right == nil {
				return nil, nil
			}
			return stringify(left) + stringify(right), nil

		case eqSymbol, neqSymbol, ltSymbol, lteSymbol, gtSymbol, gteSymbol:
			if left == nil || right == nil {
				return nil, nil
			}
			c, err := compareValues(left, right)
			if err != nil {
				return nil, err
			}
			switch symbol(b.op.value) {
			case eqSymbol:
				return c == 0, nil
			case neqSymbol:
				return c != 0, nil
			case ltSymbol:
				return c < 0, nil
			case lteSymbol:
				return c <= 0, nil
			case gtSymbol:
				return c > 0, nil
			default:
				return c >= 0, nil
			}
		}
	}

	return nil, engineError(sqlcodeSyntax, "Token unknown %s", b.op.value)
}

// truth evaluates a search condition. NULL counts as false.
func (env *evalEnv) truth(e *expression) (bool, error) {
	if e == nil {
		return true, nil
	}
	v, err := env.eval(*e)
	if err != nil {
		return false, err
	}
	switch b := v.(type) {
	case nil:
		return false, nil
	case bool:
		return b, nil
	}
	return false, engineError(sqlcodeConversion, "conversion error from %s to BOOLEAN", stringify(v))
}

// logical implements three-valued AND (or=false) and OR (or=true).
func logical(left, right interface{}, or bool) (interface{}, error) {
	var l, r *bool
	for _, side := range []struct {
		v   interface{}
		dst **bool
	}{{left, &l}, {right, &r}} {
		if side.v == nil {
			continue
		}
		b, ok := side.v.(bool)
		if !ok {
			return nil, engineError(sqlcodeConversion, "conversion error from %s to BOOLEAN", stringify(side.v))
		}
		*side.dst = &b
	}

	// A decisive operand settles the result even when the other is NULL.
	if (l != nil && *l == or) || (r != nil && *r == or) {
		return or, nil
	}
	if l == nil || r == nil {
		return nil, nil
	}
	return !or, nil
}

type number struct {
	dec     decimal.Decimal
	f       float64
	isFloat bool
	isInt   bool
}

func toNumber(v interface{}) (number, bool) {
	switch x := v.(type) {
	case int64:
		return number{dec: decimal.NewFromInt(x), isInt: true}, true
	case decimal.Decimal:
		return number{dec: x}, true
	case float64:
		return number{f: x, isFloat: true}, true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(x))
		if err != nil {
			return number{}, false
		}
		return number{dec: d, isInt: d.IsInteger() && !strings.Contains(x, ".")}, true
	}
	return number{}, false
}

func (n number) float() float64 {
	if n.isFloat {
		return n.f
	}
	f, _ := n.dec.Float64()
	return f
}

func arithmetic(op symbol, left, right interface{}) (interface{}, error) {
	if left == nil || right == nil {
		return nil, nil
	}

	a, ok := toNumber(left)
	if !ok {
		return nil, engineError(sqlcodeConversion, "conversion error from string %q", stringify(left))
	}
	b, ok := toNumber(right)
	if !ok {
		return nil, engineError(sqlcodeConversion, "conversion error from string %q", stringify(right))
	}

	if a.isFloat || b.isFloat {
		if op == minusSymbol {
			return a.float() - b.float(), nil
		}
		return a.float() + b.float(), nil
	}

	result := a.dec.Add(b.dec)
	if op == minusSymbol {
		result = a.dec.Sub(b.dec)
	}
	if a.isInt && b.isInt {
		if !result.BigInt().IsInt64() {
			return nil, engineError(sqlcodeArithmetic, "arithmetic exception, numeric overflow, or string truncation\nInteger overflow")
		}
		return result.IntPart(), nil
	}
	return result, nil
}

func stringify(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return "<null>"
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case decimal.Decimal:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		if x {
			return "TRUE"
		}
		return "FALSE"
	case civil.Date:
		return x.String()
	case civil.Time:
		return formatTime(x)
	case civil.DateTime:
		return x.Date.String() + " " + formatTime(x.Time)
	}
	return fmt.Sprint(v)
}

func formatTime(t civil.Time) string {
	return fmt.Sprintf("%02d:%02d:%02d.%04d", t.Hour, t.Minute, t.Second, int64(t.Nanosecond)/nanosPerTimeUnit)
}

func compareInts(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func timeOfDay(t civil.Time) int64 {
	return int64(((t.Hour*60+t.Minute)*60+t.Second))*int64(time.Second) + int64(t.Nanosecond)
}

func compareDateTimes(a, b civil.DateTime) int {
	if c := compareInts(int64(a.Date.DaysSince(b.Date)), 0); c != 0 {
		return c
	}
	return compareInts(timeOfDay(a.Time), timeOfDay(b.Time))
}

// compareValues orders two non-NULL values. CHAR padding is not
// significant; strings are converted when compared to other types.
func compareValues(a, b interface{}) (int, error) {
	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(strings.TrimRight(x, " "), strings.TrimRight(y, " ")), nil
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0, nil
			case !x:
				return -1, nil
			}
			return 1, nil
		}
	}

	if isTemporal(a) || isTemporal(b) {
		x, ok1 := asDateTime(a, nil)
		y, ok2 := asDateTime(b, nil)
		if !ok1 || !ok2 {
			return 0, engineError(sqlcodeConversion, "conversion error from string %q", stringify(a)+" "+stringify(b))
		}
		if _, timeOnly := a.(civil.Time); timeOnly {
			return compareInts(timeOfDay(x.Time), timeOfDay(y.Time)), nil
		}
		if _, timeOnly := b.(civil.Time); timeOnly {
			return compareInts(timeOfDay(x.Time), timeOfDay(y.Time)), nil
		}
		return compareDateTimes(x, y), nil
	}

	x, ok := toNumber(a)
	if !ok {
		return 0, engineError(sqlcodeConversion, "conversion error from string %q", stringify(a))
	}
	y, ok := toNumber(b)
	if !ok {
		return 0, engineError(sqlcodeConversion, "conversion error from string %q", stringify(b))
	}
	if x.isFloat || y.isFloat {
		xf, yf := x.float(), y.float()
		switch {
		case xf < yf:
			return -1, nil
		case xf > yf:
			return 1, nil
		}
		return 0, nil
	}
	return x.dec.Cmp(y.dec), nil
}

func isTemporal(v interface{}) bool {
	switch v.(type) {
	case civil.Date, civil.Time, civil.DateTime:
		return true
	}
	return false
}

func truncation(expected, actual int) error {
	return engineError(sqlcodeArithmetic,
		"arithmetic exception, numeric overflow, or string truncation\nstring right truncation\nexpected length %d, actual %d", expected, actual)
}

var integerRanges = map[SQLType][2]int64{
	SQLShort: {math.MinInt16, math.MaxInt16},
	SQLLong:  {math.MinInt32, math.MaxInt32},
	SQLInt64: {math.MinInt64, math.MaxInt64},
}

// coerce converts v to the storage form of a column of type d.
func coerce(v interface{}, d ColumnDescriptor) (interface{}, error) {
	if v == nil {
		return nil, nil
	}

	switch d.Type {
	case SQLText, SQLVarying:
		s := stringify(v)
		if len(s) > int(d.Length) {
			trimmed := strings.TrimRight(s, " ")
			if len(trimmed) > int(d.Length) {
				return nil, truncation(int(d.Length), len(trimmed))
			}
			s = trimmed
		}
		if d.Type == SQLText && len(s) < int(d.Length) {
			s += strings.Repeat(" ", int(d.Length)-len(s))
		}
		return s, nil

	case SQLShort, SQLLong, SQLInt64:
		n, ok := toNumber(v)
		if !ok {
			return nil, engineError(sqlcodeConversion, "conversion error from string %q", stringify(v))
		}
		dec := n.dec
		if n.isFloat {
			if math.IsNaN(n.f) || math.IsInf(n.f, 0) {
				return nil, engineError(sqlcodeArithmetic, "arithmetic exception, numeric overflow, or string truncation")
			}
			dec = decimal.NewFromFloat(n.f)
		}
		dec = dec.Round(int32(-d.Scale))

		unscaled := dec.Shift(int32(-d.Scale))
		limits := integerRanges[d.Type]
		if !unscaled.BigInt().IsInt64() || unscaled.IntPart() < limits[0] || unscaled.IntPart() > limits[1] {
			return nil, engineError(sqlcodeArithmetic, "arithmetic exception, numeric overflow, or string truncation\nnumeric value is out of range")
		}
		if d.Scale == 0 {
			return unscaled.IntPart(), nil
		}
		return dec, nil

	case SQLFloat, SQLDouble:
		n, ok := toNumber(v)
		if !ok {
			return nil, engineError(sqlcodeConversion, "conversion error from string %q", stringify(v))
		}
		f := n.float()
		if d.Type == SQLFloat {
			f = float64(float32(f))
		}
		return f, nil

	case SQLTimestamp, SQLTypeDate, SQLTypeTime:
		dt, ok := asDateTime(v, nil)
		if !ok {
			return nil, engineError(sqlcodeConversion, "conversion error from string %q", stringify(v))
		}
		switch d.Type {
		case SQLTypeDate:
			return dt.Date, nil
		case SQLTypeTime:
			return dt.Time, nil
		}
		return dt, nil

	case SQLBoolean:
		switch x := v.(type) {
		case bool:
			return x, nil
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(x))
			if err == nil {
				return b, nil
			}
		}
		return nil, engineError(sqlcodeConversion, "conversion error from string %q", stringify(v))
	}

	return nil, engineError(sqlcodeDataType, "Data type unknown")
}
