package fbsql

import (
	"strings"
	"time"

	"github.com/golang-sql/civil"
	"github.com/petar/GoLLRB/llrb"
)

func (e *MemoryEngine) Prepare(h StatementHandle, sql string, out *DescriptorArea) error {
	st, err := e.statement(h)
	if err != nil {
		return err
	}
	if st.open {
		return engineError(sqlcodeCursorOpen, "Attempt to reopen an open cursor")
	}

	ast, err := Parser{HelpMessagesDisabled: true}.Parse(sql)
	if err != nil {
		return engineError(sqlcodeSyntax, "Dynamic SQL Error\n%s", err)
	}
	if len(ast.Statements) != 1 {
		return engineError(sqlcodeSyntax, "Dynamic SQL Error\nexpected exactly one statement, got %d", len(ast.Statements))
	}

	e.db.mu.RLock()
	d := &describer{db: e.db, params: make([]ColumnDescriptor, ast.Statements[0].Parameters), known: make([]bool, ast.Statements[0].Parameters)}
	kind, outputs, err := d.statement(ast.Statements[0])
	e.db.mu.RUnlock()
	if err != nil {
		return err
	}
	for i := range d.known {
		if !d.known[i] {
			return engineError(sqlcodeDataType, "Dynamic SQL Error\nData type unknown")
		}
	}

	*st = memStatement{ast: ast.Statements[0], kind: kind, inputs: d.params, outputs: outputs}
	if out != nil {
		fillArea(out, outputs)
	}
	return nil
}

func (e *MemoryEngine) Execute(h StatementHandle, in, out *Message) error {
	st, err := e.statement(h)
	if err != nil {
		return err
	}
	if st.ast == nil {
		return engineError(sqlcodeSyntax, "statement is not prepared")
	}
	if st.open {
		return engineError(sqlcodeCursorOpen, "Attempt to reopen an open cursor")
	}
	st.counts = RecordCounts{}
	st.cursor, st.pos = nil, 0

	switch st.kind {
	case KindStartTransaction:
		return e.Begin()
	case KindCommit:
		return e.Commit()
	case KindRollback:
		return e.Rollback()
	}

	if e.tx == nil {
		return engineError(sqlcodeTransaction, "invalid transaction handle (expecting explicit transaction start)")
	}

	params, err := e.readParams(st, in)
	if err != nil {
		return err
	}
	env := &evalEnv{params: params, now: e.now()}

	if st.kind == KindSelect {
		e.db.mu.RLock()
		rows, err := e.executeSelect(st.ast.SelectStatement, env)
		e.db.mu.RUnlock()
		if err != nil {
			return err
		}
		st.cursor, st.open = rows, true
		return nil
	}

	e.db.mu.Lock()
	defer e.db.mu.Unlock()

	sp := &savepoint{}
	var returned [][]interface{}
	switch st.ast.Kind {
	case InsertKind:
		returned, err = e.executeInsert(st, sp, env)
	case UpdateKind:
		returned, err = e.executeUpdate(st, sp, env)
	case DeleteKind:
		returned, err = e.executeDelete(st, sp, env)
	case CreateTableKind:
		err = e.createTable(st.ast.CreateTableStatement, sp, env)
	case CreateIndexKind:
		err = e.createIndex(st.ast.CreateIndexStatement, sp)
	case DropTableKind:
		err = e.dropTable(st.ast.DropTableStatement, sp)
	}
	if err == nil && out != nil && len(returned) > 1 {
		err = engineError(sqlcodeSingleton, "multiple rows in singleton select")
	}
	if err != nil {
		sp.rollback()
		st.counts = RecordCounts{}
		return err
	}
	e.release(sp)

	if out != nil && len(st.outputs) > 0 {
		st.cursor, st.open = returned, true
	}
	return nil
}

// readParams decodes the input message into engine values.
func (e *MemoryEngine) readParams(st *memStatement, in *Message) ([]interface{}, error) {
	if len(st.inputs) == 0 {
		return nil, nil
	}
	if in == nil || len(in.Columns()) != len(st.inputs) {
		return nil, engineError(sqlcodeDataType, "Dynamic SQL Error\nIncorrect values within SQLDA structure")
	}

	opts := DecodeOptions{Charset: e.charset, Location: time.UTC, Strict: true, Logger: discardLogger}
	params := make([]interface{}, len(st.inputs))
	for i, d := range in.Columns() {
		v, err := Decode(in.Value(i), d, in.IsNull(i), opts)
		if err != nil {
			return nil, engineError(sqlcodeConversion, "conversion error from parameter %d: %s", i+1, err)
		}
		if t, ok := v.(time.Time); ok {
			if d.Type == SQLTypeTime {
				v = civil.TimeOf(t)
			} else {
				v = civil.DateTimeOf(t)
			}
		}
		if s, ok := v.(string); ok && d.Type == SQLText {
			v = strings.TrimRight(s, " ")
		}
		params[i] = v
	}
	return params, nil
}

func (e *MemoryEngine) table(name string) (*memTable, error) {
	t, ok := e.db.tables[name]
	if !ok {
		return nil, engineError(sqlcodeTableUnknown, "Table unknown\n%s", name)
	}
	return t, nil
}

// candidates returns the rows that may satisfy where, using an index when
// the condition pins an indexed column to one value.
func (e *MemoryEngine) candidates(t *memTable, where *expression, env *evalEnv) []*memRow {
	if ids, ok := indexScan(t, where, env); ok {
		rows := make([]*memRow, 0, len(ids))
		for _, id := range ids {
			if r := t.row(id); r != nil {
				rows = append(rows, r)
			}
		}
		return rows
	}
	return t.allRows()
}

func indexScan(t *memTable, where *expression, env *evalEnv) ([]int64, bool) {
	if where == nil || where.kind != binaryKind {
		return nil, false
	}
	b := where.binary

	if b.op.kind == keywordKind && keyword(b.op.value) == andKeyword {
		if ids, ok := indexScan(t, &b.a, env); ok {
			return ids, true
		}
		return indexScan(t, &b.b, env)
	}
	if b.op.kind != symbolKind || symbol(b.op.value) != eqSymbol {
		return nil, false
	}

	col, other := b.a, b.b
	if !isColumn(col) {
		col, other = other, col
	}
	if !isColumn(col) || isColumn(other) {
		return nil, false
	}

	i := t.columnIndex(col.literal.value)
	if i < 0 {
		return nil, false
	}
	for _, idx := range t.indexes {
		if idx.column != i {
			continue
		}
		v, err := env.eval(other)
		if err != nil {
			return nil, false
		}
		key, err := coerce(v, t.columns[i])
		if err != nil {
			return nil, false
		}
		if key == nil {
			return nil, true
		}
		return idx.lookup(key), true
	}
	return nil, false
}

func isColumn(e expression) bool {
	return e.kind == literalKind && e.literal.kind == identifierKind
}

func (env *evalEnv) project(items []*selectItem) ([]interface{}, error) {
	var values []interface{}
	for _, item := range items {
		if item.asterisk {
			values = append(values, env.row...)
			continue
		}
		v, err := env.eval(*item.exp)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

func (e *MemoryEngine) executeSelect(sel *SelectStatement, env *evalEnv) ([][]interface{}, error) {
	if sel.from == nil {
		ok, err := env.truth(sel.where)
		if err != nil || !ok {
			return nil, err
		}
		row, err := env.project(*sel.item)
		if err != nil {
			return nil, err
		}
		return [][]interface{}{row}, nil
	}

	t, err := e.table(sel.from.table.value)
	if err != nil {
		return nil, err
	}
	env.table = t

	var rows [][]interface{}
	for _, r := range e.candidates(t, sel.where, env) {
		env.row = r.values
		ok, err := env.truth(sel.where)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		row, err := env.project(*sel.item)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// store coerces values to the columns of t and enforces NOT NULL.
func store(t *memTable, values []interface{}) error {
	for i, c := range t.columns {
		v, err := coerce(values[i], c)
		if err != nil {
			return err
		}
		if v == nil && !c.Nullable {
			return engineError(sqlcodeNotNull, "validation error for column %q.%q, value \"*** null ***\"", t.name, c.Name)
		}
		values[i] = v
	}
	return nil
}

func (e *MemoryEngine) returningRow(st *memStatement, items *[]*selectItem, env *evalEnv) ([]interface{}, error) {
	if items == nil {
		return nil, nil
	}
	row, err := env.project(*items)
	if err != nil {
		return nil, err
	}
	for i, v := range row {
		if row[i], err = coerce(v, st.outputs[i]); err != nil {
			return nil, err
		}
	}
	return row, nil
}

func (e *MemoryEngine) executeInsert(st *memStatement, sp *savepoint, env *evalEnv) ([][]interface{}, error) {
	ins := st.ast.InsertStatement
	t, err := e.table(ins.table.value)
	if err != nil {
		return nil, err
	}
	targets, err := insertTargets(t, ins)
	if err != nil {
		return nil, err
	}

	values := make([]interface{}, len(t.columns))
	provided := make([]bool, len(t.columns))
	for i, exp := range *ins.values {
		v, err := env.eval(*exp)
		if err != nil {
			return nil, err
		}
		values[targets[i]] = v
		provided[targets[i]] = true
	}

	for i := range t.columns {
		if provided[i] {
			continue
		}
		switch {
		case t.identity[i]:
			// Identity generators are not transactional.
			t.counters[i]++
			values[i] = t.counters[i]
		case t.defaults[i] != nil:
			v, err := env.eval(*t.defaults[i])
			if err != nil {
				return nil, err
			}
			values[i] = v
		}
	}

	if err := store(t, values); err != nil {
		return nil, err
	}

	r := &memRow{id: t.nextID, values: values}
	t.nextID++
	if err := t.insert(r); err != nil {
		return nil, err
	}
	sp.add(func() { t.remove(r) })
	st.counts.Inserted = 1

	env.table, env.row = t, values
	row, err := e.returningRow(st, ins.returning, env)
	if err != nil || row == nil {
		return nil, err
	}
	return [][]interface{}{row}, nil
}

// matching collects the rows of t that satisfy where before any of them
// is changed.
func (e *MemoryEngine) matching(t *memTable, where *expression, env *evalEnv) ([]*memRow, error) {
	env.table = t
	var rows []*memRow
	for _, r := range e.candidates(t, where, env) {
		env.row = r.values
		ok, err := env.truth(where)
		if err != nil {
			return nil, err
		}
		if ok {
			rows = append(rows, r)
		}
	}
	return rows, nil
}

func (e *MemoryEngine) executeUpdate(st *memStatement, sp *savepoint, env *evalEnv) ([][]interface{}, error) {
	upd := st.ast.UpdateStatement
	t, err := e.table(upd.table.value)
	if err != nil {
		return nil, err
	}
	rows, err := e.matching(t, upd.where, env)
	if err != nil {
		return nil, err
	}

	var returned [][]interface{}
	for _, r := range rows {
		env.row = r.values
		values := append([]interface{}(nil), r.values...)
		for _, set := range upd.set {
			v, err := env.eval(set.value)
			if err != nil {
				return nil, err
			}
			values[t.columnIndex(set.column.value)] = v
		}
		if err := store(t, values); err != nil {
			return nil, err
		}

		old := r.values
		if err := t.replace(r, values); err != nil {
			return nil, err
		}
		sp.add(func() { t.replace(r, old) })
		st.counts.Updated++

		env.row = values
		row, err := e.returningRow(st, upd.returning, env)
		if err != nil {
			return nil, err
		}
		if row != nil {
			returned = append(returned, row)
		}
	}
	return returned, nil
}

func (e *MemoryEngine) executeDelete(st *memStatement, sp *savepoint, env *evalEnv) ([][]interface{}, error) {
	del := st.ast.DeleteStatement
	t, err := e.table(del.table.value)
	if err != nil {
		return nil, err
	}
	rows, err := e.matching(t, del.where, env)
	if err != nil {
		return nil, err
	}

	var returned [][]interface{}
	for _, r := range rows {
		env.row = r.values
		row, err := e.returningRow(st, del.returning, env)
		if err != nil {
			return nil, err
		}
		if row != nil {
			returned = append(returned, row)
		}

		t.remove(r)
		sp.add(func() { t.insert(r) })
		st.counts.Deleted++
	}
	return returned, nil
}

func (e *MemoryEngine) createTable(crt *CreateTableStatement, sp *savepoint, env *evalEnv) error {
	name := crt.name.value
	if _, ok := e.db.tables[name]; ok {
		return engineError(sqlcodeMetadata, "unsuccessful metadata update\nTable %s already exists", name)
	}

	t := &memTable{name: name, rows: llrb.New()}
	var keys []*memIndex
	for _, cd := range *crt.cols {
		if t.columnIndex(cd.name.value) >= 0 {
			return engineError(sqlcodeMetadata, "unsuccessful metadata update\nColumn %s already exists in table %s", cd.name.value, name)
		}
		d, err := columnDescriptor(cd, name)
		if err != nil {
			return err
		}
		if cd.def != nil {
			v, err := env.eval(*cd.def)
			if err == nil {
				_, err = coerce(v, d)
			}
			if err != nil {
				return err
			}
		}

		i := len(t.columns)
		t.columns = append(t.columns, d)
		t.defaults = append(t.defaults, cd.def)
		t.identity = append(t.identity, cd.identity)
		t.counters = append(t.counters, 0)

		switch {
		case cd.primaryKey:
			for _, k := range keys {
				if k.primaryKey {
					return engineError(sqlcodeMetadata, "unsuccessful metadata update\nmultiple primary keys for table %s", name)
				}
			}
			keys = append(keys, &memIndex{name: "PK_" + name, column: i, unique: true, primaryKey: true, tree: llrb.New()})
		case cd.unique:
			keys = append(keys, &memIndex{name: "UQ_" + name + "_" + d.Name, column: i, unique: true, tree: llrb.New()})
		}
	}
	t.indexes = keys

	e.db.tables[name] = t
	sp.add(func() { delete(e.db.tables, name) })
	return nil
}

func (e *MemoryEngine) createIndex(ci *CreateIndexStatement, sp *savepoint) error {
	t, err := e.table(ci.table.value)
	if err != nil {
		return err
	}
	if !isColumn(ci.exp) {
		return engineError(sqlcodeMetadata, "unsuccessful metadata update\nonly single column indexes are supported")
	}
	col := t.columnIndex(ci.exp.literal.value)
	if col < 0 {
		return engineError(sqlcodeColumnUnknown, "Column unknown\n%s", ci.exp.literal.value)
	}
	if e.db.indexExists(ci.name.value) {
		return engineError(sqlcodeMetadata, "unsuccessful metadata update\nIndex %s already exists", ci.name.value)
	}

	idx := &memIndex{name: ci.name.value, column: col, unique: ci.unique, primaryKey: ci.primaryKey, tree: llrb.New()}
	if err := t.addIndex(idx); err != nil {
		return err
	}
	sp.add(func() { t.dropIndex(idx) })
	return nil
}

func (e *MemoryEngine) dropTable(dt *DropTableStatement, sp *savepoint) error {
	name := dt.name.value
	t, ok := e.db.tables[name]
	if !ok {
		return engineError(sqlcodeMetadata, "unsuccessful metadata update\nTable %s does not exist", name)
	}
	delete(e.db.tables, name)
	sp.add(func() { e.db.tables[name] = t })
	return nil
}

func (e *MemoryEngine) Fetch(h StatementHandle, out *Message) (bool, error) {
	st, err := e.statement(h)
	if err != nil {
		return false, err
	}
	if !st.open {
		return false, engineError(sqlcodeCursorNotOpen, "Dynamic SQL Error\nAttempt to fetch on a cursor that is not open")
	}
	if st.pos >= len(st.cursor) {
		return false, nil
	}

	row := st.cursor[st.pos]
	st.pos++
	if st.kind == KindSelect {
		st.counts.Selected++
	}
	return true, e.writeRow(out, row)
}

// writeRow encodes row into out using the described output columns.
func (e *MemoryEngine) writeRow(out *Message, row []interface{}) error {
	cols := out.Columns()
	if len(cols) != len(row) {
		return engineError(sqlcodeDataType, "Dynamic SQL Error\nIncorrect values within SQLDA structure")
	}

	opts := EncodeOptions{Charset: e.charset}
	for i, v := range row {
		out.SetNull(i, v == nil)
		if v == nil {
			continue
		}
		if err := Encode(out.Value(i), v, cols[i], opts); err != nil {
			return engineError(sqlcodeArithmetic, "arithmetic exception, numeric overflow, or string truncation\n%s", err)
		}
	}
	return nil
}
