package fbsql

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/petar/GoLLRB/llrb"
)

// SQLCODE values reported by the memory engine.
const (
	sqlcodeSyntax        = -104
	sqlcodeTableUnknown  = -204
	sqlcodeColumnUnknown = -206
	sqlcodeConversion    = -413
	sqlcodeCursorNotOpen = -504
	sqlcodeCursorOpen    = -502
	sqlcodeMetadata      = -607
	sqlcodeNotNull       = -625
	sqlcodeArithmetic    = -802
	sqlcodeUnique        = -803
	sqlcodeSingleton     = -811
	sqlcodeDataType      = -804
	sqlcodePrecision     = -842
	sqlcodeTransaction   = -901
)

func engineError(code int, format string, args ...interface{}) *EngineError {
	return &EngineError{SQLCode: code, Message: fmt.Sprintf(format, args...)}
}

type memRow struct {
	id     int64
	values []interface{}
}

func (r *memRow) Less(than llrb.Item) bool {
	return r.id < than.(*memRow).id
}

type indexEntry struct {
	key interface{}
	id  int64
}

func (e indexEntry) Less(than llrb.Item) bool {
	o := than.(indexEntry)
	if c, err := compareValues(e.key, o.key); err == nil && c != 0 {
		return c < 0
	}
	return e.id < o.id
}

type memIndex struct {
	name       string
	column     int
	unique     bool
	primaryKey bool
	tree       *llrb.LLRB
}

// lookup returns the ids of the rows whose key equals key, in id order.
func (i *memIndex) lookup(key interface{}) []int64 {
	var ids []int64
	i.tree.AscendGreaterOrEqual(indexEntry{key: key, id: math.MinInt64}, func(item llrb.Item) bool {
		e := item.(indexEntry)
		if c, err := compareValues(e.key, key); err != nil || c != 0 {
			return false
		}
		ids = append(ids, e.id)
		return true
	})
	return ids
}

func (i *memIndex) add(r *memRow) {
	if v := r.values[i.column]; v != nil {
		i.tree.ReplaceOrInsert(indexEntry{key: v, id: r.id})
	}
}

func (i *memIndex) remove(r *memRow) {
	if v := r.values[i.column]; v != nil {
		i.tree.Delete(indexEntry{key: v, id: r.id})
	}
}

type memTable struct {
	name     string
	columns  []ColumnDescriptor
	defaults []*expression
	identity []bool
	counters []int64
	rows     *llrb.LLRB
	nextID   int64
	indexes  []*memIndex
}

func (t *memTable) columnIndex(name string) int {
	for i, c := range t.columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

func (t *memTable) index(name string) *memIndex {
	for _, i := range t.indexes {
		if i.name == name {
			return i
		}
	}
	return nil
}

// checkUnique fails when values would duplicate the key of a row other
// than self in a unique index.
func (t *memTable) checkUnique(values []interface{}, self int64) error {
	for _, i := range t.indexes {
		if !i.unique || values[i.column] == nil {
			continue
		}
		for _, id := range i.lookup(values[i.column]) {
			if id != self {
				return engineError(sqlcodeUnique, "violation of PRIMARY or UNIQUE KEY constraint %q on table %q\nProblematic key value is (%q = %s)",
					i.name, t.name, t.columns[i.column].Name, stringify(values[i.column]))
			}
		}
	}
	return nil
}

func (t *memTable) insert(r *memRow) error {
	if err := t.checkUnique(r.values, r.id); err != nil {
		return err
	}
	t.rows.ReplaceOrInsert(r)
	for _, i := range t.indexes {
		i.add(r)
	}
	return nil
}

func (t *memTable) remove(r *memRow) {
	for _, i := range t.indexes {
		i.remove(r)
	}
	t.rows.Delete(r)
}

// replace swaps the values of r for values, keeping the indexes in step.
func (t *memTable) replace(r *memRow, values []interface{}) error {
	if err := t.checkUnique(values, r.id); err != nil {
		return err
	}
	for _, i := range t.indexes {
		i.remove(r)
	}
	r.values = values
	for _, i := range t.indexes {
		i.add(r)
	}
	return nil
}

func (t *memTable) row(id int64) *memRow {
	if item := t.rows.Get(&memRow{id: id}); item != nil {
		return item.(*memRow)
	}
	return nil
}

func (t *memTable) allRows() []*memRow {
	rows := make([]*memRow, 0, t.rows.Len())
	t.rows.AscendGreaterOrEqual(&memRow{id: math.MinInt64}, func(item llrb.Item) bool {
		rows = append(rows, item.(*memRow))
		return true
	})
	return rows
}

func (t *memTable) addIndex(i *memIndex) error {
	for _, r := range t.allRows() {
		if i.unique && r.values[i.column] != nil && len(i.lookup(r.values[i.column])) > 0 {
			return engineError(sqlcodeUnique, "attempt to store duplicate value (visible to active transactions) in unique index %q\nProblematic key value is (%q = %s)",
				i.name, t.columns[i.column].Name, stringify(r.values[i.column]))
		}
		i.add(r)
	}
	t.indexes = append(t.indexes, i)
	return nil
}

func (t *memTable) dropIndex(i *memIndex) {
	for n, x := range t.indexes {
		if x == i {
			t.indexes = append(t.indexes[:n], t.indexes[n+1:]...)
			return
		}
	}
}

func (t *memTable) metadata() TableMetadata {
	m := TableMetadata{Name: t.name}
	for n, c := range t.columns {
		cm := ColumnMetadata{
			Name:     c.Name,
			Type:     columnTypeName(c),
			NotNull:  !c.Nullable,
			Identity: t.identity[n],
		}
		if t.defaults[n] != nil {
			cm.Default = t.defaults[n].generateCode()
		}
		m.Columns = append(m.Columns, cm)
	}
	for _, i := range t.indexes {
		m.Indexes = append(m.Indexes, IndexMetadata{
			Name:       i.name,
			Column:     t.columns[i.column].Name,
			Unique:     i.unique,
			PrimaryKey: i.primaryKey,
		})
	}
	return m
}

// columnTypeName renders a column type the way it would be declared.
func columnTypeName(d ColumnDescriptor) string {
	switch d.Type {
	case SQLText, SQLVarying:
		return fmt.Sprintf("%s(%d)", d.Type, d.Length)
	}
	if p := precision(d); p > 0 {
		return fmt.Sprintf("%s(%d, %d)", sqlTypeName(d), p, -d.Scale)
	}
	return d.Type.String()
}

// MemoryDatabase is a named set of tables shared by every attachment to
// the same name in this process.
type MemoryDatabase struct {
	mu     sync.RWMutex
	name   string
	tables map[string]*memTable
}

var (
	databasesMu sync.Mutex
	databases   = map[string]*MemoryDatabase{}
)

func memoryDatabase(name string) *MemoryDatabase {
	databasesMu.Lock()
	defer databasesMu.Unlock()

	db, ok := databases[name]
	if !ok {
		db = &MemoryDatabase{name: name, tables: map[string]*memTable{}}
		databases[name] = db
	}
	return db
}

// DropMemoryDatabase discards the named database. Attachments that still
// reference it keep working on the detached copy.
func DropMemoryDatabase(name string) {
	databasesMu.Lock()
	defer databasesMu.Unlock()
	delete(databases, name)
}

func (db *MemoryDatabase) indexExists(name string) bool {
	for _, t := range db.tables {
		if t.index(name) != nil {
			return true
		}
	}
	return false
}

type memTransaction struct {
	undo []func()
}

type memStatement struct {
	ast     *ParsedStatement
	kind    StatementKind
	inputs  []ColumnDescriptor
	outputs []ColumnDescriptor

	cursor [][]interface{}
	pos    int
	open   bool
	counts RecordCounts
}

// MemoryEngine is one attachment to a MemoryDatabase. It is not safe for
// concurrent use; separate attachments may be used from separate
// goroutines.
type MemoryEngine struct {
	db      *MemoryDatabase
	charset Charset
	tx      *memTransaction
	stmts   map[StatementHandle]*memStatement
	next    StatementHandle
	now     func() time.Time
}

// AttachMemory attaches to the in-memory database with the given name,
// creating it on first use.
func AttachMemory(name string) *MemoryEngine {
	cs, _ := LookupCharset("UTF8")
	return &MemoryEngine{
		db:      memoryDatabase(name),
		charset: cs,
		stmts:   map[StatementHandle]*memStatement{},
		now:     time.Now,
	}
}

// SetCharset sets the character set text travels in between the engine and
// its messages.
func (e *MemoryEngine) SetCharset(c Charset) {
	e.charset = c
}

func (e *MemoryEngine) statement(h StatementHandle) (*memStatement, error) {
	st, ok := e.stmts[h]
	if !ok {
		return nil, engineError(sqlcodeTransaction, "invalid statement handle")
	}
	return st, nil
}

func (e *MemoryEngine) AllocateStatement() (StatementHandle, error) {
	e.next++
	e.stmts[e.next] = &memStatement{}
	return e.next, nil
}

func (e *MemoryEngine) StatementType(h StatementHandle) (StatementKind, error) {
	st, err := e.statement(h)
	if err != nil {
		return KindOther, err
	}
	if st.ast == nil {
		return KindOther, engineError(sqlcodeSyntax, "statement is not prepared")
	}
	return st.kind, nil
}

func fillArea(area *DescriptorArea, descs []ColumnDescriptor) {
	area.Count = len(descs)
	copy(area.Vars, descs)
}

func (e *MemoryEngine) DescribeInput(h StatementHandle, in *DescriptorArea) error {
	st, err := e.statement(h)
	if err != nil {
		return err
	}
	fillArea(in, st.inputs)
	return nil
}

func (e *MemoryEngine) DescribeOutput(h StatementHandle, out *DescriptorArea) error {
	st, err := e.statement(h)
	if err != nil {
		return err
	}
	fillArea(out, st.outputs)
	return nil
}

func (e *MemoryEngine) RecordCounts(h StatementHandle) (RecordCounts, error) {
	st, err := e.statement(h)
	if err != nil {
		return RecordCounts{}, err
	}
	return st.counts, nil
}

func (e *MemoryEngine) CloseCursor(h StatementHandle) error {
	st, err := e.statement(h)
	if err != nil {
		return err
	}
	if !st.open {
		return engineError(sqlcodeCursorNotOpen, "Attempt to reclose a closed cursor")
	}
	st.open = false
	st.cursor = nil
	st.pos = 0
	return nil
}

func (e *MemoryEngine) FreeStatement(h StatementHandle) error {
	if _, err := e.statement(h); err != nil {
		return err
	}
	delete(e.stmts, h)
	return nil
}

func (e *MemoryEngine) Begin() error {
	if e.tx != nil {
		return ErrTransactionActive
	}
	e.tx = &memTransaction{}
	return nil
}

func (e *MemoryEngine) Commit() error {
	if e.tx == nil {
		return ErrNoTransaction
	}
	e.tx = nil
	e.closeCursors()
	return nil
}

func (e *MemoryEngine) Rollback() error {
	if e.tx == nil {
		return ErrNoTransaction
	}

	e.db.mu.Lock()
	for i := len(e.tx.undo) - 1; i >= 0; i-- {
		e.tx.undo[i]()
	}
	e.db.mu.Unlock()

	e.tx = nil
	e.closeCursors()
	return nil
}

func (e *MemoryEngine) InTransaction() bool {
	return e.tx != nil
}

func (e *MemoryEngine) closeCursors() {
	for _, st := range e.stmts {
		st.open = false
		st.cursor = nil
		st.pos = 0
	}
}

// Close rolls back any open transaction and frees every statement.
func (e *MemoryEngine) Close() error {
	var err error
	if e.tx != nil {
		err = e.Rollback()
	}
	e.stmts = map[StatementHandle]*memStatement{}
	return err
}

// Tables lists the tables of the database ordered by name.
func (e *MemoryEngine) Tables() []TableMetadata {
	e.db.mu.RLock()
	defer e.db.mu.RUnlock()

	names := make([]string, 0, len(e.db.tables))
	for name := range e.db.tables {
		names = append(names, name)
	}
	sort.Strings(names)

	tables := make([]TableMetadata, 0, len(names))
	for _, name := range names {
		tables = append(tables, e.db.tables[name].metadata())
	}
	return tables
}

// savepoint collects the undo steps of one statement so a failing
// statement leaves no partial effects behind.
type savepoint struct {
	undo []func()
}

func (s *savepoint) add(f func()) {
	s.undo = append(s.undo, f)
}

func (s *savepoint) rollback() {
	for i := len(s.undo) - 1; i >= 0; i-- {
		s.undo[i]()
	}
}

func (e *MemoryEngine) release(sp *savepoint) {
	e.tx.undo = append(e.tx.undo, sp.undo...)
}
