package fbsql

// StatementHandle identifies a statement allocated by an Engine.
type StatementHandle uint32

// RecordCounts are the per-operation row counters an engine keeps for the
// last execution of a statement.
type RecordCounts struct {
	Selected int64
	Inserted int64
	Updated  int64
	Deleted  int64
}

// Affected picks the counter that matches kind. Kinds without a counter of
// their own report the first non-zero of deleted, updated, inserted and
// selected.
func (c RecordCounts) Affected(kind StatementKind) int64 {
	switch kind {
	case KindSelect, KindSelectForUpdate:
		return c.Selected
	case KindInsert:
		return c.Inserted
	case KindUpdate:
		return c.Updated
	case KindDelete:
		return c.Deleted
	}

	for _, n := range []int64{c.Deleted, c.Updated, c.Inserted, c.Selected} {
		if n != 0 {
			return n
		}
	}
	return 0
}

// Engine is the statement level interface of an attached database. Every
// failure it reports is surfaced to the caller unchanged.
//
// Prepare and the Describe calls fill as many slots of the area as it has
// and always set Count to the number of columns of the statement, so the
// caller can tell when the area is too small.
type Engine interface {
	AllocateStatement() (StatementHandle, error)
	Prepare(h StatementHandle, sql string, out *DescriptorArea) error
	StatementType(h StatementHandle) (StatementKind, error)
	DescribeInput(h StatementHandle, in *DescriptorArea) error
	DescribeOutput(h StatementHandle, out *DescriptorArea) error

	// Execute runs the statement with the bound input message. in is nil
	// when the statement has no parameters. Passing out stages the values
	// of a RETURNING clause for the next Fetch; a query opens its cursor
	// with out nil.
	Execute(h StatementHandle, in, out *Message) error
	// Fetch writes the next row into out and reports false at end of data.
	Fetch(h StatementHandle, out *Message) (bool, error)
	RecordCounts(h StatementHandle) (RecordCounts, error)
	CloseCursor(h StatementHandle) error
	FreeStatement(h StatementHandle) error

	Begin() error
	Commit() error
	Rollback() error
	InTransaction() bool
}

// TableMetadata describes a table for the REPL's describe commands.
type TableMetadata struct {
	Name    string
	Columns []ColumnMetadata
	Indexes []IndexMetadata
}

type ColumnMetadata struct {
	Name     string
	Type     string
	NotNull  bool
	Default  string
	Identity bool
}

type IndexMetadata struct {
	Name       string
	Column     string
	Unique     bool
	PrimaryKey bool
}

// Catalog is implemented by engines that can list their tables.
type Catalog interface {
	Tables() []TableMetadata
}
