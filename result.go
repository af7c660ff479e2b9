package fbsql

// ResultKind tags which field of a Result is populated.
type ResultKind int

const (
	// ResultRowCount is the result of DML without RETURNING and of every
	// other statement that produces no rows.
	ResultRowCount ResultKind = iota
	// ResultRows is the result of a query. The cursor stays open until the
	// Rows are closed.
	ResultRows
	// ResultReturning is the result of DML with a RETURNING clause.
	ResultReturning
)

func (k ResultKind) String() string {
	switch k {
	case ResultRowCount:
		return "RowCount"
	case ResultRows:
		return "Rows"
	case ResultReturning:
		return "Returning"
	}
	return "Unknown"
}

// Returning holds the values of a RETURNING clause, one per listed column in
// SQL order, and the number of rows the statement affected. Values is empty,
// never nil, when no row was affected.
type Returning struct {
	Values       []interface{}
	RowsAffected int64
}

// Result corresponds to one execution of a statement. Exactly one of
// RowCount, Rows and Returning is meaningful, as told by Kind.
type Result struct {
	Kind      ResultKind
	RowCount  int64
	Rows      *Rows
	Returning *Returning
}

// Affected returns the number of rows the execution affected, whichever
// variant it is. It is zero for queries.
func (r *Result) Affected() int64 {
	switch r.Kind {
	case ResultRowCount:
		return r.RowCount
	case ResultReturning:
		return r.Returning.RowsAffected
	}
	return 0
}
