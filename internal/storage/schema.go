package storage

// Index is a secondary index declared on a collection.
type Index struct {
	Name   string // lookup name used by GetAllByIndex
	Column string
	Unique bool
}

// Collection declares a named group of records sharing a primary-key shape.
type Collection struct {
	Name string
	// Key lists the primary-key columns in order. A generated key is always
	// a single integer column.
	Key          []string
	GeneratedKey bool
	// Columns are the stored columns written by Put and Add, excluding a
	// generated key.
	Columns []string
	Indexes []Index
}

// Declared collections. They mirror the DDL in migrations/.
var (
	EntriesCollection = Collection{
		Name:    "entries",
		Key:     []string{"date", "category"},
		Columns: []string{"date", "category", "text", "timestamp"},
		Indexes: []Index{{Name: "date", Column: "date"}},
	}

	FinanceCategoriesCollection = Collection{
		Name:         "financeCategories",
		Key:          []string{"id"},
		GeneratedKey: true,
		Columns:      []string{"name"},
	}

	FinanceRecordsCollection = Collection{
		Name:         "financeRecords",
		Key:          []string{"id"},
		GeneratedKey: true,
		Columns:      []string{"date", "category", "amount", "note", "timestamp"},
		Indexes:      []Index{{Name: "date", Column: "date"}},
	}
)

// Collections lists every collection at TargetVersion together with the
// schema version that introduced it.
var Collections = []struct {
	Since      uint
	Collection Collection
}{
	{1, EntriesCollection},
	{2, FinanceCategoriesCollection},
	{2, FinanceRecordsCollection},
}

// index returns the declared index with the given lookup name.
func (c Collection) index(name string) (Index, bool) {
	for _, idx := range c.Indexes {
		if idx.Name == name {
			return idx, true
		}
	}
	return Index{}, false
}

// selectColumns is the column order rows are scanned in: a generated key
// first, then the stored columns.
func (c Collection) selectColumns() []string {
	if c.GeneratedKey {
		return append(append([]string(nil), c.Key...), c.Columns...)
	}
	return c.Columns
}

// IndexName is the SQLite index name backing idx.
func (c Collection) IndexName(idx Index) string {
	return c.Name + "_" + idx.Column
}
