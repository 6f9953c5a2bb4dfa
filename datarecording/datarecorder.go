// Package datarecording stores flat records, such as traced bus
// transactions, into SQLite tables.
package datarecording

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"reflect"
	"sort"
	"strings"

	"github.com/fatih/structs"

	// Registers the sqlite3 driver.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// ErrInvalidEntry is returned when a record has a field that cannot be stored
// in a column.
var ErrInvalidEntry = errors.New("entry is invalid")

// DataRecorder is a backend that can record and store data
type DataRecorder interface {
	// CreateTable creates a table with one column per field of the sample
	// entry, which must be a flat struct of exported scalar fields.
	CreateTable(tableName string, sampleEntry any)

	// InsertData buffers an entry for a table that already exists.
	InsertData(tableName string, entry any)

	// ListTables returns the names of all created tables.
	ListTables() []string

	// Flush writes all the buffered entries into the database.
	Flush()
}

// New creates a DataRecorder that writes to path + ".sqlite3". If path is
// empty, a unique name is generated.
func New(path string) DataRecorder {
	return NewSQLiteWriter(path)
}

const defaultBatchSize = 100000

type pendingTable struct {
	entryType reflect.Type
	insertSQL string
	entries   []any
}

// SQLiteWriter buffers entries in memory and writes them in batches, one
// transaction per batch.
type SQLiteWriter struct {
	*sql.DB

	path      string
	tables    map[string]*pendingTable
	batchSize int
	buffered  int
}

// NewSQLiteWriter creates the database file path + ".sqlite3". It panics if
// the file already exists. Buffered entries are flushed at exit.
func NewSQLiteWriter(path string) *SQLiteWriter {
	if path == "" {
		path = "axi2wb_trace_" + xid.New().String()
	}

	w := &SQLiteWriter{
		path:      path,
		tables:    make(map[string]*pendingTable),
		batchSize: defaultBatchSize,
	}

	if _, err := os.Stat(w.Filename()); err == nil {
		panic(fmt.Errorf("file %s already exists", w.Filename()))
	}

	db, err := sql.Open("sqlite3", w.Filename())
	if err != nil {
		panic(err)
	}

	w.DB = db

	fmt.Fprintf(os.Stderr, "Database created for recording: %s\n",
		w.Filename())

	atexit.Register(w.Flush)

	return w
}

// Filename returns the name of the database file.
func (w *SQLiteWriter) Filename() string {
	return w.path + ".sqlite3"
}

func storableKind(kind reflect.Kind) bool {
	switch kind {
	case reflect.Bool, reflect.String, reflect.Float32, reflect.Float64,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64:
		return true
	}

	return false
}

func columnsOf(sampleEntry any) ([]string, error) {
	t := reflect.TypeOf(sampleEntry)
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %T is not a struct",
			ErrInvalidEntry, sampleEntry)
	}

	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() || !storableKind(f.Type.Kind()) {
			return nil, fmt.Errorf("%w: field %s", ErrInvalidEntry, f.Name)
		}
	}

	return structs.Names(sampleEntry), nil
}

// CreateTable creates a table. It panics if the entry has fields that cannot
// be stored.
func (w *SQLiteWriter) CreateTable(tableName string, sampleEntry any) {
	columns, err := columnsOf(sampleEntry)
	if err != nil {
		panic(err)
	}

	create := fmt.Sprintf("CREATE TABLE %s (%s)",
		tableName, strings.Join(columns, ", "))
	if _, err := w.Exec(create); err != nil {
		panic(fmt.Errorf("%s: %w", create, err))
	}

	placeholders := strings.TrimSuffix(
		strings.Repeat("?, ", len(columns)), ", ")

	w.tables[tableName] = &pendingTable{
		entryType: reflect.TypeOf(sampleEntry),
		insertSQL: fmt.Sprintf("INSERT INTO %s VALUES (%s)",
			tableName, placeholders),
	}
}

// InsertData buffers an entry and flushes when the batch is full. It panics
// if the table does not exist or the entry type does not match it.
func (w *SQLiteWriter) InsertData(tableName string, entry any) {
	table, ok := w.tables[tableName]
	if !ok {
		panic(fmt.Sprintf("table %s does not exist", tableName))
	}

	if reflect.TypeOf(entry) != table.entryType {
		panic(fmt.Sprintf("entry of type %T does not match table %s",
			entry, tableName))
	}

	table.entries = append(table.entries, entry)

	w.buffered++
	if w.buffered >= w.batchSize {
		w.Flush()
	}
}

// ListTables returns the created tables sorted by name.
func (w *SQLiteWriter) ListTables() []string {
	names := make([]string, 0, len(w.tables))
	for name := range w.tables {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Flush writes all buffered entries in one transaction.
func (w *SQLiteWriter) Flush() {
	if w.buffered == 0 {
		return
	}

	tx, err := w.Begin()
	if err != nil {
		panic(err)
	}

	for _, table := range w.tables {
		if err := table.writeTo(tx); err != nil {
			_ = tx.Rollback()
			panic(err)
		}
	}

	if err := tx.Commit(); err != nil {
		panic(err)
	}

	w.buffered = 0
}

func (t *pendingTable) writeTo(tx *sql.Tx) error {
	if len(t.entries) == 0 {
		return nil
	}

	stmt, err := tx.Prepare(t.insertSQL)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, entry := range t.entries {
		if _, err := stmt.Exec(structs.Values(entry)...); err != nil {
			return err
		}
	}

	t.entries = nil

	return nil
}
