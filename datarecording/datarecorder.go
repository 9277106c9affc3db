// Package datarecording stores run results in a SQLite database.
package datarecording

import (
	"database/sql"
	"fmt"
	"os"
	"reflect"
	"strings"
	"sync"

	"github.com/fatih/structs"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// DataRecorder is a backend that can record and store data
type DataRecorder interface {
	// CreateTable creates a new table whose columns are the fields of
	// sampleEntry. Creating an existing table is a no-op.
	CreateTable(tableName string, sampleEntry any)

	// InsertData buffers an entry for a table that already exists.
	InsertData(tableName string, entry any)

	// ListTables returns the names of all tables, sorted by creation.
	ListTables() []string

	// Flush writes all the buffered entries into the database.
	Flush()

	// Close flushes and closes the database.
	Close() error
}

// New creates a DataRecorder that writes to path + ".sqlite3". An empty path
// picks a unique name. The file must not exist yet.
func New(path string) (DataRecorder, error) {
	if path == "" {
		path = "partsim_" + xid.New().String()
	}

	filename := path + ".sqlite3"

	_, err := os.Stat(filename)
	if err == nil {
		return nil, fmt.Errorf("file %s already exists", filename)
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(os.Stderr, "Database created for recording: %s\n", filename)

	return NewWithDB(db), nil
}

// NewWithDB creates a DataRecorder on an open database. The database is
// limited to one connection so that batches run in one transaction.
func NewWithDB(db *sql.DB) DataRecorder {
	db.SetMaxOpenConns(1)

	w := &sqliteWriter{
		DB:        db,
		batchSize: 100000,
		tables:    make(map[string]*table),
	}

	atexit.Register(func() { w.Flush() })

	return w
}

type table struct {
	structType reflect.Type
	entries    []any
}

// sqliteWriter is the writer that writes data into SQLite database. Entries
// may be inserted from several goroutines.
type sqliteWriter struct {
	*sql.DB

	lock       sync.Mutex
	tables     map[string]*table
	tableNames []string
	batchSize  int
	entryCount int
	closed     bool
}

func isAllowedKind(kind reflect.Kind) bool {
	switch kind {
	case
		reflect.Bool,
		reflect.Int,
		reflect.Int8,
		reflect.Int16,
		reflect.Int32,
		reflect.Int64,
		reflect.Uint,
		reflect.Uint8,
		reflect.Uint16,
		reflect.Uint32,
		reflect.Float32,
		reflect.Float64,
		reflect.String:
		return true
	default:
		return false
	}
}

func checkStructFields(entry any) error {
	t := reflect.TypeOf(entry)
	if t.Kind() != reflect.Struct {
		return fmt.Errorf("entry of type %s is not a struct", t)
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !isAllowedKind(field.Type.Kind()) {
			return fmt.Errorf("field %s of kind %s cannot be recorded",
				field.Name, field.Type.Kind())
		}
	}

	return nil
}

func (w *sqliteWriter) CreateTable(tableName string, sampleEntry any) {
	w.lock.Lock()
	defer w.lock.Unlock()

	if _, exists := w.tables[tableName]; exists {
		return
	}

	err := checkStructFields(sampleEntry)
	if err != nil {
		panic(err)
	}

	fields := strings.Join(structs.Names(sampleEntry), ", \n\t")
	w.mustExecute(`CREATE TABLE ` + tableName +
		` (` + "\n\t" + fields + "\n" + `);`)

	w.tables[tableName] = &table{structType: reflect.TypeOf(sampleEntry)}
	w.tableNames = append(w.tableNames, tableName)
}

func (w *sqliteWriter) InsertData(tableName string, entry any) {
	w.lock.Lock()
	defer w.lock.Unlock()

	t, exists := w.tables[tableName]
	if !exists {
		panic(fmt.Sprintf("table %s does not exist", tableName))
	}

	if reflect.TypeOf(entry) != t.structType {
		panic(fmt.Sprintf("table %s stores %s, got %s",
			tableName, t.structType, reflect.TypeOf(entry)))
	}

	t.entries = append(t.entries, entry)

	w.entryCount++
	if w.entryCount >= w.batchSize {
		w.flush()
	}
}

func (w *sqliteWriter) ListTables() []string {
	w.lock.Lock()
	defer w.lock.Unlock()

	return append([]string(nil), w.tableNames...)
}

func (w *sqliteWriter) Flush() {
	w.lock.Lock()
	defer w.lock.Unlock()

	w.flush()
}

func (w *sqliteWriter) Close() error {
	w.lock.Lock()
	defer w.lock.Unlock()

	if w.closed {
		return nil
	}

	w.flush()
	w.closed = true

	return w.DB.Close()
}

func (w *sqliteWriter) flush() {
	if w.entryCount == 0 || w.closed {
		return
	}

	w.mustExecute("BEGIN TRANSACTION")
	defer w.mustExecute("COMMIT TRANSACTION")

	for _, tableName := range w.tableNames {
		t := w.tables[tableName]
		if len(t.entries) == 0 {
			continue
		}

		stmt := w.prepareStatement(tableName, t.entries[0])

		for _, entry := range t.entries {
			_, err := stmt.Exec(structs.Values(entry)...)
			if err != nil {
				panic(err)
			}
		}

		t.entries = nil

		stmt.Close()
	}

	w.entryCount = 0
}

func (w *sqliteWriter) mustExecute(query string) sql.Result {
	res, err := w.Exec(query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to execute: %s\n", query)
		panic(err)
	}

	return res
}

func (w *sqliteWriter) prepareStatement(tableName string, entry any) *sql.Stmt {
	n := structs.Names(entry)
	for i := range n {
		n[i] = "?"
	}

	sqlStr := "INSERT INTO " + tableName +
		" VALUES (" + strings.Join(n, ", ") + ")"

	stmt, err := w.Prepare(sqlStr)
	if err != nil {
		panic(err)
	}

	return stmt
}
