package services

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sync"
	"sync/atomic"
	"testing"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// sqlExpectation is one statement the fake driver will accept, in order.
// A nil args slice accepts any arguments.
type sqlExpectation struct {
	exec    bool
	pattern *regexp.Regexp
	args    []driver.Value
	columns []string
	rows    [][]driver.Value
	result  fakeResult
	err     error
}

func expectExec(pattern string, rowsAffected, lastInsertID int64) *sqlExpectation {
	return &sqlExpectation{
		exec:    true,
		pattern: regexp.MustCompile(pattern),
		result:  fakeResult{lastInsertID: lastInsertID, rowsAffected: rowsAffected},
	}
}

func expectQuery(pattern string, columns []string, rows ...[]driver.Value) *sqlExpectation {
	return &sqlExpectation{pattern: regexp.MustCompile(pattern), columns: columns, rows: rows}
}

func (e *sqlExpectation) withArgs(args ...driver.Value) *sqlExpectation {
	e.args = args
	return e
}

type sqlScript struct {
	mu      sync.Mutex
	pending []*sqlExpectation
}

func (s *sqlScript) match(exec bool, query string, args []driver.NamedValue) (*sqlExpectation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return nil, fmt.Errorf("unexpected statement: %s", query)
	}
	want := s.pending[0]
	if want.exec != exec || !want.pattern.MatchString(query) {
		return nil, fmt.Errorf("statement %q does not match %q", query, want.pattern)
	}
	if want.args != nil {
		if len(want.args) != len(args) {
			return nil, fmt.Errorf("%s: got %d args, want %d", query, len(args), len(want.args))
		}
		for i := range args {
			if args[i].Value != want.args[i] {
				return nil, fmt.Errorf("%s: arg %d is %v, want %v", query, i, args[i].Value, want.args[i])
			}
		}
	}
	s.pending = s.pending[1:]
	return want, nil
}

func (s *sqlScript) remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

type fakeDriver struct{ script *sqlScript }

func (d fakeDriver) Open(string) (driver.Conn, error) { return fakeConn{script: d.script}, nil }

type fakeConn struct{ script *sqlScript }

func (fakeConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("prepare not supported") }

func (fakeConn) Close() error { return nil }

func (fakeConn) Begin() (driver.Tx, error) { return nil, errors.New("transactions not supported") }

func (c fakeConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	want, err := c.script.match(false, query, args)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if want.err != nil {
		return nil, want.err
	}
	return &fakeRows{columns: want.columns, rows: want.rows}, nil
}

func (c fakeConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	want, err := c.script.match(true, query, args)
	if err != nil {
		return nil, err
	}
	if want.err != nil {
		return nil, want.err
	}
	return want.result, nil
}

type fakeResult struct {
	lastInsertID int64
	rowsAffected int64
}

func (r fakeResult) LastInsertId() (int64, error) { return r.lastInsertID, nil }

func (r fakeResult) RowsAffected() (int64, error) { return r.rowsAffected, nil }

type fakeRows struct {
	columns []string
	rows    [][]driver.Value
	next    int
}

func (r *fakeRows) Columns() []string { return r.columns }

func (r *fakeRows) Close() error { return nil }

func (r *fakeRows) Next(dest []driver.Value) error {
	if r.next >= len(r.rows) {
		return io.EOF
	}
	for i := range dest {
		dest[i] = nil
	}
	copy(dest, r.rows[r.next])
	r.next++
	return nil
}

var fakeDriverSeq atomic.Int64

// newScriptedGormDB opens gorm over a driver that replays expectations and
// fails the test if any are left unconsumed.
func newScriptedGormDB(t *testing.T, expectations ...*sqlExpectation) *gorm.DB {
	t.Helper()
	script := &sqlScript{pending: expectations}
	name := fmt.Sprintf("research_fake_%d", fakeDriverSeq.Add(1))
	sql.Register(name, fakeDriver{script: script})

	sqlDB, err := sql.Open(name, "")
	if err != nil {
		t.Fatalf("open fake db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = sqlDB.Close()
		if n := script.remaining(); n != 0 {
			t.Errorf("%d expected statements were not executed", n)
		}
	})

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open gorm: %v", err)
	}
	return db
}
