package d1

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrTxUnsupported is returned by Begin; the HTTP API has no interactive transactions
	ErrTxUnsupported = errors.New("d1: transactions are not supported over the HTTP API")
	// ErrNamedParams is returned when a query uses named parameters
	ErrNamedParams = errors.New("d1: named parameters are not supported")
)

// timeLayout matches what the SQLite driver writes for DATETIME columns
const timeLayout = "2006-01-02 15:04:05.999999999-07:00"

var timeLayouts = []string{
	timeLayout,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999-07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
}

// OpenDB returns a *sql.DB backed by the given client
func OpenDB(client *Client) *sql.DB {
	return sql.OpenDB(&Connector{client: client})
}

// Connector hands out connections sharing one HTTP client
type Connector struct {
	client *Client
}

// NewConnector wraps a client as a driver.Connector
func NewConnector(client *Client) *Connector {
	return &Connector{client: client}
}

func (c *Connector) Connect(context.Context) (driver.Conn, error) {
	return &conn{client: c.client}, nil
}

func (c *Connector) Driver() driver.Driver {
	return Driver{}
}

// Driver exists to satisfy driver.Connector; use OpenDB instead of sql.Open
type Driver struct{}

func (Driver) Open(string) (driver.Conn, error) {
	return nil, errors.New("d1: open connections with d1.OpenDB")
}

type conn struct {
	client *Client
}

func (c *conn) Prepare(query string) (driver.Stmt, error) {
	return &stmt{conn: c, query: query}, nil
}

func (c *conn) Close() error { return nil }

func (c *conn) Begin() (driver.Tx, error) { return nil, ErrTxUnsupported }

func (c *conn) BeginTx(context.Context, driver.TxOptions) (driver.Tx, error) {
	return nil, ErrTxUnsupported
}

func (c *conn) Ping(ctx context.Context) error {
	_, err := c.client.Raw(ctx, "SELECT 1", nil)
	return err
}

func (c *conn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	params, err := encodeParams(args)
	if err != nil {
		return nil, err
	}

	res, err := c.client.Raw(ctx, query, params)
	if err != nil {
		return nil, err
	}
	return &rows{columns: res.Columns, values: res.Rows}, nil
}

func (c *conn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	params, err := encodeParams(args)
	if err != nil {
		return nil, err
	}

	res, err := c.client.Raw(ctx, query, params)
	if err != nil {
		return nil, err
	}
	return result{meta: res.Meta}, nil
}

type stmt struct {
	conn  *conn
	query string
}

func (s *stmt) Close() error  { return nil }
func (s *stmt) NumInput() int { return -1 }

func (s *stmt) Exec(args []driver.Value) (driver.Result, error) {
	return s.conn.ExecContext(context.Background(), s.query, named(args))
}

func (s *stmt) Query(args []driver.Value) (driver.Rows, error) {
	return s.conn.QueryContext(context.Background(), s.query, named(args))
}

func (s *stmt) ExecContext(ctx context.Context, args []driver.NamedValue) (driver.Result, error) {
	return s.conn.ExecContext(ctx, s.query, args)
}

func (s *stmt) QueryContext(ctx context.Context, args []driver.NamedValue) (driver.Rows, error) {
	return s.conn.QueryContext(ctx, s.query, args)
}

type result struct {
	meta Meta
}

func (r result) LastInsertId() (int64, error) { return r.meta.LastRowID, nil }
func (r result) RowsAffected() (int64, error) { return r.meta.Changes, nil }

type rows struct {
	columns []string
	values  [][]any
	pos     int
}

func (r *rows) Columns() []string { return r.columns }
func (r *rows) Close() error      { return nil }

func (r *rows) Next(dest []driver.Value) error {
	if r.pos >= len(r.values) {
		return io.EOF
	}
	row := r.values[r.pos]
	r.pos++

	for i := range dest {
		if i >= len(row) {
			dest[i] = nil
			continue
		}
		var column string
		if i < len(r.columns) {
			column = r.columns[i]
		}
		v, err := decodeValue(column, row[i])
		if err != nil {
			return fmt.Errorf("d1: column %d: %w", i, err)
		}
		dest[i] = v
	}
	return nil
}

func named(args []driver.Value) []driver.NamedValue {
	out := make([]driver.NamedValue, len(args))
	for i, v := range args {
		out[i] = driver.NamedValue{Ordinal: i + 1, Value: v}
	}
	return out
}

func encodeParams(args []driver.NamedValue) ([]any, error) {
	params := make([]any, len(args))
	for i, arg := range args {
		if arg.Name != "" {
			return nil, ErrNamedParams
		}
		switch v := arg.Value.(type) {
		case nil:
			params[i] = nil
		case time.Time:
			params[i] = v.Format(timeLayout)
		case []byte:
			params[i] = string(v)
		case bool:
			if v {
				params[i] = 1
			} else {
				params[i] = 0
			}
		default:
			params[i] = v
		}
	}
	return params, nil
}

// decodeValue turns a JSON-decoded cell into a driver.Value. The raw API
// carries no column types, so only timestamp columns (named *_at) have their
// strings parsed into time.Time; every other text column stays a string.
func decodeValue(column string, v any) (driver.Value, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n, nil
		}
		f, err := strconv.ParseFloat(x.String(), 64)
		if err != nil {
			return nil, err
		}
		return f, nil
	case bool:
		return x, nil
	case string:
		if isTimeColumn(column) {
			if t, ok := parseTime(x); ok {
				return t, nil
			}
		}
		return x, nil
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	}
}

func isTimeColumn(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), "_at")
}

func parseTime(s string) (time.Time, bool) {
	if len(s) < 19 || s[4] != '-' || s[7] != '-' || (s[10] != ' ' && s[10] != 'T') || s[13] != ':' {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
