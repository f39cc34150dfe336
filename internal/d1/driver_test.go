package d1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedQuery struct {
	Path   string
	Auth   string
	SQL    string
	Params []any
}

// fakeD1 serves the raw endpoint with a canned body and records requests
type fakeD1 struct {
	mu       sync.Mutex
	queries  []recordedQuery
	status   int
	response string
}

func (f *fakeD1) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body queryRequest
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	f.queries = append(f.queries, recordedQuery{
		Path:   r.URL.Path,
		Auth:   r.Header.Get("Authorization"),
		SQL:    body.SQL,
		Params: body.Params,
	})
	f.mu.Unlock()

	status := f.status
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(f.response))
}

func newTestClient(t *testing.T, fake *fakeD1) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{
		BaseURL:    srv.URL,
		AccountID:  "acct",
		DatabaseID: "db1",
		Token:      "secret",
	})
	require.NoError(t, err)
	return client
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient(Config{AccountID: "acct", DatabaseID: "db"})
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestQueryDecodesRows(t *testing.T) {
	fake := &fakeD1{response: `{
		"success": true,
		"errors": [],
		"result": [{
			"success": true,
			"meta": {"changes": 0, "last_row_id": 0},
			"results": {
				"columns": ["id", "email", "verified", "created_at", "score", "image"],
				"rows": [["01J", "a@b.co", 1, "2025-01-02 03:04:05.123+00:00", 1.5, null]]
			}
		}]
	}`}
	db := OpenDB(newTestClient(t, fake))
	defer db.Close()

	var (
		id, email string
		verified  bool
		createdAt time.Time
		score     float64
		image     *string
	)
	err := db.QueryRowContext(context.Background(),
		"SELECT id, email, verified, created_at, score, image FROM user WHERE email = ?", "a@b.co").
		Scan(&id, &email, &verified, &createdAt, &score, &image)
	require.NoError(t, err)

	assert.Equal(t, "01J", id)
	assert.Equal(t, "a@b.co", email)
	assert.True(t, verified)
	assert.Equal(t, 2025, createdAt.Year())
	assert.Equal(t, 123*time.Millisecond, time.Duration(createdAt.Nanosecond()))
	assert.Equal(t, 1.5, score)
	assert.Nil(t, image)

	require.Len(t, fake.queries, 1)
	q := fake.queries[0]
	assert.Equal(t, "/accounts/acct/d1/database/db1/raw", q.Path)
	assert.Equal(t, "Bearer secret", q.Auth)
	assert.Equal(t, []any{"a@b.co"}, q.Params)
}

func TestQueryKeepsTimestampShapedTextAsString(t *testing.T) {
	fake := &fakeD1{response: `{
		"success": true,
		"errors": [],
		"result": [{
			"success": true,
			"meta": {"changes": 0, "last_row_id": 0},
			"results": {
				"columns": ["name", "expires_at"],
				"rows": [["2024-01-01 10:00:00", "2024-01-01 10:00:00"]]
			}
		}]
	}`}
	db := OpenDB(newTestClient(t, fake))
	defer db.Close()

	var (
		name      string
		expiresAt time.Time
	)
	err := db.QueryRowContext(context.Background(), "SELECT name, expires_at FROM user").Scan(&name, &expiresAt)
	require.NoError(t, err)

	assert.Equal(t, "2024-01-01 10:00:00", name)
	assert.True(t, expiresAt.Equal(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)))
}

func TestExecEncodesParamsAndReportsMeta(t *testing.T) {
	fake := &fakeD1{response: `{"success":true,"errors":[],"result":[{"success":true,"meta":{"changes":1,"last_row_id":7},"results":{"columns":[],"rows":[]}}]}`}
	db := OpenDB(newTestClient(t, fake))
	defer db.Close()

	when := time.Date(2025, 5, 6, 7, 8, 9, 0, time.UTC)
	res, err := db.ExecContext(context.Background(),
		"INSERT INTO session (id, expires_at, active, data) VALUES (?, ?, ?, ?)",
		"s1", when, true, []byte("blob"))
	require.NoError(t, err)

	affected, err := res.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	lastID, err := res.LastInsertId()
	require.NoError(t, err)
	assert.Equal(t, int64(7), lastID)

	require.Len(t, fake.queries, 1)
	assert.Equal(t, []any{"s1", "2025-05-06 07:08:09+00:00", float64(1), "blob"}, fake.queries[0].Params)
}

func TestAPIErrorsSurface(t *testing.T) {
	fake := &fakeD1{
		status:   http.StatusBadRequest,
		response: `{"success":false,"errors":[{"code":7500,"message":"no such table: user"}],"result":[]}`,
	}
	db := OpenDB(newTestClient(t, fake))
	defer db.Close()

	_, err := db.ExecContext(context.Background(), "DELETE FROM user")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, apiErr.Error(), "no such table: user")
}

func TestTransactionsUnsupported(t *testing.T) {
	db := OpenDB(newTestClient(t, &fakeD1{response: `{"success":true,"result":[]}`}))
	defer db.Close()

	_, err := db.BeginTx(context.Background(), nil)
	assert.ErrorIs(t, err, ErrTxUnsupported)
}

func TestParseTimeIgnoresPlainStrings(t *testing.T) {
	for _, s := range []string{"alice@example.com", "Alice", "2025-01-02", "01JABCDEFGHJKMNPQRSTVWXYZ0"} {
		_, ok := parseTime(s)
		assert.False(t, ok, s)
	}

	_, ok := parseTime("2025-01-02T03:04:05Z")
	assert.True(t, ok)
}
