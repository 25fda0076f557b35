package cleanup

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"
)

type fakeResult struct {
	rowsAffected int64
}

func (r *fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r *fakeResult) RowsAffected() (int64, error) { return r.rowsAffected, nil }

// Executor インターフェースに対するモック実装。
// 実行されたクエリと引数を呼び出し順に記録する。
type mockExecutor struct {
	queries [][]interface{} // {query string, args...}
	results []sql.Result
	errs    []error
	calls   int
}

func (m *mockExecutor) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	entry := append([]interface{}{query}, args...)
	m.queries = append(m.queries, entry)

	idx := m.calls
	m.calls++

	var err error
	if idx < len(m.errs) {
		err = m.errs[idx]
	}
	var result sql.Result = &fakeResult{}
	if idx < len(m.results) && m.results[idx] != nil {
		result = m.results[idx]
	}
	return result, err
}

type mockMetrics struct {
	cleanupRuns int
}

func (m *mockMetrics) RecordCleanupRun() { m.cleanupRuns++ }

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

func TestNewCleanupJob_SetsDefaultRetentionDays(t *testing.T) {
	var buf bytes.Buffer
	job := NewCleanupJob(&mockExecutor{}, newTestLogger(&buf), nil)

	if job.AuditRetentionDays != 90 {
		t.Errorf("AuditRetentionDays = %d, want 90", job.AuditRetentionDays)
	}
}

func TestCleanupJob_Run_DeletesSessionsAndAuditLogs(t *testing.T) {
	var buf bytes.Buffer
	mock := &mockExecutor{
		results: []sql.Result{
			&fakeResult{rowsAffected: 3},
			&fakeResult{rowsAffected: 7},
		},
	}
	job := NewCleanupJob(mock, newTestLogger(&buf), nil)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if len(mock.queries) != 2 {
		t.Fatalf("query count = %d, want 2", len(mock.queries))
	}

	sessionQuery := mock.queries[0][0].(string)
	if !strings.Contains(sessionQuery, "DELETE FROM sessions") || !strings.Contains(sessionQuery, "expires_at") {
		t.Errorf("unexpected session cleanup query: %s", sessionQuery)
	}

	auditQuery := mock.queries[1][0].(string)
	if !strings.Contains(auditQuery, "DELETE FROM audit_logs") || !strings.Contains(auditQuery, "created_at") {
		t.Errorf("unexpected audit log cleanup query: %s", auditQuery)
	}
}

func TestCleanupJob_Run_UsesRetentionInterval(t *testing.T) {
	var buf bytes.Buffer
	mock := &mockExecutor{}
	job := NewCleanupJob(mock, newTestLogger(&buf), nil)

	_ = job.Run(context.Background())

	if len(mock.queries) != 2 {
		t.Fatalf("query count = %d, want 2", len(mock.queries))
	}
	args := mock.queries[1][1:]
	if len(args) != 1 {
		t.Fatalf("audit log query arg count = %d, want 1", len(args))
	}
	if args[0] != "90 days" {
		t.Errorf("interval arg = %v, want %q", args[0], "90 days")
	}
}

func TestCleanupJob_Run_CustomRetentionDays(t *testing.T) {
	var buf bytes.Buffer
	mock := &mockExecutor{}
	job := NewCleanupJob(mock, newTestLogger(&buf), nil)
	job.AuditRetentionDays = 30

	_ = job.Run(context.Background())

	args := mock.queries[1][1:]
	if args[0] != "30 days" {
		t.Errorf("interval arg = %v, want %q", args[0], "30 days")
	}
}

func TestCleanupJob_Run_LogsDeletedCounts(t *testing.T) {
	var buf bytes.Buffer
	mock := &mockExecutor{
		results: []sql.Result{
			&fakeResult{rowsAffected: 5},
			&fakeResult{rowsAffected: 42},
		},
	}
	job := NewCleanupJob(mock, newTestLogger(&buf), nil)

	_ = job.Run(context.Background())

	var entry map[string]interface{}
	found := false
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		if entry["deleted_sessions"] == float64(5) && entry["deleted_audit_logs"] == float64(42) {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("completion log missing deleted counts: %s", buf.String())
	}
}

func TestCleanupJob_Run_RecordsMetric(t *testing.T) {
	var buf bytes.Buffer
	metrics := &mockMetrics{}
	job := NewCleanupJob(&mockExecutor{}, newTestLogger(&buf), metrics)

	_ = job.Run(context.Background())
	_ = job.Run(context.Background())

	if metrics.cleanupRuns != 2 {
		t.Errorf("cleanup runs recorded = %d, want 2", metrics.cleanupRuns)
	}
}

func TestCleanupJob_Run_SessionDeleteFailure(t *testing.T) {
	var buf bytes.Buffer
	metrics := &mockMetrics{}
	mock := &mockExecutor{
		errs: []error{sql.ErrConnDone},
	}
	job := NewCleanupJob(mock, newTestLogger(&buf), metrics)

	err := job.Run(context.Background())
	if err == nil {
		t.Fatal("Run() should return error on session delete failure")
	}

	// セッション削除に失敗したら監査ログの削除は試行しない
	if mock.calls != 1 {
		t.Errorf("exec calls = %d, want 1", mock.calls)
	}
	if metrics.cleanupRuns != 0 {
		t.Errorf("failed run must not record cleanup metric, got %d", metrics.cleanupRuns)
	}
	if !strings.Contains(buf.String(), "ERROR") {
		t.Errorf("error log missing: %s", buf.String())
	}
}

func TestCleanupJob_Run_AuditDeleteFailure(t *testing.T) {
	var buf bytes.Buffer
	mock := &mockExecutor{
		errs: []error{nil, sql.ErrConnDone},
	}
	job := NewCleanupJob(mock, newTestLogger(&buf), nil)

	err := job.Run(context.Background())
	if err == nil {
		t.Fatal("Run() should return error on audit log delete failure")
	}
}

func TestCleanupJob_Run_IdempotentWithZeroRows(t *testing.T) {
	var buf bytes.Buffer
	job := NewCleanupJob(&mockExecutor{}, newTestLogger(&buf), nil)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("first Run() error: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("second Run() error: %v", err)
	}
}

func TestCleanupJob_Start_StopsOnContextCancel(t *testing.T) {
	var buf bytes.Buffer
	job := NewCleanupJob(&mockExecutor{}, newTestLogger(&buf), nil)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		job.Start(ctx, time.Hour)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not stop after context cancellation")
	}
}
