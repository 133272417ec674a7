package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// MockClickHouseConn implements driver.Conn for testing and records every
// row appended to its batches.
type MockClickHouseConn struct {
	driver.Conn

	mu       sync.Mutex
	rows     [][]interface{}
	sends    int
	execs    []string
	SendErr  error
	Prepared []string
}

func (m *MockClickHouseConn) PrepareBatch(ctx context.Context, query string, opts ...driver.PrepareBatchOption) (driver.Batch, error) {
	m.mu.Lock()
	m.Prepared = append(m.Prepared, query)
	m.mu.Unlock()
	return &MockBatch{conn: m}, nil
}

func (m *MockClickHouseConn) Exec(ctx context.Context, query string, args ...interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.execs = append(m.execs, query)
	return nil
}

// Rows returns a copy of the rows that were sent successfully.
func (m *MockClickHouseConn) Rows() [][]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]interface{}, len(m.rows))
	copy(out, m.rows)
	return out
}

func (m *MockClickHouseConn) Sends() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sends
}

// MockBatch buffers rows until Send.
type MockBatch struct {
	driver.Batch

	conn    *MockClickHouseConn
	pending [][]interface{}
	sent    bool
}

func (m *MockBatch) IsSent() bool {
	return m.sent
}

func (m *MockBatch) Rows() int {
	return len(m.pending)
}

func (m *MockBatch) Append(v ...interface{}) error {
	if len(v) != historyColumns {
		return errors.New("column count mismatch")
	}
	m.pending = append(m.pending, v)
	return nil
}

func (m *MockBatch) Send() error {
	m.conn.mu.Lock()
	defer m.conn.mu.Unlock()
	if m.conn.SendErr != nil {
		return m.conn.SendErr
	}
	m.conn.rows = append(m.conn.rows, m.pending...)
	m.conn.sends++
	m.sent = true
	return nil
}

func (m *MockBatch) Abort() error {
	m.pending = nil
	return nil
}
