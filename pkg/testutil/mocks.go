package testutil

import (
	"context"
	"database/sql/driver"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

// MockDB wraps sqlmock for easier testing
type MockDB struct {
	DB   *sqlx.DB
	Mock sqlmock.Sqlmock
}

// NewMockDB creates a new mock database for unit testing.
// Use this when you want to test repository logic without a real database.
//
// Usage:
//
//	mockDB := testutil.NewMockDB(t)
//	defer mockDB.Close()
//
//	mockDB.ExpectQuery("SELECT").WillReturnRows(...)
//	repo := repository.NewEmployeeRepository(database.Wrap(mockDB.DB, nil))
func NewMockDB(t *testing.T) *MockDB {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	sqlxDB := sqlx.NewDb(db, "postgres")

	return &MockDB{
		DB:   sqlxDB,
		Mock: mock,
	}
}

// Close closes the mock database connection
func (m *MockDB) Close() error {
	return m.DB.Close()
}

// ExpectQuery sets up an expected query
func (m *MockDB) ExpectQuery(query string) *sqlmock.ExpectedQuery {
	return m.Mock.ExpectQuery(regexp.QuoteMeta(query))
}

// ExpectExec sets up an expected exec
func (m *MockDB) ExpectExec(query string) *sqlmock.ExpectedExec {
	return m.Mock.ExpectExec(regexp.QuoteMeta(query))
}

// ExpectationsWereMet verifies all expectations were met
func (m *MockDB) ExpectationsWereMet(t *testing.T) {
	if err := m.Mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled mock expectations: %v", err)
	}
}

// MockRows creates a new mock rows object
func MockRows(columns ...string) *sqlmock.Rows {
	return sqlmock.NewRows(columns)
}

// AnyTime is a matcher for any time.Time value
type AnyTime struct{}

// Match satisfies the sqlmock.Argument interface
func (a AnyTime) Match(v driver.Value) bool {
	_, ok := v.(time.Time)
	return ok
}

// MockPublisher is a mock event publisher for testing
type MockPublisher struct {
	mu              sync.Mutex
	PublishedEvents []PublishedEvent
	Err             error
}

// PublishedEvent represents an event that was published
type PublishedEvent struct {
	Type    string
	Payload interface{}
}

// NewMockPublisher creates a new mock publisher
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{
		PublishedEvents: make([]PublishedEvent, 0),
	}
}

// Publish records an event for later verification and returns Err
func (m *MockPublisher) Publish(ctx context.Context, eventType string, payload interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PublishedEvents = append(m.PublishedEvents, PublishedEvent{
		Type:    eventType,
		Payload: payload,
	})
	return m.Err
}

// Events returns a copy of the recorded events
func (m *MockPublisher) Events() []PublishedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PublishedEvent(nil), m.PublishedEvents...)
}

// AssertEventPublished checks if an event of the given type was published
func (m *MockPublisher) AssertEventPublished(t *testing.T, eventType string) {
	t.Helper()
	for _, e := range m.Events() {
		if e.Type == eventType {
			return
		}
	}
	t.Errorf("expected event %q to be published, but it wasn't", eventType)
}

// AssertNoEventsPublished checks that no events were published
func (m *MockPublisher) AssertNoEventsPublished(t *testing.T) {
	t.Helper()
	if events := m.Events(); len(events) > 0 {
		t.Errorf("expected no events, but got %d: %+v", len(events), events)
	}
}
