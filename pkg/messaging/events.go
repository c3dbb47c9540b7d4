package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	EventMonthSynced       = "attendance.month.synced"
	EventDayOverridden     = "attendance.day.overridden"
	EventMonthMissingSaved = "attendance.month.missing_saved"
)

// Exchange names
const (
	ExchangeAttendanceEvents = "attendance.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            uuid.New().String(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// MonthSyncedEvent is published after a month grid was written from computed days
type MonthSyncedEvent struct {
	EmployeeID  int64  `json:"employee_id"`
	TimesheetID int64  `json:"timesheet_id"`
	MonthStart  string `json:"month_start"`
	DaysWritten int    `json:"days_written"`
}

// DayOverriddenEvent is published when a manual code is written for one day
type DayOverriddenEvent struct {
	EmployeeID  int64  `json:"employee_id"`
	TimesheetID int64  `json:"timesheet_id"`
	Date        string `json:"date"`
	StatusCode  string `json:"status_code"`
}

// MonthMissingSavedEvent is published when the monthly missing total is stored
type MonthMissingSavedEvent struct {
	EmployeeID     int64  `json:"employee_id"`
	TimesheetID    int64  `json:"timesheet_id"`
	MonthStart     string `json:"month_start"`
	MissingMinutes int    `json:"missing_minutes"`
}
