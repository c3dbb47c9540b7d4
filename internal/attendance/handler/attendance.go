package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/orfevre/attendance-backend/internal/attendance/service"
	"github.com/orfevre/attendance-backend/pkg/errors"
	"github.com/orfevre/attendance-backend/pkg/httputil"
	"github.com/orfevre/attendance-backend/pkg/logger"
	"github.com/orfevre/attendance-backend/pkg/messaging"
	"github.com/orfevre/attendance-backend/pkg/permissions"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AttendanceService is what the handler needs from the service layer
type AttendanceService interface {
	PreviewDay(ctx context.Context, employeeID int64, date string) (*service.DailyPreview, error)
	RangeReport(ctx context.Context, q service.RangeQuery) (*service.RangeReport, error)
	MonthGrid(ctx context.Context, employeeID int64, year, month int, empCode string) (*service.MonthGrid, error)
	SyncMonth(ctx context.Context, employeeID int64, year, month *int) (*service.SyncResult, error)
	SaveMonthlyMissing(ctx context.Context, employeeID int64, year, month, minutes int) (*service.WriteResult, error)
	ManualPunch(ctx context.Context, employeeID int64, in service.ManualPunchInput) (*service.WriteResult, error)
	ExportMonth(ctx context.Context, employeeID int64, year, month int, w io.Writer) (string, error)
}

// AttendanceHandler handles attendance endpoints
type AttendanceHandler struct {
	service AttendanceService
	logger  *logger.Logger
}

// NewAttendanceHandler creates a new attendance handler
func NewAttendanceHandler(svc AttendanceService, log *logger.Logger) *AttendanceHandler {
	return &AttendanceHandler{
		service: svc,
		logger:  log.WithComponent("attendance_handler"),
	}
}

// Routes returns the attendance routes, to be mounted under /api/v1/attendance
func (h *AttendanceHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(correlate)

	r.Group(func(r chi.Router) {
		r.Use(httputil.RequirePermission(permissions.AttendanceRead))
		r.Get("/daily/{employeeID}", h.PreviewDaily)
		r.Get("/punches", h.RangePunches)
		r.Get("/timesheets/{employeeID}", h.GetTimesheet)
	})

	r.With(httputil.RequirePermission(permissions.AttendanceExport)).
		Get("/timesheets/{employeeID}/export", h.ExportTimesheet)

	r.Group(func(r chi.Router) {
		r.Use(httputil.RequirePermission(permissions.AttendanceWrite))
		r.Post("/timesheets/{employeeID}/sync", h.SyncMonth)
		r.Post("/timesheets/{employeeID}/missing", h.SaveMonthlyMissing)
		r.Post("/timesheets/{employeeID}/days", h.ManualPunch)
	})

	return r
}

// PreviewDaily evaluates one employee-day
// GET /daily/{employeeID}?date=YYYY-MM-DD
func (h *AttendanceHandler) PreviewDaily(w http.ResponseWriter, r *http.Request) {
	employeeID, err := employeeIDParam(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	preview, err := h.service.PreviewDay(r.Context(), employeeID, r.URL.Query().Get("date"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, preview)
}

// RangePunches reports every day of a date range per employee
// GET /punches?from=&to=&ps=&employee_id=
func (h *AttendanceHandler) RangePunches(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	query := service.RangeQuery{
		From:        q.Get("from"),
		To:          q.Get("to"),
		PointOfSale: q.Get("ps"),
	}
	if raw := strings.TrimSpace(q.Get("employee_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			httputil.Error(w, errors.InvalidField("employee_id", "must be a positive integer"))
			return
		}
		query.EmployeeID = id
	}

	report, err := h.service.RangeReport(r.Context(), query)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, report, &httputil.Meta{Total: int64(len(report.Employees))})
}

// GetTimesheet returns the month grid
// GET /timesheets/{employeeID}?year=&month=&emp_code=
func (h *AttendanceHandler) GetTimesheet(w http.ResponseWriter, r *http.Request) {
	employeeID, err := employeeIDParam(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	year, month, err := yearMonthQuery(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	grid, err := h.service.MonthGrid(r.Context(), employeeID, year, month, r.URL.Query().Get("emp_code"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, grid)
}

// ExportTimesheet downloads the month grid as XLSX
// GET /timesheets/{employeeID}/export?year=&month=
func (h *AttendanceHandler) ExportTimesheet(w http.ResponseWriter, r *http.Request) {
	employeeID, err := employeeIDParam(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	year, month, err := yearMonthQuery(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var buf bytes.Buffer
	filename, err := h.service.ExportMonth(r.Context(), employeeID, year, month, &buf)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	if err := httputil.Attachment(w, xlsxContentType, filename, func(out io.Writer) error {
		_, err := buf.WriteTo(out)
		return err
	}); err != nil {
		h.logger.Warn().Err(err).Int64("employee_id", employeeID).Msg("export write interrupted")
	}
}

// SyncMonthRequest selects the month to sync. Both default to the current month.
type SyncMonthRequest struct {
	Year  *int `json:"year" validate:"omitempty,min=1900,max=9999"`
	Month *int `json:"month" validate:"omitempty,min=1,max=12"`
}

// SyncMonth materializes computed days into the month row
// POST /timesheets/{employeeID}/sync
func (h *AttendanceHandler) SyncMonth(w http.ResponseWriter, r *http.Request) {
	employeeID, err := employeeIDParam(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var req SyncMonthRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	res, err := h.service.SyncMonth(r.Context(), employeeID, req.Year, req.Month)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, res)
}

// SaveMissingRequest overrides the month-level missing minutes
type SaveMissingRequest struct {
	Year           int  `json:"year" validate:"required,min=1900,max=9999"`
	Month          int  `json:"month" validate:"required,min=1,max=12"`
	MissingMinutes *int `json:"missing_minutes" validate:"required,min=0"`
}

// SaveMonthlyMissing stores the month-level missing minutes total
// POST /timesheets/{employeeID}/missing
func (h *AttendanceHandler) SaveMonthlyMissing(w http.ResponseWriter, r *http.Request) {
	employeeID, err := employeeIDParam(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var req SaveMissingRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	res, err := h.service.SaveMonthlyMissing(r.Context(), employeeID, req.Year, req.Month, *req.MissingMinutes)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, res)
}

// ManualPunchRequest is a single-day manual override
type ManualPunchRequest struct {
	Date       string  `json:"date" validate:"required,isodate"`
	StatusCode string  `json:"status_code" validate:"required,max=8"`
	Reason     *string `json:"reason" validate:"omitempty,max=8"`
	Comment    *string `json:"comment" validate:"omitempty,max=500"`
	Entry      *string `json:"entry" validate:"omitempty,clocktime"`
	Exit       *string `json:"exit" validate:"omitempty,clocktime"`
}

// ManualPunch writes one day's override fields
// POST /timesheets/{employeeID}/days
func (h *AttendanceHandler) ManualPunch(w http.ResponseWriter, r *http.Request) {
	employeeID, err := employeeIDParam(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var req ManualPunchRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	res, err := h.service.ManualPunch(r.Context(), employeeID, service.ManualPunchInput{
		Date:       req.Date,
		StatusCode: req.StatusCode,
		Reason:     req.Reason,
		Comment:    req.Comment,
		Entry:      req.Entry,
		Exit:       req.Exit,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, res)
}

// correlate tags published events with the request ID
func correlate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := httputil.GetRequestID(r.Context()); id != "" {
			r = r.WithContext(messaging.WithCorrelationID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

func employeeIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "employeeID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.InvalidField("employeeID", "must be a positive integer")
	}
	return id, nil
}

func yearMonthQuery(r *http.Request) (int, int, error) {
	q := r.URL.Query()
	year, err := strconv.Atoi(q.Get("year"))
	if err != nil {
		return 0, 0, errors.InvalidField("year", "must be a four digit year")
	}
	month, err := strconv.Atoi(q.Get("month"))
	if err != nil {
		return 0, 0, errors.InvalidField("month", "must be within 1..12")
	}
	return year, month, nil
}

// decodeOptionalJSON accepts an empty body
func decodeOptionalJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return errors.BadRequest("unreadable body")
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errors.BadRequest("invalid JSON body")
	}
	return nil
}
