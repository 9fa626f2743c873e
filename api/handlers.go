/*
handlers.go - HTTP API handlers for the job credit tracker

PURPOSE:
  Exposes the tracker via REST API. Handles HTTP request/response, JSON
  serialization, and delegates to the aggregators and the store.

ENDPOINTS:
  Tracker:
    GET    /api/tracker            Current week report (?date=YYYY-MM-DD)
    POST   /api/tracker            Submit a completed job
    GET    /api/job-types          Job types to pick from

  Job history:
    GET    /api/history            Completed jobs, 7 per page (?page=)
    PUT    /api/history/{id}       Edit a completed job
    DELETE /api/history/{id}       Delete a completed job

  Absences:
    GET    /api/absences           Absences, 7 per page (?page=)
    POST   /api/absences           Record an absence
    PUT    /api/absences/{id}      Edit an absence
    DELETE /api/absences/{id}      Delete an absence

  Profile:
    GET    /api/profile            Profile target
    PUT    /api/profile            Edit profile target

  Reports:
    GET    /api/week-history       Weekly surplus/deficit for every week on record
    GET    /api/about              About page entries

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Database access
  - Weekly, History: the aggregators, reading through Store
  - Auth: token issuing for register/login
  - Log: structured request-scoped logging

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call the store or an aggregator, scoped to the authenticated user
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 401: Missing or invalid token
  - 403: Row belongs to another user
  - 404: Row or page not found
  - 409: Username taken
  - 500: Configuration and internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - auth.go: Register, Login and the token middleware
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/warp/job-tracker/store/sqlite"
	"github.com/warp/job-tracker/tracker"
)

// Notices shown after a mutation.
const (
	MsgJobSubmitted     = "New job submitted"
	MsgJobUpdated       = "Job Updated"
	MsgJobDeleted       = "Job Deleted"
	MsgAbsenceSubmitted = "New absence submitted"
	MsgAbsenceUpdated   = "Absence Updated"
	MsgAbsenceDeleted   = "Absence deleted"
	MsgProfileUpdated   = "Profile Updated"
)

const maxBodyBytes = 1 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   *sqlite.Store
	Auth    *Authenticator
	Weekly  *tracker.WeeklyAggregator
	History *tracker.HistoryAggregator
	Log     *logrus.Logger

	// Now is the clock used for "today"; replaced in tests.
	Now func() time.Time
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store, auth *Authenticator, log *logrus.Logger) *Handler {
	return &Handler{
		Store:   store,
		Auth:    auth,
		Weekly:  tracker.NewWeeklyAggregator(store),
		History: tracker.NewHistoryAggregator(store),
		Log:     log,
		Now:     time.Now,
	}
}

func (h *Handler) logger(r *http.Request) *logrus.Entry {
	fields := logrus.Fields{"request_id": middleware.GetReqID(r.Context())}
	if c, ok := UserFrom(r.Context()); ok {
		fields["user_id"] = c.UserID
	}
	return h.Log.WithFields(fields)
}

func (h *Handler) today() tracker.Date {
	return tracker.DateOf(h.Now())
}

// =============================================================================
// TRACKER HANDLERS
// =============================================================================

// GetTracker returns the week report for today, or for ?date=.
// GET /api/tracker
func (h *Handler) GetTracker(w http.ResponseWriter, r *http.Request) {
	day := h.today()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := tracker.ParseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date", err)
			return
		}
		day = parsed
	}

	resp, err := h.trackerResponse(r, day)
	if err != nil {
		h.writeAggregationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// SubmitJob records a completed job and returns the refreshed week.
// POST /api/tracker
func (h *Handler) SubmitJob(w http.ResponseWriter, r *http.Request) {
	var req SubmitJobRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	userID := currentUser(r)

	job, err := h.jobFromRequest(req, userID)
	if err != nil {
		writeDomainError(w, "Error submitting job", err)
		return
	}
	saved, err := h.Store.AddCompletedJob(r.Context(), job)
	if err != nil {
		writeDomainError(w, "Error submitting job", err)
		return
	}
	h.logger(r).WithFields(logrus.Fields{
		"job_id":   saved.ID,
		"job_type": saved.JobType.Name,
		"date":     saved.CompletedOn.String(),
	}).Info("job submitted")

	resp, err := h.trackerResponse(r, h.today())
	if err != nil {
		h.writeAggregationError(w, r, err)
		return
	}
	dto := toCompletedJobDTO(*saved)
	resp.Message = MsgJobSubmitted
	resp.Job = &dto
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) trackerResponse(r *http.Request, day tracker.Date) (*TrackerResponse, error) {
	report, err := h.Weekly.Week(r.Context(), currentUser(r), day)
	if err != nil {
		return nil, err
	}
	types, err := h.Store.ListJobTypes(r.Context())
	if err != nil {
		return nil, err
	}
	return &TrackerResponse{
		Report:   toWeekReportDTO(report, h.today()),
		JobTypes: toJobTypeDTOs(types),
	}, nil
}

func (h *Handler) jobFromRequest(req SubmitJobRequest, userID tracker.UserID) (tracker.CompletedJob, error) {
	on, err := tracker.ParseDate(req.CompletedOn)
	if err != nil {
		return tracker.CompletedJob{}, &tracker.ValidationError{Field: "completed_on", Message: "date must be YYYY-MM-DD", Err: err}
	}
	return tracker.CompletedJob{
		UserID:      userID,
		JobType:     tracker.JobType{ID: tracker.JobTypeID(req.JobTypeID)},
		CompletedOn: on,
	}, nil
}

// ListJobTypes returns all job types.
// GET /api/job-types
func (h *Handler) ListJobTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.Store.ListJobTypes(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list job types", err)
		return
	}
	writeJSON(w, http.StatusOK, toJobTypeDTOs(types))
}

// =============================================================================
// JOB HISTORY HANDLERS
// =============================================================================

// ListJobHistory returns one page of the user's completed jobs.
// GET /api/history
func (h *Handler) ListJobHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := currentUser(r)

	page, ok := pageRequest(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid page", nil)
		return
	}
	total, err := h.Store.CountCompletedJobs(ctx, userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list jobs", err)
		return
	}
	off, ok := offset(page, total)
	if !ok {
		writeError(w, http.StatusNotFound, "Page not found", nil)
		return
	}
	jobs, err := h.Store.ListCompletedJobs(ctx, userID, PageSize, off)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list jobs", err)
		return
	}

	dtos := make([]CompletedJobDTO, len(jobs))
	for i, j := range jobs {
		dtos[i] = toCompletedJobDTO(j)
	}
	writeJSON(w, http.StatusOK, newPage(dtos, page, total))
}

// UpdateJob edits one of the user's completed jobs.
// PUT /api/history/{id}
func (h *Handler) UpdateJob(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req SubmitJobRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	job, err := h.jobFromRequest(req, currentUser(r))
	if err != nil {
		writeDomainError(w, "Error updating job", err)
		return
	}
	job.ID = tracker.CompletedJobID(id)
	saved, err := h.Store.UpdateCompletedJob(r.Context(), job)
	if err != nil {
		writeDomainError(w, "Error updating job", err)
		return
	}

	h.logger(r).WithField("job_id", saved.ID).Info("job updated")
	writeJSON(w, http.StatusOK, MutationResponse[CompletedJobDTO]{Message: MsgJobUpdated, Item: toCompletedJobDTO(*saved)})
}

// DeleteJob removes one of the user's completed jobs.
// DELETE /api/history/{id}
func (h *Handler) DeleteJob(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Store.DeleteCompletedJob(r.Context(), currentUser(r), tracker.CompletedJobID(id)); err != nil {
		writeDomainError(w, "Error deleting job", err)
		return
	}

	h.logger(r).WithField("job_id", id).Info("job deleted")
	writeJSON(w, http.StatusOK, MutationResponse[any]{Message: MsgJobDeleted})
}

// =============================================================================
// ABSENCE HANDLERS
// =============================================================================

// ListAbsences returns one page of the user's absences.
// GET /api/absences
func (h *Handler) ListAbsences(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := currentUser(r)

	page, ok := pageRequest(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid page", nil)
		return
	}
	total, err := h.Store.CountAbsences(ctx, userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list absences", err)
		return
	}
	off, ok := offset(page, total)
	if !ok {
		writeError(w, http.StatusNotFound, "Page not found", nil)
		return
	}
	absences, err := h.Store.ListAbsencePage(ctx, userID, PageSize, off)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list absences", err)
		return
	}

	dtos := make([]AbsenceDTO, len(absences))
	for i, a := range absences {
		dtos[i] = toAbsenceDTO(a)
	}
	writeJSON(w, http.StatusOK, newPage(dtos, page, total))
}

// CreateAbsence records hours away on a day.
// POST /api/absences
func (h *Handler) CreateAbsence(w http.ResponseWriter, r *http.Request) {
	var req AbsenceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	absence, err := absenceFromRequest(req, currentUser(r))
	if err != nil {
		writeDomainError(w, "Error submitting absence", err)
		return
	}
	saved, err := h.Store.AddAbsence(r.Context(), absence)
	if err != nil {
		writeDomainError(w, "Error submitting absence", err)
		return
	}

	h.logger(r).WithFields(logrus.Fields{
		"absence_id": saved.ID,
		"date":       saved.Date.String(),
		"hours":      saved.Duration.String(),
	}).Info("absence recorded")
	writeJSON(w, http.StatusCreated, MutationResponse[AbsenceDTO]{Message: MsgAbsenceSubmitted, Item: toAbsenceDTO(*saved)})
}

// UpdateAbsence edits one of the user's absences.
// PUT /api/absences/{id}
func (h *Handler) UpdateAbsence(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req AbsenceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	absence, err := absenceFromRequest(req, currentUser(r))
	if err != nil {
		writeDomainError(w, "Error updating absence", err)
		return
	}
	absence.ID = tracker.AbsenceID(id)
	saved, err := h.Store.UpdateAbsence(r.Context(), absence)
	if err != nil {
		writeDomainError(w, "Error updating absence", err)
		return
	}

	h.logger(r).WithField("absence_id", saved.ID).Info("absence updated")
	writeJSON(w, http.StatusOK, MutationResponse[AbsenceDTO]{Message: MsgAbsenceUpdated, Item: toAbsenceDTO(*saved)})
}

// DeleteAbsence removes one of the user's absences.
// DELETE /api/absences/{id}
func (h *Handler) DeleteAbsence(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Store.DeleteAbsence(r.Context(), currentUser(r), tracker.AbsenceID(id)); err != nil {
		writeDomainError(w, "Error deleting absence", err)
		return
	}

	h.logger(r).WithField("absence_id", id).Info("absence deleted")
	writeJSON(w, http.StatusOK, MutationResponse[any]{Message: MsgAbsenceDeleted})
}

func absenceFromRequest(req AbsenceRequest, userID tracker.UserID) (tracker.Absence, error) {
	on, err := tracker.ParseDate(req.Date)
	if err != nil {
		return tracker.Absence{}, &tracker.ValidationError{Field: "date", Message: "date must be YYYY-MM-DD", Err: err}
	}
	duration, err := requiredDecimal("duration", req.Duration)
	if err != nil {
		return tracker.Absence{}, err
	}
	return tracker.Absence{UserID: userID, Date: on, Duration: duration}, nil
}

// requiredDecimal unwraps a decimal field that must be present in the body.
func requiredDecimal(field string, d decimal.NullDecimal) (decimal.Decimal, error) {
	if !d.Valid {
		return decimal.Zero, &tracker.ValidationError{Field: field, Message: field + " is required"}
	}
	return d.Decimal, nil
}

// =============================================================================
// PROFILE HANDLERS
// =============================================================================

// GetProfile returns the user's profile target.
// GET /api/profile
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.Store.GetProfileTarget(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get profile", err)
		return
	}
	if p == nil {
		writeError(w, http.StatusInternalServerError, "Profile not configured", tracker.ErrProfileNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toProfileDTO(*p))
}

// UpdateProfile replaces the user's profile target.
// PUT /api/profile
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req ProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	dailyTarget, err := requiredDecimal("daily_target", req.DailyTarget)
	if err != nil {
		writeDomainError(w, "Error updating profile", err)
		return
	}
	dailyHours, err := requiredDecimal("daily_hours", req.DailyHours)
	if err != nil {
		writeDomainError(w, "Error updating profile", err)
		return
	}
	daysOff, err := tracker.DaySetFromStrings(req.DaysOff)
	if err != nil {
		writeDomainError(w, "Error updating profile", &tracker.ValidationError{Field: "days_off", Message: err.Error(), Err: err})
		return
	}
	p := tracker.ProfileTarget{
		UserID:      currentUser(r),
		DailyTarget: dailyTarget,
		DailyHours:  dailyHours,
		DaysOff:     daysOff,
	}
	if err := h.Store.SaveProfileTarget(r.Context(), p); err != nil {
		writeDomainError(w, "Error updating profile", err)
		return
	}

	h.logger(r).WithFields(logrus.Fields{
		"daily_target": p.DailyTarget.String(),
		"daily_hours":  p.DailyHours.String(),
		"days_off":     p.DaysOff.String(),
	}).Info("profile updated")
	writeJSON(w, http.StatusOK, MutationResponse[ProfileDTO]{Message: MsgProfileUpdated, Item: toProfileDTO(p)})
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// GetWeekHistory returns the History Aggregator output.
// GET /api/week-history
func (h *Handler) GetWeekHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.History.History(r.Context(), currentUser(r))
	if err != nil {
		h.writeAggregationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toHistoryDTO(history))
}

// GetAbout returns the about page entries.
// GET /api/about
func (h *Handler) GetAbout(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Store.ListAbout(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load about page", err)
		return
	}
	dtos := make([]AboutDTO, len(entries))
	for i, e := range entries {
		dtos[i] = AboutDTO{ID: int64(e.ID), Title: e.Title, Content: e.Content}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// Health reports whether the database answers.
// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Database unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) writeAggregationError(w http.ResponseWriter, r *http.Request, err error) {
	if tracker.IsConfigurationError(err) {
		h.logger(r).WithError(err).Error("user settings prevent aggregation")
		writeError(w, http.StatusInternalServerError, "Profile target is not configured correctly", err)
		return
	}
	if tracker.IsClientError(err) {
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return
	}
	h.logger(r).WithError(err).Error("aggregation failed")
	writeError(w, http.StatusInternalServerError, "Failed to build report", err)
}

// writeDomainError maps tracker errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, tracker.ErrForbidden):
		writeError(w, http.StatusForbidden, message, err)
	case errors.Is(err, tracker.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, message, err)
	case tracker.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, tracker.ErrUsernameTaken):
		writeError(w, http.StatusConflict, message, err)
	case tracker.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid id", err)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
