/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupling the
  tracker types from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

NUMBERS:
  Credits, hours and targets are rendered as fixed two decimal strings
  ("4.25") so clients never see float rounding. Requests accept either a
  JSON number or a string.

SEE ALSO:
  - handlers.go: Uses these types
  - pagination.go: Page wrapper
*/
package api

import (
	"github.com/shopspring/decimal"
	"github.com/warp/job-tracker/tracker"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SubmitJobRequest creates or edits a completed job.
type SubmitJobRequest struct {
	JobTypeID   int64  `json:"job_type_id"`
	CompletedOn string `json:"completed_on"`
}

// AbsenceRequest creates or edits an absence.
type AbsenceRequest struct {
	Date     string              `json:"date"`
	Duration decimal.NullDecimal `json:"duration"`
}

// ProfileRequest replaces the profile target.
type ProfileRequest struct {
	DailyTarget decimal.NullDecimal `json:"daily_target"`
	DailyHours  decimal.NullDecimal `json:"daily_hours"`
	DaysOff     []string            `json:"days_off"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
	UserID    int64  `json:"user_id"`
	Username  string `json:"username"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// MutationResponse carries the notice shown after a change and the changed item.
type MutationResponse[T any] struct {
	Message string `json:"message"`
	Item    T      `json:"item,omitempty"`
}

type JobTypeDTO struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Credits string `json:"credits"`
}

type CompletedJobDTO struct {
	ID          int64      `json:"id"`
	JobType     JobTypeDTO `json:"job_type"`
	CompletedOn string     `json:"completed_on"`
	Label       string     `json:"label"`
}

type AbsenceDTO struct {
	ID       int64  `json:"id"`
	Date     string `json:"date"`
	Label    string `json:"label"`
	Duration string `json:"duration"`
}

type ProfileDTO struct {
	DailyTarget string   `json:"daily_target"`
	DailyHours  string   `json:"daily_hours"`
	DaysOff     []string `json:"days_off"`
}

// DaySummaryDTO is one row of the tracker table.
type DaySummaryDTO struct {
	Date       string `json:"date"`
	Label      string `json:"label"`
	Weekday    string `json:"weekday"`
	Target     string `json:"target"`
	Credits    string `json:"credits"`
	Absence    string `json:"absence"`
	Difference string `json:"difference"`
}

type WeekReportDTO struct {
	WeekStart    string          `json:"week_start"`
	WeekEnd      string          `json:"week_end"`
	Days         []DaySummaryDTO `json:"days"`
	TotalTarget  string          `json:"total_target"`
	TotalCredits string          `json:"total_credits"`
	Difference   string          `json:"difference"`

	// Navigation: pass either date back as ?date= to move one week.
	PreviousWeek string `json:"previous_week"`
	NextWeek     string `json:"next_week"`
	CurrentWeek  bool   `json:"current_week"`
}

// TrackerResponse is the tracker page: the week plus the job types to pick from.
type TrackerResponse struct {
	Message  string           `json:"message,omitempty"`
	Job      *CompletedJobDTO `json:"job,omitempty"`
	Report   WeekReportDTO    `json:"report"`
	JobTypes []JobTypeDTO     `json:"job_types"`
}

type DayJobsDTO struct {
	Weekday string   `json:"weekday"`
	Jobs    []string `json:"jobs"`
}

type WeekSummaryDTO struct {
	WeekStart     string       `json:"week_start"`
	WeekEnd       string       `json:"week_end"`
	TotalCredits  string       `json:"total_credits"`
	TotalAbsence  string       `json:"total_absence"`
	Target        string       `json:"target"`
	Update        string       `json:"update"`
	AheadOfTarget bool         `json:"ahead_of_target"`
	RosteredDays  []string     `json:"rostered_days"`
	JobsByDay     []DayJobsDTO `json:"jobs_by_day"`
}

type HistoryDTO struct {
	Weeks         []WeekSummaryDTO `json:"weeks"`
	JobsByWeekday []DayJobsDTO     `json:"jobs_by_weekday"`
	Balance       string           `json:"balance"`
}

type AboutDTO struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func fixed(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func toJobTypeDTO(jt tracker.JobType) JobTypeDTO {
	return JobTypeDTO{ID: int64(jt.ID), Name: jt.Name, Credits: fixed(jt.Credits)}
}

func toJobTypeDTOs(types []tracker.JobType) []JobTypeDTO {
	dtos := make([]JobTypeDTO, len(types))
	for i, jt := range types {
		dtos[i] = toJobTypeDTO(jt)
	}
	return dtos
}

func toCompletedJobDTO(job tracker.CompletedJob) CompletedJobDTO {
	return CompletedJobDTO{
		ID:          int64(job.ID),
		JobType:     toJobTypeDTO(job.JobType),
		CompletedOn: job.CompletedOn.String(),
		Label:       job.CompletedOn.Label(),
	}
}

func toAbsenceDTO(a tracker.Absence) AbsenceDTO {
	return AbsenceDTO{
		ID:       int64(a.ID),
		Date:     a.Date.String(),
		Label:    a.Date.Label(),
		Duration: fixed(a.Duration),
	}
}

func toProfileDTO(p tracker.ProfileTarget) ProfileDTO {
	return ProfileDTO{
		DailyTarget: fixed(p.DailyTarget),
		DailyHours:  fixed(p.DailyHours),
		DaysOff:     p.DaysOff.Abbrevs(),
	}
}

func toWeekReportDTO(report *tracker.WeekReport, today tracker.Date) WeekReportDTO {
	days := make([]DaySummaryDTO, len(report.Days))
	for i, d := range report.Days {
		days[i] = DaySummaryDTO{
			Date:       d.Date.String(),
			Label:      d.Date.Label(),
			Weekday:    d.Weekday().Name(),
			Target:     fixed(d.Target),
			Credits:    fixed(d.Credits),
			Absence:    fixed(d.Absence),
			Difference: fixed(d.Difference()),
		}
	}
	return WeekReportDTO{
		WeekStart:    report.Week.Start.String(),
		WeekEnd:      report.Week.End.String(),
		Days:         days,
		TotalTarget:  fixed(report.TotalTarget()),
		TotalCredits: fixed(report.TotalCredits()),
		Difference:   fixed(report.Difference()),
		PreviousWeek: report.Week.Previous().Start.String(),
		NextWeek:     report.Week.Next().Start.String(),
		CurrentWeek:  report.Week.Contains(today),
	}
}

func toDayJobsDTOs(dayJobs []tracker.DayJobs) []DayJobsDTO {
	dtos := make([]DayJobsDTO, len(dayJobs))
	for i, dj := range dayJobs {
		dtos[i] = DayJobsDTO{Weekday: dj.Weekday.Name(), Jobs: dj.Jobs}
	}
	return dtos
}

func toHistoryDTO(h *tracker.History) HistoryDTO {
	weeks := make([]WeekSummaryDTO, len(h.Weeks))
	for i, w := range h.Weeks {
		rostered := make([]string, len(w.RosteredDays))
		for j, d := range w.RosteredDays {
			rostered[j] = d.String()
		}
		weeks[i] = WeekSummaryDTO{
			WeekStart:     w.Week.Start.String(),
			WeekEnd:       w.Week.End.String(),
			TotalCredits:  fixed(w.TotalCredits),
			TotalAbsence:  fixed(w.TotalAbsence),
			Target:        fixed(w.Target),
			Update:        fixed(w.Update),
			AheadOfTarget: w.AheadOfTarget(),
			RosteredDays:  rostered,
			JobsByDay:     toDayJobsDTOs(w.JobsByDay),
		}
	}
	return HistoryDTO{
		Weeks:         weeks,
		JobsByWeekday: toDayJobsDTOs(h.JobsByWeekday),
		Balance:       fixed(h.Balance()),
	}
}
