// Package store provides RecordStore implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/warp/job-tracker/tracker"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	profiles map[tracker.UserID]tracker.ProfileTarget
	jobTypes map[tracker.JobTypeID]tracker.JobType
	jobs     map[tracker.UserID][]tracker.CompletedJob
	absences map[tracker.UserID][]tracker.Absence
	nextID   int64
}

func NewMemory() *Memory {
	return &Memory{
		profiles: make(map[tracker.UserID]tracker.ProfileTarget),
		jobTypes: make(map[tracker.JobTypeID]tracker.JobType),
		jobs:     make(map[tracker.UserID][]tracker.CompletedJob),
		absences: make(map[tracker.UserID][]tracker.Absence),
	}
}

func (m *Memory) id() int64 {
	m.nextID++
	return m.nextID
}

// SaveProfileTarget creates or replaces a user's settings.
func (m *Memory) SaveProfileTarget(_ context.Context, p tracker.ProfileTarget) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.UserID] = p
	return nil
}

// AddJobType registers a job type and returns it with its ID set.
func (m *Memory) AddJobType(_ context.Context, name string, credits decimal.Decimal) tracker.JobType {
	m.mu.Lock()
	defer m.mu.Unlock()
	jt := tracker.JobType{ID: tracker.JobTypeID(m.id()), Name: name, Credits: credits}
	m.jobTypes[jt.ID] = jt
	return jt
}

// AddCompletedJob records a completion, keeping each user's rows sorted by day.
func (m *Memory) AddCompletedJob(_ context.Context, userID tracker.UserID, jobTypeID tracker.JobTypeID, on tracker.Date) (tracker.CompletedJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	jt, ok := m.jobTypes[jobTypeID]
	if !ok {
		return tracker.CompletedJob{}, tracker.ErrJobTypeNotFound
	}
	job := tracker.CompletedJob{
		ID:          tracker.CompletedJobID(m.id()),
		UserID:      userID,
		JobType:     jt,
		CompletedOn: on,
	}

	rows := m.jobs[userID]
	// Insert after any existing rows for the same day to keep insertion order.
	i := sort.Search(len(rows), func(i int) bool {
		return rows[i].CompletedOn.After(on)
	})
	rows = append(rows, tracker.CompletedJob{})
	copy(rows[i+1:], rows[i:])
	rows[i] = job
	m.jobs[userID] = rows
	return job, nil
}

// AddAbsence records an absence.
func (m *Memory) AddAbsence(_ context.Context, userID tracker.UserID, on tracker.Date, hours decimal.Decimal) tracker.Absence {
	m.mu.Lock()
	defer m.mu.Unlock()
	abs := tracker.Absence{ID: tracker.AbsenceID(m.id()), UserID: userID, Date: on, Duration: hours}
	m.absences[userID] = append(m.absences[userID], abs)
	return abs
}

// =============================================================================
// tracker.RecordStore
// =============================================================================

func (m *Memory) GetProfileTarget(_ context.Context, userID tracker.UserID) (*tracker.ProfileTarget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *Memory) SumCreditsByDay(_ context.Context, userID tracker.UserID, days []tracker.Date) (map[tracker.Date]decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	wanted := make(map[tracker.Date]bool, len(days))
	for _, d := range days {
		wanted[d] = true
	}
	result := make(map[tracker.Date]decimal.Decimal)
	for _, job := range m.jobs[userID] {
		if wanted[job.CompletedOn] {
			result[job.CompletedOn] = result[job.CompletedOn].Add(job.JobType.Credits)
		}
	}
	return result, nil
}

func (m *Memory) ListAbsences(_ context.Context, userID tracker.UserID, from, to tracker.Date) ([]tracker.Absence, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []tracker.Absence
	for _, abs := range m.absences[userID] {
		if from.BeforeOrEqual(abs.Date) && abs.Date.BeforeOrEqual(to) {
			result = append(result, abs)
		}
	}
	return result, nil
}

func (m *Memory) SumCreditsByWeek(_ context.Context, userID tracker.UserID) ([]tracker.WeekTotal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sums := make(map[tracker.Date]decimal.Decimal)
	for _, job := range m.jobs[userID] {
		start := job.CompletedOn.StartOfWeek()
		sums[start] = sums[start].Add(job.JobType.Credits)
	}
	result := make([]tracker.WeekTotal, 0, len(sums))
	for start, credits := range sums {
		result = append(result, tracker.WeekTotal{WeekStart: start, Credits: credits})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].WeekStart.After(result[j].WeekStart)
	})
	return result, nil
}

func (m *Memory) SumAbsenceByWeek(_ context.Context, userID tracker.UserID) (map[tracker.Date]decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sums := make(map[tracker.Date]decimal.Decimal)
	for _, abs := range m.absences[userID] {
		start := abs.Date.StartOfWeek()
		sums[start] = sums[start].Add(abs.Duration)
	}
	return sums, nil
}

func (m *Memory) ListCompletedJobNames(_ context.Context, userID tracker.UserID, from, to *tracker.Date) ([]tracker.JobCompletion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []tracker.JobCompletion
	for _, job := range m.jobs[userID] {
		if from != nil && job.CompletedOn.Before(*from) {
			continue
		}
		if to != nil && job.CompletedOn.After(*to) {
			continue
		}
		result = append(result, tracker.JobCompletion{ID: job.ID, Date: job.CompletedOn, JobName: job.JobType.Name})
	}
	// Rows are day ascending; regroup by week, most recent week first.
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Date.StartOfWeek().After(result[j].Date.StartOfWeek())
	})
	return result, nil
}

var _ tracker.RecordStore = (*Memory)(nil)
