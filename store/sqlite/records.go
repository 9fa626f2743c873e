package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/job-tracker/tracker"
)

// =============================================================================
// JOB TYPES (reference data)
// =============================================================================

// UpsertJobType creates a job type or updates the credits of an existing
// one with the same name.
func (s *Store) UpsertJobType(ctx context.Context, name string, credits decimal.Decimal) (tracker.JobType, error) {
	jt := tracker.JobType{Name: name, Credits: credits}
	if err := jt.Validate(); err != nil {
		return jt, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO job_types (name, credits) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET credits = excluded.credits
		RETURNING id
	`, name, credits.StringFixed(2)).Scan(&jt.ID)
	if err != nil {
		return jt, fmt.Errorf("failed to save job type %q: %w", name, err)
	}
	return jt, nil
}

// GetJobType returns nil if the job type doesn't exist.
func (s *Store) GetJobType(ctx context.Context, id tracker.JobTypeID) (*tracker.JobType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var jt tracker.JobType
	var credits string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, credits FROM job_types WHERE id = ?`, id,
	).Scan(&jt.ID, &jt.Name, &credits)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job type: %w", err)
	}
	if jt.Credits, err = parseDecimal("credits", credits); err != nil {
		return nil, err
	}
	return &jt, nil
}

// ListJobTypes returns all job types ordered by name.
func (s *Store) ListJobTypes(ctx context.Context) ([]tracker.JobType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id, name, credits FROM job_types ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list job types: %w", err)
	}
	defer rows.Close()

	var result []tracker.JobType
	for rows.Next() {
		var jt tracker.JobType
		var credits string
		if err := rows.Scan(&jt.ID, &jt.Name, &credits); err != nil {
			return nil, err
		}
		if jt.Credits, err = parseDecimal("credits", credits); err != nil {
			return nil, err
		}
		result = append(result, jt)
	}
	return result, rows.Err()
}

// =============================================================================
// COMPLETED JOBS
// =============================================================================

const completedJobColumns = `
	cj.id, cj.user_id, cj.completed_on, jt.id, jt.name, jt.credits
	FROM completed_jobs cj
	JOIN job_types jt ON jt.id = cj.job_type_id
`

// AddCompletedJob records a completion and returns it with its ID and
// job type filled in.
func (s *Store) AddCompletedJob(ctx context.Context, job tracker.CompletedJob) (*tracker.CompletedJob, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireJobType(ctx, job.JobType.ID); err != nil {
		return nil, err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO completed_jobs (user_id, job_type_id, completed_on) VALUES (?, ?, ?)`,
		job.UserID, job.JobType.ID, formatDate(job.CompletedOn),
	)
	if err != nil {
		if isForeignKeyError(err) {
			return nil, fmt.Errorf("user %d: %w", job.UserID, tracker.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to add completed job: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read completed job id: %w", err)
	}
	return s.getCompletedJob(ctx, tracker.CompletedJobID(id))
}

// GetCompletedJob returns the user's completion, ErrNotFound if it doesn't
// exist, or ErrForbidden if it belongs to someone else.
func (s *Store) GetCompletedJob(ctx context.Context, userID tracker.UserID, id tracker.CompletedJobID) (*tracker.CompletedJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.checkOwner(ctx, "completed_jobs", int64(id), userID); err != nil {
		return nil, err
	}
	return s.getCompletedJob(ctx, id)
}

// UpdateCompletedJob changes the job type and day of a user's completion.
func (s *Store) UpdateCompletedJob(ctx context.Context, job tracker.CompletedJob) (*tracker.CompletedJob, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOwner(ctx, "completed_jobs", int64(job.ID), job.UserID); err != nil {
		return nil, err
	}
	if err := s.requireJobType(ctx, job.JobType.ID); err != nil {
		return nil, err
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE completed_jobs SET job_type_id = ?, completed_on = ? WHERE id = ?`,
		job.JobType.ID, formatDate(job.CompletedOn), job.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update completed job: %w", err)
	}
	return s.getCompletedJob(ctx, job.ID)
}

// DeleteCompletedJob removes a user's completion.
func (s *Store) DeleteCompletedJob(ctx context.Context, userID tracker.UserID, id tracker.CompletedJobID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOwner(ctx, "completed_jobs", int64(id), userID); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM completed_jobs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete completed job: %w", err)
	}
	return rowsAffected(res)
}

// ListCompletedJobs returns one page of the user's completions, most recent first.
func (s *Store) ListCompletedJobs(ctx context.Context, userID tracker.UserID, limit, offset int) ([]tracker.CompletedJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT`+completedJobColumns+`
		WHERE cj.user_id = ?
		ORDER BY cj.completed_on DESC, cj.id DESC
		LIMIT ? OFFSET ?
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed jobs: %w", err)
	}
	defer rows.Close()

	var result []tracker.CompletedJob
	for rows.Next() {
		job, err := scanCompletedJob(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, job)
	}
	return result, rows.Err()
}

// CountCompletedJobs returns how many completions the user has.
func (s *Store) CountCompletedJobs(ctx context.Context, userID tracker.UserID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.count(ctx, "completed_jobs", userID)
}

func (s *Store) getCompletedJob(ctx context.Context, id tracker.CompletedJobID) (*tracker.CompletedJob, error) {
	row := s.db.QueryRowContext(ctx, `SELECT`+completedJobColumns+`WHERE cj.id = ?`, id)
	job, err := scanCompletedJob(row)
	if err == sql.ErrNoRows {
		return nil, tracker.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCompletedJob(row scanner) (tracker.CompletedJob, error) {
	var job tracker.CompletedJob
	var completedOn, credits string
	if err := row.Scan(&job.ID, &job.UserID, &completedOn, &job.JobType.ID, &job.JobType.Name, &credits); err != nil {
		return job, err
	}
	var err error
	if job.CompletedOn, err = parseDate(completedOn); err != nil {
		return job, err
	}
	if job.JobType.Credits, err = parseDecimal("credits", credits); err != nil {
		return job, err
	}
	return job, nil
}

// =============================================================================
// ABSENCES
// =============================================================================

// AddAbsence records hours away on a day.
func (s *Store) AddAbsence(ctx context.Context, a tracker.Absence) (*tracker.Absence, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO absences (user_id, date, duration) VALUES (?, ?, ?)`,
		a.UserID, formatDate(a.Date), a.Duration.StringFixed(2),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to add absence: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read absence id: %w", err)
	}
	a.ID = tracker.AbsenceID(id)
	return &a, nil
}

// GetAbsence returns the user's absence, ErrNotFound if it doesn't exist,
// or ErrForbidden if it belongs to someone else.
func (s *Store) GetAbsence(ctx context.Context, userID tracker.UserID, id tracker.AbsenceID) (*tracker.Absence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.checkOwner(ctx, "absences", int64(id), userID); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx, `SELECT id, user_id, date, duration FROM absences WHERE id = ?`, id)
	a, err := scanAbsence(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get absence: %w", err)
	}
	return &a, nil
}

// UpdateAbsence changes the day and duration of a user's absence.
func (s *Store) UpdateAbsence(ctx context.Context, a tracker.Absence) (*tracker.Absence, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOwner(ctx, "absences", int64(a.ID), a.UserID); err != nil {
		return nil, err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE absences SET date = ?, duration = ? WHERE id = ?`,
		formatDate(a.Date), a.Duration.StringFixed(2), a.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update absence: %w", err)
	}
	if err := rowsAffected(res); err != nil {
		return nil, err
	}
	return &a, nil
}

// DeleteAbsence removes a user's absence.
func (s *Store) DeleteAbsence(ctx context.Context, userID tracker.UserID, id tracker.AbsenceID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOwner(ctx, "absences", int64(id), userID); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM absences WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete absence: %w", err)
	}
	return rowsAffected(res)
}

// ListAbsencePage returns one page of the user's absences, most recent first.
func (s *Store) ListAbsencePage(ctx context.Context, userID tracker.UserID, limit, offset int) ([]tracker.Absence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, date, duration FROM absences
		WHERE user_id = ?
		ORDER BY date DESC, id DESC
		LIMIT ? OFFSET ?
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list absences: %w", err)
	}
	defer rows.Close()

	var result []tracker.Absence
	for rows.Next() {
		a, err := scanAbsence(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

// CountAbsences returns how many absences the user has.
func (s *Store) CountAbsences(ctx context.Context, userID tracker.UserID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.count(ctx, "absences", userID)
}

func scanAbsence(row scanner) (tracker.Absence, error) {
	var a tracker.Absence
	var date, duration string
	if err := row.Scan(&a.ID, &a.UserID, &date, &duration); err != nil {
		return a, err
	}
	var err error
	if a.Date, err = parseDate(date); err != nil {
		return a, err
	}
	if a.Duration, err = parseDecimal("duration", duration); err != nil {
		return a, err
	}
	return a, nil
}

// =============================================================================
// ABOUT
// =============================================================================

// SaveAbout creates an entry, or replaces it when ID is set.
func (s *Store) SaveAbout(ctx context.Context, e tracker.AboutEntry) (tracker.AboutEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == 0 {
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO about_entries (title, content) VALUES (?, ?)`, e.Title, e.Content)
		if err != nil {
			return e, fmt.Errorf("failed to save about entry: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return e, err
		}
		e.ID = tracker.AboutID(id)
		return e, nil
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE about_entries SET title = ?, content = ? WHERE id = ?`, e.Title, e.Content, e.ID)
	if err != nil {
		return e, fmt.Errorf("failed to save about entry: %w", err)
	}
	return e, rowsAffected(res)
}

// ListAbout returns the about page entries in insertion order.
func (s *Store) ListAbout(ctx context.Context) ([]tracker.AboutEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id, title, content FROM about_entries ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list about entries: %w", err)
	}
	defer rows.Close()

	var result []tracker.AboutEntry
	for rows.Next() {
		var e tracker.AboutEntry
		if err := rows.Scan(&e.ID, &e.Title, &e.Content); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// =============================================================================
// OWNERSHIP
// =============================================================================

// checkOwner fails with ErrNotFound for a missing row and ErrForbidden for
// a row owned by another user. table is always a constant.
func (s *Store) checkOwner(ctx context.Context, table string, id int64, userID tracker.UserID) error {
	var owner tracker.UserID
	err := s.db.QueryRowContext(ctx, `SELECT user_id FROM `+table+` WHERE id = ?`, id).Scan(&owner)
	if err == sql.ErrNoRows {
		return tracker.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to look up %s %d: %w", table, id, err)
	}
	if owner != userID {
		return tracker.ErrForbidden
	}
	return nil
}

func (s *Store) requireJobType(ctx context.Context, id tracker.JobTypeID) error {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM job_types WHERE id = ?`, id).Scan(&exists)
	if err == sql.ErrNoRows {
		return fmt.Errorf("job type %d: %w", id, tracker.ErrJobTypeNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to look up job type %d: %w", id, err)
	}
	return nil
}

func (s *Store) count(ctx context.Context, table string, userID tracker.UserID) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table+` WHERE user_id = ?`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}
