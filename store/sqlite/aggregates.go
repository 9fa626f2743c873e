package sqlite

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/job-tracker/tracker"
)

// =============================================================================
// AGGREGATION QUERIES (tracker.RecordStore interface)
// =============================================================================

// weekStartSQL maps a "YYYY-MM-DD" column to the Monday of its week.
// strftime('%w') numbers Sunday as 0.
func weekStartSQL(col string) string {
	return fmt.Sprintf(
		"date(%[1]s, '-' || ((CAST(strftime('%%w', %[1]s) AS INTEGER) + 6) %% 7) || ' days')", col)
}

// SumCreditsByDay sums job credits per completion day for the given days.
func (s *Store) SumCreditsByDay(ctx context.Context, userID tracker.UserID, days []tracker.Date) (map[tracker.Date]decimal.Decimal, error) {
	result := make(map[tracker.Date]decimal.Decimal)
	if len(days) == 0 {
		return result, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	args := make([]any, 0, len(days)+1)
	args = append(args, userID)
	for _, d := range days {
		args = append(args, formatDate(d))
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT cj.completed_on, jt.credits
		FROM completed_jobs cj
		JOIN job_types jt ON jt.id = cj.job_type_id
		WHERE cj.user_id = ? AND cj.completed_on IN (`+placeholders(len(days))+`)
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to sum credits by day: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var day, credits string
		if err := rows.Scan(&day, &credits); err != nil {
			return nil, err
		}
		d, err := parseDate(day)
		if err != nil {
			return nil, err
		}
		c, err := parseDecimal("credits", credits)
		if err != nil {
			return nil, err
		}
		result[d] = result[d].Add(c)
	}
	return result, rows.Err()
}

// ListAbsences returns absences dated within [from, to].
func (s *Store) ListAbsences(ctx context.Context, userID tracker.UserID, from, to tracker.Date) ([]tracker.Absence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, date, duration FROM absences
		WHERE user_id = ? AND date >= ? AND date <= ?
		ORDER BY date ASC, id ASC
	`, userID, formatDate(from), formatDate(to))
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

// SumCreditsByWeek sums job credits per Monday week start, most recent first.
func (s *Store) SumCreditsByWeek(ctx context.Context, userID tracker.UserID) ([]tracker.WeekTotal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+weekStartSQL("cj.completed_on")+` AS week_start, jt.credits
		FROM completed_jobs cj
		JOIN job_types jt ON jt.id = cj.job_type_id
		WHERE cj.user_id = ?
		ORDER BY week_start DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum credits by week: %w", err)
	}
	defer rows.Close()

	var result []tracker.WeekTotal
	for rows.Next() {
		var weekStart, credits string
		if err := rows.Scan(&weekStart, &credits); err != nil {
			return nil, err
		}
		start, err := parseDate(weekStart)
		if err != nil {
			return nil, err
		}
		c, err := parseDecimal("credits", credits)
		if err != nil {
			return nil, err
		}
		// Rows arrive grouped by week.
		if n := len(result); n > 0 && result[n-1].WeekStart.Equal(start) {
			result[n-1].Credits = result[n-1].Credits.Add(c)
			continue
		}
		result = append(result, tracker.WeekTotal{WeekStart: start, Credits: c})
	}
	return result, rows.Err()
}

// SumAbsenceByWeek sums absence hours per Monday week start.
func (s *Store) SumAbsenceByWeek(ctx context.Context, userID tracker.UserID) (map[tracker.Date]decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+weekStartSQL("date")+` AS week_start, duration
		FROM absences
		WHERE user_id = ?
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum absences by week: %w", err)
	}
	defer rows.Close()

	result := make(map[tracker.Date]decimal.Decimal)
	for rows.Next() {
		var weekStart, duration string
		if err := rows.Scan(&weekStart, &duration); err != nil {
			return nil, err
		}
		start, err := parseDate(weekStart)
		if err != nil {
			return nil, err
		}
		d, err := parseDecimal("duration", duration)
		if err != nil {
			return nil, err
		}
		result[start] = result[start].Add(d)
	}
	return result, rows.Err()
}

// ListCompletedJobNames returns completions within [from, to], most recent
// week first, then day ascending, then insertion order.
func (s *Store) ListCompletedJobNames(ctx context.Context, userID tracker.UserID, from, to *tracker.Date) ([]tracker.JobCompletion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT cj.id, cj.completed_on, jt.name
		FROM completed_jobs cj
		JOIN job_types jt ON jt.id = cj.job_type_id
		WHERE cj.user_id = ?`
	args := []any{userID}
	if from != nil {
		query += ` AND cj.completed_on >= ?`
		args = append(args, formatDate(*from))
	}
	if to != nil {
		query += ` AND cj.completed_on <= ?`
		args = append(args, formatDate(*to))
	}
	query += `
		ORDER BY ` + weekStartSQL("cj.completed_on") + ` DESC, cj.completed_on ASC, cj.id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed job names: %w", err)
	}
	defer rows.Close()

	var result []tracker.JobCompletion
	for rows.Next() {
		var c tracker.JobCompletion
		var day string
		if err := rows.Scan(&c.ID, &day, &c.JobName); err != nil {
			return nil, err
		}
		if c.Date, err = parseDate(day); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}
