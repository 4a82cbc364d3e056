package cache

import (
	"fmt"
	"time"
)

// WatchedSubmission is a submission awaiting a final verdict.
type WatchedSubmission struct {
	SubmissionID string
	UserID       string
	ProblemCode  string
	ProblemTitle string
	LastChecked  time.Time
	CreatedAt    time.Time
}

// Watch starts tracking a submission. Watching it again is a no-op.
func (d *DB) Watch(ws WatchedSubmission) error {
	now := time.Now()
	if ws.CreatedAt.IsZero() {
		ws.CreatedAt = now
	}
	_, err := d.db.Exec(`INSERT OR IGNORE INTO watched_submissions
		(submission_id, user_id, problem_code, problem_title, last_checked, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		ws.SubmissionID, ws.UserID, ws.ProblemCode, ws.ProblemTitle,
		ws.LastChecked.Unix(), ws.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("watching submission %s: %w", ws.SubmissionID, err)
	}
	return nil
}

// Watched returns a user's watched submissions, least recently checked first.
func (d *DB) Watched(userID string, limit int) ([]WatchedSubmission, error) {
	rows, err := d.db.Query(`SELECT submission_id, user_id, problem_code, problem_title, last_checked, created_at
		FROM watched_submissions WHERE user_id = ?
		ORDER BY last_checked ASC, created_at ASC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []WatchedSubmission
	for rows.Next() {
		var ws WatchedSubmission
		var lastChecked, createdAt int64
		if err := rows.Scan(&ws.SubmissionID, &ws.UserID, &ws.ProblemCode, &ws.ProblemTitle, &lastChecked, &createdAt); err != nil {
			return nil, err
		}
		ws.LastChecked = time.Unix(lastChecked, 0)
		ws.CreatedAt = time.Unix(createdAt, 0)
		result = append(result, ws)
	}
	return result, rows.Err()
}

// MarkChecked records that a submission was polled at t.
func (d *DB) MarkChecked(submissionID string, t time.Time) error {
	_, err := d.db.Exec(`UPDATE watched_submissions SET last_checked = ? WHERE submission_id = ?`,
		t.Unix(), submissionID)
	return err
}

// Unwatch stops tracking a submission.
func (d *DB) Unwatch(submissionID string) error {
	_, err := d.db.Exec(`DELETE FROM watched_submissions WHERE submission_id = ?`, submissionID)
	return err
}

// WatchCount returns how many submissions a user is waiting on.
func (d *DB) WatchCount(userID string) int {
	var count int
	d.db.QueryRow(`SELECT COUNT(*) FROM watched_submissions WHERE user_id = ?`, userID).Scan(&count)
	return count
}
