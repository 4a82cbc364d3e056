package cache

import (
	"time"

	"github.com/fragmede/ojterm/internal/api"
)

// Notification records a verdict that arrived for a watched submission.
type Notification struct {
	ID           int64
	SubmissionID string
	UserID       string
	ProblemCode  string
	ProblemTitle string
	Verdict      api.Verdict
	TimeUsedMs   int
	MemoryUsedKb int
	CreatedAt    time.Time
	Read         bool
}

// AddNotification stores a verdict notification. A second notification for
// the same submission is ignored.
func (d *DB) AddNotification(n Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	_, err := d.db.Exec(`INSERT OR IGNORE INTO notifications
		(submission_id, user_id, problem_code, problem_title, verdict, time_used_ms, memory_used_kb, created_at, read)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0)`,
		n.SubmissionID, n.UserID, n.ProblemCode, n.ProblemTitle, string(n.Verdict),
		n.TimeUsedMs, n.MemoryUsedKb, n.CreatedAt.Unix())
	return err
}

// Notifications returns a user's notifications, newest first.
func (d *DB) Notifications(userID string, limit int) ([]Notification, error) {
	rows, err := d.db.Query(`SELECT id, submission_id, user_id, problem_code, problem_title, verdict,
		time_used_ms, memory_used_kb, created_at, read
		FROM notifications WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Notification
	for rows.Next() {
		var n Notification
		var verdict string
		var createdAt int64
		var read int
		if err := rows.Scan(&n.ID, &n.SubmissionID, &n.UserID, &n.ProblemCode, &n.ProblemTitle, &verdict,
			&n.TimeUsedMs, &n.MemoryUsedKb, &createdAt, &read); err != nil {
			return nil, err
		}
		n.Verdict = api.Verdict(verdict)
		n.CreatedAt = time.Unix(createdAt, 0)
		n.Read = read != 0
		result = append(result, n)
	}
	return result, rows.Err()
}

// UnreadNotificationCount returns the count of a user's unread notifications.
func (d *DB) UnreadNotificationCount(userID string) int {
	var count int
	d.db.QueryRow(`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND read = 0`, userID).Scan(&count)
	return count
}

// MarkNotificationRead marks one notification as read.
func (d *DB) MarkNotificationRead(id int64) error {
	_, err := d.db.Exec(`UPDATE notifications SET read = 1 WHERE id = ?`, id)
	return err
}

// MarkAllNotificationsRead marks every notification of a user as read.
func (d *DB) MarkAllNotificationsRead(userID string) error {
	_, err := d.db.Exec(`UPDATE notifications SET read = 1 WHERE user_id = ?`, userID)
	return err
}
