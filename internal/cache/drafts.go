package cache

import (
	"database/sql"
	"errors"
	"time"

	"github.com/fragmede/ojterm/internal/api"
)

// Draft is unsubmitted source code for a problem.
type Draft struct {
	ProblemID string
	Language  api.Language
	Code      string
	UpdatedAt time.Time
}

// SaveDraft stores the latest code typed for a problem.
func (d *DB) SaveDraft(dr Draft) error {
	_, err := d.db.Exec(`INSERT OR REPLACE INTO drafts (problem_id, language, code, updated_at) VALUES (?, ?, ?, ?)`,
		dr.ProblemID, string(dr.Language), dr.Code, time.Now().Unix())
	return err
}

// GetDraft returns the saved draft for a problem, or nil.
func (d *DB) GetDraft(problemID string) (*Draft, error) {
	var dr Draft
	var lang string
	var updated int64
	err := d.db.QueryRow(`SELECT problem_id, language, code, updated_at FROM drafts WHERE problem_id = ?`, problemID).
		Scan(&dr.ProblemID, &lang, &dr.Code, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	dr.Language = api.Language(lang)
	dr.UpdatedAt = time.Unix(updated, 0)
	return &dr, nil
}

// DeleteDraft drops the draft once it has been submitted.
func (d *DB) DeleteDraft(problemID string) error {
	_, err := d.db.Exec(`DELETE FROM drafts WHERE problem_id = ?`, problemID)
	return err
}
