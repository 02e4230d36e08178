package models

// ScoreState is a user's cumulative score with the derived level fields.
type ScoreState struct {
	UserID          int    `db:"user_id" json:"user_id"`
	TotalScore      int    `db:"total_score" json:"total_score"`
	Level           int    `json:"level"`
	Title           string `json:"title"`
	ProgressPercent int    `json:"progress_percent"`
}
