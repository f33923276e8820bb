package dto

import "github.com/mistakebook/mistakebook/internal/models"

// Stats is the aggregate over all non-deleted questions and all sessions
// of one user. Temporal buckets use day boundaries normalized to UTC+8.
type Stats struct {
	Total              int                     `json:"total"`
	MasteredCount      int                     `json:"masteredCount"`
	TodayMistakes      int                     `json:"todayMistakes"`
	YesterdayMistakes  int                     `json:"yesterdayMistakes"`
	WeekMistakes       int                     `json:"weekMistakes"`
	MonthMistakes      int                     `json:"monthMistakes"`
	TodayPracticeCount int                     `json:"todayPracticeCount"`
	ByCategory         map[models.Category]int `json:"byCategory"`
}
