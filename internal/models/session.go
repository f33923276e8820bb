package models

// SessionDetail records the outcome of one question within a practice run.
type SessionDetail struct {
	QuestionID string `json:"questionId"`
	// UserAnswer is the picked option index, or AnswerUnanswered.
	UserAnswer int  `json:"userAnswer"`
	IsCorrect  bool `json:"isCorrect"`
	// Duration in seconds spent on this question.
	Duration int `json:"duration"`
}

// PracticeSession is one completed practice run. Immutable after creation
// except for deletion.
type PracticeSession struct {
	ID   string `json:"id"`
	Date int64  `json:"date"`
	// QuestionIDs is ordered and may reference since-deleted questions.
	QuestionIDs   []string        `json:"questionIds"`
	Score         int             `json:"score"`
	TotalDuration int             `json:"totalDuration"`
	Details       []SessionDetail `json:"details"`
}
