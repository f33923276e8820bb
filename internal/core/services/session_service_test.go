package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mistakebook/mistakebook/internal/apperrors"
	"github.com/mistakebook/mistakebook/internal/core/services"
	"github.com/mistakebook/mistakebook/internal/models"
)

type MockSessionRepo struct{ mock.Mock }

func (m *MockSessionRepo) InsertSession(ctx context.Context, userID string, s models.PracticeSession) (bool, error) {
	args := m.Called(ctx, userID, s)
	return args.Bool(0), args.Error(1)
}

func (m *MockSessionRepo) FindSessionsByUser(ctx context.Context, userID string) ([]models.PracticeSession, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PracticeSession), args.Error(1)
}

func (m *MockSessionRepo) DeleteSession(ctx context.Context, userID, sessionID string) error {
	args := m.Called(ctx, userID, sessionID)
	return args.Error(0)
}

func TestServerSaveSessionCounters(t *testing.T) {
	sessions := new(MockSessionRepo)
	questions := new(MockQuestionRepo)
	svc := services.NewSessionService(sessions, questions, discardLogger())

	ps := models.PracticeSession{
		ID: "s1",
		Details: []models.SessionDetail{
			{QuestionID: "q1", IsCorrect: true},
			{QuestionID: "q2", IsCorrect: false},
			{QuestionID: "gone", IsCorrect: true},
		},
	}
	sessions.On("InsertSession", mock.Anything, "u1", ps).Return(true, nil)
	questions.On("FindQuestionByID", mock.Anything, "q1").Return(&models.Question{ID: "q1"}, nil)
	questions.On("FindQuestionByID", mock.Anything, "q2").Return(&models.Question{ID: "q2", MistakeCount: 1}, nil)
	// Questions deleted since the run are skipped, not failed.
	questions.On("FindQuestionByID", mock.Anything, "gone").Return(nil, apperrors.ErrNotFound)

	saved := make(map[string]models.Question)
	questions.On("SaveQuestionDoc", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			q := args.Get(1).(models.Question)
			saved[q.ID] = q
		}).Return(nil)

	require.NoError(t, svc.SaveSession(context.Background(), "u1", ps))

	require.Len(t, saved, 2)
	assert.Equal(t, 1, saved["q1"].CorrectCount)
	assert.NotZero(t, saved["q1"].LastPracticedAt)
	assert.Equal(t, 2, saved["q2"].MistakeCount)
}

func TestServerSaveSessionDuplicateSkipsCounters(t *testing.T) {
	sessions := new(MockSessionRepo)
	questions := new(MockQuestionRepo)
	svc := services.NewSessionService(sessions, questions, discardLogger())

	ps := models.PracticeSession{
		ID:      "s1",
		Details: []models.SessionDetail{{QuestionID: "q1", IsCorrect: true}},
	}
	sessions.On("InsertSession", mock.Anything, "u1", ps).Return(false, nil)

	require.NoError(t, svc.SaveSession(context.Background(), "u1", ps))
	questions.AssertNotCalled(t, "FindQuestionByID", mock.Anything, mock.Anything)
}

func TestServerSaveSessionRequiresID(t *testing.T) {
	svc := services.NewSessionService(new(MockSessionRepo), new(MockQuestionRepo), discardLogger())
	err := svc.SaveSession(context.Background(), "u1", models.PracticeSession{})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
