package services_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mistakebook/mistakebook/internal/apperrors"
	portsrepo "github.com/mistakebook/mistakebook/internal/core/ports/repositories"
	"github.com/mistakebook/mistakebook/internal/core/services"
	"github.com/mistakebook/mistakebook/internal/models"
)

type MockQuestionRepo struct{ mock.Mock }

func (m *MockQuestionRepo) UpsertQuestion(ctx context.Context, userID string, q models.Question, images []portsrepo.QuestionImage) error {
	args := m.Called(ctx, userID, q, images)
	return args.Error(0)
}

func (m *MockQuestionRepo) FindQuestionsByUser(ctx context.Context, userID string) ([]models.Question, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Question), args.Error(1)
}

func (m *MockQuestionRepo) FindQuestionByID(ctx context.Context, questionID string) (*models.Question, error) {
	args := m.Called(ctx, questionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Question), args.Error(1)
}

func (m *MockQuestionRepo) SaveQuestionDoc(ctx context.Context, q models.Question) error {
	args := m.Called(ctx, q)
	return args.Error(0)
}

func (m *MockQuestionRepo) FindQuestionImages(ctx context.Context, questionID string) ([]portsrepo.QuestionImage, error) {
	args := m.Called(ctx, questionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]portsrepo.QuestionImage), args.Error(1)
}

func (m *MockQuestionRepo) DeleteQuestionHard(ctx context.Context, userID, questionID string) error {
	args := m.Called(ctx, userID, questionID)
	return args.Error(0)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestServerSaveQuestionExternalizes(t *testing.T) {
	repo := new(MockQuestionRepo)
	svc := services.NewQuestionService(repo, discardLogger())

	big := "data:image/png;base64," + strings.Repeat("C", 600)
	var gotDoc models.Question
	var gotImages []portsrepo.QuestionImage
	repo.On("UpsertQuestion", mock.Anything, "u1", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			gotDoc = args.Get(2).(models.Question)
			gotImages = args.Get(3).([]portsrepo.QuestionImage)
		}).Return(nil)

	q := models.Question{
		ID:        "q1",
		CreatedAt: 1000,
		Materials: []models.MaterialSlot{
			models.Inline("small"),
			models.Inline(big),
		},
		NotesImage: models.Inline(big),
		Category:   models.Logic,
	}
	require.NoError(t, svc.SaveQuestion(context.Background(), "u1", q))

	assert.Equal(t, "small", gotDoc.Materials[0].Data)
	assert.True(t, gotDoc.Materials[1].Deferred)
	assert.True(t, gotDoc.NotesImage.Deferred)
	assert.ElementsMatch(t, []portsrepo.QuestionImage{
		{FieldKey: "material_1", Data: big},
		{FieldKey: "notesImage", Data: big},
	}, gotImages)
}

func TestServerSaveQuestionKeepsExistingRows(t *testing.T) {
	repo := new(MockQuestionRepo)
	svc := services.NewQuestionService(repo, discardLogger())

	// A light document re-posted with deferred slots keeps its stored rows.
	repo.On("FindQuestionImages", mock.Anything, "q1").Return([]portsrepo.QuestionImage{
		{FieldKey: "material_0", Data: "stored-payload"},
	}, nil)

	var gotImages []portsrepo.QuestionImage
	repo.On("UpsertQuestion", mock.Anything, "u1", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			gotImages = args.Get(3).([]portsrepo.QuestionImage)
		}).Return(nil)

	q := models.Question{
		ID:        "q1",
		CreatedAt: 1000,
		Materials: []models.MaterialSlot{models.Deferred()},
	}
	require.NoError(t, svc.SaveQuestion(context.Background(), "u1", q))

	assert.Equal(t, []portsrepo.QuestionImage{
		{FieldKey: "material_0", Data: "stored-payload"},
	}, gotImages)
}

func TestServerSaveQuestionValidation(t *testing.T) {
	svc := services.NewQuestionService(new(MockQuestionRepo), discardLogger())

	err := svc.SaveQuestion(context.Background(), "u1", models.Question{})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	err = svc.SaveQuestion(context.Background(), "u1", models.Question{ID: "q1", Category: "nonsense"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestServerSaveQuestionDropsUnknownSubCategory(t *testing.T) {
	repo := new(MockQuestionRepo)
	svc := services.NewQuestionService(repo, discardLogger())

	var gotDoc models.Question
	repo.On("UpsertQuestion", mock.Anything, "u1", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { gotDoc = args.Get(2).(models.Question) }).Return(nil)

	q := models.Question{ID: "q1", CreatedAt: 1, Category: models.Logic, SubCategory: "自创子类"}
	require.NoError(t, svc.SaveQuestion(context.Background(), "u1", q))
	assert.Empty(t, gotDoc.SubCategory)

	q.SubCategory = "图形推理"
	require.NoError(t, svc.SaveQuestion(context.Background(), "u1", q))
	assert.Equal(t, "图形推理", gotDoc.SubCategory)
}

func TestServerGetQuestionImagesPadsGaps(t *testing.T) {
	repo := new(MockQuestionRepo)
	svc := services.NewQuestionService(repo, discardLogger())

	repo.On("FindQuestionImages", mock.Anything, "q1").Return([]portsrepo.QuestionImage{
		{FieldKey: "material_2", Data: "c"},
		{FieldKey: "notesImage", Data: "n"},
		{FieldKey: "material_0", Data: "a"},
	}, nil)

	images, err := svc.GetQuestionImages(context.Background(), "u1", "q1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "", "c"}, images.Materials)
	assert.Equal(t, "n", images.NotesImage)
}

func TestServerSoftDeleteMissingQuestion(t *testing.T) {
	repo := new(MockQuestionRepo)
	svc := services.NewQuestionService(repo, discardLogger())

	repo.On("FindQuestionByID", mock.Anything, "gone").Return(nil, apperrors.ErrNotFound)

	assert.NoError(t, svc.DeleteQuestion(context.Background(), "u1", "gone", false))
	repo.AssertNotCalled(t, "SaveQuestionDoc", mock.Anything, mock.Anything)
}

func TestServerSoftDeleteStampsDocument(t *testing.T) {
	repo := new(MockQuestionRepo)
	svc := services.NewQuestionService(repo, discardLogger())

	repo.On("FindQuestionByID", mock.Anything, "q1").Return(&models.Question{ID: "q1"}, nil)
	var saved models.Question
	repo.On("SaveQuestionDoc", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { saved = args.Get(1).(models.Question) }).Return(nil)

	require.NoError(t, svc.DeleteQuestion(context.Background(), "u1", "q1", false))
	require.NotNil(t, saved.DeletedAt)
}
