package local_test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mistakebook/mistakebook/internal/apperrors"
	"github.com/mistakebook/mistakebook/internal/backends/local"
	"github.com/mistakebook/mistakebook/internal/models"
	"github.com/mistakebook/mistakebook/internal/repositories/database/sqlite"
)

func fixedClock() func() time.Time {
	return func() time.Time { return time.UnixMilli(1700000000000) }
}

func newTestBackend(t *testing.T) (*local.Backend, *sqlite.Store) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	store, err := sqlite.Open(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	backend := local.New(
		store.Questions, store.Sessions, store.Users, store.Images, store.MigrationState,
		local.WithClock(fixedClock()),
	)
	return backend, store
}

// payloadOfLength builds a data URI of exactly n characters.
func payloadOfLength(n int) string {
	const prefix = "data:image/png;base64,"
	return prefix + strings.Repeat("A", n-len(prefix))
}

func TestSaveAndHydrateRoundTrip(t *testing.T) {
	ctx := context.Background()
	backend, store := newTestBackend(t)

	bigMaterial := payloadOfLength(900)
	bigNote := payloadOfLength(700)
	noteText := fmt.Sprintf(`<p>见图</p><img src="%s" alt="草稿">`, payloadOfLength(800))

	q := models.Question{
		ID:        "q1",
		CreatedAt: 1000,
		Materials: []models.MaterialSlot{
			models.Inline(bigMaterial),
			models.Inline("small"),
		},
		Stem:          "下列说法正确的是？",
		Options:       []string{"A", "B", "C", "D"},
		CorrectAnswer: 2,
		Category:      models.Logic,
		NotesImage:    models.Inline(bigNote),
		NoteText:      noteText,
	}
	require.NoError(t, backend.SaveQuestion(ctx, "u1", q))

	// The stored document is light: oversized payloads moved out.
	stored, err := backend.GetQuestion(ctx, "u1", "q1")
	require.NoError(t, err)
	assert.True(t, stored.Materials[0].Deferred)
	assert.Equal(t, "small", stored.Materials[1].Data)
	assert.True(t, stored.NotesImage.Deferred)
	assert.NotContains(t, stored.NoteText, "data:image")

	hydrated, err := backend.HydrateQuestionImages(ctx, "u1", *stored)
	require.NoError(t, err)
	assert.Equal(t, bigMaterial, hydrated.Materials[0].Data)
	assert.False(t, hydrated.Materials[0].Deferred)
	assert.Equal(t, "small", hydrated.Materials[1].Data)
	assert.Equal(t, bigNote, hydrated.NotesImage.Data)
	assert.Equal(t, noteText, hydrated.NoteText)

	// Payloads landed under the question's key prefix.
	keys, err := store.Images.KeysWithPrefix(ctx, "q1_")
	require.NoError(t, err)
	assert.Len(t, keys, 3)
}

func TestSaveQuestionThresholdBoundary(t *testing.T) {
	ctx := context.Background()
	backend, _ := newTestBackend(t)

	q := models.Question{
		ID: "q1",
		Materials: []models.MaterialSlot{
			models.Inline(payloadOfLength(499)),
			models.Inline(payloadOfLength(500)),
		},
		Category: models.Quantity,
	}
	require.NoError(t, backend.SaveQuestion(ctx, "u1", q))

	stored, err := backend.GetQuestion(ctx, "u1", "q1")
	require.NoError(t, err)
	assert.False(t, stored.Materials[0].Deferred)
	assert.True(t, stored.Materials[1].Deferred)
}

func TestSoftDeleteRestore(t *testing.T) {
	ctx := context.Background()
	backend, _ := newTestBackend(t)

	require.NoError(t, backend.SaveQuestion(ctx, "u1", models.Question{ID: "q1", CreatedAt: 1}))
	require.NoError(t, backend.SaveQuestion(ctx, "u1", models.Question{ID: "q2", CreatedAt: 2}))

	require.NoError(t, backend.DeleteQuestion(ctx, "u1", "q1", false))

	visible, err := backend.GetQuestions(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, "q2", visible[0].ID)

	// Still retrievable directly, carrying its deletion stamp.
	q, err := backend.GetQuestion(ctx, "u1", "q1")
	require.NoError(t, err)
	require.NotNil(t, q.DeletedAt)
	assert.Equal(t, int64(1700000000000), *q.DeletedAt)

	require.NoError(t, backend.RestoreQuestion(ctx, "u1", "q1"))
	visible, err = backend.GetQuestions(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, visible, 2)

	// Deleting or restoring a missing question is a quiet no-op.
	assert.NoError(t, backend.DeleteQuestion(ctx, "u1", "missing", false))
	assert.NoError(t, backend.RestoreQuestion(ctx, "u1", "missing"))
}

func TestHardDeleteRemovesPayloads(t *testing.T) {
	ctx := context.Background()
	backend, store := newTestBackend(t)

	q := models.Question{
		ID:         "q1",
		Materials:  []models.MaterialSlot{models.Inline(payloadOfLength(600))},
		NotesImage: models.Inline(payloadOfLength(600)),
		NoteText:   fmt.Sprintf(`<img src="%s">`, payloadOfLength(600)),
	}
	require.NoError(t, backend.SaveQuestion(ctx, "u1", q))
	// A sibling whose id shares a textual prefix must survive.
	require.NoError(t, backend.SaveQuestion(ctx, "u1", models.Question{
		ID:        "q10",
		Materials: []models.MaterialSlot{models.Inline(payloadOfLength(600))},
	}))

	require.NoError(t, backend.DeleteQuestion(ctx, "u1", "q1", true))

	_, err := backend.GetQuestion(ctx, "u1", "q1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	keys, err := store.Images.KeysWithPrefix(ctx, "q1_")
	require.NoError(t, err)
	assert.Empty(t, keys)

	keys, err = store.Images.KeysWithPrefix(ctx, "q10_")
	require.NoError(t, err)
	assert.Len(t, keys, 1)
}

func TestSaveSessionCounters(t *testing.T) {
	ctx := context.Background()
	backend, _ := newTestBackend(t)

	require.NoError(t, backend.SaveQuestion(ctx, "u1", models.Question{ID: "q1"}))
	require.NoError(t, backend.SaveQuestion(ctx, "u1", models.Question{ID: "q2"}))

	session := models.PracticeSession{
		ID:          "s1",
		Date:        1700000000000,
		QuestionIDs: []string{"q1", "q2", "gone"},
		Score:       67,
		Details: []models.SessionDetail{
			{QuestionID: "q1", UserAnswer: 0, IsCorrect: true},
			{QuestionID: "q2", UserAnswer: 1, IsCorrect: false},
			{QuestionID: "gone", UserAnswer: 2, IsCorrect: true},
		},
	}
	require.NoError(t, backend.SaveSession(ctx, "u1", session, false))

	q1, err := backend.GetQuestion(ctx, "u1", "q1")
	require.NoError(t, err)
	assert.Equal(t, 1, q1.CorrectCount)
	assert.Equal(t, 0, q1.MistakeCount)
	assert.Equal(t, int64(1700000000000), q1.LastPracticedAt)

	q2, err := backend.GetQuestion(ctx, "u1", "q2")
	require.NoError(t, err)
	assert.Equal(t, 1, q2.MistakeCount)

	// Re-saving the same session id never double-counts.
	require.NoError(t, backend.SaveSession(ctx, "u1", session, false))
	q1, _ = backend.GetQuestion(ctx, "u1", "q1")
	assert.Equal(t, 1, q1.CorrectCount)

	// An explicit skip leaves counters alone even for a new id.
	session.ID = "s2"
	require.NoError(t, backend.SaveSession(ctx, "u1", session, true))
	q1, _ = backend.GetQuestion(ctx, "u1", "q1")
	assert.Equal(t, 1, q1.CorrectCount)

	sessions, err := backend.GetSessions(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}

func TestRegisterLogin(t *testing.T) {
	ctx := context.Background()
	backend, _ := newTestBackend(t)

	user, err := backend.Register(ctx, "alice", "secret", "小A")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.NotEqual(t, "secret", user.PasswordHash)
	assert.NotEmpty(t, user.Avatar)

	_, err = backend.Register(ctx, "alice", "other", "")
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)

	got, err := backend.Login(ctx, "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = backend.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	_, err = backend.Login(ctx, "nobody", "secret")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestImportLegacy(t *testing.T) {
	ctx := context.Background()
	backend, store := newTestBackend(t)

	legacy := map[string]any{
		"users": []models.User{{ID: "u1", Username: "alice", PasswordHash: "h", CreatedAt: 1}},
		"questions": map[string][]models.Question{
			"u1": {{
				ID:        "q1",
				CreatedAt: 1,
				Materials: []models.MaterialSlot{models.Inline(payloadOfLength(600))},
			}},
		},
		"sessions": map[string][]models.PracticeSession{
			"u1": {{ID: "s1", Date: 1}},
		},
	}
	raw, err := json.Marshal(legacy)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	require.NoError(t, backend.ImportLegacy(ctx, path))

	// Questions go through the regular save path, so payloads externalize.
	q, err := backend.GetQuestion(ctx, "u1", "q1")
	require.NoError(t, err)
	assert.True(t, q.Materials[0].Deferred)

	_, err = store.Users.GetByUsername(ctx, "alice")
	require.NoError(t, err)

	sessions, err := backend.GetSessions(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, sessions, 1)

	// The imported file is discarded and the import never reruns.
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
	require.NoError(t, backend.ImportLegacy(ctx, path))
}

func TestImportLegacyMissingFile(t *testing.T) {
	ctx := context.Background()
	backend, store := newTestBackend(t)

	require.NoError(t, backend.ImportLegacy(ctx, filepath.Join(t.TempDir(), "absent.json")))

	done, err := store.MigrationState.Completed(ctx, "legacy_store_import_v1")
	require.NoError(t, err)
	assert.True(t, done)
}
