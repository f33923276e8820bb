package local

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mistakebook/mistakebook/internal/models"
)

// legacyImportKey is the migration-state record for the one-time import of
// the legacy flat-file store.
const legacyImportKey = "legacy_store_import_v1"

// legacyStore is the flat JSON format of the pre-sqlite store: every
// collection in one file, payloads still inline.
type legacyStore struct {
	Users     []models.User                       `json:"users"`
	Questions map[string][]models.Question        `json:"questions"`
	Sessions  map[string][]models.PracticeSession `json:"sessions"`
}

// ImportLegacy migrates a legacy flat-file store into the sqlite store,
// re-saving every question through the current save path so payloads are
// externalized on the way in. Completion is recorded in the store itself
// and the legacy file is discarded, so later startups skip the whole check.
// An absent or unparsable file is skipped silently but still recorded as
// done; an unparsable file is kept on disk.
func (b *Backend) ImportLegacy(ctx context.Context, path string) error {
	done, err := b.state.Completed(ctx, legacyImportKey)
	if err != nil {
		return err
	}
	if done {
		return nil
	}
	if path == "" {
		return b.state.MarkCompleted(ctx, legacyImportKey)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return b.state.MarkCompleted(ctx, legacyImportKey)
		}
		return fmt.Errorf("failed to read legacy store %s: %w", path, err)
	}

	var legacy legacyStore
	if err := json.Unmarshal(raw, &legacy); err != nil {
		b.logger.Warn("legacy store is unparsable, skipping import", "path", path, "error", err)
		return b.state.MarkCompleted(ctx, legacyImportKey)
	}

	b.logger.Info("importing legacy store", "path", path)
	for _, u := range legacy.Users {
		if err := b.users.Put(ctx, u.ID, "", u); err != nil {
			return fmt.Errorf("failed to import legacy user %s: %w", u.ID, err)
		}
	}
	for userID, questions := range legacy.Questions {
		for _, q := range questions {
			if err := b.SaveQuestion(ctx, userID, q); err != nil {
				return fmt.Errorf("failed to import legacy question %s: %w", q.ID, err)
			}
		}
	}
	for userID, sessions := range legacy.Sessions {
		for _, s := range sessions {
			if err := b.sessions.Put(ctx, s.ID, userID, s); err != nil {
				return fmt.Errorf("failed to import legacy session %s: %w", s.ID, err)
			}
		}
	}

	if err := b.state.MarkCompleted(ctx, legacyImportKey); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		b.logger.Warn("failed to remove imported legacy store", "path", path, "error", err)
	}
	return nil
}
