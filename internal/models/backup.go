package models

// BackupVersion is written into every exported backup file.
const BackupVersion = 1

// Backup is the free-form export/import format. Import is a merge (upsert
// by id), never a replace.
type Backup struct {
	Version    int               `json:"version"`
	ExportedAt int64             `json:"exportedAt"`
	User       *User             `json:"user,omitempty"`
	Questions  []Question        `json:"questions"`
	Sessions   []PracticeSession `json:"sessions,omitempty"`
}
