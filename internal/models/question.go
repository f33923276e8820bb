package models

import (
	"encoding/json"
	"fmt"
)

// Sentinel strings used on the wire and in persisted documents for payloads
// that live in the image store. ImageRef is what we write; LegacyImageRef is
// accepted on read for documents saved by older versions.
const (
	ImageRef       = "__IMAGE_REF__"
	LegacyImageRef = "__IDB_REF__"
)

// MaterialSlot is one element of a question's materials array: either an
// inline payload or a deferred reference to the image store. The JSON form
// stays compatible with the sentinel-string convention of stored documents.
type MaterialSlot struct {
	Data     string
	Deferred bool
}

// Inline returns a slot carrying its payload in place.
func Inline(data string) MaterialSlot {
	return MaterialSlot{Data: data}
}

// Deferred returns a slot whose payload lives in the image store under the
// owning question's derived key.
func Deferred() MaterialSlot {
	return MaterialSlot{Deferred: true}
}

func (m MaterialSlot) MarshalJSON() ([]byte, error) {
	if m.Deferred {
		return json.Marshal(ImageRef)
	}
	return json.Marshal(m.Data)
}

func (m *MaterialSlot) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("material slot must be a string: %w", err)
	}
	if s == ImageRef || s == LegacyImageRef {
		*m = MaterialSlot{Deferred: true}
		return nil
	}
	*m = MaterialSlot{Data: s}
	return nil
}

// AnswerUnanswered marks a practice detail where no option was picked.
const AnswerUnanswered = -1

// Question is the central document of the mistake book. Persisted documents
// are "light": oversized payloads are moved to the image store and their
// slots marked deferred.
type Question struct {
	ID        string `json:"id"`
	CreatedAt int64  `json:"createdAt"`
	// DeletedAt set marks the question soft-deleted; it stays retrievable
	// until hard-deleted.
	DeletedAt *int64 `json:"deletedAt,omitempty"`

	Materials    []MaterialSlot `json:"materials"`
	MaterialText string         `json:"materialText,omitempty"`
	Stem         string         `json:"stem"`
	Options      []string       `json:"options"`
	// CorrectAnswer is the option index, 0-3.
	CorrectAnswer int `json:"correctAnswer"`
	UserAnswer    *int `json:"userAnswer,omitempty"`
	// Accuracy is the site-wide correct rate, 0-100.
	Accuracy    int      `json:"accuracy"`
	Category    Category `json:"category"`
	SubCategory string   `json:"subCategory,omitempty"`
	Tags        []string `json:"tags,omitempty"`

	// NotesImage is the legacy single-image note field, superseded by
	// NoteText but still read.
	NotesImage MaterialSlot `json:"notesImage,omitempty"`
	// NoteText and Analysis are rich HTML; embedded images are
	// externalized into the image store under field tags "rte" and
	// "analysis" respectively.
	NoteText string `json:"noteText,omitempty"`
	Analysis string `json:"analysis,omitempty"`

	MistakeCount    int   `json:"mistakeCount"`
	CorrectCount    int   `json:"correctCount,omitempty"`
	IsMastered      bool  `json:"isMastered,omitempty"`
	LastPracticedAt int64 `json:"lastPracticedAt,omitempty"`
}

// IsDeleted reports whether the question is soft-deleted.
func (q *Question) IsDeleted() bool {
	return q.DeletedAt != nil
}

// HasDeferredImages reports whether any materials slot or the notes image
// still points into the image store.
func (q *Question) HasDeferredImages() bool {
	if q.NotesImage.Deferred {
		return true
	}
	for _, m := range q.Materials {
		if m.Deferred {
			return true
		}
	}
	return false
}
