package dto

// QuestionImagesResponse carries the resolved payloads of one question:
// materials by their original index and the legacy notes image.
// Unresolved indices stay empty strings.
type QuestionImagesResponse struct {
	Materials  []string `json:"materials"`
	NotesImage string   `json:"notesImage"`
}
