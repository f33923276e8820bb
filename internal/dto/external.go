package dto

// ChatMessage is one prior turn of an extension chat thread, replayed
// verbatim to the AI collaborator.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ExternalAnalyzeRequest is a question captured by the browser extension,
// sent for AI analysis. Materials may be data URIs, bare base64 or http
// URLs.
type ExternalAnalyzeRequest struct {
	Stem          string   `json:"stem" binding:"required"`
	Options       []string `json:"options" binding:"required"`
	MaterialText  string   `json:"materialText"`
	Materials     []string `json:"materials"`
	UserAnswer    *int     `json:"userAnswer"`
	CorrectAnswer *int     `json:"correctAnswer"`
}

// ExternalChatRequest is a free-form follow-up about a captured question.
type ExternalChatRequest struct {
	Stem       string        `json:"stem" binding:"required"`
	Options    []string      `json:"options"`
	History    []ChatMessage `json:"history"`
	NewMessage string        `json:"newMessage" binding:"required"`
}
