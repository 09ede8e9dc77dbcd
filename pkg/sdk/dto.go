package sdk

/** Requests */

// SessionChatRequest represents the request body for asking a question about a session
type SessionChatRequest struct {
	Question string `json:"question" binding:"required"`

	// Optional identifier that lets clients continue a multi-turn conversation
	ConversationID string `json:"conversation_id"`
}

/** Responses */

// SessionDocument is the human-readable form of one record associated with a session
type SessionDocument struct {
	Source     string `json:"source"`                // Collection or logical source name
	BatchIndex *int64 `json:"batch_index,omitempty"` // Sequence position when the record carries one
	Content    string `json:"content"`               // Rendered representation of the record
}

// ChatMessage is a single turn in a session conversation
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SessionSummaryResponse represents the response body for a session summary
type SessionSummaryResponse struct {
	SessionID     string            `json:"session_id"`
	Summary       string            `json:"summary"`
	UsedDocuments []SessionDocument `json:"used_documents"`
}

// SessionChatResponse represents the response body for a session question
type SessionChatResponse struct {
	SessionID      string            `json:"session_id"`
	Answer         string            `json:"answer"`
	ConversationID string            `json:"conversation_id"`
	History        []ChatMessage     `json:"history"`
	UsedDocuments  []SessionDocument `json:"used_documents"`
}

/** Diagnostics */

// FallbackScanInfo records how the fallback scan was configured and whether it ran
type FallbackScanInfo struct {
	Enabled          bool `json:"enabled"`
	Limit            int  `json:"limit"`
	Ran              bool `json:"ran"`
	DocumentsScanned int  `json:"documents_scanned"`
}

// SearchDiagnostic describes every field and collection examined during a
// session lookup. It is returned verbatim in the 404 body when no document
// matched, so callers can see exactly what was attempted.
type SearchDiagnostic struct {
	FieldsChecked      []string         `json:"fields_checked"`
	CollectionsChecked []string         `json:"collections_checked"`
	CandidateValues    []string         `json:"candidate_values"`
	MatchedCollections []string         `json:"matched_collections"`
	FallbackScan       FallbackScanInfo `json:"fallback_scan"`
}
