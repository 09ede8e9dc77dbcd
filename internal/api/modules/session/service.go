package session_module

import (
	"context"
	"errors"
	"fmt"
	"time"

	session_store "github.com/traceline/traceline/internal/stores/session"
	"github.com/traceline/traceline/pkg/conversation"
	"github.com/traceline/traceline/pkg/document"
	"github.com/traceline/traceline/pkg/llm"
	"github.com/traceline/traceline/pkg/sdk"
	"github.com/traceline/traceline/pkg/utils"
)

const (
	DefaultPreviewCount    = 5
	DefaultPreviewChars    = 400
	DefaultMaxContextChars = 12000

	initTimeout = 10 * time.Second
)

// SessionRepository is the locator view the service depends on
type SessionRepository interface {
	FetchSessionDocuments(ctx context.Context, sessionID string) (*session_store.LookupResult, error)
}

// ServiceOptions tunes how timelines are condensed before prompting
type ServiceOptions struct {
	// EventsPath is the nested path of the event array inside each document
	EventsPath []string

	// PreviewCount is the number of leading event entries kept when an array
	// is condensed
	PreviewCount int

	// PreviewChars caps the rendered length of each kept entry
	PreviewChars int

	// MaxContextChars bounds the total rendered content handed to the LLM
	MaxContextChars int
}

// SessionService assembles session timelines and delegates summarization and
// Q&A to the LLM collaborator
type SessionService struct {
	repository    SessionRepository
	llm           llm.Client
	conversations *conversation.Store
	opts          ServiceOptions
}

var sessionService *SessionService

// Init wires the session service from configuration: Mongo connection,
// locator, LLM client, and conversation store
func Init(cfg *utils.Config) error {
	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()

	db, err := session_store.NewMongoDatabase(ctx,
		cfg.GetWithDefault("MONGO_URI", "mongodb://localhost:27017"),
		cfg.GetWithDefault("MONGO_DB", "sessions"),
	)
	if err != nil {
		return err
	}

	collections := cfg.GetList("SESSION_COLLECTIONS")
	if path := cfg.Get("COLLECTIONS_CONFIG_PATH"); path != "" {
		if collections, err = session_store.LoadCollectionsConfig(path); err != nil {
			return err
		}
	}

	repository := session_store.NewRepository(db, session_store.Options{
		SessionIDFields:     cfg.GetListWithDefault("SESSION_ID_FIELDS", session_store.DefaultSessionIDFields),
		Collections:         collections,
		FallbackScanEnabled: cfg.GetBoolWithDefault("FALLBACK_SCAN_ENABLED", true),
		FallbackScanLimit:   cfg.GetIntWithDefault("FALLBACK_SCAN_LIMIT", session_store.DefaultFallbackScanLimit),
	})

	client, err := llm.NewOpenAIClient(cfg.Get("OPENAI_API_KEY"), cfg.GetWithDefault("OPENAI_MODEL", llm.DefaultModel))
	if err != nil {
		return err
	}

	sessionService = NewService(repository, client, conversation.NewStore(), ServiceOptions{
		PreviewCount:    cfg.GetIntWithDefault("EVENT_PREVIEW_COUNT", DefaultPreviewCount),
		PreviewChars:    cfg.GetIntWithDefault("EVENT_PREVIEW_CHARS", DefaultPreviewChars),
		MaxContextChars: cfg.GetIntWithDefault("CONTEXT_MAX_CHARS", DefaultMaxContextChars),
	})
	return nil
}

// GetService returns the wired session service
func GetService() *SessionService {
	return sessionService
}

// NewService creates a session service with explicit collaborators
func NewService(repository SessionRepository, client llm.Client, conversations *conversation.Store, opts ServiceOptions) *SessionService {
	if len(opts.EventsPath) == 0 {
		opts.EventsPath = document.DefaultEventsPath
	}
	if opts.PreviewCount <= 0 {
		opts.PreviewCount = DefaultPreviewCount
	}
	if opts.PreviewChars <= 0 {
		opts.PreviewChars = DefaultPreviewChars
	}
	if opts.MaxContextChars <= 0 {
		opts.MaxContextChars = DefaultMaxContextChars
	}
	return &SessionService{
		repository:    repository,
		llm:           client,
		conversations: conversations,
		opts:          opts,
	}
}

// UpstreamError marks a database or LLM provider failure. Details are logged
// server-side; callers only see a generic message.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream failure during %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Summarize builds the condensed timeline for a session and asks the LLM for
// a summary
func (s *SessionService) Summarize(ctx context.Context, sessionID string) (*sdk.SessionSummaryResponse, error) {
	documents, _, err := s.loadDocuments(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	summary, err := s.llm.Summarize(ctx, sessionID, documents)
	if err != nil {
		return nil, &UpstreamError{Op: "summarize", Err: err}
	}

	return &sdk.SessionSummaryResponse{
		SessionID:     sessionID,
		Summary:       summary,
		UsedDocuments: documents,
	}, nil
}

// Chat answers a free-text question about a session, threading prior turns of
// the conversation through the prompt
func (s *SessionService) Chat(ctx context.Context, sessionID, question, conversationID string) (*sdk.SessionChatResponse, error) {
	documents, lookup, err := s.loadDocuments(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var history []sdk.ChatMessage
	if conversationID == "" {
		conversationID = s.conversations.GenerateID()
	} else {
		history = s.conversations.Get(conversationID)
	}

	answer, err := s.llm.Answer(ctx, sessionID, question, documents, history)
	if err != nil {
		return nil, &UpstreamError{Op: "answer", Err: err}
	}

	s.conversations.Append(conversationID, "user", question)
	s.conversations.Append(conversationID, "assistant", answer)

	// Keep the latest lookup outcome around for debugging
	s.conversations.SetMetadata(conversationID, map[string]any{
		"collections_checked": lookup.Diagnostic.CollectionsChecked,
		"matched_collections": lookup.Diagnostic.MatchedCollections,
	})

	return &sdk.SessionChatResponse{
		SessionID:      sessionID,
		Answer:         answer,
		ConversationID: conversationID,
		History:        s.conversations.Get(conversationID),
		UsedDocuments:  documents,
	}, nil
}

// loadDocuments runs the locate, assemble, condense, and clip stages of the
// pipeline, yielding the rendered documents handed to the LLM
func (s *SessionService) loadDocuments(ctx context.Context, sessionID string) ([]sdk.SessionDocument, *session_store.LookupResult, error) {
	lookup, err := s.repository.FetchSessionDocuments(ctx, sessionID)
	if err != nil {
		var notFound *session_store.NotFoundError
		if errors.As(err, &notFound) {
			return nil, nil, err
		}
		return nil, nil, &UpstreamError{Op: "lookup", Err: err}
	}

	timeline := document.Assemble(lookup.Groups)
	rendered := make([]sdk.SessionDocument, len(timeline))
	for i, doc := range timeline {
		condensed := document.CondenseEvents(doc, s.opts.EventsPath, s.opts.PreviewCount, s.opts.PreviewChars)
		rendered[i] = sdk.SessionDocument{
			Source:     condensed.Collection,
			BatchIndex: condensed.BatchIndex,
			Content:    condensed.Body.Render(),
		}
	}

	return clipDocuments(rendered, s.opts.MaxContextChars), lookup, nil
}

// clipDocuments bounds the total content length across documents, preserving
// their order. The document that crosses the budget is cut to the remainder;
// everything after it is dropped.
func clipDocuments(documents []sdk.SessionDocument, maxChars int) []sdk.SessionDocument {
	var clipped []sdk.SessionDocument
	total := 0
	for _, doc := range documents {
		content := doc.Content
		if total+len(content) > maxChars {
			remaining := maxChars - total
			if remaining <= 0 {
				break
			}
			content = content[:remaining]
		}
		doc.Content = content
		clipped = append(clipped, doc)
		total += len(content)
		if total >= maxChars {
			break
		}
	}
	return clipped
}
