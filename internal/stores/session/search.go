package session

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/traceline/traceline/pkg/document"
	"github.com/traceline/traceline/pkg/sdk"
)

// DefaultSessionIDFields are the field names checked when none are configured
var DefaultSessionIDFields = []string{"sessionId", "session_id"}

// DefaultFallbackScanLimit caps how many documents per collection the
// fallback scan may examine, bounding worst-case latency per request
const DefaultFallbackScanLimit = 1000

// Options configures how the repository locates session documents
type Options struct {
	// SessionIDFields are the candidate field names a session identifier may
	// be stored under, checked in order
	SessionIDFields []string

	// Collections restricts the lookup to an ordered collection list; empty
	// means every non-system collection of the database
	Collections []string

	// FallbackScanEnabled turns on the bounded brute-force scan used when no
	// direct field match is found
	FallbackScanEnabled bool

	// FallbackScanLimit is the per-collection document cap of the fallback scan
	FallbackScanLimit int
}

// Repository locates the documents belonging to a session across collections
type Repository struct {
	db   Database
	opts Options
}

// NewRepository creates a session document repository over db
func NewRepository(db Database, opts Options) *Repository {
	if len(opts.SessionIDFields) == 0 {
		opts.SessionIDFields = DefaultSessionIDFields
	}
	if opts.FallbackScanLimit <= 0 {
		opts.FallbackScanLimit = DefaultFallbackScanLimit
	}
	return &Repository{db: db, opts: opts}
}

// LookupResult carries the matched documents grouped by collection, in the
// configured collection order, plus the diagnostic of the search that found them
type LookupResult struct {
	Groups     []document.CollectionDocuments
	Diagnostic sdk.SearchDiagnostic
}

// NotFoundError signals that a session identifier matched nothing anywhere;
// it carries the full diagnostic of everything that was attempted
type NotFoundError struct {
	SessionID  string
	Diagnostic sdk.SearchDiagnostic
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("session %q not found in any checked collection", e.SessionID)
}

// FetchSessionDocuments searches every target collection for documents
// belonging to sessionID. For each collection the configured fields are tried
// in order against every representational form of the identifier; the first
// field yielding documents wins for that collection. When no direct match
// exists anywhere and the fallback scan is enabled, up to the configured
// limit of documents per collection is tested for the identifier appearing
// anywhere in the payload. A single pass, no retries.
func (r *Repository) FetchSessionDocuments(ctx context.Context, sessionID string) (*LookupResult, error) {
	collections, err := r.resolveCollections(ctx)
	if err != nil {
		return nil, err
	}

	candidates := CandidatesFor(sessionID)
	described := make([]string, len(candidates))
	for i, candidate := range candidates {
		described[i] = candidate.Describe()
	}

	diagnostic := sdk.SearchDiagnostic{
		FieldsChecked:      append([]string(nil), r.opts.SessionIDFields...),
		CollectionsChecked: collections,
		CandidateValues:    described,
		MatchedCollections: []string{},
		FallbackScan: sdk.FallbackScanInfo{
			Enabled: r.opts.FallbackScanEnabled,
			Limit:   r.opts.FallbackScanLimit,
		},
	}

	var groups []document.CollectionDocuments
	for _, collection := range collections {
		for _, field := range r.opts.SessionIDFields {
			raws, err := r.db.Find(ctx, collection, fieldFilter(field, candidates))
			if err != nil {
				return nil, fmt.Errorf("session lookup in %s.%s: %w", collection, field, err)
			}
			if len(raws) == 0 {
				continue
			}
			groups = append(groups, document.CollectionDocuments{
				Collection: collection,
				Documents:  toDocuments(collection, raws),
			})
			diagnostic.MatchedCollections = append(diagnostic.MatchedCollections, collection)
			break
		}
	}

	if len(groups) == 0 && r.opts.FallbackScanEnabled {
		groups, err = r.fallbackScan(ctx, sessionID, collections, &diagnostic)
		if err != nil {
			return nil, err
		}
	}

	if len(groups) == 0 {
		return nil, &NotFoundError{SessionID: sessionID, Diagnostic: diagnostic}
	}
	return &LookupResult{Groups: groups, Diagnostic: diagnostic}, nil
}

// fallbackScan brute-forces each collection, keeping documents that contain
// the identifier anywhere in their payload
func (r *Repository) fallbackScan(ctx context.Context, sessionID string, collections []string, diagnostic *sdk.SearchDiagnostic) ([]document.CollectionDocuments, error) {
	diagnostic.FallbackScan.Ran = true

	var groups []document.CollectionDocuments
	for _, collection := range collections {
		raws, err := r.db.Scan(ctx, collection, int64(r.opts.FallbackScanLimit))
		if err != nil {
			return nil, fmt.Errorf("fallback scan of %s: %w", collection, err)
		}
		diagnostic.FallbackScan.DocumentsScanned += len(raws)

		var matched []document.Document
		for _, raw := range raws {
			doc := toDocument(collection, raw)
			if doc.Body.Contains(sessionID) {
				matched = append(matched, doc)
			}
		}
		if len(matched) > 0 {
			groups = append(groups, document.CollectionDocuments{Collection: collection, Documents: matched})
			diagnostic.MatchedCollections = append(diagnostic.MatchedCollections, collection)
		}
	}
	return groups, nil
}

// resolveCollections returns the configured collection list, or every
// non-system collection of the database when none is configured
func (r *Repository) resolveCollections(ctx context.Context) ([]string, error) {
	if len(r.opts.Collections) > 0 {
		return append([]string(nil), r.opts.Collections...), nil
	}
	names, err := r.db.CollectionNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving target collections: %w", err)
	}
	return names, nil
}

// fieldFilter matches field against every representational form of the identifier
func fieldFilter(field string, candidates []Candidate) bson.M {
	values := make(bson.A, len(candidates))
	for i, candidate := range candidates {
		values[i] = candidate.Value
	}
	return bson.M{field: bson.M{"$in": values}}
}

func toDocuments(collection string, raws []bson.M) []document.Document {
	docs := make([]document.Document, len(raws))
	for i, raw := range raws {
		docs[i] = toDocument(collection, raw)
	}
	return docs
}

// toDocument converts a decoded record, dropping the storage-internal _id
func toDocument(collection string, raw bson.M) document.Document {
	clean := make(bson.M, len(raw))
	for key, value := range raw {
		if key == "_id" {
			continue
		}
		clean[key] = value
	}
	return document.NewDocument(collection, document.FromBSON(clean))
}
