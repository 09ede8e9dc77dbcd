package session

import (
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CandidateKind enumerates the stored representations a session identifier
// is compared against
type CandidateKind int

const (
	CandidateString CandidateKind = iota
	CandidateObjectID
	CandidateUUIDText
	CandidateUUIDBinary
	CandidateUUIDLegacyBinary
)

func (k CandidateKind) String() string {
	switch k {
	case CandidateString:
		return "string"
	case CandidateObjectID:
		return "objectId"
	case CandidateUUIDText:
		return "uuidText"
	case CandidateUUIDBinary:
		return "uuidBinary"
	case CandidateUUIDLegacyBinary:
		return "uuidLegacyBinary"
	default:
		return "unknown"
	}
}

// Candidate is one representational form of a session identifier, carrying a
// value usable directly in a query filter. Conversions are explicit so that
// no representation is ever coerced implicitly.
type Candidate struct {
	Kind  CandidateKind
	Value any
}

// Describe returns the diagnostic form of the candidate, e.g. "string:abc123"
func (c Candidate) Describe() string {
	if bin, ok := c.Value.(primitive.Binary); ok {
		return fmt.Sprintf("%s:%x", c.Kind, bin.Data)
	}
	return fmt.Sprintf("%s:%v", c.Kind, c.Value)
}

// CandidatesFor enumerates every representation the identifier can take in
// stored documents: the raw string always, the database-native object id when
// the identifier is valid hex, and UUID text plus standard (0x04) and legacy
// (0x03) binary forms when it parses as a UUID.
func CandidatesFor(sessionID string) []Candidate {
	candidates := []Candidate{{Kind: CandidateString, Value: sessionID}}

	if oid, err := primitive.ObjectIDFromHex(sessionID); err == nil {
		candidates = append(candidates, Candidate{Kind: CandidateObjectID, Value: oid})
	}

	if id, err := uuid.Parse(sessionID); err == nil {
		if text := id.String(); text != sessionID {
			candidates = append(candidates, Candidate{Kind: CandidateUUIDText, Value: text})
		}
		candidates = append(candidates,
			Candidate{Kind: CandidateUUIDBinary, Value: primitive.Binary{Subtype: 0x04, Data: id[:]}},
			Candidate{Kind: CandidateUUIDLegacyBinary, Value: primitive.Binary{Subtype: 0x03, Data: id[:]}},
		)
	}

	return candidates
}
