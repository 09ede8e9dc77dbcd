package document

import (
	"fmt"
	"regexp"
)

// DefaultEventsPath is where batched trace records keep their nested event array
var DefaultEventsPath = []string{"data", "events"}

// omittedNotePattern matches the synthetic trailing note appended by a
// previous condensation pass
var omittedNotePattern = regexp.MustCompile(`^\.\.\. \d+ more events omitted$`)

// CondenseEvents bounds the nested event array of a document. When the array
// at path holds more entries than previewCount, it is replaced by the leading
// previewCount entries (each rendered as text and capped at previewChars
// runes) followed by a note stating how many entries were dropped. Documents
// whose array is at or below the threshold, or that have no array at path,
// are returned unchanged. The operation is pure and idempotent: condensing an
// already-condensed document yields the same document.
func CondenseEvents(doc Document, path []string, previewCount, previewChars int) Document {
	if previewCount <= 0 || previewChars <= 0 {
		return doc
	}

	events, ok := doc.Body.Lookup(path...)
	if !ok || events.Kind() != KindList || events.Len() <= previewCount {
		return doc
	}
	if isCondensed(events, previewCount) {
		return doc
	}

	items := events.Items()
	preview := make([]Value, 0, previewCount+1)
	for _, item := range items[:previewCount] {
		preview = append(preview, String(capRunes(item.Text(), previewChars)))
	}
	preview = append(preview, String(fmt.Sprintf("... %d more events omitted", len(items)-previewCount)))

	doc.Body = doc.Body.WithPath(path, List(preview...))
	return doc
}

// isCondensed recognizes the output shape of a previous pass: exactly
// previewCount entries plus a trailing omitted-count note
func isCondensed(events Value, previewCount int) bool {
	items := events.Items()
	if len(items) != previewCount+1 {
		return false
	}
	last := items[len(items)-1]
	return last.Kind() == KindString && omittedNotePattern.MatchString(last.StringValue())
}

// capRunes truncates s to at most limit runes, replacing the final rune with
// a truncation marker when a cut was made
func capRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	if limit == 1 {
		return "…"
	}
	return string(runes[:limit-1]) + "…"
}
