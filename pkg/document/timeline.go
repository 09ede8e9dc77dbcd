package document

import "sort"

// Assemble merges the grouped documents of one session into a single ordered
// timeline. Groups are concatenated in their given (configuration-defined)
// order, then stable-sorted ascending by batch index. Documents without a
// batch index sort after all indexed ones, keeping their retrieval order.
// Document content is never mutated and the result is never reordered again.
func Assemble(groups []CollectionDocuments) []Document {
	var timeline []Document
	for _, group := range groups {
		timeline = append(timeline, group.Documents...)
	}

	sort.SliceStable(timeline, func(i, j int) bool {
		a, b := timeline[i].BatchIndex, timeline[j].BatchIndex
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a < *b
		}
	})

	return timeline
}
