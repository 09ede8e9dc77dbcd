package document

import "math"

// batchIndexField establishes sequence order across the fragments of a session
const batchIndexField = "batchIndex"

// Document is one record belonging to a session, tagged with the collection
// it came from
type Document struct {
	Collection string
	BatchIndex *int64 // nil when the record carries no batch index
	Body       Value
}

// CollectionDocuments groups the documents matched in a single collection,
// in retrieval order
type CollectionDocuments struct {
	Collection string
	Documents  []Document
}

// NewDocument builds a Document from a decoded payload, extracting the batch
// index when the record carries an integral one
func NewDocument(collection string, body Value) Document {
	doc := Document{Collection: collection, Body: body}
	if v, ok := body.Get(batchIndexField); ok && v.Kind() == KindNumber {
		if n := v.NumberValue(); n == math.Trunc(n) {
			index := int64(n)
			doc.BatchIndex = &index
		}
	}
	return doc
}
