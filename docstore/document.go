package docstore

import (
	jsoniter "github.com/json-iterator/go"
)

// Document is the unit of storage and the shape of command bodies and replies.
//
// Values must be JSON-marshalable; nested documents are plain nested maps.
type Document = map[string]any

// MarshalDocument serializes a Document to JSON.
func MarshalDocument(doc Document) ([]byte, error) {
	docJSON, err := jsoniter.ConfigFastest.Marshal(doc)
	if err != nil {
		return nil, err
	}

	return docJSON, nil
}

// UnmarshalDocument deserializes JSON into a Document.
// Returns an error if the input is not valid JSON.
func UnmarshalDocument(docJSON []byte) (Document, error) {
	if !jsoniter.ConfigFastest.Valid(docJSON) {
		return nil, ErrInvalidDocumentJSON
	}

	doc := Document{}
	if err := jsoniter.ConfigFastest.Unmarshal(docJSON, &doc); err != nil {
		return nil, err
	}

	return doc, nil
}
