package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Fact is one remembered piece of information about the user.
//
// A Fact loaded from disk may be incomplete: its embedding can be missing,
// empty or unparseable, or the whole record may not be a fact object at all.
// Such facts are retained so they survive rewrites, but Valid reports false
// and retrieval skips them. Values that cannot be decoded are kept verbatim
// and written back unchanged.
type Fact struct {
	// Text is the natural-language statement, e.g. "The user's favorite color is blue."
	Text string

	// Embedding is the vector computed from Text when the fact was accepted.
	Embedding []float64

	// CreatedAt is when the fact was accepted. Zero for facts written by older files.
	CreatedAt time.Time

	// rawEmbedding holds an embedding value that could not be decoded.
	rawEmbedding json.RawMessage

	// rawCreatedAt holds a created_at value that is not a timestamp.
	rawCreatedAt json.RawMessage

	// rawRecord holds a whole record that is not an object with string text.
	rawRecord json.RawMessage
}

// factRecord is the persisted shape of a Fact.
type factRecord struct {
	Text      string          `json:"text"`
	Embedding json.RawMessage `json:"embedding,omitempty"`
	CreatedAt json.RawMessage `json:"created_at,omitempty"`
}

// NewFact creates a complete fact stamped with the current time.
func NewFact(text string, embedding []float64) Fact {
	return Fact{
		Text:      text,
		Embedding: embedding,
		CreatedAt: time.Now().UTC(),
	}
}

// FactFromRecord builds a Fact from its stored parts. rawEmbedding is the
// JSON-encoded vector as stored; nil or "null" means the embedding is missing.
func FactFromRecord(text string, rawEmbedding []byte, createdAt time.Time) Fact {
	f := Fact{Text: text, CreatedAt: createdAt}
	f.setEmbeddingJSON(rawEmbedding)
	return f
}

// Valid reports whether the fact carries an embedding usable for similarity.
func (f Fact) Valid() bool {
	return f.rawRecord == nil && f.rawEmbedding == nil && len(f.Embedding) > 0
}

// BadTimestamp reports whether the stored created_at could not be parsed.
// CreatedAt is then zero and the stored value is written back unchanged.
func (f Fact) BadTimestamp() bool {
	return f.rawCreatedAt != nil
}

// Check returns ErrRecordIncomplete (wrapped) when the fact is not Valid.
func (f Fact) Check() error {
	switch {
	case f.rawRecord != nil:
		return fmt.Errorf("%w: record is not an object with a text", ErrRecordIncomplete)
	case f.rawEmbedding != nil:
		return fmt.Errorf("%w: embedding is not a numeric vector", ErrRecordIncomplete)
	case f.Embedding == nil:
		return fmt.Errorf("%w: embedding is missing", ErrRecordIncomplete)
	case len(f.Embedding) == 0:
		return fmt.Errorf("%w: embedding is empty", ErrRecordIncomplete)
	}
	return nil
}

// EmbeddingJSON returns the embedding as it should be stored. It returns nil
// when the fact has no embedding at all.
func (f Fact) EmbeddingJSON() ([]byte, error) {
	if f.rawEmbedding != nil {
		return f.rawEmbedding, nil
	}
	if f.Embedding == nil {
		return nil, nil
	}
	return json.Marshal(f.Embedding)
}

// MarshalJSON implements json.Marshaler.
func (f Fact) MarshalJSON() ([]byte, error) {
	if f.rawRecord != nil {
		return f.rawRecord, nil
	}
	emb, err := f.EmbeddingJSON()
	if err != nil {
		return nil, err
	}
	rec := factRecord{Text: f.Text, Embedding: emb, CreatedAt: f.rawCreatedAt}
	if rec.CreatedAt == nil && !f.CreatedAt.IsZero() {
		if rec.CreatedAt, err = json.Marshal(f.CreatedAt); err != nil {
			return nil, err
		}
	}
	return json.Marshal(rec)
}

// UnmarshalJSON implements json.Unmarshaler.
//
// It never fails on a syntactically valid value. A record that is not an
// object, or whose text is not a string, becomes an incomplete fact holding
// the record verbatim. A bad embedding or created_at only affects that field.
func (f *Fact) UnmarshalJSON(data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("invalid fact record")
	}
	*f = decodeFact(data)
	return nil
}

func decodeFact(raw []byte) Fact {
	raw = bytes.TrimSpace(raw)
	keep := func() Fact {
		return Fact{rawRecord: append(json.RawMessage(nil), raw...)}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return keep()
	}

	var f Fact
	if text, ok := fields["text"]; ok {
		if err := json.Unmarshal(text, &f.Text); err != nil {
			return keep()
		}
	}
	if ts := bytes.TrimSpace(fields["created_at"]); len(ts) > 0 && !bytes.Equal(ts, []byte("null")) {
		if err := json.Unmarshal(ts, &f.CreatedAt); err != nil {
			f.CreatedAt = time.Time{}
			f.rawCreatedAt = append(json.RawMessage(nil), ts...)
		}
	}
	f.setEmbeddingJSON(fields["embedding"])
	return f
}

func (f *Fact) setEmbeddingJSON(raw []byte) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return
	}
	var vec []float64
	if err := json.Unmarshal(raw, &vec); err != nil {
		f.rawEmbedding = append(json.RawMessage(nil), raw...)
		return
	}
	if vec == nil {
		vec = []float64{}
	}
	f.Embedding = vec
}

// DecodeFacts parses a persisted memory document.
//
// The document must be a JSON array. Anything else, or text that is not
// JSON, returns ErrStoreCorrupt (wrapped) with a description of what was
// found. Damaged elements never fail the document; they decode to
// incomplete facts.
func DecodeFacts(data []byte) ([]Fact, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: document is empty", ErrStoreCorrupt)
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreCorrupt, err)
	}

	if _, ok := doc.([]interface{}); !ok {
		return nil, fmt.Errorf("%w: expected a sequence of records, found %s", ErrStoreCorrupt, jsonKind(doc))
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreCorrupt, err)
	}

	facts := make([]Fact, 0, len(raws))
	for _, raw := range raws {
		facts = append(facts, decodeFact(raw))
	}
	return facts, nil
}

// EncodeFacts renders facts as a JSON array, indenting each level with indent.
// An empty indent produces compact output.
func EncodeFacts(facts []Fact, indent string) ([]byte, error) {
	if facts == nil {
		facts = []Fact{}
	}
	if indent == "" {
		return json.Marshal(facts)
	}
	return json.MarshalIndent(facts, "", indent)
}

func jsonKind(v interface{}) string {
	switch v.(type) {
	case map[string]interface{}:
		return "an object"
	case string:
		return "a string"
	case float64:
		return "a number"
	case bool:
		return "a boolean"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", v)
	}
}
