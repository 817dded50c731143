package intelligence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ava-assistant/avamem-go/pkg/llm"
)

// ClientInactiveMessage is the extracted_fact reported when no language
// model is configured.
const ClientInactiveMessage = "AI client is not active."

// Classification is the verdict on a single user utterance.
type Classification struct {
	// ShouldSave reports whether the utterance carries a lasting personal fact.
	ShouldSave bool `json:"should_save"`

	// ExtractedFact is the normalized fact when ShouldSave is true, empty
	// when it is false, and an error description when classification failed.
	ExtractedFact string `json:"extracted_fact"`
}

// ClassificationSchema is the structured output requested from the model.
var ClassificationSchema = &llm.Schema{
	Name:        "classification",
	Type:        llm.TypeObject,
	Description: "Whether a message contains a lasting personal fact about the user.",
	Properties: map[string]*llm.Schema{
		"should_save": {
			Type:        llm.TypeBoolean,
			Description: "True if the message states a lasting personal fact.",
		},
		"extracted_fact": {
			Type:        llm.TypeString,
			Description: "The fact as one short sentence, or an empty string.",
		},
	},
	Required: []string{"should_save", "extracted_fact"},
}

// FactClassifier decides whether an utterance is worth remembering.
//
// It never touches the fact store. Saving a classified fact is a separate,
// explicit step taken by the caller.
//
// Example usage:
//
//	classifier := NewFactClassifier(llmProvider, 30*time.Second, log)
//	c := classifier.Classify(ctx, "I drive with a 1080 degree wheel")
//	if c.ShouldSave {
//	    // offer c.ExtractedFact to the user
//	}
type FactClassifier struct {
	llm llm.Provider

	// customPrompt replaces the default instruction when non-empty. It must
	// contain a single %s verb for the message.
	customPrompt string

	timeout time.Duration
	log     *logrus.Entry
}

// NewFactClassifier creates a classifier with the default prompt.
//
// Parameters:
//   - provider: LLM provider used for classification (nil makes every call fail soft)
//   - timeout: Upper bound for one classification call (0 means none)
//   - log: Logger (nil uses the standard logger)
func NewFactClassifier(provider llm.Provider, timeout time.Duration, log *logrus.Entry) *FactClassifier {
	return NewFactClassifierWithPrompt(provider, "", timeout, log)
}

// NewFactClassifierWithPrompt creates a classifier with a custom prompt.
// The prompt is formatted with fmt.Sprintf and the quoted message.
func NewFactClassifierWithPrompt(provider llm.Provider, customPrompt string, timeout time.Duration, log *logrus.Entry) *FactClassifier {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &FactClassifier{
		llm:          provider,
		customPrompt: customPrompt,
		timeout:      timeout,
		log:          log,
	}
}

// Classify asks the model whether utterance encodes a durable personal fact.
//
// Classify never returns an error. Any failure resolves to ShouldSave false
// with a description of the failure in ExtractedFact.
func (c *FactClassifier) Classify(ctx context.Context, utterance string) Classification {
	if c.llm == nil {
		return Classification{ShouldSave: false, ExtractedFact: ClientInactiveMessage}
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	raw, err := c.llm.GenerateStructured(ctx, c.prompt(utterance), ClassificationSchema, llm.WithTemperature(0))
	if err == nil {
		var result Classification
		if result, err = parseClassification(raw); err == nil {
			c.log.WithField("should_save", result.ShouldSave).Debug("Message classified")
			return result
		}
	}

	c.log.WithError(err).Error("Fact classification failed")
	return Classification{ShouldSave: false, ExtractedFact: fmt.Sprintf("Analysis failed: %v", err)}
}

func (c *FactClassifier) prompt(utterance string) string {
	quoted, _ := json.Marshal(utterance)
	if c.customPrompt != "" {
		return fmt.Sprintf(c.customPrompt, quoted)
	}
	return fmt.Sprintf(`Analyze the following message from the user. Decide whether it contains a personal,
lasting fact (for example a name, a preference, an occupation, a hobby, or equipment such as
'a 1080 degree steering wheel') or whether it is only a question or a comment.

If it is a fact, set "should_save" to true and put a short statement of the fact in "extracted_fact".
If it is not worth saving, set "should_save" to false and "extracted_fact" to an empty string.

Message: %s

Return ONLY a valid JSON object.
Example 1: {"should_save": true, "extracted_fact": "The user's name is Jakub and he goes by Kubo."}
Example 2: {"should_save": false, "extracted_fact": ""}`, quoted)
}

// classificationPayload uses pointers so that missing fields can be told
// apart from zero values.
type classificationPayload struct {
	ShouldSave    *bool   `json:"should_save"`
	ExtractedFact *string `json:"extracted_fact"`
}

// parseClassification validates a model response against ClassificationSchema.
func parseClassification(response string) (Classification, error) {
	response = removeCodeBlocks(response)
	if response == "" {
		return Classification{}, llm.ErrEmptyResponse
	}

	dec := json.NewDecoder(strings.NewReader(response))
	dec.DisallowUnknownFields()

	var p classificationPayload
	if err := dec.Decode(&p); err != nil {
		return Classification{}, fmt.Errorf("invalid JSON response: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Classification{}, errors.New("invalid JSON response: trailing data after object")
	}

	switch {
	case p.ShouldSave == nil:
		return Classification{}, errors.New("invalid JSON response: missing should_save")
	case p.ExtractedFact == nil:
		return Classification{}, errors.New("invalid JSON response: missing extracted_fact")
	}

	return Classification{
		ShouldSave:    *p.ShouldSave,
		ExtractedFact: *p.ExtractedFact,
	}, nil
}

// removeCodeBlocks removes code fences (```json ... ```) from a response.
func removeCodeBlocks(response string) string {
	response = strings.TrimSpace(response)
	if !strings.HasPrefix(response, "```") {
		return response
	}
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	return strings.TrimSpace(response)
}
