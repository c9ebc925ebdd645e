package classifier

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"inbox-scout-go/internal/model"
)

// Classification sources, for observability.
const (
	SourceRule      = "rule"
	SourceInference = "inference"
	SourceFallback  = "fallback"
)

// Engine assigns a category to an email record: an ordered list of
// deterministic rules, then one inference call. It never returns an
// error; any failure downgrades to the General safety default. Callers
// must classify strictly sequentially within a sync, since the fallback
// stage shares a single inference endpoint.
type Engine struct {
	rules []Rule
	llm   TextGenerator
}

// NewEngine creates a new classification engine
func NewEngine(rules []Rule, llm TextGenerator) *Engine {
	return &Engine{rules: rules, llm: llm}
}

// Classify evaluates one record and returns its category and the source
// of the decision.
func (e *Engine) Classify(ctx context.Context, record model.EmailRecord) (model.Category, string) {
	subject := strings.ToLower(record.Subject)
	from := strings.ToLower(record.From)
	body := strings.ToLower(record.Body)
	if body == "" {
		body = strings.ToLower(record.Snippet)
	}

	// Stage A: deterministic rules, first match wins.
	for _, rule := range e.rules {
		if rule.Match(subject, from, body) {
			logrus.Infof("Rule %q categorized %q as %s", rule.Name, record.Subject, rule.Category)
			return rule.Category, SourceRule
		}
	}

	// Nothing to send to the model.
	if record.Subject == "" && record.Body == "" && record.Snippet == "" {
		return model.CategoryGeneral, SourceFallback
	}

	// Stage B: one inference attempt, no retry.
	raw, err := e.llm.Generate(ctx, BuildPrompt(record))
	if err != nil {
		logrus.Errorf("Inference call failed for %q, defaulting to General: %v", record.Subject, err)
		return model.CategoryGeneral, SourceFallback
	}

	category, matched := NormalizeLabel(raw)
	if !matched {
		logrus.Warnf("Unrecognized inference response %q for %q, defaulting to General", raw, record.Subject)
		return model.CategoryGeneral, SourceFallback
	}

	logrus.Infof("Inference categorized %q as %s (raw: %q)", record.Subject, category, raw)
	return category, SourceInference
}

// NormalizeLabel maps a raw model response onto the closed category set.
// Each canonical label is tried in priority order, accepting an exact
// match or substring containment of the lower-cased response. Returns
// (General, false) when nothing matches.
func NormalizeLabel(raw string) (model.Category, bool) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "" {
		return model.CategoryGeneral, false
	}

	for _, category := range model.Categories {
		label := strings.ToLower(string(category))
		if normalized == label || strings.Contains(normalized, label) {
			return category, true
		}
	}

	return model.CategoryGeneral, false
}
