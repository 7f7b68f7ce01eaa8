// Package bootstrap probes the host for the evidence needed to choose a render
// mode. Each probe yields Evidence with a confidence score; Recommend folds the
// set into a window or headless recommendation.
package bootstrap

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"time"
)

// Category classifies types of evidence
type Category string

const (
	CategoryEnvironment Category = "environment"
	CategoryDisplay     Category = "display"
	CategoryResources   Category = "resources"
)

// Evidence is a single discovered fact about the host
type Evidence struct {
	ID         string         `json:"id"`
	Category   Category       `json:"category"`
	Property   string         `json:"property"`
	Value      any            `json:"value"`
	Confidence float64        `json:"confidence"` // 0.0-1.0
	Source     string         `json:"source"`     // environment, filesystem, runtime
	Method     string         `json:"method"`
	Timestamp  time.Time      `json:"timestamp"`
	Raw        map[string]any `json:"raw,omitempty"`
}

// NewEvidence creates evidence with a generated ID
func NewEvidence(cat Category, prop string, value any, conf float64, source, method string) Evidence {
	e := Evidence{
		Category:   cat,
		Property:   prop,
		Value:      value,
		Confidence: conf,
		Source:     source,
		Method:     method,
		Timestamp:  time.Now(),
	}
	data := fmt.Sprintf("%s:%s:%v:%s:%d", e.Category, e.Property, e.Value, e.Source, e.Timestamp.UnixNano())
	sum := sha256.Sum256([]byte(data))
	e.ID = hex.EncodeToString(sum[:8])
	return e
}

// WithRaw attaches raw probe data
func (e Evidence) WithRaw(raw map[string]any) Evidence {
	e.Raw = raw
	return e
}

// EvidenceSet aggregates evidence from every probe phase
type EvidenceSet struct {
	items []Evidence
}

func NewEvidenceSet() *EvidenceSet {
	return &EvidenceSet{}
}

func (es *EvidenceSet) Add(e Evidence) {
	es.items = append(es.items, e)
}

func (es *EvidenceSet) AddAll(items []Evidence) {
	es.items = append(es.items, items...)
}

// All returns every item in insertion order
func (es *EvidenceSet) All() []Evidence {
	return es.items
}

func (es *EvidenceSet) Count() int {
	return len(es.items)
}

// ByCategory returns evidence filtered by category
func (es *EvidenceSet) ByCategory(cat Category) []Evidence {
	var result []Evidence
	for _, e := range es.items {
		if e.Category == cat {
			result = append(result, e)
		}
	}
	return result
}

// BestValue returns the highest-confidence value for a property
func (es *EvidenceSet) BestValue(cat Category, prop string) (any, float64, bool) {
	var best Evidence
	found := false
	for _, e := range es.items {
		if e.Category != cat || e.Property != prop {
			continue
		}
		if !found || e.Confidence > best.Confidence {
			best = e
			found = true
		}
	}
	if !found {
		return nil, 0, false
	}
	return best.Value, best.Confidence, true
}

// AggregateConfidence combines corroborating evidence for one property:
// the strongest item plus a decaying bonus per extra source, capped at 0.99.
func (es *EvidenceSet) AggregateConfidence(cat Category, prop string) float64 {
	var confidences []float64
	for _, e := range es.items {
		if e.Category == cat && e.Property == prop {
			confidences = append(confidences, e.Confidence)
		}
	}
	if len(confidences) == 0 {
		return 0
	}

	sort.Sort(sort.Reverse(sort.Float64Slice(confidences)))
	result := confidences[0]
	for i := 1; i < len(confidences); i++ {
		result += confidences[i] * 0.1 / float64(i)
	}
	if result > 0.99 {
		result = 0.99
	}
	return result
}

func (es *EvidenceSet) boolValue(cat Category, prop string) (bool, float64) {
	v, conf, ok := es.BestValue(cat, prop)
	if !ok {
		return false, 0
	}
	b, _ := v.(bool)
	return b, conf
}

func (es *EvidenceSet) stringValue(cat Category, prop, def string) string {
	v, _, ok := es.BestValue(cat, prop)
	if !ok {
		return def
	}
	if s, ok := v.(string); ok {
		return s
	}
	return def
}

func (es *EvidenceSet) intValue(cat Category, prop string, def int) int {
	v, _, ok := es.BestValue(cat, prop)
	if !ok {
		return def
	}
	if i, ok := v.(int); ok {
		return i
	}
	return def
}
