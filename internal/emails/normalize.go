package emails

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

const maxResponseRate = 5.0

// StripCodeFences removes ``` wrappers, with any language tag (```json, ```JSON), around
// a completion until none remain.
func StripCodeFences(raw string) string {
	cleaned := strings.TrimSpace(raw)
	for {
		next := cleaned
		if strings.HasPrefix(next, "```") {
			next = strings.TrimLeftFunc(strings.TrimPrefix(next, "```"), isFenceTag)
		}
		next = strings.TrimSuffix(next, "```")
		next = strings.TrimSpace(next)
		if next == cleaned {
			return cleaned
		}
		cleaned = next
	}
}

func isFenceTag(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// parseObject strips fences and decodes a JSON object.
func parseObject(raw string) (map[string]any, error) {
	cleaned := StripCodeFences(raw)
	if cleaned == "" {
		return nil, &MalformedResponseError{Raw: raw, Err: ErrEmptyCompletion}
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil {
		return nil, &MalformedResponseError{Raw: raw, Err: err}
	}
	if fields == nil {
		return nil, &MalformedResponseError{Raw: raw, Err: errors.New("completion is not a JSON object")}
	}
	return fields, nil
}

// NormalizeDrafts turns a generation completion into an EmailDraftSet. With
// onlyVariant2 set, variant1 is neither required nor returned.
func NormalizeDrafts(raw string, onlyVariant2 bool) (EmailDraftSet, error) {
	fields, err := parseObject(raw)
	if err != nil {
		return EmailDraftSet{}, err
	}

	out := EmailDraftSet{
		Improvements: improvementsText(fields["improvements"]),
		Variant2:     stringField(fields["variant2"]),
	}
	if !onlyVariant2 {
		out.Variant1 = stringField(fields["variant1"])
		if strings.TrimSpace(out.Variant1) == "" {
			return EmailDraftSet{}, &MalformedResponseError{Raw: raw, Err: errors.New("variant1 missing")}
		}
	}
	if strings.TrimSpace(out.Variant2) == "" {
		return EmailDraftSet{}, &MalformedResponseError{Raw: raw, Err: errors.New("variant2 missing")}
	}
	return out, nil
}

// NormalizeMetrics turns an analysis completion into EmailMetrics with defaults filled.
func NormalizeMetrics(raw string) (EmailMetrics, error) {
	fields, err := parseObject(raw)
	if err != nil {
		return EmailMetrics{}, err
	}
	return metricsFromFields(fields), nil
}

func metricsFromFields(fields map[string]any) EmailMetrics {
	rate, _ := number(fields["estimatedResponseRate"])
	return EmailMetrics{
		Readability:             score(fields["readability"]),
		PersonalizationScore:    score(fields["personalizationScore"]),
		ValuePropositionClarity: score(fields["valuePropositionClarity"]),
		CTAEffectiveness:        score(fields["ctaEffectiveness"]),
		EstimatedResponseRate:   ClampResponseRate(rate),
		KeyStrengths:            stringList(fields["keyStrengths"]),
		ImprovementSuggestions:  stringList(fields["improvementSuggestions"]),
	}
}

// ClampResponseRate bounds a rate to [0, 5].
func ClampResponseRate(r float64) float64 {
	if math.IsNaN(r) {
		return 0
	}
	return math.Max(0, math.Min(r, maxResponseRate))
}

// score rounds a 1-10 score; 0 means the model did not provide one.
func score(v any) int {
	n, ok := number(v)
	if !ok {
		return 0
	}
	rounded := int(math.Round(n))
	if rounded < 1 {
		return 1
	}
	if rounded > 10 {
		return 10
	}
	return rounded
}

func number(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, !math.IsNaN(t) && !math.IsInf(t, 0)
	case string:
		n, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(t), "%"), 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func stringField(v any) string {
	s, _ := v.(string)
	return s
}

var improvementOrder = []string{"painPoints", "solutionPositioning", "industryContext"}

// improvementsText accepts either the requested string layout or the object form
// some models return, and renders both as Category:\nOriginal/Enhanced/Example text.
func improvementsText(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case map[string]any:
		return renderImprovementSections(t)
	case []any:
		return strings.Join(stringList(t), "\n")
	default:
		return ""
	}
}

func renderImprovementSections(sections map[string]any) string {
	keys := make([]string, 0, len(sections))
	for k := range sections {
		keys = append(keys, k)
	}
	rank := func(k string) int {
		for i, known := range improvementOrder {
			if strings.EqualFold(k, known) {
				return i
			}
		}
		return len(improvementOrder)
	}
	sort.SliceStable(keys, func(i, j int) bool {
		ri, rj := rank(keys[i]), rank(keys[j])
		if ri != rj {
			return ri < rj
		}
		return keys[i] < keys[j]
	})

	blocks := make([]string, 0, len(keys))
	for _, k := range keys {
		body := sectionBody(sections[k])
		if body == "" {
			continue
		}
		blocks = append(blocks, fmt.Sprintf("%s:\n%s", titleCase(k), body))
	}
	return strings.Join(blocks, "\n\n")
}

func sectionBody(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case map[string]any:
		lines := make([]string, 0, 3)
		for _, label := range []string{"original", "enhanced", "example"} {
			for k, val := range t {
				if !strings.EqualFold(k, label) {
					continue
				}
				if s := strings.TrimSpace(stringField(val)); s != "" {
					lines = append(lines, titleCase(label)+": "+s)
				}
			}
		}
		return strings.Join(lines, "\n")
	default:
		return ""
	}
}

// titleCase turns painPoints into "Pain Points".
func titleCase(key string) string {
	var b strings.Builder
	upperNext := true
	for i, r := range key {
		switch {
		case r == '_' || r == '-' || r == ' ':
			b.WriteRune(' ')
			upperNext = true
			continue
		case unicode.IsUpper(r) && i > 0:
			b.WriteRune(' ')
		}
		if upperNext {
			r = unicode.ToUpper(r)
			upperNext = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
