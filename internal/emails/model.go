package emails

import "strings"

// CTA styles accepted in Strategy.CTAType.
const (
	CTADirect = "direct"
	CTASoft   = "soft"
)

// ProspectInfo identifies the person the email is written for.
type ProspectInfo struct {
	Name    string `json:"name"`
	Company string `json:"company"`
	Role    string `json:"role"`
}

// ProductInfo describes what is being sold.
type ProductInfo struct {
	Description string `json:"description"`
	PainPoint   string `json:"painPoint"`
	Solution    string `json:"solution"`
}

// Strategy controls the call-to-action phrasing.
type Strategy struct {
	CTAType string `json:"ctaType"`
}

// GenerationRequest is one form submission. A non-empty Improvements asks for a
// single replacement of variant 2 that applies those improvements.
type GenerationRequest struct {
	Prospect     ProspectInfo `json:"prospect"`
	Product      ProductInfo  `json:"product"`
	Strategy     Strategy     `json:"strategy"`
	Improvements string       `json:"improvements,omitempty"`
}

// IsRegenerate reports whether the request only asks for a new variant 2.
func (r GenerationRequest) IsRegenerate() bool {
	return strings.TrimSpace(r.Improvements) != ""
}

// EmailDraftSet is the result of one generation call.
type EmailDraftSet struct {
	Improvements string `json:"improvements,omitempty"`
	Variant1     string `json:"variant1,omitempty"`
	Variant2     string `json:"variant2"`
}

// EmailMetrics scores a single email.
type EmailMetrics struct {
	Readability             int      `json:"readability"`
	PersonalizationScore    int      `json:"personalizationScore"`
	ValuePropositionClarity int      `json:"valuePropositionClarity"`
	CTAEffectiveness        int      `json:"ctaEffectiveness"`
	EstimatedResponseRate   float64  `json:"estimatedResponseRate"`
	KeyStrengths            []string `json:"keyStrengths"`
	ImprovementSuggestions  []string `json:"improvementSuggestions"`
}

// LegacyEnvelope mirrors the chat-completion shape older clients parse.
type LegacyEnvelope struct {
	Choices []LegacyChoice `json:"choices"`
}

type LegacyChoice struct {
	Message LegacyMessage `json:"message"`
}

type LegacyMessage struct {
	Content string `json:"content"`
}
