package emails

import (
	"fmt"

	"github.com/tmc/langchaingo/prompts"

	"coldemail-backend/internal/llm"
)

const coldEmailPrinciples = `1. Keep it 5-8 sentences (optimized for mobile viewing)
2. Break up lines after every 2 sentences maximum
3. Focus on customer pain points, not product features
4. Emphasize prospect's company and their specific problems
5. Use appropriate call-to-action based on strategy`

const prospectBlock = `Use this information:
- Prospect Name: {{.name}}
- Prospect Company: {{.company}}
- Prospect Role: {{.role}}
- Product Description: {{.description}}
- Main Pain Point: {{.painPoint}}
- Solution: {{.solution}}
- CTA Style: {{.cta}}`

const generateTemplate = `Write two different versions of a cold sales email using these principles:
{{.principles}}

` + prospectBlock + `

Before writing the emails, analyze whether other pain points or solution angles would resonate better with this prospect based on their role and industry. If you find better alternatives, describe them in "improvements".
Make the two versions distinctly different in approach while keeping both effective.
Consider incorporating a suggested improvement in one of the versions if it is significantly stronger than the provided pain point or solution.`

const regenerateTemplate = `Write one new version of a cold sales email using these principles:
{{.principles}}

` + prospectBlock + `

Apply these suggested improvements to the new version:
{{.improvements}}`

const analyzeTemplate = `Analyze the following cold email and score it.

Email:
{{.email}}`

const legacySuffix = `

Respond with a JSON object containing two email variants and any suggested improvements. Format as: { "improvements": "any improvement suggestions (optional)", "variant1": "first email version", "variant2": "second email version" }`

var (
	generatePrompt   = prompts.NewPromptTemplate(generateTemplate, []string{"principles", "name", "company", "role", "description", "painPoint", "solution", "cta"})
	regeneratePrompt = prompts.NewPromptTemplate(regenerateTemplate, []string{"principles", "name", "company", "role", "description", "painPoint", "solution", "cta", "improvements"})
	analyzePrompt    = prompts.NewPromptTemplate(analyzeTemplate, []string{"email"})
)

// CTALabel renders the strategy into the phrasing the model is asked to follow.
func CTALabel(ctaType string) string {
	if ctaType == CTADirect {
		return "Direct (ask for a call)"
	}
	return "Soft (offer to share more information)"
}

// BuildGenerationPrompt renders the system/user pair for a form submission. A request
// carrying prior improvements yields the single-email regenerate prompt.
func BuildGenerationPrompt(req GenerationRequest) (llm.Request, error) {
	values := map[string]any{
		"principles":  coldEmailPrinciples,
		"name":        req.Prospect.Name,
		"company":     req.Prospect.Company,
		"role":        req.Prospect.Role,
		"description": req.Product.Description,
		"painPoint":   req.Product.PainPoint,
		"solution":    req.Product.Solution,
		"cta":         CTALabel(req.Strategy.CTAType),
	}

	if req.IsRegenerate() {
		values["improvements"] = req.Improvements
		user, err := regeneratePrompt.Format(values)
		if err != nil {
			return llm.Request{}, fmt.Errorf("render regenerate prompt: %w", err)
		}
		return llm.Request{System: llm.RegenerateSystemPrompt(), User: user}, nil
	}

	user, err := generatePrompt.Format(values)
	if err != nil {
		return llm.Request{}, fmt.Errorf("render generate prompt: %w", err)
	}
	return llm.Request{System: llm.GenerateSystemPrompt(), User: user}, nil
}

// BuildAnalysisPrompt renders the scoring request for one email.
func BuildAnalysisPrompt(emailContent string) (llm.Request, error) {
	user, err := analyzePrompt.Format(map[string]any{"email": emailContent})
	if err != nil {
		return llm.Request{}, fmt.Errorf("render analyze prompt: %w", err)
	}
	return llm.Request{System: llm.AnalyzeSystemPrompt(), User: user}, nil
}

// BuildLegacyPrompt wraps a client-assembled prompt.
func BuildLegacyPrompt(prompt string) llm.Request {
	return llm.Request{System: llm.LegacySystemPrompt(), User: prompt + legacySuffix}
}
