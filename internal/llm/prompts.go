package llm

import _ "embed"

var (
	//go:embed prompts/generate_system.txt
	generateSystem string
	//go:embed prompts/regenerate_system.txt
	regenerateSystem string
	//go:embed prompts/analyze_system.txt
	analyzeSystem string
	//go:embed prompts/legacy_system.txt
	legacySystem string
)

// GenerateSystemPrompt instructs the model to return {improvements?, variant1, variant2}.
func GenerateSystemPrompt() string {
	return generateSystem
}

// RegenerateSystemPrompt instructs the model to return a single {variant2}.
func RegenerateSystemPrompt() string {
	return regenerateSystem
}

// AnalyzeSystemPrompt instructs the model to return the email metrics object.
func AnalyzeSystemPrompt() string {
	return analyzeSystem
}

// LegacySystemPrompt is used for client-assembled prompts.
func LegacySystemPrompt() string {
	return legacySystem
}
