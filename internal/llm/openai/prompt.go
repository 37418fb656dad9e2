package openai

import (
	"strings"

	"coldemail-backend/internal/llm"
	"coldemail-backend/internal/shared/util"
)

// Message represents an OpenAI chat message.
type Message struct {
	Role    string
	Content string
}

// BuildMessages turns a request into the system/user chat messages sent to the API.
func BuildMessages(req llm.Request) []Message {
	out := make([]Message, 0, 2)
	if strings.TrimSpace(req.System) != "" {
		out = append(out, Message{Role: "system", Content: req.System})
	}
	out = append(out, Message{Role: "user", Content: req.User})
	return out
}

func toChatMessages(messages []Message) []chatMessage {
	out := make([]chatMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, chatMessage{Role: m.Role, Content: m.Content})
	}
	return out
}

func promptStringFromMessages(messages []Message) string {
	if len(messages) == 0 {
		return ""
	}
	var b strings.Builder
	for i, m := range messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(m.Role)
		b.WriteString(": ")
		b.WriteString(m.Content)
	}
	return b.String()
}

func hashPromptString(prompt string) string {
	return util.HashKey(prompt)
}
