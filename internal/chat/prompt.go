package chat

import "github.com/quillhq/scrivener/internal/llm"

const sqlAssistPrompt = `You are a helpful assistant that specializes in SQL and data analysis.
When a question could be answered with a SQL query, provide both:
1. A conversational answer
2. A SQL query that could help answer the question

Format SQL queries in code blocks with the language specified as 'sql'.
Only suggest SQL queries when they are relevant and helpful.
Be careful to write safe, read-only queries when possible.`

const plainPrompt = `You are a helpful assistant. Provide clear, concise and helpful answers to user questions.`

// assemble builds the ordered message sequence sent to the model: exactly one
// system message chosen by mode, the history unmodified, then the new user
// message last. No token-budget accounting happens here; the upstream 10-turn
// window is the only cap.
func assemble(includeSQL bool, history []llm.Message, message string) []llm.Message {
	system := plainPrompt
	if includeSQL {
		system = sqlAssistPrompt
	}

	out := make([]llm.Message, 0, len(history)+2)
	out = append(out, llm.Message{Role: llm.RoleSystem, Content: system})
	out = append(out, history...)
	out = append(out, llm.Message{Role: llm.RoleUser, Content: message})
	return out
}
