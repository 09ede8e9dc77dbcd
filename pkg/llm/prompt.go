package llm

import (
	"fmt"
	"strings"

	"github.com/traceline/traceline/pkg/sdk"
)

// buildSummaryPrompt asks for a short ticket-ready summary of the ordered
// session context
func buildSummaryPrompt(sessionID string, documents []sdk.SessionDocument) string {
	var docText []string
	for _, doc := range documents {
		batch := "n/a"
		if doc.BatchIndex != nil {
			batch = fmt.Sprintf("%d", *doc.BatchIndex)
		}
		docText = append(docText, fmt.Sprintf("Source: %s\nBatch: %s\nContent: %s", doc.Source, batch, doc.Content))
	}

	return "Create a concise Jira-ready summary for the session below. " +
		"Respond with a short title followed by up to three bullet points that capture the " +
		"critical actions, decisions, and blockers. Mention remaining questions or follow-up " +
		"items if needed and avoid unnecessary detail.\n\n" +
		fmt.Sprintf("Session ID: %s\n\n", sessionID) +
		fmt.Sprintf("Ordered Session Context:\n%s", strings.Join(docText, "\n\n"))
}

// buildQuestionPrompt embeds the question, the conversation so far, and the
// ordered session context into one user message
func buildQuestionPrompt(sessionID, question string, documents []sdk.SessionDocument, historyText string) string {
	var docText []string
	for _, doc := range documents {
		docText = append(docText, fmt.Sprintf("Source: %s\nContent: %s", doc.Source, doc.Content))
	}

	historySection := ""
	if historyText != "" {
		historySection = fmt.Sprintf("Conversation so far:\n%s\n\n", historyText)
	}

	return "You are given the aggregated records for a single session in chronological batches. " +
		"Answer the user's question using only this context and what has been established in " +
		"the conversation so far. If the answer cannot be derived, say that the information is " +
		"not available. Highlight batch numbers when they clarify the answer.\n\n" +
		fmt.Sprintf("Session ID: %s\n", sessionID) +
		fmt.Sprintf("Question: %s\n\n", question) +
		historySection +
		fmt.Sprintf("Context:\n%s", strings.Join(docText, "\n\n"))
}

// formatHistory renders prior conversation turns as labeled lines
func formatHistory(history []sdk.ChatMessage) string {
	var lines []string
	for _, turn := range history {
		if turn.Content == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", historyLabel(turn.Role), strings.TrimSpace(turn.Content)))
	}
	return strings.Join(lines, "\n")
}

func historyLabel(role string) string {
	switch role {
	case "user":
		return "User"
	case "assistant":
		return "Assistant"
	default:
		if role == "" {
			return "User"
		}
		return strings.ToUpper(role[:1]) + role[1:]
	}
}
