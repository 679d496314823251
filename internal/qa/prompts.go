package qa

import "fmt"

const answerTemplate = `You are a knowledgeable teacher helping a student understand a document.

CONVERSATION HISTORY:
%s

CURRENT CONTEXT FROM DOCUMENT:
%s

CURRENT QUESTION:
%s

Instructions:
- %s
- Use the conversation history to understand follow-up questions
- If the question refers to something discussed earlier, use that context
- Be conversational and natural
- If asked "tell me more" or "explain that", refer to the last topic discussed

Answer:`

func answerPrompt(history, context, question, instruction string) string {
	return fmt.Sprintf(answerTemplate, history, context, question, instruction)
}
