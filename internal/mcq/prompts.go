package mcq

import "fmt"

const questionTemplate = `You are an expert teacher creating multiple choice questions to test understanding.

Based on the following text, generate %d multiple choice questions.

Text: %s

CRITICAL INSTRUCTIONS:
1. Create questions that test UNDERSTANDING, not just memorization
2. Each question must have EXACTLY 4 options (A, B, C, D)
3. Only ONE option should be correct
4. Make incorrect options plausible but clearly wrong
5. Cover different topics from the text
6. Questions should be clear and unambiguous

Return ONLY valid JSON in this EXACT format (no markdown, no extra text):
[
    {
        "question": "Clear question text here?",
        "options": [
            {"option": "Option A text", "is_correct": false},
            {"option": "Option B text", "is_correct": true},
            {"option": "Option C text", "is_correct": false},
            {"option": "Option D text", "is_correct": false}
        ],
        "explanation": "Why option B is correct and others are wrong"
    }
]

JSON Output:`

func questionPrompt(text string, numQuestions int) string {
	return fmt.Sprintf(questionTemplate, numQuestions, text)
}
