package summarizer

import "fmt"

const conciseTemplate = `You are a professional editor creating a brief, to-the-point summary.

Text to summarize: %s

Target length: Approximately %d words (be as brief as possible while covering key points)

Instructions:
- Capture only the most essential points
- Use clear, direct language
- Remove all unnecessary details
- Focus on facts and key takeaways
- Be extremely efficient with words
- List main topics without excessive elaboration

Concise Summary:`

const explanatoryTemplate = `You are an expert analyst creating a detailed, comprehensive summary.

Text to summarize: %s

Target length: Approximately %d words (aim for comprehensive coverage - longer summaries are encouraged)

Instructions:
- Provide comprehensive coverage of all main ideas with detailed explanations
- Explain the "what," "why," and "how" behind key concepts thoroughly
- Include context, background information, and relationships between concepts
- Use examples, analogies, and clear explanations for complex points
- Break down the content into clear sections with detailed coverage
- Be thorough and comprehensive - don't rush through topics
- Include real-world applications and practical implications where relevant
- Aim for the target word count through in-depth analysis and explanation

Comprehensive Explanatory Summary:`

const refineTemplate = `You are refining an existing summary with new information.

Current Summary:
%s

New Content:
%s

Task: Update and refine the summary to incorporate the new content while maintaining a %s style and approximately %d words. Be thorough and comprehensive.

Refined Summary:`

const chunkTemplate = `Summarize this section briefly and clearly:

%s

Create a focused summary (~%d words) of main points:`

func stylePrompt(summaryType, text string, maxLength int) string {
	if summaryType == TypeConcise {
		return fmt.Sprintf(conciseTemplate, text, maxLength)
	}
	return fmt.Sprintf(explanatoryTemplate, text, maxLength)
}

func refinePrompt(currentSummary, newContent, summaryType string, maxLength int) string {
	return fmt.Sprintf(refineTemplate, currentSummary, newContent, summaryType, maxLength)
}

func chunkPrompt(chunk string, targetWords int) string {
	return fmt.Sprintf(chunkTemplate, chunk, targetWords)
}
