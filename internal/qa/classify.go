package qa

import "strings"

// questionCategory couples a keyword set with the instruction fragment
// steering the answer's framing. Categories are evaluated in order; the
// first keyword hit wins.
type questionCategory struct {
	name        string
	keywords    []string
	instruction string
}

var questionCategories = []questionCategory{
	{"explanation", []string{"why", "reason", "because"}, "Provide a clear explanation of WHY something happens"},
	{"process", []string{"how", "process", "steps", "way to"}, "Explain HOW something works step-by-step"},
	{"definition", []string{"what is", "define", "meaning"}, "Define and explain the concept clearly"},
	{"comparison", []string{"compare", "difference", "versus", "vs"}, "Compare and contrast the concepts"},
	{"example", []string{"example", "instance", "demonstrate"}, "Provide concrete examples"},
}

const generalInstruction = "Answer the question thoroughly"

// classifyQuestion matches the lower-cased question against the category
// table and returns the category name and its instruction.
func classifyQuestion(question string) (string, string) {
	q := strings.ToLower(question)
	for _, c := range questionCategories {
		for _, kw := range c.keywords {
			if strings.Contains(q, kw) {
				return c.name, c.instruction
			}
		}
	}
	return "general", generalInstruction
}
