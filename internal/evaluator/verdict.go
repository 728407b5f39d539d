package evaluator

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	resultPattern    = regexp.MustCompile(`(?i)RESULT:\s*(YES|NO|JA|NEIN)`)
	reasoningPattern = regexp.MustCompile(`(?is)REASONING:\s*(.+)`)
)

// BuildPrompt embeds question and answer into a criterion's judge
// instructions and appends the expected response format.
func BuildPrompt(criterionPrompt, question, answer string) string {
	return fmt.Sprintf(`%s

Question: %s

Answer: %s

Provide your evaluation in the following format:
RESULT: YES or NO
REASONING: Your explanation here`, criterionPrompt, question, answer)
}

// ParseVerdict extracts the pass/fail result and reasoning from a judge
// response. A response without a result marker fails. Without a reasoning
// marker the raw text is the reasoning.
func ParseVerdict(text string) (passed bool, reasoning string) {
	if m := resultPattern.FindStringSubmatch(text); m != nil {
		switch strings.ToUpper(m[1]) {
		case "YES", "JA":
			passed = true
		}
	}

	reasoning = text
	if m := reasoningPattern.FindStringSubmatch(text); m != nil {
		reasoning = strings.TrimSpace(m[1])
	}
	return passed, reasoning
}
