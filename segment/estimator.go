package segment

import "encoding/json"

// charsPerToken is the rough characters-per-token ratio of the oracle's
// tokenizer family for English prose. The planner keeps a safety margin on
// top, so exact tokenizer fidelity is not required here.
const charsPerToken = 4

// EstimateTokens approximates the token cost of text. It is deterministic,
// monotonic under concatenation, and never negative.
func EstimateTokens(text string) int {
	return (len(text) + charsPerToken - 1) / charsPerToken
}

// WordOverheadTokens measures the per-word token overhead of serializing a
// word-timestamp record into the oracle prompt. It serializes one
// representative record and estimates its cost.
func WordOverheadTokens() int {
	sample, err := json.Marshal(Word{Text: "representative", Start: 3599.875, End: 3600.425})
	if err != nil {
		return 12
	}
	return EstimateTokens(string(sample))
}
