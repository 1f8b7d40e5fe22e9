package token

// Estimate approximates the token count of text at four bytes per token.
// It is only used for reporting; nothing is truncated on its basis.
func Estimate(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + 3) / 4
}
