// Package marker detects the out-of-band completion signal the assistant
// embeds in its replies once a lead's required fields are captured.
package marker

import "strings"

// Sentinel is emitted by the model when name and callback number are known.
// Matching is exact and case-sensitive.
const Sentinel = "[MAIL_SENDEN]"

// Detect reports whether text contains the sentinel.
func Detect(text string) bool {
	return strings.Contains(text, Sentinel)
}

// Strip removes every occurrence of the sentinel and leaves the rest of the
// text untouched, surrounding whitespace included.
func Strip(text string) string {
	return strings.ReplaceAll(text, Sentinel, "")
}
