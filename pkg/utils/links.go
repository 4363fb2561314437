package utils

import "regexp"

var urlRegex = regexp.MustCompile(`https://\S+`)

// ExtractLinks returns every https URL found in text, in order of
// appearance and without deduplication. Nil when there are no matches.
func ExtractLinks(text string) []string {
	return urlRegex.FindAllString(text, -1)
}
