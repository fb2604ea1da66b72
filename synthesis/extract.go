package synthesis

import (
	"regexp"
	"strings"
)

var fenced = regexp.MustCompile("(?s)```[^\\n`]*\\n(.*?)```")

// ExtractCode returns the first fenced block of text, or the whole text
func ExtractCode(text string) string {
	if m := fenced.FindStringSubmatch(text); m != nil {
		return strings.TrimRight(m[1], "\n")
	}
	return strings.TrimSpace(text)
}
