package llm

import (
	"regexp"
	"strings"
)

var (
	openFence  = regexp.MustCompile("^```[a-zA-Z]*\\s*")
	closeFence = regexp.MustCompile("\\s*```\\s*$")
)

// StripFences removes a markdown code fence wrapped around a model reply
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	text = openFence.ReplaceAllString(text, "")
	text = closeFence.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
