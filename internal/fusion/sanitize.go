package fusion

import "regexp"

// absolutePath matches unix-style absolute paths so handler error messages
// never leak the host filesystem layout to a model-facing caller.
var absolutePath = regexp.MustCompile(`/(?:[\w.\-]+/)*[\w.\-]+`)

func scrubPaths(msg string) string {
	return absolutePath.ReplaceAllString(msg, "<path>")
}
