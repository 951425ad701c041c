package speech

import (
	"regexp"
	"strings"
)

// envAnnotation matches whisper environmental annotations like
// "(keyboard clicking)", "[laughter]", "(speaking French)".
var envAnnotation = regexp.MustCompile(`[\(\[][a-zA-Z_][a-zA-Z_\s]*[\)\]]`)

// timestampPrefix matches "[00:00:00.000 --> 00:00:05.000]".
var timestampPrefix = regexp.MustCompile(`^\[\d{2}:\d{2}[:.\d]*\s*-->\s*\d{2}:\d{2}[:.\d]*\]\s*`)

var spaces = regexp.MustCompile(`\s+`)

// hallucinations are whole-clip outputs whisper produces on silence.
var hallucinations = map[string]bool{
	"...":                     true,
	"you":                     true,
	"thank you.":              true,
	"thank you":               true,
	"thanks for watching!":    true,
	"thank you for watching.": true,
	"bye.":                    true,
	"bye!":                    true,
	"the end.":                true,
}

// cleanTranscription collapses whitespace and strips whisper artifacts:
// bracketed annotations, timestamp prefixes, and known silence
// hallucinations. The result is "" when nothing was actually said.
func cleanTranscription(s string) string {
	var parts []string
	for _, line := range strings.Split(s, "\n") {
		line = timestampPrefix.ReplaceAllString(strings.TrimSpace(line), "")
		if line != "" {
			parts = append(parts, line)
		}
	}
	s = strings.Join(parts, " ")
	s = envAnnotation.ReplaceAllString(s, "")
	s = strings.TrimSpace(spaces.ReplaceAllString(s, " "))

	if hallucinations[strings.ToLower(s)] {
		return ""
	}
	return s
}
