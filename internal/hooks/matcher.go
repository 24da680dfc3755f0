package hooks

import (
	"regexp"
	"strings"
)

// simpleMatcherPattern recognizes literal/pipe-joined token matchers; anything
// outside this alphabet is treated as a regular expression.
var simpleMatcherPattern = regexp.MustCompile(`^[a-zA-Z0-9_|]+$`)

// matcherMatches reports whether a hook's matcher string selects the given
// tool name. An empty matcher matches everything.
func matcherMatches(matcher string, toolName string) bool {
	if matcher == "" {
		return true
	}
	if toolName == "" {
		return false
	}

	if simpleMatcherPattern.MatchString(matcher) {
		if strings.Contains(matcher, "|") {
			for _, part := range strings.Split(matcher, "|") {
				if strings.TrimSpace(part) == toolName {
					return true
				}
			}
			return false
		}
		return matcher == toolName
	}

	regex, err := regexp.Compile(matcher)
	if err != nil {
		return false
	}
	return regex.MatchString(toolName)
}
