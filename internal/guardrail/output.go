package guardrail

import (
	"fmt"
	"regexp"
	"strings"
)

// sensitivePatterns match credential-like strings, connection strings,
// sensitive environment-variable names, and filesystem paths that must
// never reach a guest.
var sensitivePatterns = []*regexp.Regexp{
	// API keys and credentials in common assignment shapes.
	regexp.MustCompile(`(?i)api[_-]?key["']?\s*[:=]\s*["']?[\w-]{10,}`),
	regexp.MustCompile(`(?i)sk-[\w-]{10,}`),
	regexp.MustCompile(`(?i)secret[_-]?key["']?\s*[:=]\s*["']?[\w-]{10,}`),
	regexp.MustCompile(`(?i)password["']?\s*[:=]\s*["']?[\w-]+`),
	regexp.MustCompile(`(?i)token["']?\s*[:=]\s*["']?[\w-]{20,}`),

	// Database connection strings.
	regexp.MustCompile(`(?i)mongodb://[\w:@.-]+`),
	regexp.MustCompile(`(?i)postgres://[\w:@.-]+`),
	regexp.MustCompile(`(?i)mysql://[\w:@.-]+`),

	// Environment variables that must not be echoed.
	regexp.MustCompile(`OPENAI_API_KEY`),
	regexp.MustCompile(`DATABASE_URL`),
	regexp.MustCompile(`SECRET_KEY`),

	// Internal filesystem paths.
	regexp.MustCompile(`/home/[\w/]+`),
	regexp.MustCompile(`/var/[\w/]+`),
	regexp.MustCompile(`/etc/[\w/]+`),
	regexp.MustCompile(`C:\\Users\\[\w\\]+`),
}

// inappropriateWords trip the output filter unless an allowed context
// appears alongside (e.g. "injection" next to "prevention").
var inappropriateWords = []string{
	"hack", "exploit", "vulnerability", "injection",
	"malware", "virus", "trojan", "backdoor",
	"profanity", "explicit", "inappropriate",
}

// outOfScopePatterns are word groups whose co-occurrence means the
// assistant drifted into territory a restaurant has no business in.
var outOfScopePatterns = [][]string{
	{"how", "to", "hack"},
	{"how", "to", "exploit"},
	{"bypass", "security"},
	{"code", "injection"},
	{"system", "command"},
}

// phoneRes cover US and Singapore phone number shapes.
var phoneRes = []*regexp.Regexp{
	regexp.MustCompile(`\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`),
	regexp.MustCompile(`\(\d{3}\)\s?\d{3}[-.]?\d{4}`),
	regexp.MustCompile(`\b[689]\d{3}[-.]?\d{4}\b`),
	regexp.MustCompile(`\b\d{4}[-.]?\d{4}\b`),
}

var emailRe = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

// CheckOutput screens assistant-intended text before it reaches the
// client. Like CheckInput, it short-circuits on the first matching rule.
func CheckOutput(text string, limits Limits) Verdict {
	v := Verdict{Checked: true, Length: len(text)}
	lower := strings.ToLower(text)

	for _, re := range sensitivePatterns {
		if re.MatchString(text) {
			pattern := re.String()
			if len(pattern) > 30 {
				pattern = pattern[:30] + "..."
			}
			v.TripwireTriggered = true
			v.Issue = "Output contains potentially sensitive information matching pattern: " + pattern
			return v
		}
	}

	for _, word := range inappropriateWords {
		if !strings.Contains(lower, word) {
			continue
		}
		// Contextual exceptions: defensive mentions are fine.
		if word == "injection" && strings.Contains(lower, "prevention") {
			continue
		}
		if word == "vulnerability" && (strings.Contains(lower, "report") || strings.Contains(lower, "fix")) {
			continue
		}
		v.TripwireTriggered = true
		v.Issue = "Output contains potentially inappropriate content: " + word
		return v
	}

	for _, pattern := range outOfScopePatterns {
		if containsAll(lower, pattern) {
			v.TripwireTriggered = true
			v.Issue = "Output attempts to provide out-of-scope information: " + strings.Join(pattern, " ")
			return v
		}
	}

	// Distinct matches only: repeating the restaurant's own number three
	// times is not a privacy leak.
	phones := make(map[string]struct{})
	for _, re := range phoneRes {
		for _, m := range re.FindAllString(text, -1) {
			phones[m] = struct{}{}
		}
	}
	if len(phones) > limits.MaxPhoneNumbers {
		v.TripwireTriggered = true
		v.Issue = fmt.Sprintf("Output contains multiple phone numbers (%d), potential privacy issue", len(phones))
		return v
	}

	emails := make(map[string]struct{})
	for _, m := range emailRe.FindAllString(text, -1) {
		emails[m] = struct{}{}
	}
	if len(emails) > limits.MaxEmails {
		v.TripwireTriggered = true
		v.Issue = fmt.Sprintf("Output contains multiple email addresses (%d), potential privacy issue", len(emails))
		return v
	}

	return v
}
