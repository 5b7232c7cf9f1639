// Package guardrail implements content-safety filtering for the voice
// assistant. Two stateless classifiers check text crossing the session
// boundary: CheckInput screens user-intended text before it reaches the
// model, CheckOutput screens assistant transcripts before they reach the
// client. Both are pure functions of their input and safe for concurrent
// use from multiple sessions.
package guardrail

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
)

// Verdict is the result of a single guardrail check. Ephemeral: nothing
// beyond the per-session counters survives it.
type Verdict struct {
	Checked           bool   `json:"checked"`
	TripwireTriggered bool   `json:"tripwire_triggered"`
	Issue             string `json:"issue_detected,omitempty"`
	Length            int    `json:"length"`
}

// Limits holds the tunable thresholds. The phone/email counts looked
// demo-tuned in practice, so they are configuration rather than constants.
type Limits struct {
	MaxInputLength  int // hard ceiling on input characters
	MaxPartySize    int // largest party size an input may mention
	MaxPhoneNumbers int // distinct phone-shaped substrings allowed in output
	MaxEmails       int // distinct email-shaped substrings allowed in output
}

// DefaultLimits returns the production default thresholds.
func DefaultLimits() Limits {
	return Limits{
		MaxInputLength:  5000,
		MaxPartySize:    50,
		MaxPhoneNumbers: 3,
		MaxEmails:       2,
	}
}

// Stats counts guardrail activity for one session. The inbound and
// outbound pumps update it concurrently, hence the atomics.
type Stats struct {
	InputsChecked  atomic.Int64
	InputsBlocked  atomic.Int64
	OutputsChecked atomic.Int64
	OutputsBlocked atomic.Int64
}

// Snapshot returns the counters as a plain map for logging.
func (s *Stats) Snapshot() map[string]int64 {
	return map[string]int64{
		"inputs_checked":  s.InputsChecked.Load(),
		"inputs_blocked":  s.InputsBlocked.Load(),
		"outputs_checked": s.OutputsChecked.Load(),
		"outputs_blocked": s.OutputsBlocked.Load(),
	}
}

// prohibitedPatterns are word groups that must all co-occur in an input
// to trip the filter. Order matters only for which reason is reported.
var prohibitedPatterns = [][]string{
	// Attempts to access the system or execute commands.
	{"system", "command"}, {"execute", "script"}, {"run", "code"},
	{"bash", "shell"}, {"sudo", "admin"}, {"password", "credential"},

	// Attempts to manipulate or access unauthorized data.
	{"delete", "all"}, {"drop", "table"}, {"sql", "injection"},
	{"hack", "system"}, {"bypass", "security"}, {"exploit", "vulnerability"},

	// Inappropriate content.
	{"illegal", "activity"}, {"harmful", "content"}, {"explicit", "material"},

	// Attempts to push the assistant outside its scope.
	{"ignore", "instructions"}, {"forget", "rules"}, {"override", "settings"},
	{"pretend", "you"}, {"act", "as"}, {"roleplay", "as"},

	// Financial fraud attempts.
	{"credit", "card", "fraud"}, {"steal", "money"}, {"launder", "money"},
	{"phishing", "scam"}, {"identity", "theft"},
}

// systemInfoKeywords trip the input filter on their own.
var systemInfoKeywords = []string{
	"api key", "api_key", "secret key", "private key",
	"environment variable", "env var", "config file",
	"database password", "db password", "connection string",
	"internal system", "backend system", "server info",
}

var partySizeRe = regexp.MustCompile(`\b(\d+)\s*(people|guests|party)\b`)

// CheckInput screens user-intended text. It short-circuits on the first
// matching rule; the order only affects which reason is reported.
func CheckInput(text string, limits Limits) Verdict {
	v := Verdict{Checked: true, Length: len(text)}
	lower := strings.ToLower(text)

	for _, pattern := range prohibitedPatterns {
		if containsAll(lower, pattern) {
			v.TripwireTriggered = true
			v.Issue = "Input contains potentially harmful pattern: " + strings.Join(pattern, " ")
			return v
		}
	}

	for _, keyword := range systemInfoKeywords {
		if strings.Contains(lower, keyword) {
			v.TripwireTriggered = true
			v.Issue = "Input requests sensitive system information: " + keyword
			return v
		}
	}

	if len(text) > limits.MaxInputLength {
		v.TripwireTriggered = true
		v.Issue = "Input exceeds maximum allowed length"
		return v
	}

	if m := partySizeRe.FindStringSubmatch(lower); m != nil {
		if size, err := strconv.Atoi(m[1]); err == nil && size > limits.MaxPartySize {
			v.TripwireTriggered = true
			v.Issue = fmt.Sprintf("Unreasonable party size requested: %d", size)
			return v
		}
	}

	return v
}

func containsAll(text string, words []string) bool {
	for _, w := range words {
		if !strings.Contains(text, w) {
			return false
		}
	}
	return true
}
