package classifier

import (
	"regexp"
	"strings"

	"github.com/hrygo/talkagent/plugin/ai/intent"
)

// Confidence values assigned by RuleClassifier.
// A rule match scores lower than the no-match default so that a wrong rule is
// gated exactly like ambiguous text.
const (
	RuleMatchConfidence = 0.8
	NoMatchConfidence   = 0.9
)

type rule struct {
	pattern *regexp.Regexp
	action  intent.ActionType
}

// RuleClassifier is the pattern-based fallback classifier.
// Rules are evaluated in order and the first match wins.
type RuleClassifier struct {
	rules []rule
}

var (
	emailKeywords   = []string{"email", "mail", "draft", "compose"}
	messageKeywords = []string{"text", "imessage", "message"}
	bodySeparators  = []string{" about ", " saying ", " that ", " regarding ", " with "}
)

// NewRuleClassifier creates a rule classifier with the built-in rule table.
func NewRuleClassifier() *RuleClassifier {
	definitions := []struct {
		pattern string
		action  intent.ActionType
	}{
		{`^(?:search|look up|find|google)\s+(?:for\s+)?(.+)`, intent.ActionSearch},
		{`^(?:open|launch|start|switch to)\s+(.+)`, intent.ActionOpen},
		// reply phrasing is checked before the generic create rule
		{`^(?:draft|write|compose|send)\s+(?:an?\s+)?(?:email|mail|message)\s+(?:to\s+)?(.+)`, intent.ActionReply},
		{`^(?:email|mail)\s+(.+)`, intent.ActionReply},
		{`^(?:reply|respond|answer)\s+(?:saying|with|that)?\s*(.+)`, intent.ActionReply},
		{`^(?:create|make|new|add)\s+(?:a\s+)?(.+)`, intent.ActionCreate},
		{`^(?:summarize|sum up|give me a summary|tldr)\s*(.+)?`, intent.ActionSummarize},
		{`^(?:make|convert|rewrite|format)\s+(?:this|it|that)\s+(.+)`, intent.ActionTransform},
	}

	rules := make([]rule, 0, len(definitions))
	for _, d := range definitions {
		rules = append(rules, rule{
			pattern: regexp.MustCompile(`(?i)` + d.pattern),
			action:  d.action,
		})
	}
	return &RuleClassifier{rules: rules}
}

// Classify never fails and accepts any string, including "".
func (c *RuleClassifier) Classify(text string) intent.Intent {
	trimmed := strings.TrimSpace(text)

	for _, r := range c.rules {
		m := r.pattern.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}

		content := trimmed
		if len(m) > 1 {
			if captured := strings.TrimSpace(m[1]); captured != "" {
				content = captured
			}
		}

		var target string
		if r.action == intent.ActionOpen {
			target = content
		}

		return intent.New(r.action, target, extractParameters(trimmed), content, text, RuleMatchConfidence)
	}

	return intent.New(intent.ActionDictate, "", nil, trimmed, text, NoMatchConfidence)
}

// extractParameters detects the medium and, for email, splits "to X about Y".
func extractParameters(text string) map[string]string {
	params := make(map[string]string)
	lower := strings.ToLower(text)

	if containsAny(lower, emailKeywords) {
		params[intent.ParamMedium] = intent.MediumEmail

		if i := indexFold(text, "to "); i >= 0 {
			afterTo := strings.TrimSpace(text[i+len("to "):])
			recipient, body := afterTo, ""
			for _, sep := range bodySeparators {
				if j := indexFold(afterTo, sep); j >= 0 {
					recipient = afterTo[:j]
					body = strings.TrimSpace(afterTo[j+len(sep):])
					break
				}
			}
			params[intent.ParamTo] = strings.TrimSpace(recipient)
			if body != "" {
				params[intent.ParamBody] = body
			}
		}
	}

	// message keywords override email
	if containsAny(lower, messageKeywords) {
		params[intent.ParamMedium] = intent.MediumMessage
	}

	return params
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// indexFold is an ASCII case-insensitive strings.Index that keeps byte offsets valid for s.
func indexFold(s, substr string) int {
	n := len(substr)
	for i := 0; i+n <= len(s); i++ {
		if strings.EqualFold(s[i:i+n], substr) {
			return i
		}
	}
	return -1
}
