package classifier

import (
	"strings"

	"inbox-scout-go/internal/model"
)

// Rule is one deterministic predicate over a lower-cased email. Rules are
// evaluated in declaration order and the first match wins, so the order
// of DefaultRules is part of the classification contract.
type Rule struct {
	Name     string
	Category model.Category
	Match    func(subject, from, body string) bool
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// DefaultRules returns the built-in rule list.
func DefaultRules() []Rule {
	return []Rule{
		{
			// Assessment / online test scheduling language.
			Name:     "assessment-invite",
			Category: model.CategoryInterested,
			Match: func(subject, from, body string) bool {
				return containsAny(subject,
					"test",
					"assessment",
					"online test",
					"coding test",
					"conducted on",
					"exam",
				)
			},
		},
		{
			// OTP / verification / email confirmation.
			Name:     "verification-code",
			Category: model.CategoryGeneral,
			Match: func(subject, from, body string) bool {
				return containsAny(subject, "verification code", "confirm your email", "confirmation code") ||
					containsAny(body, "verification code", "confirm your email", "one-time password", "otp")
			},
		},
		{
			// Application feedback / survey emails.
			Name:     "feedback-survey",
			Category: model.CategoryGeneral,
			Match: func(subject, from, body string) bool {
				return containsAny(subject, "share feedback", "satisfaction survey") ||
					strings.Contains(body, "satisfaction survey")
			},
		},
		{
			// Job board newsletters and bulk campaigns.
			Name:     "job-board-bulk",
			Category: model.CategorySpam,
			Match: func(subject, from, body string) bool {
				return containsAny(from, "dare2compete.news", "unstop", "wellfound", "naukri") ||
					containsAny(subject, "new jobs", "last chance", "final call")
			},
		},
		{
			// LinkedIn digests and message notifications.
			Name:     "linkedin-digest",
			Category: model.CategoryGeneral,
			Match: func(subject, from, body string) bool {
				return strings.Contains(from, "linkedin.com") &&
					containsAny(subject,
						"messaged you",
						"connections",
						"job alert",
						"posts got",
						"you have",
						"notifications",
					)
			},
		},
	}
}
