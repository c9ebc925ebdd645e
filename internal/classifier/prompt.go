package classifier

import (
	"fmt"
	"regexp"
	"strings"

	"inbox-scout-go/internal/model"
)

// contentLimit caps how much of the email's text goes into the prompt.
// Truncation happens before whitespace collapsing.
const contentLimit = 600

var whitespaceRun = regexp.MustCompile(`\s+`)

const promptTemplate = `You are an email classifier for a personal inbox.

You must classify this email into EXACTLY ONE of these categories:
- Interested
- Not Interested
- Meeting Booked
- Spam
- General

DEFINITIONS:
- Interested:
    - The sender is clearly interested in the user.
    - Examples: interview invite, "we would like to talk", "we are impressed", "we want to proceed", "let's schedule a call".
    - Emails announcing an online test, assessment date, or exam schedule
    (e.g., "Test to be conducted on 27th Nov", "Your assessment is scheduled") are ALWAYS "Interested".
- Not Interested:
    - Clear rejection or negative decision.
    - Examples: "we have decided not to move forward", "unfortunately", "we went with other candidates", "not a fit right now".
- Meeting Booked:
    - A specific meeting time/date is CONFIRMED or a calendar invite is sent.
- Spam:
    - Marketing emails, promotions, newsletters, discount offers, bulk campaigns.
    - Job boards sending generic job listings or newsletters are Spam.
    - DO NOT use Spam for system or product notifications, exam/test registrations, coding test details, or application status updates.
- General:
    - Notifications, connection requests, message notifications, verification codes, password reset, email confirmations, neutral updates, system/dev alerts, exam or test registrations.

IMPORTANT SPECIAL CASES:
- Emails with verification codes or email confirmation links are ALWAYS "General", NEVER "Spam".
- LinkedIn message or connection notifications without clear marketing are "General".
- Infra or system emails (cluster alerts, bot account notices) are "General", not Spam.
- When you are unsure, prefer "General" instead of "Spam".

EXAMPLES (study carefully):

Example 1:
Subject: Your amazon.jobs verification code
Body: "YOUR AMAZON.JOBS VERIFICATION CODE ... This code will be active for 10 minutes..."
Correct category: General

Example 2:
Subject: [Hugging Face] Click this link to confirm your email address
Body: "Confirm your email address by clicking on this link..."
Correct category: General

Example 3:
Subject: New jobs: Lead - Full Stack Engineer at Finovant and 6 more jobs
Body: "Hi! I've found 7 new jobs that might interest you!"
Correct category: Spam

Example 4:
Subject: Regarding your application to Cohesity
Body: "Thank you for applying ... unfortunately we will not move forward..."
Correct category: Not Interested

Example 5:
Subject: Share feedback on your application process with Cohesity
Body: "We would love to hear your feedback on our application process..."
Correct category: General

Example 6:
Subject: Nikeet just messaged you
Body: "You have 2 new messages"
Correct category: General

Example 7:
Subject: Your MongoDB Atlas M0 cluster will be automatically paused in 7 days
Body: "Your free cluster will be paused unless..."
Correct category: General

Example 8:
Subject: ThreadWise Bot on Slack: New Account Details
Body: "Your new account has been created..."
Correct category: General

Example 9:
Subject: Update: iqigai.ai by fractal | Registration | Test to be conducted on 27th Nov 2025
Body: "Your test is scheduled..."
Correct category: Interested

Now classify THIS email.

EMAIL:
Subject: %s
From: %s
Content: %s

RULES FOR ANSWER:
- Respond with ONLY ONE WORD from this list: Interested, Not Interested, Meeting Booked, Spam, General
- No extra text, no punctuation, no explanation.

Answer:`

// BuildPrompt assembles the bounded classification prompt for one record.
func BuildPrompt(record model.EmailRecord) string {
	content := record.Body
	if content == "" {
		content = record.Snippet
	}

	text := record.Subject + "\n\n" + content
	runes := []rune(text)
	if len(runes) > contentLimit {
		text = string(runes[:contentLimit])
	}
	text = whitespaceRun.ReplaceAllString(text, " ")

	subject := record.Subject
	if subject == "" {
		subject = "(no subject)"
	}
	from := record.From
	if from == "" {
		from = "(unknown)"
	}

	return strings.TrimSpace(fmt.Sprintf(promptTemplate, subject, from, text))
}
