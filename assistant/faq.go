package assistant

import (
	"math"
	"strings"
	"unicode"
)

// DefaultFAQThreshold is the minimum similarity for a manual answer.
const DefaultFAQThreshold = 0.75

// FAQEntry is one manually curated question and its answer.
type FAQEntry struct {
	Question string `yaml:"question" json:"question"`
	Answer   string `yaml:"answer" json:"answer"`
}

// FAQ is the manual answer table consulted before the LLM.
type FAQ []FAQEntry

// Match returns the answer of the most similar question when its cosine
// similarity reaches threshold.
func (f FAQ) Match(query string, threshold float64) (answer string, score float64, ok bool) {
	q := termVector(query)
	if len(q) == 0 {
		return "", 0, false
	}
	best := -1
	for i, entry := range f {
		s := cosine(q, termVector(entry.Question))
		if s > score {
			score, best = s, i
		}
	}
	if best < 0 || score < threshold {
		return "", score, false
	}
	return f[best].Answer, score, true
}

var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "i": true, "my": true, "me": true,
	"do": true, "is": true, "to": true, "of": true, "for": true, "at": true,
	"if": true, "or": true, "and": true, "there": true, "any": true, "can": true,
}

func termVector(s string) map[string]float64 {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	v := make(map[string]float64, len(words))
	for _, w := range words {
		if stopWords[w] {
			continue
		}
		v[strings.TrimSuffix(w, "s")]++
	}
	return v
}

func cosine(a, b map[string]float64) float64 {
	var dot, na, nb float64
	for k, x := range a {
		na += x * x
		dot += x * b[k]
	}
	for _, y := range b {
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// DefaultFAQ returns the built-in manual answers.
func DefaultFAQ() FAQ {
	return FAQ{
		{"How do I raise a technical support ticket?", "To raise a technical support ticket, please email IT at itsupport@mpccloudconsulting.com with a short description and any screenshots of the issue."},
		{"Who do I contact if my biometric punch-in is not recorded?", "If your punch-in is missed, please reach out to your reporting manager and send an email to attendance@mpccloudconsulting.com."},
		{"Where can I check my leave balance?", "You can check your leave balance on the internal HRMS portal. If you don't have access, drop a note to hrsupport@mpccloudconsulting.com."},
		{"Is there a canteen or food arrangement at the office?", "Yes, we have a pantry with tea and coffee. For meals, employees usually step out or order online. No full canteen service is available currently."},
		{"What should I do if I forget my ID card?", "If you forget your ID card, inform your team lead and security. A temporary entry slip can be issued for the day."},
		{"Are there any team outings or events planned?", "Team outings are planned on a quarterly basis. Keep an eye on the internal Teams channels or WhatsApp Group for any announcements."},
		{"How do I get my Form 16?", "Form 16s are emailed directly by the finance team at the end of each financial year. You can request a duplicate from finance@mpccloudconsulting.com."},
		{"Can I work remotely permanently?", "Permanent WFH is not currently offered. However, hybrid flexibility can be discussed with your reporting manager."},
		{"Who do I talk to about payroll discrepancies?", "For payroll-related queries, email payroll@mpccloudconsulting.com. They usually respond within 1-2 business days."},
		{"What is the probation period?", "The standard probation period is 3 months, but it may vary based on role or department. Please check with your HR."},
		{"Are internships paid?", "No, internships are generally not paid. The stipend amount is communicated in your offer letter or onboarding email if any."},
		{"What's the procedure for resignation?", "Resignation must be submitted via email to your reporting manager and HR. A notice period of 30-60 days applies."},
		{"Can I change my shift timing?", "Shift changes can be requested through your manager and are approved based on team requirements."},
		{"How are public holidays decided?", "Public holidays are based on the company's annual holiday calendar, usually aligned with regional guidelines."},
		{"Is there any cab/shuttle facility for work hours?", "Yes, there is the shuttle provided by the building that transports employees from metro station to the office building. The shuttle offers services every 15/20 minutes."},
		{"Can I bring a guest to the office?", "Visitors must be approved by your team lead and the Admin team in advance. ID verification is required."},
		{"Where do I submit travel reimbursement bills?", "All travel bills must be uploaded to the Travel module of the HRMS within 7 days of the trip."},
		{"What's the policy for internal transfers?", "Internal transfers can be requested after 6 months of tenure, subject to approval from both departments."},
		{"Are Saturdays off?", "No, the office has a 5-day work week from Monday to Friday. Saturdays and Sundays are off."},
	}
}
