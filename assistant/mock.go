package assistant

import (
	"context"
	"regexp"
	"strings"
)

func init() {
	RegisterProvider("mock", ProviderRegistration{
		DefaultModel: "guided-flow",
		Constructor: func(Settings) (Provider, error) {
			return MockProvider{}, nil
		},
	})
}

// MockProvider replies with a scripted guided flow covering leave requests
// and expense claims. It needs no network access.
type MockProvider struct{}

var (
	leaveTypes       = []string{"sick leave", "casual leave", "earned leave", "work from home"}
	expenseTypes     = []string{"travel", "meals", "office supplies"}
	monthPattern     = regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\s+\d{1,2}\b`)
	uploadedPrefix   = "receipt_uploaded:"
	mockFallbackText = "I can help with **leave requests**, **expense claims**, the dress code and office timings. What would you like to know?"
)

// Chat answers the last user message.
func (MockProvider) Chat(_ context.Context, req *Request) (*Response, error) {
	var last string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			last = req.Messages[i].Content
			break
		}
	}
	reply := mockReply(last)
	return &Response{Content: reply, Usage: Usage{CompletionTokens: len(strings.Fields(reply))}}, nil
}

func mockReply(message string) string {
	text := strings.ToLower(strings.TrimSpace(message))
	switch {
	case strings.HasPrefix(text, uploadedPrefix):
		path := strings.TrimSpace(message[len(uploadedPrefix):])
		return "Thanks, your receipt was received (" + path + "). Your expense claim has been submitted for approval."
	case containsAny(text, expenseTypes...) && len(strings.Fields(text)) <= 3:
		return "Noted. Please upload a photo or PDF of the receipt."
	case containsAny(text, leaveTypes...):
		return "Got it. Please select the date or range for your " + strings.TrimSpace(message) + "."
	case monthPattern.MatchString(text):
		return "Your leave request for " + strings.TrimSpace(message) + " has been sent to your reporting manager."
	case containsAny(text, "expense", "reimburse", "claim"):
		return "Sure. What category does this expense fall under?"
	case containsAny(text, "apply for leave", "take leave", "request leave", "take a leave", "need leave", "need a leave"):
		return "Sure. What type of leave would you like to apply for?"
	case strings.Contains(text, "leave policy"):
		return "## Leave Policy\n\n- **Sick Leave**: 12 days per year\n- **Casual Leave**: 8 days per year\n- **Earned Leave**: 15 days per year\n\nUnused earned leave can be carried forward."
	case strings.Contains(text, "dress code"):
		return "The dress code is **business casual** from Monday to Thursday. Fridays are casual."
	case containsAny(text, "office timings", "office hours", "timing"):
		return "Office timings are **9:30 AM to 6:30 PM**, Monday to Friday."
	default:
		return mockFallbackText
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
