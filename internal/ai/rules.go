package ai

import (
	"context"
	"strings"
)

type rule struct {
	keywords []string
	reply    string
}

// Ordered; the first rule with a matching keyword wins.
var replyRules = []rule{
	{[]string{"password", "login"}, "To reset your password, go to the login page and click 'Forgot Password'. You'll receive an email with reset instructions. If you don't receive the email, check your spam folder or contact support."},
	{[]string{"account", "profile"}, "You can update your account information by going to your profile settings. From there, you can change your name, email, and other personal details. Remember to save your changes!"},
	{[]string{"support", "contact"}, "You can contact our support team by creating a ticket through this dashboard. Our team typically responds within 24 hours during business days (Monday-Friday, 9 AM - 6 PM EST)."},
	{[]string{"hours", "business"}, "Our support hours are Monday through Friday, 9:00 AM to 6:00 PM EST. For urgent issues outside these hours, please create a high-priority ticket and we'll respond as soon as possible."},
	{[]string{"billing", "payment"}, "For billing inquiries, please create a support ticket with 'Billing' in the title. Include your account details and specific questions. Our billing team will respond within 1 business day."},
	{[]string{"bug", "error"}, "If you're experiencing a bug or error, please create a support ticket with detailed information including: steps to reproduce the issue, browser/device information, and any error messages. Screenshots are also helpful!"},
	{[]string{"feature", "request"}, "We love hearing feature requests! Please create a support ticket with 'Feature Request' in the title and describe what you'd like to see. Our product team reviews all suggestions."},
	{[]string{"cancel", "subscription"}, "To manage your subscription, go to your account settings and click on 'Billing & Subscription'. From there you can upgrade, downgrade, or cancel your plan. Changes take effect at the next billing cycle."},
	{[]string{"how", "tutorial"}, "For tutorials and guides, check out our Help Center in the main menu. You can also find video tutorials and step-by-step guides for common tasks. If you need specific help, feel free to ask!"},
	{[]string{"hello", "hi", "hey"}, "Hello! I'm here to help you with any questions or issues you might have. What can I assist you with today?"},
	{[]string{"thank", "thanks"}, "You're welcome! Is there anything else I can help you with today?"},
}

const defaultRuleReply = "I understand you're looking for help. For the best assistance, please create a support ticket with details about your specific question or issue. Our support team will provide you with detailed guidance. You can also try rephrasing your question if you're looking for quick help!"

// Rules answers from a fixed keyword table. It never fails and needs no network.
type Rules struct{}

// NewRules returns the rule-based provider.
func NewRules() *Rules {
	return &Rules{}
}

func (*Rules) Name() string { return "rules" }

// Complete matches only the newest message; history is ignored.
func (*Rules) Complete(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return RuleReply(req.Message), nil
}

// RuleReply returns the canned answer for text.
func RuleReply(text string) string {
	folded := fold(text)
	for _, r := range replyRules {
		for _, kw := range r.keywords {
			if strings.Contains(folded, kw) {
				return r.reply
			}
		}
	}
	return defaultRuleReply
}
