package tickets

import "strings"

// Component custom IDs used on the panel and inside ticket channels.
const (
	ButtonGeneral = "general-support"
	ButtonReport  = "report-user"
	ButtonUnban   = "unban-request"
	ButtonClose   = "close-ticket"
	ButtonDelete  = "delete-ticket"
)

// Category is one of the fixed ticket kinds. Roles holds the NAMES of the
// guild roles notified for this category; they are resolved to role IDs
// against the live guild role list when a ticket is created.
type Category struct {
	Key      string
	ButtonID string
	Slug     string

	Label string
	Emoji string

	Title       string
	Description string
	Color       int

	Roles []string
}

// DefaultCategories returns the three supported categories with their
// built-in display templates. Role names are overlaid from config at startup.
func DefaultCategories() []Category {
	return []Category{
		{
			Key:         "general",
			ButtonID:    ButtonGeneral,
			Slug:        "general-support",
			Label:       "General Support",
			Emoji:       "🎫",
			Title:       "General Support",
			Description: "Describe your issue and a staff member will assist you shortly.",
			Color:       0x5865F2,
		},
		{
			Key:         "report",
			ButtonID:    ButtonReport,
			Slug:        "user-report",
			Label:       "Report User",
			Emoji:       "🚨",
			Title:       "User Report",
			Description: "Tell us who you are reporting and what happened. Screenshots help.",
			Color:       0xED4245,
		},
		{
			Key:         "unban",
			ButtonID:    ButtonUnban,
			Slug:        "unban-request",
			Label:       "Unban Request",
			Emoji:       "🔓",
			Title:       "Unban Request",
			Description: "Tell us which account was banned and why you should be unbanned.",
			Color:       0xFEE75C,
		},
	}
}

// CategoryByButton maps a panel button custom ID to its category.
func CategoryByButton(cats []Category, buttonID string) (Category, bool) {
	for _, c := range cats {
		if c.ButtonID == buttonID {
			return c, true
		}
	}
	return Category{}, false
}

// firstSlugToken is the first hyphen-delimited token of the channel slug,
// used by the looser type-match fallback ("user" for "user-report").
func (c Category) firstSlugToken() string {
	if i := strings.Index(c.Slug, "-"); i > 0 {
		return c.Slug[:i]
	}
	return c.Slug
}
