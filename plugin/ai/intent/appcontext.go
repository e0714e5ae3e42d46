package intent

import "strings"

// AppContext is a read-only snapshot of the frontmost application, captured once
// at the start of a pipeline run.
type AppContext struct {
	AppID              string `json:"app_id"`
	AppName            string `json:"app_name"`
	WindowTitle        string `json:"window_title,omitempty"`
	FocusedElementRole string `json:"focused_element_role,omitempty"`
	SelectedText       string `json:"selected_text,omitempty"`
	URL                string `json:"url,omitempty"`
}

// EmptyContext is returned when there is no frontmost app or no permission to read it.
func EmptyContext() AppContext {
	return AppContext{
		AppID:   "unknown",
		AppName: "Unknown",
	}
}

// Known application identifiers.
var (
	browserAppIDs = map[string]struct{}{
		"com.apple.Safari":           {},
		"com.google.Chrome":          {},
		"com.brave.Browser":          {},
		"org.mozilla.firefox":        {},
		"com.microsoft.edgemac":      {},
		"com.vivaldi.Vivaldi":        {},
		"company.thebrowser.Browser": {}, // Arc
	}

	emailAppIDs = map[string]struct{}{
		"com.apple.mail":                    {},
		"com.microsoft.Outlook":             {},
		"com.readdle.smartemail-macos":      {}, // Spark Classic
		"com.readdle.SparkDesktop":          {},
		"com.readdle.SparkDesktop.appstore": {},
	}

	messagingAppIDs = map[string]struct{}{
		"com.apple.MobileSMS":       {},
		"com.tinyspeck.slackmacgap": {},
		"ru.keepcoder.Telegram":     {},
		"com.hnc.Discord":           {},
	}
)

// IsBrowser reports whether the frontmost app is a known web browser.
func (c AppContext) IsBrowser() bool {
	_, ok := browserAppIDs[c.AppID]
	return ok
}

// IsEmailClient reports whether the frontmost app is a known email client.
func (c AppContext) IsEmailClient() bool {
	_, ok := emailAppIDs[c.AppID]
	return ok
}

// IsMessagingApp reports whether the frontmost app is a known messaging app.
func (c AppContext) IsMessagingApp() bool {
	_, ok := messagingAppIDs[c.AppID]
	return ok
}

// HasEditableField reports whether a text field has focus.
func (c AppContext) HasEditableField() bool {
	return c.FocusedElementRole == "AXTextArea" || c.FocusedElementRole == "AXTextField"
}

// maxSelectedInSummary bounds the selected text embedded in prompts.
const maxSelectedInSummary = 200

// PromptSummary renders a short description of the context for LLM prompts.
func (c AppContext) PromptSummary() string {
	parts := []string{"App: " + c.AppName}
	if c.WindowTitle != "" {
		parts = append(parts, "Window: "+c.WindowTitle)
	}
	if c.SelectedText != "" {
		selected := []rune(c.SelectedText)
		if len(selected) > maxSelectedInSummary {
			selected = selected[:maxSelectedInSummary]
		}
		parts = append(parts, "Selected: "+string(selected))
	}
	if c.URL != "" {
		parts = append(parts, "URL: "+c.URL)
	}
	return strings.Join(parts, "\n")
}
