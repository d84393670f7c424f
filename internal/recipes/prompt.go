package recipes

import "strings"

const systemPrompt = "You are a helpful assistant."

// BuildPrompt renders the user message sent to the model for the given items.
func BuildPrompt(items []string) string {
	return "Please suggest a short recipe using these items: " + strings.Join(items, ", ") +
		". Be concise and provide only the essential details, including a list of ingredients and brief instructions." +
		" The Response should contain two parts. Recipe and Instructions. Write in markdown"
}

// normalizeItems trims entries, drops blanks and keeps the first spelling of
// case-insensitive duplicates.
func normalizeItems(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, raw := range items {
		item := strings.TrimSpace(raw)
		if item == "" {
			continue
		}
		key := strings.ToLower(item)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}
