package thumbnail

import (
	"log/slog"
	"strings"

	"reelpress/internal/logging"
)

// renderPrompt substitutes {variable} placeholders in a template prompt.
// Placeholders without a value render empty so a sparse database row
// still yields a usable prompt; each miss is logged once.
func renderPrompt(logger *slog.Logger, template Template, values map[string]string) string {
	prompt := template.Prompt
	for _, variable := range template.Variables {
		value, ok := values[variable]
		if !ok || value == "" {
			logger.Warn("prompt variable is empty",
				logging.String("pattern", string(template.ID)),
				logging.String("variable", variable))
		}
		prompt = strings.ReplaceAll(prompt, "{"+variable+"}", value)
	}
	return prompt
}
