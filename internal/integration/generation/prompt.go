package generation

import "strings"

// systemPrompt pins the artifact contract the validation engine checks:
// a standalone HTML document with the expected runtime includes.
const systemPrompt = `You generate standalone HTML diagrams.

Rules:
- Output a complete HTML document starting with <!DOCTYPE html>, with <html>, <head> and <body> tags.
- Include Tailwind via <script src="https://cdn.tailwindcss.com"></script>.
- If you use lucide icons, call lucide.createIcons() after the DOM is ready.
- Never use <iframe>, <object>, <embed> or <frame> elements.
- The layout must not overflow horizontally on narrow viewports.
- Give every <img> an alt attribute and every <button> accessible text.
- Output only the HTML document, no commentary.`

// extractHTML pulls the HTML document out of a model response, stripping a
// markdown code fence when present.
func extractHTML(text string) string {
	text = strings.TrimSpace(text)

	if idx := strings.Index(text, "```html"); idx >= 0 {
		rest := text[idx+len("```html"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			rest = rest[:end]
		}
		return strings.TrimSpace(rest)
	}
	if idx := strings.Index(text, "<!DOCTYPE"); idx >= 0 {
		return strings.TrimSpace(text[idx:])
	}
	if idx := strings.Index(text, "<!doctype"); idx >= 0 {
		return strings.TrimSpace(text[idx:])
	}
	return text
}
