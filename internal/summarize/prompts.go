package summarize

import (
	"strings"
)

// SkipSummary is what the model is told to answer when a newsletter has
// nothing worth keeping.
const SkipSummary = "STATUS: SKIP"

// BuildNewsletterPrompt asks the model to distill one newsletter into at most
// five bolded bullets and to tag it with exactly one theme from themes.
func BuildNewsletterPrompt(content string, themes []string) string {
	var sb strings.Builder

	sb.WriteString("You are an executive assistant. Distill this newsletter into key takeaways and classify it by theme.\n\n")

	sb.WriteString("INPUT:\n")
	sb.WriteString(content)
	sb.WriteString("\n\n")

	sb.WriteString("RULES:\n")
	sb.WriteString("- Maximum 5 bullet points total\n")
	sb.WriteString("- Each bullet: 1-2 sentences max\n")
	sb.WriteString("- Bold the topic (e.g., \"**Topic:** key insight\")\n")
	sb.WriteString("- Only include genuinely important or actionable information\n")
	sb.WriteString("- Skip fluff, intros, outros, and promotional content\n")
	sb.WriteString("- Classify the newsletter into ONE theme category\n\n")

	sb.WriteString("OUTPUT FORMAT (respond with valid JSON - no markdown code blocks):\n")
	sb.WriteString("{\n")
	sb.WriteString("  \"theme\": \"EXACTLY one of these strings: ")
	sb.WriteString(strings.Join(themes, " | "))
	sb.WriteString("\",\n")
	sb.WriteString("  \"summary\": \"Markdown formatted bullets here\"\n")
	sb.WriteString("}\n\n")

	sb.WriteString("JSON FORMATTING - CRITICAL:\n")
	sb.WriteString("- Output ONLY the JSON object, no markdown code blocks\n")
	sb.WriteString("- Escape quotes inside the summary text as \\\"\n")
	sb.WriteString("- Keep newlines as \\n within the JSON string\n\n")

	sb.WriteString("THEME CLASSIFICATION - CRITICAL:\n")
	sb.WriteString("Use the EXACT theme string from the list above. Do not paraphrase it or invent variations.\n")
	if len(themes) > 0 {
		sb.WriteString("For example \"")
		sb.WriteString(themes[0])
		sb.WriteString("\" is correct, a reworded variant of it is not.\n")
	}
	sb.WriteString("\n")

	sb.WriteString("SPECIAL CASES:\n")
	sb.WriteString("- If nothing is worth keeping, return: {\"theme\": \"SKIP\", \"summary\": \"")
	sb.WriteString(SkipSummary)
	sb.WriteString("\"}\n\n")

	sb.WriteString("Be ruthlessly concise.\n")

	return sb.String()
}

// BuildSynthesisPrompt asks the model to merge several summaries that share
// a theme into at most seven bullets.
func BuildSynthesisPrompt(summaries string) string {
	var sb strings.Builder

	sb.WriteString("You are an executive assistant. Synthesize key insights from multiple newsletter summaries on a common theme.\n\n")

	sb.WriteString("INPUT SUMMARIES:\n")
	sb.WriteString(summaries)
	sb.WriteString("\n\n")

	sb.WriteString("RULES:\n")
	sb.WriteString("- Maximum 7 bullet points total\n")
	sb.WriteString("- Each bullet: 1-2 sentences max\n")
	sb.WriteString("- Bold the topic (e.g., \"**Topic:** key insight\")\n")
	sb.WriteString("- Find common threads across newsletters instead of concatenating them\n")
	sb.WriteString("- If multiple newsletters mention the same topic, merge them into ONE bullet\n")
	sb.WriteString("- Prioritize the most important and actionable information\n")
	sb.WriteString("- Drop redundant or minor details\n\n")

	sb.WriteString("OUTPUT: Markdown formatted bullets only (no theme classification needed)\n\n")

	sb.WriteString("Be ruthlessly concise. This is an executive summary of summaries.\n")

	return sb.String()
}
