package gemini

import (
	"strings"

	"github.com/dvloznov/ledgerchat/internal/domain"
)

// buildExtractionPrompt constructs the full prompt: base instructions, the
// tracker's taxonomy formatted for LLM consumption, and the user's utterance.
func buildExtractionPrompt(taxonomy []domain.Category, input string) string {
	basePrompt :=
		"You are an expense extraction assistant for a personal finance chat.\n\n" +
			"Task:\n" +
			"- Read the user's message and extract EVERY financial transaction it mentions.\n" +
			"- Output STRICT JSON only (no comments, no trailing commas, no extra text).\n" +
			"- Output a JSON array of objects. If the message mentions no transactions, output [].\n\n" +
			"Each object must have these fields:\n" +
			"- \"kind\": string, \"expense\" or \"income\"\n" +
			"- \"amount\": number (always positive)\n" +
			"- \"currency\": string (ISO code, e.g. \"USD\"; default \"USD\" if not stated)\n" +
			"- \"category\": string (one of the predefined categories below)\n" +
			"- \"subcategory\": string or null (one of the predefined subcategories, or null)\n" +
			"- \"payment_method\": string or null (e.g. \"card\", \"cash\"; expenses only)\n" +
			"- \"credit_source\": string or null (where the money came from; income only)\n" +
			"- \"description\": string or null (short free-text note)\n\n"

	rulesPrompt :=
		"Rules:\n" +
			"- One object per transaction; a message like \"coffee 4.50 and lunch 12\" has two.\n" +
			"- Never invent transactions the user did not mention.\n\n" +
			"Return ONLY valid raw JSON.\n" +
			"Do NOT wrap the response in code fences.\n" +
			"Do NOT use ```json or any Markdown.\n" +
			"Output must begin with \"[\" and end with \"]\".\n"

	return basePrompt + "\n" + buildTaxonomyPrompt(taxonomy) + "\n\n" + rulesPrompt +
		"\nUser message:\n" + input + "\n"
}

// buildTaxonomyPrompt formats the tracker's active categories and
// subcategories as constraints for the model.
func buildTaxonomyPrompt(taxonomy []domain.Category) string {
	// Group by category name, keeping first-seen order.
	order := make([]string, 0, len(taxonomy))
	categoryMap := make(map[string][]string)
	for _, c := range taxonomy {
		if _, exists := categoryMap[c.Name]; !exists {
			order = append(order, c.Name)
			categoryMap[c.Name] = []string{}
		}
		if c.SubcategoryName != "" {
			categoryMap[c.Name] = append(categoryMap[c.Name], c.SubcategoryName)
		}
	}

	var b strings.Builder
	b.WriteString("Use ONLY the following Categories and Subcategories:\n\n")

	if len(order) == 0 {
		b.WriteString("(the tracker has no categories yet; still extract each transaction\n")
		b.WriteString("and put the best-fitting category name in \"category\")\n\n")
	}

	for _, cat := range order {
		subs := categoryMap[cat]
		b.WriteString(cat + ":\n")
		if len(subs) == 0 {
			b.WriteString("  (no subcategories - use null)\n\n")
			continue
		}
		for _, s := range subs {
			b.WriteString("  - " + s + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("CATEGORY ASSIGNMENT RULES:\n")
	b.WriteString("1. Category should be EXACTLY one of the category names shown above.\n")
	b.WriteString("2. If no listed category fits, put the best-fitting NEW category name in \"category\"; it will be flagged.\n")
	b.WriteString("3. If a category shows \"(no subcategories)\", use null for subcategory.\n")
	b.WriteString("4. Never leave subcategory null when the category has a clearly matching subcategory.\n")

	return b.String()
}
