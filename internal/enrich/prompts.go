package enrich

import (
	"fmt"
	"strings"
)

const transformSystemPrompt = `You are a senior explainer editor at a public-interest newsroom.
Rewrite news articles as clear question-and-answer explainers for a general reader.

Rules:
- Preserve every fact, number, date, name and source citation in the original. Do not add facts.
- Organise the questions in a natural topic progression: what happened, who is affected, why it matters, what comes next.
- Each question is a short heading ending in "?", followed by a plain-language answer.
- When the article cites or links a source, reuse the original source links verbatim.
- Do not editorialise and do not include any preamble or closing remarks.
- Output plain text only.`

const classificationSystemPrompt = `You assess whether a news article is worth turning into a public-interest explainer.
Respond with a single strict JSON object and nothing else.

Judge the article against this rubric:
1. Policy relevance: does it concern a law, regulation, government scheme, court ruling, budget or public programme?
2. Content pillar: it must fit one of these pillars:
   "governance & policy", "economy & livelihoods", "public health", "environment & climate",
   "education & skills", "infrastructure & urban development", "science & technology", "social justice & rights".
3. Real-world impact: it must affect people's money, health, safety, rights, access to services or environment.
4. Source credibility: weigh official documents, named officials and established outlets above anonymous claims;
   rumours, opinion pieces and celebrity news are not interesting.
5. Explainability: a reader should come away understanding something that changes what they know or can do.

JSON schema:
{
  "is_interesting": true | false,
  "reasoning": "one or two sentences citing the rubric points",
  "pillar": "one pillar name from the list, or empty when not interesting",
  "anchor": "the specific policy, rule or scheme the article maps to, or empty"
}`

func transformUserPrompt(title, content, url string) string {
	return articleBlock("Rewrite this article as a question-and-answer explainer.", title, content, url)
}

func classificationUserPrompt(title, content, url string) string {
	return articleBlock("Classify this article.", title, content, url)
}

func articleBlock(instruction, title, content, url string) string {
	var b strings.Builder
	b.WriteString(instruction)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Title: %s\n", strings.TrimSpace(title))
	fmt.Fprintf(&b, "Source URL: %s\n\n", strings.TrimSpace(url))
	b.WriteString("Article:\n")
	b.WriteString(strings.TrimSpace(content))
	return b.String()
}
