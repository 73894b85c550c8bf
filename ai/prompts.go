package ai

import (
	"fmt"
	"strings"
)

const rewriteSystemPrompt = `You are an academic search assistant.

STRICT RULES:
- Rewrite the query to target ONLY the specified subject.
- Use academic and educational keywords.
- Do NOT introduce adjacent or loosely related topics.
- Do NOT explain anything.
- Output ONE rewritten query only, on a single line.`

const summarySystemPrompt = `You are an academic tutor generating short summaries for students.

STRICT RULES:
- Stay strictly within the given subject.
- Do NOT introduce unrelated or adjacent topics.
- Use clear academic language suitable for students.
- Be concise (2-4 sentences).
- If the topic is unclear or insufficient, say so briefly.`

const scoreSystemPrompt = `You are an academic relevance scoring engine.

TASK:
- Score every result from 0 to 100 for how relevant it is to the subject and search query.
- Academic, educational, research and instructional material scores higher than general web content, blogs, news or opinion.

STRICT RULES:
- Score EVERY result. Do not drop any id.
- Do NOT explain.
- Return ONLY a JSON array of objects with "id" and "score".

Example output:
[{"id": 0, "score": 87}, {"id": 1, "score": 12}]`

func rewriteUserPrompt(query, subject string) string {
	return fmt.Sprintf("Original query: %q\nSubject: %q\n\nRewrite the query to strictly match the subject.", query, subject)
}

func summaryUserPrompt(query, subject string) string {
	return fmt.Sprintf("Topic: %q\nSubject: %q\n\nProvide a concise academic summary.", query, subject)
}

func scoreUserPrompt(query, subject, digest string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Subject: %q\nSearch Query: %q\n\nResults:\n", subject, query)
	sb.WriteString(digest)
	sb.WriteString("\n\nReturn ONLY the JSON array of {\"id\", \"score\"} objects, one per result.")
	return sb.String()
}
