package rag

import (
	"fmt"
	"strings"
)

// systemPrompt frames every synthesis request.
const systemPrompt = "You are a helpful assistant specialized in analyzing transportation " +
	"maintenance manuals. You provide accurate, cited answers based only on provided context."

// noTimeRequirementSentence is the exact sentence the model must emit when
// a time-of-day question has no explicit answer in the excerpts. Callers
// and tests rely on the wording.
const noTimeRequirementSentence = "No explicit time-of-day requirement found in the provided manual excerpts."

// userPromptTemplate binds the state, the excerpt context, and the
// question into the grounding instructions sent as the user message.
const userPromptTemplate = `You are an expert assistant helping users understand state Department of Transportation (DOT) maintenance manual policies.

You will be provided with excerpts from the %[1]s maintenance manual and a user question. Your task is to answer the question based ONLY on the provided excerpts.

CRITICAL INSTRUCTIONS:
1. ONLY use information from the provided excerpts below
2. If the question asks about time-of-day constraints (nighttime, daytime, off-peak, work hours, lane closure windows, etc.), you MUST explicitly state whether such requirements exist in the provided excerpts
3. If no explicit time-of-day requirement is found in the excerpts, you MUST say: "%[4]s"
4. DO NOT make up or infer information not present in the excerpts
5. Include citations in the format: (source_file p.X)
6. Keep quotes SHORT - only essential snippets
7. Be concise but complete

CONTEXT FROM %[1]s MAINTENANCE MANUAL:
%[2]s

USER QUESTION:
%[3]s

Please provide a clear, accurate answer with citations:`

// formatContext renders retrieved chunks as numbered excerpts with their
// source references.
func formatContext(results []Result) string {
	parts := make([]string, 0, len(results))
	for i, r := range results {
		parts = append(parts, fmt.Sprintf("[Excerpt %d] (%s p.%d):\n%s\n",
			i+1, r.Metadata.SourceFile, r.Metadata.Page, r.Text))
	}
	return strings.Join(parts, "\n")
}

// buildUserPrompt assembles the full user message for a query.
func buildUserPrompt(state string, results []Result, question string) string {
	return fmt.Sprintf(userPromptTemplate, state, formatContext(results), question, noTimeRequirementSentence)
}
