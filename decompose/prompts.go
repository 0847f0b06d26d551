package decompose

import "fmt"

const decompositionResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "needs_decomposition": {
      "type": "boolean"
    },
    "sub_queries": {
      "type": "array",
      "items": {
        "type": "string"
      }
    }
  },
  "required": ["needs_decomposition", "sub_queries"],
  "additionalProperties": false
}`

const decompositionPromptTemplate = `Decide whether the given question asks about multiple distinct topics, and if so split it into self-contained sub-queries. Return the result as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- Set "needs_decomposition" to true only when the question combines two or more topics that would be searched separately.
- Each sub-query must be a complete, standalone question answerable on its own, preserving names and qualifiers from the original.
- Produce at most %d sub-queries.
- If the question covers a single topic, set "needs_decomposition" to false and "sub_queries" to [].
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.

Example (single topic):
Input: "What is our refund policy?"
Output:
{
  "needs_decomposition": false,
  "sub_queries": []
}

Example (two topics joined):
Input: "What is our refund policy and how do I escalate a support ticket?"
Output:
{
  "needs_decomposition": true,
  "sub_queries": [
    "What is our refund policy?",
    "How do I escalate a support ticket?"
  ]
}

Example (comparison, still multiple retrievals):
Input: "How does the staging deployment process differ from production?"
Output:
{
  "needs_decomposition": true,
  "sub_queries": [
    "What is the staging deployment process?",
    "What is the production deployment process?"
  ]
}

Question:
%s`

// buildDecompositionPrompt embeds the schema, sub-query cap, and question.
func buildDecompositionPrompt(question string, maxSubQueries int) string {
	return fmt.Sprintf(decompositionPromptTemplate,
		decompositionResponseSchema, maxSubQueries, question)
}
