package grade

import "fmt"

const gradingResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "relevant": {
      "type": "boolean"
    },
    "reasoning": {
      "type": "string"
    }
  },
  "required": ["relevant", "reasoning"],
  "additionalProperties": false
}`

const gradingPromptTemplate = `Judge whether the given passage contains information that helps answer the question. Return the result as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- Set "relevant" to true only when the passage contains facts that directly bear on the question.
- Topical overlap alone is not relevance; the passage must help answer this specific question.
- Keep "reasoning" to one short sentence.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.

Question:
%s

Passage:
%s`

// buildGradingPrompt embeds the schema, question, and candidate passage.
func buildGradingPrompt(question, passage string) string {
	return fmt.Sprintf(gradingPromptTemplate, gradingResponseSchema, question, passage)
}
