package importer

import (
	"fmt"
	"time"
)

const systemPrompt = "You are a helpful calendar assistant. You process dates based on the user's local time context. Always respond with valid JSON only."

// ReferenceTime renders now the way a browser prints a local Date, which is
// the format clients send as userContext.
func ReferenceTime(now time.Time) string {
	return now.Format("Mon Jan 02 2006 15:04:05 GMT-0700 (MST)")
}

func buildPrompt(input, reference string) string {
	return fmt.Sprintf(`You are a calendar event parser. Parse the following natural language input into one or more calendar events.

User's Current Reference Time: %q
User Input: %q

Return ONLY a JSON object with this exact structure (no markdown, no explanations):
{
  "events": [
    {
      "title": "event title",
      "start": "YYYY-MM-DDTHH:mm:ss",
      "end": "YYYY-MM-DDTHH:mm:ss",
      "location": "location if mentioned, otherwise empty string",
      "description": "any additional details, otherwise empty string"
    }
  ]
}

IMPORTANT Rules:
1. Use the "User's Current Reference Time" to calculate relative dates (like "tomorrow", "next Friday", "in 2 hours").
2. Recurring events ("every Monday", "daily standup") must be expanded into one entry per occurrence. When a month range is given, include occurrences in the first and last week of that range.
3. If a recurring event has no explicit end date or count, return the next 4 occurrences.
4. Return "start" and "end" as ISO 8601 strings WITHOUT timezone information (Floating Time).
   - CORRECT: "2025-11-30T16:00:00"
   - INCORRECT: "2025-11-30T16:00:00Z" (Do not add 'Z')
   - INCORRECT: "2025-11-30T16:00:00-05:00"
5. Use 24-hour times.
6. If no specific time is given, use 09:00:00 as default start.
7. If no duration is given, default to 1 hour.
8. Return only the JSON object.
`, reference, input)
}
