// internal/workers/recommendation/parse-venue-query/models.go
package parsevenuequery

// reply is the JSON object the completion service is asked to return.
type reply struct {
	Intent          string   `json:"intent"`
	Mood            string   `json:"mood"`
	PersonalityTags []string `json:"personalityTags"`
	Region          string   `json:"region"`
}

const replySchema = `{
  "type": "object",
  "properties": {
    "intent": {"type": ["string", "null"]},
    "mood": {"type": ["string", "null"]},
    "personalityTags": {
      "type": ["array", "null"],
      "items": {"type": "string"}
    },
    "region": {"type": ["string", "null"]}
  }
}`
