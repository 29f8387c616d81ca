package vector

import (
	"context"
	"fmt"
	"strings"

	"github.com/bowerhall/willow/internal/llm"
)

const classifyPrompt = `Classify the query below into the single most fitting room.

Rooms: %s

Reply with one room name only. If none clearly fits, reply "none".

Query: %s`

// LLMClassifier builds a room classifier on a lightweight model. Any
// reply outside the known labels counts as inconclusive.
func LLMClassifier(model llm.LLM, rooms []string) ClassifyFunc {
	return func(ctx context.Context, query string) (string, error) {
		prompt := fmt.Sprintf(classifyPrompt, strings.Join(rooms, ", "), query)

		response, err := model.Chat(ctx, "", []llm.Message{{Role: "user", Content: prompt}})
		if err != nil {
			return "", err
		}

		label := strings.ToLower(strings.TrimSpace(response))
		label = strings.Trim(label, `"'.`)

		for _, room := range rooms {
			if label == room {
				return room, nil
			}
		}

		return "", nil
	}
}
