package reflection

import (
	"encoding/json"
	"fmt"
)

// decodeQuestions and decodeInsights re-marshal the oracle's already-
// parsed JSON value (any) into the typed shape this package expects.
// Generate(..., {json: true}) hands back a generic any (map/slice tree,
// per spec.md §6); round-tripping through encoding/json is simpler and
// safer than a manual type-switch walk.

func decodeQuestions(v any) ([]string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("reflection: marshal question response: %w", err)
	}
	var qs questionSet
	if err := json.Unmarshal(raw, &qs); err != nil {
		return nil, fmt.Errorf("reflection: decode question response: %w", err)
	}
	if len(qs.Questions) == 0 {
		return nil, fmt.Errorf("reflection: no questions in oracle response")
	}
	return qs.Questions, nil
}

func decodeInsights(v any) ([]insightJSON, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("reflection: marshal insight response: %w", err)
	}
	var list insightList
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("reflection: decode insight response: %w", err)
	}
	if len(list.Insights) > maxInsights {
		list.Insights = list.Insights[:maxInsights]
	}
	return list.Insights, nil
}
