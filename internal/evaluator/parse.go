package evaluator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"github.com/xeipuuv/gojsonschema"

	"creatorscore/internal/model"
	"creatorscore/internal/util"
)

// maxRationaleRunes bounds the free-text rationale carried into the
// breakdown; models occasionally ramble.
const maxRationaleRunes = 280

// verdictSchema bounds each rubric dimension. Model output that decodes
// but violates the ranges is a parse failure, not a low score.
const verdictSchema = `{
	"type": "object",
	"required": ["topic_relevance", "originality", "clarity", "spam", "promotion"],
	"properties": {
		"topic_relevance": {"type": "number", "minimum": 0, "maximum": 60},
		"originality":     {"type": "number", "minimum": 0, "maximum": 20},
		"clarity":         {"type": "number", "minimum": 0, "maximum": 10},
		"spam":            {"type": "number", "minimum": 0, "maximum": 5},
		"promotion":       {"type": "number", "minimum": 0, "maximum": 5},
		"rationale":       {"type": "string"}
	}
}`

var schemaLoader = gojsonschema.NewStringLoader(verdictSchema)

type rawVerdict struct {
	TopicRelevance float64 `json:"topic_relevance"`
	Originality    float64 `json:"originality"`
	Clarity        float64 `json:"clarity"`
	Spam           float64 `json:"spam"`
	Promotion      float64 `json:"promotion"`
	Rationale      string  `json:"rationale"`
}

// ParseVerdict turns raw model output into a rubric verdict. Models
// wrap JSON in markdown fences and produce near-JSON (single quotes,
// trailing commas, bare keys), so the text is unfenced and repaired
// before strict decoding, then validated against the rubric schema.
func ParseVerdict(itemID, raw string) (model.ContentQualityResult, error) {
	text := stripFences(raw)
	if text == "" {
		return model.ContentQualityResult{}, fmt.Errorf("empty model output for %s", itemID)
	}
	var v rawVerdict
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		repaired, rerr := jsonrepair.JSONRepair(text)
		if rerr != nil {
			return model.ContentQualityResult{}, fmt.Errorf("repair output for %s: %w", itemID, rerr)
		}
		text = repaired
		if err := json.Unmarshal([]byte(text), &v); err != nil {
			return model.ContentQualityResult{}, fmt.Errorf("decode output for %s: %w", itemID, err)
		}
	}
	res, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewStringLoader(text))
	if err != nil {
		return model.ContentQualityResult{}, fmt.Errorf("validate output for %s: %w", itemID, err)
	}
	if !res.Valid() {
		return model.ContentQualityResult{}, fmt.Errorf("output for %s violates rubric: %s", itemID, res.Errors()[0])
	}
	return model.ContentQualityResult{
		ItemID:           itemID,
		Status:           model.StatusEvaluated,
		TopicScore:       v.TopicRelevance,
		OriginalityScore: v.Originality,
		ClarityScore:     v.Clarity,
		SpamScore:        v.Spam,
		PromotionScore:   v.Promotion,
		Total:            v.TopicRelevance + v.Originality + v.Clarity + v.Spam + v.Promotion,
		Rationale:        util.Truncate(strings.TrimSpace(v.Rationale), maxRationaleRunes),
	}, nil
}

// stripFences removes a surrounding markdown code fence if present.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
