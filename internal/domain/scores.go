package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// TotalScoreKey is the synthetic combined entry added to additive score maps.
const TotalScoreKey = "Total Score"

// CategoryScore is a single (category, score) pair.
type CategoryScore struct {
	Category string  `json:"category"`
	Score    float64 `json:"score"`
}

// CategoryScores is a category -> score map that remembers insertion order.
// Its JSON form is an object whose key order round-trips.
type CategoryScores []CategoryScore

// Get returns the score recorded for category.
func (s CategoryScores) Get(category string) (float64, bool) {
	for _, e := range s {
		if e.Category == category {
			return e.Score, true
		}
	}
	return 0, false
}

// Set replaces an existing entry in place or appends a new one.
func (s CategoryScores) Set(category string, score float64) CategoryScores {
	for i := range s {
		if s[i].Category == category {
			s[i].Score = score
			return s
		}
	}
	return append(s, CategoryScore{Category: category, Score: score})
}

// Without returns a copy lacking the given category.
func (s CategoryScores) Without(category string) CategoryScores {
	out := make(CategoryScores, 0, len(s))
	for _, e := range s {
		if e.Category != category {
			out = append(out, e)
		}
	}
	return out
}

// Map converts to a plain map; order is lost.
func (s CategoryScores) Map() map[string]float64 {
	out := make(map[string]float64, len(s))
	for _, e := range s {
		out[e.Category] = e.Score
	}
	return out
}

func (s CategoryScores) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Category)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(e.Score)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (s *CategoryScores) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*s = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("category scores: expected object, got %v", tok)
	}
	out := CategoryScores{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("category scores: expected key, got %v", keyTok)
		}
		var score float64
		if err := dec.Decode(&score); err != nil {
			return fmt.Errorf("category scores: %q: %w", key, err)
		}
		out = out.Set(key, score)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*s = out
	return nil
}
