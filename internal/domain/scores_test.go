package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryScoresJSONKeepsOrder(t *testing.T) {
	scores := CategoryScores{
		{Category: "Realistic", Score: 4},
		{Category: "Artistic", Score: 9},
		{Category: TotalScoreKey, Score: 13},
	}

	data, err := json.Marshal(scores)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Realistic":4,"Artistic":9,"Total Score":13}`, string(data))
	assert.Equal(t, `{"Realistic":4,"Artistic":9,"Total Score":13}`, string(data))

	var decoded CategoryScores
	require.NoError(t, json.Unmarshal([]byte(`{"b":1,"a":2.5,"c":-3}`), &decoded))
	assert.Equal(t, CategoryScores{{Category: "b", Score: 1}, {Category: "a", Score: 2.5}, {Category: "c", Score: -3}}, decoded)
}

func TestCategoryScoresRejectsNonObject(t *testing.T) {
	var decoded CategoryScores
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &decoded))
	assert.Error(t, json.Unmarshal([]byte(`{"a":"x"}`), &decoded))

	require.NoError(t, json.Unmarshal([]byte(`null`), &decoded))
	assert.Nil(t, decoded)
}

func TestCategoryScoresSetAndWithout(t *testing.T) {
	var scores CategoryScores
	scores = scores.Set("a", 1)
	scores = scores.Set("b", 2)
	scores = scores.Set("a", 5)

	v, ok := scores.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 5.0, v)
	assert.Len(t, scores, 2)

	trimmed := scores.Without("a")
	assert.Equal(t, CategoryScores{{Category: "b", Score: 2}}, trimmed)
	assert.Len(t, scores, 2, "Without must not mutate the receiver")
}
