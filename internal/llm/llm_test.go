package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var listSchema = &Schema{
	Name: "test-list",
	Definition: map[string]any{
		"type":     "array",
		"minItems": 1,
		"items": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name": map[string]any{"type": "string"},
			},
		},
	},
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(listSchema, json.RawMessage(`[{"name":"a"}]`)))
	assert.NoError(t, Validate(nil, json.RawMessage(`not json`)))

	err := Validate(listSchema, json.RawMessage(`[]`))
	var invalid *ErrInvalidResponse
	require.ErrorAs(t, err, &invalid)

	err = Validate(listSchema, json.RawMessage(`[{"name":3}]`))
	assert.ErrorAs(t, err, &invalid)

	err = Validate(listSchema, json.RawMessage(`{"name":`))
	assert.ErrorAs(t, err, &invalid)
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `[1,2]`, StripCodeFences("```json\n[1,2]\n```"))
	assert.Equal(t, `[1,2]`, StripCodeFences("  [1,2] "))
	assert.Equal(t, `{}`, StripCodeFences("```\n{}\n```"))
}

func TestMockProviderQueue(t *testing.T) {
	boom := errors.New("boom")
	m := NewMockProvider(MockResponse{Text: "```json\n[]\n```"}, MockResponse{Err: boom})

	resp, err := m.Generate(context.Background(), Request{Schema: listSchema})
	require.NoError(t, err)
	assert.Equal(t, json.RawMessage(`[]`), resp.Content)
	assert.Equal(t, "mock", resp.Model)

	_, err = m.Generate(context.Background(), Request{})
	assert.ErrorIs(t, err, boom)

	_, err = m.Generate(context.Background(), Request{})
	var unavailable *ErrProviderUnavailable
	assert.ErrorAs(t, err, &unavailable)
	assert.Equal(t, 3, m.CallCount())
}

func TestNewProviderSelection(t *testing.T) {
	p, err := New(context.Background(), Config{})
	require.NoError(t, err)
	assert.Nil(t, p)

	p, err = New(context.Background(), Config{Provider: "mock", Timeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, "mock", p.ModelID())

	_, err = New(context.Background(), Config{Provider: "gemini"})
	assert.Error(t, err, "gemini needs an API key")

	_, err = New(context.Background(), Config{Provider: "oracle"})
	assert.Error(t, err)
}

func TestTimeoutProviderSetsDeadline(t *testing.T) {
	inner := &deadlineProbe{}
	p := WithTimeout(inner, time.Minute)

	_, _ = p.Generate(context.Background(), Request{})
	assert.True(t, inner.hadDeadline)
}

type deadlineProbe struct {
	hadDeadline bool
}

func (d *deadlineProbe) Generate(ctx context.Context, _ Request) (*Response, error) {
	_, d.hadDeadline = ctx.Deadline()
	return &Response{}, nil
}

func (d *deadlineProbe) ModelID() string { return "probe" }
