package genai_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/renewal/internal/genai"
)

func TestParseJSON(t *testing.T) {
	t.Run("plain object", func(t *testing.T) {
		obj := genai.ParseJSON(`{"channel":"WhatsApp","escalate":false}`)
		assert.False(t, obj.IsError())
		assert.Equal(t, "WhatsApp", obj.String("channel", ""))
	})

	t.Run("fenced object", func(t *testing.T) {
		obj := genai.ParseJSON("```json\n{\"verdict\": \"OVERRIDE\"}\n```")
		assert.False(t, obj.IsError())
		assert.Equal(t, "OVERRIDE", obj.String("verdict", ""))
	})

	t.Run("object inside prose", func(t *testing.T) {
		text := `Here is the plan: {"tone":"warm","note":"use {name}"} done.`
		obj := genai.ParseJSON(text)
		assert.False(t, obj.IsError())
		assert.Equal(t, "warm", obj.String("tone", ""))
		assert.Equal(t, "use {name}", obj.String("note", ""))
	})

	t.Run("first of two objects", func(t *testing.T) {
		obj := genai.ParseJSON(`{"a":1} and {"b":2}`)
		assert.Equal(t, "1", obj.String("a", ""))
		assert.False(t, obj.Get("b").Exists())
	})

	t.Run("escaped quote in string", func(t *testing.T) {
		obj := genai.ParseJSON(`noise {"q":"say \"}\" please"} tail`)
		assert.False(t, obj.IsError())
		assert.Equal(t, `say "}" please`, obj.String("q", ""))
	})

	t.Run("unparseable", func(t *testing.T) {
		obj := genai.ParseJSON("I cannot answer that")
		assert.True(t, obj.IsError())
		assert.Equal(t, "I cannot answer that", obj.String("raw", ""))
		assert.Equal(t, "could not parse JSON", obj.String("error", ""))
	})

	t.Run("unbalanced", func(t *testing.T) {
		obj := genai.ParseJSON(`{"a": {"b": 1}`)
		assert.True(t, obj.IsError())
	})

	t.Run("array is not an object", func(t *testing.T) {
		obj := genai.ParseJSON(`["a","b"]`)
		assert.True(t, obj.IsError())
	})
}

func TestObjectAccessors(t *testing.T) {
	obj := genai.NewObject(`{
		"tone": "formal",
		"missing": null,
		"key_facts": ["due 15 March", "sum assured 50L"],
		"single": "one",
		"payment_done": true,
		"confidence": 0.82
	}`)

	assert.Equal(t, "formal", obj.String("tone", "x"))
	assert.Equal(t, "x", obj.String("missing", "x"))
	assert.Equal(t, "x", obj.String("absent", "x"))
	assert.Equal(t, []string{"due 15 March", "sum assured 50L"},
		obj.Strings("key_facts"),
	)
	assert.Equal(t, []string{"one"}, obj.Strings("single"))
	assert.Nil(t, obj.Strings("missing"))
	assert.True(t, obj.Bool("payment_done"))
	assert.False(t, obj.Bool("absent"))
	assert.Equal(t, 0.82, obj.Get("confidence").Float())
}

func TestObjectMarshal(t *testing.T) {
	data, err := json.Marshal(map[string]any{
		"plan":  genai.NewObject(`{"tone":"warm"}`),
		"empty": genai.Object{},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"plan":{"tone":"warm"},"empty":{}}`, string(data))
}
