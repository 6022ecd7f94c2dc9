package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	desc, err := Describe(OpenAI)
	require.NoError(t, err)
	assert.Equal(t, OpenAI, desc.ID)
	assert.Equal(t, "https://api.openai.com/v1", desc.Endpoint)
	assert.True(t, desc.RequiresAuth)

	_, err = Describe("not-a-real-provider")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestDefaultModelIsListed(t *testing.T) {
	for _, desc := range ListAll() {
		_, ok := desc.Model(desc.DefaultModel)
		assert.True(t, ok, "provider %s default model %s missing from model list", desc.ID, desc.DefaultModel)
	}
}

func TestListPartitions(t *testing.T) {
	all := ListAll()
	cloud := ListCloud()
	local := ListLocal()

	assert.Len(t, all, 16)
	assert.Equal(t, len(all), len(cloud)+len(local))
	for _, d := range cloud {
		assert.False(t, d.IsLocal)
	}
	for _, d := range local {
		assert.True(t, d.IsLocal)
	}
	// Catalog order is stable: tier 1 first, custom last.
	assert.Equal(t, OpenAI, all[0].ID)
	assert.Equal(t, Custom, all[len(all)-1].ID)
}

func TestEstimateCost(t *testing.T) {
	// Zero tokens cost nothing.
	assert.Zero(t, EstimateCost(OpenAI, "gpt-4", 0, 0))

	// gpt-4: $0.03/1K input, $0.06/1K output.
	cost := EstimateCost(OpenAI, "gpt-4", 1000, 2000)
	assert.InDelta(t, 0.03+0.12, cost, 1e-9)

	// Linear in token counts.
	assert.InDelta(t, 2*cost, EstimateCost(OpenAI, "gpt-4", 2000, 4000), 1e-9)

	// Total on missing data: unknown provider, unknown model, unpriced model.
	assert.Zero(t, EstimateCost("nope", "gpt-4", 1000, 1000))
	assert.Zero(t, EstimateCost(OpenAI, "nope", 1000, 1000))
	assert.Zero(t, EstimateCost(Ollama, "llama2", 1000, 1000))
	assert.Zero(t, EstimateCost(HuggingFace, "bigcode/starcoder", 5000, 5000))
}
