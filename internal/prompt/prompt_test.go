package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"starscope/internal/models"
)

func repoFixture() models.Repository {
	return models.Repository{
		FullName:    "acme/widget",
		Description: "A widget",
		Language:    "Go",
		Stars:       42,
		Topics:      []string{"cli", "tool"},
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	a := Build(repoFixture())
	b := Build(repoFixture())
	assert.Equal(t, a, b)
}

func TestBuildEmbedsRepositoryFields(t *testing.T) {
	out := Build(repoFixture())

	assert.Contains(t, out, "**Repository:** acme/widget")
	assert.Contains(t, out, "**Description:** A widget")
	assert.Contains(t, out, "**Language:** Go")
	assert.Contains(t, out, "**Stars:** 42")
	assert.Contains(t, out, "**Topics:** cli, tool")
	assert.Contains(t, out, "Purpose & Use Case")
	assert.Contains(t, out, "300-400 words")
}

func TestBuildPlaceholders(t *testing.T) {
	out := Build(models.Repository{FullName: "acme/bare"})

	assert.Contains(t, out, "**Description:** No description")
	assert.Contains(t, out, "**Language:** Unknown")
	assert.Contains(t, out, "**Topics:** None")
}

func TestBuildSensitiveToTopics(t *testing.T) {
	base := repoFixture()
	changed := repoFixture()
	changed.Topics = []string{"cli", "tool", "widgets"}

	assert.NotEqual(t, Build(base), Build(changed))
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 2, EstimateTokens("one")) // ceil(1*1.3)
	assert.Equal(t, 13, EstimateTokens(strings.Repeat("word ", 10)))
}
