// Package prompt builds the analysis prompt sent to every provider. The
// output is deterministic for identical repository fields so that input
// token estimates stay reproducible.
package prompt

import (
	"fmt"
	"math"
	"strings"

	"starscope/internal/models"
)

// SystemInstruction is the fixed system message sent alongside every
// analysis request.
const SystemInstruction = "You are an expert software engineer analyzing GitHub repositories. Provide insightful, practical analysis."

// Build renders the analysis prompt for a repository.
func Build(repo models.Repository) string {
	description := repo.Description
	if description == "" {
		description = "No description"
	}
	language := repo.Language
	if language == "" {
		language = "Unknown"
	}
	topics := "None"
	if len(repo.Topics) > 0 {
		topics = strings.Join(repo.Topics, ", ")
	}

	return fmt.Sprintf(`Analyze this GitHub repository and provide insights:

**Repository:** %s
**Description:** %s
**Language:** %s
**Stars:** %d
**Topics:** %s

Please provide a comprehensive analysis covering:

1. **Purpose & Use Case**: What problem does this repository solve? Who is the target audience?

2. **Key Strengths**: What makes this repository valuable? (code quality, documentation, community, unique features)

3. **Technical Stack**: Brief overview of technologies used and architecture patterns.

4. **Potential Issues or Limitations**: Any concerns about maintenance, dependencies, or scalability?

5. **Recommendations**: Should someone use this? For what use cases? Any alternatives to consider?

Keep your analysis concise (300-400 words), practical, and actionable. Focus on insights that help developers decide if this is right for their project.`,
		repo.FullName, description, language, repo.Stars, topics)
}

// EstimateTokens approximates the token count of a text as 1.3 tokens per
// whitespace-separated word, rounded up. It is a heuristic for providers
// that do not report usage, not an authoritative count.
func EstimateTokens(text string) int {
	words := len(strings.Fields(text))
	return int(math.Ceil(float64(words) * 1.3))
}
