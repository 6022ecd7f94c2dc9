package probe

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

var versionTag = regexp.MustCompile(`(?i):\w+$`)

// displayNames maps well-known model families to presentation names.
// Matching is by substring so tagged variants resolve too.
var displayNames = []struct {
	key  string
	name string
}{
	{"llama2:7b", "Llama 2 7B"},
	{"llama2:13b", "Llama 2 13B"},
	{"llama2:70b", "Llama 2 70B"},
	{"llama2", "Llama 2"},
	{"codellama", "Code Llama"},
	{"mixtral", "Mixtral 8x7B"},
	{"mistral", "Mistral 7B"},
	{"phi", "Phi 2"},
	{"gemma", "Gemma"},
	{"vicuna", "Vicuna"},
	{"orca", "Orca"},
	{"neural-chat", "Neural Chat"},
}

// DisplayName turns a technical model name like "codellama:13b-instruct"
// into a readable one.
func DisplayName(technical string) string {
	name := versionTag.ReplaceAllString(technical, "")

	lower := strings.ToLower(name)
	for _, entry := range displayNames {
		if strings.Contains(lower, entry.key) {
			return entry.name
		}
	}

	if name == "" {
		return name
	}
	runes := []rune(name)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// FormatSize renders a model size in GB or MB. Zero means the server did
// not report a size and renders as empty.
func FormatSize(bytes int64) string {
	if bytes <= 0 {
		return ""
	}

	const (
		mb = 1 << 20
		gb = 1 << 30
	)
	if bytes >= gb {
		return fmt.Sprintf("%.1f GB", float64(bytes)/gb)
	}
	return fmt.Sprintf("%.0f MB", float64(bytes)/mb)
}
