package models

// Repository is the slice of a starred-repository record that the analysis
// pipeline reads. It is supplied by the repository-listing layer; fields
// beyond these are never inspected here.
type Repository struct {
	FullName    string   `json:"full_name"`
	Description string   `json:"description,omitempty"`
	Language    string   `json:"language,omitempty"`
	Stars       int      `json:"stargazers_count"`
	Topics      []string `json:"topics,omitempty"`
}
