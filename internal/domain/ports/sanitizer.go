package ports

// Sanitizer cleans user-supplied group text before it is stored.
type Sanitizer interface {
	// Text strips all markup.
	Text(s string) string

	// RichText keeps safe formatting markup only.
	RichText(s string) string
}
