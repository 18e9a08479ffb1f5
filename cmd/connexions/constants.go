package main

// Default limits for CLI commands.
const (
	DefaultSearchLimit = 10
	DefaultListLimit   = 50
)

// Output formats understood by the read commands.
var outputFormats = []string{"text", "json"}
