package parsers

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// ParseEmails reads one email address per line. Blank lines and lines
// starting with # are skipped; commas and semicolons also separate addresses.
func ParseEmails(r io.Reader) ([]string, error) {
	var emails []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		for _, field := range strings.FieldsFunc(line, func(r rune) bool { return r == ',' || r == ';' }) {
			if email := strings.TrimSpace(field); email != "" {
				emails = append(emails, email)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading emails: %w", err)
	}
	return emails, nil
}
