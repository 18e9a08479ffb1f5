package parsers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// CSVParser parses relationships from CSV format.
type CSVParser struct{}

// Parse reads CSV from the reader and returns parsed relationships.
// Expected columns: type, user_a, user_b
func (p *CSVParser) Parse(r io.Reader) ([]RawRelationship, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	colIndex, err := p.readHeader(reader)
	if err != nil {
		return nil, err
	}

	return p.readRecords(reader, colIndex)
}

// readHeader reads and validates the CSV header row.
func (p *CSVParser) readHeader(reader *csv.Reader) (map[string]int, error) {
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[strings.ToLower(strings.TrimSpace(col))] = i
	}

	requiredCols := []string{"type", "user_a", "user_b"}
	for _, col := range requiredCols {
		if _, ok := colIndex[col]; !ok {
			return nil, fmt.Errorf("missing required column: %s", col)
		}
	}

	return colIndex, nil
}

// readRecords reads all data rows and converts them to RawRelationships.
func (p *CSVParser) readRecords(reader *csv.Reader, colIndex map[string]int) ([]RawRelationship, error) {
	var rels []RawRelationship

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV: %w", err)
		}
		line, _ := reader.FieldPos(0)

		rels = append(rels, RawRelationship{
			Type:    strings.TrimSpace(getColumn(record, colIndex, "type")),
			UserA:   UserRef(strings.TrimSpace(getColumn(record, colIndex, "user_a"))),
			UserB:   UserRef(strings.TrimSpace(getColumn(record, colIndex, "user_b"))),
			LineNum: line,
		})
	}

	return rels, nil
}

// getColumn safely retrieves a column value from a record.
func getColumn(record []string, colIndex map[string]int, col string) string {
	if idx, ok := colIndex[col]; ok && idx < len(record) {
		return record[idx]
	}
	return ""
}
