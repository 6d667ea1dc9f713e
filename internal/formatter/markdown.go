// Package formatter renders catalogs as markdown reports and keeps their tables aligned.
package formatter

import (
	"strings"

	"sitesync/pkg/metadata"

	"github.com/mattn/go-runewidth"
)

// FormatMarkdown re-aligns every table in content and re-signs the document.
// Metadata from an existing block is carried over.
func FormatMarkdown(content string) (string, error) {
	meta, cleanContent := metadata.Extract(content)

	info := metadata.Info{}
	if meta != nil {
		info = metadata.Info{
			Source:    meta.Source,
			RunID:     meta.RunID,
			Sites:     meta.Sites,
			Validated: meta.Validation,
		}
	}

	return metadata.Sign(AlignTables(cleanContent), info), nil
}

// AlignTables pads the cells of every markdown table in content to a common display width.
func AlignTables(content string) string {
	lines := strings.Split(content, "\n")

	var formattedLines []string

	var tableBuffer []string

	for _, line := range lines {
		trimmedLine := strings.TrimSpace(line)

		// Simple heuristic: starts and ends with |
		if strings.HasPrefix(trimmedLine, "|") && strings.HasSuffix(trimmedLine, "|") {
			tableBuffer = append(tableBuffer, line)

			continue
		}

		if len(tableBuffer) > 0 {
			formattedLines = append(formattedLines, processTable(tableBuffer)...)
			tableBuffer = nil
		}

		formattedLines = append(formattedLines, line)
	}

	if len(tableBuffer) > 0 {
		formattedLines = append(formattedLines, processTable(tableBuffer)...)
	}

	return strings.Join(formattedLines, "\n")
}

func processTable(rows []string) []string {
	// A header without a separator is not a table we can format.
	if len(rows) < 2 {
		return rows
	}

	table := make([][]string, 0, len(rows))
	for _, row := range rows {
		table = append(table, splitRow(row))
	}

	separatorRowIdx := -1
	if isSeparatorRow(table[1]) {
		separatorRowIdx = 1
	}

	return renderTable(table, separatorRowIdx)
}

// splitRow splits "| a | b |" into trimmed cells. Escaped pipes stay inside their cell.
func splitRow(row string) []string {
	row = strings.TrimSpace(row)
	row = strings.TrimPrefix(row, "|")

	if strings.HasSuffix(row, "|") && !strings.HasSuffix(row, `\|`) {
		row = strings.TrimSuffix(row, "|")
	}

	var cells []string

	var cell strings.Builder

	escaped := false

	for _, r := range row {
		switch {
		case escaped:
			cell.WriteRune(r)

			escaped = false
		case r == '\\':
			cell.WriteRune(r)

			escaped = true
		case r == '|':
			cells = append(cells, strings.TrimSpace(cell.String()))
			cell.Reset()
		default:
			cell.WriteRune(r)
		}
	}

	return append(cells, strings.TrimSpace(cell.String()))
}

func isSeparatorRow(cells []string) bool {
	for _, cell := range cells {
		trim := strings.NewReplacer("-", "", ":", "", " ", "").Replace(cell)
		if trim != "" {
			return false
		}
	}

	return true
}

// renderTable writes cells back as aligned rows; separatorRowIdx < 0 means no separator row.
func renderTable(table [][]string, separatorRowIdx int) []string {
	colCount := 0
	for _, row := range table {
		colCount = max(colCount, len(row))
	}

	colWidths := make([]int, colCount)

	for rIdx, row := range table {
		if rIdx == separatorRowIdx {
			continue
		}

		for i, cell := range row {
			colWidths[i] = max(colWidths[i], runewidth.StringWidth(cell))
		}
	}

	// "---" is the shortest valid separator.
	for i := range colWidths {
		colWidths[i] = max(colWidths[i], 3)
	}

	result := make([]string, 0, len(table))

	for i, row := range table {
		var sb strings.Builder

		sb.WriteString("|")

		for j := range colCount {
			sb.WriteString(" ")

			if i == separatorRowIdx {
				sb.WriteString(strings.Repeat("-", colWidths[j]))
			} else {
				content := ""
				if j < len(row) {
					content = row[j]
				}

				sb.WriteString(content)

				if padding := colWidths[j] - runewidth.StringWidth(content); padding > 0 {
					sb.WriteString(strings.Repeat(" ", padding))
				}
			}

			sb.WriteString(" |")
		}

		result = append(result, sb.String())
	}

	return result
}
