package util

import (
	"bytes"
	"fmt"
	"strings"
)

// GetLineAndColumn converts a byte offset into a 1-based line and column.
// Columns count runes, not bytes.
func GetLineAndColumn(src string, pos int) (line int, column int) {
	line = 1
	column = 1
	for i, char := range src {
		if i >= pos {
			break
		}
		if char == '\n' {
			line++
			column = 1
		} else {
			column++
		}
	}
	return
}

// GetContextLines formats up to two lines before errorLine plus the error
// line itself, with a caret under errorCol.
func GetContextLines(src string, errorLine, errorCol int) string {
	var result bytes.Buffer

	lines := strings.Split(strings.ReplaceAll(src, "\r\n", "\n"), "\n")
	if errorLine < 1 || errorLine > len(lines) {
		return ""
	}

	// Show 2 lines before the error line (if available)
	startLine := errorLine - 2
	if startLine < 1 {
		startLine = 1
	}

	for i := startLine; i <= errorLine; i++ {
		lineContent := lines[i-1]

		if i == errorLine {
			margin := fmt.Sprintf("  >  %3d | ", i)
			result.WriteString(fmt.Sprintf("%s%s\n", margin, lineContent))

			prefix := []rune(lineContent)
			if errorCol-1 < len(prefix) {
				prefix = prefix[:max(errorCol-1, 0)]
			}
			result.WriteString(fmt.Sprintf("%s^ here",
				replaceVisibleWithSpaces(margin+string(prefix))))
		} else {
			result.WriteString(fmt.Sprintf("     %3d | %s\n", i, lineContent))
		}
	}

	return result.String()
}

// replaceVisibleWithSpaces replaces all non-whitespace characters with spaces
// while preserving tabs for correct alignment.
func replaceVisibleWithSpaces(s string) string {
	var buf bytes.Buffer
	for _, c := range s {
		if c == '\t' {
			buf.WriteRune('\t')
		} else {
			buf.WriteRune(' ')
		}
	}
	return buf.String()
}
