package spreadsheet

import (
	"fmt"
	"strings"
)

const utf8BOM = "\ufeff"

// normalizeHeader makes a header row usable as table columns: blank names become
// "Unnamed: N" (zero-based position) and repeated names get a ".1", ".2" suffix.
func normalizeHeader(cells []string) []string {
	out := make([]string, len(cells))
	seen := make(map[string]int, len(cells))
	for i, name := range cells {
		if i == 0 {
			name = strings.TrimPrefix(name, utf8BOM)
		}
		if strings.TrimSpace(name) == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		base := name
		for n := seen[base]; ; n++ {
			if _, taken := seen[name]; !taken {
				break
			}
			name = fmt.Sprintf("%s.%d", base, n)
		}
		seen[base]++
		if name != base {
			seen[name] = 1
		}
		out[i] = name
	}
	return out
}

// widen pads header with unnamed columns until it is at least width wide.
func widen(header []string, width int) []string {
	for i := len(header); i < width; i++ {
		header = append(header, fmt.Sprintf("Unnamed: %d", i))
	}
	return header
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
