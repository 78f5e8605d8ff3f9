package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	reconciledomain "github.com/abruzzotech/attesta/internal/reconcile/domain"
)

// LoadInstructions reads the operator batch file: CSV with a header row,
// one owner per line. Cells left empty mean "no opinion"; the literal "-"
// clears the stored value.
func LoadInstructions(path string) ([]reconciledomain.Instruction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open instructions: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read instructions: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil
	}

	header := rows[0]
	var out []reconciledomain.Instruction
	for _, row := range rows[1:] {
		record := map[string]string{}
		empty := true
		for i, cell := range row {
			if i >= len(header) {
				break
			}
			cell = strings.TrimSpace(cell)
			if cell != "" {
				empty = false
			}
			record[header[i]] = cell
		}
		if empty {
			continue
		}
		out = append(out, reconciledomain.Parse(record))
	}
	return out, nil
}
