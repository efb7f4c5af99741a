package csvfile

import (
	"encoding/csv"
	"fmt"
	"os"
)

// Writer は行の列を CSV ファイルへ書き出します。
type Writer struct{}

// NewWriter は Writer を生成します。
func NewWriter() *Writer {
	return &Writer{}
}

// WriteAll は rows を 1 ファイルに書き出します。既存ファイルは上書きされます。
func (w *Writer) WriteAll(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csvfile: create %s: %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("csvfile: write %s: %w", path, err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("csvfile: flush %s: %w", path, err)
	}
	return f.Close()
}
