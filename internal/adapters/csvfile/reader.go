package csvfile

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/ogurasousui/employee-delta-sync/internal/core/ingest"
)

// Reader は CSV ファイルをヘッダ行をキーにした行の列として読み出します。
type Reader struct {
	comma rune
}

// NewReader は Reader を生成します。区切り文字はカンマです。
func NewReader() *Reader {
	return &Reader{comma: ','}
}

// ReadAll はファイル全体を 1 パスで読み、各行を列名からセル値への
// 対応に変換します。ヘッダより短い行の欠損セルは存在しない扱いになります。
func (r *Reader) ReadAll(path string) ([]ingest.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csvfile: open %s: %w", path, err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.Comma = r.comma
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csvfile: read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := records[0]
	rows := make([]ingest.Row, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(ingest.Row, len(header))
		for i, column := range header {
			if i < len(record) {
				row[column] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
