package csvreport

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ca-srg/chanstats/internal/stats"
)

// FileName returns the report filename for the given window.
func FileName(w stats.Window) string {
	return fmt.Sprintf("channel_message_stats_%s.csv", w.FileSuffix())
}

// Write serializes the report matrix under dir and returns the written path.
// Columns are Sender, Total Messages, then one column per channel key in
// first-seen order; cells with no activity are written as "0".
func Write(report *stats.Report, dir string) (string, error) {
	path := filepath.Join(dir, FileName(report.Window))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create report file: %w", err)
	}
	defer func() { _ = f.Close() }()

	// UTF-8 BOM so spreadsheet tools render CJK sender names correctly.
	if _, err := f.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return "", fmt.Errorf("write report file: %w", err)
	}

	w := csv.NewWriter(f)

	channelKeys := report.Matrix.ChannelKeys()
	header := append([]string{"Sender", "Total Messages"}, channelKeys...)
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("write report header: %w", err)
	}

	for _, row := range report.Matrix.Rows() {
		record := make([]string, 0, len(header))
		record = append(record, row.Sender, strconv.Itoa(row.Total))
		for _, n := range row.PerChannel {
			record = append(record, strconv.Itoa(n))
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("write report row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush report file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close report file: %w", err)
	}
	return path, nil
}
