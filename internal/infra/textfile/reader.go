package textfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/viscloud/labeler/internal/domain/entity"
)

// ExportExtension marks label files inside a labels directory.
const ExportExtension = ".dat"

// ParseRecords reads export lines. Blank lines are skipped and records
// without an index are numbered by their position within their kind.
func ParseRecords(r io.Reader) ([]entity.Record, error) {
	var out []entity.Record
	seen := make(map[entity.Kind]int)
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		rec, err := entity.ParseRecord(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if rec.Index < 0 {
			rec.Index = seen[rec.Kind]
		}
		seen[rec.Kind]++
		out = append(out, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	return out, nil
}

func ReadRecordsFile(path string) ([]entity.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open labels file: %w", err)
	}
	defer f.Close()

	records, err := ParseRecords(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// ReadRecords reads a single export file, or every export file in a directory
// in name order.
func ReadRecords(path string) ([]entity.Record, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat labels path: %w", err)
	}
	if !info.IsDir() {
		return ReadRecordsFile(path)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read labels dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ExportExtension) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var all []entity.Record
	for _, name := range names {
		records, err := ReadRecordsFile(filepath.Join(path, name))
		if err != nil {
			return nil, err
		}
		all = append(all, records...)
	}
	return all, nil
}
