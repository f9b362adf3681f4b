package standards

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// CSVHeader is the column layout of the standards sheet.
var CSVHeader = []string{"Task_Name", "EC_Category", "Base_Score", "Target_Daily"}

// LoadCSV builds a registry from a standards sheet. Columns are matched by
// header name so extra columns are ignored.
func LoadCSV(rd io.Reader) (*Registry, error) {
	cr := csv.NewReader(rd)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %w", ErrInvalidStandard, err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	for _, col := range CSVHeader {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("%w: missing column %s", ErrInvalidStandard, col)
		}
	}

	seed := []TaskStandard{}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrInvalidStandard, line, err)
		}
		base, err := strconv.Atoi(strings.TrimSpace(rec[idx["Base_Score"]]))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: base score: %w", ErrInvalidStandard, line, err)
		}
		target, err := strconv.Atoi(strings.TrimSpace(rec[idx["Target_Daily"]]))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: daily target: %w", ErrInvalidStandard, line, err)
		}
		seed = append(seed, TaskStandard{
			TaskName:    strings.TrimSpace(rec[idx["Task_Name"]]),
			Category:    strings.TrimSpace(rec[idx["EC_Category"]]),
			BaseScore:   base,
			TargetDaily: target,
		})
	}
	return New(WithStandards(seed))
}

// WriteCSV writes the registry as a standards sheet.
func (r *Registry) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, s := range r.Standards() {
		row := []string{
			s.TaskName,
			s.Category,
			strconv.Itoa(s.BaseScore),
			strconv.Itoa(s.TargetDaily),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
