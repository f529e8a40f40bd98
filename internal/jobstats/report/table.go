package report

import (
	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/G-Research/jobstats/internal/jobstats/domain"
	"github.com/G-Research/jobstats/pkg/userlog"
)

// ErrNoData is returned by Build when there are no jobs to report on.
var ErrNoData = errors.New("no data")

// Table is a rendered report: one row per job, cells in Columns order.
type Table struct {
	Columns []Column
	Rows    [][]string
}

// Header returns the column names.
func (t *Table) Header() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Build renders one row per job, ordered by the job id string, e.g. "10.0" sorts before "9.0".
func Build(jobs map[userlog.JobId]*domain.JobStats) (*Table, error) {
	if len(jobs) == 0 {
		return nil, ErrNoData
	}

	byKey := make(map[string]*domain.JobStats, len(jobs))
	for id, stats := range jobs {
		byKey[id.String()] = stats
	}
	keys := maps.Keys(byKey)
	slices.Sort(keys)

	table := &Table{
		Columns: Columns(),
		Rows:    make([][]string, 0, len(keys)),
	}
	for _, key := range keys {
		table.Rows = append(table.Rows, row(table.Columns, byKey[key]))
	}
	return table, nil
}

func row(columns []Column, stats *domain.JobStats) []string {
	cells := make([]string, len(columns))
	for i, c := range columns {
		cells[i] = c.Value(stats)
	}
	return cells
}
