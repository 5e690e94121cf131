package trialdata

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"

	"github.com/sarchlab/trialgrid/datarecording"
	"github.com/sarchlab/trialgrid/phasegrid"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// TrialRow is one row of a trial table. The table named by the variable
// stores one trial per row in rowid order.
type TrialRow struct {
	Code float64
}

// loadSQLite reads the trial table named variable from a SQLite database.
func loadSQLite(path, variable string) (phasegrid.Sequence, error) {
	if !identifier.MatchString(variable) {
		return nil, fmt.Errorf("%w: %q is not a table name",
			ErrVariableNotFound, variable)
	}

	// The driver would silently create a missing database.
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	reader, err := datarecording.NewReader(path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	tables, err := reader.ExistingTables(context.Background())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if !slices.Contains(tables, variable) {
		return nil, fmt.Errorf("%w: no table %q", ErrVariableNotFound,
			variable)
	}

	columns, err := reader.Columns(context.Background(), variable)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if !slices.ContainsFunc(columns, func(c string) bool {
		return strings.EqualFold(c, "Code")
	}) {
		return nil, fmt.Errorf("%w: table %q has no Code column, columns are %v",
			ErrMalformed, variable, columns)
	}

	reader.MapTable(variable, TrialRow{})

	rows, _, err := reader.Query(context.Background(), variable,
		datarecording.QueryParams{OrderBy: "rowid"})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	values := make([]float64, 0, len(rows))
	for _, r := range rows {
		values = append(values, r.(*TrialRow).Code)
	}

	return ToSequence(values)
}
