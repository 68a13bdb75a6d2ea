package phenotypes

import (
	"context"
	"fmt"
	"io"
	"math"
	"strconv"

	c "ldserver/api/models/constants"
	columnType "ldserver/api/models/constants/column-type"
	"ldserver/api/models/faults"
	"ldserver/api/models/indexes"
	"ldserver/api/services/files"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

var missing = []string{"", "NA", "NaN", "nan", "."}

// Table is the typed shape of a phenotype file.
type Table struct {
	Columns []indexes.PhenotypeColumn
	Nrows   int
	Ncols   int
}

// Load opens the dataset's file through the resolver and types its columns.
func Load(ctx context.Context, resolver files.Resolver, dataset indexes.PhenotypeDataset) (*Table, error) {
	rc, err := files.OpenText(ctx, resolver, dataset.Filepath)
	if err != nil {
		return nil, fmt.Errorf("phenotype dataset %d: %w", dataset.Id, err)
	}
	defer rc.Close()

	return Infer(rc, dataset.Delimiter, dataset.Overrides)
}

// Infer reads a delimited table with a header row and assigns each column the
// type that wins a majority vote over its non-missing values. Overrides replace
// the inferred type, except that a numeric override on a column holding
// non-numeric text is rejected.
func Infer(r io.Reader, delimiter string, overrides map[string]c.ColumnType) (*Table, error) {
	sep := '\t'
	if delimiter != "" {
		sep = []rune(delimiter)[0]
	}

	df := dataframe.ReadCSV(r,
		dataframe.WithDelimiter(sep),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(missing),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("reading phenotype table: %w", df.Err)
	}

	table := &Table{Nrows: df.Nrow(), Ncols: df.Ncol()}
	for _, name := range df.Names() {
		values := present(df.Col(name))

		col := indexes.PhenotypeColumn{Name: name, ForAnalysis: true}
		if structural, ok := columnType.StructuralColumns[name]; ok {
			col.ColumnType = structural
			col.ForAnalysis = false
		} else {
			col.ColumnType = Guess(values)
		}

		if override, ok := overrides[name]; ok {
			if err := checkOverride(name, override, values); err != nil {
				return nil, err
			}
			col.ColumnType = override
		}
		table.Columns = append(table.Columns, col)
	}
	return table, nil
}

func present(s series.Series) []string {
	nan := s.IsNaN()
	out := make([]string, 0, s.Len())
	for i, rec := range s.Records() {
		if !nan[i] {
			out = append(out, rec)
		}
	}
	return out
}

func classify(v string) c.ColumnType {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return columnType.Text
	}
	if f == math.Trunc(f) && !math.IsInf(f, 0) {
		return columnType.Integer
	}
	return columnType.Float
}

// Guess returns the most common value type. Ties resolve toward the wider
// numeric type, then text.
func Guess(values []string) c.ColumnType {
	if len(values) == 0 {
		return columnType.Text
	}

	votes := map[c.ColumnType]int{}
	for _, v := range values {
		votes[classify(v)]++
	}

	best := columnType.Text
	for _, t := range []c.ColumnType{columnType.Float, columnType.Integer, columnType.Text} {
		if votes[t] > votes[best] {
			best = t
		}
	}
	return best
}

func checkOverride(name string, override c.ColumnType, values []string) error {
	if override != columnType.Float && override != columnType.Integer {
		return nil
	}
	for _, v := range values {
		if classify(v) == columnType.Text {
			return faults.Validationf("Column '%s' contains non-numeric value '%s' and cannot be declared %s", name, v, override)
		}
	}
	return nil
}
