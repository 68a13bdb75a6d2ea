package phenotypes

import (
	"strings"
	"testing"

	c "ldserver/api/models/constants"
	columnType "ldserver/api/models/constants/column-type"
	"ldserver/api/models/faults"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const table = "FID\tIID\tSEX\trand_qt\trand_binary\tage\tcohort\n" +
	"F1\tHG00096\t1\t0.11\t1\t34\tA\n" +
	"F2\tHG00097\t2\t-1.4\t0\t51\tB\n" +
	"F3\tHG00099\t2\tNA\t1\t47\tA\n" +
	"F4\tHG00100\t1\t2\t0\t\tA\n"

func TestInfer(t *testing.T) {
	out, err := Infer(strings.NewReader(table), "\t", nil)
	require.NoError(t, err)

	assert.Equal(t, 4, out.Nrows)
	assert.Equal(t, 7, out.Ncols)

	types := map[string]c.ColumnType{}
	analysis := map[string]bool{}
	for _, col := range out.Columns {
		types[col.Name] = col.ColumnType
		analysis[col.Name] = col.ForAnalysis
	}

	assert.Equal(t, columnType.Text, types["IID"])
	assert.Equal(t, columnType.Categorical, types["SEX"])
	assert.Equal(t, columnType.Float, types["rand_qt"])
	assert.Equal(t, columnType.Integer, types["rand_binary"])
	assert.Equal(t, columnType.Integer, types["age"])
	assert.Equal(t, columnType.Text, types["cohort"])

	assert.False(t, analysis["FID"])
	assert.False(t, analysis["SEX"])
	assert.True(t, analysis["rand_qt"])
}

func TestInferOverrides(t *testing.T) {
	t.Run("categorical override is applied", func(t *testing.T) {
		out, err := Infer(strings.NewReader(table), "\t",
			map[string]c.ColumnType{"rand_binary": columnType.Categorical})
		require.NoError(t, err)
		assert.Equal(t, columnType.Categorical, out.Columns[4].ColumnType)
	})

	t.Run("float override over text is rejected", func(t *testing.T) {
		_, err := Infer(strings.NewReader(table), "\t",
			map[string]c.ColumnType{"cohort": columnType.Float})
		require.Error(t, err)
		assert.True(t, faults.Is(err, faults.Validation))
		assert.Contains(t, err.Error(), "cohort")
	})

	t.Run("float override over integers is allowed", func(t *testing.T) {
		out, err := Infer(strings.NewReader(table), "\t",
			map[string]c.ColumnType{"age": columnType.Float})
		require.NoError(t, err)
		assert.Equal(t, columnType.Float, out.Columns[5].ColumnType)
	})
}

func TestGuess(t *testing.T) {
	assert.Equal(t, columnType.Text, Guess(nil))
	assert.Equal(t, columnType.Integer, Guess([]string{"1", "2", "x"}))
	assert.Equal(t, columnType.Float, Guess([]string{"1.5", "2", "x", "0.25"}))
	assert.Equal(t, columnType.Text, Guess([]string{"a", "b", "1"}))
}
