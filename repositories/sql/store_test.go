package sql

import (
	"context"
	"testing"

	c "ldserver/api/models/constants"
	columnType "ldserver/api/models/constants/column-type"
	"ldserver/api/models/indexes"
	"ldserver/api/repositories/memory"
	"ldserver/api/services/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureManifest() memory.Manifest {
	return memory.Manifest{
		GenotypeDatasets: []indexes.GenotypeDataset{{
			Id: 1, Name: "1000G", GenomeBuild: "GRCh37",
			Files:               []string{"ALL.chr22.sav", "ALL.chr21.sav"},
			Samples:             map[string][]string{"EUR": {"HG00096", "HG00097"}, "AFR": {"NA19017"}},
			PhenotypeDatasetIds: []int{1},
		}},
		PhenotypeDatasets: []indexes.PhenotypeDataset{{
			Id: 1, Name: "pheno", Filepath: "pheno.tab", Nrows: 3, Ncols: 2, Delimiter: "\t", SampleColumn: "IID",
			Columns: []indexes.PhenotypeColumn{
				{Name: "IID", ColumnType: columnType.Text},
				{Name: "rand_qt", ColumnType: columnType.Float, ForAnalysis: true},
			},
		}},
		SummaryStatDatasets: []indexes.SummaryStatDataset{{
			Id: 1, Name: "sumstats", GenomeBuild: "GRCh37", Format: indexes.SummaryStatFormatMetastaar,
			ScoreFiles: []indexes.SummaryStatFile{{Path: "s1.parquet", Chrom: "22", RegionStart: 1, RegionMid: 100, RegionEnd: 200}},
			CovFiles:   []indexes.SummaryStatFile{{Path: "c1.parquet", Chrom: "22", RegionStart: 1, RegionMid: 100, RegionEnd: 200}},
		}},
		Masks: []indexes.Mask{{
			Id: 1, Name: "AF < 0.01", Filepath: "mask.tab.gz", GenomeBuild: "GRCh37",
			GroupType: "GENE", IdentifierType: "ENSEMBL",
			GenotypeDatasetIds: []int{1}, SummaryStatDatasetIds: []int{1},
		}},
	}
}

func openSeeded(t *testing.T) *Store {
	store, err := Open(context.Background(), "sqlite", "file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.Import(context.Background(), fixtureManifest()))
	return store
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "")
	assert.Error(t, err)
}

func TestGenotypeDatasets(t *testing.T) {
	store := openSeeded(t)

	datasets, err := store.GenotypeDatasets(context.Background())
	require.NoError(t, err)
	require.Len(t, datasets, 1)
	assert.Equal(t, []string{"ALL.chr22.sav", "ALL.chr21.sav"}, datasets[0].Files)
	assert.Equal(t, []int{1}, datasets[0].PhenotypeDatasetIds)
}

func TestSamples(t *testing.T) {
	store := openSeeded(t)
	ctx := context.Background()

	all, err := store.Samples(ctx, 1, c.AllSamples)
	require.NoError(t, err)
	assert.Equal(t, []string{"HG00096", "HG00097", "NA19017"}, all)

	eur, err := store.Samples(ctx, 1, "EUR")
	require.NoError(t, err)
	assert.Equal(t, []string{"HG00096", "HG00097"}, eur)

	subsets, err := store.SampleSubsets(ctx, 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ALL", "AFR", "EUR"}, subsets)
}

func TestDuplicateGenotypeDatasetIsRejected(t *testing.T) {
	store := openSeeded(t)

	m := memory.Manifest{GenotypeDatasets: []indexes.GenotypeDataset{{Id: 2, Name: "1000G", GenomeBuild: "GRCh37"}}}
	assert.Error(t, store.Import(context.Background(), m))
}

func TestRegistryOverSql(t *testing.T) {
	ctx := context.Background()
	reg := registry.New(openSeeded(t), nil)

	pheno, err := reg.PhenotypeDataset(ctx, 1)
	require.NoError(t, err)
	require.Len(t, pheno.Columns, 2)
	assert.True(t, pheno.Columns[1].ForAnalysis)
	assert.False(t, pheno.Columns[0].ForAnalysis)

	ss, err := reg.SummaryStatDataset(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ss.IsChunked())
	require.Len(t, ss.ScoreFiles, 1)
	require.Len(t, ss.CovFiles, 1)
	assert.Equal(t, "c1.parquet", ss.CovFiles[0].Path)

	masks, err := reg.MasksForSummaryStat(ctx, 1)
	require.NoError(t, err)
	require.Len(t, masks, 1)
	assert.Equal(t, "AF < 0.01", masks[0].Name)

	correlations, err := reg.Correlations(ctx)
	require.NoError(t, err)
	assert.Len(t, correlations, 3)
}
