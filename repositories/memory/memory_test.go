package memory

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	c "ldserver/api/models/constants"
	columnType "ldserver/api/models/constants/column-type"
	"ldserver/api/models/indexes"
	"ldserver/api/services/files"
	"ldserver/api/services/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const manifest = `
genotype_datasets:
  - id: 1
    name: 1000G
    genome_build: GRCh37
    files: [ALL.chr22.sav]
    samples:
      EUR: [HG00096, HG00097]
      AFR: [NA19017, HG00097]
    phenotype_datasets: [1]
phenotype_datasets:
  - id: 1
    name: pheno
    filepath: pheno.tab
    sample_column: IID
summary_stat_datasets:
  - id: 1
    name: sumstats
    genome_build: GRCh37
    format: METASTAAR
    score_files:
      - {path: chunk1.score.parquet, chrom: "22", region_start: 1, region_mid: 50000000, region_end: 60000000}
masks:
  - id: 1
    name: AF < 0.01
    filepath: mask.epacts.chr22.gencode-exons-AF01.tab.gz
    genome_build: GRCh37
    group_type: GENE
    identifier_type: ENSEMBL
    genotype_datasets: [1]
    summary_stat_datasets: [1]
`

func TestNewBuildsAllSubset(t *testing.T) {
	m, err := ParseManifest(strings.NewReader(manifest))
	require.NoError(t, err)

	src, err := New(*m)
	require.NoError(t, err)

	samples, err := src.Samples(context.Background(), 1, c.AllSamples)
	require.NoError(t, err)
	assert.Equal(t, []string{"HG00096", "HG00097", "NA19017"}, samples)

	subsets, _ := src.SampleSubsets(context.Background(), 1)
	assert.ElementsMatch(t, []string{"ALL", "EUR", "AFR"}, subsets)

	ss, _ := src.SummaryStatDatasets(context.Background())
	require.Len(t, ss, 1)
	assert.True(t, ss[0].IsChunked())
	assert.Equal(t, 50000000, ss[0].ScoreFiles[0].RegionMid)
}

func TestNewRejectsDuplicates(t *testing.T) {
	_, err := New(Manifest{GenotypeDatasets: []indexes.GenotypeDataset{
		{Id: 1, Name: "1000G", GenomeBuild: "GRCh37"},
		{Id: 2, Name: "1000G", GenomeBuild: "GRCh37"},
	}})
	assert.Error(t, err)
}

func TestAddSubset(t *testing.T) {
	m, err := ParseManifest(strings.NewReader(manifest))
	require.NoError(t, err)
	src, err := New(*m)
	require.NoError(t, err)

	require.NoError(t, src.AddSubset(1, "EAS", []string{"HG00403"}))
	assert.Error(t, src.AddSubset(1, "EAS", []string{"HG00404"}))
	assert.Error(t, src.AddSubset(1, c.AllSamples, nil))
	assert.Error(t, src.AddSubset(9, "SAS", nil))

	all, _ := src.Samples(context.Background(), 1, c.AllSamples)
	assert.Contains(t, all, "HG00403")
	assert.Len(t, all, 4)
}

func TestLoadTypesPhenotypes(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.yml"), []byte(manifest), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pheno.tab"),
		[]byte("IID\trand_qt\nHG00096\t0.5\nHG00097\t1.25\n"), 0o644))

	resolver := files.NewLocalResolver(dir)
	src, err := Load(context.Background(), resolver, "manifest.yml")
	require.NoError(t, err)

	reg := registry.New(src, resolver)
	pheno, err := reg.PhenotypeDataset(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, pheno.Columns, 2)
	assert.Equal(t, columnType.Text, pheno.Columns[0].ColumnType)
	assert.False(t, pheno.Columns[0].ForAnalysis)
	assert.Equal(t, columnType.Float, pheno.Columns[1].ColumnType)
	assert.Equal(t, 2, pheno.Nrows)

	ok, err := reg.HasPhenotype(context.Background(), 1, "rand_qt")
	require.NoError(t, err)
	assert.True(t, ok)

	masks, err := reg.MasksForGenotype(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, masks, 1)
	assert.Equal(t, "GENE", string(masks[0].GroupType))
}
