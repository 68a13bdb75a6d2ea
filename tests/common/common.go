package common

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"testing"

	"ldserver/api/models"
	memRepo "ldserver/api/repositories/memory"
	"ldserver/api/router"
	"ldserver/api/services/cache"
	memEngine "ldserver/api/services/engine/memory"
	"ldserver/api/services/files"
	"ldserver/api/services/query"
	"ldserver/api/services/registry"

	"github.com/labstack/echo"
	"github.com/stretchr/testify/require"
	yaml "gopkg.in/yaml.v2"
)

const Manifest = `
genotype_datasets:
  - id: 1
    name: 1000G
    description: 1000 Genomes phase 3
    genome_build: GRCh37
    files: [1000G/chr22.sav]
    samples:
      EUR: [HG00096, HG00097]
      AFR: [NA19017]
    phenotype_datasets: [1]
phenotype_datasets:
  - id: 1
    name: pheno
    filepath: pheno.tab
    delimiter: "\t"
    sample_column: IID
summary_stat_datasets:
  - id: 1
    name: sumstats
    genome_build: GRCh37
    score_files: [{path: 1000G/chr22.sav}]
    cov_files: [{path: 1000G/chr22.sav}]
masks:
  - id: 1
    name: AF < 0.01
    filepath: mask.tab
    genome_build: GRCh37
    group_type: GENE
    identifier_type: ENSEMBL
    genotype_datasets: [1]
    summary_stat_datasets: [1]
`

const Fixture = `
panels:
  - files: ["1000G/chr22.sav"]
    samples: 3
    sigma_squared: 0.25
    variants:
      - {id: "22:51241101_A/T", alt_freq: 0.10, pvalue: 0.01, score: 2.5, variance: 0.2}
      - {id: "22:51241102_G/C", alt_freq: 0.30, pvalue: 0.20, score: 1.1, variance: 0.3}
      - {id: "22:51241250_C/T", alt_freq: 0.02, pvalue: 0.50, score: -0.4, variance: 0.1}
      - {id: "22:51241386_A/G", alt_freq: 0.90, pvalue: 0.04, score: 1.9, variance: 0.4}
      - {id: "22:51242001_T/C", alt_freq: 0.40, pvalue: 0.90, score: 0.1, variance: 0.2}
    pairs:
      - {a: "22:51241101_A/T", b: "22:51241102_G/C", r: 0.5, cov: 0.05}
      - {a: "22:51241101_A/T", b: "22:51241250_C/T", r: -0.2}
      - {a: "22:51241102_G/C", b: "22:51241250_C/T", r: 0.9, cov: 0.01}
      - {a: "22:51241101_A/T", b: "22:51241386_A/G", r: 0.3}
      - {a: "22:51241250_C/T", b: "22:51241386_A/G", r: 0.1}
      - {a: "22:51241101_A/T", b: "22:51242001_T/C", r: 0.7}
      - {a: "22:51241102_G/C", b: "22:51241386_A/G", r: 0.2}
`

const Phenotypes = "FID\tIID\tSEX\trand\tsmoker\n" +
	"F1\tHG00096\t1\t0.51\tyes\n" +
	"F2\tHG00097\t2\t-1.20\tno\n" +
	"F3\tNA19017\t1\tNA\tno\n"

const Mask = "# group\tchrom\tstart\tstop\tvariants\n" +
	"ZNF\t22\t51241101\t51241400\t22:51241101_A/T\t22:51241386_A/G\n"

func InitConfig() *models.Config {
	var cfg models.Config

	// get this file's path
	_, filename, _, _ := runtime.Caller(0)
	folderpath := path.Dir(filename)

	// retrieve common's test.config
	f, err := os.Open(fmt.Sprintf("%s/test.config.yml", folderpath))
	if err != nil {
		processError(err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	err = decoder.Decode(&cfg)
	if err != nil {
		processError(err)
	}

	return &cfg
}

func processError(err error) {
	fmt.Println(err)
	os.Exit(2)
}

func write(t *testing.T, dir string, name string, content string) {
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

// NewTestServer wires the whole api over a temporary data root holding the
// manifest, the engine fixture and their files.
func NewTestServer(t *testing.T) (*echo.Echo, *models.Config) {
	cfg := InitConfig()

	dir := t.TempDir()
	cfg.Files.Root = dir
	write(t, dir, cfg.Registry.Manifest, Manifest)
	write(t, dir, cfg.Engine.Fixture, Fixture)
	write(t, dir, "1000G/chr22.sav", "genotypes")
	write(t, dir, "pheno.tab", Phenotypes)
	write(t, dir, "mask.tab", Mask)

	ctx := context.Background()
	resolver := files.NewLocalResolver(dir)

	source, err := memRepo.Load(ctx, resolver, cfg.Registry.Manifest)
	require.NoError(t, err)
	eng, err := memEngine.Load(ctx, resolver, cfg.Engine.Fixture, cfg.Engine.SegmentSize)
	require.NoError(t, err)

	reg := registry.New(source, resolver)
	cs := cache.NewCacheService(cfg)

	e := router.New(router.Services{
		Config:       cfg,
		Registry:     reg,
		Orchestrator: query.New(reg, eng, cs, cfg),
		CacheService: cs,
	})
	return e, cfg
}
