package sql

import (
	"context"
	"errors"
	"fmt"
	"sort"

	c "ldserver/api/models/constants"
	"ldserver/api/models/indexes"
	"ldserver/api/repositories/memory"

	"github.com/jmoiron/sqlx"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Store is a registry source over a relational database. Supported drivers
// are "sqlite" and "pgx".
type Store struct {
	db *sqlx.DB
}

func Open(ctx context.Context, driver string, dsn string) (*Store, error) {
	switch driver {
	case "sqlite", "pgx":
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == "sqlite" {
		// in-memory databases are per connection
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	store := &Store{db: db}
	if err := store.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		for i, stmt := range schemaStatements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("execute schema statement %d: %w", i+1, err)
			}
		}
		return nil
	})
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	if s == nil || s.db == nil {
		return errors.New("sql store not initialised")
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *Store) selectAll(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	if err := s.db.SelectContext(ctx, dest, s.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("select: %w", err)
	}
	return nil
}

type link struct {
	From int `db:"from_id"`
	To   int `db:"to_id"`
}

func (s *Store) links(ctx context.Context, query string) (map[int][]int, error) {
	rows := []link{}
	if err := s.selectAll(ctx, &rows, query); err != nil {
		return nil, err
	}
	out := map[int][]int{}
	for _, l := range rows {
		out[l.From] = append(out[l.From], l.To)
	}
	return out, nil
}

func (s *Store) GenotypeDatasets(ctx context.Context) ([]indexes.GenotypeDataset, error) {
	datasets := []indexes.GenotypeDataset{}
	if err := s.selectAll(ctx, &datasets, `SELECT id, name, description, genome_build FROM genotype_dataset ORDER BY id`); err != nil {
		return nil, err
	}

	paths := []struct {
		DatasetId int    `db:"genotype_dataset_id"`
		Path      string `db:"path"`
	}{}
	if err := s.selectAll(ctx, &paths, `SELECT genotype_dataset_id, path FROM file ORDER BY id`); err != nil {
		return nil, err
	}
	phenotypes, err := s.links(ctx, `SELECT genotype_dataset_id AS from_id, phenotype_dataset_id AS to_id FROM genotype_phenotype ORDER BY phenotype_dataset_id`)
	if err != nil {
		return nil, err
	}

	byId := map[int]*indexes.GenotypeDataset{}
	for i := range datasets {
		byId[datasets[i].Id] = &datasets[i]
		datasets[i].PhenotypeDatasetIds = phenotypes[datasets[i].Id]
	}
	for _, p := range paths {
		if g, ok := byId[p.DatasetId]; ok {
			g.Files = append(g.Files, p.Path)
		}
	}
	return datasets, nil
}

func (s *Store) PhenotypeDatasets(ctx context.Context) ([]indexes.PhenotypeDataset, error) {
	datasets := []indexes.PhenotypeDataset{}
	if err := s.selectAll(ctx, &datasets, `SELECT id, name, description, filepath, nrows, ncols, delimiter, sample_column FROM phenotype_dataset ORDER BY id`); err != nil {
		return nil, err
	}

	columns := []struct {
		DatasetId int `db:"phenotype_dataset_id"`
		indexes.PhenotypeColumn
	}{}
	if err := s.selectAll(ctx, &columns, `SELECT phenotype_dataset_id, name, column_type, description, for_analysis FROM phenotype_column ORDER BY id`); err != nil {
		return nil, err
	}

	byId := map[int]*indexes.PhenotypeDataset{}
	for i := range datasets {
		byId[datasets[i].Id] = &datasets[i]
	}
	for _, col := range columns {
		if p, ok := byId[col.DatasetId]; ok {
			p.Columns = append(p.Columns, col.PhenotypeColumn)
		}
	}
	return datasets, nil
}

func (s *Store) SummaryStatDatasets(ctx context.Context) ([]indexes.SummaryStatDataset, error) {
	datasets := []indexes.SummaryStatDataset{}
	if err := s.selectAll(ctx, &datasets, `SELECT id, name, description, genome_build, format FROM summary_stat_dataset ORDER BY id`); err != nil {
		return nil, err
	}

	fileRows := []struct {
		DatasetId int    `db:"summary_stat_dataset_id"`
		Kind      string `db:"kind"`
		indexes.SummaryStatFile
	}{}
	if err := s.selectAll(ctx, &fileRows, `SELECT summary_stat_dataset_id, kind, path, chrom, region_start, region_mid, region_end FROM summary_stat_file ORDER BY id`); err != nil {
		return nil, err
	}

	byId := map[int]*indexes.SummaryStatDataset{}
	for i := range datasets {
		byId[datasets[i].Id] = &datasets[i]
	}
	for _, f := range fileRows {
		ss, ok := byId[f.DatasetId]
		if !ok {
			continue
		}
		if f.Kind == kindCov {
			ss.CovFiles = append(ss.CovFiles, f.SummaryStatFile)
		} else {
			ss.ScoreFiles = append(ss.ScoreFiles, f.SummaryStatFile)
		}
	}
	return datasets, nil
}

func (s *Store) Masks(ctx context.Context) ([]indexes.Mask, error) {
	masks := []indexes.Mask{}
	if err := s.selectAll(ctx, &masks, `SELECT id, name, description, filepath, genome_build, group_type, identifier_type FROM mask ORDER BY id`); err != nil {
		return nil, err
	}
	genotypes, err := s.links(ctx, `SELECT mask_id AS from_id, genotype_dataset_id AS to_id FROM mask_genotype ORDER BY genotype_dataset_id`)
	if err != nil {
		return nil, err
	}
	sumstats, err := s.links(ctx, `SELECT mask_id AS from_id, summary_stat_dataset_id AS to_id FROM mask_summary_stat ORDER BY summary_stat_dataset_id`)
	if err != nil {
		return nil, err
	}
	for i := range masks {
		masks[i].GenotypeDatasetIds = genotypes[masks[i].Id]
		masks[i].SummaryStatDatasetIds = sumstats[masks[i].Id]
	}
	return masks, nil
}

func (s *Store) Correlations(ctx context.Context) ([]indexes.Correlation, error) {
	out := []indexes.Correlation{}
	err := s.selectAll(ctx, &out, `SELECT name, label, description, type FROM correlation ORDER BY name`)
	return out, err
}

func (s *Store) SampleSubsets(ctx context.Context, genotypeDatasetId int) ([]string, error) {
	out := []string{}
	err := s.selectAll(ctx, &out, `SELECT DISTINCT subset FROM sample WHERE genotype_dataset_id = ?`, genotypeDatasetId)
	return out, err
}

func (s *Store) Samples(ctx context.Context, genotypeDatasetId int, subset string) ([]string, error) {
	out := []string{}
	err := s.selectAll(ctx, &out, `SELECT sample FROM sample WHERE genotype_dataset_id = ? AND subset = ? ORDER BY id`, genotypeDatasetId, subset)
	return out, err
}

const (
	kindScore = "score"
	kindCov   = "cov"
)

// Import writes a manifest into the database in one transaction. Subsets are
// stored explicitly, ALL included.
func (s *Store) Import(ctx context.Context, m memory.Manifest) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		exec := func(query string, args ...interface{}) error {
			_, err := tx.ExecContext(ctx, tx.Rebind(query), args...)
			return err
		}
		var fileId, sampleId, columnId, ssFileId int

		for _, g := range m.GenotypeDatasets {
			if err := exec(`INSERT INTO genotype_dataset (id, name, description, genome_build) VALUES (?, ?, ?, ?)`,
				g.Id, g.Name, g.Description, g.GenomeBuild); err != nil {
				return fmt.Errorf("genotype dataset %d: %w", g.Id, err)
			}
			for _, p := range g.Files {
				fileId++
				if err := exec(`INSERT INTO file (id, genotype_dataset_id, path) VALUES (?, ?, ?)`, fileId, g.Id, p); err != nil {
					return err
				}
			}

			subsets := make([]string, 0, len(g.Samples))
			for name := range g.Samples {
				subsets = append(subsets, name)
			}
			sort.Strings(subsets)
			all := map[string]bool{}
			for _, name := range subsets {
				for _, sample := range g.Samples[name] {
					if name != c.AllSamples {
						all[sample] = true
					}
					sampleId++
					if err := exec(`INSERT INTO sample (id, genotype_dataset_id, subset, sample) VALUES (?, ?, ?, ?)`,
						sampleId, g.Id, name, sample); err != nil {
						return err
					}
				}
			}
			if _, declared := g.Samples[c.AllSamples]; !declared {
				union := make([]string, 0, len(all))
				for sample := range all {
					union = append(union, sample)
				}
				sort.Strings(union)
				for _, sample := range union {
					sampleId++
					if err := exec(`INSERT INTO sample (id, genotype_dataset_id, subset, sample) VALUES (?, ?, ?, ?)`,
						sampleId, g.Id, c.AllSamples, sample); err != nil {
						return err
					}
				}
			}
		}

		for _, p := range m.PhenotypeDatasets {
			if err := exec(`INSERT INTO phenotype_dataset (id, name, description, filepath, nrows, ncols, delimiter, sample_column) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				p.Id, p.Name, p.Description, p.Filepath, p.Nrows, p.Ncols, p.Delimiter, p.SampleColumn); err != nil {
				return fmt.Errorf("phenotype dataset %d: %w", p.Id, err)
			}
			for _, col := range p.Columns {
				columnId++
				if err := exec(`INSERT INTO phenotype_column (id, phenotype_dataset_id, name, column_type, description, for_analysis) VALUES (?, ?, ?, ?, ?, ?)`,
					columnId, p.Id, col.Name, string(col.ColumnType), col.Description, col.ForAnalysis); err != nil {
					return err
				}
			}
		}

		for _, g := range m.GenotypeDatasets {
			for _, pid := range g.PhenotypeDatasetIds {
				if err := exec(`INSERT INTO genotype_phenotype (genotype_dataset_id, phenotype_dataset_id) VALUES (?, ?)`, g.Id, pid); err != nil {
					return err
				}
			}
		}

		for _, ss := range m.SummaryStatDatasets {
			format := ss.Format
			if format == "" {
				format = indexes.SummaryStatFormatDefault
			}
			if err := exec(`INSERT INTO summary_stat_dataset (id, name, description, genome_build, format) VALUES (?, ?, ?, ?, ?)`,
				ss.Id, ss.Name, ss.Description, ss.GenomeBuild, format); err != nil {
				return fmt.Errorf("summary statistic dataset %d: %w", ss.Id, err)
			}
			for kind, list := range map[string][]indexes.SummaryStatFile{kindScore: ss.ScoreFiles, kindCov: ss.CovFiles} {
				for _, f := range list {
					ssFileId++
					if err := exec(`INSERT INTO summary_stat_file (id, summary_stat_dataset_id, kind, path, chrom, region_start, region_mid, region_end) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
						ssFileId, ss.Id, kind, f.Path, f.Chrom, f.RegionStart, f.RegionMid, f.RegionEnd); err != nil {
						return err
					}
				}
			}
		}

		for _, mask := range m.Masks {
			if err := exec(`INSERT INTO mask (id, name, description, filepath, genome_build, group_type, identifier_type) VALUES (?, ?, ?, ?, ?, ?, ?)`,
				mask.Id, mask.Name, mask.Description, mask.Filepath, mask.GenomeBuild, string(mask.GroupType), string(mask.IdentifierType)); err != nil {
				return fmt.Errorf("mask %d: %w", mask.Id, err)
			}
			for _, gid := range mask.GenotypeDatasetIds {
				if err := exec(`INSERT INTO mask_genotype (mask_id, genotype_dataset_id) VALUES (?, ?)`, mask.Id, gid); err != nil {
					return err
				}
			}
			for _, sid := range mask.SummaryStatDatasetIds {
				if err := exec(`INSERT INTO mask_summary_stat (mask_id, summary_stat_dataset_id) VALUES (?, ?)`, mask.Id, sid); err != nil {
					return err
				}
			}
		}

		for _, corr := range m.Correlations {
			if err := exec(`INSERT INTO correlation (name, label, description, type) VALUES (?, ?, ?, ?)`,
				corr.Name, corr.Label, corr.Description, corr.Type); err != nil {
				return err
			}
		}
		return nil
	})
}
