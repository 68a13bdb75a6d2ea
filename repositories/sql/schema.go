package sql

// portable between sqlite and postgres; ids are assigned by the loader
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS genotype_dataset (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		genome_build TEXT NOT NULL,
		UNIQUE (name, genome_build)
	)`,
	`CREATE TABLE IF NOT EXISTS file (
		id INTEGER PRIMARY KEY,
		genotype_dataset_id INTEGER NOT NULL REFERENCES genotype_dataset(id),
		path TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sample (
		id INTEGER PRIMARY KEY,
		genotype_dataset_id INTEGER NOT NULL REFERENCES genotype_dataset(id),
		subset TEXT NOT NULL,
		sample TEXT NOT NULL,
		UNIQUE (genotype_dataset_id, subset, sample)
	)`,
	`CREATE TABLE IF NOT EXISTS phenotype_dataset (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		filepath TEXT NOT NULL,
		nrows INTEGER NOT NULL DEFAULT 0,
		ncols INTEGER NOT NULL DEFAULT 0,
		delimiter TEXT NOT NULL DEFAULT '',
		sample_column TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS phenotype_column (
		id INTEGER PRIMARY KEY,
		phenotype_dataset_id INTEGER NOT NULL REFERENCES phenotype_dataset(id),
		name TEXT NOT NULL,
		column_type TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		for_analysis BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS genotype_phenotype (
		genotype_dataset_id INTEGER NOT NULL REFERENCES genotype_dataset(id),
		phenotype_dataset_id INTEGER NOT NULL REFERENCES phenotype_dataset(id),
		PRIMARY KEY (genotype_dataset_id, phenotype_dataset_id)
	)`,
	`CREATE TABLE IF NOT EXISTS summary_stat_dataset (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		genome_build TEXT NOT NULL,
		format TEXT NOT NULL DEFAULT 'DEFAULT'
	)`,
	`CREATE TABLE IF NOT EXISTS summary_stat_file (
		id INTEGER PRIMARY KEY,
		summary_stat_dataset_id INTEGER NOT NULL REFERENCES summary_stat_dataset(id),
		kind TEXT NOT NULL,
		path TEXT NOT NULL,
		chrom TEXT NOT NULL DEFAULT '',
		region_start INTEGER NOT NULL DEFAULT 0,
		region_mid INTEGER NOT NULL DEFAULT 0,
		region_end INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS mask (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		filepath TEXT NOT NULL DEFAULT '',
		genome_build TEXT NOT NULL,
		group_type TEXT NOT NULL,
		identifier_type TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS mask_genotype (
		mask_id INTEGER NOT NULL REFERENCES mask(id),
		genotype_dataset_id INTEGER NOT NULL REFERENCES genotype_dataset(id),
		PRIMARY KEY (mask_id, genotype_dataset_id)
	)`,
	`CREATE TABLE IF NOT EXISTS mask_summary_stat (
		mask_id INTEGER NOT NULL REFERENCES mask(id),
		summary_stat_dataset_id INTEGER NOT NULL REFERENCES summary_stat_dataset(id),
		PRIMARY KEY (mask_id, summary_stat_dataset_id)
	)`,
	`CREATE TABLE IF NOT EXISTS correlation (
		name TEXT PRIMARY KEY,
		label TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL
	)`,
}
