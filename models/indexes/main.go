package indexes

import (
	c "ldserver/api/models/constants"
)

const (
	SummaryStatFormatDefault   = "DEFAULT"
	SummaryStatFormatMetastaar = "METASTAAR"
)

type GenotypeDataset struct {
	Id          int    `json:"id" yaml:"id" db:"id" mapstructure:"id"`
	Name        string `json:"name" yaml:"name" db:"name" mapstructure:"name"`
	Description string `json:"description" yaml:"description" db:"description" mapstructure:"description"`
	GenomeBuild string `json:"genomeBuild" yaml:"genome_build" db:"genome_build" mapstructure:"genome_build"`

	Files []string `json:"files" yaml:"files" db:"-" mapstructure:"files"`
	// subset name -> sample names
	Samples             map[string][]string `json:"-" yaml:"samples" db:"-" mapstructure:"samples"`
	PhenotypeDatasetIds []int               `json:"phenotypeDatasets" yaml:"phenotype_datasets" db:"-" mapstructure:"phenotype_datasets"`
}

type PhenotypeDataset struct {
	Id           int    `json:"id" yaml:"id" db:"id" mapstructure:"id"`
	Name         string `json:"name" yaml:"name" db:"name" mapstructure:"name"`
	Description  string `json:"description" yaml:"description" db:"description" mapstructure:"description"`
	Filepath     string `json:"-" yaml:"filepath" db:"filepath" mapstructure:"filepath"`
	Nrows        int    `json:"nrows" yaml:"nrows" db:"nrows" mapstructure:"nrows"`
	Ncols        int    `json:"ncols" yaml:"ncols" db:"ncols" mapstructure:"ncols"`
	Delimiter    string `json:"-" yaml:"delimiter" db:"delimiter" mapstructure:"delimiter"`
	SampleColumn string `json:"sampleColumn" yaml:"sample_column" db:"sample_column" mapstructure:"sample_column"`

	Columns []PhenotypeColumn `json:"columns" yaml:"columns" db:"-" mapstructure:"columns"`
	// declared type overrides applied over inferred types
	Overrides map[string]c.ColumnType `json:"-" yaml:"overrides" db:"-" mapstructure:"overrides"`
}

type PhenotypeColumn struct {
	Name        string       `json:"name" yaml:"name" db:"name" mapstructure:"name"`
	ColumnType  c.ColumnType `json:"type" yaml:"type" db:"column_type" mapstructure:"type"`
	Description string       `json:"description" yaml:"description" db:"description" mapstructure:"description"`
	ForAnalysis bool         `json:"forAnalysis" yaml:"for_analysis" db:"for_analysis" mapstructure:"for_analysis"`
}

type SummaryStatDataset struct {
	Id          int    `json:"id" yaml:"id" db:"id" mapstructure:"id"`
	Name        string `json:"name" yaml:"name" db:"name" mapstructure:"name"`
	Description string `json:"description" yaml:"description" db:"description" mapstructure:"description"`
	GenomeBuild string `json:"genomeBuild" yaml:"genome_build" db:"genome_build" mapstructure:"genome_build"`
	Format      string `json:"format" yaml:"format" db:"format" mapstructure:"format"`

	ScoreFiles []SummaryStatFile `json:"-" yaml:"score_files" db:"-" mapstructure:"score_files"`
	CovFiles   []SummaryStatFile `json:"-" yaml:"cov_files" db:"-" mapstructure:"cov_files"`
}

func (s SummaryStatDataset) IsChunked() bool {
	return s.Format == SummaryStatFormatMetastaar
}

// SummaryStatFile region fields are only populated for chunked formats
type SummaryStatFile struct {
	Path        string `json:"path" yaml:"path" db:"path" mapstructure:"path"`
	Chrom       string `json:"chrom" yaml:"chrom" db:"chrom" mapstructure:"chrom"`
	RegionStart int    `json:"regionStart" yaml:"region_start" db:"region_start" mapstructure:"region_start"`
	RegionMid   int    `json:"regionMid" yaml:"region_mid" db:"region_mid" mapstructure:"region_mid"`
	RegionEnd   int    `json:"regionEnd" yaml:"region_end" db:"region_end" mapstructure:"region_end"`
}

type Mask struct {
	Id             int              `json:"id" yaml:"id" db:"id" mapstructure:"id"`
	Name           string           `json:"name" yaml:"name" db:"name" mapstructure:"name"`
	Description    string           `json:"description" yaml:"description" db:"description" mapstructure:"description"`
	Filepath       string           `json:"-" yaml:"filepath" db:"filepath" mapstructure:"filepath"`
	GenomeBuild    string           `json:"genomeBuild" yaml:"genome_build" db:"genome_build" mapstructure:"genome_build"`
	GroupType      c.GroupType      `json:"groupType" yaml:"group_type" db:"group_type" mapstructure:"group_type"`
	IdentifierType c.IdentifierType `json:"identifierType" yaml:"identifier_type" db:"identifier_type" mapstructure:"identifier_type"`

	GenotypeDatasetIds    []int `json:"-" yaml:"genotype_datasets" db:"-" mapstructure:"genotype_datasets"`
	SummaryStatDatasetIds []int `json:"-" yaml:"summary_stat_datasets" db:"-" mapstructure:"summary_stat_datasets"`
}

type Correlation struct {
	Name        string `json:"name" yaml:"name" db:"name" mapstructure:"name"`
	Label       string `json:"label" yaml:"label" db:"label" mapstructure:"label"`
	Description string `json:"description" yaml:"description" db:"description" mapstructure:"description"`
	Type        string `json:"type" yaml:"type" db:"type" mapstructure:"type"`
}

func containsInt(ids []int, id int) bool {
	for _, i := range ids {
		if i == id {
			return true
		}
	}
	return false
}

func (m Mask) LinkedToGenotype(id int) bool { return containsInt(m.GenotypeDatasetIds, id) }

func (m Mask) LinkedToSummaryStat(id int) bool { return containsInt(m.SummaryStatDatasetIds, id) }

func (g GenotypeDataset) LinkedToPhenotype(id int) bool { return containsInt(g.PhenotypeDatasetIds, id) }

var MAPPING_FIELDS_KEYWORD_IG256 = map[string]interface{}{
	"keyword": map[string]interface{}{
		"type":         "keyword",
		"ignore_above": 256,
	},
}
var MAPPING_TEXT = map[string]interface{}{"type": "text", "fields": MAPPING_FIELDS_KEYWORD_IG256}
var MAPPING_KEYWORD = map[string]interface{}{"type": "keyword"}
var MAPPING_LONG = map[string]interface{}{"type": "long"}
var MAPPING_BOOLEAN = map[string]interface{}{"type": "boolean"}
var MAPPING_FLATTENED = map[string]interface{}{"type": "flattened"}

// registry index mappings, keyed by index name
var MAPPINGS = map[string]map[string]interface{}{
	"ld-genotype-datasets": {
		"id":                 MAPPING_LONG,
		"name":               MAPPING_KEYWORD,
		"description":        MAPPING_TEXT,
		"genome_build":       MAPPING_KEYWORD,
		"files":              MAPPING_KEYWORD,
		"samples":            MAPPING_FLATTENED,
		"phenotype_datasets": MAPPING_LONG,
	},
	"ld-phenotype-datasets": {
		"id":            MAPPING_LONG,
		"name":          MAPPING_KEYWORD,
		"description":   MAPPING_TEXT,
		"filepath":      MAPPING_KEYWORD,
		"nrows":         MAPPING_LONG,
		"ncols":         MAPPING_LONG,
		"delimiter":     MAPPING_KEYWORD,
		"sample_column": MAPPING_KEYWORD,
		"columns": map[string]interface{}{
			"type": "nested",
			"properties": map[string]interface{}{
				"name":         MAPPING_KEYWORD,
				"type":         MAPPING_KEYWORD,
				"description":  MAPPING_TEXT,
				"for_analysis": MAPPING_BOOLEAN,
			},
		},
	},
	"ld-summary-stat-datasets": {
		"id":           MAPPING_LONG,
		"name":         MAPPING_KEYWORD,
		"description":  MAPPING_TEXT,
		"genome_build": MAPPING_KEYWORD,
		"format":       MAPPING_KEYWORD,
		"score_files":  map[string]interface{}{"type": "object", "enabled": false},
		"cov_files":    map[string]interface{}{"type": "object", "enabled": false},
	},
	"ld-masks": {
		"id":                    MAPPING_LONG,
		"name":                  MAPPING_KEYWORD,
		"description":           MAPPING_TEXT,
		"filepath":              MAPPING_KEYWORD,
		"genome_build":          MAPPING_KEYWORD,
		"group_type":            MAPPING_KEYWORD,
		"identifier_type":       MAPPING_KEYWORD,
		"genotype_datasets":     MAPPING_LONG,
		"summary_stat_datasets": MAPPING_LONG,
	},
	"ld-correlations": {
		"name":        MAPPING_KEYWORD,
		"label":       MAPPING_TEXT,
		"description": MAPPING_TEXT,
		"type":        MAPPING_KEYWORD,
	},
}
