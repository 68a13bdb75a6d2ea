package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	c "ldserver/api/models/constants"
	"ldserver/api/services/pagination"
)

// Conditions the engine reports for a valid query that has nothing to return.
var (
	ErrNoVariants         = errors.New("no variants in region")
	ErrChromosomeNotFound = errors.New("chromosome not found")
)

func IsRecoverable(err error) bool {
	return errors.Is(err, ErrNoVariants) || errors.Is(err, ErrChromosomeNotFound)
}

// Engine is the numerical backend. Implementations must honour ctx.
type Engine interface {
	Chromosomes(ctx context.Context, files []string) ([]string, error)
	ComputeRegionLD(ctx context.Context, req RegionRequest, sink *ResultSink) error
	ComputeVariantLD(ctx context.Context, req VariantRequest, sink *ResultSink) error
	// RunScoreCovariance returns a JSON document of per-variant score
	// statistics and per-group upper-triangular covariance matrices.
	RunScoreCovariance(ctx context.Context, cfg ScoreCovarianceConfig) ([]byte, error)
}

type Pair struct {
	Variant1 string
	Chrom1   string
	Pos1     int
	Variant2 string
	Chrom2   string
	Pos2     int
	Value    float64
}

type Anchor struct {
	Variant string
	Chrom   string
	Pos     int
}

// ResultSink collects one page. Cursor is read as the resume point and
// overwritten with the next one.
type ResultSink struct {
	Limit  int
	Cursor pagination.Cursor
	Pairs  []Pair
	Index  *Anchor
}

func NewResultSink(limit int, last pagination.Cursor) *ResultSink {
	return &ResultSink{Limit: limit, Cursor: last, Pairs: []Pair{}}
}

func (s *ResultSink) Full() bool {
	return s.Limit > 0 && len(s.Pairs) >= s.Limit
}

// Finish marks the sink terminal.
func (s *ResultSink) Finish() {
	s.Cursor = pagination.Cursor{Cell: 0, I: -1, J: -1, Page: s.Cursor.Page + 1}
}

// Suspend records where the next page starts.
func (s *ResultSink) Suspend(cell uint64, i int, j int) {
	s.Cursor = pagination.Cursor{Cell: cell, I: i, J: j, Page: s.Cursor.Page + 1}
}

// CacheTarget points the engine at an external segment cache.
type CacheTarget struct {
	Address  string
	Password string
	// datasets with the same key share cache entries
	Key string
}

// Segments is a request-scoped handle to decoded genomic segments. Passing
// the same handle to several computations lets the engine decode once.
type Segments struct {
	Key  string
	Size int

	mu      sync.Mutex
	decoded map[string]interface{}
}

func NewSegments(key string, size int) *Segments {
	return &Segments{Key: key, Size: size, decoded: map[string]interface{}{}}
}

// Load returns the cached segment for (chrom, index) or decodes it once.
func (s *Segments) Load(chrom string, index int, decode func() interface{}) interface{} {
	k := fmt.Sprintf("%s:%d", chrom, index)

	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.decoded[k]; ok {
		return v
	}
	v := decode()
	s.decoded[k] = v
	return v
}

// Decoded is the number of distinct segments decoded through this handle.
func (s *Segments) Decoded() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.decoded)
}

type Panel struct {
	DatasetId int
	Files     []string
	// nil means every sample in the files
	Samples []string
	Subset  string
}

type RegionRequest struct {
	Panel       Panel
	Chrom       string
	Start       int
	Stop        int
	Correlation c.CorrelationKind
	Cache       *CacheTarget
	Segments    *Segments
}

type VariantRequest struct {
	RegionRequest
	Variant string
}

type Filter struct {
	Field string     `json:"field"`
	Op    c.FilterOp `json:"op"`
	Value float64    `json:"value"`
}

// VariantGroup is either an explicit variant list or a region with filters.
type VariantGroup struct {
	Name     string   `json:"name"`
	Chrom    string   `json:"chrom,omitempty"`
	Start    int      `json:"start"`
	Stop     int      `json:"stop"`
	Variants []string `json:"variants,omitempty"`
	Filters  []Filter `json:"filters,omitempty"`
}

func (g VariantGroup) IsRegion() bool {
	return len(g.Variants) == 0
}

type Mask struct {
	Id             int              `json:"id"`
	Name           string           `json:"name"`
	GroupType      c.GroupType      `json:"groupType"`
	IdentifierType c.IdentifierType `json:"identifierType"`
	Groups         []VariantGroup   `json:"groups"`
}

type PhenotypeInput struct {
	DatasetId       int                     `json:"datasetId"`
	File            string                  `json:"file"`
	Column          string                  `json:"column"`
	ColumnTypes     map[string]c.ColumnType `json:"columnTypes"`
	Nrows           int                     `json:"nrows"`
	SampleColumn    string                  `json:"sampleColumn"`
	Delimiter       string                  `json:"delimiter"`
	AnalysisColumns []string                `json:"analysisColumns"`
}

type ScoreCovarianceConfig struct {
	Chrom       string
	Start       int
	Stop        int
	SegmentSize int

	// genotype + phenotype mode
	Genotype  *Panel
	Phenotype *PhenotypeInput

	// summary statistic mode
	SummaryStatDatasetId int
	ScoreFiles           []string
	CovFiles             []string

	Masks         []Mask
	VariantFormat c.VariantFormat
	Cache         *CacheTarget
	Segments      *Segments
}
