package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"

	c "ldserver/api/models/constants"
	"ldserver/api/services/engine"
	"ldserver/api/services/pagination"

	"github.com/google/uuid"
)

// Conditions reported by the engine service in place of a result.
const (
	ConditionNoVariants         = "no_variants"
	ConditionChromosomeNotFound = "chromosome_not_found"
)

// Client calls an engine service over HTTP/JSON.
type Client struct {
	Url        string
	HttpClient *http.Client
}

func NewClient(url string) *Client {
	return &Client{Url: strings.TrimRight(url, "/"), HttpClient: &http.Client{}}
}

type cacheDto struct {
	Address  string `json:"address"`
	Password string `json:"password,omitempty"`
	Key      string `json:"key"`
}

type panelDto struct {
	DatasetId int      `json:"datasetId"`
	Files     []string `json:"files"`
	Samples   []string `json:"samples,omitempty"`
	Subset    string   `json:"subset"`
}

type ldRequestDto struct {
	Panel       panelDto          `json:"panel"`
	Variant     string            `json:"variant,omitempty"`
	Chrom       string            `json:"chrom"`
	Start       int               `json:"start"`
	Stop        int               `json:"stop"`
	Correlation c.CorrelationKind `json:"correlation"`
	Limit       int               `json:"limit"`
	Last        string            `json:"last,omitempty"`
	Cache       *cacheDto         `json:"cache,omitempty"`
	Segments    string            `json:"segments,omitempty"`
}

type pairDto struct {
	Variant1 string `json:"variant1"`
	Chrom1   string `json:"chromosome1"`
	Pos1     int    `json:"position1"`
	Variant2 string `json:"variant2"`
	Chrom2   string `json:"chromosome2"`
	Pos2     int    `json:"position2"`
	// null when the statistic is undefined
	Value *float64 `json:"value"`
}

func (p pairDto) pair() engine.Pair {
	value := math.NaN()
	if p.Value != nil {
		value = *p.Value
	}
	return engine.Pair{
		Variant1: p.Variant1, Chrom1: p.Chrom1, Pos1: p.Pos1,
		Variant2: p.Variant2, Chrom2: p.Chrom2, Pos2: p.Pos2,
		Value: value,
	}
}

type ldResponseDto struct {
	Pairs []pairDto `json:"pairs"`
	Index *struct {
		Variant string `json:"variant"`
		Chrom   string `json:"chromosome"`
		Pos     int    `json:"position"`
	} `json:"index"`
	Last string `json:"last"`
}

type faultDto struct {
	Condition string `json:"condition"`
	Error     string `json:"error"`
}

func toCache(t *engine.CacheTarget) *cacheDto {
	if t == nil {
		return nil
	}
	return &cacheDto{Address: t.Address, Password: t.Password, Key: t.Key}
}

func toPanel(p engine.Panel) panelDto {
	return panelDto{DatasetId: p.DatasetId, Files: p.Files, Samples: p.Samples, Subset: p.Subset}
}

func segmentsKey(s *engine.Segments) string {
	if s == nil {
		return ""
	}
	return s.Key
}

func (cl *Client) post(ctx context.Context, path string, body interface{}) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cl.Url+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.New().String())

	res, err := cl.HttpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("engine %s: %w", path, err)
	}
	defer res.Body.Close()

	respBody, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.StatusCode == http.StatusOK {
		return respBody, nil
	}

	var fault faultDto
	if err := json.Unmarshal(respBody, &fault); err != nil {
		return nil, fmt.Errorf("engine %s returned %d with an undecodable body: %w", path, res.StatusCode, err)
	}
	switch fault.Condition {
	case ConditionNoVariants:
		return nil, fmt.Errorf("engine %s: %s: %w", path, fault.Error, engine.ErrNoVariants)
	case ConditionChromosomeNotFound:
		return nil, fmt.Errorf("engine %s: %s: %w", path, fault.Error, engine.ErrChromosomeNotFound)
	}
	return nil, fmt.Errorf("engine %s returned %d: %s", path, res.StatusCode, fault.Error)
}

func (cl *Client) Chromosomes(ctx context.Context, files []string) ([]string, error) {
	body, err := cl.post(ctx, "/chromosomes", map[string]interface{}{"files": files})
	if err != nil {
		return nil, err
	}
	var out struct {
		Chromosomes []string `json:"chromosomes"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	return out.Chromosomes, nil
}

func (cl *Client) computeLD(ctx context.Context, path string, dto ldRequestDto, sink *engine.ResultSink) error {
	dto.Limit = sink.Limit
	if sink.Cursor.HasNext() {
		dto.Last = sink.Cursor.String()
	}

	body, err := cl.post(ctx, path, dto)
	if err != nil {
		return err
	}

	var out ldResponseDto
	if err := json.Unmarshal(body, &out); err != nil {
		return fmt.Errorf("decoding engine response: %w", err)
	}

	for _, p := range out.Pairs {
		sink.Pairs = append(sink.Pairs, p.pair())
	}
	if out.Index != nil {
		sink.Index = &engine.Anchor{Variant: out.Index.Variant, Chrom: out.Index.Chrom, Pos: out.Index.Pos}
	}

	if out.Last == "" {
		sink.Finish()
		return nil
	}
	next, err := pagination.Parse(out.Last)
	if err != nil {
		return fmt.Errorf("engine returned cursor %q: %w", out.Last, err)
	}
	sink.Cursor = next
	return nil
}

func (cl *Client) ComputeRegionLD(ctx context.Context, req engine.RegionRequest, sink *engine.ResultSink) error {
	return cl.computeLD(ctx, "/ld/region", ldRequestDto{
		Panel: toPanel(req.Panel), Chrom: req.Chrom, Start: req.Start, Stop: req.Stop,
		Correlation: req.Correlation, Cache: toCache(req.Cache), Segments: segmentsKey(req.Segments),
	}, sink)
}

func (cl *Client) ComputeVariantLD(ctx context.Context, req engine.VariantRequest, sink *engine.ResultSink) error {
	return cl.computeLD(ctx, "/ld/variant", ldRequestDto{
		Panel: toPanel(req.Panel), Variant: req.Variant, Chrom: req.Chrom, Start: req.Start, Stop: req.Stop,
		Correlation: req.Correlation, Cache: toCache(req.Cache), Segments: segmentsKey(req.Segments),
	}, sink)
}

func (cl *Client) RunScoreCovariance(ctx context.Context, cfg engine.ScoreCovarianceConfig) ([]byte, error) {
	dto := map[string]interface{}{
		"chrom":         cfg.Chrom,
		"start":         cfg.Start,
		"stop":          cfg.Stop,
		"segmentSize":   cfg.SegmentSize,
		"masks":         cfg.Masks,
		"variantFormat": cfg.VariantFormat,
		"segments":      segmentsKey(cfg.Segments),
	}
	if cfg.Genotype != nil {
		dto["genotype"] = toPanel(*cfg.Genotype)
	}
	if cfg.Phenotype != nil {
		dto["phenotype"] = cfg.Phenotype
	}
	if cfg.Genotype == nil {
		dto["summaryStatisticDataset"] = cfg.SummaryStatDatasetId
		dto["scoreFiles"] = cfg.ScoreFiles
		dto["covFiles"] = cfg.CovFiles
	}
	if cfg.Cache != nil {
		dto["cache"] = toCache(cfg.Cache)
	}

	return cl.post(ctx, "/score-covariance", dto)
}
