package query

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	c "ldserver/api/models/constants"
	variantFormat "ldserver/api/models/constants/variant-format"
	"ldserver/api/models/dtos"
	"ldserver/api/models/faults"
	"ldserver/api/models/indexes"
	"ldserver/api/services/engine"
	"ldserver/api/services/masks"
	"ldserver/api/services/metrics"
	"ldserver/api/services/registry"

	"github.com/ahmetb/go-linq"
	"golang.org/x/sync/errgroup"
)

// Covariance runs one score/covariance aggregation and returns the engine's
// JSON document with variants still in EPACTS form.
func (o *Orchestrator) Covariance(ctx context.Context, req dtos.CovarianceRequest) ([]byte, c.VariantFormat, error) {
	format, err := o.checkCovariance(req)
	if err != nil {
		return nil, format, err
	}

	var cfg engine.ScoreCovarianceConfig
	if req.SummaryStatisticDataset > 0 {
		cfg, err = o.summaryStatConfig(ctx, req, format)
	} else {
		cfg, err = o.genotypeConfig(ctx, req, format)
	}
	if err != nil {
		return nil, format, err
	}

	ctx, cancel := o.withTimeout(ctx)
	defer cancel()

	started := time.Now()
	doc, err := o.Engine.RunScoreCovariance(ctx, cfg)
	metrics.ObserveEngine("covariance", started, err)
	if engine.IsRecoverable(err) {
		return nil, format, faults.Wrap(faults.Empty, err, "No variants were found in the requested region.")
	}
	if err != nil {
		return nil, format, o.engineError(err)
	}
	return doc, format, nil
}

// checkCovariance rejects malformed requests before any lookup.
func (o *Orchestrator) checkCovariance(req dtos.CovarianceRequest) (c.VariantFormat, error) {
	if err := masks.CheckMode(req.Masks, req.MaskDefinitions); err != nil {
		return variantFormat.EPACTS, err
	}

	calc := req.GenotypeDataset > 0 || req.PhenotypeDataset > 0 || req.Phenotype != ""
	precalc := req.SummaryStatisticDataset > 0
	if calc && precalc {
		return variantFormat.EPACTS, faults.Validationf("Must provide either genotype and phenotype datasets, or a summary statistic dataset, and not both.")
	}
	if !calc && !precalc {
		return variantFormat.EPACTS, faults.Validationf("Must provide either genotype and phenotype datasets, or a summary statistic dataset.")
	}

	format := variantFormat.CastToVariantFormat(req.VariantFormat)
	if format == variantFormat.Unknown {
		return variantFormat.EPACTS, faults.Validationf("Invalid variantFormat '%s', must be one of: EPACTS, COLONS", req.VariantFormat)
	}

	if req.Start == nil || req.Stop == nil || req.Chrom == "" || req.GenomeBuild == "" {
		return format, faults.Validationf("Must specify chrom, start, stop and genomeBuild.")
	}
	if *req.Stop <= *req.Start {
		return format, faults.Validationf("Start position must be less than stop position.")
	}
	if *req.Stop-*req.Start > o.MaxRegionSize {
		return format, faults.Validationf("Region requested for analysis exceeds maximum width of %d", o.MaxRegionSize)
	}

	if calc && (req.GenotypeDataset <= 0 || req.PhenotypeDataset <= 0 || req.Phenotype == "") {
		return format, faults.Validationf("Must specify genotype dataset ID, phenotype dataset ID, and phenotype together")
	}
	return format, nil
}

func maskRequest(req dtos.CovarianceRequest, format c.VariantFormat) masks.Request {
	return masks.Request{
		GenomeBuild:          req.GenomeBuild,
		Chrom:                req.Chrom,
		Start:                *req.Start,
		Stop:                 *req.Stop,
		GenotypeDatasetId:    req.GenotypeDataset,
		SummaryStatDatasetId: req.SummaryStatisticDataset,
		MaskIds:              req.Masks,
		Definitions:          req.MaskDefinitions,
		VariantFormat:        format,
	}
}

func (o *Orchestrator) genotypeConfig(ctx context.Context, req dtos.CovarianceRequest, format c.VariantFormat) (engine.ScoreCovarianceConfig, error) {
	var cfg engine.ScoreCovarianceConfig

	ok, err := o.Registry.HasGenomeBuild(ctx, req.GenomeBuild)
	if err != nil {
		return cfg, err
	}
	if !ok {
		return cfg, faults.Validationf("Genome build '%s' was not found.", req.GenomeBuild)
	}

	g, err := o.Registry.GenotypeDataset(ctx, req.GenotypeDataset)
	if errors.Is(err, registry.ErrNotFound) || (err == nil && g.GenomeBuild != req.GenomeBuild) {
		return cfg, faults.Validationf("No genotype dataset '%d' available for genome build %s.", req.GenotypeDataset, req.GenomeBuild)
	}
	if err != nil {
		return cfg, err
	}

	p, err := o.Registry.PhenotypeDataset(ctx, req.PhenotypeDataset)
	if errors.Is(err, registry.ErrNotFound) || (err == nil && !g.LinkedToPhenotype(p.Id)) {
		return cfg, faults.Validationf("No phenotype dataset '%d' available for genome build %s.", req.PhenotypeDataset, req.GenomeBuild)
	}
	if err != nil {
		return cfg, err
	}

	subset := req.Samples
	if subset == "" {
		subset = c.AllSamples
	}
	ok, err = o.Registry.HasSamples(ctx, g.Id, subset)
	if err != nil {
		return cfg, err
	}
	if !ok {
		return cfg, faults.Validationf("Sample subset '%s' was not found in genotype dataset %d.", subset, g.Id)
	}

	ok, err = o.Registry.HasPhenotype(ctx, p.Id, req.Phenotype)
	if err != nil {
		return cfg, err
	}
	if !ok {
		return cfg, faults.Validationf("Phenotype '%s' does not exist in phenotype dataset %d", req.Phenotype, p.Id)
	}

	key := fmt.Sprintf("genotype:%d", g.Id)
	cfg = o.baseConfig(req, format, key)

	var (
		panel                       engine.Panel
		phenotypeFile               string
		resolved                    []engine.Mask
		panelErr, fileErr, masksErr error
	)
	var group errgroup.Group
	group.Go(func() error {
		panel, panelErr = o.panel(ctx, g, subset)
		return nil
	})
	group.Go(func() error {
		var paths []string
		paths, fileErr = o.Registry.Resolve(ctx, []string{p.Filepath})
		if fileErr == nil {
			phenotypeFile = paths[0]
		}
		return nil
	})
	group.Go(func() error {
		resolved, masksErr = o.Masks.Resolve(ctx, maskRequest(req, format))
		return nil
	})
	_ = group.Wait()

	for _, err := range []error{panelErr, fileErr, masksErr} {
		if err != nil {
			return cfg, err
		}
	}

	cfg.Genotype = &panel
	cfg.Phenotype = phenotypeInput(p, phenotypeFile, req.Phenotype)
	cfg.Masks = resolved
	cfg.Cache = o.cacheTarget(key)
	return cfg, nil
}

func phenotypeInput(p *indexes.PhenotypeDataset, file string, column string) *engine.PhenotypeInput {
	in := &engine.PhenotypeInput{
		DatasetId:    p.Id,
		File:         file,
		Column:       column,
		ColumnTypes:  map[string]c.ColumnType{},
		Nrows:        p.Nrows,
		SampleColumn: p.SampleColumn,
		Delimiter:    p.Delimiter,
	}
	for _, col := range p.Columns {
		in.ColumnTypes[col.Name] = col.ColumnType
		if col.ForAnalysis {
			in.AnalysisColumns = append(in.AnalysisColumns, col.Name)
		}
	}
	return in
}

func (o *Orchestrator) summaryStatConfig(ctx context.Context, req dtos.CovarianceRequest, format c.VariantFormat) (engine.ScoreCovarianceConfig, error) {
	var cfg engine.ScoreCovarianceConfig

	s, err := o.Registry.SummaryStatDataset(ctx, req.SummaryStatisticDataset)
	if errors.Is(err, registry.ErrNotFound) || (err == nil && s.GenomeBuild != req.GenomeBuild) {
		return cfg, faults.Validationf("No summary statistic dataset '%d' available for genome build %s.", req.SummaryStatisticDataset, req.GenomeBuild)
	}
	if err != nil {
		return cfg, err
	}

	scores, covs := s.ScoreFiles, s.CovFiles
	if s.IsChunked() {
		scores, covs = ChunksFor(s, req.Chrom, *req.Start, *req.Stop)
		if len(scores) == 0 || len(covs) == 0 {
			return cfg, faults.New(faults.Empty, "Region %s:%d-%d is not covered by summary statistic dataset %d.", req.Chrom, *req.Start, *req.Stop, s.Id)
		}
	}

	key := fmt.Sprintf("sumstat:%d", s.Id)
	cfg = o.baseConfig(req, format, key)
	cfg.SummaryStatDatasetId = s.Id

	var resolved []engine.Mask
	var scoreErr, covErr, masksErr error
	var group errgroup.Group
	group.Go(func() error {
		cfg.ScoreFiles, scoreErr = o.Registry.Resolve(ctx, paths(scores))
		return nil
	})
	group.Go(func() error {
		cfg.CovFiles, covErr = o.Registry.Resolve(ctx, paths(covs))
		return nil
	})
	group.Go(func() error {
		resolved, masksErr = o.Masks.Resolve(ctx, maskRequest(req, format))
		return nil
	})
	_ = group.Wait()

	for _, err := range []error{scoreErr, covErr, masksErr} {
		if err != nil {
			return cfg, err
		}
	}

	cfg.Masks = resolved
	cfg.Cache = o.cacheTarget(key)
	return cfg, nil
}

// baseConfig fills the window and the segment handle shared by the LD and
// score sub-computations of one request.
func (o *Orchestrator) baseConfig(req dtos.CovarianceRequest, format c.VariantFormat, key string) engine.ScoreCovarianceConfig {
	return engine.ScoreCovarianceConfig{
		Chrom:         req.Chrom,
		Start:         *req.Start,
		Stop:          *req.Stop,
		SegmentSize:   o.SegmentSize,
		VariantFormat: format,
		Segments:      engine.NewSegments(key, o.SegmentSize),
	}
}

func paths(chunks []indexes.SummaryStatFile) []string {
	out := make([]string, len(chunks))
	for i, f := range chunks {
		out[i] = f.Path
	}
	return out
}

// ChunksFor picks the files of a chunked dataset needed for chrom:[start, stop].
// A chunk is needed when its [region_start, region_mid] overlaps the window.
// Covariance in the last chunk reaches into the next score chunk, so that
// one is added too.
func ChunksFor(s *indexes.SummaryStatDataset, chrom string, start int, stop int) ([]indexes.SummaryStatFile, []indexes.SummaryStatFile) {
	overlapping := func(f indexes.SummaryStatFile) bool {
		return f.Chrom == chrom && f.RegionStart <= stop && f.RegionMid >= start
	}
	byStart := func(f indexes.SummaryStatFile) int { return f.RegionStart }

	scores := []indexes.SummaryStatFile{}
	linq.From(s.ScoreFiles).WhereT(overlapping).OrderByT(byStart).ToSlice(&scores)
	covs := []indexes.SummaryStatFile{}
	linq.From(s.CovFiles).WhereT(overlapping).OrderByT(byStart).ToSlice(&covs)

	if len(scores) > 0 {
		past := scores[len(scores)-1].RegionMid + 1
		next := linq.From(s.ScoreFiles).FirstWithT(func(f indexes.SummaryStatFile) bool {
			return f.Chrom == chrom && f.RegionStart <= past && f.RegionMid >= past
		})
		if next != nil {
			scores = append(scores, next.(indexes.SummaryStatFile))
			sort.SliceStable(scores, func(i, j int) bool { return scores[i].RegionStart < scores[j].RegionStart })
		}
	}
	return scores, covs
}
