package memory

import (
	"context"
	"fmt"
	"sort"

	"ldserver/api/models/constants/correlation"
	filterOp "ldserver/api/models/constants/filter-op"
	"ldserver/api/services/engine"
	"ldserver/api/services/pagination"

	"github.com/Jeffail/gabs"
)

// Engine serves queries from fixture panels held in memory. Cells are
// visited in Morton order, pairs inside a cell in index order.
type Engine struct {
	segmentSize int
	panels      []*panel
}

func New(segmentSize int, fixture Fixture) (*Engine, error) {
	if segmentSize <= 0 {
		return nil, fmt.Errorf("segment size must be positive, got %d", segmentSize)
	}

	e := &Engine{segmentSize: segmentSize}
	for _, pf := range fixture.Panels {
		p, err := newPanel(pf)
		if err != nil {
			return nil, err
		}
		e.panels = append(e.panels, p)
	}
	return e, nil
}

func (e *Engine) panelFor(files []string) (*panel, error) {
	for _, p := range e.panels {
		if p.serves(files) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("no panel serves files %v", files)
}

func (e *Engine) segment(p *panel, segments *engine.Segments, chrom string, index int) []int {
	if segments == nil {
		return p.decode(chrom, index, e.segmentSize)
	}
	return segments.Load(chrom, index, func() interface{} {
		return p.decode(chrom, index, e.segmentSize)
	}).([]int)
}

func (e *Engine) inRegion(p *panel, req engine.RegionRequest, index int) []int {
	out := make([]int, 0)
	for _, idx := range e.segment(p, req.Segments, req.Chrom, index) {
		if pos := p.variants[idx].Pos; pos >= req.Start && pos <= req.Stop {
			out = append(out, idx)
		}
	}
	return out
}

func (e *Engine) Chromosomes(ctx context.Context, files []string) ([]string, error) {
	p, err := e.panelFor(files)
	if err != nil {
		return nil, err
	}
	return p.chromosomes(), nil
}

type cell struct {
	i, j int
	code uint64
}

func (e *Engine) ComputeRegionLD(ctx context.Context, req engine.RegionRequest, sink *engine.ResultSink) error {
	p, err := e.panelFor(req.Panel.Files)
	if err != nil {
		return err
	}
	if _, ok := p.byChrom[req.Chrom]; !ok {
		return fmt.Errorf("chromosome %s: %w", req.Chrom, engine.ErrChromosomeNotFound)
	}

	segments := p.segmentsIn(req.Chrom, req.Start, req.Stop, e.segmentSize)
	cells := make([]cell, 0, len(segments)*(len(segments)+1)/2)
	for a := range segments {
		for b := a; b < len(segments); b++ {
			cells = append(cells, cell{
				i: segments[a], j: segments[b],
				code: pagination.Morton(uint32(segments[a]), uint32(segments[b])),
			})
		}
	}
	sort.Slice(cells, func(x, y int) bool { return cells[x].code < cells[y].code })

	resume := sink.Cursor.HasNext()
	for _, cl := range cells {
		if err := ctx.Err(); err != nil {
			return err
		}
		if resume && cl.code < sink.Cursor.Cell {
			continue
		}

		firstI, firstJ := 0, -1
		if resume && cl.code == sink.Cursor.Cell {
			firstI, firstJ = sink.Cursor.I, sink.Cursor.J
			if firstI < 0 {
				firstI, firstJ = 0, -1
			}
		}
		resume = false

		vi := e.inRegion(p, req, cl.i)
		vj := e.inRegion(p, req, cl.j)
		for a := firstI; a < len(vi); a++ {
			b := 0
			if cl.i == cl.j {
				b = a + 1
			}
			if a == firstI && firstJ >= 0 {
				b = firstJ
			}
			for ; b < len(vj); b++ {
				value, ok := p.value(req.Correlation, vi[a], vj[b])
				if !ok {
					continue
				}
				if sink.Full() {
					sink.Suspend(cl.code, a, b)
					return nil
				}
				sink.Pairs = append(sink.Pairs, pairOf(p, vi[a], vj[b], value))
			}
		}
	}

	sink.Finish()
	return nil
}

func (e *Engine) ComputeVariantLD(ctx context.Context, req engine.VariantRequest, sink *engine.ResultSink) error {
	p, err := e.panelFor(req.Panel.Files)
	if err != nil {
		return err
	}
	if _, ok := p.byChrom[req.Chrom]; !ok {
		return fmt.Errorf("chromosome %s: %w", req.Chrom, engine.ErrChromosomeNotFound)
	}

	anchor, ok := p.byId[req.Variant]
	if !ok {
		return fmt.Errorf("variant %s: %w", req.Variant, engine.ErrNoVariants)
	}
	rec := p.variants[anchor]
	sink.Index = &engine.Anchor{Variant: rec.Id, Chrom: rec.Chrom, Pos: rec.Pos}

	// an anchor on another chromosome has no partners in the window
	if rec.Chrom != req.Chrom {
		sink.Finish()
		return nil
	}

	anchorSegment := uint32(rec.Pos / e.segmentSize)
	resume := sink.Cursor.HasNext()
	_, resumeSegment := pagination.Demorton(sink.Cursor.Cell)

	for _, j := range p.segmentsIn(req.Chrom, req.Start, req.Stop, e.segmentSize) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if resume && uint32(j) < resumeSegment {
			continue
		}

		first := 0
		if resume && uint32(j) == resumeSegment && sink.Cursor.J > 0 {
			first = sink.Cursor.J
		}
		resume = false

		code := pagination.Morton(anchorSegment, uint32(j))
		vj := e.inRegion(p, req.RegionRequest, j)
		for b := first; b < len(vj); b++ {
			value, ok := p.value(req.Correlation, anchor, vj[b])
			if !ok {
				continue
			}
			if sink.Full() {
				sink.Suspend(code, 0, b)
				return nil
			}
			sink.Pairs = append(sink.Pairs, pairOf(p, anchor, vj[b], value))
		}
	}

	sink.Finish()
	return nil
}

func pairOf(p *panel, a int, b int, value float64) engine.Pair {
	va, vb := p.variants[a], p.variants[b]
	return engine.Pair{
		Variant1: va.Id, Chrom1: va.Chrom, Pos1: va.Pos,
		Variant2: vb.Id, Chrom2: vb.Chrom, Pos2: vb.Pos,
		Value: value,
	}
}

func passes(p *panel, idx int, filters []engine.Filter) bool {
	for _, f := range filters {
		var v float64
		switch f.Field {
		case "maf":
			v = p.maf(idx)
		case "pvalue":
			v = p.variants[idx].Pvalue
		case "score":
			v = p.variants[idx].Score
		default:
			return false
		}

		switch f.Op {
		case filterOp.Gte:
			if v < f.Value {
				return false
			}
		case filterOp.Lte:
			if v > f.Value {
				return false
			}
		case filterOp.Eq:
			if v != f.Value {
				return false
			}
		}
	}
	return true
}

func (e *Engine) RunScoreCovariance(ctx context.Context, cfg engine.ScoreCovarianceConfig) ([]byte, error) {
	files := cfg.ScoreFiles
	if cfg.Genotype != nil {
		files = cfg.Genotype.Files
	}
	p, err := e.panelFor(files)
	if err != nil {
		return nil, err
	}
	if _, ok := p.byChrom[cfg.Chrom]; !ok {
		return nil, fmt.Errorf("chromosome %s: %w", cfg.Chrom, engine.ErrChromosomeNotFound)
	}

	segments := cfg.Segments
	if segments == nil {
		segments = engine.NewSegments("", e.segmentSize)
	}
	window := engine.RegionRequest{Chrom: cfg.Chrom, Start: cfg.Start, Stop: cfg.Stop, Segments: segments}
	inWindow := make([]int, 0)
	for _, s := range p.segmentsIn(cfg.Chrom, cfg.Start, cfg.Stop, e.segmentSize) {
		inWindow = append(inWindow, e.inRegion(p, window, s)...)
	}

	doc := gabs.New()
	doc.Array("data", "variants")
	doc.Array("data", "groups")

	used := map[int]bool{}
	nGroups := 0
	for _, mask := range cfg.Masks {
		for _, group := range mask.Groups {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			members := make([]int, 0)
			if group.IsRegion() {
				for _, idx := range inWindow {
					pos := p.variants[idx].Pos
					if pos >= group.Start && pos < group.Stop && passes(p, idx, group.Filters) {
						members = append(members, idx)
					}
				}
			} else {
				for _, id := range group.Variants {
					if idx, ok := p.byId[id]; ok && p.variants[idx].Chrom == cfg.Chrom {
						// pull the variant's segment through the shared handle
						e.segment(p, segments, cfg.Chrom, p.variants[idx].Pos/e.segmentSize)
						members = append(members, idx)
					}
				}
				sort.Ints(members)
			}
			if len(members) == 0 {
				continue
			}

			ids := make([]string, len(members))
			covariance := make([]float64, 0, len(members)*(len(members)+1)/2)
			for k, a := range members {
				ids[k] = p.variants[a].Id
				used[a] = true
				for _, b := range members[k:] {
					value, _ := p.value(correlation.Covariance, a, b)
					covariance = append(covariance, value)
				}
			}

			g := gabs.New()
			g.Set(mask.Id, "mask")
			g.Set(group.Name, "group")
			g.Set(string(mask.GroupType), "groupType")
			g.Set(ids, "variants")
			g.Set(covariance, "covariance")
			doc.ArrayAppend(g.Data(), "data", "groups")
			nGroups++
		}
	}
	if nGroups == 0 {
		return nil, fmt.Errorf("%d masks: %w", len(cfg.Masks), engine.ErrNoVariants)
	}

	indices := make([]int, 0, len(used))
	for idx := range used {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	for _, idx := range indices {
		v := p.variants[idx]
		doc.ArrayAppend(map[string]interface{}{
			"variant": v.Id,
			"altFreq": v.AltFreq,
			"pvalue":  v.Pvalue,
			"score":   v.Score,
		}, "data", "variants")
	}

	nSamples := p.samples
	if cfg.Genotype != nil && cfg.Genotype.Samples != nil {
		nSamples = len(cfg.Genotype.Samples)
	}
	doc.Set(nSamples, "data", "nSamples")
	doc.Set(p.sigmaSquared, "data", "sigmaSquared")

	if cfg.Genotype != nil {
		doc.Set(cfg.Genotype.DatasetId, "data", "genotypeDataset")
		if cfg.Phenotype != nil {
			doc.Set(cfg.Phenotype.DatasetId, "data", "phenotypeDataset")
			doc.Set(cfg.Phenotype.Column, "data", "phenotype")
		}
	} else {
		doc.Set(cfg.SummaryStatDatasetId, "data", "summaryStatisticDataset")
	}

	return doc.Bytes(), nil
}
