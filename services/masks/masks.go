package masks

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	c "ldserver/api/models/constants"
	filterOp "ldserver/api/models/constants/filter-op"
	groupType "ldserver/api/models/constants/group-type"
	identifierType "ldserver/api/models/constants/identifier-type"
	"ldserver/api/models/dtos"
	"ldserver/api/models/faults"
	"ldserver/api/models/variant"
	"ldserver/api/services/engine"
	"ldserver/api/services/files"
	"ldserver/api/services/registry"

	"github.com/mitchellh/mapstructure"
)

// Request carries everything mask resolution needs from an aggregation
// query. Exactly one of MaskIds and Definitions is set.
type Request struct {
	GenomeBuild          string
	Chrom                string
	Start                int
	Stop                 int
	GenotypeDatasetId    int
	SummaryStatDatasetId int
	MaskIds              []int
	Definitions          []dtos.MaskDefinition
	VariantFormat        c.VariantFormat
}

// Resolver turns stored mask ids or inline mask definitions into variant
// groups ready for the engine.
type Resolver struct {
	Registry         *registry.Registry
	MaxCovRegionSize int
}

func New(reg *registry.Registry, maxCovRegionSize int) *Resolver {
	return &Resolver{Registry: reg, MaxCovRegionSize: maxCovRegionSize}
}

// CheckMode rejects requests naming both or neither of stored and inline
// masks. It does no I/O.
func CheckMode(maskIds []int, definitions []dtos.MaskDefinition) error {
	if (len(maskIds) > 0) == (len(definitions) > 0) {
		return faults.Validationf("Must provide either 'masks' or 'maskDefinitions' in request, and not both.")
	}
	return nil
}

func (r *Resolver) Resolve(ctx context.Context, req Request) ([]engine.Mask, error) {
	if err := CheckMode(req.MaskIds, req.Definitions); err != nil {
		return nil, err
	}

	out := []engine.Mask{}
	if len(req.MaskIds) > 0 {
		for _, id := range req.MaskIds {
			m, err := r.stored(ctx, req, id)
			if err != nil {
				return nil, err
			}
			out = append(out, m)
		}
		return out, nil
	}

	for _, def := range req.Definitions {
		m, err := r.inline(req, def)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *Resolver) stored(ctx context.Context, req Request, id int) (engine.Mask, error) {
	mask, err := r.Registry.Mask(ctx, id)
	if errors.Is(err, registry.ErrNotFound) {
		return engine.Mask{}, faults.NotFoundf("Mask ID %d does not exist", id)
	}
	if err != nil {
		return engine.Mask{}, err
	}

	resolver := r.Registry.Resolver()
	if _, err := resolver.Resolve(ctx, mask.Filepath); err != nil {
		if errors.Is(err, files.ErrNotFound) {
			return engine.Mask{}, faults.Wrap(faults.Validation, err, "Could not find mask file on server for mask ID %d", id)
		}
		return engine.Mask{}, err
	}

	if mask.GenomeBuild != req.GenomeBuild {
		return engine.Mask{}, faults.Validationf("Mask ID %d is invalid for genome build %s", id, req.GenomeBuild)
	}
	if req.GenotypeDatasetId > 0 && !mask.LinkedToGenotype(req.GenotypeDatasetId) {
		return engine.Mask{}, faults.Validationf("Mask ID %d is invalid for genotype dataset ID %d", id, req.GenotypeDatasetId)
	}
	if req.SummaryStatDatasetId > 0 && !mask.LinkedToSummaryStat(req.SummaryStatDatasetId) {
		return engine.Mask{}, faults.Validationf("Mask ID %d is invalid for summary statistic dataset ID %d", id, req.SummaryStatDatasetId)
	}

	rc, err := files.OpenText(ctx, resolver, mask.Filepath)
	if err != nil {
		return engine.Mask{}, fmt.Errorf("opening mask %d: %w", id, err)
	}
	defer rc.Close()

	groups, err := ReadGroups(rc, req.Chrom, req.Start, req.Stop)
	if err != nil {
		return engine.Mask{}, fmt.Errorf("reading mask %d: %w", id, err)
	}
	for _, g := range groups {
		if g.Stop-g.Start > r.MaxCovRegionSize {
			return engine.Mask{}, faults.Validationf("Region requested for analysis exceeds maximum width of %d", r.MaxCovRegionSize)
		}
	}

	return engine.Mask{
		Id:             mask.Id,
		Name:           mask.Name,
		GroupType:      mask.GroupType,
		IdentifierType: mask.IdentifierType,
		Groups:         groups,
	}, nil
}

// ReadGroups reads a whitespace delimited mask file, one group per line:
//
//	name chrom start stop variant [variant ...]
//
// and keeps the groups overlapping chrom:[start, stop], sorted by name.
func ReadGroups(rd io.Reader, chrom string, start int, stop int) ([]engine.VariantGroup, error) {
	scanner := bufio.NewScanner(rd)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

	groups := []engine.VariantGroup{}
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		tokens := strings.Fields(line)
		if len(tokens) < 5 {
			return nil, fmt.Errorf("line %d: expected name, chrom, start, stop and at least one variant", lineNo)
		}
		if tokens[1] != chrom {
			continue
		}

		groupStart, err := strconv.Atoi(tokens[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: bad start %q", lineNo, tokens[2])
		}
		groupStop, err := strconv.Atoi(tokens[3])
		if err != nil {
			return nil, fmt.Errorf("line %d: bad stop %q", lineNo, tokens[3])
		}
		if groupStop < start || groupStart > stop {
			continue
		}

		groups = append(groups, engine.VariantGroup{
			Name:     tokens[0],
			Chrom:    tokens[1],
			Start:    groupStart,
			Stop:     groupStop,
			Variants: append([]string(nil), tokens[4:]...),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })
	return groups, nil
}

func (r *Resolver) inline(req Request, def dtos.MaskDefinition) (engine.Mask, error) {
	gt := groupType.CastToGroupType(string(def.GroupType))
	if gt == groupType.Unknown {
		return engine.Mask{}, faults.Validationf("Invalid group_type '%s' for mask %d, must be one of: GENE, REGION", def.GroupType, def.Id)
	}
	it := identifierType.CastToIdentifierType(string(def.IdentifierType))
	if it == identifierType.Unknown {
		if def.IdentifierType == "" {
			return engine.Mask{}, faults.Validationf("Must provide identifier_type for mask %d", def.Id)
		}
		it = c.IdentifierType(strings.ToUpper(string(def.IdentifierType)))
	}

	mask := engine.Mask{
		Id:             def.Id,
		Name:           def.Name,
		GroupType:      gt,
		IdentifierType: it,
	}
	for _, g := range def.Groups {
		group, err := parseGroup(g, req.Chrom, req.VariantFormat)
		if err != nil {
			return engine.Mask{}, err
		}
		if group.Stop-group.Start > r.MaxCovRegionSize {
			return engine.Mask{}, faults.Validationf("Region requested for analysis exceeds maximum width of %d", r.MaxCovRegionSize)
		}
		mask.Groups = append(mask.Groups, group)
	}
	return mask, nil
}

type regionDefinition struct {
	Start   *int               `mapstructure:"start"`
	Stop    *int               `mapstructure:"stop"`
	Filters []filterDefinition `mapstructure:"filters"`
}

type filterDefinition struct {
	Field string   `mapstructure:"field"`
	Op    string   `mapstructure:"op"`
	Value *float64 `mapstructure:"value"`
}

func parseGroup(g dtos.GroupDefinition, chrom string, format c.VariantFormat) (engine.VariantGroup, error) {
	switch def := g.Definition.(type) {
	case []interface{}:
		return parseList(g.Name, def, format)
	case map[string]interface{}:
		return parseRegion(g.Name, def, chrom)
	default:
		return engine.VariantGroup{}, faults.Validationf("Each group must be either a list of variants, or dict (key/value) pairs specifying region parameters")
	}
}

func parseList(name string, def []interface{}, format c.VariantFormat) (engine.VariantGroup, error) {
	if len(def) == 0 {
		return engine.VariantGroup{}, faults.Validationf("List of variants in group definition must have at least 1 variant")
	}

	group := engine.VariantGroup{Name: name, Start: -1, Stop: -1}
	for _, raw := range def {
		text, ok := raw.(string)
		if !ok {
			return engine.VariantGroup{}, faults.Validationf("Invalid variant %v, should be of format: CHROM:POS_REF/ALT or CHROM:POS:REF:ALT", raw)
		}
		epacts, err := variant.Normalize(text, format)
		if err != nil {
			return engine.VariantGroup{}, faults.Wrap(faults.Validation, err, "%s", err.Error())
		}

		chrom, pos, _ := variant.Position(epacts)
		group.Chrom = chrom
		if group.Start < 0 || pos < group.Start {
			group.Start = pos
		}
		if group.Stop < 0 || pos > group.Stop {
			group.Stop = pos
		}
		group.Variants = append(group.Variants, epacts)
	}
	return group, nil
}

func parseRegion(name string, def map[string]interface{}, chrom string) (engine.VariantGroup, error) {
	if _, ok := def["start"]; !ok {
		return engine.VariantGroup{}, faults.Validationf("Must provide start position for region")
	}
	if _, ok := def["stop"]; !ok {
		return engine.VariantGroup{}, faults.Validationf("Must provide stop position for region")
	}

	var region regionDefinition
	if err := mapstructure.Decode(def, &region); err != nil {
		return engine.VariantGroup{}, faults.Wrap(faults.Validation, err, "Invalid region definition for group %s", name)
	}
	if region.Start == nil {
		return engine.VariantGroup{}, faults.Validationf("Must provide start position for region")
	}
	if region.Stop == nil {
		return engine.VariantGroup{}, faults.Validationf("Must provide stop position for region")
	}

	group := engine.VariantGroup{Name: name, Chrom: chrom, Start: *region.Start, Stop: *region.Stop}
	for _, f := range region.Filters {
		op := filterOp.CastToFilterOp(f.Op)
		if op == filterOp.Unknown {
			return engine.VariantGroup{}, faults.Validationf("Invalid op, must be one of: %s", strings.Join(filterOp.Names(), ", "))
		}

		bounds, known := filterOp.KnownFields[f.Field]
		if !known {
			return engine.VariantGroup{}, faults.Validationf("Invalid filter field '%s', must be one of: %s", f.Field, strings.Join(knownFieldNames(), ", "))
		}
		if f.Value == nil {
			return engine.VariantGroup{}, faults.Validationf("Filter for '%s' must specify a value", f.Field)
		}
		if *f.Value < bounds[0] || *f.Value > bounds[1] {
			return engine.VariantGroup{}, faults.Validationf("Filter for '%s' must specify value between %g and %g inclusive", f.Field, bounds[0], bounds[1])
		}

		group.Filters = append(group.Filters, engine.Filter{Field: f.Field, Op: op, Value: *f.Value})
	}
	return group, nil
}

func knownFieldNames() []string {
	names := make([]string, 0, len(filterOp.KnownFields))
	for name := range filterOp.KnownFields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
