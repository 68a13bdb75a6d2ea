package masks

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	vf "ldserver/api/models/constants/variant-format"
	"ldserver/api/models/dtos"
	"ldserver/api/models/faults"
	"ldserver/api/models/indexes"
	"ldserver/api/repositories/memory"
	"ldserver/api/services/files"
	"ldserver/api/services/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const maskFile = "# group\tchrom\tstart\tstop\tvariants\n" +
	"ZNF\t22\t51241101\t51241400\t22:51241101_A/T\t22:51241386_C/G\n" +
	"ARSA\t22\t51063477\t51066000\t22:51063477_T/G\n" +
	"ABC\t22\t51241300\t51245000\t22:51241309_C/T\t22:51243010_A/G\n" +
	"OTHER\t21\t51241101\t51241400\t21:51241101_A/T\n"

func newResolver(t *testing.T) *Resolver {
	dir := t.TempDir()

	f, err := os.Create(filepath.Join(dir, "mask.tab.gz"))
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte(maskFile))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	src, err := memory.New(memory.Manifest{
		Masks: []indexes.Mask{
			{Id: 1, Name: "AF < 0.01", Filepath: "mask.tab.gz", GenomeBuild: "GRCh37",
				GroupType: "GENE", IdentifierType: "ENSEMBL",
				GenotypeDatasetIds: []int{1}, SummaryStatDatasetIds: []int{2}},
			{Id: 2, Name: "missing file", Filepath: "gone.tab.gz", GenomeBuild: "GRCh37", GenotypeDatasetIds: []int{1}},
		},
	})
	require.NoError(t, err)

	return New(registry.New(src, files.NewLocalResolver(dir)), 10000)
}

func definitions(t *testing.T, raw string) []dtos.MaskDefinition {
	var defs []dtos.MaskDefinition
	require.NoError(t, json.Unmarshal([]byte(raw), &defs))
	return defs
}

func baseRequest() Request {
	return Request{GenomeBuild: "GRCh37", Chrom: "22", Start: 51241000, Stop: 51250000, GenotypeDatasetId: 1}
}

func TestCheckMode(t *testing.T) {
	assert.Error(t, CheckMode(nil, nil))
	assert.Error(t, CheckMode([]int{1}, []dtos.MaskDefinition{{Id: 1}}))
	assert.NoError(t, CheckMode([]int{1}, nil))
	assert.NoError(t, CheckMode(nil, []dtos.MaskDefinition{{Id: 1}}))

	err := CheckMode(nil, nil)
	assert.True(t, faults.Is(err, faults.Validation))
	assert.Contains(t, err.Error(), "Must provide either 'masks' or 'maskDefinitions' in request, and not both.")
}

func TestStoredMask(t *testing.T) {
	r := newResolver(t)
	req := baseRequest()
	req.MaskIds = []int{1}

	masks, err := r.Resolve(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, masks, 1)

	groups := masks[0].Groups
	require.Len(t, groups, 2)
	assert.Equal(t, "ABC", groups[0].Name)
	assert.Equal(t, "ZNF", groups[1].Name)
	assert.Equal(t, []string{"22:51241101_A/T", "22:51241386_C/G"}, groups[1].Variants)
	assert.Equal(t, "GENE", string(masks[0].GroupType))
}

func TestStoredMaskRejections(t *testing.T) {
	r := newResolver(t)

	cases := []struct {
		name    string
		mutate  func(*Request)
		message string
	}{
		{"missing file", func(q *Request) { q.MaskIds = []int{2} }, "Could not find mask file on server for mask ID 2"},
		{"genome build", func(q *Request) { q.MaskIds = []int{1}; q.GenomeBuild = "GRCh38" }, "Mask ID 1 is invalid for genome build GRCh38"},
		{"genotype dataset", func(q *Request) { q.MaskIds = []int{1}; q.GenotypeDatasetId = 3 }, "Mask ID 1 is invalid for genotype dataset ID 3"},
		{"summary statistics", func(q *Request) {
			q.MaskIds = []int{1}
			q.GenotypeDatasetId = 0
			q.SummaryStatDatasetId = 5
		}, "Mask ID 1 is invalid for summary statistic dataset ID 5"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := baseRequest()
			tc.mutate(&req)

			_, err := r.Resolve(context.Background(), req)
			require.Error(t, err)
			assert.True(t, faults.Is(err, faults.Validation))

			var f *faults.Fault
			require.ErrorAs(t, err, &f)
			assert.Equal(t, tc.message, f.Message)
		})
	}
}

func TestStoredMaskWidthGuard(t *testing.T) {
	r := newResolver(t)
	r.MaxCovRegionSize = 1000
	req := baseRequest()
	req.MaskIds = []int{1}

	// ABC spans 3700 bp
	_, err := r.Resolve(context.Background(), req)
	var f *faults.Fault
	require.ErrorAs(t, err, &f)
	assert.Equal(t, faults.Validation, f.Kind)
	assert.Equal(t, "Region requested for analysis exceeds maximum width of 1000", f.Message)

	// a window holding only ZNF passes
	req.Stop = 51241200
	_, err = r.Resolve(context.Background(), req)
	assert.NoError(t, err)
}

func TestUnknownStoredMask(t *testing.T) {
	r := newResolver(t)
	req := baseRequest()
	req.MaskIds = []int{9}

	_, err := r.Resolve(context.Background(), req)
	var f *faults.Fault
	require.ErrorAs(t, err, &f)
	assert.Equal(t, faults.NotFound, f.Kind)
	assert.Equal(t, "Mask ID 9 does not exist", f.Message)
}

func TestInlineFormatsAgree(t *testing.T) {
	r := newResolver(t)

	epacts := baseRequest()
	epacts.Definitions = definitions(t, `[{"id": 1, "name": "m", "group_type": "GENE", "identifier_type": "ENSEMBL",
		"groups": {"G2": ["22:51241386_C/G", "22:51241101_A/T"], "G1": ["22:51241309_C/T"]}}]`)
	epacts.VariantFormat = vf.EPACTS

	colons := baseRequest()
	colons.Definitions = definitions(t, `[{"id": 1, "name": "m", "group_type": "GENE", "identifier_type": "ENSEMBL",
		"groups": {"G2": ["22:51241386:C:G", "22:51241101:A:T"], "G1": ["22:51241309:C:T"]}}]`)
	colons.VariantFormat = vf.COLONS

	a, err := r.Resolve(context.Background(), epacts)
	require.NoError(t, err)
	b, err := r.Resolve(context.Background(), colons)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	// request order of groups is preserved
	require.Len(t, a[0].Groups, 2)
	assert.Equal(t, "G2", a[0].Groups[0].Name)
	assert.Equal(t, 51241101, a[0].Groups[0].Start)
	assert.Equal(t, 51241386, a[0].Groups[0].Stop)
	assert.Equal(t, "22", a[0].Groups[0].Chrom)
}

func TestInlineRegionGroup(t *testing.T) {
	r := newResolver(t)
	req := baseRequest()
	req.Definitions = definitions(t, `[{"id": 4, "name": "m", "group_type": "REGION", "identifier_type": "COORDINATES",
		"groups": {"R1": {"start": 51241101, "stop": 51245000, "filters": [{"field": "maf", "op": "lte", "value": 0.05}]}}}]`)

	masks, err := r.Resolve(context.Background(), req)
	require.NoError(t, err)

	g := masks[0].Groups[0]
	assert.True(t, g.IsRegion())
	assert.Equal(t, "22", g.Chrom)
	assert.Equal(t, 51241101, g.Start)
	assert.Equal(t, 51245000, g.Stop)
	require.Len(t, g.Filters, 1)
	assert.Equal(t, 0.05, g.Filters[0].Value)
}

func TestInlineRejections(t *testing.T) {
	r := newResolver(t)

	wrap := func(groups string) string {
		return `[{"id": 1, "name": "m", "group_type": "GENE", "identifier_type": "ENSEMBL", "groups": ` + groups + `}]`
	}
	cases := []struct {
		name    string
		groups  string
		format  string
		message string
	}{
		{"scalar group", `{"G": 5}`, "EPACTS", "Each group must be either a list of variants"},
		{"empty list", `{"G": []}`, "EPACTS", "List of variants in group definition must have at least 1 variant"},
		{"chr prefix", `{"G": ["chr22:1_A/T"]}`, "EPACTS", "Variant chromosome should not contain 'chr'"},
		{"bad allele", `{"G": ["22:1_A/X"]}`, "EPACTS", "had invalid alleles"},
		{"epacts under colons", `{"G": ["22:1_A/T"]}`, "COLONS", "should be of format: CHROM:POS:REF:ALT"},
		{"missing start", `{"G": {"stop": 10}}`, "EPACTS", "Must provide start position for region"},
		{"missing stop", `{"G": {"start": 10}}`, "EPACTS", "Must provide stop position for region"},
		{"bad op", `{"G": {"start": 1, "stop": 10, "filters": [{"field": "maf", "op": "gt", "value": 0.1}]}}`, "EPACTS", "Invalid op, must be one of: gte, lte, eq"},
		{"maf range", `{"G": {"start": 1, "stop": 10, "filters": [{"field": "maf", "op": "lte", "value": 1.5}]}}`, "EPACTS", "Filter for 'maf' must specify value between 0 and 1 inclusive"},
		{"unknown field", `{"G": {"start": 1, "stop": 10, "filters": [{"field": "beta", "op": "lte", "value": 1}]}}`, "EPACTS", "Invalid filter field 'beta'"},
		{"oversized region", `{"G": {"start": 1, "stop": 20000}}`, "EPACTS", "Region requested for analysis exceeds maximum width of 10000"},
		{"oversized list", `{"G": ["22:1_A/T", "22:50000_C/G"]}`, "EPACTS", "Region requested for analysis exceeds maximum width of 10000"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := baseRequest()
			req.Definitions = definitions(t, wrap(tc.groups))
			req.VariantFormat = vf.CastToVariantFormat(tc.format)

			_, err := r.Resolve(context.Background(), req)
			require.Error(t, err)
			assert.True(t, faults.Is(err, faults.Validation))
			assert.Contains(t, err.Error(), tc.message)
		})
	}
}

func TestReadGroupsOverlap(t *testing.T) {
	groups, err := ReadGroups(strings.NewReader(maskFile), "22", 51063000, 51063500)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "ARSA", groups[0].Name)

	groups, err = ReadGroups(strings.NewReader(maskFile), "21", 1, 100)
	require.NoError(t, err)
	assert.Empty(t, groups)

	_, err = ReadGroups(strings.NewReader("G\t22\t1\n"), "22", 1, 100)
	assert.Error(t, err)
}
