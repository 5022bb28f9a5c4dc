package chunker

import (
	"regexp"
	"strings"

	"github.com/poiesic/specindex/core"
)

var (
	pipeRow             = regexp.MustCompile(`\|[^|\n]*\|[^|\n]*\|`)
	methodOfMeasurement = regexp.MustCompile(`(?i)method\s+of\s+measurement`)
	basisOfPayment      = regexp.MustCompile(`(?i)basis\s+of\s+payment`)
)

// classificationRule assigns chunkType when matches returns true.
type classificationRule struct {
	chunkType core.ChunkType
	matches   func(content, lower, subsectionNumber string) bool
}

// classificationRules are evaluated in order; the first match wins.
var classificationRules = []classificationRule{
	{core.ChunkTypeSectionHeader, func(_, lower, sub string) bool {
		return strings.HasSuffix(sub, ".1") || strings.HasSuffix(sub, ".01") ||
			strings.Contains(lower, "description")
	}},
	{core.ChunkTypeTable, func(content, lower, _ string) bool {
		return strings.Contains(lower, "table ") || pipeRow.MatchString(content)
	}},
	{core.ChunkTypeMeasurement, func(content, lower, _ string) bool {
		return methodOfMeasurement.MatchString(content) ||
			(strings.Contains(lower, "measurement") && strings.Contains(lower, "paid"))
	}},
	{core.ChunkTypePayment, func(content, lower, _ string) bool {
		return basisOfPayment.MatchString(content) ||
			(strings.Contains(lower, "payment") && strings.Contains(lower, "contract unit price"))
	}},
}

// typeKeywords are scored when no rule matches. Order is the tie-break order.
var typeKeywords = []struct {
	chunkType core.ChunkType
	keywords  []string
}{
	{core.ChunkTypeRequirement, []string{"shall", "must", "required", "minimum", "maximum", "not less than", "not exceed", "comply", "conform"}},
	{core.ChunkTypeMaterial, []string{"material", "aggregate", "cement", "admixture", "binder", "steel", "gradation", "supplier", "manufacturer"}},
	{core.ChunkTypeConstruction, []string{"construct", "place", "install", "excavat", "compact", "apply", "finish", "cure", "erect"}},
	{core.ChunkTypeTesting, []string{"test", "sample", "specimen", "inspect", "aashto", "astm", "strength", "tolerance", "acceptance"}},
	{core.ChunkTypeEquipment, []string{"equipment", "machine", "roller", "paver", "mixer", "truck", "nozzle", "pump", "compressor"}},
	{core.ChunkTypeMeasurement, []string{"measure", "quantity", "square meter", "square yard", "cubic", "linear", "lump sum", "ton", "each"}},
	{core.ChunkTypePayment, []string{"payment", "paid", "price", "compensation", "pay item", "contract unit price", "invoice", "cost", "bid"}},
	{core.ChunkTypeTable, []string{"table", "column", "row", "|", "schedule", "listed below", "following values", "range", "percent passing"}},
	{core.ChunkTypeDefinition, []string{"means", "defined", "definition", "refers to", "term", "abbreviation", "shall mean", "denotes", "synonymous"}},
}

// ClassifyChunkType assigns a chunk type from content and the subsection number it came
// from. The result depends only on its inputs.
func ClassifyChunkType(content, subsectionNumber string) core.ChunkType {
	lower := strings.ToLower(content)
	for _, rule := range classificationRules {
		if rule.matches(content, lower, subsectionNumber) {
			return rule.chunkType
		}
	}

	best, bestScore := core.ChunkTypeRequirement, 0
	for _, set := range typeKeywords {
		score := 0
		for _, kw := range set.keywords {
			score += strings.Count(lower, kw)
		}
		// strictly greater keeps the earlier type on ties
		if score > bestScore {
			best, bestScore = set.chunkType, score
		}
	}
	return best
}
