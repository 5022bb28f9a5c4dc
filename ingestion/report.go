package ingestion

import (
	"fmt"
	"strings"
	"time"

	"github.com/poiesic/specindex/core"
	"github.com/poiesic/specindex/embedding"
)

// Stage names, in the order an ingestion run executes them.
const (
	StageParse        = "parse"
	StageChunk        = "chunk"
	StageEmbed        = "embed"
	StageDivisions    = "divisions"
	StageSections     = "sections"
	StageSubsections  = "subsections"
	StageChunks       = "chunks"
	StagePayItemLinks = "pay item links"
)

// StageReport counts the entities one stage handled.
type StageReport struct {
	Stage     string
	Succeeded int
	Failed    int
}

// Report describes an ingestion run. It is returned even when the run fails,
// holding the stages that executed.
type Report struct {
	DocumentId core.ID
	Name       string
	Stages     []StageReport
	Usage      *embedding.Usage
	Duration   time.Duration
}

func (r *Report) record(stage string, succeeded, failed int) {
	r.Stages = append(r.Stages, StageReport{Stage: stage, Succeeded: succeeded, Failed: failed})
}

// Stage returns the report for a stage and whether it ran.
func (r *Report) Stage(name string) (StageReport, bool) {
	for _, s := range r.Stages {
		if s.Stage == name {
			return s, true
		}
	}
	return StageReport{}, false
}

// Failed returns the number of entities that failed across all stages.
func (r *Report) Failed() int {
	total := 0
	for _, s := range r.Stages {
		total += s.Failed
	}
	return total
}

// String renders one line per stage.
func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "document %q (id %d) in %s\n", r.Name, r.DocumentId, r.Duration.Round(time.Millisecond))
	for _, s := range r.Stages {
		fmt.Fprintf(&b, "  %-15s %6d ok %6d failed\n", s.Stage, s.Succeeded, s.Failed)
	}
	if r.Usage != nil {
		fmt.Fprintf(&b, "  ~%d tokens in %d batches, estimated cost $%.4f\n",
			r.Usage.Tokens, r.Usage.Batches, r.Usage.EstimatedCostUSD)
	}
	return b.String()
}
