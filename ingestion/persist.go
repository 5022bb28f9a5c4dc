// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ingestion

import (
	"context"
	"fmt"

	"github.com/poiesic/specindex/core"
	"github.com/poiesic/specindex/parser"
)

// persist writes the document and its entities in dependency order. Each stage
// only sees the IDs the previous stage actually stored.
func (p *Pipeline) persist(ctx context.Context, name string, result *parser.Result, embedded []*core.ChunkWithEmbedding, report *Report) error {
	doc, err := p.specRepository.InsertDocument(ctx, documentFor(name, p.generator.ModelID(), embedded))
	if err != nil {
		return fmt.Errorf("%w: document: %w", ErrPersistFailed, err)
	}
	report.DocumentId = doc.Id

	divisionIDs, err := p.specRepository.InsertDivisions(ctx, doc.Id, result.Divisions)
	if err := p.stageOutcome(report, StageDivisions, len(result.Divisions), len(divisionIDs), err); err != nil {
		return err
	}

	sectionIDs, err := p.specRepository.InsertSections(ctx, doc.Id, divisionIDs, result.Sections)
	if err := p.stageOutcome(report, StageSections, len(result.Sections), len(sectionIDs), err); err != nil {
		return err
	}

	subsectionIDs, err := p.specRepository.InsertSubsections(ctx, sectionIDs, result.Subsections)
	if err := p.stageOutcome(report, StageSubsections, len(result.Subsections), len(subsectionIDs), err); err != nil {
		return err
	}

	written, err := p.chunkRepository.InsertChunks(ctx, doc.Id, sectionIDs, subsectionIDs, embedded)
	if err := p.stageOutcome(report, StageChunks, len(embedded), written, err); err != nil {
		return err
	}

	linked, err := p.specRepository.InsertPayItemLinks(ctx, doc.Id, sectionIDs, result.PayItems)
	return p.stageOutcome(report, StagePayItemLinks, len(result.PayItems), linked, err)
}
