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


// Package chunker turns parsed sections and subsections into retrieval-sized chunks.
//
// Every section gets one header chunk. Subsection content is split on a token budget:
// paragraphs are accumulated up to MaxChunkTokens with an OverlapTokens tail carried into
// the next chunk, oversized paragraphs fall back to sentences without overlap, and
// oversized sentences to fixed word windows. A trailing remainder below MinChunkTokens
// is dropped.
//
// Token counts are an estimate (words × 1.3), not a tokenizer. Chunk boundaries are tuned
// against this estimate, so it must stay approximate.
package chunker
