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


// Package search answers natural-language questions against ingested specifications.
//
// The Engine embeds the question with the same model used at ingestion, resolves
// optional section and pay item filters, and asks the chunk repository for the
// closest chunks by cosine similarity. Ranking is purely similarity based.
//
// When synthesis is requested the top chunks are formatted into a context block
// and sent to the completion service with SystemPrompt. A failed or timed out
// synthesis never fails the request: the retrieved chunks are still returned.
package search
