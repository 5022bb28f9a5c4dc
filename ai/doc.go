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


// Package ai provides abstractions for the external AI services used by specindex.
//
// Two capabilities are consumed: text embeddings for chunks and queries, and chat
// completion for synthesizing cited answers from retrieved chunks.
//
//   - Embedder: Generates vector embeddings from text
//   - Completer: Produces a completion from a system prompt and messages
//   - AIProvider: Aggregates both and reports the embedding model identifier
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// Public constructors (openai.NewProvider, openai.NewEmbedder, etc.) return interface
// types. Mock constructors return concrete types so tests can inject behavior and
// inspect call counts.
//
// # Embedding Model Identity
//
// Vectors produced by different models (or by one model at different dimensions) are not
// comparable. Config.EmbeddingModelID returns the identifier that is stored with every
// vector and checked at query time.
package ai
