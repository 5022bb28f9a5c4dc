// Package embedding converts chunks into vectors through an ai.Embedder.
//
// Chunks are grouped into fixed-size batches by a request-scoped BatchBuilder. Each batch
// call carries its own timeout and is retried with exponential backoff; a batch that
// exhausts its retries fails the whole run. A fixed delay separates batch starts, and
// batches may run in parallel on a bounded worker pool while results are reassembled in
// input order.
//
// The text embedded for a chunk is its section context, a blank line, and its content.
// Vectors are normalized to unit length and stamped with the embedding model identifier.
package embedding
