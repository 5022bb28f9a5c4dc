// Package reembed regenerates the vectors of stored chunks with a new or updated
// embedding model.
//
// Chunks are read in batches, embedded again from their section context and
// content, normalized and written back in place. Chunk text, IDs and links are
// untouched. Once every chunk has been processed each document is stamped with
// the new model identifier so that queries embed in the same space.
package reembed
