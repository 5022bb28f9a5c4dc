// Package ingestion turns one version of a specifications manual into stored,
// embedded chunks.
//
// A run executes its stages in order: parse, chunk, embed, then persist
// divisions, sections, subsections, chunks and pay item links. Embedding happens
// before anything is written, so a failed embedding run leaves the store
// untouched. Persistence stages tolerate rejected entities and count them in the
// returned Report instead of failing the run.
package ingestion
