package search

import (
	"github.com/poiesic/specindex/core"
)

// QueryMonitor provides hooks to observe the query process.
// Implement this interface to track intermediate steps and results of a query.
type QueryMonitor interface {
	Start(query string)
	AfterEmbedding(dimensions int)
	AfterFilterResolution(filters core.SearchFilters)
	AfterSearch(matches []*core.ChunkMatch)
	SynthesisFailed(err error)
	Finish(response *Response)
}

// noopMonitor is a no-op implementation of QueryMonitor
type noopMonitor struct{}

var _ QueryMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                            {}
func (n *noopMonitor) AfterEmbedding(_ int)                      {}
func (n *noopMonitor) AfterFilterResolution(_ core.SearchFilters) {}
func (n *noopMonitor) AfterSearch(_ []*core.ChunkMatch)          {}
func (n *noopMonitor) SynthesisFailed(_ error)                   {}
func (n *noopMonitor) Finish(_ *Response)                        {}
