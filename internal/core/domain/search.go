package domain

// DefaultTopK is the number of passages retrieved when the caller does not
// say otherwise. Small enough to keep prompts short.
const DefaultTopK = 3

// RetrievalResult is a ranked passage. Scores are cosine similarities and
// are comparable only within the results of a single query.
type RetrievalResult struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// Citation attributes part of an answer to an indexed passage.
type Citation struct {
	SourceID string  `json:"source_id" yaml:"source_id"`
	ChunkID  string  `json:"chunk_id" yaml:"chunk_id"`
	Offset   int     `json:"offset" yaml:"offset"`
	Score    float64 `json:"score" yaml:"score"`
}

// CitationsFor converts retrieval results into citations, preserving rank.
func CitationsFor(results []RetrievalResult) []Citation {
	if len(results) == 0 {
		return nil
	}
	out := make([]Citation, len(results))
	for i := range results {
		out[i] = Citation{
			SourceID: results[i].Chunk.SourceID,
			ChunkID:  results[i].Chunk.ID,
			Offset:   results[i].Chunk.Offset,
			Score:    results[i].Score,
		}
	}
	return out
}
