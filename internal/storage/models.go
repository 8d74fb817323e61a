package storage

// ChunkRecord represents a knowledge chunk in the database.
// The ID doubles as the Qdrant point ID so the two halves of the knowledge
// store stay joined.
type ChunkRecord struct {
	ID         string    // UUID (same as Qdrant point ID)
	Text       string    // Chunk text content
	Category   string    // Domain category (e.g. "Engineering", "Education")
	Tags       []string  // Curriculum tags, e.g. "grade-11", "maths", "budget-low"
	SourceType string    // Owning entity type, e.g. "career", "institution", "bursary"
	SourceID   string    // Owning entity identifier
	Embedding  []float32 // Stored embedding vector
}

// KeywordHit is a keyword search result: a chunk plus its normalized
// lexical relevance score in [0, 1].
type KeywordHit struct {
	Chunk ChunkRecord
	Score float64
}
