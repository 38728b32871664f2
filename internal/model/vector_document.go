package model

// VectorDocument is one indexed unit inside a course collection. Metadata
// values are normalized to strings so exact-match filtering stays cheap.
type VectorDocument struct {
	Collection string            `json:"collection"`
	DocID      string            `json:"doc_id"`
	Content    string            `json:"content"`
	Embedding  []float32         `json:"embedding"`
	Metadata   map[string]string `json:"metadata"`
	Seq        int64             `json:"seq"`
	Ctime      int64             `json:"ctime"`
}
