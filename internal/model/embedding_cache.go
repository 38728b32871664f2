package model

// EmbeddingCache is one cached embedding row. The composite key is
// (model_name, task_type, content_hash): the same text embedded for
// retrieval and for querying yields different vectors, so the task type
// is part of the key.
type EmbeddingCache struct {
	ModelName   string    `json:"model_name"`
	TaskType    string    `json:"task_type"`
	ContentHash string    `json:"content_hash"`
	Embedding   []float32 `json:"embedding"`
	Ctime       int64     `json:"ctime"`
}
