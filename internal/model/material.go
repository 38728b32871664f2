package model

const (
	ProcessingStatusPending    = "pending"
	ProcessingStatusProcessing = "processing"
	ProcessingStatusCompleted  = "completed"
	ProcessingStatusFailed     = "failed"
)

type Material struct {
	ID               string `json:"id"`
	CourseID         string `json:"course_id"`
	TeacherID        string `json:"teacher_id"`
	Filename         string `json:"filename"`
	FileType         string `json:"file_type"`
	FileKey          string `json:"file_key"`
	FileSizeBytes    int64  `json:"file_size_bytes"`
	Content          string `json:"content"`
	ChunkCount       int    `json:"chunk_count"`
	ProcessingStatus string `json:"processing_status"`
	ProcessingError  string `json:"processing_error"`
	Ctime            int64  `json:"ctime"`
	ProcessedAt      int64  `json:"processed_at"`
}
