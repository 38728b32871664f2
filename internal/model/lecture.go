package model

const (
	TranscriptionStatusPending      = "pending"
	TranscriptionStatusTranscribing = "transcribing"
	TranscriptionStatusCompleted    = "completed"
	TranscriptionStatusFailed       = "failed"
)

const (
	GenerationStatusNotStarted = "not_started"
	GenerationStatusGenerating = "generating"
	GenerationStatusCompleted  = "completed"
	GenerationStatusFailed     = "failed"
)

type Lecture struct {
	ID                   string  `json:"id"`
	CourseID             string  `json:"course_id"`
	TeacherID            string  `json:"teacher_id"`
	Title                string  `json:"title"`
	Description          string  `json:"description"`
	AudioFilename        string  `json:"audio_filename"`
	AudioKey             string  `json:"audio_key"`
	AudioDurationSeconds float64 `json:"audio_duration_seconds"`
	Transcript           string  `json:"transcript"`
	TranscriptionStatus  string  `json:"transcription_status"`
	TranscriptionError   string  `json:"transcription_error"`
	GenerationStatus     string  `json:"generation_status"`
	GenerationError      string  `json:"generation_error"`
	Ctime                int64   `json:"ctime"`
	TranscribedAt        int64   `json:"transcribed_at"`
	GenerationStartedAt  int64   `json:"generation_started_at"`
	GeneratedAt          int64   `json:"generated_at"`
}
