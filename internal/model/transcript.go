package model

type TranscriptSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type Transcript struct {
	Text            string              `json:"text"`
	Language        string              `json:"language"`
	DurationSeconds float64             `json:"duration_seconds"`
	Segments        []TranscriptSegment `json:"segments"`
}
