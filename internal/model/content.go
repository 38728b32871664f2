package model

import "encoding/json"

const (
	ContentTypeNotes      = "notes"
	ContentTypeAssignment = "assignment"
	ContentTypeFlashcards = "flashcards"
)

// ContentTypes lists the generatable types in pipeline order.
var ContentTypes = []string{ContentTypeNotes, ContentTypeAssignment, ContentTypeFlashcards}

func IsValidContentType(t string) bool {
	for _, known := range ContentTypes {
		if t == known {
			return true
		}
	}
	return false
}

type GeneratedContent struct {
	ID          string          `json:"id"`
	LectureID   string          `json:"lecture_id"`
	CourseID    string          `json:"course_id"`
	ContentType string          `json:"content_type"`
	Content     json.RawMessage `json:"content"`
	Metadata    map[string]any  `json:"metadata"`
	Version     int             `json:"version"`
	IsEdited    bool            `json:"is_edited"`
	Ctime       int64           `json:"ctime"`
	Mtime       int64           `json:"mtime"`
}
