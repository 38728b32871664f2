package pipeline

import (
	"github.com/MohitNilvarn/TAP/internal/vector"
)

// Request carries everything the generation run needs up front. An empty
// ContentTypes means generate all types.
type Request struct {
	LectureID    string
	CourseID     string
	Transcript   string
	LectureTitle string
	ContentTypes []string
}

// State accumulates as the run moves through its stages. Per-type errors
// are kept separate so one failed stage never blocks the others.
type State struct {
	Request

	Context     string
	ContextDocs []vector.SearchResult

	Notes      map[string]any
	Assignment map[string]any
	Flashcards map[string]any

	CompletedTypes []string
	Errors         map[string]string
}

func (s *State) requested(contentType string) bool {
	for _, t := range s.ContentTypes {
		if t == contentType {
			return true
		}
	}
	return false
}

func (s *State) fail(contentType string, err error) {
	if s.Errors == nil {
		s.Errors = map[string]string{}
	}
	s.Errors[contentType] = err.Error()
}
