package pipeline

import "fmt"

// Prompt inputs are bounded so a long lecture cannot blow the context
// window. Limits are in runes, not bytes.
const (
	maxTranscriptRunes = 8000
	maxContextRunes    = 4000
)

const systemPrompt = `You are an expert educational content creator and professor's assistant.
Your role is to help create high-quality educational materials based on lecture transcripts and course materials.

Guidelines:
- Create clear, well-structured content appropriate for university students
- Focus on key concepts and learning objectives
- Use academic but accessible language
- Ensure accuracy based on the provided source material
- Output all responses in valid JSON format as specified`

const notesPromptTemplate = `Based on the following lecture transcript and course context, generate comprehensive lecture notes.

LECTURE TRANSCRIPT:
%s

RELEVANT COURSE CONTEXT:
%s

LECTURE TITLE: %s

Generate structured notes in the following JSON format:
{
    "title": "Lecture Notes: [Topic]",
    "summary": "A 2-3 sentence summary of the lecture content",
    "sections": [
        {
            "heading": "Section heading",
            "content": "Detailed content for this section (2-4 paragraphs)",
            "key_points": ["Key point 1", "Key point 2", "Key point 3"]
        }
    ],
    "key_takeaways": ["Main takeaway 1", "Main takeaway 2", "Main takeaway 3"],
    "vocabulary": [
        {"term": "Technical term", "definition": "Clear definition"}
    ],
    "further_reading": ["Topic to explore further"]
}

Create 3-5 sections covering the main topics discussed. Each section should have 2-4 key points.
Ensure the notes are comprehensive yet concise, suitable for exam preparation.`

const assignmentPromptTemplate = `Based on the following lecture content and course context, generate a practice assignment.

LECTURE TRANSCRIPT:
%s

RELEVANT COURSE CONTEXT:
%s

LECTURE TITLE: %s

Generate an assignment in the following JSON format:
{
    "title": "Practice Questions: [Topic]",
    "description": "Brief description of what this assignment covers",
    "total_points": 100,
    "questions": [
        {
            "type": "mcq",
            "question": "Multiple choice question text",
            "options": ["A) Option 1", "B) Option 2", "C) Option 3", "D) Option 4"],
            "correct_answer": "A",
            "explanation": "Why this is the correct answer",
            "points": 10,
            "difficulty": "easy"
        },
        {
            "type": "short_answer",
            "question": "Short answer question text",
            "expected_answer": "Expected answer content",
            "keywords": ["key", "words", "to", "look", "for"],
            "points": 15,
            "difficulty": "medium"
        },
        {
            "type": "long_answer",
            "question": "Essay or long answer question",
            "rubric": "What should be included for full marks",
            "points": 25,
            "difficulty": "hard"
        }
    ]
}

Generate a balanced mix of:
- 3-4 MCQ questions (testing recall and understanding)
- 2-3 Short answer questions (testing application)
- 1-2 Long answer questions (testing analysis and synthesis)

Ensure questions progress from easier to harder and cover key topics from the lecture.`

const flashcardsPromptTemplate = `Based on the following lecture content and course context, generate study flashcards.

LECTURE TRANSCRIPT:
%s

RELEVANT COURSE CONTEXT:
%s

LECTURE TITLE: %s

Generate flashcards in the following JSON format:
{
    "title": "Flashcards: [Topic]",
    "description": "Flashcards for studying [topic]",
    "cards": [
        {
            "front": "Question or term (keep concise)",
            "back": "Answer or definition (clear and complete)",
            "difficulty": "easy"
        },
        {
            "front": "What is [concept]?",
            "back": "Definition and key characteristics",
            "difficulty": "medium"
        }
    ]
}

Generate 10-15 flashcards that:
- Cover all major concepts from the lecture
- Include definitions, formulas, processes, and key facts
- Progress from basic recall to more complex concepts
- Use clear, concise language on both sides
- Include a mix of easy (40%%), medium (40%%), and hard (20%%) cards`

func buildNotesPrompt(transcript, context, lectureTitle string) string {
	return fmt.Sprintf(notesPromptTemplate,
		truncateRunes(transcript, maxTranscriptRunes),
		truncateRunes(context, maxContextRunes),
		lectureTitle)
}

func buildAssignmentPrompt(transcript, context, lectureTitle string) string {
	return fmt.Sprintf(assignmentPromptTemplate,
		truncateRunes(transcript, maxTranscriptRunes),
		truncateRunes(context, maxContextRunes),
		lectureTitle)
}

func buildFlashcardsPrompt(transcript, context, lectureTitle string) string {
	return fmt.Sprintf(flashcardsPromptTemplate,
		truncateRunes(transcript, maxTranscriptRunes),
		truncateRunes(context, maxContextRunes),
		lectureTitle)
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
