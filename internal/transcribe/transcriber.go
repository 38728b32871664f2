package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/MohitNilvarn/TAP/internal/model"
)

// Transcriber is the narrow contract to the external speech-to-text
// collaborator. Segments come back time-ordered and non-overlapping.
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio io.Reader) (*model.Transcript, error)
}

// whisperTranscriber talks to a whisper-compatible HTTP server
// (faster-whisper-server / speaches style verbose_json contract).
type whisperTranscriber struct {
	endpoint string
	language string
	client   *http.Client
}

func NewWhisperTranscriber(endpoint, language string, client *http.Client) Transcriber {
	if client == nil {
		client = http.DefaultClient
	}
	return &whisperTranscriber{
		endpoint: strings.TrimRight(endpoint, "/"),
		language: language,
		client:   client,
	}
}

type whisperResponse struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

func (t *whisperTranscriber) Transcribe(ctx context.Context, filename string, audio io.Reader) (*model.Transcript, error) {
	if t.endpoint == "" {
		return nil, fmt.Errorf("transcribe endpoint not configured")
	}
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, audio); err != nil {
		return nil, err
	}
	_ = writer.WriteField("response_format", "verbose_json")
	if t.language != "" {
		_ = writer.WriteField("language", t.language)
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint+"/v1/audio/transcriptions", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcription service: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("transcription failed: %s: %s", resp.Status, strings.TrimSpace(string(data)))
	}
	var out whisperResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode transcription response: %w", err)
	}

	transcript := &model.Transcript{
		Text:            strings.TrimSpace(out.Text),
		Language:        out.Language,
		DurationSeconds: out.Duration,
	}
	for _, seg := range out.Segments {
		transcript.Segments = append(transcript.Segments, model.TranscriptSegment{
			Start: seg.Start,
			End:   seg.End,
			Text:  strings.TrimSpace(seg.Text),
		})
	}
	return transcript, nil
}
