package ingest

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	appErr "github.com/MohitNilvarn/TAP/internal/pkg/errors"
)

// Extractor turns one uploaded file into plain text. Heavy formats
// (pdf/docx/pptx) are served by an external extraction service registered at
// startup; failures surface as errors and must never crash ingestion.
type Extractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

var (
	extractorMu sync.RWMutex
	extractors  = map[string]Extractor{}
)

func RegisterExtractor(fileType string, e Extractor) {
	key := strings.ToLower(strings.TrimSpace(fileType))
	if key == "" || e == nil {
		return
	}
	extractorMu.Lock()
	extractors[key] = e
	extractorMu.Unlock()
}

// NewExtractor fails fast on unsupported types, before any side effect.
func NewExtractor(fileType string) (Extractor, error) {
	key := strings.ToLower(strings.TrimSpace(fileType))
	extractorMu.RLock()
	e := extractors[key]
	extractorMu.RUnlock()
	if e == nil {
		return nil, fmt.Errorf("%w: %s", appErr.ErrUnsupportedFileType, fileType)
	}
	return e, nil
}

func SupportedTypes() []string {
	extractorMu.RLock()
	defer extractorMu.RUnlock()
	types := make([]string, 0, len(extractors))
	for key := range extractors {
		types = append(types, key)
	}
	sort.Strings(types)
	return types
}

type textExtractor struct{}

func (e *textExtractor) ExtractText(ctx context.Context, path string) (string, error) {
	_ = ctx
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read text file: %w", err)
	}
	return string(data), nil
}

func init() {
	RegisterExtractor("txt", &textExtractor{})
	RegisterExtractor("md", &markdownExtractor{})
}
