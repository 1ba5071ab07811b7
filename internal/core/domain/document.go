package domain

import (
	"encoding/json"
	"strings"
	"time"
)

type DocumentStatus string

const (
	DocUploaded  DocumentStatus = "uploaded"
	DocAnalyzing DocumentStatus = "analyzing"
	DocAnalyzed  DocumentStatus = "analyzed"
	DocFailed    DocumentStatus = "failed"
)

// Terminal reports whether the analysis lifecycle has ended for this
// upload. The API exposes no re-analysis endpoint, so failed stays failed.
func (s DocumentStatus) Terminal() bool {
	return s == DocAnalyzed || s == DocFailed
}

// ValidTransition enforces the strictly forward lifecycle
// uploaded -> analyzing -> analyzed|failed.
func ValidTransition(from, to DocumentStatus) bool {
	switch from {
	case DocUploaded:
		return to == DocAnalyzing
	case DocAnalyzing:
		return to == DocAnalyzed || to == DocFailed
	}
	return false
}

// Progressed reports whether to is further along the lifecycle than
// from. A poll can sample past an intermediate state, so a forward skip
// (uploaded straight to analyzed) is a legitimate observation even when
// it is not a single ValidTransition step.
func Progressed(from, to DocumentStatus) bool {
	return to.rank() > from.rank()
}

func (s DocumentStatus) rank() int {
	switch s {
	case DocUploaded:
		return 0
	case DocAnalyzing:
		return 1
	case DocAnalyzed, DocFailed:
		return 2
	}
	return -1
}

// Document belongs to exactly one case. AIKeyPoints arrives from the
// backend as an encoded string: usually a JSON array, sometimes freeform
// text.
type Document struct {
	ID               string         `json:"id"`
	Filename         string         `json:"filename"`
	OriginalFilename string         `json:"original_filename"`
	MimeType         string         `json:"mime_type"`
	Status           DocumentStatus `json:"status"`
	AISummary        string         `json:"ai_summary"`
	AIKeyPoints      string         `json:"ai_key_points"`
	CreatedAt        time.Time      `json:"created_at"`
}

// KeyPoints decodes ai_key_points defensively: JSON array first, then
// newline-split, else empty.
func (d Document) KeyPoints() []string {
	raw := strings.TrimSpace(d.AIKeyPoints)
	if raw == "" {
		return nil
	}
	var parsed []string
	if err := json.Unmarshal([]byte(raw), &parsed); err == nil {
		return parsed
	}
	var points []string
	for _, line := range strings.Split(raw, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			points = append(points, line)
		}
	}
	return points
}
