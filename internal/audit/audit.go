package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
)

// Action names recorded in the audit trail.
const (
	ActionSeriesExport = "series.export"
)

// Entry is one audit trail record.
type Entry struct {
	ID           string
	TenantID     string
	Actor        string
	Role         string
	Action       string
	ResourceType string
	ResourceID   string
	Metadata     json.RawMessage
	// PayloadDigest is the SHA256 of the exported file, not of Metadata.
	PayloadDigest string
	IP            string
	UserAgent     string
	CreatedAt     time.Time
}

// Logger writes audit entries.
type Logger interface {
	Log(ctx context.Context, entry Entry) error
}

// NewID generates an audit id.
func NewID() string {
	return "audit-" + uuid.NewString()
}

// Digest computes a SHA256 hex digest.
func Digest(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// LogWriter writes entries to a process logger. Used when no database is configured.
type LogWriter struct {
	logger *log.Logger
}

// NewLogWriter constructs a LogWriter; a nil logger falls back to log.Default.
func NewLogWriter(logger *log.Logger) *LogWriter {
	if logger == nil {
		logger = log.Default()
	}
	return &LogWriter{logger: logger}
}

// Log prints the entry.
func (w *LogWriter) Log(_ context.Context, entry Entry) error {
	w.logger.Printf("audit: tenant=%s actor=%s role=%s action=%s %s=%s digest=%s meta=%s",
		entry.TenantID, entry.Actor, entry.Role, entry.Action, entry.ResourceType, entry.ResourceID,
		entry.PayloadDigest, string(entry.Metadata))
	return nil
}
