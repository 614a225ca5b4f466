package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"

	"crisisline-engine/internal/common/logger"
	"crisisline-engine/internal/models"
)

// ESAuditSink appends audit entries to an append-only Elasticsearch index.
// Callers treat appends as best-effort: a failed append is surfaced as an
// error so they can log a warning, but never rolls back the operation.
type ESAuditSink struct {
	es     *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewESAuditSink(es *elasticsearch.Client, index string, log logger.Logger) *ESAuditSink {
	return &ESAuditSink{es: es, index: index, logger: log}
}

// Append indexes one audit entry, keyed by entry id so redelivery is
// idempotent.
func (s *ESAuditSink) Append(ctx context.Context, entry models.AuditEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	res, err := s.es.Index(
		s.index,
		bytes.NewReader(payload),
		s.es.Index.WithDocumentID(entry.ID),
		s.es.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("audit append: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("audit append: %s", res.Status())
	}
	return nil
}

// NoopAuditSink discards entries. Used in tests and when the audit cluster
// is disabled in development.
type NoopAuditSink struct{}

func (NoopAuditSink) Append(context.Context, models.AuditEntry) error { return nil }
