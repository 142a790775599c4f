// api/audit/repository.go
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
)

type Repository interface {
	LogEvent(ctx context.Context, log AuditLog) error
	QueryLogs(ctx context.Context, from, to time.Time, subjectID, recordID string) ([]AuditLog, error)
}

type ElasticsearchRepository struct {
	esClient *elasticsearch.Client
}

// NewElasticsearchRepository creates a new repository with a given Elasticsearch client URL.
func NewElasticsearchRepository(esURL string) (*ElasticsearchRepository, error) {
	cfg := elasticsearch.Config{
		Addresses: []string{esURL},
	}
	esClient, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return &ElasticsearchRepository{esClient: esClient}, nil
}

// LogEvent indexes a domain event in Elasticsearch.
func (r *ElasticsearchRepository) LogEvent(ctx context.Context, log AuditLog) error {
	data, err := json.Marshal(log)
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      "audit-logs",
		DocumentID: fmt.Sprintf("%d-%s", log.Timestamp.UnixNano(), uuid.New().String()),
		Body:       strings.NewReader(string(data)),
		Refresh:    "true",
	}

	res, err := req.Do(ctx, r.esClient)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error indexing document: %s", res.String())
	}

	return nil
}

// QueryLogs searches audit events within a time frame, optionally filtered by
// subject and record.
func (r *ElasticsearchRepository) QueryLogs(ctx context.Context, from, to time.Time, subjectID, recordID string) ([]AuditLog, error) {
	must := []interface{}{
		map[string]interface{}{
			"range": map[string]interface{}{
				"timestamp": map[string]interface{}{
					"gte": from.Format(time.RFC3339),
					"lte": to.Format(time.RFC3339),
				},
			},
		},
	}

	if subjectID != "" {
		must = append(must, map[string]interface{}{
			"match": map[string]interface{}{
				"subject_id": subjectID,
			},
		})
	}
	if recordID != "" {
		must = append(must, map[string]interface{}{
			"match": map[string]interface{}{
				"record_id": recordID,
			},
		})
	}

	query := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": must,
			},
		},
	}

	var buf strings.Builder
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, fmt.Errorf("error encoding query: %w", err)
	}

	res, err := r.esClient.Search(
		r.esClient.Search.WithContext(ctx),
		r.esClient.Search.WithIndex("audit-logs"),
		r.esClient.Search.WithBody(strings.NewReader(buf.String())),
	)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("error searching documents: %s", res.String())
	}

	var searchResult struct {
		Hits struct {
			Hits []struct {
				Source AuditLog `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&searchResult); err != nil {
		return nil, fmt.Errorf("error decoding search response: %w", err)
	}

	logs := make([]AuditLog, 0, len(searchResult.Hits.Hits))
	for _, hit := range searchResult.Hits.Hits {
		logs = append(logs, hit.Source)
	}
	return logs, nil
}
