// Package storage provides the Elasticsearch index for exported documents.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	es "github.com/elastic/go-elasticsearch/v8"

	"github.com/jonesrussell/harvest/internal/logger"
)

// DefaultIndex is the index documents are written to when none is configured.
const DefaultIndex = "pages"

// Config holds Elasticsearch connection settings.
type Config struct {
	Addresses []string
	Username  string
	Password  string
	APIKey    string
	Index     string
}

// Document is the indexed representation of one exported page.
type Document struct {
	URL       string    `json:"url"`
	Source    string    `json:"source"`
	Content   string    `json:"content"`
	WordCount int       `json:"word_count"`
	FetchedAt time.Time `json:"fetched_at,omitempty"`
}

// Hit is one search result.
type Hit struct {
	ID       string
	Document Document
}

// NewElasticsearchClient builds a client from config and verifies the
// connection with a ping.
func NewElasticsearchClient(cfg Config) (*es.Client, error) {
	clientConfig := es.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	}
	if cfg.APIKey != "" {
		clientConfig.APIKey = cfg.APIKey
	}

	client, err := es.NewClient(clientConfig)
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	res, err := client.Ping()
	if err != nil {
		return nil, fmt.Errorf("ping elasticsearch: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch ping: %s", res.String())
	}

	return client, nil
}

// Storage wraps an Elasticsearch client bound to one document index.
type Storage struct {
	client *es.Client
	index  string
	log    logger.Interface
}

// NewStorage wraps the given client. An empty index falls back to
// DefaultIndex.
func NewStorage(client *es.Client, index string, log logger.Interface) *Storage {
	if index == "" {
		index = DefaultIndex
	}

	return &Storage{
		client: client,
		index:  index,
		log:    log,
	}
}

// Index returns the index name documents are written to.
func (s *Storage) Index() string {
	return s.index
}

// EnsureIndex creates the document index with its mapping if it does not
// exist yet.
func (s *Storage) EnsureIndex(ctx context.Context) error {
	exists, err := s.indexExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	mapping := map[string]any{
		"mappings": map[string]any{
			"properties": map[string]any{
				"url":        map[string]any{"type": "keyword"},
				"source":     map[string]any{"type": "keyword"},
				"content":    map[string]any{"type": "text"},
				"word_count": map[string]any{"type": "integer"},
				"fetched_at": map[string]any{"type": "date"},
			},
		},
	}

	body, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("marshal index mapping: %w", err)
	}

	res, err := s.client.Indices.Create(
		s.index,
		s.client.Indices.Create.WithContext(ctx),
		s.client.Indices.Create.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return fmt.Errorf("create index %s: %w", s.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("create index %s: %s", s.index, res.String())
	}

	s.log.Info("created document index", "index", s.index)

	return nil
}

func (s *Storage) indexExists(ctx context.Context) (bool, error) {
	res, err := s.client.Indices.Exists(
		[]string{s.index},
		s.client.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		return false, fmt.Errorf("check index %s: %w", s.index, err)
	}
	defer res.Body.Close()

	return res.StatusCode == http.StatusOK, nil
}

// IndexDocument writes one document under the given id, replacing any
// previous version.
func (s *Storage) IndexDocument(ctx context.Context, id string, doc *Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	res, err := s.client.Index(
		s.index,
		bytes.NewReader(body),
		s.client.Index.WithContext(ctx),
		s.client.Index.WithDocumentID(id),
	)
	if err != nil {
		return fmt.Errorf("index document %s: %w", id, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index document %s: %s", id, res.String())
	}

	return nil
}

// DeleteIndex removes the named index. Deleting a missing index is an
// error.
func (s *Storage) DeleteIndex(ctx context.Context, index string) error {
	res, err := s.client.Indices.Delete(
		[]string{index},
		s.client.Indices.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("delete index %s: %w", index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("delete index %s: %s", index, res.String())
	}

	s.log.Info("deleted index", "index", index)

	return nil
}

// ListIndices returns the names of all indices in the cluster, sorted.
func (s *Storage) ListIndices(ctx context.Context) ([]string, error) {
	res, err := s.client.Indices.Get(
		[]string{"_all"},
		s.client.Indices.Get.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("list indices: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("list indices: %s", res.String())
	}

	var indices map[string]any
	if decodeErr := json.NewDecoder(res.Body).Decode(&indices); decodeErr != nil {
		return nil, fmt.Errorf("decode indices response: %w", decodeErr)
	}

	names := make([]string, 0, len(indices))
	for name := range indices {
		names = append(names, name)
	}
	sort.Strings(names)

	return names, nil
}

// Search runs a match query against document content and returns up to size
// hits.
func (s *Storage) Search(ctx context.Context, query string, size int) ([]Hit, error) {
	body, err := json.Marshal(map[string]any{
		"query": map[string]any{
			"match": map[string]any{
				"content": query,
			},
		},
		"size": size,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal search query: %w", err)
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", s.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search %s: %s", s.index, res.String())
	}

	var result struct {
		Hits struct {
			Hits []struct {
				ID     string   `json:"_id"`
				Source Document `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if decodeErr := json.NewDecoder(res.Body).Decode(&result); decodeErr != nil {
		return nil, fmt.Errorf("decode search response: %w", decodeErr)
	}

	hits := make([]Hit, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		hits = append(hits, Hit{ID: hit.ID, Document: hit.Source})
	}

	return hits, nil
}
