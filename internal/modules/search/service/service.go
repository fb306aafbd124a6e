package service

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"sort"
	"strings"
	"sync"

	"fedlearn.dev/dashboard/internal/entity"
	"fedlearn.dev/dashboard/pkg/logger"
	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
)

const modelsIndex = "models"

// ModelDoc is the searchable projection of a model.
type ModelDoc struct {
	ID          int64  `json:"id"`
	Name        string `json:"model_name"`
	Description string `json:"model_description"`
	Version     int    `json:"version"`
	Status      string `json:"status"`
}

type ModelIndex interface {
	IndexModels(ctx context.Context, models []entity.Model) error
	RemoveModel(ctx context.Context, modelID int64) error
	Search(ctx context.Context, query, status string, limit int) ([]ModelDoc, error)
}

var sanitizer = bluemonday.StrictPolicy()

// CleanText strips markup and collapses whitespace.
func CleanText(content string) string {
	content = strings.ReplaceAll(content, "</p>", " ")
	content = strings.ReplaceAll(content, "<br>", " ")
	content = strings.ReplaceAll(content, "</div>", " ")
	clean := html.UnescapeString(sanitizer.Sanitize(content))
	return strings.Join(strings.Fields(clean), " ")
}

func toDoc(m entity.Model) ModelDoc {
	return ModelDoc{
		ID:          m.ID,
		Name:        CleanText(m.Name),
		Description: CleanText(m.Description),
		Version:     m.Version,
		Status:      m.Status,
	}
}

type meiliModelIndex struct {
	client meilisearch.ServiceManager
}

func NewMeiliModelIndex(client meilisearch.ServiceManager) ModelIndex {
	s := &meiliModelIndex{client: client}
	s.initIndex()
	return s
}

func (s *meiliModelIndex) initIndex() {
	log := logger.For(logger.SEARCH)

	filterable := []any{"status"}
	if _, err := s.client.Index(modelsIndex).UpdateFilterableAttributes(&filterable); err != nil {
		log.Warn("failed to update models filterable attributes", "error", err)
	}
	sortable := []string{"version"}
	if _, err := s.client.Index(modelsIndex).UpdateSortableAttributes(&sortable); err != nil {
		log.Warn("failed to update models sortable attributes", "error", err)
	}
}

func (s *meiliModelIndex) IndexModels(_ context.Context, models []entity.Model) error {
	if len(models) == 0 {
		return nil
	}
	docs := make([]ModelDoc, len(models))
	for i, m := range models {
		docs[i] = toDoc(m)
	}
	primaryKey := "id"
	if _, err := s.client.Index(modelsIndex).AddDocuments(docs, &primaryKey); err != nil {
		return fmt.Errorf("indexing models: %w", err)
	}
	return nil
}

func (s *meiliModelIndex) RemoveModel(_ context.Context, modelID int64) error {
	_, err := s.client.Index(modelsIndex).DeleteDocument(fmt.Sprint(modelID))
	return err
}

func (s *meiliModelIndex) Search(_ context.Context, query, status string, limit int) ([]ModelDoc, error) {
	req := &meilisearch.SearchRequest{Limit: int64(limit)}
	if status != "" {
		req.Filter = fmt.Sprintf("status = %q", status)
	}

	raw, err := s.client.Index(modelsIndex).SearchRaw(query, req)
	if err != nil {
		return nil, fmt.Errorf("searching models: %w", err)
	}

	var res struct {
		Hits []ModelDoc `json:"hits"`
	}
	if err := json.Unmarshal(*raw, &res); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}
	return res.Hits, nil
}

type memoryModelIndex struct {
	mu   sync.RWMutex
	docs map[int64]ModelDoc
}

// NewMemoryModelIndex is used when no search engine is configured.
func NewMemoryModelIndex() ModelIndex {
	return &memoryModelIndex{docs: make(map[int64]ModelDoc)}
}

func (s *memoryModelIndex) IndexModels(_ context.Context, models []entity.Model) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range models {
		s.docs[m.ID] = toDoc(m)
	}
	return nil
}

func (s *memoryModelIndex) RemoveModel(_ context.Context, modelID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, modelID)
	return nil
}

func (s *memoryModelIndex) Search(_ context.Context, query, status string, limit int) ([]ModelDoc, error) {
	q := strings.ToLower(strings.TrimSpace(query))

	s.mu.RLock()
	var hits []ModelDoc
	for _, d := range s.docs {
		if status != "" && d.Status != status {
			continue
		}
		if q == "" || strings.Contains(strings.ToLower(d.Name), q) || strings.Contains(strings.ToLower(d.Description), q) {
			hits = append(hits, d)
		}
	}
	s.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Name != hits[j].Name {
			return hits[i].Name < hits[j].Name
		}
		return hits[i].Version > hits[j].Version
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}
