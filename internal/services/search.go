package services

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"rise_local_back_end/internal/models"
)

const (
	DealIndex   = "deals"
	VendorIndex = "vendors"
)

type SearchHit struct {
	Kind  string `json:"kind"` // "deal" or "vendor"
	ID    string `json:"id"`
	Title string `json:"title"`
	Text  string `json:"text,omitempty"`
	City  string `json:"city,omitempty"`
}

type searchDoc struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	City        string `json:"city"`
	VendorName  string `json:"vendor_name,omitempty"`
	Status      string `json:"status,omitempty"`
}

// Search indexes deals and vendors in Elasticsearch. Without a client the
// queries run as LIKE matches against SQL.
type Search struct {
	es *elasticsearch.Client
	db *gorm.DB
}

func NewSearch(es *elasticsearch.Client, db *gorm.DB) *Search {
	return &Search{es: es, db: db}
}

func (s *Search) IndexDeal(ctx context.Context, d *models.Deal) {
	doc := searchDoc{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Category:    d.Category,
		Status:      d.Status,
	}
	if d.Vendor != nil {
		doc.VendorName = d.Vendor.Name
		doc.City = d.Vendor.City
	}
	s.index(ctx, DealIndex, d.ID, doc)
}

func (s *Search) IndexVendor(ctx context.Context, v *models.Vendor) {
	s.index(ctx, VendorIndex, v.ID, searchDoc{
		ID:          v.ID,
		Title:       v.Name,
		Description: v.Description,
		Category:    v.Category,
		City:        v.City,
	})
}

func (s *Search) Remove(ctx context.Context, index, id string) {
	if s.es == nil {
		return
	}
	res, err := esapi.DeleteRequest{Index: index, DocumentID: id}.Do(ctx, s.es)
	if err != nil {
		log.Error().Err(err).Str("index", index).Str("id", id).Msg("❌ Elasticsearch delete failed")
		return
	}
	res.Body.Close()
}

func (s *Search) index(ctx context.Context, index, id string, doc searchDoc) {
	if s.es == nil {
		return
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return
	}
	res, err := esapi.IndexRequest{
		Index:      index,
		DocumentID: id,
		Body:       bytes.NewReader(data),
		Refresh:    "true",
	}.Do(ctx, s.es)
	if err != nil {
		log.Error().Err(err).Str("index", index).Msg("❌ Elasticsearch index failed")
		return
	}
	defer res.Body.Close()
	if res.IsError() {
		log.Warn().Str("index", index).Str("id", id).Str("status", res.Status()).Msg("⚠️ Elasticsearch rejected document")
	}
}

// Query searches published deals and active vendors.
func (s *Search) Query(ctx context.Context, q string, limit int) ([]SearchHit, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []SearchHit{}, nil
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	if s.es != nil {
		hits, err := s.queryElastic(ctx, q, limit)
		if err == nil {
			return hits, nil
		}
		log.Warn().Err(err).Msg("⚠️ Elasticsearch query failed, falling back to SQL")
	}
	return s.querySQL(ctx, q, limit)
}

func (s *Search) queryElastic(ctx context.Context, q string, limit int) ([]SearchHit, error) {
	var buf bytes.Buffer
	body := map[string]interface{}{
		"size": limit,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": map[string]interface{}{
					"multi_match": map[string]interface{}{
						"query":  q,
						"fields": []string{"title^3", "vendor_name^2", "description", "category", "city"},
					},
				},
				"must_not": map[string]interface{}{
					"terms": map[string]interface{}{"status": []string{models.DealStatusDraft, models.DealStatusPaused}},
				},
			},
		},
	}
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, errors.Wrap(err, "encode query")
	}

	res, err := esapi.SearchRequest{Index: []string{DealIndex, VendorIndex}, Body: &buf}.Do(ctx, s.es)
	if err != nil {
		return nil, errors.Wrap(err, "search request")
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, errors.Errorf("search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Hits []struct {
				Index  string    `json:"_index"`
				Source searchDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, errors.Wrap(err, "decode search response")
	}

	hits := make([]SearchHit, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		kind := "deal"
		if h.Index == VendorIndex {
			kind = "vendor"
		}
		hits = append(hits, SearchHit{Kind: kind, ID: h.Source.ID, Title: h.Source.Title, Text: h.Source.Description, City: h.Source.City})
	}
	return hits, nil
}

func (s *Search) querySQL(ctx context.Context, q string, limit int) ([]SearchHit, error) {
	like := "%" + strings.ToLower(q) + "%"
	db := s.db.WithContext(ctx)

	var deals []models.Deal
	if err := db.Where("status = ? AND (LOWER(title) LIKE ? OR LOWER(description) LIKE ?)", models.DealStatusPublished, like, like).
		Limit(limit).Find(&deals).Error; err != nil {
		return nil, errors.Wrap(err, "search deals")
	}
	var vendors []models.Vendor
	if err := db.Where("is_active = ? AND (LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(city) LIKE ?)", true, like, like, like).
		Limit(limit).Find(&vendors).Error; err != nil {
		return nil, errors.Wrap(err, "search vendors")
	}

	hits := make([]SearchHit, 0, len(deals)+len(vendors))
	for _, d := range deals {
		hits = append(hits, SearchHit{Kind: "deal", ID: d.ID, Title: d.Title, Text: d.Description})
	}
	for _, v := range vendors {
		hits = append(hits, SearchHit{Kind: "vendor", ID: v.ID, Title: v.Name, Text: v.Description, City: v.City})
	}
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}
