package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	elasticsearch "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/example/blogicum/internal/config"
	"github.com/example/blogicum/internal/models"
)

// MaxHits caps how many post ids one query pulls from the index.
const MaxHits = 200

type Elastic struct {
	Client *elasticsearch.Client
	Index  string
}

func NewElastic(cfg *config.Config) (*Elastic, error) {
	cfgES := elasticsearch.Config{
		Addresses: []string{cfg.ElasticAddr},
	}
	if cfg.ElasticUsername != "" {
		cfgES.Username = cfg.ElasticUsername
		cfgES.Password = cfg.ElasticPassword
	}
	client, err := elasticsearch.NewClient(cfgES)
	if err != nil {
		return nil, err
	}
	return &Elastic{Client: client, Index: cfg.ElasticIndex}, nil
}

func (e *Elastic) EnsurePostsIndex(ctx context.Context) error {
	res, err := e.Client.Indices.Exists([]string{e.Index}, e.Client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	mapping := map[string]interface{}{
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"id":       map[string]string{"type": "long"},
				"title":    map[string]string{"type": "text"},
				"text":     map[string]string{"type": "text"},
				"author":   map[string]string{"type": "keyword"},
				"category": map[string]string{"type": "keyword"},
				"location": map[string]string{"type": "keyword"},
			},
		},
	}
	b, _ := json.Marshal(mapping)
	createRes, err := e.Client.Indices.Create(e.Index,
		e.Client.Indices.Create.WithBody(bytes.NewReader(b)),
		e.Client.Indices.Create.WithContext(ctx))
	if err != nil {
		return err
	}
	defer createRes.Body.Close()
	if createRes.IsError() {
		return fmt.Errorf("failed to create index: %s", createRes.String())
	}
	return nil
}

func (e *Elastic) IndexPost(ctx context.Context, post *models.Post) error {
	b, err := json.Marshal(postDocument(post))
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{Index: e.Index, DocumentID: strconv.FormatUint(uint64(post.ID), 10), Body: bytes.NewReader(b), Refresh: "true"}
	res, err := req.Do(ctx, e.Client)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index error: %s", res.String())
	}
	return nil
}

func (e *Elastic) DeletePost(ctx context.Context, id uint) error {
	req := esapi.DeleteRequest{Index: e.Index, DocumentID: strconv.FormatUint(uint64(id), 10), Refresh: "true"}
	res, err := req.Do(ctx, e.Client)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete error: %s", res.String())
	}
	return nil
}

// SearchPostIDs returns the ids of matching posts, best match first.
// Visibility is not applied here; callers load the ids through the store.
func (e *Elastic) SearchPostIDs(ctx context.Context, query string) ([]uint, error) {
	b, _ := json.Marshal(searchBody(query, MaxHits))
	res, err := e.Client.Search(
		e.Client.Search.WithContext(ctx),
		e.Client.Search.WithIndex(e.Index),
		e.Client.Search.WithBody(bytes.NewReader(b)),
		e.Client.Search.WithTimeout(10*time.Second),
	)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("search error: %s", res.String())
	}
	return parseHitIDs(res.Body)
}

func postDocument(p *models.Post) map[string]interface{} {
	doc := map[string]interface{}{
		"id":    p.ID,
		"title": p.Title,
		"text":  p.Text,
	}
	if p.Author != nil {
		doc["author"] = p.Author.Username
	}
	if p.Category != nil {
		doc["category"] = p.Category.Slug
	}
	if p.Location != nil {
		doc["location"] = p.Location.Name
	}
	return doc
}

func searchBody(query string, size int) map[string]interface{} {
	return map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"title^2", "text"},
			},
		},
		"_source": false,
		"size":    size,
	}
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID string `json:"_id"`
		} `json:"hits"`
	} `json:"hits"`
}

func parseHitIDs(r io.Reader) ([]uint, error) {
	var parsed searchResponse
	if err := json.NewDecoder(r).Decode(&parsed); err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		id, err := strconv.ParseUint(h.ID, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}
