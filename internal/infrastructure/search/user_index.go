// Package search projects users into Elasticsearch for administrative lookups.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/samber/oops"

	"github.com/oksasatya/auth2-service/internal/domain/entity"
	"github.com/oksasatya/auth2-service/internal/domain/repository"
)

const (
	defaultSize = 10
	maxSize     = 50
	callTimeout = 3 * time.Second
)

// UserIndex never stores password digests; only the fields an operator needs to find an account.
type UserIndex struct {
	es    *elasticsearch.Client
	index string
}

func NewUserIndex(es *elasticsearch.Client, index string) *UserIndex {
	return &UserIndex{es: es, index: index}
}

type userDoc struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Role          string `json:"role"`
	EmailVerified bool   `json:"email_verified"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

func (x *UserIndex) Index(ctx context.Context, u *entity.User) error {
	b, err := json.Marshal(userDoc{
		ID:            u.ID,
		Email:         u.Email,
		Role:          u.Role.String(),
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt:     u.UpdatedAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		return oops.In("search").Wrapf(err, "encode user document")
	}

	req := esapi.IndexRequest{Index: x.index, DocumentID: u.ID, Body: bytes.NewReader(b), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	res, err := req.Do(c, x.es)
	if err != nil {
		return oops.In("search").Code("ES_INDEX_FAILED").With("user_id", u.ID).Wrapf(err, "index user")
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return oops.In("search").Code("ES_INDEX_FAILED").With("user_id", u.ID).With("status", res.Status()).Errorf("index user rejected")
	}
	return nil
}

// Search runs a multi_match over email and role. size is clamped to (0, 50].
func (x *UserIndex) Search(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if size <= 0 || size > maxSize {
		size = defaultSize
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"email^2", "role"},
			},
		},
		"size": size,
	}
	b, err := json.Marshal(query)
	if err != nil {
		return nil, oops.In("search").Wrapf(err, "encode query")
	}

	c, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	res, err := x.es.Search(
		x.es.Search.WithContext(c),
		x.es.Search.WithIndex(x.index),
		x.es.Search.WithBody(bytes.NewReader(b)),
	)
	if err != nil {
		return nil, oops.In("search").Code("ES_SEARCH_FAILED").Wrapf(err, "search users")
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, oops.In("search").Code("ES_SEARCH_FAILED").With("status", res.Status()).Errorf("search users rejected")
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, oops.In("search").Wrapf(err, "decode search response")
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}

var _ repository.UserIndex = (*UserIndex)(nil)
