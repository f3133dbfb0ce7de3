// Package meili implements the retrieval index on Meilisearch using a
// user-provided embedder. Writes are asynchronous tasks, so a query right
// after Upsert may not see the document yet.
package meili

import (
	"context"
	"encoding/json"
	"fmt"

	meilisearch "github.com/meilisearch/meilisearch-go"
	"go.uber.org/zap"

	"github.com/chris-regnier/reflectctl/internal/index"
)

const (
	// DefaultIndex is the index UID entries are stored in.
	DefaultIndex = "reflect_journal"
	embedderName = "default"
)

// Options configures the Meilisearch index.
type Options struct {
	URL        string
	APIKey     string
	IndexUID   string
	Dimensions int
}

// Index implements index.Index on Meilisearch.
type Index struct {
	client     meilisearch.ServiceManager
	uid        string
	dimensions int
	logger     *zap.Logger
}

// New creates a client and configures the index settings. A configuration
// failure is logged and retried on Reset.
func New(opts Options, logger *zap.Logger) *Index {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.IndexUID == "" {
		opts.IndexUID = DefaultIndex
	}
	x := &Index{
		client:     meilisearch.New(opts.URL, meilisearch.WithAPIKey(opts.APIKey)),
		uid:        opts.IndexUID,
		dimensions: opts.Dimensions,
		logger:     logger,
	}
	if err := x.configure(); err != nil {
		logger.Warn("meilisearch index not configured", zap.String("index", x.uid), zap.Error(err))
	}
	return x
}

func (x *Index) configure() error {
	if _, err := x.client.CreateIndex(&meilisearch.IndexConfig{Uid: x.uid, PrimaryKey: "id"}); err != nil {
		x.logger.Debug("create index (may already exist)", zap.String("index", x.uid), zap.Error(err))
	}
	idx := x.client.Index(x.uid)
	filterable := []interface{}{"ts"}
	if _, err := idx.UpdateFilterableAttributes(&filterable); err != nil {
		return fmt.Errorf("%w: updating filterable attributes: %v", index.ErrIndex, err)
	}
	_, err := idx.UpdateSettings(&meilisearch.Settings{
		Embedders: map[string]meilisearch.Embedder{
			embedderName: {Source: "userProvided", Dimensions: x.dimensions},
		},
	})
	if err != nil {
		return fmt.Errorf("%w: updating embedders: %v", index.ErrIndex, err)
	}
	return nil
}

// Close is a no-op.
func (x *Index) Close() error {
	return nil
}

// Healthy checks the server health endpoint.
func (x *Index) Healthy(ctx context.Context) error {
	if _, err := x.client.Health(); err != nil {
		return fmt.Errorf("%w: %v", index.ErrIndex, err)
	}
	return nil
}

type document struct {
	ID        string               `json:"id"`
	Date      string               `json:"date"`
	Text      string               `json:"text"`
	Sentiment float64              `json:"sentiment"`
	Themes    []string             `json:"themes"`
	TS        int64                `json:"ts"`
	Vectors   map[string][]float32 `json:"_vectors,omitempty"`
	Score     float64              `json:"_rankingScore,omitempty"`
}

func toDocument(doc index.Doc) document {
	return document{
		ID:        doc.ID,
		Date:      doc.Date,
		Text:      doc.Text,
		Sentiment: doc.Sentiment,
		Themes:    doc.Themes,
		TS:        doc.Timestamp,
		Vectors:   map[string][]float32{embedderName: doc.Embedding},
	}
}

// Upsert enqueues doc; Meilisearch replaces documents with the same primary key.
func (x *Index) Upsert(ctx context.Context, doc index.Doc) error {
	if doc.ID == "" || len(doc.Embedding) == 0 {
		return fmt.Errorf("%w: document needs an id and an embedding", index.ErrValidation)
	}
	if _, err := x.client.Index(x.uid).AddDocuments([]document{toDocument(doc)}, nil); err != nil {
		return fmt.Errorf("%w: adding %s: %v", index.ErrIndex, doc.ID, err)
	}
	return nil
}

func filterExpr(f index.Filter) string {
	return fmt.Sprintf("ts >= %d AND ts <= %d", f.From, f.To)
}

// Query runs a pure semantic search within filter.
func (x *Index) Query(ctx context.Context, vector []float32, filter index.Filter, topK int) ([]index.Match, error) {
	resp, err := x.client.Index(x.uid).Search("", &meilisearch.SearchRequest{
		Vector:               vector,
		Hybrid:               &meilisearch.SearchRequestHybrid{Embedder: embedderName, SemanticRatio: 1},
		Filter:               filterExpr(filter),
		Limit:                int64(topK),
		ShowRankingScore:     true,
		AttributesToRetrieve: []string{"id", "date", "text", "sentiment", "themes", "ts"},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: searching: %v", index.ErrIndex, err)
	}
	matches := make([]index.Match, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		m, err := hitToMatch(hit)
		if err != nil {
			x.logger.Warn("skipping undecodable hit", zap.Error(err))
			continue
		}
		matches = append(matches, m)
	}
	return matches, nil
}

func hitToMatch(hit meilisearch.Hit) (index.Match, error) {
	raw, err := json.Marshal(hit)
	if err != nil {
		return index.Match{}, err
	}
	var d document
	if err := json.Unmarshal(raw, &d); err != nil {
		return index.Match{}, err
	}
	return index.Match{
		Doc: index.Doc{
			ID:        d.ID,
			Date:      d.Date,
			Text:      d.Text,
			Sentiment: d.Sentiment,
			Themes:    d.Themes,
			Timestamp: d.TS,
		},
		Score: d.Score,
	}, nil
}

// Reset deletes every document and reapplies the index settings.
func (x *Index) Reset(ctx context.Context) error {
	if _, err := x.client.Index(x.uid).DeleteAllDocuments(nil); err != nil {
		return fmt.Errorf("%w: deleting documents: %v", index.ErrIndex, err)
	}
	return x.configure()
}
