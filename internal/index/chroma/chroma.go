// Package chroma implements the retrieval index on a Chroma server through
// its v2 REST API.
package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/chris-regnier/reflectctl/internal/index"
)

// DefaultCollection is the collection entries are stored in.
const DefaultCollection = "reflect-journal"

// Options configures the Chroma client.
type Options struct {
	URL        string
	Tenant     string
	Database   string
	Collection string
	HTTPClient *http.Client
}

// Index implements index.Index on a Chroma collection.
type Index struct {
	root       string
	base       string
	collection string
	http       *http.Client

	mu           sync.Mutex
	collectionID string
}

// New creates a client. The collection is created lazily on first use.
func New(opts Options) *Index {
	if opts.Tenant == "" {
		opts.Tenant = "default_tenant"
	}
	if opts.Database == "" {
		opts.Database = "default_database"
	}
	if opts.Collection == "" {
		opts.Collection = DefaultCollection
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	root := strings.TrimRight(opts.URL, "/")
	base := root + "/api/v2/tenants/" + url.PathEscape(opts.Tenant) +
		"/databases/" + url.PathEscape(opts.Database) + "/collections"
	return &Index{
		root:       root,
		base:       base,
		collection: opts.Collection,
		http:       opts.HTTPClient,
	}
}

// Close is a no-op.
func (x *Index) Close() error {
	return nil
}

func (x *Index) do(ctx context.Context, method, u string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%w: encoding request: %v", index.ErrIndex, err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("%w: building request: %v", index.ErrIndex, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := x.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", index.ErrIndex, method, u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%w: %s %s: status %d: %s", index.ErrIndex, method, u, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding response: %v", index.ErrIndex, err)
	}
	return nil
}

func (x *Index) ensureCollection(ctx context.Context) (string, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.collectionID != "" {
		return x.collectionID, nil
	}
	var out struct {
		ID string `json:"id"`
	}
	in := map[string]interface{}{
		"name":          x.collection,
		"get_or_create": true,
		"metadata":      map[string]interface{}{"hnsw:space": "cosine"},
	}
	if err := x.do(ctx, http.MethodPost, x.base, in, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", fmt.Errorf("%w: collection %s has no id", index.ErrIndex, x.collection)
	}
	x.collectionID = out.ID
	return out.ID, nil
}

// Healthy calls the heartbeat endpoint.
func (x *Index) Healthy(ctx context.Context) error {
	return x.do(ctx, http.MethodGet, x.root+"/api/v2/heartbeat", nil, nil)
}

type metadata struct {
	Date      string  `json:"date"`
	Sentiment float64 `json:"sentiment"`
	Themes    string  `json:"themes"`
	TS        int64   `json:"ts"`
}

// Upsert stores doc keyed by its ID.
func (x *Index) Upsert(ctx context.Context, doc index.Doc) error {
	if doc.ID == "" || len(doc.Embedding) == 0 {
		return fmt.Errorf("%w: document needs an id and an embedding", index.ErrValidation)
	}
	id, err := x.ensureCollection(ctx)
	if err != nil {
		return err
	}
	in := map[string]interface{}{
		"ids":        []string{doc.ID},
		"embeddings": [][]float32{doc.Embedding},
		"documents":  []string{doc.Text},
		"metadatas": []metadata{{
			Date:      doc.Date,
			Sentiment: doc.Sentiment,
			Themes:    strings.Join(doc.Themes, ","),
			TS:        doc.Timestamp,
		}},
	}
	return x.do(ctx, http.MethodPost, x.base+"/"+url.PathEscape(id)+"/upsert", in, nil)
}

type queryResponse struct {
	IDs       [][]string   `json:"ids"`
	Documents [][]*string  `json:"documents"`
	Metadatas [][]metadata `json:"metadatas"`
	Distances [][]float64  `json:"distances"`
}

// Query asks Chroma for the nearest documents within filter.
func (x *Index) Query(ctx context.Context, vector []float32, filter index.Filter, topK int) ([]index.Match, error) {
	id, err := x.ensureCollection(ctx)
	if err != nil {
		return nil, err
	}
	in := map[string]interface{}{
		"query_embeddings": [][]float32{vector},
		"n_results":        topK,
		"where": map[string]interface{}{
			"$and": []interface{}{
				map[string]interface{}{"ts": map[string]int64{"$gte": filter.From}},
				map[string]interface{}{"ts": map[string]int64{"$lte": filter.To}},
			},
		},
		"include": []string{"documents", "metadatas", "distances"},
	}
	var out queryResponse
	if err := x.do(ctx, http.MethodPost, x.base+"/"+url.PathEscape(id)+"/query", in, &out); err != nil {
		return nil, err
	}
	return out.matches(), nil
}

func (r queryResponse) matches() []index.Match {
	if len(r.IDs) == 0 {
		return nil
	}
	ids := r.IDs[0]
	matches := make([]index.Match, 0, len(ids))
	for i, id := range ids {
		m := index.Match{Doc: index.Doc{ID: id}}
		if len(r.Documents) > 0 && i < len(r.Documents[0]) && r.Documents[0][i] != nil {
			m.Text = *r.Documents[0][i]
		}
		if len(r.Metadatas) > 0 && i < len(r.Metadatas[0]) {
			md := r.Metadatas[0][i]
			m.Date = md.Date
			m.Sentiment = md.Sentiment
			m.Timestamp = md.TS
			if md.Themes != "" {
				m.Themes = strings.Split(md.Themes, ",")
			}
		}
		if len(r.Distances) > 0 && i < len(r.Distances[0]) {
			m.Score = 1 - r.Distances[0][i]
		}
		matches = append(matches, m)
	}
	return matches
}

// Reset deletes the collection. It is recreated on the next write or query.
func (x *Index) Reset(ctx context.Context) error {
	if err := x.do(ctx, http.MethodDelete, x.base+"/"+url.PathEscape(x.collection), nil, nil); err != nil {
		return err
	}
	x.mu.Lock()
	x.collectionID = ""
	x.mu.Unlock()
	return nil
}
