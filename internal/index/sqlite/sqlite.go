package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/chris-regnier/reflectctl/internal/index"
	_ "github.com/tursodatabase/go-libsql"
)

// Index implements index.Index on a local libSQL database. Similarity is
// computed in process over the rows inside the time filter.
type Index struct {
	db *sql.DB
}

// New opens or creates the index database in dataDir.
func New(dataDir string) (*Index, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("%w: creating data directory: %v", index.ErrIndex, err)
	}

	db, err := sql.Open("libsql", "file:"+filepath.Join(dataDir, "index.db"))
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %v", index.ErrIndex, err)
	}

	// Enable WAL mode
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: enabling WAL mode: %v", index.ErrIndex, err)
	}
	if err := createSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Index{db: db}, nil
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS docs (
			id        TEXT PRIMARY KEY,
			date      TEXT NOT NULL,
			text      TEXT NOT NULL,
			sentiment REAL NOT NULL,
			themes    TEXT NOT NULL,
			ts        INTEGER NOT NULL,
			embedding BLOB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_docs_ts ON docs(ts);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("%w: creating schema: %v", index.ErrIndex, err)
	}
	return nil
}

// Close closes the database connection.
func (x *Index) Close() error {
	return x.db.Close()
}

// Healthy pings the database.
func (x *Index) Healthy(ctx context.Context) error {
	if err := x.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", index.ErrIndex, err)
	}
	return nil
}

// Upsert stores doc keyed by its ID.
func (x *Index) Upsert(ctx context.Context, doc index.Doc) error {
	if doc.ID == "" || len(doc.Embedding) == 0 {
		return fmt.Errorf("%w: document needs an id and an embedding", index.ErrValidation)
	}
	themes, err := json.Marshal(doc.Themes)
	if err != nil {
		return fmt.Errorf("%w: encoding themes: %v", index.ErrIndex, err)
	}
	_, err = x.db.ExecContext(ctx,
		`INSERT INTO docs (id, date, text, sentiment, themes, ts, embedding) VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET date = excluded.date, text = excluded.text, sentiment = excluded.sentiment,
		 themes = excluded.themes, ts = excluded.ts, embedding = excluded.embedding`,
		doc.ID, doc.Date, doc.Text, doc.Sentiment, string(themes), doc.Timestamp, encodeVector(doc.Embedding),
	)
	if err != nil {
		return fmt.Errorf("%w: upserting %s: %v", index.ErrIndex, doc.ID, err)
	}
	return nil
}

// Query scores every document inside filter against vector.
func (x *Index) Query(ctx context.Context, vector []float32, filter index.Filter, topK int) ([]index.Match, error) {
	rows, err := x.db.QueryContext(ctx,
		"SELECT id, date, text, sentiment, themes, ts, embedding FROM docs WHERE ts >= ? AND ts <= ?",
		filter.From, filter.To,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: querying docs: %v", index.ErrIndex, err)
	}
	defer rows.Close()

	var matches []index.Match
	for rows.Next() {
		var d index.Doc
		var themes string
		var blob []byte
		if err := rows.Scan(&d.ID, &d.Date, &d.Text, &d.Sentiment, &themes, &d.Timestamp, &blob); err != nil {
			return nil, fmt.Errorf("%w: scanning doc: %v", index.ErrIndex, err)
		}
		if err := json.Unmarshal([]byte(themes), &d.Themes); err != nil {
			return nil, fmt.Errorf("%w: decoding themes of %s: %v", index.ErrIndex, d.ID, err)
		}
		d.Embedding = decodeVector(blob)
		matches = append(matches, index.Match{Doc: d, Score: index.Cosine(vector, d.Embedding)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating docs: %v", index.ErrIndex, err)
	}
	return index.Rank(matches, topK), nil
}

// Reset deletes every document.
func (x *Index) Reset(ctx context.Context) error {
	if _, err := x.db.ExecContext(ctx, "DELETE FROM docs"); err != nil {
		return fmt.Errorf("%w: clearing docs: %v", index.ErrIndex, err)
	}
	return nil
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v
}
