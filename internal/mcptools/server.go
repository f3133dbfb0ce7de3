package mcptools

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/chris-regnier/reflectctl/internal/entry"
)

// Journal is the unlocked journal the tools read and append to.
type Journal interface {
	Entries() ([]entry.Entry, error)
	Add(ctx context.Context, e entry.Entry) (entry.Entry, error)
}

// Indexer receives new entries for retrieval. Failures are ignored.
type Indexer interface {
	IndexEntry(ctx context.Context, e entry.Entry) error
}

type tools struct {
	journal Journal
	indexer Indexer
	now     func() time.Time
}

// Option configures the tool set.
type Option func(*tools)

// WithIndexer sends entries added through add_entry to the retrieval index.
func WithIndexer(ix Indexer) Option {
	return func(t *tools) { t.indexer = ix }
}

// WithClock overrides the clock used for entry dates and windows.
func WithClock(now func() time.Time) Option {
	return func(t *tools) { t.now = now }
}

// NewJournalMCPServer creates an in-memory MCP server exposing journal tools.
// Returns the server and a client transport for connecting to it.
func NewJournalMCPServer(j Journal, opts ...Option) (*mcp.Server, mcp.Transport) {
	clientTransport, serverTransport := mcp.NewInMemoryTransports()

	server := CreateMCPServer(j, opts...)

	go func() {
		_, _ = server.Connect(context.Background(), serverTransport, nil)
	}()

	return server, clientTransport
}

// CreateMCPServer creates an MCP server with registered journal tools.
func CreateMCPServer(j Journal, opts ...Option) *mcp.Server {
	t := &tools{journal: j, now: time.Now}
	for _, o := range opts {
		o(t)
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "reflectctl",
		Version: "1.0.0",
	}, nil)

	// Read tools
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_entries",
		Description: "List journal entries, newest first, optionally for one month",
	}, t.listEntries)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "weekly_insight",
		Description: "Summarize mood and recurring themes over the last seven days",
	}, t.weeklyInsight)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "monthly_stats",
		Description: "Average mood and top themes for the current month, computed locally",
	}, t.monthlyStats)

	// Write tools
	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_entry",
		Description: "Analyze and append a journal entry dated today",
	}, t.addEntry)

	return server
}
