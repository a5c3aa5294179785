// Package mcpserver exposes term search and analysis runs as MCP tools.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hyperifyio/termsearch/internal/app"
	"github.com/hyperifyio/termsearch/internal/store"
	"github.com/hyperifyio/termsearch/internal/textproc"
)

// Backend is the part of app.App the tools call into.
type Backend interface {
	Engine() *textproc.Engine
	Analyze(ctx context.Context, uploads []app.Upload, terms []string) (app.Report, error)
	History(ctx context.Context, limit int) ([]store.Result, error)
}

// Server is the termsearch MCP server.
type Server struct {
	backend Backend
	server  *mcp.Server
}

// New registers the tools on a fresh MCP server.
func New(b Backend) (*Server, error) {
	if b == nil {
		return nil, errors.New("mcpserver: backend is required")
	}
	s := &Server{
		backend: b,
		server:  mcp.NewServer(&mcp.Implementation{Name: "termsearch", Version: app.BuildVersion}, nil),
	}
	s.registerTools()
	return s, nil
}

// Run serves over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// PageText is one page of caller-supplied text.
type PageText struct {
	Page int    `json:"page" jsonschema:"page number, starting at 1"`
	Text string `json:"text" jsonschema:"text content of the page"`
}

// SearchTextInput is the input of search_text.
type SearchTextInput struct {
	Pages []PageText `json:"pages" jsonschema:"pages to search"`
	Term  string     `json:"term" jsonschema:"term to look for; matching ignores case and accents"`
}

// SearchTextOutput is the output of search_text.
type SearchTextOutput struct {
	Matches []textproc.Match `json:"matches"`
	Pages   []int            `json:"pages"`
	Count   int              `json:"count"`
}

// AnalyzeFilesInput is the input of analyze_files.
type AnalyzeFilesInput struct {
	Paths []string `json:"paths" jsonschema:"local paths of PDF, Word, text or HTML files"`
	Terms []string `json:"terms" jsonschema:"search terms"`
}

// RecentResultsInput is the input of recent_results.
type RecentResultsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of results (default 50)"`
}

// AnalyzeFilesOutput is the output of analyze_files. Timestamps are RFC 3339
// strings.
type AnalyzeFilesOutput struct {
	RunID          string            `json:"run_id"`
	Generated      string            `json:"generated"`
	Terms          []string          `json:"terms"`
	Findings       []app.Finding     `json:"findings"`
	Failures       map[string]string `json:"failures"`
	Overview       string            `json:"overview"`
	OverviewSource string            `json:"overview_source"`
	OverviewNotice string            `json:"overview_notice,omitempty"`
}

// StoredResult is one row of recent_results.
type StoredResult struct {
	RunID     string `json:"run_id"`
	Document  string `json:"document"`
	Term      string `json:"term"`
	Page      int    `json:"page"`
	Excerpt   string `json:"excerpt"`
	Summary   string `json:"summary"`
	CreatedAt string `json:"created_at"`
}

// RecentResultsOutput is the output of recent_results.
type RecentResultsOutput struct {
	Results []StoredResult `json:"results"`
	Count   int            `json:"count"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_text",
		Description: "Find every occurrence of a term in the given pages and return the surrounding sentences",
	}, s.handleSearchText)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyze_files",
		Description: "Extract local documents, search them for terms, store the matches and summarize them",
	}, s.handleAnalyzeFiles)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "recent_results",
		Description: "List the most recently stored search results",
	}, s.handleRecentResults)
}

func (s *Server) handleSearchText(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input SearchTextInput,
) (*mcp.CallToolResult, SearchTextOutput, error) {
	// the engine indexes pages from zero
	pages := make(map[int]string, len(input.Pages))
	for i, p := range input.Pages {
		n := p.Page
		if n <= 0 {
			n = i + 1
		}
		if _, dup := pages[n-1]; dup {
			return nil, SearchTextOutput{}, fmt.Errorf("page %d given twice", n)
		}
		pages[n-1] = p.Text
	}
	matches := s.backend.Engine().Matches(pages, input.Term)
	out := SearchTextOutput{Matches: matches, Pages: []int{}, Count: len(matches)}
	for _, m := range matches {
		if len(out.Pages) == 0 || out.Pages[len(out.Pages)-1] != m.Page {
			out.Pages = append(out.Pages, m.Page)
		}
	}
	return nil, out, nil
}

func (s *Server) handleAnalyzeFiles(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AnalyzeFilesInput,
) (*mcp.CallToolResult, AnalyzeFilesOutput, error) {
	uploads, err := app.UploadsFromPaths(input.Paths)
	if err != nil {
		return nil, AnalyzeFilesOutput{}, err
	}
	rep, err := s.backend.Analyze(ctx, uploads, input.Terms)
	if err != nil {
		return nil, AnalyzeFilesOutput{}, err
	}
	out := AnalyzeFilesOutput{
		RunID:          rep.RunID,
		Generated:      rep.Generated.UTC().Format(time.RFC3339),
		Terms:          rep.Terms,
		Findings:       rep.Findings,
		Failures:       rep.Failures,
		Overview:       rep.Overview,
		OverviewSource: rep.OverviewSource,
		OverviewNotice: rep.OverviewNotice,
	}
	if out.Findings == nil {
		out.Findings = []app.Finding{}
	}
	if out.Failures == nil {
		out.Failures = map[string]string{}
	}
	return nil, out, nil
}

func (s *Server) handleRecentResults(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RecentResultsInput,
) (*mcp.CallToolResult, RecentResultsOutput, error) {
	results, err := s.backend.History(ctx, input.Limit)
	if err != nil {
		return nil, RecentResultsOutput{}, err
	}
	out := RecentResultsOutput{Results: make([]StoredResult, 0, len(results)), Count: len(results)}
	for _, r := range results {
		out.Results = append(out.Results, StoredResult{
			RunID:     r.RunID,
			Document:  r.Filename,
			Term:      r.Term,
			Page:      r.Page,
			Excerpt:   r.Excerpt,
			Summary:   r.Summary,
			CreatedAt: r.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return nil, out, nil
}
