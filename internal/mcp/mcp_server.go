// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/huangsam/motionwin/internal/contract"
	"github.com/huangsam/motionwin/internal/feed"
	"github.com/huangsam/motionwin/internal/metrics"
)

// Server holds the named collections an MCP client builds up over a session.
type Server struct {
	*server.MCPServer

	baseCfg *contract.Config
	mgr     contract.StoreManager
	opts    []feed.PipelineOption
	logger  *zap.SugaredLogger

	mu    sync.Mutex
	items map[string]*entry
}

// entry is one collection with the pipeline that built it and its open run.
type entry struct {
	mu  sync.Mutex
	p   *feed.Pipeline
	run *feed.Result
}

// NewMCPServer initializes and configures the motionwin MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.StoreManager, logger *zap.SugaredLogger, m *metrics.Collectors) *Server {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	opts := []feed.PipelineOption{feed.WithLogger(logger), feed.WithMetrics(m)}
	if mgr != nil {
		if store := mgr.GetAnalysisStore(); store != nil {
			opts = append(opts, feed.WithStore(store))
		}
	}

	s := &Server{
		MCPServer: server.NewMCPServer(
			"Motionwin Analysis Server",
			"1.0.0",
			server.WithLogging(),
		),
		baseCfg: baseCfg,
		mgr:     mgr,
		opts:    opts,
		logger:  logger,
		items:   make(map[string]*entry),
	}

	// --- 1. Tool: create_collection ---
	s.AddTool(mcp.NewTool("create_collection",
		mcp.WithDescription("Create an empty collection of sensor records with a fixed schema."),
		mcp.WithString("name", mcp.Description("Relation name of the collection."), mcp.Required()),
		mcp.WithString("attributes", mcp.Description("Comma separated 'name:type' pairs, type one of int, real, string (e.g. 'athlete,session,accel:real,ts:int')."), mcp.Required()),
		mcp.WithString("peak_column", mcp.Description("Numeric attribute the peak analyzer watches.")),
	), s.handleCreateCollection)

	// --- 2. Tool: import_file ---
	s.AddTool(mcp.NewTool("import_file",
		mcp.WithDescription("Load an ARFF file into a collection, creating the collection from the file's schema when it does not exist."),
		mcp.WithString("path", mcp.Description("Path to the ARFF file."), mcp.Required()),
		mcp.WithString("name", mcp.Description("Collection name (defaults to the file's relation).")),
		mcp.WithString("peak_column", mcp.Description("Numeric attribute the peak analyzer watches.")),
	), s.handleImportFile)

	// --- 3. Tool: add_record ---
	s.AddTool(mcp.NewTool("add_record",
		mcp.WithDescription("Append one record to a collection. Returns the analysis when the record completes a window."),
		mcp.WithString("name", mcp.Description("Collection name."), mcp.Required()),
		mcp.WithObject("fields", mcp.Description("Record fields keyed by attribute name."), mcp.Required()),
	), s.handleAddRecord)

	// --- 4. Tool: analyze_window ---
	s.AddTool(mcp.NewTool("analyze_window",
		mcp.WithDescription("Analyze records [start, end) of a collection. Negative indices count from the end."),
		mcp.WithString("name", mcp.Description("Collection name."), mcp.Required()),
		mcp.WithNumber("start", mcp.Description("Start index (inclusive)."), mcp.Required()),
		mcp.WithNumber("end", mcp.Description("End index (exclusive).")),
	), s.handleAnalyzeWindow)

	// --- 5. Tool: analyze_all ---
	s.AddTool(mcp.NewTool("analyze_all",
		mcp.WithDescription("Analyze every bulk window of a collection."),
		mcp.WithString("name", mcp.Description("Collection name."), mcp.Required()),
		mcp.WithString("mode", mcp.Description("Bulk mode. Defaults to the configured mode."), mcp.Enum("literal", "sliding")),
	), s.handleAnalyzeAll)

	// --- 6. Tool: export_collection ---
	s.AddTool(mcp.NewTool("export_collection",
		mcp.WithDescription("Write a collection to an ARFF file."),
		mcp.WithString("name", mcp.Description("Collection name."), mcp.Required()),
		mcp.WithString("path", mcp.Description("Destination file."), mcp.Required()),
		mcp.WithBoolean("append", mcp.Description("Append instead of truncating.")),
	), s.handleExportCollection)

	// --- 7. Tool: describe_collection ---
	s.AddTool(mcp.NewTool("describe_collection",
		mcp.WithDescription("Describe a collection: schema, record count and window geometry."),
		mcp.WithString("name", mcp.Description("Collection name."), mcp.Required()),
	), s.handleDescribeCollection)

	// --- 8. Tool: store_status ---
	s.AddTool(mcp.NewTool("store_status",
		mcp.WithDescription("Report the runs and analyses kept in the analysis store."),
	), s.handleStoreStatus)

	return s
}

// Close ends every open run.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, e := range s.items {
		e.mu.Lock()
		e.p.End(e.run)
		e.mu.Unlock()
		delete(s.items, name)
	}
}

// StartMCPServer starts the motionwin MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.StoreManager, logger *zap.SugaredLogger, m *metrics.Collectors) error {
	s := NewMCPServer(baseCfg, mgr, logger, m)
	defer s.Close()
	return server.ServeStdio(s.MCPServer)
}
