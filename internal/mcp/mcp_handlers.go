package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/huangsam/motionwin/core"
	"github.com/huangsam/motionwin/core/window"
	"github.com/huangsam/motionwin/internal/arff"
	"github.com/huangsam/motionwin/internal/feed"
	"github.com/huangsam/motionwin/schema"
)

var errUnknownCollection = errors.New("unknown collection")

// jsonResult renders v as an indented JSON text result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

// lookup returns the named collection entry.
func (s *Server) lookup(name string) (*entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", errUnknownCollection, name)
	}
	return e, nil
}

// register builds a collection through a pipeline configured for this request and opens its run.
func (s *Server) register(request mcp.CallToolRequest, name string, sc schema.Schema, records ...schema.Record) (*entry, error) {
	cfg := s.baseCfg.Clone()
	if col := request.GetString("peak_column", ""); col != "" {
		cfg.PeakColumn = col
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[name]; ok {
		return nil, fmt.Errorf("collection %q already exists", name)
	}
	p := feed.NewPipeline(cfg, s.opts...)
	run, err := p.Begin(name, sc, "mcp", records...)
	if err != nil {
		return nil, err
	}
	e := &entry{p: p, run: run}
	s.items[name] = e
	return e, nil
}

func (s *Server) handleCreateCollection(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := request.GetString("name", "")
	if name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}
	_, sc, err := feed.ParseHeader(request.GetString("attributes", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid attributes: %v", err)), nil
	}
	e, err := s.register(request, name, sc)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("create failed: %v", err)), nil
	}
	return jsonResult(e.run.Collection.Summary())
}

func (s *Server) handleImportFile(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := request.GetString("path", "")
	if path == "" {
		return mcp.NewToolResultError("path is required"), nil
	}
	name := request.GetString("name", "")

	if name != "" {
		if e, err := s.lookup(name); err == nil {
			e.mu.Lock()
			defer e.mu.Unlock()
			if err := e.run.Collection.Import(path); err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("import failed: %v", err)), nil
			}
			return jsonResult(e.run.Collection.Summary())
		}
	}

	t, err := arff.Loader{}.Load(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("import failed: %v", err)), nil
	}
	if name == "" {
		name = t.Relation
	}
	e, err := s.register(request, name, t.Schema, t.Rows...)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("import failed: %v", err)), nil
	}
	return jsonResult(e.run.Collection.Summary())
}

func (s *Server) handleAddRecord(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	e, err := s.lookup(request.GetString("name", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, ok := request.GetArguments()["fields"].(map[string]any)
	if !ok {
		return mcp.NewToolResultError("fields must be an object"), nil
	}

	c := e.run.Collection
	a, err := c.AddRecord(ctx, normalizeFields(c.Schema(), raw))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("add record failed: %v", err)), nil
	}
	if a == nil {
		return jsonResult(map[string]any{"records": c.Len(), "analysis": nil})
	}
	e.mu.Lock()
	e.run.Analyses = append(e.run.Analyses, *a)
	e.mu.Unlock()
	return jsonResult(map[string]any{"records": c.Len(), "analysis": a})
}

func (s *Server) handleAnalyzeWindow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	e, err := s.lookup(request.GetString("name", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	start := request.GetInt("start", 0)
	end := request.GetInt("end", window.ToEnd)

	a, err := e.run.Collection.AnalyzeWindow(ctx, start, end)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}
	return jsonResult(a)
}

func (s *Server) handleAnalyzeAll(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	e, err := s.lookup(request.GetString("name", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	mode := s.baseCfg.BulkMode
	if m := request.GetString("mode", ""); m != "" {
		mode = schema.BulkMode(m)
	}

	pending, err := e.run.Collection.AnalyzeAll(core.WithBulkMode(mode))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}
	analyses, err := core.ResolveAll(ctx, pending, s.baseCfg.Workers)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}
	e.mu.Lock()
	e.run.Analyses = append(e.run.Analyses, analyses...)
	e.mu.Unlock()
	return jsonResult(analyses)
}

func (s *Server) handleExportCollection(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	e, err := s.lookup(request.GetString("name", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path := request.GetString("path", "")
	if path == "" {
		return mcp.NewToolResultError("path is required"), nil
	}
	if err := e.run.Collection.Export(path, request.GetBool("append", false)); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("export failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("exported %d records to %s", e.run.Collection.Len(), path)), nil
}

func (s *Server) handleDescribeCollection(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	e, err := s.lookup(request.GetString("name", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(e.run.Collection.Summary())
}

func (s *Server) handleStoreStatus(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.mgr == nil || s.mgr.GetAnalysisStore() == nil {
		return mcp.NewToolResultError("analysis store is not initialized"), nil
	}
	status, err := s.mgr.GetAnalysisStore().GetStatus()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("status failed: %v", err)), nil
	}
	return jsonResult(status)
}

// normalizeFields maps JSON numbers onto integer attributes. JSON decodes every
// number as float64, which strict coercion would reject for an int attribute.
func normalizeFields(sc schema.Schema, raw map[string]any) map[string]any {
	out := make(map[string]any, len(raw))
	for name, v := range raw {
		out[name] = v
		i, ok := sc.Index(name)
		if !ok || sc.At(i).Type != schema.IntegerType {
			continue
		}
		if f, ok := v.(float64); ok && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			out[name] = int64(f)
		}
	}
	return out
}
