// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Wunjo annotation tools for LLM integration via stdio
// transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/wunjo/internal/annotator"
	"github.com/starford/wunjo/internal/models"
	"github.com/starford/wunjo/internal/store"
)

// Server wraps the MCP server with Wunjo tools. Every tool operates on
// the session currently open in the annotation service.
type Server struct {
	mcp *server.MCPServer
	svc *annotator.Service
}

// New creates a new MCP server with all Wunjo tools registered.
func New(svc *annotator.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Wunjo",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_annotations",
		mcp.WithDescription("Full-text search through captions, video annotations and location text of the open library."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchAnnotations)

	s.mcp.AddTool(mcp.NewTool("read_record",
		mcp.WithDescription("Read the full annotation record of one media file, including caption, "+
			"timestamps, rotation, volume, video annotations and location. Field semantics are "+
			"described by the get_record_contract tool or the wunjo://record-format resource."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Library-relative path of the file (e.g. trip/beach.jpg)")),
	), s.readRecord)

	s.mcp.AddTool(mcp.NewTool("list_media",
		mcp.WithDescription("List the files of the working list in playback order."),
		mcp.WithString("kind", mcp.Description("Optional filter: image or video (empty for all)")),
	), s.listMedia)

	s.mcp.AddTool(mcp.NewTool("caption_media",
		mcp.WithDescription("Set the caption of a media file. An empty caption clears it. "+
			"The change is saved to the sidecar immediately."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Library-relative path of the file")),
		mcp.WithString("text", mcp.Required(), mcp.Description("Caption text")),
	), s.captionMedia)

	s.mcp.AddTool(mcp.NewTool("get_record_contract",
		mcp.WithDescription("Returns the canonical Wunjo annotation record format. "+
			"Call this before interpreting read_record output."),
	), s.getRecordContract)

	// Resource: record format contract.
	s.mcp.AddResource(
		mcp.NewResource("wunjo://record-format", "Record Format Contract",
			mcp.WithResourceDescription("Canonical annotation record format used by the sidecar and the tools."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readRecordFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) searchAnnotations(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

// recordView is the read_record output shape.
type recordView struct {
	Path           string                   `json:"path"`
	Kind           string                   `json:"kind"`
	Datetime       string                   `json:"datetime,omitempty"`
	DatetimeSource string                   `json:"datetime_source"`
	Text           string                   `json:"text,omitempty"`
	Skipped        bool                     `json:"skipped"`
	Rotation       int                      `json:"rotation,omitempty"`
	Volume         *int                     `json:"volume,omitempty"`
	Annotations    []models.VideoAnnotation `json:"annotations,omitempty"`
	SkipSegments   []models.SkipSegment     `json:"skip_segments,omitempty"`
	Location       *models.Location         `json:"location,omitempty"`
	Duration       float64                  `json:"duration_seconds,omitempty"`
}

func (s *Server) readRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	entry, duration, err := s.svc.Detail(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	c := entry.Record.Common()
	view := recordView{
		Path:           entry.File.Path,
		Kind:           string(entry.File.Kind),
		DatetimeSource: c.Stamp.State().String(),
		Text:           c.Text,
		Skipped:        entry.Record.Skipped(),
		Location:       c.Location,
		Duration:       duration,
	}
	if t, ok := c.Stamp.Effective(); ok {
		view.Datetime = t.Format(store.DatetimeLayout)
	}
	switch r := entry.Record.(type) {
	case *models.ImageRecord:
		view.Rotation = r.Rotation
	case *models.VideoRecord:
		v := r.Volume
		view.Volume = &v
		view.Annotations = r.Annotations
		view.SkipSegments = r.Skips
	}

	out, _ := json.MarshalIndent(view, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listMedia(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind := ""
	if k, err := req.RequireString("kind"); err == nil {
		kind = k
	}

	entries, err := s.svc.Entries(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var paths []string
	for _, e := range entries {
		if kind != "" && string(e.File.Kind) != kind {
			continue
		}
		paths = append(paths, e.File.Path)
	}
	if len(paths) == 0 {
		return mcp.NewToolResultText("no media found"), nil
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) captionMedia(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.svc.SetText(ctx, path, text); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("captioned: %s", path)), nil
}

func (s *Server) getRecordContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(RecordFormatContract), nil
}

func (s *Server) readRecordFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "wunjo://record-format",
			MIMEType: "text/markdown",
			Text:     RecordFormatContract,
		},
	}, nil
}
