// Package mcpserver exposes one chronology file over the Model Context
// Protocol: date encoding and relabelling, listing and adding records.
package mcpserver

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/teranos/chrono/calendar"
	"github.com/teranos/chrono/chronology"
	"github.com/teranos/chrono/display"
	"github.com/teranos/chrono/logger"
	"github.com/teranos/chrono/version"
)

// Server serves the tools over one loaded chronology. Tool calls are
// serialized; add_record saves the file before returning.
type Server struct {
	mu        sync.Mutex
	chrono    *chronology.Chronology
	registry  *calendar.Registry
	relabeler *calendar.Relabeler
	server    *server.MCPServer
	logger    *zap.SugaredLogger
}

// New loads the chronology at path and registers the tools under name.
func New(name, path string, opts chronology.Options) (*Server, error) {
	c, err := chronology.Load(path, opts)
	if err != nil {
		return nil, err
	}
	log := logger.ComponentLogger("mcp")
	s := &Server{
		chrono:    c,
		registry:  c.Registry(),
		relabeler: calendar.NewRelabeler(log),
		logger:    log.With(logger.FieldChronology, c.Name()),
	}
	s.server = server.NewMCPServer(name, version.Get().Version, server.WithToolCapabilities(true))
	s.registerTools()
	return s, nil
}

func (s *Server) registerTools() {
	encodeTool := mcp.NewTool("encode_date",
		mcp.WithDescription("Map a calendar date string onto the timeline axis (ISO date, astronomical years)"),
		mcp.WithString("date",
			mcp.Required(),
			mcp.Description(`Date in the calendar's convention, e.g. "4004-10-23 BC"`),
		),
		mcp.WithString("calendar",
			mcp.Description("Calendar name (default: the chronology's calendar)"),
		),
	)
	s.server.AddTool(encodeTool, s.handleEncodeDate)

	relabelTool := mcp.NewTool("relabel_date",
		mcp.WithDescription("Rewrite a date from one calendar's labels into another's"),
		mcp.WithString("date",
			mcp.Required(),
			mcp.Description("Date in the source calendar"),
		),
		mcp.WithString("from",
			mcp.Required(),
			mcp.Description("Source calendar name"),
		),
		mcp.WithString("to",
			mcp.Required(),
			mcp.Description("Target calendar name"),
		),
	)
	s.server.AddTool(relabelTool, s.handleRelabelDate)

	listTool := mcp.NewTool("list_records",
		mcp.WithDescription("List the chronology's records in display order"),
		mcp.WithString("category",
			mcp.Description("EVENTS, PERIODS, ACTORS, TEXTS, CHALLENGES or MARKERS (default: all)"),
		),
	)
	s.server.AddTool(listTool, s.handleListRecords)

	addTool := mcp.NewTool("add_record",
		mcp.WithDescription("Add or replace a record and save the chronology"),
		mcp.WithString("category", mcp.Required(), mcp.Description("Record category")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Record name")),
		mcp.WithString("begin", mcp.Required(), mcp.Description("Begin date in the chronology's calendar")),
		mcp.WithString("end", mcp.Description("End date, for spans")),
		mcp.WithString("text", mcp.Description("Justification or source reference")),
	)
	s.server.AddTool(addTool, s.handleAddRecord)
}

func (s *Server) handleEncodeDate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, err := request.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.mu.Lock()
	cal := s.chrono.Calendar()
	s.mu.Unlock()
	if name := request.GetString("calendar", ""); name != "" {
		if cal, err = s.registry.Lookup(name); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	v, err := calendar.Encode(date, cal)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(v.String()), nil
}

func (s *Server) handleRelabelDate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, err := request.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	fromName, err := request.RequireString("from")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	toName, err := request.RequireString("to")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	from, err := s.registry.Lookup(fromName)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	to, err := s.registry.Lookup(toName)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	out, err := s.relabeler.Relabel(date, from, to)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(out), nil
}

// recordView is the JSON shape of a listed record.
type recordView struct {
	Category    string         `json:"category"`
	Name        string         `json:"name"`
	Begin       string         `json:"begin"`
	End         string         `json:"end,omitempty"`
	Text        string         `json:"text,omitempty"`
	Axis        string         `json:"axis"`
	Annotations map[string]any `json:"annotations,omitempty"`
}

func (s *Server) handleListRecords(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		entries []chronology.Entry
		err     error
	)
	if name := request.GetString("category", ""); name != "" {
		cat, perr := chronology.ParseCategory(name)
		if perr != nil {
			return mcp.NewToolResultError(perr.Error()), nil
		}
		entries, err = s.chrono.ListRecords(cat)
	} else {
		entries, err = s.chrono.AllRecords()
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	views := make([]recordView, 0, len(entries))
	for _, e := range entries {
		views = append(views, recordView{
			Category:    string(e.Category),
			Name:        e.Name,
			Begin:       e.Begin,
			End:         e.End,
			Text:        e.Text,
			Axis:        e.BeginAt.String(),
			Annotations: e.Annotations,
		})
	}
	data, err := display.MarshalJSON(views)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode records: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleAddRecord(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	catName, err := request.RequireString("category")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	begin, err := request.RequireString("begin")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cat, err := chronology.ParseCategory(catName)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	f := chronology.Fields{Begin: calendar.Raw(begin), Text: request.GetString("text", "")}
	if end := strings.TrimSpace(request.GetString("end", "")); end != "" {
		f.End = calendar.Raw(end)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// work on a copy so a failed save leaves the served state as on disk
	work := s.chrono.Clone()
	r, err := work.AddRecord(cat, name, f)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := work.Save(""); err != nil {
		s.logger.Errorw("Save after add_record failed", logger.FieldError, err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.chrono = work
	return mcp.NewToolResultText(fmt.Sprintf("Added %s %q at %s", cat, r.Name, r.Begin)), nil
}

// Serve runs the server on stdin/stdout until the client disconnects.
func (s *Server) Serve() error {
	s.logger.Infow("Serving chronology over MCP stdio", logger.FieldPath, s.chrono.Path())
	return server.ServeStdio(s.server)
}
