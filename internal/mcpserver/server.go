// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Scribe tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/scribe/internal/journal"
	"github.com/starford/scribe/internal/models"
	"github.com/starford/scribe/internal/scribeservice"
)

// Server wraps the MCP server with Scribe tools.
type Server struct {
	mcp *server.MCPServer
	svc *scribeservice.Service
}

// New creates a new MCP server with all Scribe tools registered.
func New(svc *scribeservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Scribe",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("new_entry_id",
		mcp.WithDescription("Allocate the id the next log_entry call would receive, without writing anything."),
		mcp.WithString("date", mcp.Description("Partition date YYYY-MM-DD (empty for today)")),
		mcp.WithString("time", mcp.Description("Entry time HH:MM (empty for now)")),
	), s.newEntryID)

	s.mcp.AddTool(mcp.NewTool("log_entry",
		mcp.WithDescription("Append a new entry to the log. The body MUST follow the canonical "+
			"entry format. Read the contract first via the get_entry_contract tool or the "+
			"scribe://entry-format resource."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Entry title")),
		mcp.WithString("body", mcp.Description("Markdown body text")),
		mcp.WithString("date", mcp.Description("Partition date YYYY-MM-DD (empty for today)")),
		mcp.WithString("time", mcp.Description("Entry time HH:MM (empty for now)")),
		mcp.WithString("files", mcp.Description("Newline-separated paths of files touched, each optionally followed by ' -- description'")),
		mcp.WithString("archive", mcp.Description("Newline-separated paths of files to snapshot into the asset store")),
		mcp.WithString("related", mcp.Description("Comma-separated ids of related entries")),
		mcp.WithString("status", mcp.Description("Status token, e.g. in-progress or done")),
	), s.logEntry)

	s.mcp.AddTool(mcp.NewTool("last_entry",
		mcp.WithDescription("Return the id and title of the most recent entry."),
		mcp.WithString("date", mcp.Description("Partition date YYYY-MM-DD (empty for newest partition)")),
	), s.lastEntry)

	s.mcp.AddTool(mcp.NewTool("show_latest",
		mcp.WithDescription("Return the most recent entry block verbatim."),
		mcp.WithString("date", mcp.Description("Partition date YYYY-MM-DD (empty for newest partition)")),
	), s.showLatest)

	s.mcp.AddTool(mcp.NewTool("delete_latest",
		mcp.WithDescription("Remove the most recent entry and the assets it owns."),
		mcp.WithString("date", mcp.Description("Partition date YYYY-MM-DD (empty for newest partition)")),
	), s.deleteLatest)

	s.mcp.AddTool(mcp.NewTool("replace_latest",
		mcp.WithDescription("Replace the most recent entry block with new content. The content MUST "+
			"follow the canonical entry format; the entry keeps its existing id."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Replacement block following the entry format contract")),
		mcp.WithString("date", mcp.Description("Partition date YYYY-MM-DD (empty for newest partition)")),
	), s.replaceLatest)

	s.mcp.AddTool(mcp.NewTool("rearchive",
		mcp.WithDescription("Snapshot a file again under the most recent entry, replacing the stored copy."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the file to snapshot")),
		mcp.WithString("date", mcp.Description("Partition date YYYY-MM-DD (empty for newest partition)")),
	), s.rearchive)

	s.mcp.AddTool(mcp.NewTool("unarchive",
		mcp.WithDescription("Delete every asset owned by the most recent entry, keeping the entry itself."),
		mcp.WithString("date", mcp.Description("Partition date YYYY-MM-DD (empty for newest partition)")),
	), s.unarchive)

	s.mcp.AddTool(mcp.NewTool("archive_file",
		mcp.WithDescription("Snapshot local files into the asset store under an existing entry's id."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Id of the owning entry")),
		mcp.WithString("paths", mcp.Required(), mcp.Description("Newline-separated paths of files to snapshot")),
	), s.archiveFile)

	s.mcp.AddTool(mcp.NewTool("restore_asset",
		mcp.WithDescription("Copy an archived asset back out of the store. The restored file is "+
			"prefixed with '_' and never overwrites an existing file."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Stored asset filename")),
		mcp.WithString("dest_dir", mcp.Description("Destination directory (empty for current directory)")),
	), s.restoreAsset)

	s.mcp.AddTool(mcp.NewTool("list_assets",
		mcp.WithDescription("List stored asset filenames, optionally filtered by substring."),
		mcp.WithString("filter", mcp.Description("Substring filter (empty for all)")),
	), s.listAssets)

	s.mcp.AddTool(mcp.NewTool("search_entries",
		mcp.WithDescription("Full-text search through entry titles and bodies."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchEntries)

	s.mcp.AddTool(mcp.NewTool("related_entries",
		mcp.WithDescription("Find entries whose Related section references the given id."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Id of the target entry")),
	), s.relatedEntries)

	s.mcp.AddTool(mcp.NewTool("validate_corpus",
		mcp.WithDescription("Check the whole log for malformed ids, duplicate ids, dangling "+
			"archive links, dangling related references and orphaned assets."),
	), s.validateCorpus)

	s.mcp.AddTool(mcp.NewTool("get_entry_contract",
		mcp.WithDescription("Returns the canonical entry format contract. "+
			"Call this before writing or replacing entries to ensure correct structure."),
	), s.getEntryContract)

	// Resource: entry format contract.
	s.mcp.AddResource(
		mcp.NewResource("scribe://entry-format", "Entry Format Contract",
			mcp.WithResourceDescription("Canonical record block format that all entries must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readEntryFormatResource,
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

func optString(req mcp.CallToolRequest, key string) string {
	v, err := req.RequireString(key)
	if err != nil {
		return ""
	}
	return v
}

func (s *Server) newEntryID(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := s.svc.NewID(ctx, optString(req, "date"), optString(req, "time"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(id), nil
}

func (s *Server) logEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	in := journal.AppendInput{
		Time:   optString(req, "time"),
		Title:  title,
		Body:   optString(req, "body"),
		Status: optString(req, "status"),
	}
	in.Files = parseFileLines(optString(req, "files"))
	for _, p := range splitLines(optString(req, "archive")) {
		in.Archive = append(in.Archive, journal.ArchiveRequest{Path: p})
	}
	if related := optString(req, "related"); related != "" {
		for _, id := range strings.Split(related, ",") {
			if id = strings.TrimSpace(id); id != "" {
				in.Related = append(in.Related, id)
			}
		}
	}

	rec, err := s.svc.Append(ctx, optString(req, "date"), in)
	if err != nil {
		if rec != nil {
			return mcp.NewToolResultError(fmt.Sprintf("%s (entry id: %s)", err, rec.ID)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(rec, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) lastEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, title, err := s.svc.Last(ctx, optString(req, "date"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if title == "" {
		return mcp.NewToolResultText(id), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s\t%s", id, title)), nil
}

func (s *Server) showLatest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	b, err := s.svc.ShowLatest(ctx, optString(req, "date"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(b.Raw), nil
}

func (s *Server) deleteLatest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, deleted, err := s.svc.DeleteLatest(ctx, optString(req, "date"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	msg := fmt.Sprintf("deleted: %s", id)
	if len(deleted) > 0 {
		msg += "\nremoved assets:\n" + strings.Join(deleted, "\n")
	}
	return mcp.NewToolResultText(msg), nil
}

func (s *Server) replaceLatest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := s.svc.ReplaceLatest(ctx, optString(req, "date"), content)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("replaced: %s", id)), nil
}

func (s *Server) rearchive(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, err := s.svc.Rearchive(ctx, optString(req, "date"), path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("archived: %s", name)), nil
}

func (s *Server) unarchive(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, deleted, err := s.svc.Unarchive(ctx, optString(req, "date"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(deleted) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("no assets owned by %s", id)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("removed assets of %s:\n%s", id, strings.Join(deleted, "\n"))), nil
}

func (s *Server) archiveFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := req.RequireString("paths")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	names, err := s.svc.SaveAssets(ctx, id, splitLines(raw))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("archived:\n" + strings.Join(names, "\n")), nil
}

func (s *Server) restoreAsset(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	destDir := optString(req, "dest_dir")
	if destDir == "" {
		destDir = "."
	}
	dest, err := s.svc.RestoreAsset(ctx, name, destDir)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("restored: %s", dest)), nil
}

func (s *Server) listAssets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	names, err := s.svc.ListAssets(ctx, optString(req, "filter"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(names) == 0 {
		return mcp.NewToolResultText("no assets found"), nil
	}
	return mcp.NewToolResultText(strings.Join(names, "\n")), nil
}

func (s *Server) searchEntries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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

func (s *Server) relatedEntries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sources, err := s.svc.RelatedTo(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(sources) == 0 {
		return mcp.NewToolResultText("no entries reference this id"), nil
	}
	return mcp.NewToolResultText(strings.Join(sources, "\n")), nil
}

func (s *Server) validateCorpus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	violations, count, err := s.svc.Validate(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(violations) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("ok: %d records, no violations", count)), nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d violation(s) across %d records:\n", len(violations), count)
	for _, v := range violations {
		b.WriteString(v.String())
		b.WriteByte('\n')
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) getEntryContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(EntryFormatContract), nil
}

func (s *Server) readEntryFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "scribe://entry-format",
			MIMEType: "text/markdown",
			Text:     EntryFormatContract,
		},
	}, nil
}

// splitLines splits newline-separated input, trimming blanks.
func splitLines(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// parseFileLines parses "path -- description" lines into touched-file entries.
func parseFileLines(raw string) []models.FileTouched {
	var out []models.FileTouched
	for _, line := range splitLines(raw) {
		path, desc, _ := strings.Cut(line, " -- ")
		out = append(out, models.FileTouched{
			Path:        strings.TrimSpace(path),
			Description: strings.TrimSpace(desc),
		})
	}
	return out
}
