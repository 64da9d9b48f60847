package mcpserver

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/scribe/internal/assets"
	"github.com/starford/scribe/internal/journal"
	"github.com/starford/scribe/internal/scribeservice"
	"github.com/starford/scribe/internal/testutil"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	corpusDir, store := testutil.TestCorpus(t)
	assetStore, err := assets.NewStore(filepath.Join(corpusDir, "assets"))
	if err != nil {
		t.Fatal(err)
	}
	db := testutil.TestDB(t)

	clock := func() time.Time {
		return time.Date(2025, 3, 14, 9, 30, 0, 0, time.Local)
	}
	svc := scribeservice.New(journal.New(store, clock), assetStore, store, db)
	return New(svc)
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so the handler
	// functions are exercised directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "new_entry_id":
		result, err = srv.newEntryID(ctx, req)
	case "log_entry":
		result, err = srv.logEntry(ctx, req)
	case "last_entry":
		result, err = srv.lastEntry(ctx, req)
	case "show_latest":
		result, err = srv.showLatest(ctx, req)
	case "delete_latest":
		result, err = srv.deleteLatest(ctx, req)
	case "replace_latest":
		result, err = srv.replaceLatest(ctx, req)
	case "search_entries":
		result, err = srv.searchEntries(ctx, req)
	case "related_entries":
		result, err = srv.relatedEntries(ctx, req)
	case "validate_corpus":
		result, err = srv.validateCorpus(ctx, req)
	case "get_entry_contract":
		result, err = srv.getEntryContract(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestLogAndLastEntry(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "log_entry", map[string]interface{}{
		"title": "First entry",
		"body":  "Hello from the tool.",
	})
	if r.IsError {
		t.Fatalf("log_entry error: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), "2025-03-14-09-30") {
		t.Errorf("log result = %q", resultText(r))
	}

	r = callTool(t, srv, "last_entry", map[string]interface{}{})
	if got := resultText(r); got != "2025-03-14-09-30\tFirst entry" {
		t.Errorf("last = %q", got)
	}
}

func TestNewEntryIDDoesNotReserve(t *testing.T) {
	srv := testServer(t)

	a := resultText(callTool(t, srv, "new_entry_id", map[string]interface{}{}))
	b := resultText(callTool(t, srv, "new_entry_id", map[string]interface{}{}))
	if a != b || a != "2025-03-14-09-30" {
		t.Errorf("peeks = %q, %q", a, b)
	}
}

func TestShowAndReplaceLatest(t *testing.T) {
	srv := testServer(t)
	callTool(t, srv, "log_entry", map[string]interface{}{"title": "Original"})

	r := callTool(t, srv, "show_latest", map[string]interface{}{})
	if !strings.Contains(resultText(r), "Original") {
		t.Errorf("show = %q", resultText(r))
	}

	r = callTool(t, srv, "replace_latest", map[string]interface{}{
		"content": "## 09:30 — Rewritten\n\nBetter.\n\n---\n",
	})
	if r.IsError {
		t.Fatalf("replace error: %s", resultText(r))
	}

	r = callTool(t, srv, "show_latest", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, "Rewritten") || !strings.Contains(text, "2025-03-14-09-30") {
		t.Errorf("after replace = %q", text)
	}
}

func TestDeleteLatestOnEmptyCorpus(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "delete_latest", map[string]interface{}{})
	if !r.IsError {
		t.Error("expected error on empty corpus")
	}
}

func TestSearchAndRelated(t *testing.T) {
	srv := testServer(t)
	callTool(t, srv, "log_entry", map[string]interface{}{"title": "Target entry"})
	callTool(t, srv, "log_entry", map[string]interface{}{
		"title":   "Pointer entry",
		"related": "2025-03-14-09-30",
	})

	r := callTool(t, srv, "search_entries", map[string]interface{}{"query": "Target"})
	if !strings.Contains(resultText(r), "2025-03-14-09-30") {
		t.Errorf("search = %q", resultText(r))
	}

	r = callTool(t, srv, "related_entries", map[string]interface{}{"id": "2025-03-14-09-30"})
	if got := resultText(r); got != "2025-03-14-09-30-02" {
		t.Errorf("related = %q", got)
	}
}

func TestValidateCorpusTool(t *testing.T) {
	srv := testServer(t)
	callTool(t, srv, "log_entry", map[string]interface{}{
		"title":   "Dangler",
		"related": "1999-01-01-00-00",
	})

	r := callTool(t, srv, "validate_corpus", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, "1 violation") {
		t.Errorf("validate = %q", text)
	}
}

func TestEntryContractExposed(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "get_entry_contract", map[string]interface{}{})
	if !strings.Contains(resultText(r), "## HH:MM — Title") {
		t.Error("contract text missing header rule")
	}

	contents, err := srv.readEntryFormatResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil || len(contents) != 1 {
		t.Fatalf("resource = %v, %v", contents, err)
	}
}
