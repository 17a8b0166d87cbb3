package mcpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/evanschultz/arcboard/internal/adapters/server/common"
	"github.com/evanschultz/arcboard/internal/app"
	"github.com/evanschultz/arcboard/internal/domain"
	"github.com/mark3labs/mcp-go/mcp"
)

// memRepo keeps board snapshots in memory for MCP tool tests.
type memRepo struct {
	mu      sync.Mutex
	records map[string][]byte
}

func (r *memRepo) LoadState(_ context.Context, key string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	payload, ok := r.records[key]
	if !ok {
		return nil, app.ErrNotFound
	}
	return payload, nil
}

func (r *memRepo) SaveState(_ context.Context, key string, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[key] = payload
	return nil
}

func (r *memRepo) DeleteState(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, key)
	return nil
}

// failingBoard returns one fixed error from every call.
type failingBoard struct {
	common.BoardService
	err error
}

func (f failingBoard) ListTasks(context.Context) ([]domain.Task, error) { return nil, f.err }

// jsonRPCResponse models minimal JSON-RPC response fields used in MCP adapter tests.
type jsonRPCResponse struct {
	ID     float64        `json:"id"`
	Result map[string]any `json:"result"`
}

// newTestBoard returns a store-backed board with one todo and one done card.
func newTestBoard(t *testing.T) (common.BoardService, *app.Store) {
	t.Helper()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	n := 0
	ids := func() string {
		n++
		return fmt.Sprintf("new-%d", n)
	}
	store := app.NewStore(&memRepo{records: map[string][]byte{}}, ids, func() time.Time { return now }, nil, app.StoreConfig{})
	done := now.Add(-time.Hour)
	if err := store.Replace(context.Background(), []domain.Task{
		{ID: "t1", Text: "first", Status: domain.StatusTodo, Priority: domain.PriorityNormal, CreatedAt: now.Add(-2 * time.Hour)},
		{ID: "d1", Text: "shipped", Status: domain.StatusDone, Priority: domain.PriorityLow, CreatedAt: now.Add(-3 * time.Hour), CompletedAt: &done},
	}); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	return common.NewStoreAdapter(store, common.DefaultBoardConfig()), store
}

// startServer serves one MCP handler and performs the initialize handshake.
func startServer(t *testing.T, board common.BoardService) *httptest.Server {
	t.Helper()
	handler, err := NewHandler(Config{}, board)
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	_, _ = postJSONRPC(t, server.Client(), server.URL, initializeRequest())
	return server
}

// callToolRequest constructs one deterministic tools/call JSON-RPC request payload.
func callToolRequest(id int, toolName string, arguments map[string]any) map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  "tools/call",
		"params": map[string]any{
			"name":      toolName,
			"arguments": arguments,
		},
	}
}

// toolResultText decodes the first text entry from one tool-call result payload.
func toolResultText(t *testing.T, result map[string]any) string {
	t.Helper()

	contentRaw, ok := result["content"].([]any)
	if !ok || len(contentRaw) == 0 {
		t.Fatalf("content missing in tool result: %#v", result)
	}
	first, ok := contentRaw[0].(map[string]any)
	if !ok {
		t.Fatalf("first content entry has unexpected type: %#v", contentRaw[0])
	}
	text, ok := first["text"].(string)
	if !ok {
		t.Fatalf("content text missing in tool result: %#v", first)
	}
	return text
}

// toolResultStructured decodes structuredContent as one map for stable assertions.
func toolResultStructured(t *testing.T, result map[string]any) map[string]any {
	t.Helper()
	structured, ok := result["structuredContent"].(map[string]any)
	if !ok {
		t.Fatalf("structuredContent missing in tool result: %#v", result)
	}
	return structured
}

// postJSONRPC sends one JSON-RPC payload and decodes the response body.
func postJSONRPC(t *testing.T, client *http.Client, url string, payload any) (*http.Response, jsonRPCResponse) {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	var decoded jsonRPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if err := resp.Body.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return resp, decoded
}

// initializeRequest builds a deterministic MCP initialize request payload.
func initializeRequest() map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "initialize",
		"params": map[string]any{
			"protocolVersion": mcp.LATEST_PROTOCOL_VERSION,
			"clientInfo": map[string]any{
				"name":    "arcboard-test",
				"version": "1.0.0",
			},
		},
	}
}

// callToolResultText decodes the first textual content block from a CallToolResult.
func callToolResultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil {
		t.Fatalf("result = nil, want non-nil")
	}
	if len(result.Content) == 0 {
		t.Fatalf("result content is empty")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content[0] has unexpected type %T", result.Content[0])
	}
	return text.Text
}

// TestHandlerUsesStatelessTransport verifies MCP transport does not issue session ids.
func TestHandlerUsesStatelessTransport(t *testing.T) {
	board, _ := newTestBoard(t)
	handler, err := NewHandler(Config{}, board)
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}

	server := httptest.NewServer(handler)
	defer server.Close()

	resp, decoded := postJSONRPC(t, server.Client(), server.URL, initializeRequest())
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if decoded.ID != 1 {
		t.Fatalf("id = %v, want 1", decoded.ID)
	}
	if got := resp.Header.Get("Mcp-Session-Id"); got != "" {
		t.Fatalf("Mcp-Session-Id header = %q, want empty (stateless transport)", got)
	}
}

// TestHandlerRegistersBoardTools verifies tool discovery lists every board tool.
func TestHandlerRegistersBoardTools(t *testing.T) {
	board, _ := newTestBoard(t)
	server := startServer(t, board)
	_, toolsResp := postJSONRPC(t, server.Client(), server.URL, map[string]any{
		"jsonrpc": "2.0",
		"id":      2,
		"method":  "tools/list",
	})

	toolsRaw, ok := toolsResp.Result["tools"].([]any)
	if !ok {
		t.Fatalf("tools list payload missing tools: %#v", toolsResp.Result)
	}
	toolNames := make([]string, 0, len(toolsRaw))
	for _, toolRaw := range toolsRaw {
		toolMap, ok := toolRaw.(map[string]any)
		if !ok {
			continue
		}
		name, _ := toolMap["name"].(string)
		toolNames = append(toolNames, name)
	}
	for _, required := range []string{
		"arc.list_tasks",
		"arc.layout",
		"arc.archive",
		"arc.add_task",
		"arc.toggle_task",
		"arc.cycle_priority",
		"arc.release",
		"arc.remove_task",
	} {
		if !slices.Contains(toolNames, required) {
			t.Fatalf("tool list missing %s: %#v", required, toolNames)
		}
	}
}

// TestHandlerListAndAddTools verifies list and add round-trip through the store.
func TestHandlerListAndAddTools(t *testing.T) {
	board, store := newTestBoard(t)
	server := startServer(t, board)

	_, listResp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(2, "arc.list_tasks", map[string]any{}))
	tasks, ok := toolResultStructured(t, listResp.Result)["tasks"].([]any)
	if !ok || len(tasks) != 2 {
		t.Fatalf("tasks = %#v, want 2 entries", toolResultStructured(t, listResp.Result)["tasks"])
	}

	_, addResp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(3, "arc.add_task", map[string]any{
		"text":     "water plants",
		"priority": "urgent",
		"deadline": "2026-03-05",
	}))
	added := toolResultStructured(t, addResp.Result)
	if got, _ := added["id"].(string); got != "new-1" {
		t.Fatalf("id = %q, want new-1", got)
	}
	task, ok := store.Get("new-1")
	if !ok {
		t.Fatal("added task missing from store")
	}
	if task.Priority != domain.PriorityUrgent || task.Deadline == nil {
		t.Fatalf("unexpected stored task %#v", task)
	}
}

// TestHandlerToggleReleaseAndRemoveTools verifies mutating tools reach the store.
func TestHandlerToggleReleaseAndRemoveTools(t *testing.T) {
	board, store := newTestBoard(t)
	server := startServer(t, board)

	_, releaseResp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(2, "arc.release", map[string]any{
		"id":       "t1",
		"offset_x": -120,
	}))
	released := toolResultStructured(t, releaseResp.Result)
	if committed, _ := released["committed"].(bool); !committed {
		t.Fatalf("committed = %v, want true", released["committed"])
	}

	_, draggedResp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(3, "arc.release", map[string]any{
		"id":       "t1",
		"offset_x": -120,
	}))
	if got := toolResultText(t, draggedResp.Result); !strings.HasPrefix(got, "not_draggable:") {
		t.Fatalf("error text = %q, want prefix not_draggable:", got)
	}

	_, toggleResp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(4, "arc.toggle_task", map[string]any{"id": "t1"}))
	if status, _ := toolResultStructured(t, toggleResp.Result)["status"].(string); status != string(domain.StatusTodo) {
		t.Fatalf("status = %q, want todo", status)
	}

	_, priorityResp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(5, "arc.cycle_priority", map[string]any{"id": "t1"}))
	if priority, _ := toolResultStructured(t, priorityResp.Result)["priority"].(string); priority != string(domain.PriorityFocus) {
		t.Fatalf("priority = %q, want focus", priority)
	}

	_, removeResp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(6, "arc.remove_task", map[string]any{"id": "t1"}))
	if got, _ := toolResultStructured(t, removeResp.Result)["removed"].(string); got != "t1" {
		t.Fatalf("removed = %q, want t1", got)
	}
	if _, ok := store.Get("t1"); ok {
		t.Fatal("t1 still present after remove")
	}
}

// TestHandlerLayoutTool verifies the viewport scale and placements payload.
func TestHandlerLayoutTool(t *testing.T) {
	board, _ := newTestBoard(t)
	server := startServer(t, board)

	_, resp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(2, "arc.layout", map[string]any{
		"viewport_height": 550,
	}))
	layout := toolResultStructured(t, resp.Result)
	if scale, _ := layout["scale"].(float64); scale != 0.5 {
		t.Fatalf("scale = %v, want 0.5", layout["scale"])
	}
	if placements, _ := layout["placements"].([]any); len(placements) != 2 {
		t.Fatalf("placements = %#v, want 2", layout["placements"])
	}

	_, archiveResp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(3, "arc.archive", map[string]any{}))
	if tasks, ok := toolResultStructured(t, archiveResp.Result)["tasks"].([]any); !ok || len(tasks) != 0 {
		t.Fatalf("archive = %#v, want empty list", toolResultStructured(t, archiveResp.Result))
	}
}

// TestHandlerToolCallErrorPaths verifies required-arg and mapped-service errors.
func TestHandlerToolCallErrorPaths(t *testing.T) {
	board, _ := newTestBoard(t)
	server := startServer(t, board)

	_, missingArgResp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(2, "arc.toggle_task", map[string]any{}))
	if isError, _ := missingArgResp.Result["isError"].(bool); !isError {
		t.Fatalf("isError = %v, want true", missingArgResp.Result["isError"])
	}
	if got := toolResultText(t, missingArgResp.Result); !strings.Contains(got, `required argument "id" not found`) {
		t.Fatalf("error text = %q, want required id message", got)
	}

	_, notFoundResp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(3, "arc.remove_task", map[string]any{"id": "missing"}))
	if got := toolResultText(t, notFoundResp.Result); !strings.HasPrefix(got, "not_found:") {
		t.Fatalf("error text = %q, want prefix not_found:", got)
	}

	_, badDeadlineResp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(4, "arc.add_task", map[string]any{
		"text":     "x",
		"deadline": "next week",
	}))
	if got := toolResultText(t, badDeadlineResp.Result); !strings.HasPrefix(got, "invalid_request:") {
		t.Fatalf("error text = %q, want prefix invalid_request:", got)
	}

	failing := startServer(t, failingBoard{err: errors.New("disk gone")})
	_, failResp := postJSONRPC(t, failing.Client(), failing.URL, callToolRequest(5, "arc.list_tasks", map[string]any{}))
	if got := toolResultText(t, failResp.Result); !strings.HasPrefix(got, "internal_error:") {
		t.Fatalf("error text = %q, want prefix internal_error:", got)
	}
}

// TestNewHandlerRequiresBoard verifies board dependency enforcement.
func TestNewHandlerRequiresBoard(t *testing.T) {
	handler, err := NewHandler(Config{}, nil)
	if err == nil {
		t.Fatalf("NewHandler() error = nil, want non-nil")
	}
	if handler != nil {
		t.Fatalf("handler = %#v, want nil", handler)
	}
}

// TestNormalizeConfig verifies deterministic config defaults and path normalization.
func TestNormalizeConfig(t *testing.T) {
	cases := []struct {
		name string
		in   Config
		want Config
	}{
		{
			name: "defaults",
			in:   Config{},
			want: Config{ServerName: "arcboard", ServerVersion: "dev", EndpointPath: "/mcp"},
		},
		{
			name: "trimmed values and slash prefix",
			in:   Config{ServerName: " arc-server ", ServerVersion: " v1.2.3 ", EndpointPath: "custom/path"},
			want: Config{ServerName: "arc-server", ServerVersion: "v1.2.3", EndpointPath: "/custom/path"},
		},
		{
			name: "endpoint trim of repeated slashes",
			in:   Config{ServerName: "arcboard", ServerVersion: "dev", EndpointPath: "///mcp///"},
			want: Config{ServerName: "arcboard", ServerVersion: "dev", EndpointPath: "/mcp"},
		},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeConfig(tt.in); got != tt.want {
				t.Fatalf("normalizeConfig() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

// TestHandlerServeHTTPUnavailable verifies nil handler paths fail closed with 503.
func TestHandlerServeHTTPUnavailable(t *testing.T) {
	for _, handler := range []*Handler{nil, {}} {
		req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewBufferString(`{}`))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
		}
		if !strings.Contains(rec.Body.String(), "mcp handler unavailable") {
			t.Fatalf("body = %q, want mcp handler unavailable", rec.Body.String())
		}
	}
}

// TestToolResultFromErrorMapping verifies deterministic error-to-tool-result mapping.
func TestToolResultFromErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantPrefix string
	}{
		{name: "nil error", err: nil, wantPrefix: "unknown error"},
		{name: "invalid", err: errors.Join(common.ErrInvalidRequest, errors.New("bad")), wantPrefix: "invalid_request:"},
		{name: "not found", err: errors.Join(common.ErrNotFound, errors.New("missing")), wantPrefix: "not_found:"},
		{name: "done card", err: errors.Join(common.ErrNotDraggable, errors.New("done")), wantPrefix: "not_draggable:"},
		{name: "internal", err: errors.New("boom"), wantPrefix: "internal_error:"},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			result := toolResultFromError(tt.err)
			if !result.IsError {
				t.Fatalf("IsError = false, want true")
			}
			if got := callToolResultText(t, result); !strings.HasPrefix(got, tt.wantPrefix) {
				t.Fatalf("text = %q, want prefix %q", got, tt.wantPrefix)
			}
		})
	}
}

func TestParseDeadline(t *testing.T) {
	if got, err := parseDeadline(" "); err != nil || got != nil {
		t.Fatalf("parseDeadline(blank) = %v, %v", got, err)
	}
	got, err := parseDeadline("2026-03-05")
	if err != nil || !got.Equal(time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("parseDeadline(date) = %v, %v", got, err)
	}
	if _, err := parseDeadline("2026-03-05T10:00:00Z"); err != nil {
		t.Fatalf("parseDeadline(rfc3339) error = %v", err)
	}
	if _, err := parseDeadline("soon"); !errors.Is(err, common.ErrInvalidRequest) {
		t.Fatalf("parseDeadline(soon) error = %v", err)
	}
}
