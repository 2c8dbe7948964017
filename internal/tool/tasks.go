package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	todoistBaseURL = "https://api.todoist.com/rest/v2"
	todoistTimeout = 20 * time.Second
)

// TodoistClient is a minimal Todoist REST v2 client shared by the task tools.
// One client is built per request context with the user's token.
type TodoistClient struct {
	Token   string
	BaseURL string // override for tests; empty = production
	HTTP    *http.Client
}

func (c *TodoistClient) base() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return todoistBaseURL
}

func (c *TodoistClient) client() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return &http.Client{Timeout: todoistTimeout}
}

func (c *TodoistClient) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base()+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("todoist API returned %d: %s", resp.StatusCode, string(respBody))
	}
	return respBody, nil
}

// todoistTask is the subset of the task payload the tools render.
type todoistTask struct {
	ID       string `json:"id"`
	Content  string `json:"content"`
	Priority int    `json:"priority"`
	Due      *struct {
		String string `json:"string"`
		Date   string `json:"date"`
	} `json:"due"`
}

func renderTask(t todoistTask) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", t.ID, t.Content)
	if t.Due != nil && t.Due.String != "" {
		fmt.Fprintf(&b, " (due: %s)", t.Due.String)
	}
	if t.Priority > 1 {
		fmt.Fprintf(&b, " (p%d)", 5-t.Priority)
	}
	return b.String()
}

// --- CreateTask ---

type CreateTaskTool struct {
	Client *TodoistClient
}

func (t *CreateTaskTool) Name() string        { return "create_task" }
func (t *CreateTaskTool) Description() string { return "Create a task in the user's task list" }
func (t *CreateTaskTool) Parameters() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"content"},
		"properties": map[string]any{
			"content":    map[string]any{"type": "string", "description": "Task text"},
			"due_string": map[string]any{"type": "string", "description": "Natural-language due date, e.g. 'tomorrow at 9am'"},
			"priority":   map[string]any{"type": "integer", "description": "1 (normal) to 4 (urgent)"},
		},
	}
}

func (t *CreateTaskTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	content := getString(params, "content")
	if content == "" {
		return "", fmt.Errorf("create_task: content is required")
	}

	body := map[string]any{"content": content}
	if due := getString(params, "due_string"); due != "" {
		body["due_string"] = due
	}
	if p := getInt(params, "priority"); p >= 1 && p <= 4 {
		body["priority"] = p
	}

	respBody, err := t.Client.do(ctx, http.MethodPost, "/tasks", body)
	if err != nil {
		return "", fmt.Errorf("create_task: %w", err)
	}

	var created todoistTask
	if err := json.Unmarshal(respBody, &created); err != nil {
		return "", fmt.Errorf("create_task: parse response: %w", err)
	}
	return fmt.Sprintf("Task created: %s", renderTask(created)), nil
}

// --- GetTasks ---

type GetTasksTool struct {
	Client *TodoistClient
}

func (t *GetTasksTool) Name() string        { return "get_tasks" }
func (t *GetTasksTool) Description() string { return "List the user's open tasks, optionally filtered" }
func (t *GetTasksTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"filter": map[string]any{"type": "string", "description": "Todoist filter query, e.g. 'today', 'overdue'"},
		},
	}
}

func (t *GetTasksTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	path := "/tasks"
	if filter := getString(params, "filter"); filter != "" {
		path += "?filter=" + url.QueryEscape(filter)
	}

	respBody, err := t.Client.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return "", fmt.Errorf("get_tasks: %w", err)
	}

	var tasks []todoistTask
	if err := json.Unmarshal(respBody, &tasks); err != nil {
		return "", fmt.Errorf("get_tasks: parse response: %w", err)
	}
	if len(tasks) == 0 {
		return "No open tasks.", nil
	}

	var b strings.Builder
	for _, task := range tasks {
		fmt.Fprintf(&b, "- %s\n", renderTask(task))
	}
	return b.String(), nil
}

// --- CompleteTask ---

type CompleteTaskTool struct {
	Client *TodoistClient
}

func (t *CompleteTaskTool) Name() string        { return "complete_task" }
func (t *CompleteTaskTool) Description() string { return "Mark a task as completed" }
func (t *CompleteTaskTool) Parameters() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"task_id"},
		"properties": map[string]any{
			"task_id": map[string]any{"type": "string", "description": "ID of the task to complete"},
		},
	}
}

func (t *CompleteTaskTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	id := getString(params, "task_id")
	if id == "" {
		return "", fmt.Errorf("complete_task: task_id is required")
	}
	if _, err := t.Client.do(ctx, http.MethodPost, "/tasks/"+url.PathEscape(id)+"/close", nil); err != nil {
		return "", fmt.Errorf("complete_task: %w", err)
	}
	return fmt.Sprintf("Task %s completed.", id), nil
}

// --- DeleteTask ---

type DeleteTaskTool struct {
	Client *TodoistClient
}

func (t *DeleteTaskTool) Name() string        { return "delete_task" }
func (t *DeleteTaskTool) Description() string { return "Delete a task permanently" }
func (t *DeleteTaskTool) Parameters() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"task_id"},
		"properties": map[string]any{
			"task_id": map[string]any{"type": "string", "description": "ID of the task to delete"},
		},
	}
}

func (t *DeleteTaskTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	id := getString(params, "task_id")
	if id == "" {
		return "", fmt.Errorf("delete_task: task_id is required")
	}
	if _, err := t.Client.do(ctx, http.MethodDelete, "/tasks/"+url.PathEscape(id), nil); err != nil {
		return "", fmt.Errorf("delete_task: %w", err)
	}
	return fmt.Sprintf("Task %s deleted.", id), nil
}
