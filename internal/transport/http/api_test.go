package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"exam-drill-service/internal/input"
)

type apiClient struct {
	t      *testing.T
	server *httptest.Server
}

func (c apiClient) do(method, path string, body any, out any) int {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			c.t.Fatalf("encode: %v", err)
		}
	}
	req, err := http.NewRequest(method, c.server.URL+path, &buf)
	if err != nil {
		c.t.Fatalf("request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			c.t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func newAPIClient(t *testing.T) apiClient {
	server := httptest.NewServer(NewRouter(newTestService(t), input.DefaultConfig(), nil))
	t.Cleanup(server.Close)
	return apiClient{t: t, server: server}
}

func TestRESTSessionLifecycle(t *testing.T) {
	c := newAPIClient(t)

	var exams []map[string]any
	if status := c.do("GET", "/api/exams", nil, &exams); status != http.StatusOK || len(exams) == 0 {
		t.Fatalf("expected exam catalog, got %d %v", status, exams)
	}
	var datasets []map[string]any
	if status := c.do("GET", "/api/datasets", nil, &datasets); status != http.StatusOK || len(datasets) != 2 {
		t.Fatalf("expected 2 datasets, got %d %v", status, datasets)
	}

	var view map[string]any
	status := c.do("POST", "/api/sessions", map[string]any{"userId": "u1", "datasetIds": []string{"multi"}}, &view)
	if status != http.StatusCreated {
		t.Fatalf("expected 201, got %d %v", status, view)
	}
	id := view["sessionId"].(string)
	if view["timeLimitSeconds"].(float64) != 120*60 {
		t.Fatalf("expected default time limit, got %v", view["timeLimitSeconds"])
	}

	var resp struct {
		View  map[string]any `json:"view"`
		Error *errorPayload  `json:"error"`
	}
	c.do("POST", "/api/sessions/"+id+"/commands", map[string]any{"kind": "select", "label": "A"}, &resp)
	status = c.do("POST", "/api/sessions/"+id+"/commands", map[string]any{"kind": "next"}, &resp)
	if status != http.StatusUnprocessableEntity || resp.Error == nil || resp.Error.Required != 2 {
		t.Fatalf("expected incomplete selection, got %d %+v", status, resp.Error)
	}
	if resp.View["answer"] != "A" {
		t.Fatalf("expected view alongside error, got %v", resp.View)
	}

	var copied map[string]string
	c.do("GET", "/api/sessions/"+id+"/copy", nil, &copied)
	if !bytes.Contains([]byte(copied["text"]), []byte("Pick two")) {
		t.Fatalf("unexpected copy text %q", copied["text"])
	}

	var errBody errorPayload
	if status := c.do("GET", "/api/sessions/"+id+"/result", nil, &errBody); status != http.StatusConflict {
		t.Fatalf("expected 409 before finish, got %d", status)
	}

	resp.Error = nil
	c.do("POST", "/api/sessions/"+id+"/commands", map[string]any{"kind": "select", "label": "C"}, &resp)
	if status := c.do("POST", "/api/sessions/"+id+"/commands", map[string]any{"kind": "finish"}, &resp); status != http.StatusOK {
		t.Fatalf("finish: %d %+v", status, resp.Error)
	}
	if resp.View["inProgress"] != false {
		t.Fatalf("expected finished view, got %v", resp.View)
	}

	var result map[string]any
	if status := c.do("GET", "/api/sessions/"+id+"/result", nil, &result); status != http.StatusOK || result["score"].(float64) != 100 {
		t.Fatalf("expected perfect result, got %d %v", status, result)
	}

	var history []map[string]any
	c.do("GET", "/api/history?userId=u1", nil, &history)
	if len(history) != 1 {
		t.Fatalf("expected one history record, got %v", history)
	}
	recordID := history[0]["id"].(string)
	if status := c.do("DELETE", "/api/history/"+recordID+"?userId=u1", nil, nil); status != http.StatusNoContent {
		t.Fatalf("delete history: %d", status)
	}
	if status := c.do("DELETE", "/api/history/"+recordID+"?userId=u1", nil, &errBody); status != http.StatusNotFound {
		t.Fatalf("expected 404 for deleted record, got %d", status)
	}
	if status := c.do("GET", "/api/history", nil, &errBody); status != http.StatusBadRequest {
		t.Fatalf("expected 400 without userId, got %d", status)
	}

	if status := c.do("DELETE", "/api/sessions/"+id, nil, nil); status != http.StatusNoContent {
		t.Fatalf("abandon: %d", status)
	}
	if status := c.do("GET", "/api/sessions/"+id, nil, &errBody); status != http.StatusNotFound {
		t.Fatalf("expected 404 after abandon, got %d", status)
	}
}

func TestRESTRejectsBadSetup(t *testing.T) {
	c := newAPIClient(t)
	var errBody errorPayload
	if status := c.do("POST", "/api/sessions", map[string]any{"datasetIds": []string{"nope"}}, &errBody); status != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown dataset, got %d", status)
	}
	if status := c.do("POST", "/api/sessions", map[string]any{}, &errBody); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty setup, got %d", status)
	}
}
