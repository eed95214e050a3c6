package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/urmzd/homai-zwave/pkg/api/types"
	"github.com/urmzd/homai-zwave/pkg/cache"
	"github.com/urmzd/homai-zwave/pkg/db"
	"github.com/urmzd/homai-zwave/pkg/device"
	"github.com/urmzd/homai-zwave/pkg/device/schema"
	"github.com/urmzd/homai-zwave/pkg/value"
)

type fakeController struct {
	commitErr  error
	requestErr error
	commits    []value.Item
	requested  []value.ID
}

func (f *fakeController) Commit(v value.Value) error {
	if f.commitErr != nil {
		return f.commitErr
	}
	item, _ := v.(*value.List).PendingItem()
	f.commits = append(f.commits, item)
	return nil
}

func (f *fakeController) HomeID() uint32 { return 0x01a2b3c4 }

func (f *fakeController) RequestValue(_ context.Context, id value.ID) error {
	if f.requestErr != nil {
		return f.requestErr
	}
	f.requested = append(f.requested, id)
	return nil
}

func (f *fakeController) IsConnected() bool { return true }

func (f *fakeController) Close() {}

var (
	fanID  = value.ID{NodeID: 5, CommandClassID: 0x44, Instance: 1}
	modeID = value.ID{NodeID: 5, CommandClassID: 0x40, Instance: 1}
)

func newTestRouter(t *testing.T, controller device.Controller, store *cache.Store) (*Router, *value.Registry) {
	t.Helper()

	reg := value.NewRegistry(controller)
	items := []value.Item{{Label: "Auto Low", Code: 0}, {Label: "On Low", Code: 1}, {Label: "Auto High", Code: 2}}
	if _, err := reg.AddList(fanID, "Fan Mode", false, items, 0); err != nil {
		t.Fatalf("AddList failed: %v", err)
	}
	if _, err := reg.AddList(modeID, "Mode", true, []value.Item{{Label: "Off", Code: 0}, {Label: "Heat", Code: 1}}, 1); err != nil {
		t.Fatalf("AddList failed: %v", err)
	}

	return NewRouter(reg, controller, schema.NewValidator(), store), reg
}

func do(t *testing.T, r *Router, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode %q: %v", w.Body.String(), err)
	}
	return v
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t, &fakeController{}, nil)
	w := do(t, r, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := decode[types.HealthResponse](t, w)
	if resp.Status != "healthy" || resp.HomeID != "0x01a2b3c4" {
		t.Errorf("unexpected health %+v", resp)
	}

	r, _ = newTestRouter(t, device.NewNullController(), nil)
	w = do(t, r, http.MethodGet, "/api/v1/health", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 with null controller, got %d", w.Code)
	}
}

func TestListNodesAndValues(t *testing.T) {
	r, _ := newTestRouter(t, &fakeController{}, nil)

	w := do(t, r, http.MethodGet, "/api/v1/nodes", "")
	nodes := decode[types.ListNodesResponse](t, w)
	if nodes.Count != 1 || nodes.Nodes[0].ID != 5 || nodes.Nodes[0].Values != 2 {
		t.Errorf("unexpected nodes %+v", nodes)
	}

	w = do(t, r, http.MethodGet, "/api/v1/nodes/5/values", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	values := decode[types.ListValuesResponse](t, w)
	if values.Count != 2 || values.Values[0].ID != "5-64-1-0" || values.Values[1].ID != "5-68-1-0" {
		t.Errorf("unexpected values %+v", values)
	}
	if values.Values[0].SelectionSchema != nil {
		t.Error("expected no selection schema on a read-only value")
	}
	if values.Values[1].SelectionSchema == nil {
		t.Error("expected a selection schema on a writable value")
	}

	tests := []struct {
		path string
		code int
	}{
		{"/api/v1/nodes/9/values", http.StatusNotFound},
		{"/api/v1/nodes/300/values", http.StatusBadRequest},
		{"/api/v1/values/5-68-1-0", http.StatusOK},
		{"/api/v1/values/5-99-1-0", http.StatusNotFound},
		{"/api/v1/values/nope", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if w := do(t, r, http.MethodGet, tt.path, ""); w.Code != tt.code {
				t.Errorf("expected %d, got %d: %s", tt.code, w.Code, w.Body.String())
			}
		})
	}
}

func TestSelect(t *testing.T) {
	fc := &fakeController{}
	r, reg := newTestRouter(t, fc, nil)

	w := do(t, r, http.MethodPost, "/api/v1/values/5-68-1-0/selection", `{"label": "Auto High"}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode[types.SelectionResponse](t, w)
	if resp.Status != "pending" || resp.Value.Pending != 2 || resp.Value.Index != 0 {
		t.Errorf("unexpected selection response %+v", resp)
	}
	if len(fc.commits) != 1 || fc.commits[0].Code != 2 {
		t.Errorf("expected Auto High committed, got %+v", fc.commits)
	}

	w = do(t, r, http.MethodPost, "/api/v1/values/5-68-1-0/selection", `{"code": 0}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if resp := decode[types.SelectionResponse](t, w); resp.Status != "unchanged" {
		t.Errorf("expected unchanged, got %s", resp.Status)
	}
	if len(fc.commits) != 1 {
		t.Errorf("expected no commit for the confirmed item, got %d", len(fc.commits))
	}

	if s, _ := reg.State(fanID); s.Index != 0 {
		t.Errorf("expected confirmed index to stay 0, got %d", s.Index)
	}
}

func TestSelect_WholeNumberCodes(t *testing.T) {
	for _, body := range []string{`{"code": 1.0}`, `{"code": 1e0}`} {
		t.Run(body, func(t *testing.T) {
			fc := &fakeController{}
			r, reg := newTestRouter(t, fc, nil)
			if err := reg.Confirm(fanID, 2); err != nil {
				t.Fatalf("Confirm failed: %v", err)
			}

			w := do(t, r, http.MethodPost, "/api/v1/values/5-68-1-0/selection", body)
			if w.Code != http.StatusAccepted {
				t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
			}
			if len(fc.commits) != 1 || fc.commits[0].Code != 1 {
				t.Errorf("expected On Low committed, got %+v", fc.commits)
			}
			if resp := decode[types.SelectionResponse](t, w); resp.Value.Pending != 1 {
				t.Errorf("expected pending 1, got %d", resp.Value.Pending)
			}
		})
	}
}

func TestSelect_Errors(t *testing.T) {
	r, _ := newTestRouter(t, &fakeController{}, nil)

	tests := []struct {
		name string
		path string
		body string
		code int
	}{
		{"unknown label", "/api/v1/values/5-68-1-0/selection", `{"label": "Turbo"}`, http.StatusBadRequest},
		{"both fields", "/api/v1/values/5-68-1-0/selection", `{"label": "On Low", "code": 1}`, http.StatusBadRequest},
		{"empty body", "/api/v1/values/5-68-1-0/selection", `{}`, http.StatusBadRequest},
		{"not json", "/api/v1/values/5-68-1-0/selection", `label=On`, http.StatusBadRequest},
		{"read only", "/api/v1/values/5-64-1-0/selection", `{"label": "Off"}`, http.StatusConflict},
		{"unknown value", "/api/v1/values/5-99-1-0/selection", `{"label": "Off"}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := do(t, r, http.MethodPost, tt.path, tt.body); w.Code != tt.code {
				t.Errorf("expected %d, got %d: %s", tt.code, w.Code, w.Body.String())
			}
		})
	}
}

func TestSelect_CommitFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"disconnected", device.ErrNotConnected, http.StatusServiceUnavailable},
		{"timeout", device.ErrTimeout, http.StatusGatewayTimeout},
		{"rejected", errors.New("no route"), http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, reg := newTestRouter(t, &fakeController{commitErr: tt.err}, nil)
			w := do(t, r, http.MethodPost, "/api/v1/values/5-68-1-0/selection", `{"code": 1}`)
			if w.Code != tt.code {
				t.Errorf("expected %d, got %d: %s", tt.code, w.Code, w.Body.String())
			}
			if s, _ := reg.State(fanID); s.Pending != 1 {
				t.Errorf("expected stale pending 1, got %d", s.Pending)
			}
		})
	}
}

func TestRefresh(t *testing.T) {
	fc := &fakeController{}
	r, _ := newTestRouter(t, fc, nil)

	w := do(t, r, http.MethodPost, "/api/v1/values/5-68-1-0/refresh", "")
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", w.Code)
	}
	if len(fc.requested) != 1 || fc.requested[0].Key() != fanID.Key() {
		t.Errorf("expected refresh of %s, got %v", fanID, fc.requested)
	}

	if w := do(t, r, http.MethodPost, "/api/v1/values/9-68-1-0/refresh", ""); w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}

	r, _ = newTestRouter(t, device.NewNullController(), nil)
	if w := do(t, r, http.MethodPost, "/api/v1/values/5-68-1-0/refresh", ""); w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", w.Code)
	}
}

func TestCache(t *testing.T) {
	ctx := context.Background()
	database, err := db.Open(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer func() { _ = database.Close() }()
	if err := database.Migrate(ctx); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	p := &db.Profile{Name: "home", Timezone: "UTC", IsActive: true}
	if err := database.Profiles().Create(ctx, p); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	r, _ := newTestRouter(t, &fakeController{}, cache.NewStore(database.NodeCaches(), p.ID))

	w := do(t, r, http.MethodGet, "/api/v1/cache", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `<Network home_id="0x01a2b3c4"`) || !strings.Contains(body, `label="Auto High"`) {
		t.Errorf("unexpected cache document:\n%s", body)
	}

	w = do(t, r, http.MethodPost, "/api/v1/cache/save", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if resp := decode[types.SaveCacheResponse](t, w); resp.Nodes != 1 {
		t.Errorf("expected 1 node saved, got %d", resp.Nodes)
	}

	caches, err := database.NodeCaches().List(ctx, p.ID)
	if err != nil || len(caches) != 1 {
		t.Errorf("expected 1 stored node cache, got %d (%v)", len(caches), err)
	}

	r, _ = newTestRouter(t, &fakeController{}, nil)
	if w := do(t, r, http.MethodPost, "/api/v1/cache/save", ""); w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without a store, got %d", w.Code)
	}
}

func TestEvents(t *testing.T) {
	r, reg := newTestRouter(t, &fakeController{}, nil)
	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/values/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	lines := bufio.NewScanner(resp.Body)
	next := func() string {
		t.Helper()
		for lines.Scan() {
			if line := lines.Text(); strings.HasPrefix(line, "event: ") {
				return strings.TrimPrefix(line, "event: ")
			}
		}
		t.Fatalf("stream ended: %v", lines.Err())
		return ""
	}

	if evt := next(); evt != "connected" {
		t.Fatalf("expected connected event, got %s", evt)
	}

	if err := reg.ConfirmCode(fanID, 2); err != nil {
		t.Fatalf("ConfirmCode failed: %v", err)
	}
	if evt := next(); evt != value.EventValueChanged {
		t.Fatalf("expected %s, got %s", value.EventValueChanged, evt)
	}
	if !lines.Scan() || !strings.Contains(lines.Text(), `"id":"5-68-1-0"`) {
		t.Errorf("expected change payload for 5-68-1-0, got %q", lines.Text())
	}
}
