package router

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shandysiswandi/gorecover/internal/pkg/config"
	"github.com/shandysiswandi/gorecover/internal/pkg/goerror"
	"github.com/shandysiswandi/gorecover/internal/pkg/instrument"
)

type staticID string

func (s staticID) Generate() string { return string(s) }

func newTestRouter(t *testing.T) *Router {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(`
app:
  server:
    service_keys: ["svc-key-1", " svc-key-2 "]
  maintenance:
    endpoints: ["/api/v1/down"]
instrument:
  log_mask_fields: ["code", "handoff_token"]
`))
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	return NewRouter(Config{Config: cfg, UUID: staticID("cid-generated"), Instrument: instrument.NewNoop()})
}

func serve(ro *Router, method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	ro.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestRouter_ErrorEncoding(t *testing.T) {
	t.Parallel()

	ro := newTestRouter(t)
	ro.POST("/invalid", func(*Request) (any, error) {
		return nil, goerror.NewInvalidInput(nil, "code", "Invalid code")
	})
	ro.POST("/invariant", func(*Request) (any, error) {
		return nil, goerror.NewInvariant(errors.New("record without identity"))
	})
	ro.POST("/raw", func(*Request) (any, error) {
		return nil, errors.New("boom")
	})
	ro.POST("/limited", func(*Request) (any, error) {
		return nil, goerror.NewBusiness("Too many attempts", goerror.CodeTooManyRequest)
	})

	tests := []struct {
		path       string
		wantStatus int
		wantMsg    string
		wantField  string
	}{
		{path: "/invalid", wantStatus: http.StatusUnprocessableEntity, wantMsg: "Validation failed", wantField: "Invalid code"},
		{path: "/invariant", wantStatus: http.StatusInternalServerError, wantMsg: "Internal server error"},
		{path: "/raw", wantStatus: http.StatusInternalServerError, wantMsg: "Internal server error"},
		{path: "/limited", wantStatus: http.StatusTooManyRequests, wantMsg: "Too many attempts"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := serve(ro, http.MethodPost, tt.path, "{}", nil)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			body := decode(t, rec)
			if body["message"] != tt.wantMsg {
				t.Fatalf("message = %v, want %q", body["message"], tt.wantMsg)
			}
			if tt.wantField != "" {
				fields, _ := body["error"].(map[string]any)
				if fields["code"] != tt.wantField {
					t.Fatalf("error = %v, want code=%q", body["error"], tt.wantField)
				}
			}
			if strings.Contains(rec.Body.String(), "record without identity") {
				t.Fatal("internal cause leaked to the client")
			}
		})
	}
}

type okResponse struct {
	Value string `json:"value"`
}

func (okResponse) Message() string { return "done" }

func TestRouter_SuccessAndCorrelationID(t *testing.T) {
	t.Parallel()

	ro := newTestRouter(t)
	ro.POST("/ok", func(r *Request) (any, error) {
		var in struct {
			Value string `json:"value"`
		}
		if err := r.DecodeBody(&in); err != nil {
			return nil, err
		}
		return okResponse{Value: in.Value}, nil
	})

	rec := serve(ro, http.MethodPost, "/ok", `{"value":"x"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get(HeaderCorrelationID); got != "cid-generated" {
		t.Fatalf("correlation id = %q", got)
	}
	body := decode(t, rec)
	if body["message"] != "done" || body["data"].(map[string]any)["value"] != "x" {
		t.Fatalf("body = %v", body)
	}

	rec = serve(ro, http.MethodPost, "/ok", `{"value":"x"}`, map[string]string{HeaderRequestID: "from-proxy"})
	if got := rec.Header().Get(HeaderCorrelationID); got != "from-proxy" {
		t.Fatalf("correlation id = %q, want from-proxy", got)
	}

	for _, bad := range []string{`{"value":"x","extra":1}`, `{"value":"x"}{}`, `not json`} {
		rec = serve(ro, http.MethodPost, "/ok", bad, nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %q: status = %d, want 400", bad, rec.Code)
		}
	}
}

func TestRouter_ServiceOnly(t *testing.T) {
	t.Parallel()

	ro := newTestRouter(t)
	ro.POST("/internal", func(*Request) (any, error) { return okResponse{}, nil }, ro.ServiceOnly())

	tests := []struct {
		name string
		key  string
		want int
	}{
		{name: "missing", key: "", want: http.StatusUnauthorized},
		{name: "wrong", key: "nope", want: http.StatusUnauthorized},
		{name: "first key", key: "svc-key-1", want: http.StatusOK},
		{name: "trimmed key", key: "svc-key-2", want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(ro, http.MethodPost, "/internal", "{}", map[string]string{HeaderServiceKey: tt.key})
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestRouter_MaintenancePanicAndFallbacks(t *testing.T) {
	t.Parallel()

	ro := newTestRouter(t)
	ro.GET("/api/v1/down", func(*Request) (any, error) { return okResponse{}, nil })
	ro.GET("/panic", func(*Request) (any, error) { panic("kaboom") })

	if rec := serve(ro, http.MethodGet, "/api/v1/down", "", nil); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("maintenance status = %d", rec.Code)
	}
	if rec := serve(ro, http.MethodGet, "/panic", "", nil); rec.Code != http.StatusInternalServerError {
		t.Fatalf("panic status = %d", rec.Code)
	}
	if rec := serve(ro, http.MethodGet, "/missing", "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("not found status = %d", rec.Code)
	}
	if rec := serve(ro, http.MethodPost, "/panic", "", nil); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("method status = %d", rec.Code)
	}
	if rec := serve(ro, http.MethodGet, "/health", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("health status = %d", rec.Code)
	}
}

func TestMaskValue(t *testing.T) {
	t.Parallel()

	keys := map[string]struct{}{"code": {}}
	got := maskValue(map[string]any{
		"target": "alice",
		"Code":   "123456",
		"nested": []any{map[string]any{"code": "1"}},
	}, keys).(map[string]any)

	if got["Code"] != maskedValue || got["target"] != "alice" {
		t.Fatalf("masked = %v", got)
	}
	inner := got["nested"].([]any)[0].(map[string]any)
	if inner["code"] != maskedValue {
		t.Fatalf("nested = %v", inner)
	}
}
