package inbound

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/gorecover/internal/pkg/config"
	"github.com/shandysiswandi/gorecover/internal/pkg/goerror"
	"github.com/shandysiswandi/gorecover/internal/pkg/instrument"
	"github.com/shandysiswandi/gorecover/internal/pkg/router"
	"github.com/shandysiswandi/gorecover/internal/recovery/usecase"
)

type fakeUC struct {
	startIn  usecase.RecoveryStartInput
	verifyIn usecase.RecoveryVerifyInput
	verify   func(usecase.RecoveryVerifyInput) (*usecase.RecoveryVerifyOutput, error)
	redeem   func(usecase.RecoveryRedeemInput) (*usecase.RecoveryRedeemOutput, error)
}

func (f *fakeUC) RecoveryStart(_ context.Context, in usecase.RecoveryStartInput) error {
	f.startIn = in
	return nil
}

func (f *fakeUC) RecoveryVerify(_ context.Context, in usecase.RecoveryVerifyInput) (*usecase.RecoveryVerifyOutput, error) {
	f.verifyIn = in
	return f.verify(in)
}

func (f *fakeUC) RecoveryRedeem(_ context.Context, in usecase.RecoveryRedeemInput) (*usecase.RecoveryRedeemOutput, error) {
	return f.redeem(in)
}

type envelope struct {
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Error   map[string]string `json:"error"`
}

func newServer(t *testing.T, f *fakeUC) *router.Router {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte("app:\n  server:\n    service_keys: [\"reset-svc\"]\n"))
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	r := router.NewRouter(router.Config{Config: cfg, Instrument: instrument.NewNoop()})
	RegisterHTTPEndpoint(r, f)
	return r
}

func post(r http.Handler, path, body string, hdr map[string]string) (int, envelope) {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var env envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec.Code, env
}

func TestRecoveryVerify_Success(t *testing.T) {
	t.Parallel()

	exp := time.Date(2026, 6, 1, 10, 5, 0, 0, time.UTC)
	f := &fakeUC{verify: func(usecase.RecoveryVerifyInput) (*usecase.RecoveryVerifyOutput, error) {
		return &usecase.RecoveryVerifyOutput{Username: "alice", HandoffToken: "tok", ExpiresAt: exp}, nil
	}}

	code, env := post(newServer(t, f), "/api/v1/recovery/password/verify", `{"target":"alice","code":"123456"}`, nil)
	if code != http.StatusOK {
		t.Fatalf("status = %d, env = %+v", code, env)
	}
	if f.verifyIn.Target != "alice" || f.verifyIn.Code != "123456" {
		t.Fatalf("usecase input = %+v", f.verifyIn)
	}

	var data RecoveryVerifyResponse
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("data: %v", err)
	}
	if data.HandoffToken != "tok" || data.Next != NextStepPath || !data.ExpiresAt.Equal(exp) {
		t.Fatalf("data = %+v", data)
	}
	if strings.Contains(string(env.Data), "alice") {
		t.Fatalf("verify response leaks identity: %s", env.Data)
	}
}

func TestRecoveryVerify_InvalidCode(t *testing.T) {
	t.Parallel()

	f := &fakeUC{verify: func(usecase.RecoveryVerifyInput) (*usecase.RecoveryVerifyOutput, error) {
		return nil, goerror.NewInvalidInput(nil, "code", "Invalid code")
	}}

	code, env := post(newServer(t, f), "/api/v1/recovery/password/verify", `{"target":"nobody@example.com","code":"000000"}`, nil)
	if code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", code)
	}
	if env.Message != "Validation failed" || env.Error["code"] != "Invalid code" || len(env.Error) != 1 {
		t.Fatalf("env = %+v", env)
	}
}

func TestRecoveryVerify_MalformedBody(t *testing.T) {
	t.Parallel()

	f := &fakeUC{verify: func(usecase.RecoveryVerifyInput) (*usecase.RecoveryVerifyOutput, error) {
		t.Fatal("usecase must not be called for a malformed body")
		return nil, nil
	}}

	if code, _ := post(newServer(t, f), "/api/v1/recovery/password/verify", `{"target":"a","code":123456}`, nil); code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", code)
	}
}

func TestRecoveryStart(t *testing.T) {
	t.Parallel()

	f := &fakeUC{}
	code, env := post(newServer(t, f), "/api/v1/recovery/password/start", `{"target":"bob"}`, nil)
	if code != http.StatusOK || env.Message != (RecoveryStartResponse{}).Message() {
		t.Fatalf("status = %d, env = %+v", code, env)
	}
	if f.startIn.Target != "bob" {
		t.Fatalf("usecase input = %+v", f.startIn)
	}
}

func TestRecoveryRedeem_RequiresServiceKey(t *testing.T) {
	t.Parallel()

	f := &fakeUC{redeem: func(in usecase.RecoveryRedeemInput) (*usecase.RecoveryRedeemOutput, error) {
		return &usecase.RecoveryRedeemOutput{Username: "alice"}, nil
	}}
	srv := newServer(t, f)

	if code, _ := post(srv, "/api/v1/recovery/handoff/redeem", `{"handoff_token":"tok"}`, nil); code != http.StatusUnauthorized {
		t.Fatalf("without key status = %d, want 401", code)
	}

	code, env := post(srv, "/api/v1/recovery/handoff/redeem", `{"handoff_token":"tok"}`, map[string]string{router.HeaderServiceKey: "reset-svc"})
	if code != http.StatusOK {
		t.Fatalf("status = %d, env = %+v", code, env)
	}
	var data RecoveryRedeemResponse
	if err := json.Unmarshal(env.Data, &data); err != nil || data.Username != "alice" {
		t.Fatalf("data = %+v, err = %v", data, err)
	}
}
