package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/baldecash-team/whatsapp-bot/internal/helper"
	"github.com/baldecash-team/whatsapp-bot/internal/model"
	"github.com/baldecash-team/whatsapp-bot/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type sentText struct {
	chatID string
	text   string
}

type fakeMessenger struct {
	sent    []sentText
	sendErr error
	groups  []model.GroupChat
	listErr error
}

func (f *fakeMessenger) SendText(_ context.Context, chatID, text string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, sentText{chatID: chatID, text: text})
	return nil
}

func (f *fakeMessenger) ListGroups(context.Context) ([]model.GroupChat, error) {
	return f.groups, f.listErr
}

type testServer struct {
	e     *echo.Echo
	h     *Handler
	state *model.SessionState
	wa    *fakeMessenger
}

func newTestServer(t *testing.T, defaultGroup string) *testServer {
	t.Helper()
	state := model.NewSessionState()
	wa := &fakeMessenger{}
	h := New(Config{
		State:        state,
		Messenger:    wa,
		DefaultGroup: defaultGroup,
		WebhookURL:   "http://n8n.test/webhook",
		Logger:       zerolog.Nop(),
	})
	e := NewServer(ServerConfig{Logger: zerolog.Nop()})
	h.Register(e)
	return &testServer{e: e, h: h, state: state, wa: wa}
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body ErrorBody
	decode(t, rec, &body)
	return body.Error
}

func TestSend_NotReady(t *testing.T) {
	s := newTestServer(t, "120363000000000001@g.us")

	rec := s.do(http.MethodPost, "/send", `{"mensaje":"hola"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if got := errorOf(t, rec); got != msgNotConnected {
		t.Errorf("error = %q", got)
	}
	if len(s.wa.sent) != 0 {
		t.Errorf("nothing should be sent, got %v", s.wa.sent)
	}
}

func TestSend_Validation(t *testing.T) {
	tests := []struct {
		name         string
		defaultGroup string
		body         string
		wantError    string
	}{
		{"missing mensaje", "g@g.us", `{"chatId":"123@c.us"}`, msgMissingMensaje},
		{"empty mensaje", "g@g.us", `{"mensaje":""}`, msgMissingMensaje},
		{"empty body", "g@g.us", `{}`, msgMissingMensaje},
		{"malformed json", "g@g.us", `{"mensaje":`, msgInvalidBody},
		{"no target", "", `{"mensaje":"hola"}`, msgMissingTarget},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, tt.defaultGroup)
			s.state.SetReady("51999@s.whatsapp.net")

			rec := s.do(http.MethodPost, "/send", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (%s)", rec.Code, rec.Body.String())
			}
			if got := errorOf(t, rec); got != tt.wantError {
				t.Errorf("error = %q, want %q", got, tt.wantError)
			}
			if len(s.wa.sent) != 0 {
				t.Errorf("nothing should be sent, got %v", s.wa.sent)
			}
		})
	}
}

func TestSend_DefaultGroup(t *testing.T) {
	s := newTestServer(t, "120363000000000001@g.us")
	s.state.SetReady("51999@s.whatsapp.net")

	rec := s.do(http.MethodPost, "/send", `{"mensaje":"hola"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp SendResponse
	decode(t, rec, &resp)
	if !resp.OK || resp.Destino != "120363000000000001@g.us" {
		t.Errorf("response = %+v", resp)
	}
	if len(s.wa.sent) != 1 || s.wa.sent[0] != (sentText{"120363000000000001@g.us", "hola"}) {
		t.Errorf("sent = %v", s.wa.sent)
	}
}

func TestSend_ExplicitChat(t *testing.T) {
	s := newTestServer(t, "120363000000000001@g.us")
	s.state.SetReady("51999@s.whatsapp.net")

	rec := s.do(http.MethodPost, "/send", `{"mensaje":"hola","chatId":"51911111111@c.us"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp SendResponse
	decode(t, rec, &resp)
	if resp.Destino != "51911111111@c.us" {
		t.Errorf("destino = %q", resp.Destino)
	}
}

func TestSend_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"invalid chat", fmt.Errorf("%w: x", helper.ErrInvalidChatID), http.StatusBadRequest, msgInvalidChatID},
		{"dropped session", service.ErrNotReady, http.StatusServiceUnavailable, msgNotConnected},
		{"transport", errors.New("websocket closed"), http.StatusInternalServerError, "websocket closed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, "g@g.us")
			s.state.SetReady("")
			s.wa.sendErr = tt.err

			rec := s.do(http.MethodPost, "/send", `{"mensaje":"hola"}`)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := errorOf(t, rec); got != tt.wantError {
				t.Errorf("error = %q, want %q", got, tt.wantError)
			}
		})
	}
}

func TestChats(t *testing.T) {
	s := newTestServer(t, "")

	rec := s.do(http.MethodGet, "/chats", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("not ready: status = %d", rec.Code)
	}

	s.state.SetReady("51999@s.whatsapp.net")
	s.wa.groups = []model.GroupChat{
		{ID: "1@g.us", Nombre: "Bugs", Participantes: 4},
		{ID: "2@g.us", Nombre: "Ventas", Participantes: 9},
	}
	rec = s.do(http.MethodGet, "/chats", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp ChatsResponse
	decode(t, rec, &resp)
	if len(resp.Grupos) != 2 || resp.Grupos[0].Nombre != "Bugs" || resp.Grupos[1].Participantes != 9 {
		t.Errorf("grupos = %+v", resp.Grupos)
	}

	s.wa.groups = nil
	rec = s.do(http.MethodGet, "/chats", "")
	if !strings.Contains(rec.Body.String(), `"grupos":[]`) {
		t.Errorf("empty list should encode as [], got %s", rec.Body.String())
	}

	s.wa.listErr = errors.New("iq timed out")
	rec = s.do(http.MethodGet, "/chats", "")
	if rec.Code != http.StatusInternalServerError || errorOf(t, rec) != "iq timed out" {
		t.Errorf("status = %d body %s", rec.Code, rec.Body.String())
	}
}

func TestStatus(t *testing.T) {
	s := newTestServer(t, "")

	var resp StatusResponse
	decode(t, s.do(http.MethodGet, "/status", ""), &resp)
	want := StatusResponse{Status: "disconnected", Grupo: "todos", Webhook: "http://n8n.test/webhook"}
	if resp != want {
		t.Errorf("initial = %+v, want %+v", resp, want)
	}

	s.state.SetPairingCode("2@abc")
	decode(t, s.do(http.MethodGet, "/status", ""), &resp)
	if resp.Status != "disconnected" || !resp.QRPending {
		t.Errorf("pairing = %+v", resp)
	}

	s.state.SetReady("51999@s.whatsapp.net")
	resp = StatusResponse{}
	decode(t, s.do(http.MethodGet, "/status", ""), &resp)
	if resp.Status != "connected" || resp.QRPending || resp.JID != "51999@s.whatsapp.net" {
		t.Errorf("ready = %+v", resp)
	}
}

func TestStatus_GroupLabel(t *testing.T) {
	s := newTestServer(t, "120363000000000001@g.us")
	var resp StatusResponse
	decode(t, s.do(http.MethodGet, "/status", ""), &resp)
	if resp.Grupo != "120363000000000001@g.us" {
		t.Errorf("grupo = %q", resp.Grupo)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, "")
	s.h.now = func() time.Time {
		return time.Date(2024, 3, 1, 9, 30, 15, 123_000_000, time.FixedZone("PET", -5*3600))
	}

	rec := s.do(http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp HealthResponse
	decode(t, rec, &resp)
	if !resp.OK || resp.Timestamp != "2024-03-01T14:30:15.123Z" {
		t.Errorf("health = %+v", resp)
	}
}

func TestHealth_NotRateLimited(t *testing.T) {
	state := model.NewSessionState()
	e := NewServer(ServerConfig{RateLimit: 1, Logger: zerolog.Nop()})
	New(Config{State: state, Messenger: &fakeMessenger{}, Logger: zerolog.Nop()}).Register(e)

	get := func(path string) int {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec.Code
	}

	for i := 0; i < 50; i++ {
		if code := get("/health"); code != http.StatusOK {
			t.Fatalf("request %d: /health status = %d", i, code)
		}
	}

	codes := []int{get("/status"), get("/status"), get("/status")}
	if codes[0] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("limiter should still cover other routes, got %v", codes)
	}
}

func TestQRPage(t *testing.T) {
	s := newTestServer(t, "")

	rec := s.do(http.MethodGet, "/qr", "")
	body := rec.Body.String()
	if rec.Code != http.StatusOK || !strings.Contains(body, "Esperando QR...") || !strings.Contains(body, `content="3"`) {
		t.Errorf("waiting page: %d %s", rec.Code, body)
	}

	s.state.SetPairingCode("2@AbCdEf,xyz,123")
	rec = s.do(http.MethodGet, "/qr", "")
	body = rec.Body.String()
	if !strings.Contains(body, `<img src="data:image/png;base64,`) {
		t.Errorf("qr page should embed the image: %s", body)
	}
	if !strings.Contains(body, "Dispositivos vinculados") || !strings.Contains(body, `content="5"`) {
		t.Errorf("qr page missing instructions or refresh: %s", body)
	}

	s.state.SetReady("51999@s.whatsapp.net")
	rec = s.do(http.MethodGet, "/qr", "")
	body = rec.Body.String()
	if !strings.Contains(body, "WhatsApp ya esta conectado") || !strings.Contains(body, `href="/status"`) {
		t.Errorf("connected page: %s", body)
	}
	if strings.Contains(body, "<img") || strings.Contains(body, "http-equiv") {
		t.Errorf("connected page should not show a code or refresh: %s", body)
	}
}

func TestQRImage(t *testing.T) {
	s := newTestServer(t, "")

	if rec := s.do(http.MethodGet, "/qr.png", ""); rec.Code != http.StatusNotFound {
		t.Errorf("no code: status = %d", rec.Code)
	}

	s.state.SetPairingCode("2@AbCdEf,xyz,123")
	rec := s.do(http.MethodGet, "/qr.png", "")
	if rec.Code != http.StatusOK || rec.Header().Get(echo.HeaderContentType) != "image/png" {
		t.Fatalf("status = %d type %q", rec.Code, rec.Header().Get(echo.HeaderContentType))
	}
	if !strings.HasPrefix(rec.Body.String(), "\x89PNG") {
		t.Error("body is not a png")
	}

	s.state.SetReady("")
	if rec := s.do(http.MethodGet, "/qr.png", ""); rec.Code != http.StatusConflict {
		t.Errorf("ready: status = %d", rec.Code)
	}
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t, "")
	rec := s.do(http.MethodGet, "/nope", "")
	if rec.Code != http.StatusNotFound || errorOf(t, rec) != "Endpoint not found" {
		t.Errorf("status = %d body %s", rec.Code, rec.Body.String())
	}
}

func TestIndex(t *testing.T) {
	s := newTestServer(t, "")
	rec := s.do(http.MethodGet, "/", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "POST /send") {
		t.Errorf("status = %d body %s", rec.Code, rec.Body.String())
	}
}
