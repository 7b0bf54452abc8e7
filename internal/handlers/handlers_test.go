package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/booklens/internal/gateway"
	"github.com/lehigh-university-libraries/booklens/internal/library"
	"github.com/lehigh-university-libraries/booklens/internal/models"
	"github.com/lehigh-university-libraries/booklens/internal/normalize"
	"github.com/lehigh-university-libraries/booklens/internal/pipeline"
	"github.com/lehigh-university-libraries/booklens/internal/providers"
	"github.com/lehigh-university-libraries/booklens/internal/session"
	"github.com/lehigh-university-libraries/booklens/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	content string
	err     error
	calls   int
}

func (p *stubProvider) ExtractText(ctx context.Context, c providers.Config) (string, error) {
	p.calls++
	return p.content, p.err
}

func newTestServer(t *testing.T, p *stubProvider, limiter *RateLimiter) (http.Handler, *library.Library) {
	t.Helper()
	svc := gateway.NewService(p, "gpt-4o", 0.2)
	lib := library.New(storage.NewMemory())
	h := New(gateway.NewProxy(svc), pipeline.New(gateway.NewLocal(svc)), lib, session.NewRegistry())
	if limiter == nil {
		limiter = NewRateLimiter(0, 1)
	}
	return h.Routes(limiter), lib
}

func do(t *testing.T, h http.Handler, method, path, user, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if user != "" {
		req.Header.Set(UserHeader, user)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthcheck(t *testing.T) {
	h, _ := newTestServer(t, &stubProvider{}, nil)
	rec := do(t, h, http.MethodGet, "/healthcheck", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestRequestIDPropagated(t *testing.T) {
	h, _ := newTestServer(t, &stubProvider{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthcheck", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-Id"))
}

func TestProxyRoute(t *testing.T) {
	h, _ := newTestServer(t, &stubProvider{content: `{"judul":"Laskar Pelangi"}`}, nil)

	rec := do(t, h, http.MethodOptions, "/api/openai", "", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/openai", "", `{"titleQuery":"Laskar Pelangi"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"judul":"Laskar Pelangi"}`, rec.Body.String())
}

func TestResolve(t *testing.T) {
	p := &stubProvider{content: `{"judul":"Laskar Pelangi","penulis":"Andrea Hirata","rekomendasi":["Judul Buku 1","Sang Pemimpi"]}`}
	h, lib := newTestServer(t, p, nil)

	rec := do(t, h, http.MethodPost, "/api/resolve", "rina", `{"titleQuery":"Laskar Pelangi"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got models.BookRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, models.Recommendations{"Sang Pemimpi"}, got.Recommendations)
	assert.Equal(t, "https://www.tokopedia.com/search?st=product&q=Laskar+Pelangi+Andrea+Hirata", got.PriceLink)

	history, err := lib.History(context.Background(), "rina", 0)
	require.NoError(t, err)
	assert.Empty(t, history, "history is only written with save=true")

	rec = do(t, h, http.MethodGet, "/api/session", "rina", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var snap session.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, "rina", snap.User)
	require.NotNil(t, snap.LastResult)
	assert.Equal(t, "Laskar Pelangi", snap.LastResult.Title)
}

func TestResolveAndSave(t *testing.T) {
	h, lib := newTestServer(t, &stubProvider{content: `{"judul":"Bumi Manusia"}`}, nil)

	rec := do(t, h, http.MethodPost, "/api/resolve?save=true", "", `{"titleQuery":"bumi manusia"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var entry models.HistoryEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entry))
	assert.NotEmpty(t, entry.ID)

	history, err := lib.History(context.Background(), session.AnonymousUser, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, entry.ID, history[0].ID)
}

func TestResolveErrors(t *testing.T) {
	p := &stubProvider{}
	h, _ := newTestServer(t, p, nil)

	rec := do(t, h, http.MethodPost, "/api/resolve", "", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"imageDataUrl or titleQuery is required"}`, rec.Body.String())
	assert.Zero(t, p.calls)

	rec = do(t, h, http.MethodPost, "/api/resolve", "", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/resolve", "", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	p.err = &providers.StatusError{StatusCode: http.StatusBadGateway, Body: "upstream down", ContentType: "text/plain"}
	rec = do(t, h, http.MethodPost, "/api/resolve", "", `{"titleQuery":"x"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "upstream down", rec.Body.String())

	p.err = &providers.CredentialError{Env: "OPENAI_API_KEY"}
	rec = do(t, h, http.MethodPost, "/api/resolve", "", `{"titleQuery":"x"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Server misconfigured: OPENAI_API_KEY is missing"}`, rec.Body.String())
}

func TestHistoryRoutes(t *testing.T) {
	h, _ := newTestServer(t, &stubProvider{}, nil)

	rec := do(t, h, http.MethodPost, "/api/history", "rina", `{"judul":"Ronggeng Dukuh Paruk","rating":4}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var entry models.HistoryEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entry))

	rec = do(t, h, http.MethodGet, "/api/history?limit=10", "rina", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var history []models.HistoryEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history, 1)
	assert.Equal(t, models.FlexString("4"), history[0].Rating)

	rec = do(t, h, http.MethodGet, "/api/history", "budi", "")
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = do(t, h, http.MethodDelete, "/api/history/"+entry.ID, "rina", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodDelete, "/api/history/"+entry.ID, "rina", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSavedRecordsAreFinalized(t *testing.T) {
	h, _ := newTestServer(t, &stubProvider{}, nil)

	body := `{"judul":" Laskar Pelangi ","penulis":"Andrea Hirata","isbn":"978-979-3062-79-2","hargaLink":"https://evil.example/buy"}`
	rec := do(t, h, http.MethodPost, "/api/history", "rina", body)
	require.Equal(t, http.StatusCreated, rec.Code)
	var entry models.HistoryEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entry))

	assert.Equal(t, "Laskar Pelangi", entry.Title)
	assert.Equal(t, "9789793062792", entry.ISBN)
	assert.Equal(t, normalize.BestLink("Laskar Pelangi", "Andrea Hirata", "9789793062792"), entry.PriceLink)

	rec = do(t, h, http.MethodPost, "/api/history", "rina", `{"judul":"Cantik Itu Luka","isbn":"not-an-isbn"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entry))
	assert.Empty(t, entry.ISBN)
}

func TestListRoutes(t *testing.T) {
	h, _ := newTestServer(t, &stubProvider{}, nil)

	rec := do(t, h, http.MethodPost, "/api/lists", "rina", `{"name":" "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/lists", "rina", `{"name":"Favorit"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var list models.BookList
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))

	rec = do(t, h, http.MethodPatch, "/api/lists/"+list.ID, "rina", `{"name":"Paling Favorit"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var renamed models.BookList
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &renamed))
	assert.Equal(t, list.ID, renamed.ID)
	assert.Equal(t, "Paling Favorit", renamed.Name)

	rec = do(t, h, http.MethodPost, "/api/lists/missing/items", "rina", `{"judul":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/lists/"+list.ID+"/items", "rina", `{"judul":"Laskar Pelangi"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var item models.ListItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &item))

	rec = do(t, h, http.MethodGet, "/api/lists/"+list.ID+"/items", "rina", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var items []models.ListItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "Laskar Pelangi", items[0].Title)

	rec = do(t, h, http.MethodDelete, "/api/lists/"+list.ID+"/items/"+item.ID, "rina", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/lists", "rina", "")
	var lists []models.BookList
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lists))
	assert.Len(t, lists, 1)

	rec = do(t, h, http.MethodDelete, "/api/lists/"+list.ID, "rina", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, h, http.MethodDelete, "/api/lists/"+list.ID, "rina", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateLimit(t *testing.T) {
	h, _ := newTestServer(t, &stubProvider{content: `{}`}, NewRateLimiter(0.001, 2))

	for i := 0; i < 2; i++ {
		rec := do(t, h, http.MethodPost, "/api/resolve", "rina", `{"titleQuery":"x"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	rec := do(t, h, http.MethodPost, "/api/resolve", "rina", `{"titleQuery":"x"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/resolve", "budi", `{"titleQuery":"x"}`)
	assert.Equal(t, http.StatusOK, rec.Code, "limits are per client")

	rec = do(t, h, http.MethodGet, "/api/history", "rina", "")
	assert.Equal(t, http.StatusOK, rec.Code, "library routes are not limited")
}

type panicProvider struct{}

func (panicProvider) ExtractText(ctx context.Context, c providers.Config) (string, error) {
	panic("provider blew up")
}

func TestProxyRouteCORSOnRejections(t *testing.T) {
	h, _ := newTestServer(t, &stubProvider{content: `{}`}, NewRateLimiter(0.001, 1))

	rec := do(t, h, http.MethodPost, "/api/openai", "rina", `{"titleQuery":"x"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, h, http.MethodPost, "/api/openai", "rina", `{"titleQuery":"x"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))

	svc := gateway.NewService(panicProvider{}, "gpt-4o", 0.2)
	ph := New(gateway.NewProxy(svc), pipeline.New(gateway.NewLocal(svc)), library.New(storage.NewMemory()), session.NewRegistry()).Routes(NewRateLimiter(0, 1))
	rec = do(t, ph, http.MethodPost, "/api/openai", "rina", `{"titleQuery":"x"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecovery(t *testing.T) {
	h := RequestID(AccessLog(Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error"}`, rec.Body.String())
}
