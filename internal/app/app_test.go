package app

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/garyellow/aulabot-go/internal/config"
	"github.com/garyellow/aulabot-go/internal/knowledge"
	"github.com/garyellow/aulabot-go/internal/learned"
	"github.com/garyellow/aulabot-go/internal/logger"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("github.com/patrickmn/go-cache.(*janitor).Run"))
}

const (
	testSecret = "line-secret"
	testToken  = "reply-token-0123456789"
)

const (
	testMajorsCSV = "nombre,codigo,descripcion,duracion,perfil_ingreso,perfil_egreso,especialidad,jefe_division\n" +
		"Ingeniería en Sistemas Computacionales,ISC,Desarrollo de software.,9 semestres,,,,Mtra. Laura Pérez\n" +
		"Ingeniería Industrial,II,Procesos productivos.,9 semestres,,,,\n"
	testCoursesCSV = "carrera,clave,materia,semestre,horas,prerequisito\n" +
		"Ingeniería en Sistemas Computacionales,SCD-1008,Fundamentos de Programación,1,5,\n" +
		"Ingeniería Industrial,INC-1005,Dibujo Industrial,1,6,\n"
	testGeneralCSV = "palabra_clave,categoria,respuesta\n" +
		"inscripcion,costos,La inscripción cuesta $2850.\n"
)

func testConfig(dir string) *config.Config {
	return &config.Config{
		Port:             "0",
		LogLevel:         "error",
		ShutdownTimeout:  5 * time.Second,
		IndexFile:        filepath.Join(dir, "index.html"),
		DataDir:          dir,
		SessionTTL:       time.Hour,
		LearnedBackend:   learned.BackendFile,
		LearnedFile:      filepath.Join(dir, "conocimiento_adquirido.json"),
		IgnoredFile:      filepath.Join(dir, "preguntas_ignoradas.txt"),
		IgnoredMaxSizeMB: 1,
		Thresholds:       config.DefaultThresholds(),
		RateLimit: config.RateLimitConfig{
			GlobalRPS:        1000,
			UserBurst:        100,
			UserRefillPerSec: 10,
			LLMBurst:         1,
			LLMRefillPerHour: 1,
		},
		LLM:             config.LLMConfig{Timeout: time.Second},
		MetricsUsername: "prometheus",
	}
}

type fakeLine struct {
	mu      sync.Mutex
	replies [][]string
}

func (f *fakeLine) Reply(_ string, texts []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, texts)
	return nil
}

func (f *fakeLine) ShowLoading(string) error { return nil }

func (f *fakeLine) sent() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.replies...)
}

func newTestApp(t *testing.T, mutate func(*config.Config), opts ...Option) *Application {
	t.Helper()
	dir := t.TempDir()
	for name, content := range map[string]string{
		knowledge.MajorsFile:  testMajorsCSV,
		knowledge.CoursesFile: testCoursesCSV,
		knowledge.GeneralFile: testGeneralCSV,
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	cfg := testConfig(dir)
	if mutate != nil {
		mutate(cfg)
	}

	comps, err := Build(context.Background(), cfg, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = comps.Close() })

	a, err := New(comps, opts...)
	require.NoError(t, err)
	return a
}

func serve(a *Application, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, req)
	return w
}

func postChat(a *Application, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return serve(a, req)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestIndex(t *testing.T) {
	t.Parallel()

	t.Run("no page", func(t *testing.T) {
		t.Parallel()
		a := newTestApp(t, nil)
		w := serve(a, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, msgAPIActive, decode(t, w)["mensaje"])
	})

	t.Run("page", func(t *testing.T) {
		t.Parallel()
		a := newTestApp(t, nil)
		require.NoError(t, os.WriteFile(a.cfg.IndexFile, []byte("<html>AulaBot</html>"), 0o644))
		w := serve(a, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "<html>AulaBot</html>")
	})
}

func TestChat(t *testing.T) {
	t.Parallel()
	a := newTestApp(t, nil)

	w := postChat(a, `{"usuario_id":"u1","mensaje":"carreras"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp chatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Estado)
	assert.Contains(t, resp.Respuesta, "Carreras disponibles")

	rec := a.comps.Sessions.Get("u1")
	require.Len(t, rec.RecentTurns, 1)
	assert.Equal(t, "carreras", rec.RecentTurns[0].User)
}

func TestChat_DefaultUser(t *testing.T) {
	t.Parallel()
	a := newTestApp(t, nil)

	w := postChat(a, `{"mensaje":"hola"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, a.comps.Sessions.Get(defaultUserID).RecentTurns, 1)
}

func TestChat_BadRequests(t *testing.T) {
	t.Parallel()
	a := newTestApp(t, nil)

	tests := []struct {
		name   string
		body   string
		status int
		detail string
	}{
		{"blank message", `{"usuario_id":"u1","mensaje":"   "}`, http.StatusBadRequest, msgEmptyMessage},
		{"empty message", `{"mensaje":""}`, http.StatusBadRequest, msgEmptyMessage},
		{"missing message", `{"usuario_id":"u1"}`, http.StatusUnprocessableEntity, msgInvalidRequest},
		{"malformed json", `{"mensaje":`, http.StatusUnprocessableEntity, msgInvalidRequest},
		{"wrong type", `{"mensaje":42}`, http.StatusUnprocessableEntity, msgInvalidRequest},
		{"too long", `{"mensaje":"` + strings.Repeat("a", 4001) + `"}`, http.StatusUnprocessableEntity, msgInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postChat(a, tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.detail, decode(t, w)["detail"])
		})
	}
}

func TestChat_InternalError(t *testing.T) {
	t.Parallel()
	a := newTestApp(t, nil)
	a.reply = func(context.Context, string, string, string) (string, error) {
		return "", errors.New("store exploded")
	}

	w := postChat(a, `{"mensaje":"hola"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, msgInternalError, decode(t, w)["detail"])
	assert.NotContains(t, w.Body.String(), "exploded")
}

func TestChat_UserLimiter(t *testing.T) {
	t.Parallel()
	a := newTestApp(t, func(c *config.Config) {
		c.RateLimit.UserBurst = 1
		c.RateLimit.UserRefillPerSec = 0.001
	})

	assert.Equal(t, http.StatusOK, postChat(a, `{"usuario_id":"u1","mensaje":"hola"}`).Code)
	assert.Equal(t, http.StatusTooManyRequests, postChat(a, `{"usuario_id":"u1","mensaje":"hola"}`).Code)
	assert.Equal(t, http.StatusOK, postChat(a, `{"usuario_id":"u2","mensaje":"hola"}`).Code)
}

func TestChat_GlobalLimiter(t *testing.T) {
	t.Parallel()
	a := newTestApp(t, func(c *config.Config) { c.RateLimit.GlobalRPS = 1 })

	assert.Equal(t, http.StatusOK, postChat(a, `{"mensaje":"hola"}`).Code)
	w := postChat(a, `{"mensaje":"hola"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestChatLegacy(t *testing.T) {
	t.Parallel()
	a := newTestApp(t, nil)

	w := serve(a, httptest.NewRequest(http.MethodGet, "/chat?mensaje=carreras", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode(t, w)["respuesta"], "Sistemas Computacionales")

	w = serve(a, httptest.NewRequest(http.MethodGet, "/chat", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProbes(t *testing.T) {
	t.Parallel()
	a := newTestApp(t, nil)

	w := serve(a, httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alive", decode(t, w)["status"])

	w = serve(a, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "ready", body["status"])
	assert.Equal(t, map[string]any{"majors": 2.0, "courses": 2.0, "qa": 1.0}, body["records"])
	features := body["features"].(map[string]any)
	assert.Equal(t, false, features["llm"])
	assert.Equal(t, false, features["line"])
	assert.Equal(t, true, features["bm25_search"])
}

func TestReadyz_SQLite(t *testing.T) {
	t.Parallel()
	a := newTestApp(t, func(c *config.Config) {
		c.LearnedBackend = learned.BackendSQLite
		c.SQLitePath = filepath.Join(c.DataDir, "aulabot.db")
	})
	require.NotNil(t, a.comps.DB)

	w := serve(a, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "sqlite", decode(t, w)["learned_backend"])
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	a := newTestApp(t, func(c *config.Config) { c.MetricsPassword = "s3cret" })

	w := serve(a, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.SetBasicAuth("prometheus", "s3cret")
	w = serve(a, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestMiddlewares(t *testing.T) {
	t.Parallel()
	a := newTestApp(t, nil)

	t.Run("request id echoed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/livez", nil)
		req.Header.Set(requestIDHeader, "abc-123")
		w := serve(a, req)
		assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
	})

	t.Run("request id generated", func(t *testing.T) {
		w := serve(a, httptest.NewRequest(http.MethodGet, "/livez", nil))
		assert.Len(t, w.Header().Get(requestIDHeader), 36)
	})

	t.Run("cors preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
		req.Header.Set("Origin", "https://example.org")
		w := serve(a, req)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("security headers", func(t *testing.T) {
		w := serve(a, httptest.NewRequest(http.MethodGet, "/livez", nil))
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	})
}

func signBody(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestWebhook(t *testing.T) {
	t.Parallel()
	line := &fakeLine{}
	a := newTestApp(t, func(c *config.Config) {
		c.LineChannelSecret = testSecret
		c.LineChannelToken = "token"
	}, WithLineClient(line))

	body := []byte(`{"destination":"Ubot","events":[{"type":"message","mode":"active","timestamp":1700000000000,` +
		`"webhookEventId":"01HXYZ","deliveryContext":{"isRedelivery":false},"replyToken":"` + testToken + `",` +
		`"source":{"type":"user","userId":"U1"},"message":{"type":"text","id":"1","quoteToken":"q","text":"carreras"}}]}`)
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(body))
	req.Header.Set("X-Line-Signature", signBody(body))
	w := serve(a, req)
	require.Equal(t, http.StatusOK, w.Code)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, a.webhookHandler.Shutdown(ctx))

	sent := line.sent()
	require.Len(t, sent, 1)
	assert.Contains(t, strings.Join(sent[0], "\n"), "Carreras disponibles")
	assert.Len(t, a.comps.Sessions.Get("line:U1").RecentTurns, 1)
}

func TestWebhook_NotMountedWithoutCredentials(t *testing.T) {
	t.Parallel()
	a := newTestApp(t, nil)
	w := serve(a, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("{}")))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	t.Parallel()
	a := newTestApp(t, func(c *config.Config) { c.WatchData = true })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestBuild_MalformedTableIsFatal(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, knowledge.MajorsFile), []byte("codigo\nISC\n"), 0o644))

	_, err := Build(context.Background(), testConfig(dir), logger.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reference tables")
}

func TestBuild_MissingTablesAreEmpty(t *testing.T) {
	t.Parallel()
	comps, err := Build(context.Background(), testConfig(t.TempDir()), logger.Discard())
	require.NoError(t, err)
	defer func() { _ = comps.Close() }()
	assert.Equal(t, knowledge.Counts{}, comps.Holder.Catalog().Counts())
}
