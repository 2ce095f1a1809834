package logger

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func accessLogs(recorded *observer.ObservedLogs) []observer.LoggedEntry {
	return recorded.FilterMessage("http request").All()
}

func TestGinMiddleware_AssignsRequestID(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	router := gin.New()
	router.Use(GinMiddleware(zap.New(core)))

	var seen string
	router.GET("/titles/:id", func(c *gin.Context) {
		seen = GetRequestID(c.Request.Context())
		GetGinLogger(c).Info("handler")
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/titles/abc?x=1", nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get(RequestIDHeader))

	handlerLog := recorded.FilterMessage("handler").All()
	require.Len(t, handlerLog, 1)
	assert.Equal(t, seen, handlerLog[0].ContextMap()["request_id"])

	logs := accessLogs(recorded)
	require.Len(t, logs, 1)
	fields := logs[0].ContextMap()
	assert.Equal(t, int64(200), fields["status"])
	assert.Equal(t, "/titles/:id", fields["route"])
	assert.Equal(t, "x=1", fields["query"])
	assert.Equal(t, zapcore.InfoLevel, logs[0].Level)
}

func TestGinMiddleware_PropagatesIncomingID(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	router := gin.New()
	router.Use(GinMiddleware(zap.New(core)))
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "upstream-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "upstream-42", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "upstream-42", accessLogs(recorded)[0].ContextMap()["request_id"])

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("a", 200))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Len(t, w.Header().Get(RequestIDHeader), 36, "oversized IDs are replaced")
}

func TestGinMiddleware_LevelByStatus(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	router := gin.New()
	router.Use(GinMiddleware(zap.New(core), "/health"))
	router.GET("/bad", func(c *gin.Context) { c.Status(http.StatusConflict) })
	router.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, p := range []string{"/bad", "/boom", "/health"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	logs := accessLogs(recorded)
	require.Len(t, logs, 2, "health checks are not logged")
	assert.Equal(t, zapcore.WarnLevel, logs[0].Level)
	assert.Equal(t, zapcore.ErrorLevel, logs[1].Level)
}

func TestRecovery(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	log := zap.New(core)
	router := gin.New()
	router.Use(GinMiddleware(log), Recovery(log))
	router.GET("/panic", func(c *gin.Context) { panic("ledger exploded") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"internal server error","code":"INTERNAL_ERROR"}`, w.Body.String())

	panics := recorded.FilterMessage("panic recovered").All()
	require.Len(t, panics, 1)
	assert.Equal(t, "ledger exploded", panics[0].ContextMap()["panic"])
	assert.NotEmpty(t, panics[0].ContextMap()["request_id"])
}

func TestGetGinLogger_Fallbacks(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	fallback := zap.NewExample()
	assert.Same(t, fallback, GetGinLogger(c, fallback))
	assert.NotNil(t, GetGinLogger(c))

	stored := zap.NewExample()
	c.Set(GinContextKey, stored)
	assert.Same(t, stored, GetGinLogger(c, fallback))
}
