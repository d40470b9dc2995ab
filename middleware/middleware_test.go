package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"git.sr.ht/~aondrejcak/wellness-api/catalog"
	"git.sr.ht/~aondrejcak/wellness-api/kernel"
	"git.sr.ht/~aondrejcak/wellness-api/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRuntime(t *testing.T, env map[string]string) *kernel.AppRuntime {
	t.Helper()
	vars := map[string]string{"MONGODB_URI": "mongodb://test", "JWT_SECRET": "test"}
	for k, v := range env {
		vars[k] = v
	}
	c, err := kernel.ConfigFromEnv(vars)
	require.NoError(t, err)
	return kernel.NewAppRuntime(c, store.NewMemoryStore(), catalog.Default())
}

func do(r http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	body := map[string]any{}
	require.NoError(t, json.NewDecoder(strings.NewReader(w.Body.String())).Decode(&body))
	return body
}
