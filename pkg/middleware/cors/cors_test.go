package cors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func serve(origins []string, method, origin string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(New(origins))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(method, "/ping", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCORSAllowList(t *testing.T) {
	allowed := serve([]string{"https://planner.test/"}, http.MethodGet, "https://planner.test")
	assert.Equal(t, http.StatusOK, allowed.Code)
	assert.Equal(t, "https://planner.test", allowed.Header().Get("Access-Control-Allow-Origin"))

	denied := serve([]string{"https://planner.test"}, http.MethodGet, "https://evil.test")
	assert.Empty(t, denied.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSAllowAllAndPreflight(t *testing.T) {
	w := serve(nil, http.MethodGet, "")
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	preflight := serve(nil, http.MethodOptions, "https://any.test")
	assert.Equal(t, http.StatusNoContent, preflight.Code)
	assert.Equal(t, "https://any.test", preflight.Header().Get("Access-Control-Allow-Origin"))
}
