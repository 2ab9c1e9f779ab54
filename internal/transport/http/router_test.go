package http_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mtgserver/internal/engine/catalog"
	"mtgserver/internal/engine/effect"
	"mtgserver/internal/engine/eventlog"
	"mtgserver/internal/engine/registry"
	transporthttp "mtgserver/internal/transport/http"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return transporthttp.NewRouter(transporthttp.Deps{
		Registry: registry.New(),
		Store:    eventlog.NewMemoryStore(),
		Catalog:  catalog.NewStatic(nil),
		Effects:  effect.NewRegistry(),
	})
}

func TestHealthCheckReturns200(t *testing.T) {
	r := newTestRouter()
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/health", nil)

	r.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
}

func TestCreateGameReturns201WithGameID(t *testing.T) {
	r := newTestRouter()
	body, _ := json.Marshal(map[string]interface{}{"format": "standard"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/games", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	r.ServeHTTP(w, req)

	require.Equal(t, 201, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["gameId"])
}

func TestCreateGameMissingFormatReturns400(t *testing.T) {
	r := newTestRouter()
	body, _ := json.Marshal(map[string]interface{}{})
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/games", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	r.ServeHTTP(w, req)

	assert.Equal(t, 400, w.Code)
}

func TestListGamesReturnsCreatedGames(t *testing.T) {
	r := newTestRouter()
	body, _ := json.Marshal(map[string]interface{}{"format": "standard"})
	createReq := httptest.NewRequest("POST", "/api/v1/games", bytes.NewReader(body))
	createReq.Header.Set("Content-Type", "application/json")
	createW := httptest.NewRecorder()
	r.ServeHTTP(createW, createReq)
	require.Equal(t, 201, createW.Code)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/games", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, 200, w.Code)
	var resp map[string][]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp["games"], 1)
}

func TestGetGameUnknownIDReturns404(t *testing.T) {
	r := newTestRouter()
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/games/missing", nil)

	r.ServeHTTP(w, req)

	assert.Equal(t, 404, w.Code)
}

func TestGetGameReturnsProjectedView(t *testing.T) {
	r := newTestRouter()
	body, _ := json.Marshal(map[string]interface{}{"format": "standard", "startingLife": 20})
	createReq := httptest.NewRequest("POST", "/api/v1/games", bytes.NewReader(body))
	createReq.Header.Set("Content-Type", "application/json")
	createW := httptest.NewRecorder()
	r.ServeHTTP(createW, createReq)
	var created map[string]string
	require.NoError(t, json.Unmarshal(createW.Body.Bytes(), &created))

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/games/"+created["gameId"], nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
}
