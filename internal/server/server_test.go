package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/graphmesh/graphmesh/internal/gateway"
	"github.com/graphmesh/graphmesh/internal/schema"
	"github.com/graphmesh/graphmesh/internal/subgraph"
	"github.com/graphmesh/graphmesh/internal/value"
)

func newTestHandler(t *testing.T, opts ...Option) *Handler {
	t.Helper()
	root := schema.NewType("Query", schema.TypeKindObject, "").
		AddField(schema.NewField("hello", "", schema.NamedType("String")))
	sch := schema.NewSchema("").WithBuiltins().SetQueryType("Query").AddType(root)
	exec := subgraph.NewMockValueExecutor(value.Object(value.Field("f0", value.String("world"))))

	gw, err := gateway.New([]*subgraph.SubGraph{subgraph.New("accounts", sch, exec)}, nil)
	require.NoError(t, err)
	h, err := New(gw, opts...)
	require.NoError(t, err)
	return h
}

func TestServeHTTP_Post(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest("POST", "/", bytes.NewBufferString(`{"query":"{ hello }"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"data":{"hello":"world"}}`, w.Body.String())
}

func TestServeHTTP_Get(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest("GET", "/?query="+strings.ReplaceAll("{ hello }", " ", "%20"), nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"data":{"hello":"world"}}`, w.Body.String())
}

func TestServeHTTP_Batch(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest("POST", "/", bytes.NewBufferString(`[{"query":"{ hello }"},{"query":"{ hello }"}]`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `[{"data":{"hello":"world"}},{"data":{"hello":"world"}}]`, w.Body.String())
}

func TestServeHTTP_MissingQuery(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest("POST", "/", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "missing 'query'")
}

func TestServeHTTP_BodyTooLarge(t *testing.T) {
	h := newTestHandler(t, WithMaxBodyBytes(8))
	req := httptest.NewRequest("POST", "/", bytes.NewBufferString(`{"query":"{ hello }"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestServeHTTP_MethodNotAllowed(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest("DELETE", "/", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestServeHTTP_UnsupportedContentType(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest("POST", "/", bytes.NewBufferString("query { hello }"))
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServeHTTP_CORS(t *testing.T) {
	h := newTestHandler(t, WithCORS("https://app.example"))
	req := httptest.NewRequest("OPTIONS", "/", nil)
	req.Header.Set("Origin", "https://app.example")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestServeHTTP_GraphiQL(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Accept", "text/html")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Header().Get("Content-Type"), "text/html")
	require.Contains(t, w.Body.String(), "GraphiQL")
}
