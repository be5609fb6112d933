package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"autoinject/internal/engine/inject"
	"autoinject/internal/engine/parser"
	"autoinject/internal/shared/observability"

	"github.com/go-json-experiment/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	sharedParser     *parser.Parser
	sharedParserErr  error
	sharedParserOnce sync.Once
)

type transformerFunc func(code, id string) *inject.Result

func (f transformerFunc) TransformSource(_ context.Context, code, id string) *inject.Result {
	return f(code, id)
}

type staticHealth struct{}

func (staticHealth) Check(context.Context) observability.HealthStatus {
	return observability.HealthStatus{Status: "up", Timestamp: time.Now(), Components: map[string]string{"parser": "ok"}}
}

func newInjectTransformer(t *testing.T) Transformer {
	t.Helper()
	sharedParserOnce.Do(func() { sharedParser, sharedParserErr = parser.New() })
	require.NoError(t, sharedParserErr)

	tr, err := inject.NewTransformer(inject.Options{
		Bindings: map[string]inject.Target{
			"ref":    {Module: "vue-reactivity"},
			"icons.": {Module: "icon-lib", Export: inject.ExportNamespace},
		},
	}, sharedParser)
	require.NoError(t, err)
	return transformerFunc(tr.Transform)
}

func newTestServer(t *testing.T, tr Transformer, rate float64, burst int) *httptest.Server {
	t.Helper()
	s, err := New(tr, Options{Rate: rate, Burst: burst, Health: staticHealth{}})
	require.NoError(t, err)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		s.limiters.Close()
	})
	return ts
}

func post(t *testing.T, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(url+"/v1/transform", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.UnmarshalRead(resp.Body, &out))
	return resp, out
}

func TestLoadSpec(t *testing.T) {
	doc, err := LoadSpec()
	require.NoError(t, err)
	assert.NotNil(t, doc.Paths.Find("/v1/transform"))
}

func TestTransform_Rewritten(t *testing.T) {
	ts := newTestServer(t, newInjectTransformer(t), 0, 1)

	resp, out := post(t, ts.URL, `{"code":"ref(icons.Home)","id":"/src/a.js"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	assert.Equal(t, true, out["changed"])
	assert.Equal(t, "rewritten", out["status"])
	assert.Equal(t,
		"import { default as ref } from 'vue-reactivity';\n\nimport * as $inject_icons from 'icon-lib';\n\nref($inject_icons.Home)",
		out["code"])

	imports, ok := out["imports"].([]any)
	require.True(t, ok)
	require.Len(t, imports, 2)
	first := imports[0].(map[string]any)
	assert.Equal(t, "vue-reactivity", first["module"])
	assert.Equal(t, "default", first["export"])
	assert.Equal(t, "ref", first["local"])

	sm, ok := out["map"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(3), sm["version"])
	assert.Equal(t, []any{"/src/a.js"}, sm["sources"])
}

func TestTransform_Unchanged(t *testing.T) {
	ts := newTestServer(t, newInjectTransformer(t), 0, 1)

	resp, out := post(t, ts.URL, `{"code":"const ref = 1; ref;","id":"/src/a.js"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, out["changed"])
	assert.Equal(t, "unchanged", out["status"])
	assert.NotContains(t, out, "code")
	assert.NotContains(t, out, "map")
	assert.Equal(t, []any{}, out["imports"])
}

func TestTransform_Warning(t *testing.T) {
	ts := newTestServer(t, newInjectTransformer(t), 0, 1)

	resp, out := post(t, ts.URL, `{"code":"ref( {","id":"/src/broken.js"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "warned", out["status"])
	assert.Contains(t, out["warning"], "failed to parse /src/broken.js")
}

func TestTransform_ValidationErrors(t *testing.T) {
	called := false
	tr := transformerFunc(func(code, id string) *inject.Result {
		called = true
		return &inject.Result{Status: inject.StatusSkipped}
	})
	ts := newTestServer(t, tr, 0, 1)

	tests := []struct {
		name string
		body string
	}{
		{name: "missing id", body: `{"code":"ref()"}`},
		{name: "empty id", body: `{"code":"ref()","id":""}`},
		{name: "wrong type", body: `{"code":1,"id":"a.js"}`},
		{name: "unknown field", body: `{"code":"","id":"a.js","extra":true}`},
		{name: "not json", body: `ref()`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, out := post(t, ts.URL, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.NotEmpty(t, out["error"])
		})
	}
	assert.False(t, called)
}

func TestRouting(t *testing.T) {
	ts := newTestServer(t, newInjectTransformer(t), 0, 1)

	resp, err := http.Get(ts.URL + "/v1/transform")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, err = http.Post(ts.URL+"/v1/other", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRateLimit(t *testing.T) {
	tr := transformerFunc(func(code, id string) *inject.Result {
		return &inject.Result{Status: inject.StatusSkipped}
	})
	ts := newTestServer(t, tr, 0.001, 1)

	resp, _ := post(t, ts.URL, `{"code":"","id":"a.js"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, out := post(t, ts.URL, `{"code":"","id":"a.js"}`)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("Retry-After"))
	assert.Equal(t, "rate limit exceeded", out["error"])
}
