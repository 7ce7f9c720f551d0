package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const testToken = "sk-author-test"

func envelope(t *testing.T, w http.ResponseWriter, status int, data any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	assert.NoError(t, json.NewEncoder(w).Encode(map[string]any{"code": 0, "data": data, "msg": ""}))
}

func run(t *testing.T, srv *httptest.Server, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	if srv != nil {
		args = append(args, "--server", srv.URL, "--token", testToken)
	}
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, nil, "version")
	require.NoError(t, err)
	assert.Equal(t, "canvasctl version dev\n", out)
}

func TestClientRequiresToken(t *testing.T) {
	t.Setenv("CANVASCTL_TOKEN", "")
	root := newRootCmd()
	root.SetOut(io.Discard)
	root.SetArgs([]string{"export", uuid.NewString(), "--server", "http://127.0.0.1:1"})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "author token is required")
}

func TestInvalidProjectID(t *testing.T) {
	_, err := run(t, nil, "contributions", "not-a-uuid", "--token", testToken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid project id")
}

func TestExport(t *testing.T) {
	projectID := uuid.New()
	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg"></svg>`)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/projects/"+projectID.String()+"/export", r.URL.Path)
		assert.Equal(t, "Bearer "+testToken, r.Header.Get("Authorization"))
		assert.Equal(t, "svg", r.URL.Query().Get("format"))
		w.Header().Set("Content-Type", "image/svg+xml")
		_, _ = w.Write(svg)
	}))
	defer srv.Close()

	t.Run("stdout", func(t *testing.T) {
		out, err := run(t, srv, "export", projectID.String(), "-f", "svg", "-o", "-")
		require.NoError(t, err)
		assert.Equal(t, string(svg), out)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "art.svg")
		out, err := run(t, srv, "export", projectID.String(), "-f", "svg", "-o", path)
		require.NoError(t, err)
		assert.Contains(t, out, "wrote "+path)

		got, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, svg, got)
	})
}

func TestExportServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"code":404,"msg":"project not found"}`))
	}))
	defer srv.Close()

	_, err := run(t, srv, "export", uuid.NewString(), "-o", "-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "project not found")
}

func TestExtensionFor(t *testing.T) {
	assert.Equal(t, ".wav", extensionFor("audio/wav", "wav"))
	assert.Equal(t, ".png", extensionFor("image/png", ""))
	assert.Equal(t, ".bin", extensionFor("application/x-nothing", ""))
}

func TestContributions(t *testing.T) {
	projectID := uuid.New()
	items := []map[string]any{
		{"id": 1, "project_id": projectID, "canvas_type": "Mosaic", "payload": map[string]any{"x": 1, "y": 2, "color": "#ff0000"}},
		{"id": 2, "project_id": projectID, "canvas_type": "Mosaic", "payload": map[string]any{"x": 3, "y": 4, "color": "#00ff00"}},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/projects/" + projectID.String() + "/contributions/all":
			envelope(t, w, http.StatusOK, items)
		case "/api/v1/projects/" + projectID.String() + "/contributions":
			assert.Equal(t, "1", r.URL.Query().Get("limit"))
			assert.Equal(t, "abc", r.URL.Query().Get("cursor"))
			envelope(t, w, http.StatusOK, map[string]any{"items": items[:1], "next_cursor": "def", "has_more": true})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	t.Run("all as yaml", func(t *testing.T) {
		out, err := run(t, srv, "contributions", projectID.String(), "-o", "yaml")
		require.NoError(t, err)

		var doc []map[string]any
		require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
		require.Len(t, doc, 2)
		assert.Equal(t, 1, doc[0]["id"])
		assert.Equal(t, "Mosaic", doc[1]["canvas_type"])
	})

	t.Run("page as json", func(t *testing.T) {
		out, err := run(t, srv, "ls", projectID.String(), "--limit", "1", "--cursor", "abc")
		require.NoError(t, err)

		var page struct {
			Items      []map[string]any `json:"items"`
			NextCursor string           `json:"next_cursor"`
			HasMore    bool             `json:"has_more"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &page))
		assert.Len(t, page.Items, 1)
		assert.Equal(t, "def", page.NextCursor)
		assert.True(t, page.HasMore)
	})

	t.Run("unsupported output", func(t *testing.T) {
		_, err := run(t, srv, "contributions", projectID.String(), "-o", "toml")
		require.Error(t, err)
	})
}

func TestPrintDoc(t *testing.T) {
	v := struct {
		Name  string `json:"name"`
		Count int    `json:"count,omitempty"`
	}{Name: "mosaic"}

	var js bytes.Buffer
	require.NoError(t, printDoc(&js, "json", v))
	assert.Equal(t, "{\n  \"name\": \"mosaic\"\n}\n", js.String())

	var ym bytes.Buffer
	require.NoError(t, printDoc(&ym, "yaml", v))
	assert.Equal(t, "name: mosaic\n", ym.String())
}

func TestSubmit(t *testing.T) {
	projectID := uuid.New()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/contributions", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, projectID.String(), req["project_id"])
		assert.Equal(t, "Mosaic", req["canvas_type"])
		assert.NotEmpty(t, req["client_ref"])

		envelope(t, w, http.StatusOK, map[string]any{
			"contribution": map[string]any{"id": 7, "project_id": projectID, "canvas_type": "Mosaic"},
			"project": map[string]any{
				"id": projectID, "title": "Wall", "canvas_type": "Mosaic",
				"completion_percentage": 1, "contributor_count": 1, "status": "Active",
			},
		})
	}))
	defer srv.Close()

	t.Run("committed", func(t *testing.T) {
		out, err := run(t, srv, "submit", projectID.String(), "-t", "Mosaic", "-p", `{"x":3,"y":4,"color":"#ff8800"}`)
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(out), "\n")
		require.Len(t, lines, 2)
		assert.Equal(t, "contribution 7 committed", lines[0])
		assert.Equal(t, "project Wall: 1% complete, 1 contributors, Active", lines[1])
	})

	t.Run("unknown type is rejected locally", func(t *testing.T) {
		_, err := run(t, srv, "submit", projectID.String(), "-t", "Fresco", "-p", `{}`)
		require.Error(t, err)
	})

	t.Run("invalid payload is rejected locally", func(t *testing.T) {
		_, err := run(t, srv, "submit", projectID.String(), "-t", "Mosaic", "-p", `{"x":99,"y":4,"color":"#ff8800"}`)
		require.Error(t, err)
	})
}
