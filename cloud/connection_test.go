package cloud

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConnection(t *testing.T, handler http.HandlerFunc, creds Credentials, opts ...Option) *Connection {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	conn, err := NewConnection(server.URL+"/api/v2/", creds, zerolog.Nop(), opts...)
	require.NoError(t, err)
	return conn
}

func TestNewConnection(t *testing.T) {
	creds := BearerCredentials{Token: "tok"}

	tests := []struct {
		name    string
		baseURL string
		creds   Credentials
		wantErr bool
	}{
		{"valid", "http://localhost:5001/api/v2", creds, false},
		{"trailing slash", "http://localhost:5001/api/v2/", creds, false},
		{"missing URL", "", creds, true},
		{"relative URL", "api/v2", creds, true},
		{"missing credentials", "http://localhost:5001", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, err := NewConnection(tt.baseURL, tt.creds, zerolog.Nop())
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "http://localhost:5001/api/v2", conn.BaseURL())
		})
	}
}

func TestConnectionHeaders(t *testing.T) {
	tests := []struct {
		name  string
		creds Credentials
		check func(t *testing.T, r *http.Request)
	}{
		{
			name:  "bearer only",
			creds: NewCredentials("42", "tok", "", ""),
			check: func(t *testing.T, r *http.Request) {
				assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
				assert.Empty(t, r.Header.Get(HeaderAPIKey))
				assert.Empty(t, r.Header.Get(HeaderAPISecret))
			},
		},
		{
			name:  "key and secret",
			creds: NewCredentials("42", "", "key", "secret"),
			check: func(t *testing.T, r *http.Request) {
				assert.Empty(t, r.Header.Get("Authorization"))
				assert.Equal(t, "key", r.Header.Get(HeaderAPIKey))
				assert.Equal(t, "secret", r.Header.Get(HeaderAPISecret))
			},
		},
		{
			name:  "neither",
			creds: NewCredentials("42", "", "", ""),
			check: func(t *testing.T, r *http.Request) {
				expected := "Basic " + base64.StdEncoding.EncodeToString([]byte("42:"))
				assert.Equal(t, expected, r.Header.Get("Authorization"))
				assert.Empty(t, r.Header.Get(HeaderAPIKey))
				assert.Empty(t, r.Header.Get(HeaderAPISecret))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured *http.Request
			conn := newTestConnection(t, func(w http.ResponseWriter, r *http.Request) {
				captured = r.Clone(context.Background())
				w.Write([]byte(`{"success":true}`))
			}, tt.creds)

			var resp RestResponse
			ok := conn.Request(context.Background(), "projects/read", ReadProjectRequest{}, &resp)
			require.True(t, ok)
			require.NotNil(t, captured)

			assert.Equal(t, "application/json", captured.Header.Get("Content-Type"))
			assert.Equal(t, DefaultUserAgent, captured.Header.Get("User-Agent"))
			tt.check(t, captured)
		})
	}
}

func TestConnectionRequest(t *testing.T) {
	t.Run("encodes body and decodes typed response", func(t *testing.T) {
		conn := newTestConnection(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/api/v2/projects/create", r.URL.Path)

			body, _ := io.ReadAll(r.Body)
			var req CreateProjectRequest
			require.NoError(t, json.Unmarshal(body, &req))
			assert.Equal(t, "T", req.Name)
			assert.Equal(t, LanguagePython, req.Language)

			json.NewEncoder(w).Encode(map[string]any{
				"success":  true,
				"projects": []map[string]any{{"projectId": 7, "name": "T", "language": "Py"}},
			})
		}, BearerCredentials{Token: "tok"})

		var resp ProjectResponse
		ok := conn.Request(context.Background(), "/projects/create", CreateProjectRequest{Name: "T", Language: LanguagePython}, &resp)
		require.True(t, ok)
		require.Len(t, resp.Projects, 1)
		assert.Equal(t, 7, resp.Projects[0].ProjectID)
	})

	t.Run("non-2xx with JSON body populates message", func(t *testing.T) {
		conn := newTestConnection(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"success":false,"message":"Project not found","errors":["Project not found"]}`))
		}, BearerCredentials{Token: "tok"})

		var resp ProjectResponse
		ok := conn.Request(context.Background(), "projects/read", ReadProjectRequest{ProjectID: 99}, &resp)
		assert.False(t, ok)
		assert.Equal(t, "Project not found", resp.Message)
		assert.Equal(t, "Project not found", resp.Failure())
	})

	t.Run("malformed JSON on success status", func(t *testing.T) {
		conn := newTestConnection(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success":tru`))
		}, BearerCredentials{Token: "tok"})

		var resp ProjectResponse
		assert.NotPanics(t, func() {
			ok := conn.Request(context.Background(), "projects/read", nil, &resp)
			assert.False(t, ok)
		})
		assert.False(t, resp.Success)
		assert.Nil(t, resp.Projects)
	})

	t.Run("malformed JSON on error status", func(t *testing.T) {
		conn := newTestConnection(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`<html>oops</html>`))
		}, BearerCredentials{Token: "tok"})

		var resp RestResponse
		assert.False(t, conn.Request(context.Background(), "projects/read", nil, &resp))
	})

	t.Run("success false on 200", func(t *testing.T) {
		conn := newTestConnection(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success":false,"errors":["Compile job not found"]}`))
		}, BearerCredentials{Token: "tok"})

		var resp CompileResponse
		assert.False(t, conn.Request(context.Background(), "compile/read", ReadCompileRequest{}, &resp))
		assert.Equal(t, "Compile job not found", resp.Failure())
	})

	t.Run("transport failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := server.URL
		server.Close()

		conn, err := NewConnection(url, BearerCredentials{Token: "tok"}, zerolog.Nop(), WithTimeout(time.Second))
		require.NoError(t, err)

		var resp RestResponse
		assert.False(t, conn.Request(context.Background(), "projects/read", nil, &resp))
	})

	t.Run("unencodable body", func(t *testing.T) {
		called := false
		conn := newTestConnection(t, func(w http.ResponseWriter, r *http.Request) {
			called = true
		}, BearerCredentials{Token: "tok"})

		var resp RestResponse
		assert.False(t, conn.Request(context.Background(), "projects/read", map[string]any{"bad": make(chan int)}, &resp))
		assert.False(t, called)
	})
}

func TestConnectionGet(t *testing.T) {
	conn := newTestConnection(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v2/authenticate", r.URL.Path)
		w.Write([]byte(`{"success":true,"message":"Authentication successful"}`))
	}, BearerCredentials{Token: "tok"})

	var resp RestResponse
	require.True(t, conn.Get(context.Background(), "authenticate", &resp))
	assert.Equal(t, "Authentication successful", resp.Message)
}

func TestConnectionCodec(t *testing.T) {
	conn := newTestConnection(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"unexpected":1}`))
	}, BearerCredentials{Token: "tok"}, WithCodec(JSONCodec{DisallowUnknownFields: true}))

	var resp RestResponse
	assert.False(t, conn.Request(context.Background(), "projects/read", nil, &resp))
}

func TestConnectionCustomUserAgent(t *testing.T) {
	conn := newTestConnection(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "engine/2.0", r.Header.Get("User-Agent"))
		w.Write([]byte(`{"success":true}`))
	}, BearerCredentials{Token: "tok"}, WithUserAgent("engine/2.0"))

	var resp RestResponse
	assert.True(t, conn.Request(context.Background(), "projects/read", nil, &resp))
}

func TestJSONCodec(t *testing.T) {
	data, err := JSONCodec{}.Marshal(CreateFileRequest{ProjectID: 1, Name: "main.py", Content: "a < b"})
	require.NoError(t, err)
	assert.Equal(t, `{"projectId":1,"name":"main.py","content":"a < b"}`, string(data))

	escaped, err := JSONCodec{EscapeHTML: true}.Marshal(map[string]string{"c": "<"})
	require.NoError(t, err)
	assert.Equal(t, `{"c":"\u003c"}`, string(escaped))
}
