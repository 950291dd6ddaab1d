package cloud

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler, opts ...Option) (*Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL+"/api/v2", BearerCredentials{Token: "tok"}, zerolog.Nop(), opts...)
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return client, server
}

func jsonHandler(t *testing.T, routes map[string]func(body map[string]any) (int, any)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route, ok := routes[strings.TrimPrefix(r.URL.Path, "/api/v2/")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]any{"success": false, "errors": []string{"unknown endpoint " + r.URL.Path}})
			return
		}

		body := map[string]any{}
		if r.Method == http.MethodPost {
			json.NewDecoder(r.Body).Decode(&body)
		}
		status, resp := route(body)
		w.WriteHeader(status)
		assert.NoError(t, json.NewEncoder(w).Encode(resp))
	})
}

func TestClientProjects(t *testing.T) {
	client, _ := newTestClient(t, jsonHandler(t, map[string]func(map[string]any) (int, any){
		"projects/create": func(body map[string]any) (int, any) {
			return http.StatusOK, map[string]any{
				"success":  true,
				"projects": []map[string]any{{"projectId": 1, "name": body["name"], "language": body["language"]}},
			}
		},
		"projects/read": func(body map[string]any) (int, any) {
			if body["projectId"] != nil {
				assert.EqualValues(t, 1, body["projectId"])
				return http.StatusOK, map[string]any{"success": true, "projects": []map[string]any{{"projectId": 1, "name": "T"}}}
			}
			return http.StatusOK, map[string]any{"success": true, "projects": []map[string]any{{"projectId": 1}, {"projectId": 2}}}
		},
		"projects/delete": func(body map[string]any) (int, any) {
			return http.StatusNotFound, map[string]any{"success": false, "errors": []string{"Project not found"}}
		},
	}))
	ctx := context.Background()

	project, err := client.CreateProject(ctx, CreateProjectRequest{Name: "T", Language: LanguagePython})
	require.NoError(t, err)
	assert.Equal(t, "T", project.Name)
	assert.Equal(t, LanguagePython, project.Language)

	read, err := client.ReadProject(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, read.ProjectID)

	all, err := client.ListProjects(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	err = client.DeleteProject(ctx, 9)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRequestFailed)
	assert.Contains(t, err.Error(), "DeleteProject")
	assert.Contains(t, err.Error(), "Project not found")
}

func TestClientFailureNamesMethod(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":false,"message":"boom"}`))
	}))
	ctx := context.Background()

	calls := map[string]func() error{
		"Authenticate":  func() error { return client.Authenticate(ctx) },
		"CreateProject": func() error { _, err := client.CreateProject(ctx, CreateProjectRequest{Name: "x"}); return err },
		"ReadProject":   func() error { _, err := client.ReadProject(ctx, 1); return err },
		"ListProjects":  func() error { _, err := client.ListProjects(ctx); return err },
		"UpdateProject": func() error { return client.UpdateProject(ctx, UpdateProjectRequest{ProjectID: 1}) },
		"AddProjectFile": func() error {
			return client.AddProjectFile(ctx, CreateFileRequest{ProjectID: 1, Name: "main.py"})
		},
		"ReadProjectFiles":  func() error { _, err := client.ReadProjectFiles(ctx, 1); return err },
		"RenameProjectFile": func() error { return client.RenameProjectFile(ctx, RenameFileRequest{ProjectID: 1}) },
		"UpdateProjectFileContent": func() error {
			return client.UpdateProjectFileContent(ctx, UpdateFileContentRequest{ProjectID: 1})
		},
		"DeleteProjectFile": func() error { return client.DeleteProjectFile(ctx, DeleteFileRequest{ProjectID: 1}) },
		"CreateCompile":     func() error { _, err := client.CreateCompile(ctx, 1); return err },
		"ReadCompile":       func() error { _, err := client.ReadCompile(ctx, 1, "c"); return err },
		"CreateBacktest": func() error {
			_, err := client.CreateBacktest(ctx, CreateBacktestRequest{ProjectID: 1})
			return err
		},
		"ReadBacktest":       func() error { _, err := client.ReadBacktest(ctx, 1, "b"); return err },
		"ListBacktests":      func() error { _, err := client.ListBacktests(ctx, 1); return err },
		"UpdateBacktest":     func() error { return client.UpdateBacktest(ctx, UpdateBacktestRequest{ProjectID: 1}) },
		"DeleteBacktest":     func() error { return client.DeleteBacktest(ctx, 1, "b") },
		"ReadBacktestReport": func() error { _, err := client.ReadBacktestReport(ctx, 1, "b"); return err },
		"CreateLiveAlgorithm": func() error {
			_, err := client.CreateLiveAlgorithm(ctx, CreateLiveRequest{ProjectID: 1})
			return err
		},
		"ListLiveAlgorithms":     func() error { _, err := client.ListLiveAlgorithms(ctx, ReadLiveRequest{}); return err },
		"StopLiveAlgorithm":      func() error { return client.StopLiveAlgorithm(ctx, 1) },
		"LiquidateLiveAlgorithm": func() error { return client.LiquidateLiveAlgorithm(ctx, 1) },
		"ReadLiveLogs": func() error {
			_, err := client.ReadLiveLogs(ctx, ReadLiveLogRequest{ProjectID: 1})
			return err
		},
		"ReadDataLink": func() error { _, err := client.ReadDataLink(ctx, ReadDataRequest{FilePath: "x"}); return err },
	}

	for name, fn := range calls {
		t.Run(name, func(t *testing.T) {
			err := fn()
			require.Error(t, err)
			assert.Contains(t, err.Error(), name)

			var opErr *OperationError
			require.True(t, errors.As(err, &opErr))
			assert.Equal(t, name, opErr.Op)
			assert.Equal(t, "boom", opErr.Message)
		})
	}
}

func TestClientCompileAndBacktest(t *testing.T) {
	client, _ := newTestClient(t, jsonHandler(t, map[string]func(map[string]any) (int, any){
		"compile/create": func(body map[string]any) (int, any) {
			return http.StatusOK, map[string]any{"success": true, "compileId": "c-1", "state": "InQueue", "logs": []string{"Compilation started"}}
		},
		"backtests/create": func(body map[string]any) (int, any) {
			assert.Equal(t, "c-1", body["compileId"])
			assert.Equal(t, "First", body["backtestName"])
			return http.StatusOK, map[string]any{"success": true, "backtestId": "b-1", "name": "First", "completed": false}
		},
		"backtests/read": func(body map[string]any) (int, any) {
			if body["backtestId"] == nil {
				return http.StatusOK, map[string]any{"success": true, "backtests": []map[string]any{{"backtestId": "b-1"}}}
			}
			return http.StatusOK, map[string]any{
				"success":    true,
				"backtestId": "b-1",
				"completed":  true,
				"progress":   1.0,
				"result": map[string]any{
					"TotalPerformance": map[string]any{
						"TradeStatistics":     map[string]any{"TotalNumberOfTrades": 25, "WinRate": 0.68},
						"PortfolioStatistics": map[string]any{"TotalNetProfit": 0.15, "SharpeRatio": 1.2},
					},
				},
			}
		},
		"backtests/read/report": func(body map[string]any) (int, any) {
			return http.StatusOK, map[string]any{"success": true, "report": "<html></html>"}
		},
	}))
	ctx := context.Background()

	compile, err := client.CreateCompile(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "c-1", compile.CompileID)
	assert.Equal(t, CompileInQueue, compile.State)

	backtest, err := client.CreateBacktest(ctx, CreateBacktestRequest{ProjectID: 1, CompileID: compile.CompileID, BacktestName: "First"})
	require.NoError(t, err)
	assert.Equal(t, "b-1", backtest.BacktestID)

	read, err := client.ReadBacktest(ctx, 1, "b-1")
	require.NoError(t, err)
	assert.True(t, read.Completed)
	assert.Equal(t, 25, read.Trades())
	assert.InDelta(t, 0.68, read.WinRate(), 1e-9)
	assert.InDelta(t, 1.2, read.SharpeRatio(), 1e-9)

	list, err := client.ListBacktests(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	report, err := client.ReadBacktestReport(ctx, 1, "b-1")
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", report)
}

func TestClientLive(t *testing.T) {
	client, _ := newTestClient(t, jsonHandler(t, map[string]func(map[string]any) (int, any){
		"live/create": func(body map[string]any) (int, any) {
			settings := body["baseLiveAlgorithmSettings"].(map[string]any)
			assert.Equal(t, "PaperBrokerage", settings["id"])
			return http.StatusOK, map[string]any{"success": true, "projectId": 1, "deployId": "d-1", "status": "Running"}
		},
		"live/read": func(body map[string]any) (int, any) {
			return http.StatusOK, map[string]any{"success": true, "Algorithms": []map[string]any{
				{"projectId": 1, "deployId": "d-0", "status": "Stopped"},
				{"projectId": 1, "deployId": "d-1", "status": "Running"},
			}}
		},
		"live/read/log": func(body map[string]any) (int, any) {
			return http.StatusOK, map[string]any{"success": true, "LiveLogs": []string{"a", "b"}}
		},
		"live/update/stop": func(body map[string]any) (int, any) {
			return http.StatusOK, map[string]any{"success": true}
		},
	}))
	ctx := context.Background()

	live, err := client.CreateLiveAlgorithm(ctx, CreateLiveRequest{
		ProjectID:                 1,
		CompileID:                 "c-1",
		ServerType:                "test-server",
		BaseLiveAlgorithmSettings: BrokerageSettings{ID: "PaperBrokerage"},
	})
	require.NoError(t, err)
	assert.Equal(t, "d-1", live.DeployID)
	assert.Equal(t, LiveRunning, live.Status)

	read, err := client.ReadLiveAlgorithm(ctx, 1, "d-1")
	require.NoError(t, err)
	assert.Equal(t, LiveRunning, read.Status)

	_, err = client.ReadLiveAlgorithm(ctx, 1, "missing")
	assert.ErrorIs(t, err, ErrRequestFailed)

	logs, err := client.ReadLiveLogs(ctx, ReadLiveLogRequest{ProjectID: 1, AlgorithmID: "d-1", End: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, logs)

	require.NoError(t, client.StopLiveAlgorithm(ctx, 1))
}

func TestClientDownload(t *testing.T) {
	var authHeaders atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/files/ok.csv", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			authHeaders.Add(1)
		}
		w.Write([]byte("a,b\n1,2\n"))
	})
	mux.HandleFunc("/files/missing.csv", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	client, server := newTestClient(t, mux, WithPoolSize(2))
	ctx := context.Background()

	assert.Equal(t, "a,b\n1,2\n", client.DownloadString(ctx, server.URL+"/files/ok.csv"))
	assert.Equal(t, int32(1), authHeaders.Load())

	missing := client.Download(ctx, server.URL+"/files/missing.csv")
	assert.NotNil(t, missing)
	assert.Empty(t, missing)

	assert.Empty(t, client.Download(ctx, "://not a url"))
	assert.Equal(t, 0, client.Pool().InUse())
}

func TestClientDownloadAll(t *testing.T) {
	var current, peak atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/data/", func(w http.ResponseWriter, r *http.Request) {
		n := current.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		current.Add(-1)
		w.Write([]byte(r.URL.Path))
	})

	client, server := newTestClient(t, mux, WithPoolSize(2))

	var urls []string
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		urls = append(urls, server.URL+"/data/"+name)
	}

	results := client.DownloadAll(context.Background(), urls)
	require.Len(t, results, len(urls))
	assert.Equal(t, "/data/c", string(results[server.URL+"/data/c"]))
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestClientDownloadData(t *testing.T) {
	var serverURL string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2/data/read", func(w http.ResponseWriter, r *http.Request) {
		var req ReadDataRequest
		json.NewDecoder(r.Body).Decode(&req)
		assert.Equal(t, "link", req.Format)
		json.NewEncoder(w).Encode(map[string]any{"success": true, "link": serverURL + "/blob/" + req.FilePath})
	})
	mux.HandleFunc("/blob/equity/spy.csv", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("spy"))
	})

	client, server := newTestClient(t, mux)
	serverURL = server.URL

	assert.Equal(t, []byte("spy"), client.DownloadData(context.Background(), ReadDataRequest{FilePath: "equity/spy.csv"}))
	assert.Empty(t, client.DownloadData(context.Background(), ReadDataRequest{FilePath: "equity/qqq.csv"}))
}

func TestClientUnsupportedOperations(t *testing.T) {
	client, _ := newTestClient(t, http.NotFoundHandler())
	ctx := context.Background()

	account, err := client.ReadAccount(ctx)
	require.NoError(t, err)
	assert.Equal(t, &Account{}, account)

	optimizations, err := client.ListOptimizations(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, optimizations)

	chart, err := client.ReadBacktestChart(ctx, 1, "b", "Equity")
	require.NoError(t, err)
	assert.Equal(t, "Equity", chart.Name)

	insights, err := client.ReadBacktestInsights(ctx, 1, "b")
	require.NoError(t, err)
	assert.Empty(t, insights)

	entries, err := client.ReadObjectStore(ctx, []string{"k"})
	require.NoError(t, err)
	assert.Empty(t, entries)

	org, err := client.ReadOrganization(ctx, "org")
	require.NoError(t, err)
	assert.Equal(t, "org", org.ID)

	assert.NoError(t, client.CreateLiveCommand(ctx, 1, map[string]any{"$type": "noop"}))
}

func TestOperationError(t *testing.T) {
	err := &OperationError{Op: "CreateCompile", Endpoint: "compile/create", Message: "Project not found"}
	assert.Equal(t, "CreateCompile: cloud API request failed (compile/create): Project not found", err.Error())
	assert.ErrorIs(t, err, ErrRequestFailed)

	bare := &OperationError{Op: "Authenticate", Endpoint: "authenticate"}
	assert.Equal(t, "Authenticate: cloud API request failed (authenticate)", bare.Error())
}

// Bodies below are shaped like those of a Python backend that stamps records
// with datetime.isoformat(), which carries no zone.
func TestClientDecodesNaiveTimestamps(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v2/projects/create":
			w.Write([]byte(`{"success": true, "errors": [], "projects": [{"projectId": 1, "name": "T", "language": "Py",
				"created": "2025-10-14T03:58:00.123456", "modified": "2025-10-14T03:58:00.123456"}]}`))
		case "/api/v2/files/read":
			w.Write([]byte(`{"success": true, "errors": [], "files": [{"name": "main.py", "content": "x",
				"modified": "2025-10-14T04:00:01.5"}]}`))
		case "/api/v2/backtests/read":
			w.Write([]byte(`{"success": true, "errors": [], "backtestId": "b-1", "name": "T backtest", "completed": true,
				"progress": 1.0, "error": "", "stacktrace": "", "created": "2025-10-14T04:01:00.000001"}`))
		case "/api/v2/live/read":
			w.Write([]byte(`{"success": true, "errors": [], "Algorithms": [{"projectId": 1, "deployId": "d-1",
				"status": "Running", "launched": "2025-10-14 04:02:00", "stopped": null}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	ctx := context.Background()

	project, err := client.CreateProject(ctx, CreateProjectRequest{Name: "T", Language: LanguagePython})
	require.NoError(t, err)
	assert.Equal(t, "T", project.Name)
	assert.True(t, project.Created.Equal(time.Date(2025, 10, 14, 3, 58, 0, 123456000, time.UTC)), "created = %v", project.Created)

	files, err := client.ReadProjectFiles(ctx, 1)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, 500*time.Millisecond, time.Duration(files[0].Modified.Nanosecond()))

	backtest, err := client.ReadBacktest(ctx, 1, "b-1")
	require.NoError(t, err)
	assert.Equal(t, 2025, backtest.Created.Year())

	algorithms, err := client.ListLiveAlgorithms(ctx, ReadLiveRequest{ProjectID: 1})
	require.NoError(t, err)
	require.Len(t, algorithms, 1)
	assert.Equal(t, 4, algorithms[0].Launched.Hour())
	assert.Nil(t, algorithms[0].Stopped)
}
