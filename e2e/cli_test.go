package e2e_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/datathon/internal/api"
	"github.com/mcoot/datathon/internal/config"
	"github.com/mcoot/datathon/internal/factory"
	"github.com/mcoot/datathon/internal/web"
)

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath string
	serverURL  string
	tokenFile  string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()

	// Find project root (where go.mod is)
	projectRoot := findProjectRoot(t)

	// Build the CLI binary
	binaryPath := filepath.Join(t.TempDir(), "datactl-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/datactl")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	return &cliRunner{
		binaryPath: binaryPath,
		serverURL:  serverURL,
		tokenFile:  filepath.Join(t.TempDir(), "token"),
	}
}

func (r *cliRunner) run(args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--token-file", r.tokenFile,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	output, err := cmd.CombinedOutput()
	return string(output), err
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// testServer manages a real HTTP server for e2e tests
type testServer struct {
	app       *factory.App
	addr      string
	storePath string
	shutdown  func()
}

// startTestServer runs the full site with local file storage and local auth
func startTestServer(t *testing.T) *testServer {
	t.Helper()

	// Find a free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	storePath := filepath.Join(t.TempDir(), "data", "registrations.jsonl")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	// Create application
	app, err := factory.New(factory.Config{
		Persistence: config.LocalPersistence{Path: storePath},
		Auth: config.Auth{
			Enabled:      true,
			Provider:     config.ProviderLocal,
			JWTSecret:    "e2e-secret",
			AccountStore: config.AccountStoreMemory,
		},
		Logger: logger,
	})
	require.NoError(t, err)

	// Create routers
	apiRouter := api.NewRouter(api.RouterConfig{
		Logger:              logger,
		RegistrationService: app.RegistrationService,
		Gate:                app.Gate,
	})
	webRouter := web.NewRouter(web.RouterConfig{
		Logger:              logger,
		RegistrationService: app.RegistrationService,
		Gate:                app.Gate,
	})

	// Combine routers
	mux := http.NewServeMux()
	mux.Handle("/api/", apiRouter)
	mux.Handle("/", webRouter)

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Start server
	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	// Wait for server to be ready
	serverURL := "http://" + addr
	waitForServer(t, serverURL+"/health")

	return &testServer{
		app:       app,
		addr:      serverURL,
		storePath: storePath,
		shutdown: func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(ctx)
			_ = app.Close()
		},
	}
}

func waitForServer(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 100 * time.Millisecond}
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatal("server did not become ready in time")
}

// Response types for JSON parsing
type healthResponse struct {
	Status    string `json:"status"`
	Storage   string `json:"storage"`
	Connected bool   `json:"connected"`
}

type registrationResponse struct {
	ID            string `json:"id"`
	Participation string `json:"participation"`
	Backend       string `json:"backend"`
}

type recordResponse struct {
	ID               string `json:"id"`
	Email            string `json:"email"`
	SubmittedByEmail string `json:"submitted_by_email"`
	RegisteredAt     string `json:"registered_at"`
}

// Tests

func TestCLI_HealthCheck(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("health")
	require.NoError(t, err, "output: %s", output)

	var resp healthResponse
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, healthResponse{Status: "ok", Storage: "local", Connected: true}, resp)
}

func TestCLI_RegistrationFlow(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	_, err := ts.app.Gate.SignUp(t.Context(), "ann@x.com", "password123", "Ann")
	require.NoError(t, err)

	cli := newCLIRunner(t, ts.addr)

	// Login (token saved in token file)
	output, err := cli.run("login", "--email", "ann@x.com", "--password", "password123")
	require.NoError(t, err, "output: %s", output)

	submit := []string{
		"submit",
		"--name", "Ann",
		"--email", "ann@x.com",
		"--phone", "+91 98765 43210",
		"--university", "X",
		"--department", "CS",
		"--year", "3",
		"--problem", "PS2",
		"--consent",
	}

	output, err = cli.run(submit...)
	require.NoError(t, err, "output: %s", output)

	var reg registrationResponse
	require.NoError(t, json.Unmarshal([]byte(output), &reg))
	assert.NotEmpty(t, reg.ID)
	assert.Equal(t, "solo", reg.Participation)
	assert.Equal(t, "local", reg.Backend)

	// Second submission is blocked
	output, err = cli.run(submit...)
	require.Error(t, err)
	assert.Contains(t, output, "already registered")

	// The server appended exactly one line to the file
	output, err = cli.run("records", "--path", ts.storePath)
	require.NoError(t, err, "output: %s", output)

	var records []recordResponse
	require.NoError(t, json.Unmarshal([]byte(output), &records))
	require.Len(t, records, 1)
	assert.Equal(t, reg.ID, records[0].ID)
	assert.Equal(t, "ann@x.com", records[0].SubmittedByEmail)
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{6}Z$`, records[0].RegisteredAt)
}
