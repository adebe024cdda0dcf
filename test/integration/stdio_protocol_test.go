package integration_test

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/ganot/neosearch/internal/testserver"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

func binaryPath(t *testing.T) string {
	t.Helper()
	for _, path := range []string{"./bin/neosearch", "../../bin/neosearch"} {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	t.Skip("neosearch binary not found. Run 'go build -o bin/neosearch ./cmd/neosearch' first.")
	return ""
}

func mcpCommand(ctx context.Context, t *testing.T, backend *testserver.TestServer) *exec.Cmd {
	t.Helper()
	cmd := exec.CommandContext(ctx, binaryPath(t))
	cmd.Env = append(os.Environ(),
		"NEOSEARCH_MODE=mcp",
		"NEOSEARCH_JOURNAL_PATH=:memory:",
		"NEOSEARCH_API_URL="+backend.URL(),
		"NEOSEARCH_API_TOKEN="+token,
	)
	return cmd
}

// TestStdioProtocolCompliance drives the binary over stdio with the SDK client.
func TestStdioProtocolCompliance(t *testing.T) {
	backend := testserver.New(t, token)
	seeded := backend.Seed("Seeded")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)
	session, err := client.Connect(ctx, &sdkmcp.CommandTransport{Command: mcpCommand(ctx, t, backend)}, nil)
	require.NoError(t, err, "Failed to connect to server")
	defer session.Close()

	t.Run("ServerInfo", func(t *testing.T) {
		initResult := session.InitializeResult()
		require.NotNil(t, initResult)
		require.NotNil(t, initResult.ServerInfo)
		require.Equal(t, "neosearch", initResult.ServerInfo.Name)
	})

	t.Run("ListTools", func(t *testing.T) {
		tools, err := session.ListTools(ctx, nil)
		require.NoError(t, err)

		toolNames := make(map[string]bool)
		for _, tool := range tools.Tools {
			toolNames[tool.Name] = true
		}
		for _, name := range []string{"list_sessions", "create_session", "upload_documents", "ask"} {
			require.True(t, toolNames[name], "Missing expected tool: %s", name)
		}
	})

	t.Run("HydratedOnStartup", func(t *testing.T) {
		result, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: "list_sessions"})
		require.NoError(t, err)
		require.False(t, result.IsError)

		var sessions []struct {
			ID       string `json:"id"`
			IsActive bool   `json:"is_active"`
		}
		text := result.Content[0].(*sdkmcp.TextContent).Text
		require.NoError(t, json.Unmarshal([]byte(text), &sessions))
		require.Len(t, sessions, 1)
		require.Equal(t, seeded, sessions[0].ID)
		require.True(t, sessions[0].IsActive)
	})

	t.Run("CreateSession", func(t *testing.T) {
		result, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: "create_session"})
		require.NoError(t, err)
		require.False(t, result.IsError)
		require.Equal(t, 1, backend.Calls("create-chatwindow"))
	})
}

// TestStdioProtocol_StdoutHygiene verifies that the server doesn't write
// anything to stdout except valid JSON-RPC messages.
func TestStdioProtocol_StdoutHygiene(t *testing.T) {
	backend := testserver.New(t, token)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cmd := mcpCommand(ctx, t, backend)
	cmd.Env = append(cmd.Env, "NEOSEARCH_LOG_LEVEL=debug")
	stdin, err := cmd.StdinPipe()
	require.NoError(t, err)
	stdout, err := cmd.StdoutPipe()
	require.NoError(t, err)
	require.NoError(t, cmd.Start())
	t.Cleanup(func() {
		_ = stdin.Close()
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	})

	initReq := `{"jsonrpc":"2.0","method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test","version":"1.0"}},"id":1}`
	_, err = stdin.Write([]byte(initReq + "\n"))
	require.NoError(t, err)

	lines := make(chan string, 1)
	go func() {
		scanner := bufio.NewScanner(stdout)
		if scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	select {
	case line, ok := <-lines:
		require.True(t, ok, "Server produced no stdout output")
		var msg map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &msg), "stdout line is not JSON: %q", line)
		require.Equal(t, "2.0", msg["jsonrpc"])
	case <-time.After(5 * time.Second):
		t.Fatal("Timeout waiting for server response")
	}
}
