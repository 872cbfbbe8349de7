package cli

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/secureclip/internal/client/config"
	"github.com/dmitrijs2005/secureclip/internal/logging"
	srvconfig "github.com/dmitrijs2005/secureclip/internal/server/config"
	"github.com/dmitrijs2005/secureclip/internal/server/httpapi"
	"github.com/dmitrijs2005/secureclip/internal/server/store"
)

var codeRe = regexp.MustCompile(`Code: (\d{6})`)

// startRelay runs the real HTTP surface over a memory store.
func startRelay(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := &srvconfig.Config{}
	cfg.LoadDefaults()
	cfg.RateLimitRequests = 1000

	st := store.NewMemoryStore()
	t.Cleanup(func() { st.Close() })

	srv := httpapi.NewServer(cfg, st, logging.NewDefault())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func runCommand(t *testing.T, serverURL, stdin string, args ...string) (string, error) {
	t.Helper()

	cfg := &config.Config{}
	cfg.LoadDefaults()

	app, err := NewApp(cfg)
	require.NoError(t, err)

	var out bytes.Buffer
	app.out = &out

	root := app.rootCmd()
	root.SetArgs(append(args, "-a", serverURL))
	root.SetIn(bytes.NewBufferString(stdin))
	root.SetOut(&out)
	root.SetErr(&out)

	err = root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSendThenReceiveText(t *testing.T) {
	ts := startRelay(t)

	out, err := runCommand(t, ts.URL, "hunter2\n", "send", "--no-qr")
	require.NoError(t, err)

	m := codeRe.FindStringSubmatch(out)
	require.NotNil(t, m, "send output should contain the code: %s", out)
	code := m[1]
	assert.Contains(t, out, "Link: "+ts.URL+"/?code="+code)

	out, err = runCommand(t, ts.URL, "", "receive", code, "--yes", "--print")
	require.NoError(t, err)
	assert.Contains(t, out, "A text secret is ready.")
	assert.Contains(t, out, "hunter2")

	// One-time: the same code is dead now.
	_, err = runCommand(t, ts.URL, "", "receive", code, "--yes", "--print")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired or invalid")
}

func TestSendThenReceiveFile(t *testing.T) {
	ts := startRelay(t)

	src := filepath.Join(t.TempDir(), "secret.txt")
	require.NoError(t, os.WriteFile(src, []byte("file contents"), 0o600))

	out, err := runCommand(t, ts.URL, "", "send", "--no-qr", "--file", src)
	require.NoError(t, err)
	m := codeRe.FindStringSubmatch(out)
	require.NotNil(t, m)

	outDir := t.TempDir()
	out, err = runCommand(t, ts.URL, "", "receive", m[1], "--yes", "--out", outDir)
	require.NoError(t, err)
	assert.Contains(t, out, `File "secret.txt" is ready.`)

	saved, err := os.ReadFile(filepath.Join(outDir, "secret.txt"))
	require.NoError(t, err)
	assert.Equal(t, []byte("file contents"), saved)
}

func TestReceiveWaitsForEnter(t *testing.T) {
	ts := startRelay(t)

	out, err := runCommand(t, ts.URL, "top secret\n", "send", "--no-qr")
	require.NoError(t, err)
	m := codeRe.FindStringSubmatch(out)
	require.NotNil(t, m)

	// Stdin carries the Enter keypress.
	out, err = runCommand(t, ts.URL, "\n", "receive", m[1], "--print")
	require.NoError(t, err)
	assert.Contains(t, out, "Press Enter to deliver it: ")
	assert.Contains(t, out, "top secret")
}

func TestPeekDoesNotConsume(t *testing.T) {
	ts := startRelay(t)

	out, err := runCommand(t, ts.URL, "still here\n", "send", "--no-qr")
	require.NoError(t, err)
	m := codeRe.FindStringSubmatch(out)
	require.NotNil(t, m)

	for i := 0; i < 2; i++ {
		out, err = runCommand(t, ts.URL, "", "peek", m[1])
		require.NoError(t, err)
		assert.Contains(t, out, "Ready: text secret")
	}

	out, err = runCommand(t, ts.URL, "", "receive", m[1], "--yes", "--print")
	require.NoError(t, err)
	assert.Contains(t, out, "still here")
}

func TestReceiveUnknownCode(t *testing.T) {
	ts := startRelay(t)

	_, err := runCommand(t, ts.URL, "", "receive", "000000", "--yes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired or invalid")
}

func TestReceiveAcceptsLink(t *testing.T) {
	ts := startRelay(t)

	out, err := runCommand(t, ts.URL, "via link\n", "send", "--no-qr")
	require.NoError(t, err)
	m := codeRe.FindStringSubmatch(out)
	require.NotNil(t, m)

	link := ts.URL + "/?code=" + m[1]
	out, err = runCommand(t, ts.URL, "", "receive", link, "--yes", "--print")
	require.NoError(t, err)
	assert.Contains(t, out, "via link")
}
