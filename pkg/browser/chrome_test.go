package browser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"igfeed/pkg/config"
	"igfeed/pkg/logger"
)

const fixturePage = `<html><body>
<div role="dialog"><button onclick="this.parentNode.remove()">Not now</button></div>
<div style="border-radius:50%;width:150px"><img src="data:image/gif;base64,R0lGODlhAQABAAAAACw=" style="width:150px;height:150px"></div>
<div id="lang"></div>
<script>document.getElementById('lang').textContent = navigator.languages.join(',')</script>
</body></html>`

func chromeOrSkip(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	for _, name := range []string{"google-chrome", "chromium", "chromium-browser", "headless-shell"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	t.Skip("no chrome binary on PATH")
	return ""
}

func TestChromeSessionAgainstFixture(t *testing.T) {
	path := chromeOrSkip(t)
	clearServerlessEnv(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, AcceptLanguage, r.Header.Get("Accept-Language"))
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(fixturePage))
	}))
	defer srv.Close()

	cfg := config.DefaultConfig().Browser
	cfg.ExecPath = path
	cfg.Mode = config.BrowserModeLocal

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	session, err := NewChrome(cfg, logger.NewNopLogger()).Acquire(ctx)
	require.NoError(t, err)
	defer session.Close()

	require.NoError(t, session.Navigate(ctx, srv.URL))
	require.NoError(t, session.WaitReady(ctx))

	dismissed, err := session.DismissDialog(ctx)
	require.NoError(t, err)
	assert.True(t, dismissed)

	dismissed, err = session.DismissDialog(ctx)
	require.NoError(t, err)
	assert.False(t, dismissed)

	height, err := session.ScrollHeight(ctx)
	require.NoError(t, err)
	assert.Positive(t, height)

	snap, err := session.Snapshot(ctx)
	require.NoError(t, err)
	assert.Contains(t, snap.HTML, `data-igfeed-w="150"`)
	assert.Contains(t, snap.HTML, `data-igfeed-radius="50%"`)
	assert.Equal(t, srv.URL+"/", snap.URL)

	png, err := session.Screenshot(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, png)
}

const lateFetchPage = `<html><body>
<script>window.addEventListener('load', () => setTimeout(() => fetch('/late'), 100))</script>
</body></html>`

func TestNavigateWaitsForNetworkToSettle(t *testing.T) {
	path := chromeOrSkip(t)
	clearServerlessEnv(t)

	var lateServed atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("/late", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(150 * time.Millisecond)
		w.Write([]byte("ok"))
		lateServed.Store(true)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(lateFetchPage))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := config.DefaultConfig().Browser
	cfg.ExecPath = path
	cfg.Mode = config.BrowserModeLocal

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	session, err := NewChrome(cfg, logger.NewNopLogger()).Acquire(ctx)
	require.NoError(t, err)
	defer session.Close()

	require.NoError(t, session.Navigate(ctx, srv.URL))
	assert.True(t, lateServed.Load())
}
