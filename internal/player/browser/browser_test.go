package browser

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"
)

func TestCloseZeroWindow(t *testing.T) {
	(&Window{}).Close()
}

// TestOpenNavigates launches a real browser and is skipped unless
// TSYNC_BROWSER_TEST is set.
func TestOpenNavigates(t *testing.T) {
	if os.Getenv("TSYNC_BROWSER_TEST") == "" {
		t.Skip("set TSYNC_BROWSER_TEST to launch a browser")
	}
	hit := make(chan struct{}, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case hit <- struct{}{}:
		default:
		}
		w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer srv.Close()

	w, err := Open(srv.URL, Options{Headless: true, Timeout: 20 * time.Second})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer w.Close()

	select {
	case <-hit:
	case <-time.After(5 * time.Second):
		t.Fatal("page never requested")
	}
}
