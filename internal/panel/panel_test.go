package panel

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHandlerServesRoot(t *testing.T) {
	w := get(t, Handler(""), "/")

	if w.Code != http.StatusOK {
		t.Fatalf("GET /: got status %d, want 200", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{"<!DOCTYPE html>", "Digital Twin", `id="mqttDot"`, `id="toggleBtn"`, `id="topic"`} {
		if !strings.Contains(body, want) {
			t.Errorf("GET /: body missing %q", want)
		}
	}
	if cc := w.Header().Get("Cache-Control"); !strings.Contains(cc, "no-cache") {
		t.Errorf("Cache-Control = %q, want no-cache", cc)
	}
}

func TestHandlerServesAssets(t *testing.T) {
	h := Handler("")

	tests := []struct {
		path string
		want string
	}{
		{"/assets/app.js", "/api/state"},
		{"/assets/style.css", ".dot.ok"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := get(t, h, tt.path)
			if w.Code != http.StatusOK {
				t.Fatalf("GET %s: got status %d, want 200", tt.path, w.Code)
			}
			if !strings.Contains(w.Body.String(), tt.want) {
				t.Errorf("GET %s: body missing %q", tt.path, tt.want)
			}
		})
	}
}

func TestHandlerToggleLogic(t *testing.T) {
	w := get(t, Handler(""), "/assets/app.js")

	// Unknown and lock both toggle to unlock; only unlock toggles to lock.
	if !strings.Contains(w.Body.String(), `s.state === "unlock" ? "lock" : "unlock"`) {
		t.Error("app.js toggle expression changed")
	}
}

func TestHandlerMissingFileIsNotFound(t *testing.T) {
	w := get(t, Handler(""), "/nonexistent")

	if w.Code != http.StatusNotFound {
		t.Errorf("GET /nonexistent: got status %d, want 404", w.Code)
	}
}

func TestHandlerFilesystemMode(t *testing.T) {
	dir := t.TempDir()
	indexContent := `<!DOCTYPE html><html><body>filesystem panel</body></html>`
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte(indexContent), 0o644); err != nil {
		t.Fatal(err)
	}

	w := get(t, Handler(dir), "/")

	if w.Code != http.StatusOK {
		t.Errorf("filesystem GET /: got status %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "filesystem panel") {
		t.Errorf("filesystem GET /: expected filesystem content, got %q", w.Body.String())
	}
}

func TestHandlerInvalidDirFallsBackToEmbed(t *testing.T) {
	w := get(t, Handler("/nonexistent/dir/that/does/not/exist"), "/")

	if w.Code != http.StatusOK {
		t.Errorf("invalid dir GET /: got status %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Digital Twin") {
		t.Error("invalid dir: didn't fall back to embedded index.html")
	}
}
