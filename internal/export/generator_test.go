package export

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ziadkadry99/pkweb/internal/config"
	"github.com/ziadkadry99/pkweb/internal/pkapi"
	"github.com/ziadkadry99/pkweb/internal/progress"
	"github.com/ziadkadry99/pkweb/internal/view"
	"github.com/ziadkadry99/pkweb/internal/web"
)

type stubFetcher struct{}

func (stubFetcher) System(_ context.Context, id string) (*pkapi.System, error) {
	if id == "gone" {
		return nil, &pkapi.RequestError{Op: "system", StatusCode: 404, Status: "404 Not Found"}
	}
	return &pkapi.System{ID: id, Name: "System " + id}, nil
}

func (stubFetcher) Members(_ context.Context, id string) ([]pkapi.Member, error) {
	return []pkapi.Member{{ID: "m2", Name: "zed"}, {ID: "m1", Name: "Amy"}}, nil
}

func newGenerator(t *testing.T) *Generator {
	t.Helper()
	r, err := web.NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return &Generator{
		Loader:        view.NewLoader(stubFetcher{}, config.MembersSeparate, nil),
		Renderer:      r,
		OutputDir:     t.TempDir(),
		NotFoundDelay: 3 * time.Second,
		Reporter:      &progress.CIReporter{Out: &strings.Builder{}},
	}
}

func TestGenerate(t *testing.T) {
	g := newGenerator(t)

	n, err := g.Generate(context.Background(), []string{"abcde", "fghij"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if n != 2 {
		t.Errorf("pages = %d, want 2", n)
	}

	for _, rel := range []string{"static/style.css", "404.html", "system/abcde/index.html", "system/fghij/index.html"} {
		if _, err := os.Stat(filepath.Join(g.OutputDir, rel)); err != nil {
			t.Errorf("expected %s: %v", rel, err)
		}
	}

	page, err := os.ReadFile(filepath.Join(g.OutputDir, "system", "abcde", "index.html"))
	if err != nil {
		t.Fatal(err)
	}
	html := string(page)
	if !strings.Contains(html, "System abcde") {
		t.Error("system name missing from page")
	}
	if !strings.Contains(html, `href="../../static/style.css"`) {
		t.Error("stylesheet link should be relative")
	}
	if strings.Index(html, ">Amy<") > strings.Index(html, ">zed<") {
		t.Error("members not sorted by name")
	}
	if strings.Contains(html, `class="loading"`) {
		t.Error("exported pages must be fully rendered")
	}

	notFound, err := os.ReadFile(filepath.Join(g.OutputDir, "404.html"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(notFound), `http-equiv="refresh"`) {
		t.Error("404 page should redirect home")
	}
}

func TestGenerateSkipsFailedSystems(t *testing.T) {
	g := newGenerator(t)

	n, err := g.Generate(context.Background(), []string{"abcde", "gone"})
	if err == nil {
		t.Fatal("expected error for missing system")
	}
	if !pkapi.IsNotFound(err) {
		t.Errorf("error should wrap the 404: %v", err)
	}
	if n != 1 {
		t.Errorf("pages = %d, want 1", n)
	}
	if _, err := os.Stat(filepath.Join(g.OutputDir, "system", "gone")); !os.IsNotExist(err) {
		t.Error("no page should be written for a failed system")
	}
}

func TestGenerateNoIDs(t *testing.T) {
	if _, err := newGenerator(t).Generate(context.Background(), nil); err == nil {
		t.Error("expected error with no ids")
	}
}

func TestSafeName(t *testing.T) {
	tests := map[string]string{
		"abcde": "abcde",
		"a/b":   "a_b",
		"..":    "_",
		"":      "_",
	}
	for in, want := range tests {
		if got := safeName(in); got != want {
			t.Errorf("safeName(%q) = %q, want %q", in, got, want)
		}
	}
}
