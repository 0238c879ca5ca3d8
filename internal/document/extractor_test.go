package document

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeRunner pretends to be pdftoppm: it drops empty page files next to the
// output prefix so the glob finds them.
type fakeRunner struct {
	mu    sync.Mutex
	calls int
	pages int
	fail  bool
}

func (r *fakeRunner) Run(_ context.Context, _ string, args ...string) ([]byte, []byte, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	if r.fail {
		return nil, []byte("boom"), fmt.Errorf("exit status 1")
	}
	prefix := args[len(args)-1]
	for i := 1; i <= r.pages; i++ {
		path := fmt.Sprintf("%s-%d.png", prefix, i)
		if err := os.WriteFile(path, []byte("not a real png"), 0o644); err != nil {
			return nil, nil, err
		}
	}
	return nil, nil, nil
}

func (r *fakeRunner) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type fakePageOCR struct {
	text  string
	calls int
}

func (f *fakePageOCR) RecognizeText(_ context.Context, _ string) (string, error) {
	f.calls++
	return f.text, nil
}

func writeTempDoc(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "raleys-weekly.pdf")
	if err := os.WriteFile(path, []byte("scanned, no text layer"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const pageText = "Tri Tip Roast $5.99/lb fresh cut daily in our meat department today"

func TestExtractOCRFallbackAndCache(t *testing.T) {
	src := writeTempDoc(t)
	runner := &fakeRunner{pages: 2}
	pageOCR := &fakePageOCR{text: pageText}
	ex := NewExtractor(Config{FetchTimeout: time.Second}, runner, pageOCR, slog.Default())

	text, err := ex.Extract(context.Background(), src, 0)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := pageText + PageBreak + pageText
	if text != want {
		t.Fatalf("text = %q, want %q", text, want)
	}
	if runner.callCount() != 1 {
		t.Fatalf("runner calls = %d, want 1", runner.callCount())
	}
	if pageOCR.calls != 2 {
		t.Fatalf("ocr calls = %d, want 2", pageOCR.calls)
	}

	// Second call must come from the cache without touching the runner.
	again, err := ex.Extract(context.Background(), src, 0)
	if err != nil {
		t.Fatalf("Extract (cached): %v", err)
	}
	if again != text {
		t.Fatalf("cached text = %q, want %q", again, text)
	}
	if runner.callCount() != 1 {
		t.Fatalf("runner calls after cache hit = %d, want 1", runner.callCount())
	}
}

func TestExtractEmptyResultIsCached(t *testing.T) {
	src := writeTempDoc(t)
	runner := &fakeRunner{pages: 1}
	// Below MinPageChars, so the page is dropped and the result is empty.
	pageOCR := &fakePageOCR{text: "x"}
	ex := NewExtractor(Config{}, runner, pageOCR, slog.Default())

	for i := 0; i < 2; i++ {
		text, err := ex.Extract(context.Background(), src, 0)
		if err != nil {
			t.Fatalf("Extract #%d: %v", i+1, err)
		}
		if text != "" {
			t.Fatalf("Extract #%d text = %q, want empty", i+1, text)
		}
	}
	if runner.callCount() != 1 {
		t.Fatalf("runner calls = %d, want 1 (empty result not cached)", runner.callCount())
	}
}

func TestExtractRasterFailureDegradesToEmpty(t *testing.T) {
	src := writeTempDoc(t)
	runner := &fakeRunner{fail: true}
	ex := NewExtractor(Config{}, runner, &fakePageOCR{text: pageText}, slog.Default())

	text, err := ex.Extract(context.Background(), src, 0)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if text != "" {
		t.Fatalf("text = %q, want empty", text)
	}
}

func TestExtractMissingFile(t *testing.T) {
	runner := &fakeRunner{pages: 1}
	ex := NewExtractor(Config{}, runner, &fakePageOCR{text: pageText}, slog.Default())

	text, err := ex.Extract(context.Background(), filepath.Join(t.TempDir(), "nope.pdf"), 0)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if text != "" {
		t.Fatalf("text = %q, want empty", text)
	}
	if runner.callCount() != 0 {
		t.Fatalf("runner calls = %d, want 0 for missing file", runner.callCount())
	}
}

func TestInvalidateIsPerSource(t *testing.T) {
	srcA := writeTempDoc(t)
	srcB := filepath.Join(t.TempDir(), "safeway-weekly.pdf")
	if err := os.WriteFile(srcB, []byte("scanned"), 0o644); err != nil {
		t.Fatal(err)
	}

	runner := &fakeRunner{pages: 1}
	ex := NewExtractor(Config{}, runner, &fakePageOCR{text: pageText}, slog.Default())

	ctx := context.Background()
	if _, err := ex.Extract(ctx, srcA, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := ex.Extract(ctx, srcB, 0); err != nil {
		t.Fatal(err)
	}
	if runner.callCount() != 2 {
		t.Fatalf("runner calls = %d, want 2", runner.callCount())
	}

	ex.Invalidate(srcA)

	if _, err := ex.Extract(ctx, srcA, 0); err != nil {
		t.Fatal(err)
	}
	if runner.callCount() != 3 {
		t.Fatalf("runner calls after invalidate = %d, want 3", runner.callCount())
	}
	if _, err := ex.Extract(ctx, srcB, 0); err != nil {
		t.Fatal(err)
	}
	if runner.callCount() != 3 {
		t.Fatalf("srcB should still be cached, runner calls = %d", runner.callCount())
	}
}

func TestExtractDistinctPageLimits(t *testing.T) {
	src := writeTempDoc(t)
	runner := &fakeRunner{pages: 1}
	ex := NewExtractor(Config{}, runner, &fakePageOCR{text: pageText}, slog.Default())

	ctx := context.Background()
	if _, err := ex.Extract(ctx, src, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := ex.Extract(ctx, src, 2); err != nil {
		t.Fatal(err)
	}
	if runner.callCount() != 2 {
		t.Fatalf("runner calls = %d, want 2 (one per page limit)", runner.callCount())
	}
}

func TestExtractBoundsRasterToDocumentPages(t *testing.T) {
	src := writeTempDoc(t)
	var gotArgs []string
	runner := runnerFunc(func(_ context.Context, _ string, args ...string) ([]byte, []byte, error) {
		gotArgs = args
		prefix := args[len(args)-1]
		return nil, nil, os.WriteFile(prefix+"-1.png", []byte("png"), 0o644)
	})
	ex := NewExtractor(Config{}, runner, &fakePageOCR{text: pageText}, slog.Default())
	ex.pages = func(string) (int, error) { return 2, nil }

	if _, err := ex.Extract(context.Background(), src, 10); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	joined := strings.Join(gotArgs, " ")
	if !strings.Contains(joined, "-f 1 -l 2") {
		t.Fatalf("pdftoppm args %q, want raster bounded to 2 pages", joined)
	}
}

func TestExtractPageCountFailureKeepsRequestedBound(t *testing.T) {
	src := writeTempDoc(t)
	var gotArgs []string
	runner := runnerFunc(func(_ context.Context, _ string, args ...string) ([]byte, []byte, error) {
		gotArgs = args
		prefix := args[len(args)-1]
		return nil, nil, os.WriteFile(prefix+"-1.png", []byte("png"), 0o644)
	})
	ex := NewExtractor(Config{}, runner, &fakePageOCR{text: pageText}, slog.Default())
	ex.pages = func(string) (int, error) { return 0, fmt.Errorf("damaged xref") }

	if _, err := ex.Extract(context.Background(), src, 3); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	joined := strings.Join(gotArgs, " ")
	if !strings.Contains(joined, "-f 1 -l 3") {
		t.Fatalf("pdftoppm args %q, want requested 3-page bound kept", joined)
	}
}

func TestRenderPagesPassesPageRange(t *testing.T) {
	src := writeTempDoc(t)
	var gotArgs []string
	runner := runnerFunc(func(_ context.Context, _ string, args ...string) ([]byte, []byte, error) {
		gotArgs = args
		prefix := args[len(args)-1]
		return nil, nil, os.WriteFile(prefix+"-1.png", []byte("png"), 0o644)
	})
	ex := NewExtractor(Config{}, runner, nil, slog.Default())

	images, cleanup, err := ex.RenderPages(context.Background(), src, 3, 150)
	if err != nil {
		t.Fatalf("RenderPages: %v", err)
	}
	defer cleanup()
	if len(images) != 1 {
		t.Fatalf("images = %d, want 1", len(images))
	}
	joined := strings.Join(gotArgs, " ")
	for _, want := range []string{"-r 150", "-png", "-f 1 -l 3"} {
		if !strings.Contains(joined, want) {
			t.Errorf("pdftoppm args %q missing %q", joined, want)
		}
	}
}

type runnerFunc func(ctx context.Context, name string, args ...string) ([]byte, []byte, error)

func (f runnerFunc) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	return f(ctx, name, args...)
}
