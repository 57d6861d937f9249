package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pders01/pixa/internal/catalog"
	"github.com/pders01/pixa/internal/pixabay/pixabaytest"
	"github.com/pders01/pixa/internal/storage"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	outC := make(chan string)
	go func() {
		var buf bytes.Buffer
		io.Copy(&buf, r)
		outC <- buf.String()
	}()

	fn()

	w.Close()
	os.Stdout = old
	return <-outC
}

// execute runs the root command with args in a scratch home directory.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PIXABAY_API_KEY", pixabaytest.Key)

	configPath, dbPath, apiURL, logLevel, quiet = "", "", "", "", false
	searchOpts.page = 1
	searchOpts.category, searchOpts.order, searchOpts.orientation = "", "", ""
	searchOpts.imageType, searchOpts.colors, searchOpts.json = "", "", false
	downloadsOpts.limit = 50

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	out := captureStdout(t, func() { versionCmd.Run(nil, nil) })

	// Version is "dev" by default in tests
	if !strings.Contains(out, "pixa dev") {
		t.Errorf("Expected version output to contain 'pixa dev', got: %s", out)
	}
	if !strings.Contains(out, "Pixabay image browser") {
		t.Errorf("Expected version output to contain the tagline, got: %s", out)
	}
	if !strings.Contains(out, "github.com/pders01/pixa") {
		t.Errorf("Expected version output to contain 'github.com/pders01/pixa', got: %s", out)
	}
}

func TestGenerateConfigCommand(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, ".config", "pixa", "config.toml")
	t.Setenv("HOME", tmpDir)
	configPath = ""

	out := captureStdout(t, func() { configGenCmd.Run(nil, nil) })

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		t.Errorf("Config file was not created at %s", configFile)
	}
	if !strings.Contains(out, "Generated default configuration at:") {
		t.Errorf("Expected output to contain 'Generated default configuration at:', got: %s", out)
	}
}

func TestSearchCommand(t *testing.T) {
	srv := pixabaytest.NewServer(pixabaytest.WithTotal(40))
	defer srv.Close()

	db := filepath.Join(t.TempDir(), "pixa.db")
	out, err := execute(t, "search", "--api-url", srv.BaseURL(), "--db", db,
		"--orientation", "vertical", "--page", "2", "forest", "fog")
	if err != nil {
		t.Fatalf("search failed: %v\n%s", err, out)
	}

	if !strings.Contains(out, "ID") || !strings.Contains(out, "TAGS") {
		t.Errorf("Expected a table header, got: %s", out)
	}
	if !strings.Contains(out, "page 2:") {
		t.Errorf("Expected a page summary, got: %s", out)
	}

	queries := srv.Queries()
	if len(queries) != 1 {
		t.Fatalf("Expected one API request, got %d", len(queries))
	}
	q := queries[0]
	for key, want := range map[string]string{
		"q":           "forest fog",
		"orientation": "vertical",
		"page":        "2",
		"per_page":    "25",
		"safesearch":  "true",
	} {
		if got := q.Get(key); got != want {
			t.Errorf("Expected %s=%q, got %q", key, want, got)
		}
	}
}

func TestSearchCommandJSON(t *testing.T) {
	srv := pixabaytest.NewServer()
	defer srv.Close()

	db := filepath.Join(t.TempDir(), "pixa.db")
	out, err := execute(t, "search", "--api-url", srv.BaseURL(), "--db", db, "--json")
	if err != nil {
		t.Fatalf("search failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, `"totalHits"`) || !strings.Contains(out, `"hits"`) {
		t.Errorf("Expected the JSON response, got: %s", out)
	}
}

func TestSearchCommandRejectsUnknownValues(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"category", []string{"search", "--category", "dinosaurs"}},
		{"filter", []string{"search", "--type", "watercolour"}},
		{"page", []string{"search", "--page", "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := execute(t, tt.args...); err == nil {
				t.Errorf("Expected an error for %v", tt.args)
			}
		})
	}
}

func TestSearchParams(t *testing.T) {
	searchOpts.page = 1
	searchOpts.category, searchOpts.order, searchOpts.orientation = "nature", "latest", ""
	searchOpts.imageType, searchOpts.colors = "", "red"
	defer func() {
		searchOpts.category, searchOpts.order, searchOpts.colors = "", "", ""
	}()

	p, err := searchParams(catalog.Default(), []string{" misty", "lake "})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	v := p.Values()
	if got := v.Get("q"); got != "misty lake" {
		t.Errorf("Expected query 'misty lake', got %q", got)
	}
	if v.Get("category") != "nature" || v.Get("order") != "latest" || v.Get("colors") != "red" {
		t.Errorf("Unexpected parameters: %s", v.Encode())
	}
	if v.Has("orientation") {
		t.Errorf("Empty filters must not be sent: %s", v.Encode())
	}
}

func TestDownloadsCommand(t *testing.T) {
	db := filepath.Join(t.TempDir(), "pixa.db")
	store, err := storage.NewStore(db)
	if err != nil {
		t.Fatal(err)
	}
	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	for _, d := range []*storage.Download{
		{Image: storage.Image{ID: 1, Tags: "cat, kitten"}, Path: "/tmp/1.jpg", DownloadedAt: base},
		{Image: storage.Image{ID: 2, Tags: "mountain, lake"}, Path: "/tmp/2.jpg", DownloadedAt: base.Add(time.Hour)},
	} {
		if err := store.SaveDownload(d); err != nil {
			t.Fatal(err)
		}
	}
	store.Close()

	out, err := execute(t, "downloads", "--db", db)
	if err != nil {
		t.Fatalf("downloads failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "cat, kitten") || !strings.Contains(out, "mountain, lake") {
		t.Errorf("Expected both downloads, got: %s", out)
	}
	if strings.Index(out, "mountain") > strings.Index(out, "kitten") {
		t.Errorf("Expected newest download first, got: %s", out)
	}

	out, err = execute(t, "downloads", "--db", db, "kitten")
	if err != nil {
		t.Fatalf("downloads search failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "cat, kitten") || strings.Contains(out, "mountain") {
		t.Errorf("Expected only the matching download, got: %s", out)
	}
}
