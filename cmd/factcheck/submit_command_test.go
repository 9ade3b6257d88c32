package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

func newOpenAIStub(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var chats atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/audio/transcriptions":
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Errorf("parse multipart: %v", err)
			}
			if r.FormValue("model") != "whisper-1" {
				t.Errorf("unexpected model %q", r.FormValue("model"))
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"text": "The moon is made of cheese."})
		case "/v1/chat/completions":
			chats.Add(1)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"choices": []any{map[string]any{"message": map[string]any{"content": "**False**: the moon is rock."}}},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &chats
}

func TestSubmitEndToEnd(t *testing.T) {
	srv, chats := newOpenAIStub(t)
	env := setupCLITestEnv(t, withTOML(fmt.Sprintf(
		"[openai]\napi_key = \"sk-test\"\nchat_url = %q\ntranscription_url = %q",
		srv.URL+"/v1/chat/completions",
		srv.URL+"/v1/audio/transcriptions",
	)))

	out, stderr, err := runCLI(t, []string{"submit", "https://vimeo.com/1"}, env.configPath)
	if err != nil {
		t.Fatalf("submit: %v (stderr=%s)", err, stderr)
	}
	requireContains(t, out, "Cached:     no")
	requireContains(t, out, "**False**: the moon is rock.")
	requireContains(t, out, "The moon is made of cheese.")
	requireContains(t, out, "https://fc.example/s/")

	leftovers, _ := filepath.Glob(filepath.Join(env.baseDir, "data", "temp", "audio_*"))
	if len(leftovers) != 0 {
		t.Fatalf("expected audio to be removed, found %v", leftovers)
	}

	out, _, err = runCLI(t, []string{"submit", "--json", "https://vimeo.com/1"}, env.configPath)
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	var result struct {
		Cached    bool   `json:"cached"`
		ShortCode string `json:"short_code"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode json output: %v\n%s", err, out)
	}
	if !result.Cached || len(result.ShortCode) != 6 {
		t.Fatalf("expected cached result, got %#v", result)
	}
	if chats.Load() != 1 {
		t.Fatalf("expected one analysis call, got %d", chats.Load())
	}
}

func TestSubmitReportsDownloadFailure(t *testing.T) {
	srv, _ := newOpenAIStub(t)
	env := setupCLITestEnv(t, withTOML(fmt.Sprintf(
		"[openai]\napi_key = \"sk-test\"\nchat_url = %q\ntranscription_url = %q",
		srv.URL+"/v1/chat/completions",
		srv.URL+"/v1/audio/transcriptions",
	)))
	failing := filepath.Join(env.binDir, "yt-dlp")
	if err := os.WriteFile(failing, []byte("#!/bin/sh\necho 'ERROR: Unsupported URL' >&2\nexit 1\n"), 0o755); err != nil {
		t.Fatalf("rewrite stub: %v", err)
	}

	_, _, err := runCLI(t, []string{"submit", "-q", "https://vimeo.com/1"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "Unsupported URL") {
		t.Fatalf("expected download failure, got %v", err)
	}
}
