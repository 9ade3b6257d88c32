package transcribe_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"factcheck/internal/services"
	"factcheck/internal/services/transcribe"
	"factcheck/internal/testsupport"
)

func TestTranscribeUploadsMultipart(t *testing.T) {
	audio := filepath.Join(t.TempDir(), "audio_1.mp3")
	testsupport.WriteFile(t, audio, 2048)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Fatalf("unexpected auth %q", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("model"); got != "whisper-1" {
			t.Fatalf("unexpected model %q", got)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if header.Filename != "audio_1.mp3" || len(data) != 2048 {
			t.Fatalf("unexpected upload %s (%d bytes)", header.Filename, len(data))
		}
		_, _ = w.Write([]byte(`{"text":"The moon is made of rock."}`))
	}))
	defer server.Close()

	client := transcribe.NewClient(transcribe.Config{APIKey: "key", URL: server.URL})
	text, err := client.Transcribe(context.Background(), audio)
	if err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}
	if text != "The moon is made of rock." {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestTranscribeMissingTextIsEmpty(t *testing.T) {
	audio := filepath.Join(t.TempDir(), "a.mp3")
	testsupport.WriteFile(t, audio, 10)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"language":"en"}`))
	}))
	defer server.Close()

	client := transcribe.NewClient(transcribe.Config{APIKey: "key", URL: server.URL})
	text, err := client.Transcribe(context.Background(), audio)
	if err != nil || text != "" {
		t.Fatalf("expected empty text, got %q, %v", text, err)
	}
}

func TestTranscribeMissingFile(t *testing.T) {
	client := transcribe.NewClient(transcribe.Config{APIKey: "key", URL: "http://127.0.0.1:1"})
	_, err := client.Transcribe(context.Background(), filepath.Join(t.TempDir(), "nope.mp3"))
	if !errors.Is(err, services.ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound, got %v", err)
	}
}

func TestTranscribeNon2xxCarriesStatus(t *testing.T) {
	audio := filepath.Join(t.TempDir(), "a.mp3")
	testsupport.WriteFile(t, audio, 10)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid file format."}}`))
	}))
	defer server.Close()

	client := transcribe.NewClient(transcribe.Config{APIKey: "key", URL: server.URL})
	_, err := client.Transcribe(context.Background(), audio)
	var apiErr *services.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadRequest || apiErr.Message != "Invalid file format." {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestTranscribeTransportFailureIsNetwork(t *testing.T) {
	audio := filepath.Join(t.TempDir(), "a.mp3")
	testsupport.WriteFile(t, audio, 10)
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	client := transcribe.NewClient(transcribe.Config{APIKey: "key", URL: url})
	_, err := client.Transcribe(context.Background(), audio)
	if !errors.Is(err, services.ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
}

func TestTranscribeDeadlineIsTimeout(t *testing.T) {
	audio := filepath.Join(t.TempDir(), "a.mp3")
	testsupport.WriteFile(t, audio, 10)
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { <-release }))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	client := transcribe.NewClient(transcribe.Config{APIKey: "key", URL: server.URL})
	_, err := client.Transcribe(ctx, audio)
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}
