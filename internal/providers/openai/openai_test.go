package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"scribe/internal/media"
	"scribe/internal/recognition"
	"scribe/internal/testsupport"
)

// fakeTools simulates ffmpeg/ffprobe: extraction writes extractBytes to the
// destination, splitting produces chunkCount chunk files, probing reports a
// fixed duration.
func fakeTools(t *testing.T, extractBytes int64, chunkCount int, duration string) media.CommandRunner {
	t.Helper()
	return func(ctx context.Context, name string, args ...string) ([]byte, error) {
		joined := strings.Join(args, " ")
		switch {
		case strings.Contains(joined, "-show_format"):
			return []byte(fmt.Sprintf(`{"format":{"duration":%q}}`, duration)), nil
		case strings.Contains(joined, "-f segment"):
			pattern := args[len(args)-1]
			for i := 0; i < chunkCount; i++ {
				testsupport.WriteFile(t, fmt.Sprintf(pattern, i), 64)
			}
			return nil, nil
		case strings.Contains(joined, "-vn"):
			testsupport.WriteFile(t, args[len(args)-1], extractBytes)
			return nil, nil
		default:
			return nil, fmt.Errorf("unexpected command %s %s", name, joined)
		}
	}
}

func newTestAdapter(t *testing.T, serverURL string, extractBytes int64, chunkCount int) *Adapter {
	t.Helper()
	transcoder := media.NewTranscoder("ffmpeg", "ffprobe", nil)
	transcoder.WithCommandRunner(fakeTools(t, extractBytes, chunkCount, "42.5"))
	segmenter := media.NewSegmenter(transcoder, nil)
	return New("sk-test", serverURL, t.TempDir(), transcoder, segmenter, nil)
}

func testConfig() recognition.Config {
	return recognition.Config{
		Method:       recognition.MethodOpenAI,
		Language:     recognition.LanguageAuto,
		Model:        "base",
		OutputFormat: recognition.FormatSRT,
	}
}

func mediaFixture(t *testing.T) media.AudioUnit {
	t.Helper()
	path := filepath.Join(t.TempDir(), "talk.mp4")
	testsupport.WriteFile(t, path, 512)
	return media.AudioUnit{Path: path}
}

const responseSRT = "1\n00:00:00,000 --> 00:00:05,000\nHello world\n"

func TestTranscribeSingleUnit(t *testing.T) {
	var gotModel, gotFormat, gotAuth string
	var gotLanguage bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotModel = r.FormValue("model")
		gotFormat = r.FormValue("response_format")
		_, gotLanguage = r.MultipartForm.Value["language"]
		gotAuth = r.Header.Get("Authorization")
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("file part missing: %v", err)
		}
		fmt.Fprint(w, responseSRT)
	}))
	defer server.Close()

	adapter := newTestAdapter(t, server.URL, 1024, 0)
	result, err := adapter.Transcribe(context.Background(), mediaFixture(t), testConfig())
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if result.Kind != recognition.KindFormatted || result.Payload != responseSRT {
		t.Fatalf("unexpected result: %+v", result)
	}
	if gotModel != "whisper-1" {
		t.Fatalf("local model name must map to the API default, got %q", gotModel)
	}
	if gotFormat != "srt" {
		t.Fatalf("response_format = %q", gotFormat)
	}
	if gotLanguage {
		t.Fatal("auto language must omit the field")
	}
	if gotAuth != "Bearer sk-test" {
		t.Fatalf("authorization = %q", gotAuth)
	}
}

func TestTranscribeTextFormatMapsToText(t *testing.T) {
	var gotFormat string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseMultipartForm(32 << 20)
		gotFormat = r.FormValue("response_format")
		fmt.Fprint(w, "plain transcript")
	}))
	defer server.Close()

	adapter := newTestAdapter(t, server.URL, 1024, 0)
	cfg := testConfig()
	cfg.OutputFormat = recognition.FormatTXT
	if _, err := adapter.Transcribe(context.Background(), mediaFixture(t), cfg); err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if gotFormat != "text" {
		t.Fatalf("txt must request the API text format, got %q", gotFormat)
	}
}

func TestTranscribeChunked(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		fmt.Fprintf(w, "1\n00:00:00,000 --> 00:00:05,000\npart %d\n", requests)
	}))
	defer server.Close()

	adapter := newTestAdapter(t, server.URL, MaxUploadBytes+1, 2)
	result, err := adapter.Transcribe(context.Background(), mediaFixture(t), testConfig())
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if requests != 2 {
		t.Fatalf("expected 2 chunk requests, got %d", requests)
	}
	if !strings.Contains(result.Payload, "1\n00:00:00,000 --> 00:00:05,000\npart 1") {
		t.Fatalf("first chunk missing: %q", result.Payload)
	}
	if !strings.Contains(result.Payload, "2\n00:20:00,000 --> 00:20:05,000\npart 2") {
		t.Fatalf("second chunk not shifted and renumbered: %q", result.Payload)
	}

	chunks, _ := filepath.Glob(filepath.Join(adapter.workDir, "*_audio_*"))
	if len(chunks) != 0 {
		t.Fatalf("chunk files not cleaned up: %v", chunks)
	}
}

func TestTranscribeChunkFailureAborts(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 2 {
			http.Error(w, `{"error":{"message":"rate limited"}}`, http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, responseSRT)
	}))
	defer server.Close()

	adapter := newTestAdapter(t, server.URL, MaxUploadBytes+1, 2)
	_, err := adapter.Transcribe(context.Background(), mediaFixture(t), testConfig())
	if !errors.Is(err, recognition.ErrRecognition) {
		t.Fatalf("expected recognition error, got %v", err)
	}
	if requests != 2 {
		t.Fatalf("a failed chunk must abort the rest, got %d requests", requests)
	}

	chunks, _ := filepath.Glob(filepath.Join(adapter.workDir, "*_audio_*"))
	if len(chunks) != 0 {
		t.Fatalf("chunk files must be removed on failure too: %v", chunks)
	}
}

func TestTranscribeConvertsJSONAnswerForSRTRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"text":"Hello world","segments":[{"start":0,"end":5,"text":"Hello world"}]}`)
	}))
	defer server.Close()

	adapter := newTestAdapter(t, server.URL, 1024, 0)
	result, err := adapter.Transcribe(context.Background(), mediaFixture(t), testConfig())
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if result.Payload != responseSRT {
		t.Fatalf("json answer not converted to srt: %q", result.Payload)
	}
}

func TestTranscribeCustomModelPassesThrough(t *testing.T) {
	var gotModel string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseMultipartForm(32 << 20)
		gotModel = r.FormValue("model")
		fmt.Fprint(w, responseSRT)
	}))
	defer server.Close()

	adapter := newTestAdapter(t, server.URL, 1024, 0)
	cfg := testConfig()
	cfg.Model = "distil-large-v3"
	if _, err := adapter.Transcribe(context.Background(), mediaFixture(t), cfg); err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if gotModel != "distil-large-v3" {
		t.Fatalf("custom model lost: %q", gotModel)
	}
}

func TestTranscribeServerErrorIsRecognitionError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"invalid api key"}}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	adapter := newTestAdapter(t, server.URL, 1024, 0)
	_, err := adapter.Transcribe(context.Background(), mediaFixture(t), testConfig())
	if !errors.Is(err, recognition.ErrRecognition) {
		t.Fatalf("expected recognition error, got %v", err)
	}
	if !strings.Contains(err.Error(), "401") {
		t.Fatalf("status code lost: %v", err)
	}
}

func TestTranscribeMissingKeyIsUnavailable(t *testing.T) {
	transcoder := media.NewTranscoder("ffmpeg", "ffprobe", nil)
	segmenter := media.NewSegmenter(transcoder, nil)
	adapter := New("", "", t.TempDir(), transcoder, segmenter, nil)
	t.Setenv("OPENAI_API_KEY", "")

	_, err := adapter.Transcribe(context.Background(), mediaFixture(t), testConfig())
	if !errors.Is(err, recognition.ErrUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestProbe(t *testing.T) {
	transcoder := media.NewTranscoder("ffmpeg", "ffprobe", nil)
	segmenter := media.NewSegmenter(transcoder, nil)

	t.Setenv("OPENAI_API_KEY", "")
	adapter := New("", "", t.TempDir(), transcoder, segmenter, nil)
	if adapter.Probe().Available {
		t.Fatal("probe must fail without a key")
	}

	adapter = New("sk-test", "", t.TempDir(), transcoder, segmenter, nil)
	if !adapter.Probe().Available {
		t.Fatal("probe should pass with a configured key")
	}
}
