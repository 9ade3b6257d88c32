package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"factcheck/internal/cache"
	"factcheck/internal/config"
	"factcheck/internal/testsupport"
)

const stubYtDlp = `#!/bin/sh
case "$1" in
  --version) echo "2026.01.01"; exit 0 ;;
esac
for arg in "$@"; do
  if [ "$arg" = "--dump-json" ]; then
    echo '{"id":"abc","title":"Stub Video","duration":125,"uploader":"Tester","webpage_url":"https://vimeo.com/1","extractor":"vimeo"}'
    exit 0
  fi
done
out=""
prev=""
for arg in "$@"; do
  if [ "$prev" = "-o" ]; then out="$arg"; fi
  prev="$arg"
done
target=$(printf '%s' "$out" | sed 's/%(ext)s/mp3/')
printf 'ID3fake' > "$target"
`

type cliTestEnv struct {
	baseDir    string
	configPath string
	binDir     string
}

type envOption func(*strings.Builder)

func withTOML(section string) envOption {
	return func(b *strings.Builder) {
		b.WriteString(section)
		b.WriteString("\n")
	}
}

func setupCLITestEnv(t *testing.T, opts ...envOption) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("OPENAI_API_KEY", "")

	binDir := filepath.Join(base, "bin")
	testsupport.WriteExecutable(t, filepath.Join(binDir, "yt-dlp"), stubYtDlp)
	testsupport.WriteExecutable(t, filepath.Join(binDir, "ffmpeg"), "#!/bin/sh\nexit 0\n")

	var b strings.Builder
	fmt.Fprintf(&b, "[paths]\ndata_dir = %q\nlog_dir = %q\n\n", filepath.Join(base, "data"), filepath.Join(base, "logs"))
	fmt.Fprintf(&b, "[fetcher]\nbinary = %q\n\n", filepath.Join(binDir, "yt-dlp"))
	b.WriteString("[logging]\nenabled = false\n\n")
	b.WriteString("[server]\npublic_base_url = \"https://fc.example\"\n\n")
	for _, opt := range opts {
		opt(&b)
	}

	configPath := filepath.Join(base, "config.toml")
	testsupport.WriteText(t, configPath, b.String())
	return &cliTestEnv{baseDir: base, configPath: configPath, binDir: binDir}
}

func (e *cliTestEnv) loadConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, _, _, err := config.Load(e.configPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return cfg
}

func (e *cliTestEnv) seed(t *testing.T, sourceURL, transcript, analysis string) string {
	t.Helper()
	results, err := cache.Open(context.Background(), e.loadConfig(t), nil)
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	defer results.Close()
	code, err := results.Store(context.Background(), sourceURL, transcript, analysis)
	if err != nil {
		t.Fatalf("seed cache: %v", err)
	}
	return code
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func TestRootShowsHelp(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, nil, env.configPath)
	if err != nil {
		t.Fatalf("root: %v", err)
	}
	for _, name := range []string{"serve", "submit", "info", "resolve", "recent", "status", "config"} {
		requireContains(t, out, name)
	}
}

func TestRecentListsNewestFirst(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"recent"}, env.configPath)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	requireContains(t, out, "No cached results")

	first := env.seed(t, "https://vimeo.com/1", "t1", "a1")
	second := env.seed(t, "https://vimeo.com/2", "t2", "a2")

	out, _, err = runCLI(t, []string{"recent"}, env.configPath)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	requireContains(t, out, "https://fc.example/s/"+first)
	if strings.Index(out, second) > strings.Index(out, first) {
		t.Fatalf("expected %s before %s:\n%s", second, first, out)
	}

	out, _, err = runCLI(t, []string{"recent", "-n", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("recent -n 1: %v", err)
	}
	if strings.Contains(out, first) {
		t.Fatalf("expected only the newest result:\n%s", out)
	}

	out, _, err = runCLI(t, []string{"recent", "--all", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("recent --all --json: %v", err)
	}
	requireContains(t, out, `"short_code": "`+first+`"`)
	requireContains(t, out, `"short_code": "`+second+`"`)
}

func TestResolveRendersAnalysisAsMarkdown(t *testing.T) {
	env := setupCLITestEnv(t)
	code := env.seed(t, "https://vimeo.com/1", "hello world", "<p><strong>False</strong> claim</p>")

	out, _, err := runCLI(t, []string{"resolve", code}, env.configPath)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	requireContains(t, out, "Source:     https://vimeo.com/1")
	requireContains(t, out, "**False** claim")
	requireContains(t, out, "hello world")
	requireContains(t, out, "Cached:     yes")

	out, _, err = runCLI(t, []string{"resolve", code, "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("resolve --json: %v", err)
	}
	requireContains(t, out, `"transcript": "hello world"`)

	if _, _, err := runCLI(t, []string{"resolve", "zzzzzz"}, env.configPath); err == nil {
		t.Fatal("expected error for unknown code")
	}
}

func TestInfoUsesFetcher(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"info", "https://vimeo.com/1"}, env.configPath)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	requireContains(t, out, "Stub Video")
	requireContains(t, out, "2m5s")
	requireContains(t, out, "Tester")

	if _, _, err := runCLI(t, []string{"info", "not a url"}, env.configPath); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestStatusOffline(t *testing.T) {
	env := setupCLITestEnv(t, withTOML("[openai]\napi_key = \"sk-test\""))
	t.Setenv("PATH", env.binDir+string(os.PathListSeparator)+os.Getenv("PATH"))

	out, _, err := runCLI(t, []string{"status", "--offline"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "== Dependencies ==")
	requireContains(t, out, "(2026.01.01)")
	requireContains(t, out, "OpenAI API key:")
	requireContains(t, out, "[OK] Configured")
	requireContains(t, out, "Data directory:")
	requireContains(t, out, "Downloading:")
	requireContains(t, out, " 25%  Downloading video...")
	if strings.Contains(out, "sk-test") {
		t.Fatalf("status leaked the api key:\n%s", out)
	}
}

func TestSubmitRequiresAPIKey(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"submit", "https://vimeo.com/1"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "OPENAI_API_KEY") {
		t.Fatalf("expected api key error, got %v", err)
	}
}

func TestRenderAnalysis(t *testing.T) {
	if got := renderAnalysis("  plain **text**  "); got != "plain **text**" {
		t.Fatalf("unexpected passthrough %q", got)
	}
	got := renderAnalysis("<h2>Claims</h2><ul><li>one</li></ul>")
	if !strings.Contains(got, "## Claims") || !strings.Contains(got, "- one") {
		t.Fatalf("unexpected markdown %q", got)
	}
}

func TestStageLabel(t *testing.T) {
	if got := stageLabel("transcribing"); got != "Transcribing" {
		t.Fatalf("unexpected label %q", got)
	}
}

func TestRecentAgainstMemoryDriverIsEmpty(t *testing.T) {
	env := setupCLITestEnv(t, withTOML("[cache]\ndriver = \"memory\""))
	out, _, err := runCLI(t, []string{"recent"}, env.configPath)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	requireContains(t, out, "No cached results")
}
