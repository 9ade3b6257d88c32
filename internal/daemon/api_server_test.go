package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"factcheck/internal/api"
	"factcheck/internal/cache"
	"factcheck/internal/pipeline"
	"factcheck/internal/services"
	"factcheck/internal/status"
)

type fakeSubmitter struct {
	mu     sync.Mutex
	result pipeline.Result
	err    error
	owners []string
	urls   []string
	detached bool
}

func (f *fakeSubmitter) Submit(ctx context.Context, owner, sourceURL string) (pipeline.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.owners = append(f.owners, owner)
	f.urls = append(f.urls, sourceURL)
	f.detached = ctx.Done() == nil
	return f.result, f.err
}

type fakePoller struct {
	stages map[string]status.Stage
}

func (f *fakePoller) Poll(_ context.Context, owner string) (status.Snapshot, error) {
	stage, ok := f.stages[owner]
	if !ok {
		stage = status.StageProcessing
	}
	return status.Snapshot{Stage: stage, Percent: status.Progress(stage), Message: status.Message(stage)}, nil
}

type testServer struct {
	srv     *apiServer
	http    *httptest.Server
	submit  *fakeSubmitter
	poll    *fakePoller
	results *cache.Cache
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	results := cache.New(cache.NewMemoryBackend(), nil, cache.WithClock(func() time.Time {
		return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	}))
	ts := &testServer{
		submit:  &fakeSubmitter{},
		poll:    &fakePoller{stages: map[string]status.Stage{}},
		results: results,
	}
	ts.srv = &apiServer{
		pipeline: ts.submit,
		status:   ts.poll,
		results:  results,
		shareURL: func(code string) string { return "https://fc.example/s/" + code },
		guard:    newGuard("test-secret", 1, 2),
	}
	ts.http = httptest.NewServer(ts.srv.routes())
	t.Cleanup(ts.http.Close)
	return ts
}

// session fetches a token and returns the owner cookie with it.
func (ts *testServer) session(t *testing.T) (*http.Cookie, string) {
	t.Helper()
	resp, err := http.Get(ts.http.URL + "/api/token")
	if err != nil {
		t.Fatalf("get token: %v", err)
	}
	defer resp.Body.Close()
	var body api.TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode token: %v", err)
	}
	var owner *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == ownerCookie {
			owner = c
		}
	}
	if owner == nil || body.Token == "" {
		t.Fatalf("expected owner cookie and token, got %v %q", resp.Cookies(), body.Token)
	}
	return owner, body.Token
}

func (ts *testServer) do(t *testing.T, method, path, body string, cookie *http.Cookie, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, ts.http.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	if token != "" {
		req.Header.Set(tokenHeader, token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestSubmitReturnsResult(t *testing.T) {
	ts := newTestServer(t)
	ts.submit.result = pipeline.Result{
		SourceURL:  "https://vimeo.com/1",
		Transcript: "hello",
		Analysis:   "<p>ok</p>",
		ShortCode:  "abc123",
		ShareURL:   "https://fc.example/s/abc123",
	}
	cookie, token := ts.session(t)

	resp := ts.do(t, http.MethodPost, "/api/submit", `{"url":"https://vimeo.com/1"}`, cookie, token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" || len(resp.Header.Get("X-Request-ID")) != 8 {
		t.Fatalf("expected 8-char request id, got %q", resp.Header.Get("X-Request-ID"))
	}
	body := decode[api.SubmitResponse](t, resp)
	if body.ShortCode != "abc123" || body.Transcript != "hello" || body.Cached {
		t.Fatalf("unexpected body %#v", body)
	}
	if len(ts.submit.owners) != 1 || ts.submit.owners[0] != cookie.Value {
		t.Fatalf("expected submit for owner %q, got %v", cookie.Value, ts.submit.owners)
	}
	if !ts.submit.detached {
		t.Fatal("expected submit to run detached from request cancellation")
	}
}

func TestSubmitRequiresToken(t *testing.T) {
	ts := newTestServer(t)
	cookie, token := ts.session(t)

	cases := []struct {
		name   string
		cookie *http.Cookie
		token  string
	}{
		{"no cookie", nil, token},
		{"no token", cookie, ""},
		{"wrong token", cookie, strings.Repeat("0", 64)},
		{"foreign owner", &http.Cookie{Name: ownerCookie, Value: "6f1c1a4e-8d2b-4a59-9a55-0d6f3f1b2c3d"}, token},
	}
	for _, tc := range cases {
		resp := ts.do(t, http.MethodPost, "/api/submit", `{"url":"https://vimeo.com/1"}`, tc.cookie, tc.token)
		if resp.StatusCode != http.StatusForbidden {
			t.Fatalf("%s: expected 403, got %d", tc.name, resp.StatusCode)
		}
	}
	if len(ts.submit.urls) != 0 {
		t.Fatalf("pipeline should not run without a valid token")
	}
}

func TestSubmitMapsPipelineErrors(t *testing.T) {
	ts := newTestServer(t)
	ts.submit.err = services.Wrap(services.ErrTimeout, "downloading", "extract audio", "", nil)
	cookie, token := ts.session(t)

	resp := ts.do(t, http.MethodPost, "/api/submit", `{"url":"https://vimeo.com/1"}`, cookie, token)
	if resp.StatusCode != http.StatusGatewayTimeout {
		t.Fatalf("expected 504, got %d", resp.StatusCode)
	}
	body := decode[api.ErrorResponse](t, resp)
	if body.Error != "The request took too long and was stopped." {
		t.Fatalf("unexpected error body %#v", body)
	}
}

func TestSubmitRejectsBadBodies(t *testing.T) {
	ts := newTestServer(t)
	ts.srv.guard = newGuard("test-secret", 100, 100)
	cookie, token := ts.session(t)

	for _, body := range []string{"not json", `{"url":"   "}`} {
		resp := ts.do(t, http.MethodPost, "/api/submit", body, cookie, token)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("body %q: expected 400, got %d", body, resp.StatusCode)
		}
	}
}

func TestSubmitIsRateLimitedPerOwner(t *testing.T) {
	ts := newTestServer(t)
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ts.srv.guard.now = func() time.Time { return fixed }
	cookie, token := ts.session(t)

	for i := 0; i < 2; i++ {
		resp := ts.do(t, http.MethodPost, "/api/submit", `{"url":"https://vimeo.com/1"}`, cookie, token)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, resp.StatusCode)
		}
	}
	resp := ts.do(t, http.MethodPost, "/api/submit", `{"url":"https://vimeo.com/1"}`, cookie, token)
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after burst, got %d", resp.StatusCode)
	}

	other, otherToken := ts.session(t)
	resp = ts.do(t, http.MethodPost, "/api/submit", `{"url":"https://vimeo.com/1"}`, other, otherToken)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("other owner should not be throttled, got %d", resp.StatusCode)
	}
}

func TestStatusPollsOwnStage(t *testing.T) {
	ts := newTestServer(t)
	cookie, token := ts.session(t)

	resp := ts.do(t, http.MethodGet, "/api/status", "", cookie, token)
	got := decode[api.StatusResponse](t, resp)
	if got.Stage != "processing" || got.Progress != 0 || got.Message != "Processing..." {
		t.Fatalf("unexpected default status %#v", got)
	}

	ts.poll.stages[cookie.Value] = status.StageDownloading
	resp = ts.do(t, http.MethodGet, "/api/status", "", cookie, token)
	got = decode[api.StatusResponse](t, resp)
	if got.Stage != "downloading" || got.Progress != 25 {
		t.Fatalf("unexpected status %#v", got)
	}

	resp = ts.do(t, http.MethodGet, "/api/status", "", cookie, "")
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 without token, got %d", resp.StatusCode)
	}
}

func TestTokenReusesExistingOwner(t *testing.T) {
	ts := newTestServer(t)
	cookie, token := ts.session(t)

	resp := ts.do(t, http.MethodGet, "/api/token", "", cookie, "")
	if len(resp.Cookies()) != 0 {
		t.Fatalf("expected no new cookie for known owner, got %v", resp.Cookies())
	}
	body := decode[api.TokenResponse](t, resp)
	if body.Token != token {
		t.Fatalf("expected stable token, got %q vs %q", body.Token, token)
	}
}

func TestResultEndpoints(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	first, err := ts.results.Store(ctx, "https://vimeo.com/1", "t1", "a1")
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	second, err := ts.results.Store(ctx, "https://vimeo.com/2", "t2", "a2")
	if err != nil {
		t.Fatalf("store: %v", err)
	}

	resp := ts.do(t, http.MethodGet, "/api/results/"+first, "", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	one := decode[api.ResultResponse](t, resp)
	if one.Result.Transcript != "t1" || one.Result.ShareURL != "https://fc.example/s/"+first {
		t.Fatalf("unexpected result %#v", one.Result)
	}

	resp = ts.do(t, http.MethodGet, "/api/results/zzzzzz", "", nil, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	resp = ts.do(t, http.MethodGet, "/api/results?limit=1", "", nil, "")
	list := decode[api.ResultListResponse](t, resp)
	if len(list.Results) != 1 || list.Results[0].ShortCode != second {
		t.Fatalf("expected newest result only, got %#v", list.Results)
	}

	resp = ts.do(t, http.MethodGet, "/api/results?limit=all", "", nil, "")
	list = decode[api.ResultListResponse](t, resp)
	if len(list.Results) != 2 {
		t.Fatalf("expected all results, got %d", len(list.Results))
	}

	resp = ts.do(t, http.MethodGet, "/api/results?limit=-2", "", nil, "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", resp.StatusCode)
	}
}

func TestSharePage(t *testing.T) {
	ts := newTestServer(t)
	code, err := ts.results.Store(context.Background(), "https://vimeo.com/1",
		"line one\nline <two>", `<p><strong>False</strong></p><script>alert(1)</script>`)
	if err != nil {
		t.Fatalf("store: %v", err)
	}

	resp := ts.do(t, http.MethodGet, "/s/"+code, "", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("unexpected content type %q", ct)
	}
	var sb strings.Builder
	buf := make([]byte, 4096)
	for {
		n, err := resp.Body.Read(buf)
		sb.Write(buf[:n])
		if err != nil {
			break
		}
	}
	page := sb.String()
	for _, want := range []string{
		`href="https://vimeo.com/1"`,
		"<p><strong>False</strong></p>",
		"line one<br>line &lt;two&gt;",
		"March 4, 2026",
	} {
		if !strings.Contains(page, want) {
			t.Fatalf("expected page to contain %q:\n%s", want, page)
		}
	}
	if strings.Contains(page, "<script>alert") {
		t.Fatalf("script survived sanitizing:\n%s", page)
	}

	resp = ts.do(t, http.MethodGet, "/s/nope00", "", nil, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestAnalysisHTMLConvertsPlainText(t *testing.T) {
	if got := analysisHTML("a & b\nc"); got != "a &amp; b<br>c" {
		t.Fatalf("unexpected conversion %q", got)
	}
	if got := analysisHTML("<p>x</p>"); got != "<p>x</p>" {
		t.Fatalf("html should pass through, got %q", got)
	}
}

func TestGuardPrunesIdleLimiters(t *testing.T) {
	g := newGuard("", 1, 1)
	if len(g.secret) != secretEntropy {
		t.Fatalf("expected generated secret, got %d bytes", len(g.secret))
	}
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return start }
	for i := 0; i < limiterPrune; i++ {
		g.allow(string(rune('a'+i%26)) + strings.Repeat("x", i))
	}
	g.now = func() time.Time { return start.Add(limiterIdle + time.Second) }
	g.allow("fresh")
	if len(g.limiters) != 1 {
		t.Fatalf("expected idle limiters pruned, have %d", len(g.limiters))
	}
}
