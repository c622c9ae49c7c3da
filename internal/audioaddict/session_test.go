package audioaddict

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/google/uuid"

	"github.com/five82/difm/internal/catalog"
	"github.com/five82/difm/internal/urltemplate"
)

const userJSON = `{"id": 31, "api_key": "user-key", "email": "a@example.com", "first_name": "Ada", "listen_key": "lk123"}`

const batchJSON = `{
	"channel_filters": [{"id": 99, "name": "Trance", "channels": [{"id": 7, "name": "Vocal Trance"}]}],
	"stream_sets": [{"id": 4, "key": "premium_high", "streamlist": {"channels": [
		{"id": 7, "streams": [{"id": 70, "url": "http://stream.example/7.mp3", "bitrate": 256}]}
	]}}]
}`

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func newTestSession(t *testing.T, baseURL string, client *http.Client, apiKey string) *Session {
	t.Helper()
	s, err := NewSession(Options{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		HTTPClient: client,
		Logger:     quietLogger(),
	})
	if err != nil {
		t.Fatalf("NewSession returned error: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func catalogTemplate(raw string) urltemplate.Template {
	return urltemplate.Parse(raw)
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestFetchCatalog_RequiresAuthenticationBeforeAnyRequest(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = io.WriteString(w, batchJSON)
	}))
	defer srv.Close()

	s := newTestSession(t, srv.URL, srv.Client(), "key")
	_, err := s.FetchCatalog(waitCtx(t), catalog.QualityPremiumHigh)
	if !errors.Is(err, ErrAuthenticationRequired) {
		t.Fatalf("FetchCatalog error = %v, want ErrAuthenticationRequired", err)
	}
	if hits.Load() != 0 {
		t.Fatalf("server received %d requests, want 0", hits.Load())
	}
}

func TestAuthenticate_ForcesHTTPS(t *testing.T) {
	var gotTLS bool
	var gotForm string
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/di/members/authenticate" {
			http.NotFound(w, r)
			return
		}
		gotTLS = r.TLS != nil
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		gotForm = r.PostForm.Get("username") + "/" + r.PostForm.Get("password")
		_, _ = io.WriteString(w, userJSON)
	}))
	defer srv.Close()

	base := "http://" + srv.Listener.Addr().String() + "/v1/di"
	s := newTestSession(t, base, srv.Client(), "key")

	user, err := s.Authenticate(waitCtx(t), "ada", "p&ss word")
	if err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	if !gotTLS {
		t.Fatalf("authenticate request was not sent over TLS")
	}
	if gotForm != "ada/p&ss word" {
		t.Fatalf("form = %q, want ada/p&ss word", gotForm)
	}
	if user.ListenKey != "lk123" || user.ID != 31 {
		t.Fatalf("user = %#v", user)
	}
	if stored, ok := s.User(); !ok || stored.ID != 31 {
		t.Fatalf("User() = %#v, %v, want stored user", stored, ok)
	}
	if s.State() != Authenticated {
		t.Fatalf("State = %v, want authenticated", s.State())
	}
}

func TestAuthenticate_InvalidCredentials(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error": "nope"}`},
		{"created is not ok", http.StatusCreated, userJSON},
		{"not an object", http.StatusOK, `["x"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			s := newTestSession(t, srv.URL, srv.Client(), "key")
			_, err := s.Authenticate(waitCtx(t), "ada", "wrong")
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Fatalf("error = %v, want ErrInvalidCredentials", err)
			}
			var opErr *Error
			if !errors.As(err, &opErr) || opErr.Op != OpAuthenticate {
				t.Fatalf("error = %#v, want *Error for authenticate", err)
			}
			if _, ok := s.User(); ok || s.State() != Unauthenticated {
				t.Fatalf("session should stay unauthenticated, state=%v", s.State())
			}
		})
	}
}

func TestAuthenticate_ConnectionFailure(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	client := srv.Client()
	srv.Close()

	s := newTestSession(t, base, client, "key")
	_, err := s.Authenticate(waitCtx(t), "ada", "pw")
	if !errors.Is(err, ErrConnection) {
		t.Fatalf("error = %v, want ErrConnection", err)
	}
}

type apiServer struct {
	t        *testing.T
	srv      *httptest.Server
	encoding string
	status   int
	body     string

	mu      sync.Mutex
	headers http.Header
	query   string
}

func newAPIServer(t *testing.T, configure ...func(*apiServer)) *apiServer {
	a := &apiServer{t: t, status: http.StatusOK, body: batchJSON}
	for _, fn := range configure {
		fn(a)
	}
	a.srv = httptest.NewTLSServer(http.HandlerFunc(a.handle))
	t.Cleanup(a.srv.Close)
	return a
}

func (a *apiServer) handle(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/members/authenticate":
		_, _ = io.WriteString(w, userJSON)
	case "/mobile/batch_update":
		a.mu.Lock()
		a.headers = r.Header.Clone()
		a.query = r.URL.RawQuery
		a.mu.Unlock()
		if a.status != http.StatusOK {
			w.WriteHeader(a.status)
			return
		}
		switch a.encoding {
		case "br":
			w.Header().Set("Content-Encoding", "br")
			bw := brotli.NewWriter(w)
			_, _ = io.WriteString(bw, a.body)
			_ = bw.Close()
		case "gzip":
			w.Header().Set("Content-Encoding", "gzip")
			gw := gzip.NewWriter(w)
			_, _ = io.WriteString(gw, a.body)
			_ = gw.Close()
		default:
			_, _ = io.WriteString(w, a.body)
		}
	default:
		http.NotFound(w, r)
	}
}

func (a *apiServer) session(apiKey string) *Session {
	s := newTestSession(a.t, a.srv.URL, a.srv.Client(), apiKey)
	if _, err := s.Authenticate(waitCtx(a.t), "ada", "pw"); err != nil {
		a.t.Fatalf("Authenticate returned error: %v", err)
	}
	return s
}

func TestFetchCatalog_SendsHeadersAndDecodes(t *testing.T) {
	for _, encoding := range []string{"", "gzip", "br"} {
		t.Run("encoding="+encoding, func(t *testing.T) {
			api := newAPIServer(t, func(a *apiServer) { a.encoding = encoding })
			s := api.session("c2VjcmV0")

			batch, err := s.FetchCatalog(waitCtx(t), catalog.QualityPremiumHigh)
			if err != nil {
				t.Fatalf("FetchCatalog returned error: %v", err)
			}

			api.mu.Lock()
			headers, query := api.headers, api.query
			api.mu.Unlock()
			if got := headers.Get("Authorization"); got != "Basic c2VjcmV0" {
				t.Fatalf("Authorization = %q, want Basic c2VjcmV0", got)
			}
			if query != "stream_set_key=premium_high" {
				t.Fatalf("query = %q, want stream_set_key=premium_high", query)
			}
			if _, err := uuid.Parse(headers.Get("X-Request-Id")); err != nil {
				t.Fatalf("X-Request-Id = %q is not a uuid", headers.Get("X-Request-Id"))
			}
			if headers.Get("User-Agent") != DefaultUserAgent {
				t.Fatalf("User-Agent = %q", headers.Get("User-Agent"))
			}

			ch, ok := batch.FindChannel("vocal trance")
			if !ok {
				t.Fatalf("channel not found in decoded batch")
			}
			stream, ok := batch.StreamFor(ch.ID)
			if !ok {
				t.Fatalf("no stream for channel %d", ch.ID)
			}
			user, _ := s.User()
			got, err := stream.AuthorizedURL(user.ListenKey)
			if err != nil || got != "http://stream.example/7.mp3?lk123" {
				t.Fatalf("AuthorizedURL = %q, %v", got, err)
			}
		})
	}
}

func TestFetchCatalog_Failures(t *testing.T) {
	t.Run("missing api key", func(t *testing.T) {
		api := newAPIServer(t)
		s := api.session("")
		_, err := s.FetchCatalog(waitCtx(t), catalog.QualityPublic1)
		if !errors.Is(err, ErrConfiguration) {
			t.Fatalf("error = %v, want ErrConfiguration", err)
		}
		api.mu.Lock()
		defer api.mu.Unlock()
		if api.headers != nil {
			t.Fatalf("batch update should not be requested without an api key")
		}
	})
	t.Run("server error", func(t *testing.T) {
		api := newAPIServer(t, func(a *apiServer) { a.status = http.StatusInternalServerError })
		s := api.session("key")
		_, err := s.FetchCatalog(waitCtx(t), catalog.QualityPublic1)
		if !errors.Is(err, ErrConnection) {
			t.Fatalf("error = %v, want ErrConnection", err)
		}
	})
	t.Run("not an object", func(t *testing.T) {
		api := newAPIServer(t, func(a *apiServer) { a.body = `[1,2,3]` })
		s := api.session("key")
		_, err := s.FetchCatalog(waitCtx(t), catalog.QualityPublic1)
		if !errors.Is(err, ErrDecode) || !errors.Is(err, catalog.ErrNotObject) {
			t.Fatalf("error = %v, want ErrDecode wrapping ErrNotObject", err)
		}
	})
}

func TestFetchArtwork(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/img/7.png" {
			http.NotFound(w, r)
			return
		}
		gotQuery = r.URL.RawQuery
		_, _ = io.WriteString(w, "PNGDATA")
	}))
	defer srv.Close()

	s := newTestSession(t, srv.URL, srv.Client(), "")
	img := catalog.ChannelImage{Default: catalogTemplate(srv.URL + "/img/7.png{?width,height}")}

	data, err := s.FetchArtwork(waitCtx(t), img, Size{})
	if err != nil {
		t.Fatalf("FetchArtwork returned error: %v", err)
	}
	if string(data) != "PNGDATA" {
		t.Fatalf("data = %q", data)
	}
	if gotQuery != "width=300&height=300" {
		t.Fatalf("query = %q, want width=300&height=300", gotQuery)
	}

	if _, err := s.FetchArtwork(waitCtx(t), catalog.ChannelImage{}, Size{Width: 10, Height: 10}); !errors.Is(err, ErrDecode) {
		t.Fatalf("empty template error = %v, want ErrDecode", err)
	}
	missing := catalog.ChannelImage{Default: catalogTemplate(srv.URL + "/img/404.png")}
	if _, err := s.FetchArtwork(waitCtx(t), missing, Size{Width: 10, Height: 10}); !errors.Is(err, ErrConnection) {
		t.Fatalf("404 error = %v, want ErrConnection", err)
	}
}

func TestSession_RunsOperationsSerially(t *testing.T) {
	var inFlight, maxInFlight atomic.Int32
	var mu sync.Mutex
	var order []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			m := maxInFlight.Load()
			if n <= m || maxInFlight.CompareAndSwap(m, n) {
				break
			}
		}
		mu.Lock()
		order = append(order, r.URL.Path)
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		_, _ = io.WriteString(w, "x")
	}))
	defer srv.Close()

	s := newTestSession(t, srv.URL, srv.Client(), "")
	var futures []*Future[[]byte]
	for i := 0; i < 5; i++ {
		img := catalog.ChannelImage{Default: catalogTemplate(fmt.Sprintf("%s/img/%d", srv.URL, i))}
		futures = append(futures, s.FetchArtworkAsync(img, Size{Width: 1, Height: 1}))
	}
	for i, f := range futures {
		if _, err := f.Wait(waitCtx(t)); err != nil {
			t.Fatalf("future %d error: %v", i, err)
		}
	}

	if maxInFlight.Load() != 1 {
		t.Fatalf("max concurrent requests = %d, want 1", maxInFlight.Load())
	}
	want := []string{"/img/0", "/img/1", "/img/2", "/img/3", "/img/4"}
	if strings.Join(order, ",") != strings.Join(want, ",") {
		t.Fatalf("order = %v, want %v", order, want)
	}
}

func TestSession_LogoutAndStateEvents(t *testing.T) {
	api := newAPIServer(t)
	s := newTestSession(t, api.srv.URL, api.srv.Client(), "key")
	events, cancel := s.Subscribe()
	defer cancel()

	if s.State() != Unauthenticated {
		t.Fatalf("initial state = %v, want unauthenticated", s.State())
	}
	if _, err := s.Authenticate(waitCtx(t), "ada", "pw"); err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	expectState(t, events, Authenticated)

	s.Logout()
	if s.State() != Unauthenticated {
		t.Fatalf("state after logout = %v", s.State())
	}
	if _, ok := s.User(); ok {
		t.Fatalf("user should be cleared after logout")
	}
	expectState(t, events, Unauthenticated)

	if _, err := s.FetchCatalog(waitCtx(t), catalog.QualityPublic1); !errors.Is(err, ErrAuthenticationRequired) {
		t.Fatalf("FetchCatalog after logout error = %v, want ErrAuthenticationRequired", err)
	}
}

func expectState(t *testing.T, events <-chan State, want State) {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case got := <-events:
			if got == want {
				return
			}
		case <-timeout:
			t.Fatalf("did not observe state %v", want)
		}
	}
}

func TestSession_CloseFailsQueuedOperations(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/slow" {
			close(started)
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}
		_, _ = io.WriteString(w, "x")
	}))
	defer srv.Close()
	defer close(release)

	s, err := NewSession(Options{BaseURL: srv.URL, HTTPClient: srv.Client(), Logger: quietLogger()})
	if err != nil {
		t.Fatalf("NewSession returned error: %v", err)
	}

	slow := s.FetchArtworkAsync(catalog.ChannelImage{Default: catalogTemplate(srv.URL + "/slow")}, Size{Width: 1, Height: 1})
	<-started
	queued := s.FetchArtworkAsync(catalog.ChannelImage{Default: catalogTemplate(srv.URL + "/fast")}, Size{Width: 1, Height: 1})
	if _, err := queued.Result(); !errors.Is(err, ErrPending) {
		t.Fatalf("queued Result error = %v, want ErrPending", err)
	}

	s.Close()

	if _, err := slow.Wait(waitCtx(t)); !errors.Is(err, ErrConnection) {
		t.Fatalf("in-flight error = %v, want ErrConnection", err)
	}
	if _, err := queued.Wait(waitCtx(t)); !errors.Is(err, ErrClosed) {
		t.Fatalf("queued error = %v, want ErrClosed", err)
	}
	if _, err := s.Authenticate(waitCtx(t), "a", "b"); !errors.Is(err, ErrClosed) {
		t.Fatalf("Authenticate after Close error = %v, want ErrClosed", err)
	}
	s.Close()
}

func TestFuture_WaitHonoursContext(t *testing.T) {
	f := newFuture[int]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Wait error = %v, want context.Canceled", err)
	}

	f.resolve(7, nil)
	if v, err := f.Result(); v != 7 || err != nil {
		t.Fatalf("Result = %d, %v, want 7, nil", v, err)
	}
	select {
	case <-f.Done():
	default:
		t.Fatalf("Done should be closed after resolve")
	}
}

func TestError_UnwrapsKindAndCause(t *testing.T) {
	err := error(newError(OpFetchCatalog, ErrConnection, io.ErrUnexpectedEOF))
	if !errors.Is(err, ErrConnection) || !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("errors.Is failed for %v", err)
	}
	if errors.Is(err, ErrDecode) {
		t.Fatalf("error should not match ErrDecode")
	}
	if got := err.Error(); got != "fetch catalog: connection error: unexpected EOF" {
		t.Fatalf("Error() = %q", got)
	}
}

func TestParseBaseURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", DefaultBaseURL},
		{"api.example.com/v1/di", "http://api.example.com/v1/di/"},
		{"https://api.example.com", "https://api.example.com/"},
		{" http://h:8080/x/?q=1#f ", "http://h:8080/x/"},
	}
	for _, tt := range tests {
		u, err := parseBaseURL(tt.in)
		if err != nil {
			t.Fatalf("parseBaseURL(%q) returned error: %v", tt.in, err)
		}
		if u.String() != tt.want {
			t.Fatalf("parseBaseURL(%q) = %q, want %q", tt.in, u.String(), tt.want)
		}
	}
	if _, err := NewSession(Options{BaseURL: "http://"}); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("NewSession with hostless url error = %v, want ErrConfiguration", err)
	}
}

func TestReadBody_RejectsBodiesOverLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, strings.TrimPrefix(r.URL.Path, "/"))
	}))
	defer srv.Close()

	s := newTestSession(t, srv.URL, srv.Client(), "key")
	read := func(body string) ([]byte, error) {
		req, err := http.NewRequest(http.MethodGet, srv.URL+"/"+body, nil)
		if err != nil {
			t.Fatalf("NewRequest: %v", err)
		}
		return s.readBody(req, 4)
	}

	if data, err := read("1234"); err != nil || string(data) != "1234" {
		t.Fatalf("readBody at limit = %q, %v", data, err)
	}
	if data, err := read("12345"); !errors.Is(err, errTooLarge) || data != nil {
		t.Fatalf("readBody over limit = %q, %v, want errTooLarge", data, err)
	}
}

func TestSession_NilReceiverFailsWithConfiguration(t *testing.T) {
	var s *Session
	_, err := s.FetchArtworkAsync(catalog.ChannelImage{}, DefaultArtworkSize).Result()
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("FetchArtworkAsync on nil session error = %v, want ErrConfiguration", err)
	}
	if _, err := s.FetchCatalogAsync(catalog.QualityPremiumHigh).Result(); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("FetchCatalogAsync on nil session error = %v, want ErrConfiguration", err)
	}
}
