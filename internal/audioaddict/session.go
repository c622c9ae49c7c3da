package audioaddict

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/google/uuid"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"

	"github.com/five82/difm/internal/catalog"
	"github.com/five82/difm/internal/watch"
)

const (
	DefaultBaseURL   = "http://api.audioaddict.com/v1/di/"
	DefaultUserAgent = "difm/0.1"
	defaultTimeout   = 10 * time.Second

	authenticatePath = "members/authenticate"
	batchUpdatePath  = "mobile/batch_update"

	maxArtworkBytes = 16 << 20
)

// Operation names used in errors and logs.
const (
	OpAuthenticate = "authenticate"
	OpFetchCatalog = "fetch catalog"
	OpFetchArtwork = "fetch artwork"
)

// State is the session's authentication state.
type State int

const (
	Unauthenticated State = iota
	Authenticating
	Authenticated
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	default:
		return "state(" + strconv.Itoa(int(s)) + ")"
	}
}

// Size is an artwork size hint in pixels.
type Size struct {
	Width  int
	Height int
}

// DefaultArtworkSize is used when a caller passes a zero Size.
var DefaultArtworkSize = Size{Width: 300, Height: 300}

// Options configures a Session. Zero values select defaults.
type Options struct {
	BaseURL           string
	APIKey            string
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
	HTTPClient        *http.Client
	Logger            *log.Logger
}

// Session talks to the AudioAddict API. Every request runs on a single
// worker goroutine in submission order.
type Session struct {
	baseURL   *url.URL
	apiKey    string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
	logger    *log.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wake   chan struct{}
	done   chan struct{}

	qmu    sync.Mutex
	queue  []job
	closed bool

	mu    sync.RWMutex
	state State
	user  *catalog.AuthenticatedUser

	events watch.Broadcaster[State]
}

type job struct {
	run  func(ctx context.Context)
	fail func(err error)
}

// NewSession builds a Session and starts its worker.
func NewSession(opts Options) (*Session, error) {
	base, err := parseBaseURL(opts.BaseURL)
	if err != nil {
		return nil, newError("new session", ErrConfiguration, err)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	client := &http.Client{}
	if opts.HTTPClient != nil {
		copied := *opts.HTTPClient
		client = &copied
	}
	if client.Jar == nil {
		client.Jar = jar
	}
	if client.Timeout == 0 {
		client.Timeout = opts.Timeout
		if client.Timeout <= 0 {
			client.Timeout = defaultTimeout
		}
	}

	userAgent := strings.TrimSpace(opts.UserAgent)
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		baseURL:   base,
		apiKey:    strings.TrimSpace(opts.APIKey),
		userAgent: userAgent,
		http:      client,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	if opts.RequestsPerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	go s.loop()
	return s, nil
}

// State reports the current authentication state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe returns a channel of state changes and a cancel func.
func (s *Session) Subscribe() (<-chan State, func()) {
	return s.events.Subscribe()
}

// User returns the authenticated user, if any.
func (s *Session) User() (catalog.AuthenticatedUser, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return catalog.AuthenticatedUser{}, false
	}
	return *s.user, true
}

// Logout forgets the authenticated user.
func (s *Session) Logout() {
	s.mu.Lock()
	s.user = nil
	changed := s.state != Unauthenticated
	s.state = Unauthenticated
	s.mu.Unlock()
	if changed {
		s.events.Publish(Unauthenticated)
	}
}

// Close stops the worker. Queued and later operations fail with ErrClosed.
// A request already on the wire is cancelled.
func (s *Session) Close() {
	s.qmu.Lock()
	if s.closed {
		s.qmu.Unlock()
		<-s.done
		return
	}
	s.closed = true
	pending := s.queue
	s.queue = nil
	s.qmu.Unlock()

	for _, j := range pending {
		j.fail(ErrClosed)
	}
	s.cancel()
	<-s.done
	s.events.Close()
}

// Authenticate signs in and stores the user on the session.
func (s *Session) Authenticate(ctx context.Context, username, password string) (catalog.AuthenticatedUser, error) {
	return s.AuthenticateAsync(username, password).Wait(ctx)
}

// AuthenticateAsync queues an authentication request.
func (s *Session) AuthenticateAsync(username, password string) *Future[catalog.AuthenticatedUser] {
	return submit(s, OpAuthenticate, func(ctx context.Context) (catalog.AuthenticatedUser, error) {
		return s.authenticate(ctx, username, password)
	})
}

// FetchCatalog downloads the batch update for the given stream quality.
func (s *Session) FetchCatalog(ctx context.Context, quality catalog.Quality) (catalog.BatchUpdate, error) {
	return s.FetchCatalogAsync(quality).Wait(ctx)
}

// FetchCatalogAsync queues a batch update request. It requires an
// authenticated session at the time the request runs.
func (s *Session) FetchCatalogAsync(quality catalog.Quality) *Future[catalog.BatchUpdate] {
	return submit(s, OpFetchCatalog, func(ctx context.Context) (catalog.BatchUpdate, error) {
		return s.fetchCatalog(ctx, quality)
	})
}

// FetchArtwork downloads a channel's default image at the requested size.
func (s *Session) FetchArtwork(ctx context.Context, image catalog.ChannelImage, size Size) ([]byte, error) {
	return s.FetchArtworkAsync(image, size).Wait(ctx)
}

// FetchArtworkAsync queues an artwork request. No authentication is needed.
func (s *Session) FetchArtworkAsync(image catalog.ChannelImage, size Size) *Future[[]byte] {
	return submit(s, OpFetchArtwork, func(ctx context.Context) ([]byte, error) {
		return s.fetchArtwork(ctx, image, size)
	})
}

func submit[T any](s *Session, op string, fn func(ctx context.Context) (T, error)) *Future[T] {
	f := newFuture[T]()
	var zero T
	if s == nil {
		f.resolve(zero, newError(op, ErrConfiguration, errNilSession))
		return f
	}
	s.enqueue(job{
		run: func(ctx context.Context) {
			v, err := fn(ctx)
			if err != nil {
				s.logger.Printf("audioaddict: %v", err)
			}
			f.resolve(v, err)
		},
		fail: func(err error) {
			f.resolve(zero, newError(op, ErrClosed, errOrNil(err, ErrClosed)))
		},
	})
	return f
}

var (
	errNilSession = errors.New("nil session")
	errTooLarge   = errors.New("response too large")
)

func errOrNil(err, kind error) error {
	if err == kind {
		return nil
	}
	return err
}

func (s *Session) enqueue(j job) {
	s.qmu.Lock()
	if s.closed {
		s.qmu.Unlock()
		j.fail(ErrClosed)
		return
	}
	s.queue = append(s.queue, j)
	s.qmu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Session) loop() {
	defer close(s.done)
	for {
		s.qmu.Lock()
		if len(s.queue) == 0 {
			closed := s.closed
			s.qmu.Unlock()
			if closed {
				return
			}
			select {
			case <-s.wake:
			case <-s.ctx.Done():
			}
			continue
		}
		j := s.queue[0]
		s.queue[0] = job{}
		s.queue = s.queue[1:]
		s.qmu.Unlock()

		if s.limiter != nil {
			if err := s.limiter.Wait(s.ctx); err != nil {
				j.fail(err)
				continue
			}
		}
		j.run(s.ctx)
	}
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	changed := s.state != state
	s.state = state
	s.mu.Unlock()
	if changed {
		s.events.Publish(state)
	}
}

func (s *Session) authenticate(ctx context.Context, username, password string) (catalog.AuthenticatedUser, error) {
	s.mu.RLock()
	previous := s.state
	s.mu.RUnlock()
	s.setState(Authenticating)

	user, err := s.doAuthenticate(ctx, username, password)
	if err != nil {
		s.mu.Lock()
		if s.user == nil {
			previous = Unauthenticated
		}
		s.mu.Unlock()
		s.setState(previous)
		return catalog.AuthenticatedUser{}, err
	}

	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()
	s.setState(Authenticated)
	return user, nil
}

func (s *Session) doAuthenticate(ctx context.Context, username, password string) (catalog.AuthenticatedUser, error) {
	endpoint := s.baseURL.ResolveReference(&url.URL{Path: authenticatePath})
	endpoint.Scheme = "https"

	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := s.newRequest(ctx, http.MethodPost, endpoint.String(), strings.NewReader(form.Encode()))
	if err != nil {
		return catalog.AuthenticatedUser{}, newError(OpAuthenticate, ErrConnection, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.http.Do(req)
	if err != nil {
		return catalog.AuthenticatedUser{}, newError(OpAuthenticate, ErrConnection, fmt.Errorf("execute request: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return catalog.AuthenticatedUser{}, newError(OpAuthenticate, ErrInvalidCredentials, fmt.Errorf("api returned status %d", resp.StatusCode))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return catalog.AuthenticatedUser{}, newError(OpAuthenticate, ErrConnection, fmt.Errorf("read response: %w", err))
	}
	user, err := catalog.DecodeAuthenticatedUser(body)
	if err != nil {
		return catalog.AuthenticatedUser{}, newError(OpAuthenticate, ErrInvalidCredentials, err)
	}
	return user, nil
}

func (s *Session) fetchCatalog(ctx context.Context, quality catalog.Quality) (catalog.BatchUpdate, error) {
	if _, ok := s.User(); !ok {
		return catalog.BatchUpdate{}, newError(OpFetchCatalog, ErrAuthenticationRequired, nil)
	}
	if s.apiKey == "" {
		return catalog.BatchUpdate{}, newError(OpFetchCatalog, ErrConfiguration, fmt.Errorf("api key is not set"))
	}

	values := url.Values{}
	values.Set("stream_set_key", string(quality))
	endpoint := s.baseURL.ResolveReference(&url.URL{Path: batchUpdatePath, RawQuery: values.Encode()})

	req, err := s.newRequest(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return catalog.BatchUpdate{}, newError(OpFetchCatalog, ErrConnection, err)
	}
	req.Header.Set("Authorization", "Basic "+s.apiKey)
	req.Header.Set("Accept-Encoding", "br, gzip")

	body, err := s.readBody(req, 0)
	if err != nil {
		return catalog.BatchUpdate{}, newError(OpFetchCatalog, ErrConnection, err)
	}
	batch, err := catalog.DecodeBatchUpdate(body)
	if err != nil {
		return catalog.BatchUpdate{}, newError(OpFetchCatalog, ErrDecode, err)
	}
	return batch, nil
}

func (s *Session) fetchArtwork(ctx context.Context, image catalog.ChannelImage, size Size) ([]byte, error) {
	if size.Width <= 0 || size.Height <= 0 {
		size = DefaultArtworkSize
	}
	target, err := image.Default.ResolveString(map[string]string{
		"width":  strconv.Itoa(size.Width),
		"height": strconv.Itoa(size.Height),
	})
	if err != nil {
		return nil, newError(OpFetchArtwork, ErrDecode, err)
	}

	req, err := s.newRequest(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, newError(OpFetchArtwork, ErrConnection, err)
	}
	req.Header.Set("Accept", "image/*")

	data, err := s.readBody(req, maxArtworkBytes)
	if err != nil {
		return nil, newError(OpFetchArtwork, ErrConnection, err)
	}
	return data, nil
}

func (s *Session) newRequest(ctx context.Context, method, target string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("X-Request-Id", uuid.NewString())
	return req, nil
}

// readBody executes req and returns the decoded body of a 2xx response.
// limit <= 0 means unbounded.
func (s *Session) readBody(req *http.Request, limit int64) ([]byte, error) {
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("api %s returned status %d", req.URL.Path, resp.StatusCode)
	}

	var r io.Reader = resp.Body
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "br":
		r = brotli.NewReader(resp.Body)
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("open gzip body: %w", err)
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}
	if limit > 0 {
		r = io.LimitReader(r, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: response exceeds %d bytes", errTooLarge, limit)
	}
	return data, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = DefaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse base url %q: missing host", raw)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
