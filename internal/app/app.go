package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/difm/internal/artwork"
	"github.com/five82/difm/internal/audioaddict"
	"github.com/five82/difm/internal/catalog"
	"github.com/five82/difm/internal/config"
	"github.com/five82/difm/internal/credentials"
	"github.com/five82/difm/internal/prefs"
	"github.com/five82/difm/internal/state"
	"github.com/five82/difm/internal/ui"
)

// Exit codes returned by the difm command.
const (
	ExitOK       = 0
	ExitAuth     = 1
	ExitFetch    = 2
	ExitNotFound = 3
	ExitUsage    = 4
)

// ExitError pairs an error with the process exit code it maps to.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }

func (e *ExitError) Unwrap() error { return e.Err }

func exitf(code int, format string, args ...any) *ExitError {
	return &ExitError{Code: code, Err: fmt.Errorf(format, args...)}
}

// ExitCode maps an error returned by Run to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitUsage
}

// Options configure a difm run.
type Options struct {
	ConfigPath  string
	Username    string
	Password    string
	Quality     string // empty uses the saved preference
	Remember    bool
	ArtworkPath string
	Browse      bool
	Station     string

	Stdout      io.Writer
	Stderr      io.Writer
	Logger      *log.Logger
	HTTPClient  *http.Client
	Credentials credentials.Store // nil opens the configured credentials file
}

// Run signs in, then either prints the stream URL for one station or opens
// the channel browser. Errors are *ExitError values.
func Run(ctx context.Context, opts Options) error {
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return exitf(ExitUsage, "load config: %w", err)
	}
	station := strings.TrimSpace(opts.Station)
	if !opts.Browse && station == "" {
		return exitf(ExitUsage, "station name required (or use -browse)")
	}

	settings := prefs.Open(cfg.PrefsPath)
	if raw := strings.TrimSpace(opts.Quality); raw != "" {
		quality, err := catalog.ParseQuality(raw)
		if err != nil {
			return exitf(ExitUsage, "%w", err)
		}
		if err := settings.SetStreamQuality(quality); err != nil {
			logger.Printf("save stream quality: %v", err)
		}
	}

	store := opts.Credentials
	if store == nil {
		fileStore, err := credentials.OpenFile(cfg.CredentialsPath)
		if err != nil {
			return exitf(ExitUsage, "load credentials: %w", err)
		}
		store = fileStore
	}
	username, password := pickCredentials(opts, store)
	if username == "" || password == "" {
		return exitf(ExitUsage, "no credentials: pass -u and -p (add -remember to save them)")
	}

	session, err := audioaddict.NewSession(audioaddict.Options{
		BaseURL:           cfg.BaseURL,
		APIKey:            cfg.APIKey,
		UserAgent:         cfg.UserAgent,
		Timeout:           cfg.Timeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
		HTTPClient:        opts.HTTPClient,
		Logger:            logger,
	})
	if err != nil {
		return exitf(ExitUsage, "init session: %w", err)
	}
	defer session.Close()

	user, err := session.Authenticate(ctx, username, password)
	if err != nil {
		return &ExitError{Code: ExitAuth, Err: err}
	}
	if opts.Remember {
		rememberCredentials(store, username, password, logger)
	}

	if opts.Browse {
		return browse(ctx, cfg, session, settings, user)
	}
	return lookup(ctx, session, settings.StreamQuality(), user, station, opts.ArtworkPath, stdout, stderr)
}

func pickCredentials(opts Options, store credentials.Store) (string, string) {
	username := strings.TrimSpace(opts.Username)
	if username == "" {
		username = store.Username()
	}
	password := opts.Password
	if password == "" {
		password = store.Password()
	}
	return username, password
}

func rememberCredentials(store credentials.Store, username, password string, logger *log.Logger) {
	if err := store.SetUsername(username); err != nil {
		logger.Printf("save username: %v", err)
		return
	}
	if err := store.SetPassword(password); err != nil {
		logger.Printf("save password: %v", err)
	}
}

var (
	channelStyle = lipgloss.NewStyle().Bold(true)
	detailStyle  = lipgloss.NewStyle().Faint(true)
)

func lookup(ctx context.Context, session *audioaddict.Session, quality catalog.Quality, user catalog.AuthenticatedUser, station, artworkPath string, stdout, stderr io.Writer) error {
	batch, err := session.FetchCatalog(ctx, quality)
	if err != nil {
		return &ExitError{Code: ExitFetch, Err: err}
	}

	ch, ok := batch.FindChannel(station)
	if !ok {
		return exitf(ExitNotFound, "channel %q not found", station)
	}
	stream, ok := batch.StreamFor(ch.ID)
	if !ok {
		return exitf(ExitNotFound, "channel %q has no %s stream", ch.Name, quality)
	}
	streamURL, err := stream.AuthorizedURL(user.ListenKey)
	if err != nil {
		return exitf(ExitFetch, "stream url for %q: %w", ch.Name, err)
	}

	fmt.Fprintln(stdout, streamURL)
	fmt.Fprintln(stderr, channelStyle.Render(ch.Name)+"  "+detailStyle.Render(quality.Description()))

	if artworkPath == "" {
		return nil
	}
	img, err := artwork.NewCache(session).Load(ctx, ch, audioaddict.DefaultArtworkSize)
	if err != nil {
		return &ExitError{Code: ExitFetch, Err: err}
	}
	if err := os.WriteFile(artworkPath, img.Data, 0o644); err != nil {
		return exitf(ExitFetch, "write artwork: %w", err)
	}
	fmt.Fprintln(stderr, detailStyle.Render(fmt.Sprintf("artwork: %s %dx%d -> %s", img.Format, img.Width, img.Height, artworkPath)))
	return nil
}

func browse(ctx context.Context, cfg config.Config, session *audioaddict.Session, settings *prefs.Settings, user catalog.AuthenticatedUser) error {
	// Log lines would corrupt the alternate screen.
	logPath := filepath.Join(filepath.Dir(cfg.PrefsPath), "difm.log")
	if f, err := tea.LogToFile(logPath, "difm"); err == nil {
		defer func() { _ = f.Close() }()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	store := &state.Store{}
	StartRefresher(ctx, store, session, settings, defaultRefreshInterval, nil)

	err := ui.Run(ui.Options{
		Context:        ctx,
		Store:          store,
		Settings:       settings,
		Artwork:        artwork.NewCache(session),
		Classification: cfg.Classification(),
		User:           user,
	})
	if err != nil {
		return exitf(ExitUsage, "run ui: %w", err)
	}
	return nil
}
