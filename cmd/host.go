package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mwkelly/redraft/internal/claude"
	"github.com/mwkelly/redraft/internal/config"
	"github.com/mwkelly/redraft/internal/modelcache"
	"github.com/mwkelly/redraft/internal/output"
	"github.com/mwkelly/redraft/internal/store"
	"github.com/spf13/viper"
)

// host wires the collaborators every command needs: the viper-loaded
// configuration, the logger, the persisted data record, the API client,
// and the model cache restored from the record.
type host struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.FileStore
	record   store.Record
	client   *claude.Client
	cache    *modelcache.Cache
	notifier *output.Notifier
}

func newHost() (*host, error) {
	cfg := &config.Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	logger := newLogger(cfg.Verbose)

	if cfg.DataFile == "" {
		return nil, errors.New("no data file configured and no home directory available")
	}

	st := store.NewFileStore(cfg.DataFile, logger)
	record, err := st.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", st.Path(), err)
	}

	apiKey := credential(record.Settings, cfg)

	opts := []claude.Option{claude.WithLogger(logger)}
	if cfg.BaseURL != "" {
		opts = append(opts, claude.WithBaseURL(cfg.BaseURL))
	}
	client := claude.New(apiKey, opts...)

	notifier := output.NewNotifier(os.Stderr, output.ColorAuto)
	cache := modelcache.New(client, notifier, func() bool { return apiKey != "" }, logger)
	cache.Restore(record.ModelCache)

	return &host{
		cfg:      cfg,
		logger:   logger,
		store:    st,
		record:   record,
		client:   client,
		cache:    cache,
		notifier: notifier,
	}, nil
}

// saveRecord persists the current record, folding the live cache state
// back into it first.
func (h *host) saveRecord() error {
	h.record.ModelCache = h.cache.Snapshot()
	if err := h.store.Save(h.record); err != nil {
		return fmt.Errorf("failed to save %s: %w", h.store.Path(), err)
	}
	return nil
}

// writer builds an output writer for the configured format.
func (h *host) writer(w io.Writer) *output.Writer {
	return output.New(w, output.ParseFormat(h.cfg.Format))
}

// newLogger builds the command logger. Verbose mode lowers the level so
// the client's request and retry logs reach stderr.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelError
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// credential resolves the API key: the key stored in settings wins, then
// the host config override, then the ANTHROPIC_API_KEY environment
// variable. Empty means no credential is configured.
func credential(settings config.Settings, cfg *config.Config) string {
	key := settings.APIKey
	if key == "" {
		key = cfg.APIKey
	}
	return config.ResolveAPIKey(key)
}

// noticeForError maps a typed client error to the one human-readable
// notice shown to the user. The full error goes to the logger.
func noticeForError(err error) string {
	kind, ok := claude.KindOf(err)
	if !ok {
		return fmt.Sprintf("Cleanup failed: %v", err)
	}

	switch kind {
	case claude.KindConfiguration:
		return fmt.Sprintf("Configuration problem: %v. Check 'redraft config show'.", err)
	case claude.KindInputTooLarge:
		return "The text is too large to send. Split it into smaller pieces."
	case claude.KindCredential:
		return "The API key is missing or was rejected. Set one with 'redraft config set-key'."
	case claude.KindRateLimited:
		return "The service is rate limiting or overloaded. Wait a moment and try again."
	case claude.KindMalformedResponse:
		return "The model returned an unusable reply. Try again."
	case claude.KindTransport:
		return fmt.Sprintf("Could not reach the API: %v", err)
	case claude.KindProvider:
		return fmt.Sprintf("The API reported an error: %v", err)
	default:
		return fmt.Sprintf("Cleanup failed: %v", err)
	}
}
