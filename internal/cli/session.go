package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/kiranshivaraju/segmentlens/internal/cache"
	"github.com/kiranshivaraju/segmentlens/internal/config"
	"github.com/kiranshivaraju/segmentlens/internal/gateway"
	"github.com/kiranshivaraju/segmentlens/internal/store"
	"github.com/kiranshivaraju/segmentlens/internal/tab"
	"github.com/kiranshivaraju/segmentlens/internal/theme"
	"github.com/kiranshivaraju/segmentlens/internal/viz"
)

// clientID identifies the CLI in the preference store.
const clientID = "segctl"

// options are the persistent flags shared by every command.
type options struct {
	backend string
	redis   string
	tabID   string
	theme   string
}

// session is one page opened for the duration of a command.
type session struct {
	page   *tab.Page
	render *Renderer
	out    io.Writer
	close  func()
}

func (o *options) overrides(c *config.Config) {
	if o.backend != "" {
		c.Backend.BaseURL = o.backend
	}
	if o.redis != "" {
		c.Redis.URL = o.redis
	}
	if o.theme != "" {
		c.Theme.Default = viz.ThemeName(o.theme)
	}
}

// openSession loads configuration and opens the page of the configured tab.
// With Redis the tab's session cache outlives the process, so results can be
// reloaded by a later command.
func openSession(cmd *cobra.Command, opts *options) (*session, error) {
	cfg, err := config.LoadClient(opts.overrides)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn}))

	var backend cache.Cache
	closeFn := func() {}
	if cfg.Redis.URL != "" {
		rc, err := cache.NewRedisCache(cfg.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("create redis cache: %w", err)
		}
		if err := rc.Ping(cmd.Context()); err != nil {
			rc.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		backend = rc
		closeFn = func() { rc.Close() }
	} else {
		backend = cache.NewMemoryCache(cfg.Session.TTL, cfg.Session.PurgeInterval)
	}

	themes := theme.NewService(store.NewMemoryStore(), cfg.Theme.Default, logger)
	tabs := tab.NewRegistry(tab.Deps{
		Caller:     gateway.NewHTTPClient(cfg.Backend.BaseURL, cfg.Backend.Timeout),
		Cache:      backend,
		Themes:     themes,
		SessionTTL: cfg.Session.TTL,
		Logger:     logger,
	})
	page := tabs.Open(cmd.Context(), opts.tabID, clientID)

	return &session{
		page:   page,
		render: NewRenderer(cmd.OutOrStdout(), page.Presenter.Theme()),
		out:    cmd.OutOrStdout(),
		close:  closeFn,
	}, nil
}

// flush prints the notices recorded since the last flush.
func (s *session) flush() {
	fmt.Fprint(s.out, s.render.Notices(s.page.UI.Drain()))
}
