// Package app builds kai's stores and background services from a Config and
// owns their lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/mklimuk/kai/pkg/ai"
	"github.com/mklimuk/kai/pkg/auth"
	"github.com/mklimuk/kai/pkg/automation"
	"github.com/mklimuk/kai/pkg/capture"
	"github.com/mklimuk/kai/pkg/chat"
	"github.com/mklimuk/kai/pkg/comments"
	"github.com/mklimuk/kai/pkg/config"
	"github.com/mklimuk/kai/pkg/daily"
	"github.com/mklimuk/kai/pkg/db"
	"github.com/mklimuk/kai/pkg/feed"
	"github.com/mklimuk/kai/pkg/goals"
	"github.com/mklimuk/kai/pkg/integration/discord"
	"github.com/mklimuk/kai/pkg/integration/telegram"
	"github.com/mklimuk/kai/pkg/metrics"
	"github.com/mklimuk/kai/pkg/notes"
	vaultsync "github.com/mklimuk/kai/pkg/sync"
	"github.com/mklimuk/kai/pkg/vault"
	"go.uber.org/zap"
)

// Job names registered with the scheduler.
const (
	JobDailyRollover = "daily-rollover"
	JobVaultExport   = "vault-export"
)

// dailyTemplateName is looked up in the vault template directory.
const dailyTemplateName = "Daily Note"

// ErrExportDisabled is returned by Export when no vault path is configured.
var ErrExportDisabled = errors.New("vault export is not configured")

// App holds every store and service of a running kai instance.
type App struct {
	Config  *config.Config
	Repo    *db.Repository
	Metrics *metrics.Metrics

	Goals     *goals.Store
	Notes     *notes.Store
	Comments  *comments.Store
	Feed      *feed.Store
	Daily     *daily.Store
	Chat      *chat.Store
	Auth      *auth.Gate
	Capturer  *capture.Capturer
	Scheduler *automation.Service

	exporter *vault.Exporter
	git      *vaultsync.GitManager
	exportMu sync.Mutex

	database *db.DB
	savers   []*saver
	watcher  *feed.Watcher
	telegram *telegram.Bot
	discord  *discord.Bot
	cancel   context.CancelFunc
	logger   *zap.Logger
}

// New opens the database, restores persisted state and wires the stores.
// Nothing runs in the background until Start is called.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	database, err := db.NewDB(cfg.Storage.DBPath)
	if err != nil {
		return nil, err
	}
	if err := database.InitSchema(); err != nil {
		_ = database.Close()
		return nil, err
	}

	a := &App{
		Config:   cfg,
		Repo:     db.NewRepository(database),
		Metrics:  metrics.New(),
		database: database,
		logger:   logger,
	}
	if err := a.build(); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build() error {
	cfg := a.Config
	m := a.Metrics

	goalsSaver := a.newSaver(storeGoals)
	a.Goals = goals.NewStore(
		goals.WithLogger(a.logger.Named(storeGoals)),
		goals.WithMutationHook(goalsSaver.hook(m)),
	)
	goalsSaver.save = func() error { return a.saveGoals() }
	a.restoreGoals()

	notesSaver := a.newSaver(storeNotes)
	a.Notes = notes.NewStore(
		notes.WithLogger(a.logger.Named(storeNotes)),
		notes.WithMutationHook(notesSaver.hook(m)),
	)
	notesSaver.save = func() error { return a.saveNotes() }
	a.restoreNotes()

	commentsSaver := a.newSaver(storeComments)
	a.Comments = comments.NewStore(
		comments.WithAuthor(cfg.Comments.Author),
		comments.WithLogger(a.logger.Named(storeComments)),
		comments.WithMutationHook(commentsSaver.hook(m)),
	)
	commentsSaver.save = func() error { return a.saveComments() }
	a.restoreComments()

	var items []feed.Item
	if cfg.Feed.Catalog != "" {
		loaded, err := feed.LoadCatalog(cfg.Feed.Catalog)
		if err != nil {
			return err
		}
		items = loaded
	}
	feedSaver := a.newSaver(storeFeed)
	a.Feed = feed.NewStore(items,
		feed.WithLogger(a.logger.Named(storeFeed)),
		feed.WithProjectSource(projectSource{goals: a.Goals}),
		feed.WithMutationHook(feedSaver.hook(m)),
	)
	feedSaver.save = func() error { return a.saveFeed() }
	a.restoreFeed()
	if cfg.Feed.Catalog != "" && cfg.Feed.Watch {
		w, err := feed.NewWatcher(cfg.Feed.Catalog, a.Feed, a.logger.Named("feed-watcher"))
		if err != nil {
			return err
		}
		a.watcher = w
	}

	a.Daily = daily.NewStore(a.Repo,
		daily.WithLogger(a.logger.Named(storeDaily)),
		daily.WithDebounce(cfg.Storage.Debounce),
		daily.WithMutationHook(m.MutationHook(storeDaily)),
	)
	if err := a.seedDailyTemplate(); err != nil {
		return err
	}

	a.Chat = chat.NewStore(a.Repo, ai.NewSimulatedGenerator(),
		chat.WithLogger(a.logger.Named(storeChat)),
		chat.WithReplyDelay(cfg.Chat.ReplyDelay),
		chat.WithMutationHook(m.MutationHook(storeChat)),
	)

	gate, err := auth.NewGate(a.Repo, cfg.Auth.PasswordHash, cfg.Auth.Password, a.logger.Named("auth"))
	if err != nil {
		return err
	}
	a.Auth = gate

	a.Capturer = capture.New(a.Goals, a.Notes, a.Daily, capture.WithLogger(a.logger.Named("capture")))

	if cfg.Vault.Path != "" {
		a.exporter = vault.NewExporter(cfg.Vault.Path)
		if cfg.Vault.Commit {
			a.git = vaultsync.NewGitManager(cfg.Vault.Path, vaultsync.WithLogger(a.logger.Named("git")))
		}
	}

	return a.registerJobs()
}

// seedDailyTemplate loads the vault's daily template when none is stored yet.
func (a *App) seedDailyTemplate() error {
	dir := a.Config.Vault.TemplateDir
	if dir == "" || a.Daily.Template() != "" {
		return nil
	}
	tmpl, err := vault.NewTemplateEngine(dir).LoadTemplate(dailyTemplateName)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			a.logger.Info("no daily template in template dir", zap.String("dir", dir))
			return nil
		}
		return err
	}
	return a.Daily.UpdateTemplate(tmpl)
}

func (a *App) registerJobs() error {
	cfg := a.Config.Automation
	a.Scheduler = automation.NewService(cfg.Tick,
		automation.WithLogger(a.logger.Named("automation")),
		automation.WithRunHook(a.Metrics.RecordAutomationRun),
	)

	loc := time.Local
	if cfg.Timezone != "" && cfg.Timezone != "Local" {
		l, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return fmt.Errorf("invalid automation timezone %q: %w", cfg.Timezone, err)
		}
		loc = l
	}

	if cfg.DailyRollover {
		sched, err := automation.ParseSchedule(automation.KindCron, "@midnight", loc)
		if err != nil {
			return err
		}
		a.Scheduler.Register(JobDailyRollover, sched, func(ctx context.Context) (string, error) {
			note, created := a.Daily.EnsureToday()
			if created {
				return "created " + note.Date, nil
			}
			return note.Date + " already exists", nil
		})
	}

	if cfg.ExportInterval > 0 && a.exporter != nil {
		sched, err := automation.ParseSchedule(automation.KindInterval, cfg.ExportInterval.String(), loc)
		if err != nil {
			return err
		}
		a.Scheduler.Register(JobVaultExport, sched, func(ctx context.Context) (string, error) {
			sum, err := a.Export(ctx)
			if err != nil {
				return "", err
			}
			return sum.String(), nil
		})
	}
	return nil
}

// Start launches the catalog watcher, the scheduler and any configured bots.
// A bot that fails to connect is logged and skipped.
func (a *App) Start(ctx context.Context) error {
	ctx, a.cancel = context.WithCancel(ctx)

	if a.watcher != nil {
		a.watcher.Start(ctx)
	}
	a.Scheduler.Start()

	bots := a.Config.Bots
	if bots.TelegramToken != "" {
		bot, err := telegram.NewBot(bots.TelegramToken, a.Capturer, a.logger)
		if err != nil {
			a.logger.Error("failed to create Telegram bot", zap.Error(err))
		} else {
			if len(bots.TelegramChatIDs) > 0 {
				bot.AllowedChats = make(map[int64]bool, len(bots.TelegramChatIDs))
				for _, id := range bots.TelegramChatIDs {
					bot.AllowedChats[id] = true
				}
			}
			bot.OnCommand = func(cmd string) { a.Metrics.RecordBotCommand("telegram", cmd) }
			if err := bot.Start(); err != nil {
				a.logger.Error("failed to start Telegram bot", zap.Error(err))
			} else {
				a.telegram = bot
			}
		}
	}
	if bots.DiscordToken != "" {
		bot, err := discord.NewBot(bots.DiscordToken, a.Capturer, a.logger)
		if err != nil {
			a.logger.Error("failed to create Discord bot", zap.Error(err))
		} else {
			bot.OnCommand = func(cmd string) { a.Metrics.RecordBotCommand("discord", cmd) }
			if err := bot.Start(); err != nil {
				a.logger.Error("failed to start Discord bot", zap.Error(err))
			} else {
				a.discord = bot
			}
		}
	}
	return nil
}

// Close stops background work, flushes pending writes and closes the
// database.
func (a *App) Close() error {
	var errs []error
	if a.cancel != nil {
		a.cancel()
	}
	if a.discord != nil {
		errs = append(errs, a.discord.Stop())
	}
	if a.telegram != nil {
		a.telegram.Stop()
	}
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if a.watcher != nil {
		a.watcher.Stop()
	}
	if a.Chat != nil {
		errs = append(errs, a.Chat.Close())
	}
	if a.Daily != nil {
		errs = append(errs, a.Daily.Close())
	}
	for _, s := range a.savers {
		errs = append(errs, s.Close())
	}
	if a.database != nil {
		errs = append(errs, a.database.Close())
	}
	return errors.Join(errs...)
}

// projectSource exposes live goal projects to the feed.
type projectSource struct {
	goals *goals.Store
}

func (p projectSource) AvailableProjects() []feed.AvailableProject {
	live := p.goals.LiveProjects()
	out := make([]feed.AvailableProject, 0, len(live))
	for _, pg := range live {
		out = append(out, feed.AvailableProject{Project: pg.Project.Title, Goal: pg.Goal.Title})
	}
	return out
}
