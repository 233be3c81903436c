package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/murenne/ADVLite/internal/adv"
	"github.com/murenne/ADVLite/internal/audio"
	"github.com/murenne/ADVLite/internal/config"
	"github.com/murenne/ADVLite/internal/core/event"
	"github.com/murenne/ADVLite/internal/figure"
	"github.com/murenne/ADVLite/internal/locale"
	"github.com/murenne/ADVLite/internal/persist"
	"github.com/murenne/ADVLite/internal/resource"
	"github.com/murenne/ADVLite/internal/scripting"
	"github.com/murenne/ADVLite/internal/tui"
	"go.uber.org/zap"
)

type playOptions struct {
	script   string
	chapter  int
	line     int
	headless bool
}

func runPlay(ctx context.Context, cfg *config.Config, opts playOptions) error {
	log, err := newLogger(cfg.Logging, !opts.headless)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(opts.script, opts.chapter)

	// 1. Assets
	printSection("assets")

	bus := event.NewBus()
	loader := resource.NewFileLoader(cfg.Assets.Root, cfg.Assets.MaxConcurrentLoads, log)
	loader.Register(resource.KindFigure, figure.Decode)
	loader.Register(resource.KindAudio, audio.DecodeWAV)
	res := resource.NewManager(ctx, loader, bus, log)
	defer res.Close()

	pool := resource.NewRenderTargetPool(cfg.Render.TargetSize, log)
	pool.Prepare(cfg.Render.PoolPrepare)
	defer pool.Clear()
	printStat("render targets", pool.Available())

	loc, err := locale.New(cfg.Locale, log)
	if err != nil {
		return fmt.Errorf("locale: %w", err)
	}
	printOK("locale " + loc.Language().String())

	// 2. Audio
	mixer := audio.NewMixer(cfg.Audio, res, log)
	defer mixer.Close()
	if cfg.Audio.Enabled && !opts.headless {
		if err := mixer.Open(); err != nil {
			log.Warn("audio device unavailable, playing silently", zap.Error(err))
		} else {
			printOK("audio device open")
		}
	}
	var chapters *audio.ChapterTable
	if cfg.Audio.Chapters != "" {
		chapters, err = audio.LoadChapterTable(filepath.Join(cfg.Assets.Root, cfg.Audio.Chapters))
		if err != nil {
			return fmt.Errorf("chapter audio: %w", err)
		}
		printStat("chapter audio", chapters.Count())
	}

	// 3. Screen and input
	var (
		presenter adv.Presenter
		input     adv.Input
		headless  *tui.Headless
	)
	if opts.headless {
		headless = tui.NewHeadless(log)
		presenter, input = headless, tui.AutoInput{}
	}

	deps := adv.Deps{
		Config:    cfg,
		Log:       log,
		Bus:       bus,
		Resources: res,
		Pool:      pool,
		Audio:     mixer,
		Engine:    scripting.NewEngine(cfg.Script.Dir, log),
		Locale:    loc,
		Chapters:  chapters,
		Placement: adv.NewOffsetPlacement(cfg.Placement),
		VoiceHold: adv.NewVoiceHold(cfg.VoiceHold),
	}
	defer deps.Engine.Close()

	// 4. Optional backlog database
	var (
		sessions *persist.SessionRepo
		session  *persist.SessionRow
		recorder *dbRecorder
	)
	if cfg.Database.DSN != "" {
		printSection("database")
		dbCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		db, err := persist.NewDB(dbCtx, cfg.Database, log)
		if err != nil {
			cancel()
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		if err := persist.RunMigrations(dbCtx, db.Pool); err != nil {
			cancel()
			return fmt.Errorf("migrations: %w", err)
		}
		sessions = persist.NewSessionRepo(db)
		session, err = sessions.Create(dbCtx, opts.script, opts.chapter, opts.line)
		cancel()
		if err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		recorder = newDBRecorder(persist.NewBacklogRepo(db), session.ID, log)
		deps.Recorder = recorder
		printOK("session " + session.ID.String())
	}

	frames := adv.NewTickerFrames(cfg.Playback.FrameInterval())
	defer frames.Stop()
	deps.Frames = frames

	if !opts.headless {
		term, err := tui.NewTerminal(log)
		if err != nil {
			return fmt.Errorf("terminal: %w", err)
		}
		defer term.Close()
		presenter, input = term, term
	} else {
		fmt.Println()
		printReady("playing headless")
	}
	deps.Presenter, deps.Input = presenter, input

	m := adv.New(deps)
	if err := deps.Engine.Boot(cfg.Script.BootScripts); err != nil {
		return err
	}

	log.Info("playback started",
		zap.String("script", opts.script),
		zap.Int("chapter", opts.chapter),
		zap.Int("line", opts.line),
	)
	playErr := m.Play(ctx, opts.script, opts.chapter, opts.line)
	lines := len(m.Backlog())
	log.Info("playback ended",
		zap.Int("lines", lines),
		zap.String("targets", pool.Info()),
		zap.Error(playErr),
	)

	if recorder != nil {
		// Playback may have ended on cancellation; the session is still closed.
		finishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := recorder.Flush(finishCtx); err != nil {
			log.Error("backlog flush failed", zap.Error(err))
		}
		if err := sessions.Finish(finishCtx, session.ID, lines); err != nil {
			log.Error("session finish failed", zap.Error(err))
		}
	}
	if headless != nil {
		printStat("lines shown", headless.Lines())
	}
	return playErr
}
