// Command player is a headless playback client: it drives the double-buffer
// engine against simulated surfaces, connects to the control channel, and
// walks the stage graph the way the installation's browser client does. It is
// used for soak testing the server and the show-control integration without
// a display.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"showloop/internal/control"
	"showloop/internal/platform/config"
	"showloop/internal/platform/logger"
	"showloop/internal/player"
	"showloop/internal/stage"
)

func main() {
	_ = config.Load()

	serverURL := config.GetEnv("SERVER_URL", "http://localhost:8080")
	controlURL := config.GetEnv("CONTROL_URL", "ws://localhost:8080/ws")
	logLevel := config.GetEnv("LOG_LEVEL", "info")
	logFormat := config.GetEnv("LOG_FORMAT", "text")
	clipLen := config.GetEnvDuration("SIM_CLIP_LEN", 10*time.Second)
	fillDelay := config.GetEnvDuration("SIM_FILL_DELAY", 300*time.Millisecond)

	log := logger.New(logLevel, logFormat)
	profile := profileFromEnv()
	graph := stage.Default()

	p := &headlessPlayer{log: log}

	a := player.NewSimSurface("a", clipLen, fillDelay, p.ended)
	b := player.NewSimSurface("b", clipLen, fillDelay, p.ended)
	engine := player.NewEngine(graph, a, b, profile, serverURL, log)
	engine.SetProber(&player.HTTPProber{})
	engine.SetPromptFunc(func() { log.Info("tap to start") })

	client := control.NewClient(controlURL, p, control.DefaultReconnectDelay, log)
	engine.SetNotifier(client)

	p.engine = engine
	p.session = player.NewSession(player.FormatMP4)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Run(ctx)

	// A headless player has no viewer; start immediately.
	if _, err := engine.HandleInteraction(ctx, p.session); err != nil {
		log.Error("initial playback failed", "error", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	log.Info("player stopping")
}

// headlessPlayer glues the control channel to the engine and holds the
// current session, replacing it on RELOAD.
type headlessPlayer struct {
	mu      sync.Mutex
	engine  *player.Engine
	session *player.Session
	log     *slog.Logger
}

func (p *headlessPlayer) current() *player.Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session
}

// Stage implements control.CommandHandler.
func (p *headlessPlayer) Stage(id string) {
	if _, err := p.engine.TransitionTo(context.Background(), p.current(), stage.ID(id)); err != nil {
		p.log.Error("forced transition failed", "stage", id, "error", err)
	}
}

// Reload implements control.CommandHandler. A browser client reloads the
// page; the headless player starts a fresh session instead.
func (p *headlessPlayer) Reload() {
	p.mu.Lock()
	p.session = player.NewSession(player.FormatMP4)
	s := p.session
	p.mu.Unlock()
	p.log.Info("reload requested, restarting session")
	if _, err := p.engine.HandleInteraction(context.Background(), s); err != nil {
		p.log.Error("restart failed", "error", err)
	}
}

// Signal implements control.CommandHandler.
func (p *headlessPlayer) Signal(token string) {
	p.log.Debug("control signal", "token", token)
}

func (p *headlessPlayer) ended() {
	if _, err := p.engine.HandleEnded(context.Background(), p.current()); err != nil {
		p.log.Error("natural advance failed", "error", err)
	}
}

func profileFromEnv() player.Profile {
	var profile player.Profile
	if config.GetEnv("PROFILE", "desktop") == "mobile" {
		profile = player.MobileProfile()
	} else {
		profile = player.DesktopProfile()
	}
	profile.ReadyTimeout = config.GetEnvDuration("PLAYER_READY_TIMEOUT", profile.ReadyTimeout)
	profile.WarmLead = config.GetEnvFloat("PLAYER_WARM_LEAD", profile.WarmLead)
	profile.MinLead = config.GetEnvFloat("PLAYER_MIN_LEAD", profile.MinLead)
	profile.MinLeadLoop = config.GetEnvFloat("PLAYER_MIN_LEAD_LOOP", profile.MinLeadLoop)
	profile.SwapSettle = config.GetEnvDuration("PLAYER_SWAP_SETTLE", profile.SwapSettle)
	profile.PreloadDelay = config.GetEnvDuration("PLAYER_PRELOAD_DELAY", profile.PreloadDelay)
	return profile
}
