package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/6A31/terminal-player/player"
	"github.com/6A31/terminal-player/tui"
)

func main() {
	var (
		mode     = flag.String("mode", "memory", "frame supply strategy: memory, disk, or live")
		cached   = flag.Bool("cached", false, "play from the existing frame cache (implies -mode disk)")
		cacheDir = flag.String("cache-dir", "", "frame cache directory (default <input>.frames)")
		fps      = flag.Float64("fps", 0, "display frame rate; 0 plays at the source rate (audio speed never changes, frames are skipped)")
		noskip   = flag.Bool("noskip", false, "disable adaptive skipping; video may fall out of sync")
		debug    = flag.Bool("debug", false, "show live FPS in the top-right corner")
		color    = flag.Bool("color", false, "render colored glyphs")
		palette  = flag.String("palette", "256", "color palette: 256 or 8")
		sub      = flag.String("sub", "", "transcript JSON file for captions")
		mute     = flag.Bool("mute", false, "play without audio")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: terminal-player [options] <video file>")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := buildConfig(flag.Arg(0), *mode, *cached, *cacheDir, *fps, *noskip, *debug, *color, *palette, *sub, *mute)
	if err != nil {
		fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		fatal(err)
	}
}

func buildConfig(input, mode string, cached bool, cacheDir string, fps float64, noskip, debug, color bool, palette, sub string, mute bool) (player.Config, error) {
	var cfg player.Config

	m, err := player.ParseMode(mode)
	if err != nil {
		return cfg, err
	}
	if cached {
		m = player.ModeDisk
	}

	var pal player.PaletteMode
	switch palette {
	case "256":
		pal = player.Palette256
	case "8":
		pal = player.Palette8
	default:
		return cfg, fmt.Errorf("unknown palette %q (want 256 or 8)", palette)
	}

	if m == player.ModeDisk && cacheDir == "" {
		cacheDir = input + ".frames"
	}

	cfg = player.Config{
		Input:               input,
		Mode:                m,
		UseCachedFrames:     cached,
		CacheDir:            cacheDir,
		Color:               color,
		Palette:             pal,
		DisplayFPS:          fps,
		DisableAdaptiveSkip: noskip,
		DebugFPS:            debug,
		TranscriptPath:      sub,
		Mute:                mute,
	}
	return cfg, cfg.Validate()
}

func run(ctx context.Context, cfg player.Config) error {
	session, err := player.NewSession(cfg, os.Stdout)
	if err != nil {
		return err
	}
	defer session.Close()

	warnings, err := prepare(ctx, cfg, session)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		fmt.Fprintln(os.Stderr, tui.WarnStyle.Render("warning: "+w))
	}

	return session.Play(ctx)
}

// prepare builds the frame source. Strategies that walk the whole video
// up front (memory, disk extraction) get a progress screen; the others
// are immediate.
func prepare(ctx context.Context, cfg player.Config, session *player.Session) ([]string, error) {
	slow := cfg.Mode == player.ModeMemory ||
		(cfg.Mode == player.ModeDisk && !cfg.UseCachedFrames)
	if !slow {
		return session.Prepare(ctx, nil)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan tea.Msg, 8)
	go func() {
		warnings, err := session.Prepare(ctx, func(done, total int) {
			if done%10 != 0 && done != total {
				return
			}
			select {
			case events <- tui.ProgressMsg{Done: done, Total: total}:
			default:
			}
		})
		events <- tui.DoneMsg{Warnings: warnings, Err: err}
	}()

	label := "Pre-rendering frames..."
	if cfg.Mode == player.ModeDisk {
		label = "Extracting frames..."
	}

	p := tea.NewProgram(tui.NewPrepareModel(label, events, cancel))
	final, err := p.Run()
	if err != nil {
		return nil, err
	}

	m := final.(tui.PrepareModel)
	return m.Warnings, m.Err
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, tui.ErrorStyle.Render("error: "+err.Error()))
	os.Exit(1)
}
