// Command demo runs the deferred SSAO renderer. The gl backend opens a
// window; the software backend renders a fixed number of frames off screen
// and writes the last one to a PNG.
package main

import (
	"errors"
	"flag"
	"fmt"
	"image/png"
	"os"
	"time"

	"github.com/loov/hrtime"
	"go.uber.org/zap"

	"ssao-renderer/config"
	"ssao-renderer/core"
	"ssao-renderer/game"
	"ssao-renderer/internal/logger"
	"ssao-renderer/internal/opengl"
	"ssao-renderer/internal/platform"
	"ssao-renderer/internal/software"
)

func main() {
	configPath := flag.String("config", "", "scene and settings file (TOML); built-in scene when empty")
	backend := flag.String("backend", "gl", "device backend: gl or software")
	frames := flag.Int("frames", 60, "software backend: frames to render")
	out := flag.String("out", "frame.png", "software backend: output image")
	flag.Parse()

	if err := run(*configPath, *backend, *frames, *out); err != nil {
		fmt.Fprintln(os.Stderr, "demo:", err)
		os.Exit(1)
	}
}

func run(configPath, backend string, frames int, out string) error {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
	}
	if err := logger.Init(cfg.Log); err != nil {
		return err
	}
	defer logger.Sync()

	switch backend {
	case "gl":
		return runWindowed(cfg)
	case "software":
		return runHeadless(cfg, frames, out)
	}
	return fmt.Errorf("unknown backend %q", backend)
}

// ── Windowed ──────────────────────────────────────────────────────────────────

func runWindowed(cfg *config.File) error {
	wc := platform.DefaultWindowConfig()
	wc.Title = cfg.Window.Title
	wc.Width, wc.Height = cfg.Window.Width, cfg.Window.Height
	wc.VSync = cfg.Window.VSync

	window, err := platform.NewWindow(wc)
	if err != nil {
		return err
	}
	defer window.Destroy()

	dev, err := opengl.New(opengl.Config{Width: window.Width, Height: window.Height, Swap: window.SwapBuffers})
	if err != nil {
		return err
	}
	defer dev.Destroy()

	g, err := game.New(dev, cfg, window, window.Width, window.Height)
	if err != nil {
		return err
	}
	defer g.Destroy()

	// A failed resize is a resource creation failure: stop the loop and
	// return it.
	var resizeErr error
	window.OnResize(func(width, height int) {
		if err := g.Resize(width, height); err != nil && resizeErr == nil {
			resizeErr = err
			window.Close()
		}
	})

	hud := &DebugOverlay{}
	start := hrtime.Now()
	last, fpsStart := start, start
	frameCount := 0

	logger.Log.Info("entering main loop", zap.Int("width", window.Width), zap.Int("height", window.Height))
	for !window.ShouldClose() {
		window.PollEvents()
		if resizeErr != nil {
			break
		}
		if window.IsKeyPressed(core.KeyEscape) {
			window.Close()
			continue
		}

		now := hrtime.Now()
		dt := float32((now - last).Seconds())
		last = now

		g.Update(dt, float32((now - start).Seconds()))
		if err := g.Draw(); err != nil {
			return fmt.Errorf("frame %d: %w", dev.Frames(), err)
		}

		frameCount++
		if elapsed := now - fpsStart; elapsed >= time.Second {
			fps := float64(frameCount) / elapsed.Seconds()
			window.SetTitle(g.Overlay().Title(cfg.Window.Title, fps))
			if hud.Set(g.HUD()) {
				fmt.Print(hud.GetText())
			}
			frameCount = 0
			fpsStart = now
		}
	}
	if resizeErr != nil {
		return resizeErr
	}
	logger.Log.Info("exiting", zap.Int("frames", dev.Frames()))
	return nil
}

// ── Headless ──────────────────────────────────────────────────────────────────

// idleInput is the input source of the headless run: nothing is pressed.
type idleInput struct{}

func (idleInput) IsKeyPressed(int) bool            { return false }
func (idleInput) IsMouseButtonPressed(int) bool    { return false }
func (idleInput) GetCursorPos() (float64, float64) { return 0, 0 }

func runHeadless(cfg *config.File, frames int, out string) error {
	if frames <= 0 {
		return errors.New("-frames must be positive")
	}
	w, h := cfg.Window.Width, cfg.Window.Height
	dev := software.New(software.Config{Width: w, Height: h})
	defer dev.Destroy()

	g, err := game.New(dev, cfg, idleInput{}, w, h)
	if err != nil {
		return err
	}
	defer g.Destroy()

	const dt = float32(1.0 / 60)
	start := hrtime.Now()
	for i := 0; i < frames; i++ {
		g.Update(dt, float32(i+1)*dt)
		if err := g.Draw(); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
	}
	elapsed := hrtime.Since(start)
	logger.Log.Info("frames rendered",
		zap.Int("frames", frames),
		zap.Duration("elapsed", elapsed),
		zap.Duration("per_frame", elapsed/time.Duration(frames)))

	hud := &DebugOverlay{}
	hud.Set(g.HUD())
	fmt.Print(hud.GetText())

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := png.Encode(f, dev.Snapshot()); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", out, err)
	}
	return f.Close()
}
