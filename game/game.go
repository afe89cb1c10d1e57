// Package game owns one running scene: it builds the world from the config
// file, feeds input to the overlay and the active camera, and drives the
// render pipeline once per frame.
package game

import (
	"fmt"

	"go.uber.org/zap"

	"ssao-renderer/config"
	"ssao-renderer/core"
	"ssao-renderer/editor"
	"ssao-renderer/gpu"
	"ssao-renderer/internal/logger"
	"ssao-renderer/math"
	"ssao-renderer/renderer"
	"ssao-renderer/scene"
)

// Game is the frame orchestrator.
type Game struct {
	dev      gpu.Device
	world    *world
	pipeline *renderer.Pipeline
	input    *editor.InputManager
	overlay  *editor.Overlay

	width, height int
	activeCamera  int
	hud           []string
}

// New builds the scene described by cfg on dev. The back buffer and every
// render target are sized width×height.
func New(dev gpu.Device, cfg *config.File, source core.InputSource, width, height int) (*Game, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	width, height = max(width, 1), max(height, 1)

	w, err := buildWorld(dev, cfg, float32(width)/float32(height))
	if err != nil {
		return nil, fmt.Errorf("build scene: %w", err)
	}
	pipeline, err := renderer.NewPipeline(dev, width, height, cfg.Pipeline.Settings())
	if err != nil {
		w.release(dev)
		return nil, fmt.Errorf("create pipeline: %w", err)
	}

	params := editor.ParamsFrom(pipeline.Settings(), w.light.Color)
	return &Game{
		dev:      dev,
		world:    w,
		pipeline: pipeline,
		input:    editor.NewInputManager(source),
		overlay:  editor.NewOverlay(params, len(w.cameras), w.entities),
		width:    width,
		height:   height,
	}, nil
}

// Update polls input once, applies the overlay parameters, spins the
// animated entities and moves the active camera.
func (g *Game) Update(dt, total float32) {
	g.input.Update()
	g.overlay.Update(g.input)
	g.applyParams()

	for i, e := range g.world.entities {
		if spin := g.world.spins[i]; spin != 0 {
			e.Transform.Rotate(math.NewVec3(0, spin*dt, 0))
		}
	}

	g.ActiveCamera().Update(dt, g.input)
}

func (g *Game) applyParams() {
	p := g.overlay.Params
	g.pipeline.Tune(p.SSAORadius, p.SSAOSamples, p.BlurRadius)
	g.pipeline.SetView(p.View)
	g.world.light.Color = p.LightColor
	if p.ActiveCamera != g.activeCamera {
		g.activeCamera = p.ActiveCamera
		logger.Log.Debug("camera switched", zap.Int("camera", g.activeCamera))
	}
}

// Draw renders and presents one frame.
func (g *Game) Draw() error {
	if err := g.pipeline.Render(g.frame()); err != nil {
		return err
	}
	g.hud = g.overlay.Lines(g.pipeline.Stats())
	return g.dev.Present()
}

func (g *Game) frame() *renderer.Frame {
	return &renderer.Frame{
		Camera:    g.ActiveCamera(),
		Light:     g.world.light,
		Ambient:   g.world.ambient,
		Entities:  g.world.entities,
		Meshes:    g.world.meshes,
		Materials: g.world.materials,
		Sky:       g.world.sky,
	}
}

// Resize recreates the size-dependent targets and updates every camera's
// aspect. Zero sizes from a minimized window are ignored.
func (g *Game) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return nil
	}
	if err := g.pipeline.Resize(width, height); err != nil {
		return fmt.Errorf("resize: %w", err)
	}
	aspect := float32(width) / float32(height)
	for _, c := range g.world.cameras {
		c.UpdateProjectionMatrix(aspect)
	}
	g.width, g.height = width, height
	return nil
}

// Destroy releases the pipeline and the scene resources.
func (g *Game) Destroy() {
	g.pipeline.Destroy()
	g.world.release(g.dev)
}

func (g *Game) ActiveCamera() *scene.Camera   { return g.world.cameras[g.activeCamera] }
func (g *Game) Cameras() []*scene.Camera      { return g.world.cameras }
func (g *Game) Entities() []*scene.Entity     { return g.world.entities }
func (g *Game) Pipeline() *renderer.Pipeline  { return g.pipeline }
func (g *Game) Overlay() *editor.Overlay      { return g.overlay }
func (g *Game) Input() *editor.InputManager   { return g.input }
func (g *Game) Size() (width, height int)     { return g.width, g.height }
func (g *Game) Light() scene.DirectionalLight { return g.world.light }

// HUD returns the overlay text of the last drawn frame.
func (g *Game) HUD() []string { return g.hud }
