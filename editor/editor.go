package editor

import (
	"fmt"
	stdmath "math"

	"ssao-renderer/core"
	"ssao-renderer/math"
	"ssao-renderer/renderer"
	"ssao-renderer/scene"
)

// Overlay step sizes.
const (
	RadiusStep  float32 = 0.05
	SamplesStep         = 8
	MoveStep    float32 = 0.25
	ScaleStep   float32 = 1.1
	YawStep     float32 = stdmath.Pi / 12
	LightStep   float32 = 0.1
)

// Overlay is the keyboard parameter panel. Parameter keys work at any time;
// Tab gives the overlay focus, which captures keyboard and mouse so the
// camera stops moving and WASD edits the selected entity instead.
type Overlay struct {
	Params   Params
	Focused  bool
	ShowHelp bool
	Selected int
	History  *History

	// Status info
	StatusText string

	cameras  int
	entities []*scene.Entity
}

// NewOverlay starts unfocused with p clamped to the scene.
func NewOverlay(p Params, cameras int, entities []*scene.Entity) *Overlay {
	return &Overlay{
		Params:     p.Clamp(cameras),
		History:    NewHistory(100),
		StatusText: "Ready",
		cameras:    cameras,
		entities:   entities,
	}
}

// Update handles one frame of overlay input. in must already be updated.
func (o *Overlay) Update(in *InputManager) {
	if in.KeyPressed(core.KeyTab) {
		o.Focused = !o.Focused
		in.SetKeyboardCapture(o.Focused)
		in.SetMouseCapture(o.Focused)
		if o.Focused {
			o.StatusText = "Overlay focused"
		} else {
			o.StatusText = "Overlay released"
		}
	}
	if in.KeyPressed(core.KeyF1) {
		o.ShowHelp = !o.ShowHelp
	}

	ctrl := in.RawKeyDown(core.KeyLeftControl) || in.RawKeyDown(core.KeyRightControl)
	shift := in.RawKeyDown(core.KeyLeftShift) || in.RawKeyDown(core.KeyRightShift)
	if ctrl && in.KeyPressed(core.KeyZ) {
		var cmd Command
		if shift {
			cmd = o.History.Redo()
		} else {
			cmd = o.History.Undo()
		}
		if cmd != nil {
			o.StatusText = cmd.Description()
		}
		return
	}

	o.handleParams(in, shift)
	if o.Focused {
		o.handleEntity(in, shift)
	}
}

func (o *Overlay) handleParams(in *InputManager, shift bool) {
	next := o.Params
	light := LightStep
	if shift {
		light = -LightStep
	}
	var desc string
	switch {
	case in.KeyPressed(core.KeyRightBracket):
		next.BlurRadius++
		desc = "Blur radius"
	case in.KeyPressed(core.KeyLeftBracket):
		next.BlurRadius--
		desc = "Blur radius"
	case in.KeyPressed(core.KeyEqual):
		next.SSAORadius += RadiusStep
		desc = "SSAO radius"
	case in.KeyPressed(core.KeyMinus):
		next.SSAORadius -= RadiusStep
		desc = "SSAO radius"
	case in.KeyPressed(core.KeyP):
		next.SSAOSamples += SamplesStep
		desc = "SSAO samples"
	case in.KeyPressed(core.KeyO):
		next.SSAOSamples -= SamplesStep
		desc = "SSAO samples"
	case in.KeyPressed(core.Key1):
		next.ActiveCamera = 0
		desc = "Camera"
	case in.KeyPressed(core.Key2):
		next.ActiveCamera = 1
		desc = "Camera"
	case in.KeyPressed(core.KeyV):
		next.View = next.View.Next()
		desc = "View"
	case in.KeyPressed(core.KeyR):
		next.LightColor.R += light
		desc = "Light red"
	case in.KeyPressed(core.KeyG):
		next.LightColor.G += light
		desc = "Light green"
	case in.KeyPressed(core.KeyB):
		next.LightColor.B += light
		desc = "Light blue"
	default:
		return
	}
	next = next.Clamp(o.cameras)
	if next == o.Params {
		return
	}
	o.History.Do(NewParamsCommand(&o.Params, next, desc))
	o.StatusText = desc
}

func (o *Overlay) handleEntity(in *InputManager, shift bool) {
	if len(o.entities) == 0 {
		return
	}
	if in.KeyPressed(core.KeyL) {
		o.Selected = (o.Selected + 1) % len(o.entities)
		o.StatusText = "Selected: " + o.entities[o.Selected].Name
	}
	if in.KeyPressed(core.KeyK) {
		o.Selected = (o.Selected + len(o.entities) - 1) % len(o.entities)
		o.StatusText = "Selected: " + o.entities[o.Selected].Name
	}
	e := o.SelectedEntity()
	t := e.Transform

	if shift {
		switch {
		case in.KeyPressed(core.KeyW):
			o.do(NewScaleCommand(e, t.Scale().Mul(ScaleStep)))
		case in.KeyPressed(core.KeyS):
			o.do(NewScaleCommand(e, t.Scale().Mul(1/ScaleStep)))
		case in.KeyPressed(core.KeyA):
			o.do(NewRotateCommand(e, t.PitchYawRoll().Add(math.NewVec3(0, -YawStep, 0))))
		case in.KeyPressed(core.KeyD):
			o.do(NewRotateCommand(e, t.PitchYawRoll().Add(math.NewVec3(0, YawStep, 0))))
		}
		return
	}

	var offset math.Vec3
	switch {
	case in.KeyPressed(core.KeyW):
		offset.Z = MoveStep
	case in.KeyPressed(core.KeyS):
		offset.Z = -MoveStep
	case in.KeyPressed(core.KeyA):
		offset.X = -MoveStep
	case in.KeyPressed(core.KeyD):
		offset.X = MoveStep
	case in.KeyPressed(core.KeySpace):
		offset.Y = MoveStep
	case in.KeyPressed(core.KeyX):
		offset.Y = -MoveStep
	default:
		return
	}
	o.do(NewMoveCommand(e, t.Position().Add(offset)))
}

func (o *Overlay) do(cmd Command) {
	o.History.Do(cmd)
	o.StatusText = cmd.Description()
}

// SelectedEntity returns the entity WASD edits while focused, or nil.
func (o *Overlay) SelectedEntity() *scene.Entity {
	if o.Selected < 0 || o.Selected >= len(o.entities) {
		return nil
	}
	return o.entities[o.Selected]
}

// ── Text ────────────────────────────────────────────────────────────────────

// Lines returns the overlay panel as text, one entry per line.
func (o *Overlay) Lines(stats renderer.Stats) []string {
	p := o.Params
	focus := "off"
	if o.Focused {
		focus = "on"
	}
	lines := []string{
		fmt.Sprintf("View: %s  Camera: %d  Focus: %s", p.View, p.ActiveCamera+1, focus),
		fmt.Sprintf("Blur radius: %d  SSAO radius: %.2f  SSAO samples: %d", p.BlurRadius, p.SSAORadius, p.SSAOSamples),
		fmt.Sprintf("Light: %.2f %.2f %.2f", p.LightColor.R, p.LightColor.G, p.LightColor.B),
		fmt.Sprintf("Entities: %d  Triangles: %d  Skipped: %d  Culled: %d", stats.Entities, stats.Triangles, stats.Skipped, stats.Culled),
	}
	if e := o.SelectedEntity(); e != nil && o.Focused {
		pos, rot, scl := e.Transform.Position(), e.Transform.PitchYawRoll(), e.Transform.Scale()
		lines = append(lines, fmt.Sprintf("%s  pos (%.2f, %.2f, %.2f)  rot (%.2f, %.2f, %.2f)  scale (%.2f, %.2f, %.2f)",
			e.Name, pos.X, pos.Y, pos.Z, rot.X, rot.Y, rot.Z, scl.X, scl.Y, scl.Z))
	}
	if o.ShowHelp {
		lines = append(lines,
			"Tab focus  F1 help  Esc quit",
			"[ ] blur  - = radius  O P samples  1 2 camera  V view",
			"R G B light up  Shift+R G B light down",
			"Focused: K L select  WASD Space X move  Shift+WS scale  Shift+AD yaw",
			"Ctrl+Z undo  Ctrl+Shift+Z redo",
		)
	}
	lines = append(lines, o.StatusText)
	return lines
}

// Title is the one-line summary shown in the window title.
func (o *Overlay) Title(base string, fps float64) string {
	p := o.Params
	return fmt.Sprintf("%s | %.0f FPS | %s | blur %d | ssao r=%.2f n=%d | cam %d",
		base, fps, p.View, p.BlurRadius, p.SSAORadius, p.SSAOSamples, p.ActiveCamera+1)
}
