package editor

import (
	"ssao-renderer/math"
	"ssao-renderer/scene"
)

// Command represents an undoable overlay edit
type Command interface {
	Execute()
	Undo()
	Description() string
}

// History manages undo/redo stacks
type History struct {
	undoStack []Command
	redoStack []Command
	maxDepth  int
}

// NewHistory creates a new history with the given max undo depth
func NewHistory(maxDepth int) *History {
	return &History{
		undoStack: make([]Command, 0, maxDepth),
		redoStack: make([]Command, 0, maxDepth),
		maxDepth:  maxDepth,
	}
}

// Do executes a command and pushes it to the undo stack
func (h *History) Do(cmd Command) {
	cmd.Execute()
	h.undoStack = append(h.undoStack, cmd)
	if len(h.undoStack) > h.maxDepth {
		h.undoStack = h.undoStack[1:]
	}
	h.redoStack = h.redoStack[:0]
}

// Undo reverts the last edit and returns it, or nil when there is none.
func (h *History) Undo() Command {
	if len(h.undoStack) == 0 {
		return nil
	}
	cmd := h.undoStack[len(h.undoStack)-1]
	h.undoStack = h.undoStack[:len(h.undoStack)-1]
	cmd.Undo()
	h.redoStack = append(h.redoStack, cmd)
	return cmd
}

// Redo reapplies the last undone edit and returns it, or nil.
func (h *History) Redo() Command {
	if len(h.redoStack) == 0 {
		return nil
	}
	cmd := h.redoStack[len(h.redoStack)-1]
	h.redoStack = h.redoStack[:len(h.redoStack)-1]
	cmd.Execute()
	h.undoStack = append(h.undoStack, cmd)
	return cmd
}

func (h *History) CanUndo() bool { return len(h.undoStack) > 0 }
func (h *History) CanRedo() bool { return len(h.redoStack) > 0 }

func (h *History) Clear() {
	h.undoStack = h.undoStack[:0]
	h.redoStack = h.redoStack[:0]
}

// ── Concrete commands ───────────────────────────────────────────────────────

// ParamsCommand swaps the whole parameter set.
type ParamsCommand struct {
	Target   *Params
	Old, New Params
	desc     string
}

func NewParamsCommand(target *Params, next Params, desc string) *ParamsCommand {
	return &ParamsCommand{Target: target, Old: *target, New: next, desc: desc}
}

func (c *ParamsCommand) Execute()            { *c.Target = c.New }
func (c *ParamsCommand) Undo()               { *c.Target = c.Old }
func (c *ParamsCommand) Description() string { return c.desc }

// MoveCommand records an entity position change.
type MoveCommand struct {
	Entity *scene.Entity
	OldPos math.Vec3
	NewPos math.Vec3
}

func NewMoveCommand(e *scene.Entity, newPos math.Vec3) *MoveCommand {
	return &MoveCommand{Entity: e, OldPos: e.Transform.Position(), NewPos: newPos}
}

func (c *MoveCommand) Execute()            { c.Entity.Transform.SetPosition(c.NewPos) }
func (c *MoveCommand) Undo()               { c.Entity.Transform.SetPosition(c.OldPos) }
func (c *MoveCommand) Description() string { return "Move " + c.Entity.Name }

// RotateCommand records an entity rotation change (pitch, yaw, roll).
type RotateCommand struct {
	Entity *scene.Entity
	OldRot math.Vec3
	NewRot math.Vec3
}

func NewRotateCommand(e *scene.Entity, newRot math.Vec3) *RotateCommand {
	return &RotateCommand{Entity: e, OldRot: e.Transform.PitchYawRoll(), NewRot: newRot}
}

func (c *RotateCommand) Execute()            { c.Entity.Transform.SetRotation(c.NewRot) }
func (c *RotateCommand) Undo()               { c.Entity.Transform.SetRotation(c.OldRot) }
func (c *RotateCommand) Description() string { return "Rotate " + c.Entity.Name }

// ScaleCommand records an entity scale change.
type ScaleCommand struct {
	Entity   *scene.Entity
	OldScale math.Vec3
	NewScale math.Vec3
}

func NewScaleCommand(e *scene.Entity, newScale math.Vec3) *ScaleCommand {
	return &ScaleCommand{Entity: e, OldScale: e.Transform.Scale(), NewScale: newScale}
}

func (c *ScaleCommand) Execute()            { c.Entity.Transform.SetScale(c.NewScale) }
func (c *ScaleCommand) Undo()               { c.Entity.Transform.SetScale(c.OldScale) }
func (c *ScaleCommand) Description() string { return "Scale " + c.Entity.Name }
