package editor

import (
	"ssao-renderer/core"
)

// trackedKeys are the keys polled every frame.
var trackedKeys = []int{
	core.KeyW, core.KeyA, core.KeyS, core.KeyD, core.KeyX, core.KeySpace,
	core.KeyLeftShift, core.KeyRightShift, core.KeyLeftControl, core.KeyRightControl,
	core.KeyEscape, core.KeyTab, core.KeyF1, core.KeyV, core.KeyO, core.KeyP,
	core.Key1, core.Key2, core.KeyMinus, core.KeyEqual,
	core.KeyLeftBracket, core.KeyRightBracket, core.KeyK, core.KeyL, core.KeyZ,
}

// InputManager polls an input source once per frame and tracks edges and
// mouse deltas. While the overlay captures the keyboard or mouse, the
// scene.Controls methods report nothing pressed; the Raw methods always see
// the real state.
type InputManager struct {
	source core.InputSource

	mouseX, mouseY           float64
	mouseDeltaX, mouseDeltaY float64
	firstFrame               bool

	mouseButtons     [8]bool
	mouseButtonsPrev [8]bool
	keys             [core.KeyCount]bool
	keysPrev         [core.KeyCount]bool

	keyboardCaptured bool
	mouseCaptured    bool
}

func NewInputManager(source core.InputSource) *InputManager {
	return &InputManager{source: source, firstFrame: true}
}

// Update polls the source. Call once per frame before anything reads input.
func (im *InputManager) Update() {
	x, y := im.source.GetCursorPos()
	if im.firstFrame {
		im.mouseX, im.mouseY = x, y
		im.firstFrame = false
	}
	im.mouseDeltaX, im.mouseDeltaY = x-im.mouseX, y-im.mouseY
	im.mouseX, im.mouseY = x, y

	im.mouseButtonsPrev = im.mouseButtons
	im.keysPrev = im.keys
	for _, b := range []int{core.MouseLeft, core.MouseRight, core.MouseMiddle} {
		im.mouseButtons[b] = im.source.IsMouseButtonPressed(b)
	}
	for _, k := range trackedKeys {
		im.keys[k] = im.source.IsKeyPressed(k)
	}
}

func (im *InputManager) SetKeyboardCapture(captured bool) { im.keyboardCaptured = captured }
func (im *InputManager) SetMouseCapture(captured bool)    { im.mouseCaptured = captured }

func (im *InputManager) KeyboardCaptured() bool { return im.keyboardCaptured }
func (im *InputManager) MouseCaptured() bool    { return im.mouseCaptured }

// --- scene.Controls ---

func (im *InputManager) IsKeyDown(key int) bool {
	return !im.keyboardCaptured && im.RawKeyDown(key)
}

func (im *InputManager) IsMouseDown(button int) bool {
	if im.mouseCaptured || button < 0 || button >= len(im.mouseButtons) {
		return false
	}
	return im.mouseButtons[button]
}

func (im *InputManager) MouseDelta() (dx, dy float32) {
	if im.mouseCaptured {
		return 0, 0
	}
	return float32(im.mouseDeltaX), float32(im.mouseDeltaY)
}

// --- Raw queries ---

func (im *InputManager) RawKeyDown(key int) bool {
	if key < 0 || key >= len(im.keys) {
		return false
	}
	return im.keys[key]
}

// KeyPressed reports a key that went down this frame.
func (im *InputManager) KeyPressed(key int) bool {
	if key < 0 || key >= len(im.keys) {
		return false
	}
	return im.keys[key] && !im.keysPrev[key]
}

func (im *InputManager) MousePressed(button int) bool {
	if button < 0 || button >= len(im.mouseButtons) {
		return false
	}
	return im.mouseButtons[button] && !im.mouseButtonsPrev[button]
}

func (im *InputManager) CursorPos() (x, y float64) { return im.mouseX, im.mouseY }
