package core

// InputSource is the polled keyboard and mouse state of a window.
type InputSource interface {
	IsKeyPressed(key int) bool
	IsMouseButtonPressed(button int) bool
	GetCursorPos() (x, y float64)
}

// Key codes. The values are GLFW's, so a GLFW window can be polled with them
// directly.
const (
	KeySpace        = 32
	KeyMinus        = 45
	KeyEqual        = 61
	Key1            = 49
	Key2            = 50
	KeyA            = 65
	KeyB            = 66
	KeyD            = 68
	KeyG            = 71
	KeyK            = 75
	KeyL            = 76
	KeyO            = 79
	KeyP            = 80
	KeyR            = 82
	KeyS            = 83
	KeyV            = 86
	KeyW            = 87
	KeyX            = 88
	KeyZ            = 90
	KeyLeftBracket  = 91
	KeyRightBracket = 93
	KeyEscape       = 256
	KeyTab          = 258
	KeyF1           = 290
	KeyLeftShift    = 340
	KeyLeftControl  = 341
	KeyRightShift   = 344
	KeyRightControl = 345

	// KeyCount bounds every key code above.
	KeyCount = 512
)

const (
	MouseLeft   = 0
	MouseRight  = 1
	MouseMiddle = 2
)
