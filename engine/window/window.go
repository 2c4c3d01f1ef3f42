package window

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
	"go.uber.org/zap"

	"github.com/lumen3d/lumen/engine/logger"
)

// Window is a GLFW-backed platform surface. It owns the OS window, delivers
// input events, and exposes a wgpu surface descriptor for presentation.
type Window interface {
	// SurfaceDescriptor returns the platform-appropriate wgpu surface
	// descriptor for this window, or nil if the window has been destroyed.
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// FramebufferSize returns the drawable area in pixels. On high-DPI
	// displays this differs from the logical window size.
	//
	// Returns:
	//   - int: width in pixels
	//   - int: height in pixels
	FramebufferSize() (int, int)

	// SetResizeHandler registers a handler for framebuffer size changes.
	// The handler receives pixel dimensions.
	SetResizeHandler(fn func(width, height int))

	// SetScrollHandler registers a handler for scroll wheel input. Positive
	// delta scrolls up.
	SetScrollHandler(fn func(delta float32))

	// SetDragHandler registers a handler for cursor movement while the left
	// mouse button is held. The handler receives the cursor delta in pixels
	// since the previous event.
	SetDragHandler(fn func(dx, dy float32))

	// Run drives the frame loop: polls events, then calls frame once per
	// iteration. It returns when the window is closed or frame returns
	// false. Must be called from the main goroutine.
	Run(frame func() bool)

	// RequestClose asks the loop to exit after the current iteration.
	RequestClose()

	// Destroy releases the OS window and terminates GLFW.
	Destroy()
}

type glfwSurface struct {
	win    *glfw.Window
	width  int
	height int

	onResize func(width, height int)
	onScroll func(delta float32)
	onDrag   func(dx, dy float32)

	dragging    bool
	lastCursorX float64
	lastCursorY float64
}

var _ Window = &glfwSurface{}

// NewWindow initializes GLFW and opens a window. GLFW requires the calling
// goroutine to stay locked to the main OS thread for the window's lifetime.
//
// Parameters:
//   - opts: functional options to configure the window
//
// Returns:
//   - Window: the opened window
//   - error: GLFW initialization or window creation failure
func NewWindow(opts ...WindowBuilderOption) (Window, error) {
	runtime.LockOSThread()

	cfg := windowConfig{
		title:     "lumen",
		width:     1280,
		height:    720,
		resizable: true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("glfw init: %w", err)
	}

	// wgpu brings its own graphics API; no GL context.
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	if cfg.resizable {
		glfw.WindowHint(glfw.Resizable, glfw.True)
	} else {
		glfw.WindowHint(glfw.Resizable, glfw.False)
	}

	win, err := glfw.CreateWindow(cfg.width, cfg.height, cfg.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("glfw create window: %w", err)
	}

	s := &glfwSurface{win: win}
	s.width, s.height = win.GetFramebufferSize()
	s.installCallbacks()

	logger.Log.Debug("window opened",
		zap.String("title", cfg.title),
		zap.Int("width", s.width),
		zap.Int("height", s.height),
	)
	return s, nil
}

func (s *glfwSurface) installCallbacks() {
	s.win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		s.width = width
		s.height = height
		if s.onResize != nil {
			s.onResize(width, height)
		}
	})

	s.win.SetScrollCallback(func(_ *glfw.Window, _, yoff float64) {
		if s.onScroll != nil {
			s.onScroll(float32(yoff))
		}
	})

	s.win.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		if button != glfw.MouseButtonLeft {
			return
		}
		switch action {
		case glfw.Press:
			s.dragging = true
			s.lastCursorX, s.lastCursorY = s.win.GetCursorPos()
		case glfw.Release:
			s.dragging = false
		}
	})

	s.win.SetCursorPosCallback(func(_ *glfw.Window, xpos, ypos float64) {
		if !s.dragging {
			return
		}
		dx := float32(xpos - s.lastCursorX)
		dy := float32(ypos - s.lastCursorY)
		s.lastCursorX, s.lastCursorY = xpos, ypos
		if s.onDrag != nil {
			s.onDrag(dx, dy)
		}
	})

	s.win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			s.win.SetShouldClose(true)
		}
	})
}

func (s *glfwSurface) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	if s.win == nil {
		return nil
	}
	return wgpuglfw.GetSurfaceDescriptor(s.win)
}

func (s *glfwSurface) FramebufferSize() (int, int) { return s.width, s.height }

func (s *glfwSurface) SetResizeHandler(fn func(width, height int)) { s.onResize = fn }
func (s *glfwSurface) SetScrollHandler(fn func(delta float32))     { s.onScroll = fn }
func (s *glfwSurface) SetDragHandler(fn func(dx, dy float32))      { s.onDrag = fn }

func (s *glfwSurface) Run(frame func() bool) {
	for s.win != nil && !s.win.ShouldClose() {
		glfw.PollEvents()
		if !frame() {
			return
		}
	}
}

func (s *glfwSurface) RequestClose() {
	if s.win != nil {
		s.win.SetShouldClose(true)
	}
}

func (s *glfwSurface) Destroy() {
	if s.win == nil {
		return
	}
	s.win.Destroy()
	s.win = nil
	glfw.Terminate()
}
