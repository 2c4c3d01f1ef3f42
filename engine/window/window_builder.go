package window

// windowConfig holds construction-time settings consumed by NewWindow.
type windowConfig struct {
	title     string
	width     int
	height    int
	resizable bool
}

// WindowBuilderOption configures a window before creation.
type WindowBuilderOption func(*windowConfig)

// WithTitle sets the title-bar text.
//
// Parameters:
//   - title: the window title
//
// Returns:
//   - WindowBuilderOption: the configured option
func WithTitle(title string) WindowBuilderOption {
	return func(c *windowConfig) {
		c.title = title
	}
}

// WithSize sets the initial logical window size.
//
// Parameters:
//   - width: logical width
//   - height: logical height
//
// Returns:
//   - WindowBuilderOption: the configured option
func WithSize(width, height int) WindowBuilderOption {
	return func(c *windowConfig) {
		if width > 0 {
			c.width = width
		}
		if height > 0 {
			c.height = height
		}
	}
}

// WithResizable controls whether the user can resize the window.
//
// Parameters:
//   - resizable: true to allow resizing
//
// Returns:
//   - WindowBuilderOption: the configured option
func WithResizable(resizable bool) WindowBuilderOption {
	return func(c *windowConfig) {
		c.resizable = resizable
	}
}
