package tray

import (
	"context"
	"errors"
	"sync"
)

// ErrRegistered is returned when a shell already holds an icon
var ErrRegistered = errors.New("tray icon already registered")

// Shell is the native tray surface. Register creates the icon and wires
// icon clicks to onClick. SetMenu replaces the whole menu at once.
type Shell interface {
	Register(ctx context.Context, onClick func()) error
	SetMenu(ctx context.Context, menu Menu) error
	Remove(ctx context.Context) error
}

// HeadlessShell keeps the installed menu in memory
type HeadlessShell struct {
	mu            sync.Mutex
	registered    bool
	registrations int
	installs      int
	menu          Menu
	onClick       func()
}

// NewHeadlessShell creates an empty shell
func NewHeadlessShell() *HeadlessShell {
	return &HeadlessShell{}
}

// Register implements Shell
func (h *HeadlessShell) Register(ctx context.Context, onClick func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.registered {
		return ErrRegistered
	}
	h.registered = true
	h.registrations++
	h.onClick = onClick
	return nil
}

// SetMenu implements Shell
func (h *HeadlessShell) SetMenu(ctx context.Context, menu Menu) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.registered {
		return errors.New("tray icon not registered")
	}
	h.menu = menu.Clone()
	h.installs++
	return nil
}

// Remove implements Shell
func (h *HeadlessShell) Remove(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.registered = false
	h.onClick = nil
	h.menu = Menu{}
	return nil
}

// Click simulates a click on the icon
func (h *HeadlessShell) Click() {
	h.mu.Lock()
	fn := h.onClick
	h.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Menu returns a copy of the installed menu
func (h *HeadlessShell) Menu() Menu {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.menu.Clone()
}

// Registered reports whether an icon exists
func (h *HeadlessShell) Registered() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.registered
}

// Registrations counts icons created over the shell's lifetime
func (h *HeadlessShell) Registrations() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.registrations
}

// Installs counts menus installed over the shell's lifetime
func (h *HeadlessShell) Installs() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.installs
}
