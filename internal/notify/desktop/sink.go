// Package desktop delivers notifications through the freedesktop.org
// notification service on the user's D-Bus session bus.
package desktop

import (
	"context"
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/rezkam/pomotodo/internal/domain"
	"github.com/rezkam/pomotodo/internal/notify"
)

const (
	serviceName = "org.freedesktop.Notifications"
	objectPath  = "/org/freedesktop/Notifications"
	notifyCall  = serviceName + ".Notify"

	urgencyNormal = byte(1)
)

// DefaultExpireTimeout is how long the desktop keeps a notification on screen.
const DefaultExpireTimeout = 10 * time.Second

// Sink sends notifications with org.freedesktop.Notifications.Notify.
type Sink struct {
	conn    *dbus.Conn
	appName string
	icon    string
	expire  time.Duration
}

// Option configures a Sink.
type Option func(*Sink)

// WithIcon sets the icon name or path passed to the notification daemon.
func WithIcon(icon string) Option {
	return func(s *Sink) {
		s.icon = icon
	}
}

// WithExpireTimeout sets how long notifications stay visible.
func WithExpireTimeout(d time.Duration) Option {
	return func(s *Sink) {
		s.expire = d
	}
}

// New connects to the session bus.
func New(appName string, opts ...Option) (*Sink, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}

	s := &Sink{
		conn:    conn,
		appName: appName,
		icon:    "appointment-soon",
		expire:  DefaultExpireTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Deliver shows the notification on the desktop.
func (s *Sink) Deliver(ctx context.Context, n notify.Notification) error {
	obj := s.conn.Object(serviceName, dbus.ObjectPath(objectPath))

	call := obj.CallWithContext(ctx, notifyCall, 0,
		s.appName,
		uint32(0), // replaces_id
		s.icon,
		n.Title,
		n.Body,
		[]string{}, // actions
		hints(n),
		int32(s.expire.Milliseconds()),
	)
	if call.Err != nil {
		return fmt.Errorf("failed to send notification: %w", call.Err)
	}
	return nil
}

// Close releases the bus connection.
func (s *Sink) Close() error {
	return s.conn.Close()
}

// hints builds the Notify hints map. Sounds map onto freedesktop sound theme names.
func hints(n notify.Notification) map[string]dbus.Variant {
	h := map[string]dbus.Variant{
		"urgency": dbus.MakeVariant(urgencyNormal),
	}
	if name, ok := soundNames[n.Sound]; ok {
		h["sound-name"] = dbus.MakeVariant(name)
	}
	return h
}

var soundNames = map[domain.SoundType]string{
	domain.SoundDefault: "message-new-instant",
	domain.SoundBell:    "bell",
	domain.SoundChime:   "complete",
	domain.SoundGlass:   "dialog-information",
	domain.SoundTriTone: "message",
	domain.SoundNote:    "message-new-email",
	domain.SoundAurora:  "alarm-clock-elapsed",
}
