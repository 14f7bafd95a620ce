// Package notify delivers user-visible notifications.
//
// The router surfaces resolution misses and feature failures through a
// Notifier. On Linux desktops notifications go over the
// org.freedesktop.Notifications D-Bus interface; headless setups and
// tests use the logger-backed notifier.
package notify

import (
	"fmt"

	"github.com/godbus/dbus/v5"

	"hotkeyd/internal/logging"
)

// Notifier delivers a short user-visible message. Implementations must
// not block the caller; failures are returned, never raised.
type Notifier interface {
	Notify(summary, body string) error
}

// notificationsBus names the freedesktop notification service.
const (
	notificationsDest   = "org.freedesktop.Notifications"
	notificationsPath   = "/org/freedesktop/Notifications"
	notificationsMethod = "org.freedesktop.Notifications.Notify"
)

// DBusNotifier sends desktop notifications over the session bus.
type DBusNotifier struct {
	conn    *dbus.Conn
	appName string
}

// NewDBusNotifier connects to the session bus.
func NewDBusNotifier(appName string) (*DBusNotifier, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("connecting to session bus: %w", err)
	}
	return &DBusNotifier{conn: conn, appName: appName}, nil
}

// Notify implements Notifier via org.freedesktop.Notifications.
func (n *DBusNotifier) Notify(summary, body string) error {
	obj := n.conn.Object(notificationsDest, dbus.ObjectPath(notificationsPath))
	call := obj.Call(notificationsMethod, 0,
		n.appName,                 // app_name
		uint32(0),                 // replaces_id
		"",                        // app_icon
		summary,                   // summary
		body,                      // body
		[]string{},                // actions
		map[string]dbus.Variant{}, // hints
		int32(-1),                 // expire_timeout: server default
	)
	if call.Err != nil {
		return fmt.Errorf("sending notification: %w", call.Err)
	}
	return nil
}

// Close releases the bus connection.
func (n *DBusNotifier) Close() error {
	return n.conn.Close()
}

// LogNotifier writes notifications to the daemon log. Used as a fallback
// when no session bus is available.
type LogNotifier struct {
	log *logging.Logger
}

// NewLogNotifier creates a logger-backed notifier.
func NewLogNotifier(log *logging.Logger) *LogNotifier {
	if log == nil {
		log = logging.Null
	}
	return &LogNotifier{log: log}
}

// Notify implements Notifier by logging at info level.
func (n *LogNotifier) Notify(summary, body string) error {
	n.log.Info("notification: %s: %s", summary, body)
	return nil
}
