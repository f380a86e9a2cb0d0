package out

import (
	"context"
	"fmt"
	"strconv"

	"github.com/godbus/dbus/v5"
)

const (
	notificationsDest      = "org.freedesktop.Notifications"
	notificationsPath      = "/org/freedesktop/Notifications"
	notificationsNotify    = notificationsDest + ".Notify"
	notificationsClose     = notificationsDest + ".CloseNotification"
	defaultNotifyAppName   = "focuslock"
	defaultNotifyTimeoutMS = int32(-1)
)

type notificationsObject interface {
	CallWithContext(ctx context.Context, method string, flags dbus.Flags, args ...interface{}) *dbus.Call
}

// DBusNotifier shows desktop notifications through the freedesktop
// notification service on the session bus.
type DBusNotifier struct {
	conn    *dbus.Conn
	obj     notificationsObject
	appName string
	icon    string
}

func NewDBusNotifier() (*DBusNotifier, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}
	return &DBusNotifier{
		conn:    conn,
		obj:     conn.Object(notificationsDest, dbus.ObjectPath(notificationsPath)),
		appName: defaultNotifyAppName,
		icon:    "appointment-soon",
	}, nil
}

func newDBusNotifierWithObject(obj notificationsObject) *DBusNotifier {
	return &DBusNotifier{obj: obj, appName: defaultNotifyAppName}
}

func (n *DBusNotifier) Show(ctx context.Context, title, message string, priority int) (string, error) {
	hints := map[string]dbus.Variant{
		"urgency": dbus.MakeVariant(urgencyFor(priority)),
	}
	call := n.obj.CallWithContext(ctx, notificationsNotify, 0,
		n.appName, uint32(0), n.icon, title, message, []string{}, hints, defaultNotifyTimeoutMS)
	if call.Err != nil {
		return "", fmt.Errorf("notify: %w", call.Err)
	}
	var id uint32
	if err := call.Store(&id); err != nil {
		return "", fmt.Errorf("decode notification id: %w", err)
	}
	return strconv.FormatUint(uint64(id), 10), nil
}

func (n *DBusNotifier) Dismiss(ctx context.Context, handle string) error {
	id, err := strconv.ParseUint(handle, 10, 32)
	if err != nil {
		return fmt.Errorf("decode notification handle %q: %w", handle, err)
	}
	if call := n.obj.CallWithContext(ctx, notificationsClose, 0, uint32(id)); call.Err != nil {
		return fmt.Errorf("close notification %d: %w", id, call.Err)
	}
	return nil
}

func (n *DBusNotifier) Close() error {
	if n.conn == nil {
		return nil
	}
	return n.conn.Close()
}

// urgencyFor maps a -2..2 priority onto the low/normal/critical levels.
func urgencyFor(priority int) byte {
	switch {
	case priority < 0:
		return 0
	case priority >= 2:
		return 2
	default:
		return 1
	}
}
