package out

import (
	"context"
	"strconv"
	"sync/atomic"

	"github.com/hashicorp/go-hclog"
)

// LogNotifier writes notifications to the daemon log. It stands in when
// no notification service is reachable.
type LogNotifier struct {
	logger hclog.Logger
	next   atomic.Uint64
}

func NewLogNotifier(logger hclog.Logger) *LogNotifier {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &LogNotifier{logger: logger.Named("notify")}
}

func (n *LogNotifier) Show(_ context.Context, title, message string, priority int) (string, error) {
	handle := "log-" + strconv.FormatUint(n.next.Add(1), 10)
	n.logger.Info(title, "message", message, "priority", priority, "handle", handle)
	return handle, nil
}

func (n *LogNotifier) Dismiss(_ context.Context, handle string) error {
	n.logger.Debug("notification dismissed", "handle", handle)
	return nil
}
