package dto

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// BlockTime is the requested session length in minutes. It decodes from a
// JSON string or number and is parsed by the session manager.
type BlockTime string

func (b *BlockTime) UnmarshalJSON(raw []byte) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		*b = BlockTime(s)
		return nil
	}
	if bytes.Equal(raw, []byte("null")) {
		*b = ""
		return nil
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		return err
	}
	*b = BlockTime(strconv.FormatFloat(n, 'f', -1, 64))
	return nil
}

type StartInput struct {
	BlockTime BlockTime
	Websites  []string
}

type StartOutput struct {
	Status    string
	SessionID string
	Minutes   float64
	EndsAt    time.Time
	Restarted bool
	Warning   string
}

type StopOutput struct {
	Status    string
	SessionID string
}

type StatusOutput struct {
	Active          bool
	SessionID       string
	Sites           []string
	DurationMinutes float64
	StartedAt       time.Time
	EndsAt          time.Time
	Remaining       time.Duration
	Reminders       int
	Notification    string
	DaemonRunning   bool
}

type SitesOutput struct {
	Status string
	Sites  []string
}

type CheckOutput struct {
	URL     string
	Blocked bool
	Site    string
}

type DaemonStatusOutput struct {
	Running    bool
	PID        int
	SocketPath string
	HTTPAddr   string
	Session    StatusOutput
}
