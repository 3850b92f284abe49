package alerts

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

// NotifierConfig controls delivery channels. The log file and console are
// always on; desktop and audio fire only for high-severity alerts.
type NotifierConfig struct {
	LogDir        string `yaml:"log_dir"`
	EnableDesktop bool   `yaml:"enable_desktop"`
	EnableAudio   bool   `yaml:"enable_audio"`
	AudioFile     string `yaml:"audio_file"`
}

// DefaultNotifierConfig writes to ./logs with desktop and audio enabled.
func DefaultNotifierConfig() NotifierConfig {
	return NotifierConfig{
		LogDir:        "logs",
		EnableDesktop: true,
		EnableAudio:   true,
		AudioFile:     "/usr/share/sounds/freedesktop/stereo/alarm-clock-elapsed.oga",
	}
}

// Notifier routes an alert to its delivery channels. Delivery is
// best-effort: a failing channel is logged at debug and never propagates.
type Notifier struct {
	cfg    NotifierConfig
	logger zerolog.Logger
	isTTY  bool
}

// NewNotifier creates a notifier writing daily log files under cfg.LogDir.
func NewNotifier(cfg NotifierConfig) *Notifier {
	return &Notifier{
		cfg:    cfg,
		logger: log.With().Str("component", "notifier").Logger(),
		isTTY:  term.IsTerminal(int(os.Stdout.Fd())),
	}
}

// Notify delivers the alert on every applicable channel.
func (n *Notifier) Notify(alert Alert) {
	n.writeLogFile(alert)
	n.writeConsole(alert)

	if n.cfg.EnableDesktop && alert.Severity.Rank() >= SeverityHigh.Rank() {
		n.sendDesktop(alert)
	}
	if n.cfg.EnableAudio && alert.Severity == SeverityCritical {
		n.playAudio()
	}
}

// writeLogFile appends the alert to logs/flow_alerts_YYYYMMDD.log.
func (n *Notifier) writeLogFile(alert Alert) {
	if err := os.MkdirAll(n.cfg.LogDir, 0o755); err != nil {
		n.logger.Debug().Err(err).Msg("Alert log directory unavailable")
		return
	}

	path := filepath.Join(n.cfg.LogDir, fmt.Sprintf("flow_alerts_%s.log", alert.Timestamp.Format("20060102")))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		n.logger.Debug().Err(err).Str("path", path).Msg("Alert log file unavailable")
		return
	}
	defer f.Close()

	line := fmt.Sprintf("%s | %s | %s | %s\n  %s\n  %s\n",
		alert.Timestamp.Format(time.RFC3339), alert.Ticker, alert.Severity, alert.Title,
		alert.Message, alert.Recommendation)
	if _, err := f.WriteString(line); err != nil {
		n.logger.Debug().Err(err).Msg("Alert log write failed")
	}
}

func (n *Notifier) writeConsole(alert Alert) {
	if n.isTTY {
		fmt.Printf("[%s] %s %s: %s\n        %s\n", alert.Severity, alert.Timestamp.Format(time.Kitchen),
			alert.Ticker, alert.Title, alert.Message)
		return
	}
	n.logger.Info().
		Str("ticker", alert.Ticker).
		Str("severity", string(alert.Severity)).
		Str("title", alert.Title).
		Msg(alert.Message)
}

// sendDesktop shells out to notify-send. Absence of the binary or a
// headless session is expected and ignored.
func (n *Notifier) sendDesktop(alert Alert) {
	cmd := exec.Command("notify-send",
		"-u", desktopUrgency(alert.Severity),
		fmt.Sprintf("%s: %s", alert.Ticker, alert.Title),
		alert.Message)
	if err := cmd.Run(); err != nil {
		n.logger.Debug().Err(err).Msg("Desktop notification failed")
	}
}

func (n *Notifier) playAudio() {
	cmd := exec.Command("paplay", n.cfg.AudioFile)
	if err := cmd.Run(); err != nil {
		n.logger.Debug().Err(err).Msg("Audio notification failed")
	}
}

func desktopUrgency(s Severity) string {
	if s == SeverityCritical {
		return "critical"
	}
	return "normal"
}
