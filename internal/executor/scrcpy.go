package executor

import (
	"fmt"
	"os/exec"
	"strconv"
	"sync"

	"github.com/genricoloni/mirrorctl/internal/domain"
	"go.uber.org/zap"
)

// process is one scrcpy run
type process struct {
	cmd     *exec.Cmd
	session uint64
	done    chan struct{}
	err     error
}

// Launcher owns the scrcpy process. At most one runs at a time.
type Launcher struct {
	logger  *zap.Logger
	binary  string
	command func(args []string) *exec.Cmd

	mu      sync.Mutex
	current *process
	session uint64
	exits   chan domain.MirroringExit
}

// NewLauncher creates a launcher for the given scrcpy binary
func NewLauncher(logger *zap.Logger, binary string) *Launcher {
	if !commandExists(binary) {
		logger.Warn("scrcpy not found in PATH, mirroring will fail until it is installed",
			zap.String("binary", binary))
	}
	l := &Launcher{
		logger: logger,
		binary: binary,
		exits:  make(chan domain.MirroringExit, 4),
	}
	l.command = func(args []string) *exec.Cmd {
		return exec.Command(l.binary, args...)
	}
	return l
}

// BuildArgs translates a config into scrcpy command-line flags
func BuildArgs(cfg domain.MirroringConfig) []string {
	args := make([]string, 0, 16)

	if cfg.DeviceID != "" {
		args = append(args, "-s", cfg.DeviceID)
	}

	args = append(args,
		"--max-size="+strconv.Itoa(cfg.MaxSize),
		"--max-fps="+strconv.Itoa(cfg.MaxFPS),
		"--video-bit-rate="+cfg.Bitrate,
		"--video-codec="+string(cfg.VideoCodec),
	)

	if !cfg.AudioEnabled {
		args = append(args, "--no-audio")
	}
	if cfg.ShowTouches {
		args = append(args, "--show-touches")
	}
	if cfg.StayAwake {
		args = append(args, "--stay-awake")
	}
	if cfg.Fullscreen {
		args = append(args, "--fullscreen")
	}
	if cfg.Borderless {
		args = append(args, "--window-borderless")
	}
	if cfg.AlwaysOnTop {
		args = append(args, "--always-on-top")
	}
	if cfg.TurnScreenOff {
		args = append(args, "--turn-screen-off")
	}
	if cfg.RecordPath != "" {
		args = append(args, "--record="+cfg.RecordPath)
	}

	return args
}

// Start stops any running scrcpy and launches a new one with cfg.
// It returns the session number of the new run.
func (l *Launcher) Start(cfg domain.MirroringConfig) (uint64, error) {
	l.mu.Lock()
	previous := l.current
	l.current = nil
	l.mu.Unlock()

	if previous != nil {
		l.logger.Info("Stopping previous scrcpy before restart", zap.Uint64("session", previous.session))
		if err := terminate(previous); err != nil {
			l.logger.Warn("Failed to stop previous scrcpy", zap.Error(err))
		}
	}

	args := BuildArgs(cfg)
	cmd := l.command(args)
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start scrcpy: %w", err)
	}

	l.mu.Lock()
	l.session++
	p := &process{cmd: cmd, session: l.session, done: make(chan struct{})}
	l.current = p
	l.mu.Unlock()

	l.logger.Info("scrcpy started",
		zap.Uint64("session", p.session),
		zap.Int("pid", cmd.Process.Pid),
		zap.Strings("args", args))

	go l.watch(p)
	return p.session, nil
}

// watch waits for the process and reports exits that nobody asked for
func (l *Launcher) watch(p *process) {
	p.err = p.cmd.Wait()
	close(p.done)

	l.mu.Lock()
	unexpected := l.current == p
	if unexpected {
		l.current = nil
	}
	l.mu.Unlock()

	if !unexpected {
		return
	}

	l.logger.Info("scrcpy exited", zap.Uint64("session", p.session), zap.Error(p.err))
	select {
	case l.exits <- domain.MirroringExit{Session: p.session, Err: p.err}:
	default:
		l.logger.Warn("Exit channel full, dropping exit event", zap.Uint64("session", p.session))
	}
}

// Stop terminates the running scrcpy. It reports false when nothing was running.
func (l *Launcher) Stop() (bool, error) {
	l.mu.Lock()
	p := l.current
	l.current = nil
	l.mu.Unlock()

	if p == nil {
		return false, nil
	}

	if err := terminate(p); err != nil {
		return true, fmt.Errorf("failed to stop scrcpy: %w", err)
	}
	l.logger.Info("scrcpy stopped", zap.Uint64("session", p.session))
	return true, nil
}

// Running reports whether a scrcpy process is tracked
func (l *Launcher) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current != nil
}

// Exits emits when scrcpy ends without Stop or a restart
func (l *Launcher) Exits() <-chan domain.MirroringExit {
	return l.exits
}
