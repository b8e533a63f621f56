// Package mathml converts LaTeX formulas to MathML with an external tool and
// prepares MathML fragments for embedding into host text runs.
package mathml

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"onemd/config"
)

var (
	ErrDisabled = errors.New("math conversion is disabled")
	ErrNoOutput = errors.New("math converter produced no MathML")
)

// probeFormula is converted once during initialization to make sure the
// tool is installed and warmed up.
const probeFormula = "x"

// Service runs configured converter command: LaTeX is written to standard
// input, MathML is read from standard output. Initialization result is
// remembered, failed initialization is never retried. Service is safe for
// concurrent use.
type Service struct {
	cfg *config.MathConfig
	log *zap.Logger

	mu      sync.Mutex
	done    bool
	initErr error
	path    string
}

func New(cfg *config.MathConfig, log *zap.Logger) *Service {
	return &Service{cfg: cfg, log: log.Named("mathml")}
}

// IsReady reports whether Initialize succeeded.
func (s *Service) IsReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done && s.initErr == nil
}

// Initialize locates converter and runs a probe conversion bounded by ready
// timeout. Repeated calls return the first result.
func (s *Service) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done {
		return s.initErr
	}
	s.done = true
	s.initErr = s.initialize(ctx)
	if s.initErr != nil {
		s.log.Warn("Math conversion unavailable, formulas will be kept as LaTeX", zap.Error(s.initErr))
	}
	return s.initErr
}

func (s *Service) initialize(ctx context.Context) error {
	if !s.cfg.Enable {
		return ErrDisabled
	}
	if len(s.cfg.Command) == 0 {
		return errors.New("math converter command is not configured")
	}
	path, err := exec.LookPath(s.cfg.Command[0])
	if err != nil {
		return fmt.Errorf("unable to find math converter: %w", err)
	}
	s.path = path

	if s.cfg.ReadyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ReadyTimeout)
		defer cancel()
	}
	start := time.Now()
	if _, err := s.run(ctx, probeFormula); err != nil {
		return fmt.Errorf("math converter is not ready: %w", err)
	}
	s.log.Debug("Math converter ready", zap.String("path", path), zap.Duration("elapsed", time.Since(start)))
	return nil
}

// LatexToMathML converts single formula. Display formulas are rendered with
// \displaystyle.
func (s *Service) LatexToMathML(ctx context.Context, src string, display bool) (string, error) {
	if err := s.Initialize(ctx); err != nil {
		return "", err
	}
	if display {
		src = `\displaystyle ` + src
	}
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}
	out, err := s.run(ctx, src)
	if err != nil {
		return "", fmt.Errorf("unable to convert formula %q: %w", src, err)
	}
	return out, nil
}

func (s *Service) run(ctx context.Context, src string) (string, error) {
	cmd := exec.CommandContext(ctx, s.path, s.cfg.Command[1:]...)
	cmd.Stdin = strings.NewReader(src)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%w: %s", err, msg)
		}
		return "", err
	}
	out := strings.TrimSpace(stdout.String())
	if !strings.Contains(out, "math") {
		return "", ErrNoOutput
	}
	return out, nil
}
