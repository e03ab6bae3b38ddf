package utils

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
)

// CleanupManager manages temporary resources removed on interruption
type CleanupManager struct {
	tempFiles []string
	mu        sync.Mutex
}

// Global cleanup manager instance
var globalCleanup = &CleanupManager{}

// AddTempFile adds a temporary file to be cleaned up
func (cm *CleanupManager) AddTempFile(filePath string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.tempFiles = append(cm.tempFiles, filePath)
}

// Cleanup performs all cleanup operations. Files that are already gone are not
// an error, so it is safe to call after a deferred removal.
func (cm *CleanupManager) Cleanup() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	var errs []error

	for _, filePath := range cm.tempFiles {
		if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("failed to remove temp file %s: %w", filePath, err))
		}
	}

	cm.tempFiles = cm.tempFiles[:0]

	return errors.Join(errs...)
}

func AddTempFile(filePath string) {
	globalCleanup.AddTempFile(filePath)
}

func Cleanup() error {
	return globalCleanup.Cleanup()
}

// CreateTempFile creates an empty temporary file, registers it for cleanup on
// interruption and returns its path. Callers still remove it with defer.
func CreateTempFile(pattern string) (string, error) {
	tempFile, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	name := tempFile.Name()
	if err := tempFile.Close(); err != nil {
		_ = os.Remove(name)
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}

	AddTempFile(name)
	return name, nil
}

// ContextWithTimeoutFromString creates a cancellable context from a timeout string
// Supports formats like "30s", "5m", "1h", etc. An empty string means no timeout.
func ContextWithTimeoutFromString(timeoutStr string) (context.Context, context.CancelFunc, error) {
	if timeoutStr == "" {
		ctx, cancel := context.WithCancel(context.Background())
		return ctx, cancel, nil
	}

	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid timeout format '%s': %w", timeoutStr, err)
	}

	if timeout <= 0 {
		return nil, nil, fmt.Errorf("timeout must be positive, got: %v", timeout)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	return ctx, cancel, nil
}

// ContextWithSignalHandling creates a context that is cancelled on SIGINT/SIGTERM.
// Registered temporary files are removed as soon as the signal arrives.
func ContextWithSignalHandling(timeoutStr string) (context.Context, context.CancelFunc, error) {
	ctx, cancel, err := ContextWithTimeoutFromString(timeoutStr)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid timeout: %w", err)
	}

	signalCtx, signalCancel := context.WithCancel(ctx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			log.Warn().Str("signal", sig.String()).Msg("Operation cancelled by user")

			if err := Cleanup(); err != nil {
				log.Warn().Err(err).Msg("Cleanup failed")
			}

			signalCancel()
		case <-signalCtx.Done():
			return
		}
	}()

	combinedCancel := func() {
		signal.Stop(sigChan)
		signalCancel()
		cancel()
	}

	return signalCtx, combinedCancel, nil
}

// IsCancelledByUser checks if the context was cancelled by user (SIGINT/SIGTERM)
func IsCancelledByUser(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return ctx.Err() == context.Canceled
	default:
		return false
	}
}
