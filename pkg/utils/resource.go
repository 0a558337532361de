package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/nodewee/doc-translate-prep/pkg/constants"
	"github.com/nodewee/doc-translate-prep/pkg/interfaces"
	"github.com/nodewee/doc-translate-prep/pkg/logger"
)

// ResourceManager tracks scratch directories and cleanup functions for one
// scoped operation and releases them together
type ResourceManager struct {
	tempDirs   []string
	mu         sync.Mutex
	logger     *logger.Logger
	baseDir    string
	cleanupFns []func() error
}

var _ interfaces.ScratchSpace = (*ResourceManager)(nil)

// NewResourceManager creates a new resource manager rooted at baseDir
func NewResourceManager(baseDir string, log *logger.Logger) *ResourceManager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	if log == nil {
		log = logger.Discard()
	}

	return &ResourceManager{
		logger:  log,
		baseDir: baseDir,
	}
}

// CreateTempDir creates a uniquely named scratch directory and tracks it for cleanup
func (rm *ResourceManager) CreateTempDir(prefix string) (string, error) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	tempDir := filepath.Join(rm.baseDir, fmt.Sprintf("%s%s", prefix, uuid.NewString()))
	if err := os.MkdirAll(tempDir, constants.DefaultDirPermission); err != nil {
		return "", WrapError(err, ErrorTypeIO, "failed to create scratch directory")
	}

	rm.tempDirs = append(rm.tempDirs, tempDir)
	rm.logger.Debug("Created scratch directory: %s", tempDir)
	return tempDir, nil
}

// RegisterCleanupFunc registers a cleanup function to be called on cleanup
func (rm *ResourceManager) RegisterCleanupFunc(fn func() error) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.cleanupFns = append(rm.cleanupFns, fn)
}

// Cleanup runs cleanup functions in reverse registration order, then removes
// every tracked directory
func (rm *ResourceManager) Cleanup() error {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	var errs []error

	for i := len(rm.cleanupFns) - 1; i >= 0; i-- {
		if err := rm.cleanupFns[i](); err != nil {
			errs = append(errs, err)
			rm.logger.Warn("Cleanup function failed: %v", err)
		}
	}

	for _, dir := range rm.tempDirs {
		if err := os.RemoveAll(dir); err != nil {
			errs = append(errs, fmt.Errorf("failed to remove scratch dir %s: %w", dir, err))
			rm.logger.Warn("Failed to remove scratch directory: %s, error: %v", dir, err)
		} else {
			rm.logger.Debug("Removed scratch directory: %s", dir)
		}
	}

	rm.tempDirs = rm.tempDirs[:0]
	rm.cleanupFns = rm.cleanupFns[:0]

	return NewAggregateError(errs...)
}

// WithCleanup executes a function with automatic cleanup
func (rm *ResourceManager) WithCleanup(fn func() error) error {
	defer func() {
		if err := rm.Cleanup(); err != nil {
			rm.logger.Error("Resource cleanup failed: %v", err)
		}
	}()
	return fn()
}
