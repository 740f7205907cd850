// Package workspace manages the per-request temporary directories in which
// documents are typeset.
//
// Every conversion owns exactly one workspace, named after its identity,
// below a shared root. A workspace is created empty by [Manager.Acquire] and
// removed with all its contents by [Manager.Release]. Release is idempotent,
// so callers defer it unconditionally, including on paths that never
// acquired anything.
//
//	m, err := workspace.New("temp")
//	dir, err := m.Acquire(id)
//	defer m.Release(id)
package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/matzehuels/latex2image/pkg/errors"
)

// Manager creates and removes workspaces below a root directory.
// It is safe for concurrent use; distinct identities never share state.
type Manager struct {
	root string
}

// New returns a Manager rooted at root. The root is created if missing.
func New(root string) (*Manager, error) {
	if err := Bootstrap(root); err != nil {
		return nil, err
	}
	return &Manager{root: root}, nil
}

// Bootstrap makes sure each directory exists. It is idempotent and meant
// to run once at process start for the temp and output roots.
func Bootstrap(dirs ...string) error {
	for _, dir := range dirs {
		if err := errors.ValidateDir(dir); err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

// Root returns the directory holding all workspaces.
func (m *Manager) Root() string {
	return m.root
}

// Path returns the workspace directory for id without touching the disk.
func (m *Manager) Path(id string) string {
	return filepath.Join(m.root, id)
}

// Acquire creates a fresh, empty workspace for id and returns its path.
// An existing workspace is never reused: it yields WORKSPACE_CONFLICT.
func (m *Manager) Acquire(id string) (string, error) {
	if err := errors.ValidateIdentity(id); err != nil {
		return "", err
	}

	dir := m.Path(id)
	if err := os.Mkdir(dir, 0o755); err != nil {
		if os.IsExist(err) {
			return "", errors.Wrap(errors.ErrCodeWorkspaceConflict, err, "workspace %s already exists", id)
		}
		return "", fmt.Errorf("create workspace: %w", err)
	}
	return dir, nil
}

// Release removes the workspace for id and everything in it.
// Releasing a workspace that does not exist is not an error.
func (m *Manager) Release(id string) error {
	if err := errors.ValidateIdentity(id); err != nil {
		return err
	}
	if err := os.RemoveAll(m.Path(id)); err != nil {
		return fmt.Errorf("remove workspace: %w", err)
	}
	return nil
}

// Exists reports whether the workspace for id is present on disk.
func (m *Manager) Exists(id string) bool {
	_, err := os.Stat(m.Path(id))
	return err == nil
}
