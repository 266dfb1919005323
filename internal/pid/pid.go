package pid

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"codeberg.org/mutker/runcat/internal/errors"
)

const (
	pidFile = "runcat.pid"
)

// DefaultPath returns the PID file location in the temp directory.
func DefaultPath() string {
	return filepath.Join(os.TempDir(), pidFile)
}

// Write writes the current process ID to path. It fails with
// ErrAlreadyRunning if the file names a live process; a stale file is
// replaced. The file only ever appears with its contents complete, so two
// instances starting together cannot both succeed.
func Write(path string) error {
	errFactory := errors.New()

	if path == "" {
		path = DefaultPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	for attempt := 0; attempt < 2; attempt++ {
		created, err := create(path)
		if err != nil {
			return errFactory.Wrap(errors.ErrInternal, err)
		}
		if created {
			return nil
		}

		bytes, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return errFactory.Wrap(errors.ErrInternal, err)
		}
		if running(strings.TrimSpace(string(bytes))) {
			return errFactory.WithData(errors.ErrAlreadyRunning, path)
		}

		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return errFactory.Wrap(errors.ErrInternal, err)
		}
	}

	// Lost the race for a stale file to another instance.
	return errFactory.WithData(errors.ErrAlreadyRunning, path)
}

// create writes the PID to a temporary file and links it to path. It reports
// false if path already exists.
func create(path string) (bool, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+pidFile+"-*")
	if err != nil {
		return false, err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(strconv.Itoa(os.Getpid())); err != nil {
		tmp.Close()
		return false, err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return false, err
	}
	if err := tmp.Close(); err != nil {
		return false, err
	}

	if err := os.Link(tmp.Name(), path); err != nil {
		if os.IsExist(err) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

// Remove removes the PID file.
func Remove(path string) error {
	errFactory := errors.New()

	if path == "" {
		path = DefaultPath()
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	if err := os.Remove(path); err != nil {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	return nil
}

// running reports whether the process named by a PID file's contents is
// alive. Unparsable contents count as stale.
func running(contents string) bool {
	pid, err := strconv.Atoi(contents)
	if err != nil || pid <= 0 {
		return false
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	return process.Signal(syscall.Signal(0)) == nil
}
