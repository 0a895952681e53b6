package settings

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/a8m/envsubst"
	"github.com/edaniels/golog"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"go.viam.com/utils"
)

// DefaultPath is where the field CLI and the control loop look for the
// persisted mixer settings unless told otherwise.
var DefaultPath string

func init() {
	//nolint:errcheck
	home, _ := os.UserHomeDir()
	DefaultPath = filepath.Join(home, ".flightmix", "settings.json")
}

// Read loads and validates settings from a JSON file. Environment variable
// references in the file are expanded before parsing.
func Read(path string) (*Settings, error) {
	buf, err := envsubst.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromReader(path, bytes.NewReader(buf))
}

// FromReader loads and validates settings from JSON.
func FromReader(path string, r io.Reader) (*Settings, error) {
	s := &Settings{}
	if err := json.NewDecoder(r).Decode(s); err != nil {
		return nil, errors.Wrapf(err, "cannot parse %q as mixer settings", path)
	}
	if err := s.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid mixer settings in %q", path)
	}
	return s, nil
}

// Write persists settings to a JSON file, creating parent directories as
// needed. The file is written to a temporary sibling and renamed into place
// so a reader never observes a half-written table.
func Write(path string, s *Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	md, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".settings-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(append(md, '\n')); err != nil {
		utils.UncheckedErrorFunc(tmp.Close)
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// A Watcher delivers fresh settings whenever the underlying file is
// rewritten. Unparseable or invalid rewrites are logged and skipped so a
// bad edit never reaches a running mixer.
type Watcher struct {
	changes                 chan *Settings
	watcher                 *fsnotify.Watcher
	activeBackgroundWorkers *utils.StoppableWorkers
}

// NewWatcher begins watching a settings file for rewrites.
func NewWatcher(path string, logger golog.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory rather than the file so the rename performed by
	// Write is observed.
	if err := fsWatcher.Add(filepath.Dir(path)); err != nil {
		utils.UncheckedError(fsWatcher.Close())
		return nil, err
	}
	w := &Watcher{
		changes: make(chan *Settings),
		watcher: fsWatcher,
	}
	w.activeBackgroundWorkers = utils.NewBackgroundStoppableWorkers(func(ctx context.Context) {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-fsWatcher.Events:
				if !ok {
					return
				}
				if event.Name != path || !event.Op.Has(fsnotify.Create|fsnotify.Write|fsnotify.Rename) {
					continue
				}
				s, err := Read(path)
				if err != nil {
					logger.Errorw("ignoring settings rewrite", "path", path, "error", err)
					continue
				}
				select {
				case w.changes <- s:
				case <-ctx.Done():
					return
				}
			case err, ok := <-fsWatcher.Errors:
				if !ok {
					return
				}
				logger.Errorw("settings watcher error", "error", err)
			}
		}
	})
	return w, nil
}

// Changes returns the channel fresh settings are delivered on.
func (w *Watcher) Changes() <-chan *Settings { return w.changes }

// Close stops watching.
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	w.activeBackgroundWorkers.Stop()
	return err
}
