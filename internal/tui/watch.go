package tui

import (
	"path/filepath"

	tea "charm.land/bubbletea/v2"
	"github.com/fsnotify/fsnotify"
)

// configChangedMsg reports a write to the watched config file.
type configChangedMsg struct{}

// watchConfigCmd blocks until the config file is written, created or renamed
// into place. The parent dir is watched so editors that replace the file on
// save are still seen.
func watchConfigCmd(path string) tea.Cmd {
	if path == "" {
		return nil
	}
	return func() tea.Msg {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return nil
		}
		defer watcher.Close()

		if err := watcher.Add(filepath.Dir(path)); err != nil {
			return nil
		}
		target := filepath.Clean(path)
		for {
			select {
			case evt, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 && isConfigEvent(evt.Name, target) {
					return configChangedMsg{}
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
			}
		}
	}
}

func isConfigEvent(name, target string) bool {
	return filepath.Clean(name) == target
}
