package story

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeKind describes the type of file change detected.
type ChangeKind int

const (
	ChangeModified ChangeKind = iota // Node file or manifest edited
	ChangeRemoved                    // Node file deleted
)

// Change represents a detected change in the story directory.
type Change struct {
	Kind   ChangeKind
	NodeID string // Parsed from the file; empty on removal or manifest edits
	File   string
}

// Watcher monitors a story directory for node and manifest changes.
type Watcher struct {
	Dir     string
	Changes <-chan Change

	changes chan Change
	done    chan struct{}
	watcher *fsnotify.Watcher
}

// NewWatcher creates a new watcher for the given story directory.
func NewWatcher(dir string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ch := make(chan Change, 16)
	return &Watcher{
		Dir:     dir,
		Changes: ch,
		changes: ch,
		done:    make(chan struct{}),
		watcher: fw,
	}, nil
}

// Start begins watching the story directory.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(w.Dir); err != nil {
		return err
	}
	go w.loop()
	return nil
}

// Stop closes the watcher and the Changes channel.
func (w *Watcher) Stop() {
	w.watcher.Close()
	<-w.done
	close(w.changes)
}

func (w *Watcher) loop() {
	defer close(w.done)

	// Editors write in bursts; coalesce events per file.
	const debounce = 100 * time.Millisecond
	pending := make(map[string]time.Time)
	ticker := time.NewTicker(debounce)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				for file := range pending {
					w.emitChange(file)
				}
				return
			}
			if !isStoryFile(event.Name) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				pending[event.Name] = time.Now()
			}

		case <-ticker.C:
			now := time.Now()
			for file, t := range pending {
				if now.Sub(t) >= debounce {
					w.emitChange(file)
					delete(pending, file)
				}
			}

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func isStoryFile(name string) bool {
	base := filepath.Base(name)
	return base == ManifestFile || strings.HasSuffix(base, ".md")
}

func (w *Watcher) emitChange(file string) {
	if filepath.Base(file) == ManifestFile {
		w.changes <- Change{Kind: ChangeModified, File: file}
		return
	}

	node, err := ParseNodeFile(file)
	if err != nil {
		w.changes <- Change{Kind: ChangeRemoved, File: file}
		return
	}
	w.changes <- Change{Kind: ChangeModified, NodeID: node.ID, File: file}
}
