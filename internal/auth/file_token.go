// This file implements a token source backed by a file on disk.
// It uses OS-level file system events to pick up rotated tokens.

package auth

import (
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// FileToken serves the token stored in a file and reloads it whenever the
// file is written or replaced.
type FileToken struct {
	MemoryToken
	path     string
	watcher  *fsnotify.Watcher
	stopChan chan struct{}
	done     chan struct{}
	onReload func(token string)
}

// NewFileToken reads the token file and starts watching it for changes.
// onReload, when not nil, is called after each successful reload.
func NewFileToken(path string, onReload func(token string)) (*FileToken, error) {
	token, err := readTokenFile(path)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the parent directory so atomic replace-by-rename is seen too.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, err
	}

	ft := &FileToken{
		MemoryToken: MemoryToken{token: token},
		path:        filepath.Clean(path),
		watcher:     watcher,
		stopChan:    make(chan struct{}),
		done:        make(chan struct{}),
		onReload:    onReload,
	}
	go ft.processEvents()
	log.Printf("Watching token file: %s", path)
	return ft, nil
}

// Close stops watching the token file.
func (f *FileToken) Close() error {
	close(f.stopChan)
	err := f.watcher.Close()
	<-f.done
	return err
}

func (f *FileToken) processEvents() {
	defer close(f.done)
	for {
		select {
		case event, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			f.handleEvent(event)

		case err, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Token file watcher error: %v", err)

		case <-f.stopChan:
			return
		}
	}
}

func (f *FileToken) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != f.path {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}

	token, err := readTokenFile(f.path)
	if err != nil {
		log.Printf("Warning: could not reload token file %s: %v", f.path, err)
		return
	}
	// An empty read usually means the writer truncated but has not written yet.
	if token == "" || token == f.Token() {
		return
	}
	f.Set(token)
	log.Printf("Reloaded token from %s", f.path)
	if f.onReload != nil {
		f.onReload(token)
	}
}
