package synth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// VoiceMap maps target-language codes to provider voice identifiers. The
// mapping is operator-owned configuration, loaded from a JSON file of the form
// {"es": "voice-id", ...} and hot-reloaded when the file changes.
type VoiceMap struct {
	path string
	log  zerolog.Logger

	mu     sync.RWMutex
	voices map[string]string

	watcher *fsnotify.Watcher
	cancel  func()

	// Debounce: coalesce rapid Create+Write events from editors.
	debounceMu    sync.Mutex
	debounceTimer *time.Timer
}

// LoadVoiceMap reads the voice map file and starts with its contents.
func LoadVoiceMap(path string, log zerolog.Logger) (*VoiceMap, error) {
	vm := &VoiceMap{
		path:   path,
		log:    log.With().Str("component", "voices").Logger(),
		voices: map[string]string{},
	}
	if err := vm.reload(); err != nil {
		return nil, err
	}
	return vm, nil
}

// Voice returns the voice id configured for a language code.
func (vm *VoiceMap) Voice(lang string) (string, bool) {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	v, ok := vm.voices[lang]
	return v, ok
}

// Len returns the number of configured voices.
func (vm *VoiceMap) Len() int {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return len(vm.voices)
}

func (vm *VoiceMap) reload() error {
	data, err := os.ReadFile(vm.path)
	if err != nil {
		return fmt.Errorf("read voice map: %w", err)
	}

	var voices map[string]string
	if err := json.Unmarshal(data, &voices); err != nil {
		return fmt.Errorf("parse voice map %s: %w", vm.path, err)
	}

	vm.mu.Lock()
	vm.voices = voices
	vm.mu.Unlock()

	vm.log.Info().Int("voices", len(voices)).Str("path", vm.path).Msg("voice map loaded")
	return nil
}

// Watch begins watching the voice map file for changes. A broken edit keeps
// the previous mapping in place.
func (vm *VoiceMap) Watch() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	vm.watcher = w

	// Watch the directory: editors replace files by rename, which drops a
	// watch on the file itself.
	if err := w.Add(filepath.Dir(vm.path)); err != nil {
		w.Close()
		return err
	}

	done := make(chan struct{})
	vm.cancel = func() { close(done) }

	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(vm.path) {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				vm.scheduleReload()
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				vm.log.Warn().Err(err).Msg("voice map watcher error")
			case <-done:
				return
			}
		}
	}()

	return nil
}

func (vm *VoiceMap) scheduleReload() {
	vm.debounceMu.Lock()
	defer vm.debounceMu.Unlock()
	if vm.debounceTimer != nil {
		vm.debounceTimer.Stop()
	}
	vm.debounceTimer = time.AfterFunc(200*time.Millisecond, func() {
		if err := vm.reload(); err != nil {
			vm.log.Warn().Err(err).Msg("voice map reload failed, keeping previous mapping")
		}
	})
}

// Close stops the watcher.
func (vm *VoiceMap) Close() {
	if vm.cancel != nil {
		vm.cancel()
	}
	if vm.watcher != nil {
		vm.watcher.Close()
	}
}
