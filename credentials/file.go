package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/MrEthical07/deliveryAuth/logging"
)

const reloadDelay = 500 * time.Millisecond

// accountsFile is the on-disk JSON shape.
type accountsFile struct {
	Accounts []Account `json:"accounts"`
}

// FileStore serves accounts from a JSON file and reloads it when the file
// changes. A failed reload keeps the previous account set.
type FileStore struct {
	*MemoryStore
	path string
	log  logging.Logger
}

// NewFileStore loads path. Call Watch to enable reloading.
func NewFileStore(path string, log logging.Logger) (*FileStore, error) {
	if log == nil {
		log = logging.Nop{}
	}
	accounts, err := readAccounts(path)
	if err != nil {
		return nil, err
	}
	mem, err := NewMemoryStore(accounts...)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return &FileStore{MemoryStore: mem, path: path, log: log}, nil
}

// Reload re-reads the file and swaps the account set.
func (f *FileStore) Reload() error {
	accounts, err := readAccounts(f.path)
	if err != nil {
		return err
	}
	return f.Replace(accounts)
}

// UpdatePasswordHash implements HashUpdater and writes the account set back to
// the file.
func (f *FileStore) UpdatePasswordHash(ctx context.Context, accountID int64, encodedHash string) error {
	if err := f.MemoryStore.UpdatePasswordHash(ctx, accountID, encodedHash); err != nil {
		return err
	}
	return WriteFile(f.path, f.Accounts())
}

// Watch reloads the file on write, create, rename or remove events in its
// directory until ctx is done. Bursts of events collapse into one reload.
func (f *FileStore) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(f.path)); err != nil {
		watcher.Close()
		return err
	}

	reload := make(chan struct{}, 1)
	go f.handleWatcher(ctx, watcher, reload)
	go f.scheduleReload(ctx, reload)
	return nil
}

func (f *FileStore) handleWatcher(ctx context.Context, watcher *fsnotify.Watcher, reload chan<- struct{}) {
	defer watcher.Close()
	name := filepath.Clean(f.path)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != name {
				continue
			}
			if event.Has(fsnotify.Write | fsnotify.Create | fsnotify.Rename | fsnotify.Remove) {
				select {
				case reload <- struct{}{}:
				default:
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			f.log.Warn(ctx, "accounts watcher error", "error", err)
		}
	}
}

func (f *FileStore) scheduleReload(ctx context.Context, reload <-chan struct{}) {
	var timer *time.Timer
	var c <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-reload:
			if timer != nil {
				timer.Reset(reloadDelay)
			} else {
				timer = time.NewTimer(reloadDelay)
				c = timer.C
			}
		case <-c:
			c = nil
			timer = nil
			if err := f.Reload(); err != nil {
				f.log.Warn(ctx, "accounts reload failed", "path", f.path, "error", err)
				continue
			}
			f.log.Info(ctx, "accounts reloaded", "path", f.path, "count", f.Len())
		}
	}
}

func readAccounts(path string) ([]Account, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file accountsFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return file.Accounts, nil
}

// WriteFile stores accounts at path in the format NewFileStore reads.
func WriteFile(path string, accounts []Account) error {
	raw, err := json.MarshalIndent(accountsFile{Accounts: accounts}, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
