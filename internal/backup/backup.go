// Package backup writes and restores point-in-time copies of the database.
//
// Full backups are zip archives holding a JSON snapshot of every table and
// live under <dir>/full. Settings backups are plain JSON documents under
// <dir>/settings.
package backup

import (
	"archive/zip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"ppm-tracker-backend/internal/model"
	"ppm-tracker-backend/internal/store"
)

// Kind is the type of a backup.
type Kind string

const (
	KindFull     Kind = "full"
	KindSettings Kind = "settings"
)

const (
	snapshotEntry   = "snapshot.json"
	settingsVersion = "1.0"
)

var (
	ErrInvalidName = errors.New("invalid backup filename")
	ErrNotFound    = errors.New("backup not found")
	// ErrBusy is returned when another deletion of the same file is in progress.
	ErrBusy = errors.New("backup is being deleted")
)

// Info describes one backup file.
type Info struct {
	Kind      Kind      `json:"type"`
	Filename  string    `json:"filename"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
	AgeDays   int       `json:"age_days"`
}

type settingsDocument struct {
	BackupInfo struct {
		CreatedAt  time.Time `json:"created_at"`
		BackupType Kind      `json:"backup_type"`
		Version    string    `json:"version"`
	} `json:"backup_info"`
	Settings model.Settings `json:"settings"`
}

// Manager creates, lists, deletes and restores backups in one directory.
type Manager struct {
	dir   string
	store store.Store
	log   zerolog.Logger
	now   func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewManager creates a Manager rooted at dir.
func NewManager(dir string, s store.Store, log zerolog.Logger) *Manager {
	return &Manager{
		dir:   dir,
		store: s,
		log:   log.With().Str("component", "backup").Logger(),
		now:   time.Now,
		locks: make(map[string]*sync.Mutex),
	}
}

func (m *Manager) kindDir(k Kind) string {
	return filepath.Join(m.dir, string(k))
}

func (m *Manager) ensureDirs() error {
	for _, k := range []Kind{KindFull, KindSettings} {
		if err := os.MkdirAll(m.kindDir(k), 0o755); err != nil {
			return fmt.Errorf("create backup directory: %w", err)
		}
	}
	return nil
}

func (m *Manager) stamp() string {
	t := m.now()
	return fmt.Sprintf("%s_%06d", t.Format("20060102_150405"), t.Nanosecond()/1000)
}

// kindOf validates filename and returns the kind implied by its extension.
func kindOf(filename string) (Kind, error) {
	if filename == "" || strings.Contains(filename, "..") || strings.ContainsAny(filename, `/\`) {
		return "", fmt.Errorf("%q: %w", filename, ErrInvalidName)
	}
	switch filepath.Ext(filename) {
	case ".zip":
		return KindFull, nil
	case ".json":
		return KindSettings, nil
	default:
		return "", fmt.Errorf("%q: %w", filename, ErrInvalidName)
	}
}

func (m *Manager) path(filename string) (string, Kind, error) {
	k, err := kindOf(filename)
	if err != nil {
		return "", "", err
	}
	return filepath.Join(m.kindDir(k), filename), k, nil
}

// CreateFull writes a zip archive with a snapshot of every table.
func (m *Manager) CreateFull(ctx context.Context) (Info, error) {
	if err := m.ensureDirs(); err != nil {
		return Info{}, err
	}
	snap, err := m.store.Snapshot(ctx)
	if err != nil {
		return Info{}, fmt.Errorf("snapshot: %w", err)
	}

	filename := "full_backup_" + m.stamp() + ".zip"
	err = writeAtomic(filepath.Join(m.kindDir(KindFull), filename), func(w io.Writer) error {
		zw := zip.NewWriter(w)
		entry, err := zw.Create(snapshotEntry)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(entry)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snap); err != nil {
			return err
		}
		return zw.Close()
	})
	if err != nil {
		return Info{}, fmt.Errorf("write %s: %w", filename, err)
	}

	info, err := m.stat(KindFull, filename)
	if err == nil {
		m.log.Info().Str("filename", filename).Int64("size_bytes", info.SizeBytes).Msg("full backup created")
	}
	return info, err
}

// CreateSettings writes the current settings as a JSON document.
func (m *Manager) CreateSettings(ctx context.Context) (Info, error) {
	if err := m.ensureDirs(); err != nil {
		return Info{}, err
	}
	settings, err := m.store.GetSettings(ctx)
	if err != nil {
		return Info{}, err
	}

	var doc settingsDocument
	doc.BackupInfo.CreatedAt = m.now().UTC()
	doc.BackupInfo.BackupType = KindSettings
	doc.BackupInfo.Version = settingsVersion
	doc.Settings = settings

	filename := "settings_backup_" + m.stamp() + ".json"
	err = writeAtomic(filepath.Join(m.kindDir(KindSettings), filename), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	})
	if err != nil {
		return Info{}, fmt.Errorf("write %s: %w", filename, err)
	}

	info, err := m.stat(KindSettings, filename)
	if err == nil {
		m.log.Info().Str("filename", filename).Msg("settings backup created")
	}
	return info, err
}

func (m *Manager) stat(k Kind, filename string) (Info, error) {
	fi, err := os.Stat(filepath.Join(m.kindDir(k), filename))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Info{}, ErrNotFound
		}
		return Info{}, err
	}
	return m.info(k, fi), nil
}

func (m *Manager) info(k Kind, fi os.FileInfo) Info {
	return Info{
		Kind:      k,
		Filename:  fi.Name(),
		SizeBytes: fi.Size(),
		CreatedAt: fi.ModTime(),
		AgeDays:   int(m.now().Sub(fi.ModTime()).Hours() / 24),
	}
}

// List returns the backups of kind k, or of every kind when k is empty,
// newest first.
func (m *Manager) List(k Kind) ([]Info, error) {
	kinds := []Kind{KindFull, KindSettings}
	if k != "" {
		kinds = []Kind{k}
	}

	var out []Info
	for _, kind := range kinds {
		entries, err := os.ReadDir(m.kindDir(kind))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("list %s backups: %w", kind, err)
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if got, err := kindOf(e.Name()); err != nil || got != kind {
				continue
			}
			fi, err := e.Info()
			if err != nil {
				continue
			}
			out = append(out, m.info(kind, fi))
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// acquire takes the deletion lock of filename. It fails fast when the lock is
// already held.
func (m *Manager) acquire(filename string) (release func(), ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, held := m.locks[filename]; held {
		return nil, false
	}
	l := &sync.Mutex{}
	l.Lock()
	m.locks[filename] = l

	return func() {
		m.mu.Lock()
		delete(m.locks, filename)
		m.mu.Unlock()
		l.Unlock()
	}, true
}

// Delete removes one backup file.
func (m *Manager) Delete(filename string) error {
	path, _, err := m.path(filename)
	if err != nil {
		return err
	}

	release, ok := m.acquire(filename)
	if !ok {
		return fmt.Errorf("%s: %w", filename, ErrBusy)
	}
	defer release()

	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("delete %s: %w", filename, err)
	}
	m.log.Info().Str("filename", filename).Msg("backup deleted")
	return nil
}

// Cleanup deletes every backup older than maxAge and returns their names.
// Files that are being deleted concurrently are skipped.
func (m *Manager) Cleanup(maxAge time.Duration) ([]string, error) {
	backups, err := m.List("")
	if err != nil {
		return nil, err
	}
	cutoff := m.now().Add(-maxAge)

	var deleted []string
	for _, b := range backups {
		if !b.CreatedAt.Before(cutoff) {
			continue
		}
		switch err := m.Delete(b.Filename); {
		case err == nil:
			deleted = append(deleted, b.Filename)
		case errors.Is(err, ErrBusy), errors.Is(err, ErrNotFound):
			m.log.Debug().Str("filename", b.Filename).Err(err).Msg("skipping backup during cleanup")
		default:
			return deleted, err
		}
	}
	m.log.Info().Int("deleted", len(deleted)).Msg("backup cleanup complete")
	return deleted, nil
}

// Restore restores filename according to its kind.
func (m *Manager) Restore(ctx context.Context, filename string) error {
	k, err := kindOf(filename)
	if err != nil {
		return err
	}
	if k == KindFull {
		return m.RestoreFull(ctx, filename)
	}
	return m.RestoreSettings(ctx, filename)
}

// RestoreFull replaces the database contents with the snapshot in a full
// backup. The current state is saved as a new full backup first.
func (m *Manager) RestoreFull(ctx context.Context, filename string) error {
	path, k, err := m.path(filename)
	if err != nil {
		return err
	}
	if k != KindFull {
		return fmt.Errorf("%q is not a full backup: %w", filename, ErrInvalidName)
	}

	snap, err := readSnapshot(path)
	if err != nil {
		return err
	}

	safety, err := m.CreateFull(ctx)
	if err != nil {
		return fmt.Errorf("save current state before restore: %w", err)
	}
	if err := m.store.RestoreSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("restore %s: %w", filename, err)
	}
	m.log.Info().Str("filename", filename).Str("previous_state", safety.Filename).Msg("full backup restored")
	return nil
}

func readSnapshot(path string) (*store.Snapshot, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != snapshotEntry {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()

		var snap store.Snapshot
		if err := json.NewDecoder(rc).Decode(&snap); err != nil {
			return nil, fmt.Errorf("decode snapshot: %w", err)
		}
		return &snap, nil
	}
	return nil, fmt.Errorf("%s has no %s", filepath.Base(path), snapshotEntry)
}

// RestoreSettings saves the settings stored in a settings backup.
func (m *Manager) RestoreSettings(ctx context.Context, filename string) error {
	path, k, err := m.path(filename)
	if err != nil {
		return err
	}
	if k != KindSettings {
		return fmt.Errorf("%q is not a settings backup: %w", filename, ErrInvalidName)
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return err
	}
	defer f.Close()

	var doc settingsDocument
	if err := json.NewDecoder(f).Decode(&doc); err != nil {
		return fmt.Errorf("decode %s: %w", filename, err)
	}
	if doc.BackupInfo.BackupType != KindSettings {
		return fmt.Errorf("%s: unexpected backup type %q", filename, doc.BackupInfo.BackupType)
	}
	if err := m.store.SaveSettings(ctx, doc.Settings); err != nil {
		return fmt.Errorf("restore %s: %w", filename, err)
	}
	m.log.Info().Str("filename", filename).Msg("settings restored")
	return nil
}

// Run creates a full backup and prunes old ones every interval until ctx is
// cancelled.
func (m *Manager) Run(ctx context.Context, interval, maxAge time.Duration) {
	m.log.Info().Dur("interval", interval).Msg("starting automatic backups")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.log.Info().Msg("automatic backups stopped")
			return
		case <-ticker.C:
			if _, err := m.CreateFull(ctx); err != nil {
				m.log.Error().Err(err).Msg("automatic backup failed")
				continue
			}
			if _, err := m.Cleanup(maxAge); err != nil {
				m.log.Error().Err(err).Msg("backup cleanup failed")
			}
		}
	}
}

// writeAtomic writes to a temporary file next to path and renames it into
// place once fill succeeds.
func writeAtomic(path string, fill func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := fill(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
