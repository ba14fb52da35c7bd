package history

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"workchat/internal/pkg/logx"
)

const logFileSuffix = ".log"

// FileLog stores each room's history as one JSONL file under dir.
// A single mutex serializes appends so concurrent writers never
// interleave partial lines.
type FileLog struct {
	dir    string
	mu     sync.Mutex
	logger zerolog.Logger
}

// NewFileLog opens (or creates) the log directory.
func NewFileLog(dir string) (*FileLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory %s: %w", dir, err)
	}

	return &FileLog{
		dir:    dir,
		logger: logx.Logger().With().Str("component", "FileLog").Logger(),
	}, nil
}

// Append writes one line to the room's log file.
func (l *FileLog) Append(ctx context.Context, room string, line Line) error {
	data, err := json.Marshal(line)
	if err != nil {
		return fmt.Errorf("failed to encode history line: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path(room), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open history log for %s: %w", room, err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to append history line for %s: %w", room, err)
	}

	return nil
}

// Tail returns the last n lines of the room's log in chronological order.
// Lines that fail to parse are skipped without failing the call.
func (l *FileLog) Tail(ctx context.Context, room string, n int) ([]Line, error) {
	l.mu.Lock()
	data, err := os.ReadFile(l.path(room))
	l.mu.Unlock()

	if err != nil {
		if os.IsNotExist(err) {
			return []Line{}, nil
		}
		return nil, fmt.Errorf("failed to read history log for %s: %w", room, err)
	}

	raw := strings.Split(strings.TrimRight(string(data), "\n"), "\n")

	lines := make([]Line, 0, n)
	for _, entry := range raw {
		if entry == "" {
			continue
		}

		var line Line
		if err := json.Unmarshal([]byte(entry), &line); err != nil {
			l.logger.Warn().Str("room", room).Msg("Skipping unparseable history line.")
			continue
		}
		lines = append(lines, line)
	}

	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}

	return lines, nil
}

// Rooms lists every room that has a log file.
func (l *FileLog) Rooms(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list history directory: %w", err)
	}

	var rooms []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, logFileSuffix) {
			continue
		}
		rooms = append(rooms, strings.TrimSuffix(name, logFileSuffix))
	}

	sort.Strings(rooms)

	return rooms, nil
}

// Export returns the room's complete log file.
func (l *FileLog) Export(ctx context.Context, room string) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := os.ReadFile(l.path(room))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to export history log for %s: %w", room, err)
	}

	return bytes.Clone(data), nil
}

// path maps a room name onto its log file, refusing path separators so a
// crafted room name cannot escape the log directory.
func (l *FileLog) path(room string) string {
	safe := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '.':
			return '_'
		}
		return r
	}, room)

	return filepath.Join(l.dir, safe+logFileSuffix)
}

// compile-time interface check
var _ Log = (*FileLog)(nil)
