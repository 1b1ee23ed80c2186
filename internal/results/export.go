package results

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/kiliankoe/shadowheist/internal/game"
)

// FileExporter appends a human readable summary of every finished game to a text file.
type FileExporter struct {
	Path string

	mu sync.Mutex
}

func NewFileExporter(path string) *FileExporter {
	return &FileExporter{Path: path}
}

// Record writes rec to the end of the export file, creating it and its directory if needed.
func (e *FileExporter) Record(_ context.Context, rec game.GameRecord) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(e.Path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	fileExists := false
	if _, err := os.Stat(e.Path); err == nil {
		fileExists = true
	}

	file, err := os.OpenFile(e.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var sb strings.Builder
	if fileExists {
		sb.WriteString("\n")
	}
	sb.WriteString(fmt.Sprintf("Shadow Heist - Room %s\n", rec.RoomID))
	sb.WriteString(fmt.Sprintf("Ended: %s\n", rec.EndedAt.Format("2006-01-02 15:04:05")))
	sb.WriteString(strings.Repeat("=", 50) + "\n")
	sb.WriteString(fmt.Sprintf("Winner: %s\n", rec.Winner))
	sb.WriteString(rec.Message + "\n\n")

	sb.WriteString("Crew:\n")
	banished := make(map[string]bool, len(rec.Banished))
	for _, name := range rec.Banished {
		banished[name] = true
	}
	for _, r := range rec.Roles {
		line := fmt.Sprintf("- %s: %s", r.Name, r.Role)
		if banished[r.Name] {
			line += " (banished)"
		}
		sb.WriteString(line + "\n")
	}

	sb.WriteString(fmt.Sprintf("\nTasks: %d/%d completed, %d sabotaged\n", rec.Tasks.Completed, rec.Tasks.Total, rec.Tasks.Sabotaged))
	sb.WriteString(strings.Repeat("-", 40) + "\n")

	if _, err := file.WriteString(sb.String()); err != nil {
		return fmt.Errorf("failed to write to file: %w", err)
	}
	return nil
}
