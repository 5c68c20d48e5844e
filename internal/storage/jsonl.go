package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"yieldScope/internal/model"
)

// JsonlStorage appends holding records to a JSONL file.
type JsonlStorage struct {
	path string
	mu   sync.Mutex
}

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path}
}

// PutHoldings appends a batch of holding records as JSON lines.
func (s *JsonlStorage) PutHoldings(_ context.Context, holdings []model.HoldingRecord) error {
	if len(holdings) == 0 {
		return nil
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, record := range holdings {
		line, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal holding record: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write holding record: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output file: %w", err)
	}
	return nil
}
