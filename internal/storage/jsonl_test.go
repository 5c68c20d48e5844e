package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"yieldScope/internal/model"
)

func TestJsonlStorageAppendsRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "holdings.jsonl")
	sink := NewJsonlStorage(path)

	first := model.HoldingRecord{
		ChainID:    1,
		Owner:      "0x00000000000000000000000000000000000bEEF1",
		Kind:       model.HoldingToken,
		Address:    "0x00000000000000000000000000000000000000A0",
		Symbol:     "USDC",
		Balance:    "1500000",
		Decimals:   6,
		Formatted:  "1.5",
		CapturedAt: "2026-08-28T00:00:00Z",
	}
	second := first
	second.Kind = model.HoldingVault
	second.Symbol = "USDC Vault"

	if err := sink.PutHoldings(context.Background(), []model.HoldingRecord{first}); err != nil {
		t.Fatalf("PutHoldings: %v", err)
	}
	if err := sink.PutHoldings(context.Background(), []model.HoldingRecord{second}); err != nil {
		t.Fatalf("PutHoldings append: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer file.Close()

	var records []model.HoldingRecord
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var record model.HoldingRecord
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			t.Fatalf("decode line: %v", err)
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan output: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0] != first {
		t.Fatalf("first record = %+v, want %+v", records[0], first)
	}
	if records[1].Kind != model.HoldingVault {
		t.Fatalf("second record kind = %s, want vault", records[1].Kind)
	}
}

func TestJsonlStorageSkipsEmptyBatches(t *testing.T) {
	path := filepath.Join(t.TempDir(), "holdings.jsonl")
	sink := NewJsonlStorage(path)

	if err := sink.PutHoldings(context.Background(), nil); err != nil {
		t.Fatalf("PutHoldings: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("empty batch must not create the output file")
	}
}
