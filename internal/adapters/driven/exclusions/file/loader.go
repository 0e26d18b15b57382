// Package file loads exclusion lists from CSV files on disk.
package file

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/custodia-labs/mailsift-cli/internal/core/domain"
	"github.com/custodia-labs/mailsift-cli/internal/core/ports/driven"
)

// Load reads the CSV file at path and adds the first column of every row
// to the store, normalised. The whole list is loaded before a run starts;
// a missing or unreadable file is a configuration error, not a warning.
// Returns the number of addresses added.
func Load(ctx context.Context, path string, store driven.ExclusionStore) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open exclusion file %q: %w: %w", path, domain.ErrInvalidConfig, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	count := 0
	for {
		if err := ctx.Err(); err != nil {
			return count, err
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return count, fmt.Errorf("parse exclusion file %q: %w: %w", path, domain.ErrInvalidConfig, err)
		}
		if len(record) == 0 {
			continue
		}

		normalized := domain.NormalizeAddress(record[0])
		if normalized == "" {
			continue
		}

		if err := store.Add(ctx, normalized); err != nil {
			return count, fmt.Errorf("add exclusion: %w", err)
		}
		count++
	}

	return count, nil
}
