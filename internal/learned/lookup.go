package learned

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/garyellow/aulabot-go/internal/fuzzy"
)

// DefaultThreshold is the token sort score a stored question must exceed.
const DefaultThreshold = 85

// Lookup compares msg with every stored question by token sort ratio and
// returns the answer of the best one scoring above threshold. Questions are
// visited in sorted order so equal scores resolve the same way every time.
func Lookup(ctx context.Context, store Store, msg string, threshold int) (string, bool, error) {
	m, err := store.Load(ctx)
	if err != nil {
		return "", false, err
	}
	if len(m) == 0 {
		return "", false, nil
	}

	questions := slices.Sorted(maps.Keys(m))
	best, err := fuzzy.ExtractOne(msg, questions, fuzzy.TokenSortRatio)
	if err != nil || best.Score <= threshold {
		return "", false, nil
	}
	return m[best.Choice], true, nil
}

// Export writes every pair of store as a JSON object.
func Export(ctx context.Context, store Store, w io.Writer) (int, error) {
	m, err := store.Load(ctx)
	if err != nil {
		return 0, err
	}
	data, err := encode(m)
	if err != nil {
		return 0, err
	}
	if _, err := w.Write(data); err != nil {
		return 0, fmt.Errorf("learned: export: %w", err)
	}
	return len(m), nil
}

// Import reads a JSON object of pairs and saves each one into store.
func Import(ctx context.Context, store Store, r io.Reader) (int, error) {
	pairs := map[string]string{}
	if err := json.NewDecoder(r).Decode(&pairs); err != nil {
		return 0, fmt.Errorf("learned: import: %w", err)
	}
	if err := saveAll(ctx, store, pairs); err != nil {
		return 0, err
	}
	return len(pairs), nil
}

// saveAll writes pairs in one file rewrite when possible, else one by one.
func saveAll(ctx context.Context, store Store, pairs map[string]string) error {
	if fs, ok := store.(*FileStore); ok {
		return fs.SaveAll(ctx, pairs)
	}
	for _, q := range slices.Sorted(maps.Keys(pairs)) {
		if err := store.Save(ctx, q, pairs[q]); err != nil {
			return err
		}
	}
	return nil
}
