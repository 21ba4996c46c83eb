package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/davep/oldnews/internal/domain"
)

// jsonCounts is the shape unread counts take under --json: the
// per-stream map plus a precomputed total.
type jsonCounts struct {
	Total  int            `json:"total"`
	Counts map[string]int `json:"counts"`
}

func toJSONCounts(counts domain.UnreadCounts) jsonCounts {
	return jsonCounts{Total: counts.Total(), Counts: counts}
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	return fprintJSON(os.Stdout, v)
}

func fprintJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
