package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
)

// emit writes v as indented JSON in --json mode, otherwise calls human.
func (a *app) emit(v any, human func()) error {
	if !a.flags.jsonMode {
		human()
		return nil
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	fmt.Fprintln(a.out, string(out))
	return nil
}

// table prints rows under header, aligned in columns.
func (a *app) table(empty string, header []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Fprintln(a.out, empty)
		return
	}
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(header, "\t"))
	dashes := make([]string, len(header))
	for i, h := range header {
		dashes[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(w, strings.Join(dashes, "\t"))
	for _, r := range rows {
		fmt.Fprintln(w, strings.Join(r, "\t"))
	}
	w.Flush()
}

// truncate shortens s to n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// shortID keeps the first 8 characters of an identifier.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// num formats an optional number, "-" when absent.
func num(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// optFloat parses an optional numeric flag. An empty string means unset.
func optFloat(name, s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return nil, userErrorf("--%s: %q is not a number", name, s)
	}
	return &v, nil
}
