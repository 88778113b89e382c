package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/cvtracker/pkg/types"
)

var configColumns = []string{"key", "value"}

func configRef(spreadsheet string) types.SheetRef {
	return types.SheetRef{Spreadsheet: spreadsheet, Sheet: types.ConfigSheet}
}

// LoadRemoteConfig reads the key/value configuration sheet. Rows with a
// blank key or value are ignored; later rows override earlier ones.
func LoadRemoteConfig(ctx context.Context, store types.RowStore, spreadsheet string) (types.RemoteConfig, error) {
	rows, err := store.ListRows(ctx, configRef(spreadsheet))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", types.ConfigSheet, err)
	}
	cfg := types.RemoteConfig{}
	for _, row := range rows {
		key := strings.TrimSpace(cell(row.Values, "key"))
		value := strings.TrimSpace(cell(row.Values, "value"))
		if key == "" || value == "" {
			continue
		}
		cfg[key] = value
	}
	return cfg, nil
}

// EnsureProfileEmails loads the configuration and appends a
// PROFILE_EMAIL_<profile> row for every profile that has none and a
// non-empty entry in defaults. It returns the merged configuration.
func EnsureProfileEmails(ctx context.Context, store types.RowStore, spreadsheet string, defaults map[types.ProfileID]string) (types.RemoteConfig, error) {
	cfg, err := LoadRemoteConfig(ctx, store, spreadsheet)
	if err != nil {
		return nil, err
	}
	for _, p := range types.Profiles {
		key := types.ProfileEmailKey(p)
		email := strings.TrimSpace(defaults[p])
		if cfg.Get(key) != "" || email == "" {
			continue
		}
		if err := store.AppendRow(ctx, configRef(spreadsheet), map[string]string{"key": key, "value": email}); err != nil {
			return nil, fmt.Errorf("adding %s: %w", key, err)
		}
		cfg[key] = email
	}
	return cfg, nil
}

// cell looks a column up case-insensitively.
func cell(values map[string]string, col string) string {
	if v, ok := values[col]; ok {
		return v
	}
	for k, v := range values {
		if strings.EqualFold(strings.TrimSpace(k), col) {
			return v
		}
	}
	return ""
}
