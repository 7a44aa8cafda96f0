package persist

import (
	"encoding/hex"
	"fmt"
)

// upsertStatement renders the blob as a hex literal, since
// vendor.Adapter.Exec takes a plain statement string with no
// parameter binding (spec.md §6's adapter contract is DDL-shaped, not
// a general query executor).
func upsertStatement(blob []byte) string {
	return fmt.Sprintf(
		`INSERT INTO venus_core.sys_parameter (param_key, param_value) VALUES ('%s', decode('%s', 'hex'))
ON CONFLICT (param_key) DO UPDATE SET param_value = EXCLUDED.param_value`,
		ParamKey, hex.EncodeToString(blob))
}

func selectStatement() string {
	return fmt.Sprintf(`SELECT param_value FROM venus_core.sys_parameter WHERE param_key = '%s'`, ParamKey)
}
