package store

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// JSONMap is a free-form metadata column (Model.Metadata,
// AlertRule.Threshold), persisted as JSONB. No pack library offers a
// GORM JSON-column convenience type, so this is a small hand-written
// database/sql/driver.Valuer/Scanner pair — the idiomatic stdlib-only
// escape hatch GORM itself expects consumers to write for this case.
type JSONMap map[string]any

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *JSONMap) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("store: JSONMap.Scan: unsupported type %T", value)
	}
	return json.Unmarshal(b, m)
}

// UUIDList persists BenchmarkRun.ModelIDs as a JSON array rather than a
// join table — §3 calls it a fixed "snapshot" taken at run creation,
// not a live relation, so an ordered array column fits better than a
// many-to-many table that could drift if a Model row is later deleted.
type UUIDList []uuid.UUID

func (l UUIDList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return json.Marshal(l)
}

func (l *UUIDList) Scan(value any) error {
	if value == nil {
		*l = nil
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("store: UUIDList.Scan: unsupported type %T", value)
	}
	return json.Unmarshal(b, l)
}
