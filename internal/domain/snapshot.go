package domain

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Snapshot is the canonical field-value representation of a tracked record:
// a flat mapping from field name to a JSON-native value. Snapshots built from
// a live record and snapshots decoded from the ledger's JSONB column compare
// equal value-for-value, which is what makes snapshot diffing and hash
// verification reliable.
type Snapshot map[string]any

// Hash serializes the snapshot with stable key ordering and returns the
// lowercase hex SHA-256 digest. Equal snapshots always produce equal hashes
// regardless of how the map was assembled.
func (s Snapshot) Hash() string {
	// encoding/json sorts map keys, so the payload is deterministic.
	payload, err := json.Marshal(s)
	if err != nil {
		// Marshal cannot fail for the JSON-native values canonicalValue and
		// DecodeSnapshot produce. Any other value still gets a content-derived
		// payload so distinct snapshots never collapse to one digest.
		var rendered bytes.Buffer
		for _, key := range sortedKeys(s) {
			fmt.Fprintf(&rendered, "%s=%v;", key, s[key])
		}
		payload = rendered.Bytes()
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	out := make(Snapshot, len(s))
	for key, value := range s {
		out[key] = value
	}
	return out
}

// canonicalValue normalizes a field value to the JSON-native type it would
// have after a round trip through the ledger's JSONB column. Integers become
// float64, times become RFC 3339 strings in UTC.
func canonicalValue(value any) any {
	switch typed := value.(type) {
	case nil:
		return nil
	case time.Time:
		return typed.UTC().Format(time.RFC3339Nano)
	case *time.Time:
		if typed == nil {
			return nil
		}
		return typed.UTC().Format(time.RFC3339Nano)
	case int:
		return float64(typed)
	case int32:
		return float64(typed)
	case int64:
		return float64(typed)
	case float32:
		return float64(typed)
	case []int64:
		out := make([]any, len(typed))
		for i, v := range typed {
			out[i] = float64(v)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, v := range typed {
			out[i] = canonicalValue(v)
		}
		return out
	default:
		return typed
	}
}

// DecodeSnapshot unmarshals a snapshot stored as JSONB.
func DecodeSnapshot(raw []byte) (Snapshot, error) {
	if len(raw) == 0 {
		return Snapshot{}, nil
	}
	var snapshot Snapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}
