package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// StageMap is an insertion-ordered mapping of stage key to StageRecord.
// Declaration order drives pointer advancement, so it must survive a
// JSON round trip; it encodes as a plain JSON object in key order.
type StageMap struct {
	keys    []string
	records map[string]*StageRecord
}

// NewStageMap creates an empty StageMap.
func NewStageMap() *StageMap {
	return &StageMap{records: make(map[string]*StageRecord)}
}

// Set inserts or replaces the record for key. New keys are appended.
func (m *StageMap) Set(key string, rec *StageRecord) {
	if m.records == nil {
		m.records = make(map[string]*StageRecord)
	}
	if _, ok := m.records[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.records[key] = rec
}

// Get returns the record for key, or nil.
func (m *StageMap) Get(key string) *StageRecord {
	if m == nil {
		return nil
	}
	return m.records[key]
}

// Has reports whether key is present.
func (m *StageMap) Has(key string) bool {
	if m == nil {
		return false
	}
	_, ok := m.records[key]
	return ok
}

// Keys returns the keys in declaration order. The slice is a copy.
func (m *StageMap) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Index returns the position of key in declaration order, or -1.
func (m *StageMap) Index(key string) int {
	if m == nil {
		return -1
	}
	for i, k := range m.keys {
		if k == key {
			return i
		}
	}
	return -1
}

// Len returns the number of stages.
func (m *StageMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Clone returns a deep copy of the map.
func (m *StageMap) Clone() *StageMap {
	out := NewStageMap()
	if m == nil {
		return out
	}
	for _, k := range m.keys {
		rec := *m.records[k]
		if rec.Verdict != nil {
			v := *rec.Verdict
			rec.Verdict = &v
		}
		out.Set(k, &rec)
	}
	return out
}

// MarshalJSON encodes the map as a JSON object preserving key order.
func (m *StageMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if m != nil {
		for i, k := range m.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			rb, err := json.Marshal(m.records[k])
			if err != nil {
				return nil, fmt.Errorf("stage %s: %w", k, err)
			}
			buf.Write(rb)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, keeping the document's key order.
func (m *StageMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("stages: expected object, got %v", tok)
	}

	m.keys = nil
	m.records = make(map[string]*StageRecord)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("stages: expected key, got %v", tok)
		}
		var rec StageRecord
		if err := dec.Decode(&rec); err != nil {
			return fmt.Errorf("stage %s: %w", key, err)
		}
		if _, dup := m.records[key]; dup {
			return fmt.Errorf("stages: duplicate key %q", key)
		}
		m.Set(key, &rec)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// sortWorkers orders worker names by start time, then name.
func sortWorkers(names []string, workers map[string]*ActiveWorker) {
	sort.Slice(names, func(i, j int) bool {
		a, b := workers[names[i]], workers[names[j]]
		if !a.StartedAt.Equal(b.StartedAt) {
			return a.StartedAt.Before(b.StartedAt)
		}
		return names[i] < names[j]
	})
}
