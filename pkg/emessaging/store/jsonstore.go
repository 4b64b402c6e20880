package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Entry is one key-value pair of a JSON store, in document order.
type Entry[T any] struct {
	Key   string
	Value T
}

// JSONStore is an on-disk keyed document: a single JSON object mapping
// customer names to values of type T. Key order in the document is
// insertion order and is preserved across updates, which is what lets
// the dispatcher drain pending messages in the order they were queued.
type JSONStore[T any] struct {
	path string
}

// NewJSON returns a store backed by the JSON document at path.
func NewJSON[T any](path string) *JSONStore[T] {
	return &JSONStore[T]{path: path}
}

// Path returns the backing file path.
func (s *JSONStore[T]) Path() string {
	return s.path
}

// EnsureCreated writes an empty document if the file does not exist.
func (s *JSONStore[T]) EnsureCreated() error {
	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat %q: %w", s.path, err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory for %q: %w", s.path, err)
		}
	}
	if err := os.WriteFile(s.path, []byte("{}\n"), 0o644); err != nil {
		return fmt.Errorf("create %q: %w", s.path, err)
	}
	return nil
}

// Entries returns every key-value pair in document order.
func (s *JSONStore[T]) Entries() ([]Entry[T], error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", s.path, err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("decode %q: %w", s.path, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("decode %q: not a JSON object", s.path)
	}

	var entries []Entry[T]
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decode key in %q: %w", s.path, err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("decode %q: non-string key %v", s.path, keyTok)
		}
		var value T
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("decode value of %q in %q: %w", key, s.path, err)
		}
		entries = append(entries, Entry[T]{Key: key, Value: value})
	}
	return entries, nil
}

// ReadAll returns the document as a map for membership checks.
func (s *JSONStore[T]) ReadAll() (map[string]T, error) {
	entries, err := s.Entries()
	if err != nil {
		return nil, err
	}
	m := make(map[string]T, len(entries))
	for _, e := range entries {
		m[e.Key] = e.Value
	}
	return m, nil
}

// Put upserts one entry. An existing key keeps its position in the
// document; a new key is appended at the end.
func (s *JSONStore[T]) Put(key string, value T) error {
	entries, err := s.Entries()
	if err != nil {
		return err
	}

	replaced := false
	for i := range entries {
		if entries[i].Key == key {
			entries[i].Value = value
			replaced = true
			break
		}
	}
	if !replaced {
		entries = append(entries, Entry[T]{Key: key, Value: value})
	}
	return s.write(entries)
}

// Delete removes one entry. Deleting a missing key is a no-op, which
// keeps dispatch reruns safe after a crash between acknowledge and
// removal.
func (s *JSONStore[T]) Delete(key string) error {
	entries, err := s.Entries()
	if err != nil {
		return err
	}

	kept := entries[:0]
	for _, e := range entries {
		if e.Key != key {
			kept = append(kept, e)
		}
	}
	return s.write(kept)
}

func (s *JSONStore[T]) write(entries []Entry[T]) error {
	var raw bytes.Buffer
	raw.WriteByte('{')
	for i, e := range entries {
		if i > 0 {
			raw.WriteByte(',')
		}
		keyJSON, err := json.Marshal(e.Key)
		if err != nil {
			return fmt.Errorf("marshal key %q: %w", e.Key, err)
		}
		valueJSON, err := json.Marshal(e.Value)
		if err != nil {
			return fmt.Errorf("marshal value of %q: %w", e.Key, err)
		}
		raw.Write(keyJSON)
		raw.WriteByte(':')
		raw.Write(valueJSON)
	}
	raw.WriteByte('}')

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw.Bytes(), "", "    "); err != nil {
		return fmt.Errorf("indent %q: %w", s.path, err)
	}
	pretty.WriteByte('\n')

	if err := os.WriteFile(s.path, pretty.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %q: %w", s.path, err)
	}
	return nil
}
