// Package store persists problem records as JSON documents addressed by a flat key.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

var ErrNotFound = errors.New("store: object not found")

// API is the object store collaborator.
//
// note: fault injection point
type API interface {
	// List returns every key under the prefix, folder marker objects excluded.
	List(ctx context.Context, prefix string) ([]string, error)
	// Get returns ErrNotFound when the key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put creates or overwrites the object at key.
	Put(ctx context.Context, key string, doc []byte) error
}

// Key returns the destination key of a record. It performs no escaping and depends on
// nothing but its inputs.
func Key(prefix, name string) string {
	return strings.TrimRight(prefix, "/") + "/" + name + ".json"
}

// Name is the inverse of Key.
func Name(prefix, key string) string {
	name := strings.TrimPrefix(key, listPrefix(prefix))
	return strings.TrimSuffix(name, ".json")
}

func listPrefix(prefix string) string {
	if prefix == "" {
		return ""
	}
	return strings.TrimRight(prefix, "/") + "/"
}

// isMarker reports whether key is the zero-byte object some S3 consoles create to represent a folder.
func isMarker(prefix, key string) bool {
	trimmed := strings.TrimRight(prefix, "/")
	return key == trimmed || key == trimmed+"/"
}

// MarshalRecord serializes v the way every record is written: indented by four spaces.
func MarshalRecord(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "    ")
}

// GetJSON reads the record at key into a T.
func GetJSON[T any](ctx context.Context, s API, key string) (T, error) {
	var out T
	doc, err := s.Get(ctx, key)
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(doc, &out)
	return out, err
}
