package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is a catalog file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks the format from a file extension.
func FormatFor(name string) (Format, bool) {
	switch strings.ToLower(path.Ext(name)) {
	case ".json":
		return FormatJSON, true
	case ".yaml", ".yml":
		return FormatYAML, true
	}
	return "", false
}

// decodeOrdered reads a top-level id -> definition mapping, calling put for
// each entry in the order it appears in the document.
func decodeOrdered[T any](data []byte, format Format, put func(id string, v T)) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	switch format {
	case FormatJSON:
		return decodeJSON(data, put)
	case FormatYAML:
		return decodeYAML(data, put)
	}
	return fmt.Errorf("unsupported format %q", format)
}

func decodeJSON[T any](data []byte, put func(string, T)) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("failed to read catalog: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("catalog must be a JSON object keyed by id")
	}

	seen := make(map[string]bool)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("failed to read catalog key: %w", err)
		}
		id, _ := tok.(string)
		if id == "" {
			return errors.New("catalog entry has an empty id")
		}
		if seen[id] {
			return fmt.Errorf("duplicate id %q", id)
		}
		seen[id] = true

		var v T
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("failed to decode %q: %w", id, err)
		}
		put(id, v)
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("failed to read catalog: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return errors.New("unexpected data after catalog object")
	}
	return nil
}

func decodeYAML[T any](data []byte, put func(string, T)) error {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return fmt.Errorf("failed to read catalog: %w", err)
	}
	node := &root
	if node.Kind == 0 {
		return nil
	}
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return nil
		}
		node = node.Content[0]
	}
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return errors.New("catalog must be a YAML mapping keyed by id")
	}

	seen := make(map[string]bool)
	for i := 0; i+1 < len(node.Content); i += 2 {
		id := node.Content[i].Value
		if id == "" {
			return fmt.Errorf("line %d: catalog entry has an empty id", node.Content[i].Line)
		}
		if seen[id] {
			return fmt.Errorf("line %d: duplicate id %q", node.Content[i].Line, id)
		}
		seen[id] = true

		var v T
		if err := node.Content[i+1].Decode(&v); err != nil {
			return fmt.Errorf("failed to decode %q: %w", id, err)
		}
		put(id, v)
	}
	return nil
}
