package knowledge

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/poiesic/lexrag/core"
	"gopkg.in/yaml.v3"
)

// Load reads a knowledge base file mapping each label to a list of chunks.
// Files ending in .json, .yaml or .yml are accepted. Label order in the
// file becomes the knowledge base order.
//
// Every failure wraps core.ErrLoad.
func Load(path string) (*core.KnowledgeBase, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
	default:
		return nil, fmt.Errorf("%w: %s: %w", core.ErrLoad, path, ErrUnsupportedFormat)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrLoad, err)
	}
	return LoadBytes(data, path)
}

// LoadBytes parses a knowledge base from memory. name is used in error
// messages only.
//
// Valid JSON is read as a token stream and everything else as a YAML node
// tree. Neither decodes into a map, so labels keep their file order.
func LoadBytes(data []byte, name string) (*core.KnowledgeBase, error) {
	var (
		sections []core.Section
		err      error
	)
	if json.Valid(data) {
		sections, err = parseJSONSections(data)
	} else {
		var doc yaml.Node
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: %s: %w: %w", core.ErrLoad, name, ErrMalformedDocument, err)
		}
		sections, err = parseSections(&doc)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", core.ErrLoad, name, err)
	}

	kb, err := core.NewKnowledgeBase(sections...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", core.ErrLoad, name, err)
	}
	return kb, nil
}

func parseSections(doc *yaml.Node) ([]core.Section, error) {
	// an empty file decodes to a zero node
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc
	if root.Kind == yaml.DocumentNode {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w (line %d)", ErrNotMapping, root.Line)
	}

	sections := make([]core.Section, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		if key.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("%w (line %d)", ErrNotMapping, key.Line)
		}
		label := core.Label(key.Value)

		if value.Kind != yaml.SequenceNode {
			return nil, fmt.Errorf("label %q: %w (line %d)", label, ErrNotStringList, value.Line)
		}

		chunks := make([]core.Chunk, 0, len(value.Content))
		for j, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.ShortTag() != "!!str" {
				return nil, fmt.Errorf("label %q item %d: %w (line %d)", label, j, ErrNotStringList, item.Line)
			}
			chunks = append(chunks, core.Chunk(item.Value))
		}

		sections = append(sections, core.Section{Label: label, Chunks: chunks})
	}
	return sections, nil
}

// parseJSONSections walks a JSON document token by token. data must be valid JSON.
func parseJSONSections(data []byte) ([]core.Section, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, jsonError(err)
	}
	if tok != json.Delim('{') {
		return nil, fmt.Errorf("%w (offset %d)", ErrNotMapping, dec.InputOffset())
	}

	var sections []core.Section
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, jsonError(err)
		}
		label := core.Label(tok.(string))

		tok, err = dec.Token()
		if err != nil {
			return nil, jsonError(err)
		}
		if tok != json.Delim('[') {
			return nil, fmt.Errorf("label %q: %w (offset %d)", label, ErrNotStringList, dec.InputOffset())
		}

		var chunks []core.Chunk
		for j := 0; dec.More(); j++ {
			tok, err := dec.Token()
			if err != nil {
				return nil, jsonError(err)
			}
			text, ok := tok.(string)
			if !ok {
				return nil, fmt.Errorf("label %q item %d: %w (offset %d)", label, j, ErrNotStringList, dec.InputOffset())
			}
			chunks = append(chunks, core.Chunk(text))
		}
		if _, err := dec.Token(); err != nil { // ]
			return nil, jsonError(err)
		}

		sections = append(sections, core.Section{Label: label, Chunks: chunks})
	}
	return sections, nil
}

func jsonError(err error) error {
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return fmt.Errorf("%w: %w", ErrMalformedDocument, err)
}
