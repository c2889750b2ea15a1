package imagefp

import (
	"bytes"
	_ "embed"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed tools.yml
var defaultTable []byte

// SizeRange is an inclusive byte-count range.
type SizeRange struct {
	Min int64 `yaml:"min"`
	Max int64 `yaml:"max"`
}

func (r SizeRange) contains(n int64) bool { return n >= r.Min && n <= r.Max }

// EntropyRange is an inclusive bits-per-byte range.
type EntropyRange struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Tool is the fingerprint of one generator.
type Tool struct {
	Name          string        `yaml:"name"`
	Signatures    []string      `yaml:"signatures"`
	HexSignatures []string      `yaml:"hexSignatures"`
	PNGTextKeys   []string      `yaml:"pngTextKeys"`
	Filenames     []string      `yaml:"filenames"`
	ExactSizes    []int64       `yaml:"exactSizes"`
	SizeRanges    []SizeRange   `yaml:"sizeRanges"`
	JPEGEntropy   *EntropyRange `yaml:"jpegEntropy"`
}

// Table is the versioned fingerprint table.
type Table struct {
	Version          int      `yaml:"version"`
	GenericMarkers   []string `yaml:"genericMarkers"`
	CameraMakes      []string `yaml:"cameraMakes"`
	GenericFilenames []string `yaml:"genericFilenames"`
	Tools            []Tool   `yaml:"tools"`
}

// DefaultTable returns the embedded table.
func DefaultTable() *Table {
	t, err := LoadTable(bytes.NewReader(defaultTable))
	if err != nil {
		panic(fmt.Sprintf("imagefp: embedded table: %v", err))
	}
	return t
}

// LoadTable parses and validates a YAML table. Text patterns are lowercased.
func LoadTable(r io.Reader) (*Table, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var t Table
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("decode tool table: %w", err)
	}

	t.GenericMarkers = lowerAll(t.GenericMarkers)
	t.CameraMakes = lowerAll(t.CameraMakes)
	t.GenericFilenames = lowerAll(t.GenericFilenames)
	seen := make(map[string]struct{}, len(t.Tools))
	for i := range t.Tools {
		tool := &t.Tools[i]
		if strings.TrimSpace(tool.Name) == "" {
			return nil, fmt.Errorf("tool %d: name is required", i)
		}
		if _, dup := seen[tool.Name]; dup {
			return nil, fmt.Errorf("tool %q: duplicate name", tool.Name)
		}
		seen[tool.Name] = struct{}{}
		for _, h := range tool.HexSignatures {
			if _, err := hex.DecodeString(h); err != nil {
				return nil, fmt.Errorf("tool %q: bad hex signature %q", tool.Name, h)
			}
		}
		for _, r := range tool.SizeRanges {
			if r.Min > r.Max {
				return nil, fmt.Errorf("tool %q: size range %d > %d", tool.Name, r.Min, r.Max)
			}
		}
		tool.Signatures = lowerAll(tool.Signatures)
		tool.HexSignatures = lowerAll(tool.HexSignatures)
		tool.PNGTextKeys = lowerAll(tool.PNGTextKeys)
		tool.Filenames = lowerAll(tool.Filenames)
	}
	return &t, nil
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
