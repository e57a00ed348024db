package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/odyssey-erp/quotedesk/internal/quotation"
)

// readRequest loads a quotation payload from a JSON or TOML file, chosen by extension. TOML keys
// use the same names as the JSON payload.
func readRequest(path string) (quotation.Request, error) {
	var req quotation.Request
	data, err := os.ReadFile(path)
	if err != nil {
		return req, fmt.Errorf("read %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		data, err = tomlToJSON(data)
		if err != nil {
			return req, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".json", "":
	default:
		return req, fmt.Errorf("unsupported input %s: want .json or .toml", path)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&req); err != nil {
		return req, fmt.Errorf("parse %s: %w", path, err)
	}
	return req, nil
}

// tomlToJSON re-encodes a TOML document as JSON so the lenient payload decoding applies to both.
func tomlToJSON(data []byte) ([]byte, error) {
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(normalizeTOML(doc))
}

// normalizeTOML turns TOML dates into quote date strings.
func normalizeTOML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, inner := range t {
			t[k] = normalizeTOML(inner)
		}
		return t
	case []map[string]any:
		out := make([]any, len(t))
		for i, inner := range t {
			out[i] = normalizeTOML(inner)
		}
		return out
	case []any:
		for i, inner := range t {
			t[i] = normalizeTOML(inner)
		}
		return t
	case time.Time:
		return t.Format(quotation.DateLayout)
	default:
		return v
	}
}
