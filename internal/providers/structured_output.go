package providers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// parseStructuredJSON pulls a JSON document out of model output. It accepts
// bare JSON, JSON inside a markdown code fence, and a JSON object embedded
// in surrounding prose. The returned bytes are compacted but otherwise
// untouched, so numbers keep their original text.
func parseStructuredJSON(content string) (json.RawMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errors.New("empty structured output")
	}

	for _, candidate := range []string{content, stripCodeFences(content), outermostObject(content)} {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" || !json.Valid([]byte(candidate)) {
			continue
		}
		var buf bytes.Buffer
		if err := json.Compact(&buf, []byte(candidate)); err != nil {
			continue
		}
		return buf.Bytes(), nil
	}

	return nil, fmt.Errorf("failed to parse structured JSON from %d bytes of output", len(content))
}

func stripCodeFences(content string) string {
	if !strings.HasPrefix(content, "```") {
		return ""
	}
	lines := strings.Split(content, "\n")
	if len(lines) < 2 {
		return ""
	}
	lines = lines[1:]
	if last := len(lines) - 1; strings.TrimSpace(lines[last]) == "```" {
		lines = lines[:last]
	}
	return strings.Join(lines, "\n")
}

func outermostObject(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return ""
	}
	return content[start : end+1]
}

// ValidateStructuredJSON validates parsed JSON against a JSON Schema
// document, either raw or wrapped as {"schema": {...}}.
func ValidateStructuredJSON(schemaRaw, parsed json.RawMessage) error {
	if len(schemaRaw) == 0 || len(parsed) == 0 {
		return nil
	}

	core, err := unwrapSchema(schemaRaw)
	if err != nil {
		return err
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(core)); err != nil {
		return fmt.Errorf("failed to load structured schema: %w", err)
	}
	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("failed to compile structured schema: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(parsed))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("failed to decode structured JSON for validation: %w", err)
	}

	if err := compiled.Validate(doc); err != nil {
		return fmt.Errorf("structured output does not match schema: %w", err)
	}
	return nil
}

func unwrapSchema(schemaRaw json.RawMessage) (json.RawMessage, error) {
	var wrapper struct {
		Schema json.RawMessage `json:"schema"`
	}
	if err := json.Unmarshal(schemaRaw, &wrapper); err != nil {
		return nil, fmt.Errorf("invalid structured schema JSON: %w", err)
	}
	if len(wrapper.Schema) > 0 {
		return wrapper.Schema, nil
	}
	return schemaRaw, nil
}
