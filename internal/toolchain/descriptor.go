package toolchain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// AssociationField is the descriptor field naming the engine version
const AssociationField = "EngineAssociation"

// utf8BOM is written at the start of descriptors by some editors
var utf8BOM = []byte("\xef\xbb\xbf")

// ConfigError is returned when the project descriptor cannot provide a version id
type ConfigError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Path, e.Reason, e.Err)
	}

	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ReadVersionID parses the descriptor at path and returns its engine association
func ReadVersionID(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &ConfigError{Path: path, Reason: "failed to read project descriptor", Err: err}
	}

	data = bytes.TrimPrefix(data, utf8BOM)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return "", &ConfigError{Path: path, Reason: "invalid project descriptor", Err: err}
	}

	raw, ok := fields[AssociationField]
	if !ok {
		return "", &ConfigError{Path: path, Reason: AssociationField + " property is missing"}
	}

	var id string
	if err := json.Unmarshal(raw, &id); err != nil {
		return "", &ConfigError{Path: path, Reason: AssociationField + " property is not a string", Err: err}
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return "", &ConfigError{Path: path, Reason: AssociationField + " property is empty"}
	}

	return id, nil
}
