package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/gabriel-vasile/mimetype"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"

	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/shared/utils"
)

// Format is a document serialization format
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFromPath picks a format from a file extension, defaulting to JSON
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	default:
		return FormatJSON
	}
}

// DetectFormat picks a format from the extension when it names one,
// otherwise from the content. Binary content is rejected.
func DetectFormat(path string, data []byte) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml", ".toml":
		return FormatFromPath(path), nil
	}

	mtype := mimetype.Detect(data)
	if mtype.Is("application/json") {
		return FormatJSON, nil
	}
	for m := mtype; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			// yaml also reads flow-style json, so it is the safer guess for text
			return FormatYAML, nil
		}
	}
	return "", fmt.Errorf("not a settings file: detected %s", mtype.String())
}

// Decode parses a document in the given format
func Decode(format Format, data []byte) (*AppSettings, error) {
	var doc AppSettings
	var err error

	switch format {
	case FormatJSON:
		err = sonic.ConfigStd.Unmarshal(data, &doc)
	case FormatYAML:
		err = yaml.Unmarshal(data, &doc)
	case FormatTOML:
		err = toml.Unmarshal(data, &doc)
	default:
		return nil, fmt.Errorf("unsupported settings format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s settings: %w", format, err)
	}

	return doc.Normalize(), nil
}

// Encode serializes a document in the given format
func Encode(format Format, doc *AppSettings) ([]byte, error) {
	var data []byte
	var err error

	switch format {
	case FormatJSON:
		data, err = sonic.ConfigStd.MarshalIndent(doc, "", "  ")
	case FormatYAML:
		data, err = yaml.Marshal(doc)
	case FormatTOML:
		data, err = toml.Marshal(doc)
	default:
		return nil, fmt.Errorf("unsupported settings format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s settings: %w", format, err)
	}
	return data, nil
}

// ReadFile loads a document, choosing the format with DetectFormat
func ReadFile(path string) (*AppSettings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}
	return ReadBytes(path, data)
}

// ReadBytes decodes data read from path
func ReadBytes(path string, data []byte) (*AppSettings, error) {
	if err := utils.ValidateSize(data, utils.MaxJSONSize); err != nil {
		return nil, fmt.Errorf("settings file too large: %w", err)
	}
	format, err := DetectFormat(path, data)
	if err != nil {
		return nil, err
	}
	return Decode(format, data)
}
