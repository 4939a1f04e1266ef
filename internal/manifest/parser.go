package manifest

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pkglink-dev/pkglink/internal/schema"
)

//go:embed schema/package.schema.json
var schemaBytes []byte

var descriptorSchema = schema.New("package.schema.json", schemaBytes)

// ErrNoDescriptor is returned when the directory has no descriptor file.
var ErrNoDescriptor = errors.New("no package descriptor")

// InvalidError reports a descriptor that exists but fails the schema.
type InvalidError struct {
	Path   string
	Result *schema.Result
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("invalid descriptor %s: %s", e.Path, e.Result.Summary())
}

// Read loads the descriptor named file (DefaultFile when empty) from dir.
func Read(dir, file string) (*Descriptor, error) {
	if file == "" {
		file = DefaultFile
	}
	return ReadFile(filepath.Join(dir, file))
}

// ReadFile reads, schema-checks and decodes a descriptor file.
func ReadFile(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoDescriptor, path)
		}
		return nil, fmt.Errorf("reading descriptor %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse validates and decodes descriptor bytes. path is only used in errors.
func Parse(data []byte, path string) (*Descriptor, error) {
	result, err := descriptorSchema.ValidateJSON(data)
	if err != nil {
		return nil, fmt.Errorf("parsing descriptor %s: %w", path, err)
	}
	if !result.Valid {
		return nil, &InvalidError{Path: path, Result: result}
	}

	var d Descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decoding descriptor %s: %w", path, err)
	}
	return &d, nil
}

// Exists reports whether dir contains a descriptor file.
func Exists(dir, file string) bool {
	if file == "" {
		file = DefaultFile
	}
	info, err := os.Stat(filepath.Join(dir, file))
	return err == nil && !info.IsDir()
}
