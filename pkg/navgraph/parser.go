package navgraph

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ParseError represents a definition parsing error with location info.
type ParseError struct {
	Path    string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ParseFile parses a navigation graph definition from a YAML file.
func ParseFile(path string) (Definition, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- path is a user-provided definition file
	if err != nil {
		return Definition{}, fmt.Errorf("failed to read file: %w", err)
	}
	return Parse(data, path)
}

// Parse parses YAML definition content. Unknown fields are rejected so
// typos in definitions surface as errors instead of silently dropped data.
func Parse(data []byte, sourcePath string) (Definition, error) {
	var def Definition
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&def); err != nil {
		if errors.Is(err, io.EOF) {
			return Definition{}, &ParseError{
				Path:    sourcePath,
				Line:    1,
				Message: "empty definition file",
			}
		}
		return Definition{}, &ParseError{
			Path:    sourcePath,
			Line:    yamlErrorLine(err),
			Message: fmt.Sprintf("invalid definition: %v", err),
		}
	}
	return def, nil
}

// LoadFile parses a definition file and compiles it into a Graph.
func LoadFile(path string) (*Graph, error) {
	def, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	return Load(def)
}

var yamlLineRe = regexp.MustCompile(`line (\d+):`)

// yamlErrorLine digs the line number out of a yaml.v3 error message.
// Returns 0 when the error carries no location.
func yamlErrorLine(err error) int {
	m := yamlLineRe.FindStringSubmatch(err.Error())
	if m == nil {
		return 0
	}
	n, convErr := strconv.Atoi(m[1])
	if convErr != nil {
		return 0
	}
	return n
}
