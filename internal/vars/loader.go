package vars

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/unkn0wn-root/reqdeck/internal/errdef"
)

// LoadFile parses a flat string-keyed object from path. YAML and dotenv
// files are recognised by name; everything else is read as JSON.
func LoadFile(path string) (Environment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Environment{}, errdef.Wrap(errdef.CodeFilesystem, err, "read environment %s", path)
	}

	switch {
	case IsYAMLPath(path):
		return parseYAMLEnvironment(data, path)
	case IsDotEnvPath(path):
		return parseDotEnv(bytes.NewReader(data), path)
	default:
		return parseJSONEnvironment(data, path)
	}
}

func IsYAMLPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func parseJSONEnvironment(data []byte, path string) (Environment, error) {
	if !gjson.ValidBytes(data) {
		return Environment{}, errdef.New(errdef.CodeEnvironment, "environment %s is not valid JSON", path)
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return Environment{}, errdef.New(
			errdef.CodeEnvironment,
			"environment %s must be a JSON object",
			path,
		)
	}

	var env Environment
	root.ForEach(func(key, value gjson.Result) bool {
		if value.Type == gjson.String {
			env.Set(key.String(), value.String())
		} else {
			env.Set(key.String(), value.Value())
		}
		return true
	})
	return env, nil
}

// YAML scalars are text regardless of their resolved tag, so `port: 8080`
// substitutes as "8080". Nulls and nested nodes stay malformed.
func parseYAMLEnvironment(data []byte, path string) (Environment, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Environment{}, errdef.Wrap(errdef.CodeEnvironment, err, "parse environment %s", path)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 ||
		doc.Content[0].Kind != yaml.MappingNode {
		return Environment{}, errdef.New(
			errdef.CodeEnvironment,
			"environment %s must be a YAML mapping",
			path,
		)
	}

	var env Environment
	mapping := doc.Content[0]
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		key, value := mapping.Content[i], mapping.Content[i+1]
		if value.Kind == yaml.ScalarNode && value.Tag != "!!null" {
			env.Set(key.Value, value.Value)
			continue
		}
		var decoded any
		if err := value.Decode(&decoded); err != nil {
			return Environment{}, errdef.Wrap(
				errdef.CodeEnvironment,
				err,
				"decode %q in %s",
				key.Value,
				path,
			)
		}
		env.Set(key.Value, decoded)
	}
	return env, nil
}
