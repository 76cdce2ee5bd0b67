package provision

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/buildbeaver/connections/common/models"
)

// Manifest lists the projects to get or create and the connections to provision for each.
type Manifest struct {
	Projects []ManifestProject `yaml:"projects"`
}

type ManifestProject struct {
	ExternalID  string              `yaml:"external_id"`
	DisplayName string              `yaml:"display_name"`
	Metadata    map[string]string   `yaml:"metadata"`
	Connections []ManifestConnection `yaml:"connections"`
}

// ManifestConnection describes a connection to provision for its project. Either ExternalID or
// Prefix must be set; a Prefix names the connection "<prefix>_<projectExternalID>".
type ManifestConnection struct {
	ExternalID  string                 `yaml:"external_id"`
	Prefix      models.NamingPrefix    `yaml:"prefix"`
	DisplayName string                 `yaml:"display_name"`
	PieceName   string                 `yaml:"piece_name"`
	Type        models.AuthType        `yaml:"type"`
	Props       map[string]interface{} `yaml:"props"`
}

// ConnectionExternalID returns the external id of the connection for the specified project.
func (c *ManifestConnection) ConnectionExternalID(projectExternalID string) string {
	if c.ExternalID != "" {
		return c.ExternalID
	}
	return c.Prefix.ConnectionExternalID(projectExternalID)
}

// Value returns the connection value described by the manifest.
func (c *ManifestConnection) Value() *models.ConnectionValue {
	return models.NewConnectionValue(c.Type, c.Props)
}

func (c *ManifestConnection) Validate() error {
	var result *multierror.Error
	if c.ExternalID == "" {
		if err := c.Prefix.Validate(); err != nil {
			result = multierror.Append(result, fmt.Errorf("error one of external_id or a valid prefix must be set: %w", err))
		}
	}
	if c.PieceName == "" {
		result = multierror.Append(result, fmt.Errorf("error piece_name must be set"))
	}
	if err := c.Value().Validate(); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

func (m *Manifest) Validate() error {
	var result *multierror.Error
	for i, project := range m.Projects {
		if project.ExternalID == "" {
			result = multierror.Append(result, fmt.Errorf("error project %d: external_id must be set", i))
		}
		for j, connection := range project.Connections {
			if err := connection.Validate(); err != nil {
				result = multierror.Append(result, fmt.Errorf("error project %q connection %d: %w", project.ExternalID, j, err))
			}
		}
	}
	return result.ErrorOrNil()
}

// ParseManifest parses and validates a YAML provisioning manifest.
func ParseManifest(buf []byte) (*Manifest, error) {
	manifest := &Manifest{}
	decoder := yaml.NewDecoder(bytes.NewReader(buf))
	decoder.KnownFields(true)
	if err := decoder.Decode(manifest); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("error parsing manifest: %w", err)
	}
	for i := range manifest.Projects {
		for j := range manifest.Projects[i].Connections {
			connection := &manifest.Projects[i].Connections[j]
			props, err := normalizeYAMLMap(connection.Props)
			if err != nil {
				return nil, fmt.Errorf("error parsing props for project %q connection %d: %w", manifest.Projects[i].ExternalID, j, err)
			}
			connection.Props = props
		}
	}
	if err := manifest.Validate(); err != nil {
		return nil, err
	}
	return manifest, nil
}

// LoadManifest reads and parses a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading manifest %q: %w", path, err)
	}
	return ParseManifest(buf)
}

// normalizeYAMLMap converts any map[interface{}]interface{} values yaml produces for nested
// mappings with non-string keys into map[string]interface{}, so props marshal to JSON.
func normalizeYAMLMap(in map[string]interface{}) (map[string]interface{}, error) {
	if in == nil {
		return nil, nil
	}
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		normalized, err := normalizeYAMLValue(v)
		if err != nil {
			return nil, err
		}
		out[k] = normalized
	}
	return out, nil
}

func normalizeYAMLValue(v interface{}) (interface{}, error) {
	switch value := v.(type) {
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(value))
		for k, inner := range value {
			key, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("error non-string key %v", k)
			}
			normalized, err := normalizeYAMLValue(inner)
			if err != nil {
				return nil, err
			}
			out[key] = normalized
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(value))
		for i, inner := range value {
			normalized, err := normalizeYAMLValue(inner)
			if err != nil {
				return nil, err
			}
			out[i] = normalized
		}
		return out, nil
	default:
		return v, nil
	}
}
