package models

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

const (
	namingPrefixSeparator = "_"
	// MaxNamingPrefixLength is the longest naming prefix accepted.
	MaxNamingPrefixLength = 100
)

var namingPrefixRegex = regexp.MustCompile(fmt.Sprintf(`^[a-zA-Z0-9][a-zA-Z0-9\-\.]{0,%d}$`, MaxNamingPrefixLength-1))

// NamingPrefix is the piece-specific prefix used to derive a connection external id from a
// project external id.
type NamingPrefix string

func (p NamingPrefix) String() string {
	return string(p)
}

func (p NamingPrefix) Validate() error {
	if !namingPrefixRegex.MatchString(string(p)) {
		return fmt.Errorf("error naming prefix %q must be 1-%d characters of letters, numbers, '-' or '.'", string(p), MaxNamingPrefixLength)
	}
	return nil
}

// ConnectionExternalID returns the external id of the connection provisioned for the specified
// project, of the form "<prefix>_<projectExternalID>".
func (p NamingPrefix) ConnectionExternalID(projectExternalID string) string {
	return string(p) + namingPrefixSeparator + projectExternalID
}

// ConnectionNamingConvention binds a piece to the prefix used when provisioning and resolving its
// connections, and to the auth type those connections hold.
type ConnectionNamingConvention struct {
	PieceName string       `yaml:"piece_name" json:"piece_name"`
	Prefix    NamingPrefix `yaml:"prefix" json:"prefix"`
	AuthType  AuthType     `yaml:"auth_type" json:"auth_type"`
}

func (c *ConnectionNamingConvention) Validate() error {
	var result *multierror.Error
	if err := validatePieceName(c.PieceName); err != nil {
		result = multierror.Append(result, err)
	}
	if err := c.Prefix.Validate(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := c.AuthType.Validate(); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

// NamingConventions is the set of conventions shared by provisioning and resolution, keyed by piece name.
type NamingConventions struct {
	byPieceName map[string]ConnectionNamingConvention
	byPrefix    map[NamingPrefix]ConnectionNamingConvention
}

type namingConventionsFile struct {
	Conventions []ConnectionNamingConvention `yaml:"conventions"`
}

// NewNamingConventions builds a set of conventions, checking that piece names and prefixes are unique.
func NewNamingConventions(conventions ...ConnectionNamingConvention) (*NamingConventions, error) {
	n := &NamingConventions{
		byPieceName: make(map[string]ConnectionNamingConvention, len(conventions)),
		byPrefix:    make(map[NamingPrefix]ConnectionNamingConvention, len(conventions)),
	}
	var result *multierror.Error
	for _, c := range conventions {
		if err := c.Validate(); err != nil {
			result = multierror.Append(result, fmt.Errorf("error invalid convention for piece %q: %w", c.PieceName, err))
			continue
		}
		if _, exists := n.byPieceName[c.PieceName]; exists {
			result = multierror.Append(result, fmt.Errorf("error duplicate convention for piece %q", c.PieceName))
			continue
		}
		if _, exists := n.byPrefix[c.Prefix]; exists {
			result = multierror.Append(result, fmt.Errorf("error duplicate convention prefix %q", c.Prefix))
			continue
		}
		n.byPieceName[c.PieceName] = c
		n.byPrefix[c.Prefix] = c
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return n, nil
}

// ParseNamingConventions parses a YAML conventions document.
func ParseNamingConventions(buf []byte) (*NamingConventions, error) {
	file := &namingConventionsFile{}
	decoder := yaml.NewDecoder(bytes.NewReader(buf))
	decoder.KnownFields(true)
	if err := decoder.Decode(file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("error parsing naming conventions: %w", err)
	}
	return NewNamingConventions(file.Conventions...)
}

// LoadNamingConventions loads conventions from a YAML file. An empty path yields an empty set.
func LoadNamingConventions(path string) (*NamingConventions, error) {
	if path == "" {
		return NewNamingConventions()
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading naming conventions file %q: %w", path, err)
	}
	return ParseNamingConventions(buf)
}

// ForPiece returns the convention for the specified piece, if any.
func (n *NamingConventions) ForPiece(pieceName string) (ConnectionNamingConvention, bool) {
	c, ok := n.byPieceName[pieceName]
	return c, ok
}

// ForPrefix returns the convention using the specified prefix, if any.
func (n *NamingConventions) ForPrefix(prefix NamingPrefix) (ConnectionNamingConvention, bool) {
	c, ok := n.byPrefix[prefix]
	return c, ok
}

func (n *NamingConventions) Len() int {
	return len(n.byPieceName)
}
