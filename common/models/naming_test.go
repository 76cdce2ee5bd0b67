package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const testConventions = `
conventions:
  - piece_name: "@activepieces/piece-gelato"
    prefix: gelato
    auth_type: CUSTOM_AUTH
  - piece_name: "@activepieces/piece-slack"
    prefix: slack
    auth_type: PLATFORM_OAUTH2
`

func TestNamingPrefix(t *testing.T) {
	require.Equal(t, "gelato_org_1234", NamingPrefix("gelato").ConnectionExternalID("org_1234"))
	require.NoError(t, NamingPrefix("gelato").Validate())
	require.Error(t, NamingPrefix("").Validate())
	require.Error(t, NamingPrefix("has_underscore").Validate())
	require.NoError(t, NamingPrefix(strings.Repeat("a", MaxNamingPrefixLength)).Validate())
	require.Error(t, NamingPrefix(strings.Repeat("a", MaxNamingPrefixLength+1)).Validate())

	longest := NamingPrefix(strings.Repeat("a", MaxNamingPrefixLength)).ConnectionExternalID(strings.Repeat("b", MaxExternalIDLength))
	require.NoError(t, ValidateConnectionExternalID(longest))
	require.Error(t, ValidateConnectionExternalID(longest+"b"))
	require.Error(t, ValidateExternalID(strings.Repeat("b", MaxExternalIDLength+1)))
}

func TestParseNamingConventionsStrict(t *testing.T) {
	conventions, err := ParseNamingConventions(nil)
	require.NoError(t, err)
	require.Equal(t, 0, conventions.Len())

	_, err = ParseNamingConventions([]byte("conventions:\n  - piece_name: x\n    prefix: x\n    colour: red\n"))
	require.Error(t, err)
}

func TestParseNamingConventions(t *testing.T) {
	conventions, err := ParseNamingConventions([]byte(testConventions))
	require.NoError(t, err)
	require.Equal(t, 2, conventions.Len())

	gelato, ok := conventions.ForPiece("@activepieces/piece-gelato")
	require.True(t, ok)
	require.Equal(t, NamingPrefix("gelato"), gelato.Prefix)
	require.Equal(t, AuthTypeCustomAuth, gelato.AuthType)

	slack, ok := conventions.ForPrefix("slack")
	require.True(t, ok)
	require.Equal(t, "@activepieces/piece-slack", slack.PieceName)

	_, ok = conventions.ForPiece("@activepieces/piece-unknown")
	require.False(t, ok)
}

func TestParseNamingConventionsRejectsDuplicates(t *testing.T) {
	_, err := ParseNamingConventions([]byte(`
conventions:
  - piece_name: a
    prefix: gelato
    auth_type: CUSTOM_AUTH
  - piece_name: b
    prefix: gelato
    auth_type: CUSTOM_AUTH
`))
	require.Error(t, err)

	_, err = ParseNamingConventions([]byte(`
conventions:
  - piece_name: a
    prefix: gelato
    auth_type: API_KEY
`))
	require.Error(t, err)
}

func TestLoadNamingConventionsEmptyPath(t *testing.T) {
	conventions, err := LoadNamingConventions("")
	require.NoError(t, err)
	require.Equal(t, 0, conventions.Len())
}
