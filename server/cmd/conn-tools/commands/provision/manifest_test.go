package provision

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/buildbeaver/connections/common/models"
)

const testManifest = `
projects:
  - external_id: org_1234
    display_name: Org 1234
    metadata:
      plan: pro
    connections:
      - prefix: gelato
        piece_name: "@activepieces/piece-gelato"
        type: CUSTOM_AUTH
        props:
          apiKey: x
          region:
            name: eu
      - external_id: slack_shared
        piece_name: "@activepieces/piece-slack"
        type: SECRET_TEXT
        props:
          secret_text: y
`

func TestParseManifest(t *testing.T) {
	manifest, err := ParseManifest([]byte(testManifest))
	require.NoError(t, err)
	require.Len(t, manifest.Projects, 1)

	project := manifest.Projects[0]
	require.Equal(t, "org_1234", project.ExternalID)
	require.Equal(t, map[string]string{"plan": "pro"}, project.Metadata)
	require.Len(t, project.Connections, 2)

	gelato := project.Connections[0]
	require.Equal(t, "gelato_org_1234", gelato.ConnectionExternalID(project.ExternalID))
	require.Equal(t, models.AuthTypeCustomAuth, gelato.Type)
	require.Equal(t, map[string]interface{}{"name": "eu"}, gelato.Props["region"])

	slack := project.Connections[1]
	require.Equal(t, "slack_shared", slack.ConnectionExternalID(project.ExternalID))
	secret, err := slack.Value().SecretText()
	require.NoError(t, err)
	require.Equal(t, "y", secret.SecretText)
}

func TestParseManifestInvalid(t *testing.T) {
	_, err := ParseManifest([]byte(`
projects:
  - connections:
      - piece_name: ""
        type: BASIC_AUTH
        props: {}
`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "external_id must be set")
	require.Contains(t, err.Error(), "piece_name must be set")

	_, err = ParseManifest([]byte("projects:\n  - external_id: x\n    unknown: true\n"))
	require.Error(t, err)
}

func TestParseManifestKeepsYAML11WordsAsStrings(t *testing.T) {
	manifest, err := ParseManifest([]byte(`
projects:
  - external_id: org_1
    connections:
      - prefix: acme
        piece_name: acme
        type: CUSTOM_AUTH
        props:
          enabled: on
          region: no
          confirm: yes
          verbose: true
`))
	require.NoError(t, err)
	props := manifest.Projects[0].Connections[0].Props
	require.Equal(t, "on", props["enabled"])
	require.Equal(t, "no", props["region"])
	require.Equal(t, "yes", props["confirm"])
	require.Equal(t, true, props["verbose"])
}

func TestParseManifestEmpty(t *testing.T) {
	manifest, err := ParseManifest(nil)
	require.NoError(t, err)
	require.Empty(t, manifest.Projects)
}
