package models_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/buildbeaver/connections/common/models"
)

func Test_projectID(t *testing.T) {
	id := models.NewProjectID()
	buf, err := id.MarshalJSON()
	require.Nil(t, err)
	id2 := models.ProjectID{}
	err = id2.UnmarshalJSON(buf)
	require.Nil(t, err)
	require.Equal(t, id, id2)

	parsed, err := models.ParseProjectID(id.String())
	require.Nil(t, err)
	require.Equal(t, id, parsed)
}

func Test_connectionIDKindMismatch(t *testing.T) {
	projectID := models.NewProjectID()
	_, err := models.ParseConnectionID(projectID.String())
	require.Error(t, err)

	connectionID := models.NewConnectionID()
	parsed, err := models.ParseConnectionID(connectionID.String())
	require.Nil(t, err)
	require.Equal(t, connectionID, parsed)
}

func Test_resourceIDScanValue(t *testing.T) {
	id := models.NewConnectionID()
	v, err := id.Value()
	require.Nil(t, err)
	scanned := models.ConnectionID{}
	require.Nil(t, scanned.Scan(v))
	require.Equal(t, id, scanned)

	var zero models.ResourceID
	v, err = zero.Value()
	require.Nil(t, err)
	require.Nil(t, v)

	_, err = models.ParseResourceID("not-an-id")
	require.Error(t, err)
}

func Test_connectionRecordNeverSerializesValue(t *testing.T) {
	connection := &models.Connection{
		ID:               models.NewConnectionID(),
		ExternalID:       "gelato_org_1234",
		ValueEncrypted:   []byte("ciphertext"),
		DataKeyEncrypted: []byte("datakey"),
		Value:            models.NewConnectionValue(models.AuthTypeCustomAuth, map[string]interface{}{"apiKey": "x"}),
	}
	buf, err := json.Marshal(connection)
	require.Nil(t, err)
	require.NotContains(t, string(buf), "apiKey")
	require.NotContains(t, string(buf), "ciphertext")
	require.Contains(t, string(buf), "gelato_org_1234")
}
