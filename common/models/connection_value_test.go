package models

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConnectionValueValidators(t *testing.T) {
	tests := []struct {
		name    string
		value   *ConnectionValue
		isValid bool
	}{
		{"custom auth any props", NewConnectionValue(AuthTypeCustomAuth, map[string]interface{}{"apiKey": "x"}), true},
		{"custom auth empty props", NewConnectionValue(AuthTypeCustomAuth, nil), true},
		{"secret text", NewConnectionValue(AuthTypeSecretText, map[string]interface{}{"secret_text": "s"}), true},
		{"secret text missing", NewConnectionValue(AuthTypeSecretText, map[string]interface{}{"secret": "s"}), false},
		{"secret text wrong type", NewConnectionValue(AuthTypeSecretText, map[string]interface{}{"secret_text": 12}), false},
		{"basic auth", NewConnectionValue(AuthTypeBasicAuth, map[string]interface{}{"username": "u", "password": ""}), true},
		{"basic auth no username", NewConnectionValue(AuthTypeBasicAuth, map[string]interface{}{"password": "p"}), false},
		{"oauth2", NewConnectionValue(AuthTypeOAuth2, map[string]interface{}{"access_token": "a", "expires_at": float64(1700000000)}), true},
		{"oauth2 bad expiry", NewConnectionValue(AuthTypeOAuth2, map[string]interface{}{"access_token": "a", "expires_at": "tomorrow"}), false},
		{"platform oauth2 no token", NewConnectionValue(AuthTypePlatformOAuth2, map[string]interface{}{"refresh_token": "r"}), false},
		{"unknown type", NewConnectionValue("API_KEY", map[string]interface{}{}), false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.value.Validate()
			if test.isValid {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}

func TestConnectionValueValidateAsMismatch(t *testing.T) {
	value := NewConnectionValue(AuthTypeCustomAuth, map[string]interface{}{"secret_text": "s"})
	require.Error(t, value.ValidateAs(AuthTypeSecretText))
	require.NoError(t, value.ValidateAs(AuthTypeCustomAuth))
}

func TestConnectionValueRedaction(t *testing.T) {
	value := NewConnectionValue(AuthTypeBasicAuth, map[string]interface{}{"username": "u", "password": "hunter2"})
	for _, format := range []string{"%v", "%+v", "%#v", "%s"} {
		out := fmt.Sprintf(format, value)
		require.NotContains(t, out, "hunter2", format)
		require.Contains(t, out, redactedConnectionValue, format)
	}
	out := fmt.Sprintf("%v", *value)
	require.NotContains(t, out, "hunter2")
}

func TestConnectionValueTypedAccessors(t *testing.T) {
	expiry := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	value := NewConnectionValueFromStruct(AuthTypeOAuth2, &OAuth2Credential{
		AccessToken: "access",
		TokenType:   "Bearer",
		ExpiresAt:   expiry.Unix(),
	})
	require.NoError(t, value.Validate())
	cred, err := value.OAuth2()
	require.NoError(t, err)
	token := cred.Token()
	require.Equal(t, "access", token.AccessToken)
	require.True(t, expiry.Equal(token.Expiry))

	_, err = value.SecretText()
	require.Error(t, err)

	// Values read back from JSON carry numbers as float64
	value = NewConnectionValue(AuthTypePlatformOAuth2, map[string]interface{}{"access_token": "a", "expires_at": float64(expiry.Unix())})
	cred, err = value.OAuth2()
	require.NoError(t, err)
	require.Equal(t, expiry.Unix(), cred.ExpiresAt)

	basic, err := NewConnectionValueFromStruct(AuthTypeBasicAuth, BasicAuthCredential{Username: "u", Password: "p"}).BasicAuth()
	require.NoError(t, err)
	require.Equal(t, "u", basic.Username)
	require.Equal(t, "p", basic.Password)
}

func TestConnectionCreateValidate(t *testing.T) {
	create := &ConnectionCreate{
		ExternalID:  "gelato_org_1234",
		DisplayName: "Gelato",
		PieceName:   "@activepieces/piece-gelato",
		AuthType:    AuthTypeCustomAuth,
		Scope:       ConnectionScopePlatform,
		ProjectIDs:  []ProjectID{NewProjectID()},
		Value:       NewConnectionValue(AuthTypeCustomAuth, map[string]interface{}{"apiKey": "x"}),
	}
	require.NoError(t, create.Validate())

	create.Value = NewConnectionValue(AuthTypeSecretText, map[string]interface{}{"secret_text": "x"})
	require.Error(t, create.Validate(), "value type must match auth type")

	create.Value = NewConnectionValue(AuthTypeCustomAuth, nil)
	create.ProjectIDs = []ProjectID{ProjectIDFromResourceID(NewConnectionID().ResourceID)}
	require.Error(t, create.Validate(), "project ids must identify projects")

	create.ProjectIDs = nil
	require.Error(t, create.Validate())
}
