package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/fatih/structs"
	"github.com/hashicorp/go-multierror"
	"github.com/mitchellh/mapstructure"
	"golang.org/x/oauth2"
)

// ConnectionValueSchemaVersion is the version of the connection value schema written by this code.
// Values stored with a newer version cannot be safely interpreted and are rejected on read.
const ConnectionValueSchemaVersion = 1

const redactedConnectionValue = "[redacted]"

// ConnectionValue is the sensitive authentication material held by a connection. Its Props are
// interpreted according to Type.
type ConnectionValue struct {
	Type  AuthType               `json:"type"`
	Props map[string]interface{} `json:"props"`
}

// NewConnectionValue returns a value of the specified type. props may be nil.
func NewConnectionValue(authType AuthType, props map[string]interface{}) *ConnectionValue {
	if props == nil {
		props = map[string]interface{}{}
	}
	return &ConnectionValue{Type: authType, Props: props}
}

// NewConnectionValueFromStruct builds a value from one of the typed credential structs
// (e.g. SecretTextCredential), keyed by the struct's mapstructure tags.
func NewConnectionValueFromStruct(authType AuthType, credential interface{}) *ConnectionValue {
	s := structs.New(credential)
	s.TagName = "mapstructure"
	return NewConnectionValue(authType, s.Map())
}

// String never reveals the value's props.
func (m ConnectionValue) String() string {
	return fmt.Sprintf("ConnectionValue{Type: %s, Props: %s}", m.Type, redactedConnectionValue)
}

func (m ConnectionValue) GoString() string {
	return m.String()
}

// Validate checks the value is well-formed for its declared type.
func (m *ConnectionValue) Validate() error {
	validator, ok := connectionValueValidators[m.Type]
	if !ok {
		return fmt.Errorf("error unsupported auth type %q", string(m.Type))
	}
	if m.Props == nil {
		return errors.New("error value props must be set")
	}
	return validator(m.Props)
}

// ValidateAs checks the value is well-formed and of the expected type.
func (m *ConnectionValue) ValidateAs(expected AuthType) error {
	if m.Type != expected {
		return fmt.Errorf("error expected value of type %s but found %s", expected, m.Type)
	}
	return m.Validate()
}

// Decode decodes the value's props into out, which is typically a pointer to one of the
// typed credential structs.
func (m *ConnectionValue) Decode(out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
		TagName:          "mapstructure",
	})
	if err != nil {
		return fmt.Errorf("error creating decoder: %w", err)
	}
	if err := decoder.Decode(m.Props); err != nil {
		return fmt.Errorf("error decoding %s connection value: %w", m.Type, err)
	}
	return nil
}

// OAuth2 returns the value as an OAuth2 credential. Only valid for OAUTH2 and PLATFORM_OAUTH2 values.
func (m *ConnectionValue) OAuth2() (*OAuth2Credential, error) {
	if m.Type != AuthTypeOAuth2 && m.Type != AuthTypePlatformOAuth2 {
		return nil, fmt.Errorf("error %s value is not an oauth2 credential", m.Type)
	}
	cred := &OAuth2Credential{}
	return cred, m.Decode(cred)
}

func (m *ConnectionValue) SecretText() (*SecretTextCredential, error) {
	if m.Type != AuthTypeSecretText {
		return nil, fmt.Errorf("error %s value is not a secret text credential", m.Type)
	}
	cred := &SecretTextCredential{}
	return cred, m.Decode(cred)
}

func (m *ConnectionValue) BasicAuth() (*BasicAuthCredential, error) {
	if m.Type != AuthTypeBasicAuth {
		return nil, fmt.Errorf("error %s value is not a basic auth credential", m.Type)
	}
	cred := &BasicAuthCredential{}
	return cred, m.Decode(cred)
}

type OAuth2Credential struct {
	AccessToken  string `mapstructure:"access_token"`
	RefreshToken string `mapstructure:"refresh_token"`
	TokenType    string `mapstructure:"token_type"`
	// ExpiresAt is the unix time (seconds) at which AccessToken expires, or zero if unknown.
	ExpiresAt    int64  `mapstructure:"expires_at"`
	Scope        string `mapstructure:"scope"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
}

// Token returns the credential as an oauth2 token suitable for use with an oauth2 HTTP client.
func (c *OAuth2Credential) Token() *oauth2.Token {
	token := &oauth2.Token{
		AccessToken:  c.AccessToken,
		TokenType:    c.TokenType,
		RefreshToken: c.RefreshToken,
	}
	if c.ExpiresAt > 0 {
		token.Expiry = time.Unix(c.ExpiresAt, 0).UTC()
	}
	return token
}

type SecretTextCredential struct {
	SecretText string `mapstructure:"secret_text"`
}

type BasicAuthCredential struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type connectionValueValidator func(props map[string]interface{}) error

var connectionValueValidators = map[AuthType]connectionValueValidator{
	AuthTypeOAuth2:         validateOAuth2Props,
	AuthTypePlatformOAuth2: validateOAuth2Props,
	AuthTypeSecretText:     validateSecretTextProps,
	AuthTypeBasicAuth:      validateBasicAuthProps,
	AuthTypeCustomAuth:     validateCustomAuthProps,
}

func validateOAuth2Props(props map[string]interface{}) error {
	var result *multierror.Error
	if err := requireStringProp(props, "access_token", false); err != nil {
		result = multierror.Append(result, err)
	}
	for _, optional := range []string{"refresh_token", "token_type", "scope", "client_id", "client_secret"} {
		if err := optionalStringProp(props, optional); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if v, ok := props["expires_at"]; ok && v != nil {
		switch v.(type) {
		case float64, float32, int, int32, int64:
		default:
			result = multierror.Append(result, fmt.Errorf("error expires_at must be a number but found %T", v))
		}
	}
	return result.ErrorOrNil()
}

func validateSecretTextProps(props map[string]interface{}) error {
	return requireStringProp(props, "secret_text", false)
}

func validateBasicAuthProps(props map[string]interface{}) error {
	var result *multierror.Error
	if err := requireStringProp(props, "username", false); err != nil {
		result = multierror.Append(result, err)
	}
	if err := requireStringProp(props, "password", true); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

// Custom auth props are defined by each piece; any set of props is accepted.
func validateCustomAuthProps(props map[string]interface{}) error {
	return nil
}

func requireStringProp(props map[string]interface{}, name string, allowEmpty bool) error {
	v, ok := props[name]
	if !ok || v == nil {
		return fmt.Errorf("error %s must be set", name)
	}
	str, ok := v.(string)
	if !ok {
		return fmt.Errorf("error %s must be a string but found %T", name, v)
	}
	if str == "" && !allowEmpty {
		return fmt.Errorf("error %s must not be empty", name)
	}
	return nil
}

func optionalStringProp(props map[string]interface{}, name string) error {
	v, ok := props[name]
	if !ok || v == nil {
		return nil
	}
	if _, ok := v.(string); !ok {
		return fmt.Errorf("error %s must be a string but found %T", name, v)
	}
	return nil
}
