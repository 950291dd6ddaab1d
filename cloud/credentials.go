package cloud

import (
	"fmt"
	"net/http"
)

// Scheme names the authentication scheme of a credential set
type Scheme string

const (
	SchemeBearer Scheme = "bearer"
	SchemeAPIKey Scheme = "api-key"
	SchemeBasic  Scheme = "basic"
)

// Header names used by the API key scheme
const (
	HeaderAPIKey    = "X-API-Key"
	HeaderAPISecret = "X-API-Secret"
)

// Credentials attaches exactly one authentication scheme to outgoing requests.
// Implementations are immutable.
type Credentials interface {
	// Apply sets the authentication headers on req
	Apply(req *http.Request)

	// Scheme reports which scheme the credentials use
	Scheme() Scheme
}

// NewCredentials selects the authentication scheme from the fields present:
// a bearer token wins, then an API key/secret pair, then HTTP basic built
// from the user id and token.
func NewCredentials(userID, token, apiKey, apiSecret string) Credentials {
	switch {
	case token != "":
		return BearerCredentials{Token: token}
	case apiKey != "" && apiSecret != "":
		return APIKeyCredentials{Key: apiKey, Secret: apiSecret}
	default:
		return BasicCredentials{UserID: userID, Token: token}
	}
}

// BearerCredentials authenticates with an Authorization: Bearer header
type BearerCredentials struct {
	Token string
}

func (c BearerCredentials) Apply(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.Token)
}

func (c BearerCredentials) Scheme() Scheme { return SchemeBearer }

func (c BearerCredentials) String() string {
	return fmt.Sprintf("bearer(token=%s)", redact(c.Token))
}

// APIKeyCredentials authenticates with X-API-Key and X-API-Secret headers
type APIKeyCredentials struct {
	Key    string
	Secret string
}

func (c APIKeyCredentials) Apply(req *http.Request) {
	req.Header.Set(HeaderAPIKey, c.Key)
	req.Header.Set(HeaderAPISecret, c.Secret)
}

func (c APIKeyCredentials) Scheme() Scheme { return SchemeAPIKey }

func (c APIKeyCredentials) String() string {
	return fmt.Sprintf("api-key(key=%s, secret=%s)", redact(c.Key), redact(c.Secret))
}

// BasicCredentials authenticates with HTTP basic auth
type BasicCredentials struct {
	UserID string
	Token  string
}

func (c BasicCredentials) Apply(req *http.Request) {
	req.SetBasicAuth(c.UserID, c.Token)
}

func (c BasicCredentials) Scheme() Scheme { return SchemeBasic }

func (c BasicCredentials) String() string {
	return fmt.Sprintf("basic(user=%s, token=%s)", c.UserID, redact(c.Token))
}

func redact(s string) string {
	if s == "" {
		return "<empty>"
	}
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + "****" + s[len(s)-2:]
}
