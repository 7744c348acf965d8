package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func testProvider(tokenURL string) *OAuthProvider {
	return &OAuthProvider{
		Name: "testprov",
		Config: &oauth2.Config{
			ClientID:     "client-123",
			ClientSecret: "secret",
			RedirectURL:  "http://localhost:8080/api/auth/testprov/callback",
			Scopes:       []string{"email"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  "https://auth.example.com/authorize",
				TokenURL: tokenURL,
			},
		},
	}
}

func TestRegisterAndLookup(t *testing.T) {
	Register(testProvider(""))

	p, ok := Lookup("testprov")
	require.True(t, ok)
	assert.Equal(t, "testprov", p.Name)

	_, ok = Lookup("myspace")
	assert.False(t, ok)
}

func TestAuthURLCarriesClientAndState(t *testing.T) {
	p := testProvider("")

	url := p.AuthURL("etat-42")

	assert.Contains(t, url, "https://auth.example.com/authorize")
	assert.Contains(t, url, "client_id=client-123")
	assert.Contains(t, url, "state=etat-42")
}

func TestExchangeHitsTokenEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "code-abc", r.FormValue("code"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"jeton-xyz","token_type":"Bearer"}`))
	}))
	defer srv.Close()

	p := testProvider(srv.URL)

	token, err := p.Exchange(context.Background(), "code-abc")
	require.NoError(t, err)
	assert.Equal(t, "jeton-xyz", token.AccessToken)
}
