package auth

import (
	"context"

	"golang.org/x/oauth2"
)

// OAuthProvider porte la configuration oauth2 d'un provider social.
// Le flux redirection/callback passe par gothic; le registre sert aux
// handlers pour refuser les providers non configurés et aux fronts SPA
// qui construisent l'URL d'autorisation eux-mêmes.
type OAuthProvider struct {
	Name   string
	Config *oauth2.Config
}

func (p *OAuthProvider) AuthURL(state string) string {
	return p.Config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

func (p *OAuthProvider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return p.Config.Exchange(ctx, code)
}

// Registre des providers activés, rempli au démarrage.
var providers = map[string]*OAuthProvider{}

func Register(p *OAuthProvider) {
	providers[p.Name] = p
}

func Lookup(name string) (*OAuthProvider, bool) {
	p, ok := providers[name]
	return p, ok
}
