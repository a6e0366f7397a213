// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package rest

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// newTransport creates an HTTP transport configured with either a static
// token or a client-credentials flow, falling back to the default transport
// when no credentials are configured.
func newTransport(ctx context.Context, auth *authConfig) http.RoundTripper {
	var source oauth2.TokenSource
	switch {
	case len(auth.Token) > 0:
		source = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: auth.Token})
	case len(auth.ClientID) > 0 && len(auth.ClientSecret) > 0:
		config := clientcredentials.Config{
			ClientID:     auth.ClientID,
			ClientSecret: auth.ClientSecret,
			TokenURL:     auth.AuthEndpoint,
			AuthStyle:    oauth2.AuthStyleInHeader,
		}

		source = config.TokenSource(ctx)
	}

	if source == nil {
		return http.DefaultTransport
	}

	return &oauth2.Transport{
		Source: source,
	}
}
