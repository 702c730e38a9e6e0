package firebase

import (
	"context"

	"firebase.google.com/go/v4/appcheck"
)

// AppCheckClient verifies Firebase App Check attestation tokens.
type AppCheckClient struct {
	client *appcheck.Client
}

func NewAppCheckClient(client *appcheck.Client) *AppCheckClient {
	return &AppCheckClient{
		client: client,
	}
}

// VerifyToken returns the id of the app that minted token.
func (a *AppCheckClient) VerifyToken(ctx context.Context, token string) (string, error) {
	decoded, err := a.client.VerifyToken(token)
	if err != nil {
		return "", err
	}
	return decoded.AppID, nil
}
