package gems

import (
	"context"
	"fmt"
	"net/http"

	"github.com/adamwoolhether/gems/client"
)

// Owners lists the accounts that may push name.
func (c *Client) Owners(ctx context.Context, name string) ([]Owner, error) {
	if err := checkSegment("name", name); err != nil {
		return nil, err
	}

	var owners []Owner
	if err := c.get(ctx, "gems/"+name+"/owners", nil, &owners); err != nil {
		return nil, fmt.Errorf("owners %s: %w", name, err)
	}

	return owners, nil
}

// AddOwner grants email push rights on name.
func (c *Client) AddOwner(ctx context.Context, name, email string) (string, error) {
	return c.owner(ctx, http.MethodPost, name, email)
}

// RemoveOwner revokes email's push rights on name.
func (c *Client) RemoveOwner(ctx context.Context, name, email string) (string, error) {
	return c.owner(ctx, http.MethodDelete, name, email)
}

func (c *Client) owner(ctx context.Context, method, name, email string) (string, error) {
	if err := checkSegment("name", name); err != nil {
		return "", err
	}

	msg, err := c.send(ctx, method, "gems/"+name+"/owners", client.Params{{Key: "email", Value: email}})
	if err != nil {
		return "", fmt.Errorf("owner %s %s: %w", method, name, err)
	}

	return msg, nil
}
