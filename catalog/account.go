package catalog

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"
)

func (c *Client) AccountAttributes(ctx context.Context) (*Account, error) {
	accountBytes, err := c.query(ctx, "accountAttributes", c.conf.Queries.AccountAttributes, map[string]any{})
	if nil != err {
		return nil, fmt.Errorf("failed to get account attributes: %w", err)
	}

	profileBytes, err := c.query(ctx, "profileAttributes", c.conf.Queries.ProfileAttributes, map[string]any{})
	if nil != err {
		return nil, fmt.Errorf("failed to get profile attributes: %w", err)
	}

	account := gjson.GetBytes(accountBytes, "data.me.account")
	if !account.Exists() {
		return nil, fmt.Errorf("%w: account attributes response has no account", ErrMalformedResponse)
	}

	return &Account{
		Product:  account.Get("product").Str,
		Country:  account.Get("country").Str,
		Username: gjson.GetBytes(profileBytes, "data.me.profile.username").Str,
	}, nil
}
