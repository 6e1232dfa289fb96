package steamapi

import (
	"context"
	"net/url"
	"strconv"

	"github.com/shandysiswandi/steamguard/internal/authenticator/entity"
)

// GenerateAccessTokenForApp trades the refresh token for a new access token.
func (c *Client) GenerateAccessTokenForApp(ctx context.Context, sess entity.Session) (_ string, err error) {
	ctx, span := c.startSpan(ctx, "GenerateAccessTokenForApp")
	defer func() { c.endSpan(span, err) }()

	form := url.Values{
		"refresh_token": {sess.RefreshToken},
		"steamid":       {strconv.FormatUint(sess.AccountID, 10)},
	}

	body, err := c.web.Post(ctx, c.api+"/IAuthenticationService/GenerateAccessTokenForApp/v1/", nil, form)
	if err != nil {
		return "", err
	}

	res, err := decodeResponse[accessTokenResponse](body)
	if err != nil {
		return "", err
	}
	if res.AccessToken == "" {
		return "", entity.ErrEmptyResponse
	}

	return res.AccessToken, nil
}
