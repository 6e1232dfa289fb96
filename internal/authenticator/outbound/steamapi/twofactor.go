package steamapi

import (
	"context"
	"net/url"
	"strconv"

	"github.com/shandysiswandi/steamguard/internal/authenticator/entity"
	"github.com/shandysiswandi/steamguard/internal/authenticator/usecase"
)

// ServerTime asks the two-factor service for its clock. It satisfies clock.TimeSource.
func (c *Client) ServerTime(ctx context.Context) (_ int64, err error) {
	ctx, span := c.startSpan(ctx, "ServerTime")
	defer func() { c.endSpan(span, err) }()

	body, err := c.web.Post(ctx, c.api+"/ITwoFactorService/QueryTime/v0001?steamid=0", nil, url.Values{})
	if err != nil {
		return 0, err
	}

	res, err := decodeResponse[timeQueryResponse](body)
	if err != nil {
		return 0, err
	}
	if res.ServerTime <= 0 {
		return 0, entity.ErrEmptyResponse
	}

	return int64(res.ServerTime), nil
}

func (c *Client) AddAuthenticator(ctx context.Context, sess entity.Session, in usecase.AddAuthenticatorRequest) (_ *usecase.AddAuthenticatorResult, err error) {
	ctx, span := c.startSpan(ctx, "AddAuthenticator")
	defer func() { c.endSpan(span, err) }()

	form := url.Values{
		"steamid":            {strconv.FormatUint(sess.AccountID, 10)},
		"authenticator_time": {strconv.FormatInt(in.AuthenticatorTime, 10)},
		"authenticator_type": {"1"},
		"device_identifier":  {in.DeviceID},
		"sms_phone_id":       {"1"},
	}

	body, err := c.web.Post(ctx, c.apiURL("/ITwoFactorService/AddAuthenticator/v1/", sess), nil, form)
	if err != nil {
		return nil, err
	}

	res, err := decodeResponse[addAuthenticatorResponse](body)
	if err != nil {
		return nil, err
	}

	out := &usecase.AddAuthenticatorResult{Status: int(res.Status)}
	if out.Status == usecase.StatusOK {
		auth := res.Authenticator()
		out.Authenticator = &auth
	}

	return out, nil
}

func (c *Client) FinalizeAddAuthenticator(ctx context.Context, sess entity.Session, in usecase.FinalizeAuthenticatorRequest) (_ *usecase.FinalizeAuthenticatorResult, err error) {
	ctx, span := c.startSpan(ctx, "FinalizeAddAuthenticator")
	defer func() { c.endSpan(span, err) }()

	form := url.Values{
		"steamid":            {strconv.FormatUint(sess.AccountID, 10)},
		"authenticator_code": {in.AuthenticatorCode},
		"authenticator_time": {strconv.FormatInt(in.AuthenticatorTime, 10)},
		"activation_code":    {in.ActivationCode},
		"validate_sms_code":  {"1"},
	}

	body, err := c.web.Post(ctx, c.apiURL("/ITwoFactorService/FinalizeAddAuthenticator/v1/", sess), nil, form)
	if err != nil {
		return nil, err
	}

	res, err := decodeResponse[finalizeResponse](body)
	if err != nil {
		return nil, err
	}

	out := &usecase.FinalizeAuthenticatorResult{
		Success:    res.Success,
		WantMore:   res.WantMore,
		ServerTime: int64(res.ServerTime),
	}
	if res.Status != nil {
		status := int(*res.Status)
		out.Status = &status
	}

	return out, nil
}

func (c *Client) RemoveAuthenticator(ctx context.Context, sess entity.Session, in usecase.RemoveAuthenticatorRequest) (_ *usecase.RemoveAuthenticatorResult, err error) {
	ctx, span := c.startSpan(ctx, "RemoveAuthenticator")
	defer func() { c.endSpan(span, err) }()

	form := url.Values{
		"revocation_code":   {in.RevocationCode},
		"revocation_reason": {"1"},
		"steamguard_scheme": {strconv.Itoa(in.Scheme)},
	}

	body, err := c.web.Post(ctx, c.apiURL("/ITwoFactorService/RemoveAuthenticator/v1", sess), nil, form)
	if err != nil {
		return nil, err
	}

	res, err := decodeResponse[removeResponse](body)
	if err != nil {
		return nil, err
	}

	return &usecase.RemoveAuthenticatorResult{
		Success:                     res.Success,
		RevocationAttemptsRemaining: res.RevocationAttemptsRemaining,
	}, nil
}
