package steamapi

import (
	"context"
	"net/url"
	"strconv"

	"github.com/shandysiswandi/steamguard/internal/authenticator/entity"
	"github.com/shandysiswandi/steamguard/internal/authenticator/usecase"
)

func (c *Client) GetUserCountry(ctx context.Context, sess entity.Session) (_ string, err error) {
	ctx, span := c.startSpan(ctx, "GetUserCountry")
	defer func() { c.endSpan(span, err) }()

	form := url.Values{"steamid": {strconv.FormatUint(sess.AccountID, 10)}}

	body, err := c.web.Post(ctx, c.apiURL("/IUserAccountService/GetUserCountry/v1", sess), nil, form)
	if err != nil {
		return "", err
	}

	res, err := decodeResponse[userCountryResponse](body)
	if err != nil {
		return "", err
	}

	return res.Country, nil
}

func (c *Client) SetAccountPhoneNumber(ctx context.Context, sess entity.Session, phone, countryCode string) (_ *usecase.SetPhoneNumberResult, err error) {
	ctx, span := c.startSpan(ctx, "SetAccountPhoneNumber")
	defer func() { c.endSpan(span, err) }()

	form := url.Values{
		"phone_number":       {phone},
		"phone_country_code": {countryCode},
	}

	body, err := c.web.Post(ctx, c.apiURL("/IPhoneService/SetAccountPhoneNumber/v1", sess), nil, form)
	if err != nil {
		return nil, err
	}

	res, err := decodeResponse[setPhoneResponse](body)
	if err != nil {
		return nil, err
	}

	return &usecase.SetPhoneNumberResult{
		ConfirmationEmailAddress: res.ConfirmationEmailAddress,
		PhoneNumberFormatted:     res.PhoneNumberFormatted,
	}, nil
}

func (c *Client) IsAccountWaitingForEmailConfirmation(ctx context.Context, sess entity.Session) (_ *usecase.EmailConfirmationStatus, err error) {
	ctx, span := c.startSpan(ctx, "IsAccountWaitingForEmailConfirmation")
	defer func() { c.endSpan(span, err) }()

	body, err := c.web.Post(ctx, c.apiURL("/IPhoneService/IsAccountWaitingForEmailConfirmation/v1", sess), nil, url.Values{})
	if err != nil {
		return nil, err
	}

	res, err := decodeResponse[emailConfirmationResponse](body)
	if err != nil {
		return nil, err
	}

	return &usecase.EmailConfirmationStatus{
		AwaitingEmailConfirmation: res.AwaitingEmailConfirmation,
		SecondsToWait:             res.SecondsToWait,
	}, nil
}

// SendPhoneVerificationCode asks for the SMS code. The body is not inspected.
func (c *Client) SendPhoneVerificationCode(ctx context.Context, sess entity.Session) (err error) {
	ctx, span := c.startSpan(ctx, "SendPhoneVerificationCode")
	defer func() { c.endSpan(span, err) }()

	_, err = c.web.Post(ctx, c.apiURL("/IPhoneService/SendPhoneVerificationCode/v1", sess), nil, url.Values{})
	return err
}
