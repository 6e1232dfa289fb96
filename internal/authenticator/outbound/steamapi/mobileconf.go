package steamapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/samber/lo"
	"github.com/shandysiswandi/steamguard/internal/authenticator/entity"
	"github.com/shandysiswandi/steamguard/internal/authenticator/usecase"
)

// confirmationParams are the signed p/a/t/m/tag parameters. k is left out
// because the signature arrives already escaped.
func confirmationParams(q usecase.ConfirmationQuery) url.Values {
	return url.Values{
		"p":   {q.DeviceID},
		"a":   {strconv.FormatUint(q.AccountID, 10)},
		"t":   {strconv.FormatInt(q.Time, 10)},
		"m":   {"react"},
		"tag": {q.Tag},
	}
}

func confirmationQueryString(q usecase.ConfirmationQuery, extra url.Values) string {
	v := confirmationParams(q)
	for key, vals := range extra {
		v[key] = vals
	}

	return v.Encode() + "&k=" + q.Signature
}

func (c *Client) communityCookies(sess entity.Session) []*http.Cookie {
	return sess.CookiesFor(entity.CookieDomains[0])
}

func (c *Client) GetConfirmations(ctx context.Context, sess entity.Session, q usecase.ConfirmationQuery) (_ *usecase.ConfirmationList, err error) {
	ctx, span := c.startSpan(ctx, "GetConfirmations")
	defer func() { c.endSpan(span, err) }()

	endpoint := c.community + "/mobileconf/getlist?" + confirmationQueryString(q, nil)

	body, err := c.web.Get(ctx, endpoint, c.communityCookies(sess))
	if err != nil {
		return nil, err
	}

	res, err := decodePlain[confirmationsResponse](body)
	if err != nil {
		return nil, err
	}

	return &usecase.ConfirmationList{
		Success:  res.Success,
		NeedAuth: res.NeedAuth,
		Message:  res.Message,
		Confirmations: lo.Map(res.Conf, func(w confirmationWire, _ int) entity.Confirmation {
			return w.toEntity()
		}),
	}, nil
}

// SendConfirmation decides one confirmation through ajaxop.
func (c *Client) SendConfirmation(ctx context.Context, sess entity.Session, q usecase.ConfirmationQuery, op entity.ConfirmationOp, ref usecase.ConfirmationRef) (_ bool, err error) {
	ctx, span := c.startSpan(ctx, "SendConfirmation")
	defer func() { c.endSpan(span, err) }()

	endpoint := c.community + "/mobileconf/ajaxop?" + confirmationQueryString(q, url.Values{
		"op":  {string(op)},
		"cid": {strconv.FormatUint(ref.ID, 10)},
		"ck":  {strconv.FormatUint(ref.Key, 10)},
	})

	body, err := c.web.Get(ctx, endpoint, c.communityCookies(sess))
	if err != nil {
		return false, err
	}

	res, err := decodePlain[decisionResponse](body)
	if err != nil {
		return false, err
	}

	return res.Success, nil
}

// SendConfirmations decides several confirmations in one multiajaxop call,
// one cid[]/ck[] pair per ref in order.
func (c *Client) SendConfirmations(ctx context.Context, sess entity.Session, q usecase.ConfirmationQuery, op entity.ConfirmationOp, refs []usecase.ConfirmationRef) (_ bool, err error) {
	ctx, span := c.startSpan(ctx, "SendConfirmations")
	defer func() { c.endSpan(span, err) }()

	sig, err := url.QueryUnescape(q.Signature)
	if err != nil {
		return false, err
	}

	form := confirmationParams(q)
	form.Set("op", string(op))
	form.Set("k", sig)
	for _, ref := range refs {
		form.Add("cid[]", strconv.FormatUint(ref.ID, 10))
		form.Add("ck[]", strconv.FormatUint(ref.Key, 10))
	}

	body, err := c.web.Post(ctx, c.community+"/mobileconf/multiajaxop", c.communityCookies(sess), form)
	if err != nil {
		return false, err
	}

	res, err := decodePlain[decisionResponse](body)
	if err != nil {
		return false, err
	}

	return res.Success, nil
}
