// Package steamapi talks to the remote account service: the two-factor, phone
// and authentication web APIs and the community mobile confirmation pages.
package steamapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/shandysiswandi/steamguard/internal/authenticator/entity"
	"github.com/shandysiswandi/steamguard/internal/pkg/instrument"
	"github.com/shandysiswandi/steamguard/internal/pkg/webclient"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultAPIBaseURL       = "https://api.steampowered.com"
	DefaultCommunityBaseURL = "https://steamcommunity.com"
)

type Config struct {
	APIBaseURL       string
	CommunityBaseURL string
}

type Client struct {
	web       webclient.Client
	api       string
	community string
	ins       instrument.Instrumentation
}

func NewClient(web webclient.Client, cfg Config, ins instrument.Instrumentation) *Client {
	api := strings.TrimRight(cfg.APIBaseURL, "/")
	if api == "" {
		api = DefaultAPIBaseURL
	}
	community := strings.TrimRight(cfg.CommunityBaseURL, "/")
	if community == "" {
		community = DefaultCommunityBaseURL
	}

	return &Client{web: web, api: api, community: community, ins: ins}
}

func (c *Client) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return c.ins.Tracer("authenticator.outbound.steamapi").Start(ctx, name)
}

func (c *Client) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, entity.ErrEmptyResponse) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// apiURL builds a web API url authenticated with the access token.
func (c *Client) apiURL(method string, sess entity.Session) string {
	return c.api + method + "?access_token=" + url.QueryEscape(sess.AccessToken)
}

// envelope is the {"response": {...}} wrapper of the web API.
type envelope[T any] struct {
	Response *T `json:"response"`
}

// decodeResponse unwraps a web API body. A blank body, a non-JSON body or a
// missing response object are all ErrEmptyResponse.
func decodeResponse[T any](body []byte) (*T, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, entity.ErrEmptyResponse
	}

	var env envelope[T]
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrEmptyResponse, err)
	}
	if env.Response == nil {
		return nil, entity.ErrEmptyResponse
	}

	return env.Response, nil
}

// decodePlain decodes an unwrapped community body.
func decodePlain[T any](body []byte) (*T, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, entity.ErrEmptyResponse
	}

	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrEmptyResponse, err)
	}

	return &out, nil
}
