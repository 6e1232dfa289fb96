package inbound

import (
	"strconv"

	"github.com/samber/lo"
	"github.com/shandysiswandi/steamguard/internal/authenticator/entity"
	"github.com/shandysiswandi/steamguard/internal/authenticator/usecase"
	"github.com/shandysiswandi/steamguard/internal/pkg/goerror"
	"github.com/shandysiswandi/steamguard/internal/pkg/router"
)

// HTTPEndpoint exposes linking, code, confirmation and account handlers.
type HTTPEndpoint struct {
	uc uc
}

func accountID(r *router.Request) (uint64, error) {
	return r.GetParamUint64("account_id")
}

func toLinkResponse(out *usecase.LinkOutput) LinkResponse {
	return LinkResponse{
		AccountID:         out.AccountID,
		State:             out.State.String(),
		Result:            out.Result.String(),
		DeviceID:          out.DeviceID,
		ConfirmationEmail: out.ConfirmationEmail,
		RevocationCode:    out.RevocationCode,
	}
}

// StartLink opens a linking attempt for the session handed in by the caller.
func (h *HTTPEndpoint) StartLink(r *router.Request) (any, error) {
	var req StartLinkRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.StartLink(r.Context(), usecase.StartLinkInput{
		AccountID:        uint64(req.AccountID),
		AccessToken:      req.AccessToken,
		RefreshToken:     req.RefreshToken,
		PhoneNumber:      req.PhoneNumber,
		PhoneCountryCode: req.PhoneCountryCode,
	})
	if err != nil {
		return nil, err
	}

	return StartLinkResponse{LinkResponse: toLinkResponse(resp)}, nil
}

// AddAuthenticator runs one AddAuthenticator step. Repeat it after confirming the email.
func (h *HTTPEndpoint) AddAuthenticator(r *router.Request) (any, error) {
	id, err := accountID(r)
	if err != nil {
		return nil, err
	}

	var req AddAuthenticatorRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.AddAuthenticator(r.Context(), usecase.AddAuthenticatorInput{
		AccountID:        id,
		PhoneNumber:      req.PhoneNumber,
		PhoneCountryCode: req.PhoneCountryCode,
	})
	if err != nil {
		return nil, err
	}

	return toLinkResponse(resp), nil
}

func (h *HTTPEndpoint) FinalizeAddAuthenticator(r *router.Request) (any, error) {
	id, err := accountID(r)
	if err != nil {
		return nil, err
	}

	var req FinalizeRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.FinalizeAddAuthenticator(r.Context(), usecase.FinalizeInput{
		AccountID:      id,
		ActivationCode: req.ActivationCode,
	})
	if err != nil {
		return nil, err
	}

	return FinalizeResponse{
		AccountID:      resp.AccountID,
		Result:         resp.Result.String(),
		State:          resp.State.String(),
		SerialNumber:   resp.SerialNumber,
		RevocationCode: resp.RevocationCode,
	}, nil
}

func (h *HTTPEndpoint) LinkStatus(r *router.Request) (any, error) {
	id, err := accountID(r)
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.LinkStatus(r.Context(), usecase.LinkStatusInput{AccountID: id})
	if err != nil {
		return nil, err
	}

	return toLinkResponse(resp), nil
}

func (h *HTTPEndpoint) ListAccounts(r *router.Request) (any, error) {
	resp, err := h.uc.ListAccounts(r.Context())
	if err != nil {
		return nil, err
	}

	return ListAccountsResponse(lo.Map(resp.Accounts, func(a entity.AccountSummary, _ int) AccountResponse {
		return AccountResponse{
			AccountID:     a.AccountID,
			AccountName:   a.AccountName,
			SerialNumber:  a.SerialNumber,
			DeviceID:      a.DeviceID,
			FullyEnrolled: a.FullyEnrolled,
			CreatedAt:     a.CreatedAt,
		}
	})), nil
}

// ImportAuthenticator stores an account file produced elsewhere.
func (h *HTTPEndpoint) ImportAuthenticator(r *router.Request) (any, error) {
	var req ImportRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.ImportAuthenticator(r.Context(), usecase.ImportAuthenticatorInput{
		MaFile:       req.MaFile,
		AccountID:    uint64(req.AccountID),
		AccessToken:  req.AccessToken,
		RefreshToken: req.RefreshToken,
	})
	if err != nil {
		return nil, err
	}

	return ImportResponse{AccountID: resp.AccountID, AccountName: resp.AccountName}, nil
}

func (h *HTTPEndpoint) GenerateCode(r *router.Request) (any, error) {
	id, err := accountID(r)
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.GenerateCode(r.Context(), usecase.GenerateCodeInput{AccountID: id})
	if err != nil {
		return nil, err
	}

	return CodeResponse{
		Code:            resp.Code,
		ServerTime:      resp.ServerTime,
		ValidForSeconds: int64(resp.ValidFor.Seconds()),
	}, nil
}

// RemoveAuthenticator deactivates the authenticator. ?scheme=2 removes Steam Guard
// entirely, the default 1 falls back to email codes.
func (h *HTTPEndpoint) RemoveAuthenticator(r *router.Request) (any, error) {
	id, err := accountID(r)
	if err != nil {
		return nil, err
	}

	scheme := 1
	if raw := r.GetQuery("scheme"); raw != "" {
		if scheme, err = strconv.Atoi(raw); err != nil {
			return nil, goerror.NewInvalidFormat("Invalid query scheme")
		}
	}

	if err := h.uc.RemoveAuthenticator(r.Context(), usecase.RemoveAuthenticatorInput{
		AccountID: id,
		Scheme:    scheme,
	}); err != nil {
		return nil, err
	}

	return RemoveResponse{}, nil
}

func (h *HTTPEndpoint) RefreshSession(r *router.Request) (any, error) {
	id, err := accountID(r)
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.RefreshSession(r.Context(), usecase.RefreshSessionInput{AccountID: id})
	if err != nil {
		return nil, err
	}

	return RefreshSessionResponse{AccountID: resp.AccountID, ExpiresAt: resp.ExpiresAt}, nil
}

func (h *HTTPEndpoint) Backup(r *router.Request) (any, error) {
	id, err := accountID(r)
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.Backup(r.Context(), usecase.BackupInput{AccountID: id})
	if err != nil {
		return nil, err
	}

	return BackupResponse{AccountID: resp.AccountID, Object: resp.Object}, nil
}

func (h *HTTPEndpoint) Restore(r *router.Request) (any, error) {
	id, err := accountID(r)
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.Restore(r.Context(), usecase.RestoreInput{AccountID: id})
	if err != nil {
		return nil, err
	}

	return ImportResponse{AccountID: resp.AccountID, AccountName: resp.AccountName}, nil
}

func (h *HTTPEndpoint) ListConfirmations(r *router.Request) (any, error) {
	id, err := accountID(r)
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.ListConfirmations(r.Context(), usecase.ListConfirmationsInput{AccountID: id})
	if err != nil {
		return nil, err
	}

	return ListConfirmationsResponse(lo.Map(resp.Confirmations, func(c entity.Confirmation, _ int) ConfirmationResponse {
		return ConfirmationResponse{
			ID:        c.ID,
			CreatorID: c.CreatorID,
			Type:      c.Type.String(),
			TypeName:  c.TypeName,
			Headline:  c.Headline,
			Summary:   c.Summary,
			Accept:    c.Accept,
			Cancel:    c.Cancel,
			Icon:      c.Icon,
			CreatedAt: c.CreatedAt,
		}
	})), nil
}

// DecideConfirmations accepts or rejects confirmations from the last listing.
func (h *HTTPEndpoint) DecideConfirmations(r *router.Request) (any, error) {
	id, err := accountID(r)
	if err != nil {
		return nil, err
	}

	var req DecideRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.DecideConfirmations(r.Context(), usecase.DecideConfirmationsInput{
		AccountID:       id,
		ConfirmationIDs: lo.Map(req.ConfirmationIDs, func(v entity.FlexUint64, _ int) uint64 { return uint64(v) }),
		Approve:         req.Approve,
	})
	if err != nil {
		return nil, err
	}

	return DecideResponse{
		Success: resp.Success,
		ConfirmationIDs: lo.Map(resp.ConfirmationIDs, func(v uint64, _ int) string {
			return strconv.FormatUint(v, 10)
		}),
	}, nil
}

func (h *HTTPEndpoint) ServerTime(r *router.Request) (any, error) {
	resp, err := h.uc.ServerTime(r.Context())
	if err != nil {
		return nil, err
	}

	return toServerTimeResponse(resp), nil
}

// AlignTime forces a new offset measurement.
func (h *HTTPEndpoint) AlignTime(r *router.Request) (any, error) {
	resp, err := h.uc.AlignTime(r.Context())
	if err != nil {
		return nil, err
	}

	return toServerTimeResponse(resp), nil
}

func toServerTimeResponse(out *usecase.ServerTimeOutput) ServerTimeResponse {
	return ServerTimeResponse{
		ServerTime:    out.ServerTime,
		LocalTime:     out.LocalTime,
		OffsetSeconds: int64(out.Offset.Seconds()),
		Aligned:       out.Aligned,
	}
}
