package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/steamguard/internal/authenticator/entity"
	"github.com/shandysiswandi/steamguard/internal/pkg/goerror"
)

type AddAuthenticatorInput struct {
	AccountID        uint64 `validate:"required,steamid"`
	PhoneNumber      string `validate:"omitempty,e164"`
	PhoneCountryCode string `validate:"omitempty,alpha2"`
}

// AddAuthenticator runs one step of the linking flow. It is safe to call
// repeatedly while the caller waits for the phone or email to be confirmed.
func (s *Usecase) AddAuthenticator(ctx context.Context, in AddAuthenticatorInput) (*LinkOutput, error) {
	ctx, span := s.startSpan(ctx, "AddAuthenticator")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	unlock, err := s.lockLink(ctx, in.AccountID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	attempt, err := s.getLinkAttempt(ctx, in.AccountID)
	if err != nil {
		return nil, err
	}

	if attempt.State.Terminal() {
		slog.WarnContext(ctx, "link attempt already finished", "account_id", in.AccountID, "state", attempt.State.String())
		return nil, goerror.NewBusiness("linking attempt is finished, start a new one", goerror.CodeConflict)
	}

	if attempt.State == entity.LinkStateAwaitingFinalizationCode {
		return linkOutput(attempt, entity.LinkResultAwaitingFinalization), nil
	}

	if v := strings.TrimSpace(in.PhoneNumber); v != "" {
		attempt.PhoneNumber = v
	}
	if v := strings.TrimSpace(in.PhoneCountryCode); v != "" {
		attempt.PhoneCountryCode = strings.ToUpper(v)
	}

	if attempt.State == entity.LinkStateAwaitingEmailConfirmation {
		pending, err := s.emailStillPending(ctx, attempt)
		if err != nil {
			return nil, err
		}
		if pending {
			return s.applyLinkEvent(ctx, attempt, entity.LinkEventEmailPending)
		}
	}

	ev, err := s.requestAuthenticator(ctx, attempt)
	if err != nil {
		return nil, err
	}

	return s.applyLinkEvent(ctx, attempt, ev)
}

// emailStillPending checks the phone confirmation email. Once it is clicked,
// the SMS code is requested and the remote is given time to send it.
func (s *Usecase) emailStillPending(ctx context.Context, attempt *entity.LinkAttempt) (bool, error) {
	st, err := s.steam.IsAccountWaitingForEmailConfirmation(ctx, attempt.Session)
	if err != nil {
		slog.ErrorContext(ctx, "failed to check email confirmation", "account_id", attempt.AccountID, "error", err)
		return false, goerror.NewServer(err)
	}
	if st.AwaitingEmailConfirmation {
		return true, nil
	}

	if err := s.steam.SendPhoneVerificationCode(ctx, attempt.Session); err != nil {
		slog.ErrorContext(ctx, "failed to send phone verification code", "account_id", attempt.AccountID, "error", err)
		return false, goerror.NewServer(err)
	}

	if err := s.sleep(ctx, s.cfg.GetDuration("modules.authenticator.link_settle_delay")); err != nil {
		return false, goerror.NewServer(err)
	}

	return false, nil
}

// requestAuthenticator issues the remote add call and turns the answer into an event.
func (s *Usecase) requestAuthenticator(ctx context.Context, attempt *entity.LinkAttempt) (entity.LinkEvent, error) {
	res, err := s.steam.AddAuthenticator(ctx, attempt.Session, AddAuthenticatorRequest{
		AuthenticatorTime: s.timeSync.Unix(ctx),
		DeviceID:          attempt.DeviceID,
	})
	if errors.Is(err, entity.ErrEmptyResponse) {
		slog.WarnContext(ctx, "add authenticator returned no response", "account_id", attempt.AccountID)
		return entity.LinkEventRejected, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to add authenticator", "account_id", attempt.AccountID, "error", err)
		return 0, goerror.NewServer(err)
	}

	switch res.Status {
	case StatusNoPhone:
		if attempt.PhoneNumber == "" {
			return entity.LinkEventPhoneRequired, nil
		}
		return s.attachPhone(ctx, attempt)

	case StatusAlreadyPresent:
		return entity.LinkEventAlreadyPresent, nil

	case StatusOK:
		if res.Authenticator == nil {
			return entity.LinkEventRejected, nil
		}
		issued := *res.Authenticator
		issued.AccountID = attempt.AccountID
		issued.DeviceID = attempt.DeviceID
		issued.Session = attempt.Session
		attempt.Authenticator = &issued
		return entity.LinkEventIssued, nil

	default:
		slog.WarnContext(ctx, "add authenticator rejected", "account_id", attempt.AccountID, "status", res.Status)
		return entity.LinkEventRejected, nil
	}
}

func (s *Usecase) attachPhone(ctx context.Context, attempt *entity.LinkAttempt) (entity.LinkEvent, error) {
	country := attempt.PhoneCountryCode
	if country == "" {
		c, err := s.steam.GetUserCountry(ctx, attempt.Session)
		if err != nil {
			slog.ErrorContext(ctx, "failed to get user country", "account_id", attempt.AccountID, "error", err)
			return 0, goerror.NewServer(err)
		}
		country = c
	}

	res, err := s.steam.SetAccountPhoneNumber(ctx, attempt.Session, attempt.PhoneNumber, country)
	if errors.Is(err, entity.ErrEmptyResponse) {
		return entity.LinkEventPhoneRejected, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to set account phone number", "account_id", attempt.AccountID, "error", err)
		return 0, goerror.NewServer(err)
	}
	if res.ConfirmationEmailAddress == nil {
		slog.WarnContext(ctx, "phone number not accepted", "account_id", attempt.AccountID)
		return entity.LinkEventPhoneRejected, nil
	}

	attempt.PhoneCountryCode = country
	attempt.ConfirmationEmail = *res.ConfirmationEmailAddress

	return entity.LinkEventPhoneAdded, nil
}

func (s *Usecase) applyLinkEvent(ctx context.Context, attempt *entity.LinkAttempt, ev entity.LinkEvent) (*LinkOutput, error) {
	res, err := attempt.Apply(ev, s.clock.Now())
	if err != nil {
		slog.ErrorContext(ctx, "failed to apply link event", "account_id", attempt.AccountID,
			"state", attempt.State.String(), "event", int(ev), "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.saveLinkAttempt(ctx, attempt); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "link step done", "account_id", attempt.AccountID,
		"state", attempt.State.String(), "result", res.String())

	return linkOutput(attempt, res), nil
}
