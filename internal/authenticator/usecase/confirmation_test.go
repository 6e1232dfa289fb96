package usecase

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/shandysiswandi/steamguard/internal/authenticator/entity"
	"github.com/shandysiswandi/steamguard/internal/pkg/goerror"
	"github.com/shandysiswandi/steamguard/internal/pkg/idempotency"
)

func pendingConfirmations() []entity.Confirmation {
	return []entity.Confirmation{
		{ID: 101, Key: 9001, Type: entity.ConfirmationTypeTrade, Headline: "trade with Alice"},
		{ID: 102, Key: 9002, Type: entity.ConfirmationTypeMarketListing, Headline: "sell a hat"},
		{ID: 103, Key: 9003, Type: entity.ConfirmationTypeTrade, Headline: "trade with Bob"},
	}
}

func TestListConfirmations(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.db.auths[testAccountID] = storedAuthenticator(t)
		f.steam.list = &ConfirmationList{Success: true, Confirmations: pendingConfirmations()}

		// Act
		out, err := f.uc.ListConfirmations(context.Background(), ListConfirmationsInput{AccountID: testAccountID})

		// Assert
		if err != nil {
			t.Fatalf("ListConfirmations() error = %v", err)
		}
		if len(out.Confirmations) != 3 {
			t.Fatalf("expected 3 confirmations, got %d", len(out.Confirmations))
		}
		q := f.steam.listQueries[0]
		if q.Tag != entity.TagList || q.Time != testNow.Unix() || q.DeviceID != "android:"+testUUID || q.AccountID != testAccountID {
			t.Fatalf("unexpected query: %+v", q)
		}
		if q.Signature != url.QueryEscape("1fkoViMVNOGPuU/nF7OWK1BP9aY=") {
			t.Fatalf("unexpected signature %q", q.Signature)
		}
		if f.cache.listings[testAccountID][102] != 9002 {
			t.Fatalf("expected the listing keys to be cached, got %v", f.cache.listings[testAccountID])
		}
	})

	t.Run("EmptyListIsNotAnError", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.db.auths[testAccountID] = storedAuthenticator(t)
		f.steam.list = &ConfirmationList{Success: true}

		// Act
		out, err := f.uc.ListConfirmations(context.Background(), ListConfirmationsInput{AccountID: testAccountID})

		// Assert
		if err != nil || len(out.Confirmations) != 0 {
			t.Fatalf("expected an empty listing, got %v, %v", out, err)
		}
	})

	tests := []struct {
		name string
		list *ConfirmationList
		err  error
		want goerror.Code
	}{
		{name: "NeedAuth", list: &ConfirmationList{NeedAuth: true, Success: false}, want: goerror.CodeUnauthorized},
		{name: "NotSuccess", list: &ConfirmationList{Success: false, Message: "try later"}, want: goerror.CodeUpstream},
		{name: "EmptyBody", err: entity.ErrEmptyResponse, want: goerror.CodeUpstream},
		{name: "Transport", err: errors.New("connection reset"), want: goerror.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			f := newFixture(t)
			f.db.auths[testAccountID] = storedAuthenticator(t)
			f.steam.list = tt.list
			f.steam.listErr = tt.err

			// Act
			_, err := f.uc.ListConfirmations(context.Background(), ListConfirmationsInput{AccountID: testAccountID})

			// Assert
			assertCode(t, err, tt.want)
			if _, ok := f.cache.listings[testAccountID]; ok {
				t.Fatalf("expected nothing cached")
			}
		})
	}
}

func TestListConfirmations_MissingDeviceID(t *testing.T) {
	// Arrange
	f := newFixture(t)
	a := storedAuthenticator(t)
	a.DeviceID = ""
	f.db.auths[testAccountID] = a

	// Act
	_, err := f.uc.ListConfirmations(context.Background(), ListConfirmationsInput{AccountID: testAccountID})

	// Assert
	assertCode(t, err, goerror.CodeInvalidInput)
	if len(f.steam.listQueries) != 0 {
		t.Fatalf("expected no remote call")
	}
}

func TestListConfirmations_RefreshesExpiredAccessToken(t *testing.T) {
	// Arrange
	f := newFixture(t)
	a := storedAuthenticator(t)
	a.Session.AccessToken = signToken(t, testAccountID, testNow.Add(30*time.Second))
	f.db.auths[testAccountID] = a
	f.steam.accessToken = signToken(t, testAccountID, testNow.Add(time.Hour))
	f.steam.list = &ConfirmationList{Success: true}

	// Act
	_, err := f.uc.ListConfirmations(context.Background(), ListConfirmationsInput{AccountID: testAccountID})

	// Assert
	if err != nil {
		t.Fatalf("ListConfirmations() error = %v", err)
	}
	if f.steam.refreshCalls != 1 || len(f.db.sessions) != 1 || f.db.sessions[0].AccessToken != f.steam.accessToken {
		t.Fatalf("expected one refresh persisted, got %d calls and %d updates", f.steam.refreshCalls, len(f.db.sessions))
	}
}

// listed prepares a stored authenticator with a cached listing.
func listed(t *testing.T) *fixture {
	t.Helper()

	f := newFixture(t)
	f.db.auths[testAccountID] = storedAuthenticator(t)
	f.steam.list = &ConfirmationList{Success: true, Confirmations: pendingConfirmations()}
	if _, err := f.uc.ListConfirmations(context.Background(), ListConfirmationsInput{AccountID: testAccountID}); err != nil {
		t.Fatalf("ListConfirmations() error = %v", err)
	}
	return f
}

func TestDecideConfirmations_Batch(t *testing.T) {
	// Arrange
	f := listed(t)
	ids := []uint64{103, 101, 102}

	// Act
	out, err := f.uc.DecideConfirmations(context.Background(), DecideConfirmationsInput{
		AccountID:       testAccountID,
		ConfirmationIDs: ids,
		Approve:         true,
	})
	f.drain(t)

	// Assert
	if err != nil {
		t.Fatalf("DecideConfirmations() error = %v", err)
	}
	if !out.Success {
		t.Fatalf("expected success")
	}
	if len(f.steam.singleRefs) != 0 || len(f.steam.batchRefs) != 1 {
		t.Fatalf("expected one batch call, got %d single and %d batch", len(f.steam.singleRefs), len(f.steam.batchRefs))
	}
	want := []ConfirmationRef{{ID: 103, Key: 9003}, {ID: 101, Key: 9001}, {ID: 102, Key: 9002}}
	got := f.steam.batchRefs[0]
	if len(got) != len(want) {
		t.Fatalf("expected %d pairs, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("pair %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
	q := f.steam.decisionQuery[0]
	if f.steam.decisionOps[0] != entity.ConfirmationOpAllow || q.Tag != entity.TagAccept ||
		q.Signature != url.QueryEscape("bsl3lgSrfCVfaObw6j7BdsbbvO0=") {
		t.Fatalf("unexpected op/tag/signature: %s %s %s", f.steam.decisionOps[0], q.Tag, q.Signature)
	}
	for _, ref := range want {
		if st, _ := f.idemp.state(decisionKey(testAccountID, ref)); st != idempotency.StateCompleted {
			t.Fatalf("expected %d to be marked completed, got %q", ref.ID, st)
		}
	}
	if len(f.mq.decided) != 1 || !f.mq.decided[0].Success || len(f.mq.decided[0].ConfirmationIDs) != 3 {
		t.Fatalf("expected a decided event, got %+v", f.mq.decided)
	}
}

func TestDecideConfirmations_SingleReject(t *testing.T) {
	// Arrange
	f := listed(t)

	// Act
	out, err := f.uc.DecideConfirmations(context.Background(), DecideConfirmationsInput{
		AccountID:       testAccountID,
		ConfirmationIDs: []uint64{102},
		Approve:         false,
	})

	// Assert
	if err != nil || !out.Success {
		t.Fatalf("DecideConfirmations() = %v, %v", out, err)
	}
	if len(f.steam.singleRefs) != 1 || f.steam.singleRefs[0] != (ConfirmationRef{ID: 102, Key: 9002}) {
		t.Fatalf("expected one single call, got %+v", f.steam.singleRefs)
	}
	q := f.steam.decisionQuery[0]
	if f.steam.decisionOps[0] != entity.ConfirmationOpCancel || q.Tag != entity.TagReject ||
		q.Signature != url.QueryEscape("3SRk7etDz8OaO+vI9JCs+GQCvco=") {
		t.Fatalf("unexpected op/tag/signature: %s %s %s", f.steam.decisionOps[0], q.Tag, q.Signature)
	}
}

func TestDecideConfirmations_KeyIsSingleUse(t *testing.T) {
	// Arrange
	f := listed(t)
	in := DecideConfirmationsInput{AccountID: testAccountID, ConfirmationIDs: []uint64{101}, Approve: true}
	if _, err := f.uc.DecideConfirmations(context.Background(), in); err != nil {
		t.Fatalf("first decision error = %v", err)
	}

	// a stale client still holding the old listing
	f.cache.listings[testAccountID] = map[uint64]uint64{101: 9001}

	// Act
	_, err := f.uc.DecideConfirmations(context.Background(), in)

	// Assert
	assertCode(t, err, goerror.CodeConflict)
	if len(f.steam.singleRefs) != 1 {
		t.Fatalf("expected the key to be sent once, got %d", len(f.steam.singleRefs))
	}
}

func TestDecideConfirmations_ReleasedOnFailure(t *testing.T) {
	tests := []struct {
		name    string
		ok      bool
		err     error
		wantErr bool
	}{
		{name: "RemoteSaysNo", ok: false},
		{name: "Transport", err: errors.New("timeout"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			f := listed(t)
			f.steam.sendOK = tt.ok
			f.steam.sendErr = tt.err

			// Act
			out, err := f.uc.DecideConfirmations(context.Background(), DecideConfirmationsInput{
				AccountID:       testAccountID,
				ConfirmationIDs: []uint64{101, 102},
				Approve:         true,
			})

			// Assert
			if tt.wantErr {
				assertCode(t, err, goerror.CodeInternal)
			} else if err != nil || out.Success {
				t.Fatalf("expected an unsuccessful result, got %v, %v", out, err)
			}
			for _, ref := range []ConfirmationRef{{ID: 101, Key: 9001}, {ID: 102, Key: 9002}} {
				if _, ok := f.idemp.state(decisionKey(testAccountID, ref)); ok {
					t.Fatalf("expected the key of %d to be released", ref.ID)
				}
			}
			if len(f.cache.listings[testAccountID]) != 3 {
				t.Fatalf("expected the listing to be kept")
			}
		})
	}
}

func TestDecideConfirmations_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		ids    []uint64
		noList bool
		inUse  bool
		want   goerror.Code
	}{
		{name: "UnknownID", ids: []uint64{101, 999}, want: goerror.CodeNotFound},
		{name: "ListingExpired", ids: []uint64{101}, noList: true, want: goerror.CodeNotFound},
		{name: "DuplicateIDs", ids: []uint64{101, 101}, want: goerror.CodeInvalidInput},
		{name: "Empty", ids: nil, want: goerror.CodeInvalidInput},
		{name: "InProgress", ids: []uint64{101, 102}, inUse: true, want: goerror.CodeTooManyRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			f := listed(t)
			if tt.noList {
				delete(f.cache.listings, testAccountID)
			}
			if tt.inUse {
				f.idemp.states[decisionKey(testAccountID, ConfirmationRef{ID: 102, Key: 9002})] = idempotency.StateInProgress
			}

			// Act
			_, err := f.uc.DecideConfirmations(context.Background(), DecideConfirmationsInput{
				AccountID:       testAccountID,
				ConfirmationIDs: tt.ids,
				Approve:         true,
			})

			// Assert
			assertCode(t, err, tt.want)
			if len(f.steam.singleRefs)+len(f.steam.batchRefs) != 0 {
				t.Fatalf("expected no remote decision")
			}
			if _, ok := f.idemp.state(decisionKey(testAccountID, ConfirmationRef{ID: 101, Key: 9001})); ok {
				t.Fatalf("expected no key left claimed")
			}
		})
	}
}
