package steamapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/shandysiswandi/steamguard/internal/authenticator/entity"
	"github.com/shandysiswandi/steamguard/internal/authenticator/usecase"
	"github.com/shandysiswandi/steamguard/internal/pkg/instrument"
	"github.com/shandysiswandi/steamguard/internal/pkg/webclient"
)

const (
	testAccountID uint64 = 76561198000000001
	testSignature        = "bsl3lgSrfCVfaObw6j7BdsbbvO0="
)

var testSession = entity.Session{
	AccountID:    testAccountID,
	AccessToken:  "access.token.value",
	RefreshToken: "refresh.token.value",
	SessionID:    "0123456789abcdef0123456789abcdef",
}

// newTestClient points both base urls at one handler.
func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	return NewClient(webclient.New(webclient.Config{}), Config{
		APIBaseURL:       srv.URL,
		CommunityBaseURL: srv.URL + "/",
	}, instrument.NewNoop())
}

func testQuery(tag string) usecase.ConfirmationQuery {
	return usecase.ConfirmationQuery{
		DeviceID:  "android:0190c1a2-7b3c-7d4e-8f00-112233445566",
		AccountID: testAccountID,
		Signature: url.QueryEscape(testSignature),
		Time:      1_700_000_000,
		Tag:       tag,
	}
}

func assertSignedQuery(t *testing.T, got url.Values, tag string) {
	t.Helper()

	want := map[string]string{
		"p":   "android:0190c1a2-7b3c-7d4e-8f00-112233445566",
		"a":   "76561198000000001",
		"k":   testSignature,
		"t":   "1700000000",
		"m":   "react",
		"tag": tag,
	}
	for key, v := range want {
		if got.Get(key) != v {
			t.Fatalf("param %s: expected %q, got %q", key, v, got.Get(key))
		}
	}
}

func TestServerTime(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    int64
		wantErr error
	}{
		{name: "StringTime", body: `{"response":{"server_time":"1700000042","skew_tolerance_seconds":"60"}}`, want: 1_700_000_042},
		{name: "NumberTime", body: `{"response":{"server_time":1700000042}}`, want: 1_700_000_042},
		{name: "NoResponse", body: `{}`, wantErr: entity.ErrEmptyResponse},
		{name: "Blank", body: ``, wantErr: entity.ErrEmptyResponse},
		{name: "HTML", body: `<html>busy</html>`, wantErr: entity.ErrEmptyResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost || r.URL.Path != "/ITwoFactorService/QueryTime/v0001" || r.URL.Query().Get("steamid") != "0" {
					t.Errorf("unexpected request %s %s", r.Method, r.URL)
				}
				_, _ = io.WriteString(w, tt.body)
			})

			// Act
			got, err := c.ServerTime(context.Background())

			// Assert
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if got != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestAddAuthenticator(t *testing.T) {
	// Arrange
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ITwoFactorService/AddAuthenticator/v1/" || r.URL.Query().Get("access_token") != testSession.AccessToken {
			t.Errorf("unexpected request %s", r.URL)
		}
		if r.UserAgent() != webclient.DefaultUserAgent {
			t.Errorf("unexpected user agent %q", r.UserAgent())
		}
		_ = r.ParseForm()
		want := map[string]string{
			"steamid":            "76561198000000001",
			"authenticator_time": "1700000000",
			"authenticator_type": "1",
			"device_identifier":  "android:abc",
			"sms_phone_id":       "1",
		}
		for key, v := range want {
			if r.PostForm.Get(key) != v {
				t.Errorf("form %s: expected %q, got %q", key, v, r.PostForm.Get(key))
			}
		}
		_, _ = io.WriteString(w, `{"response":{"shared_secret":"c2hhcmVk","serial_number":"123","revocation_code":"R12345",
			"uri":"otpauth://totp/Steam:gaben?secret=X&issuer=Steam","server_time":"1700000000","account_name":"gaben",
			"token_gid":"abc","identity_secret":"aWRlbnQ=","secret_1":"c2VjcmV0","status":1}}`)
	})

	// Act
	res, err := c.AddAuthenticator(context.Background(), testSession, usecase.AddAuthenticatorRequest{
		AuthenticatorTime: 1_700_000_000,
		DeviceID:          "android:abc",
	})

	// Assert
	if err != nil {
		t.Fatalf("AddAuthenticator() error = %v", err)
	}
	if res.Status != usecase.StatusOK || res.Authenticator == nil {
		t.Fatalf("expected issued secrets, got %+v", res)
	}
	a := res.Authenticator
	if a.SharedSecret != "c2hhcmVk" || a.IdentitySecret != "aWRlbnQ=" || a.RevocationCode != "R12345" || a.ServerTime != 1_700_000_000 {
		t.Fatalf("unexpected authenticator: %+v", a)
	}
}

func TestAddAuthenticator_StatusOnly(t *testing.T) {
	// Arrange
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"response":{"status":2}}`)
	})

	// Act
	res, err := c.AddAuthenticator(context.Background(), testSession, usecase.AddAuthenticatorRequest{DeviceID: "android:abc"})

	// Assert
	if err != nil {
		t.Fatalf("AddAuthenticator() error = %v", err)
	}
	if res.Status != usecase.StatusNoPhone || res.Authenticator != nil {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestFinalizeAddAuthenticator(t *testing.T) {
	// Arrange
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.PostForm.Get("authenticator_code") != "R87JJ" || r.PostForm.Get("activation_code") != "K4B7Q" ||
			r.PostForm.Get("validate_sms_code") != "1" {
			t.Errorf("unexpected form %v", r.PostForm)
		}
		_, _ = io.WriteString(w, `{"response":{"status":89,"server_time":"1700000000","want_more":false,"success":false}}`)
	})

	// Act
	res, err := c.FinalizeAddAuthenticator(context.Background(), testSession, usecase.FinalizeAuthenticatorRequest{
		AuthenticatorCode: "R87JJ",
		AuthenticatorTime: 1_700_000_000,
		ActivationCode:    "K4B7Q",
	})

	// Assert
	if err != nil {
		t.Fatalf("FinalizeAddAuthenticator() error = %v", err)
	}
	if !res.StatusIs(usecase.StatusBadActivationCode) || res.Success || res.ServerTime != 1_700_000_000 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestRemoveAuthenticator(t *testing.T) {
	// Arrange
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.PostForm.Get("revocation_code") != "R12345" || r.PostForm.Get("revocation_reason") != "1" ||
			r.PostForm.Get("steamguard_scheme") != "2" {
			t.Errorf("unexpected form %v", r.PostForm)
		}
		_, _ = io.WriteString(w, `{"response":{"success":false,"revocation_attempts_remaining":4}}`)
	})

	// Act
	res, err := c.RemoveAuthenticator(context.Background(), testSession, usecase.RemoveAuthenticatorRequest{
		RevocationCode: "R12345",
		Scheme:         2,
	})

	// Assert
	if err != nil {
		t.Fatalf("RemoveAuthenticator() error = %v", err)
	}
	if res.Success || res.RevocationAttemptsRemaining == nil || *res.RevocationAttemptsRemaining != 4 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestPhoneCalls(t *testing.T) {
	// Arrange
	var calls []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.URL.Path)
		_ = r.ParseForm()
		switch r.URL.Path {
		case "/IUserAccountService/GetUserCountry/v1":
			_, _ = io.WriteString(w, `{"response":{"country":"US"}}`)
		case "/IPhoneService/SetAccountPhoneNumber/v1":
			if r.PostForm.Get("phone_number") != "+14255550100" || r.PostForm.Get("phone_country_code") != "US" {
				t.Errorf("unexpected form %v", r.PostForm)
			}
			_, _ = io.WriteString(w, `{"response":{"confirmation_email_address":"g***@valvesoftware.com","phone_number_formatted":"+1 425-555-0100"}}`)
		case "/IPhoneService/IsAccountWaitingForEmailConfirmation/v1":
			_, _ = io.WriteString(w, `{"response":{"awaiting_email_confirmation":true,"seconds_to_wait":10}}`)
		case "/IPhoneService/SendPhoneVerificationCode/v1":
			_, _ = io.WriteString(w, `{"response":{}}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})
	ctx := context.Background()

	// Act
	country, err := c.GetUserCountry(ctx, testSession)
	if err != nil {
		t.Fatalf("GetUserCountry() error = %v", err)
	}
	phone, err := c.SetAccountPhoneNumber(ctx, testSession, "+14255550100", country)
	if err != nil {
		t.Fatalf("SetAccountPhoneNumber() error = %v", err)
	}
	email, err := c.IsAccountWaitingForEmailConfirmation(ctx, testSession)
	if err != nil {
		t.Fatalf("IsAccountWaitingForEmailConfirmation() error = %v", err)
	}
	err = c.SendPhoneVerificationCode(ctx, testSession)

	// Assert
	if err != nil {
		t.Fatalf("SendPhoneVerificationCode() error = %v", err)
	}
	if country != "US" || phone.ConfirmationEmailAddress == nil || *phone.ConfirmationEmailAddress != "g***@valvesoftware.com" {
		t.Fatalf("unexpected phone result: %q %+v", country, phone)
	}
	if !email.AwaitingEmailConfirmation || email.SecondsToWait != 10 {
		t.Fatalf("unexpected email status: %+v", email)
	}
	if len(calls) != 4 {
		t.Fatalf("expected 4 calls, got %v", calls)
	}
}

func TestGenerateAccessTokenForApp(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr error
	}{
		{name: "Success", body: `{"response":{"access_token":"new.access.token"}}`, want: "new.access.token"},
		{name: "NoToken", body: `{"response":{}}`, wantErr: entity.ErrEmptyResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_ = r.ParseForm()
				if r.URL.Path != "/IAuthenticationService/GenerateAccessTokenForApp/v1/" ||
					r.PostForm.Get("refresh_token") != testSession.RefreshToken || r.PostForm.Get("steamid") != "76561198000000001" {
					t.Errorf("unexpected request %s %v", r.URL, r.PostForm)
				}
				_, _ = io.WriteString(w, tt.body)
			})

			// Act
			got, err := c.GenerateAccessTokenForApp(context.Background(), testSession)

			// Assert
			if !errors.Is(err, tt.wantErr) || got != tt.want {
				t.Fatalf("expected %q/%v, got %q/%v", tt.want, tt.wantErr, got, err)
			}
		})
	}
}

func TestGetConfirmations(t *testing.T) {
	// Arrange
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/mobileconf/getlist" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		assertSignedQuery(t, r.URL.Query(), "conf")
		cookie := r.Header.Get("Cookie")
		for _, want := range []string{
			"steamLoginSecure=76561198000000001%7C%7Caccess.token.value",
			"sessionid=0123456789abcdef0123456789abcdef",
			"mobileClient=android",
			"mobileClientVersion=777777 3.6.4",
		} {
			if !strings.Contains(cookie, want) {
				t.Errorf("cookie header %q misses %q", cookie, want)
			}
		}
		_, _ = io.WriteString(w, `{"success":true,"conf":[
			{"type":2,"type_name":"Trade Offer","id":"13000000001","creator_id":"4000000001","nonce":"98765432101",
			 "creation_time":1700000000,"cancel":"Cancel","accept":"Send Offer","icon":"https://a/b.jpg","multi":false,
			 "headline":"Alice","summary":["You will give up 1 item","You will receive 2 items"],"warn":null},
			{"type":"3","id":"13000000002","nonce":"98765432102","headline":"sell a hat","summary":[]}
		]}`)
	})

	// Act
	list, err := c.GetConfirmations(context.Background(), testSession, testQuery("conf"))

	// Assert
	if err != nil {
		t.Fatalf("GetConfirmations() error = %v", err)
	}
	if !list.Success || len(list.Confirmations) != 2 {
		t.Fatalf("unexpected listing: %+v", list)
	}
	first := list.Confirmations[0]
	if first.ID != 13000000001 || first.Key != 98765432101 || first.CreatorID != 4000000001 ||
		first.Type != entity.ConfirmationTypeTrade || len(first.Summary) != 2 || first.CreatedAt.Unix() != 1_700_000_000 {
		t.Fatalf("unexpected confirmation: %+v", first)
	}
	if list.Confirmations[1].Type != entity.ConfirmationTypeMarketListing {
		t.Fatalf("expected a market listing, got %s", list.Confirmations[1].Type)
	}
}

func TestGetConfirmations_NeedAuth(t *testing.T) {
	// Arrange
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"success":false,"needauth":true}`)
	})

	// Act
	list, err := c.GetConfirmations(context.Background(), testSession, testQuery("conf"))

	// Assert
	if err != nil {
		t.Fatalf("GetConfirmations() error = %v", err)
	}
	if !list.NeedAuth || list.Success || len(list.Confirmations) != 0 {
		t.Fatalf("unexpected listing: %+v", list)
	}
}

func TestSendConfirmation(t *testing.T) {
	// Arrange
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/mobileconf/ajaxop" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		q := r.URL.Query()
		assertSignedQuery(t, q, "accept")
		if q.Get("op") != "allow" || q.Get("cid") != "101" || q.Get("ck") != "9001" {
			t.Errorf("unexpected decision params %v", q)
		}
		_, _ = io.WriteString(w, `{"success":true}`)
	})

	// Act
	ok, err := c.SendConfirmation(context.Background(), testSession, testQuery("accept"), entity.ConfirmationOpAllow,
		usecase.ConfirmationRef{ID: 101, Key: 9001})

	// Assert
	if err != nil || !ok {
		t.Fatalf("SendConfirmation() = %v, %v", ok, err)
	}
}

func TestSendConfirmations_PairsInOrder(t *testing.T) {
	// Arrange
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/mobileconf/multiajaxop" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_ = r.ParseForm()
		assertSignedQuery(t, r.PostForm, "reject")
		if r.PostForm.Get("op") != "cancel" {
			t.Errorf("expected op cancel, got %q", r.PostForm.Get("op"))
		}
		cids := r.PostForm["cid[]"]
		cks := r.PostForm["ck[]"]
		if strings.Join(cids, ",") != "103,101,102" || strings.Join(cks, ",") != "9003,9001,9002" {
			t.Errorf("unexpected pairs cid=%v ck=%v", cids, cks)
		}
		_, _ = io.WriteString(w, `{"success":true}`)
	})
	refs := []usecase.ConfirmationRef{{ID: 103, Key: 9003}, {ID: 101, Key: 9001}, {ID: 102, Key: 9002}}

	// Act
	ok, err := c.SendConfirmations(context.Background(), testSession, testQuery("reject"), entity.ConfirmationOpCancel, refs)

	// Assert
	if err != nil || !ok {
		t.Fatalf("SendConfirmations() = %v, %v", ok, err)
	}
}

func TestSendConfirmations_RemoteFailure(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantOK  bool
		wantErr bool
	}{
		{name: "NotSuccess", status: http.StatusOK, body: `{"success":false}`},
		{name: "ServerError", status: http.StatusInternalServerError, body: `oops`, wantErr: true},
		{name: "Blank", status: http.StatusOK, body: ``, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			// Act
			ok, err := c.SendConfirmations(context.Background(), testSession, testQuery("accept"), entity.ConfirmationOpAllow,
				[]usecase.ConfirmationRef{{ID: 1, Key: 2}, {ID: 3, Key: 4}})

			// Assert
			if (err != nil) != tt.wantErr || ok != tt.wantOK {
				t.Fatalf("expected ok=%v err=%v, got %v, %v", tt.wantOK, tt.wantErr, ok, err)
			}
		})
	}
}
