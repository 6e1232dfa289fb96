package entity

import (
	"encoding/json"
	"strconv"
	"strings"
)

// MaFile is the portable account file used by mobile authenticator tools.
type MaFile struct {
	SharedSecret   string         `json:"shared_secret"`
	SerialNumber   string         `json:"serial_number"`
	RevocationCode string         `json:"revocation_code"`
	URI            string         `json:"uri"`
	ServerTime     FlexInt64      `json:"server_time"`
	AccountName    string         `json:"account_name"`
	TokenGID       string         `json:"token_gid"`
	IdentitySecret string         `json:"identity_secret"`
	Secret1        string         `json:"secret_1"`
	Status         FlexInt64      `json:"status"`
	DeviceID       string         `json:"device_id"`
	FullyEnrolled  bool           `json:"fully_enrolled"`
	Session        *MaFileSession `json:"Session,omitempty"`
}

// MaFileSession is the session block of a MaFile.
type MaFileSession struct {
	SteamID      FlexUint64 `json:"SteamID"`
	AccessToken  string     `json:"AccessToken"`
	RefreshToken string     `json:"RefreshToken"`
	SessionID    string     `json:"SessionID"`
}

// ToMaFile exports a.
func (a *Authenticator) ToMaFile() MaFile {
	return MaFile{
		SharedSecret:   a.SharedSecret,
		SerialNumber:   a.SerialNumber,
		RevocationCode: a.RevocationCode,
		URI:            a.URI,
		ServerTime:     FlexInt64(a.ServerTime),
		AccountName:    a.AccountName,
		TokenGID:       a.TokenGID,
		IdentitySecret: a.IdentitySecret,
		Secret1:        a.Secret1,
		Status:         FlexInt64(a.Status),
		DeviceID:       a.DeviceID,
		FullyEnrolled:  a.FullyEnrolled,
		Session: &MaFileSession{
			SteamID:      FlexUint64(a.AccountID),
			AccessToken:  a.Session.AccessToken,
			RefreshToken: a.Session.RefreshToken,
			SessionID:    a.Session.SessionID,
		},
	}
}

// Authenticator converts m back. The account id comes from the session block.
func (m MaFile) Authenticator() Authenticator {
	a := Authenticator{
		AccountName:    m.AccountName,
		SharedSecret:   unescapeSlash(m.SharedSecret),
		IdentitySecret: unescapeSlash(m.IdentitySecret),
		Secret1:        unescapeSlash(m.Secret1),
		SerialNumber:   m.SerialNumber,
		RevocationCode: m.RevocationCode,
		URI:            m.URI,
		ServerTime:     int64(m.ServerTime),
		TokenGID:       m.TokenGID,
		Status:         int(m.Status),
		DeviceID:       m.DeviceID,
		FullyEnrolled:  m.FullyEnrolled,
	}
	if m.Session != nil {
		a.AccountID = uint64(m.Session.SteamID)
		a.Session = Session{
			AccountID:    uint64(m.Session.SteamID),
			AccessToken:  m.Session.AccessToken,
			RefreshToken: m.Session.RefreshToken,
			SessionID:    m.Session.SessionID,
		}
	}

	return a
}

func unescapeSlash(s string) string {
	return strings.ReplaceAll(s, `\/`, "/")
}

// FlexInt64 decodes a JSON number or a numeric string.
type FlexInt64 int64

func (f *FlexInt64) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}
	*f = FlexInt64(n)

	return nil
}

// FlexUint64 decodes a JSON number or a numeric string. It encodes as a number.
type FlexUint64 uint64

func (f *FlexUint64) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}

	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return err
	}
	*f = FlexUint64(n)

	return nil
}

// ParseMaFile decodes a MaFile document.
func ParseMaFile(data []byte) (MaFile, error) {
	var m MaFile
	if err := json.Unmarshal(data, &m); err != nil {
		return MaFile{}, err
	}

	return m, nil
}
