package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/jrsteele09/go-identity-client/identityerr"
)

const (
	twoFactorPath        = "/account/2fa"
	twoFactorEnabledPath = "/account/2fa/enabled/"
	authenticatorPath    = "/account/authenticator"
	recoveryCodesPath    = "/account/2fa/generaterecoverycodes"
	twoFactorCodeSegment = "2fa"
)

// TwoFactorStatus is the second factor setup of an account.
type TwoFactorStatus struct {
	Authenticator     bool // an authenticator app (TOTP) is configured
	TwoFactor         bool
	RecoveryCodesLeft int
	AccountConfirmed  bool
}

// ConfirmationCode is a one-time code and the token it must be presented
// with. It is returned for 2FA, activation and contact change flows.
type ConfirmationCode struct {
	Code  string
	Token string
}

// AuthenticatorKey is what an authenticator app needs to start producing
// codes for an account.
type AuthenticatorKey struct {
	SharedKey        string
	AuthenticatorURI string
	QRCode           string
}

type twoFactorStatusResponse struct {
	HasAuthenticator  *bool `json:"hasAuthenticator"`
	Is2faEnabled      *bool `json:"is2faEnabled"`
	RecoveryCodesLeft *int  `json:"recoveryCodesLeft"`
	AccountConfirmed  *bool `json:"accountConfirmed"`
}

type codeResponse struct {
	Code  string `json:"code"`
	Token string `json:"token"`
}

type authenticatorCodeRequest struct {
	Code string `json:"code"`
}

type authenticatorKeyResponse struct {
	SharedKey        string `json:"sharedKey"`
	AuthenticatorURI string `json:"authenticatorUri"`
	QRCode           string `json:"qrCode"`
}

// TwoFactorStatus reports the 2FA setup of the account userToken belongs to.
func (c *ProfileClient) TwoFactorStatus(ctx context.Context, userToken string) (*TwoFactorStatus, error) {
	var rsp twoFactorStatusResponse
	err := c.send(ctx, identityerr.KindTwoFactorStatus, request{
		method:    http.MethodGet,
		endpoint:  c.baseURI + twoFactorPath,
		asUser:    true,
		userToken: userToken,
	}, &rsp)
	if err != nil {
		return nil, err
	}

	status := &TwoFactorStatus{}
	if rsp.HasAuthenticator != nil {
		status.Authenticator = *rsp.HasAuthenticator
	}
	if rsp.Is2faEnabled != nil {
		status.TwoFactor = *rsp.Is2faEnabled
	}
	if rsp.RecoveryCodesLeft != nil {
		status.RecoveryCodesLeft = *rsp.RecoveryCodesLeft
	}
	if rsp.AccountConfirmed != nil {
		status.AccountConfirmed = *rsp.AccountConfirmed
	}
	return status, nil
}

// EnableTwoFactor switches code based 2FA on or off for the end user.
func (c *ProfileClient) EnableTwoFactor(ctx context.Context, userToken string, enable bool) error {
	return c.send(ctx, identityerr.KindTwoFactorActivate, request{
		method:    http.MethodPut,
		endpoint:  c.baseURI + twoFactorEnabledPath + strconv.FormatBool(enable),
		asUser:    true,
		userToken: userToken,
	}, nil)
}

// TwoFactorCode asks the server for a fresh 2FA code for the account. The
// service delivers the code to the user itself.
func (c *ProfileClient) TwoFactorCode(ctx context.Context, id string) (*ConfirmationCode, error) {
	var rsp codeResponse
	err := c.send(ctx, identityerr.KindTwoFactorCode, request{
		method:   http.MethodGet,
		endpoint: c.userURI(id, twoFactorCodeSegment),
	}, &rsp)
	if err != nil {
		return nil, err
	}
	return &ConfirmationCode{Code: rsp.Code, Token: rsp.Token}, nil
}

// GenerateAuthenticatorKey starts authenticator setup for the end user.
func (c *ProfileClient) GenerateAuthenticatorKey(ctx context.Context, userToken string) (*AuthenticatorKey, error) {
	var rsp authenticatorKeyResponse
	err := c.send(ctx, identityerr.KindAuthenticatorGenerateKey, request{
		method:    http.MethodGet,
		endpoint:  c.baseURI + authenticatorPath,
		asUser:    true,
		userToken: userToken,
	}, &rsp)
	if err != nil {
		return nil, err
	}
	return &AuthenticatorKey{
		SharedKey:        rsp.SharedKey,
		AuthenticatorURI: rsp.AuthenticatorURI,
		QRCode:           rsp.QRCode,
	}, nil
}

// AddAuthenticator completes authenticator setup with the first code the
// app produced and returns the recovery codes.
func (c *ProfileClient) AddAuthenticator(ctx context.Context, userToken, code string) ([]string, error) {
	var codes []string
	err := c.send(ctx, identityerr.KindAuthenticatorAddCode, request{
		method:    http.MethodPost,
		endpoint:  c.baseURI + authenticatorPath,
		body:      authenticatorCodeRequest{Code: code},
		asUser:    true,
		userToken: userToken,
	}, &codes)
	if err != nil {
		return nil, err
	}
	return nonNil(codes), nil
}

// RecoveryCodes replaces the end user's authenticator recovery codes.
func (c *ProfileClient) RecoveryCodes(ctx context.Context, userToken string) ([]string, error) {
	var codes []string
	err := c.send(ctx, identityerr.KindAuthenticatorRecoveryCodes, request{
		method:    http.MethodPost,
		endpoint:  c.baseURI + recoveryCodesPath,
		asUser:    true,
		userToken: userToken,
	}, &codes)
	if err != nil {
		return nil, err
	}
	return nonNil(codes), nil
}

// RemoveAuthenticator removes the end user's authenticator app.
func (c *ProfileClient) RemoveAuthenticator(ctx context.Context, userToken string) error {
	return c.send(ctx, identityerr.KindAuthenticatorRemove, request{
		method:    http.MethodDelete,
		endpoint:  c.baseURI + authenticatorPath,
		asUser:    true,
		userToken: userToken,
	}, nil)
}

func nonNil(codes []string) []string {
	if codes == nil {
		return []string{}
	}
	return codes
}
