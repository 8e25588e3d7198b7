package api

import (
	"context"
	"net/http"

	"github.com/jrsteele09/go-identity-client/identityerr"
)

const (
	registerPath          = "/user/register"
	activateSegment       = "activate"
	forgotPasswordSegment = "password/forgot"
	resetPasswordSegment  = "password/reset"
)

// Registration is a new account. EmailOrPhone becomes the login; the
// account stays inactive until activated with a code.
type Registration struct {
	Name         *Name
	EmailOrPhone string
	Password     string
	Claims       []Claim
}

// ResetCode authorizes a password reset. Password is the new password when
// sent and whatever the server echoes when received.
type ResetCode struct {
	Code     string
	Token    string
	Password string
}

type registrationRequest struct {
	FullName     *fullName      `json:"fullName,omitempty"`
	EmailOrPhone string         `json:"emailOrPhone"`
	Password     string         `json:"password"`
	Claims       []claimRequest `json:"claims"`
}

type resetCodeMessage struct {
	Code     string `json:"code,omitempty"`
	Token    string `json:"token,omitempty"`
	Password string `json:"password,omitempty"`
}

type activationRequest struct {
	Code  string `json:"code"`
	Token string `json:"token"`
}

// Register creates an account.
func (c *ProfileClient) Register(ctx context.Context, r Registration) error {
	return c.send(ctx, identityerr.KindRegistration, request{
		method:   http.MethodPost,
		endpoint: c.baseURI + registerPath,
		body: registrationRequest{
			FullName:     toFullName(r.Name),
			EmailOrPhone: r.EmailOrPhone,
			Password:     r.Password,
			Claims:       toClaimRequests(r.Claims),
		},
	}, nil)
}

// ActivationCode asks for the code that activates the account identified by
// its id, email or phone.
func (c *ProfileClient) ActivationCode(ctx context.Context, emailOrPhoneOrID string) (*ConfirmationCode, error) {
	var rsp codeResponse
	err := c.send(ctx, identityerr.KindGetActivationCode, request{
		method:   http.MethodGet,
		endpoint: c.userURI(emailOrPhoneOrID, activateSegment),
	}, &rsp)
	if err != nil {
		return nil, err
	}
	return &ConfirmationCode{Code: rsp.Code, Token: rsp.Token}, nil
}

// Activate activates the account with a code from ActivationCode.
func (c *ProfileClient) Activate(ctx context.Context, emailOrPhoneOrID string, code ConfirmationCode) error {
	return c.send(ctx, identityerr.KindActivate, request{
		method:   http.MethodPost,
		endpoint: c.userURI(emailOrPhoneOrID, activateSegment),
		body:     activationRequest{Code: code.Code, Token: code.Token},
	}, nil)
}

// ResetPasswordCode asks for the code that authorizes a password reset.
func (c *ProfileClient) ResetPasswordCode(ctx context.Context, emailOrPhoneOrID string) (*ResetCode, error) {
	var rsp resetCodeMessage
	err := c.send(ctx, identityerr.KindResetPasswordGetCode, request{
		method:   http.MethodGet,
		endpoint: c.userURI(emailOrPhoneOrID, forgotPasswordSegment),
	}, &rsp)
	if err != nil {
		return nil, err
	}
	return &ResetCode{Code: rsp.Code, Token: rsp.Token, Password: rsp.Password}, nil
}

// ResetPassword sets reset.Password as the account's new password.
func (c *ProfileClient) ResetPassword(ctx context.Context, emailOrPhoneOrID string, reset ResetCode) error {
	return c.send(ctx, identityerr.KindResetPassword, request{
		method:   http.MethodPost,
		endpoint: c.userURI(emailOrPhoneOrID, resetPasswordSegment),
		body:     resetCodeMessage{Code: reset.Code, Token: reset.Token, Password: reset.Password},
	}, nil)
}
