package identityerr

import (
	"errors"
	"fmt"
)

// Kind classifies an identity server failure.
type Kind int

const (
	KindUnknownToken Kind = iota
	KindTransport
	KindInvalidToken
	KindExpiredToken
	KindExpiredOrInvalidToken
	KindIntrospect
	KindGetAccountByToken
	KindGetAccount
	KindDelete
	KindRevoke

	// Token endpoint parser kinds, produced by a Classifier from the response body.
	KindInvalidCredentials
	KindInvalidRefreshToken
	KindLocked
	KindNotActivated
	KindNoPassword
	KindTwoFactorRequired
	KindAuthenticatorRequired
	KindInvalidTwoFactorCode

	// Management API operation kinds.
	KindTwoFactorStatus
	KindTwoFactorActivate
	KindTwoFactorCode
	KindAuthenticatorGenerateKey
	KindAuthenticatorAddCode
	KindAuthenticatorRecoveryCodes
	KindAuthenticatorRemove
	KindRegistration
	KindResetPasswordGetCode
	KindResetPassword
	KindGetActivationCode
	KindActivate
	KindChangeContact
	KindChangeAccount
	KindChangeClaim

	// Management API parser kinds, produced by a Classifier from the response body.
	KindAlreadyActivated
	KindAlreadyRegistered
	KindAlreadyRegisteredAndActivated
	KindPasswordNotStrongEnough
	KindProfileNotExist
	KindWrongActivationCode
	KindInvalidCode
	KindInvalidAuthenticatorCode
)

var kindMessages = map[Kind]string{
	KindUnknownToken:          "unknown error during token creation",
	KindTransport:             "identity server transport failure",
	KindInvalidToken:          "token is invalid",
	KindExpiredToken:          "token is expired",
	KindExpiredOrInvalidToken: "token is expired or invalid",
	KindIntrospect:            "error during token introspection",
	KindGetAccountByToken:     "error during get userinfo by token",
	KindGetAccount:            "error during get account",
	KindDelete:                "error during account delete",
	KindRevoke:                "error during access revoke",
	KindInvalidCredentials:    "account credentials are not valid",
	KindInvalidRefreshToken:   "refresh token is invalid",
	KindLocked:                "account is locked",
	KindNotActivated:          "account is not activated",
	KindNoPassword:            "profile password is not set",
	KindTwoFactorRequired:     "two factor authentication required",
	KindAuthenticatorRequired: "authenticator code required",
	KindInvalidTwoFactorCode:  "two factor or authenticator code is invalid",

	KindTwoFactorStatus:            "error during 2fa status check",
	KindTwoFactorActivate:          "error during 2fa activation",
	KindTwoFactorCode:              "error during get 2fa code",
	KindAuthenticatorGenerateKey:   "error during authenticator key generation",
	KindAuthenticatorAddCode:       "error during authenticator code add",
	KindAuthenticatorRecoveryCodes: "error during authenticator recovery codes generation",
	KindAuthenticatorRemove:        "error during authenticator remove",
	KindRegistration:               "error during registration",
	KindResetPasswordGetCode:       "error during get password reset code",
	KindResetPassword:              "error during password reset",
	KindGetActivationCode:          "error during get activation code",
	KindActivate:                   "error during activation",
	KindChangeContact:              "error during account contact change",
	KindChangeAccount:              "error during account change",
	KindChangeClaim:                "error during claim change",

	KindAlreadyActivated:              "profile is already activated",
	KindAlreadyRegistered:             "profile is already registered",
	KindAlreadyRegisteredAndActivated: "profile is already registered and activated",
	KindPasswordNotStrongEnough:       "password is not strong enough",
	KindProfileNotExist:               "profile does not exist",
	KindWrongActivationCode:           "wrong activation code",
	KindInvalidCode:                   "wrong reset or activation code",
	KindInvalidAuthenticatorCode:      "authenticator code is invalid",
}

func (k Kind) String() string {
	if msg, ok := kindMessages[k]; ok {
		return msg
	}
	return fmt.Sprintf("identity error kind %d", int(k))
}

// Sentinels for errors.Is. Any *Error of the same Kind matches.
var (
	ErrUnknownToken          = &Error{Kind: KindUnknownToken}
	ErrTransport             = &Error{Kind: KindTransport}
	ErrInvalidToken          = &Error{Kind: KindInvalidToken}
	ErrExpiredToken          = &Error{Kind: KindExpiredToken}
	ErrExpiredOrInvalidToken = &Error{Kind: KindExpiredOrInvalidToken}
	ErrIntrospect            = &Error{Kind: KindIntrospect}
	ErrGetAccountByToken     = &Error{Kind: KindGetAccountByToken}
	ErrGetAccount            = &Error{Kind: KindGetAccount}
	ErrDelete                = &Error{Kind: KindDelete}
	ErrRevoke                = &Error{Kind: KindRevoke}
	ErrInvalidCredentials    = &Error{Kind: KindInvalidCredentials}
	ErrInvalidRefreshToken   = &Error{Kind: KindInvalidRefreshToken}
	ErrLocked                = &Error{Kind: KindLocked}
	ErrNotActivated          = &Error{Kind: KindNotActivated}
	ErrNoPassword            = &Error{Kind: KindNoPassword}
	ErrTwoFactorRequired     = &Error{Kind: KindTwoFactorRequired}
	ErrAuthenticatorRequired = &Error{Kind: KindAuthenticatorRequired}
	ErrInvalidTwoFactorCode  = &Error{Kind: KindInvalidTwoFactorCode}

	ErrTwoFactorStatus            = &Error{Kind: KindTwoFactorStatus}
	ErrTwoFactorActivate          = &Error{Kind: KindTwoFactorActivate}
	ErrTwoFactorCode              = &Error{Kind: KindTwoFactorCode}
	ErrAuthenticatorGenerateKey   = &Error{Kind: KindAuthenticatorGenerateKey}
	ErrAuthenticatorAddCode       = &Error{Kind: KindAuthenticatorAddCode}
	ErrAuthenticatorRecoveryCodes = &Error{Kind: KindAuthenticatorRecoveryCodes}
	ErrAuthenticatorRemove        = &Error{Kind: KindAuthenticatorRemove}
	ErrRegistration               = &Error{Kind: KindRegistration}
	ErrResetPasswordGetCode       = &Error{Kind: KindResetPasswordGetCode}
	ErrResetPassword              = &Error{Kind: KindResetPassword}
	ErrGetActivationCode          = &Error{Kind: KindGetActivationCode}
	ErrActivate                   = &Error{Kind: KindActivate}
	ErrChangeContact              = &Error{Kind: KindChangeContact}
	ErrChangeAccount              = &Error{Kind: KindChangeAccount}
	ErrChangeClaim                = &Error{Kind: KindChangeClaim}

	ErrAlreadyActivated              = &Error{Kind: KindAlreadyActivated}
	ErrAlreadyRegistered             = &Error{Kind: KindAlreadyRegistered}
	ErrAlreadyRegisteredAndActivated = &Error{Kind: KindAlreadyRegisteredAndActivated}
	ErrPasswordNotStrongEnough       = &Error{Kind: KindPasswordNotStrongEnough}
	ErrProfileNotExist               = &Error{Kind: KindProfileNotExist}
	ErrWrongActivationCode           = &Error{Kind: KindWrongActivationCode}
	ErrInvalidCode                   = &Error{Kind: KindInvalidCode}
	ErrInvalidAuthenticatorCode      = &Error{Kind: KindInvalidAuthenticatorCode}
)

// Error is a failure reported by, or while talking to, the identity server.
// StatusCode is 0 when no response was received.
type Error struct {
	Kind       Kind
	StatusCode int
	Body       string // raw response body as returned by the server
	Err        error
}

func New(kind Kind, statusCode int, body string, err error) *Error {
	return &Error{Kind: kind, StatusCode: statusCode, Body: body, Err: err}
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Body != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Body)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports a match for any *Error with the same Kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Wrap returns err unchanged when it already carries an *Error, otherwise a
// new *Error of the given kind wrapping it.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	var idErr *Error
	if errors.As(err, &idErr) {
		return err
	}
	return &Error{Kind: kind, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var idErr *Error
	if errors.As(err, &idErr) {
		return idErr.Kind, true
	}
	return 0, false
}
