package identityerr

import (
	"regexp"
	"strings"
)

// Rule maps response bodies matching any of Patterns to Kind.
type Rule struct {
	Kind     Kind
	Patterns []*regexp.Regexp
}

// NewRule compiles patterns case-insensitively. It panics on an invalid
// pattern, like regexp.MustCompile.
func NewRule(kind Kind, patterns ...string) Rule {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		compiled = append(compiled, regexp.MustCompile("(?i)"+p))
	}
	return Rule{Kind: kind, Patterns: compiled}
}

func (r Rule) matches(body string) bool {
	for _, p := range r.Patterns {
		if p.MatchString(body) {
			return true
		}
	}
	return false
}

// Classifier turns non-2xx identity server responses into typed errors.
// Rules are evaluated in order and the first hit wins.
type Classifier struct {
	rules []Rule
}

func NewClassifier(rules ...Rule) *Classifier {
	return &Classifier{rules: rules}
}

// Classify returns nil for successful statuses, blank bodies, or when no
// rule matches.
func (c *Classifier) Classify(statusCode int, body string) *Error {
	if c == nil || (statusCode >= 200 && statusCode < 300) {
		return nil
	}
	if strings.TrimSpace(body) == "" {
		return nil
	}
	for _, r := range c.rules {
		if r.matches(body) {
			return New(r.Kind, statusCode, body, nil)
		}
	}
	return nil
}

// DefaultTokenRules covers the error messages the token endpoint returns for
// password, code and refresh grants. More specific rules come first.
func DefaultTokenRules() []Rule {
	return []Rule{
		NewRule(KindInvalidTwoFactorCode, `invalid[ _]?(2fa|two[ _-]?factor|authenticator)[ _]?code`, `(2fa|authenticator) code is invalid`),
		NewRule(KindAuthenticatorRequired, `use[ _]?authenticator`, `authenticator[ _]required`),
		NewRule(KindTwoFactorRequired, `use[ _]?2fa`, `two[ _-]?factor[ _]required`, `2fa[ _]required`),
		NewRule(KindLocked, `locked`),
		NewRule(KindNotActivated, `not[ _]?activated`),
		NewRule(KindNoPassword, `no[ _]password`, `password is not set`),
		NewRule(KindInvalidRefreshToken, `invalid[ _]refresh[ _]token`, `refresh token is (invalid|expired)`),
		NewRule(KindInvalidCredentials, `invalid[ _]username[ _]or[ _]password`, `invalid_client`, `invalid[ _]credentials`),
	}
}

// DefaultClassifier is a Classifier built from DefaultTokenRules.
func DefaultClassifier() *Classifier {
	return NewClassifier(DefaultTokenRules()...)
}

// DefaultAPIRules covers the error messages of the management API. A body
// matching none of them keeps the kind of the failed operation.
func DefaultAPIRules() []Rule {
	return []Rule{
		NewRule(KindAlreadyRegisteredAndActivated, `already[ _]registered[ _]and[ _]activated`),
		NewRule(KindAlreadyActivated, `already[ _]activated`),
		NewRule(KindAlreadyRegistered, `already[ _]registered`, `already[ _](exists|taken)`),
		NewRule(KindPasswordNotStrongEnough, `password[ _](is[ _])?not[ _]strong`, `password[ _]?too[ _]?weak`, `password(requires|mustcontain|tooshort)`),
		NewRule(KindProfileNotExist, `(profile|user|account)[ _](does[ _])?not[ _]exists?`, `(profile|user|account)[ _]not[ _]found[ _]on[ _]identity`),
		NewRule(KindInvalidAuthenticatorCode, `(authenticator|authentificator)[ _]code[ _]is[ _]invalid`, `invalid[ _](authenticator|authentificator)[ _]code`),
		NewRule(KindWrongActivationCode, `wrong[ _]activation[ _]code`, `invalid[ _]activation[ _](code|token)`),
		NewRule(KindInvalidCode, `wrong[ _](reset|activation)?[ _]?(code|token)`, `invalid[ _](reset[ _])?(code|token)`),
	}
}

// DefaultAPIClassifier is a Classifier built from DefaultAPIRules.
func DefaultAPIClassifier() *Classifier {
	return NewClassifier(DefaultAPIRules()...)
}
