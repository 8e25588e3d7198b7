package api

import (
	"context"
	"net/http"

	"github.com/jrsteele09/go-identity-client/identityerr"
	"github.com/pkg/errors"
)

const (
	claimSegment        = "claim"
	profilePath         = "/profile/"
	validateContactPath = "/profile/emailorphone"
)

// AccountChange lists the fields to update. Empty fields and a nil Name or
// Claims are left unchanged on the server.
type AccountChange struct {
	Name        *Name
	Email       string
	Phone       string
	Claims      []Claim
	PhotoBase64 string
}

// ContactOperation is how a contact change applies the new value.
type ContactOperation string

const (
	ContactReplace ContactOperation = "replace"
	ContactAdd     ContactOperation = "add"
	ContactRemove  ContactOperation = "remove"
)

// ContactType selects the contact being changed.
type ContactType string

const (
	ContactEmail ContactType = "email"
	ContactPhone ContactType = "phone"
)

var contactFields = map[ContactType]string{
	ContactEmail: "/email",
	ContactPhone: "/phoneNumber",
}

var ErrUnknownContactType = errors.New("unknown contact type")

type accountChangeRequest struct {
	FullName    *fullName      `json:"fullName,omitempty"`
	Email       string         `json:"email,omitempty"`
	PhoneNumber string         `json:"phoneNumber,omitempty"`
	Claims      []claimRequest `json:"claims,omitempty"`
	Photo       string         `json:"photo,omitempty"`
}

type claimChangeRequest struct {
	OldClaim claimRequest `json:"oldClaim"`
	NewClaim claimRequest `json:"newClaim"`
}

// contactPatch is one JSON Patch operation on the profile.
type contactPatch struct {
	Op    ContactOperation `json:"op"`
	Value string           `json:"value"`
	Path  string           `json:"path"`
}

type contactValidationRequest struct {
	EmailOrPhone string `json:"emailOrPhone"`
	Code         string `json:"code"`
}

// ChangeAccount updates the account with the given id.
func (c *ProfileClient) ChangeAccount(ctx context.Context, id string, change AccountChange) error {
	rq := accountChangeRequest{
		FullName:    toFullName(change.Name),
		Email:       change.Email,
		PhoneNumber: change.Phone,
		Photo:       change.PhotoBase64,
	}
	if change.Claims != nil {
		rq.Claims = toClaimRequests(change.Claims)
	}

	return c.send(ctx, identityerr.KindChangeAccount, request{
		method:   http.MethodPut,
		endpoint: c.userURI(id),
		body:     rq,
	}, nil)
}

// ChangePhoto replaces only the account photo.
func (c *ProfileClient) ChangePhoto(ctx context.Context, id, photoBase64 string) error {
	return c.ChangeAccount(ctx, id, AccountChange{PhotoBase64: photoBase64})
}

// ChangeClaim replaces the claim of the given type holding oldValue with
// value.
func (c *ProfileClient) ChangeClaim(ctx context.Context, id, claimType, oldValue, value string) error {
	return c.send(ctx, identityerr.KindChangeClaim, request{
		method:   http.MethodPut,
		endpoint: c.userURI(id, claimSegment),
		body: claimChangeRequest{
			OldClaim: claimRequest{Type: claimType, Value: oldValue},
			NewClaim: claimRequest{Type: claimType, Value: value},
		},
	}, nil)
}

// ContactChangeCode starts a contact change for the end user. The change
// takes effect once ValidateContact confirms the returned code.
func (c *ProfileClient) ContactChangeCode(ctx context.Context, userToken string, op ContactOperation, contactType ContactType, value string) (*ConfirmationCode, error) {
	field, ok := contactFields[contactType]
	if !ok {
		return nil, identityerr.New(identityerr.KindChangeContact, 0, "", errors.Wrapf(ErrUnknownContactType, "%q", contactType))
	}

	var rsp codeResponse
	err := c.send(ctx, identityerr.KindChangeContact, request{
		method:    http.MethodPatch,
		endpoint:  c.baseURI + profilePath + string(contactType),
		body:      []contactPatch{{Op: op, Value: value, Path: field}},
		asUser:    true,
		userToken: userToken,
	}, &rsp)
	if err != nil {
		return nil, err
	}
	return &ConfirmationCode{Code: rsp.Code, Token: rsp.Token}, nil
}

// ValidateContact confirms a contact change with the code sent to the new
// email or phone.
func (c *ProfileClient) ValidateContact(ctx context.Context, userToken, emailOrPhone, code string) error {
	return c.send(ctx, identityerr.KindChangeContact, request{
		method:    http.MethodPut,
		endpoint:  c.baseURI + validateContactPath,
		body:      contactValidationRequest{EmailOrPhone: emailOrPhone, Code: code},
		asUser:    true,
		userToken: userToken,
	}, nil)
}
