package authclient

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
)

// RegisterRequest is the signup payload. Registration is a plain account
// operation: it never mutates session state, the visitor still logs in
// afterwards.
type RegisterRequest struct {
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Age            int    `json:"age"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	SecretQuestion string `json:"secretQuestion"`
	SecretAnswer   string `json:"secretAnswer"`
}

// Validate will validate the payload
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Age, validation.Required, validation.Min(1)),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 100)),
		validation.Field(&r.SecretQuestion, validation.Required),
		validation.Field(&r.SecretAnswer, validation.Required),
	)
}

// Register creates an account through the backend.
func (m *Manager) Register(ctx context.Context, req RegisterRequest) error {
	if err := req.Validate(); err != nil {
		return errors.Wrap(err, errors.CategoryValidation, "invalid registration payload").
			WithCode(errors.CodeBadRequest)
	}

	res, err := m.transport.Post(ctx, m.cfg.GetRegisterPath(), req)
	if err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "could not reach the registration server")
	}

	return m.operationError(res, "registration failed")
}

// UpdateProfileRequest carries partial profile edits; zero fields are
// dropped from the JSON body and left untouched server-side.
type UpdateProfileRequest struct {
	FirstName      string `json:"firstName,omitempty"`
	LastName       string `json:"lastName,omitempty"`
	Age            int    `json:"age,omitempty"`
	Email          string `json:"email,omitempty"`
	SecretQuestion string `json:"secretQuestion,omitempty"`
	SecretAnswer   string `json:"secretAnswer,omitempty"`
}

// Validate will validate the payload
func (r UpdateProfileRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, is.Email),
		validation.Field(&r.FirstName, validation.Length(1, 200)),
		validation.Field(&r.LastName, validation.Length(1, 200)),
	)
}

// UpdateProfile edits the authenticated user's profile. When the backend
// echoes the updated record, the store's user is refreshed in place and the
// updated record returned; when it acknowledges without an echo, the store's
// current user is returned unchanged.
func (m *Manager) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (*User, error) {
	if err := req.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, "invalid profile payload").
			WithCode(errors.CodeBadRequest)
	}

	res, err := m.transport.Put(ctx, m.cfg.GetProfilePath(), req)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "could not reach the profile server")
	}

	if opErr := m.operationError(res, "failed to update profile"); opErr != nil {
		return nil, opErr
	}

	user, ok := NormalizeUser(res.JSON)
	if !ok {
		return m.store.Current().User, nil
	}

	if current := m.store.Current(); current.IsAuthenticated() {
		current.User = user
		m.store.Set(current)
	}

	return user, nil
}

// DeleteAccount removes the authenticated user's account and behaves like a
// local logout on success.
func (m *Manager) DeleteAccount(ctx context.Context) error {
	res, err := m.transport.Delete(ctx, m.cfg.GetProfilePath())
	if err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "could not reach the profile server")
	}

	if opErr := m.operationError(res, "failed to delete account"); opErr != nil {
		return opErr
	}

	previous := m.store.Current()
	if err := m.creds.Clear(); err != nil {
		m.logger.Warn("failed to clear credential", "error", err)
	}
	state := m.store.Set(SessionState{Status: StatusUnauthenticated})

	event := newActivityEvent(ActivityEventAccountDeleted, previous.Status, state.Status)
	if previous.User != nil {
		event.UserID = previous.User.ID
	}
	m.emit(ctx, event)

	return nil
}

// SecretQuestion fetches the account-recovery question for an email.
func (m *Manager) SecretQuestion(ctx context.Context, email string) (string, error) {
	if email == "" {
		return "", ErrMissingCredentials
	}

	res, err := m.transport.Post(ctx, m.cfg.GetForgotPasswordPath(), map[string]string{"email": email})
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryOperation, "could not reach the recovery server")
	}

	if opErr := m.operationError(res, "failed to fetch secret question"); opErr != nil {
		return "", opErr
	}

	for _, key := range []string{"secretQuestion", "question"} {
		if question, ok := res.JSON[key].(string); ok && question != "" {
			return question, nil
		}
	}

	return "", errors.New("no secret question in response", errors.CategoryBadInput).
		WithTextCode(TextCodeUnexpectedResponse)
}

// ResetPasswordRequest resets a password against the stored secret answer.
type ResetPasswordRequest struct {
	Email        string `json:"email"`
	SecretAnswer string `json:"secretAnswer"`
	NewPassword  string `json:"newPassword"`
}

// Validate will validate the payload
func (r ResetPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.SecretAnswer, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(6, 100)),
	)
}

// ResetPassword performs the secret-answer password reset.
func (m *Manager) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	if err := req.Validate(); err != nil {
		return errors.Wrap(err, errors.CategoryValidation, "invalid reset payload").
			WithCode(errors.CodeBadRequest)
	}

	res, err := m.transport.Post(ctx, m.cfg.GetResetPasswordPath(), req)
	if err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "could not reach the recovery server")
	}

	return m.operationError(res, "failed to reset password")
}

// operationError maps a non-2xx or non-JSON account response to a rich
// error carrying the server's message when it sent one.
func (m *Manager) operationError(res *Response, fallback string) error {
	if res.OK() && (res.IsJSON || len(res.Body) == 0) {
		return nil
	}

	if !res.IsJSON {
		return ErrUnexpectedResponse
	}

	message := fallback
	metadata := map[string]any{"status": res.StatusCode}
	if serverMsg, ok := serverMessage(res.JSON); ok {
		message = serverMsg
		metadata["server_message"] = serverMsg
	}

	category := errors.CategoryOperation
	if res.StatusCode == 401 || res.StatusCode == 403 {
		category = errors.CategoryAuth
	}

	return errors.New(message, category).WithMetadata(metadata)
}
