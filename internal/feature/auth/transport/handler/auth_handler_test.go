package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"account_backend/internal/feature/auth/domain/entity"
	"account_backend/internal/feature/auth/usecase"
	jwtmw "account_backend/internal/platform/jwt"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// mockAuthUsecase is a mock implementation of the AuthUsecase interface.
// Unset functions fail the call with errUnexpectedCall.
type mockAuthUsecase struct {
	RegisterFunc             func(ctx context.Context, email, password string) (*entity.User, error)
	LoginFunc                func(ctx context.Context, creds usecase.Credentials) (*usecase.TokenPair, error)
	RefreshFunc              func(ctx context.Context, token string) (string, error)
	RequestConfirmationFunc  func(ctx context.Context, email string) error
	ConfirmEmailFunc         func(ctx context.Context, token string) (*entity.User, error)
	RequestPasswordResetFunc func(ctx context.Context, email string) error
	ResetPasswordFunc        func(ctx context.Context, in usecase.ResetPasswordInput) (*entity.User, error)
	UpdateProfileFunc        func(ctx context.Context, user *entity.User, in usecase.UpdateProfileInput) (*entity.User, error)
	ChangePasswordFunc       func(ctx context.Context, user *entity.User, in usecase.ChangePasswordInput) (*entity.User, error)
	DeleteUserFunc           func(ctx context.Context, user *entity.User) error
}

var errUnexpectedCall = errors.New("unexpected call")

func (m *mockAuthUsecase) Register(ctx context.Context, email, password string) (*entity.User, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, email, password)
	}
	return nil, errUnexpectedCall
}

func (m *mockAuthUsecase) Login(ctx context.Context, creds usecase.Credentials) (*usecase.TokenPair, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, creds)
	}
	return nil, errUnexpectedCall
}

func (m *mockAuthUsecase) Refresh(ctx context.Context, token string) (string, error) {
	if m.RefreshFunc != nil {
		return m.RefreshFunc(ctx, token)
	}
	return "", errUnexpectedCall
}

func (m *mockAuthUsecase) RequestConfirmation(ctx context.Context, email string) error {
	if m.RequestConfirmationFunc != nil {
		return m.RequestConfirmationFunc(ctx, email)
	}
	return errUnexpectedCall
}

func (m *mockAuthUsecase) ConfirmEmail(ctx context.Context, token string) (*entity.User, error) {
	if m.ConfirmEmailFunc != nil {
		return m.ConfirmEmailFunc(ctx, token)
	}
	return nil, errUnexpectedCall
}

func (m *mockAuthUsecase) RequestPasswordReset(ctx context.Context, email string) error {
	if m.RequestPasswordResetFunc != nil {
		return m.RequestPasswordResetFunc(ctx, email)
	}
	return errUnexpectedCall
}

func (m *mockAuthUsecase) ResetPassword(ctx context.Context, in usecase.ResetPasswordInput) (*entity.User, error) {
	if m.ResetPasswordFunc != nil {
		return m.ResetPasswordFunc(ctx, in)
	}
	return nil, errUnexpectedCall
}

func (m *mockAuthUsecase) UpdateProfile(ctx context.Context, user *entity.User, in usecase.UpdateProfileInput) (*entity.User, error) {
	if m.UpdateProfileFunc != nil {
		return m.UpdateProfileFunc(ctx, user, in)
	}
	return nil, errUnexpectedCall
}

func (m *mockAuthUsecase) ChangePassword(ctx context.Context, user *entity.User, in usecase.ChangePasswordInput) (*entity.User, error) {
	if m.ChangePasswordFunc != nil {
		return m.ChangePasswordFunc(ctx, user, in)
	}
	return nil, errUnexpectedCall
}

func (m *mockAuthUsecase) DeleteUser(ctx context.Context, user *entity.User) error {
	if m.DeleteUserFunc != nil {
		return m.DeleteUserFunc(ctx, user)
	}
	return errUnexpectedCall
}

const testUserID = "0b7c2d4e-5f60-4a1b-8c9d-0e1f2a3b4c5d"

func testUser() *entity.User {
	return &entity.User{
		ID:             testUserID,
		Email:          "test@example.com",
		ConfirmedEmail: true,
		CreatedAt:      time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC),
	}
}

// newTestRouter registers every route. /users/me routes get a fake
// authentication middleware that injects user when non-nil.
func newTestRouter(uc AuthUsecase, user *entity.User) *gin.Engine {
	h := NewAuthHandler(uc)
	r := gin.New()
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	r.POST("/auth/refresh", h.Refresh)
	r.POST("/auth/request-verify-token", h.RequestVerifyToken)
	r.POST("/auth/verify", h.Verify)
	r.POST("/auth/forgot-password", h.ForgotPassword)
	r.POST("/auth/reset-password", h.ResetPassword)

	me := r.Group("/users/me", func(c *gin.Context) {
		if user != nil {
			c.Set(jwtmw.ContextUser, user)
		}
		c.Next()
	})
	me.GET("", h.Me)
	me.PATCH("", h.UpdateMe)
	me.DELETE("", h.DeleteMe)
	me.POST("/password", h.ChangePassword)
	return r
}

// do sends a JSON request and decodes the JSON response body, if any.
func do(t *testing.T, r *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, gin.H) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var res gin.H
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	}
	return w, res
}

func TestAuthHandler_Register(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		requestBody    gin.H
		registerFunc   func(ctx context.Context, email, password string) (*entity.User, error)
		expectedStatus int
		expectedError  string
	}{
		{
			name:        "success: user registration",
			requestBody: gin.H{"email": "test@example.com", "password": "password123"},
			registerFunc: func(_ context.Context, email, _ string) (*entity.User, error) {
				u := testUser()
				u.Email = email
				u.ConfirmedEmail = false
				return u, nil
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "failure: invalid email address",
			requestBody:    gin.H{"email": "invalid-email", "password": "password123"},
			expectedStatus: http.StatusBadRequest,
			expectedError:  CodeBadRequest,
		},
		{
			name:           "failure: missing password",
			requestBody:    gin.H{"email": "test@example.com"},
			expectedStatus: http.StatusBadRequest,
			expectedError:  CodeBadRequest,
		},
		{
			name:        "failure: duplicate email",
			requestBody: gin.H{"email": "existing@example.com", "password": "password123"},
			registerFunc: func(context.Context, string, string) (*entity.User, error) {
				return nil, fmt.Errorf("failed to create user: %w", usecase.ErrUserAlreadyExists)
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  CodeRegisterUserAlreadyExists,
		},
		{
			name:        "failure: weak password",
			requestBody: gin.H{"email": "test@example.com", "password": "short"},
			registerFunc: func(context.Context, string, string) (*entity.User, error) {
				return nil, usecase.ErrWeakPassword
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  CodeRegisterInvalidPassword,
		},
		{
			name:        "failure: database down",
			requestBody: gin.H{"email": "test@example.com", "password": "password123"},
			registerFunc: func(context.Context, string, string) (*entity.User, error) {
				return nil, errors.New("connection refused")
			},
			expectedStatus: http.StatusInternalServerError,
			expectedError:  CodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := newTestRouter(&mockAuthUsecase{RegisterFunc: tt.registerFunc}, nil)

			w, res := do(t, r, http.MethodPost, "/auth/register", tt.requestBody)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, res["error"])
				return
			}
			assert.Equal(t, testUserID, res["id"])
			assert.Equal(t, "test@example.com", res["email"])
			assert.Equal(t, false, res["confirmed_email"])
			assert.NotContains(t, res, "hashed_password")
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		requestBody    gin.H
		loginFunc      func(ctx context.Context, creds usecase.Credentials) (*usecase.TokenPair, error)
		expectedStatus int
		expectedBody   gin.H
	}{
		{
			name:        "success: user login",
			requestBody: gin.H{"email": "test@example.com", "password": "password123"},
			loginFunc: func(_ context.Context, creds usecase.Credentials) (*usecase.TokenPair, error) {
				if creds.Email != "test@example.com" || creds.Password != "password123" {
					return nil, errUnexpectedCall
				}
				return &usecase.TokenPair{AccessToken: "access", RefreshToken: "refresh"}, nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   gin.H{"access_token": "access", "refresh_token": "refresh", "token_type": "bearer"},
		},
		{
			name:           "failure: invalid request",
			requestBody:    gin.H{"email": "test@example.com"},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   gin.H{"error": CodeBadRequest},
		},
		{
			name:        "failure: wrong password",
			requestBody: gin.H{"email": "test@example.com", "password": "wrong"},
			loginFunc: func(context.Context, usecase.Credentials) (*usecase.TokenPair, error) {
				return nil, usecase.ErrInvalidCredentials
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   gin.H{"error": CodeLoginBadCredentials},
		},
		{
			name:        "failure: unknown user looks like wrong password",
			requestBody: gin.H{"email": "nobody@example.com", "password": "password123"},
			loginFunc: func(context.Context, usecase.Credentials) (*usecase.TokenPair, error) {
				return nil, fmt.Errorf("%w: %w", usecase.ErrInvalidCredentials, usecase.ErrUserNotFound)
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   gin.H{"error": CodeLoginBadCredentials},
		},
		{
			name:        "failure: email not confirmed",
			requestBody: gin.H{"email": "test@example.com", "password": "password123"},
			loginFunc: func(context.Context, usecase.Credentials) (*usecase.TokenPair, error) {
				return nil, usecase.ErrUserEmailNotConfirmed
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   gin.H{"error": CodeLoginUserNotVerified},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := newTestRouter(&mockAuthUsecase{LoginFunc: tt.loginFunc}, nil)

			w, res := do(t, r, http.MethodPost, "/auth/login", tt.requestBody)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusBadRequest {
				assert.Equal(t, tt.expectedBody["error"], res["error"])
			} else {
				assert.Equal(t, tt.expectedBody, res)
			}
		})
	}
}

func TestAuthHandler_Refresh(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		r := newTestRouter(&mockAuthUsecase{RefreshFunc: func(_ context.Context, token string) (string, error) {
			assert.Equal(t, "refresh", token)
			return "new-access", nil
		}}, nil)

		w, res := do(t, r, http.MethodPost, "/auth/refresh", gin.H{"refresh_token": "refresh"})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, gin.H{"access_token": "new-access", "token_type": "bearer"}, res)
	})

	t.Run("invalid token", func(t *testing.T) {
		t.Parallel()
		r := newTestRouter(&mockAuthUsecase{RefreshFunc: func(context.Context, string) (string, error) {
			return "", fmt.Errorf("%w: %w", usecase.ErrInvalidRefreshToken, usecase.ErrInvalidToken)
		}}, nil)

		w, res := do(t, r, http.MethodPost, "/auth/refresh", gin.H{"refresh_token": "access"})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, CodeRefreshBadToken, res["error"])
	})
}

func TestAuthHandler_EnumerationSafeEndpoints(t *testing.T) {
	t.Parallel()

	uc := &mockAuthUsecase{
		RequestConfirmationFunc:  func(context.Context, string) error { return nil },
		RequestPasswordResetFunc: func(context.Context, string) error { return nil },
	}
	r := newTestRouter(uc, nil)

	for _, path := range []string{"/auth/request-verify-token", "/auth/forgot-password"} {
		t.Run(path, func(t *testing.T) {
			w, _ := do(t, r, http.MethodPost, path, gin.H{"email": "anyone@example.com"})
			assert.Equal(t, http.StatusAccepted, w.Code)

			w, _ = do(t, r, http.MethodPost, path, gin.H{"email": "not-an-email"})
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}

	t.Run("store failure", func(t *testing.T) {
		r := newTestRouter(&mockAuthUsecase{RequestPasswordResetFunc: func(context.Context, string) error {
			return errors.New("db down")
		}}, nil)

		w, res := do(t, r, http.MethodPost, "/auth/forgot-password", gin.H{"email": "anyone@example.com"})

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, CodeInternal, res["error"])
	})
}

func TestAuthHandler_Verify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedError  string
	}{
		{name: "success", expectedStatus: http.StatusOK},
		{name: "already confirmed", err: usecase.ErrUserAlreadyConfirmed, expectedStatus: http.StatusBadRequest, expectedError: CodeVerifyUserAlreadyVerified},
		{name: "bad token", err: fmt.Errorf("%w: %w", usecase.ErrInvalidEmailConfirmationToken, usecase.ErrInvalidToken), expectedStatus: http.StatusBadRequest, expectedError: CodeVerifyUserBadToken},
		{name: "email changed", err: fmt.Errorf("%w: %w", usecase.ErrInvalidEmailConfirmationToken, usecase.ErrUserNotFound), expectedStatus: http.StatusBadRequest, expectedError: CodeVerifyUserBadToken},
		{name: "unexpected", err: errors.New("boom"), expectedStatus: http.StatusInternalServerError, expectedError: CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := newTestRouter(&mockAuthUsecase{ConfirmEmailFunc: func(context.Context, string) (*entity.User, error) {
				if tt.err != nil {
					return nil, tt.err
				}
				return testUser(), nil
			}}, nil)

			w, res := do(t, r, http.MethodPost, "/auth/verify", gin.H{"token": "t"})

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, res["error"])
			} else {
				assert.Equal(t, true, res["confirmed_email"])
			}
		})
	}
}

func TestAuthHandler_ResetPassword(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedError  string
	}{
		{name: "success", expectedStatus: http.StatusOK},
		{name: "bad token", err: usecase.ErrInvalidResetPasswordToken, expectedStatus: http.StatusBadRequest, expectedError: CodeResetPasswordBadToken},
		{name: "used token", err: usecase.ErrInvalidResetPasswordTokenFingerprint, expectedStatus: http.StatusBadRequest, expectedError: CodeResetPasswordBadToken},
		{name: "weak password", err: usecase.ErrWeakPassword, expectedStatus: http.StatusBadRequest, expectedError: CodeResetPasswordInvalidPass},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := newTestRouter(&mockAuthUsecase{ResetPasswordFunc: func(_ context.Context, in usecase.ResetPasswordInput) (*entity.User, error) {
				assert.Equal(t, usecase.ResetPasswordInput{Token: "t", NewPassword: "new-password"}, in)
				if tt.err != nil {
					return nil, tt.err
				}
				return testUser(), nil
			}}, nil)

			w, res := do(t, r, http.MethodPost, "/auth/reset-password", gin.H{"token": "t", "password": "new-password"})

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, res["error"])
			}
		})
	}
}
