package acceptance

import (
	"encoding/json"
	"net/http"

	"github.com/precisesoft/ConnectKit-sub000/internal/dto"
)

func (s *Suite) TestRegister_Success() {
	resp := s.postJSON("/api/v1/auth/register", dto.RegisterRequest{
		Email:     "Test@Example.com",
		Username:  "testuser",
		Password:  "Password123",
		FirstName: "Test",
		LastName:  "User",
	}, "")
	defer resp.Body.Close()

	s.Equal(http.StatusCreated, resp.StatusCode)

	var registered dto.RegisterResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&registered))

	s.NotEmpty(registered.User.ID)
	s.Equal("test@example.com", registered.User.Email, "email is stored lowercased")
	s.Equal("user", registered.User.Role)
	s.False(registered.User.IsVerified)
	s.NotEmpty(registered.Message)
}

func (s *Suite) TestRegister_DuplicateEmail() {
	s.registerUser("duplicate@example.com", "first-user", "Password123")

	resp := s.postJSON("/api/v1/auth/register", dto.RegisterRequest{
		Email:     "duplicate@example.com",
		Username:  "second-user",
		Password:  "Password123",
		FirstName: "Test",
		LastName:  "User",
	}, "")
	defer resp.Body.Close()

	s.Equal(http.StatusConflict, resp.StatusCode)

	var errResp dto.ErrorResponse
	json.NewDecoder(resp.Body).Decode(&errResp)
	s.Equal("conflict", errResp.Error)
}

func (s *Suite) TestRegister_DuplicateUsername() {
	s.registerUser("first@example.com", "shared-name", "Password123")

	resp := s.postJSON("/api/v1/auth/register", dto.RegisterRequest{
		Email:     "second@example.com",
		Username:  "shared-name",
		Password:  "Password123",
		FirstName: "Test",
		LastName:  "User",
	}, "")
	defer resp.Body.Close()

	s.Equal(http.StatusConflict, resp.StatusCode)
}

func (s *Suite) TestRegister_InvalidEmail() {
	resp := s.postJSON("/api/v1/auth/register", dto.RegisterRequest{
		Email:     "invalid-email",
		Username:  "testuser",
		Password:  "Password123",
		FirstName: "Test",
		LastName:  "User",
	}, "")
	defer resp.Body.Close()

	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *Suite) TestRegister_WeakPassword() {
	resp := s.postJSON("/api/v1/auth/register", dto.RegisterRequest{
		Email:     "weak@example.com",
		Username:  "weakuser",
		Password:  "alllowercase",
		FirstName: "Test",
		LastName:  "User",
	}, "")
	defer resp.Body.Close()

	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *Suite) TestLogin_Success() {
	auth := s.registerAndLogin("login@example.com", "loginuser", "Password123")

	s.NotEmpty(auth.AccessToken)
	s.NotEmpty(auth.RefreshToken)
	s.Equal("Bearer", auth.TokenType)
	s.NotZero(auth.ExpiresIn)
	s.Equal("login@example.com", auth.User.Email)
}

func (s *Suite) TestLogin_InvalidCredentials() {
	resp := s.postJSON("/api/v1/auth/login", dto.LoginRequest{
		Email:    "nonexistent@example.com",
		Password: "WrongPassword1",
	}, "")
	defer resp.Body.Close()

	s.Equal(http.StatusUnauthorized, resp.StatusCode)

	var errResp dto.ErrorResponse
	json.NewDecoder(resp.Body).Decode(&errResp)
	s.Equal("invalid_credentials", errResp.Error)
}

func (s *Suite) TestLogin_WrongPassword() {
	s.registerUser("wrongpass@example.com", "wrongpass", "CorrectPassword1")

	resp := s.postJSON("/api/v1/auth/login", dto.LoginRequest{
		Email:    "wrongpass@example.com",
		Password: "WrongPassword1",
	}, "")
	defer resp.Body.Close()

	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *Suite) TestLogin_LockoutAfterRepeatedFailures() {
	s.registerUser("lockout@example.com", "lockme", "Password123")

	for i := 0; i < 5; i++ {
		resp := s.postJSON("/api/v1/auth/login", dto.LoginRequest{
			Email:    "lockout@example.com",
			Password: "WrongPassword1",
		}, "")
		resp.Body.Close()
		s.Equal(http.StatusUnauthorized, resp.StatusCode, "attempt %d", i+1)
	}

	// the correct password is now rejected with 423 and an unlock time
	resp := s.postJSON("/api/v1/auth/login", dto.LoginRequest{
		Email:    "lockout@example.com",
		Password: "Password123",
	}, "")
	defer resp.Body.Close()

	s.Equal(http.StatusLocked, resp.StatusCode)

	var errResp dto.ErrorResponse
	json.NewDecoder(resp.Body).Decode(&errResp)
	s.Equal("account_locked", errResp.Error)
	s.NotEmpty(errResp.LockedUntil)
}

func (s *Suite) TestRefresh_RotatesTokens() {
	auth := s.registerAndLogin("refresh@example.com", "refresher", "Password123")

	resp := s.postJSON("/api/v1/auth/refresh", dto.RefreshRequest{
		RefreshToken: auth.RefreshToken,
	}, "")
	s.Equal(http.StatusOK, resp.StatusCode)

	var rotated dto.TokenResponse
	s.decode(resp, &rotated)

	s.NotEmpty(rotated.AccessToken)
	s.NotEqual(auth.RefreshToken, rotated.RefreshToken)

	// the rotated-out token no longer works
	reuse := s.postJSON("/api/v1/auth/refresh", dto.RefreshRequest{
		RefreshToken: auth.RefreshToken,
	}, "")
	defer reuse.Body.Close()
	s.Equal(http.StatusUnauthorized, reuse.StatusCode)

	// the replacement does
	again := s.postJSON("/api/v1/auth/refresh", dto.RefreshRequest{
		RefreshToken: rotated.RefreshToken,
	}, "")
	defer again.Body.Close()
	s.Equal(http.StatusOK, again.StatusCode)
}

func (s *Suite) TestRefresh_MissingToken() {
	resp := s.postJSON("/api/v1/auth/refresh", map[string]string{}, "")
	defer resp.Body.Close()

	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *Suite) TestLogout_RevokesSession() {
	auth := s.registerAndLogin("logout@example.com", "logouter", "Password123")

	resp := s.postJSON("/api/v1/auth/logout", dto.LogoutRequest{
		RefreshToken: auth.RefreshToken,
	}, auth.AccessToken)
	s.Equal(http.StatusOK, resp.StatusCode)

	var msg dto.MessageResponse
	s.decode(resp, &msg)
	s.Equal("Logged out successfully", msg.Message)

	// the access token is dead
	me := s.doJSON(http.MethodGet, "/api/v1/auth/me", nil, auth.AccessToken)
	defer me.Body.Close()
	s.Equal(http.StatusUnauthorized, me.StatusCode)

	// so is the refresh token
	refresh := s.postJSON("/api/v1/auth/refresh", dto.RefreshRequest{
		RefreshToken: auth.RefreshToken,
	}, "")
	defer refresh.Body.Close()
	s.Equal(http.StatusUnauthorized, refresh.StatusCode)
}

func (s *Suite) TestGetMe() {
	auth := s.registerAndLogin("getme@example.com", "getmeuser", "Password123")

	resp := s.doJSON(http.MethodGet, "/api/v1/auth/me", nil, auth.AccessToken)
	s.Equal(http.StatusOK, resp.StatusCode)

	var user dto.UserResponse
	s.decode(resp, &user)
	s.Equal("getme@example.com", user.Email)
	s.Equal(auth.User.ID, user.ID)
}

func (s *Suite) TestGetMe_NoToken() {
	resp := s.doJSON(http.MethodGet, "/api/v1/auth/me", nil, "")
	defer resp.Body.Close()

	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *Suite) TestForgotPassword_IdenticalResponses() {
	s.registerUser("known@example.com", "knownuser", "Password123")

	known := s.postJSON("/api/v1/auth/forgot-password", dto.ForgotPasswordRequest{
		Email: "known@example.com",
	}, "")
	s.Equal(http.StatusOK, known.StatusCode)
	var knownMsg dto.MessageResponse
	s.decode(known, &knownMsg)

	unknown := s.postJSON("/api/v1/auth/forgot-password", dto.ForgotPasswordRequest{
		Email: "unknown@example.com",
	}, "")
	s.Equal(http.StatusOK, unknown.StatusCode)
	var unknownMsg dto.MessageResponse
	s.decode(unknown, &unknownMsg)

	// existing and unknown accounts are indistinguishable
	s.Equal(knownMsg.Message, unknownMsg.Message)
}

func (s *Suite) TestChangePassword() {
	auth := s.registerAndLogin("changer@example.com", "changer", "Password123")

	resp := s.postJSON("/api/v1/auth/change-password", dto.ChangePasswordRequest{
		CurrentPassword: "Password123",
		NewPassword:     "NewPassword456",
	}, auth.AccessToken)
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	// the old password is dead, the new one works
	old := s.postJSON("/api/v1/auth/login", dto.LoginRequest{
		Email:    "changer@example.com",
		Password: "Password123",
	}, "")
	defer old.Body.Close()
	s.Equal(http.StatusUnauthorized, old.StatusCode)

	s.loginUser("changer@example.com", "NewPassword456")
}

func (s *Suite) TestChangePassword_WrongCurrent() {
	auth := s.registerAndLogin("changer2@example.com", "changer2", "Password123")

	resp := s.postJSON("/api/v1/auth/change-password", dto.ChangePasswordRequest{
		CurrentPassword: "WrongPassword1",
		NewPassword:     "NewPassword456",
	}, auth.AccessToken)
	defer resp.Body.Close()

	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}
