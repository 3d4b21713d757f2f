package services

import (
	"civicore/registry/accounts"
	"civicore/registry/auth"
	"civicore/registry/schema"
	"civicore/utils"
	"civicore/utils/logging"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type UserService struct {
	accounts *accounts.Manager
	userAuth *auth.Authenticator
}

func (s *UserService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)

		r.Get("/", s.List)
		r.Get("/{user_id}", s.Info)
		r.Put("/{user_id}", s.UpdateAccess)
		r.Put("/{user_id}/profile", s.UpdateProfile)
		r.Delete("/{user_id}", s.Delete)
	})

	return r
}

type UserInfo struct {
	Id          uint                 `json:"id"`
	Name        string               `json:"name"`
	Email       string               `json:"email"`
	Role        schema.Role          `json:"role"`
	Permissions schema.PermissionSet `json:"permissions"`
}

func convertToUserInfo(user *schema.User) UserInfo {
	return UserInfo{
		Id:          user.Id,
		Name:        user.Name,
		Email:       user.Email,
		Role:        user.Role,
		Permissions: user.Permissions,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success bool     `json:"success"`
	User    UserInfo `json:"user"`
	Token   string   `json:"token"`
}

func (s *UserService) Login(w http.ResponseWriter, r *http.Request) {
	var params loginRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if params.Email == "" || params.Password == "" {
		utils.WriteError(w, "email and password are required", http.StatusBadRequest)
		return
	}

	login, err := s.userAuth.LoginWithEmail(params.Email, params.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			slog.Info("failed login attempt", "email", params.Email, "code", logging.ACCOUNT_LOGIN)
			utils.WriteError(w, "Invalid email or password", http.StatusUnauthorized)
			return
		}
		writeError(w, err)
		return
	}

	slog.Info("user logged in", "user_id", login.User.Id, "code", logging.ACCOUNT_LOGIN)

	utils.WriteJsonResponse(w, loginResponse{Success: true, User: convertToUserInfo(&login.User), Token: login.AccessToken})
}

type sessionResponse struct {
	User         UserInfo          `json:"user"`
	Capabilities auth.Capabilities `json:"capabilities"`
}

func (s *UserService) Session(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	user, err := s.accounts.GetUser(session, session.UserId)
	if err != nil {
		writeError(w, err)
		return
	}

	utils.WriteJsonResponse(w, sessionResponse{User: convertToUserInfo(&user), Capabilities: auth.CapabilitiesFor(session)})
}

type createAccountRequest struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     schema.Role `json:"role"`
}

func (s *UserService) CreateAccount(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	var params createAccountRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	_, err := s.accounts.CreateAccount(session, accounts.CreateAccountRequest{
		Name:     params.Name,
		Email:    params.Email,
		Password: params.Password,
		Role:     params.Role,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	utils.WriteSuccessMessage(w, "Account created successfully!")
}

type changePasswordRequest struct {
	UserId          uint    `json:"userId"`
	CurrentPassword string  `json:"currentPassword"`
	NewPassword     string  `json:"newPassword"`
	ConfirmPassword *string `json:"confirmPassword"`
}

func (s *UserService) ChangePassword(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	var params changePasswordRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if params.UserId == 0 {
		params.UserId = session.UserId
	}

	err := s.accounts.ChangePassword(session, accounts.ChangePasswordRequest{
		UserId:          params.UserId,
		CurrentPassword: params.CurrentPassword,
		NewPassword:     params.NewPassword,
		ConfirmPassword: params.ConfirmPassword,
	})
	if err != nil {
		if errors.Is(err, accounts.ErrIncorrectPassword) {
			utils.WriteError(w, "Current password is incorrect", http.StatusUnauthorized)
			return
		}
		writeError(w, err)
		return
	}

	utils.WriteSuccessMessage(w, "Password changed successfully!")
}

func (s *UserService) List(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	users, err := s.accounts.ListUsers(session)
	if err != nil {
		writeError(w, err)
		return
	}

	infos := make([]UserInfo, 0, len(users))
	for _, user := range users {
		infos = append(infos, convertToUserInfo(&user))
	}

	utils.WriteJsonResponse(w, infos)
}

func (s *UserService) Info(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	userId, ok := urlId(w, r, "user_id")
	if !ok {
		return
	}

	user, err := s.accounts.GetUser(session, userId)
	if err != nil {
		writeError(w, err)
		return
	}

	utils.WriteJsonResponse(w, convertToUserInfo(&user))
}

type updateAccessRequest struct {
	Role        *schema.Role `json:"role"`
	Permissions []string     `json:"permissions"`
}

func (s *UserService) UpdateAccess(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	userId, ok := urlId(w, r, "user_id")
	if !ok {
		return
	}

	var params updateAccessRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if err := s.accounts.UpdateRoleAndPermissions(session, userId, params.Role, params.Permissions); err != nil {
		writeError(w, err)
		return
	}

	utils.WriteSuccess(w)
}

type updateProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (s *UserService) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	userId, ok := urlId(w, r, "user_id")
	if !ok {
		return
	}

	var params updateProfileRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if err := s.accounts.UpdateProfile(session, userId, params.Name, params.Email); err != nil {
		writeError(w, err)
		return
	}

	utils.WriteSuccessMessage(w, "Profile updated successfully!")
}

type deleteAccountRequest struct {
	Password string `json:"password"`
}

func (s *UserService) Delete(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	userId, ok := urlId(w, r, "user_id")
	if !ok {
		return
	}

	var params deleteAccountRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if err := s.accounts.DeleteAccount(session, userId, params.Password); err != nil {
		writeError(w, err)
		return
	}

	utils.WriteSuccess(w)
}
