package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/anonto42/yatube/backend/internal/auth"
	"github.com/anonto42/yatube/backend/internal/mailer"
	"github.com/anonto42/yatube/backend/internal/middleware"
	"github.com/anonto42/yatube/backend/internal/models"
	"github.com/anonto42/yatube/backend/internal/repositories"
	"github.com/anonto42/yatube/backend/validators"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// unusablePassword marks accounts that can only sign in through Firebase.
// It is never a valid bcrypt hash.
const unusablePassword = "!"

const usernameTakenMessage = "A user with that username already exists."

const loginFailedMessage = "Please enter a correct username and password. Note that both fields may be case-sensitive."

// AuthHandler handles registration, sessions and password resets
type AuthHandler struct {
	userRepository repositories.UserRepository
	tokens         *auth.TokenService
	passwords      *auth.PasswordHasher
	mailer         mailer.Mailer
	siteURL        string
	secureCookies  bool
	firebaseAuth   middleware.IDTokenVerifier
}

// AuthOptions carries the settings AuthHandler needs besides its stores.
type AuthOptions struct {
	SiteURL       string
	SecureCookies bool
	// FirebaseAuth enables POST /auth/firebase/ when set.
	FirebaseAuth middleware.IDTokenVerifier
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(
	userRepo repositories.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordHasher,
	mail mailer.Mailer,
	opts AuthOptions,
) *AuthHandler {
	return &AuthHandler{
		userRepository: userRepo,
		tokens:         tokens,
		passwords:      passwords,
		mailer:         mail,
		siteURL:        strings.TrimSuffix(opts.SiteURL, "/"),
		secureCookies:  opts.SecureCookies,
		firebaseAuth:   opts.FirebaseAuth,
	}
}

// RegisterAuthRoutes registers authentication-related routes. limit guards
// the credential-accepting POSTs.
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group, limit echo.MiddlewareFunc) {
	g.GET("/signup/", h.Signup)
	g.POST("/signup/", h.Signup, limit)
	g.GET("/login/", h.Login)
	g.POST("/login/", h.Login, limit)
	g.GET("/logout/", h.Logout)
	g.POST("/logout/", h.Logout)

	g.GET("/password_reset/", h.PasswordReset)
	g.POST("/password_reset/", h.PasswordReset, limit)
	g.GET("/password_reset/done/", h.page("users/password_reset_done.html"))
	g.GET("/reset/done/", h.page("users/password_reset_complete.html"))
	g.GET("/reset/:token/", h.PasswordResetConfirm)
	g.POST("/reset/:token/", h.PasswordResetConfirm, limit)

	if h.firebaseAuth != nil {
		g.POST("/firebase/", h.FirebaseLogin, limit, middleware.FirebaseAuthMiddleware(h.firebaseAuth))
	}
}

func (h *AuthHandler) page(name string) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.Render(http.StatusOK, name, map[string]interface{}{})
	}
}

// Signup registers a local account. The new user still has to log in.
func (h *AuthHandler) Signup(c echo.Context) error {
	ctx := c.Request().Context()
	form := SignupFormView{Errors: validators.FieldErrors{}}

	if c.Request().Method != http.MethodPost {
		return c.Render(http.StatusOK, "users/signup.html", map[string]interface{}{"form": form})
	}

	input := models.SignupForm{
		FirstName: strings.TrimSpace(c.FormValue("first_name")),
		LastName:  strings.TrimSpace(c.FormValue("last_name")),
		Username:  strings.TrimSpace(c.FormValue("username")),
		Email:     strings.TrimSpace(c.FormValue("email")),
		Password1: c.FormValue("password1"),
		Password2: c.FormValue("password2"),
	}
	form.FirstName, form.LastName, form.Username, form.Email = input.FirstName, input.LastName, input.Username, input.Email
	form.Errors = validators.Errors(c.Validate(&input))

	if form.Errors["username"] == "" {
		exists, err := h.userRepository.UsernameExists(ctx, input.Username)
		if err != nil {
			return err
		}
		if exists {
			form.Errors.Add("username", usernameTakenMessage)
		}
	}

	var hash string
	if !form.Errors.Any() {
		var err error
		if hash, err = h.passwords.Hash(input.Password1); err != nil {
			form.Errors.Add("password1", "Ensure this value has at most 72 characters.")
		}
	}

	if form.Errors.Any() {
		return c.Render(http.StatusOK, "users/signup.html", map[string]interface{}{"form": form})
	}

	user := &models.User{
		Username:  input.Username,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Password:  hash,
	}
	if err := h.userRepository.CreateUser(ctx, user); err != nil {
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
		// a concurrent signup took the username after the check above
		form.Errors.Add("username", usernameTakenMessage)
		return c.Render(http.StatusOK, "users/signup.html", map[string]interface{}{"form": form})
	}
	slog.Info("user signed up", "user_id", user.ID, "username", user.Username)

	return c.Redirect(http.StatusFound, "/")
}

// Login checks credentials and starts a session.
func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	form := LoginFormView{Errors: validators.FieldErrors{}}
	next := c.FormValue("next")

	render := func() error {
		return c.Render(http.StatusOK, "users/login.html", map[string]interface{}{
			"form": form,
			"next": next,
		})
	}

	if c.Request().Method != http.MethodPost {
		return render()
	}

	input := models.LoginForm{
		Username: strings.TrimSpace(c.FormValue("username")),
		Password: c.FormValue("password"),
	}
	form.Username = input.Username
	if form.Errors = validators.Errors(c.Validate(&input)); form.Errors.Any() {
		return render()
	}

	user, err := h.userRepository.GetUserByUsername(ctx, input.Username)
	if err != nil && !isNotFound(err) {
		return err
	}
	if user == nil || h.passwords.Verify(user.Password, input.Password) != nil {
		form.Errors.Add(validators.NonFieldErrors, loginFailedMessage)
		return render()
	}

	if err := h.startSession(c, user); err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, safeNext(next))
}

// Logout ends the session.
func (h *AuthHandler) Logout(c echo.Context) error {
	auth.ClearSessionCookie(c)
	return c.Render(http.StatusOK, "users/logged_out.html", map[string]interface{}{
		"user": (*models.User)(nil),
	})
}

// PasswordReset mails a reset link when the address belongs to an account.
// The response is the same either way.
func (h *AuthHandler) PasswordReset(c echo.Context) error {
	ctx := c.Request().Context()
	form := EmailFormView{Errors: validators.FieldErrors{}}

	if c.Request().Method != http.MethodPost {
		return c.Render(http.StatusOK, "users/password_reset_form.html", map[string]interface{}{"form": form})
	}

	input := models.PasswordResetForm{Email: strings.TrimSpace(c.FormValue("email"))}
	form.Email = input.Email
	if form.Errors = validators.Errors(c.Validate(&input)); form.Errors.Any() {
		return c.Render(http.StatusOK, "users/password_reset_form.html", map[string]interface{}{"form": form})
	}

	user, err := h.userRepository.GetUserByEmail(ctx, input.Email)
	switch {
	case isNotFound(err):
	case err != nil:
		return err
	case user.Password == unusablePassword:
	default:
		if err := h.sendResetLink(ctx, user); err != nil {
			slog.Error("failed to send password reset email", "user_id", user.ID, "error", err)
		}
	}

	return c.Redirect(http.StatusFound, "/auth/password_reset/done/")
}

func (h *AuthHandler) sendResetLink(ctx context.Context, user *models.User) error {
	token, err := h.tokens.IssueReset(user.ID, user.Password)
	if err != nil {
		return err
	}
	link := h.siteURL + "/auth/reset/" + token + "/"
	return h.mailer.Send(ctx, mailer.Message{
		To:      user.Email,
		Subject: "Password reset on Yatube",
		Text: fmt.Sprintf("You asked to reset the password of %s on Yatube.\n\n"+
			"Follow this link within an hour to choose a new one:\n%s\n\n"+
			"If it was not you, ignore this email.", user.Username, link),
		HTML: fmt.Sprintf(`<p>You asked to reset the password of <b>%s</b> on Yatube.</p>`+
			`<p><a href="%s">Choose a new password</a> within an hour.</p>`+
			`<p>If it was not you, ignore this email.</p>`, user.Username, link),
	})
}

// PasswordResetConfirm sets a new password for a valid reset link.
func (h *AuthHandler) PasswordResetConfirm(c echo.Context) error {
	ctx := c.Request().Context()
	form := PasswordFormView{Errors: validators.FieldErrors{}}

	user, err := h.resetUser(ctx, c.Param("token"))
	if err != nil {
		return err
	}
	render := func() error {
		return c.Render(http.StatusOK, "users/password_reset_confirm.html", map[string]interface{}{
			"form":      form,
			"validlink": user != nil,
		})
	}
	if user == nil || c.Request().Method != http.MethodPost {
		return render()
	}

	input := models.SetPasswordForm{
		NewPassword1: c.FormValue("new_password1"),
		NewPassword2: c.FormValue("new_password2"),
	}
	if form.Errors = validators.Errors(c.Validate(&input)); form.Errors.Any() {
		return render()
	}
	hash, err := h.passwords.Hash(input.NewPassword1)
	if err != nil {
		form.Errors.Add("new_password1", "Ensure this value has at most 72 characters.")
		return render()
	}

	user.Password = hash
	if err := h.userRepository.UpdateUser(ctx, user); err != nil {
		return err
	}
	slog.Info("password reset", "user_id", user.ID)
	return c.Redirect(http.StatusFound, "/auth/reset/done/")
}

// resetUser returns the user a reset token was issued for, or nil when the
// token is invalid, expired or already used.
func (h *AuthHandler) resetUser(ctx context.Context, token string) (*models.User, error) {
	userID, fingerprint, err := h.tokens.ParseReset(token)
	if err != nil {
		return nil, nil
	}
	user, err := h.userRepository.GetUserByID(ctx, userID)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if auth.Fingerprint(user.Password) != fingerprint {
		return nil, nil
	}
	return user, nil
}

// FirebaseLogin signs in with a verified Firebase ID token, linking or
// creating the local account.
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	ctx := c.Request().Context()
	token := middleware.FirebaseToken(c)

	email, _ := token.Claims["email"].(string)
	name, _ := token.Claims["name"].(string)

	user, err := h.userRepository.GetUserByFirebaseUID(ctx, token.UID)
	if isNotFound(err) && email != "" {
		user, err = h.userRepository.GetUserByEmail(ctx, email)
		if err == nil && user.FirebaseUID == nil {
			uid := token.UID
			user.FirebaseUID = &uid
			err = h.userRepository.UpdateUser(ctx, user)
		} else if err == nil {
			// the address belongs to an account linked to another Firebase user
			err = echo.NewHTTPError(http.StatusConflict, "Email is linked to another account")
		}
	}
	if isNotFound(err) {
		user, err = h.createFirebaseUser(ctx, token.UID, email, name)
	}
	if err != nil {
		return err
	}

	if err := h.startSession(c, user); err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, safeNext(c.FormValue("next")))
}

func (h *AuthHandler) createFirebaseUser(ctx context.Context, uid, email, name string) (*models.User, error) {
	base := usernameFrom(email, uid)
	username := base
	for i := 1; ; i++ {
		exists, err := h.userRepository.UsernameExists(ctx, username)
		if err != nil {
			return nil, err
		}
		if !exists {
			break
		}
		suffix := strconv.Itoa(i)
		username = truncate(base, 150-len(suffix)) + suffix
	}

	first, last, _ := strings.Cut(strings.TrimSpace(name), " ")
	user := &models.User{
		Username:    username,
		FirstName:   truncate(first, 150),
		LastName:    truncate(strings.TrimSpace(last), 150),
		Email:       email,
		Password:    unusablePassword,
		FirebaseUID: &uid,
	}
	if err := h.userRepository.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	slog.Info("user signed up with firebase", "user_id", user.ID, "username", user.Username)
	return user, nil
}

func (h *AuthHandler) startSession(c echo.Context, user *models.User) error {
	token, err := h.tokens.IssueSession(user.ID)
	if err != nil {
		return err
	}
	auth.SetSessionCookie(c, token, h.tokens.SessionTTL(), h.secureCookies)
	middleware.SetCurrentUser(c, user)
	slog.Info("user logged in", "user_id", user.ID)
	return nil
}

var usernameUnsafe = regexp.MustCompile(`[^\p{L}\p{N}_.@+-]`)

// usernameFrom derives a valid username from an email address, falling back
// to the Firebase UID.
func usernameFrom(email, uid string) string {
	local, _, _ := strings.Cut(email, "@")
	name := usernameUnsafe.ReplaceAllString(local, "")
	if name == "" {
		name = usernameUnsafe.ReplaceAllString(uid, "")
	}
	if name == "" {
		name = "user"
	}
	return truncate(name, 150)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}

// safeNext only allows local absolute paths as a post-login destination.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, `/\`) {
		return "/"
	}
	return next
}
