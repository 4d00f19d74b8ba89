package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/invoicely/invoicely/internal/i18n"
	"github.com/invoicely/invoicely/internal/shared"
	"github.com/invoicely/invoicely/internal/view"
)

// Handler wires HTTP endpoints for sign-in, sign-up and sign-out.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	templates      *view.Engine
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, sessions *shared.SessionManager, csrf *shared.CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:         logger,
		service:        service,
		templates:      templates,
		sessionManager: sessions,
		csrfManager:    csrf,
		validator:      validator.New(),
	}
}

// MountRoutes registers auth routes on a locale-scoped router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/sign-in", h.showSignIn)
	r.Post("/sign-in", h.handleSignIn)
	r.Get("/sign-up", h.showSignUp)
	r.Post("/sign-up", h.handleSignUp)
	r.Post("/sign-out", h.handleSignOut)
}

type signInForm struct {
	Email       string `validate:"required,email"`
	Password    string `validate:"required"`
	RedirectURL string
}

type signUpForm struct {
	Email    string `validate:"required,email,max=320"`
	Password string `validate:"required,min=8,max=72"`
	Confirm  string `validate:"required,eqfield=Password"`
}

type formPageData struct {
	Form   any
	Errors map[string]string
}

func (h *Handler) showSignIn(w http.ResponseWriter, r *http.Request) {
	form := signInForm{RedirectURL: r.URL.Query().Get("redirect_url")}
	h.render(w, r, http.StatusOK, "pages/sign_in.html", "SignIn.title", formPageData{Form: form})
}

func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	msgs := i18n.MessagesFromContext(r.Context())
	form := signInForm{
		Email:       r.PostFormValue("email"),
		Password:    r.PostFormValue("password"),
		RedirectURL: r.PostFormValue("redirect_url"),
	}
	errs := h.validate(form, msgs)
	if len(errs) == 0 {
		user, err := h.service.Authenticate(r.Context(), form.Email, form.Password)
		if err == nil {
			if err := h.startSession(r, user); err != nil {
				h.logger.Error("start session", slog.Any("error", err))
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			shared.SessionFromContext(r.Context()).AddFlash(shared.FlashMessage{Kind: "success", Message: msgs.Get("SignIn.welcome")})
			http.Redirect(w, r, SafeRedirect(form.RedirectURL, h.home(r)), http.StatusSeeOther)
			return
		}
		errs["general"] = msgs.Get("SignIn.invalid")
	}
	form.Password = ""
	h.render(w, r, http.StatusBadRequest, "pages/sign_in.html", "SignIn.title", formPageData{Form: form, Errors: errs})
}

func (h *Handler) showSignUp(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "pages/sign_up.html", "SignUp.title", formPageData{Form: signUpForm{}})
}

func (h *Handler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	msgs := i18n.MessagesFromContext(r.Context())
	form := signUpForm{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
		Confirm:  r.PostFormValue("confirm"),
	}
	errs := h.validate(form, msgs)
	if _, ok := errs["Confirm"]; ok {
		errs["Confirm"] = msgs.Get("SignUp.mismatch")
	}
	if len(errs) == 0 {
		user, err := h.service.SignUp(r.Context(), form.Email, form.Password)
		switch {
		case err == nil:
			if err := h.startSession(r, user); err != nil {
				h.logger.Error("start session", slog.Any("error", err))
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			shared.SessionFromContext(r.Context()).AddFlash(shared.FlashMessage{Kind: "success", Message: msgs.Get("SignUp.welcome")})
			http.Redirect(w, r, h.home(r), http.StatusSeeOther)
			return
		case errors.Is(err, shared.ErrEmailTaken):
			errs["Email"] = msgs.Get("SignUp.emailTaken")
		default:
			h.logger.Error("sign up", slog.Any("error", err))
			errs["general"] = msgs.Get("Errors.generic")
		}
	}
	form.Password, form.Confirm = "", ""
	h.render(w, r, http.StatusBadRequest, "pages/sign_up.html", "SignUp.title", formPageData{Form: form, Errors: errs})
}

func (h *Handler) handleSignOut(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		if err := h.service.RemoveSession(r.Context(), sess.ID); err != nil {
			h.logger.Warn("remove session", slog.Any("error", err))
		}
		h.sessionManager.Destroy(sess)
	}
	http.Redirect(w, r, SignInPath(i18n.LocaleFromContext(r.Context()), ""), http.StatusSeeOther)
}

// startSession rotates the session id, binds the user and records the login.
func (h *Handler) startSession(r *http.Request, user *User) error {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return shared.ErrSessionMissing
	}
	if err := h.sessionManager.Renew(r.Context(), sess); err != nil {
		return err
	}
	sess.SetUser(strconv.FormatInt(user.ID, 10), user.Email)
	sess.Delete(shared.CSRFSessionKey)
	expiresAt := time.Now().Add(h.sessionManager.TTL())
	if err := h.service.RegisterSession(r.Context(), sess.ID, user.ID, expiresAt, r.RemoteAddr, r.UserAgent()); err != nil {
		h.logger.Warn("register session", slog.Any("error", err))
	}
	return nil
}

func (h *Handler) validate(form any, msgs i18n.Messages) map[string]string {
	errs := make(map[string]string)
	if err := h.validator.Struct(form); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs[fe.Field()] = msgs.Get("Errors.validation")
			}
		}
	}
	return errs
}

func (h *Handler) home(r *http.Request) string {
	return "/" + string(i18n.LocaleFromContext(r.Context()))
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name, titleKey string, data formPageData) {
	csrfToken, err := h.csrfManager.EnsureToken(r.Context(), shared.SessionFromContext(r.Context()))
	if err != nil {
		h.logger.Warn("csrf token", slog.Any("error", err))
	}
	if err := h.templates.Render(w, status, name, view.PageData(r, csrfToken, titleKey, data)); err != nil {
		h.logger.Error("render auth page", slog.String("template", name), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
