package auth

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

// Success messages
const (
	MsgAccountConfirmed = "Account was successfully confirmed!"
	MsgAccountUpdated   = "User was successfully updated!"
	MsgAccountDeleted   = "Account was successfully deleted"
	MsgLoggedIn         = "Logged in successfully"
)

// AccountService is the account lifecycle used by the HTTP layer
type AccountService interface {
	Register(ctx context.Context, in RegisterInput) (*RegisterResult, error)
	Confirm(ctx context.Context, encodedID string) (*User, error)
	Details(ctx context.Context, user *User) (*DetailsResult, error)
	Update(ctx context.Context, id string, in UpdateInput) (*User, error)
	Delete(ctx context.Context, id string) error
}

// LoginService is the credential flow used by the HTTP layer
type LoginService interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Logout(ctx context.Context) string
	VerifyToken(ctx context.Context, raw string) (*User, error)
}

type ControllerRoutes struct {
	Register string
	Confirm  string
	Details  string
	Account  string
	Login    string
	Logout   string
}

type Controller struct {
	Debug     bool
	Logger    Logger
	Accounts  AccountService
	Auth      LoginService
	Presenter *ErrorPresenter
	Routes    *ControllerRoutes
}

type ControllerOption func(*Controller) *Controller

func WithControllerAccounts(s AccountService) ControllerOption {
	return func(c *Controller) *Controller {
		c.Accounts = s
		return c
	}
}

func WithControllerAuth(s LoginService) ControllerOption {
	return func(c *Controller) *Controller {
		c.Auth = s
		return c
	}
}

func WithControllerPresenter(p *ErrorPresenter) ControllerOption {
	return func(c *Controller) *Controller {
		if p != nil {
			c.Presenter = p
		}
		return c
	}
}

func WithControllerLogger(l Logger) ControllerOption {
	return func(c *Controller) *Controller {
		if l != nil {
			c.Logger = l
		}
		return c
	}
}

// WithControllerDebug pretty prints sanitized results
func WithControllerDebug(debug bool) ControllerOption {
	return func(c *Controller) *Controller {
		c.Debug = debug
		return c
	}
}

func NewController(opts ...ControllerOption) *Controller {
	c := &Controller{
		Logger: defLogger{},
		Routes: &ControllerRoutes{
			Register: "/register",
			Confirm:  "/confirm/:id",
			Details:  "/details",
			Account:  "/:id",
			Login:    "/login",
			Logout:   "/logout",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Presenter == nil {
		c.Presenter = NewErrorPresenter(false, c.Logger)
	}

	return c
}

// RegisterAccountRoutes mounts the account routes on r, usually the /account group
func RegisterAccountRoutes(r fiber.Router, opts ...ControllerOption) *Controller {
	c := NewController(opts...)
	if c.Accounts == nil {
		panic("Missing AccountService in account controller...")
	}
	if c.Auth == nil {
		panic("Missing LoginService in account controller...")
	}

	r.Post(c.Routes.Register, c.RegisterPost).Name("account.register")
	r.Get(c.Routes.Confirm, c.ConfirmGet).Name("account.confirm")
	r.Get(c.Routes.Details, ProtectedRoute(c.Auth, c.Presenter), c.DetailsGet).Name("account.details")
	r.Patch(c.Routes.Account, c.AccountPatch).Name("account.update")
	r.Delete(c.Routes.Account, c.AccountDelete).Name("account.delete")

	return c
}

// RegisterAuthRoutes mounts login and logout on r, usually the /auth group
func RegisterAuthRoutes(r fiber.Router, opts ...ControllerOption) *Controller {
	c := NewController(opts...)
	if c.Auth == nil {
		panic("Missing LoginService in auth controller...")
	}

	r.Post(c.Routes.Login, c.LoginPost).Name("auth.login")
	r.Post(c.Routes.Logout, c.LogoutPost).Name("auth.logout")

	return c
}

// RegisterRequest payload
type RegisterRequest struct {
	Email           string `json:"email" form:"email"`
	Name            string `json:"name" form:"name"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirmPassword" form:"confirmPassword"`
}

// Validate will run validation rules
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Name, validation.Required),
		validation.Field(&r.Password, validation.Required),
		validation.Field(&r.ConfirmPassword, validation.Required),
	)
}

// UpdateRequest payload. Only these fields can be written by PATCH.
type UpdateRequest struct {
	Email string `json:"email" form:"email"`
	Name  string `json:"name" form:"name"`
}

// Validate will run validation rules
func (r UpdateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Name, validation.Required),
	)
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *Controller) RegisterPost(c *fiber.Ctx) error {
	payload := new(RegisterRequest)
	if err := bindPayload(c, payload); err != nil {
		return a.Presenter.Present(c, err)
	}

	if err := payload.Validate(); err != nil {
		return a.Presenter.Present(c, WrapSentinel(ErrMissingFields, err, nil))
	}

	result, err := a.Accounts.Register(c.UserContext(), RegisterInput{
		Email:           payload.Email,
		Name:            payload.Name,
		Password:        payload.Password,
		ConfirmPassword: payload.ConfirmPassword,
	})
	if err != nil {
		return a.Presenter.Present(c, err)
	}

	a.debug("account registered", result.User)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": result.Message,
		"user":    result.User,
	})
}

// ConfirmGet renders every failure as a 500 so the response does not tell
// whether the id exists
func (a *Controller) ConfirmGet(c *fiber.Ctx) error {
	user, err := a.Accounts.Confirm(c.UserContext(), c.Params("id"))
	if err != nil {
		return a.Presenter.Present(c, err, MaskAll(fiber.StatusInternalServerError, msgConfirmFailed))
	}

	a.debug("account confirmed", user)

	return c.JSON(fiber.Map{
		"message": MsgAccountConfirmed,
		"user":    user,
	})
}

func (a *Controller) DetailsGet(c *fiber.Ctx) error {
	user, ok := GetFiberUser(c, DefaultContextKey)
	if !ok {
		return a.Presenter.Present(c, ErrInvalidToken)
	}

	details, err := a.Accounts.Details(c.UserContext(), user)
	if err != nil {
		return a.Presenter.Present(c, err)
	}

	return c.JSON(details)
}

func (a *Controller) AccountPatch(c *fiber.Ctx) error {
	payload := new(UpdateRequest)
	if err := bindPayload(c, payload); err != nil {
		return a.Presenter.Present(c, err)
	}

	if err := payload.Validate(); err != nil {
		return a.Presenter.Present(c, WrapSentinel(ErrBlankProfile, err, nil))
	}

	user, err := a.Accounts.Update(c.UserContext(), c.Params("id"), UpdateInput{
		Email: payload.Email,
		Name:  payload.Name,
	})
	if err != nil {
		return a.Presenter.Present(c, err, OverrideStatus(goerrors.CategoryConflict, fiber.StatusBadRequest))
	}

	a.debug("account updated", user)

	return c.JSON(fiber.Map{
		"message": MsgAccountUpdated,
		"user":    user,
	})
}

func (a *Controller) AccountDelete(c *fiber.Ctx) error {
	if err := a.Accounts.Delete(c.UserContext(), c.Params("id")); err != nil {
		return a.Presenter.Present(c, err, MaskAll(fiber.StatusInternalServerError, msgDeleteFailed))
	}

	return c.JSON(fiber.Map{"message": MsgAccountDeleted})
}

func (a *Controller) LoginPost(c *fiber.Ctx) error {
	payload := new(LoginRequest)
	if err := bindPayload(c, payload); err != nil {
		return a.Presenter.Present(c, err)
	}

	if err := payload.Validate(); err != nil {
		return a.Presenter.Present(c, WrapSentinel(ErrIncorrectCredentials, err, nil))
	}

	result, err := a.Auth.Login(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		return a.Presenter.Present(c, err)
	}

	a.debug("logged in", result.User)

	return c.JSON(fiber.Map{
		"user":    result.User,
		"token":   result.Token,
		"message": MsgLoggedIn,
	})
}

func (a *Controller) LogoutPost(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": a.Auth.Logout(c.UserContext())})
}

func (a *Controller) debug(msg string, payload any) {
	if !a.Debug {
		return
	}
	a.Logger.Debug(msg, "payload", print.MaybePrettyJSON(payload))
}

// bindPayload parses the body into out. An empty body leaves out zeroed so
// required field validation reports it.
func bindPayload(c *fiber.Ctx, out any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(out); err != nil {
		return WrapSentinel(ErrInvalidPayload, err, nil)
	}
	return nil
}
