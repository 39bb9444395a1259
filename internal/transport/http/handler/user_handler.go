package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"user-account-service/internal/domain"
	"user-account-service/internal/service"
	"user-account-service/internal/transport/http/ez"
	mdw "user-account-service/internal/transport/http/middleware"
)

type UserService interface {
	GetUser(ctx context.Context, id string, requester *domain.User) (*service.UserSnapshot, error)
	ListUsers(ctx context.Context, p service.ListParams, requester *domain.User) (*service.UserListResponse, error)
	UpdateUser(ctx context.Context, id string, upd service.UserUpdate, requester *domain.User) (*domain.User, error)
	DeleteUser(ctx context.Context, id string, requester *domain.User) error
}

var validate = validator.New()

type UserHandler struct{ svc UserService }

func NewUserHandler(svc UserService) *UserHandler { return &UserHandler{svc: svc} }

func (h *UserHandler) Priority() int { return 20 }

type listQuery struct {
	Page int `form:"page,default=1"  binding:"min=1"`
	Size int `form:"size,default=10" binding:"min=1,max=100"`
}

type userOut struct {
	ID       string  `json:"id"`
	Email    string  `json:"email"`
	Name     *string `json:"name"`
	IsActive bool    `json:"is_active"`
	Role     string  `json:"role"`
}

// checkUpdate validates the fields present in upd; absent fields are skipped.
func checkUpdate(upd *service.UserUpdate) error {
	if v, ok := upd.Email.Get(); ok {
		if err := validate.Var(v, "required,email,max=255"); err != nil {
			return ez.BadRequest("email: invalid address")
		}
	}
	if v, ok := upd.Name.Get(); ok {
		if err := validate.Var(v, "max=100"); err != nil {
			return ez.BadRequest("name: at most 100 characters")
		}
	}
	return nil
}

func (h *UserHandler) MountAPI(_, authed *gin.RouterGroup) {
	e := ez.New(authed.Group("/users"))

	ez.RegisterAction(e, ez.Action[listQuery, *service.UserListResponse]{
		Method: http.MethodGet,
		Path:   "",
		Binder: ez.BindQuery,
		Auth:   true,
		Handler: func(c *gin.Context, in *listQuery) (*service.UserListResponse, error) {
			return h.svc.ListUsers(c.Request.Context(),
				service.ListParams{Page: in.Page, Size: in.Size}, mdw.Identity(c))
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, *service.UserSnapshot]{
		Method: http.MethodGet,
		Path:   "/:id",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (*service.UserSnapshot, error) {
			return h.svc.GetUser(c.Request.Context(), c.Param("id"), mdw.Identity(c))
		},
	})

	ez.RegisterAction(e, ez.Action[service.UserUpdate, userOut]{
		Method: http.MethodPut,
		Path:   "/:id",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *service.UserUpdate) (userOut, error) {
			if err := checkUpdate(in); err != nil {
				return userOut{}, err
			}
			u, err := h.svc.UpdateUser(c.Request.Context(), c.Param("id"), *in, mdw.Identity(c))
			if err != nil {
				return userOut{}, err
			}
			return userOut{ID: u.ID, Email: u.Email, Name: u.Name, IsActive: u.IsActive, Role: u.Role.Name}, nil
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, messageOut]{
		Method: http.MethodDelete,
		Path:   "/:id",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (messageOut, error) {
			id := c.Param("id")
			if err := h.svc.DeleteUser(c.Request.Context(), id, mdw.Identity(c)); err != nil {
				return messageOut{}, err
			}
			return messageOut{Message: fmt.Sprintf("user %s deleted", id)}, nil
		},
	})
}
