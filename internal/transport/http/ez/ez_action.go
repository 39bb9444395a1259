// Package ez registers typed actions on gin groups: bind the input, run the
// handler, write the envelope.
package ez

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"user-account-service/internal/domain"
	mdw "user-account-service/internal/transport/http/middleware"
	resp "user-account-service/internal/transport/http/response"
)

type EZ struct{ g *gin.RouterGroup }

func New(g *gin.RouterGroup) EZ { return EZ{g: g} }

type Binder string

const (
	BindJSON  Binder = "json"
	BindQuery Binder = "query"
	BindNone  Binder = "none" // read c.Param yourself
)

// AErr is a transport error carrying its envelope code. Err, when set, is
// attached to the request for the access log and never shown to clients.
type AErr struct {
	Code int
	Msg  string
	Err  error
}

func (e *AErr) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "action error"
}

func (e *AErr) Unwrap() error { return e.Err }

func BadRequest(msg string) error   { return &AErr{Code: resp.CodeBadRequest, Msg: msg} }
func Unauthorized(msg string) error { return &AErr{Code: resp.CodeUnauthorized, Msg: msg} }
func Forbidden(msg string) error    { return &AErr{Code: resp.CodeForbidden, Msg: msg} }
func NotFound(msg string) error     { return &AErr{Code: resp.CodeNotFound, Msg: msg} }
func Conflict(msg string) error     { return &AErr{Code: resp.CodeConflict, Msg: msg} }
func Internal(msg string, err error) error {
	return &AErr{Code: resp.CodeServerError, Msg: msg, Err: err}
}

var domainCodes = []struct {
	err  error
	code int
}{
	{domain.ErrInvalidToken, resp.CodeUnauthorized},
	{domain.ErrInvalidCredentials, resp.CodeUnauthorized},
	{domain.ErrUserNotFound, resp.CodeNotFound},
	{domain.ErrRoleNotFound, resp.CodeNotFound},
	{domain.ErrAdminRequired, resp.CodeForbidden},
	{domain.ErrAccessDenied, resp.CodeForbidden},
	{domain.ErrIsActiveForbidden, resp.CodeForbidden},
	{domain.ErrEmailExists, resp.CodeConflict},
	{domain.ErrInvalidInput, resp.CodeBadRequest},
}

// FromError classifies err. Domain sentinels keep their own message; anything
// unrecognised becomes an opaque 500.
func FromError(err error) *AErr {
	var ae *AErr
	if errors.As(err, &ae) {
		return ae
	}
	for _, dc := range domainCodes {
		if errors.Is(err, dc.err) {
			return &AErr{Code: dc.code, Msg: dc.err.Error()}
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &AErr{Code: resp.CodeTimeout, Msg: "timeout", Err: err}
	}
	return &AErr{Code: resp.CodeServerError, Msg: "internal error", Err: err}
}

// Fail writes err as an envelope with the matching HTTP status.
func Fail(c *gin.Context, err error) {
	ae := FromError(err)
	if ae.Err != nil {
		_ = c.Error(ae.Err)
	}
	resp.Abort(c, ae.Code, ae.Error())
}

// Action is one endpoint: I is the bound input, O the data payload.
type Action[I any, O any] struct {
	Method  string
	Path    string
	Binder  Binder
	Auth    bool // requires an identity set by mdw.RequireIdentity
	Status  int  // success status, 200 when zero
	Handler func(c *gin.Context, in *I) (O, error)
}

func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	status := a.Status
	if status == 0 {
		status = http.StatusOK
	}
	h := func(c *gin.Context) {
		if a.Auth && mdw.Identity(c) == nil {
			resp.Abort(c, resp.CodeUnauthorized, "unauthorized")
			return
		}

		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			bindErr = c.ShouldBindJSON(&in)
		case BindQuery:
			bindErr = c.ShouldBindQuery(&in)
		}
		if bindErr != nil {
			resp.Abort(c, resp.CodeBadRequest, bindErr.Error())
			return
		}

		out, err := a.Handler(c, &in)
		if err != nil {
			Fail(c, err)
			return
		}
		c.JSON(status, resp.New(resp.CodeOK, resp.CodeMsgMap[resp.CodeOK], out))
	}

	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, h)
	case http.MethodPut:
		e.g.PUT(a.Path, h)
	case http.MethodPatch:
		e.g.PATCH(a.Path, h)
	case http.MethodDelete:
		e.g.DELETE(a.Path, h)
	default:
		e.g.POST(a.Path, h)
	}
}
