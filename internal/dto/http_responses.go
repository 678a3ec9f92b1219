package dto

import (
	"net/http"

	"github.com/wb-go/wbf/ginext"
)

const (
	FieldBadFormat     = "FIELD_BADFORMAT"
	FieldIncorrect     = "FIELD_INCORRECT"
	ServiceUnavailable = "SERVICE_UNAVAILABLE"
	InternalError      = "Service is currently unavailable. Please try again later."

	Unauthorized     = "UNAUTHORIZED"
	Forbidden        = "FORBIDDEN"
	EventNotFound    = "EVENT_NOT_FOUND"
	UserNotFound     = "USER_NOT_FOUND"
	EventFull        = "EVENT_FULL"
	EventNotApproved = "EVENT_NOT_APPROVED"
	AlreadySignedUp  = "ALREADY_REGISTERED"
	EmailTaken       = "EMAIL_TAKEN"
	NotPending       = "APPLICATION_NOT_PENDING"
	BadCredentials   = "BAD_CREDENTIALS"
)

type Response struct {
	Status string `json:"status"`
	Error  *Error `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

type Error struct {
	Code string `json:"code"`
	Desc string `json:"desc"`
}

func ErrorResponse(c *ginext.Context, status int, code, desc string) {
	c.AbortWithStatusJSON(status, Response{
		Status: "error",
		Error: &Error{
			Code: code,
			Desc: desc,
		},
	})
}

func BadResponseError(c *ginext.Context, code, desc string) {
	ErrorResponse(c, http.StatusBadRequest, code, desc)
}

func InternalServerError(c *ginext.Context) {
	ErrorResponse(c, http.StatusInternalServerError, ServiceUnavailable, InternalError)
}

func FieldBadFormatError(c *ginext.Context, fieldName string) {
	BadResponseError(c, FieldBadFormat, "Field '"+fieldName+"' has bad format")
}

func FieldIncorrectError(c *ginext.Context, fieldName string) {
	BadResponseError(c, FieldIncorrect, "Field '"+fieldName+"' is incorrect")
}

func UnauthorizedError(c *ginext.Context, desc string) {
	ErrorResponse(c, http.StatusUnauthorized, Unauthorized, desc)
}

func ForbiddenError(c *ginext.Context) {
	ErrorResponse(c, http.StatusForbidden, Forbidden, "You are not allowed to perform this action")
}

func EventNotFoundError(c *ginext.Context) {
	ErrorResponse(c, http.StatusNotFound, EventNotFound, "Event not found")
}

func UserNotFoundError(c *ginext.Context) {
	ErrorResponse(c, http.StatusNotFound, UserNotFound, "User not found")
}

func EventFullError(c *ginext.Context) {
	ErrorResponse(c, http.StatusConflict, EventFull, "Event has reached its maximum capacity")
}

func EventNotApprovedError(c *ginext.Context) {
	BadResponseError(c, EventNotApproved, "Event is awaiting admin approval")
}

func AlreadyRegisteredError(c *ginext.Context) {
	ErrorResponse(c, http.StatusConflict, AlreadySignedUp, "You have already signed up for this event")
}

func EmailTakenError(c *ginext.Context) {
	ErrorResponse(c, http.StatusConflict, EmailTaken, "An account with this email already exists")
}

func NotPendingError(c *ginext.Context) {
	BadResponseError(c, NotPending, "There is no pending application for this user")
}

func BadCredentialsError(c *ginext.Context) {
	ErrorResponse(c, http.StatusUnauthorized, BadCredentials, "Invalid email or password")
}

func SuccessResponse(c *ginext.Context, data any) {
	c.JSON(http.StatusOK, Response{
		Status: "ok",
		Data:   data,
	})
}

func SuccessCreatedResponse(c *ginext.Context, data any) {
	c.JSON(http.StatusCreated, Response{
		Status: "ok",
		Data:   data,
	})
}
