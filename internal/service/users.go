package service

import (
	"errors"
	"fmt"

	"github.com/wb-go/wbf/ginext"

	"matchmaker/internal/auth"
	"matchmaker/internal/dto"
	"matchmaker/internal/filter"
	"matchmaker/internal/model"
	"matchmaker/internal/repo"
	"matchmaker/internal/stats"
	"matchmaker/pkg/validator"
)

func (s *service) Register(ctx *ginext.Context) {
	var req dto.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to hash password")
		dto.InternalServerError(ctx)
		return
	}
	user := req.ToModel()
	user.PasswordHash = hash

	if err := s.repo.AddUser(ctx, user); err != nil {
		s.fail(ctx, err, "failed to add user")
		return
	}
	s.log.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("user registered")

	s.startSession(ctx, user, true)
}

func (s *service) Login(ctx *ginext.Context) {
	var req dto.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if errors.Is(err, repo.ErrUserNotFound) {
		dto.BadCredentialsError(ctx)
		return
	}
	if err != nil {
		s.fail(ctx, err, "failed to look up user")
		return
	}
	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		dto.BadCredentialsError(ctx)
		return
	}

	s.startSession(ctx, user, false)
}

func (s *service) startSession(ctx *ginext.Context, user *model.User, created bool) {
	token, err := s.iss.Issue(*user)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to issue token")
		dto.InternalServerError(ctx)
		return
	}
	if err := s.repo.SetCurrentUser(ctx, user); err != nil {
		s.log.Error().Err(err).Msg("failed to store current user")
		dto.InternalServerError(ctx)
		return
	}

	resp := dto.AuthResponse{Token: token, User: dto.PublicUser(*user)}
	if created {
		dto.SuccessCreatedResponse(ctx, resp)
		return
	}
	dto.SuccessResponse(ctx, resp)
}

func (s *service) Logout(ctx *ginext.Context) {
	if err := s.repo.ClearCurrentUser(ctx); err != nil {
		s.log.Error().Err(err).Msg("failed to clear current user")
		dto.InternalServerError(ctx)
		return
	}
	dto.SuccessResponse(ctx, map[string]bool{"loggedOut": true})
}

func (s *service) GetMe(ctx *ginext.Context) {
	user, ok := s.caller(ctx)
	if !ok {
		return
	}
	dto.SuccessResponse(ctx, dto.PublicUser(*user))
}

func (s *service) UpdateMe(ctx *ginext.Context) {
	user, ok := s.caller(ctx)
	if !ok {
		return
	}

	var req dto.UpdateProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	updated, err := s.repo.UpdateUserTx(ctx, user.ID, func(u *model.User) error {
		req.Apply(u)
		return nil
	})
	if err != nil {
		s.fail(ctx, err, "failed to update profile")
		return
	}
	dto.SuccessResponse(ctx, dto.PublicUser(*updated))
}

func (s *service) MyStats(ctx *ginext.Context) {
	user, ok := s.caller(ctx)
	if !ok {
		return
	}
	events, err := s.repo.ListEvents(ctx)
	if err != nil {
		s.fail(ctx, err, "failed to list events")
		return
	}
	dto.SuccessResponse(ctx, stats.ForVolunteer(*user, events, s.now()))
}

func (s *service) MyNotifications(ctx *ginext.Context) {
	notes, err := s.repo.ListNotificationsForUser(ctx, ctx.GetString(auth.UserIDKey))
	if err != nil {
		s.fail(ctx, err, "failed to list notifications")
		return
	}
	dto.SuccessResponse(ctx, notes)
}

func (s *service) ReadNotifications(ctx *ginext.Context) {
	userID := ctx.GetString(auth.UserIDKey)
	if err := s.repo.MarkNotificationsRead(ctx, userID); err != nil {
		s.fail(ctx, err, "failed to mark notifications read")
		return
	}
	notes, err := s.repo.ListNotificationsForUser(ctx, userID)
	if err != nil {
		s.fail(ctx, err, "failed to list notifications")
		return
	}
	dto.SuccessResponse(ctx, notes)
}

func (s *service) Recommendations(ctx *ginext.Context) {
	user, ok := s.caller(ctx)
	if !ok {
		return
	}
	events, err := s.repo.ListEvents(ctx)
	if err != nil {
		s.fail(ctx, err, "failed to list events")
		return
	}
	upcoming := filter.Apply(events, model.Filters{}, nil, s.now())
	dto.SuccessResponse(ctx, s.rec.Recommend(ctx.Request.Context(), *user, upcoming))
}
