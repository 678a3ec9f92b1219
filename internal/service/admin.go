package service

import (
	"github.com/wb-go/wbf/ginext"

	"matchmaker/internal/dto"
	"matchmaker/internal/model"
	"matchmaker/internal/stats"
)

func (s *service) PendingEvents(ctx *ginext.Context) {
	events, err := s.repo.ListEvents(ctx)
	if err != nil {
		s.fail(ctx, err, "failed to list events")
		return
	}
	pending := make([]model.Event, 0)
	for _, e := range events {
		if e.Status == model.StatusPending {
			pending = append(pending, e)
		}
	}
	dto.SuccessResponse(ctx, pending)
}

func (s *service) ApproveEvent(ctx *ginext.Context) {
	event, err := s.repo.ApproveEventTx(ctx, ctx.Param("id"))
	if err != nil {
		s.fail(ctx, err, "failed to approve event")
		return
	}
	s.log.Info().Str("event_id", event.ID).Msg("event approved")
	dto.SuccessResponse(ctx, event)
}

// RejectEvent removes a submission the same way a cancellation does.
func (s *service) RejectEvent(ctx *ginext.Context) {
	s.removeEvent(ctx, ctx.Param("id"))
}

func (s *service) AdminStats(ctx *ginext.Context) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		s.fail(ctx, err, "failed to list users")
		return
	}
	events, err := s.repo.ListEvents(ctx)
	if err != nil {
		s.fail(ctx, err, "failed to list events")
		return
	}
	st := stats.ForAdmin(users, events)
	st.RecentUsers = dto.PublicUsers(st.RecentUsers)
	dto.SuccessResponse(ctx, st)
}

func (s *service) ListUsers(ctx *ginext.Context) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		s.fail(ctx, err, "failed to list users")
		return
	}
	dto.SuccessResponse(ctx, dto.PublicUsers(users))
}
