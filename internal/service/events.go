package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/wb-go/wbf/ginext"

	"matchmaker/internal/auth"
	"matchmaker/internal/dto"
	"matchmaker/internal/filter"
	"matchmaker/internal/geo"
	"matchmaker/internal/model"
	"matchmaker/internal/repo"
	"matchmaker/pkg/validator"
)

var errNotManager = errors.New("caller does not manage the event")

type fieldError struct {
	field  string
	format bool
}

func (e *fieldError) Error() string { return "bad field " + e.field }

// parseFilters reads filter criteria and the caller's position from the query string.
// A position that cannot be resolved is reported in locErr and disables the radius.
func parseFilters(ctx *ginext.Context) (f model.Filters, loc *model.Coordinates, locErr string, err error) {
	f.Keyword = strings.TrimSpace(ctx.Query("keyword"))

	f.Date = ctx.DefaultQuery("date", model.DateAny)
	if !filter.ValidBucket(f.Date) {
		return f, nil, "", &fieldError{field: "date"}
	}

	f.Categories = []model.Category{}
	for _, raw := range ctx.QueryArray("category") {
		for _, name := range strings.Split(raw, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			c := model.Category(name)
			if !c.Valid() {
				return f, nil, "", &fieldError{field: "category"}
			}
			f.Categories = append(f.Categories, c)
		}
	}

	if raw := ctx.Query("distance"); raw != "" {
		d, perr := strconv.ParseFloat(raw, 64)
		if perr != nil {
			return f, nil, "", &fieldError{field: "distance", format: true}
		}
		if d < 0 {
			return f, nil, "", &fieldError{field: "distance"}
		}
		f.Distance = d
	}

	if raw := ctx.Query("micro"); raw != "" {
		micro, perr := strconv.ParseBool(raw)
		if perr != nil {
			return f, nil, "", &fieldError{field: "micro", format: true}
		}
		f.IsMicro = micro
	}

	if f.Distance == 0 {
		return f, nil, "", nil
	}

	var reported *model.Coordinates
	latRaw, lngRaw := ctx.Query("lat"), ctx.Query("lng")
	if latRaw != "" || lngRaw != "" {
		lat, perr := strconv.ParseFloat(latRaw, 64)
		if perr != nil {
			return f, nil, "", &fieldError{field: "lat", format: true}
		}
		lng, perr := strconv.ParseFloat(lngRaw, 64)
		if perr != nil {
			return f, nil, "", &fieldError{field: "lng", format: true}
		}
		reported = &model.Coordinates{Lat: lat, Lng: lng}
	}

	pos, gerr := geo.Locate(geo.Permission(ctx.Query("geo")), reported)
	if gerr != nil {
		f.Distance = 0
		return f, nil, gerr.Error(), nil
	}
	return f, &pos, "", nil
}

func (s *service) ListEvents(ctx *ginext.Context) {
	f, loc, locErr, err := parseFilters(ctx)
	var fe *fieldError
	if errors.As(err, &fe) {
		if fe.format {
			dto.FieldBadFormatError(ctx, fe.field)
		} else {
			dto.FieldIncorrectError(ctx, fe.field)
		}
		return
	}
	if locErr != "" {
		s.log.Info().Str("reason", locErr).Msg("distance filter disabled")
	}

	events, err := s.repo.ListEvents(ctx)
	if err != nil {
		s.fail(ctx, err, "failed to list events")
		return
	}

	dto.SuccessResponse(ctx, dto.EventsResponse{
		Events:        filter.Apply(events, f, loc, s.now()),
		Filters:       f,
		LocationError: locErr,
	})
}

func (s *service) GetEvent(ctx *ginext.Context) {
	event, err := s.repo.GetEvent(ctx, ctx.Param("id"))
	if err != nil {
		s.fail(ctx, err, "failed to get event")
		return
	}
	dto.SuccessResponse(ctx, event)
}

func (s *service) CreateEvent(ctx *ginext.Context) {
	organizer, ok := s.caller(ctx)
	if !ok {
		return
	}

	var req dto.EventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		s.log.Error().Err(err).Msg("failed to parse create event request")
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	event := req.ToModel(*organizer)
	if err := s.repo.AddEvent(ctx, event); err != nil {
		s.fail(ctx, err, "failed to create event")
		return
	}
	s.log.Info().Str("event_id", event.ID).Str("organizer_id", organizer.ID).Msg("event submitted for approval")

	dto.SuccessCreatedResponse(ctx, event)
}

func (s *service) UpdateEvent(ctx *ginext.Context) {
	user, ok := s.caller(ctx)
	if !ok {
		return
	}
	event, err := s.repo.GetEvent(ctx, ctx.Param("id"))
	if err != nil {
		s.fail(ctx, err, "failed to get event")
		return
	}
	if !canManage(user, event) {
		dto.ForbiddenError(ctx)
		return
	}

	var req dto.EventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	updated, err := s.repo.UpdateEventTx(ctx, event.ID, func(e *model.Event) error {
		if !canManage(user, e) {
			return errNotManager
		}
		req.Apply(e)
		return nil
	})
	if errors.Is(err, errNotManager) {
		dto.ForbiddenError(ctx)
		return
	}
	if err != nil {
		s.fail(ctx, err, "failed to update event")
		return
	}
	dto.SuccessResponse(ctx, updated)
}

func (s *service) DeleteEvent(ctx *ginext.Context) {
	user, ok := s.caller(ctx)
	if !ok {
		return
	}
	event, err := s.repo.GetEvent(ctx, ctx.Param("id"))
	if err != nil {
		s.fail(ctx, err, "failed to get event")
		return
	}
	if !canManage(user, event) {
		dto.ForbiddenError(ctx)
		return
	}
	s.removeEvent(ctx, event.ID)
}

// removeEvent deletes the event, fans out the cancellation notices and responds.
func (s *service) removeEvent(ctx *ginext.Context, id string) {
	notes, err := s.repo.DeleteEvent(ctx, id)
	if err != nil {
		s.fail(ctx, err, "failed to delete event")
		return
	}
	s.log.Info().Str("event_id", id).Int("notified", len(notes)).Msg("event deleted")
	s.deliver(ctx.Request.Context(), notes...)

	dto.SuccessResponse(ctx, dto.DeleteEventResponse{EventID: id, Notifications: notes})
}

func (s *service) SignUp(ctx *ginext.Context) {
	userID := ctx.GetString(auth.UserIDKey)
	eventID := ctx.Param("id")

	var req dto.SignupRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	outcome, err := s.repo.RegisterForEventTx(ctx, eventID, userID, req.Role)
	if err != nil {
		s.fail(ctx, err, "failed to register for event")
		return
	}
	s.log.Info().Str("event_id", eventID).Str("user_id", userID).Str("outcome", outcome).Msg("event sign-up")

	event, err := s.repo.GetEvent(ctx, eventID)
	if err != nil {
		s.fail(ctx, err, "failed to reload event")
		return
	}
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		s.fail(ctx, err, "failed to reload user")
		return
	}
	if outcome == repo.OutcomeRegistered {
		s.schedule(ctx.Request.Context(), *event, userID, false)
	}

	dto.SuccessCreatedResponse(ctx, dto.RegisterResult{
		Outcome: outcome,
		Event:   *event,
		User:    dto.PublicUser(*user),
	})
}

func (s *service) ApproveVolunteer(ctx *ginext.Context) {
	s.reviewVolunteer(ctx, true)
}

func (s *service) DenyVolunteer(ctx *ginext.Context) {
	s.reviewVolunteer(ctx, false)
}

func (s *service) reviewVolunteer(ctx *ginext.Context, approve bool) {
	reviewer, ok := s.caller(ctx)
	if !ok {
		return
	}
	event, err := s.repo.GetEvent(ctx, ctx.Param("id"))
	if err != nil {
		s.fail(ctx, err, "failed to get event")
		return
	}
	if !canManage(reviewer, event) {
		dto.ForbiddenError(ctx)
		return
	}

	volunteerID := ctx.Param("userId")
	note, err := s.repo.ReviewVolunteerTx(ctx, event.ID, volunteerID, approve)
	if err != nil {
		s.fail(ctx, err, "failed to review volunteer")
		return
	}
	s.log.Info().
		Str("event_id", event.ID).
		Str("user_id", volunteerID).
		Bool("approved", approve).
		Msg("volunteer application reviewed")

	rctx := ctx.Request.Context()
	s.deliver(rctx, *note)

	event, err = s.repo.GetEvent(ctx, event.ID)
	if err != nil {
		s.fail(ctx, err, "failed to reload event")
		return
	}
	if approve {
		s.schedule(rctx, *event, volunteerID, true)
	}
	dto.SuccessResponse(ctx, event)
}

func (s *service) Applicants(ctx *ginext.Context) {
	user, ok := s.caller(ctx)
	if !ok {
		return
	}
	organizerID := user.ID
	if user.Role == model.RoleAdmin {
		organizerID = ""
	}

	applicants, err := s.repo.PendingApplicants(ctx, organizerID)
	if err != nil {
		s.fail(ctx, err, "failed to list applicants")
		return
	}
	for i := range applicants {
		applicants[i].User = dto.PublicUser(applicants[i].User)
	}
	dto.SuccessResponse(ctx, applicants)
}
