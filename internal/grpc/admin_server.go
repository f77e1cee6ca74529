package grpcserver

import (
	"context"
	"encoding/json"
	"errors"
	"math"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"skiclub/internal/auth"
	"skiclub/internal/club"
	"skiclub/models"
)

// AdminServer implements skiclub.admin.v1.AdminService.
type AdminServer struct {
	Club *club.Service
}

// GetStats returns the club counters and the upcoming events.
func (s *AdminServer) GetStats(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	p, err := auth.RequireAdmin(ctx, s.Club.Users)
	if err != nil {
		return nil, err
	}
	st, err := s.Club.Stats(ctx, p)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(st)
}

// SendMessage posts a message like the dashboard does. Request fields: title,
// content, and optionally category_id or athlete_id.
func (s *AdminServer) SendMessage(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	p, err := auth.RequireAdmin(ctx, s.Club.Users)
	if err != nil {
		return nil, err
	}
	in := club.MessageInput{Title: stringField(req, "title"), Content: stringField(req, "content")}
	if in.CategoryID, err = idField(req, "category_id"); err != nil {
		return nil, err
	}
	if in.AthleteID, err = idField(req, "athlete_id"); err != nil {
		return nil, err
	}
	m, res, err := s.Club.PostMessage(ctx, p, in)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]any{"message": m, "notification": res})
}

// GenerateAttendance backfills the attendance of the event in event_id.
func (s *AdminServer) GenerateAttendance(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	p, err := auth.RequireAdmin(ctx, s.Club.Users)
	if err != nil {
		return nil, err
	}
	eventID, err := idField(req, "event_id")
	if err != nil {
		return nil, err
	}
	if eventID == nil {
		return nil, status.Error(codes.InvalidArgument, "event_id is required")
	}
	n, err := s.Club.GenerateAttendance(ctx, p, *eventID)
	if err != nil {
		return nil, toStatus(err)
	}
	return structpb.NewStruct(map[string]any{"event_id": float64(*eventID), "attendance_created": float64(n)})
}

func stringField(req *structpb.Struct, key string) string {
	if v, ok := req.GetFields()[key]; ok {
		return v.GetStringValue()
	}
	return ""
}

// idField reads an optional positive integer id. Null or absent means unset.
func idField(req *structpb.Struct, key string) (*int64, error) {
	v, ok := req.GetFields()[key]
	if !ok {
		return nil, nil
	}
	if _, isNull := v.GetKind().(*structpb.Value_NullValue); isNull {
		return nil, nil
	}
	n, isNum := v.GetKind().(*structpb.Value_NumberValue)
	if !isNum || n.NumberValue <= 0 || n.NumberValue != math.Trunc(n.NumberValue) {
		return nil, status.Errorf(codes.InvalidArgument, "%s must be a positive integer", key)
	}
	id := int64(n.NumberValue)
	return &id, nil
}

// toStruct goes through JSON so responses carry the same field names as the
// HTTP API.
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

func toStatus(err error) error {
	code := codes.Internal
	switch {
	case errors.Is(err, models.ErrValidation):
		code = codes.InvalidArgument
	case errors.Is(err, auth.ErrUnauthenticated):
		code = codes.Unauthenticated
	case errors.Is(err, models.ErrForbidden):
		code = codes.PermissionDenied
	case errors.Is(err, models.ErrNotFound):
		code = codes.NotFound
	case errors.Is(err, models.ErrConflict):
		code = codes.AlreadyExists
	case errors.Is(err, models.ErrDisabled):
		code = codes.Unavailable
	}
	return status.Error(code, err.Error())
}
