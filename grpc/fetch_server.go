package grpc

import (
	"context"
	stderrors "errors"
	"fake-fetch/contract"
	"fake-fetch/errors"
	"fake-fetch/repositories"
	"fake-fetch/source"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

var validate = validator.New()

type fetchParams struct {
	DelayMs float64  `validate:"gte=0"`
	Items   []string `validate:"omitempty,dive,max=256"`
}

type historyParams struct {
	Limit *int `validate:"omitempty,gt=0,lte=1000"`
}

type FetchServer struct {
	source       contract.DataSource
	repository   repositories.IFetchRepository
	stats        contract.StatsProvider
	log          *slog.Logger
	defaultDelay time.Duration
	maxDelay     time.Duration
}

func NewFetchServer(
	log *slog.Logger,
	dataSource contract.DataSource,
	repository repositories.IFetchRepository,
	stats contract.StatsProvider,
	defaultDelay, maxDelay time.Duration,
) *FetchServer {
	return &FetchServer{
		source:       dataSource,
		repository:   repository,
		stats:        stats,
		log:          log,
		defaultDelay: defaultDelay,
		maxDelay:     maxDelay,
	}
}

// Fetch runs a delayed fetch and answers once it settles.
// A missing delay_ms falls back to the server default delay.
// Hanging up cancels the fetch, the journal then records it as cancelled.
func (s *FetchServer) Fetch(ctx context.Context, req *structpb.Struct) (*structpb.ListValue, error) {
	delay, items, err := s.parseFetch(req)
	if err != nil {
		return nil, toStatus(err)
	}
	future, err := s.source.Fetch(ctx, delay, source.WithData(items...))
	if err != nil {
		return nil, toStatus(err)
	}
	result, err := future.Await(ctx)
	if err != nil {
		s.log.Debug("Fetch did not resolve", "id", future.ID(), "error", err)
		return nil, toStatus(err)
	}
	list, err := structpb.NewList(lo.Map(result, func(item string, _ int) any { return item }))
	if err != nil {
		s.log.Error("Failed to encode fetch result", "id", future.ID(), "error", err)
		return nil, status.Error(codes.Internal, fmt.Sprintf("encode fetch result: %v", err))
	}
	return list, nil
}

// Get reads a single journaled fetch by its id.
func (s *FetchServer) Get(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	raw := req.GetFields()["id"].GetStringValue()
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, toStatus(fmt.Errorf("%w: id %q: %v", errors.ErrInvalidRequest, raw, err))
	}
	record, err := s.repository.GetFetch(id)
	if err != nil {
		if !stderrors.Is(err, errors.ErrRecordNotFound) {
			s.log.Error("Failed to get fetch", "id", id, "error", err)
		}
		return nil, toStatus(err)
	}
	value, err := repositories.ToFetchStruct(record)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return value, nil
}

// History pages through the journal, newest first.
func (s *FetchServer) History(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	var params historyParams
	if v, ok := fields["limit"]; ok {
		params.Limit = lo.ToPtr(int(v.GetNumberValue()))
	}
	if err := validate.Struct(params); err != nil {
		return nil, toStatus(fmt.Errorf("%w: %v", errors.ErrInvalidRequest, err))
	}
	var cursor *string
	if v, ok := fields["cursor"]; ok && v.GetStringValue() != "" {
		cursor = lo.ToPtr(v.GetStringValue())
	}

	records, next, err := s.repository.ListFetches(params.Limit, cursor)
	if err != nil {
		s.log.Error("Failed to list fetches", "error", err)
		return nil, status.Error(codes.Internal, err.Error())
	}

	values := make([]*structpb.Value, 0, len(records))
	for _, record := range records {
		value, err := repositories.ToFetchStruct(record)
		if err != nil {
			return nil, status.Error(codes.Internal, err.Error())
		}
		values = append(values, structpb.NewStructValue(value))
	}
	response := &structpb.Struct{Fields: map[string]*structpb.Value{
		"records": structpb.NewListValue(&structpb.ListValue{Values: values}),
		"cursor":  structpb.NewNullValue(),
	}}
	if next != nil {
		response.Fields["cursor"] = structpb.NewStringValue(*next)
	}
	return response, nil
}

func (s *FetchServer) Stats(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	snapshot := s.stats.Snapshot()
	return structpb.NewStruct(map[string]any{
		"started":   snapshot.Started,
		"resolved":  snapshot.Resolved,
		"rejected":  snapshot.Rejected,
		"cancelled": snapshot.Cancelled,
		"in_flight": snapshot.InFlight,
		"rss_bytes": snapshot.RSSBytes,
	})
}

func (s *FetchServer) parseFetch(req *structpb.Struct) (time.Duration, []string, error) {
	fields := req.GetFields()
	params := fetchParams{DelayMs: float64(s.defaultDelay) / float64(time.Millisecond)}

	if v, ok := fields["delay_ms"]; ok {
		number, isNumber := v.GetKind().(*structpb.Value_NumberValue)
		if !isNumber {
			return 0, nil, fmt.Errorf("%w: delay_ms must be a number", errors.ErrInvalidDelay)
		}
		params.DelayMs = number.NumberValue
	}
	if v, ok := fields["items"]; ok {
		list := v.GetListValue()
		if list == nil {
			return 0, nil, fmt.Errorf("%w: items must be a list", errors.ErrInvalidRequest)
		}
		params.Items = make([]string, 0, len(list.GetValues()))
		for _, item := range list.GetValues() {
			str, isString := item.GetKind().(*structpb.Value_StringValue)
			if !isString {
				return 0, nil, fmt.Errorf("%w: items must be strings", errors.ErrInvalidRequest)
			}
			params.Items = append(params.Items, str.StringValue)
		}
	}

	// NaN fails gte, +Inf is caught by the max delay
	if err := validate.Struct(params); err != nil {
		return 0, nil, fmt.Errorf("%w: %v", errors.ErrInvalidDelay, err)
	}
	if params.DelayMs > float64(s.maxDelay)/float64(time.Millisecond) {
		return 0, nil, fmt.Errorf("%w: %vms exceeds %s", errors.ErrInvalidDelay, params.DelayMs, s.maxDelay)
	}
	return time.Duration(params.DelayMs * float64(time.Millisecond)), params.Items, nil
}

func toStatus(err error) error {
	switch {
	case stderrors.Is(err, errors.ErrInvalidDelay), stderrors.Is(err, errors.ErrInvalidRequest):
		return status.Error(codes.InvalidArgument, err.Error())
	case stderrors.Is(err, errors.ErrRecordNotFound):
		return status.Error(codes.NotFound, err.Error())
	case stderrors.Is(err, errors.ErrCallbackFailure):
		return status.Error(codes.Internal, err.Error())
	case stderrors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case stderrors.Is(err, errors.ErrFetchCanceled), stderrors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
