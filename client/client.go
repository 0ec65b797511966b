package client

import (
	"context"
	"fake-fetch/domain"
	fetchgrpc "fake-fetch/grpc"
	"fake-fetch/repositories"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// FetchClient is the typed side of the FetchService.
type FetchClient struct {
	conn grpc.ClientConnInterface
}

func NewFetchClient(conn grpc.ClientConnInterface) *FetchClient {
	return &FetchClient{conn: conn}
}

// Fetch asks the server for a delayed fetch. No items means the server default data.
func (c *FetchClient) Fetch(ctx context.Context, delay time.Duration, items ...string) (domain.FetchResult, error) {
	fields := map[string]any{
		"delay_ms": float64(delay) / float64(time.Millisecond),
	}
	if len(items) > 0 {
		fields["items"] = lo.Map(items, func(item string, _ int) any { return item })
	}
	req, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	resp := new(structpb.ListValue)
	if err := c.conn.Invoke(ctx, fetchgrpc.FetchFullMethod, req, resp); err != nil {
		return nil, err
	}
	return lo.Map(resp.GetValues(), func(item *structpb.Value, _ int) string {
		return item.GetStringValue()
	}), nil
}

// History reads one page of the server journal. A nil limit lets the server decide.
func (c *FetchClient) History(ctx context.Context, limit *int, cursor *string) ([]domain.FetchRecord, *string, error) {
	fields := map[string]any{}
	if limit != nil {
		fields["limit"] = *limit
	}
	if cursor != nil {
		fields["cursor"] = *cursor
	}
	req, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, nil, err
	}
	resp := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, fetchgrpc.HistoryFullMethod, req, resp); err != nil {
		return nil, nil, err
	}

	values := resp.GetFields()["records"].GetListValue().GetValues()
	records := make([]domain.FetchRecord, 0, len(values))
	for _, value := range values {
		record, err := repositories.FromFetchStruct(value.GetStructValue())
		if err != nil {
			return nil, nil, err
		}
		records = append(records, record)
	}
	var next *string
	if v, ok := resp.GetFields()["cursor"]; ok {
		if _, isString := v.GetKind().(*structpb.Value_StringValue); isString {
			next = lo.ToPtr(v.GetStringValue())
		}
	}
	return records, next, nil
}

func (c *FetchClient) Stats(ctx context.Context) (domain.StatsSnapshot, error) {
	resp := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, fetchgrpc.StatsFullMethod, &structpb.Struct{}, resp); err != nil {
		return domain.StatsSnapshot{}, err
	}
	fields := resp.GetFields()
	return domain.StatsSnapshot{
		Started:   uint64(fields["started"].GetNumberValue()),
		Resolved:  uint64(fields["resolved"].GetNumberValue()),
		Rejected:  uint64(fields["rejected"].GetNumberValue()),
		Cancelled: uint64(fields["cancelled"].GetNumberValue()),
		InFlight:  uint64(fields["in_flight"].GetNumberValue()),
		RSSBytes:  uint64(fields["rss_bytes"].GetNumberValue()),
	}, nil
}

// Get reads one journaled fetch. An unknown id answers codes.NotFound.
func (c *FetchClient) Get(ctx context.Context, id uuid.UUID) (domain.FetchRecord, error) {
	req := &structpb.Struct{Fields: map[string]*structpb.Value{
		"id": structpb.NewStringValue(id.String()),
	}}
	resp := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, fetchgrpc.GetFullMethod, req, resp); err != nil {
		return domain.FetchRecord{}, err
	}
	return repositories.FromFetchStruct(resp)
}
