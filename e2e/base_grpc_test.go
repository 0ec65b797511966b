package e2e

import (
	fetchgrpc "fake-fetch/grpc"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestDescribeCall(t *testing.T) {
	req := require.New(t)

	in, err := structpb.NewStruct(map[string]any{"delay_ms": 100})
	req.NoError(err)
	out, err := structpb.NewList([]any{"apple", "banana"})
	req.NoError(err)
	req.Equal("Fetch [OK] 120ms delay_ms=100 items=2",
		describeCall(fetchgrpc.FetchFullMethod, in, out, nil, 120*time.Millisecond))

	history, err := structpb.NewStruct(map[string]any{"records": []any{map[string]any{"id": "a"}}})
	req.NoError(err)
	req.Equal("History [OK] 3ms records=1",
		describeCall(fetchgrpc.HistoryFullMethod, &structpb.Struct{}, history, nil, 3*time.Millisecond))

	get, err := structpb.NewStruct(map[string]any{"id": "42"})
	req.NoError(err)
	req.Equal("Get [NotFound] 1ms id=42 error=record not found",
		describeCall(fetchgrpc.GetFullMethod, get, &structpb.Struct{}, status.Error(codes.NotFound, "record not found"), time.Millisecond))
}
