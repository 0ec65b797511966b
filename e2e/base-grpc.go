package e2e

import (
	"context"
	"fake-fetch/client"
	fetchgrpc "fake-fetch/grpc"
	"fmt"
	"path"
	"strings"
	"testing"
	"time"

	"github.com/gookit/color"
	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

type BaseGrpcSuite struct {
	suite.Suite
	Config Config
}

// SetupSuite loads the environment configuration and skips without a server to talk to
func (s *BaseGrpcSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.ServerAddr == "" {
		s.T().Skip("FETCH_SERVER_ADDR not set, skipping e2e suite")
	}
}

// describeCall renders one FetchService call on a single line.
func describeCall(method string, req, reply any, err error, elapsed time.Duration) string {
	line := fmt.Sprintf("%s [%s] %s", path.Base(method), status.Code(err), elapsed.Round(time.Millisecond))
	in, _ := req.(*structpb.Struct)
	switch method {
	case fetchgrpc.FetchFullMethod:
		line += fmt.Sprintf(" delay_ms=%v", in.GetFields()["delay_ms"].GetNumberValue())
		if out, ok := reply.(*structpb.ListValue); ok && err == nil {
			line += fmt.Sprintf(" items=%d", len(out.GetValues()))
		}
	case fetchgrpc.HistoryFullMethod:
		if out, ok := reply.(*structpb.Struct); ok && err == nil {
			line += fmt.Sprintf(" records=%d", len(out.GetFields()["records"].GetListValue().GetValues()))
		}
	case fetchgrpc.GetFullMethod:
		line += " id=" + in.GetFields()["id"].GetStringValue()
	}
	if err != nil {
		line += " error=" + status.Convert(err).Message()
	}
	return line
}

// callLogger logs every unary call, with the JSON bodies when E2E_DEBUG_JSON is set.
func (s *BaseGrpcSuite) callLogger(t *testing.T) grpc.UnaryClientInterceptor {
	marshaler := protojson.MarshalOptions{UseProtoNames: true, EmitUnpopulated: true}
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		start := time.Now()
		err := invoker(ctx, method, req, reply, cc, opts...)

		var b strings.Builder
		b.WriteString(describeCall(method, req, reply, err, time.Since(start)))
		if s.Config.DebugJSON {
			fmt.Fprintf(&b, "\n  > %s", marshaler.Format(req.(proto.Message)))
			if err == nil {
				fmt.Fprintf(&b, "\n  < %s", marshaler.Format(reply.(proto.Message)))
			}
		}
		t.Log(b.String())
		return err
	}
}

// GrpcConn opens a logged connection to the server under test
func (s *BaseGrpcSuite) GrpcConn(t *testing.T, name string, addr string) *grpc.ClientConn {
	header := fmt.Sprintf("--- %s @ %s", name, addr)
	if s.Config.Colours {
		header = color.FgCyan.Render(header)
	}
	t.Log(header)

	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.callLogger(t)),
	)
	s.Require().NoError(err, "Failed to connect to gRPC server at "+addr)
	return conn
}

// WithFetch provides a FetchClient within a contextual test step
func (s *BaseGrpcSuite) WithFetch(name string, fn func(ctx context.Context, client *client.FetchClient)) {
	conn := s.GrpcConn(s.T(), name, s.Config.ServerAddr)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	fn(ctx, client.NewFetchClient(conn))
}
