package layupd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/GoSim-25-26J-441/layup-core/pkg/logger"
	"github.com/GoSim-25-26J-441/layup-core/pkg/models"
)

// LayupServiceName is the fully qualified gRPC service name. Requests and
// responses are google.protobuf.Struct messages carrying the same JSON
// documents as the HTTP API.
const LayupServiceName = "layup.v1.LayupService"

// LayupServiceServer is the server API of LayupService
type LayupServiceServer interface {
	CreateRun(context.Context, *structpb.Struct) (*structpb.Struct, error)
	StartRun(context.Context, *structpb.Struct) (*structpb.Struct, error)
	StopRun(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetRun(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListRuns(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetResult(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Evaluate(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(LayupServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(name string, call unaryMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(LayupServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + LayupServiceName + "/" + name}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(LayupServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// LayupServiceDesc describes LayupService for grpc.Server.RegisterService
var LayupServiceDesc = grpc.ServiceDesc{
	ServiceName: LayupServiceName,
	HandlerType: (*LayupServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("CreateRun", LayupServiceServer.CreateRun),
		unaryHandler("StartRun", LayupServiceServer.StartRun),
		unaryHandler("StopRun", LayupServiceServer.StopRun),
		unaryHandler("GetRun", LayupServiceServer.GetRun),
		unaryHandler("ListRuns", LayupServiceServer.ListRuns),
		unaryHandler("GetResult", LayupServiceServer.GetResult),
		unaryHandler("Evaluate", LayupServiceServer.Evaluate),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "layup/v1/layup.proto",
}

func RegisterLayupServiceServer(s grpc.ServiceRegistrar, srv LayupServiceServer) {
	s.RegisterService(&LayupServiceDesc, srv)
}

// LayupClient calls LayupService over a client connection
type LayupClient struct {
	cc grpc.ClientConnInterface
}

func NewLayupClient(cc grpc.ClientConnInterface) *LayupClient {
	return &LayupClient{cc: cc}
}

// Call invokes method with req encoded as a Struct and decodes the response into out
func (c *LayupClient) Call(ctx context.Context, method string, req, out any, opts ...grpc.CallOption) error {
	in, err := toStruct(req)
	if err != nil {
		return err
	}
	resp := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+LayupServiceName+"/"+method, in, resp, opts...); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return fromStruct(resp, out)
}

// LayupGRPCServer implements LayupServiceServer using a RunStore backend.
type LayupGRPCServer struct {
	store    *RunStore
	Executor *RunExecutor
}

func NewLayupGRPCServer(store *RunStore, executor *RunExecutor) *LayupGRPCServer {
	return &LayupGRPCServer{
		store:    store,
		Executor: executor,
	}
}

type runIDRequest struct {
	RunID string `json:"run_id"`
}

type listRunsRequest struct {
	Limit  int    `json:"limit"`
	Status string `json:"status,omitempty"`
}

func (s *LayupGRPCServer) CreateRun(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req createRunRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if req.Input.ProblemYAML == "" {
		return nil, status.Error(codes.InvalidArgument, "input.problem_yaml is required")
	}

	rec, err := s.store.Create(req.RunID, req.Input)
	if err != nil {
		return nil, grpcError(err, codes.InvalidArgument)
	}
	logger.Info("run created", "run_id", rec.Run.ID)

	if req.Start {
		if rec, err = s.Executor.Start(rec.Run.ID); err != nil {
			return nil, grpcError(err, codes.Internal)
		}
	}
	return runResponse(rec.Run)
}

func (s *LayupGRPCServer) StartRun(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := runID(in)
	if err != nil {
		return nil, err
	}
	updated, err := s.Executor.Start(req.RunID)
	if err != nil {
		return nil, grpcError(err, codes.Internal)
	}
	logger.Info("run started", "run_id", req.RunID)
	return runResponse(updated.Run)
}

func (s *LayupGRPCServer) StopRun(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := runID(in)
	if err != nil {
		return nil, err
	}
	updated, err := s.Executor.Stop(req.RunID)
	if err != nil {
		return nil, grpcError(err, codes.Internal)
	}
	logger.Info("run cancelled", "run_id", req.RunID)
	return runResponse(updated.Run)
}

func (s *LayupGRPCServer) GetRun(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := runID(in)
	if err != nil {
		return nil, err
	}
	rec, ok := s.store.Get(req.RunID)
	if !ok {
		return nil, status.Error(codes.NotFound, "run not found")
	}
	return runResponse(rec.Run)
}

func (s *LayupGRPCServer) ListRuns(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req listRunsRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	filter := models.ParseRunStatus(req.Status)
	if req.Status != "" && filter == "" {
		return nil, status.Errorf(codes.InvalidArgument, "invalid status: %s", req.Status)
	}
	recs := s.store.List(req.Limit, filter)
	runs := make([]Run, 0, len(recs))
	for _, rec := range recs {
		runs = append(runs, rec.Run)
	}
	return response(map[string]any{"runs": runs})
}

func (s *LayupGRPCServer) GetResult(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := runID(in)
	if err != nil {
		return nil, err
	}
	rec, ok := s.store.Get(req.RunID)
	if !ok {
		return nil, status.Error(codes.NotFound, "run not found")
	}
	if rec.Report == nil {
		return nil, status.Errorf(codes.FailedPrecondition, "result not available: run is %s", rec.Run.Status)
	}
	return response(rec.Report)
}

func (s *LayupGRPCServer) Evaluate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req EvaluateRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	a, err := Evaluate(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return response(a)
}

func runID(in *structpb.Struct) (runIDRequest, error) {
	var req runIDRequest
	if err := fromStruct(in, &req); err != nil {
		return req, status.Error(codes.InvalidArgument, err.Error())
	}
	if req.RunID == "" {
		return req, status.Error(codes.InvalidArgument, ErrRunIDMissing.Error())
	}
	return req, nil
}

func runResponse(run Run) (*structpb.Struct, error) {
	return response(map[string]any{"run": run})
}

func response(v any) (*structpb.Struct, error) {
	out, err := toStruct(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// grpcError maps service errors to status codes
func grpcError(err error, fallback codes.Code) error {
	switch {
	case errors.Is(err, ErrRunNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, ErrRunExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, ErrRunTerminal):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, ErrRunIDMissing):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(fallback, err.Error())
	}
}

// maxExactInt is the largest integer a Struct number value holds exactly
const maxExactInt = 1 << 53

// toStruct converts v to a Struct through its JSON encoding. Integers beyond
// the float64 mantissa are carried as decimal strings.
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("message must be a JSON object: %w", err)
	}
	if m == nil {
		m = map[string]any{}
	}
	return structpb.NewStruct(exactNumbers(m).(map[string]any))
}

// exactNumbers replaces json.Number values with float64, or with their decimal
// text when float64 would round them
func exactNumbers(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = exactNumbers(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = exactNumbers(e)
		}
		return t
	case json.Number:
		if n, err := t.Int64(); err == nil && (n > maxExactInt || n < -maxExactInt) {
			return t.String()
		}
		f, err := t.Float64()
		if err != nil {
			return t.String()
		}
		return f
	default:
		return v
	}
}

// fromStruct decodes s into out through its JSON encoding
func fromStruct(s *structpb.Struct, out any) error {
	data, err := json.Marshal(s.AsMap())
	if err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	return nil
}
