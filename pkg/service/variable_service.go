package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dasmlab/codelf/pkg/codelf"
)

// VariableServiceName is the fully-qualified gRPC service name.
const VariableServiceName = "codelf.v1.VariableService"

// VariableServiceServer is the server API for the variable service. Every
// message is a google.protobuf.Struct carrying the JSON shapes of the HTTP
// API.
type VariableServiceServer interface {
	RequestVariable(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateJob(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetJob(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// VariableService implements VariableServiceServer over a codelf client and
// a job queue.
type VariableService struct {
	// Requester answers single-page lookups.
	Requester VariableRequester

	// Jobs tracks asynchronous multi-page lookups.
	Jobs *JobQueue

	// Logger for service operations.
	Logger *logrus.Logger
}

// NewVariableService creates a new VariableService instance.
func NewVariableService(requester VariableRequester, jobs *JobQueue, logger *logrus.Logger) *VariableService {
	if logger == nil {
		logger = logrus.New()
	}
	return &VariableService{
		Requester: requester,
		Jobs:      jobs,
		Logger:    logger,
	}
}

// RequestVariable runs one lookup. Fields: query (string), page (number),
// lang (list of strings).
func (s *VariableService) RequestVariable(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	opt := QueryOptionFromStruct(req)

	s.Logger.WithFields(logrus.Fields{
		"query": opt.Query,
		"page":  opt.Page,
		"lang":  opt.Lang,
	}).Debug("[gRPC] RequestVariable request received")

	res, err := s.Requester.RequestVariable(ctx, opt)
	if err != nil {
		if errors.Is(err, codelf.ErrNoTranslator) {
			return nil, status.Error(codes.FailedPrecondition, err.Error())
		}
		s.Logger.WithError(err).Error("[gRPC] RequestVariable failed")
		return nil, status.Error(codes.Internal, err.Error())
	}
	return toStruct(res)
}

// CreateJob queues a multi-page lookup. Fields: query, lang, page, pages,
// request_id. Returns {job_id}.
func (s *VariableService) CreateJob(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	opt := QueryOptionFromStruct(req)
	fields := req.GetFields()

	jobID, err := s.Jobs.CreateJob(JobRequest{
		RequestID: fields["request_id"].GetStringValue(),
		Query:     opt.Query,
		Lang:      opt.Lang,
		Page:      opt.Page,
		Pages:     int(fields["pages"].GetNumberValue()),
	})
	if err != nil {
		s.Logger.WithError(err).Warn("[gRPC] CreateJob rejected")
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return structpb.NewStruct(map[string]interface{}{"job_id": jobID})
}

// GetJob returns the snapshot of job {job_id}.
func (s *VariableService) GetJob(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	jobID := req.GetFields()["job_id"].GetStringValue()
	if jobID == "" {
		return nil, status.Error(codes.InvalidArgument, "job_id is required")
	}
	job, err := s.Jobs.GetJob(jobID)
	if err != nil {
		return nil, status.Error(codes.NotFound, err.Error())
	}
	return toStruct(job.Snapshot())
}

// QueryOptionFromStruct reads query, page and lang from s. Missing fields
// take their zero values.
func QueryOptionFromStruct(s *structpb.Struct) codelf.QueryOption {
	fields := s.GetFields()
	opt := codelf.QueryOption{
		Query: fields["query"].GetStringValue(),
		Page:  int(fields["page"].GetNumberValue()),
	}
	for _, v := range fields["lang"].GetListValue().GetValues() {
		if lang := v.GetStringValue(); lang != "" {
			opt.Lang = append(opt.Lang, lang)
		}
	}
	return opt
}

// toStruct converts any JSON-encodable value to a Struct.
func toStruct(v interface{}) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("encode response: %v", err))
	}
	out := &structpb.Struct{}
	if err := out.UnmarshalJSON(data); err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("encode response: %v", err))
	}
	return out, nil
}

// RegisterVariableServiceServer registers srv on s.
func RegisterVariableServiceServer(s grpc.ServiceRegistrar, srv VariableServiceServer) {
	s.RegisterService(&VariableServiceDesc, srv)
}

// VariableServiceDesc is the grpc.ServiceDesc for the variable service.
var VariableServiceDesc = grpc.ServiceDesc{
	ServiceName: VariableServiceName,
	HandlerType: (*VariableServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "RequestVariable", Handler: unaryHandler("RequestVariable", VariableServiceServer.RequestVariable)},
		{MethodName: "CreateJob", Handler: unaryHandler("CreateJob", VariableServiceServer.CreateJob)},
		{MethodName: "GetJob", Handler: unaryHandler("GetJob", VariableServiceServer.GetJob)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: VariableServiceFile,
}

type unaryMethod func(VariableServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(name string, call unaryMethod) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(VariableServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: "/" + VariableServiceName + "/" + name,
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(VariableServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// VariableServiceClient is the client API for the variable service.
type VariableServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewVariableServiceClient creates a client over cc.
func NewVariableServiceClient(cc grpc.ClientConnInterface) *VariableServiceClient {
	return &VariableServiceClient{cc: cc}
}

// RequestVariable calls the RequestVariable method.
func (c *VariableServiceClient) RequestVariable(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "RequestVariable", in, opts...)
}

// CreateJob calls the CreateJob method.
func (c *VariableServiceClient) CreateJob(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "CreateJob", in, opts...)
}

// GetJob calls the GetJob method.
func (c *VariableServiceClient) GetJob(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetJob", in, opts...)
}

func (c *VariableServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+VariableServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
