package service

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	_ "google.golang.org/protobuf/types/known/structpb"
)

// VariableServiceFile is the proto file path named in VariableServiceDesc.
const VariableServiceFile = "codelf/v1/variable.proto"

const structTypeName = ".google.protobuf.Struct"

// variableServiceDescriptor describes the service as if generated from
//
//	service VariableService {
//	  rpc RequestVariable(google.protobuf.Struct) returns (google.protobuf.Struct);
//	  rpc CreateJob(google.protobuf.Struct) returns (google.protobuf.Struct);
//	  rpc GetJob(google.protobuf.Struct) returns (google.protobuf.Struct);
//	}
func variableServiceDescriptor() *descriptorpb.FileDescriptorProto {
	method := func(name string) *descriptorpb.MethodDescriptorProto {
		return &descriptorpb.MethodDescriptorProto{
			Name:       proto.String(name),
			InputType:  proto.String(structTypeName),
			OutputType: proto.String(structTypeName),
		}
	}
	return &descriptorpb.FileDescriptorProto{
		Name:       proto.String(VariableServiceFile),
		Package:    proto.String("codelf.v1"),
		Dependency: []string{"google/protobuf/struct.proto"},
		Syntax:     proto.String("proto3"),
		Service: []*descriptorpb.ServiceDescriptorProto{{
			Name: proto.String("VariableService"),
			Method: []*descriptorpb.MethodDescriptorProto{
				method("RequestVariable"),
				method("CreateJob"),
				method("GetJob"),
			},
		}},
	}
}

// registerVariableServiceFile adds the service descriptor to the global
// registry so server reflection can describe it.
func registerVariableServiceFile(files *protoregistry.Files) (protoreflect.FileDescriptor, error) {
	if fd, err := files.FindFileByPath(VariableServiceFile); err == nil {
		return fd, nil
	}
	fd, err := protodesc.NewFile(variableServiceDescriptor(), files)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", VariableServiceFile, err)
	}
	if err := files.RegisterFile(fd); err != nil {
		return nil, fmt.Errorf("register %s: %w", VariableServiceFile, err)
	}
	return fd, nil
}

func init() {
	if _, err := registerVariableServiceFile(protoregistry.GlobalFiles); err != nil {
		panic(err)
	}
}
