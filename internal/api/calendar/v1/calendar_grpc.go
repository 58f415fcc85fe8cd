package calendarv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "scheduling.v1.CalendarService"

const (
	CalendarService_ComputeSlots_FullMethodName            = "/" + ServiceName + "/ComputeSlots"
	CalendarService_BookAppointment_FullMethodName         = "/" + ServiceName + "/BookAppointment"
	CalendarService_UpdateAppointmentStatus_FullMethodName = "/" + ServiceName + "/UpdateAppointmentStatus"
	CalendarService_ListAppointments_FullMethodName        = "/" + ServiceName + "/ListAppointments"
)

type CalendarServiceClient interface {
	ComputeSlots(ctx context.Context, in *ComputeSlotsRequest, opts ...grpc.CallOption) (*ComputeSlotsResponse, error)
	BookAppointment(ctx context.Context, in *BookAppointmentRequest, opts ...grpc.CallOption) (*Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, in *UpdateAppointmentStatusRequest, opts ...grpc.CallOption) (*Appointment, error)
	ListAppointments(ctx context.Context, in *ListAppointmentsRequest, opts ...grpc.CallOption) (*ListAppointmentsResponse, error)
}

type calendarServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewCalendarServiceClient(cc grpc.ClientConnInterface) CalendarServiceClient {
	return &calendarServiceClient{cc: cc}
}

func (c *calendarServiceClient) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, method, in, out, opts...)
}

func (c *calendarServiceClient) ComputeSlots(ctx context.Context, in *ComputeSlotsRequest, opts ...grpc.CallOption) (*ComputeSlotsResponse, error) {
	out := new(ComputeSlotsResponse)
	if err := c.invoke(ctx, CalendarService_ComputeSlots_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *calendarServiceClient) BookAppointment(ctx context.Context, in *BookAppointmentRequest, opts ...grpc.CallOption) (*Appointment, error) {
	out := new(Appointment)
	if err := c.invoke(ctx, CalendarService_BookAppointment_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *calendarServiceClient) UpdateAppointmentStatus(ctx context.Context, in *UpdateAppointmentStatusRequest, opts ...grpc.CallOption) (*Appointment, error) {
	out := new(Appointment)
	if err := c.invoke(ctx, CalendarService_UpdateAppointmentStatus_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *calendarServiceClient) ListAppointments(ctx context.Context, in *ListAppointmentsRequest, opts ...grpc.CallOption) (*ListAppointmentsResponse, error) {
	out := new(ListAppointmentsResponse)
	if err := c.invoke(ctx, CalendarService_ListAppointments_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

// CalendarServiceServer: серверная сторона CalendarService.
type CalendarServiceServer interface {
	ComputeSlots(context.Context, *ComputeSlotsRequest) (*ComputeSlotsResponse, error)
	BookAppointment(context.Context, *BookAppointmentRequest) (*Appointment, error)
	UpdateAppointmentStatus(context.Context, *UpdateAppointmentStatusRequest) (*Appointment, error)
	ListAppointments(context.Context, *ListAppointmentsRequest) (*ListAppointmentsResponse, error)
}

// UnimplementedCalendarServiceServer встраивается в реализации ради совместимости.
type UnimplementedCalendarServiceServer struct{}

func (UnimplementedCalendarServiceServer) ComputeSlots(context.Context, *ComputeSlotsRequest) (*ComputeSlotsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ComputeSlots not implemented")
}
func (UnimplementedCalendarServiceServer) BookAppointment(context.Context, *BookAppointmentRequest) (*Appointment, error) {
	return nil, status.Error(codes.Unimplemented, "method BookAppointment not implemented")
}
func (UnimplementedCalendarServiceServer) UpdateAppointmentStatus(context.Context, *UpdateAppointmentStatusRequest) (*Appointment, error) {
	return nil, status.Error(codes.Unimplemented, "method UpdateAppointmentStatus not implemented")
}
func (UnimplementedCalendarServiceServer) ListAppointments(context.Context, *ListAppointmentsRequest) (*ListAppointmentsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListAppointments not implemented")
}

func RegisterCalendarServiceServer(s grpc.ServiceRegistrar, srv CalendarServiceServer) {
	s.RegisterService(&CalendarService_ServiceDesc, srv)
}

func _CalendarService_ComputeSlots_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ComputeSlotsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CalendarServiceServer).ComputeSlots(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: CalendarService_ComputeSlots_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CalendarServiceServer).ComputeSlots(ctx, req.(*ComputeSlotsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _CalendarService_BookAppointment_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(BookAppointmentRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CalendarServiceServer).BookAppointment(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: CalendarService_BookAppointment_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CalendarServiceServer).BookAppointment(ctx, req.(*BookAppointmentRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _CalendarService_UpdateAppointmentStatus_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(UpdateAppointmentStatusRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CalendarServiceServer).UpdateAppointmentStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: CalendarService_UpdateAppointmentStatus_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CalendarServiceServer).UpdateAppointmentStatus(ctx, req.(*UpdateAppointmentStatusRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _CalendarService_ListAppointments_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ListAppointmentsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CalendarServiceServer).ListAppointments(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: CalendarService_ListAppointments_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CalendarServiceServer).ListAppointments(ctx, req.(*ListAppointmentsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var CalendarService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CalendarServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ComputeSlots", Handler: _CalendarService_ComputeSlots_Handler},
		{MethodName: "BookAppointment", Handler: _CalendarService_BookAppointment_Handler},
		{MethodName: "UpdateAppointmentStatus", Handler: _CalendarService_UpdateAppointmentStatus_Handler},
		{MethodName: "ListAppointments", Handler: _CalendarService_ListAppointments_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "scheduling/v1/calendar.proto",
}
