package rpc

import (
	"context"

	"google.golang.org/grpc"

	"healthcare-booking-api/internal/model"
)

const ServiceName = "booking.v1.BookingService"

type Empty struct{}

// BookRequest carries the date as YYYY-MM-DD text so a malformed date is
// rejected by the handler rather than the codec.
type BookRequest struct {
	DoctorID string `json:"doctor_id"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Reason   string `json:"reason,omitempty"`
}

type AppointmentRef struct {
	ID string `json:"id"`
}

type Appointment struct {
	ID        string       `json:"id"`
	DoctorID  string       `json:"doctor_id"`
	PatientID string       `json:"patient_id"`
	Date      model.Date   `json:"date"`
	Time      string       `json:"time"`
	Status    model.Status `json:"status"`
	Reason    string       `json:"reason"`
}

type AppointmentList struct {
	Appointments []Appointment `json:"appointments"`
}

type UpcomingAppointment struct {
	Appointment
	DoctorName string `json:"doctor_name"`
}

type UpcomingList struct {
	Appointments []UpcomingAppointment `json:"appointments"`
}

// BookingServer is the scheduling facade exposed over gRPC.
type BookingServer interface {
	Book(context.Context, *BookRequest) (*Appointment, error)
	Cancel(context.Context, *AppointmentRef) (*Appointment, error)
	Complete(context.Context, *AppointmentRef) (*Appointment, error)
	ListDoctorBooked(context.Context, *Empty) (*AppointmentList, error)
	ListDoctorToday(context.Context, *Empty) (*AppointmentList, error)
	ListDoctorPast(context.Context, *Empty) (*AppointmentList, error)
	ListPatientUpcoming(context.Context, *Empty) (*UpcomingList, error)
	ListPatientPast(context.Context, *Empty) (*AppointmentList, error)
	SetAvailability(context.Context, *model.Availability) (*model.Availability, error)
	GetAvailability(context.Context, *Empty) (*model.Availability, error)
}

func FullMethod(name string) string { return "/" + ServiceName + "/" + name }

func unary[Req, Resp any](name string, call func(BookingServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(BookingServer), ctx, req.(*Req))
			}
			if interceptor == nil {
				return handler(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BookingServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Book", BookingServer.Book),
		unary("Cancel", BookingServer.Cancel),
		unary("Complete", BookingServer.Complete),
		unary("ListDoctorBooked", BookingServer.ListDoctorBooked),
		unary("ListDoctorToday", BookingServer.ListDoctorToday),
		unary("ListDoctorPast", BookingServer.ListDoctorPast),
		unary("ListPatientUpcoming", BookingServer.ListPatientUpcoming),
		unary("ListPatientPast", BookingServer.ListPatientPast),
		unary("SetAvailability", BookingServer.SetAvailability),
		unary("GetAvailability", BookingServer.GetAvailability),
	},
	Metadata: "booking/v1/booking.json",
}

func RegisterBookingServer(s grpc.ServiceRegistrar, srv BookingServer) {
	s.RegisterService(&ServiceDesc, srv)
}
