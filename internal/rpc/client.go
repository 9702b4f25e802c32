package rpc

import (
	"context"

	"google.golang.org/grpc"

	"healthcare-booking-api/internal/model"
)

// Client calls BookingService over an existing connection. Every call is
// sent with the JSON content-subtype.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, in, out any, opts ...grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, FullMethod(method), in, out, opts...)
}

func (c *Client) Book(ctx context.Context, in *BookRequest, opts ...grpc.CallOption) (*Appointment, error) {
	out := new(Appointment)
	if err := c.invoke(ctx, "Book", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Cancel(ctx context.Context, id string, opts ...grpc.CallOption) (*Appointment, error) {
	out := new(Appointment)
	if err := c.invoke(ctx, "Cancel", &AppointmentRef{ID: id}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Complete(ctx context.Context, id string, opts ...grpc.CallOption) (*Appointment, error) {
	out := new(Appointment)
	if err := c.invoke(ctx, "Complete", &AppointmentRef{ID: id}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// List calls one of the ListDoctor*/ListPatientPast methods by name.
func (c *Client) List(ctx context.Context, method string, opts ...grpc.CallOption) (*AppointmentList, error) {
	out := new(AppointmentList)
	if err := c.invoke(ctx, method, &Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListPatientUpcoming(ctx context.Context, opts ...grpc.CallOption) (*UpcomingList, error) {
	out := new(UpcomingList)
	if err := c.invoke(ctx, "ListPatientUpcoming", &Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SetAvailability(ctx context.Context, in *model.Availability, opts ...grpc.CallOption) (*model.Availability, error) {
	out := new(model.Availability)
	if err := c.invoke(ctx, "SetAvailability", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetAvailability(ctx context.Context, opts ...grpc.CallOption) (*model.Availability, error) {
	out := new(model.Availability)
	if err := c.invoke(ctx, "GetAvailability", &Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
