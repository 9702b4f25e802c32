package scheduling

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"healthcare-booking-api/internal/model"
)

// DefaultSlotsPerDay is reported for doctors with neither an availability
// record nor a daily cap.
const DefaultSlotsPerDay = 10

// Directory maps a doctor id to the doctor's published availability.
// Put replaces the whole record; the last writer wins.
type Directory interface {
	Get(ctx context.Context, doctorID string) (*model.Availability, bool, error)
	Put(ctx context.Context, doctorID string, a *model.Availability) error
}

// MemoryDirectory keeps availability in process memory. Records are lost on
// restart.
type MemoryDirectory struct {
	mu      sync.RWMutex
	records map[string]model.Availability
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{records: make(map[string]model.Availability)}
}

func (d *MemoryDirectory) Get(_ context.Context, doctorID string) (*model.Availability, bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	a, ok := d.records[doctorID]
	if !ok {
		return nil, false, nil
	}
	c := cloneAvailability(a)
	return &c, true, nil
}

func (d *MemoryDirectory) Put(_ context.Context, doctorID string, a *model.Availability) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.records[doctorID] = cloneAvailability(*a)
	return nil
}

func cloneAvailability(a model.Availability) model.Availability {
	out := model.Availability{
		SlotsPerDay:      a.SlotsPerDay,
		TimeRanges:       make([]map[string]any, 0, len(a.TimeRanges)),
		UnavailableDates: append([]model.Date{}, a.UnavailableDates...),
	}
	for _, r := range a.TimeRanges {
		m := make(map[string]any, len(r))
		for k, v := range r {
			m[k] = v
		}
		out.TimeRanges = append(out.TimeRanges, m)
	}
	return out
}

// SetAvailability replaces the calling doctor's availability record.
func (s *Service) SetAvailability(ctx context.Context, caller Caller, a model.Availability) (*model.Availability, error) {
	if err := requireRole(caller, model.RoleDoctor); err != nil {
		return nil, err
	}
	if a.SlotsPerDay < 0 {
		return nil, invalidInput("slots_per_day must not be negative")
	}
	rec := cloneAvailability(a)
	if err := s.dir.Put(ctx, caller.ID, &rec); err != nil {
		return nil, fmt.Errorf("put availability: %w", err)
	}
	return &rec, nil
}

// GetAvailability returns the calling doctor's availability record.
func (s *Service) GetAvailability(ctx context.Context, caller Caller) (*model.Availability, error) {
	if err := requireRole(caller, model.RoleDoctor); err != nil {
		return nil, err
	}
	doc, err := s.store.GetUser(ctx, caller.ID)
	if errors.Is(err, model.ErrNoRecord) {
		return nil, notFound("doctor not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get doctor: %w", err)
	}
	return s.AvailabilityOf(ctx, doc)
}

// AvailabilityOf returns the doctor's stored record, or the default record
// derived from the doctor's daily cap when none was ever set.
func (s *Service) AvailabilityOf(ctx context.Context, doctor *model.User) (*model.Availability, error) {
	a, ok, err := s.dir.Get(ctx, doctor.ID)
	if err != nil {
		return nil, fmt.Errorf("get availability: %w", err)
	}
	if ok {
		return a, nil
	}
	slots := DefaultSlotsPerDay
	if doctor.AvailableSlotsPerDay != nil && *doctor.AvailableSlotsPerDay > 0 {
		slots = *doctor.AvailableSlotsPerDay
	}
	return &model.Availability{
		TimeRanges:       []map[string]any{},
		SlotsPerDay:      slots,
		UnavailableDates: []model.Date{},
	}, nil
}
