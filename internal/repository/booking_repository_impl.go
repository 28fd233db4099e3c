package repository

import (
	"context"
	"errors"
	"time"

	"medbridge-booking/internal/domain/entity"
	domainRepo "medbridge-booking/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type bookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) domainRepo.BookingRepository {
	return &bookingRepository{db: db}
}

func (r *bookingRepository) Create(ctx context.Context, booking *entity.BookingRecord) error {
	return r.db.WithContext(ctx).Create(booking).Error
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.BookingStatus) error {
	return r.db.WithContext(ctx).Model(&entity.BookingRecord{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *bookingRepository) UpdateTimes(ctx context.Context, id uuid.UUID, start, end time.Time) error {
	return r.db.WithContext(ctx).Model(&entity.BookingRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"start_time": start, "end_time": end}).Error
}

func (r *bookingRepository) SetCalendarEvent(ctx context.Context, id uuid.UUID, eventID string) error {
	return r.db.WithContext(ctx).Model(&entity.BookingRecord{}).
		Where("id = ?", id).
		Update("calendar_event_id", eventID).Error
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.BookingRecord, error) {
	var booking entity.BookingRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) FindActiveOverlapping(ctx context.Context, doctorID string, start, end time.Time) ([]entity.BookingRecord, error) {
	var bookings []entity.BookingRecord
	err := r.db.WithContext(ctx).
		Where("doctor_id = ? AND status IN ? AND start_time < ? AND end_time > ?",
			doctorID,
			[]entity.BookingStatus{entity.BookingStatusReserved, entity.BookingStatusConfirmed},
			end, start).
		Order("start_time ASC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *bookingRepository) FindByPatientEmail(ctx context.Context, email string, from time.Time) ([]entity.BookingRecord, error) {
	var bookings []entity.BookingRecord
	err := r.db.WithContext(ctx).
		Where("patient_email = ? AND end_time >= ? AND status = ?",
			email, from, entity.BookingStatusConfirmed).
		Order("start_time ASC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}
