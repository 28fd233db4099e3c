package usecase

import (
	"context"
	"errors"

	"medbridge-booking/internal/converter"
	"medbridge-booking/internal/delivery/dto"
	"medbridge-booking/internal/domain/entity"
	"medbridge-booking/internal/domain/repository"

	"github.com/sirupsen/logrus"
)

var ErrDoctorNotFound = errors.New("doctor not found")

type DoctorUsecase interface {
	// ListCandidates returns the doctors matching a condition label, in
	// directory priority order. An unknown condition yields an empty list.
	ListCandidates(ctx context.Context, req *dto.DoctorLookupRequest) (*dto.DoctorListResponse, error)
	LookupByName(ctx context.Context, name string) (*dto.DoctorResponse, error)
	ListDoctors(ctx context.Context) (*dto.DoctorListResponse, error)
}

type doctorUsecase struct {
	log       *logrus.Logger
	directory repository.DoctorDirectory
}

func NewDoctorUsecase(log *logrus.Logger, directory repository.DoctorDirectory) DoctorUsecase {
	return &doctorUsecase{
		log:       log,
		directory: directory,
	}
}

func (u *doctorUsecase) ListCandidates(ctx context.Context, req *dto.DoctorLookupRequest) (*dto.DoctorListResponse, error) {
	candidateIDs := u.directory.MatchCondition(req.Condition)

	doctors := make([]entity.Doctor, 0, len(candidateIDs))
	for _, id := range candidateIDs {
		doctor, ok := u.directory.DoctorByID(id)
		if !ok {
			u.log.Warnf("Condition map references unknown doctor %s", id)
			continue
		}
		doctors = append(doctors, *doctor)
	}

	return &dto.DoctorListResponse{
		Doctors: converter.DoctorsToResponses(doctors),
		Total:   len(doctors),
	}, nil
}

func (u *doctorUsecase) LookupByName(ctx context.Context, name string) (*dto.DoctorResponse, error) {
	doctor, ok := u.directory.DoctorByName(name)
	if !ok {
		return nil, ErrDoctorNotFound
	}
	return converter.DoctorToResponse(doctor), nil
}

func (u *doctorUsecase) ListDoctors(ctx context.Context) (*dto.DoctorListResponse, error) {
	doctors := u.directory.Doctors()
	return &dto.DoctorListResponse{
		Doctors: converter.DoctorsToResponses(doctors),
		Total:   len(doctors),
	}, nil
}
