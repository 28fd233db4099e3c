package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"medbridge-booking/internal/domain/entity"
	domainRepo "medbridge-booking/internal/domain/repository"
)

// rawDirectory mirrors the doctors.json layout on disk. The loose string
// tables are parsed into typed structures once at load; malformed entries
// fail the load rather than a later query.
type rawDirectory struct {
	Doctors      []rawDoctor         `json:"doctors"`
	ConditionMap map[string][]string `json:"condition_map"`
}

type rawDoctor struct {
	DoctorID        string              `json:"doctor_id"`
	Name            string              `json:"name"`
	Specialization  string              `json:"specialization"`
	ExperienceYears int                 `json:"experience_years"`
	Fees            entity.FeeSchedule  `json:"fees"`
	WeeklySchedule  map[string][]string `json:"weekly_schedule"`
	Location        string              `json:"location"`
	CalendarID      string              `json:"calendar_id"`
	Email           string              `json:"email"`
}

type doctorDirectory struct {
	doctors      []entity.Doctor
	byID         map[string]*entity.Doctor
	conditionMap entity.ConditionMap
}

// NewFileDoctorDirectory loads the directory from a JSON file. The result is
// immutable; callers share it freely across goroutines.
func NewFileDoctorDirectory(path string) (domainRepo.DoctorDirectory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read directory file %s: %w", path, err)
	}

	var raw rawDirectory
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse directory file %s: %w", path, err)
	}
	return buildDirectory(raw)
}

// NewStaticDoctorDirectory builds a directory from already-typed doctors and
// a raw condition table.
func NewStaticDoctorDirectory(doctors []entity.Doctor, conditionMap map[string][]string) domainRepo.DoctorDirectory {
	dir := &doctorDirectory{
		doctors:      doctors,
		byID:         make(map[string]*entity.Doctor, len(doctors)),
		conditionMap: entity.NewConditionMap(conditionMap),
	}
	for i := range dir.doctors {
		dir.byID[dir.doctors[i].DoctorID] = &dir.doctors[i]
	}
	return dir
}

func buildDirectory(raw rawDirectory) (domainRepo.DoctorDirectory, error) {
	dir := &doctorDirectory{
		byID:         make(map[string]*entity.Doctor, len(raw.Doctors)),
		conditionMap: entity.NewConditionMap(raw.ConditionMap),
	}

	for _, rd := range raw.Doctors {
		if rd.DoctorID == "" {
			return nil, fmt.Errorf("doctor %q: missing doctor_id", rd.Name)
		}
		if _, dup := dir.byID[rd.DoctorID]; dup {
			return nil, fmt.Errorf("duplicate doctor_id %q", rd.DoctorID)
		}
		schedule, err := entity.NewWeeklySchedule(rd.WeeklySchedule)
		if err != nil {
			return nil, fmt.Errorf("doctor %s: %w", rd.DoctorID, err)
		}
		dir.doctors = append(dir.doctors, entity.Doctor{
			DoctorID:        rd.DoctorID,
			Name:            rd.Name,
			Specialization:  rd.Specialization,
			ExperienceYears: rd.ExperienceYears,
			Fees:            rd.Fees,
			Location:        rd.Location,
			CalendarID:      rd.CalendarID,
			Email:           rd.Email,
			Schedule:        schedule,
		})
	}
	for i := range dir.doctors {
		dir.byID[dir.doctors[i].DoctorID] = &dir.doctors[i]
	}
	return dir, nil
}

func (d *doctorDirectory) DoctorByID(doctorID string) (*entity.Doctor, bool) {
	doc, ok := d.byID[doctorID]
	return doc, ok
}

// DoctorByName matches case-insensitively, accepting either direction of
// partial match so "Dr. Eric" finds "Dr. Eric Johnson" and vice versa.
func (d *doctorDirectory) DoctorByName(name string) (*entity.Doctor, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return nil, false
	}
	for i := range d.doctors {
		haystack := strings.ToLower(strings.TrimSpace(d.doctors[i].Name))
		if strings.Contains(haystack, needle) || strings.Contains(needle, haystack) {
			return &d.doctors[i], true
		}
	}
	return nil, false
}

func (d *doctorDirectory) Doctors() []entity.Doctor {
	out := make([]entity.Doctor, len(d.doctors))
	copy(out, d.doctors)
	return out
}

func (d *doctorDirectory) MatchCondition(label string) []string {
	return d.conditionMap.Match(label)
}
