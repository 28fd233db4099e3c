package repository

import (
	"os"
	"path/filepath"
	"testing"
)

const directoryFixture = `{
  "doctors": [
    {
      "doctor_id": "doc-001",
      "name": "Dr. Ayesha Khan",
      "specialization": "Dermatologist",
      "experience_years": 12,
      "fees": { "online_pkr": 2000, "inperson_pkr": 3500 },
      "weekly_schedule": { "Mon": ["10:00-12:00"], "Fri": ["14:00-18:00"] },
      "location": "Unity Care Clinic, Karachi",
      "calendar_id": "ayesha@clinic.example",
      "email": "ayesha@clinic.example"
    },
    {
      "doctor_id": "doc-002",
      "name": "Dr. Eric Johnson",
      "specialization": "Cardiologist",
      "experience_years": 18,
      "fees": { "online_pkr": 3000, "inperson_pkr": 5000 },
      "weekly_schedule": { "Tue": ["09:00-13:00"] },
      "location": "Unity Care Clinic, Karachi",
      "calendar_id": "eric@clinic.example",
      "email": "eric@clinic.example"
    }
  ],
  "condition_map": {
    "Acne": ["doc-001"],
    "chest pain": ["doc-002", "doc-001"]
  }
}`

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doctors.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNewFileDoctorDirectory(t *testing.T) {
	dir, err := NewFileDoctorDirectory(writeFixture(t, directoryFixture))
	if err != nil {
		t.Fatalf("NewFileDoctorDirectory() = %v, want nil", err)
	}

	doctor, ok := dir.DoctorByID("doc-001")
	if !ok {
		t.Fatal("DoctorByID(doc-001) not found")
	}
	if doctor.Fees.OnlinePKR != 2000 {
		t.Errorf("online fee = %d, want 2000", doctor.Fees.OnlinePKR)
	}
	if len(doctor.Schedule) != 2 {
		t.Errorf("schedule has %d days, want 2", len(doctor.Schedule))
	}

	if _, ok := dir.DoctorByID("doc-404"); ok {
		t.Error("DoctorByID(doc-404) = found, want missing")
	}
	if got := len(dir.Doctors()); got != 2 {
		t.Errorf("Doctors() = %d entries, want 2", got)
	}
}

func TestDoctorByNamePartialMatch(t *testing.T) {
	dir, err := NewFileDoctorDirectory(writeFixture(t, directoryFixture))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		query  string
		wantID string
	}{
		{"Dr. Eric Johnson", "doc-002"},
		{"eric", "doc-002"},
		{"ERIC JOHNSON", "doc-002"},
		{"  ayesha  ", "doc-001"},
		// Query longer than the stored name still matches.
		{"Dr. Eric Johnson MD", "doc-002"},
	}
	for _, tt := range tests {
		doctor, ok := dir.DoctorByName(tt.query)
		if !ok {
			t.Errorf("DoctorByName(%q) not found", tt.query)
			continue
		}
		if doctor.DoctorID != tt.wantID {
			t.Errorf("DoctorByName(%q) = %s, want %s", tt.query, doctor.DoctorID, tt.wantID)
		}
	}

	if _, ok := dir.DoctorByName(""); ok {
		t.Error("DoctorByName(\"\") = found, want missing")
	}
	if _, ok := dir.DoctorByName("nobody"); ok {
		t.Error("DoctorByName(nobody) = found, want missing")
	}
}

func TestMatchConditionCaseInsensitive(t *testing.T) {
	dir, err := NewFileDoctorDirectory(writeFixture(t, directoryFixture))
	if err != nil {
		t.Fatal(err)
	}

	got := dir.MatchCondition("ACNE")
	if len(got) != 1 || got[0] != "doc-001" {
		t.Errorf("MatchCondition(ACNE) = %v, want [doc-001]", got)
	}

	// Order from the data file is preserved.
	got = dir.MatchCondition("Chest Pain")
	if len(got) != 2 || got[0] != "doc-002" || got[1] != "doc-001" {
		t.Errorf("MatchCondition(Chest Pain) = %v, want [doc-002 doc-001]", got)
	}

	if got := dir.MatchCondition("unknown"); len(got) != 0 {
		t.Errorf("MatchCondition(unknown) = %v, want empty", got)
	}
}

func TestNewFileDoctorDirectoryRejectsBadData(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing id", `{"doctors": [{"name": "Dr. X", "weekly_schedule": {}}]}`},
		{"duplicate id", `{"doctors": [
			{"doctor_id": "doc-001", "name": "A", "weekly_schedule": {}},
			{"doctor_id": "doc-001", "name": "B", "weekly_schedule": {}}
		]}`},
		{"bad schedule", `{"doctors": [{"doctor_id": "doc-001", "name": "A", "weekly_schedule": {"Mon": ["25:00-26:00"]}}]}`},
		{"not json", `doctors: []`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewFileDoctorDirectory(writeFixture(t, tt.content)); err == nil {
				t.Error("NewFileDoctorDirectory() = nil error, want failure")
			}
		})
	}

	if _, err := NewFileDoctorDirectory(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("NewFileDoctorDirectory() on missing file = nil error, want failure")
	}
}
