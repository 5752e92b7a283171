package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Semester identifies the academic period of an enrollment.
type Semester string

// Supported semesters.
const (
	SemesterFall   Semester = "FALL"
	SemesterSpring Semester = "SPRING"
	SemesterSummer Semester = "SUMMER"
)

// Valid reports whether s is one of the known semesters.
func (s Semester) Valid() bool {
	switch s {
	case SemesterFall, SemesterSpring, SemesterSummer:
		return true
	}
	return false
}

// UnmarshalJSON accepts semesters case-insensitively and rejects unknown values.
func (s *Semester) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("semester: %w", err)
	}
	parsed := Semester(strings.ToUpper(strings.TrimSpace(raw)))
	if !parsed.Valid() {
		return fmt.Errorf("semester: unknown value %q", raw)
	}
	*s = parsed
	return nil
}

// Enrollment is the persisted enrollment entity. Student and course display
// fields are snapshots taken when the enrollment was created or updated.
type Enrollment struct {
	ID               string   `db:"id" bson:"_id" json:"-"`
	EnrollmentID     string   `db:"enrollment_id" bson:"enrollmentId" json:"enrollmentId"`
	EnrollmentYear   int      `db:"enrollment_year" bson:"enrollmentYear" json:"enrollmentYear"`
	Semester         Semester `db:"semester" bson:"semester" json:"semester"`
	StudentID        string   `db:"student_id" bson:"studentId" json:"studentId"`
	StudentFirstName string   `db:"student_first_name" bson:"studentFirstName" json:"studentFirstName"`
	StudentLastName  string   `db:"student_last_name" bson:"studentLastName" json:"studentLastName"`
	CourseID         string   `db:"course_id" bson:"courseId" json:"courseId"`
	CourseNumber     string   `db:"course_number" bson:"courseNumber" json:"courseNumber"`
	CourseName       string   `db:"course_name" bson:"courseName" json:"courseName"`
}

// EnrollmentRequest is the inbound payload for create and update. The display
// fields are only read by update; create takes them from the remote records.
type EnrollmentRequest struct {
	EnrollmentYear   int      `json:"enrollmentYear"`
	Semester         Semester `json:"semester"`
	StudentID        string   `json:"studentId" validate:"required"`
	StudentFirstName string   `json:"studentFirstName,omitempty"`
	StudentLastName  string   `json:"studentLastName,omitempty"`
	CourseID         string   `json:"courseId" validate:"required"`
	CourseNumber     string   `json:"courseNumber,omitempty"`
	CourseName       string   `json:"courseName,omitempty"`
}

// EnrollmentResponse is the outward projection of an Enrollment.
type EnrollmentResponse struct {
	EnrollmentID     string   `json:"enrollmentId"`
	EnrollmentYear   int      `json:"enrollmentYear"`
	Semester         Semester `json:"semester"`
	StudentID        string   `json:"studentId"`
	StudentFirstName string   `json:"studentFirstName"`
	StudentLastName  string   `json:"studentLastName"`
	CourseID         string   `json:"courseId"`
	CourseNumber     string   `json:"courseNumber"`
	CourseName       string   `json:"courseName"`
}

// ToResponse projects e field by field.
func (e Enrollment) ToResponse() EnrollmentResponse {
	return EnrollmentResponse{
		EnrollmentID:     e.EnrollmentID,
		EnrollmentYear:   e.EnrollmentYear,
		Semester:         e.Semester,
		StudentID:        e.StudentID,
		StudentFirstName: e.StudentFirstName,
		StudentLastName:  e.StudentLastName,
		CourseID:         e.CourseID,
		CourseNumber:     e.CourseNumber,
		CourseName:       e.CourseName,
	}
}
