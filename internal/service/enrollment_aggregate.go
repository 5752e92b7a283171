package service

import (
	"errors"

	"github.com/noah-isme/enrollments-service/internal/models"
)

var errIncompleteAggregate = errors.New("enrollment aggregate is missing a student or course snapshot")

// enrollmentAggregate carries one create request through the pipeline. Each
// stage returns a new value; a value is never modified after it is built.
type enrollmentAggregate struct {
	request models.EnrollmentRequest
	student *models.StudentRecord
	course  *models.CourseRecord
}

func newEnrollmentAggregate(req models.EnrollmentRequest) enrollmentAggregate {
	return enrollmentAggregate{request: req}
}

func (a enrollmentAggregate) withStudent(rec models.StudentRecord) enrollmentAggregate {
	a.student = &rec
	return a
}

func (a enrollmentAggregate) withCourse(rec models.CourseRecord) enrollmentAggregate {
	a.course = &rec
	return a
}

// build produces the entity to persist. Identity and display fields come
// from the fetched snapshots, never from the request.
func (a enrollmentAggregate) build(enrollmentID string) (models.Enrollment, error) {
	if a.student == nil || a.course == nil {
		return models.Enrollment{}, errIncompleteAggregate
	}
	return models.Enrollment{
		EnrollmentID:     enrollmentID,
		EnrollmentYear:   a.request.EnrollmentYear,
		Semester:         a.request.Semester,
		StudentID:        a.student.StudentID,
		StudentFirstName: a.student.FirstName,
		StudentLastName:  a.student.LastName,
		CourseID:         a.course.CourseID,
		CourseNumber:     a.course.CourseNumber,
		CourseName:       a.course.CourseName,
	}, nil
}
