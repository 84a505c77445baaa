package roster

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/eduspace/core"
	"github.com/trezcool/eduspace/core/user"
)

var (
	// errors
	ErrFacultyNotFound = errors.New("faculty member not found")
	ErrStudentNotFound = errors.New("student not found")
	ErrBatchNotFound   = errors.New("batch not found")
	ErrFacultyExists   = errors.New("Faculty Email or ID is already in use.")
	ErrStudentExists   = errors.New("Student Mail or ID is Already Found")
	ErrAccountExists   = errors.New("Email is already in use.")
)

type (
	FacultyRepository interface {
		CreateFaculty(ctx context.Context, fac Faculty) (Faculty, error)
		QueryAllFaculty(ctx context.Context) ([]Faculty, error)
		// GetFacultyByEmailOrExternalID matches either field.
		GetFacultyByEmailOrExternalID(ctx context.Context, email, extID string) (Faculty, error)
		DeleteFaculty(ctx context.Context, id int) error
	}

	StudentRepository interface {
		// EnrollStudent creates the student's batch on first reference,
		// appends the student to its member list and persists the student
		// record, as one atomic unit. A row losing a same-batch race must
		// leave no member append behind.
		EnrollStudent(ctx context.Context, std Student) (Student, error)
		QueryAllStudents(ctx context.Context) ([]Student, error)
		GetStudentByEmail(ctx context.Context, email string) (Student, error)
		// GetStudentByEmailOrExternalID matches either field.
		GetStudentByEmailOrExternalID(ctx context.Context, email, extID string) (Student, error)
		DeleteStudent(ctx context.Context, id int) error
	}

	BatchRepository interface {
		QueryAllBatches(ctx context.Context) ([]Batch, error)
		GetBatchByName(ctx context.Context, name string) (Batch, error)
	}

	Service interface {
		AddFaculty(ctx context.Context, nf NewFaculty) (Faculty, error)
		AddStudent(ctx context.Context, ns NewStudent) (Student, error)
		QueryAllFaculty(ctx context.Context) ([]Faculty, error)
		QueryAllStudents(ctx context.Context) ([]Student, error)
		QueryAllBatches(ctx context.Context) ([]Batch, error)
		DeleteFaculty(ctx context.Context, id int) error
		DeleteStudent(ctx context.Context, id int) error

		// IngestFacultyCSV runs the bulk pipeline over a headerless CSV of
		// faculty rows (id, email, name, department).
		IngestFacultyCSV(ctx context.Context, data []byte) (BatchReport, error)
		// IngestStudentCSV runs the bulk pipeline over a headerless CSV of
		// student rows (id, name, email, department); batchName is shared by
		// every row.
		IngestStudentCSV(ctx context.Context, data []byte, batchName string) (BatchReport, error)
	}

	service struct {
		usrRepo user.Repository
		facRepo FacultyRepository
		stdRepo StudentRepository
		batRepo BatchRepository
		mailSvc core.EmailService
		logger  core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(
	usrRepo user.Repository,
	facRepo FacultyRepository,
	stdRepo StudentRepository,
	batRepo BatchRepository,
	mailSvc core.EmailService,
	logger core.Logger,
) Service {
	return &service{
		usrRepo: usrRepo,
		facRepo: facRepo,
		stdRepo: stdRepo,
		batRepo: batRepo,
		mailSvc: mailSvc,
		logger:  logger,
	}
}

func (svc *service) AddFaculty(ctx context.Context, nf NewFaculty) (Faculty, error) {
	if err := nf.Validate(); err != nil {
		return Faculty{}, err
	}

	cand := nf.candidate()
	switch kind, err := svc.lookupDuplicate(ctx, cand); {
	case err != nil:
		return Faculty{}, err
	case kind == dupAccount:
		return Faculty{}, core.NewValidationError(ErrAccountExists, core.FieldError{Field: "email", Error: ErrAccountExists.Error()})
	case kind == dupRoleRecord:
		return Faculty{}, core.NewValidationError(ErrFacultyExists)
	}

	ident, fail := svc.commit(ctx, cand)
	if fail != nil {
		return Faculty{}, core.NewValidationError(errors.New(fail.Message))
	}
	svc.notify(ident)

	fac, err := svc.facRepo.GetFacultyByEmailOrExternalID(ctx, cand.Email, cand.ExternalID)
	return fac, errors.Wrap(err, "fetching created faculty")
}

func (svc *service) AddStudent(ctx context.Context, ns NewStudent) (Student, error) {
	if err := ns.Validate(); err != nil {
		return Student{}, err
	}

	cand := ns.candidate()
	switch kind, err := svc.lookupDuplicate(ctx, cand); {
	case err != nil:
		return Student{}, err
	case kind == dupAccount:
		return Student{}, core.NewValidationError(ErrAccountExists, core.FieldError{Field: "email", Error: ErrAccountExists.Error()})
	case kind == dupRoleRecord:
		return Student{}, core.NewValidationError(ErrStudentExists)
	}

	ident, fail := svc.commit(ctx, cand)
	if fail != nil {
		return Student{}, core.NewValidationError(errors.New(fail.Message))
	}
	svc.notify(ident)

	std, err := svc.stdRepo.GetStudentByEmail(ctx, cand.Email)
	return std, errors.Wrap(err, "fetching created student")
}

func (svc *service) QueryAllFaculty(ctx context.Context) ([]Faculty, error) {
	return svc.facRepo.QueryAllFaculty(ctx)
}

func (svc *service) QueryAllStudents(ctx context.Context) ([]Student, error) {
	return svc.stdRepo.QueryAllStudents(ctx)
}

func (svc *service) QueryAllBatches(ctx context.Context) ([]Batch, error) {
	return svc.batRepo.QueryAllBatches(ctx)
}

func (svc *service) DeleteFaculty(ctx context.Context, id int) error {
	return svc.facRepo.DeleteFaculty(ctx, id)
}

func (svc *service) DeleteStudent(ctx context.Context, id int) error {
	return svc.stdRepo.DeleteStudent(ctx, id)
}
