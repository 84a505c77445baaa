package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/trezcool/eduspace/core/roster"
)

type facultyRepository struct {
	db *DB
}

var _ roster.FacultyRepository = (*facultyRepository)(nil)

func NewFacultyRepository(db *DB) roster.FacultyRepository {
	return &facultyRepository{db: db}
}

func (r *facultyRepository) CreateFaculty(_ context.Context, fac roster.Faculty) (roster.Faculty, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	// unique (email), (external_id), as enforced by the SQL schema
	for _, f := range r.db.faculty {
		if f.Email == fac.Email || f.ExternalID == fac.ExternalID {
			return roster.Faculty{}, roster.ErrFacultyExists
		}
	}

	r.db.facultyPK++
	fac.ID = r.db.facultyPK
	r.db.faculty[fac.ID] = &fac
	return fac, nil
}

func (r *facultyRepository) QueryAllFaculty(_ context.Context) ([]roster.Faculty, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	res := make([]roster.Faculty, 0, len(r.db.faculty))
	for _, f := range r.db.faculty {
		res = append(res, *f)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (r *facultyRepository) GetFacultyByEmailOrExternalID(_ context.Context, email, extID string) (roster.Faculty, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, f := range r.db.faculty {
		if f.Email == email || f.ExternalID == extID {
			return *f, nil
		}
	}
	return roster.Faculty{}, roster.ErrFacultyNotFound
}

func (r *facultyRepository) DeleteFaculty(_ context.Context, id int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.faculty[id]; !ok {
		return roster.ErrFacultyNotFound
	}
	delete(r.db.faculty, id)
	return nil
}

type studentRepository struct {
	db *DB
}

var _ roster.StudentRepository = (*studentRepository)(nil)

func NewStudentRepository(db *DB) roster.StudentRepository {
	return &studentRepository{db: db}
}

// EnrollStudent appends to the batch and creates the student record under a
// single lock, so a duplicate student leaves no member append behind.
func (r *studentRepository) EnrollStudent(_ context.Context, std roster.Student) (roster.Student, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	// unique (email), (external_id), as enforced by the SQL schema
	for _, s := range r.db.students {
		if s.Email == std.Email || s.ExternalID == std.ExternalID {
			return roster.Student{}, roster.ErrStudentExists
		}
	}

	bat, ok := r.db.batches[std.BatchName]
	if !ok {
		r.db.batchPK++
		bat = &roster.Batch{
			ID:        r.db.batchPK,
			Name:      std.BatchName,
			Students:  []roster.BatchMember{},
			CreatedAt: time.Now().UTC(),
		}
		r.db.batches[std.BatchName] = bat
	}
	bat.Students = append(bat.Students, roster.BatchMember{
		ExternalID: std.ExternalID,
		Name:       std.Name,
		Email:      std.Email,
		Department: std.Department,
	})

	r.db.studentPK++
	std.ID = r.db.studentPK
	r.db.students[std.ID] = &std
	return std, nil
}

func (r *studentRepository) QueryAllStudents(_ context.Context) ([]roster.Student, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	res := make([]roster.Student, 0, len(r.db.students))
	for _, s := range r.db.students {
		res = append(res, *s)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (r *studentRepository) GetStudentByEmail(_ context.Context, email string) (roster.Student, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, s := range r.db.students {
		if s.Email == email {
			return *s, nil
		}
	}
	return roster.Student{}, roster.ErrStudentNotFound
}

func (r *studentRepository) GetStudentByEmailOrExternalID(_ context.Context, email, extID string) (roster.Student, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, s := range r.db.students {
		if s.Email == email || s.ExternalID == extID {
			return *s, nil
		}
	}
	return roster.Student{}, roster.ErrStudentNotFound
}

func (r *studentRepository) DeleteStudent(_ context.Context, id int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.students[id]; !ok {
		return roster.ErrStudentNotFound
	}
	delete(r.db.students, id)
	return nil
}

type batchRepository struct {
	db *DB
}

var _ roster.BatchRepository = (*batchRepository)(nil)

func NewBatchRepository(db *DB) roster.BatchRepository {
	return &batchRepository{db: db}
}

func (r *batchRepository) QueryAllBatches(_ context.Context) ([]roster.Batch, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	res := make([]roster.Batch, 0, len(r.db.batches))
	for _, b := range r.db.batches {
		cp := *b
		cp.Students = append([]roster.BatchMember(nil), b.Students...)
		res = append(res, cp)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (r *batchRepository) GetBatchByName(_ context.Context, name string) (roster.Batch, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if b, ok := r.db.batches[name]; ok {
		cp := *b
		cp.Students = append([]roster.BatchMember(nil), b.Students...)
		return cp, nil
	}
	return roster.Batch{}, roster.ErrBatchNotFound
}
