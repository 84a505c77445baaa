package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/eduspace/core/roster"
)

type facultyRepository struct {
	db *sqlx.DB
}

var _ roster.FacultyRepository = (*facultyRepository)(nil)

func NewFacultyRepository(db *sqlx.DB) roster.FacultyRepository {
	return &facultyRepository{db: db}
}

type dbFaculty struct {
	ID         int       `db:"id"`
	ExternalID string    `db:"external_id"`
	Name       string    `db:"name"`
	Email      string    `db:"email"`
	Department string    `db:"department"`
	CreatedAt  time.Time `db:"created_at"`
}

func (f dbFaculty) toCore() roster.Faculty {
	return roster.Faculty{
		ID:         f.ID,
		ExternalID: f.ExternalID,
		Name:       f.Name,
		Email:      f.Email,
		Department: f.Department,
		CreatedAt:  f.CreatedAt,
	}
}

func (repo *facultyRepository) CreateFaculty(ctx context.Context, fac roster.Faculty) (roster.Faculty, error) {
	query := `
INSERT INTO faculty (external_id, name, email, department, created_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id`
	err := repo.db.QueryRowContext(
		ctx, query,
		fac.ExternalID, fac.Name, fac.Email, fac.Department, fac.CreatedAt,
	).Scan(&fac.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return roster.Faculty{}, roster.ErrFacultyExists
		}
		return roster.Faculty{}, errors.Wrap(err, "creating faculty")
	}
	return fac, nil
}

func (repo *facultyRepository) QueryAllFaculty(ctx context.Context) ([]roster.Faculty, error) {
	var rows []dbFaculty
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM faculty ORDER BY id`); err != nil {
		return nil, errors.Wrap(err, "querying faculty")
	}
	res := make([]roster.Faculty, 0, len(rows))
	for _, row := range rows {
		res = append(res, row.toCore())
	}
	return res, nil
}

func (repo *facultyRepository) GetFacultyByEmailOrExternalID(ctx context.Context, email, extID string) (roster.Faculty, error) {
	var row dbFaculty
	query := `SELECT * FROM faculty WHERE email = $1 OR external_id = $2 LIMIT 1`
	if err := repo.db.GetContext(ctx, &row, query, email, extID); err != nil {
		if err == sql.ErrNoRows {
			return roster.Faculty{}, roster.ErrFacultyNotFound
		}
		return roster.Faculty{}, errors.Wrap(err, "getting faculty")
	}
	return row.toCore(), nil
}

func (repo *facultyRepository) DeleteFaculty(ctx context.Context, id int) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM faculty WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting faculty")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return roster.ErrFacultyNotFound
	}
	return nil
}

type studentRepository struct {
	db *sqlx.DB
}

var _ roster.StudentRepository = (*studentRepository)(nil)

func NewStudentRepository(db *sqlx.DB) roster.StudentRepository {
	return &studentRepository{db: db}
}

type dbStudent struct {
	ID         int       `db:"id"`
	ExternalID string    `db:"external_id"`
	Name       string    `db:"name"`
	Email      string    `db:"email"`
	Department string    `db:"department"`
	BatchName  string    `db:"batch_name"`
	CreatedAt  time.Time `db:"created_at"`
}

func (s dbStudent) toCore() roster.Student {
	return roster.Student{
		ID:         s.ID,
		ExternalID: s.ExternalID,
		Name:       s.Name,
		Email:      s.Email,
		Department: s.Department,
		BatchName:  s.BatchName,
		CreatedAt:  s.CreatedAt,
	}
}

// EnrollStudent runs the batch upsert, the member append and the student
// insert in one transaction: a student losing the unique-index race rolls
// the member append back with it.
func (repo *studentRepository) EnrollStudent(ctx context.Context, std roster.Student) (roster.Student, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return roster.Student{}, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	// lazy batch creation; idempotent under concurrent same-batch rows
	if _, err = tx.ExecContext(
		ctx,
		`INSERT INTO batch (name, created_at) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`,
		std.BatchName, std.CreatedAt,
	); err != nil {
		return roster.Student{}, errors.Wrap(err, "creating batch")
	}

	if _, err = tx.ExecContext(
		ctx,
		`INSERT INTO batch_member (batch_name, external_id, name, email, department) VALUES ($1, $2, $3, $4, $5)`,
		std.BatchName, std.ExternalID, std.Name, std.Email, std.Department,
	); err != nil {
		return roster.Student{}, errors.Wrap(err, "appending batch member")
	}

	query := `
INSERT INTO student (external_id, name, email, department, batch_name, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`
	err = tx.QueryRowContext(
		ctx, query,
		std.ExternalID, std.Name, std.Email, std.Department, std.BatchName, std.CreatedAt,
	).Scan(&std.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return roster.Student{}, roster.ErrStudentExists
		}
		return roster.Student{}, errors.Wrap(err, "creating student")
	}

	if err = tx.Commit(); err != nil {
		return roster.Student{}, errors.Wrap(err, "committing transaction")
	}
	return std, nil
}

func (repo *studentRepository) QueryAllStudents(ctx context.Context) ([]roster.Student, error) {
	var rows []dbStudent
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM student ORDER BY id`); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	res := make([]roster.Student, 0, len(rows))
	for _, row := range rows {
		res = append(res, row.toCore())
	}
	return res, nil
}

func (repo *studentRepository) getStudent(ctx context.Context, query string, args ...interface{}) (roster.Student, error) {
	var row dbStudent
	if err := repo.db.GetContext(ctx, &row, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return roster.Student{}, roster.ErrStudentNotFound
		}
		return roster.Student{}, errors.Wrap(err, "getting student")
	}
	return row.toCore(), nil
}

func (repo *studentRepository) GetStudentByEmail(ctx context.Context, email string) (roster.Student, error) {
	return repo.getStudent(ctx, `SELECT * FROM student WHERE email = $1`, email)
}

func (repo *studentRepository) GetStudentByEmailOrExternalID(ctx context.Context, email, extID string) (roster.Student, error) {
	return repo.getStudent(ctx, `SELECT * FROM student WHERE email = $1 OR external_id = $2 LIMIT 1`, email, extID)
}

func (repo *studentRepository) DeleteStudent(ctx context.Context, id int) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM student WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting student")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return roster.ErrStudentNotFound
	}
	return nil
}

type batchRepository struct {
	db *sqlx.DB
}

var _ roster.BatchRepository = (*batchRepository)(nil)

func NewBatchRepository(db *sqlx.DB) roster.BatchRepository {
	return &batchRepository{db: db}
}

type dbBatch struct {
	ID        int       `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
}

type dbBatchMember struct {
	BatchName  string `db:"batch_name"`
	ExternalID string `db:"external_id"`
	Name       string `db:"name"`
	Email      string `db:"email"`
	Department string `db:"department"`
}

func (repo *batchRepository) queryMembers(ctx context.Context, batchNames ...string) (map[string][]roster.BatchMember, error) {
	query := `SELECT batch_name, external_id, name, email, department FROM batch_member ORDER BY id`
	args := make([]interface{}, 0, 1)
	if len(batchNames) > 0 {
		q, inArgs, err := sqlx.In(
			`SELECT batch_name, external_id, name, email, department FROM batch_member WHERE batch_name IN (?) ORDER BY id`,
			batchNames,
		)
		if err != nil {
			return nil, errors.Wrap(err, "building query")
		}
		query = repo.db.Rebind(q)
		args = inArgs
	}

	var rows []dbBatchMember
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying batch members")
	}

	members := make(map[string][]roster.BatchMember, len(rows))
	for _, row := range rows {
		members[row.BatchName] = append(members[row.BatchName], roster.BatchMember{
			ExternalID: row.ExternalID,
			Name:       row.Name,
			Email:      row.Email,
			Department: row.Department,
		})
	}
	return members, nil
}

func (repo *batchRepository) QueryAllBatches(ctx context.Context) ([]roster.Batch, error) {
	var rows []dbBatch
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM batch ORDER BY id`); err != nil {
		return nil, errors.Wrap(err, "querying batches")
	}
	members, err := repo.queryMembers(ctx)
	if err != nil {
		return nil, err
	}

	res := make([]roster.Batch, 0, len(rows))
	for _, row := range rows {
		mbs := members[row.Name]
		if mbs == nil {
			mbs = []roster.BatchMember{}
		}
		res = append(res, roster.Batch{ID: row.ID, Name: row.Name, Students: mbs, CreatedAt: row.CreatedAt})
	}
	return res, nil
}

func (repo *batchRepository) GetBatchByName(ctx context.Context, name string) (roster.Batch, error) {
	var row dbBatch
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM batch WHERE name = $1`, name); err != nil {
		if err == sql.ErrNoRows {
			return roster.Batch{}, roster.ErrBatchNotFound
		}
		return roster.Batch{}, errors.Wrap(err, "getting batch")
	}

	members, err := repo.queryMembers(ctx, name)
	if err != nil {
		return roster.Batch{}, err
	}
	mbs := members[name]
	if mbs == nil {
		mbs = []roster.BatchMember{}
	}
	return roster.Batch{ID: row.ID, Name: row.Name, Students: mbs, CreatedAt: row.CreatedAt}, nil
}
