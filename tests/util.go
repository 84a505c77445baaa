package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/eduspace/core"
	"github.com/trezcool/eduspace/core/roster"
	"github.com/trezcool/eduspace/core/user"
	inmemdb "github.com/trezcool/eduspace/storage/database/inmem"
)

// PrepareDB returns a clean in-memory database. Debug is turned off so
// handler responses keep their production shape.
func PrepareDB(t *testing.T) *inmemdb.DB {
	t.Helper()
	core.Conf.Debug = false
	core.Conf.TestMode = true
	db := inmemdb.NewDB()
	t.Cleanup(db.Reset)
	return db
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd, role string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Email:     email,
		Role:      role,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateFaculty(
	t *testing.T,
	repo roster.FacultyRepository,
	extID, name, email, department string,
) roster.Faculty {
	t.Helper()
	fac, err := repo.CreateFaculty(context.Background(), roster.Faculty{
		ExternalID: extID,
		Name:       name,
		Email:      email,
		Department: department,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateFaculty() failed: %v", err)
	}
	return fac
}

func CreateStudent(
	t *testing.T,
	repo roster.StudentRepository,
	batchName, extID, name, email, department string,
) roster.Student {
	t.Helper()
	std, err := repo.EnrollStudent(context.Background(), roster.Student{
		ExternalID: extID,
		Name:       name,
		Email:      email,
		Department: department,
		BatchName:  batchName,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return std
}
