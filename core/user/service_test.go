package user_test

import (
	"context"
	"io"
	"log"
	"testing"

	"github.com/pkg/errors"

	"github.com/trezcool/eduspace/core"
	"github.com/trezcool/eduspace/core/user"
	inmemdb "github.com/trezcool/eduspace/storage/database/inmem"
	testutil "github.com/trezcool/eduspace/tests"
)

func setup(t *testing.T) (user.Service, user.Repository) {
	t.Helper()
	db := testutil.PrepareDB(t)
	repo := inmemdb.NewUserRepository(db)
	return user.NewService(repo, core.NewStdLogger(log.New(io.Discard, "", 0))), repo
}

func TestService_Create(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	nu := user.NewUser{Name: "Awe", Email: "awe@test.cd", Password: "LolC@t123", Role: user.RoleAdmin}
	if err := nu.Validate(svc); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	usr, err := svc.Create(ctx, nu)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if usr.ID == 0 {
		t.Error("Create() did not assign an ID")
	}
	if !usr.IsActive {
		t.Error("Create() account is not active")
	}
	if !usr.IsAdmin() {
		t.Errorf("Create() role = %q; want %q", usr.Role, user.RoleAdmin)
	}
	if err = usr.CheckPassword("LolC@t123"); err != nil {
		t.Error("Create() password does not verify")
	}
	if err = usr.CheckPassword("nope"); err == nil {
		t.Error("CheckPassword() accepted a wrong password")
	}
}

func TestService_CheckEmailUniqueness(t *testing.T) {
	svc, repo := setup(t)

	usr := testutil.CreateUser(t, repo, "Awe", "awe@test.cd", "", user.RoleAdmin, true)

	err := svc.CheckEmailUniqueness("awe@test.cd")
	if err == nil {
		t.Fatal("CheckEmailUniqueness() expected an error")
	}
	var vErr *core.ValidationError
	if vErr, _ = errors.Cause(err).(*core.ValidationError); vErr == nil {
		t.Fatalf("CheckEmailUniqueness() error = %T; want *core.ValidationError", errors.Cause(err))
	}
	if len(vErr.Fields) != 1 || vErr.Fields[0].Field != "email" {
		t.Errorf("CheckEmailUniqueness() fields = %+v; want an email field error", vErr.Fields)
	}

	// the owner is excluded
	if err = svc.CheckEmailUniqueness("awe@test.cd", usr); err != nil {
		t.Errorf("CheckEmailUniqueness() error = %v; want nil with owner excluded", err)
	}
}

func TestNewUser_Validate(t *testing.T) {
	svc, _ := setup(t)

	tests := []struct {
		name    string
		nu      user.NewUser
		wantErr bool
	}{
		{name: "valid", nu: user.NewUser{Name: "Awe", Email: "awe@test.cd", Password: "x", Role: user.RoleStudent}},
		{name: "bad email", nu: user.NewUser{Name: "Awe", Email: "lol", Password: "x", Role: user.RoleStudent}, wantErr: true},
		{name: "unknown role", nu: user.NewUser{Name: "Awe", Email: "awe@test.cd", Password: "x", Role: "janitor"}, wantErr: true},
		{name: "missing name", nu: user.NewUser{Email: "awe@test.cd", Password: "x", Role: user.RoleStudent}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.nu.Validate(svc)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v; wantErr %v", err, tt.wantErr)
			}
		})
	}
}
