package main

import (
	"context"

	"github.com/trezcool/eduspace/core/user"
)

// addUser creates an active admin account.
func (cli *commandLine) addUser(name, email, pwd string) error {
	nu := user.NewUser{
		Name:     name,
		Email:    email,
		Password: pwd,
		Role:     user.RoleAdmin,
	}
	if err := nu.Validate(cli.usrSvc); err != nil {
		return err
	}
	_, err := cli.usrSvc.Create(context.Background(), nu)
	return err
}
