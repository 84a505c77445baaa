package user

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/eduspace/core"
)

var (
	userRoleTag  = "userrole"
	userRoleText = "invalid role"
)

func init() {
	_ = core.Validate.RegisterValidation(userRoleTag, userRoleValidation)
	core.RegisterCustomTranslation(userRoleTag, userRoleText)
}

// userRoleValidation only allows a known role.
func userRoleValidation(fl validator.FieldLevel) bool {
	role := fl.Field().String()
	for _, r := range AllRoles {
		if role == r {
			return true
		}
	}
	return false
}
