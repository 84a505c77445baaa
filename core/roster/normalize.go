package roster

import (
	"github.com/pkg/errors"

	"github.com/trezcool/eduspace/core"
	"github.com/trezcool/eduspace/core/user"
)

// errMissingAttributes rejects a row with any empty mapped field.
// The row is reported as a Failure and produces no side effects.
var errMissingAttributes = errors.New("Missing Attributes")

// Fixed column contract with the upload format (headerless CSV):
//
//	faculty: id, email, name, department
//	student: id, name, email, department
//
// Changing this breaks every existing upload sheet.
const (
	facultyColID = iota
	facultyColEmail
	facultyColName
	facultyColDept
)

const (
	studentColID = iota
	studentColName
	studentColEmail
	studentColDept
)

func field(row []string, i int) string {
	if i < len(row) {
		return core.CleanString(row[i])
	}
	return ""
}

// normalizeRow maps a positional row into a Candidate. rowNum is the row's
// 1-based file position. batchName applies to students only and is shared by
// every row of the batch.
func normalizeRow(row []string, rowNum int, role, batchName string) (Candidate, error) {
	cand := Candidate{
		Row:                 rowNum,
		Role:                role,
		ProvisionalPassword: core.Conf.DefaultAccountPassword,
	}

	switch role {
	case user.RoleFaculty:
		cand.ExternalID = field(row, facultyColID)
		cand.Email = core.CleanString(field(row, facultyColEmail), true /* lower */)
		cand.Name = field(row, facultyColName)
		cand.Department = field(row, facultyColDept)
	case user.RoleStudent:
		cand.ExternalID = field(row, studentColID)
		cand.Name = field(row, studentColName)
		cand.Email = core.CleanString(field(row, studentColEmail), true /* lower */)
		cand.Department = field(row, studentColDept)
		cand.BatchName = core.CleanString(batchName)
	default:
		return Candidate{}, errors.Errorf("unsupported role %q", role)
	}

	if cand.ExternalID == "" || cand.Name == "" || cand.Email == "" || cand.Department == "" ||
		cand.ProvisionalPassword == "" || (role == user.RoleStudent && cand.BatchName == "") {
		return cand, errMissingAttributes
	}
	return cand, nil
}
