package roster

import (
	"fmt"
	"time"

	"github.com/trezcool/eduspace/core"
	"github.com/trezcool/eduspace/core/user"
)

type (
	// Faculty is a faculty member's role record. Email and ExternalID must
	// each be unique across all Faculty records.
	Faculty struct {
		ID         int       `json:"id"`
		ExternalID string    `json:"external_id"`
		Name       string    `json:"name"`
		Email      string    `json:"email"`
		Department string    `json:"department"`
		CreatedAt  time.Time `json:"created_at"` // UTC
	}

	// Student is a student's role record. Email and ExternalID must each be
	// unique across all Student records. BatchName references a Batch.
	Student struct {
		ID         int       `json:"id"`
		ExternalID string    `json:"external_id"`
		Name       string    `json:"name"`
		Email      string    `json:"email"`
		Department string    `json:"department"`
		BatchName  string    `json:"batch_name"`
		CreatedAt  time.Time `json:"created_at"` // UTC
	}

	// Batch is a student cohort. It is created lazily on first reference and
	// only ever grows; the ingestion pipeline never deletes it.
	Batch struct {
		ID        int           `json:"id"`
		Name      string        `json:"batch_name"`
		Students  []BatchMember `json:"students"`
		CreatedAt time.Time     `json:"created_at"` // UTC
	}

	BatchMember struct {
		ExternalID string `json:"id"`
		Name       string `json:"name"`
		Email      string `json:"email"`
		Department string `json:"department"`
	}

	// Candidate is a typed upload row, immutable once built.
	Candidate struct {
		Row                 int // 1-based file position
		ExternalID          string
		Name                string
		Email               string
		Department          string
		Role                string // user.RoleFaculty | user.RoleStudent
		BatchName           string // students only
		ProvisionalPassword string
	}

	// CommittedIdentity carries the fields of a freshly persisted Candidate
	// needed for the success report and the welcome notification.
	CommittedIdentity struct {
		ExternalID          string
		Name                string
		Email               string
		Department          string
		Role                string
		ProvisionalPassword string
	}
)

// locator identifies a row in failure reports: its email when known,
// its file position otherwise.
func (c Candidate) locator() string {
	if c.Email != "" {
		return c.Email
	}
	return fmt.Sprintf("Row %d", c.Row)
}

func (c Candidate) committed() CommittedIdentity {
	return CommittedIdentity{
		ExternalID:          c.ExternalID,
		Name:                c.Name,
		Email:               c.Email,
		Department:          c.Department,
		Role:                c.Role,
		ProvisionalPassword: c.ProvisionalPassword,
	}
}

// NewFaculty contains information needed to register a single faculty member.
type NewFaculty struct {
	ExternalID string `json:"id" validate:"required"`
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Department string `json:"department" validate:"required"`
}

func (nf *NewFaculty) Validate() error {
	nf.ExternalID = core.CleanString(nf.ExternalID)
	nf.Name = core.CleanString(nf.Name)
	nf.Email = core.CleanString(nf.Email, true /* lower */)
	nf.Department = core.CleanString(nf.Department)
	return core.Validate.Struct(nf)
}

func (nf NewFaculty) candidate() Candidate {
	return Candidate{
		ExternalID:          nf.ExternalID,
		Name:                nf.Name,
		Email:               nf.Email,
		Department:          nf.Department,
		Role:                user.RoleFaculty,
		ProvisionalPassword: core.Conf.DefaultAccountPassword,
	}
}

// NewStudent contains information needed to register a single student.
type NewStudent struct {
	BatchName  string `json:"batch_name" validate:"required"`
	ExternalID string `json:"id" validate:"required"`
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Department string `json:"department" validate:"required"`
}

func (ns *NewStudent) Validate() error {
	ns.BatchName = core.CleanString(ns.BatchName)
	ns.ExternalID = core.CleanString(ns.ExternalID)
	ns.Name = core.CleanString(ns.Name)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.Department = core.CleanString(ns.Department)
	return core.Validate.Struct(ns)
}

func (ns NewStudent) candidate() Candidate {
	return Candidate{
		ExternalID:          ns.ExternalID,
		Name:                ns.Name,
		Email:               ns.Email,
		Department:          ns.Department,
		Role:                user.RoleStudent,
		BatchName:           ns.BatchName,
		ProvisionalPassword: core.Conf.DefaultAccountPassword,
	}
}
