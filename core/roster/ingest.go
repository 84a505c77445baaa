package roster

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/eduspace/core"
	"github.com/trezcool/eduspace/core/user"
)

// Bulk rejection messages, part of the upload API surface.
var (
	msgFacultyExists        = "User or faculty already exists"
	msgStudentExists        = "User or student already exists."
	msgAccountWithoutRecord = "User already exists but student record not found."
)

func (svc *service) IngestFacultyCSV(ctx context.Context, data []byte) (BatchReport, error) {
	rows, err := DecodeTable(data)
	if err != nil {
		return BatchReport{}, err
	}
	return svc.ingest(ctx, rows, user.RoleFaculty, ""), nil
}

func (svc *service) IngestStudentCSV(ctx context.Context, data []byte, batchName string) (BatchReport, error) {
	rows, err := DecodeTable(data)
	if err != nil {
		return BatchReport{}, err
	}
	return svc.ingest(ctx, rows, user.RoleStudent, batchName), nil
}

// ingest fans validated rows out to independent concurrent tasks and waits
// for all of them to settle; no row failure aborts a sibling row or the
// batch. Rows complete in any order.
func (svc *service) ingest(ctx context.Context, rows [][]string, role, batchName string) BatchReport {
	runID := uuid.New().String()
	started := time.Now()
	svc.logger.Info(fmt.Sprintf("roster ingest %s: %d %s rows", runID, len(rows), role))

	outcomes := make(chan rowOutcome, len(rows))
	var wg sync.WaitGroup

	for i, row := range rows {
		cand, err := normalizeRow(row, i+1, role, batchName)
		if err != nil {
			// no side effects for an invalid row
			outcomes <- failed(RowFailure{Location: cand.locator(), Message: err.Error()})
			continue
		}

		wg.Add(1)
		go func(cand Candidate) {
			defer wg.Done()
			rctx, cancel := context.WithTimeout(ctx, core.Conf.RowTimeout)
			defer cancel()
			outcomes <- svc.processRow(rctx, cand)
		}(cand)
	}

	wg.Wait()
	close(outcomes)

	report := BatchReport{Successes: []RowSuccess{}, Failures: []RowFailure{}}
	for oc := range outcomes {
		if oc.success != nil {
			report.Successes = append(report.Successes, *oc.success)
		} else {
			report.Failures = append(report.Failures, *oc.failure)
		}
	}

	svc.logger.Info(fmt.Sprintf(
		"roster ingest %s: done in %s; %d succeeded, %d failed",
		runID, time.Since(started), len(report.Successes), len(report.Failures),
	))
	return report
}

// processRow runs one row through resolve -> commit -> notify, strictly in
// that order. Persistence success is the sole criterion for the row's
// classification; the notification is fire-and-forget.
func (svc *service) processRow(ctx context.Context, cand Candidate) rowOutcome {
	if fail := svc.resolve(ctx, cand); fail != nil {
		return failed(*fail)
	}
	ident, fail := svc.commit(ctx, cand)
	if fail != nil {
		return failed(*fail)
	}
	svc.notify(ident)
	return succeeded(ident, cand.Role == user.RoleStudent)
}

// duplicate registry hits
type dupKind int

const (
	dupNone       dupKind = iota
	dupAccount            // account registry hit, no role record
	dupRoleRecord         // role record registry hit
)

// lookupDuplicate checks the candidate against the account registry (by
// email) and the matching role registry (by email or external ID). This is a
// check-then-act early exit; the storage layer's unique constraints remain
// the authority for rows racing within the same batch.
func (svc *service) lookupDuplicate(ctx context.Context, cand Candidate) (dupKind, error) {
	var account bool
	if _, err := svc.usrRepo.GetUserByEmail(ctx, cand.Email); err == nil {
		account = true
	} else if errors.Cause(err) != user.ErrNotFound {
		return dupNone, errors.Wrap(err, "finding account by email")
	}

	var record bool
	switch cand.Role {
	case user.RoleFaculty:
		if _, err := svc.facRepo.GetFacultyByEmailOrExternalID(ctx, cand.Email, cand.ExternalID); err == nil {
			record = true
		} else if errors.Cause(err) != ErrFacultyNotFound {
			return dupNone, errors.Wrap(err, "finding faculty record")
		}
	case user.RoleStudent:
		if _, err := svc.stdRepo.GetStudentByEmailOrExternalID(ctx, cand.Email, cand.ExternalID); err == nil {
			record = true
		} else if errors.Cause(err) != ErrStudentNotFound {
			return dupNone, errors.Wrap(err, "finding student record")
		}
	}

	switch {
	case record:
		return dupRoleRecord, nil
	case account:
		return dupAccount, nil
	}
	return dupNone, nil
}

// resolve decides accept (nil) or reject for a candidate. For students the
// pre-existing record's details are surfaced in the failure payload.
func (svc *service) resolve(ctx context.Context, cand Candidate) *RowFailure {
	kind, err := svc.lookupDuplicate(ctx, cand)
	if err != nil {
		return &RowFailure{Location: cand.locator(), Message: fmt.Sprintf("Error saving user: %v", err)}
	}
	if kind == dupNone {
		return nil
	}

	if cand.Role == user.RoleFaculty {
		return &RowFailure{
			ExternalID: cand.ExternalID,
			Name:       cand.Name,
			Department: cand.Department,
			Message:    msgFacultyExists,
		}
	}

	// student: surface the existing record's identity when there is one
	if kind == dupRoleRecord {
		if std, err := svc.stdRepo.GetStudentByEmailOrExternalID(ctx, cand.Email, cand.ExternalID); err == nil {
			return &RowFailure{
				ExternalID: std.ExternalID,
				Name:       std.Name,
				Email:      std.Email,
				Department: std.Department,
				Message:    msgStudentExists,
			}
		}
	}
	return &RowFailure{Location: cand.locator(), Message: msgAccountWithoutRecord}
}

// commit persists an accepted candidate: account record, then (students) the
// batch member append, then the role record. Each step can fail on its own;
// earlier writes are not rolled back. A unique-constraint violation at any
// step is the authoritative duplicate signal for rows racing in-batch.
func (svc *service) commit(ctx context.Context, cand Candidate) (CommittedIdentity, *RowFailure) {
	now := time.Now().UTC()
	usr := user.User{
		Name:      cand.Name,
		Email:     cand.Email,
		Role:      cand.Role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(cand.ProvisionalPassword); err != nil {
		return CommittedIdentity{}, &RowFailure{Location: cand.locator(), Message: fmt.Sprintf("Error saving user: %v", err)}
	}
	if _, err := svc.usrRepo.CreateUser(ctx, usr); err != nil {
		return CommittedIdentity{}, svc.commitFailure(cand, err)
	}

	if cand.Role == user.RoleStudent {
		std := Student{
			ExternalID: cand.ExternalID,
			Name:       cand.Name,
			Email:      cand.Email,
			Department: cand.Department,
			BatchName:  cand.BatchName,
			CreatedAt:  now,
		}
		if _, err := svc.stdRepo.EnrollStudent(ctx, std); err != nil {
			return CommittedIdentity{}, svc.commitFailure(cand, err)
		}
	} else {
		fac := Faculty{
			ExternalID: cand.ExternalID,
			Name:       cand.Name,
			Email:      cand.Email,
			Department: cand.Department,
			CreatedAt:  now,
		}
		if _, err := svc.facRepo.CreateFaculty(ctx, fac); err != nil {
			return CommittedIdentity{}, svc.commitFailure(cand, err)
		}
	}

	return cand.committed(), nil
}

// commitFailure maps a commit-step error to the row's failure: write-time
// duplicate signals get the same message as resolver rejections, anything
// else is reported as a persistence error.
func (svc *service) commitFailure(cand Candidate, err error) *RowFailure {
	switch errors.Cause(err) {
	case user.ErrEmailExists, ErrFacultyExists:
		if cand.Role == user.RoleFaculty {
			return &RowFailure{
				ExternalID: cand.ExternalID,
				Name:       cand.Name,
				Department: cand.Department,
				Message:    msgFacultyExists,
			}
		}
		fallthrough
	case ErrStudentExists:
		return &RowFailure{
			ExternalID: cand.ExternalID,
			Name:       cand.Name,
			Email:      cand.Email,
			Department: cand.Department,
			Message:    msgStudentExists,
		}
	}
	svc.logger.Error(fmt.Sprintf("roster commit (%s): %v", cand.locator(), err), err)
	return &RowFailure{Location: cand.locator(), Message: fmt.Sprintf("Error saving user: %v", err)}
}
