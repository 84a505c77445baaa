package roster_test

import (
	"context"
	"io"
	"log"
	"strings"
	"sync"
	"testing"

	"github.com/pkg/errors"

	"github.com/trezcool/eduspace/core"
	"github.com/trezcool/eduspace/core/roster"
	"github.com/trezcool/eduspace/core/user"
	inmemdb "github.com/trezcool/eduspace/storage/database/inmem"
	testutil "github.com/trezcool/eduspace/tests"
)

// mailRecorder stands in for the email service; when failing it drops every
// message like a broken provider would.
type mailRecorder struct {
	mu      sync.Mutex
	sent    []*core.EmailMessage
	failing bool
}

var _ core.EmailService = (*mailRecorder)(nil)

func (m *mailRecorder) SendMessages(messages ...*core.EmailMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return
	}
	m.sent = append(m.sent, messages...)
}

func (m *mailRecorder) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type serviceFixture struct {
	svc     roster.Service
	usrRepo user.Repository
	facRepo roster.FacultyRepository
	stdRepo roster.StudentRepository
	batRepo roster.BatchRepository
	mail    *mailRecorder
}

func setup(t *testing.T) *serviceFixture {
	t.Helper()
	db := testutil.PrepareDB(t)

	f := &serviceFixture{
		usrRepo: inmemdb.NewUserRepository(db),
		facRepo: inmemdb.NewFacultyRepository(db),
		stdRepo: inmemdb.NewStudentRepository(db),
		batRepo: inmemdb.NewBatchRepository(db),
		mail:    &mailRecorder{},
	}
	f.svc = roster.NewService(
		f.usrRepo, f.facRepo, f.stdRepo, f.batRepo,
		f.mail, core.NewStdLogger(log.New(io.Discard, "", 0)),
	)
	return f
}

func (f *serviceFixture) counts(t *testing.T) (users, faculty, students int) {
	t.Helper()
	ctx := context.Background()
	us, err := f.usrRepo.QueryAllUsers(ctx)
	if err != nil {
		t.Fatalf("QueryAllUsers() failed: %v", err)
	}
	fs, err := f.facRepo.QueryAllFaculty(ctx)
	if err != nil {
		t.Fatalf("QueryAllFaculty() failed: %v", err)
	}
	ss, err := f.stdRepo.QueryAllStudents(ctx)
	if err != nil {
		t.Fatalf("QueryAllStudents() failed: %v", err)
	}
	return len(us), len(fs), len(ss)
}

func TestIngestFacultyCSV(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	data := "F1,alpha@test.cd,Alpha,Math\nF2,beta@test.cd,Beta,Physics\n"
	report, err := f.svc.IngestFacultyCSV(ctx, []byte(data))
	if err != nil {
		t.Fatalf("IngestFacultyCSV() error = %v", err)
	}

	if len(report.Successes) != 2 || len(report.Failures) != 0 {
		t.Fatalf("report = %d successes, %d failures; want 2, 0", len(report.Successes), len(report.Failures))
	}
	for _, s := range report.Successes {
		if s.Email != "" {
			t.Errorf("faculty success row carries email %q; faculty reports omit it", s.Email)
		}
	}

	users, faculty, _ := f.counts(t)
	if users != 2 || faculty != 2 {
		t.Errorf("persisted %d accounts, %d faculty; want 2, 2", users, faculty)
	}

	// exactly one account per committed row, with the provisional password
	usr, err := f.usrRepo.GetUserByEmail(ctx, "alpha@test.cd")
	if err != nil {
		t.Fatalf("GetUserByEmail() failed: %v", err)
	}
	if !usr.IsFaculty() {
		t.Errorf("account role = %q; want %q", usr.Role, user.RoleFaculty)
	}
	if err = usr.CheckPassword(core.Conf.DefaultAccountPassword); err != nil {
		t.Error("account password is not the provisional password")
	}

	if f.mail.count() != 2 {
		t.Errorf("sent %d welcome emails; want 2", f.mail.count())
	}
}

func TestIngestFacultyCSV_missingAttributes(t *testing.T) {
	f := setup(t)

	data := "F1,alpha@test.cd,Alpha\n,,,\nF3,gamma@test.cd,Gamma,Chem\n"
	report, err := f.svc.IngestFacultyCSV(context.Background(), []byte(data))
	if err != nil {
		t.Fatalf("IngestFacultyCSV() error = %v", err)
	}

	if len(report.Successes) != 1 || len(report.Failures) != 2 {
		t.Fatalf("report = %d successes, %d failures; want 1, 2", len(report.Successes), len(report.Failures))
	}
	for _, fl := range report.Failures {
		if fl.Message != "Missing Attributes" {
			t.Errorf("failure message = %q; want %q", fl.Message, "Missing Attributes")
		}
	}

	// locator prefers the email, falls back to the file position
	var locs []string
	for _, fl := range report.Failures {
		locs = append(locs, fl.Location)
	}
	joined := strings.Join(locs, "|")
	if !strings.Contains(joined, "alpha@test.cd") || !strings.Contains(joined, "Row 2") {
		t.Errorf("failure locations = %v; want the email and %q", locs, "Row 2")
	}

	// invalid rows leave no writes behind
	users, faculty, _ := f.counts(t)
	if users != 1 || faculty != 1 {
		t.Errorf("persisted %d accounts, %d faculty; want 1, 1", users, faculty)
	}
}

func TestIngestFacultyCSV_duplicate(t *testing.T) {
	f := setup(t)

	testutil.CreateUser(t, f.usrRepo, "Alpha", "alpha@test.cd", "", user.RoleFaculty, true)
	testutil.CreateFaculty(t, f.facRepo, "F1", "Alpha", "alpha@test.cd", "Math")

	data := "F1,alpha@test.cd,Alpha,Math\n"
	report, err := f.svc.IngestFacultyCSV(context.Background(), []byte(data))
	if err != nil {
		t.Fatalf("IngestFacultyCSV() error = %v", err)
	}

	if len(report.Successes) != 0 || len(report.Failures) != 1 {
		t.Fatalf("report = %d successes, %d failures; want 0, 1", len(report.Successes), len(report.Failures))
	}
	fl := report.Failures[0]
	if fl.Message != "User or faculty already exists" {
		t.Errorf("failure message = %q; want %q", fl.Message, "User or faculty already exists")
	}
	if fl.ExternalID != "F1" || fl.Name != "Alpha" || fl.Department != "Math" {
		t.Errorf("failure identity = %+v; want the row's id, name and department", fl)
	}

	users, faculty, _ := f.counts(t)
	if users != 1 || faculty != 1 {
		t.Errorf("persisted %d accounts, %d faculty; want 1, 1 (no new writes)", users, faculty)
	}
	if f.mail.count() != 0 {
		t.Errorf("sent %d emails for a rejected row; want 0", f.mail.count())
	}
}

func TestIngestStudentCSV(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	data := "S1,Alpha,alpha@test.cd,Math\nS2,Beta,beta@test.cd,Physics\n"
	report, err := f.svc.IngestStudentCSV(ctx, []byte(data), "2024A")
	if err != nil {
		t.Fatalf("IngestStudentCSV() error = %v", err)
	}

	if len(report.Successes) != 2 || len(report.Failures) != 0 {
		t.Fatalf("report = %d successes, %d failures; want 2, 0", len(report.Successes), len(report.Failures))
	}
	for _, s := range report.Successes {
		if s.Email == "" {
			t.Error("student success row is missing its email")
		}
	}

	users, _, students := f.counts(t)
	if users != 2 || students != 2 {
		t.Errorf("persisted %d accounts, %d students; want 2, 2", users, students)
	}

	bat, err := f.batRepo.GetBatchByName(ctx, "2024A")
	if err != nil {
		t.Fatalf("GetBatchByName() failed: %v", err)
	}
	if len(bat.Students) != 2 {
		t.Errorf("batch has %d members; want 2", len(bat.Students))
	}
}

// Three rows share an external ID; the two distinct students must land and
// the cohort must end up with exactly two members, whichever row loses.
func TestIngestStudentCSV_inBatchDuplicate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	data := "S1,Alpha,alpha@test.cd,Math\nS2,Beta,beta@test.cd,Physics\nS1,Gamma,gamma@test.cd,Chem\n"
	report, err := f.svc.IngestStudentCSV(ctx, []byte(data), "2024A")
	if err != nil {
		t.Fatalf("IngestStudentCSV() error = %v", err)
	}

	if len(report.Successes) != 2 || len(report.Failures) != 1 {
		t.Fatalf("report = %d successes, %d failures; want 2, 1", len(report.Successes), len(report.Failures))
	}
	if msg := report.Failures[0].Message; msg != "User or student already exists." {
		t.Errorf("failure message = %q; want %q", msg, "User or student already exists.")
	}

	_, _, students := f.counts(t)
	if students != 2 {
		t.Errorf("persisted %d students; want 2", students)
	}
	bat, err := f.batRepo.GetBatchByName(ctx, "2024A")
	if err != nil {
		t.Fatalf("GetBatchByName() failed: %v", err)
	}
	if len(bat.Students) != 2 {
		t.Errorf("batch has %d members; want exactly 2", len(bat.Students))
	}
}

func TestIngestStudentCSV_accountWithoutRecord(t *testing.T) {
	f := setup(t)

	// an account exists but no student record does
	testutil.CreateUser(t, f.usrRepo, "Alpha", "alpha@test.cd", "", user.RoleStudent, true)

	data := "S1,Alpha,alpha@test.cd,Math\n"
	report, err := f.svc.IngestStudentCSV(context.Background(), []byte(data), "2024A")
	if err != nil {
		t.Fatalf("IngestStudentCSV() error = %v", err)
	}

	if len(report.Failures) != 1 {
		t.Fatalf("report = %d failures; want 1", len(report.Failures))
	}
	fl := report.Failures[0]
	if fl.Message != "User already exists but student record not found." {
		t.Errorf("failure message = %q", fl.Message)
	}
	if fl.Location != "alpha@test.cd" {
		t.Errorf("failure location = %q; want the row's email", fl.Location)
	}
}

func TestIngest_everyRowSettles(t *testing.T) {
	f := setup(t)

	data := "F1,alpha@test.cd,Alpha,Math\n" +
		"F2,beta@test.cd,Beta\n" + // missing attributes
		"F3,gamma@test.cd,Gamma,Chem\n" +
		"F1,delta@test.cd,Delta,Bio\n" + // in-batch duplicate external ID
		",,,\n"
	report, err := f.svc.IngestFacultyCSV(context.Background(), []byte(data))
	if err != nil {
		t.Fatalf("IngestFacultyCSV() error = %v", err)
	}

	if got := len(report.Successes) + len(report.Failures); got != 5 {
		t.Errorf("settled %d rows; want all 5", got)
	}
}

func TestIngest_resubmitIsAllFailures(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	data := "F1,alpha@test.cd,Alpha,Math\nF2,beta@test.cd,Beta,Physics\n"
	if _, err := f.svc.IngestFacultyCSV(ctx, []byte(data)); err != nil {
		t.Fatalf("IngestFacultyCSV() error = %v", err)
	}
	users1, faculty1, _ := f.counts(t)

	report, err := f.svc.IngestFacultyCSV(ctx, []byte(data))
	if err != nil {
		t.Fatalf("IngestFacultyCSV() error = %v", err)
	}
	if len(report.Successes) != 0 || len(report.Failures) != 2 {
		t.Errorf("resubmit report = %d successes, %d failures; want 0, 2", len(report.Successes), len(report.Failures))
	}

	users2, faculty2, _ := f.counts(t)
	if users1 != users2 || faculty1 != faculty2 {
		t.Errorf("resubmit changed the stores: %d/%d accounts, %d/%d faculty", users1, users2, faculty1, faculty2)
	}
}

func TestIngest_notificationFailureNeverDemotes(t *testing.T) {
	f := setup(t)
	f.mail.failing = true

	data := "S1,Alpha,alpha@test.cd,Math\nS2,Beta,beta@test.cd,Physics\n"
	report, err := f.svc.IngestStudentCSV(context.Background(), []byte(data), "2024A")
	if err != nil {
		t.Fatalf("IngestStudentCSV() error = %v", err)
	}

	if len(report.Successes) != 2 || len(report.Failures) != 0 {
		t.Errorf("report = %d successes, %d failures; persistence alone classifies a row", len(report.Successes), len(report.Failures))
	}
}

func TestIngest_malformedInputAbortsBeforeAnyWrite(t *testing.T) {
	f := setup(t)

	data := "F1,\"alpha@test.cd\nF2,beta@test.cd,Beta,Physics\n"
	_, err := f.svc.IngestFacultyCSV(context.Background(), []byte(data))
	if err == nil {
		t.Fatal("IngestFacultyCSV() expected an error")
	}
	if errors.Cause(err) != roster.ErrMalformedInput {
		t.Errorf("cause = %v; want ErrMalformedInput", errors.Cause(err))
	}

	users, faculty, _ := f.counts(t)
	if users != 0 || faculty != 0 {
		t.Errorf("persisted %d accounts, %d faculty; want none", users, faculty)
	}
}
