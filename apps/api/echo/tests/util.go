package tests

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/eduspace/apps/api/echo"
	"github.com/trezcool/eduspace/core"
	"github.com/trezcool/eduspace/core/roster"
	"github.com/trezcool/eduspace/core/user"
	emailsvc "github.com/trezcool/eduspace/services/email"
	inmemdb "github.com/trezcool/eduspace/storage/database/inmem"
	testutil "github.com/trezcool/eduspace/tests"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type fixture struct {
	app     Server
	usrRepo user.Repository
	facRepo roster.FacultyRepository
	stdRepo roster.StudentRepository
	batRepo roster.BatchRepository
}

func setup(t *testing.T) *fixture {
	t.Helper()

	// set up DB & repos
	db := testutil.PrepareDB(t)
	f := &fixture{
		usrRepo: inmemdb.NewUserRepository(db),
		facRepo: inmemdb.NewFacultyRepository(db),
		stdRepo: inmemdb.NewStudentRepository(db),
		batRepo: inmemdb.NewBatchRepository(db),
	}

	// set up services
	logger := core.NewStdLogger(log.New(io.Discard, "", 0))
	mailSvc := emailsvc.NewConsoleServiceMock()
	emailsvc.ClearSentMessages()
	usrSvc := user.NewService(f.usrRepo, logger)
	rstSvc := roster.NewService(f.usrRepo, f.facRepo, f.stdRepo, f.batRepo, mailSvc, logger)

	// set up server
	f.app = NewServer(
		&Options{
			DisableReqLogs: true,
			Logger:         logger,
			UserSvc:        usrSvc,
			RosterSvc:      rstSvc,
		},
	)
	return f
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

// newUploadRequest builds a multipart request; filename may be empty to omit
// the file part entirely.
func newUploadRequest(
	t *testing.T,
	path, token, filename string,
	contents []byte,
	fields map[string]string,
) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()
	body := new(bytes.Buffer)
	w := multipart.NewWriter(body)
	if filename != "" {
		fw, err := w.CreateFormFile("csvFile", filename)
		if err != nil {
			t.Fatalf("newUploadRequest() failed: %v", err)
		}
		if _, err = fw.Write(contents); err != nil {
			t.Fatalf("newUploadRequest() failed: %v", err)
		}
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("newUploadRequest() failed: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("newUploadRequest() failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func getToken(t *testing.T, usr user.User) string {
	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decodeBody() failed: %v; body %s", err, rec.Body.String())
	}
}
