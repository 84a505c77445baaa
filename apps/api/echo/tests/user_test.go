package tests

import (
	"net/http"
	"testing"

	. "github.com/trezcool/eduspace/apps/api/echo"
	"github.com/trezcool/eduspace/core/user"
	testutil "github.com/trezcool/eduspace/tests"
)

func TestUserAPI_login(t *testing.T) {
	f := setup(t)

	testutil.CreateUser(t, f.usrRepo, "Awe", "awe@test.cd", "LolC@t123", user.RoleAdmin, true)
	testutil.CreateUser(t, f.usrRepo, "Gone", "gone@test.cd", "LolC@t123", user.RoleFaculty, false)

	path := "/v1/users/login"
	tests := []httpTest{
		{
			name:     "login ok",
			body:     []byte(`{"email": "awe@test.cd", "password": "LolC@t123"}`),
			wantCode: http.StatusOK,
			extra:    "token",
		},
		{
			name:     "email is case-insensitive",
			body:     []byte(`{"email": " Awe@Test.CD ", "password": "LolC@t123"}`),
			wantCode: http.StatusOK,
			extra:    "token",
		},
		{
			name:     "wrong password",
			body:     []byte(`{"email": "awe@test.cd", "password": "nope"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name:     "unknown email",
			body:     []byte(`{"email": "who@test.cd", "password": "LolC@t123"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name:     "deactivated account",
			body:     []byte(`{"email": "gone@test.cd", "password": "LolC@t123"}`),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{
			name:     "missing fields",
			body:     []byte(`{}`),
			wantCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, path, tt.body)
			f.app.ServeHTTP(rec, req)

			if tt.extra == "token" {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				var res LoginResponse
				decodeBody(t, rec, &res)
				if res.Token == "" {
					t.Error("login did not return a token")
				}
				return
			}
			if tt.wantData == nil {
				if rec.Code != tt.wantCode {
					t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func TestUserAPI_tokenRefresh(t *testing.T) {
	f := setup(t)

	usr := testutil.CreateUser(t, f.usrRepo, "Awe", "awe@test.cd", "LolC@t123", user.RoleAdmin, true)
	token := getToken(t, usr)

	path := "/v1/users/token-refresh"

	t.Run("no token", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, path)
		f.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)
	})

	t.Run("refresh ok", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, path, token)
		f.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var res LoginResponse
		decodeBody(t, rec, &res)
		if res.Token == "" {
			t.Error("refresh did not return a token")
		}
	})
}
