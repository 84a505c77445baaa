package core

import (
	"testing"
	"time"
)

func TestConfigDefaults(t *testing.T) {
	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{name: "appName", got: Conf.AppName, want: "EduSpace"},
		{name: "defaultAccountPassword", got: Conf.DefaultAccountPassword, want: "12345678"},
		{name: "rowTimeout", got: Conf.RowTimeout, want: 30 * time.Second},
		{name: "server.addr", got: Conf.Server.Addr, want: ":8000"},
		{name: "server.jwtExpirationDelta", got: Conf.Server.JWTExpirationDelta, want: 7 * 24 * time.Hour},
		{name: "server.jwtRefreshExpirationDelta", got: Conf.Server.JWTRefreshExpirationDelta, want: 4 * time.Hour},
		{name: "frontendBaseURL", got: Conf.FrontendBaseURL, want: "http://localhost:3000"},
		{name: "database.name", got: Conf.Database.Name, want: "eduspace"},
		{name: "database.address", got: Conf.Database.Address(), want: "localhost:5432"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %v; want %v", tt.name, tt.got, tt.want)
			}
		})
	}
}
