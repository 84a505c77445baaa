package roster

import (
	"net/mail"

	"github.com/trezcool/eduspace/core"
	"github.com/trezcool/eduspace/core/user"
)

var (
	facultyWelcomeSubject = "Welcome to EduSpace Portal - Faculty Registration Confirmation"
	studentWelcomeSubject = "Welcome to EduSpace Portal - Student Registration Confirmation"
)

type welcomeEmailData struct {
	Name     string
	Email    string
	Password string
}

// notify hands the welcome notification off to the email service, which
// sends on its own goroutine. A failed or slow send never reclassifies an
// already-committed row.
func (svc *service) notify(ident CommittedIdentity) {
	subject := facultyWelcomeSubject
	template := "welcome-faculty"
	if ident.Role == user.RoleStudent {
		subject = studentWelcomeSubject
		template = "welcome-student"
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: ident.Name, Address: ident.Email}},
		Subject:      subject,
		TemplateName: template,
		TemplateData: welcomeEmailData{
			Name:     ident.Name,
			Email:    ident.Email,
			Password: ident.ProvisionalPassword,
		},
	})
}
