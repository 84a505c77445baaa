package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	echoapi "github.com/trezcool/eduspace/apps/api/echo"
	"github.com/trezcool/eduspace/core"
	"github.com/trezcool/eduspace/core/roster"
	"github.com/trezcool/eduspace/core/user"
	emailsvc "github.com/trezcool/eduspace/services/email"
	logsvc "github.com/trezcool/eduspace/services/logger"
	"github.com/trezcool/eduspace/storage/database"
	sqlxrepos "github.com/trezcool/eduspace/storage/database/sqlx"
)

func main() {
	// set up logger
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		core.Conf,
	)
	logger.Enable(!core.Conf.Debug)

	logger.Info(fmt.Sprintf("Application initializing : version %q", core.Conf.Build))
	defer logger.Info("Application stopped")

	// set up DB
	db, err := setUpDB()
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() { _ = db.Close() }()
	sdb := sqlxrepos.Wrap(db)

	// set up services
	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}
	usrRepo := sqlxrepos.NewUserRepository(sdb)
	usrSvc := user.NewService(usrRepo, logger)
	rstSvc := roster.NewService(
		usrRepo,
		sqlxrepos.NewFacultyRepository(sdb),
		sqlxrepos.NewStudentRepository(sdb),
		sqlxrepos.NewBatchRepository(sdb),
		mailSvc,
		logger,
	)

	// start API server
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	app := echoapi.NewServer(
		&echoapi.Options{
			Address:   core.Conf.Server.Addr,
			Logger:    logger,
			UserSvc:   usrSvc,
			RosterSvc: rstSvc,
			Shutdown:  shutdown,
		},
	)

	serverErrors := make(chan error, 1)
	go func() { serverErrors <- app.Start() }()

	select {
	case err = <-serverErrors:
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-shutdown:
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err = app.Stop(ctx); err != nil {
			logger.Fatal(fmt.Sprintf("could not stop server gracefully: %v", err), err)
		}
	}
}

func setUpDB() (*sql.DB, error) {
	if err := database.CreateIfNotExist(core.Conf); err != nil {
		return nil, err
	}

	db, err := database.Open(core.Conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
