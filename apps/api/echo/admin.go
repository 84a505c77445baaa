package echoapi

import (
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/eduspace/core"
	"github.com/trezcool/eduspace/core/roster"
)

var (
	errNoFileUploaded  = echo.NewHTTPError(http.StatusBadRequest, echo.Map{"message": "No file uploaded"})
	errNotCSV          = echo.NewHTTPError(http.StatusBadRequest, echo.Map{"message": "Only CSV files are allowed!"})
	errFacultyNotFound = echo.NewHTTPError(http.StatusNotFound, "Faculty member not found.")
	errStudentNotFound = echo.NewHTTPError(http.StatusNotFound, "Student not found.")
)

type adminApi struct {
	svc roster.Service
}

func registerAdminAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc roster.Service) {
	api := adminApi{svc: svc}

	ag := g.Group("/admin", jwt, adminMiddleware())

	ag.POST("/faculty", api.createFaculty)
	ag.GET("/faculty", api.queryFaculty)
	ag.DELETE("/faculty/:id", api.destroyFaculty)

	ag.POST("/students", api.createStudent)
	ag.GET("/students", api.queryStudents)
	ag.DELETE("/students/:id", api.destroyStudent)

	ag.GET("/student-batches", api.queryBatches)

	ag.POST("/upload-facultyset", api.uploadFacultySet)
	ag.POST("/upload-studentbatch", api.uploadStudentBatch)
}

// Handlers

func (api *adminApi) createFaculty(ctx echo.Context) error {
	var data roster.NewFaculty
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewFaculty")
	}

	fac, err := api.svc.AddFaculty(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, fac)
}

func (api *adminApi) createStudent(ctx echo.Context) error {
	var data roster.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}

	std, err := api.svc.AddStudent(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, std)
}

func (api *adminApi) queryFaculty(ctx echo.Context) error {
	facs, err := api.svc.QueryAllFaculty(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying faculty")
	}
	if facs == nil {
		facs = []roster.Faculty{}
	}
	return ctx.JSON(http.StatusOK, facs)
}

func (api *adminApi) queryStudents(ctx echo.Context) error {
	stds, err := api.svc.QueryAllStudents(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if stds == nil {
		stds = []roster.Student{}
	}
	return ctx.JSON(http.StatusOK, stds)
}

func (api *adminApi) queryBatches(ctx echo.Context) error {
	bats, err := api.svc.QueryAllBatches(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying batches")
	}
	if bats == nil {
		bats = []roster.Batch{}
	}
	return ctx.JSON(http.StatusOK, bats)
}

func (api *adminApi) destroyFaculty(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errFacultyNotFound
	}
	if err = api.svc.DeleteFaculty(ctx.Request().Context(), id); err != nil {
		if errors.Cause(err) == roster.ErrFacultyNotFound {
			return errFacultyNotFound
		}
		return errors.Wrap(err, "deleting faculty")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *adminApi) destroyStudent(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errStudentNotFound
	}
	if err = api.svc.DeleteStudent(ctx.Request().Context(), id); err != nil {
		if errors.Cause(err) == roster.ErrStudentNotFound {
			return errStudentNotFound
		}
		return errors.Wrap(err, "deleting student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *adminApi) uploadFacultySet(ctx echo.Context) error {
	data, err := readCSVUpload(ctx)
	if err != nil {
		return err
	}

	report, err := api.svc.IngestFacultyCSV(ctx.Request().Context(), data)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, echo.Map{
			"message": "Failed to upload faculty list",
			"error":   errors.Cause(err).Error(),
		})
	}
	return ctx.JSON(http.StatusOK, UploadResponse{
		Message:   "Faculty list uploaded and processed successfully!",
		Successes: report.Successes,
		Failures:  report.Failures,
	})
}

func (api *adminApi) uploadStudentBatch(ctx echo.Context) error {
	data, err := readCSVUpload(ctx)
	if err != nil {
		return err
	}

	batchName := core.CleanString(ctx.FormValue("batchName"))
	if batchName == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "batchName", Error: "batchName is required"})
	}

	report, err := api.svc.IngestStudentCSV(ctx.Request().Context(), data, batchName)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, echo.Map{
			"message": "Failed to upload student batch",
			"error":   errors.Cause(err).Error(),
		})
	}
	return ctx.JSON(http.StatusOK, UploadResponse{
		Message:   "Student batch uploaded and processed successfully!",
		Successes: report.Successes,
		Failures:  report.Failures,
	})
}

// readCSVUpload pulls the "csvFile" part out of a multipart request.
func readCSVUpload(ctx echo.Context) ([]byte, error) {
	fh, err := ctx.FormFile("csvFile")
	if err != nil {
		return nil, errNoFileUploaded
	}
	if strings.ToLower(filepath.Ext(fh.Filename)) != ".csv" {
		return nil, errNotCSV
	}

	f, err := fh.Open()
	if err != nil {
		return nil, errors.Wrap(err, "opening uploaded file")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	return data, errors.Wrap(err, "reading uploaded file")
}

// UploadResponse is the settled result of a whole roster upload.
type UploadResponse struct {
	Message   string              `json:"message"`
	Successes []roster.RowSuccess `json:"success"`
	Failures  []roster.RowFailure `json:"error"`
}
