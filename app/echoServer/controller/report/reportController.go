package report

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	accountsvc "github.com/maxim-heibach/library-management/service/account"
	catalogsvc "github.com/maxim-heibach/library-management/service/catalog"
	reportsvc "github.com/maxim-heibach/library-management/service/report"
)

type Controller struct {
	Svc      reportsvc.Service
	Catalog  catalogsvc.Service
	Accounts accountsvc.Service
	Log      *slog.Logger
}

// GET /v1/reports/top-books  (admin)
func (h *Controller) TopBooks(c echo.Context) error {
	rows, err := h.Svc.TopBooks(c.Request().Context(), reportsvc.TopLimit)
	if err != nil {
		h.Log.Error("top books", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/reports/top-users  (admin)
func (h *Controller) TopUsers(c echo.Context) error {
	rows, err := h.Svc.TopUsers(c.Request().Context(), reportsvc.TopLimit)
	if err != nil {
		h.Log.Error("top users", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/reports/overdue  (admin)
func (h *Controller) Overdue(c echo.Context) error {
	rows, err := h.Svc.Overdue(c.Request().Context())
	if err != nil {
		h.Log.Error("overdue report", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

func csvResponse(c echo.Context, filename string) {
	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename=`+filename)
	c.Response().WriteHeader(http.StatusOK)
}

// GET /v1/export/books.csv  (admin)
func (h *Controller) ExportBooks(c echo.Context) error {
	books, err := h.Catalog.ListBooks(c.Request().Context(), "")
	if err != nil {
		h.Log.Error("export books", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	csvResponse(c, "books_export.csv")
	return reportsvc.WriteBooksCSV(c.Response(), books)
}

// GET /v1/export/users.csv  (admin)
func (h *Controller) ExportUsers(c echo.Context) error {
	users, err := h.Accounts.List(c.Request().Context(), "")
	if err != nil {
		h.Log.Error("export users", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	csvResponse(c, "users_export.csv")
	return reportsvc.WriteUsersCSV(c.Response(), users)
}

// GET /v1/export/authors.csv  (admin)
func (h *Controller) ExportAuthors(c echo.Context) error {
	authors, err := h.Catalog.ListAuthors(c.Request().Context(), "")
	if err != nil {
		h.Log.Error("export authors", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	csvResponse(c, "authors_export.csv")
	return reportsvc.WriteAuthorsCSV(c.Response(), authors)
}

// GET /v1/export/reports/top-books.csv  (admin, unbounded)
func (h *Controller) ExportTopBooks(c echo.Context) error {
	rows, err := h.Svc.TopBooks(c.Request().Context(), 0)
	if err != nil {
		h.Log.Error("export top books", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	csvResponse(c, "report_top_books.csv")
	return reportsvc.WriteTopBooksCSV(c.Response(), rows)
}

// GET /v1/export/reports/top-users.csv  (admin, unbounded)
func (h *Controller) ExportTopUsers(c echo.Context) error {
	rows, err := h.Svc.TopUsers(c.Request().Context(), 0)
	if err != nil {
		h.Log.Error("export top users", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	csvResponse(c, "report_top_users.csv")
	return reportsvc.WriteTopUsersCSV(c.Response(), rows)
}

// GET /v1/export/reports/overdue.csv  (admin)
func (h *Controller) ExportOverdue(c echo.Context) error {
	rows, err := h.Svc.Overdue(c.Request().Context())
	if err != nil {
		h.Log.Error("export overdue", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	csvResponse(c, "report_overdue.csv")
	return reportsvc.WriteOverdueCSV(c.Response(), rows)
}
