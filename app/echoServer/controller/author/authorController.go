package author

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	catalogsvc "github.com/maxim-heibach/library-management/service/catalog"
)

type Controller struct {
	Svc catalogsvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

// GET /v1/authors  (librarian)
func (h *Controller) List(c echo.Context) error {
	rows, err := h.Svc.ListAuthors(c.Request().Context(), c.QueryParam("search"))
	if err != nil {
		h.Log.Error("author list", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/authors/:id  (librarian)
func (h *Controller) Detail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	a, err := h.Svc.GetAuthor(c.Request().Context(), id)
	if err != nil {
		if catalogsvc.Code(err) == catalogsvc.ErrAuthorNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "author not found"})
		}
		h.Log.Error("author detail", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, a)
}

// GET /v1/authors/search?q=  prefix match for form autocomplete
func (h *Controller) Search(c echo.Context) error {
	names, err := h.Svc.SearchAuthorNames(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		h.Log.Error("author search", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, names)
}

// POST /v1/authors  (librarian)
func (h *Controller) Create(c echo.Context) error {
	var req AuthorReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}

	a, err := h.Svc.AddAuthor(c.Request().Context(), req.Name, req.Biography)
	if err != nil {
		if catalogsvc.Code(err) == catalogsvc.ErrDuplicateName {
			return c.JSON(http.StatusConflict, echo.Map{"message": "an author with this name already exists"})
		}
		h.Log.Error("author create", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusCreated, a)
}

// PUT /v1/authors/:id  (librarian)
func (h *Controller) Update(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req AuthorReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}

	if err := h.Svc.EditAuthor(c.Request().Context(), id, req.Name, req.Biography); err != nil {
		switch catalogsvc.Code(err) {
		case catalogsvc.ErrAuthorNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "author not found"})
		case catalogsvc.ErrDuplicateName:
			return c.JSON(http.StatusConflict, echo.Map{"message": "an author with this name already exists"})
		}
		h.Log.Error("author update", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "updated"})
}

// DELETE /v1/authors/:id  (librarian; removes the author's books too)
func (h *Controller) Delete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if err := h.Svc.DeleteAuthor(c.Request().Context(), id); err != nil {
		if catalogsvc.Code(err) == catalogsvc.ErrAuthorNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "author not found"})
		}
		h.Log.Error("author delete", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "deleted"})
}
