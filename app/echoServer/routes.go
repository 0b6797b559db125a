package echoServer

import (
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/maxim-heibach/library-management/app/echoServer/controller/auth"
	"github.com/maxim-heibach/library-management/app/echoServer/controller/author"
	"github.com/maxim-heibach/library-management/app/echoServer/controller/book"
	"github.com/maxim-heibach/library-management/app/echoServer/controller/loan"
	"github.com/maxim-heibach/library-management/app/echoServer/controller/report"
	"github.com/maxim-heibach/library-management/app/echoServer/controller/user"
	"github.com/maxim-heibach/library-management/app/echoServer/jwtx"
	"github.com/maxim-heibach/library-management/model"
)

type C struct {
	Auth   *auth.Controller
	Book   *book.Controller
	Author *author.Controller
	Loan   *loan.Controller
	User   *user.Controller
	Report *report.Controller

	JWTSecret string
}

func Register(e *echo.Echo, c C) {
	// Public
	pub := e.Group("/v1")
	pub.POST("/users/register", c.Auth.Register)
	pub.POST("/users/login", c.Auth.Login)

	// Authenticated
	authed := e.Group("/v1")
	authed.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(c.JWTSecret),
	}))

	// Copy uid and role out of the verified token so handlers and the
	// role gate read plain context keys.
	authed.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			uid, err := jwtx.UserIDFromContext(ctx)
			if err != nil {
				return ctx.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
			}
			role, err := jwtx.RoleFromContext(ctx)
			if err != nil {
				return ctx.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
			}
			ctx.Set("user_id", uid)
			ctx.Set("role", role)
			return next(ctx)
		}
	})

	librarian := RequireRole(model.RoleLibrarian, model.RoleAdmin)
	admin := RequireRole(model.RoleAdmin)

	// Books
	authed.GET("/books", c.Book.List)
	authed.GET("/books/:id", c.Book.Detail)
	authed.POST("/books", c.Book.Create, librarian)
	authed.PUT("/books/:id", c.Book.Update, librarian)
	authed.DELETE("/books/:id", c.Book.Delete, librarian)

	// Authors
	authed.GET("/authors", c.Author.List, librarian)
	authed.GET("/authors/search", c.Author.Search)
	authed.GET("/authors/:id", c.Author.Detail, librarian)
	authed.POST("/authors", c.Author.Create, librarian)
	authed.PUT("/authors/:id", c.Author.Update, librarian)
	authed.DELETE("/authors/:id", c.Author.Delete, librarian)

	// Loans
	authed.POST("/loans", c.Loan.Borrow)
	authed.POST("/loans/:id/return", c.Loan.Return)
	authed.GET("/loans/my", c.Loan.MyHistory)
	authed.GET("/loans/my/open", c.Loan.MyOpen)

	// Users
	authed.GET("/users/me", c.User.Me)
	authed.GET("/users", c.User.List, librarian)
	authed.GET("/users/:id/loans", c.Loan.UserHistory, librarian)
	authed.PUT("/users/:id/role", c.User.ChangeRole, admin)
	authed.DELETE("/users/:id", c.User.Delete, admin)

	// Reports
	authed.GET("/reports/top-books", c.Report.TopBooks, admin)
	authed.GET("/reports/top-users", c.Report.TopUsers, admin)
	authed.GET("/reports/overdue", c.Report.Overdue, admin)

	// CSV exports
	authed.GET("/export/books.csv", c.Report.ExportBooks, admin)
	authed.GET("/export/users.csv", c.Report.ExportUsers, admin)
	authed.GET("/export/authors.csv", c.Report.ExportAuthors, admin)
	authed.GET("/export/reports/top-books.csv", c.Report.ExportTopBooks, admin)
	authed.GET("/export/reports/top-users.csv", c.Report.ExportTopUsers, admin)
	authed.GET("/export/reports/overdue.csv", c.Report.ExportOverdue, admin)
}
