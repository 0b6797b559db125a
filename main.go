// Package main library API.
//
// @title           Library Management API
// @version         1.0
// @description     Library service (catalog, lending, accounts, reports).
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description  Use:  Bearer <JWT>
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/maxim-heibach/library-management/app/echoServer"
	authctrl "github.com/maxim-heibach/library-management/app/echoServer/controller/auth"
	authorctrl "github.com/maxim-heibach/library-management/app/echoServer/controller/author"
	bookctrl "github.com/maxim-heibach/library-management/app/echoServer/controller/book"
	loanctrl "github.com/maxim-heibach/library-management/app/echoServer/controller/loan"
	reportctrl "github.com/maxim-heibach/library-management/app/echoServer/controller/report"
	userctrl "github.com/maxim-heibach/library-management/app/echoServer/controller/user"
	"github.com/maxim-heibach/library-management/app/echoServer/validation"
	"github.com/maxim-heibach/library-management/config"
	authorrepo "github.com/maxim-heibach/library-management/repository/author"
	bookrepo "github.com/maxim-heibach/library-management/repository/book"
	loanrepo "github.com/maxim-heibach/library-management/repository/loan"
	reportrepo "github.com/maxim-heibach/library-management/repository/report"
	userrepo "github.com/maxim-heibach/library-management/repository/user"
	accountsvc "github.com/maxim-heibach/library-management/service/account"
	catalogsvc "github.com/maxim-heibach/library-management/service/catalog"
	lendingsvc "github.com/maxim-heibach/library-management/service/lending"
	reportsvc "github.com/maxim-heibach/library-management/service/report"
	"github.com/maxim-heibach/library-management/util/database"
)

func main() {

	cfg := config.Load()
	ctx := context.Background()

	// logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	// repos
	br := bookrepo.New(db)
	ar := authorrepo.New(db)
	ur := userrepo.New(db)
	lr := loanrepo.New(db)
	rr := reportrepo.New(db)

	// services
	cs := catalogsvc.New(br, ar)
	as := accountsvc.New(ur, cfg.JWTSecret)
	ls := lendingsvc.New(lr)
	rs := reportsvc.New(rr)

	// controllers
	val := validation.New()
	v := val.Engine()
	authC := &authctrl.Controller{Svc: as, V: v, Log: log}
	bookC := &bookctrl.Controller{Svc: cs, V: v, Log: log}
	authorC := &authorctrl.Controller{Svc: cs, V: v, Log: log}
	loanC := &loanctrl.Controller{Svc: ls, V: v, Log: log}
	userC := &userctrl.Controller{Svc: as, V: v, Log: log}
	reportC := &reportctrl.Controller{Svc: rs, Catalog: cs, Accounts: as, Log: log}

	// echo
	e := echo.New()
	e.JSONSerializer = echoServer.JSONSerializer{}
	echoServer.RegisterMiddlewares(e)
	e.Validator = val

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]any{
			"status":  "ok",
			"message": "Service is healthy and connected",
		})
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	echoServer.Register(e, echoServer.C{
		Auth:   authC,
		Book:   bookC,
		Author: authorC,
		Loan:   loanC,
		User:   userC,
		Report: reportC,

		JWTSecret: cfg.JWTSecret,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}

	log.Info("starting server", "port", port, "env", cfg.Env)

	e.Logger.Fatal(e.Start(":" + port))
}
