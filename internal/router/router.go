package router

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "formsadmin/docs"
	"formsadmin/internal/admin"
	"formsadmin/internal/auth"
	"formsadmin/internal/handler"
	"formsadmin/internal/middleware"
)

// Options holds what the router needs besides the admin site.
type Options struct {
	Issuer         *auth.Issuer
	Users          handler.UserStore
	DB             handler.Pinger
	AllowedOrigins []string
	LoginRate      float64
	LoginBurst     int
	SecureCookies  bool
}

// Session endpoints mounted by New.
const (
	LoginPath  = "/admin/login/"
	LogoutPath = "/admin/logout/"
)

func New(site *admin.Site, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())

	corsConfig := cors.DefaultConfig()
	if len(opts.AllowedOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = opts.AllowedOrigins
		corsConfig.AllowCredentials = true
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization", middleware.RequestIDHeader)
	r.Use(cors.New(corsConfig))

	authH := handler.NewAuthHandler(opts.Users, opts.Issuer, site, LoginPath, opts.SecureCookies)

	r.GET("/healthz", handler.Healthz(opts.DB))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/", func(c *gin.Context) { c.Redirect(http.StatusFound, site.MustReverse("index")) })

	r.GET(LoginPath, authH.LoginForm)
	r.POST(LoginPath, middleware.LoginRateLimit(opts.LoginRate, opts.LoginBurst), authH.Login)
	r.GET(LogoutPath, authH.Logout)

	site.Mount(r, middleware.AdminView(opts.Issuer, LoginPath))
	return r
}
