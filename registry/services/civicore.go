package services

import (
	"civicore/registry/accounts"
	"civicore/registry/auth"
	"civicore/registry/certnum"
	"civicore/registry/config"
	"civicore/registry/records"
	"civicore/registry/stats"
	"civicore/registry/storage"
	"civicore/utils"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"gorm.io/gorm"
)

type Options struct {
	JwtSecret  []byte
	SessionTtl time.Duration
	CertMode   certnum.Mode
	Storage    storage.Storage
	Reference  *config.ReferenceData

	// Login attempts allowed per minute from one address, 0 disables the limit.
	LoginRateLimit int
}

type Civicore struct {
	user      UserService
	documents DocumentService
	issuances IssuanceService
	marriage  MarriageLicenseService
	barangays BarangayService
	templates TemplateService
	stats     StatsService

	userAuth       *auth.Authenticator
	reference      *records.ReferenceStore
	loginRateLimit int
	// Seed data written by InitReferenceData.
	defaults *config.ReferenceData
}

func NewCivicore(db *gorm.DB, opts Options) Civicore {
	userAuth := auth.NewAuthenticator(db, opts.JwtSecret, opts.SessionTtl)

	documents := records.NewDocumentStore(db, storage.NewPreviews(opts.Storage))
	issuances := records.NewIssuanceStore(db, certnum.NewGenerator(db, opts.CertMode))
	reference := records.NewReferenceStore(db, opts.Reference.Barangays)

	return Civicore{
		user:      UserService{accounts: accounts.NewManager(db), userAuth: userAuth},
		documents: DocumentService{documents: documents, userAuth: userAuth},
		issuances: IssuanceService{issuances: issuances, userAuth: userAuth},
		marriage:  MarriageLicenseService{documents: documents, userAuth: userAuth},
		barangays: BarangayService{reference: reference, userAuth: userAuth},
		templates: TemplateService{reference: reference, userAuth: userAuth},
		stats: StatsService{
			aggregator:   stats.NewAggregator(db),
			mapBarangays: opts.Reference.Barangays,
			mapView:      opts.Reference.Map,
			userAuth:     userAuth,
		},
		userAuth:       userAuth,
		reference:      reference,
		loginRateLimit: opts.LoginRateLimit,
		defaults:       opts.Reference,
	}
}

// InitReferenceData seeds the default templates that are not stored yet.
func (c *Civicore) InitReferenceData() error {
	return c.reference.SeedTemplates(c.defaults.Templates)
}

func (c *Civicore) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger: log.New(os.Stderr, "", log.LstdFlags), NoColor: true,
	}))
	r.Use(instrument)

	r.Group(func(r chi.Router) {
		if c.loginRateLimit > 0 {
			r.Use(httprate.LimitByIP(c.loginRateLimit, time.Minute))
		}

		r.Post("/login", c.user.Login)
	})

	r.Group(func(r chi.Router) {
		r.Use(c.userAuth.AuthMiddleware()...)

		r.Get("/session", c.user.Session)
		r.Post("/create-account", c.user.CreateAccount)
		r.Post("/change-password", c.user.ChangePassword)
	})

	r.Mount("/users", c.user.Routes())
	r.Mount("/documents", c.documents.Routes())
	r.Mount("/issuances", c.issuances.Routes())
	r.Mount("/marriage-licenses", c.marriage.Routes())
	r.Mount("/barangays", c.barangays.Routes())
	r.Mount("/templates", c.templates.Routes())
	r.Mount("/stats", c.stats.Routes())

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJsonResponse(w, map[string]string{"status": "ok"})
	})

	return r
}
