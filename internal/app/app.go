package app

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/ideabox/internal/pkg/clock"
	"github.com/shandysiswandi/ideabox/internal/pkg/config"
	"github.com/shandysiswandi/ideabox/internal/pkg/goroutine"
	"github.com/shandysiswandi/ideabox/internal/pkg/idempotency"
	"github.com/shandysiswandi/ideabox/internal/pkg/instrument"
	"github.com/shandysiswandi/ideabox/internal/pkg/mail"
	"github.com/shandysiswandi/ideabox/internal/pkg/messaging"
	"github.com/shandysiswandi/ideabox/internal/pkg/router"
	"github.com/shandysiswandi/ideabox/internal/pkg/storage"
	"github.com/shandysiswandi/ideabox/internal/pkg/uid"
	"github.com/shandysiswandi/ideabox/internal/pkg/validator"
	"go.mongodb.org/mongo-driver/mongo"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	uuid      uid.StringID

	// resources
	mongoClients []*mongo.Client
	otpDB        *mongo.Database
	formDB       *mongo.Database
	dbConn       *pgxpool.Pool
	cacheConn    *redis.Client
	idemp        idempotency.Idempotency
	mail         mail.Mail
	messaging    messaging.Messaging
	storage      storage.Storage

	// server
	router     *router.Router
	httpServer *http.Server

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initMongo()
	app.initDatabase()
	app.initCache()
	app.initMail()
	app.initStorage()
	app.initMessaging()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
