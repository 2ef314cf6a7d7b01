package httpapi

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ironsheep/labelscan/internal/imaging"
	"github.com/ironsheep/labelscan/internal/nutrition"
	"github.com/ironsheep/labelscan/internal/offacts"
	"github.com/ironsheep/labelscan/internal/scoring"
	"github.com/ironsheep/labelscan/internal/session"
	"github.com/ironsheep/labelscan/internal/storage"
)

// maxUploadBytes bounds multipart uploads held in memory.
const maxUploadBytes = 32 << 20

// ResultReader reads accepted results. *storage.SQLiteStore satisfies it.
type ResultReader interface {
	GetResult(ctx context.Context, id string) (*storage.AcceptedResult, error)
	ListResults(ctx context.Context, barcode string, limit int) ([]*storage.AcceptedResult, error)
}

// API serves the verification loop over HTTP.
type API struct {
	sessions *session.Manager
	results  ResultReader
	logger   *log.Logger
}

// New creates an API. results may be nil when persistence is disabled.
func New(sessions *session.Manager, results ResultReader, logger *log.Logger) *API {
	if logger == nil {
		logger = log.Default()
	}
	return &API{sessions: sessions, results: results, logger: logger}
}

// Router builds a gin engine with every route registered.
func (a *API) Router() *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = maxUploadBytes
	r.Use(gin.Recovery(), a.requestLogger())
	a.setupRoutes(r)
	return r
}

func (a *API) setupRoutes(r *gin.Engine) {
	r.GET("/healthz", a.healthHandler)

	api := r.Group("/api")
	api.POST("/grid", a.gridHandler)
	api.POST("/sessions", a.createSessionHandler)
	api.GET("/sessions", a.listSessionsHandler)
	api.GET("/sessions/:id", a.getSessionHandler)
	api.GET("/sessions/:id/preview", a.previewHandler)
	api.POST("/sessions/:id/retry", a.retryHandler)
	api.POST("/sessions/:id/accept", a.acceptHandler)
	api.DELETE("/sessions/:id", a.abandonHandler)

	api.GET("/products/:barcode", a.productHandler)
	api.POST("/parse", a.parseHandler)
	api.POST("/score", a.scoreHandler)
	api.GET("/ocr/configs", a.ocrConfigsHandler)

	api.GET("/results", a.listResultsHandler)
	api.GET("/results/:id", a.getResultHandler)
}

func (a *API) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		a.logger.Printf("http: %s %s %d %v", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// statusFor maps domain errors to HTTP statuses.
func statusFor(err error) int {
	var fieldErr *nutrition.FieldError
	switch {
	case errors.Is(err, session.ErrNotFound),
		errors.Is(err, storage.ErrNotFound),
		errors.Is(err, offacts.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrInvalidTransition):
		return http.StatusConflict
	case errors.As(err, &fieldErr),
		errors.Is(err, errMissingImage),
		errors.Is(err, offacts.ErrInvalidBarcode),
		errors.Is(err, imaging.ErrUndecodable),
		errors.Is(err, imaging.ErrInvalidRegion),
		errors.Is(err, scoring.ErrUnknownPolicy):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (a *API) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		a.logger.Printf("http: %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (a *API) policy(name string) (scoring.Policy, error) {
	if name == "" {
		return a.sessions.Policy(), nil
	}
	return scoring.PolicyByName(name)
}

func (a *API) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
