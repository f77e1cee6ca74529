// Package httpapi is the fiber surface of the dashboard: the demo login, one
// dashboard per role and the JSON endpoints behind every action.
package httpapi

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"skiclub/internal/auth"
	"skiclub/internal/club"
	"skiclub/models"
)

//go:embed templates
var templateFS embed.FS

const sessionCookie = "skiclub_session"

// Exporter publishes a roster to an external spreadsheet.
type Exporter interface {
	ExportRoster(ctx context.Context, tab string, records [][]string) (string, error)
}

type Options struct {
	JWTSecret  string
	SessionTTL time.Duration
	// RateLimit is requests per minute per client IP; zero disables the limiter.
	RateLimit int
	// Sheets is nil when the export is not configured.
	Sheets Exporter
}

type Server struct {
	club *club.Service
	opts Options
	md   goldmark.Markdown
	now  func() time.Time
}

func New(svc *club.Service, opts Options) *Server {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 12 * time.Hour
	}
	// Raw HTML in message bodies stays escaped.
	md := goldmark.New(goldmark.WithRendererOptions(goldmarkHTML.WithHardWraps()))
	return &Server{club: svc, opts: opts, md: md, now: time.Now}
}

// App builds the fiber application with every middleware and route.
func (s *Server) App() (*fiber.App, error) {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, err
	}
	engine := html.NewFileSystem(http.FS(sub), ".html")
	engine.AddFunc("markdown", s.markdown)
	engine.AddFunc("day", func(t time.Time) string { return t.Format(models.DateLayout) })

	app := fiber.New(fiber.Config{
		Views:        engine,
		ViewsLayout:  "layouts/base",
		AppName:      "SkiClub",
		ErrorHandler: func(c *fiber.Ctx, err error) error { return fail(c, err) },
	})
	app.Use(recover.New())
	app.Use(helmet.New())
	app.Use(logger.New())
	if s.opts.RateLimit > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        s.opts.RateLimit,
			Expiration: time.Minute,
			LimitReached: func(c *fiber.Ctx) error {
				return problem(c, fiber.StatusTooManyRequests, "too many requests", nil)
			},
		}))
	}
	s.routes(app)
	return app, nil
}

func (s *Server) routes(app *fiber.App) {
	app.Get("/", s.index)
	app.Get("/users", s.listUsers)
	app.Post("/session", s.login)
	app.Delete("/session", s.logout)

	api := app.Group("", s.authenticate)
	api.Get("/dashboard", s.dashboard)
	api.Get("/categories", s.listCategories)
	api.Get("/athletes", s.listAthletes)
	api.Post("/devices", s.registerDevice)
	api.Delete("/devices", s.unregisterDevice)

	admin := api.Group("/admin")
	admin.Get("/stats", s.stats)
	admin.Post("/users", s.createUser)
	admin.Delete("/users/:id", s.deleteUser)
	admin.Post("/categories", s.createCategory)
	admin.Delete("/categories/:id", s.deleteCategory)
	admin.Post("/categories/:id/coaches", s.assignCoach)
	admin.Delete("/categories/:id/coaches/:coachID", s.unassignCoach)
	admin.Post("/athletes", s.createAthlete)
	admin.Put("/athletes/:id/category", s.moveAthlete)
	admin.Delete("/athletes/:id", s.deleteAthlete)
	admin.Post("/athletes/:id/parents", s.linkParent)
	admin.Delete("/athletes/:id/parents/:parentID", s.unlinkParent)
	admin.Post("/events", s.createEvent)
	admin.Put("/events/:id", s.updateEvent)
	admin.Delete("/events/:id", s.deleteEvent)
	admin.Post("/events/:id/attendance", s.generateAttendance)

	api.Get("/coach/rosters", s.coachRosters)
	api.Get("/events/:id/roster", s.roster)
	api.Get("/events/:id/roster.csv", s.rosterCSV)
	api.Post("/events/:id/roster/sheets", s.rosterSheets)
	api.Put("/events/:id/logistics", s.setLogistics)
	api.Get("/events/:id/reports", s.eventReports)
	api.Put("/events/:id/report", s.saveTeamReport)
	api.Put("/events/:id/athletes/:athleteID/report", s.saveAthleteReport)
	api.Post("/messages", s.postMessage)
	api.Get("/messages/sent", s.sentMessages)

	api.Get("/parent/events", s.parentEvents)
	api.Put("/events/:id/attendance/:athleteID", s.updateAttendance)
	api.Get("/inbox", s.inbox)
}

// authenticate accepts the session as a bearer header or as the cookie set
// by POST /session.
func (s *Server) authenticate(c *fiber.Ctx) error {
	var (
		p   *auth.Principal
		err error
	)
	if h := c.Get(fiber.HeaderAuthorization); h != "" {
		p, err = auth.ParseBearer(h, s.opts.JWTSecret)
	} else if tok := c.Cookies(sessionCookie); tok != "" {
		p, err = auth.ParseToken(tok, s.opts.JWTSecret)
	} else {
		err = auth.ErrUnauthenticated
	}
	if err != nil {
		if wantsHTML(c) {
			return c.Redirect("/")
		}
		return problem(c, fiber.StatusUnauthorized, "sign in required", nil)
	}
	c.Locals("principal", p)
	c.SetUserContext(auth.WithPrincipal(c.UserContext(), p))
	return c.Next()
}

func principal(c *fiber.Ctx) *auth.Principal {
	p, _ := c.Locals("principal").(*auth.Principal)
	return p
}

func wantsHTML(c *fiber.Ctx) bool {
	return c.Accepts(fiber.MIMEApplicationJSON, fiber.MIMETextHTML) == fiber.MIMETextHTML
}

func (s *Server) markdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(src), &buf); err != nil {
		log.Printf("http: render markdown: %v", err)
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(buf.String())
}

func paramID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

func parse(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return nil
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
