// Package stub is an in-memory queue backend for local development. It
// serves the same HTTP API the real backend exposes, including its raw
// status spellings and both active-booking response shapes.
package stub

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Raw wire statuses as the production backend spells them.
const (
	wireQueued    = "QUEUED"
	wireInvited   = "INVITED"
	wireOnWay     = "ON_WAY"
	wireOnSite    = "ON_SITE"
	wireInSession = "IN_SESSION"
	wireDone      = "DONE"
	wireCancelled = "CANCELLED"
)

func terminal(status string) bool {
	return status == wireDone || status == wireCancelled
}

type entry struct {
	ID               string
	ClientID         string
	ClientName       string
	SalonID          string
	BarberID         string
	Service          string
	ServicePrice     int
	Trusted          bool
	Regular          bool
	Notes            string
	Status           string
	Threshold        int
	Paused           bool
	EnteredAt        time.Time
	BucketEnteredAt  time.Time
	SessionStartedAt time.Time
}

type notification struct {
	ID        string
	ClientID  string
	Message   string
	CreatedAt time.Time
	Read      bool
}

// Options configure the stub server.
type Options struct {
	// AvgServiceMinutes feeds the wait estimate; zero defaults to 20.
	AvgServiceMinutes int
	// DirectShape switches the active-booking response from the
	// entry-wrapped shape to the flat one.
	DirectShape bool
	Logger      *slog.Logger
}

// Server holds the in-memory queue state.
type Server struct {
	mu            sync.Mutex
	entries       map[string]*entry
	order         []string
	notifications []notification

	avgMinutes  int
	directShape bool
	log         *slog.Logger
	now         func() time.Time
}

// New returns an empty stub server.
func New(opts Options) *Server {
	if opts.AvgServiceMinutes <= 0 {
		opts.AvgServiceMinutes = 20
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Server{
		entries:     make(map[string]*entry),
		avgMinutes:  opts.AvgServiceMinutes,
		directShape: opts.DirectShape,
		log:         opts.Logger,
		now:         time.Now,
	}
}

// Routes registers all API routes on the echo instance.
func (s *Server) Routes(e *echo.Echo) {
	e.POST("/api/bookings", s.createBooking)
	e.GET("/api/bookings/active", s.activeBooking)
	e.POST("/api/bookings/:id/cancel", s.cancelBooking)
	e.POST("/api/bookings/:id/confirm", s.confirmBooking)
	e.PUT("/api/bookings/:id/threshold", s.updateThreshold)

	e.GET("/api/queue/info", s.queueInfo)
	e.GET("/api/notifications", s.listNotifications)

	e.GET("/api/queue/entries", s.listEntries)
	e.POST("/api/entries/:id/arrived", s.markArrived)
	e.POST("/api/entries/:id/start", s.startSession)
	e.POST("/api/entries/:id/finish", s.finishSession)
	e.POST("/api/entries/:id/cancel", s.cancelEntry)
	e.POST("/api/entries/:id/reset-timer", s.resetTimer)
	e.POST("/api/entries/:id/pause", s.togglePause)
	e.POST("/api/entries/:id/resend", s.resendInvite)
}

// Seed loads a handful of demo clients into the queue.
func (s *Server) Seed(salonID, barberID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	demo := []struct {
		name, service, status string
		price                 int
		trusted, regular      bool
	}{
		{"Ana Silva", "Fade", wireInvited, 25, true, true},
		{"Bruno Costa", "Beard trim", wireOnWay, 15, false, true},
		{"Carla Gomes", "Cut + wash", wireOnSite, 35, false, false},
		{"Diego Rocha", "Classic cut", wireQueued, 20, true, false},
		{"Eva Martins", "Classic cut", wireQueued, 20, false, false},
	}
	for _, d := range demo {
		id := uuid.NewString()
		now := s.now()
		s.entries[id] = &entry{
			ID:              id,
			ClientID:        uuid.NewString(),
			ClientName:      d.name,
			SalonID:         salonID,
			BarberID:        barberID,
			Service:         d.service,
			ServicePrice:    d.price,
			Trusted:         d.trusted,
			Regular:         d.regular,
			Status:          d.status,
			Threshold:       3,
			EnteredAt:       now,
			BucketEnteredAt: now,
		}
		s.order = append(s.order, id)
	}
}

func (s *Server) createBooking(c echo.Context) error {
	var req struct {
		SalonID  string `json:"salonId"`
		BarberID string `json:"barberId"`
		ClientID string `json:"clientId"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errBody("invalid request"))
	}
	if req.ClientID == "" {
		return c.JSON(http.StatusBadRequest, errBody("clientId is required"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing := s.findByClient(req.ClientID); existing != nil {
		return c.JSON(http.StatusConflict, errBody("client already has an active booking"))
	}

	now := s.now()
	e := &entry{
		ID:              uuid.NewString(),
		ClientID:        req.ClientID,
		ClientName:      "Client " + shortID(req.ClientID),
		SalonID:         req.SalonID,
		BarberID:        req.BarberID,
		Service:         "Classic cut",
		ServicePrice:    20,
		Status:          wireQueued,
		Threshold:       3,
		EnteredAt:       now,
		BucketEnteredAt: now,
	}
	s.entries[e.ID] = e
	s.order = append(s.order, e.ID)
	s.ensureInvitedLocked()
	s.log.Info("booking created", "entry", e.ID, "client", req.ClientID)

	return c.JSON(http.StatusCreated, s.bookingBody(e))
}

func (s *Server) activeBooking(c echo.Context) error {
	clientID := c.QueryParam("client")

	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.findByClient(clientID)
	if e == nil {
		return c.JSON(http.StatusNotFound, errBody("no active booking"))
	}
	return c.JSON(http.StatusOK, s.bookingBody(e))
}

func (s *Server) cancelBooking(c echo.Context) error {
	return s.transition(c, "", wireCancelled, "booking cancelled")
}

func (s *Server) confirmBooking(c echo.Context) error {
	return s.transition(c, wireInvited, wireOnWay, "client on the way")
}

func (s *Server) updateThreshold(c echo.Context) error {
	var req struct {
		Threshold int `json:"threshold"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errBody("invalid request"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[c.Param("id")]
	if !ok {
		return c.JSON(http.StatusNotFound, errBody("unknown entry"))
	}
	threshold := req.Threshold
	if threshold < 1 {
		threshold = 1
	}
	if threshold > 10 {
		threshold = 10
	}
	e.Threshold = threshold
	return c.JSON(http.StatusOK, map[string]int{"threshold": e.Threshold})
}

func (s *Server) queueInfo(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := 0
	for _, id := range s.order {
		if !terminal(s.entries[id].Status) {
			active++
		}
	}
	return c.JSON(http.StatusOK, map[string]int{
		"estimatedPosition":     active + 1,
		"activeClientsCount":    active,
		"totalInQueue":          active,
		"avgServiceTimeMinutes": s.avgMinutes,
	})
}

func (s *Server) listNotifications(c echo.Context) error {
	clientID := c.QueryParam("client")

	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]map[string]any, 0)
	for i := len(s.notifications) - 1; i >= 0; i-- {
		n := s.notifications[i]
		if n.ClientID != clientID {
			continue
		}
		items = append(items, map[string]any{
			"id":        n.ID,
			"message":   n.Message,
			"createdAt": n.CreatedAt.Format(time.RFC3339),
			"read":      n.Read,
		})
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

func (s *Server) listEntries(c echo.Context) error {
	salon := c.QueryParam("salon")
	barber := c.QueryParam("barber")
	status := strings.ToUpper(strings.ReplaceAll(c.QueryParam("status"), "-", "_"))

	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]map[string]any, 0)
	for _, id := range s.order {
		e := s.entries[id]
		if terminal(e.Status) {
			continue
		}
		if salon != "" && e.SalonID != salon {
			continue
		}
		if barber != "" && e.BarberID != barber {
			continue
		}
		if status != "" && e.Status != status {
			continue
		}
		item := map[string]any{
			"id":           e.ID,
			"clientName":   e.ClientName,
			"service":      e.Service,
			"servicePrice": e.ServicePrice,
			"trusted":      e.Trusted,
			"regular":      e.Regular,
			"notes":        e.Notes,
			"status":       e.Status,
			"enteredAt":    e.BucketEnteredAt.Format(time.RFC3339),
		}
		if !e.SessionStartedAt.IsZero() {
			item["sessionStartedAt"] = e.SessionStartedAt.Format(time.RFC3339)
		}
		items = append(items, item)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

func (s *Server) markArrived(c echo.Context) error {
	return s.transition(c, wireOnWay, wireOnSite, "client arrived")
}

func (s *Server) startSession(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[c.Param("id")]
	if !ok {
		return c.JSON(http.StatusNotFound, errBody("unknown entry"))
	}
	if e.Status != wireOnSite {
		return c.JSON(http.StatusConflict, errBody("entry is not on site"))
	}
	for _, other := range s.entries {
		if other.Status == wireInSession && other.BarberID == e.BarberID {
			return c.JSON(http.StatusConflict, errBody("a session is already in progress"))
		}
	}
	now := s.now()
	e.Status = wireInSession
	e.BucketEnteredAt = now
	e.SessionStartedAt = now
	s.log.Info("session started", "entry", e.ID)
	return c.JSON(http.StatusOK, okBody())
}

func (s *Server) finishSession(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[c.Param("id")]
	if !ok {
		return c.JSON(http.StatusNotFound, errBody("unknown entry"))
	}
	if e.Status != wireInSession {
		return c.JSON(http.StatusConflict, errBody("entry is not in session"))
	}
	e.Status = wireDone
	e.SessionStartedAt = time.Time{}
	s.notify(e.ClientID, "Thanks for coming in. See you next time!")
	s.promoteNextLocked()
	s.log.Info("session finished", "entry", e.ID)
	return c.JSON(http.StatusOK, okBody())
}

func (s *Server) cancelEntry(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[c.Param("id")]
	if !ok {
		return c.JSON(http.StatusNotFound, errBody("unknown entry"))
	}
	if terminal(e.Status) {
		return c.JSON(http.StatusConflict, errBody("entry already closed"))
	}
	e.Status = wireCancelled
	e.SessionStartedAt = time.Time{}
	s.promoteNextLocked()
	return c.JSON(http.StatusOK, okBody())
}

func (s *Server) resetTimer(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[c.Param("id")]
	if !ok {
		return c.JSON(http.StatusNotFound, errBody("unknown entry"))
	}
	if e.Status != wireInSession {
		return c.JSON(http.StatusConflict, errBody("entry is not in session"))
	}
	e.SessionStartedAt = s.now()
	return c.JSON(http.StatusOK, okBody())
}

func (s *Server) togglePause(c echo.Context) error {
	var req struct {
		Paused bool `json:"paused"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errBody("invalid request"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[c.Param("id")]
	if !ok {
		return c.JSON(http.StatusNotFound, errBody("unknown entry"))
	}
	if e.Status != wireInSession {
		return c.JSON(http.StatusConflict, errBody("entry is not in session"))
	}
	e.Paused = req.Paused
	return c.JSON(http.StatusOK, okBody())
}

func (s *Server) resendInvite(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[c.Param("id")]
	if !ok {
		return c.JSON(http.StatusNotFound, errBody("unknown entry"))
	}
	if e.Status != wireInvited {
		return c.JSON(http.StatusConflict, errBody("entry is not invited"))
	}
	s.notify(e.ClientID, "Reminder: it's your turn soon at the salon.")
	return c.JSON(http.StatusOK, okBody())
}

// transition moves an entry between statuses. An empty from accepts any
// non-terminal status.
func (s *Server) transition(c echo.Context, from, to, logMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[c.Param("id")]
	if !ok {
		return c.JSON(http.StatusNotFound, errBody("unknown entry"))
	}
	if from == "" {
		if terminal(e.Status) {
			return c.JSON(http.StatusConflict, errBody("entry already closed"))
		}
	} else if e.Status != from {
		return c.JSON(http.StatusConflict, errBody("entry is not "+strings.ToLower(from)))
	}
	e.Status = to
	e.BucketEnteredAt = s.now()
	if to != wireInSession {
		e.SessionStartedAt = time.Time{}
	}
	s.log.Info(logMsg, "entry", e.ID)
	return c.JSON(http.StatusOK, okBody())
}

// ensureInvitedLocked keeps at least one client invited whenever everyone in
// the queue is still waiting. Callers hold s.mu.
func (s *Server) ensureInvitedLocked() {
	for _, id := range s.order {
		switch s.entries[id].Status {
		case wireInvited, wireOnWay, wireOnSite, wireInSession:
			return
		}
	}
	s.promoteNextLocked()
}

// promoteNextLocked invites the longest-waiting queued client and pushes a
// notification. Callers hold s.mu.
func (s *Server) promoteNextLocked() {
	for _, id := range s.order {
		e := s.entries[id]
		if e.Status == wireQueued {
			e.Status = wireInvited
			e.BucketEnteredAt = s.now()
			s.notify(e.ClientID, "It's almost your turn! Head to the salon.")
			return
		}
	}
}

func (s *Server) notify(clientID, message string) {
	s.notifications = append(s.notifications, notification{
		ID:        uuid.NewString(),
		ClientID:  clientID,
		Message:   message,
		CreatedAt: s.now(),
	})
}

// findByClient returns the client's non-terminal entry, if any. Callers hold
// s.mu.
func (s *Server) findByClient(clientID string) *entry {
	if clientID == "" {
		return nil
	}
	for _, id := range s.order {
		e := s.entries[id]
		if e.ClientID == clientID && !terminal(e.Status) {
			return e
		}
	}
	return nil
}

// bookingBody builds the active-booking response in whichever shape this
// server was configured to serve. Callers hold s.mu.
func (s *Server) bookingBody(e *entry) map[string]any {
	fields := map[string]any{
		"id":                    e.ID,
		"status":                e.Status,
		"salonId":               e.SalonID,
		"barberId":              e.BarberID,
		"avgServiceTimeMinutes": s.avgMinutes,
		"notificationThreshold": e.Threshold,
	}
	if s.directShape {
		return fields
	}

	position, total := 0, 0
	for _, id := range s.order {
		other := s.entries[id]
		if terminal(other.Status) {
			continue
		}
		total++
		if other.ID == e.ID {
			position = total
		}
	}
	return map[string]any{
		"entry":        fields,
		"position":     position,
		"totalInQueue": total,
	}
}

func errBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func okBody() map[string]string {
	return map[string]string{"status": "ok"}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
