package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/lordofkekss/EFE/internal/models"
	"github.com/lordofkekss/EFE/internal/services"
	"github.com/lordofkekss/EFE/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// LiveHandler serves the live-session coordinator: the websocket event
// surface plus the synchronous lookups pages use before connecting.
// Every websocket mutation that fails a liveness or authorization
// check is silently discarded.
type LiveHandler struct {
	liveService   *services.LiveService
	courseService *services.CourseService
	hub           *ws.Hub
	dispatcher    *ws.Dispatcher
}

func NewLiveHandler(liveService *services.LiveService, courseService *services.CourseService, hub *ws.Hub) *LiveHandler {
	h := &LiveHandler{
		liveService:   liveService,
		courseService: courseService,
		hub:           hub,
		dispatcher:    ws.NewDispatcher(),
	}

	h.dispatcher.Handle("join_session", h.onJoinSession)
	h.dispatcher.Handle("leave_session", h.onLeaveSession)
	h.dispatcher.Handle("slide_change", h.onSlideChange)
	h.dispatcher.Handle("draw", h.onDraw)
	h.dispatcher.Handle("clear", h.onClear)
	h.dispatcher.Handle("reveal_solution", h.onRevealSolution)
	h.dispatcher.Handle("end_session", h.onEndSession)

	return h
}

type joinSessionEvent struct {
	SessionID string `json:"session_id"`
	Role      string `json:"role,omitempty"`
}

type leaveSessionEvent struct {
	SessionID string `json:"session_id"`
}

type slideChangeEvent struct {
	SessionID string `json:"session_id"`
	Index     int    `json:"index"`
}

type drawEvent struct {
	SessionID string  `json:"session_id"`
	Slide     int     `json:"slide"`
	X0        float64 `json:"x0"`
	Y0        float64 `json:"y0"`
	X1        float64 `json:"x1"`
	Y1        float64 `json:"y1"`
	Width     float64 `json:"width"`
	Color     string  `json:"color"`
}

type clearEvent struct {
	SessionID string `json:"session_id"`
	Slide     int    `json:"slide"`
}

type revealSolutionEvent struct {
	SessionID string `json:"session_id"`
	NodeID    string `json:"node_id"`
	Reveal    bool   `json:"reveal"`
}

type endSessionEvent struct {
	SessionID string `json:"session_id"`
}

func (h *LiveHandler) onJoinSession(c *ws.Client, data json.RawMessage) {
	var ev joinSessionEvent
	if err := json.Unmarshal(data, &ev); err != nil || ev.SessionID == "" {
		return
	}

	session, err := h.liveService.GetActive(ev.SessionID)
	if err != nil || !h.liveService.CanJoin(session, c.UserID, c.Role) {
		return
	}

	h.hub.Join(session.ID, c)

	// Late joiners get the current deck state; strokes are not replayed.
	if snapshot, err := h.liveService.Snapshot(session); err == nil {
		c.Send(ws.WSMessage{Type: "slide_change", Data: snapshot})
	}

	h.hub.Broadcast(session.ID, ws.WSMessage{
		Type: "user_joined",
		Data: gin.H{"user_id": c.UserID, "role": c.Role},
	}, c)
}

func (h *LiveHandler) onLeaveSession(c *ws.Client, data json.RawMessage) {
	var ev leaveSessionEvent
	if err := json.Unmarshal(data, &ev); err != nil || ev.SessionID == "" {
		return
	}

	if h.hub.Leave(ev.SessionID, c) {
		h.hub.Broadcast(ev.SessionID, ws.WSMessage{
			Type: "user_left",
			Data: gin.H{"user_id": c.UserID},
		}, nil)
	}
}

func (h *LiveHandler) onSlideChange(c *ws.Client, data json.RawMessage) {
	var ev slideChangeEvent
	if err := json.Unmarshal(data, &ev); err != nil || ev.SessionID == "" {
		return
	}

	snapshot, ok := h.liveService.ChangeSlide(ev.SessionID, c.UserID, c.Role, ev.Index)
	if !ok {
		return
	}

	msg := ws.WSMessage{Type: "slide_change", Data: snapshot}
	c.Send(msg)
	h.hub.Broadcast(ev.SessionID, msg, c)
}

func (h *LiveHandler) onDraw(c *ws.Client, data json.RawMessage) {
	var ev drawEvent
	if err := json.Unmarshal(data, &ev); err != nil || ev.SessionID == "" {
		return
	}

	session, err := h.liveService.GetActive(ev.SessionID)
	if err != nil || !h.liveService.IsHost(session, c.UserID, c.Role) {
		return
	}

	// Strokes are relayed verbatim, never persisted.
	h.hub.Broadcast(session.ID, ws.WSMessage{Type: "draw", Data: ev}, c)
}

func (h *LiveHandler) onClear(c *ws.Client, data json.RawMessage) {
	var ev clearEvent
	if err := json.Unmarshal(data, &ev); err != nil || ev.SessionID == "" {
		return
	}

	session, err := h.liveService.GetActive(ev.SessionID)
	if err != nil || !h.liveService.IsHost(session, c.UserID, c.Role) {
		return
	}

	h.hub.Broadcast(session.ID, ws.WSMessage{
		Type: "clear",
		Data: gin.H{"slide": ev.Slide},
	}, c)
}

func (h *LiveHandler) onRevealSolution(c *ws.Client, data json.RawMessage) {
	var ev revealSolutionEvent
	if err := json.Unmarshal(data, &ev); err != nil || ev.SessionID == "" {
		return
	}

	if !h.liveService.SetRevealed(ev.SessionID, c.UserID, c.Role, ev.NodeID, ev.Reveal) {
		return
	}

	// Including the sender so the host's own view updates too.
	h.hub.Broadcast(ev.SessionID, ws.WSMessage{
		Type: "solution_reveal",
		Data: gin.H{"node_id": ev.NodeID, "reveal": ev.Reveal},
	}, nil)
}

func (h *LiveHandler) onEndSession(c *ws.Client, data json.RawMessage) {
	var ev endSessionEvent
	if err := json.Unmarshal(data, &ev); err != nil || ev.SessionID == "" {
		return
	}

	if !h.liveService.End(ev.SessionID, c.UserID, c.Role) {
		return
	}

	h.hub.Broadcast(ev.SessionID, ws.WSMessage{Type: "ended", Data: gin.H{}}, nil)
}

// HandleWebSocket godoc
// @Summary      Live session websocket
// @Description  Authenticated full-duplex connection carrying live session events
// @Tags         live
// @Param        token query string true "JWT"
// @Router       /ws/live [get]
func (h *LiveHandler) HandleWebSocket(c *gin.Context) {
	userID, role := callerIdentity(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}

	client := ws.NewClient(conn, userID, role)
	defer func() {
		for _, sessionID := range h.hub.Disconnect(client) {
			h.hub.Broadcast(sessionID, ws.WSMessage{
				Type: "user_left",
				Data: gin.H{"user_id": client.UserID},
			}, nil)
		}
		client.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			break
		}
		h.dispatcher.Dispatch(client, raw)
	}
}

// HostSession godoc
// @Summary      Get or create the active live session for a course
// @Description  First visit to the hosting view creates the session and its join code
// @Tags         live
// @Security     BearerAuth
// @Param        id path string true "Course ID"
// @Router       /api/v1/courses/{id}/live [post]
func (h *LiveHandler) HostSession(c *gin.Context) {
	courseID := c.Param("id")
	userID, role := callerIdentity(c)

	if role == models.RoleStudent {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "teachers only"})
		return
	}
	course, err := h.courseService.GetCourse(courseID)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}
	if !h.courseService.CanAccess(course, userID, role) {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "not enrolled in this course"})
		return
	}

	session, err := h.liveService.GetOrCreateForCourse(courseID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	snapshot, _ := h.liveService.Snapshot(session)
	c.JSON(http.StatusOK, gin.H{"session": session, "snapshot": snapshot})
}

// CourseLiveState godoc
// @Summary      Live state of a course before connecting
// @Description  Reports whether a session is active plus the current slide so a fresh page renders correctly
// @Tags         live
// @Security     BearerAuth
// @Param        id path string true "Course ID"
// @Router       /api/v1/live/course/{id} [get]
func (h *LiveHandler) CourseLiveState(c *gin.Context) {
	courseID := c.Param("id")
	userID, role := callerIdentity(c)

	course, err := h.courseService.GetCourse(courseID)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}
	if !h.courseService.CanAccess(course, userID, role) {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "not enrolled in this course"})
		return
	}

	session, err := h.liveService.GetActiveForCourse(courseID)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"active": false})
		return
	}

	snapshot, _ := h.liveService.Snapshot(session)
	c.JSON(http.StatusOK, gin.H{
		"active":     true,
		"session_id": session.ID,
		"snapshot":   snapshot,
	})
}

// ResolveJoinCode godoc
// @Summary      Resolve a join code to its active session
// @Tags         live
// @Security     BearerAuth
// @Param        code query string true "Join code"
// @Success      200 {object} map[string]interface{}
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/live/resolve [get]
func (h *LiveHandler) ResolveJoinCode(c *gin.Context) {
	session, err := h.liveService.ResolveCode(c.Query("code"))
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id": session.ID,
		"course_id":  session.CourseID,
	})
}

// EndSession godoc
// @Summary      End a live session over HTTP
// @Description  Same semantics as the end_session event; the room is notified
// @Tags         live
// @Security     BearerAuth
// @Param        id path string true "Session ID"
// @Router       /api/v1/live/sessions/{id}/end [post]
func (h *LiveHandler) EndSession(c *gin.Context) {
	sessionID := c.Param("id")
	userID, role := callerIdentity(c)

	if !h.liveService.End(sessionID, userID, role) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "no active session or not the host"})
		return
	}

	h.hub.Broadcast(sessionID, ws.WSMessage{Type: "ended", Data: gin.H{}}, nil)
	c.JSON(http.StatusOK, MessageResponse{Message: "session ended"})
}
