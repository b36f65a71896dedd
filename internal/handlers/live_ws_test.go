package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lordofkekss/EFE/internal/middleware"
	"github.com/lordofkekss/EFE/internal/models"
	"github.com/lordofkekss/EFE/internal/services"
	"github.com/lordofkekss/EFE/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type wsEnv struct {
	db   *gorm.DB
	hub  *ws.Hub
	srv  *httptest.Server
	auth *services.AuthService
	live *services.LiveService

	teacher  *models.User
	student  *models.User
	helper   *models.User
	outsider *models.User
	tokens   map[string]string

	course *models.Course
	nodes  []models.ContentNode
}

// newWSEnv spins up the live coordinator behind a real HTTP server: a
// class with one teacher and two enrolled students, a course of three
// sections plus one exercise, and the websocket route guarded by JWT
// auth just like in production.
func newWSEnv(t *testing.T) *wsEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Class{},
		&models.Enrollment{},
		&models.Subject{},
		&models.Course{},
		&models.ContentNode{},
		&models.Exercise{},
		&models.LiveSession{},
	))

	e := &wsEnv{
		db:     db,
		hub:    ws.NewHub(),
		auth:   services.NewAuthService(db, "test-secret"),
		tokens: make(map[string]string),
	}

	classes := services.NewClassService(db)
	content := services.NewContentService(db)
	courses := services.NewCourseService(db, classes)
	e.live = services.NewLiveService(db, content, classes, services.NewSlideRenderer())

	e.teacher = e.seedUser(t, "frau-schmidt", models.RoleTeacher)
	e.student = e.seedUser(t, "max", models.RoleStudent)
	e.helper = e.seedUser(t, "lena", models.RoleStudent)
	e.outsider = e.seedUser(t, "fremder", models.RoleStudent)

	class, err := classes.CreateClass(e.teacher.ID, "7b", "7")
	require.NoError(t, err)
	for _, u := range []*models.User{e.student, e.helper} {
		_, err = classes.JoinByCode(u.ID, class.JoinCode)
		require.NoError(t, err)
	}

	subject := models.Subject{ID: models.NewID(), Name: "Mathe"}
	require.NoError(t, db.Create(&subject).Error)
	course := models.Course{
		ID:         models.NewID(),
		ClassID:    class.ID,
		SubjectID:  subject.ID,
		SchoolYear: "2025/26",
	}
	require.NoError(t, db.Create(&course).Error)
	e.course = &course

	now := time.Now()
	for i, title := range []string{"Einführung", "Brüche", "Abschnitt 3"} {
		node := models.ContentNode{
			ID:         models.NewID(),
			CourseID:   course.ID,
			Type:       models.NodeSection,
			Title:      title,
			BodyHTML:   fmt.Sprintf("<p>%s</p>", title),
			OrderIndex: i,
			ReleasedAt: &now,
		}
		require.NoError(t, db.Create(&node).Error)
		e.nodes = append(e.nodes, node)
	}
	exNode := models.ContentNode{
		ID:         models.NewID(),
		CourseID:   course.ID,
		Type:       models.NodeExercise,
		Title:      "Übung 7",
		OrderIndex: 3,
		ReleasedAt: &now,
	}
	require.NoError(t, db.Create(&exNode).Error)
	e.nodes = append(e.nodes, exNode)
	require.NoError(t, db.Create(&models.Exercise{
		ID:            models.NewID(),
		ContentNodeID: exNode.ID,
		Kind:          models.ExerciseShortAnswer,
		PromptMD:      "Berechne **2+2**.",
		AnswerSchema:  []byte(`{"text":"Die Antwort ist 4."}`),
	}).Error)

	liveHandler := NewLiveHandler(e.live, courses, e.hub)

	r := gin.New()
	authRequired := middleware.JWTAuth(e.auth)
	r.GET("/ws/live", authRequired, liveHandler.HandleWebSocket)
	api := r.Group("/api/v1")
	api.Use(authRequired)
	api.POST("/courses/:id/live", liveHandler.HostSession)
	api.GET("/live/course/:id", liveHandler.CourseLiveState)
	api.GET("/live/resolve", liveHandler.ResolveJoinCode)
	api.POST("/live/sessions/:id/end", liveHandler.EndSession)

	e.srv = httptest.NewServer(r)
	t.Cleanup(e.srv.Close)
	return e
}

func (e *wsEnv) seedUser(t *testing.T, username, role string) *models.User {
	t.Helper()
	user := &models.User{
		ID:           models.NewID(),
		Username:     username,
		PasswordHash: "x",
		Role:         role,
	}
	require.NoError(t, e.db.Create(user).Error)
	token, err := e.auth.GenerateToken(user)
	require.NoError(t, err)
	e.tokens[user.ID] = token
	return user
}

func (e *wsEnv) startSession(t *testing.T) *models.LiveSession {
	t.Helper()
	session, err := e.live.GetOrCreateForCourse(e.course.ID, e.teacher.ID)
	require.NoError(t, err)
	return session
}

func (e *wsEnv) dial(t *testing.T, user *models.User) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/ws/live?token=" + e.tokens[user.ID]
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func send(t *testing.T, conn *websocket.Conn, event string, data interface{}) {
	t.Helper()
	payload, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(ws.Event{Type: event, Data: payload}))
}

// readUntil reads frames until one of the wanted type arrives,
// discarding everything in between.
func readUntil(t *testing.T, conn *websocket.Conn, want string) envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var env envelope
		require.NoError(t, conn.ReadJSON(&env), "waiting for %q", want)
		if env.Type == want {
			return env
		}
	}
}

// readUntilWithout is readUntil plus the assertion that no frame of the
// forbidden type shows up on the way.
func readUntilWithout(t *testing.T, conn *websocket.Conn, want, forbidden string) envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var env envelope
		require.NoError(t, conn.ReadJSON(&env), "waiting for %q", want)
		require.NotEqual(t, forbidden, env.Type)
		if env.Type == want {
			return env
		}
	}
}

// join subscribes the connection and returns the snapshot frame every
// joiner receives first.
func join(t *testing.T, conn *websocket.Conn, sessionID string) services.SlideSnapshot {
	t.Helper()
	send(t, conn, "join_session", gin.H{"session_id": sessionID})
	env := readUntil(t, conn, "slide_change")
	var snapshot services.SlideSnapshot
	require.NoError(t, json.Unmarshal(env.Data, &snapshot))
	return snapshot
}

func TestWebSocketRejectsMissingToken(t *testing.T) {
	e := newWSEnv(t)

	url := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/ws/live"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	if conn != nil {
		conn.Close()
	}
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestJoinDeliversCurrentSlide(t *testing.T) {
	e := newWSEnv(t)
	session := e.startSession(t)

	_, ok := e.live.ChangeSlide(session.ID, e.teacher.ID, models.RoleTeacher, 2)
	require.True(t, ok)

	conn := e.dial(t, e.student)
	snapshot := join(t, conn, session.ID)
	assert.Equal(t, 2, snapshot.Index)
	assert.Contains(t, snapshot.HTML, "Abschnitt 3")
}

func TestJoinNotifiesRoom(t *testing.T) {
	e := newWSEnv(t)
	session := e.startSession(t)

	teacherConn := e.dial(t, e.teacher)
	join(t, teacherConn, session.ID)

	studentConn := e.dial(t, e.student)
	join(t, studentConn, session.ID)

	env := readUntil(t, teacherConn, "user_joined")
	var joined struct {
		UserID string `json:"user_id"`
		Role   string `json:"role"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &joined))
	assert.Equal(t, e.student.ID, joined.UserID)
	assert.Equal(t, models.RoleStudent, joined.Role)
}

func TestJoinIgnoredForOutsider(t *testing.T) {
	e := newWSEnv(t)
	session := e.startSession(t)

	conn := e.dial(t, e.outsider)
	send(t, conn, "join_session", gin.H{"session_id": session.ID})

	assert.Never(t, func() bool {
		return e.hub.RoomSize(session.ID) > 0
	}, 300*time.Millisecond, 20*time.Millisecond)
}

func TestSlideChangeBroadcast(t *testing.T) {
	e := newWSEnv(t)
	session := e.startSession(t)

	teacherConn := e.dial(t, e.teacher)
	join(t, teacherConn, session.ID)
	studentConn := e.dial(t, e.student)
	join(t, studentConn, session.ID)

	send(t, teacherConn, "slide_change", gin.H{"session_id": session.ID, "index": 1})

	for _, conn := range []*websocket.Conn{teacherConn, studentConn} {
		env := readUntil(t, conn, "slide_change")
		var snapshot services.SlideSnapshot
		require.NoError(t, json.Unmarshal(env.Data, &snapshot))
		assert.Equal(t, 1, snapshot.Index)
		assert.Contains(t, snapshot.HTML, "Brüche")
	}
}

func TestSlideChangeFromStudentIgnored(t *testing.T) {
	e := newWSEnv(t)
	session := e.startSession(t)

	teacherConn := e.dial(t, e.teacher)
	join(t, teacherConn, session.ID)
	studentConn := e.dial(t, e.student)
	join(t, studentConn, session.ID)

	send(t, studentConn, "slide_change", gin.H{"session_id": session.ID, "index": 2})
	// Re-joining forces the student's previous frame through the
	// dispatcher before the host acts.
	join(t, studentConn, session.ID)

	send(t, teacherConn, "slide_change", gin.H{"session_id": session.ID, "index": 1})
	env := readUntil(t, studentConn, "slide_change")
	var snapshot services.SlideSnapshot
	require.NoError(t, json.Unmarshal(env.Data, &snapshot))
	assert.Equal(t, 1, snapshot.Index)

	reloaded, err := e.live.GetSession(session.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.CurrentSlide)
}

func TestDrawRelayedToOthers(t *testing.T) {
	e := newWSEnv(t)
	session := e.startSession(t)

	teacherConn := e.dial(t, e.teacher)
	join(t, teacherConn, session.ID)
	studentConn := e.dial(t, e.student)
	join(t, studentConn, session.ID)
	readUntil(t, teacherConn, "user_joined")

	send(t, teacherConn, "draw", gin.H{
		"session_id": session.ID,
		"slide":      0,
		"x0":         0.1, "y0": 0.2, "x1": 0.3, "y1": 0.4,
		"width": 2.0,
		"color": "#ff0000",
	})

	env := readUntil(t, studentConn, "draw")
	var stroke struct {
		Slide int     `json:"slide"`
		X0    float64 `json:"x0"`
		Color string  `json:"color"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &stroke))
	assert.Equal(t, 0, stroke.Slide)
	assert.Equal(t, 0.1, stroke.X0)
	assert.Equal(t, "#ff0000", stroke.Color)

	// The sender does not get its own stroke back: the next frame the
	// host sees is the reveal it sends afterwards.
	send(t, teacherConn, "reveal_solution", gin.H{
		"session_id": session.ID,
		"node_id":    e.nodes[3].ID,
		"reveal":     true,
	})
	readUntilWithout(t, teacherConn, "solution_reveal", "draw")
}

func TestDrawFromStudentNotRelayed(t *testing.T) {
	e := newWSEnv(t)
	session := e.startSession(t)

	teacherConn := e.dial(t, e.teacher)
	join(t, teacherConn, session.ID)
	studentConn := e.dial(t, e.student)
	join(t, studentConn, session.ID)
	helperConn := e.dial(t, e.helper)
	join(t, helperConn, session.ID)

	send(t, studentConn, "draw", gin.H{"session_id": session.ID, "slide": 0, "x0": 0.5})
	join(t, studentConn, session.ID)

	send(t, teacherConn, "clear", gin.H{"session_id": session.ID, "slide": 0})
	readUntilWithout(t, helperConn, "clear", "draw")
}

func TestRevealSolutionReachesEveryone(t *testing.T) {
	e := newWSEnv(t)
	session := e.startSession(t)
	exID := e.nodes[3].ID

	teacherConn := e.dial(t, e.teacher)
	join(t, teacherConn, session.ID)
	studentConn := e.dial(t, e.student)
	join(t, studentConn, session.ID)

	send(t, teacherConn, "reveal_solution", gin.H{
		"session_id": session.ID,
		"node_id":    exID,
		"reveal":     true,
	})

	for _, conn := range []*websocket.Conn{teacherConn, studentConn} {
		env := readUntil(t, conn, "solution_reveal")
		var reveal struct {
			NodeID string `json:"node_id"`
			Reveal bool   `json:"reveal"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &reveal))
		assert.Equal(t, exID, reveal.NodeID)
		assert.True(t, reveal.Reveal)
	}

	// A late joiner sees the solution already visible in the snapshot.
	_, ok := e.live.ChangeSlide(session.ID, e.teacher.ID, models.RoleTeacher, 3)
	require.True(t, ok)
	lateConn := e.dial(t, e.helper)
	snapshot := join(t, lateConn, session.ID)
	assert.Equal(t, 3, snapshot.Index)
	assert.Contains(t, snapshot.HTML, `class="solution"`)
	assert.NotContains(t, snapshot.HTML, "solution hidden")
}

func TestEndSessionBroadcast(t *testing.T) {
	e := newWSEnv(t)
	session := e.startSession(t)

	teacherConn := e.dial(t, e.teacher)
	join(t, teacherConn, session.ID)
	studentConn := e.dial(t, e.student)
	join(t, studentConn, session.ID)

	send(t, teacherConn, "end_session", gin.H{"session_id": session.ID})
	readUntil(t, teacherConn, "ended")
	readUntil(t, studentConn, "ended")

	reloaded, err := e.live.GetSession(session.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.Active)
	_, err = e.live.GetActiveForCourse(e.course.ID)
	assert.Error(t, err)

	// The deck is frozen after the end.
	send(t, teacherConn, "slide_change", gin.H{"session_id": session.ID, "index": 2})
	assert.Never(t, func() bool {
		s, err := e.live.GetSession(session.ID)
		return err == nil && s.CurrentSlide != 0
	}, 300*time.Millisecond, 20*time.Millisecond)
}

func TestEndSessionFromStudentIgnored(t *testing.T) {
	e := newWSEnv(t)
	session := e.startSession(t)

	teacherConn := e.dial(t, e.teacher)
	join(t, teacherConn, session.ID)
	studentConn := e.dial(t, e.student)
	join(t, studentConn, session.ID)

	send(t, studentConn, "end_session", gin.H{"session_id": session.ID})
	join(t, studentConn, session.ID)

	send(t, teacherConn, "slide_change", gin.H{"session_id": session.ID, "index": 1})
	readUntilWithout(t, studentConn, "slide_change", "ended")

	reloaded, err := e.live.GetSession(session.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.Active)
}

func TestDisconnectBroadcastsUserLeft(t *testing.T) {
	e := newWSEnv(t)
	session := e.startSession(t)

	teacherConn := e.dial(t, e.teacher)
	join(t, teacherConn, session.ID)
	studentConn := e.dial(t, e.student)
	join(t, studentConn, session.ID)
	readUntil(t, teacherConn, "user_joined")

	studentConn.Close()

	env := readUntil(t, teacherConn, "user_left")
	var left struct {
		UserID string `json:"user_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &left))
	assert.Equal(t, e.student.ID, left.UserID)
}
