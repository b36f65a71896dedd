package services

import (
	"encoding/json"
	"errors"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/lordofkekss/EFE/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// joinCodeAlphabet avoids characters that read ambiguously on a
// projected screen (I/L/O and 0/1).
const joinCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const joinCodeLength = 6

// LiveService owns the transient state of active live sessions: the
// current slide, the revealed-solution set and the active flag. All
// mutating operations enforce host authority and are serialized per
// session so racing host tabs cannot lose updates.
type LiveService struct {
	db       *gorm.DB
	content  *ContentService
	classes  *ClassService
	renderer *SlideRenderer

	mu        sync.Mutex
	sessionMu map[string]*sync.Mutex
}

func NewLiveService(db *gorm.DB, content *ContentService, classes *ClassService, renderer *SlideRenderer) *LiveService {
	return &LiveService{
		db:        db,
		content:   content,
		classes:   classes,
		renderer:  renderer,
		sessionMu: make(map[string]*sync.Mutex),
	}
}

func (s *LiveService) lockSession(sessionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.sessionMu[sessionID]; ok {
		return m
	}
	m := &sync.Mutex{}
	s.sessionMu[sessionID] = m
	return m
}

// GetOrCreateForCourse returns the course's active session, creating a
// fresh one with a new join code if none exists. Creation runs under
// the service lock so two host tabs cannot both create one.
func (s *LiveService) GetOrCreateForCourse(courseID, hostUserID string) (*models.LiveSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var session models.LiveSession
	if err := s.db.Where("course_id = ? AND active = ?", courseID, true).
		First(&session).Error; err == nil {
		return &session, nil
	}

	session = models.LiveSession{
		ID:           models.NewID(),
		CourseID:     courseID,
		HostUserID:   hostUserID,
		JoinCode:     s.generateJoinCode(),
		Active:       true,
		CurrentSlide: 0,
		RevealedIDs:  datatypes.JSON([]byte("[]")),
		StartedAt:    time.Now(),
	}
	if err := s.db.Create(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// GetActive loads a session only while it is live. Ended sessions are
// not found by design: stale clients must not resolve them.
func (s *LiveService) GetActive(sessionID string) (*models.LiveSession, error) {
	var session models.LiveSession
	if err := s.db.Where("id = ? AND active = ?", sessionID, true).
		First(&session).Error; err != nil {
		return nil, errors.New("no active session")
	}
	return &session, nil
}

// GetActiveForCourse finds the course's active session without
// creating one.
func (s *LiveService) GetActiveForCourse(courseID string) (*models.LiveSession, error) {
	var session models.LiveSession
	if err := s.db.Where("course_id = ? AND active = ?", courseID, true).
		First(&session).Error; err != nil {
		return nil, errors.New("no active session")
	}
	return &session, nil
}

func (s *LiveService) GetSession(sessionID string) (*models.LiveSession, error) {
	var session models.LiveSession
	if err := s.db.First(&session, "id = ?", sessionID).Error; err != nil {
		return nil, errors.New("session not found")
	}
	return &session, nil
}

// ResolveCode maps a join code to its session while the session is
// active. A code of an ended session does not resolve.
func (s *LiveService) ResolveCode(code string) (*models.LiveSession, error) {
	if code == "" {
		return nil, errors.New("code required")
	}
	var session models.LiveSession
	if err := s.db.Where("join_code = ? AND active = ?", code, true).
		First(&session).Error; err != nil {
		return nil, errors.New("no active session for this code")
	}
	return &session, nil
}

// IsHost is the single authorization predicate for mutating session
// state: the hosting teacher, or an admin.
func (s *LiveService) IsHost(session *models.LiveSession, userID, role string) bool {
	return session.HostUserID == userID || role == models.RoleAdmin
}

// CanJoin gates read access: enrollment in the session's course class,
// or admin.
func (s *LiveService) CanJoin(session *models.LiveSession, userID, role string) bool {
	if role == models.RoleAdmin {
		return true
	}
	var course models.Course
	if err := s.db.First(&course, "id = ?", session.CourseID).Error; err != nil {
		return false
	}
	return s.classes.IsEnrolled(course.ClassID, userID)
}

type SlideSnapshot struct {
	Index int    `json:"index"`
	HTML  string `json:"html"`
}

// Snapshot renders the session's current slide. Out-of-range indices
// are clamped rather than failing so a snapshot is always available
// while the course has content.
func (s *LiveService) Snapshot(session *models.LiveSession) (*SlideSnapshot, error) {
	nodes, err := s.content.OrderedNodes(session.CourseID)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, errors.New("course has no content")
	}

	index := session.CurrentSlide
	if index < 0 {
		index = 0
	}
	if index >= len(nodes) {
		index = len(nodes) - 1
	}

	node := nodes[index]
	var ex *models.Exercise
	if node.Type == models.NodeExercise {
		ex, _ = s.content.GetExercise(node.ID)
	}

	html := s.renderer.RenderSlide(&node, ex, session.IsRevealed(node.ID))
	return &SlideSnapshot{Index: index, HTML: html}, nil
}

// ChangeSlide moves the deck to the requested index and returns the
// rendered snapshot. Non-host callers and inactive sessions are a
// silent no-op (nil, false). Concurrent host tabs are last-writer-wins.
func (s *LiveService) ChangeSlide(sessionID, userID, role string, index int) (*SlideSnapshot, bool) {
	mu := s.lockSession(sessionID)
	mu.Lock()
	defer mu.Unlock()

	session, err := s.GetActive(sessionID)
	if err != nil || !s.IsHost(session, userID, role) {
		return nil, false
	}

	nodes, err := s.content.OrderedNodes(session.CourseID)
	if err != nil || len(nodes) == 0 {
		return nil, false
	}
	if index < 0 {
		index = 0
	}
	if index >= len(nodes) {
		index = len(nodes) - 1
	}

	if err := s.db.Model(session).Update("current_slide", index).Error; err != nil {
		return nil, false
	}
	session.CurrentSlide = index

	snapshot, err := s.Snapshot(session)
	if err != nil {
		return nil, false
	}
	return snapshot, true
}

// SetRevealed adds or removes a node id from the session's revealed
// set. The read-modify-write runs under the per-session lock so
// concurrent toggles on different node ids cannot lose each other.
func (s *LiveService) SetRevealed(sessionID, userID, role, nodeID string, reveal bool) bool {
	if nodeID == "" {
		return false
	}

	mu := s.lockSession(sessionID)
	mu.Lock()
	defer mu.Unlock()

	session, err := s.GetActive(sessionID)
	if err != nil || !s.IsHost(session, userID, role) {
		return false
	}

	set := session.Revealed()
	if reveal {
		set[nodeID] = true
	} else {
		delete(set, nodeID)
	}

	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	raw, err := json.Marshal(ids)
	if err != nil {
		return false
	}
	if err := s.db.Model(session).
		Update("revealed_ids", datatypes.JSON(raw)).Error; err != nil {
		return false
	}
	return true
}

// End flips the session inactive, stamping ended_at exactly once.
// Ending an already-ended session, or ending as a non-host, is a
// silent no-op returning false.
func (s *LiveService) End(sessionID, userID, role string) bool {
	mu := s.lockSession(sessionID)
	mu.Lock()
	defer mu.Unlock()

	session, err := s.GetActive(sessionID)
	if err != nil || !s.IsHost(session, userID, role) {
		return false
	}

	now := time.Now()
	err = s.db.Model(session).Updates(map[string]interface{}{
		"active":   false,
		"ended_at": &now,
	}).Error
	return err == nil
}

func (s *LiveService) generateJoinCode() string {
	for {
		buf := make([]byte, joinCodeLength)
		for i := range buf {
			buf[i] = joinCodeAlphabet[rand.Intn(len(joinCodeAlphabet))]
		}
		code := string(buf)

		var count int64
		s.db.Model(&models.LiveSession{}).
			Where("join_code = ? AND active = ?", code, true).
			Count(&count)
		if count == 0 {
			return code
		}
	}
}
