package services

import (
	"errors"
	"time"

	"github.com/lordofkekss/EFE/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService struct {
	db        *gorm.DB
	jwtSecret []byte
}

func NewAuthService(db *gorm.DB, jwtSecret string) *AuthService {
	return &AuthService{db: db, jwtSecret: []byte(jwtSecret)}
}

// AllowedRegisterRoles reports which roles the caller may create.
// Before the first admin exists, registration is open for the admin
// bootstrap only. Admins may create any role, teachers only students;
// everyone else may not register accounts.
func (s *AuthService) AllowedRegisterRoles(caller *models.User) []string {
	var adminCount int64
	s.db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&adminCount)
	if adminCount == 0 {
		return []string{models.RoleAdmin}
	}
	if caller == nil {
		return nil
	}
	switch caller.Role {
	case models.RoleAdmin:
		return []string{models.RoleAdmin, models.RoleTeacher, models.RoleStudent}
	case models.RoleTeacher:
		return []string{models.RoleStudent}
	}
	return nil
}

func (s *AuthService) Register(caller *models.User, username, password, role string, email string) (*models.User, error) {
	allowed := s.AllowedRegisterRoles(caller)
	permitted := false
	for _, r := range allowed {
		if r == role {
			permitted = true
			break
		}
	}
	if !permitted {
		return nil, errors.New("role not permitted")
	}

	if username == "" || password == "" {
		return nil, errors.New("username and password required")
	}

	var existing models.User
	if err := s.db.Where("username = ?", username).First(&existing).Error; err == nil {
		return nil, errors.New("username already taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := models.User{
		ID:           models.NewID(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
	}
	if email != "" {
		user.Email = &email
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *AuthService) Login(username, password string) (string, *models.User, error) {
	var user models.User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		return "", nil, errors.New("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, errors.New("invalid credentials")
	}

	token, err := s.GenerateToken(&user)
	if err != nil {
		return "", nil, err
	}
	return token, &user, nil
}

func (s *AuthService) ChangePassword(userID, oldPassword, newPassword string) error {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		return errors.New("user not found")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return errors.New("old password incorrect")
	}
	if len(newPassword) < 6 {
		return errors.New("new password too short")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.db.Model(&user).Update("password_hash", string(hash)).Error
}

func (s *AuthService) GetUser(userID string) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		return nil, errors.New("user not found")
	}
	return &user, nil
}

func (s *AuthService) GenerateToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"role":    user.Role,
		"exp":     time.Now().Add(24 * time.Hour).Unix(),
		"iat":     time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *AuthService) ValidateToken(tokenString string) (string, string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return "", "", errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", errors.New("invalid claims")
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", "", errors.New("invalid user_id in token")
	}
	role, _ := claims["role"].(string)

	return userID, role, nil
}

// EnsureAdmin creates the initial admin account if no admin exists yet.
func (s *AuthService) EnsureAdmin(username, password, email string) error {
	var count int64
	s.db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count)
	if count > 0 {
		return nil
	}
	_, err := s.Register(nil, username, password, models.RoleAdmin, email)
	return err
}
