package db

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ErrInvalidCredentials 表示用户名或密码不匹配
var ErrInvalidCredentials = errors.New("invalid credentials")

// User 定义了管理员账号
type User struct {
	gorm.Model
	Username string `gorm:"unique;not null"`
	Password string `gorm:"not null"`
}

// EnsureUser 若用户名与密码均非空且账号不存在，则创建一个 bcrypt 哈希的用户。
// 返回值 created 表示本次是否新建
func EnsureUser(username, password string) (bool, error) {
	trimmedUser := strings.TrimSpace(username)
	trimmedPassword := strings.TrimSpace(password)
	if trimmedUser == "" || trimmedPassword == "" {
		return false, nil
	}
	if DB == nil {
		return false, errors.New("database not initialized")
	}

	var existing User
	err := DB.Where("username = ?", trimmedUser).First(&existing).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("find user: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(trimmedPassword), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}
	if err := DB.Create(&User{Username: trimmedUser, Password: string(hashed)}).Error; err != nil {
		return false, fmt.Errorf("create user: %w", err)
	}
	return true, nil
}

// SetPassword 创建或重置账号密码
func SetPassword(username, password string) error {
	trimmedUser := strings.TrimSpace(username)
	if trimmedUser == "" || password == "" {
		return errors.New("username and password are required")
	}
	if DB == nil {
		return errors.New("database not initialized")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	var user User
	err = DB.Where("username = ?", trimmedUser).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return DB.Create(&User{Username: trimmedUser, Password: string(hashed)}).Error
	case err != nil:
		return fmt.Errorf("find user: %w", err)
	}
	return DB.Model(&user).Update("password", string(hashed)).Error
}

// Authenticate 校验用户名与密码，失败时返回 ErrInvalidCredentials
func Authenticate(username, password string) (*User, error) {
	if DB == nil {
		return nil, errors.New("database not initialized")
	}

	var user User
	if err := DB.Where("username = ?", strings.TrimSpace(username)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}
