package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vaporchat/vaporchat/internal/auth"
	"github.com/vaporchat/vaporchat/internal/common"
	"github.com/vaporchat/vaporchat/internal/models"
)

const tokenTTL = 7 * 24 * time.Hour

type signupReq struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (h *Handler) Signup(c *gin.Context) {
	var req signupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" || req.ConfirmPassword == "" {
		common.Fail(c, http.StatusBadRequest, 10002, "email, password and confirm_password required")
		return
	}
	if req.Password != req.ConfirmPassword {
		common.Fail(c, http.StatusBadRequest, 10002, "passwords do not match")
		return
	}
	if len(req.Password) < 6 {
		common.Fail(c, http.StatusBadRequest, 10002, "password must be at least 6 characters")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50001, "failed to hash password")
		return
	}

	user := models.User{
		Email:        req.Email,
		PasswordHash: hash,
	}
	if err := h.DB.WithContext(c.Request.Context()).Create(&user).Error; err != nil {
		common.Fail(c, http.StatusBadRequest, 10003, "email already registered")
		return
	}

	token, err := auth.SignJWT(user.ID, h.Cfg.JWTSecret, tokenTTL)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50002, "failed to sign token")
		return
	}

	common.Created(c, gin.H{
		"token": token,
		"user":  gin.H{"id": user.ID, "email": user.Email},
	})
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if req.Email == "" || req.Password == "" {
		common.Fail(c, http.StatusBadRequest, 10002, "email and password required")
		return
	}

	var user models.User
	err := h.DB.WithContext(c.Request.Context()).
		Where("email = ?", strings.TrimSpace(req.Email)).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// same response as a wrong password, no account enumeration
			common.Fail(c, http.StatusUnauthorized, 40103, "invalid email or password")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50003, "db error")
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		common.Fail(c, http.StatusUnauthorized, 40103, "invalid email or password")
		return
	}

	token, err := auth.SignJWT(user.ID, h.Cfg.JWTSecret, tokenTTL)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50002, "failed to sign token")
		return
	}

	common.OK(c, gin.H{
		"token": token,
		"user":  gin.H{"id": user.ID, "email": user.Email},
	})
}

func (h *Handler) Me(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var user models.User
	if err := h.DB.WithContext(c.Request.Context()).First(&user, uid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Fail(c, http.StatusNotFound, 40402, "user not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50003, "db error")
		return
	}

	common.OK(c, gin.H{
		"id":         user.ID,
		"email":      user.Email,
		"created_at": user.CreatedAt,
	})
}
