package httpapi

import (
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"videohub/internal/common"
	"videohub/internal/server/cache"
	"videohub/internal/server/services"
)

// storeUpload saves a multipart file to a temp path and hands it to the
// media store, returning the resulting URL.
func (s *Server) storeUpload(c *gin.Context, file *multipart.FileHeader) (string, error) {
	dst := filepath.Join(os.TempDir(), uuid.New().String()+filepath.Ext(file.Filename))
	if err := c.SaveUploadedFile(file, dst); err != nil {
		return "", err
	}
	return s.media.Store(c.Request.Context(), dst)
}

func (s *Server) setTokenCookies(c *gin.Context, pair *services.TokenPair) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(common.AccessTokenCookieName, pair.AccessToken, int(s.cfg.AccessTokenExpiry.Seconds()), "/", "", true, true)
	c.SetCookie(common.RefreshTokenCookieName, pair.RefreshToken, int(s.cfg.RefreshTokenExpiry.Seconds()), "/", "", true, true)
}

func (s *Server) clearTokenCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(common.AccessTokenCookieName, "", -1, "/", "", true, true)
	c.SetCookie(common.RefreshTokenCookieName, "", -1, "/", "", true, true)
}

func (s *Server) register(c *gin.Context) {
	params := services.RegisterParams{
		Fullname: c.PostForm("fullname"),
		Email:    c.PostForm("email"),
		Username: c.PostForm("username"),
		Password: c.PostForm("password"),
	}

	// The upload happens before the auth flow runs; the flow itself only
	// sees the resulting reference strings.
	avatarFile, err := c.FormFile("avatar")
	if err != nil {
		s.writeError(c, fmt.Errorf("%w: avatar file is required", common.ErrValidation))
		return
	}
	avatarURL, err := s.storeUpload(c, avatarFile)
	if err != nil {
		s.writeError(c, fmt.Errorf("%w: avatar upload failed", common.ErrValidation))
		return
	}
	params.AvatarURL = avatarURL

	if coverFile, err := c.FormFile("coverImage"); err == nil {
		// a failed cover upload means "no media reference", not a hard error
		if coverURL, err := s.storeUpload(c, coverFile); err == nil && coverURL != "" {
			params.CoverURL = &coverURL
		}
	}

	ctx, cancel := s.ctx(c)
	defer cancel()

	account, err := s.auth.Register(ctx, params)
	if err != nil {
		s.writeError(c, err)
		return
	}

	respond(c, http.StatusCreated, account, "user registered successfully")
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, fmt.Errorf("%w: invalid request body", common.ErrValidation))
		return
	}

	ctx, cancel := s.ctx(c)
	defer cancel()

	pair, account, err := s.auth.Login(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		s.writeError(c, err)
		return
	}

	s.setTokenCookies(c, pair)
	respond(c, http.StatusOK, gin.H{
		"user":         account,
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	}, "user logged in successfully")
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (s *Server) refreshToken(c *gin.Context) {
	presented, _ := c.Cookie(common.RefreshTokenCookieName)
	if presented == "" {
		var req refreshRequest
		if err := c.ShouldBindJSON(&req); err == nil {
			presented = req.RefreshToken
		}
	}

	ctx, cancel := s.ctx(c)
	defer cancel()

	pair, err := s.auth.Refresh(ctx, presented)
	if err != nil {
		s.writeError(c, err)
		return
	}

	s.setTokenCookies(c, pair)
	respond(c, http.StatusOK, gin.H{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	}, "tokens refreshed")
}

func (s *Server) logout(c *gin.Context) {
	p := principal(c)

	ctx, cancel := s.ctx(c)
	defer cancel()

	if err := s.auth.Logout(ctx, p.AccountID); err != nil {
		s.writeError(c, err)
		return
	}

	s.clearTokenCookies(c)
	respond(c, http.StatusOK, gin.H{}, "user logged out")
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

func (s *Server) changePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, fmt.Errorf("%w: invalid request body", common.ErrValidation))
		return
	}

	p := principal(c)
	ctx, cancel := s.ctx(c)
	defer cancel()

	if err := s.auth.ChangePassword(ctx, p.AccountID, req.OldPassword, req.NewPassword); err != nil {
		s.writeError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{}, "password changed successfully")
}

func (s *Server) currentUser(c *gin.Context) {
	p := principal(c)
	ctx, cancel := s.ctx(c)
	defer cancel()

	account, err := s.auth.GetCurrentUser(ctx, p.AccountID)
	if err != nil {
		s.writeError(c, err)
		return
	}

	respond(c, http.StatusOK, account, "current user fetched")
}

type updateAccountRequest struct {
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
}

func (s *Server) updateAccount(c *gin.Context) {
	var req updateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, fmt.Errorf("%w: invalid request body", common.ErrValidation))
		return
	}

	p := principal(c)
	ctx, cancel := s.ctx(c)
	defer cancel()

	account, err := s.auth.UpdateDetails(ctx, p.AccountID, req.Fullname, req.Email)
	if err != nil {
		s.writeError(c, err)
		return
	}

	s.invalidateProfile(c, p.Username)
	respond(c, http.StatusOK, account, "account details updated")
}

func (s *Server) updateAvatar(c *gin.Context) {
	file, err := c.FormFile("avatar")
	if err != nil {
		s.writeError(c, fmt.Errorf("%w: avatar file is required", common.ErrValidation))
		return
	}

	url, err := s.storeUpload(c, file)
	if err != nil {
		s.writeError(c, fmt.Errorf("%w: avatar upload failed", common.ErrValidation))
		return
	}

	p := principal(c)
	ctx, cancel := s.ctx(c)
	defer cancel()

	account, err := s.auth.UpdateAvatar(ctx, p.AccountID, url)
	if err != nil {
		s.writeError(c, err)
		return
	}

	s.invalidateProfile(c, p.Username)
	respond(c, http.StatusOK, account, "avatar updated")
}

func (s *Server) updateCover(c *gin.Context) {
	file, err := c.FormFile("coverImage")
	if err != nil {
		s.writeError(c, fmt.Errorf("%w: cover image file is required", common.ErrValidation))
		return
	}

	url, err := s.storeUpload(c, file)
	if err != nil {
		s.writeError(c, fmt.Errorf("%w: cover image upload failed", common.ErrValidation))
		return
	}

	p := principal(c)
	ctx, cancel := s.ctx(c)
	defer cancel()

	account, err := s.auth.UpdateCover(ctx, p.AccountID, url)
	if err != nil {
		s.writeError(c, err)
		return
	}

	s.invalidateProfile(c, p.Username)
	respond(c, http.StatusOK, account, "cover image updated")
}

func (s *Server) channelProfile(c *gin.Context) {
	username := c.Param("username")
	p := principal(c)

	ctx, cancel := s.ctx(c)
	defer cancel()

	// Only anonymous lookups are cached: IsSubscribed depends on the viewer.
	cacheKey := "channel_profile:" + username
	if p == nil && s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey); err == nil && cached != "" {
			c.Header("X-Cache", "HIT")
			c.Data(http.StatusOK, "application/json", []byte(cached))
			return
		}
	}

	var viewerID *string
	if p != nil {
		viewerID = &p.AccountID
	}

	profile, err := s.profiles.ChannelProfile(ctx, viewerID, username)
	if err != nil {
		s.writeError(c, err)
		return
	}

	if p == nil && s.cache != nil {
		if body, err := json.Marshal(gin.H{"data": profile, "message": "channel profile fetched"}); err == nil {
			if err := s.cache.Set(ctx, cacheKey, body, cache.ProfileTTL); err != nil {
				s.log.Warn(ctx, "profile cache set failed", "error", err.Error())
			}
		}
	}

	respond(c, http.StatusOK, profile, "channel profile fetched")
}

func (s *Server) watchHistory(c *gin.Context) {
	p := principal(c)
	ctx, cancel := s.ctx(c)
	defer cancel()

	entries, err := s.profiles.WatchHistory(ctx, p.AccountID)
	if err != nil {
		s.writeError(c, err)
		return
	}

	respond(c, http.StatusOK, entries, "watch history fetched")
}

func (s *Server) recordView(c *gin.Context) {
	p := principal(c)
	ctx, cancel := s.ctx(c)
	defer cancel()

	if err := s.profiles.RecordView(ctx, p.AccountID, c.Param("videoId")); err != nil {
		s.writeError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{}, "view recorded")
}

// invalidateProfile drops the cached channel profile after a
// profile-affecting write.
func (s *Server) invalidateProfile(c *gin.Context, username string) {
	if s.cache == nil || username == "" {
		return
	}
	if err := s.cache.Del(c.Request.Context(), "channel_profile:"+username); err != nil {
		s.log.Warn(c.Request.Context(), "profile cache invalidation failed", "error", err.Error())
	}
}
