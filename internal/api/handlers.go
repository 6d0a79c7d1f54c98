package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/genricoloni/mirrorctl/internal/domain"
	"github.com/genricoloni/mirrorctl/internal/engine"
	"github.com/genricoloni/mirrorctl/internal/store"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var (
	errDeviceNotFound = errors.New("device not found")
	errInvalidBody    = errors.New("invalid request body")
)

// Engine is the command surface the handlers drive
type Engine interface {
	Refresh(ctx context.Context) error
	ConnectWireless(ctx context.Context, ip, port string) (string, error)
	DisconnectDevice(ctx context.Context, deviceID string) (string, error)
	StartMirroring(ctx context.Context) (string, error)
	StartRecording(ctx context.Context, path string) (string, error)
	StopMirroring(ctx context.Context) (string, error)
	TakeScreenshot(ctx context.Context, path string) (engine.Capture, error)
	UpdateConfig(patch domain.ConfigPatch) (domain.MirroringConfig, error)
	ResetConfig() domain.MirroringConfig
	ApplyProfile(id string) (domain.MirroringConfig, error)
	SaveProfile(name string) (domain.Profile, error)
}

// Handler serves the REST endpoints
type Handler struct {
	logger  *zap.Logger
	store   *store.Store
	engine  Engine
	locale  domain.LocaleStore
	display *domain.ScreenResolution
}

// NewHandler creates the REST handlers
func NewHandler(
	logger *zap.Logger,
	st *store.Store,
	eng Engine,
	locale domain.LocaleStore,
	display *domain.ScreenResolution,
) *Handler {
	return &Handler{
		logger:  logger,
		store:   st,
		engine:  eng,
		locale:  locale,
		display: display,
	}
}

// statusFor maps an error to its HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNoDeviceSelected):
		return http.StatusPreconditionFailed
	case errors.Is(err, domain.ErrProfileNotFound), errors.Is(err, errDeviceNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAddressRequired),
		errors.Is(err, domain.ErrProfileNameRequired),
		errors.Is(err, domain.ErrInvalidLocale),
		errors.Is(err, domain.ErrPathNotAllowed),
		errors.Is(err, domain.ErrDeviceMismatch),
		errors.Is(err, errInvalidBody):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Warn("Request failed",
			zap.String("path", c.FullPath()),
			zap.Int("status", status),
			zap.Error(err))
	}
	c.JSON(status, ErrorResponse(err.Error()))
}

// bind decodes the JSON body into v; an empty body is accepted when optional is set
func bind(c *gin.Context, v any, optional bool) error {
	if optional && c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	return nil
}

// Health reports liveness
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, SuccessResponse(gin.H{
		"status":  "ok",
		"message": "mirrorctl daemon is running",
	}))
}

// GetState returns the whole session
func (h *Handler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, SuccessResponse(h.store.Snapshot()))
}

// SetPage switches the visible page
func (h *Handler) SetPage(c *gin.Context) {
	var req struct {
		Page domain.Page `json:"page"`
	}
	if err := bind(c, &req, false); err != nil {
		h.fail(c, err)
		return
	}
	if !req.Page.Valid() {
		h.fail(c, fmt.Errorf("%w: unknown page %q", errInvalidBody, req.Page))
		return
	}
	h.store.SetCurrentPage(req.Page)
	c.JSON(http.StatusOK, SuccessResponse(gin.H{"currentPage": req.Page}))
}

// ToggleSidebar flips the sidebar state
func (h *Handler) ToggleSidebar(c *gin.Context) {
	h.store.ToggleSidebar()
	c.JSON(http.StatusOK, SuccessResponse(gin.H{"sidebarCollapsed": h.store.Snapshot().SidebarCollapsed}))
}

// SetSidebar sets the sidebar state explicitly
func (h *Handler) SetSidebar(c *gin.Context) {
	var req struct {
		Collapsed *bool `json:"collapsed"`
	}
	if err := bind(c, &req, false); err != nil {
		h.fail(c, err)
		return
	}
	if req.Collapsed == nil {
		h.fail(c, fmt.Errorf("%w: collapsed is required", errInvalidBody))
		return
	}
	h.store.SetSidebarCollapsed(*req.Collapsed)
	c.JSON(http.StatusOK, SuccessResponse(gin.H{"sidebarCollapsed": *req.Collapsed}))
}

// SetTheme switches the color scheme
func (h *Handler) SetTheme(c *gin.Context) {
	var req struct {
		Theme domain.Theme `json:"theme"`
	}
	if err := bind(c, &req, false); err != nil {
		h.fail(c, err)
		return
	}
	if !req.Theme.Valid() {
		h.fail(c, fmt.Errorf("%w: unknown theme %q", errInvalidBody, req.Theme))
		return
	}
	h.store.SetTheme(req.Theme)
	c.JSON(http.StatusOK, SuccessResponse(gin.H{"theme": req.Theme}))
}

// GetDevices returns the device list and the selection
func (h *Handler) GetDevices(c *gin.Context) {
	c.JSON(http.StatusOK, SuccessResponse(gin.H{
		"devices":        h.store.Devices(),
		"selectedDevice": h.store.SelectedDevice(),
	}))
}

// RefreshDevices re-lists devices now
func (h *Handler) RefreshDevices(c *gin.Context) {
	if err := h.engine.Refresh(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	h.GetDevices(c)
}

// SelectDevice selects a listed device; an empty id clears the selection
func (h *Handler) SelectDevice(c *gin.Context) {
	var req struct {
		ID string `json:"id"`
	}
	if err := bind(c, &req, false); err != nil {
		h.fail(c, err)
		return
	}

	if req.ID == "" {
		h.store.SetSelectedDevice(nil)
		c.JSON(http.StatusOK, SuccessResponse(gin.H{"selectedDevice": nil}))
		return
	}

	for _, d := range h.store.Devices() {
		if d.ID == req.ID {
			h.store.SetSelectedDevice(&d)
			c.JSON(http.StatusOK, SuccessResponse(gin.H{"selectedDevice": d}))
			return
		}
	}
	h.fail(c, fmt.Errorf("%w: %s", errDeviceNotFound, req.ID))
}

// ConnectDevice attaches a wireless device
func (h *Handler) ConnectDevice(c *gin.Context) {
	var req struct {
		IP   string `json:"ip"`
		Port string `json:"port"`
	}
	if err := bind(c, &req, false); err != nil {
		h.fail(c, err)
		return
	}
	msg, err := h.engine.ConnectWireless(c.Request.Context(), req.IP, req.Port)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse(msg, h.store.Devices()))
}

// DisconnectDevice detaches a device
func (h *Handler) DisconnectDevice(c *gin.Context) {
	msg, err := h.engine.DisconnectDevice(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse(msg, h.store.Devices()))
}

// GetConfig returns the active config
func (h *Handler) GetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, SuccessResponse(h.store.Config()))
}

// PatchConfig merges a partial config
func (h *Handler) PatchConfig(c *gin.Context) {
	var patch domain.ConfigPatch
	if err := bind(c, &patch, false); err != nil {
		h.fail(c, err)
		return
	}
	if err := validatePatch(patch); err != nil {
		h.fail(c, err)
		return
	}
	cfg, err := h.engine.UpdateConfig(patch)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse(cfg))
}

func validatePatch(p domain.ConfigPatch) error {
	switch {
	case p.VideoCodec != nil && !p.VideoCodec.Valid():
		return fmt.Errorf("%w: unknown video codec %q", errInvalidBody, *p.VideoCodec)
	case p.MaxSize != nil && *p.MaxSize < 0:
		return fmt.Errorf("%w: max_size must not be negative", errInvalidBody)
	case p.MaxFPS != nil && *p.MaxFPS <= 0:
		return fmt.Errorf("%w: max_fps must be positive", errInvalidBody)
	case p.Bitrate != nil && strings.TrimSpace(*p.Bitrate) == "":
		return fmt.Errorf("%w: bitrate must not be empty", errInvalidBody)
	}
	return nil
}

// ResetConfig restores defaults
func (h *Handler) ResetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, SuccessResponse(h.engine.ResetConfig()))
}

// GetProfiles lists profiles
func (h *Handler) GetProfiles(c *gin.Context) {
	c.JSON(http.StatusOK, SuccessResponse(h.store.Profiles()))
}

// CreateProfile saves the current config as a profile
func (h *Handler) CreateProfile(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := bind(c, &req, false); err != nil {
		h.fail(c, err)
		return
	}
	profile, err := h.engine.SaveProfile(req.Name)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, SuccessResponse(profile))
}

// UpdateProfile edits a profile's name, icon or config
func (h *Handler) UpdateProfile(c *gin.Context) {
	id := c.Param("id")
	if _, ok := h.store.Profile(id); !ok {
		h.fail(c, fmt.Errorf("%w: %s", domain.ErrProfileNotFound, id))
		return
	}

	var patch domain.ProfilePatch
	if err := bind(c, &patch, false); err != nil {
		h.fail(c, err)
		return
	}
	if patch.Config != nil && !patch.Config.VideoCodec.Valid() {
		h.fail(c, fmt.Errorf("%w: unknown video codec %q", errInvalidBody, patch.Config.VideoCodec))
		return
	}

	h.store.UpdateProfile(id, patch)
	profile, _ := h.store.Profile(id)
	c.JSON(http.StatusOK, SuccessResponse(profile))
}

// DeleteProfile removes a profile
func (h *Handler) DeleteProfile(c *gin.Context) {
	id := c.Param("id")
	if _, ok := h.store.Profile(id); !ok {
		h.fail(c, fmt.Errorf("%w: %s", domain.ErrProfileNotFound, id))
		return
	}
	h.store.RemoveProfile(id)
	c.JSON(http.StatusOK, MessageResponse("profile removed", gin.H{"id": id}))
}

// ApplyProfile loads a profile into the active config
func (h *Handler) ApplyProfile(c *gin.Context) {
	cfg, err := h.engine.ApplyProfile(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse(cfg))
}

func (h *Handler) sessionFlags() gin.H {
	return gin.H{
		"isRunning":   h.store.IsRunning(),
		"isRecording": h.store.IsRecording(),
	}
}

// StartMirroring launches scrcpy
func (h *Handler) StartMirroring(c *gin.Context) {
	msg, err := h.engine.StartMirroring(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse(msg, h.sessionFlags()))
}

// StartRecording launches scrcpy with recording
func (h *Handler) StartRecording(c *gin.Context) {
	var req struct {
		Path string `json:"path"`
	}
	if err := bind(c, &req, true); err != nil {
		h.fail(c, err)
		return
	}
	path, err := h.engine.StartRecording(c.Request.Context(), req.Path)
	if err != nil {
		h.fail(c, err)
		return
	}
	flags := h.sessionFlags()
	flags["path"] = path
	c.JSON(http.StatusOK, MessageResponse("recording started", flags))
}

// StopMirroring terminates scrcpy
func (h *Handler) StopMirroring(c *gin.Context) {
	msg, err := h.engine.StopMirroring(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse(msg, h.sessionFlags()))
}

// TakeScreenshot captures the selected device
func (h *Handler) TakeScreenshot(c *gin.Context) {
	var req struct {
		Path string `json:"path"`
	}
	if err := bind(c, &req, true); err != nil {
		h.fail(c, err)
		return
	}
	capture, err := h.engine.TakeScreenshot(c.Request.Context(), req.Path)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse(capture))
}

// DismissNotification removes one notification
func (h *Handler) DismissNotification(c *gin.Context) {
	h.store.RemoveNotification(c.Param("id"))
	c.JSON(http.StatusOK, SuccessResponse(h.store.Notifications()))
}

// ClearNotifications removes every notification
func (h *Handler) ClearNotifications(c *gin.Context) {
	h.store.ClearNotifications()
	c.JSON(http.StatusOK, SuccessResponse(h.store.Notifications()))
}

// GetLocale returns the display language
func (h *Handler) GetLocale(c *gin.Context) {
	locale, err := h.locale.Locale(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse(gin.H{"locale": locale}))
}

// SetLocale changes the display language
func (h *Handler) SetLocale(c *gin.Context) {
	var req struct {
		Locale string `json:"locale"`
	}
	if err := bind(c, &req, false); err != nil {
		h.fail(c, err)
		return
	}
	if err := h.locale.SetLocale(c.Request.Context(), req.Locale); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse(gin.H{"locale": req.Locale}))
}

// GetDisplay reports the host display size
func (h *Handler) GetDisplay(c *gin.Context) {
	c.JSON(http.StatusOK, SuccessResponse(h.display))
}
