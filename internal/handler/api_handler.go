package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hitoshi/aquire/internal/content"
	"github.com/hitoshi/aquire/internal/middleware"
	"github.com/hitoshi/aquire/internal/model"
	"github.com/hitoshi/aquire/internal/navigation"
	"github.com/hitoshi/aquire/internal/platform"
	"github.com/hitoshi/aquire/internal/preview"
	"github.com/hitoshi/aquire/internal/security"
)

// ShellResponse はマウント中のルートのビューモデル。
type ShellResponse struct {
	DeviceID            string            `json:"device_id"`
	Identity            string            `json:"identity"`
	Platform            platform.Info     `json:"platform"`
	Chrome              navigation.Chrome `json:"chrome"`
	Screen              ScreenResponse    `json:"screen"`
	PreviewCapability   string            `json:"preview_capability"`
	PreviewState        string            `json:"preview_state"`
	Preview             *preview.View     `json:"preview,omitempty"`
	DebugOverlayEnabled bool              `json:"debug_overlay_enabled"`
}

// ScreenResponse はコンテンツ画面のレスポンス。
type ScreenResponse struct {
	Kind     string            `json:"kind"`
	Section  string            `json:"section"`
	Title    string            `json:"title"`
	Identity string            `json:"identity,omitempty"`
	Products []ProductResponse `json:"products,omitempty"`
	Message  string            `json:"message,omitempty"`
}

// ProductResponse は閲覧画面の商品。descriptionはサニタイズ済み。
type ProductResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	PriceLabel  string `json:"price_label,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	ModelURL    string `json:"model_url,omitempty"`
	HasModel    bool   `json:"has_model"`
}

// APIHandler はシェルの状態をJSONで返すハンドラー。
type APIHandler struct {
	shell     *ShellHandler
	sanitizer security.ContentSanitizerService
}

// NewAPIHandler はAPIHandlerを生成する。
func NewAPIHandler(shellHandler *ShellHandler, sanitizer security.ContentSanitizerService) *APIHandler {
	return &APIHandler{shell: shellHandler, sanitizer: sanitizer}
}

// GetShell はマウント中のルートのビューモデルを返す。
// 未認証なら401、ルートが未マウントなら409を返す。ここではルートをマウントしない。
// GET /api/shell
func (h *APIHandler) GetShell(w http.ResponseWriter, r *http.Request) {
	req, ok := h.shell.load(w, r)
	if !ok {
		return
	}
	if !req.subtree.Authenticated() {
		middleware.WriteAPIError(w, model.NewUnauthorizedError())
		return
	}

	root, ok := h.shell.deps.Registry.Get(req.deviceID)
	if !ok || root.Identity() != req.subtree.Identity {
		middleware.WriteAPIError(w, model.NewRootNotMountedError())
		return
	}

	frame, err := root.Render(h.shell.products(r))
	if err != nil {
		h.shell.logger.Error("failed to load products",
			slog.String("device_id", req.deviceID),
			slog.String("error", err.Error()),
		)
		middleware.WriteInternalServerError(w)
		return
	}

	resp := ShellResponse{
		DeviceID:            frame.DeviceID,
		Identity:            frame.Identity,
		Platform:            frame.Platform,
		Chrome:              frame.Chrome,
		Screen:              h.screenResponse(frame.Screen),
		PreviewCapability:   frame.PreviewCapability,
		PreviewState:        string(root.PreviewState()),
		Preview:             frame.Preview,
		DebugOverlayEnabled: req.state.DebugOverlayEnabled,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *APIHandler) screenResponse(screen content.Screen) ScreenResponse {
	resp := ScreenResponse{
		Kind:     string(screen.Kind),
		Section:  screen.Section.Slug(),
		Title:    screen.Title,
		Identity: screen.Identity,
		Message:  screen.Message,
	}
	for _, p := range screen.Products {
		resp.Products = append(resp.Products, ProductResponse{
			ID:          p.ID,
			Name:        p.Name,
			Description: h.sanitizer.Sanitize(p.Description),
			PriceLabel:  p.PriceLabel,
			ImageURL:    p.ImageURL,
			ModelURL:    p.ModelURL,
			HasModel:    p.HasModel(),
		})
	}
	return resp
}

