package http

import (
	"Shortr-Backend/internal/service"
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// RedirectHandler resolves short codes and issues redirects.
type RedirectHandler struct {
	linkService *service.LinkService
	log         *zap.Logger
}

// NewRedirectHandler creates a new redirect handler.
func NewRedirectHandler(linkService *service.LinkService, log *zap.Logger) *RedirectHandler {
	return &RedirectHandler{
		linkService: linkService,
		log:         log,
	}
}

// HandleRedirect resolves the code from the URL path and redirects. The
// visit is submitted to the background recorder after the redirect is
// written, so the visitor never waits on visit accounting.
func (h *RedirectHandler) HandleRedirect(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimPrefix(r.URL.Path, "/")

	if code == "" || isSystemPath(r.URL.Path) {
		http.NotFound(w, r)
		return
	}

	link, err := h.linkService.GetByShortCode(r.Context(), code)
	if err != nil {
		h.log.Error("failed to resolve short code", zap.String("short_code", code), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if link == nil {
		h.log.Debug("short code not found", zap.String("short_code", code))
		http.NotFound(w, r)
		return
	}

	ipAddress := extractIPAddress(r)
	userAgent := r.UserAgent()

	http.Redirect(w, r, link.LongURL, http.StatusFound)

	h.linkService.RecordVisit(link, ipAddress, userAgent)

	h.log.Info("successful redirect",
		zap.String("short_code", code),
		zap.String("long_url", link.LongURL),
		zap.String("ip", ipAddress))
}

// extractIPAddress extracts the visitor IP, honoring proxy headers.
func extractIPAddress(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		// X-Forwarded-For may carry a comma-separated chain
		ips := strings.Split(ip, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return strings.TrimSpace(ip)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
