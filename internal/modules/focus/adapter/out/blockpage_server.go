package out

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	focusout "focuslock/internal/modules/focus/port/out"
)

const blockedPageTemplate = `<!doctype html>
<html>
<head><meta charset="utf-8"><title>Blocked by focuslock</title></head>
<body style="font-family: sans-serif; text-align: center; margin-top: 15vh;">
<h1>Stay focused</h1>
{{if .Site}}<p><strong>{{.Site}}</strong> is blocked during your focus session.</p>{{else}}<p>This site is blocked during your focus session.</p>{{end}}
{{if .Active}}<p>{{.Remaining}} left.</p>{{end}}
</body>
</html>`

type GinBlockPageServer struct{}

func NewGinBlockPageServer() focusout.BlockPageServer {
	return &GinBlockPageServer{}
}

// NewBlockPageRouter serves the redirect destination and the navigation
// check used by browser integrations.
func NewBlockPageRouter(handler focusout.BlockPageHandler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.SetHTMLTemplate(template.Must(template.New("blocked").Parse(blockedPageTemplate)))

	router.GET("/blocked", func(c *gin.Context) {
		status, err := handler.Status(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.HTML(http.StatusOK, "blocked", gin.H{
			"Site":      c.Query("site"),
			"Active":    status.Active,
			"Remaining": status.Remaining.Round(time.Second).String(),
		})
	})

	router.GET("/check", func(c *gin.Context) {
		target := c.Query("url")
		if target == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
			return
		}
		rule, ok, err := handler.MatchNavigation(c.Request.Context(), target)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if !ok {
			c.Status(http.StatusNoContent)
			return
		}
		c.Redirect(http.StatusFound, rule.Destination+"?site="+url.QueryEscape(rule.Domain))
	})

	router.GET("/status", func(c *gin.Context) {
		status, err := handler.Status(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"active":           status.Active,
			"session_id":       status.SessionID,
			"sites":            status.Sites,
			"duration_minutes": status.DurationMinutes,
			"ends_at":          status.EndsAt,
			"remaining_ms":     status.Remaining.Milliseconds(),
			"reminders":        status.Reminders,
		})
	})

	return router
}

func (s *GinBlockPageServer) Serve(ctx context.Context, addr string, handler focusout.BlockPageHandler) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen block page %s: %w", addr, err)
	}
	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Handler:           NewBlockPageRouter(handler),
		ReadHeaderTimeout: 5 * time.Second,
	}

	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		case <-stop:
		}
	}()
	defer close(stop)

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
