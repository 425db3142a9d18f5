package collector

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/golang/glog"
)

const DefaultEndpoint = "/api/spectrum"

const (
	msgReceived       = "Data received"
	errProcessing     = "Failed to process data"
	errNoData         = "No data available"
	errMethodNotAllow = "Method not allowed"
)

// Ack is the response body of a submission.
type Ack struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Server exposes a Store over HTTP on a single, method dispatched endpoint.
type Server struct {
	Store    *Store
	Endpoint string
}

// Register adds the sweep endpoint and /healthz to the router.
func (s *Server) Register(r *gin.Engine) {
	endpoint := s.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	r.Any(endpoint, allowAnyOrigin, s.handleSweep)
	r.GET("/healthz", s.handleHealth)

	// Any only covers the well known methods, others (e.g. PURGE) end up here.
	r.NoRoute(func(c *gin.Context) {
		if c.Request.URL.Path != endpoint {
			return
		}
		allowAnyOrigin(c)
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": errMethodNotAllow})
	})
}

// allowAnyOrigin lets any web page read the sweeps. Nothing served here is sensitive.
func allowAnyOrigin(c *gin.Context) {
	h := c.Writer.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type")
	c.Next()
}

func (s *Server) handleSweep(c *gin.Context) {
	switch c.Request.Method {
	case http.MethodOptions:
		c.Status(http.StatusOK)
	case http.MethodPost:
		s.submit(c)
	case http.MethodGet:
		s.latest(c)
	default:
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": errMethodNotAllow})
	}
}

func (s *Server) submit(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		glog.Warningf("error reading sweep payload: %s\n", err)
		c.JSON(http.StatusInternalServerError, Ack{Error: errProcessing})
		return
	}
	stored, err := s.Store.Submit(body)
	if err != nil {
		glog.Warningf("error processing sweep from %s: %s\n", c.ClientIP(), err)
		c.JSON(http.StatusInternalServerError, Ack{Error: errProcessing})
		return
	}

	var ts any = "<absent>"
	if stored.Timestamp != nil {
		ts = *stored.Timestamp
	}
	glog.Infof("received sweep: deviceId=%q timestamp=%v dataPoints=%d\n", stored.Device(), ts, stored.SampleCount())
	c.JSON(http.StatusOK, Ack{Success: true, Message: msgReceived})
}

func (s *Server) latest(c *gin.Context) {
	cur, ok := s.Store.Latest()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": errNoData})
		return
	}
	c.JSON(http.StatusOK, cur)
}

func (s *Server) handleHealth(c *gin.Context) {
	_, ok := s.Store.Latest()
	c.JSON(http.StatusOK, gin.H{"status": "ok", "hasData": ok})
}
