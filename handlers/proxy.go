package handlers

import (
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
)

// rewriteUpstreamURL resolves the one vendor-specific indirection: the
// tutor site's pdf-pages wrapper carries the real document URL in its
// "pdf" query parameter.
func rewriteUpstreamURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if u.Host == "www.physicsandmathstutor.com" || u.Host == "physicsandmathstutor.com" {
		if target := u.Query().Get("pdf"); target != "" {
			return target
		}
	}
	return raw
}

// ProxyDocument streams an upstream document back to the client with
// permissive CORS headers, following redirect chains. An upstream timeout
// maps to 504; any non-2xx upstream status is relayed as-is.
// GET /proxy?url=
func ProxyDocument(timeout time.Duration) gin.HandlerFunc {
	client := &http.Client{Timeout: timeout}
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		raw := c.Query("url")
		if raw == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "url query parameter required"})
			return
		}
		target := rewriteUpstreamURL(raw)

		req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, target, nil)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid url"})
			return
		}
		resp, err := client.Do(req)
		if err != nil {
			if uerr, ok := err.(*url.Error); ok && uerr.Timeout() {
				c.JSON(http.StatusGatewayTimeout, gin.H{"error": "upstream timed out"})
				return
			}
			log.Printf("Proxy error fetching %s: %v", target, err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "upstream fetch failed"})
			return
		}
		defer resp.Body.Close()

		if ct := resp.Header.Get("Content-Type"); ct != "" {
			c.Header("Content-Type", ct)
		}
		if cl := resp.Header.Get("Content-Length"); cl != "" {
			c.Header("Content-Length", cl)
		}
		if cd := resp.Header.Get("Content-Disposition"); cd != "" {
			c.Header("Content-Disposition", cd)
		}
		c.Status(resp.StatusCode)
		if _, err := io.Copy(c.Writer, resp.Body); err != nil {
			log.Printf("Proxy stream interrupted for %s: %v", target, err)
		}
	}
}
