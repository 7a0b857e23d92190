package mw

import (
	"bytes"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

type cachedResponse struct {
	status  int
	headers http.Header
	body    []byte
}

type bodyCacheWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w bodyCacheWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w bodyCacheWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// ResponseCache holds cached GET responses. Every flush starts a new
// generation; a response is only stored if no flush happened while it
// was being produced.
type ResponseCache struct {
	store *cache.Cache
	ttl   time.Duration

	mu  sync.Mutex
	gen uint64
}

// NewResponseCache returns a cache keeping responses for ttl.
func NewResponseCache(ttl time.Duration) *ResponseCache {
	return &ResponseCache{store: cache.New(ttl, 2*ttl), ttl: ttl}
}

func (rc *ResponseCache) generation() uint64 {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.gen
}

func (rc *ResponseCache) set(key string, gen uint64, resp cachedResponse) bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if gen != rc.gen {
		return false
	}
	rc.store.Set(key, resp, rc.ttl)
	return true
}

// Flush drops every cached response.
func (rc *ResponseCache) Flush() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.gen++
	rc.store.Flush()
}

// Len is the number of cached responses.
func (rc *ResponseCache) Len() int {
	return rc.store.ItemCount()
}

// perRequestHeader reports headers that describe one request rather than
// the resource, such as the CORS answer for the caller's origin.
func perRequestHeader(name string) bool {
	switch name {
	case "X-Cache", RequestIDHeader, "Vary":
		return true
	}
	return strings.HasPrefix(name, "Access-Control-")
}

// Cache is a middleware for in-memory caching of GET requests.
// X-Cache reports whether a response was served from the cache.
func Cache(rc *ResponseCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := c.Request.RequestURI
		if resp, found := rc.store.Get(key); found {
			cached := resp.(cachedResponse)
			for k, v := range cached.headers {
				c.Writer.Header()[k] = v
			}
			c.Header("X-Cache", "HIT")
			c.Writer.WriteHeader(cached.status)
			c.Writer.Write(cached.body)
			c.Abort()
			return
		}

		gen := rc.generation()
		blw := &bodyCacheWriter{body: bytes.NewBuffer(nil), ResponseWriter: c.Writer}
		c.Writer = blw
		c.Header("X-Cache", "MISS")

		c.Next()

		// Only cache successful responses
		if blw.Status() >= 200 && blw.Status() < 300 {
			headers := blw.Header().Clone()
			for k := range headers {
				if perRequestHeader(k) {
					headers.Del(k)
				}
			}
			rc.set(key, gen, cachedResponse{
				status:  blw.Status(),
				headers: headers,
				body:    blw.body.Bytes(),
			})
		}
	}
}

// Invalidate flushes rc after every successful non-GET request, so that
// cached listings never outlive a mutation.
func Invalidate(rc *ResponseCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			return
		}
		if c.Writer.Status() < http.StatusBadRequest {
			rc.Flush()
		}
	}
}
