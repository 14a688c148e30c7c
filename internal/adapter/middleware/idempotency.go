package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	HeaderRequestID = "Ax-Request-Id"
	HeaderRequestAt = "Ax-Request-At"
	HeaderReplay    = "Ax-Idempotent-Replay"

	// In-progress marker lifetime; a crashed handler frees the key after this.
	provisionalLockTTL = 60 * time.Second
	maxClockSkew       = 10 * time.Minute
	storeTimeout       = 2 * time.Second
)

type idempEntry struct {
	InProgress  bool      `json:"in_progress"`
	Code        int       `json:"code"`
	ContentType string    `json:"content_type,omitempty"`
	Body        []byte    `json:"body"`
	BodySHA256  string    `json:"body_sha256"`
	RequestID   string    `json:"request_id"`
	RequestAtMS int64     `json:"request_at_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

// teeWriter copies everything the handler writes so it can be replayed.
type teeWriter struct {
	http.ResponseWriter
	body bytes.Buffer
	code int
}

func (w *teeWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *teeWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

type idempotency struct {
	rdb   redis.Cmdable
	ttl   time.Duration
	scope ScopeFunc
	log   logrus.FieldLogger
}

// IdempotencyMiddleware makes mutating requests safe to retry. Each request
// carries Ax-Request-Id and Ax-Request-At; the stored result is keyed by
// method, route, scope and request id. A repeated id with the same body
// replays the first response, a different body is a 409. 5xx results are
// dropped so the client can retry with the same id.
func IdempotencyMiddleware(rdb redis.Cmdable, ttl time.Duration, scope ScopeFunc, log logrus.FieldLogger) echo.MiddlewareFunc {
	m := &idempotency{rdb: rdb, ttl: ttl, scope: scope, log: log}
	return m.handle
}

func (m *idempotency) handle(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		switch req.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			return next(c)
		}

		reqID, reqAt, msg := requestHeaders(req.Header)
		if msg != "" {
			return reject(c, http.StatusBadRequest, msg)
		}
		owner := m.scope(c)
		if owner == "" {
			return reject(c, http.StatusBadRequest, "request has no idempotency scope")
		}

		var body []byte
		if req.Body != nil {
			b, err := io.ReadAll(req.Body)
			if err != nil {
				return reject(c, http.StatusBadRequest, "request body could not be read")
			}
			body = b
		}
		req.Body = io.NopCloser(bytes.NewReader(body))
		hash := bodyHash(body)
		key := buildKey(req.Method, c.Path(), owner, reqID)
		log := m.log.WithField("request_id", reqID)

		ctx, cancel := context.WithTimeout(req.Context(), storeTimeout)
		defer cancel()
		claimed, err := provisionalSet(ctx, m.rdb, key, idempEntry{
			InProgress:  true,
			BodySHA256:  hash,
			RequestID:   reqID,
			RequestAtMS: reqAt.UnixMilli(),
			CreatedAt:   nowUTC(),
		})
		if err != nil {
			log.WithError(err).Warn("idempotency store unavailable")
			return reject(c, http.StatusServiceUnavailable, "idempotency store unavailable")
		}
		if !claimed {
			return m.replay(ctx, c, key, hash, log)
		}

		tee := &teeWriter{ResponseWriter: c.Response().Writer, code: http.StatusOK}
		c.Response().Writer = tee
		if err := next(c); err != nil {
			c.Error(err)
		}

		if tee.code >= http.StatusInternalServerError {
			if err := m.rdb.Del(context.Background(), key).Err(); err != nil {
				log.WithError(err).Warn("idempotency key not released")
			}
			return nil
		}
		final := idempEntry{
			Code:        tee.code,
			ContentType: tee.Header().Get(echo.HeaderContentType),
			Body:        tee.body.Bytes(),
			BodySHA256:  hash,
			RequestID:   reqID,
			RequestAtMS: reqAt.UnixMilli(),
			CreatedAt:   nowUTC(),
		}
		if err := saveFinal(context.Background(), m.rdb, key, final, m.ttl); err != nil {
			log.WithError(err).Warn("idempotency result not stored")
		}
		return nil
	}
}

// replay answers a request whose key is already taken.
func (m *idempotency) replay(ctx context.Context, c echo.Context, key, hash string, log logrus.FieldLogger) error {
	cur, err := loadEntry(ctx, m.rdb, key)
	if err != nil {
		log.WithError(err).Warn("idempotency entry not loaded")
	}
	if cur.BodySHA256 != "" && cur.BodySHA256 != hash {
		return reject(c, http.StatusConflict, "Ax-Request-Id reused with different body")
	}
	if cur.InProgress || cur.Code == 0 || len(cur.Body) == 0 {
		return reject(c, http.StatusConflict, "request is already in progress")
	}
	ct := cur.ContentType
	if ct == "" {
		ct = echo.MIMEApplicationJSON
	}
	c.Response().Header().Set(HeaderReplay, "true")
	return c.Blob(cur.Code, ct, cur.Body)
}

// requestHeaders validates the idempotency headers. A non-empty msg is the
// client-facing reason for rejecting them.
func requestHeaders(h http.Header) (reqID string, reqAt time.Time, msg string) {
	reqID = strings.TrimSpace(h.Get(HeaderRequestID))
	if reqID == "" {
		return "", time.Time{}, "missing " + HeaderRequestID
	}
	if !validReqID(reqID) {
		return "", time.Time{}, "invalid " + HeaderRequestID + " format"
	}
	reqAt, err := parseAxRequestAt(h.Get(HeaderRequestAt))
	if err != nil {
		return "", time.Time{}, err.Error()
	}
	now := nowUTC()
	if reqAt.Before(now.Add(-maxClockSkew)) || reqAt.After(now.Add(maxClockSkew)) {
		return "", time.Time{}, HeaderRequestAt + " too skewed"
	}
	return reqID, reqAt, ""
}

func reject(c echo.Context, code int, msg string) error {
	return c.JSON(code, map[string]string{"error": msg})
}
