package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBodyHash_IsHexSHA256(t *testing.T) {
	got := bodyHash([]byte(`{"action":"approve"}`))
	assert.Len(t, got, 64)
	assert.Equal(t, got, bodyHash([]byte(`{"action":"approve"}`)))
	assert.NotEqual(t, got, bodyHash([]byte(`{"action":"request_changes"}`)))
}

func TestBuildKey(t *testing.T) {
	rid := strings.Repeat("a", 32)
	k := buildKey("POST", "/a/:token/respond", "sub:studio-admin", rid)
	assert.Equal(t, "idemp:approv:post:/a/:token/respond:sub:studio-admin:"+rid, k)
	assert.NotEqual(t, k, buildKey("POST", "/a/:token/respond", "sub:other", rid), "scopes must not collide")
}

func TestValidReqID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"3f9a6a1b-3d54-4fbe-8b3a-6b3e8d6b2c88", true},
		{strings.Repeat("a", 32), true},
		{"3f9a6a1b3d544fbe8b3a6b3e8d6b2c88", true},
		{"", false},
		{strings.Repeat("A", 32), false},
		{"3f9a6a1b3d544fbe8b3a6b3e8d6b2c8", false},
		{"3f9a6a1b3d544fbe8b3a6b3e8d6b2c880", false},
		{strings.Repeat("z", 32), false},
		{"3F9A6A1B-3D54-4FBE-8B3A-6B3E8D6B2C88", false},
		{"3f9a6a1b-3d54-9fbe-8b3a-6b3e8d6b2c88", false},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, validReqID(tc.id), "id %q", tc.id)
	}
}

func TestParseAxRequestAt(t *testing.T) {
	now := time.Now().UTC()
	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{"epoch seconds", strconv.FormatInt(now.Unix(), 10), time.Unix(now.Unix(), 0).UTC()},
		{"epoch millis", strconv.FormatInt(now.UnixMilli(), 10), time.UnixMilli(now.UnixMilli()).UTC()},
		{"rfc3339 offset", "2026-03-02T10:00:00+07:00", time.Date(2026, 3, 2, 3, 0, 0, 0, time.UTC)},
		{"rfc3339 zulu", "2026-03-02T03:00:00Z", time.Date(2026, 3, 2, 3, 0, 0, 0, time.UTC)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseAxRequestAt(tc.raw)
			require.NoError(t, err)
			assert.True(t, got.Equal(tc.want), "got %v want %v", got, tc.want)
			assert.Equal(t, time.UTC, got.Location())
		})
	}

	for _, raw := range []string{"", "not-a-time", "2026-03-02T10:00:00", "1736123456abc"} {
		_, err := parseAxRequestAt(raw)
		assert.Error(t, err, "raw %q", raw)
	}
}

func TestRequestHeaders(t *testing.T) {
	h := http.Header{}
	_, _, msg := requestHeaders(h)
	assert.Equal(t, "missing Ax-Request-Id", msg)

	h.Set(HeaderRequestID, strings.Repeat("b", 32))
	h.Set(HeaderRequestAt, nowUTC().Add(-time.Hour).Format(time.RFC3339))
	_, _, msg = requestHeaders(h)
	assert.Equal(t, "Ax-Request-At too skewed", msg)

	h.Set(HeaderRequestAt, nowUTC().Format(time.RFC3339))
	id, at, msg := requestHeaders(h)
	assert.Empty(t, msg)
	assert.Equal(t, strings.Repeat("b", 32), id)
	assert.WithinDuration(t, nowUTC(), at, 2*time.Second)
}

func TestSubjectOrToken_HashIsStable(t *testing.T) {
	e := echo.New()
	scopeFor := func(token string) string {
		c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), httptest.NewRecorder())
		c.SetParamNames("token")
		c.SetParamValues(token)
		return SubjectOrToken(c)
	}
	a := scopeFor("tok-harbour-house")
	assert.Equal(t, a, scopeFor("tok-harbour-house"))
	assert.NotEqual(t, a, scopeFor("tok-mill-lane"))
	assert.NotContains(t, a, "harbour")
}

func TestRedisEntries(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	ctx := context.Background()
	key := buildKey("POST", "/a/:token/respond", "sub:studio-admin", strings.Repeat("a", 32))

	pending := idempEntry{
		InProgress:  true,
		BodySHA256:  bodyHash([]byte(`{"action":"approve"}`)),
		RequestID:   strings.Repeat("a", 32),
		RequestAtMS: time.Now().UnixMilli(),
		CreatedAt:   nowUTC(),
	}
	ok, err := provisionalSet(ctx, rdb, key, pending)
	require.NoError(t, err)
	require.True(t, ok)

	ttl := rdb.TTL(ctx, key).Val()
	assert.True(t, ttl > 0 && ttl <= provisionalLockTTL, "provisional ttl %v", ttl)

	ok, err = provisionalSet(ctx, rdb, key, pending)
	require.NoError(t, err)
	assert.False(t, ok, "second claim must lose")

	got, err := loadEntry(ctx, rdb, key)
	require.NoError(t, err)
	assert.True(t, got.InProgress)
	assert.Equal(t, pending.BodySHA256, got.BodySHA256)

	final := pending
	final.InProgress = false
	final.Code = http.StatusOK
	final.ContentType = echo.MIMEApplicationJSON
	final.Body = []byte(`{"status":"approved"}`)
	require.NoError(t, saveFinal(ctx, rdb, key, final, 5*time.Second))

	ttl = rdb.TTL(ctx, key).Val()
	assert.True(t, ttl > 0 && ttl <= 5*time.Second, "final ttl %v", ttl)

	got, err = loadEntry(ctx, rdb, key)
	require.NoError(t, err)
	assert.False(t, got.InProgress)
	assert.Equal(t, http.StatusOK, got.Code)
	assert.Equal(t, echo.MIMEApplicationJSON, got.ContentType)
	assert.JSONEq(t, `{"status":"approved"}`, string(got.Body))
}
