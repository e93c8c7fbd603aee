package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	// IdempotencyKeyHeader carries the client supplied key
	IdempotencyKeyHeader = "X-Idempotency-Key"
	// IdempotencyReplayHeader is set on responses served from a stored record
	IdempotencyReplayHeader = "X-Idempotent-Replay"
	// DefaultIdempotencyTTL keeps completed responses long enough for a client to
	// retry a select/cancel after a dropped connection
	DefaultIdempotencyTTL = 24 * time.Hour
	// DefaultProcessingTTL bounds how long an in-flight claim blocks the key
	DefaultProcessingTTL = 60 * time.Second
	// IdempotencyKeyPrefix namespaces the Redis keys
	IdempotencyKeyPrefix = "engine:idempotency:"
)

type idempotencyState string

const (
	stateProcessing idempotencyState = "processing"
	stateCompleted  idempotencyState = "completed"
)

// idempotencyRecord is what gets stored under a key
type idempotencyRecord struct {
	State       idempotencyState `json:"state"`
	Fingerprint string           `json:"fingerprint"`
	Status      int              `json:"status,omitempty"`
	Body        string           `json:"body,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

// RedisClient is the subset of go-redis used for idempotency records
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// IdempotencyConfig holds configuration for idempotency middleware
type IdempotencyConfig struct {
	Redis RedisClient
	// TTL of completed records
	TTL time.Duration
	// ProcessingTTL of the claim taken while the handler runs
	ProcessingTTL time.Duration
	// SkipPaths are exact paths, or prefixes when ending in *
	SkipPaths []string
	// RequireKey rejects write requests without a key; when false they pass through untracked
	RequireKey bool
}

// DefaultIdempotencyConfig returns default configuration
func DefaultIdempotencyConfig(redis RedisClient) *IdempotencyConfig {
	return &IdempotencyConfig{
		Redis:         redis,
		TTL:           DefaultIdempotencyTTL,
		ProcessingTTL: DefaultProcessingTTL,
		RequireKey:    true,
	}
}

// IdempotencyMiddleware replays the stored response when a write request is
// repeated with the same key, caller and body. Redis failures fail open.
func IdempotencyMiddleware(config *IdempotencyConfig) gin.HandlerFunc {
	if config.TTL <= 0 {
		config.TTL = DefaultIdempotencyTTL
	}
	if config.ProcessingTTL <= 0 {
		config.ProcessingTTL = DefaultProcessingTTL
	}

	return func(c *gin.Context) {
		if !isWrite(c.Request.Method) || skipped(c.Request.URL.Path, config.SkipPaths) {
			c.Next()
			return
		}

		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			if config.RequireKey {
				c.AbortWithStatusJSON(http.StatusBadRequest, response.ErrorBody("MISSING_IDEMPOTENCY_KEY", "X-Idempotency-Key header is required"))
				return
			}
			c.Next()
			return
		}

		var body []byte
		if c.Request.Body != nil {
			body, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
		}

		ctx := c.Request.Context()
		redisKey := IdempotencyKeyPrefix + key
		claim := &idempotencyRecord{
			State:       stateProcessing,
			Fingerprint: fingerprint(c, body),
			CreatedAt:   time.Now(),
		}

		claimed, err := storeRecord(ctx, config.Redis, redisKey, claim, config.ProcessingTTL, true)
		if err != nil {
			c.Next()
			return
		}
		if !claimed {
			existing, err := loadRecord(ctx, config.Redis, redisKey)
			if err != nil {
				c.Next()
				return
			}
			replay(c, existing, claim.Fingerprint)
			return
		}

		rw := &capturingWriter{ResponseWriter: c.Writer, status: http.StatusOK}
		c.Writer = rw
		c.Next()

		// Server errors release the key so the client can retry with it
		if rw.status >= http.StatusInternalServerError {
			_ = config.Redis.Del(ctx, redisKey).Err()
			return
		}

		claim.State = stateCompleted
		claim.Status = rw.status
		claim.Body = rw.body.String()
		_, _ = storeRecord(ctx, config.Redis, redisKey, claim, config.TTL, false)
	}
}

func replay(c *gin.Context, rec *idempotencyRecord, fp string) {
	switch {
	case rec.Fingerprint != fp:
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, response.ErrorBody("IDEMPOTENCY_KEY_REUSED", "Idempotency key already used with different request"))
	case rec.State == stateProcessing:
		c.AbortWithStatusJSON(http.StatusConflict, response.ErrorBody("REQUEST_IN_PROGRESS", "A request with this idempotency key is already being processed"))
	default:
		c.Header(IdempotencyReplayHeader, "true")
		c.Data(rec.Status, "application/json; charset=utf-8", []byte(rec.Body))
		c.Abort()
	}
}

// fingerprint ties a key to the method, path, caller and body it was first used with
func fingerprint(c *gin.Context, body []byte) string {
	h := sha256.New()
	h.Write([]byte(c.Request.Method))
	h.Write([]byte{0})
	h.Write([]byte(c.Request.URL.Path))
	h.Write([]byte{0})
	if userID, ok := GetUserID(c); ok {
		h.Write([]byte(userID))
	}
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

func storeRecord(ctx context.Context, rc RedisClient, key string, rec *idempotencyRecord, ttl time.Duration, onlyIfAbsent bool) (bool, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return false, err
	}
	if onlyIfAbsent {
		return rc.SetNX(ctx, key, string(data), ttl).Result()
	}
	return true, rc.Set(ctx, key, string(data), ttl).Err()
}

func loadRecord(ctx context.Context, rc RedisClient, key string) (*idempotencyRecord, error) {
	raw, err := rc.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errors.New("idempotency record expired between claim and read")
		}
		return nil, err
	}
	var rec idempotencyRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func skipped(path string, patterns []string) bool {
	for _, p := range patterns {
		if prefix, ok := strings.CutSuffix(p, "*"); ok {
			if strings.HasPrefix(path, prefix) {
				return true
			}
		} else if path == p {
			return true
		}
	}
	return false
}

// capturingWriter tees the response body so it can be stored
type capturingWriter struct {
	gin.ResponseWriter
	body   bytes.Buffer
	status int
}

func (w *capturingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *capturingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

func (w *capturingWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
