package services

import (
	"context"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/starks-ai/motion_api/dto"
	"github.com/starks-ai/motion_api/shared"
)

// RateLimitService is a fixed-window request limiter. Each endpoint type owns
// an independent bucket namespace and limit; a client holds exactly one live
// bucket per endpoint at a time.
//
// The default backend is process memory, which under-enforces across a
// horizontally scaled deployment. Set RATE_LIMIT_BACKEND=redis to share
// counters between instances.
type RateLimitService struct {
	appContext.DefaultService

	mu      sync.Mutex
	buckets map[string]*rateBucket
	configs map[string]RateLimitConfig

	useRedis bool
	redisSvc *RedisService

	stopCleanup chan struct{}
}

type RateLimitConfig struct {
	EndpointType string
	MaxRequests  int
	Window       time.Duration
}

type rateBucket struct {
	count   int
	resetAt time.Time
}

const RATE_LIMIT_SVC = "rate_limit_svc"

const rateWindow = 60 * time.Second

func (svc RateLimitService) Id() string {
	return RATE_LIMIT_SVC
}

func (svc *RateLimitService) Configure(ctx *appContext.Context) error {
	svc.buckets = make(map[string]*rateBucket)
	svc.configs = map[string]RateLimitConfig{
		shared.EndpointChat:       {EndpointType: shared.EndpointChat, MaxRequests: 25, Window: rateWindow},
		shared.EndpointMotionSpec: {EndpointType: shared.EndpointMotionSpec, MaxRequests: 12, Window: rateWindow},
		shared.EndpointSpeech:     {EndpointType: shared.EndpointSpeech, MaxRequests: 20, Window: rateWindow},
	}
	svc.useRedis = os.Getenv("RATE_LIMIT_BACKEND") == "redis"
	svc.stopCleanup = make(chan struct{})

	return svc.DefaultService.Configure(ctx)
}

func (svc *RateLimitService) Start() error {
	if svc.useRedis {
		svc.redisSvc = svc.Service(REDIS_SVC).(*RedisService)
	}

	go svc.startCleanupJob()
	return nil
}

func (svc *RateLimitService) Shutdown() {
	close(svc.stopCleanup)
}

// ==================== CORE RATE LIMITING LOGIC ====================

// Check counts one request against the client's window and reports whether it
// is allowed. A fresh or expired window replaces the bucket with count=1.
func (svc *RateLimitService) Check(endpointType, clientID string) dto.RateLimitInfo {
	config, exists := svc.configs[endpointType]
	if !exists {
		return dto.RateLimitInfo{Allowed: true, Remaining: -1}
	}

	if svc.useRedis && svc.redisSvc != nil {
		return svc.checkRedis(config, clientID)
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	now := time.Now()
	key := endpointType + ":" + clientID

	bucket, ok := svc.buckets[key]
	if !ok || bucket.resetAt.Before(now) {
		svc.buckets[key] = &rateBucket{count: 1, resetAt: now.Add(config.Window)}
		return dto.RateLimitInfo{Allowed: true, Remaining: config.MaxRequests - 1}
	}

	if bucket.count >= config.MaxRequests {
		retryAfter := int(math.Ceil(bucket.resetAt.Sub(now).Seconds()))
		if retryAfter < 0 {
			retryAfter = 0
		}
		return dto.RateLimitInfo{Allowed: false, RetryAfterSeconds: retryAfter}
	}

	bucket.count++
	return dto.RateLimitInfo{Allowed: true, Remaining: config.MaxRequests - bucket.count}
}

// checkRedis is the shared-counter variant: INCR plus a window-sized expiry
// set on the first hit, retry-after read back from the key TTL.
func (svc *RateLimitService) checkRedis(config RateLimitConfig, clientID string) dto.RateLimitInfo {
	ctx := context.Background()
	key := fmt.Sprintf("ratelimit:%s:%s", config.EndpointType, clientID)

	count, err := svc.redisSvc.Increment(ctx, key)
	if err != nil {
		log.WithError(err).WithField("endpoint", config.EndpointType).
			Error("Rate limit backend unavailable, allowing request")
		return dto.RateLimitInfo{Allowed: true, Remaining: -1}
	}

	if count == 1 {
		if err := svc.redisSvc.Expire(ctx, key, config.Window); err != nil {
			log.WithError(err).Warn("Failed to set rate limit window expiry")
		}
	}

	if int(count) > config.MaxRequests {
		retryAfter := int(config.Window.Seconds())
		if ttl, err := svc.redisSvc.TTL(ctx, key); err == nil && ttl > 0 {
			retryAfter = int(math.Ceil(ttl.Seconds()))
		}
		return dto.RateLimitInfo{Allowed: false, RetryAfterSeconds: retryAfter}
	}

	return dto.RateLimitInfo{Allowed: true, Remaining: config.MaxRequests - int(count)}
}

// ==================== MIDDLEWARE ====================

// Limit rejects requests over the endpoint's window budget with a 429 and a
// Retry-After hint. It runs after body validation so malformed requests do
// not consume quota.
func (svc *RateLimitService) Limit(endpointType string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		info := svc.Check(endpointType, ClientID(c))

		if info.Remaining >= 0 {
			c.Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		}

		if !info.Allowed {
			RecordRateLimitRejection(endpointType)
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(info.RetryAfterSeconds))
			return shared.NewRateLimitError(info.RetryAfterSeconds)
		}

		return c.Next()
	}
}

// ClientID derives the rate limit key: first forwarded-for hop, then the
// real-ip header, then the literal "unknown".
func ClientID(c *fiber.Ctx) string {
	if forwarded := c.Get(fiber.HeaderXForwardedFor); forwarded != "" {
		first := strings.TrimSpace(strings.Split(forwarded, ",")[0])
		if first != "" {
			return first
		}
	}

	if realIP := c.Get("X-Real-IP"); realIP != "" {
		return realIP
	}

	return "unknown"
}

// ==================== BACKGROUND JOBS ====================

// startCleanupJob sweeps expired buckets so idle clients do not pin memory.
func (svc *RateLimitService) startCleanupJob() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-svc.stopCleanup:
			return
		case <-ticker.C:
			svc.sweepExpired()
		}
	}
}

func (svc *RateLimitService) sweepExpired() {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	now := time.Now()
	for key, bucket := range svc.buckets {
		if bucket.resetAt.Before(now) {
			delete(svc.buckets, key)
		}
	}
}
