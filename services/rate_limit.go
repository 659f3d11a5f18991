package services

import (
	"net"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/lms_api/dto"
	"github.com/lac-hong-legacy/lms_api/model"
	"github.com/lac-hong-legacy/lms_api/services/repositories"
	"github.com/lac-hong-legacy/lms_api/shared"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const RATE_LIMIT_SVC = "rate_limit_svc"

const (
	LimitLogin         = "login"
	LimitProgressWrite = "progress_write"
	LimitTestCheck     = "test_check"
	LimitAPIGeneral    = "api_general"
)

type RateLimitService struct {
	context.DefaultService

	dbSvc Database

	configs map[string]*RateLimitConfig
	mutex   sync.RWMutex

	rateLimitRepo *repositories.RateLimitRepository
	stop          chan struct{}
}

// RateLimitConfig is a fixed window: MaxRequests per WindowSize, then blocked for BlockTime.
type RateLimitConfig struct {
	EndpointType string
	MaxRequests  int
	WindowSize   time.Duration
	BlockTime    time.Duration
	Message      string
	IsActive     bool
}

func (svc RateLimitService) Id() string {
	return RATE_LIMIT_SVC
}

func (svc *RateLimitService) Configure(ctx *context.Context) error {
	svc.dbSvc = ctx.Service(DATABASE_SVC).(Database)
	svc.initDefaultConfigs()
	return svc.DefaultService.Configure(ctx)
}

func (svc *RateLimitService) Start() error {
	svc.useDB(svc.dbSvc.Db())
	svc.stop = make(chan struct{})
	go svc.startCleanupJob()
	return nil
}

func (svc *RateLimitService) Shutdown() {
	if svc.stop != nil {
		close(svc.stop)
		svc.stop = nil
	}
}

func (svc *RateLimitService) useDB(db *gorm.DB) {
	svc.rateLimitRepo = repositories.NewRateLimitRepository(db)
	if svc.configs == nil {
		svc.initDefaultConfigs()
	}
}

func (svc *RateLimitService) initDefaultConfigs() {
	svc.mutex.Lock()
	defer svc.mutex.Unlock()

	svc.configs = map[string]*RateLimitConfig{
		LimitLogin: {
			EndpointType: LimitLogin,
			MaxRequests:  10,
			WindowSize:   15 * time.Minute,
			BlockTime:    30 * time.Minute,
			Message:      "Too many login attempts. Please try again later.",
			IsActive:     true,
		},
		LimitProgressWrite: {
			EndpointType: LimitProgressWrite,
			MaxRequests:  300,
			WindowSize:   time.Hour,
			BlockTime:    15 * time.Minute,
			Message:      "Too many progress updates. Please slow down.",
			IsActive:     true,
		},
		LimitTestCheck: {
			EndpointType: LimitTestCheck,
			MaxRequests:  60,
			WindowSize:   time.Hour,
			BlockTime:    30 * time.Minute,
			Message:      "Too many test submissions. Please try again later.",
			IsActive:     true,
		},
		LimitAPIGeneral: {
			EndpointType: LimitAPIGeneral,
			MaxRequests:  3000,
			WindowSize:   time.Hour,
			BlockTime:    10 * time.Minute,
			Message:      "Too many requests. Please slow down.",
			IsActive:     true,
		},
	}
}

// ==================== CORE ====================

func (svc *RateLimitService) config(endpointType string) (RateLimitConfig, bool) {
	svc.mutex.RLock()
	defer svc.mutex.RUnlock()
	cfg, ok := svc.configs[endpointType]
	if !ok {
		return RateLimitConfig{}, false
	}
	return *cfg, true
}

// IsAllowed counts one request for identifier against the endpoint's window.
func (svc *RateLimitService) IsAllowed(identifier, endpointType string) (bool, *dto.RateLimitInfo, error) {
	cfg, ok := svc.config(endpointType)
	if !ok || !cfg.IsActive {
		return true, &dto.RateLimitInfo{Allowed: true, Remaining: -1}, nil
	}

	now := time.Now()
	rateLimit, err := svc.rateLimitRepo.Get(identifier, endpointType)
	if err != nil {
		return false, nil, err
	}

	if rateLimit != nil && rateLimit.BlockedUntil != nil && now.Before(*rateLimit.BlockedUntil) {
		return false, &dto.RateLimitInfo{
			Allowed:      false,
			Remaining:    0,
			ResetTime:    rateLimit.BlockedUntil,
			BlockedUntil: rateLimit.BlockedUntil,
		}, nil
	}

	// new window; the row is reused so the unique key is never violated
	if rateLimit == nil || rateLimit.WindowStart.Before(now.Add(-cfg.WindowSize)) {
		if rateLimit == nil {
			rateLimit = &model.RateLimit{Identifier: identifier, EndpointType: endpointType}
		}
		rateLimit.RequestCount = 1
		rateLimit.WindowStart = now
		rateLimit.BlockedUntil = nil

		if err := svc.rateLimitRepo.Save(rateLimit); err != nil {
			return false, nil, err
		}

		resetTime := now.Add(cfg.WindowSize)
		return true, &dto.RateLimitInfo{
			Allowed:   true,
			Remaining: cfg.MaxRequests - 1,
			ResetTime: &resetTime,
		}, nil
	}

	if rateLimit.RequestCount >= cfg.MaxRequests {
		blockedUntil := now.Add(cfg.BlockTime)
		rateLimit.BlockedUntil = &blockedUntil
		rateLimit.UpdatedAt = now

		if err := svc.rateLimitRepo.Update(rateLimit); err != nil {
			return false, nil, err
		}

		log.WithFields(log.Fields{
			"identifier":    identifier,
			"endpoint_type": endpointType,
			"blocked_until": blockedUntil,
		}).Warn("Rate limit exceeded")

		return false, &dto.RateLimitInfo{
			Allowed:      false,
			Remaining:    0,
			ResetTime:    &blockedUntil,
			BlockedUntil: &blockedUntil,
		}, nil
	}

	rateLimit.RequestCount++
	rateLimit.UpdatedAt = now
	if err := svc.rateLimitRepo.Update(rateLimit); err != nil {
		return false, nil, err
	}

	resetTime := rateLimit.WindowStart.Add(cfg.WindowSize)
	return true, &dto.RateLimitInfo{
		Allowed:   true,
		Remaining: cfg.MaxRequests - rateLimit.RequestCount,
		ResetTime: &resetTime,
	}, nil
}

// ==================== MIDDLEWARE ====================

// RateLimit limits the endpoint class per caller: the authenticated user when there is one,
// the client IP otherwise. Login is keyed by IP.
func (svc *RateLimitService) RateLimit(endpointType string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identifier := getClientIP(c)
		if endpointType != LimitLogin {
			if userID, ok := c.Locals(shared.UserID).(string); ok && userID != "" {
				identifier = userID
			}
		}

		allowed, info, err := svc.IsAllowed(identifier, endpointType)
		if err != nil {
			// fail open
			log.WithError(err).WithField("endpoint_type", endpointType).Error("Rate limit check failed")
			return c.Next()
		}

		svc.addRateLimitHeaders(c, info)
		if !allowed {
			return svc.handleRateLimitExceeded(c, endpointType, info)
		}
		return c.Next()
	}
}

// IPRateLimit applies the general per-IP limit.
func (svc *RateLimitService) IPRateLimit() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ip := getClientIP(c)

		allowed, info, err := svc.IsAllowed(ip, LimitAPIGeneral)
		if err != nil {
			log.WithError(err).WithField("ip", ip).Error("IP rate limit check failed")
			return c.Next()
		}

		svc.addRateLimitHeaders(c, info)
		if !allowed {
			return svc.handleRateLimitExceeded(c, LimitAPIGeneral, info)
		}
		return c.Next()
	}
}

func (svc *RateLimitService) addRateLimitHeaders(c *fiber.Ctx, info *dto.RateLimitInfo) {
	if info == nil {
		return
	}
	if info.Remaining >= 0 {
		c.Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
	}
	if info.ResetTime != nil {
		c.Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
	if info.BlockedUntil != nil {
		if retryAfter := int(time.Until(*info.BlockedUntil).Seconds()); retryAfter > 0 {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter))
		}
	}
}

func (svc *RateLimitService) handleRateLimitExceeded(c *fiber.Ctx, endpointType string, info *dto.RateLimitInfo) error {
	message := "Too many requests. Please try again later."
	if cfg, ok := svc.config(endpointType); ok && cfg.Message != "" {
		message = cfg.Message
	}

	data := map[string]interface{}{"endpointType": endpointType}
	if info != nil && info.BlockedUntil != nil {
		data["blockedUntil"] = info.BlockedUntil.Unix()
		data["retryAfter"] = int(time.Until(*info.BlockedUntil).Seconds())
	}
	return shared.ResponseJSON(c, http.StatusTooManyRequests, message, data)
}

func getClientIP(c *fiber.Ctx) string {
	if forwarded := c.Get(fiber.HeaderXForwardedFor); forwarded != "" {
		if ip := strings.TrimSpace(strings.Split(forwarded, ",")[0]); ip != "" {
			return ip
		}
	}
	if realIP := c.Get("X-Real-IP"); realIP != "" {
		return realIP
	}

	remote := c.Context().RemoteAddr().String()
	ip, _, err := net.SplitHostPort(remote)
	if err != nil {
		return remote
	}
	return ip
}

// ==================== ADMIN ====================

func (svc *RateLimitService) Stats() (*dto.RateLimitStats, error) {
	now := time.Now()
	total, blocked, err := svc.rateLimitRepo.Stats(now)
	if err != nil {
		return nil, dbError(svc.dbSvc, err, "Rate limits not found")
	}

	svc.mutex.RLock()
	configs := make([]dto.RateLimitConfigInfo, 0, len(svc.configs))
	for _, cfg := range svc.configs {
		configs = append(configs, dto.RateLimitConfigInfo{
			EndpointType:  cfg.EndpointType,
			MaxRequests:   cfg.MaxRequests,
			WindowSeconds: int64(cfg.WindowSize.Seconds()),
			BlockSeconds:  int64(cfg.BlockTime.Seconds()),
			IsActive:      cfg.IsActive,
		})
	}
	svc.mutex.RUnlock()
	sort.Slice(configs, func(i, j int) bool { return configs[i].EndpointType < configs[j].EndpointType })

	return &dto.RateLimitStats{
		Configs:        configs,
		TotalRecords:   total,
		BlockedRecords: blocked,
		Timestamp:      now,
	}, nil
}

// ResetRateLimit clears the counter of one identifier.
func (svc *RateLimitService) ResetRateLimit(identifier, endpointType string) error {
	if identifier == "" || endpointType == "" {
		return shared.NewBadRequestError(nil, "Missing identifier or endpoint type")
	}
	if err := svc.rateLimitRepo.Remove(identifier, endpointType); err != nil {
		return dbError(svc.dbSvc, err, "Rate limit not found")
	}
	return nil
}

func (svc *RateLimitService) CleanupOldRecords() error {
	return svc.rateLimitRepo.Cleanup(24 * time.Hour)
}

func (svc *RateLimitService) startCleanupJob() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	stop := svc.stop
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := svc.CleanupOldRecords(); err != nil {
				log.WithError(err).Error("Rate limit cleanup failed")
			} else {
				log.Debug("Rate limit cleanup completed")
			}
		}
	}
}
