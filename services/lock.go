package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/google/uuid"
	"github.com/lac-hong-legacy/lms_api/shared"
	log "github.com/sirupsen/logrus"
)

const LOCK_SVC = "lock_svc"

var ErrLockTimeout = errors.New("lock acquisition timed out")

// Locker serializes work on one key across goroutines (and processes, when backed by Redis).
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// LockService hands out per-key locks. With Redis configured it uses SET NX PX with a
// random token; otherwise it falls back to in-process mutexes.
type LockService struct {
	appContext.DefaultService

	redisSvc   *RedisService
	monitoring *MonitoringService

	ttl     time.Duration
	wait    time.Duration
	backoff time.Duration

	local *LocalLocker
}

func (svc LockService) Id() string {
	return LOCK_SVC
}

func (svc *LockService) Configure(ctx *appContext.Context) error {
	svc.redisSvc = ctx.Service(REDIS_SVC).(*RedisService)
	svc.monitoring, _ = ctx.Service(MONITORING_SVC).(*MonitoringService)

	svc.ttl = time.Duration(getEnvInt("LOCK_TTL_MS", 5000)) * time.Millisecond
	svc.wait = svc.ttl
	svc.backoff = 20 * time.Millisecond
	svc.local = NewLocalLocker()
	return svc.DefaultService.Configure(ctx)
}

func (svc *LockService) Start() error {
	return nil
}

// LearnerKey names the lock guarding one learner's rows for one scope (course or lesson).
func LearnerKey(scope, userID, id string) string {
	return fmt.Sprintf("lms:lock:%s:%s:%s", scope, userID, id)
}

func (svc *LockService) Acquire(ctx context.Context, key string) (func(), error) {
	if !svc.redisSvc.Enabled() {
		return svc.local.Acquire(ctx, key)
	}

	token := uuid.NewString()
	deadline := time.Now().Add(svc.wait)

	for {
		ok, err := svc.redisSvc.SetNX(ctx, key, token, svc.ttl)
		if err != nil {
			return nil, shared.NewAppError(http.StatusServiceUnavailable, err, "Lock service unavailable")
		}
		if ok {
			return func() {
				// detached from the request so a cancelled client still releases
				releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				if _, err := svc.redisSvc.DeleteIfEquals(releaseCtx, key, token); err != nil {
					log.WithError(err).WithField("key", key).Warn("Failed to release lock")
				}
			}, nil
		}

		if time.Now().After(deadline) {
			svc.monitoring.LockFailed()
			return nil, shared.NewAppError(http.StatusServiceUnavailable, ErrLockTimeout, "Resource busy, please retry")
		}

		select {
		case <-ctx.Done():
			svc.monitoring.LockFailed()
			return nil, ctx.Err()
		case <-time.After(svc.backoff):
		}
	}
}

// LocalLocker is a keyed mutex with reference counting so idle keys are dropped.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*localLock
}

type localLock struct {
	ch   chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]*localLock)}
}

func (l *LocalLocker) Acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	lk, ok := l.locks[key]
	if !ok {
		lk = &localLock{ch: make(chan struct{}, 1)}
		l.locks[key] = lk
	}
	lk.refs++
	l.mu.Unlock()

	select {
	case lk.ch <- struct{}{}:
	case <-ctx.Done():
		l.drop(key, lk)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-lk.ch
			l.drop(key, lk)
		})
	}, nil
}

func (l *LocalLocker) drop(key string, lk *localLock) {
	l.mu.Lock()
	lk.refs--
	if lk.refs == 0 {
		delete(l.locks, key)
	}
	l.mu.Unlock()
}
