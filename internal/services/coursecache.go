package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/courseloom/courseloom-backend/internal/logger"
	"github.com/courseloom/courseloom-backend/internal/types"
)

const (
	publishedCoursesKey = "catalog:published"
	publishedCoursesTTL = 60 * time.Second
)

// CourseCache is a best-effort read cache for the published-course
// listing. Misses and errors fall through to the store; the store stays
// the source of truth.
type CourseCache interface {
	GetPublished(ctx context.Context) ([]*types.Course, bool)
	SetPublished(ctx context.Context, courses []*types.Course)
	InvalidatePublished(ctx context.Context)
}

type courseCache struct {
	log    *logger.Logger
	client *redis.Client
}

func NewCourseCache(log *logger.Logger, addr, password string) (CourseCache, error) {
	serviceLog := log.With("service", "CourseCache")
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return &courseCache{log: serviceLog, client: client}, nil
}

func (cc *courseCache) GetPublished(ctx context.Context) ([]*types.Course, bool) {
	raw, err := cc.client.Get(ctx, publishedCoursesKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			cc.log.Warn("Published-course cache read failed", "error", err)
		}
		return nil, false
	}
	var courses []*types.Course
	if err := json.Unmarshal(raw, &courses); err != nil {
		cc.log.Warn("Published-course cache entry corrupt, dropping", "error", err)
		cc.InvalidatePublished(ctx)
		return nil, false
	}
	return courses, true
}

func (cc *courseCache) SetPublished(ctx context.Context, courses []*types.Course) {
	raw, err := json.Marshal(courses)
	if err != nil {
		cc.log.Warn("Published-course cache marshal failed", "error", err)
		return
	}
	if err := cc.client.Set(ctx, publishedCoursesKey, raw, publishedCoursesTTL).Err(); err != nil {
		cc.log.Warn("Published-course cache write failed", "error", err)
	}
}

func (cc *courseCache) InvalidatePublished(ctx context.Context) {
	if err := cc.client.Del(ctx, publishedCoursesKey).Err(); err != nil {
		cc.log.Warn("Published-course cache invalidation failed", "error", err)
	}
}
