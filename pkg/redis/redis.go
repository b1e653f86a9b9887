package redis

import (
	"FaceDetect/pkg/facepipeline"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const keyPrefix = "face:detections"

// IRedis caches detection results keyed by image content and model config.
type IRedis interface {
	GetDetections(ctx context.Context, key string) ([]facepipeline.Detection, bool, error)
	SetDetections(ctx context.Context, key string, faces []facepipeline.Detection) error
	Close() error
}

type redisClient struct {
	client *redis.Client
	ttl    time.Duration
	log    *logrus.Logger
}

// New returns nil when REDIS_ADDRESS is unset; callers treat a nil cache as
// disabled.
func New(log *logrus.Logger) IRedis {
	redisAddr := os.Getenv("REDIS_ADDRESS")
	if redisAddr == "" {
		log.Info("REDIS_ADDRESS not set, detection cache disabled")
		return nil
	}

	db, _ := strconv.Atoi(os.Getenv("REDIS_DB"))

	ttl, err := time.ParseDuration(os.Getenv("DETECTION_CACHE_TTL"))
	if err != nil || ttl <= 0 {
		ttl = 10 * time.Minute
	}

	log.Infof("Connecting to Redis at %s...", redisAddr)

	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
	})

	return NewWithClient(client, ttl, log)
}

func NewWithClient(client *redis.Client, ttl time.Duration, log *logrus.Logger) IRedis {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Errorf("Failed to connect to Redis: %v", err)
	} else {
		log.Info("Successfully connected to Redis")
	}

	return &redisClient{client: client, ttl: ttl, log: log}
}

// CacheKey identifies an image by content hash together with the model
// settings that produced the result.
func CacheKey(image []byte, modelSelection int, minConfidence float64) string {
	sum := sha256.Sum256(image)
	return fmt.Sprintf("%s:%s:%d:%s", keyPrefix, hex.EncodeToString(sum[:]), modelSelection,
		strconv.FormatFloat(minConfidence, 'f', -1, 64))
}

func (r *redisClient) GetDetections(ctx context.Context, key string) ([]facepipeline.Detection, bool, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		r.log.Debugf("Detection cache miss for key %s", key)
		return nil, false, nil
	} else if err != nil {
		return nil, false, err
	}

	var faces []facepipeline.Detection
	if err := jsoniter.Unmarshal(val, &faces); err != nil {
		return nil, false, fmt.Errorf("decode cached detections: %w", err)
	}

	r.log.Debugf("Detection cache hit for key %s", key)
	return faces, true, nil
}

func (r *redisClient) SetDetections(ctx context.Context, key string, faces []facepipeline.Detection) error {
	if faces == nil {
		faces = []facepipeline.Detection{}
	}

	val, err := jsoniter.Marshal(faces)
	if err != nil {
		return err
	}

	return r.client.Set(ctx, key, val, r.ttl).Err()
}

func (r *redisClient) Close() error {
	return r.client.Close()
}
