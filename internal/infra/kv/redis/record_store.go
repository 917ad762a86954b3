package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	domain "github.com/bryanwahyu/traffic-sign-indicator/internal/domain/signs"
)

// DefaultTable prefix key untuk semua record
const DefaultTable = "TrafficSignRecommendations"

type Options struct {
	Addr     string
	Password string
	DB       int
	Table    string
}

// RecordStore writes each record as a hash at <table>:<image_key>:<timestamp>:<id>
// and keeps the keys, newest first, in the list <table>:index.
type RecordStore struct {
	client redis.Cmdable
	table  string
}

func New(ctx context.Context, opt Options) (*RecordStore, *redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opt.Addr,
		Password: opt.Password,
		DB:       opt.DB,
	})
	ctx2, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx2).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRecordStore(client, opt.Table), client, nil
}

func NewRecordStore(client redis.Cmdable, table string) *RecordStore {
	if table == "" {
		table = DefaultTable
	}
	return &RecordStore{client: client, table: table}
}

func (s *RecordStore) recordKey(rec domain.AnalysisRecord) string {
	return fmt.Sprintf("%s:%s:%s:%s", s.table, rec.ImageKey, rec.TimestampString(), rec.ID)
}

func (s *RecordStore) indexKey() string { return s.table + ":index" }

// Put stores the record item and pushes its key onto the index in one transaction.
func (s *RecordStore) Put(ctx context.Context, rec domain.AnalysisRecord) error {
	key := s.recordKey(rec)
	fields := make(map[string]any, 6)
	for k, v := range rec.Item() {
		fields[k] = v
	}
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key, fields)
		p.LPush(ctx, s.indexKey(), key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (s *RecordStore) Latest(ctx context.Context, page, pageSize int) ([]domain.AnalysisRecord, error) {
	start, stop := indexRange(page, pageSize)
	keys, err := s.client.LRange(ctx, s.indexKey(), start, stop).Result()
	if err != nil {
		return nil, err
	}
	out := []domain.AnalysisRecord{}
	if len(keys) == 0 {
		return out, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(keys))
	_, err = s.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, k := range keys {
			cmds[i] = p.HGetAll(ctx, k)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, c := range cmds {
		item := c.Val()
		// key di index tapi hash sudah dihapus
		if len(item) == 0 {
			continue
		}
		out = append(out, domain.RecordFromItem(item))
	}
	return out, nil
}

func (s *RecordStore) Check(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func indexRange(page, pageSize int) (int64, int64) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	start := int64((page - 1) * pageSize)
	return start, start + int64(pageSize) - 1
}
