package handler

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

var ErrProposalNotFound = errors.New("proposal not found or expired")

// PendingProposal 已发给操作员、尚未处理的提议
type PendingProposal struct {
	ID           string `json:"id"`
	EmployeeCode string `json:"employeeCode"`
	ShiftKey     string `json:"shiftKey"`
}

type ProposalStore interface {
	Save(ctx context.Context, p *PendingProposal, ttl time.Duration) error
	Get(ctx context.Context, id string) (*PendingProposal, error)
	Delete(ctx context.Context, id string) error
}

// RedisProposalStore 提议在 redis 中保存，过期后需要重新获取
type RedisProposalStore struct {
	client  *redis.Client
	timeout time.Duration
}

func NewRedisProposalStore(client *redis.Client, timeout time.Duration) *RedisProposalStore {
	return &RedisProposalStore{client: client, timeout: timeout}
}

func proposalKey(id string) string {
	return fmt.Sprintf("proposal_%s", id)
}

func (s *RedisProposalStore) Save(ctx context.Context, p *PendingProposal, ttl time.Duration) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.client.Set(ctx, proposalKey(p.ID), data, ttl).Err()
}

func (s *RedisProposalStore) Get(ctx context.Context, id string) (*PendingProposal, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	data, err := s.client.Get(ctx, proposalKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrProposalNotFound
		}
		return nil, err
	}

	p := &PendingProposal{}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *RedisProposalStore) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.client.Del(ctx, proposalKey(id)).Err()
}
