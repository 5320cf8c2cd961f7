// Package messaging은 Redis pub/sub 기반 이벤트 발행/구독을 제공합니다.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Publisher 이벤트 발행 인터페이스
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) error
}

// Message 메시지 구조체
type Message struct {
	Channel string
	Payload []byte
	Time    time.Time
}

// Client Redis 클라이언트 래퍼
// 같은 연결을 캐시 용도(Redis())로도 공유합니다.
type Client struct {
	client *redis.Client
}

// NewRedisClient Redis 클라이언트를 생성하고 연결을 확인합니다.
func NewRedisClient(addr, password string, db int) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("Redis 연결 실패: %w", err)
	}

	return &Client{client: client}, nil
}

// NewClient 이미 생성된 go-redis 클라이언트를 감쌉니다.
func NewClient(client *redis.Client) *Client {
	return &Client{client: client}
}

// Redis 내부 go-redis 클라이언트를 반환합니다.
func (r *Client) Redis() *redis.Client {
	return r.client
}

// Publish 메시지를 JSON으로 직렬화해 발행합니다.
func (r *Client) Publish(ctx context.Context, channel string, message interface{}) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("메시지 직렬화 실패: %w", err)
	}

	return r.client.Publish(ctx, channel, payload).Err()
}

// Subscribe 채널을 구독합니다. ctx가 끝나면 채널이 닫힙니다.
func (r *Client) Subscribe(ctx context.Context, channel string) (<-chan Message, error) {
	pubsub := r.client.Subscribe(ctx, channel)

	// 구독 확인
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("채널 구독 실패: %w", err)
	}

	messageCh := make(chan Message)
	go func() {
		defer close(messageCh)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case messageCh <- Message{Channel: msg.Channel, Payload: []byte(msg.Payload), Time: time.Now()}:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return messageCh, nil
}

// Ping 연결 상태를 확인합니다.
func (r *Client) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close Redis 클라이언트 종료
func (r *Client) Close() error {
	return r.client.Close()
}
