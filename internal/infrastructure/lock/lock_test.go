package lock

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
)

func TestMemoryLocker(t *testing.T) {
	t.Run("SerializesSameKey", func(t *testing.T) {
		l := NewMemoryLocker()
		var active, maxActive int32
		var wg sync.WaitGroup

		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				release, err := l.Acquire(context.Background(), "menu:generate:u1")
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
					return
				}
				n := atomic.AddInt32(&active, 1)
				for {
					m := atomic.LoadInt32(&maxActive)
					if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&active, -1)
				release()
			}()
		}
		wg.Wait()

		if maxActive != 1 {
			t.Errorf("Expected at most 1 holder, got %d", maxActive)
		}
		if l.held() != 0 {
			t.Errorf("Expected no slots left, got %d", l.held())
		}
	})

	t.Run("DifferentKeysDoNotBlock", func(t *testing.T) {
		l := NewMemoryLocker()
		r1, err := l.Acquire(context.Background(), "a")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		defer r1()

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		r2, err := l.Acquire(ctx, "b")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		r2()
	})

	t.Run("ContextCancelled", func(t *testing.T) {
		l := NewMemoryLocker()
		release, _ := l.Acquire(context.Background(), "a")

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		if _, err := l.Acquire(ctx, "a"); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("Expected deadline exceeded, got %v", err)
		}

		release()
		release()
		if l.held() != 0 {
			t.Errorf("Expected no slots left, got %d", l.held())
		}
	})
}

func TestRedisLocker(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("Skipping: REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	l := NewRedisLocker(client, time.Second, 10*time.Millisecond)
	key := "menu:generate:test-" + time.Now().Format("150405.000000")

	release, err := l.Acquire(context.Background(), key)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := l.Acquire(ctx, key); err == nil {
		t.Fatal("Expected second acquire to time out")
	}

	release()
	again, err := l.Acquire(context.Background(), key)
	if err != nil {
		t.Fatalf("Expected acquire after release, got %v", err)
	}
	again()
}
