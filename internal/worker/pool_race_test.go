package worker

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestPool_RaceCondition(t *testing.T) {
	conn := &MockClickHouseConn{}
	cfg := PoolConfig{
		WorkerCount:   2,
		QueueSize:     1000,
		BatchSize:     10,
		FlushInterval: 10 * time.Millisecond,
		ClickHouse:    conn,
		Logger:        zap.NewNop(),
	}
	p := NewPool(cfg)
	p.Start(context.Background())

	wg := sync.WaitGroup{}
	producers := 10
	plansPerProducer := 50

	var mu sync.Mutex
	accepted := 0
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < plansPerProducer; j++ {
				if p.Record(samplePlan(fmt.Sprintf("plan-%d-%d", i, j))) {
					mu.Lock()
					accepted++
					mu.Unlock()
				}
				if j%10 == 0 {
					time.Sleep(1 * time.Millisecond)
				}
			}
		}(i)
	}

	wg.Wait()
	p.Stop()

	if got := len(conn.Rows()); got != accepted {
		t.Errorf("wrote %d rows, accepted %d plans", got, accepted)
	}
}
