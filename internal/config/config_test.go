package config

import (
	"sync"
	"testing"
)

// 热更新协程与请求处理协程并发访问监考策略和演示码表，
// 快照读取必须与整段覆盖互不踩踏（go test -race 下验证）。
func TestHotReloadConcurrentAccess(t *testing.T) {
	cfg := &Config{
		Proctoring: ProctoringConfig{StrikeBudget: 3, StrikePenaltyPct: 5.0, FlagThreshold: 30},
		DemoCodes:  []DemoCode{{Code: "DEMO-A", Email: "a@example.com"}},
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			cfg.ApplyHotReload(&Config{
				Proctoring: ProctoringConfig{StrikeBudget: 3 + i%5, StrikePenaltyPct: 5.0, FlagThreshold: 30},
				DemoCodes:  []DemoCode{{Code: "DEMO-B", Email: "b@example.com"}},
			})
		}
	}()

	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				policy := cfg.ProctoringPolicy()
				if policy.StrikeBudget < 3 || policy.StrikeBudget > 7 {
					t.Errorf("torn policy read: %+v", policy)
					return
				}
				for _, demo := range cfg.DemoCodeTable() {
					if demo.Code != "DEMO-A" && demo.Code != "DEMO-B" {
						t.Errorf("torn demo code read: %+v", demo)
						return
					}
				}
			}
		}()
	}
	wg.Wait()

	if got := cfg.ProctoringPolicy(); got.FlagThreshold != 30 {
		t.Errorf("flag threshold = %d after reloads, want 30", got.FlagThreshold)
	}
}
