// @title TalentGate 后端 API
// @version 1.0
// @description 候选人评估与笔试诚信引擎的后端服务器。

// @contact.name API支持

// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

package main

import (
	"log"

	"talentgate_backend/internal/app"
	"talentgate_backend/internal/config"
	"talentgate_backend/pkg/configwatcher"
	"talentgate_backend/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	// 监考策略与演示码支持热更新，其余配置改动需要重启
	go configwatcher.WatchConfig("configs/config.yaml", cfg, func(newCfg interface{}) {
		if nc, ok := newCfg.(*config.Config); ok {
			cfg.ApplyHotReload(nc)
		}
	})

	application.Run()
}
