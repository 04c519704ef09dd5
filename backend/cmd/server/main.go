// Сервер симуляции солнечной системы: загружает каталог тел, крутит сцену
// в игровом цикле и раздает кадры по WebSocket.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"orrery/backend/internal/config"
	"orrery/backend/internal/game"
	"orrery/backend/internal/telemetry"
	"orrery/backend/internal/transport"
	"orrery/backend/internal/transport/ws"
	"orrery/backend/internal/world"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Файл конфигурации (.toml или .yaml)")
		catalogPath = flag.String("catalog", "", "INI файл с телами, перекрывает catalog_path")
		wsAddr      = flag.String("addr", "", "Адрес HTTP/WebSocket сервера")
		grpcAddr    = flag.String("grpc", "", "Адрес gRPC health сервера")
		tps         = flag.Int("tps", 0, "Тиков в секунду")
		animate     = flag.Bool("animate", false, "Запустить анимацию сразу")
	)
	flag.Parse()

	logger := log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds)

	cfg := config.DefaultServerConfig()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logger.Fatalf("[Server] Ошибка загрузки конфигурации: %v", err)
		}
		cfg = loaded
	}
	if *catalogPath != "" {
		cfg.CatalogPath = *catalogPath
	}
	if *wsAddr != "" {
		cfg.WSAddr = *wsAddr
	}
	if *grpcAddr != "" {
		cfg.GRPCAddr = *grpcAddr
	}
	if *tps > 0 {
		cfg.TPS = *tps
	}
	if *animate {
		cfg.StartAnimated = true
	}

	scene, err := world.LoadScene(cfg.CatalogPath, cfg.SceneConfig())
	if err != nil {
		logger.Fatalf("[Server] Ошибка построения сцены: %v", err)
	}
	scene.SetAnimationEnabled(cfg.StartAnimated)
	logger.Printf("[Server] Сцена построена: %d тел, корень %s", scene.Len(), scene.Root().Name())

	holder := game.NewSceneHolder(scene)
	controls := game.NewControls(holder)

	tm := telemetry.NewTelemetryManager(logger, cfg.Telemetry.MaxEntries, cfg.Telemetry.PrintInterval.Std())
	tm.SetEnabled(cfg.Telemetry.Enabled)

	// Игровой цикл и системы
	gameTicker := game.NewGameTicker(cfg.TPS, logger)

	sceneSystem := game.NewSceneUpdateSystem(holder, controls, gameTicker, tm, logger)
	sceneSystem.SetSampleEvery(cfg.Telemetry.SampleEvery)
	gameTicker.RegisterSystem(sceneSystem)

	wsServer := ws.NewWSServer(holder, controls, logger)
	wsServer.SetEventRecorder(tm)
	if sim := cfg.NetworkSim; sim.Enabled {
		wsServer.SetNetworkSimulation(ws.NetworkSimulation{
			Enabled:         true,
			BaseLatency:     sim.BaseLatency.Std(),
			LatencyVariance: sim.LatencyVariance.Std(),
			PacketLoss:      sim.PacketLoss,
		})
	}

	syncSystem := game.NewNetworkSyncSystem(holder, controls, gameTicker, cfg.StreamInterval.Std(), logger)
	syncSystem.SetBroadcaster(wsServer)
	gameTicker.RegisterSystem(syncSystem)

	gameTicker.RegisterSystem(game.NewGameMetricsSystem(gameTicker, tm, cfg.Telemetry.PrintInterval.Std(), logger))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// gRPC health
	health := transport.NewHealthServer(holder, logger)
	if cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			logger.Fatalf("[Server] Не удалось открыть %s: %v", cfg.GRPCAddr, err)
		}
		go func() {
			if err := health.Serve(lis); err != nil {
				logger.Printf("[Health] Сервер остановлен: %v", err)
			}
		}()
		go health.Run(ctx, transport.DefaultHealthRefresh)
	}

	// Перезагрузка каталога при изменении файла
	if cfg.WatchCatalog && cfg.CatalogPath != "" {
		watcher, err := config.NewWatcher(cfg.CatalogPath, config.DefaultDebounce, logger)
		if err != nil {
			logger.Printf("[Server] Наблюдение за каталогом недоступно: %v", err)
		} else {
			defer watcher.Close()
			go func() {
				err := watcher.Run(ctx, func(path string) {
					reloadScene(path, cfg, holder, wsServer, health, tm, logger)
				})
				if err != nil && !errors.Is(err, context.Canceled) {
					logger.Printf("[Watcher] Остановлен: %v", err)
				}
			}()
		}
	}

	mux := http.NewServeMux()
	wsServer.RegisterRoutes(mux)
	mux.HandleFunc("/telemetry", telemetryHandler(tm, logger))
	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		stats := gameTicker.GetStats()
		stats["clients"] = wsServer.ClientCount()
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(stats); err != nil {
			logger.Printf("[Server] Ошибка отправки статистики: %v", err)
		}
	})

	httpServer := &http.Server{Addr: cfg.WSAddr, Handler: mux}
	go func() {
		logger.Printf("[Server] HTTP/WebSocket сервер слушает %s", cfg.WSAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("[Server] Ошибка HTTP сервера: %v", err)
		}
	}()

	if err := gameTicker.Start(); err != nil {
		logger.Fatalf("[Server] Не удалось запустить игровой цикл: %v", err)
	}

	<-ctx.Done()
	logger.Printf("[Server] Завершение работы...")

	gameTicker.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("[Server] Ошибка остановки HTTP: %v", err)
	}
	wsServer.Close()
	health.Stop()
}

// reloadScene перестраивает сцену из измененного каталога. При ошибке
// продолжает работать прежняя сцена.
func reloadScene(path string, cfg config.ServerConfig, holder *game.SceneHolder, wsServer *ws.WSServer,
	health *transport.HealthServer, tm *telemetry.TelemetryManager, logger *log.Logger) {
	scene, err := world.LoadScene(path, cfg.SceneConfig())
	if err != nil {
		logger.Printf("[Server] Каталог %s не применен: %v", path, err)
		tm.LogEvent("catalog_reload_failed")
		return
	}

	holder.Replace(scene)
	health.Refresh()
	tm.LogEvent("catalog_reload")
	logger.Printf("[Server] Каталог перезагружен: %d тел", scene.Len())

	if err := wsServer.BroadcastScene(); err != nil {
		logger.Printf("[Server] Ошибка рассылки сцены: %v", err)
	}
}

// telemetryHandler отдает накопленную телеметрию в JSON
func telemetryHandler(tm *telemetry.TelemetryManager, logger *log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := tm.GetTelemetryJSON()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(data)); err != nil {
			logger.Printf("[Server] Ошибка отправки телеметрии: %v", err)
		}
	}
}
