package transport

import (
	"context"
	"log"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"orrery/backend/internal/game"
)

// SceneService - имя сервиса в протоколе grpc.health.v1
const SceneService = "orrery.Scene"

// DefaultHealthRefresh - период проверки наличия сцены
const DefaultHealthRefresh = time.Second

// HealthServer отдает состояние сервера по gRPC. Статус SERVING выставляется,
// пока в SceneHolder есть сцена.
type HealthServer struct {
	server *grpc.Server
	health *health.Server
	holder *game.SceneHolder
	logger *log.Logger
}

// NewHealthServer создает gRPC сервер со службой здоровья
func NewHealthServer(holder *game.SceneHolder, logger *log.Logger) *HealthServer {
	if logger == nil {
		logger = log.Default()
	}

	h := &HealthServer{
		server: grpc.NewServer(),
		health: health.NewServer(),
		holder: holder,
		logger: logger,
	}
	healthpb.RegisterHealthServer(h.server, h.health)
	reflection.Register(h.server)
	h.Refresh()
	return h
}

// Refresh выставляет статус по текущему содержимому SceneHolder
func (h *HealthServer) Refresh() healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if h.holder != nil && h.holder.Scene() != nil {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.health.SetServingStatus("", status)
	h.health.SetServingStatus(SceneService, status)
	return status
}

// Run обновляет статус с заданным периодом до отмены контекста
func (h *HealthServer) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultHealthRefresh
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := h.Refresh()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if status := h.Refresh(); status != last {
				h.logger.Printf("[Health] Статус изменился: %s -> %s", last, status)
				last = status
			}
		}
	}
}

// Serve принимает соединения на lis до вызова Stop
func (h *HealthServer) Serve(lis net.Listener) error {
	h.logger.Printf("[Health] gRPC сервер слушает %s", lis.Addr())
	return h.server.Serve(lis)
}

// Stop переводит службы в NOT_SERVING и завершает сервер
func (h *HealthServer) Stop() {
	h.health.Shutdown()
	h.server.GracefulStop()
}
