package ws

import (
	"context"
	"math/rand"
	"time"
)

// NetworkSimulation - настройки для имитации сетевых условий. Применяется
// ко всем исходящим сообщениям, чтобы проверять интерполяцию клиентов.
type NetworkSimulation struct {
	Enabled         bool          // Включена ли имитация
	BaseLatency     time.Duration // Базовая задержка
	LatencyVariance time.Duration // Вариация задержки (jitter)
	PacketLoss      float64       // Доля потерянных сообщений (0.0 - 1.0)
}

// DelayedMessage - сообщение с задержкой
type DelayedMessage struct {
	conn   *SafeWriter
	data   []byte
	sendAt time.Time
}

// SetNetworkSimulation устанавливает параметры имитации сети
func (s *WSServer) SetNetworkSimulation(sim NetworkSimulation) {
	s.simMu.Lock()
	defer s.simMu.Unlock()
	s.networkSim = sim
	s.logger.Printf("[NetworkSim] Настройки обновлены: Enabled=%v, BaseLatency=%v, Variance=%v, PacketLoss=%.2f%%",
		sim.Enabled, sim.BaseLatency, sim.LatencyVariance, sim.PacketLoss*100)
}

// GetNetworkSimulation возвращает текущие настройки имитации
func (s *WSServer) GetNetworkSimulation() NetworkSimulation {
	s.simMu.Lock()
	defer s.simMu.Unlock()
	return s.networkSim
}

// SetRandomSeed делает потери и задержки воспроизводимыми
func (s *WSServer) SetRandomSeed(seed int64) {
	s.simMu.Lock()
	defer s.simMu.Unlock()
	s.rng = rand.New(rand.NewSource(seed))
}

// deliver отправляет сообщение с учетом имитации сетевых условий
func (s *WSServer) deliver(conn *SafeWriter, data []byte) error {
	s.simMu.Lock()
	sim := s.networkSim
	var lost bool
	delay := sim.BaseLatency
	if sim.Enabled {
		lost = sim.PacketLoss > 0 && s.rng.Float64() < sim.PacketLoss
		if sim.LatencyVariance > 0 {
			variance := time.Duration(s.rng.Float64() * float64(sim.LatencyVariance))
			if s.rng.Float64() < 0.5 {
				variance = -variance
			}
			delay += variance
		}
	}
	s.simMu.Unlock()

	// Если имитация выключена, отправляем сразу
	if !sim.Enabled {
		return conn.WriteRaw(data)
	}

	if lost {
		return nil // Пакет "потерян"
	}

	if delay <= 0 {
		return conn.WriteRaw(data)
	}

	select {
	case s.delayedMessages <- DelayedMessage{conn: conn, data: data, sendAt: time.Now().Add(delay)}:
		return nil
	default:
		s.logger.Printf("[NetworkSim] Буфер отложенных сообщений переполнен, отправляем сразу")
		return conn.WriteRaw(data)
	}
}

// processDelayedMessages отправляет отложенные сообщения по очереди
func (s *WSServer) processDelayedMessages(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-s.delayedMessages:
			if wait := time.Until(msg.sendAt); wait > 0 {
				timer := time.NewTimer(wait)
				select {
				case <-ctx.Done():
					timer.Stop()
					return
				case <-timer.C:
				}
			}
			if err := msg.conn.WriteRaw(msg.data); err != nil {
				s.logger.Printf("[NetworkSim] Ошибка отправки отложенного сообщения: %v", err)
			}
		}
	}
}
