package service

import (
	"context"
	"sync"

	"trade_core/internal/bus"
	"trade_core/internal/exchange"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

type publishedMsg struct {
	topic   string
	message interface{}
}

type fakeBus struct {
	mu        sync.Mutex
	published []publishedMsg
}

func (b *fakeBus) Publish(_ context.Context, topic string, message interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, publishedMsg{topic: topic, message: message})
	return nil
}

func (b *fakeBus) Subscribe(context.Context, string, bus.Handler) {}

func (b *fakeBus) onTopic(topic string) []interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []interface{}
	for _, p := range b.published {
		if p.topic == topic {
			out = append(out, p.message)
		}
	}
	return out
}

type fakeStore struct {
	mu   sync.Mutex
	data map[string]map[string][]byte
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]map[string][]byte)}
}

func (s *fakeStore) Set(_ context.Context, collection, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data[collection] == nil {
		s.data[collection] = make(map[string][]byte)
	}
	s.data[collection][key] = value
	return nil
}

func (s *fakeStore) Get(_ context.Context, collection, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[collection][key]
	if !ok {
		return nil, nil
	}
	return v, nil
}

func (s *fakeStore) Delete(_ context.Context, collection, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data[collection], key)
	return nil
}

func (s *fakeStore) Collection(_ context.Context, collection string) (map[string][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string][]byte, len(s.data[collection]))
	for k, v := range s.data[collection] {
		out[k] = v
	}
	return out, nil
}

type fakeGateway struct {
	klines     []exchange.Kline
	klinesErr  error
	balance    decimal.Decimal
	balanceErr error
}

func (g *fakeGateway) GetKlines(context.Context, string, string, int) ([]exchange.Kline, error) {
	if g.klinesErr != nil {
		return nil, g.klinesErr
	}
	return g.klines, nil
}

func (g *fakeGateway) AvailableBalance(context.Context, string) (decimal.Decimal, error) {
	if g.balanceErr != nil {
		return decimal.Zero, g.balanceErr
	}
	return g.balance, nil
}

func (g *fakeGateway) CreateOrder(context.Context, exchange.CreateOrderParams) (exchange.OrderAck, error) {
	return exchange.OrderAck{}, errors.New("not used")
}

func (g *fakeGateway) ExecutionReports(context.Context) <-chan exchange.ExecutionReport {
	ch := make(chan exchange.ExecutionReport)
	close(ch)
	return ch
}

func (g *fakeGateway) MarketTicks(context.Context) <-chan exchange.MarketTick {
	ch := make(chan exchange.MarketTick)
	close(ch)
	return ch
}
